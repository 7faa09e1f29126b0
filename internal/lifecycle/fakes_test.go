package lifecycle

import (
	"context"
	"fmt"
	"slices"
	"sort"
	"sync"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/guardias-hospital/shift-manager/backend/internal/core/shift"
	"github.com/guardias-hospital/shift-manager/backend/internal/domain"
)

// memStore is an in-memory ShiftStore. ConditionalUpdateShift holds the lock
// across check and write, like a single UPDATE ... WHERE status IN (...).
type memStore struct {
	mu     sync.Mutex
	nextID int64
	rows   map[int64]*domain.Shift

	failUpdate error
	failBatch  error

	// afterGet runs once a read has returned, to interleave another writer
	// between a read and the following conditional update.
	afterGet func(id int64)
}

func newMemStore() *memStore {
	return &memStore{rows: make(map[int64]*domain.Shift)}
}

func (m *memStore) GetShift(_ context.Context, id int64) (*domain.Shift, error) {
	m.mu.Lock()
	s, ok := m.rows[id]
	var out *domain.Shift
	if ok {
		out = s.Clone()
	}
	hook := m.afterGet
	m.mu.Unlock()

	if !ok {
		return nil, fmt.Errorf("%w: shift %d", domain.ErrNotFound, id)
	}
	if hook != nil {
		hook(id)
	}
	return out, nil
}

func (m *memStore) insertLocked(s *domain.Shift) {
	m.nextID++
	s.ID = m.nextID
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	if s.CreatedAt.IsZero() {
		s.CreatedAt = now
	}
	s.UpdatedAt = s.CreatedAt
	m.rows[s.ID] = s.Clone()
}

func (m *memStore) InsertShift(_ context.Context, s *domain.Shift) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.insertLocked(s)
	return nil
}

func (m *memStore) InsertShifts(_ context.Context, shifts []*domain.Shift) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failBatch != nil {
		return 0, m.failBatch
	}
	for _, s := range shifts {
		m.insertLocked(s)
	}
	return len(shifts), nil
}

func (m *memStore) ConditionalUpdateShift(_ context.Context, id int64, expected []domain.ShiftStatus, patch domain.ShiftPatch, now time.Time) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failUpdate != nil {
		return 0, m.failUpdate
	}
	s, ok := m.rows[id]
	if !ok || !slices.Contains(expected, s.Status) || !patch.Matches(s) {
		return 0, nil
	}
	patch.Apply(s, now)
	return 1, nil
}

func (m *memStore) PromoteSeries(_ context.Context, id int64, expected []domain.ShiftStatus, recurrenceID string, future []*domain.Shift, now time.Time) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failBatch != nil {
		return 0, m.failBatch
	}
	s, ok := m.rows[id]
	patch := shift.SeriesPatch(recurrenceID)
	if !ok || !slices.Contains(expected, s.Status) || !patch.Matches(s) {
		return 0, nil
	}
	patch.Apply(s, now)
	for _, f := range future {
		m.insertLocked(f)
	}
	return len(future), nil
}

func (m *memStore) DeleteShift(_ context.Context, id int64) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.rows[id]; !ok {
		return 0, nil
	}
	delete(m.rows, id)
	return 1, nil
}

func (m *memStore) DeleteSeriesFrom(_ context.Context, recurrenceID string, fromDate string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var n int64
	for id, s := range m.rows {
		if s.RecurrenceID != nil && *s.RecurrenceID == recurrenceID && s.ShiftDate >= fromDate {
			delete(m.rows, id)
			n++
		}
	}
	return n, nil
}

func (m *memStore) ListShifts(_ context.Context, f domain.ShiftFilter) ([]*domain.Shift, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*domain.Shift
	for _, s := range m.rows {
		if f.From != "" && s.ShiftDate < f.From || f.To != "" && s.ShiftDate > f.To {
			continue
		}
		if f.DoctorID != nil && !s.IsOwnedBy(*f.DoctorID) {
			continue
		}
		if len(f.Statuses) > 0 && !slices.Contains(f.Statuses, s.Status) {
			continue
		}
		if f.CreatedBefore != nil && s.CreatedAt.After(*f.CreatedBefore) {
			continue
		}
		if f.RecurrenceID != nil && (s.RecurrenceID == nil || *s.RecurrenceID != *f.RecurrenceID) {
			continue
		}
		out = append(out, s.Clone())
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].ShiftDate != out[j].ShiftDate {
			return out[i].ShiftDate < out[j].ShiftDate
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (m *memStore) BusyDoctorIDs(_ context.Context, date string) ([]int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var ids []int64
	for _, s := range m.rows {
		if s.ShiftDate == date && s.DoctorID != nil {
			ids = append(ids, *s.DoctorID)
		}
	}
	return ids, nil
}

type memEvents struct {
	mu     sync.Mutex
	events []*domain.ShiftEvent
	fail   error
}

func (m *memEvents) AppendEvent(_ context.Context, e *domain.ShiftEvent) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.fail != nil {
		return m.fail
	}
	e.ID = int64(len(m.events) + 1)
	m.events = append(m.events, e)
	return nil
}

func (m *memEvents) ListEvents(_ context.Context, shiftID int64) ([]*domain.ShiftEvent, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*domain.ShiftEvent
	for _, e := range m.events {
		if e.ShiftID == shiftID {
			out = append(out, e)
		}
	}
	return out, nil
}

func (m *memEvents) types(shiftID int64) []domain.EventType {
	events, _ := m.ListEvents(context.Background(), shiftID)
	var out []domain.EventType
	for _, e := range events {
		out = append(out, e.EventType)
	}
	return out
}

type memSink struct {
	mu   sync.Mutex
	sent []domain.Notification
	fail error
}

func (m *memSink) Emit(_ context.Context, n domain.Notification) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.fail != nil {
		return m.fail
	}
	m.sent = append(m.sent, n)
	return nil
}

func (m *memSink) ofType(t domain.NotificationType) []domain.Notification {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []domain.Notification
	for _, n := range m.sent {
		if n.Type == t {
			out = append(out, n)
		}
	}
	return out
}

func recipientIDs(n domain.Notification) []int64 {
	ids := make([]int64, 0, len(n.Recipients))
	for _, r := range n.Recipients {
		ids = append(ids, r.UserID)
	}
	slices.Sort(ids)
	return ids
}

type memDirectory struct {
	users map[int64]*domain.User
}

func (m *memDirectory) GetUserByID(_ context.Context, id int64) (*domain.User, error) {
	u, ok := m.users[id]
	if !ok {
		return nil, fmt.Errorf("%w: user %d", domain.ErrNotFound, id)
	}
	return u, nil
}

func (m *memDirectory) list(keep func(*domain.User) bool) []*domain.User {
	var out []*domain.User
	for _, u := range m.users {
		if keep(u) {
			out = append(out, u)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (m *memDirectory) ListDoctors(context.Context) ([]*domain.User, error) {
	return m.list(func(u *domain.User) bool { return u.Role.IsDoctor() }), nil
}

func (m *memDirectory) ListAdmins(context.Context) ([]*domain.User, error) {
	return m.list(func(u *domain.User) bool { return u.Role == domain.RoleAdmin }), nil
}

const (
	adminID       int64 = 1
	internistaA   int64 = 10
	consultorioID int64 = 11
	internistaB   int64 = 12
	completoID    int64 = 13
)

var (
	adminActor = domain.Actor{ID: adminID, Role: domain.RoleAdmin}
	doctorA    = domain.Actor{ID: internistaA, Role: domain.RoleInternacion}
	doctorB    = domain.Actor{ID: internistaB, Role: domain.RoleInternacion}
)

func newDirectory() *memDirectory {
	users := map[int64]*domain.User{
		adminID:       {ID: adminID, FullName: "Admin", Email: "admin@hospital.test", Role: domain.RoleAdmin, IsActive: true},
		internistaA:   {ID: internistaA, FullName: "Ana Internacion", Email: "ana@hospital.test", Role: domain.RoleInternacion, IsActive: true},
		consultorioID: {ID: consultorioID, FullName: "Carlos Consultorio", Email: "carlos@hospital.test", Role: domain.RoleConsultorio, IsActive: true},
		internistaB:   {ID: internistaB, FullName: "Beatriz Internacion", Email: "bea@hospital.test", Role: domain.RoleInternacion, IsActive: true},
		completoID:    {ID: completoID, FullName: "Diego Completo", Email: "diego@hospital.test", Role: domain.RoleCompleto, IsActive: true},
	}
	return &memDirectory{users: users}
}

// tickingClock advances one minute per reading.
type tickingClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *tickingClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(time.Minute)
	return c.now
}

type fixture struct {
	svc    *Service
	store  *memStore
	events *memEvents
	sink   *memSink
	users  *memDirectory
	clock  *tickingClock
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		store:  newMemStore(),
		events: &memEvents{},
		sink:   &memSink{},
		users:  newDirectory(),
		clock:  &tickingClock{now: time.Date(2024, 3, 10, 7, 0, 0, 0, time.UTC)},
	}
	n := 0
	f.svc = NewService(f.store, f.events, f.sink, f.users, zap.NewNop(), Options{
		Now: f.clock.Now,
		Expander: &shift.Expander{NewRecurrenceID: func() string {
			n++
			return fmt.Sprintf("series-%d", n)
		}},
	})
	return f
}

func (f *fixture) mustCreate(t *testing.T, in CreateInput) *domain.Shift {
	t.Helper()
	res, err := f.svc.Create(context.Background(), adminActor, in)
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	return res.Shifts[0]
}

func (f *fixture) stored(t *testing.T, id int64) *domain.Shift {
	t.Helper()
	s, err := f.store.GetShift(context.Background(), id)
	if err != nil {
		t.Fatalf("GetShift(%d) error = %v", id, err)
	}
	return s
}

func int64Ptr(v int64) *int64 { return &v }
