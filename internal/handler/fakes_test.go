package handler

import (
	"context"
	"net/http"
	"sync"
	"testing"
	"time"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/guardias-hospital/shift-manager/backend/internal/config"
	"github.com/guardias-hospital/shift-manager/backend/internal/domain"
	"github.com/guardias-hospital/shift-manager/backend/internal/lifecycle"
)

const testPassword = "guardia1234"

type fakeStore struct {
	users map[int64]*domain.User
	slots []*domain.AvailabilitySlot
}

func (f *fakeStore) GetUserByID(_ context.Context, id int64) (*domain.User, error) {
	u, ok := f.users[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	c := *u
	return &c, nil
}

func (f *fakeStore) GetUserByUsername(_ context.Context, username string) (*domain.User, error) {
	for _, u := range f.users {
		if u.Username == username {
			c := *u
			return &c, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (f *fakeStore) GetAllUsers(context.Context) ([]*domain.User, error) {
	out := make([]*domain.User, 0, len(f.users))
	for _, u := range f.users {
		out = append(out, u)
	}
	return out, nil
}

func (f *fakeStore) ListDoctors(ctx context.Context) ([]*domain.User, error) {
	return f.GetAllUsers(ctx)
}

func (f *fakeStore) CreateUser(_ context.Context, u *domain.User) error {
	u.ID = int64(len(f.users) + 100)
	u.IsActive = true
	f.users[u.ID] = u
	return nil
}

func (f *fakeStore) UpdateUser(_ context.Context, u *domain.User) error {
	f.users[u.ID] = u
	return nil
}

func (f *fakeStore) InsertAvailabilitySlot(_ context.Context, slot *domain.AvailabilitySlot) error {
	slot.ID = int64(len(f.slots) + 1)
	f.slots = append(f.slots, slot)
	return nil
}

func (f *fakeStore) ListAvailabilitySlots(_ context.Context, userID int64) ([]*domain.AvailabilitySlot, error) {
	var out []*domain.AvailabilitySlot
	for _, s := range f.slots {
		if s.UserID == userID {
			out = append(out, s)
		}
	}
	return out, nil
}

func (f *fakeStore) DeleteAvailabilitySlot(_ context.Context, id, userID int64) error {
	for i, s := range f.slots {
		if s.ID == id && s.UserID == userID {
			f.slots = append(f.slots[:i], f.slots[i+1:]...)
			return nil
		}
	}
	return domain.ErrNotFound
}

func (f *fakeStore) ListNotifications(context.Context, int64, bool) ([]*domain.InAppNotification, error) {
	return []*domain.InAppNotification{}, nil
}

func (f *fakeStore) MarkNotificationRead(context.Context, int64, int64) error {
	return domain.ErrNotFound
}

// fakeShifts answers every operation with err, or with shift when err is nil.
type fakeShifts struct {
	shift   *domain.Shift
	list    []*domain.Shift
	err     error
	created lifecycle.CreateInput
	filter  domain.ShiftFilter
	calls   []string
	actor   domain.Actor
}

func (f *fakeShifts) answer(call string, actor domain.Actor) (*domain.Shift, error) {
	f.calls = append(f.calls, call)
	f.actor = actor
	if f.err != nil {
		return nil, f.err
	}
	return f.shift, nil
}

func (f *fakeShifts) Get(context.Context, int64) (*domain.Shift, error) {
	return f.answer("get", domain.Actor{})
}

func (f *fakeShifts) List(_ context.Context, filter domain.ShiftFilter) ([]*domain.Shift, error) {
	f.filter = filter
	return f.list, f.err
}

func (f *fakeShifts) ListFree(context.Context, string) ([]*domain.Shift, error) {
	return f.list, f.err
}

func (f *fakeShifts) Events(context.Context, int64) ([]*domain.ShiftEvent, error) {
	return []*domain.ShiftEvent{}, f.err
}

func (f *fakeShifts) EligibleDoctors(context.Context, string, *int64) ([]*domain.User, error) {
	return []*domain.User{}, f.err
}

func (f *fakeShifts) Create(_ context.Context, actor domain.Actor, in lifecycle.CreateInput) (*lifecycle.BatchResult, error) {
	f.created = in
	if _, err := f.answer("create", actor); err != nil {
		return nil, err
	}
	return &lifecycle.BatchResult{Shifts: []*domain.Shift{f.shift}, Requested: 1, Created: 1}, nil
}

func (f *fakeShifts) Update(_ context.Context, _ int64, actor domain.Actor, _ lifecycle.UpdateInput) (*domain.Shift, error) {
	return f.answer("update", actor)
}

func (f *fakeShifts) Delete(_ context.Context, _ int64, actor domain.Actor, allFuture bool) (int64, error) {
	call := "delete"
	if allFuture {
		call = "delete-all-future"
	}
	if _, err := f.answer(call, actor); err != nil {
		return 0, err
	}
	return 1, nil
}

func (f *fakeShifts) PromoteToRecurring(_ context.Context, _ int64, actor domain.Actor, _ string) (*lifecycle.BatchResult, error) {
	if _, err := f.answer("promote", actor); err != nil {
		return nil, err
	}
	return &lifecycle.BatchResult{}, nil
}

func (f *fakeShifts) Confirm(_ context.Context, _ int64, actor domain.Actor) (*domain.Shift, error) {
	return f.answer("confirm", actor)
}

func (f *fakeShifts) Reject(_ context.Context, _ int64, actor domain.Actor) (*domain.Shift, error) {
	return f.answer("reject", actor)
}

func (f *fakeShifts) Release(_ context.Context, _ int64, actor domain.Actor) (*domain.Shift, error) {
	return f.answer("release", actor)
}

func (f *fakeShifts) Cancel(_ context.Context, _ int64, actor domain.Actor) (*domain.Shift, error) {
	return f.answer("cancel", actor)
}

func (f *fakeShifts) Claim(_ context.Context, _ int64, actor domain.Actor) (*domain.Shift, error) {
	return f.answer("claim", actor)
}

func (f *fakeShifts) ClockIn(_ context.Context, _ int64, doctorID int64) (*domain.Shift, error) {
	return f.answer("clock-in", domain.Actor{ID: doctorID})
}

func (f *fakeShifts) ClockOut(_ context.Context, _ int64, doctorID int64) (*domain.Shift, error) {
	return f.answer("clock-out", domain.Actor{ID: doctorID})
}

func (f *fakeShifts) SaveDoctorNotes(_ context.Context, _ int64, doctorID int64, _ string) (*domain.Shift, error) {
	return f.answer("doctor-notes", domain.Actor{ID: doctorID})
}

type fakeMailer struct {
	sent []domain.MailMessage
	err  error
}

func (f *fakeMailer) Publish(_ context.Context, msg domain.MailMessage) error {
	f.sent = append(f.sent, msg)
	return f.err
}

type fakeRevoker struct {
	mu      sync.Mutex
	revoked map[string]time.Duration
}

func (f *fakeRevoker) RevokeToken(_ context.Context, jti string, ttl time.Duration) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.revoked[jti] = ttl
	return nil
}

func (f *fakeRevoker) IsRevoked(_ context.Context, jti string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	_, ok := f.revoked[jti]
	return ok, nil
}

const (
	adminID   int64 = 1
	doctorID  int64 = 10
	retiredID int64 = 11
)

type testEnv struct {
	h       *Handler
	store   *fakeStore
	shifts  *fakeShifts
	mailer  *fakeMailer
	revoker *fakeRevoker
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	hash, err := bcrypt.GenerateFromPassword([]byte(testPassword), bcrypt.MinCost)
	if err != nil {
		t.Fatal(err)
	}
	store := &fakeStore{users: map[int64]*domain.User{
		adminID:   {ID: adminID, Username: "admin", FullName: "Jefatura de Guardia", Email: "jefatura@hospital.test", Role: domain.RoleAdmin, IsActive: true, PasswordHash: string(hash)},
		doctorID:  {ID: doctorID, Username: "lfernandez", FullName: "Lucia Fernandez", Email: "lucia@hospital.test", Role: domain.RoleInternacion, IsActive: true, PasswordHash: string(hash)},
		retiredID: {ID: retiredID, Username: "macosta", FullName: "Martin Acosta", Email: "martin@hospital.test", Role: domain.RoleConsultorio, IsActive: false, PasswordHash: string(hash)},
	}}

	cfg := &config.Config{}
	cfg.JWT.Secret = "test-secret"
	cfg.JWT.Expiration = 3600
	cfg.InitialAdmin.Username = "admin"
	cfg.NewUser.PasswordLength = 12

	env := &testEnv{
		store:   store,
		shifts:  &fakeShifts{shift: &domain.Shift{ID: 7, ShiftDate: "2024-03-04", Status: domain.ShiftStatusFree}},
		mailer:  &fakeMailer{},
		revoker: &fakeRevoker{revoked: map[string]time.Duration{}},
	}
	env.h, err = NewHandler(cfg, env.store, env.shifts, env.mailer, env.revoker, zap.NewNop())
	if err != nil {
		t.Fatal(err)
	}
	env.h.RegisterRoutes()
	return env
}

func (e *testEnv) cookie(t *testing.T, userID int64) *http.Cookie {
	t.Helper()
	ss, exp, err := e.h.signToken(e.store.users[userID], time.Now())
	if err != nil {
		t.Fatal(err)
	}
	return &http.Cookie{Name: tokenCookieName, Value: ss, Expires: exp}
}
