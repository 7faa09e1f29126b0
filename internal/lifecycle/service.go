// Package lifecycle runs the shift state machine against the store and fans
// the outcome out to the audit log and the notification sink.
//
// A state change is committed first. Audit and notification failures after
// that point are logged and never undo or fail the operation.
package lifecycle

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/microcosm-cc/bluemonday"
	"go.uber.org/zap"

	"github.com/guardias-hospital/shift-manager/backend/internal/core/shift"
	"github.com/guardias-hospital/shift-manager/backend/internal/domain"
)

const DefaultPendingThreshold = 12 * time.Hour

type Options struct {
	PendingThreshold time.Duration
	Now              func() time.Time
	Expander         *shift.Expander
}

type Service struct {
	shifts   ShiftStore
	events   EventLog
	sink     NotificationSink
	users    Directory
	logger   *zap.Logger
	expander *shift.Expander
	policy   *bluemonday.Policy

	pendingThreshold time.Duration
	now              func() time.Time
}

func NewService(shifts ShiftStore, events EventLog, sink NotificationSink, users Directory, logger *zap.Logger, opts Options) *Service {
	if opts.PendingThreshold <= 0 {
		opts.PendingThreshold = DefaultPendingThreshold
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.Expander == nil {
		opts.Expander = shift.NewExpander()
	}
	return &Service{
		shifts:           shifts,
		events:           events,
		sink:             sink,
		users:            users,
		logger:           logger,
		expander:         opts.Expander,
		policy:           bluemonday.StrictPolicy(),
		pendingThreshold: opts.PendingThreshold,
		now:              opts.Now,
	}
}

func (s *Service) PendingThreshold() time.Duration {
	return s.pendingThreshold
}

func (s *Service) sanitize(text string) string {
	return s.policy.Sanitize(text)
}

// commit writes the patch with a compare-and-set on the stored status.
// lost is returned when no row matched, which means a concurrent writer moved
// the shift first.
func (s *Service) commit(ctx context.Context, current *domain.Shift, expected []domain.ShiftStatus, patch domain.ShiftPatch, lost error) (*domain.Shift, error) {
	now := s.now()
	n, err := s.shifts.ConditionalUpdateShift(ctx, current.ID, expected, patch, now)
	if err != nil {
		return nil, err
	}
	if n == 0 {
		return nil, lost
	}
	updated := current.Clone()
	patch.Apply(updated, now)
	return updated, nil
}

func lostRace(id int64) error {
	return fmt.Errorf("%w: shift %d changed concurrently", domain.ErrInvalidState, id)
}

func (s *Service) record(ctx context.Context, shiftID int64, eventType domain.EventType, actorID *int64, note string) {
	event := &domain.ShiftEvent{
		ShiftID:   shiftID,
		EventType: eventType,
		DoctorID:  actorID,
		Note:      note,
		CreatedAt: s.now(),
	}
	if err := s.events.AppendEvent(ctx, event); err != nil {
		s.logger.Error("append shift event",
			zap.Int64("shift_id", shiftID),
			zap.String("event_type", string(eventType)),
			zap.Error(err))
	}
}

func (s *Service) Get(ctx context.Context, id int64) (*domain.Shift, error) {
	return s.shifts.GetShift(ctx, id)
}

func (s *Service) List(ctx context.Context, filter domain.ShiftFilter) ([]*domain.Shift, error) {
	return s.shifts.ListShifts(ctx, filter)
}

// ListFree returns the claimable shifts from the given date on.
func (s *Service) ListFree(ctx context.Context, from string) ([]*domain.Shift, error) {
	return s.shifts.ListShifts(ctx, domain.ShiftFilter{From: from, Statuses: domain.ClaimableStatuses})
}

func (s *Service) Events(ctx context.Context, id int64) ([]*domain.ShiftEvent, error) {
	if _, err := s.shifts.GetShift(ctx, id); err != nil {
		return nil, err
	}
	return s.events.ListEvents(ctx, id)
}

// EligibleDoctors returns the active doctors not scheduled on date.
func (s *Service) EligibleDoctors(ctx context.Context, date string, exclude *int64) ([]*domain.User, error) {
	doctors, err := s.users.ListDoctors(ctx)
	if err != nil {
		return nil, err
	}
	busy, err := s.shifts.BusyDoctorIDs(ctx, date)
	if err != nil {
		return nil, err
	}
	return shift.EligibleDoctors(doctors, busy, exclude), nil
}

// requireDoctor checks that id names an active doctor. Unknown ids are a
// validation problem of the request, not a missing shift.
func (s *Service) requireDoctor(ctx context.Context, id int64) (*domain.User, error) {
	u, err := s.users.GetUserByID(ctx, id)
	if errors.Is(err, domain.ErrNotFound) {
		return nil, fmt.Errorf("%w: doctor %d does not exist", domain.ErrValidation, id)
	}
	if err != nil {
		return nil, err
	}
	if !u.Role.IsDoctor() || !u.IsActive {
		return nil, fmt.Errorf("%w: user %d is not an active doctor", domain.ErrValidation, id)
	}
	return u, nil
}
