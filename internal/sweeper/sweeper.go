// Package sweeper runs the periodic jobs of the shift lifecycle: escalating
// free shifts nobody claimed and reminding doctors of tomorrow's shifts.
package sweeper

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/guardias-hospital/shift-manager/backend/internal/domain"
)

const DefaultReminderLead = 24 * time.Hour

// Lifecycle is the part of lifecycle.Service the sweeper drives.
type Lifecycle interface {
	List(ctx context.Context, filter domain.ShiftFilter) ([]*domain.Shift, error)
	MarkPending(ctx context.Context, id int64) (*domain.Shift, error)
	Remind(ctx context.Context, sh *domain.Shift)
	PendingThreshold() time.Duration
}

// Deduper reports true the first time a key is claimed within ttl.
type Deduper interface {
	Claim(ctx context.Context, key string, ttl time.Duration) (bool, error)
}

type Options struct {
	ReminderLead time.Duration
	Now          func() time.Time
}

type Sweeper struct {
	shifts       Lifecycle
	dedupe       Deduper
	logger       *zap.Logger
	reminderLead time.Duration
	now          func() time.Time
}

// New builds a sweeper. A nil dedupe sends a reminder on every pass.
func New(shifts Lifecycle, dedupe Deduper, logger *zap.Logger, opts Options) *Sweeper {
	if opts.ReminderLead <= 0 {
		opts.ReminderLead = DefaultReminderLead
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Sweeper{
		shifts:       shifts,
		dedupe:       dedupe,
		logger:       logger,
		reminderLead: opts.ReminderLead,
		now:          opts.Now,
	}
}

// SweepPending escalates every free shift older than the pending threshold.
// A shift claimed between the listing and the update is skipped.
func (s *Sweeper) SweepPending(ctx context.Context) (int, error) {
	cutoff := s.now().Add(-s.shifts.PendingThreshold())
	due, err := s.shifts.List(ctx, domain.ShiftFilter{
		Statuses:      []domain.ShiftStatus{domain.ShiftStatusFree},
		CreatedBefore: &cutoff,
	})
	if err != nil {
		return 0, fmt.Errorf("list free shifts: %w", err)
	}

	escalated := 0
	var errs []error
	for _, sh := range due {
		_, err := s.shifts.MarkPending(ctx, sh.ID)
		switch {
		case err == nil:
			escalated++
		case domain.IsBusinessError(err):
			s.logger.Debug("skip escalation", zap.Int64("shift_id", sh.ID), zap.Error(err))
		default:
			errs = append(errs, fmt.Errorf("escalate shift %d: %w", sh.ID, err))
		}
	}
	return escalated, errors.Join(errs...)
}

// SweepReminders notifies the doctor of each confirmed shift dated
// reminderLead from now, at most once per shift and date.
func (s *Sweeper) SweepReminders(ctx context.Context) (int, error) {
	date := s.now().Add(s.reminderLead).Format(domain.CivilDateLayout)
	shifts, err := s.shifts.List(ctx, domain.ShiftFilter{
		From:     date,
		To:       date,
		Statuses: []domain.ShiftStatus{domain.ShiftStatusConfirmed},
	})
	if err != nil {
		return 0, fmt.Errorf("list confirmed shifts: %w", err)
	}

	reminded := 0
	for _, sh := range shifts {
		if sh.DoctorID == nil {
			continue
		}
		if s.dedupe != nil {
			first, err := s.dedupe.Claim(ctx, reminderKey(sh), 2*s.reminderLead)
			if err != nil {
				// the reminder is not worth a duplicate risk
				s.logger.Warn("reminder dedupe", zap.Int64("shift_id", sh.ID), zap.Error(err))
				continue
			}
			if !first {
				continue
			}
		}
		s.shifts.Remind(ctx, sh)
		reminded++
	}
	return reminded, nil
}

func reminderKey(sh *domain.Shift) string {
	return "reminder:" + strconv.FormatInt(sh.ID, 10) + ":" + sh.ShiftDate
}

// Sweep runs one pass of both jobs and logs the outcome.
func (s *Sweeper) Sweep(ctx context.Context) error {
	escalated, pendingErr := s.SweepPending(ctx)
	reminded, reminderErr := s.SweepReminders(ctx)

	err := errors.Join(pendingErr, reminderErr)
	if err != nil {
		s.logger.Error("sweep", zap.Int("escalated", escalated), zap.Int("reminded", reminded), zap.Error(err))
		return err
	}
	s.logger.Info("sweep", zap.Int("escalated", escalated), zap.Int("reminded", reminded))
	return nil
}

// Run sweeps on the cron schedule until ctx is done. Overlapping passes are
// skipped.
func (s *Sweeper) Run(ctx context.Context, schedule string) error {
	logger := cronLogger{s.logger.Named("cron").Sugar()}
	c := cron.New(
		cron.WithLogger(logger),
		cron.WithChain(cron.Recover(logger), cron.SkipIfStillRunning(logger)),
	)
	if _, err := c.AddFunc(schedule, func() { _ = s.Sweep(ctx) }); err != nil {
		return fmt.Errorf("schedule %q: %w", schedule, err)
	}

	s.logger.Info("sweeper started", zap.String("schedule", schedule))
	c.Start()
	<-ctx.Done()
	<-c.Stop().Done()
	s.logger.Info("sweeper stopped")
	return nil
}

// cronLogger routes the scheduler's own messages through zap. Routine
// scheduling chatter goes to debug.
type cronLogger struct {
	log *zap.SugaredLogger
}

func (l cronLogger) Info(msg string, keysAndValues ...any) {
	l.log.Debugw(msg, keysAndValues...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...any) {
	l.log.Errorw(msg, append(keysAndValues, "error", err)...)
}
