package lifecycle

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/guardias-hospital/shift-manager/backend/internal/core/shift"
	"github.com/guardias-hospital/shift-manager/backend/internal/domain"
)

type CreateInput struct {
	shift.NewShiftInput
	// RecurringUntil turns the shift into a weekly series ending on that
	// date, inclusive.
	RecurringUntil string
}

// BatchResult reports what a create or promote actually wrote. Created can be
// lower than Requested only when err is non-nil.
type BatchResult struct {
	Shifts       []*domain.Shift `json:"shifts"`
	Requested    int             `json:"requested"`
	Created      int             `json:"created"`
	RecurrenceID string          `json:"recurrenceID,omitempty"`
}

func (s *Service) Create(ctx context.Context, actor domain.Actor, in CreateInput) (*BatchResult, error) {
	if err := shift.CanCreate(actor); err != nil {
		return nil, err
	}
	in.Notes = s.sanitize(in.Notes)
	template, err := shift.BuildShift(in.NewShiftInput)
	if err != nil {
		return nil, err
	}
	if template.DoctorID != nil {
		if _, err := s.requireDoctor(ctx, *template.DoctorID); err != nil {
			return nil, err
		}
	}

	if in.RecurringUntil == "" {
		if err := s.shifts.InsertShift(ctx, template); err != nil {
			return &BatchResult{Requested: 1}, err
		}
		s.record(ctx, template.ID, domain.EventCreated, &actor.ID, "")
		s.announceCreated(ctx, template, 0)
		return &BatchResult{Shifts: []*domain.Shift{template}, Requested: 1, Created: 1}, nil
	}

	if _, err := shift.ParseCivilDate(in.RecurringUntil); err != nil {
		return nil, err
	}
	if in.RecurringUntil < template.ShiftDate {
		return nil, fmt.Errorf("%w: recurrence ends %s before the first date %s",
			domain.ErrValidation, in.RecurringUntil, template.ShiftDate)
	}
	series, err := s.expander.GenerateSeries(template, template.ShiftDate, in.RecurringUntil)
	if err != nil {
		return nil, err
	}

	created, err := s.shifts.InsertShifts(ctx, series)
	result := &BatchResult{Requested: len(series), Created: created}
	if err != nil {
		return result, err
	}
	result.Shifts = series
	result.RecurrenceID = *series[0].RecurrenceID

	for i, sh := range series {
		s.record(ctx, sh.ID, domain.EventCreated, &actor.ID, "")
		if i == 0 {
			s.record(ctx, sh.ID, domain.EventRecurrenceGenerated, &actor.ID,
				fmt.Sprintf("%d weekly instances until %s", len(series), in.RecurringUntil))
		}
	}
	s.announceCreated(ctx, series[0], len(series))
	return result, nil
}

func (s *Service) announceCreated(ctx context.Context, sh *domain.Shift, seriesCount int) {
	if sh.DoctorID != nil {
		s.notifyDoctor(ctx, domain.NotificationShiftAssigned, sh, *sh.DoctorID, seriesCount)
		return
	}
	s.broadcastFree(ctx, sh, nil, true, seriesCount)
}

func (s *Service) Confirm(ctx context.Context, id int64, actor domain.Actor) (*domain.Shift, error) {
	current, err := s.shifts.GetShift(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := shift.CanConfirm(current, actor); err != nil {
		return nil, err
	}
	updated, err := s.commit(ctx, current, []domain.ShiftStatus{domain.ShiftStatusNew}, shift.ConfirmPatch(), lostRace(id))
	if err != nil {
		return nil, err
	}

	s.record(ctx, id, domain.EventConfirmed, &actor.ID, "")
	s.notifyAdmins(ctx, domain.NotificationShiftConfirmed, updated)
	return updated, nil
}

// Reject hands a new assignment back to the free pool. The audit log keeps
// the verb "rejected" while the stored status becomes free.
func (s *Service) Reject(ctx context.Context, id int64, actor domain.Actor) (*domain.Shift, error) {
	current, err := s.shifts.GetShift(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := shift.CanReject(current, actor); err != nil {
		return nil, err
	}
	updated, err := s.free(ctx, current, []domain.ShiftStatus{domain.ShiftStatusNew})
	if err != nil {
		return nil, err
	}

	s.record(ctx, id, domain.EventRejected, &actor.ID, "")
	s.notifyAdmins(ctx, domain.NotificationShiftDeclined, current)
	s.broadcastFree(ctx, updated, current.DoctorID, false, 0)
	return updated, nil
}

// Release is the admin's way of freeing an assigned shift.
func (s *Service) Release(ctx context.Context, id int64, actor domain.Actor) (*domain.Shift, error) {
	current, err := s.shifts.GetShift(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := shift.CanRelease(current, actor); err != nil {
		return nil, err
	}
	updated, err := s.free(ctx, current, []domain.ShiftStatus{current.Status})
	if err != nil {
		return nil, err
	}

	s.record(ctx, id, domain.EventFreed, &actor.ID, "")
	s.broadcastFree(ctx, updated, current.DoctorID, false, 0)
	return updated, nil
}

// Cancel frees a confirmed shift that has not started.
func (s *Service) Cancel(ctx context.Context, id int64, actor domain.Actor) (*domain.Shift, error) {
	current, err := s.shifts.GetShift(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := shift.CanCancel(current, actor); err != nil {
		return nil, err
	}
	updated, err := s.free(ctx, current, []domain.ShiftStatus{domain.ShiftStatusConfirmed})
	if err != nil {
		return nil, err
	}

	note := "cancelled by doctor"
	if actor.IsAdmin() {
		note = "cancelled by admin"
	} else {
		s.notifyAdmins(ctx, domain.NotificationShiftDeclined, current)
	}
	s.record(ctx, id, domain.EventFreed, &actor.ID, note)
	s.broadcastFree(ctx, updated, current.DoctorID, false, 0)
	return updated, nil
}

func (s *Service) free(ctx context.Context, current *domain.Shift, expected []domain.ShiftStatus) (*domain.Shift, error) {
	patch, err := shift.FreePatch(current)
	if err != nil {
		return nil, err
	}
	return s.commit(ctx, current, expected, patch, lostRace(current.ID))
}

// Claim gives a free shift to the calling doctor. Concurrent claims are
// settled by the conditional update: exactly one caller gets the shift and
// the others receive ErrAlreadyClaimed.
func (s *Service) Claim(ctx context.Context, id int64, actor domain.Actor) (*domain.Shift, error) {
	if err := shift.CanTakeFree(actor); err != nil {
		return nil, err
	}
	current, err := s.shifts.GetShift(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := shift.CanClaim(current); err != nil {
		return nil, err
	}
	updated, err := s.commit(ctx, current, domain.ClaimableStatuses, shift.ClaimPatch(actor.ID),
		fmt.Errorf("%w: shift %d", domain.ErrAlreadyClaimed, id))
	if err != nil {
		return nil, err
	}

	s.record(ctx, id, domain.EventAccepted, &actor.ID, "")
	s.notifyDoctor(ctx, domain.NotificationShiftAssigned, updated, actor.ID, 0)
	s.notifyAdmins(ctx, domain.NotificationFreeShiftAccepted, updated)
	return updated, nil
}

// MarkPending escalates a free shift nobody claimed in time. It is invoked by
// the sweeper, not by users.
func (s *Service) MarkPending(ctx context.Context, id int64) (*domain.Shift, error) {
	current, err := s.shifts.GetShift(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := shift.CanMarkPending(current); err != nil {
		return nil, err
	}
	updated, err := s.commit(ctx, current, []domain.ShiftStatus{domain.ShiftStatusFree},
		shift.MarkPendingPatch(s.now()), lostRace(id))
	if err != nil {
		return nil, err
	}

	s.record(ctx, id, domain.EventEscalated, nil, fmt.Sprintf("unclaimed for %s", s.pendingThreshold))
	return updated, nil
}

func (s *Service) ClockIn(ctx context.Context, id int64, doctorID int64) (*domain.Shift, error) {
	current, err := s.shifts.GetShift(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := shift.CanClockIn(current, doctorID); err != nil {
		return nil, err
	}
	updated, err := s.commit(ctx, current, []domain.ShiftStatus{domain.ShiftStatusConfirmed},
		shift.ClockInPatch(s.now()), lostRace(id))
	if err != nil {
		return nil, err
	}

	s.record(ctx, id, domain.EventClockIn, &doctorID, "")
	return updated, nil
}

func (s *Service) ClockOut(ctx context.Context, id int64, doctorID int64) (*domain.Shift, error) {
	current, err := s.shifts.GetShift(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := shift.CanClockOut(current, doctorID); err != nil {
		return nil, err
	}
	updated, err := s.commit(ctx, current, []domain.ShiftStatus{domain.ShiftStatusConfirmed},
		shift.ClockOutPatch(s.now()), lostRace(id))
	if err != nil {
		return nil, err
	}

	s.record(ctx, id, domain.EventClockOut, &doctorID, "")
	return updated, nil
}

func (s *Service) SaveDoctorNotes(ctx context.Context, id int64, doctorID int64, text string) (*domain.Shift, error) {
	current, err := s.shifts.GetShift(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := shift.CanSaveDoctorNotes(current, doctorID); err != nil {
		return nil, err
	}
	return s.commit(ctx, current, []domain.ShiftStatus{domain.ShiftStatusConfirmed},
		shift.DoctorNotesPatch(s.sanitize(text)), lostRace(id))
}

// UpdateInput lists the fields an admin may edit. Setting DoctorID to a
// doctor other than the current owner reassigns the shift, which then waits
// for that doctor's confirmation again.
type UpdateInput struct {
	Date     *string
	Category *string
	Area     *domain.Area
	Hours    *string
	Notes    *string
	DoctorID *int64
}

func (s *Service) Update(ctx context.Context, id int64, actor domain.Actor, in UpdateInput) (*domain.Shift, error) {
	current, err := s.shifts.GetShift(ctx, id)
	if err != nil {
		return nil, err
	}
	reassign := in.DoctorID != nil &&
		!(current.IsOwnedBy(*in.DoctorID) && current.ShiftType == domain.ShiftTypeAssigned)
	if err := shift.CanUpdate(current, actor, reassign); err != nil {
		return nil, err
	}

	var patch domain.ShiftPatch
	if reassign {
		if _, err := s.requireDoctor(ctx, *in.DoctorID); err != nil {
			return nil, err
		}
		patch = shift.AssignPatch(*in.DoctorID)
	}
	if in.Date != nil {
		if _, err := shift.ParseCivilDate(*in.Date); err != nil {
			return nil, err
		}
		patch.ShiftDate = in.Date
	}
	if in.Category != nil {
		info, ok := domain.LookupCategory(*in.Category)
		if !ok {
			return nil, fmt.Errorf("%w: unknown category %q", domain.ErrValidation, *in.Category)
		}
		patch.ShiftCategory = in.Category
		patch.ShiftArea = &info.Area
		patch.ShiftHours = &info.Hours
	}
	if in.Area != nil {
		if !in.Area.Valid() {
			return nil, fmt.Errorf("%w: unknown area %q", domain.ErrValidation, *in.Area)
		}
		patch.ShiftArea = in.Area
	}
	if in.Hours != nil {
		if _, _, err := shift.ParseHours(*in.Hours); err != nil {
			return nil, err
		}
		patch.ShiftHours = in.Hours
	}
	if in.Notes != nil {
		notes := s.sanitize(*in.Notes)
		patch.Notes = &notes
	}

	updated, err := s.commit(ctx, current, []domain.ShiftStatus{current.Status}, patch, lostRace(id))
	if err != nil {
		return nil, err
	}

	note := ""
	if reassign {
		note = fmt.Sprintf("reassigned to doctor %d", *in.DoctorID)
	}
	s.record(ctx, id, domain.EventUpdated, &actor.ID, note)
	if reassign {
		s.notifyDoctor(ctx, domain.NotificationShiftAssigned, updated, *in.DoctorID, 0)
	}
	return updated, nil
}

// Delete removes one shift, or with allFuture the rest of its series from its
// date on. Audit events go with the rows.
func (s *Service) Delete(ctx context.Context, id int64, actor domain.Actor, allFuture bool) (int64, error) {
	current, err := s.shifts.GetShift(ctx, id)
	if err != nil {
		return 0, err
	}
	if err := shift.CanDelete(current, actor); err != nil {
		return 0, err
	}

	var n int64
	if allFuture && current.RecurrenceID != nil {
		n, err = s.shifts.DeleteSeriesFrom(ctx, *current.RecurrenceID, current.ShiftDate)
	} else {
		n, err = s.shifts.DeleteShift(ctx, id)
	}
	if err != nil {
		return 0, err
	}
	if n == 0 {
		return 0, fmt.Errorf("%w: shift %d", domain.ErrNotFound, id)
	}

	s.logger.Info("shift deleted",
		zap.Int64("shift_id", id),
		zap.Bool("all_future", allFuture),
		zap.Int64("rows", n),
		zap.Int64("actor_id", actor.ID))
	return n, nil
}

// PromoteToRecurring makes an existing single shift the first instance of a
// weekly series ending on until.
func (s *Service) PromoteToRecurring(ctx context.Context, id int64, actor domain.Actor, until string) (*BatchResult, error) {
	current, err := s.shifts.GetShift(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := shift.CanPromote(current, actor); err != nil {
		return nil, err
	}
	future, recurrenceID, err := s.expander.PromoteToRecurring(current, until)
	if err != nil {
		return nil, err
	}
	if len(future) == 0 {
		return nil, fmt.Errorf("%w: no weekly instance after %s falls on or before %s",
			domain.ErrValidation, current.ShiftDate, until)
	}

	created, err := s.shifts.PromoteSeries(ctx, id, []domain.ShiftStatus{current.Status}, recurrenceID, future, s.now())
	result := &BatchResult{Requested: len(future), Created: created, RecurrenceID: recurrenceID}
	if err != nil {
		return result, err
	}
	if created == 0 {
		return result, lostRace(id)
	}
	result.Shifts = future

	s.record(ctx, id, domain.EventRecurrenceGenerated, &actor.ID,
		fmt.Sprintf("%d weekly instances until %s", len(future), until))
	for _, sh := range future {
		s.record(ctx, sh.ID, domain.EventCreated, &actor.ID, "")
	}
	s.announceCreated(ctx, future[0], len(future))
	return result, nil
}
