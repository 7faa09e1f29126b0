// Package shift holds the pure rules of the shift lifecycle. Guards evaluate
// preconditions and return a wrapped domain error; they perform no I/O.
package shift

import (
	"fmt"

	"github.com/guardias-hospital/shift-manager/backend/internal/domain"
)

func requireOwnerOrAdmin(s *domain.Shift, actor domain.Actor) error {
	if actor.IsAdmin() || s.IsOwnedBy(actor.ID) {
		return nil
	}
	return fmt.Errorf("%w: user %d does not own shift %d", domain.ErrUnauthorized, actor.ID, s.ID)
}

func requireOwner(s *domain.Shift, doctorID int64) error {
	if s.IsOwnedBy(doctorID) {
		return nil
	}
	return fmt.Errorf("%w: user %d does not own shift %d", domain.ErrUnauthorized, doctorID, s.ID)
}

func requireAdmin(s *domain.Shift, actor domain.Actor) error {
	if actor.IsAdmin() {
		return nil
	}
	return fmt.Errorf("%w: user %d is not an admin (shift %d)", domain.ErrUnauthorized, actor.ID, s.ID)
}

// CanCreate rules:
// - caller is an admin
func CanCreate(actor domain.Actor) error {
	if actor.IsAdmin() {
		return nil
	}
	return fmt.Errorf("%w: user %d is not an admin", domain.ErrUnauthorized, actor.ID)
}

// CanTakeFree rules:
// - caller holds a doctor role; the pool is not consulted
func CanTakeFree(actor domain.Actor) error {
	if actor.Role.IsDoctor() {
		return nil
	}
	return fmt.Errorf("%w: role %s cannot take shifts", domain.ErrUnauthorized, actor.Role)
}

func requireStatus(s *domain.Shift, action string, want domain.ShiftStatus) error {
	if s.Status == want {
		return nil
	}
	return fmt.Errorf("%w: cannot %s shift %d in status %s", domain.ErrInvalidState, action, s.ID, s.Status)
}

// CanConfirm rules:
// - caller owns the shift or is an admin
// - status is new
func CanConfirm(s *domain.Shift, actor domain.Actor) error {
	if err := requireOwnerOrAdmin(s, actor); err != nil {
		return err
	}
	return requireStatus(s, "confirm", domain.ShiftStatusNew)
}

// CanReject has the same rules as CanConfirm.
func CanReject(s *domain.Shift, actor domain.Actor) error {
	if err := requireOwnerOrAdmin(s, actor); err != nil {
		return err
	}
	return requireStatus(s, "reject", domain.ShiftStatusNew)
}

// CanRelease rules:
// - caller is an admin
// - the shift is assigned (new or confirmed) and nobody clocked in yet
func CanRelease(s *domain.Shift, actor domain.Actor) error {
	if err := requireAdmin(s, actor); err != nil {
		return err
	}
	if s.Status != domain.ShiftStatusNew && s.Status != domain.ShiftStatusConfirmed {
		return fmt.Errorf("%w: cannot release shift %d in status %s", domain.ErrInvalidState, s.ID, s.Status)
	}
	if s.ClockIn != nil {
		return fmt.Errorf("%w: shift %d already started", domain.ErrInvalidState, s.ID)
	}
	return nil
}

// CanCancel rules:
// - caller owns the shift or is an admin
// - status is confirmed and nobody clocked in yet
func CanCancel(s *domain.Shift, actor domain.Actor) error {
	if err := requireOwnerOrAdmin(s, actor); err != nil {
		return err
	}
	if err := requireStatus(s, "cancel", domain.ShiftStatusConfirmed); err != nil {
		return err
	}
	if s.ClockIn != nil {
		return fmt.Errorf("%w: shift %d already started", domain.ErrInvalidState, s.ID)
	}
	return nil
}

// CanClaim rules:
// - status is free or free_pending
// Pool membership is deliberately not checked.
func CanClaim(s *domain.Shift) error {
	if s.IsClaimable() {
		return nil
	}
	if s.Status == domain.ShiftStatusConfirmed && s.ShiftType == domain.ShiftTypeAssigned {
		return fmt.Errorf("%w: shift %d", domain.ErrAlreadyClaimed, s.ID)
	}
	return fmt.Errorf("%w: cannot claim shift %d in status %s", domain.ErrInvalidState, s.ID, s.Status)
}

// CanMarkPending rules:
// - status is free
func CanMarkPending(s *domain.Shift) error {
	return requireStatus(s, "escalate", domain.ShiftStatusFree)
}

// CanClockIn checks, in order: ownership, confirmed status, no clock-in yet.
// The shift date is not compared with today.
func CanClockIn(s *domain.Shift, doctorID int64) error {
	if err := requireOwner(s, doctorID); err != nil {
		return err
	}
	if err := requireStatus(s, "clock in to", domain.ShiftStatusConfirmed); err != nil {
		return err
	}
	if s.ClockIn != nil {
		return fmt.Errorf("%w: shift %d", domain.ErrAlreadyClockedIn, s.ID)
	}
	return nil
}

// CanClockOut checks, in order: ownership, confirmed status, clock-in present,
// no clock-out yet.
func CanClockOut(s *domain.Shift, doctorID int64) error {
	if err := requireOwner(s, doctorID); err != nil {
		return err
	}
	if err := requireStatus(s, "clock out of", domain.ShiftStatusConfirmed); err != nil {
		return err
	}
	if s.ClockIn == nil {
		return fmt.Errorf("%w: shift %d", domain.ErrNotClockedIn, s.ID)
	}
	if s.ClockOut != nil {
		return fmt.Errorf("%w: shift %d", domain.ErrAlreadyClockedOut, s.ID)
	}
	return nil
}

func CanSaveDoctorNotes(s *domain.Shift, doctorID int64) error {
	if err := requireOwner(s, doctorID); err != nil {
		return err
	}
	return requireStatus(s, "annotate", domain.ShiftStatusConfirmed)
}

// CanUpdate rules:
// - caller is an admin
// - reassigning is not allowed once the shift started
func CanUpdate(s *domain.Shift, actor domain.Actor, reassign bool) error {
	if err := requireAdmin(s, actor); err != nil {
		return err
	}
	if reassign && s.ClockIn != nil {
		return fmt.Errorf("%w: shift %d already started", domain.ErrInvalidState, s.ID)
	}
	return nil
}

// CanPromote rules:
// - caller is an admin
// - the shift is not part of a series yet
func CanPromote(s *domain.Shift, actor domain.Actor) error {
	if err := requireAdmin(s, actor); err != nil {
		return err
	}
	if s.RecurrenceID != nil {
		return fmt.Errorf("%w: shift %d already belongs to series %s", domain.ErrInvalidState, s.ID, *s.RecurrenceID)
	}
	return nil
}

func CanDelete(s *domain.Shift, actor domain.Actor) error {
	return requireAdmin(s, actor)
}
