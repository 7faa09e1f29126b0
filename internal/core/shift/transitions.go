package shift

import (
	"time"

	"github.com/guardias-hospital/shift-manager/backend/internal/domain"
)

func ptr[T any](v T) *T {
	return &v
}

// ConfirmPatch moves a new shift to confirmed.
func ConfirmPatch() domain.ShiftPatch {
	return domain.ShiftPatch{Status: ptr(domain.ShiftStatusConfirmed)}
}

// FreePatch is the shared outcome of reject, release and cancel: the owner is
// dropped and the shift returns to the pool. An empty pool is replaced by the
// area default. The write only matches while nobody has clocked in, so a
// concurrent clock-in wins over the release.
func FreePatch(s *domain.Shift) (domain.ShiftPatch, error) {
	pool, err := ResolvePool(s.AssignedToPool, s.ShiftArea)
	if err != nil {
		return domain.ShiftPatch{}, err
	}
	return domain.ShiftPatch{
		Status:           ptr(domain.ShiftStatusFree),
		ShiftType:        ptr(domain.ShiftTypeFree),
		SetDoctor:        true,
		DoctorID:         nil,
		AssignedToPool:   pool,
		SetFreePending:   true,
		FreePendingAt:    nil,
		RequireNoClockIn: true,
	}, nil
}

// SeriesPatch tags the template of a promotion with its new series. It only
// matches a shift that is not part of a series yet.
func SeriesPatch(recurrenceID string) domain.ShiftPatch {
	return domain.ShiftPatch{RecurrenceID: ptr(recurrenceID), RequireNoSeries: true}
}

// ClaimPatch hands a free shift to the claiming doctor, already confirmed.
func ClaimPatch(doctorID int64) domain.ShiftPatch {
	return domain.ShiftPatch{
		Status:         ptr(domain.ShiftStatusConfirmed),
		ShiftType:      ptr(domain.ShiftTypeAssigned),
		SetDoctor:      true,
		DoctorID:       ptr(doctorID),
		SetFreePending: true,
		FreePendingAt:  nil,
	}
}

// AssignPatch gives the shift to a doctor who still has to confirm it.
func AssignPatch(doctorID int64) domain.ShiftPatch {
	return domain.ShiftPatch{
		Status:         ptr(domain.ShiftStatusNew),
		ShiftType:      ptr(domain.ShiftTypeAssigned),
		SetDoctor:      true,
		DoctorID:       ptr(doctorID),
		SetFreePending: true,
		FreePendingAt:  nil,
	}
}

func MarkPendingPatch(now time.Time) domain.ShiftPatch {
	return domain.ShiftPatch{
		Status:         ptr(domain.ShiftStatusFreePending),
		SetFreePending: true,
		FreePendingAt:  ptr(now),
	}
}

func ClockInPatch(now time.Time) domain.ShiftPatch {
	return domain.ShiftPatch{ClockIn: ptr(now)}
}

func ClockOutPatch(now time.Time) domain.ShiftPatch {
	return domain.ShiftPatch{ClockOut: ptr(now)}
}

func DoctorNotesPatch(text string) domain.ShiftPatch {
	return domain.ShiftPatch{DoctorNotes: ptr(text)}
}

// IsPendingDue reports whether a free shift has waited longer than threshold
// since it was created.
func IsPendingDue(s *domain.Shift, now time.Time, threshold time.Duration) bool {
	return s.Status == domain.ShiftStatusFree && !s.CreatedAt.After(now.Add(-threshold))
}

// CheckOwnership verifies that doctor_id is set exactly when the shift is
// assigned and new or confirmed.
func CheckOwnership(s *domain.Shift) bool {
	owned := s.ShiftType == domain.ShiftTypeAssigned &&
		(s.Status == domain.ShiftStatusNew || s.Status == domain.ShiftStatusConfirmed)
	return (s.DoctorID != nil) == owned
}
