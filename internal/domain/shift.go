package domain

import (
	"slices"
	"time"
)

type ShiftStatus string

const (
	ShiftStatusNew         ShiftStatus = "new"
	ShiftStatusFree        ShiftStatus = "free"
	ShiftStatusConfirmed   ShiftStatus = "confirmed"
	ShiftStatusFreePending ShiftStatus = "free_pending"
	// ShiftStatusRejected only appears in audit and notification vocabulary.
	// A rejected shift is always persisted as free.
	ShiftStatusRejected ShiftStatus = "rejected"
)

// ClaimableStatuses are the statuses a doctor may claim from.
var ClaimableStatuses = []ShiftStatus{ShiftStatusFree, ShiftStatusFreePending}

type ShiftType string

const (
	ShiftTypeAssigned ShiftType = "assigned"
	ShiftTypeFree     ShiftType = "free"
)

type Area string

const (
	AreaConsultorio Area = "consultorio"
	AreaInternacion Area = "internacion"
	AreaRefuerzo    Area = "refuerzo"
	AreaCompleto    Area = "completo"
)

var Areas = []Area{AreaConsultorio, AreaInternacion, AreaRefuerzo, AreaCompleto}

func (a Area) Valid() bool {
	return slices.Contains(Areas, a)
}

// CivilDateLayout is the zone-less calendar date format of shift_date.
const CivilDateLayout = "2006-01-02"

type Shift struct {
	ID             int64       `json:"id"`
	ShiftDate      string      `json:"shiftDate"`
	ShiftCategory  string      `json:"shiftCategory"`
	ShiftArea      Area        `json:"shiftArea"`
	ShiftHours     string      `json:"shiftHours"`
	DoctorID       *int64      `json:"doctorID"` // nil while the shift sits in the free pool
	ShiftType      ShiftType   `json:"shiftType"`
	AssignedToPool Pool        `json:"assignedToPool"`
	Status         ShiftStatus `json:"status"`
	FreePendingAt  *time.Time  `json:"freePendingAt"`
	ClockIn        *time.Time  `json:"clockIn"`
	ClockOut       *time.Time  `json:"clockOut"`
	DoctorNotes    string      `json:"doctorNotes"`
	Notes          string      `json:"notes"`
	RecurrenceID   *string     `json:"recurrenceID"`
	CreatedAt      time.Time   `json:"createdAt"`
	UpdatedAt      time.Time   `json:"updatedAt"`
}

func (s *Shift) IsOwnedBy(doctorID int64) bool {
	return s.DoctorID != nil && *s.DoctorID == doctorID
}

func (s *Shift) IsClaimable() bool {
	return slices.Contains(ClaimableStatuses, s.Status)
}

func (s *Shift) Date() (time.Time, error) {
	return time.Parse(CivilDateLayout, s.ShiftDate)
}

// Clone returns a deep copy.
func (s *Shift) Clone() *Shift {
	c := *s
	if s.DoctorID != nil {
		id := *s.DoctorID
		c.DoctorID = &id
	}
	if s.RecurrenceID != nil {
		rid := *s.RecurrenceID
		c.RecurrenceID = &rid
	}
	if s.FreePendingAt != nil {
		t := *s.FreePendingAt
		c.FreePendingAt = &t
	}
	if s.ClockIn != nil {
		t := *s.ClockIn
		c.ClockIn = &t
	}
	if s.ClockOut != nil {
		t := *s.ClockOut
		c.ClockOut = &t
	}
	c.AssignedToPool = slices.Clone(s.AssignedToPool)
	return &c
}

// ShiftPatch lists the columns written by one update. Nil fields are left untouched.
type ShiftPatch struct {
	ShiftDate      *string
	ShiftCategory  *string
	ShiftArea      *Area
	ShiftHours     *string
	SetDoctor      bool
	DoctorID       *int64 // honoured only when SetDoctor is set; nil clears
	ShiftType      *ShiftType
	AssignedToPool Pool
	Status         *ShiftStatus
	SetFreePending bool
	FreePendingAt  *time.Time
	ClockIn        *time.Time
	ClockOut       *time.Time
	DoctorNotes    *string
	Notes          *string
	RecurrenceID   *string

	// Extra conditions of the compare-and-set besides the expected status.
	// They guard the write and are not applied to the row.
	RequireNoClockIn bool
	RequireNoSeries  bool
}

// Matches reports whether s satisfies the extra conditions of the patch.
func (p ShiftPatch) Matches(s *Shift) bool {
	if p.RequireNoClockIn && s.ClockIn != nil {
		return false
	}
	if p.RequireNoSeries && s.RecurrenceID != nil {
		return false
	}
	return true
}

// Apply writes the patch onto an in-memory shift and stamps UpdatedAt.
func (p ShiftPatch) Apply(s *Shift, now time.Time) {
	if p.ShiftDate != nil {
		s.ShiftDate = *p.ShiftDate
	}
	if p.ShiftCategory != nil {
		s.ShiftCategory = *p.ShiftCategory
	}
	if p.ShiftArea != nil {
		s.ShiftArea = *p.ShiftArea
	}
	if p.ShiftHours != nil {
		s.ShiftHours = *p.ShiftHours
	}
	if p.SetDoctor {
		s.DoctorID = p.DoctorID
	}
	if p.ShiftType != nil {
		s.ShiftType = *p.ShiftType
	}
	if p.AssignedToPool != nil {
		s.AssignedToPool = slices.Clone(p.AssignedToPool)
	}
	if p.Status != nil {
		s.Status = *p.Status
	}
	if p.SetFreePending {
		s.FreePendingAt = p.FreePendingAt
	}
	if p.ClockIn != nil {
		s.ClockIn = p.ClockIn
	}
	if p.ClockOut != nil {
		s.ClockOut = p.ClockOut
	}
	if p.DoctorNotes != nil {
		s.DoctorNotes = *p.DoctorNotes
	}
	if p.Notes != nil {
		s.Notes = *p.Notes
	}
	if p.RecurrenceID != nil {
		s.RecurrenceID = p.RecurrenceID
	}
	s.UpdatedAt = now
}

type ShiftFilter struct {
	From          string // inclusive civil date, empty for no bound
	To            string
	DoctorID      *int64
	Statuses      []ShiftStatus
	CreatedBefore *time.Time
	RecurrenceID  *string
}
