package shift

import (
	"fmt"
	"strings"
	"time"

	"github.com/guardias-hospital/shift-manager/backend/internal/domain"
)

type NewShiftInput struct {
	Date     string
	Category string
	Area     domain.Area
	Hours    string
	DoctorID *int64
	Pool     domain.Pool
	Notes    string
}

func ParseCivilDate(date string) (time.Time, error) {
	t, err := time.Parse(domain.CivilDateLayout, strings.TrimSpace(date))
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: date %q must be YYYY-MM-DD", domain.ErrValidation, date)
	}
	return t, nil
}

// BuildShift validates the input and returns the record to insert. Area and
// hours fall back to the category catalog when omitted. A shift without a
// doctor starts free with a resolved pool.
func BuildShift(in NewShiftInput) (*domain.Shift, error) {
	if strings.TrimSpace(in.Date) == "" {
		return nil, fmt.Errorf("%w: date is required", domain.ErrValidation)
	}
	if _, err := ParseCivilDate(in.Date); err != nil {
		return nil, err
	}
	if strings.TrimSpace(in.Category) == "" {
		return nil, fmt.Errorf("%w: category is required", domain.ErrValidation)
	}
	info, ok := domain.LookupCategory(in.Category)
	if !ok {
		return nil, fmt.Errorf("%w: unknown category %q", domain.ErrValidation, in.Category)
	}

	area := in.Area
	if area == "" {
		area = info.Area
	}
	if !area.Valid() {
		return nil, fmt.Errorf("%w: unknown area %q", domain.ErrValidation, area)
	}
	hours := in.Hours
	if hours == "" {
		hours = info.Hours
	}
	if _, _, err := ParseHours(hours); err != nil {
		return nil, err
	}

	s := &domain.Shift{
		ShiftDate:     strings.TrimSpace(in.Date),
		ShiftCategory: in.Category,
		ShiftArea:     area,
		ShiftHours:    hours,
		Notes:         in.Notes,
	}

	if in.DoctorID != nil {
		id := *in.DoctorID
		s.DoctorID = &id
		s.ShiftType = domain.ShiftTypeAssigned
		s.Status = domain.ShiftStatusNew
		s.AssignedToPool = domain.Pool{}
		return s, nil
	}

	pool, err := ResolvePool(in.Pool, area)
	if err != nil {
		return nil, err
	}
	s.ShiftType = domain.ShiftTypeFree
	s.Status = domain.ShiftStatusFree
	s.AssignedToPool = pool
	return s, nil
}
