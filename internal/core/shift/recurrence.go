package shift

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/guardias-hospital/shift-manager/backend/internal/domain"
)

const recurrenceStep = 7 // days

// Expander builds weekly series of shifts from a template.
type Expander struct {
	NewRecurrenceID func() string
}

func NewExpander() *Expander {
	return &Expander{NewRecurrenceID: uuid.NewString}
}

// GenerateSeries returns one instance per week from start through end
// inclusive, all tagged with a fresh recurrence id. An end before the start
// yields an empty series.
func (e *Expander) GenerateSeries(template *domain.Shift, start, end string) ([]*domain.Shift, error) {
	from, err := ParseCivilDate(start)
	if err != nil {
		return nil, err
	}
	to, err := ParseCivilDate(end)
	if err != nil {
		return nil, err
	}
	if to.Before(from) {
		return []*domain.Shift{}, nil
	}

	recurrenceID := e.NewRecurrenceID()
	return expand(template, from, to, recurrenceID, template.Status), nil
}

// PromoteToRecurring turns an existing single shift into the first instance
// of a series. Only the weeks after the existing date are generated; the
// returned id must also be written onto the existing shift.
func (e *Expander) PromoteToRecurring(existing *domain.Shift, end string) ([]*domain.Shift, string, error) {
	if existing.RecurrenceID != nil {
		return nil, "", fmt.Errorf("%w: shift %d already belongs to a series", domain.ErrInvalidState, existing.ID)
	}
	base, err := existing.Date()
	if err != nil {
		return nil, "", fmt.Errorf("%w: shift %d has malformed date %q", domain.ErrValidation, existing.ID, existing.ShiftDate)
	}
	to, err := ParseCivilDate(end)
	if err != nil {
		return nil, "", err
	}

	recurrenceID := e.NewRecurrenceID()
	from := base.AddDate(0, 0, recurrenceStep)
	if to.Before(from) {
		return []*domain.Shift{}, recurrenceID, nil
	}
	return expand(existing, from, to, recurrenceID, InheritedStatus(existing)), recurrenceID, nil
}

// InheritedStatus decides the status future instances receive when a single
// shift is promoted to a series. The current status is copied forward, so a
// confirmed template yields pre-confirmed future instances the doctor never
// confirmed. free_pending is not carried because the instances have no
// escalation timestamp of their own.
func InheritedStatus(template *domain.Shift) domain.ShiftStatus {
	if template.Status == domain.ShiftStatusFreePending {
		return domain.ShiftStatusFree
	}
	return template.Status
}

func expand(template *domain.Shift, from, to time.Time, recurrenceID string, status domain.ShiftStatus) []*domain.Shift {
	series := make([]*domain.Shift, 0, int(to.Sub(from).Hours()/24)/recurrenceStep+1)
	for day := from; !day.After(to); day = day.AddDate(0, 0, recurrenceStep) {
		instance := template.Clone()
		instance.ID = 0
		instance.ShiftDate = day.Format(domain.CivilDateLayout)
		instance.Status = status
		instance.RecurrenceID = &recurrenceID
		instance.ClockIn = nil
		instance.ClockOut = nil
		instance.FreePendingAt = nil
		instance.DoctorNotes = ""
		instance.CreatedAt = time.Time{}
		instance.UpdatedAt = time.Time{}
		series = append(series, instance)
	}
	return series
}
