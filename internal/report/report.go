// Package report aggregates confirmed shifts into a per doctor payroll
// summary.
package report

import (
	"cmp"
	"slices"
	"time"

	"github.com/guardias-hospital/shift-manager/backend/internal/core/shift"
	"github.com/guardias-hospital/shift-manager/backend/internal/domain"
)

type DoctorSummary struct {
	DoctorID     int64         `json:"doctorID"`
	FullName     string        `json:"fullName"`
	Role         domain.Role   `json:"role"`
	Shifts       int           `json:"shifts"`
	NominalHours float64       `json:"nominalHours"`
	WorkedHours  float64       `json:"workedHours"`
	Nominal      time.Duration `json:"-"`
	Worked       time.Duration `json:"-"`
	// Open counts confirmed shifts without a complete clock in/out pair.
	Open int `json:"open"`
}

type Payroll struct {
	From    string           `json:"from"`
	To      string           `json:"to"`
	Doctors []*DoctorSummary `json:"doctors"`
}

// Summarize counts the confirmed shifts of every doctor. Doctors without
// shifts in the period still get a zero row. Shifts with unparseable hours
// count towards Shifts but add no nominal time.
func Summarize(from, to string, shifts []*domain.Shift, doctors []*domain.User) *Payroll {
	rows := make(map[int64]*DoctorSummary, len(doctors))
	for _, d := range doctors {
		rows[d.ID] = &DoctorSummary{DoctorID: d.ID, FullName: d.FullName, Role: d.Role}
	}

	for _, sh := range shifts {
		if sh.Status != domain.ShiftStatusConfirmed || sh.DoctorID == nil {
			continue
		}
		row, ok := rows[*sh.DoctorID]
		if !ok {
			// inactive doctors keep their history
			row = &DoctorSummary{DoctorID: *sh.DoctorID}
			rows[*sh.DoctorID] = row
		}

		row.Shifts++
		if d, err := shift.NominalDuration(sh.ShiftHours); err == nil {
			row.Nominal += d
		}
		if sh.ClockIn != nil && sh.ClockOut != nil && sh.ClockOut.After(*sh.ClockIn) {
			row.Worked += sh.ClockOut.Sub(*sh.ClockIn)
		} else {
			row.Open++
		}
	}

	p := &Payroll{From: from, To: to, Doctors: make([]*DoctorSummary, 0, len(rows))}
	for _, row := range rows {
		row.NominalHours = hours(row.Nominal)
		row.WorkedHours = hours(row.Worked)
		p.Doctors = append(p.Doctors, row)
	}
	slices.SortFunc(p.Doctors, func(a, b *DoctorSummary) int {
		return cmp.Or(cmp.Compare(a.FullName, b.FullName), cmp.Compare(a.DoctorID, b.DoctorID))
	})
	return p
}

// hours rounds to two decimals.
func hours(d time.Duration) float64 {
	return float64(d.Round(36*time.Second)) / float64(time.Hour)
}
