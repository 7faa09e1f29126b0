package domain

import "time"

// EventType is the audit verb of the requested action, not the resulting
// status. A rejection is logged as "rejected" while the row becomes free.
type EventType string

const (
	EventCreated             EventType = "created"
	EventConfirmed           EventType = "confirmed"
	EventRejected            EventType = "rejected"
	EventFreed               EventType = "freed"
	EventAccepted            EventType = "accepted"
	EventClockIn             EventType = "clock_in"
	EventClockOut            EventType = "clock_out"
	EventUpdated             EventType = "updated"
	EventRecurrenceGenerated EventType = "recurrence_generated"
	EventEscalated           EventType = "escalated"
)

type ShiftEvent struct {
	ID        int64     `json:"id"`
	ShiftID   int64     `json:"shiftID"`
	EventType EventType `json:"eventType"`
	DoctorID  *int64    `json:"doctorID"`
	Note      string    `json:"note"`
	CreatedAt time.Time `json:"createdAt"`
}
