package domain

import "time"

// AvailabilitySlot is a weekly window a doctor declares. The lifecycle never
// consults it; claims are allowed regardless of declared availability.
type AvailabilitySlot struct {
	ID        int64     `json:"id"`
	UserID    int64     `json:"userID"`
	DayOfWeek int32     `json:"dayOfWeek"` // 1 = Monday ... 7 = Sunday
	StartTime string    `json:"startTime"`
	EndTime   string    `json:"endTime"`
	Notes     string    `json:"notes"`
	CreatedAt time.Time `json:"createdAt"`
	Version   int32     `json:"-"`
}
