package domain

import "time"

type NotificationType string

const (
	NotificationShiftAssigned      NotificationType = "shift_assigned"
	NotificationShiftConfirmed     NotificationType = "shift_confirmed"
	NotificationShiftDeclined      NotificationType = "shift_declined"
	NotificationFreeShiftAvailable NotificationType = "free_shift_available"
	NotificationFreeShiftAccepted  NotificationType = "free_shift_accepted"
	NotificationNewChatMessage     NotificationType = "new_chat_message"
	NotificationShiftReminder      NotificationType = "shift_reminder"
)

type Recipient struct {
	UserID   int64  `json:"userID"`
	FullName string `json:"fullName"`
	Email    string `json:"email"`
}

// ShiftSnapshot holds the shift fields needed to write a human readable
// message.
type ShiftSnapshot struct {
	ID          int64  `json:"id"`
	Category    string `json:"category"`
	Area        Area   `json:"area"`
	Hours       string `json:"hours"`
	Date        string `json:"date"`
	DoctorName  string `json:"doctorName"`
	DoctorEmail string `json:"doctorEmail"`
}

func NewShiftSnapshot(s *Shift, doctor *User) ShiftSnapshot {
	snap := ShiftSnapshot{
		ID:       s.ID,
		Category: s.ShiftCategory,
		Area:     s.ShiftArea,
		Hours:    s.ShiftHours,
		Date:     s.ShiftDate,
	}
	if doctor != nil {
		snap.DoctorName = doctor.FullName
		snap.DoctorEmail = doctor.Email
	}
	return snap
}

type Notification struct {
	Type        NotificationType `json:"type"`
	Recipients  []Recipient      `json:"recipients"`
	Shift       ShiftSnapshot    `json:"shift"`
	SeriesCount int              `json:"seriesCount,omitempty"` // set when one message covers a recurring series
	CreatedAt   time.Time        `json:"createdAt"`
}

// InAppNotification is one stored row of a doctor's notification inbox.
type InAppNotification struct {
	ID        int64            `json:"id"`
	UserID    int64            `json:"userID"`
	Type      NotificationType `json:"type"`
	Title     string           `json:"title"`
	Body      string           `json:"body"`
	ShiftID   *int64           `json:"shiftID"`
	IsRead    bool             `json:"isRead"`
	CreatedAt time.Time        `json:"createdAt"`
}
