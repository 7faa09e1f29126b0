// Package notify delivers lifecycle notifications: emails go through the
// message queue, inbox rows go to the database and a copy of every event is
// published on the live channel.
package notify

import (
	"fmt"

	"github.com/guardias-hospital/shift-manager/backend/internal/domain"
)

func shiftLabel(s domain.ShiftSnapshot) string {
	return fmt.Sprintf("%s (%s, %s h) on %s", s.Category, s.Area, s.Hours, s.Date)
}

// Title is the one line summary used as inbox title and email subject.
func Title(n domain.Notification) string {
	switch n.Type {
	case domain.NotificationShiftAssigned:
		if n.SeriesCount > 1 {
			return fmt.Sprintf("%d recurring shifts assigned to you", n.SeriesCount)
		}
		return "New shift assigned to you"
	case domain.NotificationShiftConfirmed:
		return "Shift confirmed"
	case domain.NotificationShiftDeclined:
		return "Shift declined"
	case domain.NotificationFreeShiftAvailable:
		return "Free shift available"
	case domain.NotificationFreeShiftAccepted:
		return "Free shift taken"
	case domain.NotificationShiftReminder:
		return "Shift tomorrow"
	case domain.NotificationNewChatMessage:
		return "New message"
	default:
		return string(n.Type)
	}
}

func Body(n domain.Notification) string {
	label := shiftLabel(n.Shift)
	switch n.Type {
	case domain.NotificationShiftAssigned:
		if n.SeriesCount > 1 {
			return fmt.Sprintf("You were assigned %s and the following %d weekly shifts. Please confirm them.", label, n.SeriesCount-1)
		}
		return fmt.Sprintf("You were assigned %s. Please confirm or reject it.", label)
	case domain.NotificationShiftConfirmed:
		return fmt.Sprintf("%s confirmed %s.", n.Shift.DoctorName, label)
	case domain.NotificationShiftDeclined:
		return fmt.Sprintf("%s gave up %s. It is back in the free pool.", n.Shift.DoctorName, label)
	case domain.NotificationFreeShiftAvailable:
		if n.SeriesCount > 1 {
			return fmt.Sprintf("%s and %d more weekly shifts are free to claim.", label, n.SeriesCount-1)
		}
		return fmt.Sprintf("%s is free to claim.", label)
	case domain.NotificationFreeShiftAccepted:
		return fmt.Sprintf("%s took %s.", n.Shift.DoctorName, label)
	case domain.NotificationShiftReminder:
		return fmt.Sprintf("Reminder: you are on duty %s.", label)
	default:
		return label
	}
}
