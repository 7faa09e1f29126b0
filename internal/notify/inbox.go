package notify

import (
	"context"

	"github.com/guardias-hospital/shift-manager/backend/internal/domain"
)

type InboxStore interface {
	InsertNotifications(ctx context.Context, items []*domain.InAppNotification) error
}

// InAppSink writes one inbox row per recipient.
type InAppSink struct {
	store InboxStore
}

func NewInAppSink(store InboxStore) *InAppSink {
	return &InAppSink{store: store}
}

func (s *InAppSink) Emit(ctx context.Context, n domain.Notification) error {
	if len(n.Recipients) == 0 {
		return nil
	}

	title, body := Title(n), Body(n)
	var shiftID *int64
	if n.Shift.ID != 0 {
		id := n.Shift.ID
		shiftID = &id
	}

	items := make([]*domain.InAppNotification, 0, len(n.Recipients))
	for _, r := range n.Recipients {
		items = append(items, &domain.InAppNotification{
			UserID:  r.UserID,
			Type:    n.Type,
			Title:   title,
			Body:    body,
			ShiftID: shiftID,
		})
	}
	return s.store.InsertNotifications(ctx, items)
}
