package notify

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/guardias-hospital/shift-manager/backend/internal/domain"
)

// LivePublisher is satisfied by *redis.Client.
type LivePublisher interface {
	Publish(ctx context.Context, channel string, message any) *redis.IntCmd
}

// LiveEvent is the payload published on the live channel. Recipients are
// reduced to ids so emails never leave the backend this way.
type LiveEvent struct {
	Type         domain.NotificationType `json:"type"`
	Shift        domain.ShiftSnapshot    `json:"shift"`
	RecipientIDs []int64                 `json:"recipientIDs"`
	SeriesCount  int                     `json:"seriesCount,omitempty"`
	CreatedAt    time.Time               `json:"createdAt"`
}

// LiveSink publishes every notification to a redis pub/sub channel so
// connected dashboards can refresh without polling.
type LiveSink struct {
	client  LivePublisher
	channel string
}

func NewLiveSink(client LivePublisher, channel string) *LiveSink {
	return &LiveSink{client: client, channel: channel}
}

func (s *LiveSink) Emit(ctx context.Context, n domain.Notification) error {
	ids := make([]int64, 0, len(n.Recipients))
	for _, r := range n.Recipients {
		ids = append(ids, r.UserID)
	}
	n.Shift.DoctorEmail = ""
	payload, err := json.Marshal(LiveEvent{
		Type:         n.Type,
		Shift:        n.Shift,
		RecipientIDs: ids,
		SeriesCount:  n.SeriesCount,
		CreatedAt:    n.CreatedAt,
	})
	if err != nil {
		return err
	}
	return s.client.Publish(ctx, s.channel, payload).Err()
}
