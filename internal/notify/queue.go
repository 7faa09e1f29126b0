package notify

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/guardias-hospital/shift-manager/backend/internal/domain"
)

// Publisher is the part of *amqp.Channel the queue sink needs.
type Publisher interface {
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
}

// QueueSink turns a notification into one mail message per recipient and
// publishes them on the mail queue.
type QueueSink struct {
	publisher Publisher
	queue     string
	timeout   time.Duration
}

func NewQueueSink(publisher Publisher, queue string, timeout time.Duration) *QueueSink {
	return &QueueSink{publisher: publisher, queue: queue, timeout: timeout}
}

// Publish sends a single message to the mail worker.
func (q *QueueSink) Publish(ctx context.Context, msg domain.MailMessage) error {
	body, err := json.Marshal(msg)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(ctx, q.timeout)
	defer cancel()

	return q.publisher.PublishWithContext(
		ctx,
		"",
		q.queue,
		true,
		false,
		amqp.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp.Persistent,
			Body:         body,
		},
	)
}

func (q *QueueSink) Emit(ctx context.Context, n domain.Notification) error {
	var errs []error
	for _, r := range n.Recipients {
		if r.Email == "" {
			continue
		}
		msg := domain.MailMessage{
			Type: string(n.Type),
			To:   r.Email,
			Data: domain.ShiftMailData{
				FullName:    r.FullName,
				Shift:       n.Shift,
				SeriesCount: n.SeriesCount,
			},
		}
		if err := q.Publish(ctx, msg); err != nil {
			errs = append(errs, fmt.Errorf("publish %s to %s: %w", n.Type, r.Email, err))
		}
	}
	return errors.Join(errs...)
}
