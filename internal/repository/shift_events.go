package repository

import (
	"context"

	"github.com/guardias-hospital/shift-manager/backend/internal/domain"
)

func (r *Repository) AppendEvent(ctx context.Context, event *domain.ShiftEvent) error {
	query := `
		INSERT INTO shift_events (shift_id, event_type, doctor_id, note, created_at)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id
	`

	ctx, cancel := r.queryContext(ctx)
	defer cancel()

	args := []any{event.ShiftID, event.EventType, event.DoctorID, event.Note, event.CreatedAt}
	if err := r.dbpool.QueryRowContext(ctx, query, args...).Scan(&event.ID); err != nil {
		return wrap("append shift event", err)
	}

	return nil
}

// ListEvents returns the audit trail of a shift, oldest first.
func (r *Repository) ListEvents(ctx context.Context, shiftID int64) ([]*domain.ShiftEvent, error) {
	query := `
		SELECT id, shift_id, event_type, doctor_id, note, created_at
		FROM shift_events
		WHERE shift_id = $1
		ORDER BY id
	`

	ctx, cancel := r.queryContext(ctx)
	defer cancel()

	rows, err := r.dbpool.QueryContext(ctx, query, shiftID)
	if err != nil {
		return nil, wrap("list shift events", err)
	}
	defer rows.Close()

	events := make([]*domain.ShiftEvent, 0)
	for rows.Next() {
		e := &domain.ShiftEvent{}
		if err := rows.Scan(&e.ID, &e.ShiftID, &e.EventType, &e.DoctorID, &e.Note, &e.CreatedAt); err != nil {
			return nil, wrap("scan shift event", err)
		}
		events = append(events, e)
	}
	if err := rows.Err(); err != nil {
		return nil, wrap("list shift events", err)
	}

	return events, nil
}
