package repository

import (
	"context"

	"github.com/guardias-hospital/shift-manager/backend/internal/domain"
)

func (r *Repository) InsertAvailabilitySlot(ctx context.Context, slot *domain.AvailabilitySlot) error {
	query := `
		INSERT INTO availability_slots (user_id, day_of_week, start_time, end_time, notes)
		VALUES ($1, $2, $3::time, $4::time, $5)
		RETURNING id, created_at, version
	`

	ctx, cancel := r.queryContext(ctx)
	defer cancel()

	args := []any{slot.UserID, slot.DayOfWeek, slot.StartTime, slot.EndTime, slot.Notes}
	if err := r.dbpool.QueryRowContext(ctx, query, args...).Scan(&slot.ID, &slot.CreatedAt, &slot.Version); err != nil {
		return wrap("insert availability slot", err)
	}

	return nil
}

func (r *Repository) ListAvailabilitySlots(ctx context.Context, userID int64) ([]*domain.AvailabilitySlot, error) {
	query := `
		SELECT id, user_id, day_of_week, to_char(start_time, 'HH24:MI'), to_char(end_time, 'HH24:MI'), notes, created_at, version
		FROM availability_slots
		WHERE user_id = $1
		ORDER BY day_of_week, start_time
	`

	ctx, cancel := r.queryContext(ctx)
	defer cancel()

	rows, err := r.dbpool.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, wrap("list availability slots", err)
	}
	defer rows.Close()

	slots := make([]*domain.AvailabilitySlot, 0)
	for rows.Next() {
		s := &domain.AvailabilitySlot{}
		dst := []any{&s.ID, &s.UserID, &s.DayOfWeek, &s.StartTime, &s.EndTime, &s.Notes, &s.CreatedAt, &s.Version}
		if err := rows.Scan(dst...); err != nil {
			return nil, wrap("scan availability slot", err)
		}
		slots = append(slots, s)
	}
	if err := rows.Err(); err != nil {
		return nil, wrap("list availability slots", err)
	}

	return slots, nil
}

// DeleteAvailabilitySlot removes a slot owned by userID. A slot of another
// user is reported as not found.
func (r *Repository) DeleteAvailabilitySlot(ctx context.Context, id, userID int64) error {
	query := `DELETE FROM availability_slots WHERE id = $1 AND user_id = $2`

	ctx, cancel := r.queryContext(ctx)
	defer cancel()

	res, err := r.dbpool.ExecContext(ctx, query, id, userID)
	if err != nil {
		return wrap("delete availability slot", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return wrap("delete availability slot", err)
	}
	if n == 0 {
		return domain.ErrNotFound
	}
	return nil
}
