package repository

import (
	"context"
	"fmt"
	"strings"

	"github.com/guardias-hospital/shift-manager/backend/internal/domain"
)

// InsertNotifications stores one inbox row per entry in a single statement.
func (r *Repository) InsertNotifications(ctx context.Context, items []*domain.InAppNotification) error {
	if len(items) == 0 {
		return nil
	}

	values := make([]string, 0, len(items))
	args := make([]any, 0, len(items)*5)
	for i, n := range items {
		base := i * 5
		values = append(values, fmt.Sprintf("($%d, $%d, $%d, $%d, $%d)", base+1, base+2, base+3, base+4, base+5))
		args = append(args, n.UserID, n.Type, n.Title, n.Body, n.ShiftID)
	}
	query := `INSERT INTO notifications (user_id, type, title, body, shift_id) VALUES ` +
		strings.Join(values, ", ") + ` RETURNING id, created_at`

	ctx, cancel := r.queryContext(ctx)
	defer cancel()

	rows, err := r.dbpool.QueryContext(ctx, query, args...)
	if err != nil {
		return wrap("insert notifications", err)
	}
	defer rows.Close()

	for i := 0; rows.Next() && i < len(items); i++ {
		if err := rows.Scan(&items[i].ID, &items[i].CreatedAt); err != nil {
			return wrap("scan notification", err)
		}
	}
	return wrap("insert notifications", rows.Err())
}

func (r *Repository) ListNotifications(ctx context.Context, userID int64, unreadOnly bool) ([]*domain.InAppNotification, error) {
	query := `
		SELECT id, user_id, type, title, body, shift_id, is_read, created_at
		FROM notifications
		WHERE user_id = $1 AND (NOT $2 OR NOT is_read)
		ORDER BY created_at DESC, id DESC
		LIMIT 200
	`

	ctx, cancel := r.queryContext(ctx)
	defer cancel()

	rows, err := r.dbpool.QueryContext(ctx, query, userID, unreadOnly)
	if err != nil {
		return nil, wrap("list notifications", err)
	}
	defer rows.Close()

	items := make([]*domain.InAppNotification, 0)
	for rows.Next() {
		n := &domain.InAppNotification{}
		dst := []any{&n.ID, &n.UserID, &n.Type, &n.Title, &n.Body, &n.ShiftID, &n.IsRead, &n.CreatedAt}
		if err := rows.Scan(dst...); err != nil {
			return nil, wrap("scan notification", err)
		}
		items = append(items, n)
	}
	if err := rows.Err(); err != nil {
		return nil, wrap("list notifications", err)
	}

	return items, nil
}

func (r *Repository) MarkNotificationRead(ctx context.Context, id, userID int64) error {
	query := `UPDATE notifications SET is_read = TRUE WHERE id = $1 AND user_id = $2`

	ctx, cancel := r.queryContext(ctx)
	defer cancel()

	res, err := r.dbpool.ExecContext(ctx, query, id, userID)
	if err != nil {
		return wrap("mark notification read", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return wrap("mark notification read", err)
	}
	if n == 0 {
		return domain.ErrNotFound
	}
	return nil
}
