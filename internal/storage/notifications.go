package storage

import (
	"context"
	"fmt"
	"time"

	"expensetracker/internal/core"
)

func (r *SQLiteRepository) InsertNotification(ctx context.Context, n core.Notification) (core.Notification, error) {
	if n.Timestamp.IsZero() {
		n.Timestamp = time.Now().UTC()
	}
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO notifications (owner_id, title, message, timestamp, is_read, type) VALUES (?, ?, ?, ?, ?, ?)`,
		n.OwnerID, n.Title, n.Message, n.Timestamp.UnixMilli(), boolToInt(n.Read), string(n.Type))
	if err != nil {
		return core.Notification{}, fmt.Errorf("insert notification: %w", err)
	}
	if n.ID, err = res.LastInsertId(); err != nil {
		return core.Notification{}, fmt.Errorf("last insert id: %w", err)
	}
	return n, nil
}

// ListNotifications returns the user's notifications, newest first.
func (r *SQLiteRepository) ListNotifications(ctx context.Context, userID int64) ([]core.Notification, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, owner_id, title, message, timestamp, is_read, type
		FROM notifications WHERE owner_id = ? ORDER BY timestamp DESC, id DESC`, userID)
	if err != nil {
		return nil, fmt.Errorf("query notifications: %w", err)
	}
	defer rows.Close()

	var out []core.Notification
	for rows.Next() {
		var (
			n      core.Notification
			millis int64
			read   int
			typ    string
		)
		if err := rows.Scan(&n.ID, &n.OwnerID, &n.Title, &n.Message, &millis, &read, &typ); err != nil {
			return nil, fmt.Errorf("scan notification: %w", err)
		}
		n.Timestamp = time.UnixMilli(millis).UTC()
		n.Read = read != 0
		n.Type = core.NotificationType(typ)
		out = append(out, n)
	}
	return out, rows.Err()
}

func (r *SQLiteRepository) UnreadNotificationCount(ctx context.Context, userID int64) (int, error) {
	var n int
	err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM notifications WHERE owner_id = ? AND is_read = 0`, userID).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count unread notifications: %w", err)
	}
	return n, nil
}

// MarkAllNotificationsRead returns how many notifications changed state.
func (r *SQLiteRepository) MarkAllNotificationsRead(ctx context.Context, userID int64) (int64, error) {
	res, err := r.db.ExecContext(ctx,
		`UPDATE notifications SET is_read = 1 WHERE owner_id = ? AND is_read = 0`, userID)
	if err != nil {
		return 0, fmt.Errorf("mark notifications read: %w", err)
	}
	return res.RowsAffected()
}

func (r *SQLiteRepository) ClearNotifications(ctx context.Context, userID int64) (int64, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM notifications WHERE owner_id = ?`, userID)
	if err != nil {
		return 0, fmt.Errorf("clear notifications: %w", err)
	}
	return res.RowsAffected()
}

func (r *SQLiteRepository) DeleteNotification(ctx context.Context, userID, id int64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM notifications WHERE owner_id = ? AND id = ?`, userID, id)
	if err != nil {
		return fmt.Errorf("delete notification: %w", err)
	}
	return checkAffected(res, "notification")
}
