package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/lib/pq"

	"github.com/freeeve/hexconquest/internal/model"
)

const notificationColumns = `id, user_id, COALESCE(game_id::text, ''), kind, text, read, created_at`

// NotificationRepo handles notification database operations.
type NotificationRepo struct {
	db *sql.DB
}

func NewNotificationRepo(db *sql.DB) *NotificationRepo {
	return &NotificationRepo{db: db}
}

func scanNotification(row rowScanner) (*model.Notification, error) {
	var n model.Notification
	if err := row.Scan(&n.ID, &n.UserID, &n.GameID, &n.Kind, &n.Text, &n.Read, &n.CreatedAt); err != nil {
		return nil, err
	}
	return &n, nil
}

// Create inserts an unread notification. GameID may be empty.
func (r *NotificationRepo) Create(ctx context.Context, userID, gameID, kind, text string) (*model.Notification, error) {
	n, err := scanNotification(r.db.QueryRowContext(ctx,
		`INSERT INTO notifications (user_id, game_id, kind, text)
		 VALUES ($1, $2, $3, $4)
		 RETURNING `+notificationColumns,
		userID, nullStr(gameID), kind, text,
	))
	if err != nil {
		return nil, fmt.Errorf("create notification: %w", err)
	}
	return n, nil
}

// ListByUser returns the newest notifications of a user first.
func (r *NotificationRepo) ListByUser(ctx context.Context, userID string, unreadOnly bool) ([]model.Notification, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+notificationColumns+` FROM notifications
		 WHERE user_id = $1 AND (NOT $2 OR NOT read)
		 ORDER BY created_at DESC LIMIT 100`, userID, unreadOnly)
	if err != nil {
		return nil, fmt.Errorf("list notifications: %w", err)
	}
	defer rows.Close()

	var out []model.Notification
	for rows.Next() {
		n, err := scanNotification(rows)
		if err != nil {
			return nil, fmt.Errorf("scan notification: %w", err)
		}
		out = append(out, *n)
	}
	return out, rows.Err()
}

// MarkRead flags the given notifications of userID as read and returns how
// many changed. Ids of other users are ignored.
func (r *NotificationRepo) MarkRead(ctx context.Context, userID string, ids []string) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	res, err := r.db.ExecContext(ctx,
		`UPDATE notifications SET read = true
		 WHERE user_id = $1 AND id = ANY($2::uuid[]) AND NOT read`, userID, pq.Array(ids))
	if err != nil {
		return 0, fmt.Errorf("mark notifications read: %w", err)
	}
	return res.RowsAffected()
}
