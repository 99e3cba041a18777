package postgres

import (
	"context"

	"github.com/google/uuid"
	"github.com/loomchat/loom/internal/domain"
)

type NotificationRepo struct {
	db DBTX
}

func (r *NotificationRepo) Create(ctx context.Context, n *domain.Notification) error {
	query := `
		INSERT INTO notifications (id, user_id, message_id, type, title, content, read, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`
	_, err := r.db.Exec(ctx, query,
		n.ID, n.UserID, n.MessageID, n.Type, n.Title, n.Content, n.Read, n.CreatedAt,
	)
	return err
}

func (r *NotificationRepo) ListForUser(ctx context.Context, userID uuid.UUID, unreadOnly bool) ([]domain.Notification, error) {
	query := `
		SELECT id, user_id, message_id, type, title, content, read, created_at
		FROM notifications
		WHERE user_id = $1 AND ($2 = false OR read = false)
		ORDER BY created_at DESC`
	rows, err := r.db.Query(ctx, query, userID, unreadOnly)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var notifications []domain.Notification
	for rows.Next() {
		var n domain.Notification
		if err := rows.Scan(&n.ID, &n.UserID, &n.MessageID, &n.Type, &n.Title, &n.Content, &n.Read, &n.CreatedAt); err != nil {
			return nil, err
		}
		notifications = append(notifications, n)
	}
	return notifications, rows.Err()
}

func (r *NotificationRepo) MarkRead(ctx context.Context, userID uuid.UUID, ids []uuid.UUID) (int64, error) {
	query := `
		UPDATE notifications SET read = true
		WHERE user_id = $1 AND read = false`
	args := []any{userID}
	if len(ids) > 0 {
		query += ` AND id = ANY($2)`
		args = append(args, ids)
	}
	tag, err := r.db.Exec(ctx, query, args...)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

func (r *NotificationRepo) CountUnread(ctx context.Context, userID uuid.UUID) (int64, error) {
	var count int64
	err := r.db.QueryRow(ctx, `
		SELECT COUNT(*) FROM notifications
		WHERE user_id = $1 AND read = false`, userID).Scan(&count)
	return count, err
}
