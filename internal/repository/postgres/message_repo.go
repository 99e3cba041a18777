package postgres

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/loomchat/loom/internal/domain"
)

type MessageRepo struct {
	db DBTX
}

const messageColumns = `
	m.id, m.conversation_id, m.sender_id, m.receiver_id, m.parent_id,
	m.content, m.created_at, m.read, m.edited, m.edited_at,
	COALESCE(u.first_name || ' ' || u.last_name, ''), COALESCE(u.email, '')`

func scanMessage(row pgx.Row, msg *domain.Message) error {
	return row.Scan(
		&msg.ID, &msg.ConversationID, &msg.SenderID, &msg.ReceiverID, &msg.ParentID,
		&msg.Content, &msg.CreatedAt, &msg.Read, &msg.Edited, &msg.EditedAt,
		&msg.SenderName, &msg.SenderEmail,
	)
}

func collectMessages(rows pgx.Rows) ([]domain.Message, error) {
	defer rows.Close()
	var messages []domain.Message
	for rows.Next() {
		var msg domain.Message
		if err := scanMessage(rows, &msg); err != nil {
			return nil, err
		}
		messages = append(messages, msg)
	}
	return messages, rows.Err()
}

func (r *MessageRepo) Create(ctx context.Context, msg *domain.Message) error {
	query := `
		INSERT INTO messages (id, conversation_id, sender_id, receiver_id, parent_id, content, created_at, read, edited)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`
	_, err := r.db.Exec(ctx, query,
		msg.ID, msg.ConversationID, msg.SenderID, msg.ReceiverID, msg.ParentID,
		msg.Content, msg.CreatedAt, msg.Read, msg.Edited,
	)
	return err
}

func (r *MessageRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.Message, error) {
	query := `
		SELECT ` + messageColumns + `
		FROM messages m
		LEFT JOIN users u ON m.sender_id = u.id
		WHERE m.id = $1`
	var msg domain.Message
	err := scanMessage(r.db.QueryRow(ctx, query, id), &msg)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	return &msg, err
}

func (r *MessageRepo) ListByConversation(ctx context.Context, conversationID uuid.UUID) ([]domain.Message, error) {
	query := `
		SELECT ` + messageColumns + `
		FROM messages m
		LEFT JOIN users u ON m.sender_id = u.id
		WHERE m.conversation_id = $1
		ORDER BY m.created_at ASC`
	rows, err := r.db.Query(ctx, query, conversationID)
	if err != nil {
		return nil, err
	}
	return collectMessages(rows)
}

func (r *MessageRepo) ListRoots(ctx context.Context, conversationID uuid.UUID, search string, limit, offset int) ([]domain.Message, error) {
	query := `
		SELECT ` + messageColumns + `
		FROM messages m
		LEFT JOIN users u ON m.sender_id = u.id
		WHERE m.conversation_id = $1 AND m.parent_id IS NULL
			AND ($2 = '' OR m.content ILIKE '%' || $2 || '%'
				OR u.first_name ILIKE '%' || $2 || '%'
				OR u.last_name ILIKE '%' || $2 || '%')
		ORDER BY m.created_at ASC
		LIMIT $3 OFFSET $4`
	rows, err := r.db.Query(ctx, query, conversationID, search, limit, offset)
	if err != nil {
		return nil, err
	}
	return collectMessages(rows)
}

func (r *MessageRepo) UpdateContent(ctx context.Context, msg *domain.Message) error {
	query := `
		UPDATE messages SET content = $1, edited = $2, edited_at = $3
		WHERE id = $4`
	_, err := r.db.Exec(ctx, query, msg.Content, msg.Edited, msg.EditedAt, msg.ID)
	return err
}

func (r *MessageRepo) Lock(ctx context.Context, id uuid.UUID) error {
	_, err := r.db.Exec(ctx, `SELECT id FROM messages WHERE id = $1 FOR UPDATE`, id)
	return err
}

func (r *MessageRepo) Delete(ctx context.Context, id uuid.UUID) error {
	_, err := r.db.Exec(ctx, `DELETE FROM messages WHERE id = $1`, id)
	return err
}

func (r *MessageRepo) ListUnread(ctx context.Context, userID uuid.UUID) ([]domain.Message, error) {
	query := `
		SELECT ` + messageColumns + `
		FROM messages m
		LEFT JOIN users u ON m.sender_id = u.id
		WHERE m.read = false
			AND m.sender_id IS DISTINCT FROM $1
			AND m.conversation_id IN (
				SELECT conversation_id FROM conversation_participants WHERE user_id = $1
			)
		ORDER BY m.created_at ASC`
	rows, err := r.db.Query(ctx, query, userID)
	if err != nil {
		return nil, err
	}
	return collectMessages(rows)
}

func (r *MessageRepo) MarkRead(ctx context.Context, userID uuid.UUID, ids []uuid.UUID) (int64, error) {
	query := `
		UPDATE messages SET read = true
		WHERE read = false
			AND sender_id IS DISTINCT FROM $1
			AND conversation_id IN (
				SELECT conversation_id FROM conversation_participants WHERE user_id = $1
			)`
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

func (r *MessageRepo) CountUnread(ctx context.Context, userID uuid.UUID) (int64, error) {
	query := `
		SELECT COUNT(*)
		FROM messages m
		WHERE m.read = false
			AND m.sender_id IS DISTINCT FROM $1
			AND m.conversation_id IN (
				SELECT conversation_id FROM conversation_participants WHERE user_id = $1
			)`
	var count int64
	err := r.db.QueryRow(ctx, query, userID).Scan(&count)
	return count, err
}

func (r *MessageRepo) TombstoneSender(ctx context.Context, senderID uuid.UUID, placeholder string) error {
	_, err := r.db.Exec(ctx, `
		UPDATE messages SET sender_id = NULL, content = $1
		WHERE sender_id = $2`, placeholder, senderID)
	return err
}

func (r *MessageRepo) ClearReceiver(ctx context.Context, receiverID uuid.UUID) error {
	_, err := r.db.Exec(ctx, `
		UPDATE messages SET receiver_id = NULL
		WHERE receiver_id = $1`, receiverID)
	return err
}
