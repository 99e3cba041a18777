package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/loomchat/loom/internal/domain"
)

type ConversationRepo struct {
	db DBTX
}

func (r *ConversationRepo) Create(ctx context.Context, conv *domain.Conversation, participantIDs []uuid.UUID) error {
	query := `
		INSERT INTO conversations (id, created_at, last_activity_at)
		VALUES ($1, $2, $3)`
	if _, err := r.db.Exec(ctx, query, conv.ID, conv.CreatedAt, conv.LastActivityAt); err != nil {
		return err
	}

	for _, userID := range participantIDs {
		_, err := r.db.Exec(ctx, `
			INSERT INTO conversation_participants (conversation_id, user_id)
			VALUES ($1, $2) ON CONFLICT DO NOTHING`, conv.ID, userID)
		if err != nil {
			return err
		}
	}
	return nil
}

func (r *ConversationRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.Conversation, error) {
	query := `
		SELECT id, created_at, last_activity_at
		FROM conversations WHERE id = $1`
	var conv domain.Conversation
	err := r.db.QueryRow(ctx, query, id).Scan(&conv.ID, &conv.CreatedAt, &conv.LastActivityAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	participants, err := r.ListParticipants(ctx, id)
	if err != nil {
		return nil, err
	}
	conv.Participants = participants
	return &conv, nil
}

func (r *ConversationRepo) ListForUser(ctx context.Context, userID uuid.UUID) ([]domain.Conversation, error) {
	query := `
		SELECT c.id, c.created_at, c.last_activity_at
		FROM conversations c
		JOIN conversation_participants cp ON cp.conversation_id = c.id
		WHERE cp.user_id = $1
		ORDER BY c.last_activity_at DESC`
	rows, err := r.db.Query(ctx, query, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var convs []domain.Conversation
	for rows.Next() {
		var conv domain.Conversation
		if err := rows.Scan(&conv.ID, &conv.CreatedAt, &conv.LastActivityAt); err != nil {
			return nil, err
		}
		convs = append(convs, conv)
	}
	return convs, rows.Err()
}

func (r *ConversationRepo) ListParticipants(ctx context.Context, conversationID uuid.UUID) ([]domain.User, error) {
	query := `
		SELECT u.id, u.email, u.first_name, u.last_name, u.role, u.created_at
		FROM users u
		JOIN conversation_participants cp ON cp.user_id = u.id
		WHERE cp.conversation_id = $1
		ORDER BY cp.joined_at`
	rows, err := r.db.Query(ctx, query, conversationID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var users []domain.User
	for rows.Next() {
		var user domain.User
		if err := rows.Scan(&user.ID, &user.Email, &user.FirstName, &user.LastName, &user.Role, &user.CreatedAt); err != nil {
			return nil, err
		}
		users = append(users, user)
	}
	return users, rows.Err()
}

func (r *ConversationRepo) IsParticipant(ctx context.Context, conversationID, userID uuid.UUID) (bool, error) {
	query := `
		SELECT EXISTS (
			SELECT 1 FROM conversation_participants
			WHERE conversation_id = $1 AND user_id = $2
		)`
	var ok bool
	err := r.db.QueryRow(ctx, query, conversationID, userID).Scan(&ok)
	return ok, err
}

func (r *ConversationRepo) RemoveParticipant(ctx context.Context, conversationID, userID uuid.UUID) error {
	_, err := r.db.Exec(ctx, `
		DELETE FROM conversation_participants
		WHERE conversation_id = $1 AND user_id = $2`, conversationID, userID)
	return err
}

func (r *ConversationRepo) CountParticipants(ctx context.Context, conversationID uuid.UUID) (int, error) {
	var count int
	err := r.db.QueryRow(ctx, `
		SELECT COUNT(*) FROM conversation_participants
		WHERE conversation_id = $1`, conversationID).Scan(&count)
	return count, err
}

func (r *ConversationRepo) TouchActivity(ctx context.Context, conversationID uuid.UUID, at time.Time) error {
	_, err := r.db.Exec(ctx, `
		UPDATE conversations SET last_activity_at = $1 WHERE id = $2`, at, conversationID)
	return err
}

func (r *ConversationRepo) Delete(ctx context.Context, id uuid.UUID) error {
	_, err := r.db.Exec(ctx, `DELETE FROM conversations WHERE id = $1`, id)
	return err
}
