package postgres

import (
	"context"

	"github.com/google/uuid"
	"github.com/loomchat/loom/internal/domain"
)

type HistoryRepo struct {
	db DBTX
}

func (r *HistoryRepo) Create(ctx context.Context, h *domain.MessageHistory) error {
	query := `
		INSERT INTO message_history (id, message_id, old_content, new_content, editor_id, version, edited_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`
	_, err := r.db.Exec(ctx, query,
		h.ID, h.MessageID, h.OldContent, h.NewContent, h.EditorID, h.Version, h.EditedAt,
	)
	return err
}

func (r *HistoryRepo) ListByMessage(ctx context.Context, messageID uuid.UUID) ([]domain.MessageHistory, error) {
	query := `
		SELECT id, message_id, old_content, new_content, editor_id, version, edited_at
		FROM message_history
		WHERE message_id = $1
		ORDER BY version ASC`
	rows, err := r.db.Query(ctx, query, messageID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []domain.MessageHistory
	for rows.Next() {
		var h domain.MessageHistory
		if err := rows.Scan(&h.ID, &h.MessageID, &h.OldContent, &h.NewContent, &h.EditorID, &h.Version, &h.EditedAt); err != nil {
			return nil, err
		}
		entries = append(entries, h)
	}
	return entries, rows.Err()
}

func (r *HistoryRepo) LatestVersion(ctx context.Context, messageID uuid.UUID) (int, error) {
	var version int
	err := r.db.QueryRow(ctx, `
		SELECT COALESCE(MAX(version), 0) FROM message_history
		WHERE message_id = $1`, messageID).Scan(&version)
	return version, err
}
