package domain

import (
	"time"

	"github.com/google/uuid"
)

// MessageHistory is an append-only snapshot of a single edit. Rows are never
// mutated after creation; Version is 1-based and contiguous per message.
type MessageHistory struct {
	ID         uuid.UUID  `json:"id"`
	MessageID  uuid.UUID  `json:"message_id"`
	OldContent string     `json:"old_content"`
	NewContent string     `json:"new_content"`
	EditorID   *uuid.UUID `json:"editor_id,omitempty"`
	Version    int        `json:"version"`
	EditedAt   time.Time  `json:"edited_at"`
}
