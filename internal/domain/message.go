package domain

import (
	"time"

	"github.com/google/uuid"
)

// TombstoneContent replaces the content of messages whose author deleted
// their account, so threads keep their shape without the removed identity.
const TombstoneContent = "[deleted]"

type Message struct {
	ID             uuid.UUID  `json:"id"`
	ConversationID uuid.UUID  `json:"conversation_id"`
	SenderID       *uuid.UUID `json:"sender_id,omitempty"`
	ReceiverID     *uuid.UUID `json:"receiver_id,omitempty"`
	ParentID       *uuid.UUID `json:"parent_id,omitempty"`
	Content        string     `json:"content"`
	CreatedAt      time.Time  `json:"created_at"`
	Read           bool       `json:"read"`
	Edited         bool       `json:"edited"`
	EditedAt       *time.Time `json:"edited_at,omitempty"`
	// Joined fields
	SenderName  string `json:"sender_name,omitempty"`
	SenderEmail string `json:"sender_email,omitempty"`
	// Replies is populated by the thread resolver, ordered by CreatedAt.
	Replies []*Message `json:"replies,omitempty"`
}

// IsRoot reports whether the message starts a thread.
func (m *Message) IsRoot() bool {
	return m.ParentID == nil
}
