package domain

import (
	"time"

	"github.com/google/uuid"
)

const (
	NotificationTypeMessage = "message"
	NotificationTypeEdit    = "edit"
	NotificationTypeReply   = "reply"
	NotificationTypeSystem  = "system"
	NotificationTypeAlert   = "alert"
)

type Notification struct {
	ID        uuid.UUID  `json:"id"`
	UserID    uuid.UUID  `json:"user_id"`
	MessageID *uuid.UUID `json:"message_id,omitempty"`
	Type      string     `json:"type"`
	Title     string     `json:"title"`
	Content   string     `json:"content"`
	Read      bool       `json:"read"`
	CreatedAt time.Time  `json:"created_at"`
}
