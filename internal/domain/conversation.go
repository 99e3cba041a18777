package domain

import (
	"time"

	"github.com/google/uuid"
)

type Conversation struct {
	ID             uuid.UUID `json:"id"`
	CreatedAt      time.Time `json:"created_at"`
	LastActivityAt time.Time `json:"last_activity_at"`
	// Joined fields
	Participants []User `json:"participants,omitempty"`
}
