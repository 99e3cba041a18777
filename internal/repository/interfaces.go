package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/loomchat/loom/internal/domain"
)

type UserRepository interface {
	Create(ctx context.Context, user *domain.User) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error)
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

type ConversationRepository interface {
	Create(ctx context.Context, conv *domain.Conversation, participantIDs []uuid.UUID) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Conversation, error)
	ListForUser(ctx context.Context, userID uuid.UUID) ([]domain.Conversation, error)
	ListParticipants(ctx context.Context, conversationID uuid.UUID) ([]domain.User, error)
	IsParticipant(ctx context.Context, conversationID, userID uuid.UUID) (bool, error)
	RemoveParticipant(ctx context.Context, conversationID, userID uuid.UUID) error
	CountParticipants(ctx context.Context, conversationID uuid.UUID) (int, error)
	TouchActivity(ctx context.Context, conversationID uuid.UUID, at time.Time) error
	Delete(ctx context.Context, id uuid.UUID) error
}

type MessageRepository interface {
	Create(ctx context.Context, msg *domain.Message) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Message, error)
	// ListByConversation returns every message of a conversation ascending by
	// created_at; the thread resolver indexes the result by id.
	ListByConversation(ctx context.Context, conversationID uuid.UUID) ([]domain.Message, error)
	// ListRoots returns parentless messages ascending by created_at, optionally
	// filtered by a free-text search over content and sender name.
	ListRoots(ctx context.Context, conversationID uuid.UUID, search string, limit, offset int) ([]domain.Message, error)
	UpdateContent(ctx context.Context, msg *domain.Message) error
	// Lock takes a row lock on the message for the duration of the surrounding
	// transaction, serializing concurrent edits of the same message.
	Lock(ctx context.Context, id uuid.UUID) error
	Delete(ctx context.Context, id uuid.UUID) error

	// Read-state queries. A sender's own messages are never unread to them.
	ListUnread(ctx context.Context, userID uuid.UUID) ([]domain.Message, error)
	// MarkRead flips read=false rows among ids (or all unread visible to the
	// user when ids is empty) and returns the number of rows updated.
	MarkRead(ctx context.Context, userID uuid.UUID, ids []uuid.UUID) (int64, error)
	CountUnread(ctx context.Context, userID uuid.UUID) (int64, error)

	// TombstoneSender nulls the sender and replaces content for every message
	// sent by the given user. ClearReceiver nulls dangling receiver refs.
	TombstoneSender(ctx context.Context, senderID uuid.UUID, placeholder string) error
	ClearReceiver(ctx context.Context, receiverID uuid.UUID) error
}

type MessageHistoryRepository interface {
	Create(ctx context.Context, h *domain.MessageHistory) error
	ListByMessage(ctx context.Context, messageID uuid.UUID) ([]domain.MessageHistory, error)
	// LatestVersion returns 0 when the message has never been edited.
	LatestVersion(ctx context.Context, messageID uuid.UUID) (int, error)
}

type NotificationRepository interface {
	Create(ctx context.Context, n *domain.Notification) error
	ListForUser(ctx context.Context, userID uuid.UUID, unreadOnly bool) ([]domain.Notification, error)
	MarkRead(ctx context.Context, userID uuid.UUID, ids []uuid.UUID) (int64, error)
	CountUnread(ctx context.Context, userID uuid.UUID) (int64, error)
}

// Store bundles the repositories behind a single handle. WithinTx runs fn
// against a transaction-bound Store: every repository call made through the
// argument commits or rolls back as one unit.
type Store interface {
	Users() UserRepository
	Conversations() ConversationRepository
	Messages() MessageRepository
	History() MessageHistoryRepository
	Notifications() NotificationRepository
	WithinTx(ctx context.Context, fn func(Store) error) error
}
