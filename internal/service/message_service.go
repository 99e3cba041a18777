package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/loomchat/loom/internal/domain"
	"github.com/loomchat/loom/internal/repository"
)

// MaxContentLength bounds message content before any persistence happens.
const MaxContentLength = 10000

var (
	ErrMessageNotFound        = errors.New("message not found")
	ErrNotMessageOwner        = errors.New("only the message sender can perform this action")
	ErrEmptyContent           = errors.New("message content is required")
	ErrContentTooLong         = errors.New("message content exceeds the size limit")
	ErrParentNotFound         = errors.New("parent message not found")
	ErrParentMismatch         = errors.New("parent message belongs to a different conversation")
	ErrReceiverNotParticipant = errors.New("receiver is not a participant of this conversation")
)

// Notifier broadcasts real-time events to connected clients. Delivery is
// best-effort; implementations must never fail the calling mutation.
type Notifier interface {
	NotifyNewMessage(msg *domain.Message)
	NotifyEditedMessage(msg *domain.Message)
	NotifyDeletedMessage(conversationID, messageID uuid.UUID)
	NotifyNotification(n *domain.Notification)
}

type MessageService struct {
	store    repository.Store
	notifier Notifier
}

func NewMessageService(store repository.Store) *MessageService {
	return &MessageService{store: store}
}

// SetNotifier sets the real-time notifier (optional dependency).
func (s *MessageService) SetNotifier(n Notifier) {
	s.notifier = n
}

type SendMessageInput struct {
	Content    string     `json:"content"`
	ReceiverID *uuid.UUID `json:"receiver_id,omitempty"`
	ParentID   *uuid.UUID `json:"parent_id,omitempty"`
}

type EditMessageInput struct {
	Content string `json:"content"`
}

// Send creates a message and, in the same transaction, bumps the conversation
// activity timestamp and persists the derived notifications.
func (s *MessageService) Send(ctx context.Context, senderID, conversationID uuid.UUID, input SendMessageInput) (*domain.Message, error) {
	if err := validateContent(input.Content); err != nil {
		return nil, err
	}

	conv, err := s.store.Conversations().GetByID(ctx, conversationID)
	if err != nil {
		return nil, err
	}
	if conv == nil {
		return nil, ErrConversationNotFound
	}
	if !containsUser(conv.Participants, senderID) {
		return nil, ErrNotParticipant
	}

	var parent *domain.Message
	if input.ParentID != nil {
		parent, err = s.store.Messages().GetByID(ctx, *input.ParentID)
		if err != nil {
			return nil, err
		}
		if parent == nil {
			return nil, ErrParentNotFound
		}
		if parent.ConversationID != conversationID {
			return nil, ErrParentMismatch
		}
	}

	receiverID := input.ReceiverID
	if receiverID != nil {
		if *receiverID == senderID || !containsUser(conv.Participants, *receiverID) {
			return nil, ErrReceiverNotParticipant
		}
	} else if other, ok := otherParticipant(conv.Participants, senderID); ok {
		// One-on-one conversations get the receiver filled in automatically.
		receiverID = &other.ID
	}

	sender, err := s.store.Users().GetByID(ctx, senderID)
	if err != nil {
		return nil, err
	}
	if sender == nil {
		return nil, ErrUserNotFound
	}

	now := time.Now()
	msg := &domain.Message{
		ID:             uuid.New(),
		ConversationID: conversationID,
		SenderID:       &senderID,
		ReceiverID:     receiverID,
		ParentID:       input.ParentID,
		Content:        input.Content,
		CreatedAt:      now,
	}

	notifications := buildMessageNotifications(msg, parent, sender, conv.Participants)

	err = s.store.WithinTx(ctx, func(tx repository.Store) error {
		if err := tx.Messages().Create(ctx, msg); err != nil {
			return fmt.Errorf("creating message: %w", err)
		}
		if err := tx.Conversations().TouchActivity(ctx, conversationID, now); err != nil {
			return fmt.Errorf("touching conversation activity: %w", err)
		}
		for i := range notifications {
			if err := tx.Notifications().Create(ctx, &notifications[i]); err != nil {
				return fmt.Errorf("creating notification: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	full, err := s.store.Messages().GetByID(ctx, msg.ID)
	if err != nil {
		return nil, err
	}

	if s.notifier != nil {
		s.notifier.NotifyNewMessage(full)
		for i := range notifications {
			s.notifier.NotifyNotification(&notifications[i])
		}
	}

	return full, nil
}

// Edit records an edit-history snapshot and flips the edited flag, atomically
// with the content update. Editing to identical content is a no-op.
func (s *MessageService) Edit(ctx context.Context, editorID, messageID uuid.UUID, input EditMessageInput) (*domain.Message, error) {
	if err := validateContent(input.Content); err != nil {
		return nil, err
	}

	msg, err := s.store.Messages().GetByID(ctx, messageID)
	if err != nil {
		return nil, err
	}
	if msg == nil {
		return nil, ErrMessageNotFound
	}
	if msg.SenderID == nil || *msg.SenderID != editorID {
		return nil, ErrNotMessageOwner
	}
	if msg.Content == input.Content {
		return msg, nil
	}

	editor, err := s.store.Users().GetByID(ctx, editorID)
	if err != nil {
		return nil, err
	}
	if editor == nil {
		return nil, ErrUserNotFound
	}

	participants, err := s.store.Conversations().ListParticipants(ctx, msg.ConversationID)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	oldContent := msg.Content
	notifications := buildEditNotifications(msg, editor, participants, oldContent, input.Content, now)

	err = s.store.WithinTx(ctx, func(tx repository.Store) error {
		// Serialize concurrent edits of the same message, so version numbers
		// stay contiguous instead of two edits racing to max+1.
		if err := tx.Messages().Lock(ctx, messageID); err != nil {
			return fmt.Errorf("locking message: %w", err)
		}

		version, err := tx.History().LatestVersion(ctx, messageID)
		if err != nil {
			return err
		}

		entry := &domain.MessageHistory{
			ID:         uuid.New(),
			MessageID:  messageID,
			OldContent: oldContent,
			NewContent: input.Content,
			EditorID:   &editorID,
			Version:    version + 1,
			EditedAt:   now,
		}
		if err := tx.History().Create(ctx, entry); err != nil {
			return fmt.Errorf("recording edit history: %w", err)
		}

		msg.Content = input.Content
		msg.Edited = true
		msg.EditedAt = &now
		if err := tx.Messages().UpdateContent(ctx, msg); err != nil {
			return fmt.Errorf("updating message: %w", err)
		}

		for i := range notifications {
			if err := tx.Notifications().Create(ctx, &notifications[i]); err != nil {
				return fmt.Errorf("creating notification: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	updated, err := s.store.Messages().GetByID(ctx, messageID)
	if err != nil {
		return nil, err
	}

	if s.notifier != nil {
		s.notifier.NotifyEditedMessage(updated)
		for i := range notifications {
			s.notifier.NotifyNotification(&notifications[i])
		}
	}

	return updated, nil
}

// Delete removes a message together with its replies and history (cascade).
func (s *MessageService) Delete(ctx context.Context, userID, messageID uuid.UUID) error {
	msg, err := s.store.Messages().GetByID(ctx, messageID)
	if err != nil {
		return err
	}
	if msg == nil {
		return ErrMessageNotFound
	}
	if msg.SenderID == nil || *msg.SenderID != userID {
		return ErrNotMessageOwner
	}

	if err := s.store.Messages().Delete(ctx, messageID); err != nil {
		return err
	}

	if s.notifier != nil {
		s.notifier.NotifyDeletedMessage(msg.ConversationID, messageID)
	}

	return nil
}

func (s *MessageService) Get(ctx context.Context, userID, messageID uuid.UUID) (*domain.Message, error) {
	msg, err := s.store.Messages().GetByID(ctx, messageID)
	if err != nil {
		return nil, err
	}
	if msg == nil {
		return nil, ErrMessageNotFound
	}

	ok, err := s.store.Conversations().IsParticipant(ctx, msg.ConversationID, userID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrNotParticipant
	}

	return msg, nil
}

// History returns the append-only edit log of a message, oldest version first.
func (s *MessageService) History(ctx context.Context, userID, messageID uuid.UUID) ([]domain.MessageHistory, error) {
	if _, err := s.Get(ctx, userID, messageID); err != nil {
		return nil, err
	}

	entries, err := s.store.History().ListByMessage(ctx, messageID)
	if err != nil {
		return nil, err
	}
	if entries == nil {
		entries = []domain.MessageHistory{}
	}
	return entries, nil
}

// UnreadForUser returns unread messages across the user's conversations,
// excluding messages the user sent themselves.
func (s *MessageService) UnreadForUser(ctx context.Context, userID uuid.UUID) ([]domain.Message, error) {
	messages, err := s.store.Messages().ListUnread(ctx, userID)
	if err != nil {
		return nil, err
	}
	if messages == nil {
		messages = []domain.Message{}
	}
	return messages, nil
}

// MarkAsRead flips the given messages to read, or everything unread visible to
// the user when ids is empty. Re-marking a read message contributes 0.
func (s *MessageService) MarkAsRead(ctx context.Context, userID uuid.UUID, ids []uuid.UUID) (int64, error) {
	return s.store.Messages().MarkRead(ctx, userID, ids)
}

func (s *MessageService) UnreadCount(ctx context.Context, userID uuid.UUID) (int64, error) {
	return s.store.Messages().CountUnread(ctx, userID)
}

func validateContent(content string) error {
	if content == "" {
		return ErrEmptyContent
	}
	if len(content) > MaxContentLength {
		return ErrContentTooLong
	}
	return nil
}

func containsUser(users []domain.User, id uuid.UUID) bool {
	for _, u := range users {
		if u.ID == id {
			return true
		}
	}
	return false
}

// otherParticipant returns the single counterpart in a two-party conversation.
func otherParticipant(users []domain.User, selfID uuid.UUID) (*domain.User, bool) {
	if len(users) != 2 {
		return nil, false
	}
	for i := range users {
		if users[i].ID != selfID {
			return &users[i], true
		}
	}
	return nil, false
}
