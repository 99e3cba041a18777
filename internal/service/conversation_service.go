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

var (
	ErrConversationNotFound = errors.New("conversation not found")
	ErrNotParticipant       = errors.New("you are not a participant of this conversation")
	ErrNoParticipants       = errors.New("a conversation needs at least one participant")
	ErrUserNotFound         = errors.New("user not found")
)

type ConversationService struct {
	store repository.Store
}

func NewConversationService(store repository.Store) *ConversationService {
	return &ConversationService{store: store}
}

// Create starts a conversation. The creator is always part of the participant
// set, so the set can never be empty for a freshly created conversation.
func (s *ConversationService) Create(ctx context.Context, creatorID uuid.UUID, participantIDs []uuid.UUID) (*domain.Conversation, error) {
	ids := dedupe(append([]uuid.UUID{creatorID}, participantIDs...))
	if len(ids) == 0 {
		return nil, ErrNoParticipants
	}

	for _, id := range ids {
		user, err := s.store.Users().GetByID(ctx, id)
		if err != nil {
			return nil, err
		}
		if user == nil {
			return nil, ErrUserNotFound
		}
	}

	now := time.Now()
	conv := &domain.Conversation{
		ID:             uuid.New(),
		CreatedAt:      now,
		LastActivityAt: now,
	}

	err := s.store.WithinTx(ctx, func(tx repository.Store) error {
		return tx.Conversations().Create(ctx, conv, ids)
	})
	if err != nil {
		return nil, fmt.Errorf("creating conversation: %w", err)
	}

	return s.store.Conversations().GetByID(ctx, conv.ID)
}

func (s *ConversationService) Get(ctx context.Context, userID, conversationID uuid.UUID) (*domain.Conversation, error) {
	conv, err := s.store.Conversations().GetByID(ctx, conversationID)
	if err != nil {
		return nil, err
	}
	if conv == nil {
		return nil, ErrConversationNotFound
	}

	ok, err := s.store.Conversations().IsParticipant(ctx, conversationID, userID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrNotParticipant
	}

	return conv, nil
}

func (s *ConversationService) List(ctx context.Context, userID uuid.UUID) ([]domain.Conversation, error) {
	convs, err := s.store.Conversations().ListForUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	if convs == nil {
		convs = []domain.Conversation{}
	}
	return convs, nil
}

func dedupe(ids []uuid.UUID) []uuid.UUID {
	seen := make(map[uuid.UUID]struct{}, len(ids))
	out := ids[:0]
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
