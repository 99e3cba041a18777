package service

import (
	"context"
	"fmt"
	"log"

	"github.com/google/uuid"
	"github.com/loomchat/loom/internal/domain"
	"github.com/loomchat/loom/internal/repository"
)

type UserService struct {
	store repository.Store
}

func NewUserService(store repository.Store) *UserService {
	return &UserService{store: store}
}

func (s *UserService) Get(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	user, err := s.store.Users().GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, ErrUserNotFound
	}
	return user, nil
}

// DeleteAccount removes a user without destroying conversation history for
// the remaining participants: their messages are tombstoned rather than
// deleted, dangling receiver refs are nulled, and only conversations left
// with no participants at all are dropped. One transaction, all or nothing.
func (s *UserService) DeleteAccount(ctx context.Context, userID uuid.UUID) error {
	user, err := s.store.Users().GetByID(ctx, userID)
	if err != nil {
		return err
	}
	if user == nil {
		return ErrUserNotFound
	}

	convs, err := s.store.Conversations().ListForUser(ctx, userID)
	if err != nil {
		return err
	}

	err = s.store.WithinTx(ctx, func(tx repository.Store) error {
		if err := tx.Messages().TombstoneSender(ctx, userID, domain.TombstoneContent); err != nil {
			return fmt.Errorf("tombstoning messages: %w", err)
		}
		if err := tx.Messages().ClearReceiver(ctx, userID); err != nil {
			return fmt.Errorf("clearing receiver refs: %w", err)
		}

		for _, conv := range convs {
			if err := tx.Conversations().RemoveParticipant(ctx, conv.ID, userID); err != nil {
				return err
			}
			remaining, err := tx.Conversations().CountParticipants(ctx, conv.ID)
			if err != nil {
				return err
			}
			if remaining == 0 {
				if err := tx.Conversations().Delete(ctx, conv.ID); err != nil {
					return fmt.Errorf("deleting orphaned conversation: %w", err)
				}
			}
		}

		if err := tx.Users().Delete(ctx, userID); err != nil {
			return fmt.Errorf("deleting user: %w", err)
		}
		return nil
	})
	if err != nil {
		return err
	}

	log.Printf("user %s deleted, %d conversations checked for cleanup", user.Email, len(convs))
	return nil
}
