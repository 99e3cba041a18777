package service

import (
	"context"

	"github.com/google/uuid"
	"github.com/loomchat/loom/internal/domain"
	"github.com/loomchat/loom/internal/repository"
)

type NotificationService struct {
	store repository.Store
}

func NewNotificationService(store repository.Store) *NotificationService {
	return &NotificationService{store: store}
}

func (s *NotificationService) ListForUser(ctx context.Context, userID uuid.UUID, unreadOnly bool) ([]domain.Notification, error) {
	notifications, err := s.store.Notifications().ListForUser(ctx, userID, unreadOnly)
	if err != nil {
		return nil, err
	}
	if notifications == nil {
		notifications = []domain.Notification{}
	}
	return notifications, nil
}

// MarkAsRead marks the given notifications read, or all of the user's unread
// notifications when ids is empty. Idempotent, returns the rows updated.
func (s *NotificationService) MarkAsRead(ctx context.Context, userID uuid.UUID, ids []uuid.UUID) (int64, error) {
	return s.store.Notifications().MarkRead(ctx, userID, ids)
}

func (s *NotificationService) UnreadCount(ctx context.Context, userID uuid.UUID) (int64, error) {
	return s.store.Notifications().CountUnread(ctx, userID)
}
