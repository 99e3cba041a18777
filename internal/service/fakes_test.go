package service

import (
	"context"
	"errors"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/loomchat/loom/internal/domain"
	"github.com/loomchat/loom/internal/repository"
)

// fakeStore is an in-memory repository.Store. WithinTx runs the callback
// directly; mutation ordering in the services keeps partial writes out of the
// fake the same way a rollback would.
type fakeStore struct {
	users         map[uuid.UUID]*domain.User
	conversations map[uuid.UUID]*domain.Conversation
	participants  map[uuid.UUID][]uuid.UUID
	messages      map[uuid.UUID]*domain.Message
	history       map[uuid.UUID][]domain.MessageHistory
	notifications []domain.Notification

	failHistory bool
	lockCalls   int
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		users:         make(map[uuid.UUID]*domain.User),
		conversations: make(map[uuid.UUID]*domain.Conversation),
		participants:  make(map[uuid.UUID][]uuid.UUID),
		messages:      make(map[uuid.UUID]*domain.Message),
		history:       make(map[uuid.UUID][]domain.MessageHistory),
	}
}

func (s *fakeStore) Users() repository.UserRepository { return &fakeUserRepo{s} }

func (s *fakeStore) Conversations() repository.ConversationRepository { return &fakeConvRepo{s} }

func (s *fakeStore) Messages() repository.MessageRepository { return &fakeMessageRepo{s} }

func (s *fakeStore) History() repository.MessageHistoryRepository { return &fakeHistoryRepo{s} }

func (s *fakeStore) Notifications() repository.NotificationRepository {
	return &fakeNotificationRepo{s}
}

func (s *fakeStore) WithinTx(ctx context.Context, fn func(repository.Store) error) error {
	return fn(s)
}

// --- users ---

type fakeUserRepo struct{ s *fakeStore }

func (r *fakeUserRepo) Create(_ context.Context, user *domain.User) error {
	u := *user
	r.s.users[user.ID] = &u
	return nil
}

func (r *fakeUserRepo) GetByID(_ context.Context, id uuid.UUID) (*domain.User, error) {
	if u, ok := r.s.users[id]; ok {
		copied := *u
		return &copied, nil
	}
	return nil, nil
}

func (r *fakeUserRepo) GetByEmail(_ context.Context, email string) (*domain.User, error) {
	for _, u := range r.s.users {
		if u.Email == email {
			copied := *u
			return &copied, nil
		}
	}
	return nil, nil
}

func (r *fakeUserRepo) Delete(_ context.Context, id uuid.UUID) error {
	delete(r.s.users, id)
	return nil
}

// --- conversations ---

type fakeConvRepo struct{ s *fakeStore }

func (r *fakeConvRepo) Create(_ context.Context, conv *domain.Conversation, participantIDs []uuid.UUID) error {
	c := *conv
	c.Participants = nil
	r.s.conversations[conv.ID] = &c
	r.s.participants[conv.ID] = append([]uuid.UUID(nil), participantIDs...)
	return nil
}

func (r *fakeConvRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.Conversation, error) {
	conv, ok := r.s.conversations[id]
	if !ok {
		return nil, nil
	}
	copied := *conv
	users, err := r.ListParticipants(ctx, id)
	if err != nil {
		return nil, err
	}
	copied.Participants = users
	return &copied, nil
}

func (r *fakeConvRepo) ListForUser(_ context.Context, userID uuid.UUID) ([]domain.Conversation, error) {
	var convs []domain.Conversation
	for id, conv := range r.s.conversations {
		for _, pid := range r.s.participants[id] {
			if pid == userID {
				convs = append(convs, *conv)
				break
			}
		}
	}
	sort.Slice(convs, func(i, j int) bool {
		return convs[i].LastActivityAt.After(convs[j].LastActivityAt)
	})
	return convs, nil
}

func (r *fakeConvRepo) ListParticipants(_ context.Context, conversationID uuid.UUID) ([]domain.User, error) {
	var users []domain.User
	for _, pid := range r.s.participants[conversationID] {
		if u, ok := r.s.users[pid]; ok {
			users = append(users, *u)
		}
	}
	return users, nil
}

func (r *fakeConvRepo) IsParticipant(_ context.Context, conversationID, userID uuid.UUID) (bool, error) {
	for _, pid := range r.s.participants[conversationID] {
		if pid == userID {
			return true, nil
		}
	}
	return false, nil
}

func (r *fakeConvRepo) RemoveParticipant(_ context.Context, conversationID, userID uuid.UUID) error {
	ids := r.s.participants[conversationID]
	out := ids[:0]
	for _, pid := range ids {
		if pid != userID {
			out = append(out, pid)
		}
	}
	r.s.participants[conversationID] = out
	return nil
}

func (r *fakeConvRepo) CountParticipants(_ context.Context, conversationID uuid.UUID) (int, error) {
	return len(r.s.participants[conversationID]), nil
}

func (r *fakeConvRepo) TouchActivity(_ context.Context, conversationID uuid.UUID, at time.Time) error {
	if conv, ok := r.s.conversations[conversationID]; ok {
		conv.LastActivityAt = at
	}
	return nil
}

func (r *fakeConvRepo) Delete(_ context.Context, id uuid.UUID) error {
	delete(r.s.conversations, id)
	delete(r.s.participants, id)
	for msgID, msg := range r.s.messages {
		if msg.ConversationID == id {
			delete(r.s.messages, msgID)
			delete(r.s.history, msgID)
		}
	}
	return nil
}

// --- messages ---

type fakeMessageRepo struct{ s *fakeStore }

func (r *fakeMessageRepo) joined(msg *domain.Message) domain.Message {
	copied := *msg
	copied.Replies = nil
	if msg.SenderID != nil {
		if u, ok := r.s.users[*msg.SenderID]; ok {
			copied.SenderName = u.FullName()
			copied.SenderEmail = u.Email
		}
	}
	return copied
}

func (r *fakeMessageRepo) Create(_ context.Context, msg *domain.Message) error {
	m := *msg
	r.s.messages[msg.ID] = &m
	return nil
}

func (r *fakeMessageRepo) GetByID(_ context.Context, id uuid.UUID) (*domain.Message, error) {
	msg, ok := r.s.messages[id]
	if !ok {
		return nil, nil
	}
	copied := r.joined(msg)
	return &copied, nil
}

func (r *fakeMessageRepo) ListByConversation(_ context.Context, conversationID uuid.UUID) ([]domain.Message, error) {
	var messages []domain.Message
	for _, msg := range r.s.messages {
		if msg.ConversationID == conversationID {
			messages = append(messages, r.joined(msg))
		}
	}
	sort.SliceStable(messages, func(i, j int) bool {
		return messages[i].CreatedAt.Before(messages[j].CreatedAt)
	})
	return messages, nil
}

func (r *fakeMessageRepo) ListRoots(ctx context.Context, conversationID uuid.UUID, search string, limit, offset int) ([]domain.Message, error) {
	all, err := r.ListByConversation(ctx, conversationID)
	if err != nil {
		return nil, err
	}
	var roots []domain.Message
	for _, msg := range all {
		if msg.ParentID != nil {
			continue
		}
		if search != "" &&
			!strings.Contains(strings.ToLower(msg.Content), strings.ToLower(search)) &&
			!strings.Contains(strings.ToLower(msg.SenderName), strings.ToLower(search)) {
			continue
		}
		roots = append(roots, msg)
	}
	if offset >= len(roots) {
		return nil, nil
	}
	roots = roots[offset:]
	if len(roots) > limit {
		roots = roots[:limit]
	}
	return roots, nil
}

func (r *fakeMessageRepo) UpdateContent(_ context.Context, msg *domain.Message) error {
	stored, ok := r.s.messages[msg.ID]
	if !ok {
		return errors.New("message not found")
	}
	stored.Content = msg.Content
	stored.Edited = msg.Edited
	stored.EditedAt = msg.EditedAt
	return nil
}

func (r *fakeMessageRepo) Lock(_ context.Context, id uuid.UUID) error {
	if _, ok := r.s.messages[id]; !ok {
		return errors.New("message not found")
	}
	r.s.lockCalls++
	return nil
}

func (r *fakeMessageRepo) Delete(ctx context.Context, id uuid.UUID) error {
	for _, msg := range r.s.messages {
		if msg.ParentID != nil && *msg.ParentID == id {
			if err := r.Delete(ctx, msg.ID); err != nil {
				return err
			}
		}
	}
	delete(r.s.messages, id)
	delete(r.s.history, id)
	return nil
}

func (r *fakeMessageRepo) visibleUnread(userID uuid.UUID) []*domain.Message {
	var out []*domain.Message
	for _, msg := range r.s.messages {
		if msg.Read {
			continue
		}
		if msg.SenderID != nil && *msg.SenderID == userID {
			continue
		}
		member := false
		for _, pid := range r.s.participants[msg.ConversationID] {
			if pid == userID {
				member = true
				break
			}
		}
		if member {
			out = append(out, msg)
		}
	}
	return out
}

func (r *fakeMessageRepo) ListUnread(_ context.Context, userID uuid.UUID) ([]domain.Message, error) {
	var messages []domain.Message
	for _, msg := range r.visibleUnread(userID) {
		messages = append(messages, r.joined(msg))
	}
	sort.SliceStable(messages, func(i, j int) bool {
		return messages[i].CreatedAt.Before(messages[j].CreatedAt)
	})
	return messages, nil
}

func (r *fakeMessageRepo) MarkRead(_ context.Context, userID uuid.UUID, ids []uuid.UUID) (int64, error) {
	wanted := make(map[uuid.UUID]struct{}, len(ids))
	for _, id := range ids {
		wanted[id] = struct{}{}
	}
	var count int64
	for _, msg := range r.visibleUnread(userID) {
		if len(ids) > 0 {
			if _, ok := wanted[msg.ID]; !ok {
				continue
			}
		}
		msg.Read = true
		count++
	}
	return count, nil
}

func (r *fakeMessageRepo) CountUnread(_ context.Context, userID uuid.UUID) (int64, error) {
	return int64(len(r.visibleUnread(userID))), nil
}

func (r *fakeMessageRepo) TombstoneSender(_ context.Context, senderID uuid.UUID, placeholder string) error {
	for _, msg := range r.s.messages {
		if msg.SenderID != nil && *msg.SenderID == senderID {
			msg.SenderID = nil
			msg.Content = placeholder
		}
	}
	return nil
}

func (r *fakeMessageRepo) ClearReceiver(_ context.Context, receiverID uuid.UUID) error {
	for _, msg := range r.s.messages {
		if msg.ReceiverID != nil && *msg.ReceiverID == receiverID {
			msg.ReceiverID = nil
		}
	}
	return nil
}

// --- history ---

type fakeHistoryRepo struct{ s *fakeStore }

func (r *fakeHistoryRepo) Create(_ context.Context, h *domain.MessageHistory) error {
	if r.s.failHistory {
		return errors.New("history insert failed")
	}
	r.s.history[h.MessageID] = append(r.s.history[h.MessageID], *h)
	return nil
}

func (r *fakeHistoryRepo) ListByMessage(_ context.Context, messageID uuid.UUID) ([]domain.MessageHistory, error) {
	entries := append([]domain.MessageHistory(nil), r.s.history[messageID]...)
	sort.Slice(entries, func(i, j int) bool { return entries[i].Version < entries[j].Version })
	return entries, nil
}

func (r *fakeHistoryRepo) LatestVersion(_ context.Context, messageID uuid.UUID) (int, error) {
	latest := 0
	for _, h := range r.s.history[messageID] {
		if h.Version > latest {
			latest = h.Version
		}
	}
	return latest, nil
}

// --- notifications ---

type fakeNotificationRepo struct{ s *fakeStore }

func (r *fakeNotificationRepo) Create(_ context.Context, n *domain.Notification) error {
	r.s.notifications = append(r.s.notifications, *n)
	return nil
}

func (r *fakeNotificationRepo) ListForUser(_ context.Context, userID uuid.UUID, unreadOnly bool) ([]domain.Notification, error) {
	var out []domain.Notification
	for _, n := range r.s.notifications {
		if n.UserID != userID {
			continue
		}
		if unreadOnly && n.Read {
			continue
		}
		out = append(out, n)
	}
	return out, nil
}

func (r *fakeNotificationRepo) MarkRead(_ context.Context, userID uuid.UUID, ids []uuid.UUID) (int64, error) {
	wanted := make(map[uuid.UUID]struct{}, len(ids))
	for _, id := range ids {
		wanted[id] = struct{}{}
	}
	var count int64
	for i := range r.s.notifications {
		n := &r.s.notifications[i]
		if n.UserID != userID || n.Read {
			continue
		}
		if len(ids) > 0 {
			if _, ok := wanted[n.ID]; !ok {
				continue
			}
		}
		n.Read = true
		count++
	}
	return count, nil
}

func (r *fakeNotificationRepo) CountUnread(_ context.Context, userID uuid.UUID) (int64, error) {
	var count int64
	for _, n := range r.s.notifications {
		if n.UserID == userID && !n.Read {
			count++
		}
	}
	return count, nil
}

// --- fixture helpers ---

func addUser(s *fakeStore, first, last string) *domain.User {
	u := &domain.User{
		ID:        uuid.New(),
		Email:     strings.ToLower(first) + "@example.com",
		FirstName: first,
		LastName:  last,
		Role:      domain.RoleMember,
		CreatedAt: time.Now(),
	}
	s.users[u.ID] = u
	return u
}

func addConversation(s *fakeStore, users ...*domain.User) *domain.Conversation {
	conv := &domain.Conversation{
		ID:             uuid.New(),
		CreatedAt:      time.Now(),
		LastActivityAt: time.Now(),
	}
	s.conversations[conv.ID] = conv
	for _, u := range users {
		s.participants[conv.ID] = append(s.participants[conv.ID], u.ID)
	}
	return conv
}

func notificationsFor(s *fakeStore, userID uuid.UUID) []domain.Notification {
	var out []domain.Notification
	for _, n := range s.notifications {
		if n.UserID == userID {
			out = append(out, n)
		}
	}
	return out
}
