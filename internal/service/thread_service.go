package service

import (
	"context"
	"errors"
	"log"

	"github.com/google/uuid"
	"github.com/loomchat/loom/internal/domain"
	"github.com/loomchat/loom/internal/repository"
)

// MaxThreadDepth caps every thread traversal. Parent links form a tree in
// healthy data; the cap turns a corrupted cycle into a bounded walk.
const MaxThreadDepth = 100

// ErrCycleDetected signals that a parent chain exceeded MaxThreadDepth. The
// accompanying result is the capped value, not garbage.
var ErrCycleDetected = errors.New("thread depth cap exceeded, parent links may form a cycle")

type ThreadService struct {
	store repository.Store
}

func NewThreadService(store repository.Store) *ThreadService {
	return &ThreadService{store: store}
}

// Roots lists the parentless messages of a conversation ascending by
// timestamp, optionally filtered by free-text search over content and sender
// name, paginated by limit/offset.
func (s *ThreadService) Roots(ctx context.Context, userID, conversationID uuid.UUID, search string, limit, offset int) ([]domain.Message, error) {
	if err := s.checkAccess(ctx, userID, conversationID); err != nil {
		return nil, err
	}

	if limit <= 0 || limit > 100 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}

	roots, err := s.store.Messages().ListRoots(ctx, conversationID, search, limit, offset)
	if err != nil {
		return nil, err
	}
	if roots == nil {
		roots = []domain.Message{}
	}
	return roots, nil
}

// Thread returns the message with its reply subtree attached, replies at each
// level ordered by timestamp. maxDepth <= 0 means unlimited; either way the
// walk never exceeds MaxThreadDepth levels.
func (s *ThreadService) Thread(ctx context.Context, userID, messageID uuid.UUID, maxDepth int) (*domain.Message, error) {
	msg, err := s.store.Messages().GetByID(ctx, messageID)
	if err != nil {
		return nil, err
	}
	if msg == nil {
		return nil, ErrMessageNotFound
	}
	if err := s.checkAccess(ctx, userID, msg.ConversationID); err != nil {
		return nil, err
	}

	if maxDepth <= 0 || maxDepth > MaxThreadDepth {
		maxDepth = MaxThreadDepth
	}

	all, err := s.store.Messages().ListByConversation(ctx, msg.ConversationID)
	if err != nil {
		return nil, err
	}

	// Index the conversation as an arena keyed by id. The repository returns
	// messages ascending by created_at, so child slices stay ordered.
	children := make(map[uuid.UUID][]*domain.Message, len(all))
	for i := range all {
		m := &all[i]
		if m.ParentID == nil || *m.ParentID == m.ID {
			continue
		}
		children[*m.ParentID] = append(children[*m.ParentID], m)
	}

	attachReplies(msg, children, maxDepth)
	return msg, nil
}

// Depth counts ancestor hops from the message to its thread root. A walk that
// exceeds MaxThreadDepth returns the cap together with ErrCycleDetected.
func (s *ThreadService) Depth(ctx context.Context, userID, messageID uuid.UUID) (int, error) {
	msg, err := s.store.Messages().GetByID(ctx, messageID)
	if err != nil {
		return 0, err
	}
	if msg == nil {
		return 0, ErrMessageNotFound
	}
	if err := s.checkAccess(ctx, userID, msg.ConversationID); err != nil {
		return 0, err
	}

	all, err := s.store.Messages().ListByConversation(ctx, msg.ConversationID)
	if err != nil {
		return 0, err
	}
	arena := make(map[uuid.UUID]*domain.Message, len(all))
	for i := range all {
		arena[all[i].ID] = &all[i]
	}

	depth := 0
	current := msg
	for current.ParentID != nil {
		if depth >= MaxThreadDepth {
			log.Printf("data integrity: message %s parent chain exceeds %d hops", messageID, MaxThreadDepth)
			return MaxThreadDepth, ErrCycleDetected
		}
		parent, ok := arena[*current.ParentID]
		if !ok {
			break
		}
		current = parent
		depth++
	}
	return depth, nil
}

func (s *ThreadService) checkAccess(ctx context.Context, userID, conversationID uuid.UUID) error {
	conv, err := s.store.Conversations().GetByID(ctx, conversationID)
	if err != nil {
		return err
	}
	if conv == nil {
		return ErrConversationNotFound
	}
	ok, err := s.store.Conversations().IsParticipant(ctx, conversationID, userID)
	if err != nil {
		return err
	}
	if !ok {
		return ErrNotParticipant
	}
	return nil
}

// attachReplies descends the children index with an explicit depth budget, so
// even corrupted parent links cannot make it loop.
func attachReplies(node *domain.Message, children map[uuid.UUID][]*domain.Message, depth int) {
	if depth <= 0 {
		return
	}
	for _, child := range children[node.ID] {
		if child.ID == node.ID {
			continue
		}
		node.Replies = append(node.Replies, child)
		attachReplies(child, children, depth-1)
	}
}
