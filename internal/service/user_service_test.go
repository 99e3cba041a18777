package service

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/loomchat/loom/internal/domain"
)

func TestDeleteAccountTombstonesMessages(t *testing.T) {
	store := newFakeStore()
	alice := addUser(store, "Alice", "Smith")
	bob := addUser(store, "Bob", "Jones")
	conv := addConversation(store, alice, bob)

	messages := NewMessageService(store)
	users := NewUserService(store)
	ctx := context.Background()

	fromAlice, err := messages.Send(ctx, alice.ID, conv.ID, SendMessageInput{Content: "from alice"})
	if err != nil {
		t.Fatalf("Send: %v", err)
	}
	fromBob, err := messages.Send(ctx, bob.ID, conv.ID, SendMessageInput{Content: "from bob"})
	if err != nil {
		t.Fatalf("Send: %v", err)
	}

	if err := users.DeleteAccount(ctx, alice.ID); err != nil {
		t.Fatalf("DeleteAccount: %v", err)
	}

	if u, _ := store.Users().GetByID(ctx, alice.ID); u != nil {
		t.Error("deleted user still present")
	}

	// Conversation survives because bob remains a participant.
	remaining, err := store.Conversations().GetByID(ctx, conv.ID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if remaining == nil {
		t.Fatal("conversation with a remaining participant must survive")
	}
	if len(remaining.Participants) != 1 || remaining.Participants[0].ID != bob.ID {
		t.Errorf("expected only bob left, got %+v", remaining.Participants)
	}

	// Alice's message is tombstoned, not deleted.
	ghost, err := store.Messages().GetByID(ctx, fromAlice.ID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if ghost == nil {
		t.Fatal("tombstoned message must still exist")
	}
	if ghost.Content != domain.TombstoneContent {
		t.Errorf("expected tombstone content %q, got %q", domain.TombstoneContent, ghost.Content)
	}
	if ghost.SenderID != nil {
		t.Errorf("tombstoned message must have no sender, got %v", ghost.SenderID)
	}

	// Bob's message loses its dangling receiver ref but keeps its content.
	kept, err := store.Messages().GetByID(ctx, fromBob.ID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if kept.Content != "from bob" {
		t.Errorf("other users' messages must be untouched, got %q", kept.Content)
	}
	if kept.ReceiverID != nil {
		t.Errorf("receiver ref to the deleted user must be cleared, got %v", kept.ReceiverID)
	}
}

func TestDeleteAccountDropsOrphanedConversation(t *testing.T) {
	store := newFakeStore()
	alice := addUser(store, "Alice", "Smith")
	solo := addConversation(store, alice)

	svc := NewUserService(store)
	ctx := context.Background()

	msg := &domain.Message{
		ID:             uuid.New(),
		ConversationID: solo.ID,
		SenderID:       &alice.ID,
		Content:        "talking to myself",
	}
	if err := store.Messages().Create(ctx, msg); err != nil {
		t.Fatalf("Create: %v", err)
	}

	if err := svc.DeleteAccount(ctx, alice.ID); err != nil {
		t.Fatalf("DeleteAccount: %v", err)
	}

	if conv, _ := store.Conversations().GetByID(ctx, solo.ID); conv != nil {
		t.Error("conversation with no participants left must be deleted")
	}
	if got, _ := store.Messages().GetByID(ctx, msg.ID); got != nil {
		t.Error("messages of a deleted conversation must be gone")
	}
}

func TestDeleteAccountUnknownUser(t *testing.T) {
	store := newFakeStore()
	svc := NewUserService(store)
	if err := svc.DeleteAccount(context.Background(), uuid.New()); !errors.Is(err, ErrUserNotFound) {
		t.Errorf("expected ErrUserNotFound, got %v", err)
	}
}

func TestConversationCreateDedupesParticipants(t *testing.T) {
	store := newFakeStore()
	alice := addUser(store, "Alice", "Smith")
	bob := addUser(store, "Bob", "Jones")

	svc := NewConversationService(store)
	ctx := context.Background()

	conv, err := svc.Create(ctx, alice.ID, []uuid.UUID{bob.ID, bob.ID, alice.ID})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if len(conv.Participants) != 2 {
		t.Errorf("expected 2 deduped participants, got %d", len(conv.Participants))
	}
}

func TestConversationCreateRejectsUnknownParticipant(t *testing.T) {
	store := newFakeStore()
	alice := addUser(store, "Alice", "Smith")

	svc := NewConversationService(store)
	if _, err := svc.Create(context.Background(), alice.ID, []uuid.UUID{uuid.New()}); !errors.Is(err, ErrUserNotFound) {
		t.Errorf("expected ErrUserNotFound, got %v", err)
	}
}

func TestConversationGetRequiresMembership(t *testing.T) {
	store := newFakeStore()
	alice := addUser(store, "Alice", "Smith")
	bob := addUser(store, "Bob", "Jones")
	outsider := addUser(store, "Eve", "Drop")
	conv := addConversation(store, alice, bob)

	svc := NewConversationService(store)
	ctx := context.Background()

	if _, err := svc.Get(ctx, outsider.ID, conv.ID); !errors.Is(err, ErrNotParticipant) {
		t.Errorf("expected ErrNotParticipant, got %v", err)
	}
	got, err := svc.Get(ctx, alice.ID, conv.ID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.ID != conv.ID {
		t.Errorf("got conversation %s, want %s", got.ID, conv.ID)
	}
}

func TestSendBumpsConversationActivity(t *testing.T) {
	store := newFakeStore()
	alice := addUser(store, "Alice", "Smith")
	bob := addUser(store, "Bob", "Jones")
	conv := addConversation(store, alice, bob)
	before := store.conversations[conv.ID].LastActivityAt

	svc := NewMessageService(store)
	if _, err := svc.Send(context.Background(), alice.ID, conv.ID, SendMessageInput{Content: "bump"}); err != nil {
		t.Fatalf("Send: %v", err)
	}

	after := store.conversations[conv.ID].LastActivityAt
	if !after.After(before) {
		t.Errorf("sending must bump last activity: before %v, after %v", before, after)
	}
}
