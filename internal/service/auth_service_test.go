package service

import (
	"context"
	"errors"
	"testing"

	"github.com/golang-jwt/jwt/v5"
	"github.com/loomchat/loom/internal/domain"
)

func TestRegisterAndLogin(t *testing.T) {
	store := newFakeStore()
	svc := NewAuthService(store, "test-secret")
	ctx := context.Background()

	resp, err := svc.Register(ctx, RegisterInput{
		Email:     "alice@example.com",
		FirstName: "Alice",
		LastName:  "Smith",
		Password:  "str0ngpass",
	})
	if err != nil {
		t.Fatalf("Register: %v", err)
	}
	if resp.User.Role != domain.RoleMember {
		t.Errorf("new users default to member role, got %q", resp.User.Role)
	}
	if resp.User.PasswordHash == "str0ngpass" {
		t.Error("password stored in plain text")
	}
	if resp.AccessToken == "" {
		t.Fatal("expected an access token")
	}

	token, err := jwt.Parse(resp.AccessToken, func(tok *jwt.Token) (interface{}, error) {
		return []byte("test-secret"), nil
	})
	if err != nil || !token.Valid {
		t.Fatalf("token does not verify: %v", err)
	}
	sub, err := token.Claims.GetSubject()
	if err != nil || sub != resp.User.ID.String() {
		t.Errorf("expected sub %s, got %q (%v)", resp.User.ID, sub, err)
	}

	login, err := svc.Login(ctx, LoginInput{Email: "alice@example.com", Password: "str0ngpass"})
	if err != nil {
		t.Fatalf("Login: %v", err)
	}
	if login.User.ID != resp.User.ID {
		t.Errorf("login returned a different user: %s vs %s", login.User.ID, resp.User.ID)
	}
}

func TestRegisterDuplicateEmail(t *testing.T) {
	store := newFakeStore()
	svc := NewAuthService(store, "test-secret")
	ctx := context.Background()

	input := RegisterInput{Email: "alice@example.com", FirstName: "Alice", LastName: "Smith", Password: "str0ngpass"}
	if _, err := svc.Register(ctx, input); err != nil {
		t.Fatalf("Register: %v", err)
	}
	if _, err := svc.Register(ctx, input); !errors.Is(err, ErrEmailTaken) {
		t.Errorf("expected ErrEmailTaken, got %v", err)
	}
}

func TestLoginRejectsBadCredentials(t *testing.T) {
	store := newFakeStore()
	svc := NewAuthService(store, "test-secret")
	ctx := context.Background()

	if _, err := svc.Register(ctx, RegisterInput{
		Email: "alice@example.com", FirstName: "Alice", LastName: "Smith", Password: "str0ngpass",
	}); err != nil {
		t.Fatalf("Register: %v", err)
	}

	if _, err := svc.Login(ctx, LoginInput{Email: "alice@example.com", Password: "wrong"}); !errors.Is(err, ErrInvalidCreds) {
		t.Errorf("wrong password: expected ErrInvalidCreds, got %v", err)
	}
	if _, err := svc.Login(ctx, LoginInput{Email: "nobody@example.com", Password: "str0ngpass"}); !errors.Is(err, ErrInvalidCreds) {
		t.Errorf("unknown email: expected ErrInvalidCreds, got %v", err)
	}
}

func TestPasswordHashRoundTrip(t *testing.T) {
	hash, err := hashPassword("s3cret-value")
	if err != nil {
		t.Fatalf("hashPassword: %v", err)
	}
	if !verifyPassword("s3cret-value", hash) {
		t.Error("correct password must verify")
	}
	if verifyPassword("other-value", hash) {
		t.Error("wrong password must not verify")
	}
	if verifyPassword("s3cret-value", "not-a-valid-encoding") {
		t.Error("malformed hash must not verify")
	}

	again, err := hashPassword("s3cret-value")
	if err != nil {
		t.Fatalf("hashPassword: %v", err)
	}
	if hash == again {
		t.Error("salted hashes of the same password must differ")
	}
}
