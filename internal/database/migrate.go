package database

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

// schema is applied at startup. Statements are idempotent so a restart
// against an existing database is a no-op.
var schema = []string{
	`CREATE TABLE IF NOT EXISTS users (
		id UUID PRIMARY KEY,
		email TEXT NOT NULL UNIQUE,
		first_name TEXT NOT NULL,
		last_name TEXT NOT NULL,
		role TEXT NOT NULL DEFAULT 'member',
		password_hash TEXT NOT NULL,
		created_at TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
	`CREATE TABLE IF NOT EXISTS conversations (
		id UUID PRIMARY KEY,
		created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
		last_activity_at TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
	`CREATE TABLE IF NOT EXISTS conversation_participants (
		conversation_id UUID NOT NULL REFERENCES conversations(id) ON DELETE CASCADE,
		user_id UUID NOT NULL REFERENCES users(id) ON DELETE CASCADE,
		joined_at TIMESTAMPTZ NOT NULL DEFAULT now(),
		PRIMARY KEY (conversation_id, user_id)
	)`,
	`CREATE TABLE IF NOT EXISTS messages (
		id UUID PRIMARY KEY,
		conversation_id UUID NOT NULL REFERENCES conversations(id) ON DELETE CASCADE,
		sender_id UUID REFERENCES users(id) ON DELETE SET NULL,
		receiver_id UUID REFERENCES users(id) ON DELETE SET NULL,
		parent_id UUID REFERENCES messages(id) ON DELETE CASCADE,
		content TEXT NOT NULL,
		created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
		read BOOLEAN NOT NULL DEFAULT false,
		edited BOOLEAN NOT NULL DEFAULT false,
		edited_at TIMESTAMPTZ
	)`,
	`CREATE INDEX IF NOT EXISTS idx_messages_conversation ON messages(conversation_id, created_at)`,
	`CREATE INDEX IF NOT EXISTS idx_messages_parent ON messages(parent_id)`,
	`CREATE TABLE IF NOT EXISTS message_history (
		id UUID PRIMARY KEY,
		message_id UUID NOT NULL REFERENCES messages(id) ON DELETE CASCADE,
		old_content TEXT NOT NULL,
		new_content TEXT NOT NULL,
		editor_id UUID REFERENCES users(id) ON DELETE SET NULL,
		version INT NOT NULL,
		edited_at TIMESTAMPTZ NOT NULL DEFAULT now(),
		UNIQUE (message_id, version)
	)`,
	`CREATE TABLE IF NOT EXISTS notifications (
		id UUID PRIMARY KEY,
		user_id UUID NOT NULL REFERENCES users(id) ON DELETE CASCADE,
		message_id UUID REFERENCES messages(id) ON DELETE CASCADE,
		type TEXT NOT NULL DEFAULT 'message',
		title TEXT NOT NULL,
		content TEXT NOT NULL,
		read BOOLEAN NOT NULL DEFAULT false,
		created_at TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
	`CREATE INDEX IF NOT EXISTS idx_notifications_user ON notifications(user_id, read)`,
}

func Migrate(ctx context.Context, pool *pgxpool.Pool) error {
	for _, stmt := range schema {
		if _, err := pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("applying schema: %w", err)
		}
	}
	return nil
}
