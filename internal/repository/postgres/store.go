package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/loomchat/loom/internal/repository"
)

// DBTX is satisfied by both *pgxpool.Pool and pgx.Tx, so the same repository
// code runs standalone or inside a transaction.
type DBTX interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

type Store struct {
	pool *pgxpool.Pool
	db   DBTX
}

func NewStore(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool, db: pool}
}

func (s *Store) Users() repository.UserRepository { return &UserRepo{db: s.db} }

func (s *Store) Conversations() repository.ConversationRepository {
	return &ConversationRepo{db: s.db}
}

func (s *Store) Messages() repository.MessageRepository { return &MessageRepo{db: s.db} }

func (s *Store) History() repository.MessageHistoryRepository { return &HistoryRepo{db: s.db} }

func (s *Store) Notifications() repository.NotificationRepository {
	return &NotificationRepo{db: s.db}
}

// WithinTx runs fn against a transaction-bound Store. Calling WithinTx on a
// Store that is already transaction-bound reuses the open transaction.
func (s *Store) WithinTx(ctx context.Context, fn func(repository.Store) error) error {
	if s.pool == nil {
		return fn(s)
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("beginning tx: %w", err)
	}
	defer tx.Rollback(ctx)

	if err := fn(&Store{db: tx}); err != nil {
		return err
	}
	return tx.Commit(ctx)
}
