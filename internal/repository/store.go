// Package repository implements the database side of the reservation
// engine over plain database/sql.  The Store exposes read operations
// and status-conditioned updates directly; every multi-step write runs
// through InTx so the transaction is the single linearization point.
package repository

import (
	"context"
	"database/sql"

	"github.com/iliyamo/cinema-ticketing/internal/service"
)

// Store provides data access over a shared connection pool.
type Store struct {
	db *sql.DB
}

// NewStore returns a Store bound to the given database.
func NewStore(db *sql.DB) *Store { return &Store{db: db} }

// DB exposes the underlying handle for startup checks.
func (s *Store) DB() *sql.DB { return s.db }

// Tx groups the write operations that must share one transaction.
type Tx struct {
	tx *sql.Tx
}

// InTx runs fn inside a single database transaction, committing when fn
// returns nil and rolling back otherwise.  The rollback also fires on
// panic via the deferred cleanup.  The callback receives the
// service-facing transaction interface so actions never touch *sql.Tx.
func (s *Store) InTx(ctx context.Context, fn func(tx service.Tx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()
	if err := fn(&Tx{tx: tx}); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return err
	}
	committed = true
	return nil
}
