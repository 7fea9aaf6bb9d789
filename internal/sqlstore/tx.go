// ABOUTME: Scoped transaction handle with guaranteed rollback semantics
// ABOUTME: Begin returns a Tx; Rollback after Commit is a no-op so defer is always safe

package sqlstore

import (
	"context"
	"database/sql"
	"fmt"
)

// Tx is a transaction-scoped handle. Callers should defer Rollback
// immediately after Begin; once Commit has run, Rollback does nothing.
type Tx struct {
	tx   *sql.Tx
	done bool
}

// Begin starts a transaction.
func (s *Sql) Begin(ctx context.Context) (*Tx, error) {
	db, err := s.conn()
	if err != nil {
		return nil, err
	}
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("beginning transaction: %w", err)
	}
	return &Tx{tx: tx}, nil
}

// Execute runs a statement inside the transaction and returns the number of
// affected rows.
func (t *Tx) Execute(ctx context.Context, query string, args ...any) (int64, error) {
	res, err := t.tx.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, fmt.Errorf("executing %q: %w", query, err)
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("rows affected for %q: %w", query, err)
	}
	return rows, nil
}

// QueryRow runs a single-row query inside the transaction.
func (t *Tx) QueryRow(ctx context.Context, query string, args ...any) *sql.Row {
	return t.tx.QueryRowContext(ctx, query, args...)
}

// Commit commits the transaction.
func (t *Tx) Commit() error {
	if t.done {
		return nil
	}
	t.done = true
	if err := t.tx.Commit(); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}
	return nil
}

// Rollback aborts the transaction unless Commit already ran.
func (t *Tx) Rollback() error {
	if t.done {
		return nil
	}
	t.done = true
	if err := t.tx.Rollback(); err != nil {
		return fmt.Errorf("rolling back transaction: %w", err)
	}
	return nil
}

// Transaction runs fn inside a transaction. The transaction commits when fn
// returns nil and rolls back otherwise; fn's error is propagated unchanged.
func (s *Sql) Transaction(ctx context.Context, fn func(tx *Tx) error) error {
	tx, err := s.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if err := fn(tx); err != nil {
		return err
	}
	return tx.Commit()
}
