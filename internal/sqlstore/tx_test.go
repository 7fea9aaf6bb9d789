// ABOUTME: Tests for scoped transactions
// ABOUTME: Covers commit visibility, rollback discarding and defer-safe rollback

package sqlstore

import (
	"context"
	"errors"
	"testing"
)

func TestTransaction_Commit(t *testing.T) {
	s := newTestSql(t)
	ctx := context.Background()

	err := s.Transaction(ctx, func(tx *Tx) error {
		_, err := tx.Execute(ctx, "INSERT INTO contacts (name, addr) VALUES ('carol', 'carol@example.org')")
		return err
	})
	if err != nil {
		t.Fatalf("Transaction failed: %v", err)
	}

	exists, err := s.Exists(ctx, "SELECT COUNT(*) FROM contacts WHERE addr=?", "carol@example.org")
	if err != nil {
		t.Fatalf("Exists failed: %v", err)
	}
	if !exists {
		t.Error("committed row is not visible")
	}
}

func TestTransaction_RollbackOnError(t *testing.T) {
	s := newTestSql(t)
	ctx := context.Background()

	wantErr := errors.New("boom")
	err := s.Transaction(ctx, func(tx *Tx) error {
		if _, err := tx.Execute(ctx, "INSERT INTO contacts (name, addr) VALUES ('dave', 'dave@example.org')"); err != nil {
			return err
		}
		return wantErr
	})
	if !errors.Is(err, wantErr) {
		t.Errorf("Transaction error = %v, want the callback error unchanged", err)
	}

	exists, err := s.Exists(ctx, "SELECT COUNT(*) FROM contacts WHERE addr=?", "dave@example.org")
	if err != nil {
		t.Fatalf("Exists failed: %v", err)
	}
	if exists {
		t.Error("rolled back row is visible")
	}
}

func TestTx_RollbackAfterCommitIsNoop(t *testing.T) {
	s := newTestSql(t)
	ctx := context.Background()

	tx, err := s.Begin(ctx)
	if err != nil {
		t.Fatalf("Begin failed: %v", err)
	}
	if _, err := tx.Execute(ctx, "INSERT INTO contacts (name, addr) VALUES ('erin', 'erin@example.org')"); err != nil {
		t.Fatalf("Execute failed: %v", err)
	}
	if err := tx.Commit(); err != nil {
		t.Fatalf("Commit failed: %v", err)
	}
	if err := tx.Rollback(); err != nil {
		t.Errorf("Rollback after Commit = %v, want nil", err)
	}

	exists, err := s.Exists(ctx, "SELECT COUNT(*) FROM contacts WHERE addr=?", "erin@example.org")
	if err != nil {
		t.Fatalf("Exists failed: %v", err)
	}
	if !exists {
		t.Error("committed row undone by the late Rollback")
	}
}

func TestTx_ExplicitRollback(t *testing.T) {
	s := newTestSql(t)
	ctx := context.Background()

	tx, err := s.Begin(ctx)
	if err != nil {
		t.Fatalf("Begin failed: %v", err)
	}
	if _, err := tx.Execute(ctx, "INSERT INTO contacts (name, addr) VALUES ('frank', 'frank@example.org')"); err != nil {
		t.Fatalf("Execute failed: %v", err)
	}
	if err := tx.Rollback(); err != nil {
		t.Fatalf("Rollback failed: %v", err)
	}

	exists, err := s.Exists(ctx, "SELECT COUNT(*) FROM contacts WHERE addr=?", "frank@example.org")
	if err != nil {
		t.Fatalf("Exists failed: %v", err)
	}
	if exists {
		t.Error("rolled back row is visible")
	}
}
