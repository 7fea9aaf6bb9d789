// ABOUTME: Tests for backup import
// ABOUTME: Covers successful swap-in and rejection of non-database files before the swap

package account

import (
	"context"
	"os"
	"path/filepath"
	"testing"
)

// makeBackup creates a standalone database file with a marker config value.
func makeBackup(t *testing.T, marker string) string {
	t.Helper()
	dir := t.TempDir()
	dbfile := filepath.Join(dir, "backup.db")

	src, err := New(context.Background(), "backup-os", dbfile)
	if err != nil {
		t.Fatalf("creating backup source account: %v", err)
	}
	if err := src.DB().SetRawConfig(context.Background(), "displayname", &marker); err != nil {
		t.Fatalf("writing marker: %v", err)
	}
	src.Shutdown()
	return dbfile
}

func TestImportBackup(t *testing.T) {
	backup := makeBackup(t, "imported-identity")

	c := newTestAccount(t)
	ctx := context.Background()

	if err := c.ImportBackup(ctx, backup); err != nil {
		t.Fatalf("ImportBackup failed: %v", err)
	}

	if !c.DB().IsOpen() {
		t.Fatal("database not reopened after import")
	}

	v, found, err := c.DB().GetRawConfig(ctx, "displayname")
	if err != nil {
		t.Fatalf("GetRawConfig failed: %v", err)
	}
	if !found || v != "imported-identity" {
		t.Errorf("displayname = (%q, %v), want the backup's marker", v, found)
	}
}

func TestImportBackup_EmitsProgress(t *testing.T) {
	backup := makeBackup(t, "x")

	c := newTestAccount(t)
	emitter := c.EventEmitter()

	if err := c.ImportBackup(context.Background(), backup); err != nil {
		t.Fatalf("ImportBackup failed: %v", err)
	}

	var sawDone bool
	for {
		ev, ok := emitter.TryRecv()
		if !ok {
			break
		}
		if ev.Kind == KindImexProgress && ev.Progress == 1000 {
			sawDone = true
		}
	}
	if !sawDone {
		t.Error("no final imex-progress event after a successful import")
	}
}

func TestImportBackup_RejectsGarbageBeforeSwap(t *testing.T) {
	garbage := filepath.Join(t.TempDir(), "not-a-db.bin")
	if err := os.WriteFile(garbage, []byte("this is not sqlite"), 0o600); err != nil {
		t.Fatalf("writing garbage file: %v", err)
	}

	c := newTestAccount(t)
	ctx := context.Background()

	marker := "still-here"
	if err := c.DB().SetRawConfig(ctx, "displayname", &marker); err != nil {
		t.Fatalf("SetRawConfig failed: %v", err)
	}

	if err := c.ImportBackup(ctx, garbage); err == nil {
		t.Fatal("ImportBackup accepted a non-database file")
	}

	// Validation failed before the swap, the live database is untouched
	if !c.DB().IsOpen() {
		t.Fatal("live database closed by a rejected import")
	}
	v, found, err := c.DB().GetRawConfig(ctx, "displayname")
	if err != nil {
		t.Fatalf("GetRawConfig failed: %v", err)
	}
	if !found || v != "still-here" {
		t.Errorf("displayname = (%q, %v) after rejected import, want the original value", v, found)
	}
}

func TestImportBackup_RejectsMissingFile(t *testing.T) {
	c := newTestAccount(t)

	if err := c.ImportBackup(context.Background(), filepath.Join(t.TempDir(), "missing.db")); err == nil {
		t.Fatal("ImportBackup accepted a missing file")
	}
	if !c.DB().IsOpen() {
		t.Fatal("live database closed by a rejected import")
	}
}
