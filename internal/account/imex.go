// ABOUTME: Backup import: validates a backup database and swaps it in for this account
// ABOUTME: Validation happens read-only before the live database is touched

package account

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/2389/driftmail/internal/sqlstore"
)

// ImportBackup replaces this account's database with the given backup file
// and reopens it, running any pending migrations. The backup is validated
// read-only first, so an unreadable or foreign file fails before the live
// database is touched. A failure after the swap leaves the account unusable;
// the registry is responsible for tearing it down.
func (c *Context) ImportBackup(ctx context.Context, file string) error {
	if err := validateBackup(ctx, file); err != nil {
		return fmt.Errorf("importing backup %s: %w", file, err)
	}

	c.stopEphemeralTimer()
	c.sql.Close()

	if err := copyFile(file, c.dbfile); err != nil {
		return fmt.Errorf("importing backup %s: %w", file, err)
	}
	// stale journal files from the previous database must not be replayed
	// into the imported one
	os.Remove(c.dbfile + "-wal")
	os.Remove(c.dbfile + "-shm")

	res, err := c.sql.Open(ctx, c.dbfile, false)
	if err != nil {
		return fmt.Errorf("importing backup %s: %w", file, err)
	}
	if res.RecalcFingerprints {
		if err := c.recalcFingerprints(ctx); err != nil {
			return fmt.Errorf("importing backup %s: %w", file, err)
		}
	}
	if res.UpdateIcons {
		if err := c.updateBuiltinIcons(ctx); err != nil {
			return fmt.Errorf("importing backup %s: %w", file, err)
		}
	}

	c.logger.Info("backup imported", "file", file)
	c.emit(Event{Kind: KindImexProgress, Progress: 1000})
	return nil
}

// validateBackup opens the candidate file read-only and checks that it is a
// database carrying a config table with a schema version.
func validateBackup(ctx context.Context, file string) error {
	probe := sqlstore.New()
	if _, err := probe.Open(ctx, file, true); err != nil {
		return err
	}
	defer probe.Close()

	ok, err := probe.TableExists(ctx, "config")
	if err != nil {
		return fmt.Errorf("not a database file: %w", err)
	}
	if !ok {
		return fmt.Errorf("no config table, not a backup")
	}
	if _, found, err := probe.GetRawConfigInt(ctx, "dbversion"); err != nil {
		return err
	} else if !found {
		return fmt.Errorf("no schema version, not a backup")
	}
	return nil
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return err
	}
	if err := out.Sync(); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}
