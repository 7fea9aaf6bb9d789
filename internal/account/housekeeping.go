// ABOUTME: On-demand garbage collection for the blob directory plus storage maintenance
// ABOUTME: Deletes unreferenced blob files outside the grace window, restarts expiry timers, prunes tombstones

package account

import (
	"context"
	"os"
	"path/filepath"
	"time"

	"github.com/2389/driftmail/internal/param"
	"github.com/2389/driftmail/internal/sqlstore"
)

// keepFilesDuration is the grace window: an unreferenced blob file whose
// timestamps are this recent is preserved, because it may belong to a
// message object still being built by a concurrent operation.
const keepFilesDuration = time.Hour

// blobSuffixes are the naming variants under which a referenced base file
// may appear on disk.
var blobSuffixes = []string{"", ".increation", ".waveform", "-preview.jpg"}

// Housekeeping computes the set of blob files still referenced from the
// database and deletes everything else from the blob directory, subject to
// the grace window. Per-file failures are logged and skipped; housekeeping
// is best-effort maintenance, not a correctness-critical path. Afterwards it
// restarts pending ephemeral-message timers and prunes message tombstones.
func (c *Context) Housekeeping(ctx context.Context) error {
	c.logger.Info("starting housekeeping")

	filesInUse := make(map[string]struct{})

	paramQueries := []struct {
		query string
		args  []any
		key   param.Key
	}{
		{"SELECT param FROM msgs WHERE chat_id!=? AND type!=?;",
			[]any{sqlstore.ChatIDTrash, sqlstore.ViewtypeText}, param.File},
		{"SELECT param FROM jobs;", nil, param.File},
		{"SELECT param FROM chats;", nil, param.ProfileImage},
		{"SELECT param FROM contacts;", nil, param.ProfileImage},
	}
	for _, q := range paramQueries {
		if err := c.addFromParams(ctx, filesInUse, q.query, q.key, q.args...); err != nil {
			return err
		}
	}

	if err := c.addFromConfig(ctx, filesInUse); err != nil {
		c.logger.Warn("housekeeping: cannot read config values", "error", err)
	}

	c.logger.Info("files in use", "count", len(filesInUse))

	c.sweepBlobdir(filesInUse)

	if err := c.StartEphemeralTimers(ctx); err != nil {
		c.logger.Warn("housekeeping: cannot start ephemeral timers", "error", err)
	}
	if err := c.pruneTombstones(ctx); err != nil {
		c.logger.Warn("housekeeping: cannot prune message tombstones", "error", err)
	}

	c.logger.Info("housekeeping done")
	return nil
}

// sweepBlobdir deletes unreferenced blob files older than the grace window.
func (c *Context) sweepBlobdir(filesInUse map[string]struct{}) {
	entries, err := os.ReadDir(c.blobdir)
	if err != nil {
		c.logger.Warn("housekeeping: cannot open blob directory", "blobdir", c.blobdir, "error", err)
		return
	}

	keepNewerThan := time.Now().Add(-keepFilesDuration)
	unreferenced := 0

	for _, entry := range entries {
		name := entry.Name()
		if blobFileInUse(filesInUse, name) {
			continue
		}
		unreferenced++

		// Creation and access times are not portably available; the
		// modification time is checked on all platforms, which degrades
		// the created-or-modified-or-accessed rule to modified-only on
		// filesystems that track nothing else.
		if info, err := entry.Info(); err == nil && info.ModTime().After(keepNewerThan) {
			c.logger.Info("housekeeping: keeping new unreferenced file",
				"n", unreferenced, "name", name)
			continue
		}

		c.logger.Info("housekeeping: deleting unreferenced file",
			"n", unreferenced, "name", name)
		if err := os.Remove(filepath.Join(c.blobdir, name)); err != nil {
			c.logger.Warn("housekeeping: cannot delete file", "name", name, "error", err)
		}
	}
}

// blobFileInUse reports whether name, optionally minus one of the
// recognized derived-file suffixes, is in the in-use set.
func blobFileInUse(filesInUse map[string]struct{}, name string) bool {
	for _, suffix := range blobSuffixes {
		base := name
		if suffix != "" {
			if len(name) <= len(suffix) || name[len(name)-len(suffix):] != suffix {
				continue
			}
			base = name[:len(name)-len(suffix)]
		}
		if _, ok := filesInUse[base]; ok {
			return true
		}
	}
	return false
}

// maybeAddBlobRef records value in the in-use set when it is a blob
// directory reference.
func maybeAddBlobRef(filesInUse map[string]struct{}, value string) {
	if len(value) > len(param.BlobDirPrefix) && value[:len(param.BlobDirPrefix)] == param.BlobDirPrefix {
		filesInUse[value[len(param.BlobDirPrefix):]] = struct{}{}
	}
}

// addFromParams collects blob references from the given parameter key of
// every row the query returns.
func (c *Context) addFromParams(ctx context.Context, filesInUse map[string]struct{}, query string, key param.Key, args ...any) error {
	rows, err := c.sql.Query(ctx, query, args...)
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var raw string
		if err := rows.Scan(&raw); err != nil {
			return err
		}
		if file, ok := param.Parse(raw).Get(key); ok {
			maybeAddBlobRef(filesInUse, file)
		}
	}
	return rows.Err()
}

// addFromConfig collects blob references from every config value.
func (c *Context) addFromConfig(ctx context.Context, filesInUse map[string]struct{}) error {
	rows, err := c.sql.Query(ctx, "SELECT value FROM config;")
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var value string
		if err := rows.Scan(&value); err != nil {
			return err
		}
		maybeAddBlobRef(filesInUse, value)
	}
	return rows.Err()
}

// pruneTombstones removes locally deleted messages that have no server-side
// identifier left; nothing references them anymore.
func (c *Context) pruneTombstones(ctx context.Context) error {
	_, err := c.sql.Execute(ctx,
		"DELETE FROM msgs WHERE (chat_id=? OR hidden) AND server_uid=0;",
		sqlstore.ChatIDTrash)
	return err
}
