// ABOUTME: SQLite connection pool and query primitives using modernc.org/sqlite
// ABOUTME: Guards an open/closed pool state and provides execute/fetch/transaction wrappers

package sqlstore

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"sync"

	_ "modernc.org/sqlite"
)

const (
	// ChatIDTrash is the reserved chat bucket for locally deleted messages.
	ChatIDTrash = 3

	// ViewtypeText marks plain text messages, which never reference blob files.
	ViewtypeText = 10
)

// openState holds everything that only exists while the database is open.
// A nil openState pointer is the closed state; no operation can reach the
// pool without going through conn().
type openState struct {
	db     *sql.DB
	dbfile string
}

// Sql wraps a pooled SQLite database that is either closed or open.
type Sql struct {
	mu     sync.RWMutex
	state  *openState
	logger *slog.Logger
}

// New returns a closed database handle.
func New() *Sql {
	return &Sql{
		logger: slog.Default().With("component", "sqlstore"),
	}
}

// MigrationResult carries the process-local flags set by migration steps.
// The caller applies the corresponding fixups after Open returns.
type MigrationResult struct {
	// RecalcFingerprints signals that key fingerprints of stored peer
	// records must be recomputed and persisted.
	RecalcFingerprints bool

	// UpdateIcons signals that the built-in synthetic avatar icons must
	// be (re)generated.
	UpdateIcons bool
}

// IsOpen reports whether the handle currently has a connection pool.
func (s *Sql) IsOpen() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state != nil
}

// conn returns the open pool, or ErrNoConnection when the handle is closed.
func (s *Sql) conn() (*sql.DB, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.state == nil {
		return nil, ErrNoConnection
	}
	return s.state.db, nil
}

// Open attaches a connection pool to dbfile and brings the schema up to the
// current version. Every new connection gets secure_delete, a bounded
// busy_timeout and in-memory temp storage. Writable handles additionally get
// WAL journaling (best-effort) and run the schema migrations; the returned
// MigrationResult tells the caller which post-migration fixups to apply.
//
// Open fails with ErrAlreadyOpen if a pool is already attached. Any other
// failure leaves the handle fully closed.
func (s *Sql) Open(ctx context.Context, dbfile string, readonly bool) (MigrationResult, error) {
	_, statErr := os.Stat(dbfile)
	existedBefore := statErr == nil

	dsn := "file:" + dbfile +
		"?_pragma=secure_delete(on)" +
		"&_pragma=busy_timeout(10000)" +
		"&_pragma=temp_store(memory)"
	if readonly {
		dsn += "&mode=ro"
	}

	s.mu.Lock()
	if s.state != nil {
		s.mu.Unlock()
		s.logger.Error("cannot open, database already opened", "dbfile", dbfile)
		return MigrationResult{}, ErrAlreadyOpen
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		s.mu.Unlock()
		return MigrationResult{}, fmt.Errorf("opening database %s: %w", dbfile, err)
	}
	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(2)

	s.state = &openState{db: db, dbfile: dbfile}
	s.mu.Unlock()

	res, err := s.setup(ctx, readonly, existedBefore)
	if err != nil {
		s.Close()
		return MigrationResult{}, fmt.Errorf("opening database %s: %w", dbfile, err)
	}

	s.logger.Info("database opened", "dbfile", dbfile, "readonly", readonly)
	return res, nil
}

// setup verifies the connection and, for writable handles, enables WAL and
// runs the schema migrations.
func (s *Sql) setup(ctx context.Context, readonly, existedBefore bool) (MigrationResult, error) {
	db, err := s.conn()
	if err != nil {
		return MigrationResult{}, err
	}
	if err := db.PingContext(ctx); err != nil {
		return MigrationResult{}, fmt.Errorf("connecting: %w", err)
	}

	if readonly {
		return MigrationResult{}, nil
	}

	// journal_mode is persisted, setting it on one connection is enough.
	// Some filesystems cannot do WAL; the standard journal still works,
	// so a failure here is logged and ignored.
	if _, err := db.ExecContext(ctx, "PRAGMA journal_mode=WAL;"); err != nil {
		s.logger.Warn("cannot enable WAL mode, using default journal", "error", err)
	}

	return s.migrate(ctx, existedBefore)
}

// Close releases the connection pool. Closing a closed handle is a no-op.
func (s *Sql) Close() {
	s.mu.Lock()
	state := s.state
	s.state = nil
	s.mu.Unlock()

	if state == nil {
		return
	}
	if err := state.db.Close(); err != nil {
		s.logger.Warn("error closing database", "dbfile", state.dbfile, "error", err)
	}
	s.logger.Info("database closed", "dbfile", state.dbfile)
}

// Execute runs a statement and returns the number of affected rows.
func (s *Sql) Execute(ctx context.Context, query string, args ...any) (int64, error) {
	db, err := s.conn()
	if err != nil {
		return 0, err
	}
	res, err := db.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, fmt.Errorf("executing %q: %w", query, err)
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("rows affected for %q: %w", query, err)
	}
	return rows, nil
}

// FetchOne runs a query that must return exactly one row and scans it into
// dest. sql.ErrNoRows is returned when no row matches.
func (s *Sql) FetchOne(ctx context.Context, dest []any, query string, args ...any) error {
	db, err := s.conn()
	if err != nil {
		return err
	}
	if err := db.QueryRowContext(ctx, query, args...).Scan(dest...); err != nil {
		if err == sql.ErrNoRows {
			return err
		}
		return fmt.Errorf("querying %q: %w", query, err)
	}
	return nil
}

// FetchOptional scans the first result row into dest. It reports false
// without error when the query matches no rows.
func (s *Sql) FetchOptional(ctx context.Context, dest []any, query string, args ...any) (bool, error) {
	err := s.FetchOne(ctx, dest, query, args...)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// Count runs a query returning a single integer scalar.
func (s *Sql) Count(ctx context.Context, query string, args ...any) (int64, error) {
	var n int64
	if err := s.FetchOne(ctx, []any{&n}, query, args...); err != nil {
		return 0, err
	}
	return n, nil
}

// Exists reports whether a counting query matched anything.
func (s *Sql) Exists(ctx context.Context, query string, args ...any) (bool, error) {
	n, err := s.Count(ctx, query, args...)
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// QueryGetValue runs a query expected to return one row with one column and
// scans that column into dest. It reports false when no row matched.
func (s *Sql) QueryGetValue(ctx context.Context, dest any, query string, args ...any) (bool, error) {
	return s.FetchOptional(ctx, []any{dest}, query, args...)
}

// Query runs a multi-row query. The caller owns the returned rows and must
// close them.
func (s *Sql) Query(ctx context.Context, query string, args ...any) (*sql.Rows, error) {
	db, err := s.conn()
	if err != nil {
		return nil, err
	}
	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying %q: %w", query, err)
	}
	return rows, nil
}

// TableExists reports whether a table of the given name exists.
func (s *Sql) TableExists(ctx context.Context, name string) (bool, error) {
	return s.Exists(ctx,
		"SELECT COUNT(*) FROM sqlite_master WHERE type='table' AND name=?", name)
}

// GetRowID resolves the most recently inserted row matching field=value.
// sqlite's last_insert_rowid is unsafe when several writers insert rows for
// the same logical message, so the maximum matching id is selected instead.
func (s *Sql) GetRowID(ctx context.Context, table, field, value string) (int64, error) {
	var id int64
	query := fmt.Sprintf("SELECT id FROM %s WHERE %s=? ORDER BY id DESC LIMIT 1", table, field)
	found, err := s.QueryGetValue(ctx, &id, query, value)
	if err != nil {
		return 0, err
	}
	if !found {
		return 0, nil
	}
	return id, nil
}

// GetRowID2 resolves the most recently inserted row matching two equality
// predicates.
func (s *Sql) GetRowID2(ctx context.Context, table, field string, value int64, field2 string, value2 int64) (int64, error) {
	var id int64
	query := fmt.Sprintf("SELECT id FROM %s WHERE %s=? AND %s=? ORDER BY id DESC LIMIT 1", table, field, field2)
	found, err := s.QueryGetValue(ctx, &id, query, value, value2)
	if err != nil {
		return 0, err
	}
	if !found {
		return 0, nil
	}
	return id, nil
}
