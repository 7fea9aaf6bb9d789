// ABOUTME: Live account handle owning one sqlstore database and its blob directory
// ABOUTME: Runs the post-migration fixups and fans lifecycle signals into the storage layer

package account

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/2389/driftmail/internal/sqlstore"
)

// eventBuffer is the capacity of the per-account event channel. Events are
// dropped (with a log warning) when no consumer keeps up.
const eventBuffer = 1000

// Context is one fully opened account: its database, its blob directory and
// its event stream.
type Context struct {
	osName  string
	dbfile  string
	blobdir string
	sql     *sqlstore.Sql
	logger  *slog.Logger

	events       chan Event
	eventsMu     sync.Mutex
	eventsClosed bool
	closeOnce    sync.Once

	ioMu      sync.Mutex
	ioRunning bool

	ephemeralMu    sync.Mutex
	ephemeralTimer *time.Timer
}

// New opens the account database at dbfile, creating it (and the blob
// directory next to it) when missing, and applies the post-migration
// fixups. On any failure the database is left closed.
func New(ctx context.Context, osName, dbfile string) (*Context, error) {
	if err := os.MkdirAll(filepath.Dir(dbfile), 0o700); err != nil {
		return nil, fmt.Errorf("creating account directory: %w", err)
	}
	blobdir := dbfile + "-blobs"
	if err := os.MkdirAll(blobdir, 0o700); err != nil {
		return nil, fmt.Errorf("creating blob directory: %w", err)
	}

	c := &Context{
		osName:  osName,
		dbfile:  dbfile,
		blobdir: blobdir,
		sql:     sqlstore.New(),
		logger:  slog.Default().With("component", "account", "dbfile", dbfile),
		events:  make(chan Event, eventBuffer),
	}

	res, err := c.sql.Open(ctx, dbfile, false)
	if err != nil {
		return nil, err
	}

	if res.RecalcFingerprints {
		if err := c.recalcFingerprints(ctx); err != nil {
			c.sql.Close()
			return nil, fmt.Errorf("recalculating fingerprints: %w", err)
		}
	}
	if res.UpdateIcons {
		if err := c.updateBuiltinIcons(ctx); err != nil {
			c.sql.Close()
			return nil, fmt.Errorf("updating builtin icons: %w", err)
		}
	}

	return c, nil
}

// DB exposes the account's database handle.
func (c *Context) DB() *sqlstore.Sql {
	return c.sql
}

// DBFile returns the path of the account's database file.
func (c *Context) DBFile() string {
	return c.dbfile
}

// BlobDir returns the account's blob directory.
func (c *Context) BlobDir() string {
	return c.blobdir
}

// OSName returns the os name the account was created with.
func (c *Context) OSName() string {
	return c.osName
}

// StartIO starts the account's background transports. Calling it on a
// running account is a no-op.
func (c *Context) StartIO() {
	c.ioMu.Lock()
	defer c.ioMu.Unlock()
	if c.ioRunning {
		return
	}
	c.ioRunning = true
	c.logger.Info("starting io")
	c.emit(Event{Kind: KindConnectivityChanged, Msg: "io started"})
}

// StopIO stops the account's background transports. It is safe to call at
// any time, including on an account that never started.
func (c *Context) StopIO() {
	c.ioMu.Lock()
	defer c.ioMu.Unlock()
	if !c.ioRunning {
		return
	}
	c.ioRunning = false
	c.logger.Info("stopping io")
	c.emit(Event{Kind: KindConnectivityChanged, Msg: "io stopped"})
}

// MaybeNetwork hints that the network may have become available again.
func (c *Context) MaybeNetwork() {
	c.emit(Event{Kind: KindInfo, Msg: "network might be available"})
}

// EventEmitter returns a consumer for this account's event stream.
func (c *Context) EventEmitter() *EventEmitter {
	return &EventEmitter{ch: c.events}
}

// emit delivers an event to the stream without blocking. Events are dropped
// when the buffer is full or the stream has already ended.
func (c *Context) emit(ev Event) {
	c.eventsMu.Lock()
	defer c.eventsMu.Unlock()
	if c.eventsClosed {
		return
	}
	select {
	case c.events <- ev:
	default:
		c.logger.Warn("event buffer full, dropping event", "kind", ev.Kind)
	}
}

// Shutdown stops io, cancels pending timers, closes the database and ends
// the event stream. It is idempotent and safe to call while other
// goroutines still emit events.
func (c *Context) Shutdown() {
	c.closeOnce.Do(func() {
		c.StopIO()
		c.stopEphemeralTimer()
		c.sql.Close()
		c.eventsMu.Lock()
		c.eventsClosed = true
		close(c.events)
		c.eventsMu.Unlock()
	})
}
