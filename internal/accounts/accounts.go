// ABOUTME: Multi-account manager: creates, opens, removes and selects accounts
// ABOUTME: Owns one Context per account and fans lifecycle calls out to all of them

package accounts

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"github.com/2389/driftmail/internal/account"
)

// Accounts manages a set of accounts rooted at a common directory. The
// registry file lists the accounts; each open account is held as a live
// Context in memory.
type Accounts struct {
	dir    string
	config *Config
	logger *slog.Logger

	mu    sync.RWMutex
	items map[uint64]*account.Context
}

// New opens the accounts directory, creating it when it does not exist yet.
func New(ctx context.Context, osName, dir string) (*Accounts, error) {
	if _, err := os.Stat(filepath.Join(dir, ConfigName)); os.IsNotExist(err) {
		return Create(ctx, osName, dir)
	}
	return Open(ctx, dir)
}

// Create initializes a fresh accounts directory. The registry starts out
// with a single default account, already opened and selected.
func Create(ctx context.Context, osName, dir string) (*Accounts, error) {
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return nil, fmt.Errorf("creating accounts directory %s: %w", dir, err)
	}
	config, err := NewConfig(osName, dir)
	if err != nil {
		return nil, fmt.Errorf("creating accounts config: %w", err)
	}
	a := &Accounts{
		dir:    dir,
		config: config,
		logger: slog.Default().With("component", "accounts"),
		items:  make(map[uint64]*account.Context),
	}
	if _, err := a.addAccountLocked(ctx); err != nil {
		return nil, fmt.Errorf("creating default account: %w", err)
	}
	return a, nil
}

// Open loads an existing accounts directory and opens every registered
// account. An account whose database cannot be opened fails the whole call.
func Open(ctx context.Context, dir string) (*Accounts, error) {
	config, err := LoadConfig(filepath.Join(dir, ConfigName))
	if err != nil {
		return nil, fmt.Errorf("loading accounts config: %w", err)
	}

	a := &Accounts{
		dir:    dir,
		config: config,
		logger: slog.Default().With("component", "accounts"),
		items:  make(map[uint64]*account.Context),
	}
	for _, cfg := range config.Accounts() {
		actx, err := account.New(ctx, config.OSName(), cfg.DBFile())
		if err != nil {
			a.Shutdown()
			return nil, fmt.Errorf("opening account %d: %w", cfg.ID, err)
		}
		a.items[cfg.ID] = actx
	}
	return a, nil
}

// Dir returns the accounts root directory.
func (a *Accounts) Dir() string {
	return a.dir
}

// Account returns the context for id.
func (a *Accounts) Account(id uint64) (*account.Context, error) {
	a.mu.RLock()
	defer a.mu.RUnlock()
	actx, ok := a.items[id]
	if !ok {
		return nil, fmt.Errorf("unknown account id: %d", id)
	}
	return actx, nil
}

// SelectedAccount returns the context of the selected account. An empty
// registry or a selected id with no live context is an error.
func (a *Accounts) SelectedAccount() (*account.Context, error) {
	a.mu.RLock()
	defer a.mu.RUnlock()
	if len(a.items) == 0 {
		return nil, fmt.Errorf("no accounts")
	}
	id := a.config.SelectedAccount()
	actx, ok := a.items[id]
	if !ok {
		return nil, fmt.Errorf("selected account %d is not open", id)
	}
	return actx, nil
}

// SelectAccount makes id the selected account.
func (a *Accounts) SelectAccount(id uint64) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.selectAccountLocked(id)
}

func (a *Accounts) selectAccountLocked(id uint64) error {
	if _, ok := a.items[id]; !ok {
		return fmt.Errorf("unknown account id: %d", id)
	}
	return a.config.SelectAccount(id)
}

// AddAccount creates a new account, opens it and selects it. On failure
// the registry entry and account directory are rolled back and the
// previous selection is restored, so a failed add leaves no trace.
func (a *Accounts) AddAccount(ctx context.Context) (uint64, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.addAccountLocked(ctx)
}

func (a *Accounts) addAccountLocked(ctx context.Context) (uint64, error) {
	prevSelected := a.config.SelectedAccount()
	hadAccounts := len(a.items) > 0

	cfg, err := a.config.NewAccount(a.dir)
	if err != nil {
		return 0, fmt.Errorf("registering account: %w", err)
	}

	actx, err := account.New(ctx, a.config.OSName(), cfg.DBFile())
	if err != nil {
		if rerr := a.config.RemoveAccount(cfg.ID); rerr != nil {
			a.logger.Warn("rolling back account registration failed", "id", cfg.ID, "error", rerr)
		}
		if rerr := os.RemoveAll(cfg.Dir); rerr != nil {
			a.logger.Warn("removing account directory failed", "dir", cfg.Dir, "error", rerr)
		}
		if hadAccounts {
			if rerr := a.config.SelectAccount(prevSelected); rerr != nil {
				a.logger.Warn("restoring account selection failed", "id", prevSelected, "error", rerr)
			}
		}
		return 0, fmt.Errorf("opening new account: %w", err)
	}

	a.items[cfg.ID] = actx
	return cfg.ID, nil
}

// RemoveAccount shuts an account down and deletes its directory and its
// registry entry. Selection falls back as documented on Config.
func (a *Accounts) RemoveAccount(id uint64) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.removeAccountLocked(id)
}

func (a *Accounts) removeAccountLocked(id uint64) error {
	actx, ok := a.items[id]
	if !ok {
		return fmt.Errorf("unknown account id: %d", id)
	}
	delete(a.items, id)
	actx.Shutdown()

	if cfg, ok := a.config.Account(id); ok {
		if err := os.RemoveAll(cfg.Dir); err != nil {
			return fmt.Errorf("removing account directory %s: %w", cfg.Dir, err)
		}
	}
	return a.config.RemoveAccount(id)
}

// ImportAccount creates a new account and imports a backup database into
// it. The whole add, import and rollback sequence runs under the registry
// lock so no other lifecycle operation can interleave. On failure the new
// account is removed, the previous selection is restored and the import
// error is returned.
func (a *Accounts) ImportAccount(ctx context.Context, file string) (uint64, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	prevSelected := a.config.SelectedAccount()
	hadAccounts := len(a.items) > 0

	id, err := a.addAccountLocked(ctx)
	if err != nil {
		return 0, err
	}

	if err := a.items[id].ImportBackup(ctx, file); err != nil {
		if rerr := a.removeAccountLocked(id); rerr != nil {
			a.logger.Warn("rolling back imported account failed", "id", id, "error", rerr)
		}
		if hadAccounts {
			if rerr := a.selectAccountLocked(prevSelected); rerr != nil {
				a.logger.Warn("restoring account selection failed", "id", prevSelected, "error", rerr)
			}
		}
		return 0, fmt.Errorf("importing backup: %w", err)
	}
	return id, nil
}

// All returns the ids of all accounts in registry order.
func (a *Accounts) All() []uint64 {
	cfgs := a.config.Accounts()
	ids := make([]uint64, 0, len(cfgs))
	for _, cfg := range cfgs {
		ids = append(ids, cfg.ID)
	}
	return ids
}

// StartIO starts I/O on every account.
func (a *Accounts) StartIO() {
	for _, actx := range a.snapshot() {
		actx.StartIO()
	}
}

// StopIO stops I/O on every account.
func (a *Accounts) StopIO() {
	for _, actx := range a.snapshot() {
		actx.StopIO()
	}
}

// MaybeNetwork notifies every account that the network may be back.
func (a *Accounts) MaybeNetwork() {
	for _, actx := range a.snapshot() {
		actx.MaybeNetwork()
	}
}

// EventEmitter returns a fan-in emitter over all current accounts. Events
// are tagged with the originating account id.
func (a *Accounts) EventEmitter() *EventEmitter {
	a.mu.RLock()
	defer a.mu.RUnlock()
	sources := make(map[uint64]*account.EventEmitter, len(a.items))
	for id, actx := range a.items {
		sources[id] = actx.EventEmitter()
	}
	return newEventEmitter(sources)
}

// Shutdown closes all accounts. The registry file is left as is.
func (a *Accounts) Shutdown() {
	a.mu.Lock()
	defer a.mu.Unlock()
	for id, actx := range a.items {
		actx.Shutdown()
		delete(a.items, id)
	}
}

func (a *Accounts) snapshot() []*account.Context {
	a.mu.RLock()
	defer a.mu.RUnlock()
	out := make([]*account.Context, 0, len(a.items))
	for _, actx := range a.items {
		out = append(out, actx)
	}
	return out
}
