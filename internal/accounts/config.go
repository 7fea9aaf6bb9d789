// ABOUTME: TOML-backed account registry state (accounts.toml) with an in-memory mirror
// ABOUTME: Every mutation rewrites the file atomically before it counts as committed

package accounts

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/BurntSushi/toml"
	"github.com/google/uuid"
)

const (
	// ConfigName is the registry file inside the accounts root directory.
	ConfigName = "accounts.toml"
	// DBName is the database file inside each account directory.
	DBName = "dc.db"
)

// AccountConfig describes one account in the registry file. Immutable once
// created except for Name.
type AccountConfig struct {
	ID   uint64    `toml:"id"`
	Name string    `toml:"name"`
	Dir  string    `toml:"dir"`
	UUID uuid.UUID `toml:"uuid"`
}

// DBFile returns the canonical database file for this account.
func (a AccountConfig) DBFile() string {
	return filepath.Join(a.Dir, DBName)
}

// innerConfig is the persisted file state. selected_account is 0 when the
// list is empty and otherwise always an existing id; next_id is strictly
// greater than every existing id and ids are never reused.
type innerConfig struct {
	OSName          string          `toml:"os_name"`
	SelectedAccount uint64          `toml:"selected_account"`
	NextID          uint64          `toml:"next_id"`
	Accounts        []AccountConfig `toml:"accounts"`
}

// Config is the disk-backed registry state. The lock is held across both
// the in-memory mutation and the file rewrite, so concurrent mutations
// cannot interleave and readers never observe a partially applied change.
type Config struct {
	file  string
	mu    sync.RWMutex
	inner innerConfig
}

// NewConfig creates an empty registry file in dir.
func NewConfig(osName, dir string) (*Config, error) {
	c := &Config{
		file: filepath.Join(dir, ConfigName),
		inner: innerConfig{
			OSName:   osName,
			Accounts: []AccountConfig{},
		},
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.sync(); err != nil {
		return nil, err
	}
	return c, nil
}

// LoadConfig reads an existing registry file into memory.
func LoadConfig(file string) (*Config, error) {
	c := &Config{file: file}
	if _, err := toml.DecodeFile(file, &c.inner); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", file, err)
	}
	return c, nil
}

// sync writes the in-memory state to disk. The caller must hold the write
// lock. The rewrite is atomic: a temp file is renamed over the old one, so
// a freshly opened registry sees either the old or the new state.
func (c *Config) sync() error {
	var buf strings.Builder
	if err := toml.NewEncoder(&buf).Encode(&c.inner); err != nil {
		return fmt.Errorf("encoding %s: %w", c.file, err)
	}

	tmp := c.file + ".tmp"
	if err := os.WriteFile(tmp, []byte(buf.String()), 0o600); err != nil {
		return fmt.Errorf("writing %s: %w", tmp, err)
	}
	if err := os.Rename(tmp, c.file); err != nil {
		return fmt.Errorf("replacing %s: %w", c.file, err)
	}
	return nil
}

// OSName returns the registry's os name.
func (c *Config) OSName() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.inner.OSName
}

// NewAccount allocates the next id, assigns a fresh random directory under
// dir, registers the account, selects it and persists the file state.
func (c *Config) NewAccount(dir string) (AccountConfig, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	id := c.inner.NextID
	u := uuid.New()
	cfg := AccountConfig{
		ID:   id,
		Name: "",
		Dir:  filepath.Join(dir, strings.ReplaceAll(u.String(), "-", "")),
		UUID: u,
	}
	c.inner.Accounts = append(c.inner.Accounts, cfg)
	c.inner.NextID++
	c.inner.SelectedAccount = id

	if err := c.sync(); err != nil {
		return AccountConfig{}, err
	}
	return cfg, nil
}

// RemoveAccount drops an account from the file state. When the removed
// account was selected, selection falls back to the first remaining account
// or to 0 when none remain. The freed id is never reused.
func (c *Config) RemoveAccount(id uint64) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	for i, a := range c.inner.Accounts {
		if a.ID == id {
			c.inner.Accounts = append(c.inner.Accounts[:i], c.inner.Accounts[i+1:]...)
			break
		}
	}
	if c.inner.SelectedAccount == id {
		if len(c.inner.Accounts) > 0 {
			c.inner.SelectedAccount = c.inner.Accounts[0].ID
		} else {
			c.inner.SelectedAccount = 0
		}
	}

	return c.sync()
}

// Account returns the descriptor for id.
func (c *Config) Account(id uint64) (AccountConfig, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	for _, a := range c.inner.Accounts {
		if a.ID == id {
			return a, true
		}
	}
	return AccountConfig{}, false
}

// Accounts returns all account descriptors in registry order.
func (c *Config) Accounts() []AccountConfig {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]AccountConfig, len(c.inner.Accounts))
	copy(out, c.inner.Accounts)
	return out
}

// SelectedAccount returns the currently selected account id.
func (c *Config) SelectedAccount() uint64 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.inner.SelectedAccount
}

// SelectAccount makes id the selected account. Unknown ids are an error.
func (c *Config) SelectAccount(id uint64) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	known := false
	for _, a := range c.inner.Accounts {
		if a.ID == id {
			known = true
			break
		}
	}
	if !known {
		return fmt.Errorf("invalid account id: %d", id)
	}

	c.inner.SelectedAccount = id
	return c.sync()
}
