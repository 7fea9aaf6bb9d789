// ABOUTME: Tests for the TOML-backed registry file state
// ABOUTME: Covers persistence round trips, id allocation and selection fallback

package accounts

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestConfig(t *testing.T) (*Config, string) {
	t.Helper()
	dir := t.TempDir()
	c, err := NewConfig("test-os", dir)
	require.NoError(t, err)
	return c, dir
}

func TestNewConfig_WritesFile(t *testing.T) {
	c, dir := newTestConfig(t)

	assert.FileExists(t, filepath.Join(dir, ConfigName))
	assert.Equal(t, "test-os", c.OSName())
	assert.Empty(t, c.Accounts())
	assert.Equal(t, uint64(0), c.SelectedAccount())
}

func TestNewAccount_AllocatesAndSelects(t *testing.T) {
	c, dir := newTestConfig(t)

	a0, err := c.NewAccount(dir)
	require.NoError(t, err)
	a1, err := c.NewAccount(dir)
	require.NoError(t, err)

	assert.Equal(t, uint64(0), a0.ID)
	assert.Equal(t, uint64(1), a1.ID)
	assert.Equal(t, a1.ID, c.SelectedAccount())

	// Directories are uuid-derived and distinct
	assert.NotEqual(t, a0.Dir, a1.Dir)
	assert.True(t, strings.HasPrefix(a0.Dir, dir))
	assert.NotEqual(t, a0.UUID, a1.UUID)

	assert.Equal(t, filepath.Join(a0.Dir, DBName), a0.DBFile())
}

func TestLoadConfig_RoundTrip(t *testing.T) {
	c, dir := newTestConfig(t)

	a0, err := c.NewAccount(dir)
	require.NoError(t, err)
	_, err = c.NewAccount(dir)
	require.NoError(t, err)
	require.NoError(t, c.SelectAccount(a0.ID))

	loaded, err := LoadConfig(filepath.Join(dir, ConfigName))
	require.NoError(t, err)

	assert.Equal(t, "test-os", loaded.OSName())
	assert.Equal(t, a0.ID, loaded.SelectedAccount())
	require.Len(t, loaded.Accounts(), 2)

	got, ok := loaded.Account(a0.ID)
	require.True(t, ok)
	assert.Equal(t, a0.Dir, got.Dir)
	assert.Equal(t, a0.UUID, got.UUID)
}

func TestLoadConfig_Missing(t *testing.T) {
	_, err := LoadConfig(filepath.Join(t.TempDir(), "nope.toml"))
	assert.Error(t, err)
}

func TestRemoveAccount_SelectionFallback(t *testing.T) {
	c, dir := newTestConfig(t)

	a0, err := c.NewAccount(dir)
	require.NoError(t, err)
	a1, err := c.NewAccount(dir)
	require.NoError(t, err)

	// a1 is selected, removing it falls back to a0
	require.NoError(t, c.RemoveAccount(a1.ID))
	assert.Equal(t, a0.ID, c.SelectedAccount())

	// Removing the last account resets selection
	require.NoError(t, c.RemoveAccount(a0.ID))
	assert.Equal(t, uint64(0), c.SelectedAccount())
	assert.Empty(t, c.Accounts())
}

func TestRemoveAccount_UnselectedKeepsSelection(t *testing.T) {
	c, dir := newTestConfig(t)

	a0, err := c.NewAccount(dir)
	require.NoError(t, err)
	a1, err := c.NewAccount(dir)
	require.NoError(t, err)

	require.NoError(t, c.RemoveAccount(a0.ID))
	assert.Equal(t, a1.ID, c.SelectedAccount())
}

func TestNewAccount_NeverReusesIDs(t *testing.T) {
	c, dir := newTestConfig(t)

	a0, err := c.NewAccount(dir)
	require.NoError(t, err)
	require.NoError(t, c.RemoveAccount(a0.ID))

	a1, err := c.NewAccount(dir)
	require.NoError(t, err)
	assert.Greater(t, a1.ID, a0.ID)

	// The counter survives a reload
	loaded, err := LoadConfig(filepath.Join(dir, ConfigName))
	require.NoError(t, err)
	require.NoError(t, loaded.RemoveAccount(a1.ID))
	a2, err := loaded.NewAccount(dir)
	require.NoError(t, err)
	assert.Greater(t, a2.ID, a1.ID)
}

func TestSelectAccount_Unknown(t *testing.T) {
	c, dir := newTestConfig(t)
	_, err := c.NewAccount(dir)
	require.NoError(t, err)

	assert.Error(t, c.SelectAccount(42))
}

func TestSync_LeavesNoTempFile(t *testing.T) {
	c, dir := newTestConfig(t)
	_, err := c.NewAccount(dir)
	require.NoError(t, err)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	for _, e := range entries {
		assert.False(t, strings.HasSuffix(e.Name(), ".tmp"),
			"temp file %s left behind", e.Name())
	}
}
