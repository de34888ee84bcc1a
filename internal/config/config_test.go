package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadMissingFileReturnsDefaults(t *testing.T) {
	ws := t.TempDir()

	cfg, err := Load(ws)
	require.NoError(t, err)

	assert.Equal(t, "checklistd", cfg.Name)
	assert.Equal(t, "data/checklistd.db", cfg.Store.DatabasePath)
	assert.Equal(t, 8, cfg.Sync.CascadeWorkers)
	assert.False(t, cfg.Logging.DebugMode)
}

func TestLoadReadsWorkspaceFile(t *testing.T) {
	ws := t.TempDir()
	dir := filepath.Join(ws, ".checklistd")
	require.NoError(t, os.MkdirAll(dir, 0755))

	yaml := []byte("store:\n  database_path: custom.db\nsync:\n  cascade_workers: 2\nlogging:\n  debug_mode: true\n  level: debug\n")
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), yaml, 0644))

	cfg, err := Load(ws)
	require.NoError(t, err)

	assert.Equal(t, "custom.db", cfg.Store.DatabasePath)
	assert.Equal(t, 2, cfg.Sync.CascadeWorkers)
	assert.True(t, cfg.Logging.DebugMode)
	assert.Equal(t, "debug", cfg.Logging.Level)
	// Unset fields keep defaults.
	assert.Equal(t, "checklistd", cfg.Name)
}

func TestLoadRejectsMalformedFile(t *testing.T) {
	ws := t.TempDir()
	dir := filepath.Join(ws, ".checklistd")
	require.NoError(t, os.MkdirAll(dir, 0755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte("{not yaml"), 0644))

	_, err := Load(ws)
	assert.Error(t, err)
}

func TestEnvOverrides(t *testing.T) {
	t.Run("CHECKLISTD_DB overrides path", func(t *testing.T) {
		t.Setenv("CHECKLISTD_DB", "/tmp/override.db")

		cfg := DefaultConfig()
		cfg.applyEnvOverrides()

		assert.Equal(t, "/tmp/override.db", cfg.Store.DatabasePath)
	})

	t.Run("CHECKLISTD_DEBUG parses bools", func(t *testing.T) {
		t.Setenv("CHECKLISTD_DEBUG", "true")

		cfg := DefaultConfig()
		cfg.applyEnvOverrides()

		assert.True(t, cfg.Logging.DebugMode)
	})

	t.Run("invalid CHECKLISTD_CASCADE_WORKERS ignored", func(t *testing.T) {
		t.Setenv("CHECKLISTD_CASCADE_WORKERS", "zero")

		cfg := DefaultConfig()
		cfg.applyEnvOverrides()

		assert.Equal(t, 8, cfg.Sync.CascadeWorkers)
	})

	t.Run("env wins over file", func(t *testing.T) {
		ws := t.TempDir()
		dir := filepath.Join(ws, ".checklistd")
		require.NoError(t, os.MkdirAll(dir, 0755))
		require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"),
			[]byte("logging:\n  level: warn\n"), 0644))
		t.Setenv("CHECKLISTD_LOG_LEVEL", "error")

		cfg, err := Load(ws)
		require.NoError(t, err)
		assert.Equal(t, "error", cfg.Logging.Level)
	})
}

func TestSaveRoundTrip(t *testing.T) {
	ws := t.TempDir()

	cfg := DefaultConfig()
	cfg.Store.DatabasePath = "saved.db"
	require.NoError(t, Save(ws, cfg))

	loaded, err := Load(ws)
	require.NoError(t, err)
	assert.Equal(t, "saved.db", loaded.Store.DatabasePath)
}
