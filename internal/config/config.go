// Package config loads checklistd configuration from .checklistd/config.yaml
// in the workspace, with environment variable overrides on top.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"gopkg.in/yaml.v3"
)

// Config holds all checklistd configuration.
type Config struct {
	// Core settings
	Name    string `yaml:"name"`
	Version string `yaml:"version"`

	// Document store
	Store StoreConfig `yaml:"store"`

	// Synchronization service
	Sync SyncConfig `yaml:"sync"`

	// Logging
	Logging LoggingConfig `yaml:"logging"`
}

// StoreConfig configures the SQLite document store.
type StoreConfig struct {
	DatabasePath string `yaml:"database_path"`
}

// SyncConfig configures the synchronization service.
type SyncConfig struct {
	// Number of user records updated concurrently during a cascade-delete.
	CascadeWorkers int `yaml:"cascade_workers"`
}

// LoggingConfig configures the category debug logger.
type LoggingConfig struct {
	DebugMode bool   `yaml:"debug_mode"`
	Level     string `yaml:"level"` // debug, info, warn, error
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		Name:    "checklistd",
		Version: "1.0.0",

		Store: StoreConfig{
			DatabasePath: "data/checklistd.db",
		},

		Sync: SyncConfig{
			CascadeWorkers: 8,
		},

		Logging: LoggingConfig{
			DebugMode: false,
			Level:     "info",
		},
	}
}

// ConfigPath returns the config file location for a workspace.
func ConfigPath(workspace string) string {
	return filepath.Join(workspace, ".checklistd", "config.yaml")
}

// Load reads the workspace config, falling back to defaults when the file
// does not exist. Environment overrides are applied last either way.
func Load(workspace string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(ConfigPath(workspace))
	if err != nil {
		if os.IsNotExist(err) {
			cfg.applyEnvOverrides()
			return cfg, nil
		}
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	cfg.applyEnvOverrides()
	return cfg, nil
}

// Save writes the config back to the workspace.
func Save(workspace string, cfg *Config) error {
	path := ConfigPath(workspace)
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}
	return nil
}

// applyEnvOverrides layers environment variables over the loaded values.
// CHECKLISTD_DB, CHECKLISTD_LOG_LEVEL, CHECKLISTD_DEBUG and
// CHECKLISTD_CASCADE_WORKERS are recognized.
func (c *Config) applyEnvOverrides() {
	if v := os.Getenv("CHECKLISTD_DB"); v != "" {
		c.Store.DatabasePath = v
	}
	if v := os.Getenv("CHECKLISTD_LOG_LEVEL"); v != "" {
		c.Logging.Level = v
	}
	if v := os.Getenv("CHECKLISTD_DEBUG"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			c.Logging.DebugMode = b
		}
	}
	if v := os.Getenv("CHECKLISTD_CASCADE_WORKERS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			c.Sync.CascadeWorkers = n
		}
	}
}
