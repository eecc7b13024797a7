// ABOUTME: Healthsync configuration management.
// ABOUTME: Handles data paths, provider fixtures, and sync tuning knobs.

package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/harperreed/healthsync/internal/storage"
)

// Config stores healthsync tool configuration.
type Config struct {
	// DataDir is the root directory for data storage; healthsync.db lives
	// here. Supports ~ expansion. Defaults to ~/.local/share/healthsync.
	DataDir string `json:"data_dir,omitempty"`

	// UserID is the default owner for metrics recorded and synced by the CLI.
	UserID string `json:"user_id,omitempty"`

	// ProviderFixtures lists JSON provider files the sync command loads.
	ProviderFixtures []string `json:"provider_fixtures,omitempty"`

	// CloudSync enables the Charm cloud transport during sync.
	CloudSync bool `json:"cloud_sync,omitempty"`

	// FetchTimeoutSeconds bounds each provider fetch. Zero means the
	// built-in 30-second default.
	FetchTimeoutSeconds int `json:"fetch_timeout_seconds,omitempty"`

	// SyncBatchSize is the local persistence chunk size. Zero means the
	// built-in default of 100.
	SyncBatchSize int `json:"sync_batch_size,omitempty"`

	// SyncDays is how far back a sync reaches. Zero means 30 days.
	SyncDays int `json:"sync_days,omitempty"`
}

// GetDataDir returns the configured data directory with ~ expanded,
// defaulting to the standard XDG data directory.
func (c *Config) GetDataDir() string {
	if c.DataDir == "" {
		return storage.DataDir()
	}
	return ExpandPath(c.DataDir)
}

// GetUserID returns the configured user, defaulting to "default".
func (c *Config) GetUserID() string {
	if c.UserID == "" {
		return "default"
	}
	return c.UserID
}

// GetFetchTimeout returns the per-provider fetch timeout.
func (c *Config) GetFetchTimeout() time.Duration {
	if c.FetchTimeoutSeconds <= 0 {
		return 0
	}
	return time.Duration(c.FetchTimeoutSeconds) * time.Second
}

// GetSyncRange returns the time range a sync covers, ending now.
func (c *Config) GetSyncRange() (time.Time, time.Time) {
	days := c.SyncDays
	if days <= 0 {
		days = 30
	}
	end := time.Now()
	return end.AddDate(0, 0, -days), end
}

// ExpandPath expands a leading ~ to the user's home directory.
func ExpandPath(path string) string {
	if path == "" {
		return ""
	}
	if path == "~" {
		home, _ := os.UserHomeDir()
		return home
	}
	if strings.HasPrefix(path, "~/") {
		home, _ := os.UserHomeDir()
		return filepath.Join(home, path[2:])
	}
	return path
}

// OpenStorage opens the SQLite repository under the configured data dir.
func (c *Config) OpenStorage() (storage.Repository, error) {
	dbPath := filepath.Join(c.GetDataDir(), "healthsync.db")
	return storage.Open(dbPath)
}

// GetConfigPath returns the config file path.
func GetConfigPath() string {
	configDir := os.Getenv("XDG_CONFIG_HOME")
	if configDir == "" {
		homeDir, _ := os.UserHomeDir()
		configDir = filepath.Join(homeDir, ".config")
	}
	return filepath.Join(configDir, "healthsync", "config.json")
}

// Load reads config from disk.
func Load() (*Config, error) {
	path := GetConfigPath()
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return &Config{}, nil
		}
		return nil, err
	}

	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Save writes config to disk.
func (c *Config) Save() error {
	path := GetConfigPath()
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0750); err != nil {
		return err
	}

	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0600)
}
