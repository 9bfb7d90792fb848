package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

// Config holds process-level application settings: where the program keeps
// its own data, how it logs, and the defaults it applies when a vault is
// added without an explicit override. It is distinct from the persisted
// vault configuration (vaults.json), which the configstore package owns and
// whose schema is fixed by the on-disk contract.
type Config struct {
	// Storage paths
	Storage StorageConfig `json:"storage" mapstructure:"storage"`

	// Vault defaults. `coffer add` uses DefaultIdleMinutes when
	// --auto-lock-minutes is not given; AutoLockOnSleep and
	// AutoLockOnScreen are loaded and validated but no command reads them.
	Vault VaultDefaults `json:"vault" mapstructure:"vault"`

	// Logging
	Log LogConfig `json:"log" mapstructure:"log"`

	// Audit log
	Audit AuditConfig `json:"audit" mapstructure:"audit"`
}

// StorageConfig for local file paths.
type StorageConfig struct {
	DataDir string `json:"data_dir" mapstructure:"data_dir"` // Base directory for config, audit db
}

// VaultDefaults for vault creation.
type VaultDefaults struct {
	DefaultIdleMinutes int  `json:"default_idle_minutes" mapstructure:"default_idle_minutes"`
	AutoLockOnSleep    bool `json:"auto_lock_on_sleep" mapstructure:"auto_lock_on_sleep"`
	AutoLockOnScreen   bool `json:"auto_lock_on_screen_lock" mapstructure:"auto_lock_on_screen_lock"`
}

// LogConfig for logging behavior.
type LogConfig struct {
	Level  string `json:"level" mapstructure:"level"`   // debug, info, warn, error
	Format string `json:"format" mapstructure:"format"` // text, json
	File   string `json:"file" mapstructure:"file"`     // Log file path (empty = stdout)
	Color  bool   `json:"color" mapstructure:"color"`   // Enable colored output
}

// AuditConfig controls the local operational audit trail.
type AuditConfig struct {
	Enabled bool   `json:"enabled" mapstructure:"enabled"`
	DBPath  string `json:"db_path" mapstructure:"db_path"`
}

// DefaultConfig returns config with sensible defaults.
func DefaultConfig() *Config {
	dataDir := defaultDataDir()

	return &Config{
		Storage: StorageConfig{
			DataDir: dataDir,
		},
		Vault: VaultDefaults{
			DefaultIdleMinutes: 5,
			AutoLockOnSleep:    true,
			AutoLockOnScreen:   true,
		},
		Log: LogConfig{
			Level:  "info",
			Format: "text",
			File:   "",
			Color:  true,
		},
		Audit: AuditConfig{
			Enabled: true,
			DBPath:  filepath.Join(dataDir, "coffer-audit.db"),
		},
	}
}

func defaultDataDir() string {
	if dir, err := os.UserConfigDir(); err == nil {
		return filepath.Join(dir, "coffer")
	}
	return ".coffer"
}

// ConfigFilePath returns the path to the persisted vault list (component F).
func (c *Config) ConfigFilePath() string {
	return filepath.Join(c.Storage.DataDir, "vaults.json")
}

// Validate checks configuration validity.
func (c *Config) Validate() error {
	if c.Storage.DataDir == "" {
		return errors.New("storage.data_dir is required")
	}

	if c.Vault.DefaultIdleMinutes < 0 {
		return errors.New("vault.default_idle_minutes cannot be negative")
	}

	validLevels := map[string]bool{
		"debug": true, "info": true, "warn": true, "error": true,
	}
	if !validLevels[c.Log.Level] {
		return fmt.Errorf("invalid log level: %s", c.Log.Level)
	}

	validFormats := map[string]bool{"text": true, "json": true}
	if !validFormats[c.Log.Format] {
		return fmt.Errorf("invalid log format: %s", c.Log.Format)
	}

	return nil
}

// EnsureDirectories creates required directories.
func (c *Config) EnsureDirectories() error {
	dirs := []string{c.Storage.DataDir}

	if c.Log.File != "" {
		dirs = append(dirs, filepath.Dir(c.Log.File))
	}
	if c.Audit.DBPath != "" {
		dirs = append(dirs, filepath.Dir(c.Audit.DBPath))
	}

	for _, dir := range dirs {
		if err := os.MkdirAll(dir, 0700); err != nil {
			return fmt.Errorf("create directory %s: %w", dir, err)
		}
	}

	return nil
}
