package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// LoadWithViper builds a Config by layering, in increasing precedence:
// built-in defaults, an optional config file (~/.config/coffer/app.{yaml,json,toml}),
// COFFER_* environment variables (e.g. COFFER_STORAGE_DATA_DIR), and the
// CLI flags in flags, which are bound to v here (--data-dir maps to
// storage.data_dir).
// This is the only config loader the program uses.
func LoadWithViper(v *viper.Viper, flags *pflag.FlagSet) (*Config, error) {
	def := DefaultConfig()

	v.SetDefault("storage.data_dir", def.Storage.DataDir)
	v.SetDefault("vault.default_idle_minutes", def.Vault.DefaultIdleMinutes)
	v.SetDefault("vault.auto_lock_on_sleep", def.Vault.AutoLockOnSleep)
	v.SetDefault("vault.auto_lock_on_screen_lock", def.Vault.AutoLockOnScreen)
	v.SetDefault("log.level", def.Log.Level)
	v.SetDefault("log.format", def.Log.Format)
	v.SetDefault("log.file", def.Log.File)
	v.SetDefault("log.color", def.Log.Color)
	v.SetDefault("audit.enabled", def.Audit.Enabled)
	v.SetDefault("audit.db_path", def.Audit.DBPath)

	v.SetConfigName("app")
	v.SetConfigType("yaml")
	if homeDir, err := os.UserHomeDir(); err == nil {
		v.AddConfigPath(filepath.Join(homeDir, ".config", "coffer"))
	}
	v.AddConfigPath(".")

	v.SetEnvPrefix("COFFER")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if flags != nil {
		if err := v.BindPFlags(flags); err != nil {
			return nil, fmt.Errorf("bind flags: %w", err)
		}
		if f := flags.Lookup("data-dir"); f != nil {
			if err := v.BindPFlag("storage.data_dir", f); err != nil {
				return nil, fmt.Errorf("bind flags: %w", err)
			}
		}
	}

	if err := v.ReadInConfig(); err != nil {
		if _, notFound := err.(viper.ConfigFileNotFoundError); !notFound {
			return nil, fmt.Errorf("read config file: %w", err)
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if cfg.Audit.DBPath == "" {
		cfg.Audit.DBPath = filepath.Join(cfg.Storage.DataDir, "coffer-audit.db")
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}
