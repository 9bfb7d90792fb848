// Package configstore implements component F: atomic, single-writer
// persistence of the vault list and global settings to a stable
// user-scoped location (vaults.json).
package configstore

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/loganross/coffer/internal/events"
	"github.com/loganross/coffer/internal/models"
)

// Store persists a models.VaultConfig atomically to a single JSON file.
type Store struct {
	path   string
	logger *events.Logger

	mu sync.Mutex
}

// New creates a Store rooted at path, creating parent directories as
// needed.
func New(path string, logger *events.Logger) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return nil, fmt.Errorf("create config directory: %w", err)
	}
	return &Store{
		path:   path,
		logger: logger.WithField("component", "configstore"),
	}, nil
}

// Load reads the persisted vault config. A missing file returns an
// empty default config, not an error.
func (s *Store) Load() (*models.VaultConfig, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return models.NewVaultConfig(), nil
		}
		return nil, fmt.Errorf("read config: %w", err)
	}

	var cfg models.VaultConfig
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	if cfg.Vaults == nil {
		cfg.Vaults = []*models.Vault{}
	}
	return &cfg, nil
}

// Save writes the vault config atomically (temp file + rename),
// pretty-printed with sorted keys.
func (s *Store) Save(cfg *models.VaultConfig) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}

	dir := filepath.Dir(s.path)
	tmp, err := os.CreateTemp(dir, ".coffer-config-tmp-*")
	if err != nil {
		return fmt.Errorf("create temp config file: %w", err)
	}
	tmpPath := tmp.Name()

	success := false
	defer func() {
		if !success {
			tmp.Close()
			os.Remove(tmpPath)
		}
	}()

	if _, err := tmp.Write(data); err != nil {
		return fmt.Errorf("write temp config file: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		return fmt.Errorf("sync temp config file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temp config file: %w", err)
	}
	if err := os.Chmod(tmpPath, 0o600); err != nil {
		return fmt.Errorf("chmod temp config file: %w", err)
	}
	if err := os.Rename(tmpPath, s.path); err != nil {
		return fmt.Errorf("rename temp config file: %w", err)
	}

	success = true
	s.logger.WithField("path", s.path).Debug("saved vault config")
	return nil
}
