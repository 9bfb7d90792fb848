// Package models holds the data types shared across the vault engine:
// vaults, global settings, the encryption manifest, and the sentinel/
// structured errors the engine raises.
package models

import (
	"fmt"
	"strings"
	"time"
)

// VaultState is the vault lifecycle state (spec §4.5).
type VaultState string

const (
	StateLocked     VaultState = "locked"
	StateUnlocked   VaultState = "unlocked"
	StateEncrypting VaultState = "encrypting"
	StateDecrypting VaultState = "decrypting"
	StateError      VaultState = "error"
)

// Vault is a user-designated folder plus the metadata required to lock
// and unlock it. Fields are declared alphabetically to match the
// documented on-disk key order.
type Vault struct {
	AutoLockMinutes int        `json:"autoLockMinutes"`
	CreatedAt       time.Time  `json:"createdAt"`
	FileCount       int        `json:"fileCount"`
	FolderPath      string     `json:"folderPath"`
	ID              string     `json:"id"`
	LastUnlockedAt  *time.Time `json:"lastUnlockedAt"`
	Name            string     `json:"name"`
	State           VaultState `json:"state"`
	TotalSize       int64      `json:"totalSize"`
	UseTouchID      bool       `json:"useTouchID"`
}

// Validate checks structural invariants of a vault record.
func (v *Vault) Validate() error {
	if strings.TrimSpace(v.ID) == "" {
		return fmt.Errorf("vault ID is required")
	}
	if strings.TrimSpace(v.Name) == "" {
		return fmt.Errorf("vault name is required")
	}
	if strings.TrimSpace(v.FolderPath) == "" {
		return fmt.Errorf("vault folder path is required")
	}
	switch v.State {
	case StateLocked, StateUnlocked, StateEncrypting, StateDecrypting, StateError:
	default:
		return fmt.Errorf("invalid vault state: %s", v.State)
	}
	if v.AutoLockMinutes < 0 {
		return fmt.Errorf("auto-lock minutes cannot be negative")
	}
	return nil
}

// GlobalSettings are process-wide toggles persisted alongside the vault
// list. Fields are declared alphabetically to match the documented
// on-disk key order.
type GlobalSettings struct {
	AutoLockOnScreenLock   bool `json:"autoLockOnScreenLock"`
	AutoLockOnSleep        bool `json:"autoLockOnSleep"`
	DefaultAutoLockMinutes int  `json:"defaultAutoLockMinutes"`
	ShowDockIcon           bool `json:"showDockIcon"`
	ShowMenubarIcon        bool `json:"showMenubarIcon"`
}

// DefaultGlobalSettings mirrors the defaults a fresh installation ships with.
func DefaultGlobalSettings() GlobalSettings {
	return GlobalSettings{
		AutoLockOnSleep:        true,
		AutoLockOnScreenLock:   true,
		DefaultAutoLockMinutes: 5,
		ShowDockIcon:           true,
		ShowMenubarIcon:        true,
	}
}

// VaultConfig is the persisted document: the vault list plus global
// settings. Fields are declared alphabetically to match the documented
// on-disk key order.
type VaultConfig struct {
	GlobalSettings GlobalSettings `json:"globalSettings"`
	Vaults         []*Vault       `json:"vaults"`
}

// NewVaultConfig returns an empty config with default global settings.
func NewVaultConfig() *VaultConfig {
	return &VaultConfig{
		Vaults:         []*Vault{},
		GlobalSettings: DefaultGlobalSettings(),
	}
}

// FindVault returns the vault with the given id, or nil.
func (c *VaultConfig) FindVault(id string) *Vault {
	for _, v := range c.Vaults {
		if v.ID == id {
			return v
		}
	}
	return nil
}

// FindVaultByPath returns the vault whose folder path matches, or nil.
func (c *VaultConfig) FindVaultByPath(path string) *Vault {
	for _, v := range c.Vaults {
		if v.FolderPath == path {
			return v
		}
	}
	return nil
}

// RemoveVault deletes the vault with the given id, reporting whether it was present.
func (c *VaultConfig) RemoveVault(id string) bool {
	for i, v := range c.Vaults {
		if v.ID == id {
			c.Vaults = append(c.Vaults[:i], c.Vaults[i+1:]...)
			return true
		}
	}
	return false
}
