// Package vaultmanager implements component E: the public vault
// lifecycle operations, the state machine that guards them, and the
// single-writer discipline that serializes all of it.
package vaultmanager

import (
	"context"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/loganross/coffer/internal/audit"
	"github.com/loganross/coffer/internal/authenticator"
	"github.com/loganross/coffer/internal/configstore"
	"github.com/loganross/coffer/internal/events"
	"github.com/loganross/coffer/internal/models"
	"github.com/loganross/coffer/internal/pipeline"
	"github.com/loganross/coffer/internal/secretstore"
)

// Manager is component E. All public operations take the same mutex,
// so they serialize: the manager runs on a single logical worker.
type Manager struct {
	mu sync.Mutex

	store    *configstore.Store
	auth     *authenticator.Authenticator
	pipe     *pipeline.Pipeline
	secrets  secretstore.Store
	auditLog *audit.Log // may be nil: audit is best-effort and optional
	logger   *events.Logger
}

// New creates a vault Manager. auditLog may be nil to disable the
// audit trail entirely.
func New(
	store *configstore.Store,
	auth *authenticator.Authenticator,
	pipe *pipeline.Pipeline,
	secrets secretstore.Store,
	auditLog *audit.Log,
	logger *events.Logger,
) *Manager {
	return &Manager{
		store:    store,
		auth:     auth,
		pipe:     pipe,
		secrets:  secrets,
		auditLog: auditLog,
		logger:   logger.WithField("component", "vaultmanager"),
	}
}

func (m *Manager) recordAudit(vaultID string, event audit.EventType, detail string) {
	if m.auditLog == nil {
		return
	}
	if err := m.auditLog.Record(vaultID, event, detail); err != nil {
		m.logger.WithError(err).WithField("vault_id", vaultID).Debug("audit record failed")
	}
}

func dirStats(root string) (fileCount int, totalSize int64) {
	entries, err := os.ReadDir(root)
	if err != nil {
		return 0, 0
	}
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		info, err := e.Info()
		if err != nil {
			continue
		}
		fileCount++
		totalSize += info.Size()
	}
	return fileCount, totalSize
}

// AddVault validates folder, provisions the vault's key material via
// the authenticator, appends it to the config, and optionally locks it
// immediately.
func (m *Manager) AddVault(ctx context.Context, name, folder, password string, useBiometric bool, autoLockMinutes int, lockImmediately bool) (*models.Vault, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	info, err := os.Stat(folder)
	if err != nil {
		return nil, fmt.Errorf("add vault: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("add vault: %s is not a directory", folder)
	}

	cfg, err := m.store.Load()
	if err != nil {
		return nil, fmt.Errorf("add vault: %w", err)
	}
	if cfg.FindVaultByPath(folder) != nil {
		return nil, models.ErrVaultAlreadyExists
	}

	vaultID := uuid.NewString()
	_, biometricEnrolled, err := m.auth.SetupVault(ctx, vaultID, password, useBiometric)
	if err != nil {
		return nil, fmt.Errorf("add vault: %w", err)
	}

	fileCount, totalSize := dirStats(folder)
	vault := &models.Vault{
		ID:              vaultID,
		Name:            name,
		FolderPath:      folder,
		State:           models.StateUnlocked,
		CreatedAt:       time.Now().UTC(),
		AutoLockMinutes: autoLockMinutes,
		UseTouchID:      biometricEnrolled,
		FileCount:       fileCount,
		TotalSize:       totalSize,
	}
	if err := vault.Validate(); err != nil {
		return nil, fmt.Errorf("add vault: %w", err)
	}

	cfg.Vaults = append(cfg.Vaults, vault)
	if err := m.store.Save(cfg); err != nil {
		return nil, fmt.Errorf("add vault: %w", err)
	}
	m.recordAudit(vaultID, audit.EventVaultAdded, folder)

	if lockImmediately {
		return m.lockVaultLocked(ctx, vaultID, password, nil)
	}
	return vault, nil
}

// LockVault runs the encryption pass over the vault's folder.
func (m *Manager) LockVault(ctx context.Context, id, password string, progress pipeline.ProgressFunc) (*models.Vault, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.lockVaultLocked(ctx, id, password, progress)
}

func (m *Manager) lockVaultLocked(ctx context.Context, id, password string, progress pipeline.ProgressFunc) (*models.Vault, error) {
	cfg, err := m.store.Load()
	if err != nil {
		return nil, fmt.Errorf("lock vault: %w", err)
	}
	vault := cfg.FindVault(id)
	if vault == nil {
		return nil, models.ErrVaultNotFound
	}
	if vault.State != models.StateUnlocked {
		return nil, models.ErrVaultLocked
	}

	handles, err := m.pipe.OpenHandles(ctx, vault.FolderPath)
	if err != nil {
		return nil, fmt.Errorf("lock vault: %w", err)
	}
	if len(handles) > 0 {
		paths := make([]string, 0, len(handles))
		for path := range handles {
			paths = append(paths, path)
		}
		return nil, &models.FilesInUseError{Paths: paths}
	}

	masterKey, err := m.auth.UnlockPassword(id, password)
	if err != nil {
		return nil, err
	}

	vault.State = models.StateEncrypting
	if err := m.store.Save(cfg); err != nil {
		return nil, fmt.Errorf("lock vault: %w", err)
	}

	manifest, err := m.pipe.Encrypt(id, vault.FolderPath, masterKey, progress)
	if err != nil {
		vault.State = models.StateError
		_ = m.store.Save(cfg)
		m.recordAudit(id, audit.EventVaultLockFailed, err.Error())
		return nil, fmt.Errorf("lock vault: %w", err)
	}

	vault.State = models.StateLocked
	vault.FileCount = len(manifest.Files)
	var total int64
	for _, f := range manifest.Files {
		total += f.EncryptedSize
	}
	vault.TotalSize = total
	if err := m.store.Save(cfg); err != nil {
		return nil, fmt.Errorf("lock vault: %w", err)
	}
	m.recordAudit(id, audit.EventVaultLocked, fmt.Sprintf("%d files", vault.FileCount))

	return vault, nil
}

// UnlockVaultBiometric runs the decryption pass using a biometric-gated
// master key.
func (m *Manager) UnlockVaultBiometric(ctx context.Context, id string, progress pipeline.ProgressFunc) (*models.Vault, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	cfg, err := m.store.Load()
	if err != nil {
		return nil, fmt.Errorf("unlock vault: %w", err)
	}
	vault := cfg.FindVault(id)
	if vault == nil {
		return nil, models.ErrVaultNotFound
	}
	if vault.State != models.StateLocked {
		return nil, models.ErrVaultUnlocked
	}

	masterKey, err := m.auth.UnlockBiometric(ctx, id, vault.Name)
	if err != nil {
		return nil, err
	}

	return m.finishUnlock(cfg, vault, masterKey, progress)
}

// UnlockVaultPassword runs the decryption pass using a password-derived
// master key. The password is verified before the vault transitions to
// decrypting, so a wrong password never drives the state machine into
// decrypting/error.
func (m *Manager) UnlockVaultPassword(ctx context.Context, id, password string, progress pipeline.ProgressFunc) (*models.Vault, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	cfg, err := m.store.Load()
	if err != nil {
		return nil, fmt.Errorf("unlock vault: %w", err)
	}
	vault := cfg.FindVault(id)
	if vault == nil {
		return nil, models.ErrVaultNotFound
	}
	if vault.State != models.StateLocked {
		return nil, models.ErrVaultUnlocked
	}

	masterKey, err := m.auth.UnlockPassword(id, password)
	if err != nil {
		return nil, err
	}

	return m.finishUnlock(cfg, vault, masterKey, progress)
}

func (m *Manager) finishUnlock(cfg *models.VaultConfig, vault *models.Vault, masterKey []byte, progress pipeline.ProgressFunc) (*models.Vault, error) {
	vault.State = models.StateDecrypting
	if err := m.store.Save(cfg); err != nil {
		return nil, fmt.Errorf("unlock vault: %w", err)
	}

	if err := m.pipe.Decrypt(vault.ID, vault.FolderPath, masterKey, progress); err != nil {
		vault.State = models.StateError
		_ = m.store.Save(cfg)
		m.recordAudit(vault.ID, audit.EventVaultUnlockFailed, err.Error())
		return nil, fmt.Errorf("unlock vault: %w", err)
	}

	now := time.Now().UTC()
	vault.State = models.StateUnlocked
	vault.LastUnlockedAt = &now
	fileCount, totalSize := dirStats(vault.FolderPath)
	vault.FileCount = fileCount
	vault.TotalSize = totalSize
	if err := m.store.Save(cfg); err != nil {
		return nil, fmt.Errorf("unlock vault: %w", err)
	}
	m.recordAudit(vault.ID, audit.EventVaultUnlocked, "")

	return vault, nil
}

// RemoveVault unlocks a locked vault first if a password is supplied
// (or via biometric otherwise) — restoring its plaintext files via the
// full decrypt pass, the same as unlock-vault-password/
// unlock-vault-biometric — then deletes its secret-store slots and
// drops it from the config. The secret-store slots are the only copies
// of the keys that can ever recover the vault's ciphertext, so they
// must never be deleted before the folder has actually been decrypted.
func (m *Manager) RemoveVault(ctx context.Context, id, password string, progress pipeline.ProgressFunc) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	cfg, err := m.store.Load()
	if err != nil {
		return fmt.Errorf("remove vault: %w", err)
	}
	vault := cfg.FindVault(id)
	if vault == nil {
		return models.ErrVaultNotFound
	}

	if vault.State == models.StateLocked {
		var masterKey []byte
		if password != "" {
			masterKey, err = m.auth.UnlockPassword(id, password)
			if err != nil {
				return err
			}
		} else if !m.auth.BiometricsAvailable(ctx) {
			return models.ErrWrongPassword
		} else {
			masterKey, err = m.auth.UnlockBiometric(ctx, id, vault.Name)
			if err != nil {
				return err
			}
		}

		vault.State = models.StateDecrypting
		if err := m.store.Save(cfg); err != nil {
			return fmt.Errorf("remove vault: %w", err)
		}
		if err := m.pipe.Decrypt(id, vault.FolderPath, masterKey, progress); err != nil {
			vault.State = models.StateError
			_ = m.store.Save(cfg)
			m.recordAudit(id, audit.EventVaultUnlockFailed, err.Error())
			return fmt.Errorf("remove vault: %w", err)
		}
		vault.State = models.StateUnlocked
	}

	if err := m.secrets.DeleteAll(id); err != nil {
		return fmt.Errorf("remove vault: %w", err)
	}
	cfg.RemoveVault(id)
	if err := m.store.Save(cfg); err != nil {
		return fmt.Errorf("remove vault: %w", err)
	}
	m.recordAudit(id, audit.EventVaultRemoved, "")

	return nil
}

// ChangePassword re-wraps a vault's master key under a new password.
// The vault's lock state is untouched: this only rotates the key
// material the password unlock path depends on.
func (m *Manager) ChangePassword(id, currentPassword, newPassword string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	cfg, err := m.store.Load()
	if err != nil {
		return fmt.Errorf("change password: %w", err)
	}
	if cfg.FindVault(id) == nil {
		return models.ErrVaultNotFound
	}

	if err := m.auth.ChangePassword(id, currentPassword, newPassword); err != nil {
		return err
	}
	m.recordAudit(id, audit.EventPasswordChanged, "")
	return nil
}

// LockAll iterates unlocked vaults and locks each with the same
// password. All vaults share a password in the current design.
func (m *Manager) LockAll(ctx context.Context, password string, progress pipeline.ProgressFunc) []error {
	m.mu.Lock()
	defer m.mu.Unlock()

	cfg, err := m.store.Load()
	if err != nil {
		return []error{err}
	}

	var errs []error
	for _, v := range cfg.Vaults {
		if v.State != models.StateUnlocked {
			continue
		}
		if _, err := m.lockVaultLocked(ctx, v.ID, password, progress); err != nil {
			errs = append(errs, fmt.Errorf("lock %s: %w", v.Name, err))
		}
	}
	return errs
}

// InterruptedVaults scans every configured vault folder for a manifest
// left in-progress or interrupted by a crash.
func (m *Manager) InterruptedVaults() ([]*models.Vault, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	cfg, err := m.store.Load()
	if err != nil {
		return nil, fmt.Errorf("interrupted vaults: %w", err)
	}

	var interrupted []*models.Vault
	for _, v := range cfg.Vaults {
		has, err := m.pipe.HasInterruptedManifest(v.FolderPath)
		if err != nil {
			m.logger.WithError(err).WithField("vault_id", v.ID).Warn("failed to probe manifest")
			continue
		}
		if has {
			interrupted = append(interrupted, v)
		}
	}
	m.recordAudit("", audit.EventRecoveryScan, fmt.Sprintf("%d interrupted", len(interrupted)))
	return interrupted, nil
}

// ListVaults returns the currently configured vaults.
func (m *Manager) ListVaults() ([]*models.Vault, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	cfg, err := m.store.Load()
	if err != nil {
		return nil, fmt.Errorf("list vaults: %w", err)
	}
	return cfg.Vaults, nil
}
