package models

import (
	"errors"
	"fmt"
	"strings"
)

// Sentinel errors returned by the vault engine's public operations.
var (
	ErrVaultNotFound        = errors.New("vault not found")
	ErrVaultAlreadyExists   = errors.New("vault already exists at this path")
	ErrVaultLocked          = errors.New("vault is locked")
	ErrVaultUnlocked        = errors.New("vault is already unlocked")
	ErrVaultBusy            = errors.New("vault is busy with another operation")
	ErrWrongPassword        = errors.New("incorrect password")
	ErrBiometricUnavailable = errors.New("biometric authentication unavailable")
	ErrBiometricFailed      = errors.New("biometric authentication failed")
	ErrManifestCorrupt      = errors.New("manifest is corrupt or unreadable")
	ErrFileOpen             = errors.New("one or more files are open in another application")
	ErrCiphertextTampered   = errors.New("ciphertext failed authentication")
	ErrEncryptedFileMissing = errors.New("encrypted file missing")
)

// FilesInUseError reports the files-in-use(paths) error kind: a lock
// attempt found one or more files under the vault folder held open by
// another process. Paths is unordered, mirroring the map OpenHandles
// returns them in.
type FilesInUseError struct {
	Paths []string
}

func (e *FilesInUseError) Error() string {
	return fmt.Sprintf("files open in another application: %s", strings.Join(e.Paths, ", "))
}

func (e *FilesInUseError) Unwrap() error {
	return ErrFileOpen
}

// EncryptedFileMissingError reports the encrypted-file-missing(path)
// error kind: the manifest names a file as encrypted, but its
// ciphertext is gone from disk.
type EncryptedFileMissingError struct {
	RelativePath string
}

func (e *EncryptedFileMissingError) Error() string {
	return fmt.Sprintf("encrypted file missing: %s", e.RelativePath)
}

func (e *EncryptedFileMissingError) Unwrap() error {
	return ErrEncryptedFileMissing
}

// ValidationError reports a single field-level validation failure.
type ValidationError struct {
	Field string
	Msg   string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Msg)
}

// VaultError wraps a lower-level error with the vault it occurred against
// and the operation being performed, so callers can log and the CLI can
// report failures without losing the underlying cause.
type VaultError struct {
	VaultID string
	Op      string
	Err     error
}

func (e *VaultError) Error() string {
	if e.VaultID != "" {
		return fmt.Sprintf("vault %s: %s: %v", e.VaultID, e.Op, e.Err)
	}
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *VaultError) Unwrap() error {
	return e.Err
}

// NewVaultError constructs a VaultError.
func NewVaultError(vaultID, op string, err error) *VaultError {
	return &VaultError{VaultID: vaultID, Op: op, Err: err}
}
