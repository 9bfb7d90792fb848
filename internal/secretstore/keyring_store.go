package secretstore

import (
	"errors"
	"fmt"

	"github.com/zalando/go-keyring"
)

// KeyringStore backs Store with the OS-provided credential store
// (Keychain on macOS, Secret Service on Linux, Credential Manager on
// Windows) via zalando/go-keyring.
type KeyringStore struct{}

// NewKeyringStore returns a Store backed by the OS credential store.
func NewKeyringStore() *KeyringStore {
	return &KeyringStore{}
}

func (s *KeyringStore) StoreSecret(vaultID string, slot Slot, value []byte) error {
	acct := account(vaultID, slot)
	// Upsert: delete any existing entry first, then insert.
	_ = keyring.Delete(serviceName(), acct)
	if err := keyring.Set(serviceName(), acct, encode(value)); err != nil {
		return fmt.Errorf("store-write-failed: %w", err)
	}
	return nil
}

func (s *KeyringStore) RetrieveSecret(vaultID string, slot Slot, authCtx *AuthContext) ([]byte, error) {
	acct := account(vaultID, slot)
	raw, err := keyring.Get(serviceName(), acct)
	if err != nil {
		if errors.Is(err, keyring.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("store-read-failed: %w", err)
	}
	return decode(raw)
}

func (s *KeyringStore) DeleteSecret(vaultID string, slot Slot) error {
	acct := account(vaultID, slot)
	if err := keyring.Delete(serviceName(), acct); err != nil {
		if errors.Is(err, keyring.ErrNotFound) {
			return nil
		}
		return fmt.Errorf("store-write-failed: %w", err)
	}
	return nil
}

func (s *KeyringStore) DeleteAll(vaultID string) error {
	for _, slot := range []Slot{SlotMasterKey, SlotSalt, SlotWrappedMasterKey} {
		if err := s.DeleteSecret(vaultID, slot); err != nil {
			return err
		}
	}
	return nil
}
