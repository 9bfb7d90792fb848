// Package authenticator implements component C: turning a password or
// a biometric evaluation into a vault's master key, and the setup /
// change-password flows that provision the secret store slots those
// unlock paths depend on.
package authenticator

import (
	"context"
	"fmt"

	"github.com/loganross/coffer/internal/crypto"
	"github.com/loganross/coffer/internal/events"
	"github.com/loganross/coffer/internal/models"
	"github.com/loganross/coffer/internal/secretstore"
)

// Authenticator is component C.
type Authenticator struct {
	store     secretstore.Store
	biometric BiometricEvaluator
	logger    *events.Logger
}

// New creates an Authenticator.
func New(store secretstore.Store, biometric BiometricEvaluator, logger *events.Logger) *Authenticator {
	return &Authenticator{
		store:     store,
		biometric: biometric,
		logger:    logger.WithField("component", "authenticator"),
	}
}

// BiometricsAvailable exposes the capability probe. Callers should not
// cache this across configuration changes of the underlying device.
func (a *Authenticator) BiometricsAvailable(ctx context.Context) bool {
	return a.biometric.Available(ctx)
}

// UnlockBiometric evaluates the biometric policy and, on success,
// retrieves the master-key slot using the resulting authenticated
// context so the store does not re-prompt.
func (a *Authenticator) UnlockBiometric(ctx context.Context, vaultID, displayName string) ([]byte, error) {
	reason := fmt.Sprintf("Unlock vault %q", displayName)
	outcome := a.biometric.Evaluate(ctx, reason)

	switch outcome {
	case OutcomeSuccess:
		// proceed
	case OutcomeUserCancel, OutcomeAppCancel, OutcomeSystemCancel:
		return nil, models.ErrBiometricFailed
	case OutcomeNotAvailable, OutcomeNotEnrolled:
		return nil, models.ErrBiometricUnavailable
	default:
		return nil, models.ErrBiometricFailed
	}

	authCtx := &secretstore.AuthContext{Authenticated: true}
	masterKey, err := a.store.RetrieveSecret(vaultID, secretstore.SlotMasterKey, authCtx)
	if err != nil {
		a.logger.WithError(err).WithField("vault_id", vaultID).Warn("biometric master-key retrieval failed")
		return nil, models.ErrBiometricUnavailable
	}
	return masterKey, nil
}

// UnlockPassword derives the wrapping key from password + stored salt
// and unwraps the stored master key. Any failure along this path,
// including "no such vault", is reported uniformly as wrong-password
// so a caller cannot distinguish which step failed.
func (a *Authenticator) UnlockPassword(vaultID, password string) ([]byte, error) {
	salt, err := a.store.RetrieveSecret(vaultID, secretstore.SlotSalt, nil)
	if err != nil {
		return nil, models.ErrWrongPassword
	}
	wrapped, err := a.store.RetrieveSecret(vaultID, secretstore.SlotWrappedMasterKey, nil)
	if err != nil {
		return nil, models.ErrWrongPassword
	}

	wrappingKey, err := crypto.DeriveKey(password, salt)
	if err != nil {
		return nil, models.ErrWrongPassword
	}

	masterKey, err := crypto.UnwrapKey(wrapped, wrappingKey)
	if err != nil {
		return nil, models.ErrWrongPassword
	}
	return masterKey, nil
}

// SetupVault generates a fresh master key and salt, wraps the master
// key under the password-derived wrapping key, and stores salt +
// wrapped-master-key unconditionally. If enableBiometric is set and
// biometrics are available, the raw master key is additionally stored
// under biometric access control. Returns the master key so the caller
// can proceed directly (e.g. an immediate lock), plus whether biometric
// unlock was actually enrolled — callers must not record a vault as
// biometric-enabled unless the master-key slot was actually written,
// per the invariant that a vault's useTouchID flag implies the
// master-key slot exists.
func (a *Authenticator) SetupVault(ctx context.Context, vaultID, password string, enableBiometric bool) ([]byte, bool, error) {
	masterKey, err := crypto.GenerateMasterKey()
	if err != nil {
		return nil, false, fmt.Errorf("setup vault: %w", err)
	}
	salt, err := crypto.GenerateSalt()
	if err != nil {
		return nil, false, fmt.Errorf("setup vault: %w", err)
	}

	wrappingKey, err := crypto.DeriveKey(password, salt)
	if err != nil {
		return nil, false, fmt.Errorf("setup vault: %w", err)
	}

	sealed, err := crypto.WrapKey(masterKey, wrappingKey)
	if err != nil {
		return nil, false, fmt.Errorf("setup vault: %w", err)
	}

	if err := a.store.StoreSecret(vaultID, secretstore.SlotSalt, salt); err != nil {
		return nil, false, fmt.Errorf("setup vault: store salt: %w", err)
	}
	if err := a.store.StoreSecret(vaultID, secretstore.SlotWrappedMasterKey, sealed.Combined); err != nil {
		return nil, false, fmt.Errorf("setup vault: store wrapped master key: %w", err)
	}

	biometricEnrolled := false
	if enableBiometric && a.biometric.Available(ctx) {
		if err := a.store.StoreSecret(vaultID, secretstore.SlotMasterKey, masterKey); err != nil {
			a.logger.WithError(err).WithField("vault_id", vaultID).Warn("failed to enroll biometric unlock")
		} else {
			biometricEnrolled = true
		}
	}

	return masterKey, biometricEnrolled, nil
}

// ChangePassword re-wraps the existing master key under a freshly
// derived wrapping key from a new password and salt. The biometric slot
// is untouched: biometrics bind to the master key, not the password.
func (a *Authenticator) ChangePassword(vaultID, currentPassword, newPassword string) error {
	masterKey, err := a.UnlockPassword(vaultID, currentPassword)
	if err != nil {
		return err
	}

	newSalt, err := crypto.GenerateSalt()
	if err != nil {
		return fmt.Errorf("change password: %w", err)
	}
	newWrappingKey, err := crypto.DeriveKey(newPassword, newSalt)
	if err != nil {
		return fmt.Errorf("change password: %w", err)
	}
	sealed, err := crypto.WrapKey(masterKey, newWrappingKey)
	if err != nil {
		return fmt.Errorf("change password: %w", err)
	}

	if err := a.store.StoreSecret(vaultID, secretstore.SlotSalt, newSalt); err != nil {
		return fmt.Errorf("change password: store salt: %w", err)
	}
	if err := a.store.StoreSecret(vaultID, secretstore.SlotWrappedMasterKey, sealed.Combined); err != nil {
		return fmt.Errorf("change password: store wrapped master key: %w", err)
	}
	return nil
}
