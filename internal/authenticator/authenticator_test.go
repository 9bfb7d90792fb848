package authenticator_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/loganross/coffer/internal/authenticator"
	"github.com/loganross/coffer/internal/events"
	"github.com/loganross/coffer/internal/models"
	"github.com/loganross/coffer/internal/secretstore"
)

type fakeBiometric struct {
	available bool
	outcome   authenticator.BiometricOutcome
}

func (f *fakeBiometric) Available(ctx context.Context) bool { return f.available }

func (f *fakeBiometric) Evaluate(ctx context.Context, reason string) authenticator.BiometricOutcome {
	return f.outcome
}

func newTestAuthenticator(bio *fakeBiometric) (*authenticator.Authenticator, secretstore.Store) {
	store := secretstore.NewMemoryStore()
	logger := events.NewTestLogger(events.ErrorLevel, "text", nil)
	return authenticator.New(store, bio, logger), store
}

func TestSetupThenUnlockPasswordRoundTrip(t *testing.T) {
	auth, _ := newTestAuthenticator(&fakeBiometric{available: false})

	masterKey, _, err := auth.SetupVault(context.Background(), "vault-1", "correct horse", false)
	require.NoError(t, err)

	unlocked, err := auth.UnlockPassword("vault-1", "correct horse")
	require.NoError(t, err)
	assert.Equal(t, masterKey, unlocked)
}

func TestUnlockPasswordWrongPasswordFails(t *testing.T) {
	auth, _ := newTestAuthenticator(&fakeBiometric{available: false})

	_, _, err := auth.SetupVault(context.Background(), "vault-1", "correct horse", false)
	require.NoError(t, err)

	_, err = auth.UnlockPassword("vault-1", "wrong horse")
	assert.ErrorIs(t, err, models.ErrWrongPassword)
}

func TestUnlockPasswordUnknownVaultIsWrongPassword(t *testing.T) {
	auth, _ := newTestAuthenticator(&fakeBiometric{available: false})

	_, err := auth.UnlockPassword("no-such-vault", "anything")
	assert.ErrorIs(t, err, models.ErrWrongPassword)
}

func TestSetupVaultEnrollsBiometricWhenAvailable(t *testing.T) {
	auth, store := newTestAuthenticator(&fakeBiometric{available: true, outcome: authenticator.OutcomeSuccess})

	masterKey, enrolled, err := auth.SetupVault(context.Background(), "vault-1", "correct horse", true)
	require.NoError(t, err)
	assert.True(t, enrolled)

	stored, err := store.RetrieveSecret("vault-1", secretstore.SlotMasterKey, &secretstore.AuthContext{Authenticated: true})
	require.NoError(t, err)
	assert.Equal(t, masterKey, stored)
}

func TestSetupVaultSkipsBiometricWhenUnavailable(t *testing.T) {
	auth, store := newTestAuthenticator(&fakeBiometric{available: false})

	_, enrolled, err := auth.SetupVault(context.Background(), "vault-1", "correct horse", true)
	require.NoError(t, err)
	assert.False(t, enrolled)

	_, err = store.RetrieveSecret("vault-1", secretstore.SlotMasterKey, nil)
	assert.ErrorIs(t, err, secretstore.ErrNotFound)
}

func TestUnlockBiometricSuccess(t *testing.T) {
	bio := &fakeBiometric{available: true, outcome: authenticator.OutcomeSuccess}
	auth, _ := newTestAuthenticator(bio)

	masterKey, _, err := auth.SetupVault(context.Background(), "vault-1", "correct horse", true)
	require.NoError(t, err)

	unlocked, err := auth.UnlockBiometric(context.Background(), "vault-1", "My Vault")
	require.NoError(t, err)
	assert.Equal(t, masterKey, unlocked)
}

func TestUnlockBiometricUserCancel(t *testing.T) {
	bio := &fakeBiometric{available: true, outcome: authenticator.OutcomeUserCancel}
	auth, _ := newTestAuthenticator(bio)

	_, err := auth.UnlockBiometric(context.Background(), "vault-1", "My Vault")
	assert.ErrorIs(t, err, models.ErrBiometricFailed)
}

func TestUnlockBiometricNotEnrolled(t *testing.T) {
	bio := &fakeBiometric{available: true, outcome: authenticator.OutcomeNotEnrolled}
	auth, _ := newTestAuthenticator(bio)

	_, err := auth.UnlockBiometric(context.Background(), "vault-1", "My Vault")
	assert.ErrorIs(t, err, models.ErrBiometricUnavailable)
}

func TestUnlockBiometricInvalidatedFallsBackToPasswordSuccessfully(t *testing.T) {
	bio := &fakeBiometric{available: true, outcome: authenticator.OutcomeSuccess}
	auth, store := newTestAuthenticator(bio)

	masterKey, enrolled, err := auth.SetupVault(context.Background(), "vault-1", "correct horse", true)
	require.NoError(t, err)
	require.True(t, enrolled)

	// Simulate the OS invalidating the biometric-gated slot when the
	// enrolled fingerprint/face set changes: only master-key is lost,
	// salt and wrapped-master-key survive untouched.
	require.NoError(t, store.DeleteSecret("vault-1", secretstore.SlotMasterKey))

	_, err = auth.UnlockBiometric(context.Background(), "vault-1", "My Vault")
	assert.ErrorIs(t, err, models.ErrBiometricUnavailable)

	unlocked, err := auth.UnlockPassword("vault-1", "correct horse")
	require.NoError(t, err)
	assert.Equal(t, masterKey, unlocked, "password unlock must survive biometric invalidation")
}

func TestChangePasswordRewrapsMasterKey(t *testing.T) {
	auth, _ := newTestAuthenticator(&fakeBiometric{available: false})

	masterKey, _, err := auth.SetupVault(context.Background(), "vault-1", "old password", false)
	require.NoError(t, err)

	require.NoError(t, auth.ChangePassword("vault-1", "old password", "new password"))

	_, err = auth.UnlockPassword("vault-1", "old password")
	assert.ErrorIs(t, err, models.ErrWrongPassword)

	unlocked, err := auth.UnlockPassword("vault-1", "new password")
	require.NoError(t, err)
	assert.Equal(t, masterKey, unlocked)
}

func TestChangePasswordRejectsWrongCurrentPassword(t *testing.T) {
	auth, _ := newTestAuthenticator(&fakeBiometric{available: false})

	_, _, err := auth.SetupVault(context.Background(), "vault-1", "old password", false)
	require.NoError(t, err)

	err = auth.ChangePassword("vault-1", "not the current password", "new password")
	assert.ErrorIs(t, err, models.ErrWrongPassword)
}
