package crypto_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/loganross/coffer/internal/crypto"
)

func TestSealOpenRoundTrip(t *testing.T) {
	key, err := crypto.GenerateMasterKey()
	require.NoError(t, err)

	plaintext := []byte("the quick brown fox jumps over the lazy dog")

	sealed, err := crypto.Seal(plaintext, key)
	require.NoError(t, err)
	assert.Len(t, sealed.Nonce, crypto.NonceSize)
	assert.Len(t, sealed.Tag, crypto.TagSize)
	assert.Len(t, sealed.Combined, crypto.NonceSize+len(plaintext)+crypto.TagSize)

	opened, err := crypto.Open(sealed.Combined, key)
	require.NoError(t, err)
	assert.Equal(t, plaintext, opened)
}

func TestOpenWrongKeyFails(t *testing.T) {
	key1, err := crypto.GenerateMasterKey()
	require.NoError(t, err)
	key2, err := crypto.GenerateMasterKey()
	require.NoError(t, err)

	sealed, err := crypto.Seal([]byte("secret"), key1)
	require.NoError(t, err)

	_, err = crypto.Open(sealed.Combined, key2)
	assert.ErrorIs(t, err, crypto.ErrDecryptionFailed)
}

func TestOpenTamperedCiphertextFails(t *testing.T) {
	key, err := crypto.GenerateMasterKey()
	require.NoError(t, err)

	sealed, err := crypto.Seal([]byte("secret payload"), key)
	require.NoError(t, err)

	tampered := make([]byte, len(sealed.Combined))
	copy(tampered, sealed.Combined)
	tampered[len(tampered)-1] ^= 0xFF

	_, err = crypto.Open(tampered, key)
	assert.ErrorIs(t, err, crypto.ErrDecryptionFailed)
}

func TestOpenMalformedBlobFails(t *testing.T) {
	key, err := crypto.GenerateMasterKey()
	require.NoError(t, err)

	_, err = crypto.Open([]byte("too short"), key)
	assert.ErrorIs(t, err, crypto.ErrDecryptionFailed)
}

func TestDeriveKeyDeterministic(t *testing.T) {
	salt, err := crypto.GenerateSalt()
	require.NoError(t, err)

	k1, err := crypto.DeriveKey("hunter2", salt)
	require.NoError(t, err)
	k2, err := crypto.DeriveKey("hunter2", salt)
	require.NoError(t, err)

	assert.Equal(t, k1, k2)
	assert.Len(t, k1, crypto.KeySize)
}

func TestDeriveKeyDifferentSaltsDiffer(t *testing.T) {
	salt1, err := crypto.GenerateSalt()
	require.NoError(t, err)
	salt2, err := crypto.GenerateSalt()
	require.NoError(t, err)

	k1, err := crypto.DeriveKey("hunter2", salt1)
	require.NoError(t, err)
	k2, err := crypto.DeriveKey("hunter2", salt2)
	require.NoError(t, err)

	assert.NotEqual(t, k1, k2)
}

func TestDeriveKeyRejectsBadSaltSize(t *testing.T) {
	_, err := crypto.DeriveKey("hunter2", []byte("short"))
	assert.Error(t, err)
}

func TestWrapUnwrapKeyRoundTrip(t *testing.T) {
	masterKey, err := crypto.GenerateMasterKey()
	require.NoError(t, err)
	salt, err := crypto.GenerateSalt()
	require.NoError(t, err)

	wrappingKey, err := crypto.DeriveKey("correct horse battery staple", salt)
	require.NoError(t, err)

	sealed, err := crypto.WrapKey(masterKey, wrappingKey)
	require.NoError(t, err)

	unwrapped, err := crypto.UnwrapKey(sealed.Combined, wrappingKey)
	require.NoError(t, err)
	assert.Equal(t, masterKey, unwrapped)
}

func TestUnwrapKeyWrongPasswordFails(t *testing.T) {
	masterKey, err := crypto.GenerateMasterKey()
	require.NoError(t, err)
	salt, err := crypto.GenerateSalt()
	require.NoError(t, err)

	wrappingKey, err := crypto.DeriveKey("correct horse battery staple", salt)
	require.NoError(t, err)
	sealed, err := crypto.WrapKey(masterKey, wrappingKey)
	require.NoError(t, err)

	wrongWrappingKey, err := crypto.DeriveKey("wrong password", salt)
	require.NoError(t, err)

	_, err = crypto.UnwrapKey(sealed.Combined, wrongWrappingKey)
	assert.ErrorIs(t, err, crypto.ErrDecryptionFailed)
}

func TestSealRejectsBadKeySize(t *testing.T) {
	_, err := crypto.Seal([]byte("data"), []byte("too-short-key"))
	assert.ErrorIs(t, err, crypto.ErrInvalidKey)
}

func TestGenerateSaltIsRandom(t *testing.T) {
	s1, err := crypto.GenerateSalt()
	require.NoError(t, err)
	s2, err := crypto.GenerateSalt()
	require.NoError(t, err)
	assert.NotEqual(t, s1, s2)
	assert.Len(t, s1, crypto.SaltSize)
}
