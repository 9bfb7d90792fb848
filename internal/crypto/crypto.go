// Package crypto implements the primitives the vault engine builds on:
// AES-256-GCM sealing, HKDF-SHA256 key derivation, and master-key
// wrap/unwrap. The on-disk format and the HKDF info label are a
// versioned contract — see InfoLabel.
package crypto

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"errors"
	"fmt"
	"io"

	"golang.org/x/crypto/hkdf"
	"golang.org/x/text/unicode/norm"
)

const (
	// KeySize is the size, in bytes, of both the master key and the
	// password-derived wrapping key (AES-256).
	KeySize = 32
	// SaltSize is the size, in bytes, of the per-vault HKDF salt.
	SaltSize = 16
	// NonceSize is the GCM standard nonce size.
	NonceSize = 12
	// TagSize is the GCM authentication tag size.
	TagSize = 16

	// InfoLabel is the HKDF "info" parameter. It is part of the on-disk
	// contract: changing it invalidates every existing vault, since it
	// changes the wrapping key derived from a given password and salt.
	InfoLabel = "com.loganross.coffer.v1"
)

var (
	ErrInvalidKey        = errors.New("invalid key size")
	ErrInvalidCiphertext = errors.New("invalid ciphertext format")
	// ErrDecryptionFailed is the single wrong-password / tampered-ciphertext
	// detector: seal/open never distinguishes bad key from corrupt blob.
	ErrDecryptionFailed = errors.New("decryption failed")
)

// DeriveKey computes derive(password, salt) = HKDF-SHA256(IKM=password,
// salt=salt, info=InfoLabel, L=KeySize). The password is NFC-normalized
// first so that the same characters typed on different input methods or
// platforms derive the same key; this normalization is not itself part
// of the versioned on-disk contract, only a pre-step applied before it.
func DeriveKey(password string, salt []byte) ([]byte, error) {
	if len(salt) != SaltSize {
		return nil, fmt.Errorf("derive key: %w: expected salt of %d bytes, got %d", ErrInvalidKey, SaltSize, len(salt))
	}
	normalized := norm.NFC.String(password)
	kdf := hkdf.New(sha256.New, []byte(normalized), salt, []byte(InfoLabel))
	key := make([]byte, KeySize)
	if _, err := io.ReadFull(kdf, key); err != nil {
		return nil, fmt.Errorf("derive key: %w", err)
	}
	return key, nil
}

// GenerateSalt returns a fresh random salt.
func GenerateSalt() ([]byte, error) {
	salt := make([]byte, SaltSize)
	if _, err := rand.Read(salt); err != nil {
		return nil, fmt.Errorf("generate salt: %w", err)
	}
	return salt, nil
}

// GenerateMasterKey returns a fresh random 256-bit master key. Key
// generation has no fallback source: a CSPRNG failure here is returned
// as an error.
func GenerateMasterKey() ([]byte, error) {
	key := make([]byte, KeySize)
	if _, err := io.ReadFull(rand.Reader, key); err != nil {
		return nil, fmt.Errorf("generate master key: %w", err)
	}
	return key, nil
}

// Sealed is the output of Seal: the combined on-wire blob plus the raw
// nonce and tag broken out separately, since the manifest format
// records nonce and tag as distinct base64 fields.
type Sealed struct {
	Combined []byte
	Nonce    []byte
	Tag      []byte
}

// Seal encrypts plaintext under key, returning combined = nonce || ciphertext || tag
// along with the nonce and tag split out for callers that need to record
// them separately (the manifest).
func Seal(plaintext, key []byte) (*Sealed, error) {
	aead, err := newAEAD(key)
	if err != nil {
		return nil, err
	}

	nonce := make([]byte, NonceSize)
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return nil, fmt.Errorf("generate nonce: %w", err)
	}

	sealed := aead.Seal(nil, nonce, plaintext, nil)
	if len(sealed) < TagSize {
		return nil, fmt.Errorf("seal: unexpected output length %d", len(sealed))
	}
	ciphertext := sealed[:len(sealed)-TagSize]
	tag := sealed[len(sealed)-TagSize:]

	combined := make([]byte, 0, NonceSize+len(ciphertext)+TagSize)
	combined = append(combined, nonce...)
	combined = append(combined, ciphertext...)
	combined = append(combined, tag...)

	return &Sealed{Combined: combined, Nonce: nonce, Tag: tag}, nil
}

// Open decrypts a combined blob (nonce || ciphertext || tag) produced by
// Seal. Any failure — malformed blob, mismatched tag, or wrong key —
// surfaces as ErrDecryptionFailed; this is intentionally the sole
// wrong-password detector, so it must never distinguish its causes.
// Only a key that is not KeySize bytes long is rejected differently,
// with ErrInvalidKey, before the blob is looked at.
func Open(combined, key []byte) ([]byte, error) {
	aead, err := newAEAD(key)
	if err != nil {
		return nil, err
	}

	if len(combined) < NonceSize+TagSize {
		return nil, ErrDecryptionFailed
	}

	nonce := combined[:NonceSize]
	rest := combined[NonceSize:]
	ciphertext := rest[:len(rest)-TagSize]
	tag := rest[len(rest)-TagSize:]

	sealed := make([]byte, 0, len(ciphertext)+len(tag))
	sealed = append(sealed, ciphertext...)
	sealed = append(sealed, tag...)

	plaintext, err := aead.Open(nil, nonce, sealed, nil)
	if err != nil {
		return nil, ErrDecryptionFailed
	}
	return plaintext, nil
}

// WrapKey seals a master key under a wrapping key derived from a
// password. The result is what the secret store persists as the
// wrapped-master-key slot.
func WrapKey(masterKey, wrappingKey []byte) (*Sealed, error) {
	if len(masterKey) != KeySize {
		return nil, fmt.Errorf("wrap key: %w", ErrInvalidKey)
	}
	return Seal(masterKey, wrappingKey)
}

// UnwrapKey recovers a master key from a wrapped-master-key blob. Any
// failure is reported by the caller as wrong-password: for any wrapping
// key of KeySize bytes, UnwrapKey only ever returns ErrDecryptionFailed,
// never a more specific cause; a wrapping key of another size gives
// ErrInvalidKey.
func UnwrapKey(wrapped, wrappingKey []byte) ([]byte, error) {
	masterKey, err := Open(wrapped, wrappingKey)
	if err != nil {
		return nil, err
	}
	if len(masterKey) != KeySize {
		return nil, ErrDecryptionFailed
	}
	return masterKey, nil
}

func newAEAD(key []byte) (cipher.AEAD, error) {
	if len(key) != KeySize {
		return nil, ErrInvalidKey
	}
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("create cipher: %w", err)
	}
	aead, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("create GCM: %w", err)
	}
	return aead, nil
}
