// Package crypto implements the at-rest encryption for stored OAuth tokens.
package crypto

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"io"

	"briefly/config"
	"briefly/internal/domain/entity"
	"briefly/internal/domain/service"
	"briefly/internal/errors"

	"github.com/google/uuid"
	"golang.org/x/crypto/hkdf"
)

const masterKeyLen = 32

type tokenCipher struct {
	masterKey []byte
}

// NewTokenCipher creates an AES-256-GCM token cipher from the configured
// master key. Per-record keys are derived with HKDF-SHA256 using the owning
// (user, provider) pair as derivation info, so ciphertext moved onto another
// row fails authentication on decrypt.
func NewTokenCipher(cfg *config.Config) (service.TokenCipher, error) {
	if cfg.TokenCrypto == nil || cfg.TokenCrypto.MasterKey == "" {
		return nil, errors.New("token crypto master key is not configured")
	}

	masterKey, err := base64.StdEncoding.DecodeString(cfg.TokenCrypto.MasterKey)
	if err != nil {
		return nil, errors.Wrap(err, "failed to decode token crypto master key")
	}
	if len(masterKey) != masterKeyLen {
		return nil, errors.Errorf("token crypto master key must be %d bytes, got %d", masterKeyLen, len(masterKey))
	}

	return &tokenCipher{masterKey: masterKey}, nil
}

// EncryptToken encrypts one secret field for the given owner. Output is
// base64(nonce || ciphertext).
func (c *tokenCipher) EncryptToken(userID uuid.UUID, provider entity.ProviderType, plaintext string) (string, error) {
	aead, err := c.aeadFor(userID, provider)
	if err != nil {
		return "", err
	}

	nonce := make([]byte, aead.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return "", errors.Wrap(err, "failed to generate nonce")
	}

	sealed := aead.Seal(nonce, nonce, []byte(plaintext), nil)

	return base64.StdEncoding.EncodeToString(sealed), nil
}

// DecryptToken reverses EncryptToken for the same owner. Fails when the
// ciphertext was produced for a different (user, provider) pair.
func (c *tokenCipher) DecryptToken(userID uuid.UUID, provider entity.ProviderType, ciphertext string) (string, error) {
	aead, err := c.aeadFor(userID, provider)
	if err != nil {
		return "", err
	}

	sealed, err := base64.StdEncoding.DecodeString(ciphertext)
	if err != nil {
		return "", errors.Wrap(err, "failed to decode token ciphertext")
	}
	if len(sealed) < aead.NonceSize() {
		return "", errors.New("token ciphertext too short")
	}

	nonce, payload := sealed[:aead.NonceSize()], sealed[aead.NonceSize():]
	plaintext, err := aead.Open(nil, nonce, payload, nil)
	if err != nil {
		return "", errors.Wrap(err, "failed to decrypt token")
	}

	return string(plaintext), nil
}

// aeadFor derives the owner-bound AEAD. The derivation info pins the key to
// the (user, provider) pair.
func (c *tokenCipher) aeadFor(userID uuid.UUID, provider entity.ProviderType) (cipher.AEAD, error) {
	info := []byte("oauth-token:" + userID.String() + ":" + string(provider))
	kdf := hkdf.New(sha256.New, c.masterKey, nil, info)

	key := make([]byte, masterKeyLen)
	if _, err := io.ReadFull(kdf, key); err != nil {
		return nil, errors.Wrap(err, "failed to derive token key")
	}

	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, errors.Wrap(err, "failed to create cipher")
	}

	aead, err := cipher.NewGCM(block)
	if err != nil {
		return nil, errors.Wrap(err, "failed to create GCM")
	}

	return aead, nil
}
