package service

import (
	"briefly/internal/domain/entity"

	"github.com/google/uuid"
)

// TokenCipher is the encryption primitive the token store delegates to.
// Ciphertext is bound to its (user, provider) owner, so a record copied onto
// another row fails authentication on decrypt. Callers above the persistence
// layer never see ciphertext; callers below never see plaintext.
type TokenCipher interface {
	// EncryptToken encrypts one secret field for the given owner.
	EncryptToken(userID uuid.UUID, provider entity.ProviderType, plaintext string) (string, error)

	// DecryptToken reverses EncryptToken for the same owner.
	DecryptToken(userID uuid.UUID, provider entity.ProviderType, ciphertext string) (string, error)
}
