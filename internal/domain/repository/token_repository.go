// Package repository defines the interfaces for the persistence layer.
// These interfaces act as a contract between the domain/application layers and the infrastructure layer.
package repository

import (
	"context"
	"errors"

	"briefly/internal/domain/entity"

	"github.com/google/uuid"
)

// Domain-specific errors for token persistence.
// This allows the application layer to handle specific outcomes without depending on database-specific errors.
var (
	// ErrTokenNotFound is returned when no token exists for a (user, provider) pair.
	ErrTokenNotFound = errors.New("oauth token not found")
)

// TokenRepository defines the persistence operations for provider OAuth
// tokens. The backing table holds ciphertext only; implementations own the
// encrypt/decrypt round trip so no other component ever sees stored secrets.
type TokenRepository interface {
	// SaveToken upserts the token keyed on (UserID, Provider), overwriting any
	// existing record for that pair. Last writer wins.
	SaveToken(ctx context.Context, token *entity.OAuthToken) error

	// GetToken retrieves the decrypted token for a (user, provider) pair.
	// Returns ErrTokenNotFound when no connection exists.
	GetToken(ctx context.Context, userID uuid.UUID, provider entity.ProviderType) (*entity.OAuthToken, error)

	// DeleteToken removes the record. Idempotent: deleting an absent token is
	// not an error.
	DeleteToken(ctx context.Context, userID uuid.UUID, provider entity.ProviderType) error

	// ListByUser returns every stored token for the user, one per connected
	// provider. Used to derive connection status; never crosses users.
	ListByUser(ctx context.Context, userID uuid.UUID) ([]*entity.OAuthToken, error)
}
