// Package usecase defines the application-layer interfaces. Implementations
// live in the impl subpackage; the delivery layer depends only on these.
package usecase

import (
	"context"

	"briefly/internal/domain/entity"

	"github.com/google/uuid"
)

// TokenUsecase is the token store and refresh engine. It is the only path to
// the encrypted token store; every read that hands a token to a caller goes
// through the expiry check, and refresh happens transparently inside
// GetValidAccessToken.
type TokenUsecase interface {
	// SaveToken upserts the token for its (user, provider) pair.
	SaveToken(ctx context.Context, token *entity.OAuthToken) error

	// GetToken returns the stored token without touching its expiry.
	// Returns a TOKEN_NOT_FOUND classified error when no connection exists.
	GetToken(ctx context.Context, userID uuid.UUID, provider entity.ProviderType) (*entity.OAuthToken, error)

	// GetValidAccessToken returns a token guaranteed usable for at least the
	// expiry buffer, refreshing it first when necessary.
	GetValidAccessToken(ctx context.Context, userID uuid.UUID, provider entity.ProviderType) (*entity.OAuthToken, error)

	// RefreshToken forces a refresh-token exchange and persists the outcome.
	RefreshToken(ctx context.Context, userID uuid.UUID, provider entity.ProviderType) (*entity.OAuthToken, error)

	// DeleteToken removes the connection. Idempotent.
	DeleteToken(ctx context.Context, userID uuid.UUID, provider entity.ProviderType) error

	// IsTokenValid reports whether a stored token exists and is outside the
	// expiry buffer. Absence is a false, not an error.
	IsTokenValid(ctx context.Context, userID uuid.UUID, provider entity.ProviderType) (bool, error)

	// ListConnections derives the per-provider connection status for a user.
	ListConnections(ctx context.Context, userID uuid.UUID) ([]*entity.StorageConnection, error)
}
