package service

import (
	"context"
	"time"

	"briefly/internal/domain/entity"
)

// TokenGrant is the normalized result of a provider token endpoint call,
// either an authorization-code exchange or a refresh-token exchange.
type TokenGrant struct {
	AccessToken  string
	RefreshToken string // empty when the provider withheld or did not rotate it
	Scope        string // empty when the provider echoed nothing back
	TokenType    string
	AccountEmail string // populated on code exchange only
	ExpiresAt    time.Time
}

// ProviderClient is the per-vendor face of the storage-connection OAuth flow.
// Both implementations (Google Drive, Microsoft Graph) satisfy the same
// contract against their own token endpoint and parameter set; everything
// above this interface is provider-agnostic.
type ProviderClient interface {
	// Provider returns the provider this client speaks to.
	Provider() entity.ProviderType

	// AuthCodeURL builds the user-facing authorization URL, requesting
	// offline access so a refresh token is issued.
	AuthCodeURL(state string) string

	// Exchange trades an authorization code for tokens and resolves the
	// account email for display.
	Exchange(ctx context.Context, code string) (*TokenGrant, error)

	// Refresh exchanges the stored refresh token for a new access token via
	// grant_type=refresh_token. Failures come back as classified
	// *domainerrors.TokenError values: HTTP 400-class responses mean the
	// refresh token itself is dead (reconnect required), other non-2xx and
	// network failures are transient.
	Refresh(ctx context.Context, refreshToken string) (*TokenGrant, error)
}
