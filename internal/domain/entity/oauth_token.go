package entity

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// ExpiryBuffer is the safety margin before a token's expiry inside which the
// token is treated as expired. It avoids handing out a token that dies while
// an in-flight provider request is still using it.
const ExpiryBuffer = 5 * time.Minute

// DefaultTokenType is used when the provider omits token_type in its response.
const DefaultTokenType = "Bearer"

// OAuthToken represents one cloud-storage connection for one user.
// At most one live token exists per (UserID, Provider) pair; persistence is
// an upsert keyed on that pair.
type OAuthToken struct {
	UserID       uuid.UUID    // Owner of the connection; the store never serves cross-user reads.
	Provider     ProviderType // google or microsoft.
	AccessToken  string       // Short-lived bearer credential for provider APIs.
	RefreshToken string       // Long-lived credential; may be empty when the provider withheld one.
	Scope        string       // Space-delimited grant string as returned by the provider.
	TokenType    string       // Usually "Bearer".
	AccountEmail string       // Provider account the connection belongs to, for display.
	ExpiresAt    time.Time    // Access token expiry.
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// UsableAt reports whether the access token is still usable at the given
// instant, honouring the expiry buffer.
func (t *OAuthToken) UsableAt(now time.Time) bool {
	return now.Before(t.ExpiresAt.Add(-ExpiryBuffer))
}

// Scopes splits the space-delimited grant string into individual scopes.
func (t *OAuthToken) Scopes() []string {
	return SplitScopes(t.Scope)
}

// SplitScopes splits a space-delimited OAuth scope string, dropping empties.
func SplitScopes(scope string) []string {
	fields := strings.Fields(scope)
	if len(fields) == 0 {
		return nil
	}

	return fields
}

// TokenRefreshEvent journals one refresh attempt. Append-only; feeds the
// security-monitoring views downstream.
type TokenRefreshEvent struct {
	ID        uuid.UUID
	UserID    uuid.UUID
	Provider  ProviderType
	Success   bool
	ErrorKind string // Empty on success, otherwise the classified error kind.
	LatencyMS int64
	CreatedAt time.Time
}
