package usecase

import (
	"briefly/internal/domain/entity"
)

// TokenScopeValidation is the result of checking a stored token's grant
// against the scopes a provider integration requires.
type TokenScopeValidation struct {
	IsValid               bool     `json:"isValid"`
	MissingScopes         []string `json:"missingScopes,omitempty"`
	HasMinimalPermissions bool     `json:"hasMinimalPermissions"`
}

// OAuthScopeValidation is the result of checking a scope set requested or
// granted during the OAuth flow itself.
type OAuthScopeValidation struct {
	IsValid    bool            `json:"isValid"`
	Violations []string        `json:"violations,omitempty"`
	RiskLevel  entity.Severity `json:"riskLevel"`
}

// ScopeUsecase validates OAuth grants against the per-provider scope policy.
// Validation is pure computation; persistence of violations belongs to the
// flow monitor.
type ScopeUsecase interface {
	// ValidateTokenScope checks a stored token's grant string.
	ValidateTokenScope(token *entity.OAuthToken) *TokenScopeValidation

	// ValidateOAuthScope checks a raw scope set for a provider. Missing
	// required scopes invalidate the set (high risk); broader-than-necessary
	// scopes are flagged as violations at medium risk but do not invalidate.
	ValidateOAuthScope(provider entity.ProviderType, scopes []string) *OAuthScopeValidation

	// RequiredScopes returns the scope set a provider connection must carry.
	RequiredScopes(provider entity.ProviderType) []string
}
