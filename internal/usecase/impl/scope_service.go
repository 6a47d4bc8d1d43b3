package impl

import (
	"strings"

	"briefly/internal/domain/entity"
	"briefly/internal/usecase"
)

// Per-provider scope policy. Required scopes must all be present on a stored
// token; broad scopes grant more than the document-chat feature needs and are
// flagged, not blocked.
var (
	requiredScopesByProvider = map[entity.ProviderType][]string{
		entity.ProviderGoogle: {
			"https://www.googleapis.com/auth/drive.readonly",
			"https://www.googleapis.com/auth/userinfo.email",
		},
		entity.ProviderMicrosoft: {
			"Files.Read.All",
			"User.Read",
		},
	}

	// minimalReadScopeByProvider is the one scope that proves read access to
	// files, the minimum for the picker to work at all.
	minimalReadScopeByProvider = map[entity.ProviderType]string{
		entity.ProviderGoogle:    "https://www.googleapis.com/auth/drive.readonly",
		entity.ProviderMicrosoft: "Files.Read.All",
	}

	broadScopesByProvider = map[entity.ProviderType][]string{
		entity.ProviderGoogle: {
			"https://www.googleapis.com/auth/drive",
			"https://www.googleapis.com/auth/drive.file",
		},
		entity.ProviderMicrosoft: {
			"Files.ReadWrite.All",
			"Files.ReadWrite",
			"Sites.ReadWrite.All",
		},
	}
)

type scopeService struct{}

// NewScopeService creates the scope validator.
func NewScopeService() usecase.ScopeUsecase {
	return &scopeService{}
}

// RequiredScopes returns the scope set a provider connection must carry.
func (s *scopeService) RequiredScopes(provider entity.ProviderType) []string {
	required := requiredScopesByProvider[provider]
	out := make([]string, len(required))
	copy(out, required)

	return out
}

// ValidateTokenScope checks a stored token's grant string against the
// provider's required set.
func (s *scopeService) ValidateTokenScope(token *entity.OAuthToken) *usecase.TokenScopeValidation {
	granted := normalizeScopes(token.Provider, token.Scopes())

	var missing []string
	for _, required := range requiredScopesByProvider[token.Provider] {
		if !granted[normalizeScope(token.Provider, required)] {
			missing = append(missing, required)
		}
	}

	minimal := minimalReadScopeByProvider[token.Provider]

	return &usecase.TokenScopeValidation{
		IsValid:               len(missing) == 0,
		MissingScopes:         missing,
		HasMinimalPermissions: granted[normalizeScope(token.Provider, minimal)],
	}
}

// ValidateOAuthScope checks a raw scope set for a provider. Missing required
// scopes invalidate the set at high risk; broader-than-necessary scopes are
// reported as violations at medium risk but stay valid, since blocking an
// over-broad grant the user already consented to helps nobody.
func (s *scopeService) ValidateOAuthScope(provider entity.ProviderType, scopes []string) *usecase.OAuthScopeValidation {
	granted := normalizeScopes(provider, scopes)

	result := &usecase.OAuthScopeValidation{
		IsValid:   true,
		RiskLevel: entity.SeverityLow,
	}

	for _, required := range requiredScopesByProvider[provider] {
		if !granted[normalizeScope(provider, required)] {
			result.IsValid = false
			result.RiskLevel = entity.SeverityHigh
			result.Violations = append(result.Violations, "missing required scope: "+required)
		}
	}

	for _, broad := range broadScopesByProvider[provider] {
		if granted[normalizeScope(provider, broad)] {
			if result.RiskLevel == entity.SeverityLow {
				result.RiskLevel = entity.SeverityMedium
			}
			result.Violations = append(result.Violations, "broader than necessary scope: "+broad)
		}
	}

	return result
}

// normalizeScope folds the provider's equivalent spellings of a scope into
// one. Graph scopes come back both bare ("Files.Read.All") and fully
// qualified ("https://graph.microsoft.com/Files.Read.All").
func normalizeScope(provider entity.ProviderType, scope string) string {
	if provider == entity.ProviderMicrosoft {
		scope = strings.TrimPrefix(scope, "https://graph.microsoft.com/")
	}

	return strings.ToLower(scope)
}

func normalizeScopes(provider entity.ProviderType, scopes []string) map[string]bool {
	set := make(map[string]bool, len(scopes))
	for _, scope := range scopes {
		set[normalizeScope(provider, scope)] = true
	}

	return set
}
