package impl

import (
	"testing"

	"briefly/internal/domain/entity"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestScopeService_ValidateTokenScope(t *testing.T) {
	t.Parallel()

	svc := NewScopeService()

	t.Run("full grant is valid", func(t *testing.T) {
		t.Parallel()

		token := &entity.OAuthToken{
			Provider: entity.ProviderGoogle,
			Scope:    "https://www.googleapis.com/auth/drive.readonly https://www.googleapis.com/auth/userinfo.email",
		}

		result := svc.ValidateTokenScope(token)
		assert.True(t, result.IsValid)
		assert.Empty(t, result.MissingScopes)
		assert.True(t, result.HasMinimalPermissions)
	})

	t.Run("missing drive scope", func(t *testing.T) {
		t.Parallel()

		token := &entity.OAuthToken{
			Provider: entity.ProviderGoogle,
			Scope:    "https://www.googleapis.com/auth/userinfo.email",
		}

		result := svc.ValidateTokenScope(token)
		assert.False(t, result.IsValid)
		require.Len(t, result.MissingScopes, 1)
		assert.Contains(t, result.MissingScopes[0], "drive.readonly")
		assert.False(t, result.HasMinimalPermissions)
	})

	t.Run("graph scopes match bare and qualified spellings", func(t *testing.T) {
		t.Parallel()

		token := &entity.OAuthToken{
			Provider: entity.ProviderMicrosoft,
			Scope:    "https://graph.microsoft.com/Files.Read.All User.Read offline_access",
		}

		result := svc.ValidateTokenScope(token)
		assert.True(t, result.IsValid)
		assert.True(t, result.HasMinimalPermissions)
	})
}

func TestScopeService_ValidateOAuthScope(t *testing.T) {
	t.Parallel()

	svc := NewScopeService()

	t.Run("missing required scope is high risk and invalid", func(t *testing.T) {
		t.Parallel()

		result := svc.ValidateOAuthScope(entity.ProviderGoogle, []string{
			"https://www.googleapis.com/auth/userinfo.email",
		})

		assert.False(t, result.IsValid)
		assert.Equal(t, entity.SeverityHigh, result.RiskLevel)
		assert.NotEmpty(t, result.Violations)
	})

	t.Run("broad scope is flagged at medium risk but stays valid", func(t *testing.T) {
		t.Parallel()

		result := svc.ValidateOAuthScope(entity.ProviderGoogle, []string{
			"https://www.googleapis.com/auth/drive.readonly",
			"https://www.googleapis.com/auth/userinfo.email",
			"https://www.googleapis.com/auth/drive",
		})

		assert.True(t, result.IsValid)
		assert.Equal(t, entity.SeverityMedium, result.RiskLevel)
		require.Len(t, result.Violations, 1)
		assert.Contains(t, result.Violations[0], "broader than necessary")
	})

	t.Run("exact grant is low risk with no violations", func(t *testing.T) {
		t.Parallel()

		result := svc.ValidateOAuthScope(entity.ProviderMicrosoft, []string{
			"Files.Read.All", "User.Read", "offline_access",
		})

		assert.True(t, result.IsValid)
		assert.Equal(t, entity.SeverityLow, result.RiskLevel)
		assert.Empty(t, result.Violations)
	})
}
