package impl

import (
	"context"
	"testing"
	"time"

	"briefly/internal/domain/entity"
	domainerrors "briefly/internal/domain/errors"
	"briefly/internal/domain/service"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type pickerFixture struct {
	svc    *pickerService
	tokens *fakeTokenRepo
	audit  *recordingAudit
	clock  *fixedClock
	userID uuid.UUID
}

func newPickerFixture(t *testing.T) *pickerFixture {
	t.Helper()

	repo := newFakeTokenRepo()
	events := &fakeRefreshEventRepo{}
	provider := &fakeProviderClient{provider: entity.ProviderGoogle}
	clock := newFixedClock(time.Date(2026, 8, 24, 12, 0, 0, 0, time.UTC))
	audit := &recordingAudit{}

	tokenSvc := &tokenService{
		tokenRepo: repo,
		txManager: &fakeTxManager{tokenRepo: repo, recoveryRepo: newFakeRecoveryRepo(), refreshEventRepo: events},
		providers: map[entity.ProviderType]service.ProviderClient{entity.ProviderGoogle: provider},
		logger:    testLogger(),
		now:       clock.Now,
	}

	svc := &pickerService{
		tokenUsecase: tokenSvc,
		scopeUsecase: NewScopeService(),
		auditUsecase: audit,
		idGen:        &seqIDGen{},
		maxLifetime:  3600,
		logger:       testLogger(),
		now:          clock.Now,
		grants:       map[string]*entity.PickerGrant{},
	}

	return &pickerFixture{svc: svc, tokens: repo, audit: audit, clock: clock, userID: uuid.New()}
}

func (f *pickerFixture) connect(t *testing.T, scope string, expiresIn time.Duration) {
	t.Helper()

	require.NoError(t, f.tokens.SaveToken(context.Background(), &entity.OAuthToken{
		UserID:       f.userID,
		Provider:     entity.ProviderGoogle,
		AccessToken:  "access-token",
		RefreshToken: "refresh-token",
		Scope:        scope,
		TokenType:    "Bearer",
		ExpiresAt:    f.clock.Now().Add(expiresIn),
	}))
}

const fullGoogleScope = "https://www.googleapis.com/auth/drive.readonly https://www.googleapis.com/auth/userinfo.email"

func TestPickerService_GeneratePickerToken(t *testing.T) {
	t.Parallel()

	f := newPickerFixture(t)
	f.connect(t, fullGoogleScope, 2*time.Hour)

	token, err := f.svc.GeneratePickerToken(context.Background(), f.userID, "203.0.113.7", nil)
	require.NoError(t, err)

	assert.Equal(t, "access-token", token.AccessToken)
	assert.Equal(t, 3600, token.ExpiresIn)
	assert.NotEmpty(t, token.TokenID)
	assert.True(t, token.SecurityMetadata.ScopeValidated)
	assert.Equal(t, 3600, token.SecurityMetadata.MaxLifetime)
	require.NoError(t, f.svc.ValidatePickerTokenResponse(token))

	// Exactly one security entry per attempt.
	require.Len(t, f.audit.security, 1)
	assert.True(t, f.audit.security[0].Success)
	assert.Equal(t, "token_generated", f.audit.security[0].Kind)
	assert.Equal(t, token.TokenID, f.audit.security[0].CorrelationID)
}

func TestPickerService_LifetimeCappedByRequestAndTokenExpiry(t *testing.T) {
	t.Parallel()

	t.Run("request below cap wins", func(t *testing.T) {
		t.Parallel()

		f := newPickerFixture(t)
		f.connect(t, fullGoogleScope, 2*time.Hour)

		token, err := f.svc.GeneratePickerToken(context.Background(), f.userID, "", &entity.SecureTokenOptions{MaxLifetimeSeconds: 600})
		require.NoError(t, err)
		assert.Equal(t, 600, token.ExpiresIn)
	})

	t.Run("request above cap is clamped", func(t *testing.T) {
		t.Parallel()

		f := newPickerFixture(t)
		f.connect(t, fullGoogleScope, 2*time.Hour)

		token, err := f.svc.GeneratePickerToken(context.Background(), f.userID, "", &entity.SecureTokenOptions{MaxLifetimeSeconds: 7200})
		require.NoError(t, err)
		assert.Equal(t, 3600, token.ExpiresIn)
	})

	t.Run("underlying expiry bounds the promise", func(t *testing.T) {
		t.Parallel()

		f := newPickerFixture(t)
		f.connect(t, fullGoogleScope, 20*time.Minute)

		token, err := f.svc.GeneratePickerToken(context.Background(), f.userID, "", nil)
		require.NoError(t, err)
		assert.LessOrEqual(t, token.ExpiresIn, 20*60)
	})
}

func TestPickerService_MissingScopesDenied(t *testing.T) {
	t.Parallel()

	f := newPickerFixture(t)
	// Connected, but the grant lacks the drive scope.
	f.connect(t, "https://www.googleapis.com/auth/userinfo.email", 2*time.Hour)

	_, err := f.svc.GeneratePickerToken(context.Background(), f.userID, "", nil)

	var tokenErr *domainerrors.TokenError
	require.ErrorAs(t, err, &tokenErr)
	assert.Equal(t, entity.ErrKindInvalidCredentials, tokenErr.Kind())

	info := tokenErr.Info()
	assert.True(t, info.RequiresReauth)
	assert.False(t, info.CanRetry, "reauth and retry are mutually exclusive")

	// The denial still produced its single audit entry.
	require.Len(t, f.audit.security, 1)
	assert.False(t, f.audit.security[0].Success)
}

func TestPickerService_NotConnectedDenied(t *testing.T) {
	t.Parallel()

	f := newPickerFixture(t)

	_, err := f.svc.GeneratePickerToken(context.Background(), f.userID, "", nil)

	var tokenErr *domainerrors.TokenError
	require.ErrorAs(t, err, &tokenErr)
	assert.Equal(t, entity.ErrKindTokenNotFound, tokenErr.Kind())
	require.Len(t, f.audit.security, 1)
	assert.False(t, f.audit.security[0].Success)
}

func TestPickerService_ValidatePickerTokenResponse(t *testing.T) {
	t.Parallel()

	f := newPickerFixture(t)

	base := &entity.SecureToken{
		AccessToken: "a",
		ExpiresIn:   600,
		TokenID:     "t",
		SecurityMetadata: entity.SecurityMetadata{
			ScopeValidated: true,
		},
	}
	require.NoError(t, f.svc.ValidatePickerTokenResponse(base))

	cases := []struct {
		name   string
		mutate func(*entity.SecureToken)
	}{
		{"empty access token", func(tok *entity.SecureToken) { tok.AccessToken = "" }},
		{"empty token id", func(tok *entity.SecureToken) { tok.TokenID = "" }},
		{"zero lifetime", func(tok *entity.SecureToken) { tok.ExpiresIn = 0 }},
		{"lifetime above cap", func(tok *entity.SecureToken) { tok.ExpiresIn = 7200 }},
		{"scope not validated", func(tok *entity.SecureToken) { tok.SecurityMetadata.ScopeValidated = false }},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			tok := *base
			tc.mutate(&tok)
			err := f.svc.ValidatePickerTokenResponse(&tok)
			assert.ErrorIs(t, err, ErrPickerTokenInvalid)
		})
	}

	assert.ErrorIs(t, f.svc.ValidatePickerTokenResponse(nil), ErrPickerTokenInvalid)
}

func TestPickerService_CleanupRevokesOnlyOwnGrants(t *testing.T) {
	t.Parallel()

	f := newPickerFixture(t)
	f.connect(t, fullGoogleScope, 2*time.Hour)

	otherUser := uuid.New()
	require.NoError(t, f.tokens.SaveToken(context.Background(), &entity.OAuthToken{
		UserID: otherUser, Provider: entity.ProviderGoogle,
		AccessToken: "x", RefreshToken: "y", Scope: fullGoogleScope,
		TokenType: "Bearer", ExpiresAt: f.clock.Now().Add(2 * time.Hour),
	}))

	_, err := f.svc.GeneratePickerToken(context.Background(), f.userID, "", nil)
	require.NoError(t, err)
	_, err = f.svc.GeneratePickerToken(context.Background(), otherUser, "", nil)
	require.NoError(t, err)

	revoked := f.svc.CleanupUserPickerTokens(context.Background(), f.userID)
	assert.Equal(t, 1, revoked)

	// Idempotent: nothing left to revoke, no extra privacy event.
	require.Len(t, f.audit.privacy, 1)
	assert.Equal(t, "picker_grants_revoked", f.audit.privacy[0].Kind)
	assert.Zero(t, f.svc.CleanupUserPickerTokens(context.Background(), f.userID))
	assert.Len(t, f.audit.privacy, 1)
}
