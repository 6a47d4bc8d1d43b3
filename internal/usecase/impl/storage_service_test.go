package impl

import (
	"context"
	"testing"
	"time"

	"briefly/internal/domain/entity"
	domainerrors "briefly/internal/domain/errors"
	"briefly/internal/domain/service"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeStateStore hands out sequential states and redeems each one once.
type fakeStateStore struct {
	n       int
	pending map[string]uuid.UUID
}

func newFakeStateStore() *fakeStateStore {
	return &fakeStateStore{pending: map[string]uuid.UUID{}}
}

func (s *fakeStateStore) Issue(userID uuid.UUID) (string, error) {
	s.n++
	state := "state-" + uuid.NewString()
	s.pending[state] = userID

	return state, nil
}

func (s *fakeStateStore) Consume(state string) (uuid.UUID, bool) {
	userID, ok := s.pending[state]
	if ok {
		delete(s.pending, state)
	}

	return userID, ok
}

type fakeQRService struct{ err error }

func (q *fakeQRService) GenerateConnectQR(string) ([]byte, error) {
	if q.err != nil {
		return nil, q.err
	}

	return []byte("png-bytes"), nil
}

type fakeLister struct {
	provider entity.ProviderType
	files    []*entity.DriveFile
	err      error
	gotToken string
	gotLimit int
}

func (l *fakeLister) Provider() entity.ProviderType { return l.provider }

func (l *fakeLister) ListDocuments(_ context.Context, accessToken string, limit int) ([]*entity.DriveFile, error) {
	l.gotToken = accessToken
	l.gotLimit = limit

	return l.files, l.err
}

type storageFixture struct {
	svc      *storageService
	tokens   *fakeTokenRepo
	provider *fakeProviderClient
	lister   *fakeLister
	states   *fakeStateStore
	recovery *fakeRecoveryRepo
	audit    *recordingAudit
	picker   *pickerService
	clock    *fixedClock
	userID   uuid.UUID
}

func newStorageFixture(t *testing.T) *storageFixture {
	t.Helper()

	repo := newFakeTokenRepo()
	recoveryRepo := newFakeRecoveryRepo()
	provider := &fakeProviderClient{provider: entity.ProviderGoogle}
	lister := &fakeLister{provider: entity.ProviderGoogle}
	clock := newFixedClock(time.Date(2026, 8, 24, 12, 0, 0, 0, time.UTC))
	audit := &recordingAudit{}
	states := newFakeStateStore()

	tokenSvc := &tokenService{
		tokenRepo: repo,
		txManager: &fakeTxManager{tokenRepo: repo, recoveryRepo: recoveryRepo, refreshEventRepo: &fakeRefreshEventRepo{}},
		providers: map[entity.ProviderType]service.ProviderClient{entity.ProviderGoogle: provider},
		logger:    testLogger(),
		now:       clock.Now,
	}
	scopeSvc := NewScopeService()
	pickerSvc := &pickerService{
		tokenUsecase: tokenSvc,
		scopeUsecase: scopeSvc,
		auditUsecase: audit,
		idGen:        &seqIDGen{},
		maxLifetime:  3600,
		logger:       testLogger(),
		now:          clock.Now,
		grants:       map[string]*entity.PickerGrant{},
	}
	recoverySvc := &recoveryService{
		recoveryRepo: recoveryRepo,
		now:          clock.Now,
	}

	svc := &storageService{
		providers:       map[entity.ProviderType]service.ProviderClient{entity.ProviderGoogle: provider},
		listers:         map[entity.ProviderType]service.DriveLister{entity.ProviderGoogle: lister},
		stateStore:      states,
		qrService:       &fakeQRService{},
		tokenUsecase:    tokenSvc,
		scopeUsecase:    scopeSvc,
		pickerUsecase:   pickerSvc,
		recoveryUsecase: recoverySvc,
		auditUsecase:    audit,
		logger:          testLogger(),
		now:             clock.Now,
	}

	return &storageFixture{
		svc:      svc,
		tokens:   repo,
		provider: provider,
		lister:   lister,
		states:   states,
		recovery: recoveryRepo,
		audit:    audit,
		picker:   pickerSvc,
		clock:    clock,
		userID:   uuid.New(),
	}
}

func (f *storageFixture) goodGrant() *service.TokenGrant {
	return &service.TokenGrant{
		AccessToken:  "fresh-access",
		RefreshToken: "fresh-refresh",
		Scope:        fullGoogleScope,
		TokenType:    "Bearer",
		AccountEmail: "user@example.com",
		ExpiresAt:    f.clock.Now().Add(time.Hour),
	}
}

func TestStorageService_AuthorizationURL(t *testing.T) {
	t.Parallel()

	f := newStorageFixture(t)

	url, err := f.svc.AuthorizationURL(context.Background(), f.userID, entity.ProviderGoogle)
	require.NoError(t, err)
	assert.Contains(t, url, "state=state-")

	_, err = f.svc.AuthorizationURL(context.Background(), f.userID, entity.ProviderType("dropbox"))
	assert.ErrorIs(t, err, domainerrors.ErrProviderUnknown)
}

func TestStorageService_ConnectQR(t *testing.T) {
	t.Parallel()

	f := newStorageFixture(t)

	png, err := f.svc.ConnectQR(context.Background(), f.userID, entity.ProviderGoogle)
	require.NoError(t, err)
	assert.Equal(t, []byte("png-bytes"), png)
}

func TestStorageService_HandleCallback(t *testing.T) {
	t.Parallel()

	f := newStorageFixture(t)
	f.provider.exchange = f.goodGrant()

	state, err := f.states.Issue(f.userID)
	require.NoError(t, err)

	conn, err := f.svc.HandleCallback(context.Background(), entity.ProviderGoogle, state, "auth-code")
	require.NoError(t, err)
	assert.True(t, conn.Connected)
	assert.Equal(t, entity.ProviderGoogle, conn.Provider)
	assert.Equal(t, "user@example.com", conn.AccountEmail)

	stored, err := f.tokens.GetToken(context.Background(), f.userID, entity.ProviderGoogle)
	require.NoError(t, err)
	assert.Equal(t, "fresh-access", stored.AccessToken)
	assert.Equal(t, "fresh-refresh", stored.RefreshToken)
	assert.Equal(t, fullGoogleScope, stored.Scope)

	// Connection success leaves a security audit trail.
	require.Len(t, f.audit.security, 1)
	assert.Equal(t, "token_generated", f.audit.security[0].Kind)
	assert.True(t, f.audit.security[0].Success)

	// The state was single-use.
	_, err = f.svc.HandleCallback(context.Background(), entity.ProviderGoogle, state, "auth-code")
	assert.ErrorIs(t, err, domainerrors.ErrOAuthStateInvalid)
}

func TestStorageService_HandleCallbackRejectsBadInput(t *testing.T) {
	t.Parallel()

	f := newStorageFixture(t)
	ctx := context.Background()

	_, err := f.svc.HandleCallback(ctx, entity.ProviderGoogle, "never-issued", "code")
	assert.ErrorIs(t, err, domainerrors.ErrOAuthStateInvalid)

	state, issueErr := f.states.Issue(f.userID)
	require.NoError(t, issueErr)
	_, err = f.svc.HandleCallback(ctx, entity.ProviderGoogle, state, "")
	assert.ErrorIs(t, err, domainerrors.ErrOAuthCodeInvalid)

	state, issueErr = f.states.Issue(f.userID)
	require.NoError(t, issueErr)
	f.provider.exchangeErr = errors.New("invalid_grant")
	_, err = f.svc.HandleCallback(ctx, entity.ProviderGoogle, state, "bad-code")
	assert.ErrorIs(t, err, domainerrors.ErrOAuthCodeInvalid)
}

func TestStorageService_HandleCallbackScopeEnforcement(t *testing.T) {
	t.Parallel()

	t.Run("missing required scope is rejected", func(t *testing.T) {
		t.Parallel()

		f := newStorageFixture(t)
		grant := f.goodGrant()
		grant.Scope = "https://www.googleapis.com/auth/userinfo.email"
		f.provider.exchange = grant

		state, err := f.states.Issue(f.userID)
		require.NoError(t, err)

		_, err = f.svc.HandleCallback(context.Background(), entity.ProviderGoogle, state, "code")

		var tokenErr *domainerrors.TokenError
		require.ErrorAs(t, err, &tokenErr)
		assert.Equal(t, entity.ErrKindPermissionDenied, tokenErr.Kind())

		// The violation was audited and nothing was stored.
		require.Len(t, f.audit.security, 1)
		assert.Equal(t, "scope_violation", f.audit.security[0].Kind)
		assert.Zero(t, f.tokens.count())
	})

	t.Run("broad grant is audited but accepted", func(t *testing.T) {
		t.Parallel()

		f := newStorageFixture(t)
		grant := f.goodGrant()
		grant.Scope = fullGoogleScope + " https://www.googleapis.com/auth/drive"
		f.provider.exchange = grant

		state, err := f.states.Issue(f.userID)
		require.NoError(t, err)

		_, err = f.svc.HandleCallback(context.Background(), entity.ProviderGoogle, state, "code")
		require.NoError(t, err)

		// scope_violation at medium risk, then the success entry.
		require.Len(t, f.audit.security, 2)
		assert.Equal(t, "scope_violation", f.audit.security[0].Kind)
		assert.Equal(t, entity.SeverityMedium, f.audit.security[0].RiskLevel)
		assert.Equal(t, "token_generated", f.audit.security[1].Kind)
		assert.Equal(t, 1, f.tokens.count())
	})
}

func TestStorageService_HandleCallbackClearsRecovery(t *testing.T) {
	t.Parallel()

	f := newStorageFixture(t)
	f.provider.exchange = f.goodGrant()
	ctx := context.Background()

	recoverySvc := f.svc.recoveryUsecase
	_, err := recoverySvc.StartRecovery(ctx, f.userID, entity.ErrKindRefreshTokenExpired)
	require.NoError(t, err)

	state, err := f.states.Issue(f.userID)
	require.NoError(t, err)
	_, err = f.svc.HandleCallback(ctx, entity.ProviderGoogle, state, "code")
	require.NoError(t, err)

	_, _, err = recoverySvc.GetProgress(ctx, f.userID)
	assert.ErrorIs(t, err, domainerrors.ErrNoActiveRecovery)
}

func TestStorageService_Status(t *testing.T) {
	t.Parallel()

	f := newStorageFixture(t)
	ctx := context.Background()

	conns, err := f.svc.Status(ctx, f.userID)
	require.NoError(t, err)
	for _, conn := range conns {
		assert.False(t, conn.Connected)
	}

	require.NoError(t, f.tokens.SaveToken(ctx, &entity.OAuthToken{
		UserID: f.userID, Provider: entity.ProviderGoogle,
		AccessToken: "a", RefreshToken: "r", Scope: fullGoogleScope,
		TokenType: "Bearer", ExpiresAt: f.clock.Now().Add(time.Hour),
		AccountEmail: "user@example.com",
	}))

	conns, err = f.svc.Status(ctx, f.userID)
	require.NoError(t, err)
	byProvider := map[entity.ProviderType]*entity.StorageConnection{}
	for _, conn := range conns {
		byProvider[conn.Provider] = conn
	}
	require.Contains(t, byProvider, entity.ProviderGoogle)
	assert.True(t, byProvider[entity.ProviderGoogle].Connected)
	assert.Equal(t, "user@example.com", byProvider[entity.ProviderGoogle].AccountEmail)
}

func TestStorageService_ListFiles(t *testing.T) {
	t.Parallel()

	f := newStorageFixture(t)
	ctx := context.Background()

	require.NoError(t, f.tokens.SaveToken(ctx, &entity.OAuthToken{
		UserID: f.userID, Provider: entity.ProviderGoogle,
		AccessToken: "list-access", RefreshToken: "r", Scope: fullGoogleScope,
		TokenType: "Bearer", ExpiresAt: f.clock.Now().Add(time.Hour),
	}))
	f.lister.files = []*entity.DriveFile{
		{ID: "f1", Name: "notes.pdf", MimeType: "application/pdf"},
	}

	files, err := f.svc.ListFiles(ctx, f.userID, entity.ProviderGoogle, 25, "203.0.113.7")
	require.NoError(t, err)
	require.Len(t, files, 1)
	assert.Equal(t, "list-access", f.lister.gotToken)
	assert.Equal(t, 25, f.lister.gotLimit)

	require.Len(t, f.audit.accesses, 1)
	access := f.audit.accesses[0]
	assert.Equal(t, "list", access.Action)
	assert.Equal(t, fullGoogleScope, access.ScopeUsed)
	assert.Equal(t, "203.0.113.7", access.ClientIP)
}

func TestStorageService_ListFilesNotConnected(t *testing.T) {
	t.Parallel()

	f := newStorageFixture(t)

	_, err := f.svc.ListFiles(context.Background(), f.userID, entity.ProviderGoogle, 25, "")

	var tokenErr *domainerrors.TokenError
	require.ErrorAs(t, err, &tokenErr)
	assert.Equal(t, entity.ErrKindTokenNotFound, tokenErr.Kind())
	assert.Empty(t, f.audit.accesses)
}

func TestStorageService_Disconnect(t *testing.T) {
	t.Parallel()

	f := newStorageFixture(t)
	ctx := context.Background()

	require.NoError(t, f.tokens.SaveToken(ctx, &entity.OAuthToken{
		UserID: f.userID, Provider: entity.ProviderGoogle,
		AccessToken: "a", RefreshToken: "r", Scope: fullGoogleScope,
		TokenType: "Bearer", ExpiresAt: f.clock.Now().Add(time.Hour),
	}))

	// Outstanding picker grant and recovery progress both go away.
	_, err := f.picker.GeneratePickerToken(ctx, f.userID, "", nil)
	require.NoError(t, err)
	_, err = f.svc.recoveryUsecase.StartRecovery(ctx, f.userID, entity.ErrKindNetworkError)
	require.NoError(t, err)

	require.NoError(t, f.svc.Disconnect(ctx, f.userID, entity.ProviderGoogle))

	assert.Zero(t, f.tokens.count())
	_, _, err = f.svc.recoveryUsecase.GetProgress(ctx, f.userID)
	assert.ErrorIs(t, err, domainerrors.ErrNoActiveRecovery)
	assert.Zero(t, f.picker.CleanupUserPickerTokens(ctx, f.userID))

	// Privacy trail: grants revoked during disconnect, then tokens deleted.
	require.Len(t, f.audit.privacy, 2)
	assert.Equal(t, "picker_grants_revoked", f.audit.privacy[0].Kind)
	assert.Equal(t, "tokens_deleted", f.audit.privacy[1].Kind)

	// Disconnecting again is a no-op, aside from the privacy entry.
	require.NoError(t, f.svc.Disconnect(ctx, f.userID, entity.ProviderGoogle))
	assert.ErrorIs(t,
		f.svc.Disconnect(ctx, f.userID, entity.ProviderType("dropbox")),
		domainerrors.ErrProviderUnknown,
	)
}
