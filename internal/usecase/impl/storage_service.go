package impl

import (
	"context"
	"log/slog"
	"strings"
	"time"

	deliverycontext "briefly/internal/delivery/context"
	"briefly/internal/domain/entity"
	domainerrors "briefly/internal/domain/errors"
	"briefly/internal/domain/service"
	"briefly/internal/usecase"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"go.uber.org/fx"
)

type storageService struct {
	providers       map[entity.ProviderType]service.ProviderClient
	listers         map[entity.ProviderType]service.DriveLister
	stateStore      service.OAuthStateStore
	qrService       service.QRCodeService
	tokenUsecase    usecase.TokenUsecase
	scopeUsecase    usecase.ScopeUsecase
	pickerUsecase   usecase.PickerUsecase
	recoveryUsecase usecase.RecoveryUsecase
	auditUsecase    usecase.AuditUsecase
	logger          *slog.Logger
	now             func() time.Time
}

// StorageServiceParams holds dependencies for StorageService, injected by Fx.
type StorageServiceParams struct {
	fx.In

	Providers       []service.ProviderClient `group:"providers"`
	Listers         []service.DriveLister    `group:"listers"`
	StateStore      service.OAuthStateStore
	QRService       service.QRCodeService
	TokenUsecase    usecase.TokenUsecase
	ScopeUsecase    usecase.ScopeUsecase
	PickerUsecase   usecase.PickerUsecase
	RecoveryUsecase usecase.RecoveryUsecase
	AuditUsecase    usecase.AuditUsecase
	Logger          *slog.Logger
}

// NewStorageService creates the storage-connection lifecycle service.
func NewStorageService(params StorageServiceParams) usecase.StorageUsecase {
	providers := make(map[entity.ProviderType]service.ProviderClient, len(params.Providers))
	for _, client := range params.Providers {
		providers[client.Provider()] = client
	}
	listers := make(map[entity.ProviderType]service.DriveLister, len(params.Listers))
	for _, lister := range params.Listers {
		listers[lister.Provider()] = lister
	}

	return &storageService{
		providers:       providers,
		listers:         listers,
		stateStore:      params.StateStore,
		qrService:       params.QRService,
		tokenUsecase:    params.TokenUsecase,
		scopeUsecase:    params.ScopeUsecase,
		pickerUsecase:   params.PickerUsecase,
		recoveryUsecase: params.RecoveryUsecase,
		auditUsecase:    params.AuditUsecase,
		logger:          params.Logger,
		now:             time.Now,
	}
}

// AuthorizationURL starts the connect flow and returns the provider consent
// URL with a single-use state bound to the user.
func (s *storageService) AuthorizationURL(_ context.Context, userID uuid.UUID, provider entity.ProviderType) (string, error) {
	client, ok := s.providers[provider]
	if !ok {
		return "", domainerrors.ErrProviderUnknown
	}

	state, err := s.stateStore.Issue(userID)
	if err != nil {
		return "", errors.Wrap(err, "failed to issue oauth state")
	}

	return client.AuthCodeURL(state), nil
}

// ConnectQR renders the consent URL as a PNG QR code for mobile handoff.
func (s *storageService) ConnectQR(ctx context.Context, userID uuid.UUID, provider entity.ProviderType) ([]byte, error) {
	authURL, err := s.AuthorizationURL(ctx, userID, provider)
	if err != nil {
		return nil, err
	}

	png, err := s.qrService.GenerateConnectQR(authURL)
	if err != nil {
		return nil, errors.Wrap(err, "failed to render connect QR")
	}

	return png, nil
}

// HandleCallback redeems the state, exchanges the code and stores the token.
// The provider is known from the callback route.
func (s *storageService) HandleCallback(ctx context.Context, provider entity.ProviderType, state, code string) (*entity.StorageConnection, error) {
	client, ok := s.providers[provider]
	if !ok {
		return nil, domainerrors.ErrProviderUnknown
	}

	userID, redeemed := s.stateStore.Consume(state)
	if !redeemed {
		return nil, domainerrors.ErrOAuthStateInvalid
	}
	if code == "" {
		return nil, domainerrors.ErrOAuthCodeInvalid
	}

	grant, err := client.Exchange(ctx, code)
	if err != nil {
		return nil, domainerrors.ErrOAuthCodeInvalid.WithDetails(err.Error())
	}

	logger := deliverycontext.GetLoggerOrDefault(ctx, s.logger)

	// An over-broad grant is logged, not rejected: the user already
	// consented, and blocking here would strand them mid-flow.
	scopeCheck := s.scopeUsecase.ValidateOAuthScope(provider, entity.SplitScopes(grant.Scope))
	if len(scopeCheck.Violations) > 0 {
		s.auditUsecase.LogSecurityEvent(ctx, &entity.SecurityEvent{
			UserID:    userID,
			Provider:  provider,
			Kind:      "scope_violation",
			Success:   scopeCheck.IsValid,
			RiskLevel: scopeCheck.RiskLevel,
			Detail:    strings.Join(scopeCheck.Violations, "; "),
		})
	}
	if !scopeCheck.IsValid {
		return nil, domainerrors.NewTokenError(entity.ErrKindPermissionDenied, provider,
			"grant is missing required scopes", nil)
	}

	token := &entity.OAuthToken{
		UserID:       userID,
		Provider:     provider,
		AccessToken:  grant.AccessToken,
		RefreshToken: grant.RefreshToken,
		Scope:        grant.Scope,
		TokenType:    grant.TokenType,
		AccountEmail: grant.AccountEmail,
		ExpiresAt:    grant.ExpiresAt,
	}
	if err := s.tokenUsecase.SaveToken(ctx, token); err != nil {
		return nil, err
	}

	// A fresh connection supersedes whatever recovery was in progress.
	if err := s.recoveryUsecase.ClearRecovery(ctx, userID); err != nil {
		logger.LogAttrs(ctx, slog.LevelWarn, "Failed to clear recovery after reconnect",
			slog.String("error", err.Error()),
		)
	}

	s.auditUsecase.LogSecurityEvent(ctx, &entity.SecurityEvent{
		UserID:    userID,
		Provider:  provider,
		Kind:      "token_generated",
		Success:   true,
		RiskLevel: entity.SeverityLow,
		Detail:    "storage connection established",
	})

	return &entity.StorageConnection{
		Provider:     provider,
		Connected:    true,
		AccountEmail: grant.AccountEmail,
	}, nil
}

// Status reports the connection state for every supported provider.
func (s *storageService) Status(ctx context.Context, userID uuid.UUID) ([]*entity.StorageConnection, error) {
	return s.tokenUsecase.ListConnections(ctx, userID)
}

// ListFiles returns document metadata from the provider. Emits a file-access
// audit event per listing.
func (s *storageService) ListFiles(ctx context.Context, userID uuid.UUID, provider entity.ProviderType, limit int, clientIP string) ([]*entity.DriveFile, error) {
	lister, ok := s.listers[provider]
	if !ok {
		return nil, domainerrors.ErrProviderUnknown
	}

	token, err := s.tokenUsecase.GetValidAccessToken(ctx, userID, provider)
	if err != nil {
		return nil, err
	}

	files, err := lister.ListDocuments(ctx, token.AccessToken, limit)
	if err != nil {
		return nil, errors.Wrap(err, "file listing failed")
	}

	s.auditUsecase.LogFileAccess(ctx, &entity.FileAccessEvent{
		UserID:    userID,
		Provider:  provider,
		Action:    "list",
		ScopeUsed: token.Scope,
		ClientIP:  clientIP,
	})

	return files, nil
}

// Disconnect deletes the stored token, clears recovery progress and revokes
// outstanding picker grants. Idempotent end to end.
func (s *storageService) Disconnect(ctx context.Context, userID uuid.UUID, provider entity.ProviderType) error {
	if _, ok := s.providers[provider]; !ok {
		return domainerrors.ErrProviderUnknown
	}

	if err := s.tokenUsecase.DeleteToken(ctx, userID, provider); err != nil {
		return err
	}

	logger := deliverycontext.GetLoggerOrDefault(ctx, s.logger)

	if err := s.recoveryUsecase.ClearRecovery(ctx, userID); err != nil {
		logger.LogAttrs(ctx, slog.LevelWarn, "Failed to clear recovery on disconnect",
			slog.String("error", err.Error()),
		)
	}

	s.pickerUsecase.CleanupUserPickerTokens(ctx, userID)

	s.auditUsecase.LogPrivacyEvent(ctx, &entity.PrivacyEvent{
		UserID:   userID,
		Provider: provider,
		Kind:     "tokens_deleted",
		Detail:   "user disconnected storage account",
	})

	return nil
}
