// Package impl contains the concrete implementations of the usecase interfaces.
package impl

import (
	"context"
	"log/slog"
	"time"

	"briefly/internal/domain/entity"
	domainerrors "briefly/internal/domain/errors"
	"briefly/internal/domain/repository"
	"briefly/internal/domain/service"
	deliverycontext "briefly/internal/delivery/context"
	"briefly/internal/usecase"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"go.uber.org/fx"
)

type tokenService struct {
	tokenRepo repository.TokenRepository
	txManager repository.TransactionManager
	providers map[entity.ProviderType]service.ProviderClient
	logger    *slog.Logger
	now       func() time.Time
}

// TokenServiceParams holds dependencies for TokenService, injected by Fx.
type TokenServiceParams struct {
	fx.In

	TokenRepo repository.TokenRepository
	TxManager repository.TransactionManager
	Providers []service.ProviderClient `group:"providers"`
	Logger    *slog.Logger
}

// NewTokenService creates the token store and refresh engine.
func NewTokenService(params TokenServiceParams) usecase.TokenUsecase {
	providers := make(map[entity.ProviderType]service.ProviderClient, len(params.Providers))
	for _, client := range params.Providers {
		providers[client.Provider()] = client
	}

	return &tokenService{
		tokenRepo: params.TokenRepo,
		txManager: params.TxManager,
		providers: providers,
		logger:    params.Logger,
		now:       time.Now,
	}
}

// SaveToken upserts the token for its (user, provider) pair. Last writer
// wins; a lost refresh race just overwrites with an equally valid credential.
func (s *tokenService) SaveToken(ctx context.Context, token *entity.OAuthToken) error {
	if token.TokenType == "" {
		token.TokenType = entity.DefaultTokenType
	}

	now := s.now()
	if token.CreatedAt.IsZero() {
		token.CreatedAt = now
	}
	token.UpdatedAt = now

	if err := s.tokenRepo.SaveToken(ctx, token); err != nil {
		return domainerrors.NewTokenError(entity.ErrKindStorageError, token.Provider, "failed to persist token", err)
	}

	return nil
}

// GetToken returns the stored token without touching its expiry.
func (s *tokenService) GetToken(ctx context.Context, userID uuid.UUID, provider entity.ProviderType) (*entity.OAuthToken, error) {
	token, err := s.tokenRepo.GetToken(ctx, userID, provider)
	if err != nil {
		if errors.Is(err, repository.ErrTokenNotFound) {
			return nil, domainerrors.NewTokenError(entity.ErrKindTokenNotFound, provider, "no stored connection", err)
		}

		return nil, domainerrors.NewTokenError(entity.ErrKindStorageError, provider, "failed to load token", err)
	}

	return token, nil
}

// GetValidAccessToken returns a token guaranteed usable for at least the
// expiry buffer, refreshing transparently when the stored one is inside it.
func (s *tokenService) GetValidAccessToken(ctx context.Context, userID uuid.UUID, provider entity.ProviderType) (*entity.OAuthToken, error) {
	token, err := s.GetToken(ctx, userID, provider)
	if err != nil {
		return nil, err
	}

	if token.UsableAt(s.now()) {
		return token, nil
	}

	return s.refresh(ctx, token)
}

// RefreshToken forces a refresh-token exchange regardless of remaining
// lifetime.
func (s *tokenService) RefreshToken(ctx context.Context, userID uuid.UUID, provider entity.ProviderType) (*entity.OAuthToken, error) {
	token, err := s.GetToken(ctx, userID, provider)
	if err != nil {
		return nil, err
	}

	return s.refresh(ctx, token)
}

// DeleteToken removes the connection. Idempotent.
func (s *tokenService) DeleteToken(ctx context.Context, userID uuid.UUID, provider entity.ProviderType) error {
	if err := s.tokenRepo.DeleteToken(ctx, userID, provider); err != nil {
		return domainerrors.NewTokenError(entity.ErrKindStorageError, provider, "failed to delete token", err)
	}

	return nil
}

// IsTokenValid reports whether a stored token exists and is outside the
// expiry buffer. Absence is a false, not an error.
func (s *tokenService) IsTokenValid(ctx context.Context, userID uuid.UUID, provider entity.ProviderType) (bool, error) {
	token, err := s.tokenRepo.GetToken(ctx, userID, provider)
	if err != nil {
		if errors.Is(err, repository.ErrTokenNotFound) {
			return false, nil
		}

		return false, domainerrors.NewTokenError(entity.ErrKindStorageError, provider, "failed to load token", err)
	}

	return token.UsableAt(s.now()), nil
}

// ListConnections derives the per-provider connection status for a user.
func (s *tokenService) ListConnections(ctx context.Context, userID uuid.UUID) ([]*entity.StorageConnection, error) {
	tokens, err := s.tokenRepo.ListByUser(ctx, userID)
	if err != nil {
		return nil, errors.Wrap(err, "failed to list connections")
	}

	byProvider := make(map[entity.ProviderType]*entity.OAuthToken, len(tokens))
	for _, token := range tokens {
		byProvider[token.Provider] = token
	}

	connections := make([]*entity.StorageConnection, 0, 2)
	for _, provider := range []entity.ProviderType{entity.ProviderGoogle, entity.ProviderMicrosoft} {
		conn := &entity.StorageConnection{Provider: provider}
		if token, ok := byProvider[provider]; ok {
			conn.Connected = true
			conn.AccountEmail = token.AccountEmail
		}
		connections = append(connections, conn)
	}

	return connections, nil
}

// refresh exchanges the stored refresh token and persists the outcome. The
// new token row and the journal entry commit atomically; on failure only the
// journal entry is written.
func (s *tokenService) refresh(ctx context.Context, token *entity.OAuthToken) (*entity.OAuthToken, error) {
	logger := deliverycontext.GetLoggerOrDefault(ctx, s.logger)

	if token.RefreshToken == "" {
		err := domainerrors.NewTokenError(entity.ErrKindRefreshTokenExpired, token.Provider,
			"no refresh token on record, reconnect required", nil)
		s.journalRefresh(ctx, token, false, entity.ErrKindRefreshTokenExpired, 0)

		return nil, err
	}

	client, ok := s.providers[token.Provider]
	if !ok {
		return nil, domainerrors.NewTokenError(entity.ErrKindInvalidCredentials, token.Provider,
			"provider client not configured", nil)
	}

	start := s.now()
	grant, err := client.Refresh(ctx, token.RefreshToken)
	latency := s.now().Sub(start).Milliseconds()
	if err != nil {
		kind := entity.ErrKindTokenRefreshFailed
		var tokenErr *domainerrors.TokenError
		if errors.As(err, &tokenErr) {
			kind = tokenErr.Kind()
		}

		info := domainerrors.ClassifyError(err)
		logger.LogAttrs(ctx, domainerrors.LogLevel(info.Severity), "Token refresh failed",
			slog.String("provider", token.Provider.String()),
			slog.String("kind", string(kind)),
			slog.Int64("latencyMs", latency),
			slog.String("error", err.Error()),
		)
		s.journalRefresh(ctx, token, false, kind, latency)

		return nil, err
	}

	refreshed := *token
	refreshed.AccessToken = grant.AccessToken
	refreshed.TokenType = grant.TokenType
	refreshed.ExpiresAt = grant.ExpiresAt
	refreshed.UpdatedAt = s.now()
	// Providers rotate refresh tokens at their discretion; keep the stored
	// one when the response omits it. Same for the scope echo.
	if grant.RefreshToken != "" {
		refreshed.RefreshToken = grant.RefreshToken
	}
	if grant.Scope != "" {
		refreshed.Scope = grant.Scope
	}

	event := s.newRefreshEvent(token, true, "", latency)
	err = s.txManager.Execute(ctx, func(f repository.RepositoryFactory) error {
		if err := f.TokenRepo().SaveToken(ctx, &refreshed); err != nil {
			return err
		}

		return f.RefreshEventRepo().RecordRefreshEvent(ctx, event)
	})
	if err != nil {
		return nil, domainerrors.NewTokenError(entity.ErrKindStorageError, token.Provider,
			"failed to persist refreshed token", err)
	}

	logger.LogAttrs(ctx, slog.LevelInfo, "Token refreshed",
		slog.String("provider", token.Provider.String()),
		slog.Int64("latencyMs", latency),
	)

	return &refreshed, nil
}

// journalRefresh records a failed attempt. Best-effort: journaling must not
// mask the refresh error itself.
func (s *tokenService) journalRefresh(ctx context.Context, token *entity.OAuthToken, success bool, kind entity.ErrorKind, latency int64) {
	event := s.newRefreshEvent(token, success, string(kind), latency)
	err := s.txManager.Execute(ctx, func(f repository.RepositoryFactory) error {
		return f.RefreshEventRepo().RecordRefreshEvent(ctx, event)
	})
	if err != nil {
		deliverycontext.GetLoggerOrDefault(ctx, s.logger).LogAttrs(ctx, slog.LevelWarn,
			"Failed to journal token refresh attempt",
			slog.String("provider", token.Provider.String()),
			slog.String("error", err.Error()),
		)
	}
}

func (s *tokenService) newRefreshEvent(token *entity.OAuthToken, success bool, errorKind string, latency int64) *entity.TokenRefreshEvent {
	if success {
		errorKind = ""
	}

	return &entity.TokenRefreshEvent{
		ID:        uuid.New(),
		UserID:    token.UserID,
		Provider:  token.Provider,
		Success:   success,
		ErrorKind: errorKind,
		LatencyMS: latency,
		CreatedAt: s.now(),
	}
}
