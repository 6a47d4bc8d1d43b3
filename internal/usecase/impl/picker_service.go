package impl

import (
	"context"
	"log/slog"
	"strings"
	"sync"
	"time"

	"briefly/config"
	deliverycontext "briefly/internal/delivery/context"
	"briefly/internal/domain/entity"
	domainerrors "briefly/internal/domain/errors"
	"briefly/internal/domain/service"
	"briefly/internal/usecase"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"go.uber.org/fx"
)

// ErrPickerTokenInvalid is returned when a picker token fails the structural
// response check.
var ErrPickerTokenInvalid = errors.New("picker token failed validation")

type pickerService struct {
	tokenUsecase usecase.TokenUsecase
	scopeUsecase usecase.ScopeUsecase
	auditUsecase usecase.AuditUsecase
	idGen        service.IDGenerator
	maxLifetime  int
	logger       *slog.Logger
	now          func() time.Time

	mu     sync.Mutex
	grants map[string]*entity.PickerGrant
}

// PickerServiceParams holds dependencies for PickerService, injected by Fx.
type PickerServiceParams struct {
	fx.In

	TokenUsecase usecase.TokenUsecase
	ScopeUsecase usecase.ScopeUsecase
	AuditUsecase usecase.AuditUsecase
	IDGen        service.IDGenerator
	Config       *config.Config
	Logger       *slog.Logger
}

// NewPickerService creates the picker token service. Outstanding grants are
// tracked in process memory only; they expire on their own and exist solely
// so cleanup can name what it revoked.
func NewPickerService(params PickerServiceParams) usecase.PickerUsecase {
	maxLifetime := 3600
	if params.Config.Picker != nil && params.Config.Picker.MaxLifetimeSeconds > 0 {
		maxLifetime = params.Config.Picker.MaxLifetimeSeconds
	}

	return &pickerService{
		tokenUsecase: params.TokenUsecase,
		scopeUsecase: params.ScopeUsecase,
		auditUsecase: params.AuditUsecase,
		idGen:        params.IDGen,
		maxLifetime:  maxLifetime,
		logger:       params.Logger,
		now:          time.Now,
		grants:       make(map[string]*entity.PickerGrant),
	}
}

// GeneratePickerToken derives a capped-lifetime SecureToken from the user's
// stored connection. Exactly one security audit entry is written per attempt.
func (s *pickerService) GeneratePickerToken(ctx context.Context, userID uuid.UUID, clientIP string, opts *entity.SecureTokenOptions) (*entity.SecureToken, error) {
	if opts == nil {
		opts = &entity.SecureTokenOptions{}
	}
	provider := opts.Provider
	if provider == "" {
		provider = entity.ProviderGoogle
	}

	token, err := s.tokenUsecase.GetValidAccessToken(ctx, userID, provider)
	if err != nil {
		s.auditAttempt(ctx, userID, provider, "", clientIP, false, errorKindOf(err))

		return nil, err
	}

	validation := s.scopeUsecase.ValidateTokenScope(token)
	if !validation.IsValid {
		err := domainerrors.NewTokenError(entity.ErrKindInvalidCredentials, provider,
			"stored grant is missing required scopes: "+strings.Join(validation.MissingScopes, " "), nil)
		s.auditAttempt(ctx, userID, provider, "", clientIP, false, entity.ErrKindInvalidCredentials)

		return nil, err
	}

	lifetime := s.maxLifetime
	if opts.MaxLifetimeSeconds > 0 && opts.MaxLifetimeSeconds < lifetime {
		lifetime = opts.MaxLifetimeSeconds
	}
	// Never promise the widget more lifetime than the underlying token has.
	if remaining := int(token.ExpiresAt.Sub(s.now()).Seconds()); remaining < lifetime {
		lifetime = remaining
	}

	now := s.now()
	tokenID := s.idGen.NewID()

	s.registerGrant(&entity.PickerGrant{
		TokenID:   tokenID,
		UserID:    userID,
		Provider:  provider,
		ExpiresAt: now.Add(time.Duration(lifetime) * time.Second),
	})

	s.auditAttempt(ctx, userID, provider, tokenID, clientIP, true, "")

	return &entity.SecureToken{
		AccessToken: token.AccessToken,
		ExpiresIn:   lifetime,
		Scope:       token.Scope,
		TokenID:     tokenID,
		SecurityMetadata: entity.SecurityMetadata{
			GeneratedAt:    now,
			MaxLifetime:    s.maxLifetime,
			ScopeValidated: true,
		},
	}, nil
}

// ValidatePickerTokenResponse structurally checks a token before it is handed
// to the widget.
func (s *pickerService) ValidatePickerTokenResponse(token *entity.SecureToken) error {
	switch {
	case token == nil:
		return errors.Wrap(ErrPickerTokenInvalid, "token is nil")
	case token.AccessToken == "":
		return errors.Wrap(ErrPickerTokenInvalid, "access token is empty")
	case token.TokenID == "":
		return errors.Wrap(ErrPickerTokenInvalid, "token id is empty")
	case token.ExpiresIn <= 0:
		return errors.Wrap(ErrPickerTokenInvalid, "lifetime is not positive")
	case token.ExpiresIn > s.maxLifetime:
		return errors.Wrap(ErrPickerTokenInvalid, "lifetime exceeds the configured cap")
	case !token.SecurityMetadata.ScopeValidated:
		return errors.Wrap(ErrPickerTokenInvalid, "scope was not validated")
	default:
		return nil
	}
}

// CleanupUserPickerTokens revokes the user's outstanding picker grants.
// Best-effort: failures are logged and swallowed.
func (s *pickerService) CleanupUserPickerTokens(ctx context.Context, userID uuid.UUID) int {
	revoked := s.revokeGrants(userID)
	if revoked == 0 {
		return 0
	}

	s.auditUsecase.LogPrivacyEvent(ctx, &entity.PrivacyEvent{
		UserID: userID,
		Kind:   "picker_grants_revoked",
		Detail: "sign-out or disconnect cleanup",
	})

	deliverycontext.GetLoggerOrDefault(ctx, s.logger).LogAttrs(ctx, slog.LevelInfo,
		"Picker grants revoked",
		slog.Int("count", revoked),
	)

	return revoked
}

func (s *pickerService) registerGrant(grant *entity.PickerGrant) {
	s.mu.Lock()
	defer s.mu.Unlock()

	// Expired grants are dropped opportunistically on insert; there is no
	// background sweeper.
	now := s.now()
	for id, g := range s.grants {
		if now.After(g.ExpiresAt) {
			delete(s.grants, id)
		}
	}

	s.grants[grant.TokenID] = grant
}

func (s *pickerService) revokeGrants(userID uuid.UUID) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	revoked := 0
	for id, grant := range s.grants {
		if grant.UserID == userID {
			delete(s.grants, id)
			revoked++
		}
	}

	return revoked
}

// auditAttempt writes the single security entry for one issuance attempt.
func (s *pickerService) auditAttempt(ctx context.Context, userID uuid.UUID, provider entity.ProviderType, tokenID, clientIP string, success bool, kind entity.ErrorKind) {
	risk := entity.SeverityLow
	detail := "picker token issued"
	if !success {
		risk = domainerrors.Classify(kind).Severity
		detail = "picker token denied: " + string(kind)
	}

	s.auditUsecase.LogSecurityEvent(ctx, &entity.SecurityEvent{
		UserID:        userID,
		Provider:      provider,
		Kind:          "token_generated",
		Success:       success,
		RiskLevel:     risk,
		Detail:        detail,
		CorrelationID: tokenID,
		ClientIP:      clientIP,
	})
}

// errorKindOf extracts the classified kind from any error.
func errorKindOf(err error) entity.ErrorKind {
	var tokenErr *domainerrors.TokenError
	if errors.As(err, &tokenErr) {
		return tokenErr.Kind()
	}

	return entity.ErrKindUnknown
}
