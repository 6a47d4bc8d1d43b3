package impl

import (
	"context"
	"fmt"
	"time"

	"briefly/internal/domain/entity"
	domainerrors "briefly/internal/domain/errors"
	"briefly/internal/domain/repository"
	"briefly/internal/usecase"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"go.uber.org/fx"
)

// ErrNoRecoveryFlow is returned when an error kind has no self-serve
// remediation (support-only failures).
var ErrNoRecoveryFlow = errors.New("no recovery flow for this error kind")

// recoveryFlows is the static registry. Flows are declarations; only the
// per-user cursor is persisted.
var recoveryFlows = map[entity.RecoveryFlowType]*entity.RecoveryFlow{
	entity.RecoveryFlowTokenExpired: {
		Type:        entity.RecoveryFlowTokenExpired,
		Title:       "Reconnect your cloud storage",
		Description: "Your connection has expired. Reconnecting takes under a minute.",
		Steps: []entity.RecoveryStep{
			{ID: "reconnect", Title: "Reconnect your account", Description: "Sign in to your storage provider again to issue a fresh connection.", ActionType: entity.StepActionReconnect, IsRequired: true},
			{ID: "verify", Title: "Verify the connection", Description: "Open your files to confirm the connection works.", ActionType: entity.StepActionVerify, IsRequired: true},
		},
	},
	entity.RecoveryFlowReconnect: {
		Type:        entity.RecoveryFlowReconnect,
		Title:       "Reset your storage connection",
		Description: "Something is wrong with the stored connection. Removing and re-adding it usually fixes it.",
		Steps: []entity.RecoveryStep{
			{ID: "disconnect", Title: "Disconnect the account", Description: "Remove the broken connection.", ActionType: entity.StepActionDisconnect, IsRequired: true},
			{ID: "reconnect", Title: "Connect it again", Description: "Go through the provider sign-in once more.", ActionType: entity.StepActionReconnect, IsRequired: true},
			{ID: "verify", Title: "Verify the connection", Description: "Open your files to confirm everything works.", ActionType: entity.StepActionVerify, IsRequired: true},
		},
	},
	entity.RecoveryFlowPermissionFix: {
		Type:        entity.RecoveryFlowPermissionFix,
		Title:       "Grant the missing permissions",
		Description: "The connection exists but lacks the permissions this feature needs.",
		Steps: []entity.RecoveryStep{
			{ID: "reauthorize", Title: "Reauthorize access", Description: "Approve the requested permissions on the provider's consent screen.", ActionType: entity.StepActionReauthorize, IsRequired: true},
			{ID: "verify", Title: "Verify access", Description: "Open your files to confirm access was granted.", ActionType: entity.StepActionVerify, IsRequired: true},
		},
	},
	entity.RecoveryFlowNetworkRetry: {
		Type:        entity.RecoveryFlowNetworkRetry,
		Title:       "Retry the connection",
		Description: "The provider could not be reached. This is usually temporary.",
		Steps: []entity.RecoveryStep{
			{ID: "wait", Title: "Wait a moment", Description: "Give the provider a minute to recover.", ActionType: entity.StepActionWait, IsRequired: false},
			{ID: "retry", Title: "Try again", Description: "Retry the operation that failed.", ActionType: entity.StepActionRetry, IsRequired: true},
		},
	},
}

// flowTypeByKind routes classified failures to their remediation. Kinds with
// no entry are support-only; there is nothing the user can click through.
var flowTypeByKind = map[entity.ErrorKind]entity.RecoveryFlowType{
	entity.ErrKindTokenNotFound:       entity.RecoveryFlowTokenExpired,
	entity.ErrKindRefreshTokenExpired: entity.RecoveryFlowTokenExpired,
	entity.ErrKindTokenRefreshFailed:  entity.RecoveryFlowReconnect,
	entity.ErrKindStorageError:        entity.RecoveryFlowReconnect,
	entity.ErrKindPermissionDenied:    entity.RecoveryFlowPermissionFix,
	entity.ErrKindNetworkError:        entity.RecoveryFlowNetworkRetry,
	entity.ErrKindServiceUnavailable:  entity.RecoveryFlowNetworkRetry,
	entity.ErrKindQuotaExceeded:       entity.RecoveryFlowNetworkRetry,
}

type recoveryService struct {
	recoveryRepo repository.RecoveryRepository
	now          func() time.Time
}

// RecoveryServiceParams holds dependencies for RecoveryService, injected by Fx.
type RecoveryServiceParams struct {
	fx.In

	RecoveryRepo repository.RecoveryRepository
}

// NewRecoveryService creates the recovery flow registry.
func NewRecoveryService(params RecoveryServiceParams) usecase.RecoveryUsecase {
	return &recoveryService{
		recoveryRepo: params.RecoveryRepo,
		now:          time.Now,
	}
}

// FlowFor returns the recovery flow for a classified error kind, or nil.
func (s *recoveryService) FlowFor(kind entity.ErrorKind) *entity.RecoveryFlow {
	flowType, ok := flowTypeByKind[kind]
	if !ok {
		return nil
	}

	return recoveryFlows[flowType]
}

// StartRecovery begins (or restarts) the flow for the kind. Any previous
// progress is discarded by the upsert.
func (s *recoveryService) StartRecovery(ctx context.Context, userID uuid.UUID, kind entity.ErrorKind) (*entity.RecoveryProgress, error) {
	flow := s.FlowFor(kind)
	if flow == nil {
		return nil, errors.Wrapf(ErrNoRecoveryFlow, "kind %s", kind)
	}

	progress := &entity.RecoveryProgress{
		UserID:         userID,
		FlowType:       flow.Type,
		CurrentStepID:  flow.FirstStepID(),
		CompletedSteps: []string{},
		StartedAt:      s.now(),
	}

	if err := s.recoveryRepo.SaveProgress(ctx, progress); err != nil {
		return nil, errors.Wrap(err, "failed to start recovery")
	}

	return progress, nil
}

// GetProgress returns the user's active progress with its flow.
func (s *recoveryService) GetProgress(ctx context.Context, userID uuid.UUID) (*entity.RecoveryProgress, *entity.RecoveryFlow, error) {
	progress, err := s.recoveryRepo.GetProgress(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrRecoveryNotFound) {
			return nil, nil, domainerrors.ErrNoActiveRecovery
		}

		return nil, nil, errors.Wrap(err, "failed to load recovery progress")
	}

	flow, ok := recoveryFlows[progress.FlowType]
	if !ok {
		// A flow removed from the registry orphans its progress rows.
		return nil, nil, domainerrors.ErrNoActiveRecovery
	}

	return progress, flow, nil
}

// CompleteStep marks a step done and advances the cursor. When every required
// step is complete the progress record is cleared and true is returned.
func (s *recoveryService) CompleteStep(ctx context.Context, userID uuid.UUID, stepID string) (*entity.RecoveryProgress, bool, error) {
	progress, flow, err := s.GetProgress(ctx, userID)
	if err != nil {
		return nil, false, err
	}

	if !flowHasStep(flow, stepID) {
		return nil, false, domainerrors.ErrUnknownRecoveryStep.WithDetails(fmt.Sprintf("step %q is not part of flow %s", stepID, flow.Type))
	}

	progress.MarkCompleted(flow, stepID)

	if progress.IsComplete(flow) {
		if err := s.recoveryRepo.DeleteProgress(ctx, userID); err != nil {
			return nil, false, errors.Wrap(err, "failed to clear completed recovery")
		}

		return progress, true, nil
	}

	if err := s.recoveryRepo.SaveProgress(ctx, progress); err != nil {
		return nil, false, errors.Wrap(err, "failed to save recovery progress")
	}

	return progress, false, nil
}

// ClearRecovery drops the user's progress. Idempotent.
func (s *recoveryService) ClearRecovery(ctx context.Context, userID uuid.UUID) error {
	if err := s.recoveryRepo.DeleteProgress(ctx, userID); err != nil {
		return errors.Wrap(err, "failed to clear recovery progress")
	}

	return nil
}

// QuickRecoveryAction returns the one-button action for an error kind.
func (s *recoveryService) QuickRecoveryAction(kind entity.ErrorKind) entity.RecoveryAction {
	return domainerrors.Classify(kind).RecoveryAction
}

// ConnectionStatusMessage renders the short dashboard status line for a
// provider connection.
func (s *recoveryService) ConnectionStatusMessage(provider entity.ProviderType, connected bool, lastError entity.ErrorKind) string {
	name := providerDisplayName(provider)

	if !connected {
		return name + " is not connected."
	}
	if lastError == "" {
		return name + " is connected."
	}

	return name + " is connected, but needs attention: " + domainerrors.Classify(lastError).UserMessage
}

func providerDisplayName(provider entity.ProviderType) string {
	switch provider {
	case entity.ProviderGoogle:
		return "Google Drive"
	case entity.ProviderMicrosoft:
		return "OneDrive"
	default:
		return string(provider)
	}
}

func flowHasStep(flow *entity.RecoveryFlow, stepID string) bool {
	for _, step := range flow.Steps {
		if step.ID == stepID {
			return true
		}
	}

	return false
}
