package usecase

import (
	"context"

	"briefly/internal/domain/entity"

	"github.com/google/uuid"
)

// RecoveryUsecase exposes the static recovery flow registry and drives the
// per-user progress cursor. Flows are data; only their completion state is
// persisted.
type RecoveryUsecase interface {
	// FlowFor returns the recovery flow for a classified error kind, or nil
	// when the kind has no self-serve remediation (support-only failures).
	FlowFor(kind entity.ErrorKind) *entity.RecoveryFlow

	// StartRecovery begins (or restarts) the flow for the kind, discarding
	// any previous progress.
	StartRecovery(ctx context.Context, userID uuid.UUID, kind entity.ErrorKind) (*entity.RecoveryProgress, error)

	// GetProgress returns the user's active progress with its flow.
	GetProgress(ctx context.Context, userID uuid.UUID) (*entity.RecoveryProgress, *entity.RecoveryFlow, error)

	// CompleteStep marks a step done and advances the cursor. The returned
	// bool reports whether every required step is now complete; when it is,
	// the progress record has been cleared.
	CompleteStep(ctx context.Context, userID uuid.UUID, stepID string) (*entity.RecoveryProgress, bool, error)

	// ClearRecovery drops the user's progress. Idempotent.
	ClearRecovery(ctx context.Context, userID uuid.UUID) error

	// QuickRecoveryAction returns the one-button action for an error kind.
	QuickRecoveryAction(kind entity.ErrorKind) entity.RecoveryAction

	// ConnectionStatusMessage renders the short dashboard status line for a
	// provider connection, factoring in the last classified failure if any.
	ConnectionStatusMessage(provider entity.ProviderType, connected bool, lastError entity.ErrorKind) string
}
