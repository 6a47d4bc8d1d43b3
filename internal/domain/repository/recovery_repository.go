package repository

import (
	"context"
	"errors"

	"briefly/internal/domain/entity"

	"github.com/google/uuid"
)

// ErrRecoveryNotFound is returned when a user has no active recovery progress.
var ErrRecoveryNotFound = errors.New("recovery progress not found")

// RecoveryRepository persists the per-user recovery cursor. One record per
// user; saving over an existing record replaces it (starting a new flow
// discards prior progress).
type RecoveryRepository interface {
	// SaveProgress upserts the user's progress record.
	SaveProgress(ctx context.Context, progress *entity.RecoveryProgress) error

	// GetProgress retrieves the user's active progress record.
	// Returns ErrRecoveryNotFound when none exists.
	GetProgress(ctx context.Context, userID uuid.UUID) (*entity.RecoveryProgress, error)

	// DeleteProgress clears the user's progress. Idempotent.
	DeleteProgress(ctx context.Context, userID uuid.UUID) error
}
