package usecase

import (
	"context"

	"briefly/internal/domain/entity"

	"github.com/google/uuid"
)

// PickerUsecase issues the short-lived tokens the client-side file-selection
// widget runs on, and tracks them for cleanup.
type PickerUsecase interface {
	// GeneratePickerToken derives a capped-lifetime SecureToken from the
	// user's stored connection. Exactly one security audit entry is written
	// per attempt, success or failure. clientIP is hashed before it reaches
	// any sink.
	GeneratePickerToken(ctx context.Context, userID uuid.UUID, clientIP string, opts *entity.SecureTokenOptions) (*entity.SecureToken, error)

	// ValidatePickerTokenResponse structurally checks a token before the
	// delivery layer hands it to the widget.
	ValidatePickerTokenResponse(token *entity.SecureToken) error

	// CleanupUserPickerTokens revokes the user's outstanding picker grants.
	// Best-effort: failures are logged, never returned.
	CleanupUserPickerTokens(ctx context.Context, userID uuid.UUID) int
}
