package usecase

import (
	"context"

	"briefly/internal/domain/entity"

	"github.com/google/uuid"
)

// StorageUsecase drives the storage-connection lifecycle: consent URL,
// callback exchange, status, file listing and disconnect. It composes the
// token, picker, recovery and audit usecases; handlers call only this.
type StorageUsecase interface {
	// AuthorizationURL starts the connect flow and returns the provider
	// consent URL with a single-use state bound to the user.
	AuthorizationURL(ctx context.Context, userID uuid.UUID, provider entity.ProviderType) (string, error)

	// ConnectQR renders the consent URL as a PNG QR code for mobile handoff.
	ConnectQR(ctx context.Context, userID uuid.UUID, provider entity.ProviderType) ([]byte, error)

	// HandleCallback redeems the state, exchanges the code and stores the
	// resulting token. The provider comes from the callback route.
	HandleCallback(ctx context.Context, provider entity.ProviderType, state, code string) (*entity.StorageConnection, error)

	// Status reports the connection state for every supported provider.
	Status(ctx context.Context, userID uuid.UUID) ([]*entity.StorageConnection, error)

	// ListFiles returns document metadata from the provider, refreshing the
	// stored token first when needed. Emits a file-access audit event.
	ListFiles(ctx context.Context, userID uuid.UUID, provider entity.ProviderType, limit int, clientIP string) ([]*entity.DriveFile, error)

	// Disconnect deletes the stored token, clears recovery progress and
	// revokes outstanding picker grants. Idempotent.
	Disconnect(ctx context.Context, userID uuid.UUID, provider entity.ProviderType) error
}
