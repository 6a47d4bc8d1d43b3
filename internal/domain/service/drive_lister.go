package service

import (
	"context"

	"briefly/internal/domain/entity"
)

// DriveLister lists document metadata from one provider's storage API using
// a caller-supplied access token. Only metadata crosses this boundary; file
// content never does.
type DriveLister interface {
	// Provider returns the provider this lister queries.
	Provider() entity.ProviderType

	// ListDocuments returns up to limit document-like files.
	ListDocuments(ctx context.Context, accessToken string, limit int) ([]*entity.DriveFile, error)
}
