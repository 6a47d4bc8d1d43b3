package entity

import (
	"time"

	"github.com/google/uuid"
)

// SecureTokenOptions controls picker token issuance for one UI session.
type SecureTokenOptions struct {
	// Provider defaults to google when empty; the picker widget is currently
	// Drive-first but the issuance path is provider-agnostic.
	Provider ProviderType

	// MaxLifetimeSeconds overrides the configured cap, but never upward.
	MaxLifetimeSeconds int
}

// SecurityMetadata records the checks performed before a picker token left
// the service.
type SecurityMetadata struct {
	GeneratedAt    time.Time `json:"generatedAt"`
	MaxLifetime    int       `json:"maxLifetime"` // seconds
	ScopeValidated bool      `json:"scopeValidated"`
}

// SecureToken is a short-lived derivative of a stored OAuthToken, handed to
// the client-side file-selection widget. It is never persisted; it lives only
// for the UI session that requested it.
type SecureToken struct {
	AccessToken      string           `json:"accessToken"`
	ExpiresIn        int              `json:"expiresIn"` // seconds, capped at MaxLifetime
	Scope            string           `json:"scope"`
	TokenID          string           `json:"tokenId"` // correlation handle for audit events
	SecurityMetadata SecurityMetadata `json:"securityMetadata"`
}

// DriveFile is provider-file metadata surfaced to the dashboard. File content
// never passes through this subsystem.
type DriveFile struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	MimeType    string    `json:"mimeType"`
	SizeBytes   int64     `json:"size,omitempty"`
	ModifiedAt  time.Time `json:"modifiedTime"`
	WebViewLink string    `json:"webViewLink,omitempty"`
}

// StorageConnection reports the dashboard-facing connection state for one
// provider.
type StorageConnection struct {
	Provider     ProviderType `json:"provider"`
	Connected    bool         `json:"connected"`
	AccountEmail string       `json:"email,omitempty"`
}

// PickerGrant tracks one outstanding picker token for cleanup on sign-out or
// disconnect. Held in memory only.
type PickerGrant struct {
	TokenID   string
	UserID    uuid.UUID
	Provider  ProviderType
	ExpiresAt time.Time
}
