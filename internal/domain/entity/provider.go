// Package entity contains the core business objects of the project,
// each representing a unique, identifiable concept within the domain.
package entity

import "github.com/pkg/errors"

// ProviderType identifies a cloud-storage provider. These identifiers belong
// to the storage-connection OAuth domain and are distinct from any login
// provider identifiers, even for the same vendor.
type ProviderType string

const (
	// ProviderGoogle is Google Drive.
	ProviderGoogle ProviderType = "google"
	// ProviderMicrosoft is Microsoft OneDrive via the Graph API.
	ProviderMicrosoft ProviderType = "microsoft"
)

// ParseProvider validates a raw provider string from a route parameter.
func ParseProvider(raw string) (ProviderType, error) {
	switch ProviderType(raw) {
	case ProviderGoogle, ProviderMicrosoft:
		return ProviderType(raw), nil
	default:
		return "", errors.Errorf("unknown storage provider: %q", raw)
	}
}

// String implements fmt.Stringer.
func (p ProviderType) String() string {
	return string(p)
}
