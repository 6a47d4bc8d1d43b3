package entity

import (
	"time"

	"github.com/google/uuid"
)

// AuditFamily groups audit events into the four sink families.
type AuditFamily string

const (
	AuditFamilyFileSelection AuditFamily = "file_selection"
	AuditFamilyFileAccess    AuditFamily = "file_access"
	AuditFamilySecurity      AuditFamily = "security"
	AuditFamilyPrivacy       AuditFamily = "privacy"
)

// The event structs below are deliberately narrow: they carry metadata only
// and have no field for raw token secrets or file content, so no code path
// through the audit logger can leak either.

// FileSelectionEvent records a user picking a file through the picker widget.
type FileSelectionEvent struct {
	UserID    uuid.UUID
	Provider  ProviderType
	FileID    string
	FileName  string
	MimeType  string
	SizeBytes int64
	ScopeUsed string
	TokenID   string // correlation handle of the picker token, never the token itself
	ClientIP  string // hashed before it reaches any sink
}

// FileAccessEvent records the subsystem touching file metadata on behalf of a
// user (e.g. a Drive listing).
type FileAccessEvent struct {
	UserID    uuid.UUID
	Provider  ProviderType
	Action    string // "list", "metadata"
	FileID    string
	FileName  string
	MimeType  string
	SizeBytes int64
	ScopeUsed string
	ClientIP  string
}

// SecurityEvent records a token lifecycle outcome or a policy violation.
type SecurityEvent struct {
	UserID        uuid.UUID
	Provider      ProviderType
	Kind          string // "token_generated", "token_refreshed", "scope_violation", "flow_violation"
	Success       bool
	RiskLevel     Severity
	Detail        string
	CorrelationID string
	ClientIP      string
}

// PrivacyEvent records data-subject-relevant actions (disconnects, cleanups).
type PrivacyEvent struct {
	UserID   uuid.UUID
	Provider ProviderType
	Kind     string // "tokens_deleted", "picker_grants_revoked"
	Detail   string
}

// AuditRecord is the serialized, sanitized envelope written to the sinks.
// Attributes are flat key/value pairs; the sanitizer has already redacted
// denylisted keys, hashed IPs and stripped filenames by the time a record
// exists.
type AuditRecord struct {
	ID         string            `json:"id"`
	Family     AuditFamily       `json:"family"`
	Type       string            `json:"type"`
	Timestamp  time.Time         `json:"timestamp"`
	Attributes map[string]string `json:"attributes"`
}
