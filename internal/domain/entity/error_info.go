package entity

import "time"

// ErrorKind enumerates every classified failure the token and picker
// subsystems can surface. One variant per kind; callers switch exhaustively
// instead of inspecting string-keyed properties.
type ErrorKind string

// Token operation kinds.
const (
	ErrKindTokenNotFound       ErrorKind = "TOKEN_NOT_FOUND"
	ErrKindTokenRefreshFailed  ErrorKind = "TOKEN_REFRESH_FAILED"
	ErrKindRefreshTokenExpired ErrorKind = "REFRESH_TOKEN_EXPIRED"
	ErrKindInvalidCredentials  ErrorKind = "INVALID_CREDENTIALS"
	ErrKindNetworkError        ErrorKind = "NETWORK_ERROR"
	ErrKindStorageError        ErrorKind = "STORAGE_ERROR"
)

// Picker operation kinds, layered on top of the token kinds.
const (
	ErrKindPickerScriptLoadFailed ErrorKind = "PICKER_SCRIPT_LOAD_FAILED"
	ErrKindPickerInitFailed       ErrorKind = "PICKER_INIT_FAILED"
	ErrKindDeveloperKeyInvalid    ErrorKind = "DEVELOPER_KEY_INVALID"
	ErrKindPermissionDenied       ErrorKind = "PERMISSION_DENIED"
	ErrKindQuotaExceeded          ErrorKind = "QUOTA_EXCEEDED"
	ErrKindServiceUnavailable     ErrorKind = "SERVICE_UNAVAILABLE"
	ErrKindUnknown                ErrorKind = "UNKNOWN_ERROR"
)

// Severity grades a classified error for logging and alerting.
type Severity string

const (
	SeverityLow      Severity = "low"
	SeverityMedium   Severity = "medium"
	SeverityHigh     Severity = "high"
	SeverityCritical Severity = "critical"
)

// RecoveryAction is the single-button shortcut derived from a classification.
type RecoveryAction string

const (
	RecoveryActionReconnect      RecoveryAction = "reconnect"
	RecoveryActionReauthorize    RecoveryAction = "reauthorize"
	RecoveryActionRetry          RecoveryAction = "retry"
	RecoveryActionWaitAndRetry   RecoveryAction = "wait_and_retry"
	RecoveryActionContactSupport RecoveryAction = "contact_support"
	RecoveryActionNone           RecoveryAction = "none"
)

// ErrorInfo is the classification record produced whenever a token or picker
// operation fails. Invariant: RequiresReauth implies !CanRetry — re-auth
// supersedes retry. The classifier constructors enforce it.
type ErrorInfo struct {
	Kind             ErrorKind      `json:"type"`
	Severity         Severity       `json:"severity"`
	UserMessage      string         `json:"userMessage"`
	TechnicalMessage string         `json:"technicalMessage,omitempty"`
	RecoveryAction   RecoveryAction `json:"recoveryAction"`
	CanRetry         bool           `json:"canRetry"`
	RequiresReauth   bool           `json:"requiresReauth"`
	RetryDelay       time.Duration  `json:"retryDelay,omitempty"`
	MaxRetries       int            `json:"maxRetries,omitempty"`
	HelpURL          string         `json:"helpUrl,omitempty"`
}
