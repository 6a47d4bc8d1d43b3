package errors

import (
	"log/slog"
	"time"

	"briefly/internal/domain/entity"
	"briefly/internal/errors"
)

const supportHelpURL = "https://help.briefly.app/storage-connections"

// Classify maps an error kind to its full classification record. The
// invariant RequiresReauth ⇒ !CanRetry holds for every branch: kinds that
// force the user back through OAuth are never marked retryable, because
// retrying without re-consent cannot succeed.
func Classify(kind entity.ErrorKind) *entity.ErrorInfo {
	switch kind {
	case entity.ErrKindTokenNotFound:
		return &entity.ErrorInfo{
			Kind:           kind,
			Severity:       entity.SeverityMedium,
			UserMessage:    "Your cloud storage is not connected. Connect it to continue.",
			RecoveryAction: entity.RecoveryActionReconnect,
			RequiresReauth: true,
		}
	case entity.ErrKindRefreshTokenExpired:
		return &entity.ErrorInfo{
			Kind:           kind,
			Severity:       entity.SeverityHigh,
			UserMessage:    "Your cloud storage connection has expired. Please reconnect your account.",
			RecoveryAction: entity.RecoveryActionReconnect,
			RequiresReauth: true,
		}
	case entity.ErrKindPermissionDenied:
		return &entity.ErrorInfo{
			Kind:           kind,
			Severity:       entity.SeverityHigh,
			UserMessage:    "The connection is missing the permissions this feature needs. Please reauthorize.",
			RecoveryAction: entity.RecoveryActionReauthorize,
			RequiresReauth: true,
		}
	case entity.ErrKindInvalidCredentials:
		return &entity.ErrorInfo{
			Kind:           kind,
			Severity:       entity.SeverityCritical,
			UserMessage:    "The storage integration is misconfigured. Please contact support.",
			RecoveryAction: entity.RecoveryActionContactSupport,
			RequiresReauth: true,
			HelpURL:        supportHelpURL,
		}
	case entity.ErrKindDeveloperKeyInvalid:
		return &entity.ErrorInfo{
			Kind:           kind,
			Severity:       entity.SeverityCritical,
			UserMessage:    "The file picker is misconfigured. Please contact support.",
			RecoveryAction: entity.RecoveryActionContactSupport,
			HelpURL:        supportHelpURL,
		}
	case entity.ErrKindTokenRefreshFailed:
		return &entity.ErrorInfo{
			Kind:           kind,
			Severity:       entity.SeverityMedium,
			UserMessage:    "We couldn't refresh your storage connection. Please try again.",
			RecoveryAction: entity.RecoveryActionRetry,
			CanRetry:       true,
			RetryDelay:     5 * time.Second,
			MaxRetries:     3,
		}
	case entity.ErrKindNetworkError:
		return &entity.ErrorInfo{
			Kind:           kind,
			Severity:       entity.SeverityMedium,
			UserMessage:    "We couldn't reach your storage provider. Check your connection and try again.",
			RecoveryAction: entity.RecoveryActionRetry,
			CanRetry:       true,
			RetryDelay:     5 * time.Second,
			MaxRetries:     3,
		}
	case entity.ErrKindStorageError:
		return &entity.ErrorInfo{
			Kind:           kind,
			Severity:       entity.SeverityHigh,
			UserMessage:    "A storage error occurred. Please try again in a moment.",
			RecoveryAction: entity.RecoveryActionRetry,
			CanRetry:       true,
			RetryDelay:     10 * time.Second,
			MaxRetries:     2,
		}
	case entity.ErrKindQuotaExceeded:
		return &entity.ErrorInfo{
			Kind:           kind,
			Severity:       entity.SeverityLow,
			UserMessage:    "Your storage provider is rate limiting requests. Wait a moment and retry.",
			RecoveryAction: entity.RecoveryActionWaitAndRetry,
			CanRetry:       true,
			RetryDelay:     30 * time.Second,
			MaxRetries:     5,
		}
	case entity.ErrKindServiceUnavailable:
		return &entity.ErrorInfo{
			Kind:           kind,
			Severity:       entity.SeverityMedium,
			UserMessage:    "Your storage provider is temporarily unavailable. Please retry shortly.",
			RecoveryAction: entity.RecoveryActionWaitAndRetry,
			CanRetry:       true,
			RetryDelay:     30 * time.Second,
			MaxRetries:     3,
		}
	case entity.ErrKindPickerScriptLoadFailed:
		return &entity.ErrorInfo{
			Kind:           kind,
			Severity:       entity.SeverityLow,
			UserMessage:    "The file picker failed to load. Reload the page and try again.",
			RecoveryAction: entity.RecoveryActionRetry,
			CanRetry:       true,
			RetryDelay:     2 * time.Second,
			MaxRetries:     3,
		}
	case entity.ErrKindPickerInitFailed:
		return &entity.ErrorInfo{
			Kind:           kind,
			Severity:       entity.SeverityMedium,
			UserMessage:    "The file picker could not start. Please try again.",
			RecoveryAction: entity.RecoveryActionRetry,
			CanRetry:       true,
			RetryDelay:     2 * time.Second,
			MaxRetries:     3,
		}
	default:
		return &entity.ErrorInfo{
			Kind:           entity.ErrKindUnknown,
			Severity:       entity.SeverityMedium,
			UserMessage:    "Something went wrong. Please try again.",
			RecoveryAction: entity.RecoveryActionRetry,
			CanRetry:       true,
			RetryDelay:     5 * time.Second,
			MaxRetries:     1,
		}
	}
}

// ClassifyError resolves any error into a classification record. TokenError
// values carry their own kind; everything else is an unknown failure.
func ClassifyError(err error) *entity.ErrorInfo {
	var tokenErr *TokenError
	if errors.As(err, &tokenErr) {
		return tokenErr.Info()
	}

	info := Classify(entity.ErrKindUnknown)
	info.TechnicalMessage = err.Error()

	return info
}

// LogLevel maps a classification severity to the slog level it is reported at.
func LogLevel(severity entity.Severity) slog.Level {
	switch severity {
	case entity.SeverityCritical, entity.SeverityHigh:
		return slog.LevelError
	case entity.SeverityMedium:
		return slog.LevelWarn
	default:
		return slog.LevelInfo
	}
}
