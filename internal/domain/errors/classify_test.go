package errors

import (
	"log/slog"
	"net/http"
	"testing"

	"briefly/internal/domain/entity"
	liberrors "briefly/internal/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var allErrorKinds = []entity.ErrorKind{
	entity.ErrKindTokenNotFound,
	entity.ErrKindTokenRefreshFailed,
	entity.ErrKindRefreshTokenExpired,
	entity.ErrKindInvalidCredentials,
	entity.ErrKindNetworkError,
	entity.ErrKindStorageError,
	entity.ErrKindPickerScriptLoadFailed,
	entity.ErrKindPickerInitFailed,
	entity.ErrKindDeveloperKeyInvalid,
	entity.ErrKindPermissionDenied,
	entity.ErrKindQuotaExceeded,
	entity.ErrKindServiceUnavailable,
	entity.ErrKindUnknown,
}

func TestClassify_ReauthAndRetryMutuallyExclusive(t *testing.T) {
	t.Parallel()

	for _, kind := range allErrorKinds {
		info := Classify(kind)
		require.NotNil(t, info, "kind %s", kind)
		if info.RequiresReauth {
			assert.False(t, info.CanRetry,
				"kind %s: retrying without re-consent cannot succeed", kind)
		}
	}
}

func TestClassify_EveryKindHasUserMessageAndAction(t *testing.T) {
	t.Parallel()

	for _, kind := range allErrorKinds {
		info := Classify(kind)
		assert.NotEmpty(t, info.UserMessage, "kind %s", kind)
		assert.NotEmpty(t, info.RecoveryAction, "kind %s", kind)
		if info.CanRetry {
			assert.Positive(t, info.RetryDelay, "kind %s", kind)
			assert.Positive(t, info.MaxRetries, "kind %s", kind)
		}
	}
}

func TestClassify_SelectedKinds(t *testing.T) {
	t.Parallel()

	expired := Classify(entity.ErrKindRefreshTokenExpired)
	assert.Equal(t, entity.SeverityHigh, expired.Severity)
	assert.Equal(t, entity.RecoveryActionReconnect, expired.RecoveryAction)
	assert.True(t, expired.RequiresReauth)

	misconfigured := Classify(entity.ErrKindInvalidCredentials)
	assert.Equal(t, entity.SeverityCritical, misconfigured.Severity)
	assert.Equal(t, entity.RecoveryActionContactSupport, misconfigured.RecoveryAction)
	assert.NotEmpty(t, misconfigured.HelpURL)

	throttled := Classify(entity.ErrKindQuotaExceeded)
	assert.Equal(t, entity.RecoveryActionWaitAndRetry, throttled.RecoveryAction)
	assert.True(t, throttled.CanRetry)

	// Unrecognized kinds degrade to the unknown record, never nil.
	unknown := Classify(entity.ErrorKind("SOMETHING_NEW"))
	assert.Equal(t, entity.ErrKindUnknown, unknown.Kind)
}

func TestClassifyError(t *testing.T) {
	t.Parallel()

	tokenErr := NewTokenError(entity.ErrKindPermissionDenied, entity.ProviderGoogle, "missing drive.readonly", nil)
	info := ClassifyError(tokenErr)
	assert.Equal(t, entity.ErrKindPermissionDenied, info.Kind)
	assert.Equal(t, "missing drive.readonly", info.TechnicalMessage)

	// Wrapped TokenErrors still classify by their kind.
	wrapped := liberrors.Wrap(tokenErr, "loading picker token")
	assert.Equal(t, entity.ErrKindPermissionDenied, ClassifyError(wrapped).Kind)

	plain := ClassifyError(liberrors.New("connection reset"))
	assert.Equal(t, entity.ErrKindUnknown, plain.Kind)
	assert.Equal(t, "connection reset", plain.TechnicalMessage)
}

func TestTokenError_HTTPCode(t *testing.T) {
	t.Parallel()

	cases := map[entity.ErrorKind]int{
		entity.ErrKindTokenNotFound:       http.StatusNotFound,
		entity.ErrKindRefreshTokenExpired: http.StatusUnauthorized,
		entity.ErrKindPermissionDenied:    http.StatusUnauthorized,
		entity.ErrKindInvalidCredentials:  http.StatusInternalServerError,
		entity.ErrKindQuotaExceeded:       http.StatusTooManyRequests,
		entity.ErrKindNetworkError:        http.StatusBadGateway,
		entity.ErrKindServiceUnavailable:  http.StatusBadGateway,
		entity.ErrKindTokenRefreshFailed:  http.StatusInternalServerError,
	}
	for kind, code := range cases {
		err := NewTokenError(kind, entity.ProviderGoogle, "", nil)
		assert.Equal(t, code, err.HTTPCode(), "kind %s", kind)
		assert.Equal(t, string(kind), err.ErrorCode())
	}
}

func TestLogLevel(t *testing.T) {
	t.Parallel()

	assert.Equal(t, slog.LevelError, LogLevel(entity.SeverityCritical))
	assert.Equal(t, slog.LevelError, LogLevel(entity.SeverityHigh))
	assert.Equal(t, slog.LevelWarn, LogLevel(entity.SeverityMedium))
	assert.Equal(t, slog.LevelInfo, LogLevel(entity.SeverityLow))
}
