package middleware

import (
	"fmt"
	"log/slog"
	"net/http"

	"briefly/internal/delivery/http/response"
	domainerrors "briefly/internal/domain/errors"
	"briefly/internal/usecase"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"
)

// ErrorMiddleware error handling middleware
type ErrorMiddleware struct {
	recoveryUsecase usecase.RecoveryUsecase
	logger          *slog.Logger
}

// NewErrorMiddleware creates a new error handling middleware
func NewErrorMiddleware(recoveryUsecase usecase.RecoveryUsecase, logger *slog.Logger) *ErrorMiddleware {
	return &ErrorMiddleware{
		recoveryUsecase: recoveryUsecase,
		logger:          logger,
	}
}

// recoveryHint is the remediation block attached to classified error
// responses so the dashboard can render a recovery button without a second
// round trip.
type recoveryHint struct {
	Action         string `json:"action"`
	CanRetry       bool   `json:"canRetry"`
	RequiresReauth bool   `json:"requiresReauth"`
	RetryDelayMS   int64  `json:"retryDelayMs,omitempty"`
	MaxRetries     int    `json:"maxRetries,omitempty"`
	FlowType       string `json:"flowType,omitempty"`
	HelpURL        string `json:"helpUrl,omitempty"`
}

// HandleHTTPError handles errors as Echo's HTTPErrorHandler
func (m *ErrorMiddleware) HandleHTTPError(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}

	// Classified token failures carry their own remediation.
	var tokenErr *domainerrors.TokenError
	if errors.As(err, &tokenErr) {
		info := tokenErr.Info()
		hint := &recoveryHint{
			Action:         string(info.RecoveryAction),
			CanRetry:       info.CanRetry,
			RequiresReauth: info.RequiresReauth,
			RetryDelayMS:   info.RetryDelay.Milliseconds(),
			MaxRetries:     info.MaxRetries,
			HelpURL:        info.HelpURL,
		}
		if flow := m.recoveryUsecase.FlowFor(tokenErr.Kind()); flow != nil {
			hint.FlowType = string(flow.Type)
		}

		c.JSON(tokenErr.HTTPCode(), response.Response{ //nolint:errcheck
			Success: false,
			Code:    tokenErr.HTTPCode(),
			Message: info.UserMessage,
			Error: &response.ErrorInfo{
				Code:     tokenErr.ErrorCode(),
				Details:  tokenErr.Details(),
				Recovery: hint,
			},
		})

		return
	}

	var appErr domainerrors.AppError
	if errors.As(err, &appErr) {
		c.JSON(appErr.HTTPCode(), response.Response{ //nolint:errcheck
			Success: false,
			Code:    appErr.HTTPCode(),
			Message: appErr.Message(),
			Error: &response.ErrorInfo{
				Code:    appErr.ErrorCode(),
				Details: appErr.Details(),
			},
		})

		return
	}

	var httpErr *echo.HTTPError
	if errors.As(err, &httpErr) {
		message := fmt.Sprintf("%v", httpErr.Message)
		c.JSON(httpErr.Code, response.Response{ //nolint:errcheck
			Success: false,
			Code:    httpErr.Code,
			Message: message,
			Error: &response.ErrorInfo{
				Code:    "HTTP_ERROR",
				Details: message,
			},
		})

		return
	}

	m.logger.Error("Unhandled error",
		"error", err.Error(),
		"path", c.Request().URL.Path,
		"method", c.Request().Method,
	)

	c.JSON(http.StatusInternalServerError, response.Response{ //nolint:errcheck
		Success: false,
		Code:    http.StatusInternalServerError,
		Message: "Internal server error",
		Error: &response.ErrorInfo{
			Code: "INTERNAL_ERROR",
		},
	})
}
