package handler

import (
	"log/slog"
	"net/http"

	deliverycontext "briefly/internal/delivery/context"
	"briefly/internal/delivery/http/response"
	"briefly/internal/domain/entity"
	"briefly/internal/usecase"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"
)

// PickerHandler holds dependencies for the picker-token handlers.
type PickerHandler struct {
	pickerUsecase usecase.PickerUsecase
	logger        *slog.Logger
}

// NewPickerHandler is the constructor for PickerHandler, injected by Fx.
func NewPickerHandler(pickerUsecase usecase.PickerUsecase, logger *slog.Logger) *PickerHandler {
	return &PickerHandler{
		pickerUsecase: pickerUsecase,
		logger:        logger,
	}
}

// generateTokenInput is the request body for token issuance. Everything is
// optional; the defaults are the configured policy.
type generateTokenInput struct {
	Provider           string `json:"provider"`
	MaxLifetimeSeconds int    `json:"maxLifetimeSeconds" validate:"omitempty,gt=0"`
}

// GenerateToken issues a short-lived access token for the client-side file
// picker. The response never includes the refresh token.
func (h *PickerHandler) GenerateToken(c echo.Context) error {
	input := new(generateTokenInput)
	if err := c.Bind(input); err != nil {
		return response.BindingError(c, "INVALID_INPUT", "Invalid picker token request")
	}
	if err := c.Validate(input); err != nil {
		return errors.WithStack(err)
	}

	var opts *entity.SecureTokenOptions
	if input.Provider != "" || input.MaxLifetimeSeconds > 0 {
		opts = &entity.SecureTokenOptions{MaxLifetimeSeconds: input.MaxLifetimeSeconds}
		if input.Provider != "" {
			provider, err := entity.ParseProvider(input.Provider)
			if err != nil {
				return response.BadRequest(c, "PROVIDER_UNKNOWN", "Unknown cloud storage provider")
			}
			opts.Provider = provider
		}
	}

	userID := deliverycontext.GetUserID(c)
	token, err := h.pickerUsecase.GeneratePickerToken(c.Request().Context(), userID, c.RealIP(), opts)
	if err != nil {
		return errors.WithStack(err)
	}

	// Final structural gate before the token leaves the service.
	if err := h.pickerUsecase.ValidatePickerTokenResponse(token); err != nil {
		return errors.WithStack(err)
	}

	return response.Success(c, http.StatusOK, token, "")
}

// RevokeTokens revokes every outstanding picker grant for the user, e.g. on
// sign-out.
func (h *PickerHandler) RevokeTokens(c echo.Context) error {
	userID := deliverycontext.GetUserID(c)
	revoked := h.pickerUsecase.CleanupUserPickerTokens(c.Request().Context(), userID)

	return response.Success(c, http.StatusOK, map[string]int{"revoked": revoked}, "")
}
