// Package handler contains the HTTP handlers for the application.
package handler

import (
	"log/slog"
	"net/http"
	"strconv"

	deliverycontext "briefly/internal/delivery/context"
	"briefly/internal/delivery/http/response"
	"briefly/internal/domain/entity"
	"briefly/internal/usecase"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"
)

const defaultFileListLimit = 50

// StorageHandler holds dependencies for the storage-connection handlers.
type StorageHandler struct {
	storageUsecase  usecase.StorageUsecase
	recoveryUsecase usecase.RecoveryUsecase
	logger          *slog.Logger
}

// NewStorageHandler is the constructor for StorageHandler, injected by Fx.
func NewStorageHandler(storageUsecase usecase.StorageUsecase, recoveryUsecase usecase.RecoveryUsecase, logger *slog.Logger) *StorageHandler {
	return &StorageHandler{
		storageUsecase:  storageUsecase,
		recoveryUsecase: recoveryUsecase,
		logger:          logger,
	}
}

// Connect returns the provider consent URL, or redirects straight to it when
// ?redirect=true.
func (h *StorageHandler) Connect(c echo.Context) error {
	provider, err := entity.ParseProvider(c.Param("provider"))
	if err != nil {
		return response.BadRequest(c, "PROVIDER_UNKNOWN", "Unknown cloud storage provider")
	}

	userID := deliverycontext.GetUserID(c)
	authURL, err := h.storageUsecase.AuthorizationURL(c.Request().Context(), userID, provider)
	if err != nil {
		return errors.WithStack(err)
	}

	if c.QueryParam("redirect") == "true" {
		return c.Redirect(http.StatusTemporaryRedirect, authURL)
	}

	return response.Success(c, http.StatusOK, map[string]string{"authorizationUrl": authURL}, "")
}

// ConnectQR renders the consent URL as a PNG QR code for mobile handoff.
func (h *StorageHandler) ConnectQR(c echo.Context) error {
	provider, err := entity.ParseProvider(c.Param("provider"))
	if err != nil {
		return response.BadRequest(c, "PROVIDER_UNKNOWN", "Unknown cloud storage provider")
	}

	userID := deliverycontext.GetUserID(c)
	png, err := h.storageUsecase.ConnectQR(c.Request().Context(), userID, provider)
	if err != nil {
		return errors.WithStack(err)
	}

	return c.Blob(http.StatusOK, "image/png", png)
}

// Callback completes the consent flow from the provider redirect. The route
// is unauthenticated; the state parameter ties the redirect back to the user
// who started the flow.
func (h *StorageHandler) Callback(c echo.Context) error {
	provider, err := entity.ParseProvider(c.Param("provider"))
	if err != nil {
		return response.BadRequest(c, "PROVIDER_UNKNOWN", "Unknown cloud storage provider")
	}

	if oauthErr := c.QueryParam("error"); oauthErr != "" {
		// The user declined consent at the provider.
		return response.BadRequest(c, "OAUTH_DENIED", "Authorization was declined: "+oauthErr)
	}

	conn, err := h.storageUsecase.HandleCallback(c.Request().Context(),
		provider, c.QueryParam("state"), c.QueryParam("code"))
	if err != nil {
		return errors.WithStack(err)
	}

	return response.Success(c, http.StatusOK, conn, "Storage connected successfully")
}

// Status reports the connection state for every supported provider, with a
// dashboard-ready status line per connection.
func (h *StorageHandler) Status(c echo.Context) error {
	userID := deliverycontext.GetUserID(c)
	conns, err := h.storageUsecase.Status(c.Request().Context(), userID)
	if err != nil {
		return errors.WithStack(err)
	}

	type connectionStatus struct {
		*entity.StorageConnection
		Message string `json:"message"`
	}
	statuses := make([]connectionStatus, 0, len(conns))
	for _, conn := range conns {
		statuses = append(statuses, connectionStatus{
			StorageConnection: conn,
			Message:           h.recoveryUsecase.ConnectionStatusMessage(conn.Provider, conn.Connected, ""),
		})
	}

	return response.Success(c, http.StatusOK, statuses, "")
}

// ListFiles returns document metadata from the connected provider.
func (h *StorageHandler) ListFiles(c echo.Context) error {
	provider, err := entity.ParseProvider(c.Param("provider"))
	if err != nil {
		return response.BadRequest(c, "PROVIDER_UNKNOWN", "Unknown cloud storage provider")
	}

	limit := defaultFileListLimit
	if raw := c.QueryParam("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 {
			return response.BadRequest(c, "INVALID_LIMIT", "limit must be a positive integer")
		}
		limit = parsed
	}

	userID := deliverycontext.GetUserID(c)
	files, err := h.storageUsecase.ListFiles(c.Request().Context(), userID, provider, limit, c.RealIP())
	if err != nil {
		return errors.WithStack(err)
	}

	return response.Success(c, http.StatusOK, files, "")
}

// Disconnect removes the stored connection. Idempotent.
func (h *StorageHandler) Disconnect(c echo.Context) error {
	provider, err := entity.ParseProvider(c.Param("provider"))
	if err != nil {
		return response.BadRequest(c, "PROVIDER_UNKNOWN", "Unknown cloud storage provider")
	}

	userID := deliverycontext.GetUserID(c)
	if err := h.storageUsecase.Disconnect(c.Request().Context(), userID, provider); err != nil {
		return errors.WithStack(err)
	}

	return response.Success(c, http.StatusOK, map[string]string{"provider": provider.String()}, "Storage disconnected")
}
