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

// RecoveryHandler holds dependencies for the guided-recovery handlers.
type RecoveryHandler struct {
	recoveryUsecase usecase.RecoveryUsecase
	logger          *slog.Logger
}

// NewRecoveryHandler is the constructor for RecoveryHandler, injected by Fx.
func NewRecoveryHandler(recoveryUsecase usecase.RecoveryUsecase, logger *slog.Logger) *RecoveryHandler {
	return &RecoveryHandler{
		recoveryUsecase: recoveryUsecase,
		logger:          logger,
	}
}

// progressView pairs the cursor with its flow definition so the UI can render
// the whole procedure in one request.
type progressView struct {
	Progress *entity.RecoveryProgress `json:"progress"`
	Flow     *entity.RecoveryFlow     `json:"flow"`
	Done     bool                     `json:"done"`
}

// GetProgress returns the user's active recovery, with the flow definition.
func (h *RecoveryHandler) GetProgress(c echo.Context) error {
	userID := deliverycontext.GetUserID(c)
	progress, flow, err := h.recoveryUsecase.GetProgress(c.Request().Context(), userID)
	if err != nil {
		return errors.WithStack(err)
	}

	return response.Success(c, http.StatusOK, progressView{Progress: progress, Flow: flow}, "")
}

// startRecoveryInput is the request body for starting a recovery flow.
type startRecoveryInput struct {
	ErrorKind string `json:"errorKind" validate:"required"`
}

// Start begins the recovery flow matching a classified error kind.
func (h *RecoveryHandler) Start(c echo.Context) error {
	input := new(startRecoveryInput)
	if err := c.Bind(input); err != nil {
		return response.BindingError(c, "INVALID_INPUT", "Invalid recovery request")
	}
	if err := c.Validate(input); err != nil {
		return errors.WithStack(err)
	}

	userID := deliverycontext.GetUserID(c)
	kind := entity.ErrorKind(input.ErrorKind)
	progress, err := h.recoveryUsecase.StartRecovery(c.Request().Context(), userID, kind)
	if err != nil {
		return errors.WithStack(err)
	}

	flow := h.recoveryUsecase.FlowFor(kind)

	return response.Success(c, http.StatusCreated, progressView{Progress: progress, Flow: flow}, "Recovery started")
}

// CompleteStep marks one step of the active flow as done.
func (h *RecoveryHandler) CompleteStep(c echo.Context) error {
	stepID := c.Param("stepID")
	if stepID == "" {
		return response.BadRequest(c, "INVALID_INPUT", "Step id is required")
	}

	userID := deliverycontext.GetUserID(c)
	progress, done, err := h.recoveryUsecase.CompleteStep(c.Request().Context(), userID, stepID)
	if err != nil {
		return errors.WithStack(err)
	}

	view := progressView{Progress: progress, Done: done}
	if !done {
		if _, flow, err := h.recoveryUsecase.GetProgress(c.Request().Context(), userID); err == nil {
			view.Flow = flow
		}
	}
	message := "Step completed"
	if done {
		message = "Recovery complete"
	}

	return response.Success(c, http.StatusOK, view, message)
}

// Clear drops the user's recovery progress. Idempotent.
func (h *RecoveryHandler) Clear(c echo.Context) error {
	userID := deliverycontext.GetUserID(c)
	if err := h.recoveryUsecase.ClearRecovery(c.Request().Context(), userID); err != nil {
		return errors.WithStack(err)
	}

	return response.Success(c, http.StatusOK, nil, "Recovery cleared")
}

// Hint returns the quick one-button action and, when available, the guided
// flow for an error kind. Used by the dashboard's error banners.
func (h *RecoveryHandler) Hint(c echo.Context) error {
	kind := entity.ErrorKind(c.QueryParam("errorKind"))
	if kind == "" {
		return response.BadRequest(c, "INVALID_INPUT", "errorKind query parameter is required")
	}

	type hintView struct {
		Action entity.RecoveryAction `json:"action"`
		Flow   *entity.RecoveryFlow  `json:"flow,omitempty"`
	}

	return response.Success(c, http.StatusOK, hintView{
		Action: h.recoveryUsecase.QuickRecoveryAction(kind),
		Flow:   h.recoveryUsecase.FlowFor(kind),
	}, "")
}
