// Package router contains routing and server setup for the HTTP delivery.
package router

import (
	"briefly/internal/delivery/http/middleware"
	"briefly/internal/delivery/http/router/handler"

	"github.com/labstack/echo/v4"
	"go.uber.org/fx"
)

type RouterParams struct {
	fx.In

	StorageHandler        *handler.StorageHandler
	PickerHandler         *handler.PickerHandler
	RecoveryHandler       *handler.RecoveryHandler
	SessionMiddleware     *middleware.SessionMiddleware
	FlowMonitorMiddleware *middleware.FlowMonitorMiddleware
}

// router holds all the handlers that need to be registered.
type router struct {
	storageHandler        *handler.StorageHandler
	pickerHandler         *handler.PickerHandler
	recoveryHandler       *handler.RecoveryHandler
	sessionMiddleware     *middleware.SessionMiddleware
	flowMonitorMiddleware *middleware.FlowMonitorMiddleware
}

// NewRouter is the constructor for the Router.
// Fx will inject the required handlers here.
func NewRouter(params RouterParams) *router {
	return &router{
		storageHandler:        params.StorageHandler,
		pickerHandler:         params.PickerHandler,
		recoveryHandler:       params.RecoveryHandler,
		sessionMiddleware:     params.SessionMiddleware,
		flowMonitorMiddleware: params.FlowMonitorMiddleware,
	}
}

// RegisterRoutes sets up all the API routes for the application.
func (r *router) RegisterRoutes(e *echo.Echo) {
	// Health check endpoint
	e.GET("/health", handler.HealthCheck)

	// Provider redirects land here without a session; the state parameter
	// carries the user binding.
	e.GET("/api/storage/:provider/callback", r.storageHandler.Callback)

	// Storage connection management, session required.
	storageGroup := e.Group("/api/storage")
	storageGroup.Use(r.sessionMiddleware.Authenticate)
	{
		storageGroup.GET("/status", r.storageHandler.Status)
		storageGroup.GET("/:provider/auth", r.storageHandler.Connect)
		storageGroup.GET("/:provider/qr", r.storageHandler.ConnectQR)
		storageGroup.GET("/:provider/files", r.storageHandler.ListFiles)
		storageGroup.DELETE("/:provider", r.storageHandler.Disconnect)
	}

	// Picker token issuance, session required.
	pickerGroup := e.Group("/api/picker")
	pickerGroup.Use(r.sessionMiddleware.Authenticate)
	{
		pickerGroup.POST("/token", r.pickerHandler.GenerateToken)
		pickerGroup.DELETE("/tokens", r.pickerHandler.RevokeTokens)
	}

	// Guided recovery, session required.
	recoveryGroup := e.Group("/api/recovery")
	recoveryGroup.Use(r.sessionMiddleware.Authenticate)
	{
		recoveryGroup.GET("", r.recoveryHandler.GetProgress)
		recoveryGroup.POST("/start", r.recoveryHandler.Start)
		recoveryGroup.POST("/steps/:stepID/complete", r.recoveryHandler.CompleteStep)
		recoveryGroup.DELETE("", r.recoveryHandler.Clear)
		recoveryGroup.GET("/hint", r.recoveryHandler.Hint)
	}

	// Storage connections do not belong to the login OAuth domain. These
	// routes exist only to catch miswired frontends.
	e.GET("/auth/storage/:provider/connect", r.flowMonitorMiddleware.RejectStorageOnLoginRoutes)
	e.GET("/auth/storage/:provider/callback", r.flowMonitorMiddleware.RejectStorageOnLoginRoutes)
}
