package middleware

import (
	"net/http"

	deliverycontext "briefly/internal/delivery/context"
	"briefly/internal/delivery/http/response"
	"briefly/internal/usecase"

	"github.com/labstack/echo/v4"
)

// FlowMonitorMiddleware watches for requests that cross between the
// main-login OAuth domain and the storage OAuth domain. The two flows use
// separate client registrations and separate routes; a storage request
// arriving on a login route means a miswired frontend.
type FlowMonitorMiddleware struct {
	flowMonitor usecase.FlowMonitorUsecase
}

// NewFlowMonitorMiddleware is the constructor for FlowMonitorMiddleware.
func NewFlowMonitorMiddleware(flowMonitor usecase.FlowMonitorUsecase) *FlowMonitorMiddleware {
	return &FlowMonitorMiddleware{flowMonitor: flowMonitor}
}

// RejectStorageOnLoginRoutes handles storage-flavoured requests that landed
// on the main-login OAuth routes. The request is recorded and turned away
// with a pointer at the right route; it is never silently served.
func (m *FlowMonitorMiddleware) RejectStorageOnLoginRoutes(c echo.Context) error {
	m.flowMonitor.ReportIncorrectRouteUsage(c.Request().Context(), &usecase.FlowObservation{
		Route:     c.Request().URL.Path,
		UserID:    deliverycontext.GetUserID(c),
		UserAgent: c.Request().UserAgent(),
		Referer:   c.Request().Referer(),
		Detail:    "storage connection request on a login route",
	})

	return response.Error(c, http.StatusNotFound, "WRONG_OAUTH_DOMAIN",
		"Storage connections are managed under /api/storage, not the login routes", "")
}
