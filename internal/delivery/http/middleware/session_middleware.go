package middleware

import (
	"net/http"
	"slices"
	"strings"

	deliverycontext "briefly/internal/delivery/context"
	"briefly/internal/delivery/http/response"
	"briefly/internal/domain/service"
	"briefly/internal/usecase"

	"github.com/labstack/echo/v4"
)

// SessionMiddleware authenticates requests with the dashboard session token
// minted by the main identity provider. This subsystem never issues session
// tokens itself; it only verifies them. Authentication failures on storage
// routes are reported to the flow monitor before being rejected.
type SessionMiddleware struct {
	verifier    service.SessionVerifier
	flowMonitor usecase.FlowMonitorUsecase
}

// NewSessionMiddleware is the constructor for SessionMiddleware.
func NewSessionMiddleware(verifier service.SessionVerifier, flowMonitor usecase.FlowMonitorUsecase) *SessionMiddleware {
	return &SessionMiddleware{verifier: verifier, flowMonitor: flowMonitor}
}

// Authenticate validates the bearer session token and stores the user id on
// the context for handlers.
func (m *SessionMiddleware) Authenticate(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		authHeader := c.Request().Header.Get("Authorization")
		if authHeader == "" {
			m.reportFailure(c, "authorization header missing")

			return response.Unauthorized(c, "UNAUTHORIZED", "Authorization header is missing")
		}

		tokenString := strings.TrimPrefix(authHeader, "Bearer ")
		if tokenString == authHeader {
			m.reportFailure(c, "authorization header is not a bearer token")

			return response.Unauthorized(c, "UNAUTHORIZED", "Invalid token format, must be Bearer token")
		}

		claims, err := m.verifier.VerifyAccessToken(tokenString)
		if err != nil {
			m.reportFailure(c, "session token rejected: "+err.Error())

			return response.Unauthorized(c, "UNAUTHORIZED", "Invalid or expired token")
		}

		deliverycontext.SetUserID(c, claims.UserID)
		c.Set("roles", claims.Roles)

		return next(c)
	}
}

// RequireRole rejects authenticated requests lacking a role. Must run after
// Authenticate.
func (m *SessionMiddleware) RequireRole(requiredRole string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			roles, ok := c.Get("roles").([]string)
			if !ok || !slices.Contains(roles, requiredRole) {
				m.flowMonitor.ReportUnauthorizedAccess(c.Request().Context(), m.observation(c, "missing role "+requiredRole))

				return response.Error(c, http.StatusForbidden, "FORBIDDEN",
					"Permission denied: require '"+requiredRole+"' role", "")
			}

			return next(c)
		}
	}
}

func (m *SessionMiddleware) reportFailure(c echo.Context, detail string) {
	m.flowMonitor.ReportAuthenticationFailure(c.Request().Context(), m.observation(c, detail))
}

func (m *SessionMiddleware) observation(c echo.Context, detail string) *usecase.FlowObservation {
	return &usecase.FlowObservation{
		Route:     c.Request().URL.Path,
		UserID:    deliverycontext.GetUserID(c),
		UserAgent: c.Request().UserAgent(),
		Referer:   c.Request().Referer(),
		Detail:    detail,
	}
}
