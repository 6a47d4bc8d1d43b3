package usecase

import (
	"context"

	"github.com/google/uuid"
)

// FlowObservation is what the monitoring middleware sees about one suspect
// request. UserID is uuid.Nil for anonymous requests.
type FlowObservation struct {
	Route     string
	UserID    uuid.UUID
	UserAgent string
	Referer   string
	Detail    string
}

// FlowMonitorUsecase records crossings between the main-login OAuth domain
// and the storage OAuth domain. Detection only: recording never blocks or
// fails the observed request, so no method returns an error.
type FlowMonitorUsecase interface {
	// ReportIncorrectRouteUsage records a request using the wrong OAuth
	// domain's route. Severity low.
	ReportIncorrectRouteUsage(ctx context.Context, obs *FlowObservation)

	// ReportAuthenticationFailure records an authentication failure on a
	// storage route. Severity medium.
	ReportAuthenticationFailure(ctx context.Context, obs *FlowObservation)

	// ReportUnauthorizedAccess records an authenticated request rejected for
	// lacking authorization. Severity high.
	ReportUnauthorizedAccess(ctx context.Context, obs *FlowObservation)
}
