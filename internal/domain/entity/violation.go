package entity

import (
	"time"

	"github.com/google/uuid"
)

// FlowType names one of the two intentionally disjoint OAuth domains.
// Main-login OAuth proves who the user is; storage OAuth grants access to
// their files. The two use disjoint routes, scopes and client registrations,
// and that separation is a security boundary.
type FlowType string

const (
	FlowMainAuth     FlowType = "main_auth"
	FlowStorageOAuth FlowType = "storage_oauth"
)

// ViolationType classifies an observed crossing between the two OAuth domains.
type ViolationType string

const (
	ViolationIncorrectRouteUsage   ViolationType = "incorrect_route_usage"
	ViolationAuthenticationFailure ViolationType = "authentication_failure"
	ViolationUnauthorizedAccess    ViolationType = "unauthorized_access"
)

// FlowSeparationViolation is an append-only record of a flow-separation
// regression. Application code never mutates or deletes these; retention is
// an external policy.
type FlowSeparationViolation struct {
	ID            uuid.UUID
	ViolationType ViolationType
	ExpectedFlow  FlowType
	ActualRoute   string
	UserID        uuid.UUID // uuid.Nil when the request was anonymous
	UserAgent     string
	Referer       string
	Severity      Severity
	Description   string
	Timestamp     time.Time
}
