package impl

import (
	"context"
	"log/slog"
	"time"

	deliverycontext "briefly/internal/delivery/context"
	"briefly/internal/domain/entity"
	"briefly/internal/domain/repository"
	"briefly/internal/usecase"

	"github.com/google/uuid"
	"go.uber.org/fx"
)

type flowMonitorService struct {
	violationRepo repository.ViolationRepository
	auditUsecase  usecase.AuditUsecase
	logger        *slog.Logger
	now           func() time.Time
}

// FlowMonitorServiceParams holds dependencies for FlowMonitorService, injected by Fx.
type FlowMonitorServiceParams struct {
	fx.In

	ViolationRepo repository.ViolationRepository
	AuditUsecase  usecase.AuditUsecase
	Logger        *slog.Logger
}

// NewFlowMonitorService creates the flow-separation monitor. It observes and
// records; it never rejects a request, so a persistence outage here cannot
// take the storage routes down with it.
func NewFlowMonitorService(params FlowMonitorServiceParams) usecase.FlowMonitorUsecase {
	return &flowMonitorService{
		violationRepo: params.ViolationRepo,
		auditUsecase:  params.AuditUsecase,
		logger:        params.Logger,
		now:           time.Now,
	}
}

// ReportIncorrectRouteUsage records a request using the wrong OAuth domain's
// route. A storage-domain call showing up under /auth (or vice versa) is a
// frontend regression, not an attack, hence low severity.
func (s *flowMonitorService) ReportIncorrectRouteUsage(ctx context.Context, obs *usecase.FlowObservation) {
	s.record(ctx, entity.ViolationIncorrectRouteUsage, entity.FlowMainAuth, entity.SeverityLow, obs)
}

// ReportAuthenticationFailure records an authentication failure on a storage
// route.
func (s *flowMonitorService) ReportAuthenticationFailure(ctx context.Context, obs *usecase.FlowObservation) {
	s.record(ctx, entity.ViolationAuthenticationFailure, entity.FlowStorageOAuth, entity.SeverityMedium, obs)
}

// ReportUnauthorizedAccess records an authenticated request rejected for
// lacking authorization.
func (s *flowMonitorService) ReportUnauthorizedAccess(ctx context.Context, obs *usecase.FlowObservation) {
	s.record(ctx, entity.ViolationUnauthorizedAccess, entity.FlowStorageOAuth, entity.SeverityHigh, obs)
}

func (s *flowMonitorService) record(ctx context.Context, violationType entity.ViolationType, expectedFlow entity.FlowType, severity entity.Severity, obs *usecase.FlowObservation) {
	violation := &entity.FlowSeparationViolation{
		ID:            uuid.New(),
		ViolationType: violationType,
		ExpectedFlow:  expectedFlow,
		ActualRoute:   obs.Route,
		UserID:        obs.UserID,
		UserAgent:     obs.UserAgent,
		Referer:       obs.Referer,
		Severity:      severity,
		Description:   obs.Detail,
		Timestamp:     s.now(),
	}

	logger := deliverycontext.GetLoggerOrDefault(ctx, s.logger)

	if err := s.violationRepo.RecordViolation(ctx, violation); err != nil {
		logger.LogAttrs(ctx, slog.LevelWarn, "Failed to persist flow violation",
			slog.String("violationType", string(violationType)),
			slog.String("route", obs.Route),
			slog.String("error", err.Error()),
		)
	}

	s.auditUsecase.LogSecurityEvent(ctx, &entity.SecurityEvent{
		UserID:        obs.UserID,
		Kind:          "flow_violation",
		Success:       false,
		RiskLevel:     severity,
		Detail:        string(violationType) + " on " + obs.Route,
		CorrelationID: violation.ID.String(),
	})
}
