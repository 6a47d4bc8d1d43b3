package impl

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"briefly/config"
	deliverycontext "briefly/internal/delivery/context"
	"briefly/internal/domain/entity"
	domainerrors "briefly/internal/domain/errors"
	"briefly/internal/domain/service"
	"briefly/internal/usecase"

	"github.com/google/uuid"
	"go.uber.org/fx"
)

const redactedMarker = "[REDACTED]"

// sensitiveKeyFragments is the denylist applied to attribute keys before any
// record leaves the sanitizer. Matching is substring, case-insensitive.
var sensitiveKeyFragments = []string{
	"token", "secret", "password", "credential", "authorization", "apikey", "api_key",
}

type auditService struct {
	publisher service.AuditPublisher
	archiver  service.AuditArchiver
	idGen     service.IDGenerator
	ipSalt    string
	logger    *slog.Logger
	now       func() time.Time
}

// AuditServiceParams holds dependencies for AuditService, injected by Fx.
type AuditServiceParams struct {
	fx.In

	Publisher service.AuditPublisher
	Archiver  service.AuditArchiver
	IDGen     service.IDGenerator
	Config    *config.Config
	Logger    *slog.Logger
}

// NewAuditService creates the sanitizing audit pipeline.
func NewAuditService(params AuditServiceParams) usecase.AuditUsecase {
	ipSalt := ""
	if params.Config.Audit != nil {
		ipSalt = params.Config.Audit.IPHashSalt
	}

	return &auditService{
		publisher: params.Publisher,
		archiver:  params.Archiver,
		idGen:     params.IDGen,
		ipSalt:    ipSalt,
		logger:    params.Logger,
		now:       time.Now,
	}
}

func (s *auditService) LogFileSelection(ctx context.Context, event *entity.FileSelectionEvent) {
	s.emit(ctx, slog.LevelInfo, entity.AuditFamilyFileSelection, "file_selected", map[string]string{
		"userId":    event.UserID.String(),
		"provider":  event.Provider.String(),
		"fileId":    event.FileID,
		"fileName":  sanitizeFilename(event.FileName),
		"mimeType":  event.MimeType,
		"sizeBytes": strconv.FormatInt(event.SizeBytes, 10),
		"scopeUsed": event.ScopeUsed,
		// The issuance correlation handle, deliberately not keyed "tokenId"
		// so the denylist never eats it.
		"correlationId": event.TokenID,
		"ipHash":        s.hashIP(event.ClientIP),
	})
}

func (s *auditService) LogFileAccess(ctx context.Context, event *entity.FileAccessEvent) {
	s.emit(ctx, slog.LevelInfo, entity.AuditFamilyFileAccess, event.Action, map[string]string{
		"userId":    event.UserID.String(),
		"provider":  event.Provider.String(),
		"fileId":    event.FileID,
		"fileName":  sanitizeFilename(event.FileName),
		"mimeType":  event.MimeType,
		"sizeBytes": strconv.FormatInt(event.SizeBytes, 10),
		"scopeUsed": event.ScopeUsed,
		"ipHash":    s.hashIP(event.ClientIP),
	})
}

func (s *auditService) LogSecurityEvent(ctx context.Context, event *entity.SecurityEvent) {
	s.emit(ctx, domainerrors.LogLevel(event.RiskLevel), entity.AuditFamilySecurity, event.Kind, map[string]string{
		"userId":        event.UserID.String(),
		"provider":      event.Provider.String(),
		"success":       strconv.FormatBool(event.Success),
		"riskLevel":     string(event.RiskLevel),
		"detail":        event.Detail,
		"correlationId": event.CorrelationID,
		"ipHash":        s.hashIP(event.ClientIP),
	})
}

func (s *auditService) LogPrivacyEvent(ctx context.Context, event *entity.PrivacyEvent) {
	s.emit(ctx, slog.LevelInfo, entity.AuditFamilyPrivacy, event.Kind, map[string]string{
		"userId":   event.UserID.String(),
		"provider": event.Provider.String(),
		"detail":   event.Detail,
	})
}

// emit sanitizes, logs, publishes and archives one record. Sink failures are
// logged and swallowed: auditing never aborts the audited operation.
func (s *auditService) emit(ctx context.Context, level slog.Level, family entity.AuditFamily, eventType string, attributes map[string]string) {
	record := &entity.AuditRecord{
		ID:         s.idGen.NewID(),
		Family:     family,
		Type:       eventType,
		Timestamp:  s.now(),
		Attributes: sanitizeAttributes(attributes),
	}

	logger := deliverycontext.GetLoggerOrDefault(ctx, s.logger)

	attrs := make([]slog.Attr, 0, len(record.Attributes)+3)
	attrs = append(attrs,
		slog.String("auditId", record.ID),
		slog.String("family", string(record.Family)),
		slog.String("eventType", record.Type),
	)
	for key, value := range record.Attributes {
		if value == "" {
			continue
		}
		attrs = append(attrs, slog.String(key, value))
	}
	logger.LogAttrs(ctx, level, "Audit event", attrs...)

	if err := s.publisher.PublishAuditRecord(ctx, record); err != nil {
		logger.LogAttrs(ctx, slog.LevelWarn, "Audit publish failed",
			slog.String("auditId", record.ID),
			slog.String("error", err.Error()),
		)
	}

	if err := s.archiver.Archive(ctx, record); err != nil {
		logger.LogAttrs(ctx, slog.LevelWarn, "Audit archive failed",
			slog.String("auditId", record.ID),
			slog.String("error", err.Error()),
		)
	}
}

// sanitizeAttributes redacts denylisted keys and drops empty values.
func sanitizeAttributes(attributes map[string]string) map[string]string {
	sanitized := make(map[string]string, len(attributes))
	for key, value := range attributes {
		if value == "" {
			continue
		}
		if isSensitiveKey(key) {
			sanitized[key] = redactedMarker

			continue
		}
		sanitized[key] = value
	}

	// uuid.Nil renders as the zero UUID string; anonymous is clearer.
	if sanitized["userId"] == uuid.Nil.String() {
		sanitized["userId"] = "anonymous"
	}

	return sanitized
}

func isSensitiveKey(key string) bool {
	lower := strings.ToLower(key)
	for _, fragment := range sensitiveKeyFragments {
		if strings.Contains(lower, fragment) {
			return true
		}
	}

	return false
}

// hashIP one-way hashes a client IP with the configured salt. Raw IPs never
// reach a sink.
func (s *auditService) hashIP(ip string) string {
	if ip == "" {
		return ""
	}

	sum := sha256.Sum256([]byte(s.ipSalt + ip))

	return hex.EncodeToString(sum[:])[:16]
}

// sanitizeFilename keeps the safe character set and replaces the rest, so log
// pipelines never see control characters or path separators from user files.
func sanitizeFilename(name string) string {
	if name == "" {
		return ""
	}

	var b strings.Builder
	b.Grow(len(name))
	for _, r := range name {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9',
			r == '.', r == '_', r == '-', r == ' ':
			b.WriteRune(r)
		default:
			b.WriteRune('_')
		}
	}

	return b.String()
}
