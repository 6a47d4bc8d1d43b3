package usecase

import (
	"context"

	"briefly/internal/domain/entity"
)

// AuditUsecase is the sanitizing audit pipeline. Every method redacts
// denylisted attributes, hashes IPs and strips filenames before anything is
// written, and sink failures never propagate to the caller: auditing must not
// abort the operation being audited.
type AuditUsecase interface {
	LogFileSelection(ctx context.Context, event *entity.FileSelectionEvent)
	LogFileAccess(ctx context.Context, event *entity.FileAccessEvent)
	LogSecurityEvent(ctx context.Context, event *entity.SecurityEvent)
	LogPrivacyEvent(ctx context.Context, event *entity.PrivacyEvent)
}
