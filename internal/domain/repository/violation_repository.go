package repository

import (
	"context"

	"briefly/internal/domain/entity"
)

// ViolationRepository persists flow-separation violations. Append-only:
// there are deliberately no update or delete operations, retention is an
// external concern.
type ViolationRepository interface {
	// RecordViolation appends one violation record.
	RecordViolation(ctx context.Context, violation *entity.FlowSeparationViolation) error
}

// RefreshEventRepository journals token refresh attempts. Append-only, like
// the violation log; the rows feed the security-monitoring views.
type RefreshEventRepository interface {
	// RecordRefreshEvent appends one refresh attempt record.
	RecordRefreshEvent(ctx context.Context, event *entity.TokenRefreshEvent) error
}
