package service

import (
	"context"

	"briefly/internal/domain/entity"
)

// AuditPublisher delivers sanitized audit records to the external event bus.
// Publishing failures must never abort the operation being audited.
type AuditPublisher interface {
	// PublishAuditRecord publishes one sanitized record.
	PublishAuditRecord(ctx context.Context, record *entity.AuditRecord) error

	// Close releases the underlying connection.
	Close() error
}

// AuditArchiver writes sanitized audit records to long-term storage (a blob
// bucket), where external retention policy takes over.
type AuditArchiver interface {
	// Archive appends one record to the archive.
	Archive(ctx context.Context, record *entity.AuditRecord) error

	// Close flushes and releases the bucket handle.
	Close() error
}
