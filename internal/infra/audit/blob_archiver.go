// Package audit implements the long-term audit archive on top of blob storage.
package audit

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"briefly/config"
	"briefly/internal/domain/entity"
	"briefly/internal/domain/service"
	"briefly/internal/errors"

	"gocloud.dev/blob"
	_ "gocloud.dev/blob/fileblob" // file:// archive URLs
	_ "gocloud.dev/blob/gcsblob"  // gs:// archive URLs
	_ "gocloud.dev/blob/memblob"  // mem:// archive URLs, used in tests
)

// blobArchiver writes one JSON object per record, keyed by day and family so
// retention policy can expire whole prefixes.
type blobArchiver struct {
	bucket *blob.Bucket
}

// noopArchiver is used when archiving is not configured.
type noopArchiver struct{}

func (noopArchiver) Archive(context.Context, *entity.AuditRecord) error { return nil }
func (noopArchiver) Close() error                                       { return nil }

// NewBlobArchiver opens the configured archive bucket. An empty archive URL
// disables archiving.
func NewBlobArchiver(ctx context.Context, cfg *config.Config, logger *slog.Logger) (service.AuditArchiver, error) {
	if cfg.Audit == nil || cfg.Audit.ArchiveURL == "" {
		logger.Info("Audit archive not configured, using no-op archiver")

		return noopArchiver{}, nil
	}

	bucket, err := blob.OpenBucket(ctx, cfg.Audit.ArchiveURL)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to open audit archive bucket %s", cfg.Audit.ArchiveURL)
	}

	logger.Info("Audit archive opened", slog.String("url", cfg.Audit.ArchiveURL))

	return &blobArchiver{bucket: bucket}, nil
}

// Archive appends one record to the archive.
func (a *blobArchiver) Archive(ctx context.Context, record *entity.AuditRecord) error {
	data, err := json.Marshal(record)
	if err != nil {
		return errors.Wrap(err, "failed to marshal audit record")
	}

	key := archiveKey(record)
	if err := a.bucket.WriteAll(ctx, key, data, nil); err != nil {
		return errors.Wrapf(err, "failed to write audit record %s", record.ID)
	}

	return nil
}

// Close releases the bucket handle.
func (a *blobArchiver) Close() error {
	return a.bucket.Close()
}

func archiveKey(record *entity.AuditRecord) string {
	day := record.Timestamp.UTC().Format(time.DateOnly)

	return day + "/" + string(record.Family) + "/" + record.ID + ".json"
}
