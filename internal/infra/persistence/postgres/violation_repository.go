package postgres

import (
	"context"

	"briefly/internal/domain/entity"
	"briefly/internal/domain/repository"
	"briefly/internal/errors"
	"briefly/internal/infra/persistence/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type violationRepository struct {
	db *gorm.DB
}

// NewViolationRepository creates a new flow-violation repository backed by PostgreSQL.
func NewViolationRepository(db *gorm.DB) repository.ViolationRepository {
	return &violationRepository{db: db}
}

// RecordViolation appends one violation record. The table is append-only.
func (repo *violationRepository) RecordViolation(ctx context.Context, violation *entity.FlowSeparationViolation) error {
	var userID *uuid.UUID
	if violation.UserID != uuid.Nil {
		id := violation.UserID
		userID = &id
	}

	record := &model.FlowViolationModel{
		ID:            violation.ID,
		ViolationType: string(violation.ViolationType),
		ExpectedFlow:  string(violation.ExpectedFlow),
		ActualRoute:   violation.ActualRoute,
		UserID:        userID,
		UserAgent:     violation.UserAgent,
		Referer:       violation.Referer,
		Severity:      string(violation.Severity),
		Description:   violation.Description,
		CreatedAt:     violation.Timestamp,
	}

	if err := repo.db.WithContext(ctx).Create(record).Error; err != nil {
		return errors.Wrap(err, "failed to record flow violation")
	}

	return nil
}

type refreshEventRepository struct {
	db *gorm.DB
}

// NewRefreshEventRepository creates a new refresh-event journal backed by PostgreSQL.
func NewRefreshEventRepository(db *gorm.DB) repository.RefreshEventRepository {
	return &refreshEventRepository{db: db}
}

// RecordRefreshEvent appends one refresh attempt record.
func (repo *refreshEventRepository) RecordRefreshEvent(ctx context.Context, event *entity.TokenRefreshEvent) error {
	record := &model.TokenRefreshEventModel{
		ID:        event.ID,
		UserID:    event.UserID,
		Provider:  string(event.Provider),
		Success:   event.Success,
		ErrorKind: event.ErrorKind,
		LatencyMS: event.LatencyMS,
		CreatedAt: event.CreatedAt,
	}

	if err := repo.db.WithContext(ctx).Create(record).Error; err != nil {
		return errors.Wrap(err, "failed to record token refresh event")
	}

	return nil
}
