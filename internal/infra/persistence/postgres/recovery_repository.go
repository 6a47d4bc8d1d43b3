package postgres

import (
	"context"
	"encoding/json"

	"briefly/internal/domain/entity"
	"briefly/internal/domain/repository"
	"briefly/internal/errors"
	"briefly/internal/infra/persistence/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type recoveryRepository struct {
	db *gorm.DB
}

// NewRecoveryRepository creates a new recovery progress repository backed by PostgreSQL.
func NewRecoveryRepository(db *gorm.DB) repository.RecoveryRepository {
	return &recoveryRepository{db: db}
}

// SaveProgress upserts the user's progress record. Starting a new flow
// replaces whatever was there before.
func (repo *recoveryRepository) SaveProgress(ctx context.Context, progress *entity.RecoveryProgress) error {
	record, err := recoveryToModel(progress)
	if err != nil {
		return err
	}

	err = repo.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "user_id"}},
			DoUpdates: clause.AssignmentColumns([]string{
				"flow_type", "current_step_id", "completed_steps", "started_at", "updated_at",
			}),
		}).
		Create(record).Error
	if err != nil {
		return errors.Wrap(err, "failed to save recovery progress")
	}

	return nil
}

func (repo *recoveryRepository) GetProgress(ctx context.Context, userID uuid.UUID) (*entity.RecoveryProgress, error) {
	var record model.RecoveryProgressModel
	err := repo.db.WithContext(ctx).
		Where("user_id = ?", userID).
		First(&record).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, repository.ErrRecoveryNotFound
		}

		return nil, errors.Wrap(err, "failed to get recovery progress")
	}

	return recoveryToEntity(&record)
}

// DeleteProgress clears the user's progress. Idempotent.
func (repo *recoveryRepository) DeleteProgress(ctx context.Context, userID uuid.UUID) error {
	err := repo.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Delete(&model.RecoveryProgressModel{}).Error
	if err != nil {
		return errors.Wrap(err, "failed to delete recovery progress")
	}

	return nil
}

func recoveryToModel(progress *entity.RecoveryProgress) (*model.RecoveryProgressModel, error) {
	completed := progress.CompletedSteps
	if completed == nil {
		completed = []string{}
	}
	raw, err := json.Marshal(completed)
	if err != nil {
		return nil, errors.Wrap(err, "failed to marshal completed steps")
	}

	return &model.RecoveryProgressModel{
		UserID:         progress.UserID,
		FlowType:       string(progress.FlowType),
		CurrentStepID:  progress.CurrentStepID,
		CompletedSteps: string(raw),
		StartedAt:      progress.StartedAt,
	}, nil
}

func recoveryToEntity(record *model.RecoveryProgressModel) (*entity.RecoveryProgress, error) {
	var completed []string
	if record.CompletedSteps != "" {
		if err := json.Unmarshal([]byte(record.CompletedSteps), &completed); err != nil {
			return nil, errors.Wrap(err, "failed to unmarshal completed steps")
		}
	}

	return &entity.RecoveryProgress{
		UserID:         record.UserID,
		FlowType:       entity.RecoveryFlowType(record.FlowType),
		CurrentStepID:  record.CurrentStepID,
		CompletedSteps: completed,
		StartedAt:      record.StartedAt,
	}, nil
}
