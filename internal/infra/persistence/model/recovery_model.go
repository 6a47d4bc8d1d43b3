package model

import (
	"time"

	"github.com/google/uuid"
)

// RecoveryProgressModel mirrors the 'recovery_progress' table. One row per
// user; starting a new flow overwrites the row.
type RecoveryProgressModel struct {
	UserID         uuid.UUID `gorm:"type:uuid;primaryKey"`
	FlowType       string    `gorm:"type:varchar(50);not null"`
	CurrentStepID  string    `gorm:"type:varchar(64);not null"`
	CompletedSteps string    `gorm:"type:jsonb;not null;default:'[]'"` // JSON array of step ids
	StartedAt      time.Time `gorm:"not null"`
	UpdatedAt      time.Time
}

// TableName explicitly sets the table name for GORM.
func (RecoveryProgressModel) TableName() string {
	return "recovery_progress"
}
