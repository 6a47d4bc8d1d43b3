package model

import (
	"time"

	"github.com/google/uuid"
)

// FlowViolationModel mirrors the append-only 'flow_violations' table.
// Application code only ever inserts; retention is handled externally.
type FlowViolationModel struct {
	ID            uuid.UUID  `gorm:"type:uuid;primary_key;default:uuid_generate_v4()"`
	ViolationType string     `gorm:"type:varchar(50);not null"`
	ExpectedFlow  string     `gorm:"type:varchar(50);not null"`
	ActualRoute   string     `gorm:"type:varchar(255);not null"`
	UserID        *uuid.UUID `gorm:"type:uuid"` // nullable: violations may be anonymous
	UserAgent     string     `gorm:"type:varchar(512)"`
	Referer       string     `gorm:"type:varchar(512)"`
	Severity      string     `gorm:"type:varchar(16);not null"`
	Description   string     `gorm:"type:text"`
	CreatedAt     time.Time
}

// TableName explicitly sets the table name for GORM.
func (FlowViolationModel) TableName() string {
	return "flow_violations"
}
