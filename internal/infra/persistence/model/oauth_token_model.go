package model

import (
	"time"

	"github.com/google/uuid"
)

// OAuthTokenModel mirrors the 'oauth_tokens' table. The composite primary key
// (user_id, provider) enforces the single-live-token invariant at the schema
// level; writes are upserts on that pair. Token columns hold ciphertext from
// the token cipher, never plaintext.
type OAuthTokenModel struct {
	UserID          uuid.UUID `gorm:"type:uuid;primaryKey"`
	Provider        string    `gorm:"type:varchar(50);primaryKey"`
	AccessTokenEnc  string    `gorm:"column:access_token_enc;type:text;not null"`
	RefreshTokenEnc string    `gorm:"column:refresh_token_enc;type:text"`
	Scope           string    `gorm:"type:text;not null"`
	TokenType       string    `gorm:"type:varchar(50);not null;default:Bearer"`
	AccountEmail    string    `gorm:"type:varchar(255)"`
	ExpiresAt       time.Time `gorm:"not null"`
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// TableName explicitly sets the table name for GORM.
func (OAuthTokenModel) TableName() string {
	return "oauth_tokens"
}

// TokenRefreshEventModel mirrors the append-only 'token_refresh_events'
// table consumed by the security-monitoring views.
type TokenRefreshEventModel struct {
	ID        uuid.UUID `gorm:"type:uuid;primary_key;default:uuid_generate_v4()"`
	UserID    uuid.UUID `gorm:"type:uuid;not null;index"`
	Provider  string    `gorm:"type:varchar(50);not null"`
	Success   bool      `gorm:"not null"`
	ErrorKind string    `gorm:"type:varchar(64)"`
	LatencyMS int64     `gorm:"column:latency_ms;not null"`
	CreatedAt time.Time
}

// TableName explicitly sets the table name for GORM.
func (TokenRefreshEventModel) TableName() string {
	return "token_refresh_events"
}
