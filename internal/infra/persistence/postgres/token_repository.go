package postgres

import (
	"context"

	"briefly/internal/domain/entity"
	"briefly/internal/domain/repository"
	"briefly/internal/domain/service"
	"briefly/internal/errors"
	"briefly/internal/infra/persistence/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type tokenRepository struct {
	db     *gorm.DB
	cipher service.TokenCipher
}

// NewTokenRepository creates a new token repository backed by PostgreSQL.
// The cipher is applied on every write and read, so only ciphertext ever
// reaches the database.
func NewTokenRepository(db *gorm.DB, cipher service.TokenCipher) repository.TokenRepository {
	return &tokenRepository{db: db, cipher: cipher}
}

// SaveToken upserts the token keyed on (user_id, provider). Last writer wins:
// a concurrent refresh that loses the race simply overwrites with an equally
// valid credential.
func (repo *tokenRepository) SaveToken(ctx context.Context, token *entity.OAuthToken) error {
	record, err := repo.toModel(token)
	if err != nil {
		return err
	}

	err = repo.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "user_id"}, {Name: "provider"}},
			DoUpdates: clause.AssignmentColumns([]string{
				"access_token_enc", "refresh_token_enc", "scope",
				"token_type", "account_email", "expires_at", "updated_at",
			}),
		}).
		Create(record).Error
	if err != nil {
		// The upsert absorbs the unique index, so a duplicate-key error here
		// means two inserts raced inside the same statement window. The retry
		// will land on the update path.
		if isUniqueConstraintViolation(err) {
			return errors.Wrap(err, "concurrent token save, retry")
		}

		return errors.Wrap(err, "failed to save oauth token")
	}

	return nil
}

// GetToken retrieves and decrypts the token for a (user, provider) pair.
func (repo *tokenRepository) GetToken(ctx context.Context, userID uuid.UUID, provider entity.ProviderType) (*entity.OAuthToken, error) {
	var record model.OAuthTokenModel
	err := repo.db.WithContext(ctx).
		Where("user_id = ? AND provider = ?", userID, string(provider)).
		First(&record).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, repository.ErrTokenNotFound
		}

		return nil, errors.Wrap(err, "failed to get oauth token")
	}

	return repo.toEntity(&record)
}

// DeleteToken removes the record. Idempotent by contract: deleting an absent
// token succeeds, so disconnect can be retried safely.
func (repo *tokenRepository) DeleteToken(ctx context.Context, userID uuid.UUID, provider entity.ProviderType) error {
	err := repo.db.WithContext(ctx).
		Where("user_id = ? AND provider = ?", userID, string(provider)).
		Delete(&model.OAuthTokenModel{}).Error
	if err != nil {
		return errors.Wrap(err, "failed to delete oauth token")
	}

	return nil
}

// ListByUser returns every stored token for the user, decrypted.
func (repo *tokenRepository) ListByUser(ctx context.Context, userID uuid.UUID) ([]*entity.OAuthToken, error) {
	var records []*model.OAuthTokenModel
	err := repo.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("provider").
		Find(&records).Error
	if err != nil {
		return nil, errors.Wrap(err, "failed to list oauth tokens")
	}

	tokens := make([]*entity.OAuthToken, 0, len(records))
	for _, record := range records {
		token, err := repo.toEntity(record)
		if err != nil {
			return nil, err
		}
		tokens = append(tokens, token)
	}

	return tokens, nil
}

// toModel encrypts the secret fields and maps the entity onto the table row.
func (repo *tokenRepository) toModel(token *entity.OAuthToken) (*model.OAuthTokenModel, error) {
	accessEnc, err := repo.cipher.EncryptToken(token.UserID, token.Provider, token.AccessToken)
	if err != nil {
		return nil, errors.Wrap(err, "failed to encrypt access token")
	}

	refreshEnc := ""
	if token.RefreshToken != "" {
		refreshEnc, err = repo.cipher.EncryptToken(token.UserID, token.Provider, token.RefreshToken)
		if err != nil {
			return nil, errors.Wrap(err, "failed to encrypt refresh token")
		}
	}

	return &model.OAuthTokenModel{
		UserID:          token.UserID,
		Provider:        string(token.Provider),
		AccessTokenEnc:  accessEnc,
		RefreshTokenEnc: refreshEnc,
		Scope:           token.Scope,
		TokenType:       token.TokenType,
		AccountEmail:    token.AccountEmail,
		ExpiresAt:       token.ExpiresAt,
		CreatedAt:       token.CreatedAt,
		UpdatedAt:       token.UpdatedAt,
	}, nil
}

// toEntity decrypts the secret fields and maps the row back onto the entity.
func (repo *tokenRepository) toEntity(record *model.OAuthTokenModel) (*entity.OAuthToken, error) {
	provider, err := entity.ParseProvider(record.Provider)
	if err != nil {
		return nil, errors.Wrap(err, "stored token has unknown provider")
	}

	access, err := repo.cipher.DecryptToken(record.UserID, provider, record.AccessTokenEnc)
	if err != nil {
		return nil, errors.Wrap(err, "failed to decrypt access token")
	}

	refresh := ""
	if record.RefreshTokenEnc != "" {
		refresh, err = repo.cipher.DecryptToken(record.UserID, provider, record.RefreshTokenEnc)
		if err != nil {
			return nil, errors.Wrap(err, "failed to decrypt refresh token")
		}
	}

	return &entity.OAuthToken{
		UserID:       record.UserID,
		Provider:     provider,
		AccessToken:  access,
		RefreshToken: refresh,
		Scope:        record.Scope,
		TokenType:    record.TokenType,
		AccountEmail: record.AccountEmail,
		ExpiresAt:    record.ExpiresAt,
		CreatedAt:    record.CreatedAt,
		UpdatedAt:    record.UpdatedAt,
	}, nil
}
