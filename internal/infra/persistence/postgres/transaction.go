package postgres

import (
	"context"

	"briefly/internal/domain/repository"
	"briefly/internal/domain/service"
	"briefly/internal/errors"

	"gorm.io/gorm"
)

// transactionManager implements the repository.TransactionManager interface using GORM.
type transactionManager struct {
	db     *gorm.DB
	cipher service.TokenCipher
}

// NewTransactionManager creates a new transaction manager backed by GORM.
func NewTransactionManager(db *gorm.DB, cipher service.TokenCipher) repository.TransactionManager {
	return &transactionManager{db: db, cipher: cipher}
}

// Execute runs a function within a database transaction.
// All repositories obtained from the factory share the transaction handle, so
// the function's writes commit or roll back as one unit.
func (tm *transactionManager) Execute(ctx context.Context, fn func(txRepoFactory repository.RepositoryFactory) error) error {
	err := tm.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		factory := &repositoryFactory{tx: tx, cipher: tm.cipher}

		return fn(factory)
	})
	if err != nil {
		return errors.Wrap(err, "transaction failed")
	}

	return nil
}

// repositoryFactory implements repository.RepositoryFactory, handing out
// repositories bound to one in-flight transaction.
type repositoryFactory struct {
	tx     *gorm.DB
	cipher service.TokenCipher
}

func (f *repositoryFactory) TokenRepo() repository.TokenRepository {
	return NewTokenRepository(f.tx, f.cipher)
}

func (f *repositoryFactory) RecoveryRepo() repository.RecoveryRepository {
	return NewRecoveryRepository(f.tx)
}

func (f *repositoryFactory) RefreshEventRepo() repository.RefreshEventRepository {
	return NewRefreshEventRepository(f.tx)
}
