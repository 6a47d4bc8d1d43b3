// Package id provides the UUID-backed identifier generator.
package id

import (
	"briefly/internal/domain/service"

	"github.com/google/uuid"
)

type uuidGenerator struct{}

// NewGenerator creates the UUID-backed IDGenerator.
func NewGenerator() service.IDGenerator {
	return uuidGenerator{}
}

func (uuidGenerator) NewID() string {
	return uuid.NewString()
}
