package repomanager

import (
	"context"

	"github.com/dmitrijs2005/interviewkit/internal/server/repositories/principals"
	"github.com/dmitrijs2005/interviewkit/internal/server/repositories/revokedtokens"
)

// MemoryRepositoryManager holds process-local repositories. Data is lost
// on exit; meant for tests and local runs.
type MemoryRepositoryManager struct {
	principals    *principals.MemoryRepository
	revokedTokens *revokedtokens.MemoryRepository
}

var _ RepositoryManager = (*MemoryRepositoryManager)(nil)

func NewMemoryRepositoryManager() *MemoryRepositoryManager {
	return &MemoryRepositoryManager{
		principals:    principals.NewMemoryRepository(),
		revokedTokens: revokedtokens.NewMemoryRepository(),
	}
}

func (m *MemoryRepositoryManager) Principals() principals.Repository {
	return m.principals
}

func (m *MemoryRepositoryManager) RevokedTokens() revokedtokens.Repository {
	return m.revokedTokens
}

func (m *MemoryRepositoryManager) RunMigrations(context.Context) error { return nil }

func (m *MemoryRepositoryManager) Close() error { return nil }
