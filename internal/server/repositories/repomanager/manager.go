// Package repomanager vends the repositories of one storage backend
// (PostgreSQL, bbolt or memory) and owns its connection and schema setup.
package repomanager

import (
	"context"
	"fmt"

	"github.com/dmitrijs2005/interviewkit/internal/server/config"
	"github.com/dmitrijs2005/interviewkit/internal/server/repositories/principals"
	"github.com/dmitrijs2005/interviewkit/internal/server/repositories/revokedtokens"
)

type RepositoryManager interface {
	Principals() principals.Repository
	RevokedTokens() revokedtokens.Repository
	// RunMigrations brings the backend's schema up to date.
	RunMigrations(ctx context.Context) error
	Close() error
}

// New opens the backend selected by cfg.StorageBackend.
func New(ctx context.Context, cfg *config.Config) (RepositoryManager, error) {
	switch cfg.StorageBackend {
	case config.BackendPostgres:
		return NewPostgresRepositoryManager(ctx, cfg.DatabaseDSN)
	case config.BackendBolt:
		return NewBoltRepositoryManager(cfg.BoltPath)
	case config.BackendMemory:
		return NewMemoryRepositoryManager(), nil
	default:
		return nil, fmt.Errorf("unknown storage backend %q", cfg.StorageBackend)
	}
}
