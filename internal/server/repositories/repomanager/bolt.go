package repomanager

import (
	"context"
	"fmt"
	"time"

	"github.com/dmitrijs2005/interviewkit/internal/filex"
	"github.com/dmitrijs2005/interviewkit/internal/server/repositories/principals"
	"github.com/dmitrijs2005/interviewkit/internal/server/repositories/revokedtokens"
	"go.etcd.io/bbolt"
)

// BoltRepositoryManager keeps every repository in a single bbolt file.
type BoltRepositoryManager struct {
	db            *bbolt.DB
	principals    *principals.BoltRepository
	revokedTokens *revokedtokens.BoltRepository
}

var _ RepositoryManager = (*BoltRepositoryManager)(nil)

// NewBoltRepositoryManager opens (or creates) the bbolt file at path,
// creating its directory if needed. It fails after a second if another
// process holds the file lock.
func NewBoltRepositoryManager(path string) (*BoltRepositoryManager, error) {
	if _, err := filex.EnsureParentDir(path); err != nil {
		return nil, err
	}

	db, err := bbolt.Open(path, 0600, &bbolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, fmt.Errorf("opening bbolt db: %w", err)
	}
	return &BoltRepositoryManager{
		db:            db,
		principals:    principals.NewBoltRepository(db),
		revokedTokens: revokedtokens.NewBoltRepository(db),
	}, nil
}

func (m *BoltRepositoryManager) Principals() principals.Repository {
	return m.principals
}

func (m *BoltRepositoryManager) RevokedTokens() revokedtokens.Repository {
	return m.revokedTokens
}

// RunMigrations creates the buckets.
func (m *BoltRepositoryManager) RunMigrations(ctx context.Context) error {
	if err := m.principals.Init(); err != nil {
		return fmt.Errorf("init principals: %w", err)
	}
	if err := m.revokedTokens.Init(); err != nil {
		return fmt.Errorf("init revoked tokens: %w", err)
	}
	return nil
}

func (m *BoltRepositoryManager) Close() error {
	return m.db.Close()
}
