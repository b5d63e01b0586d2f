package repomanager

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/dmitrijs2005/interviewkit/internal/server/migrations"
	"github.com/dmitrijs2005/interviewkit/internal/server/repositories/principals"
	"github.com/dmitrijs2005/interviewkit/internal/server/repositories/revokedtokens"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"
)

// PostgresRepositoryManager vends PostgreSQL-backed repositories sharing
// one *sql.DB and runs the embedded goose migrations.
type PostgresRepositoryManager struct {
	db            *sql.DB
	principals    *principals.PostgresRepository
	revokedTokens *revokedtokens.PostgresRepository
}

var _ RepositoryManager = (*PostgresRepositoryManager)(nil)

// NewPostgresRepositoryManager opens dsn with the pgx driver and pings it.
func NewPostgresRepositoryManager(ctx context.Context, dsn string) (*PostgresRepositoryManager, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	return newPostgresRepositoryManager(db), nil
}

func newPostgresRepositoryManager(db *sql.DB) *PostgresRepositoryManager {
	return &PostgresRepositoryManager{
		db:            db,
		principals:    principals.NewPostgresRepository(db),
		revokedTokens: revokedtokens.NewPostgresRepository(db),
	}
}

func (m *PostgresRepositoryManager) Principals() principals.Repository {
	return m.principals
}

func (m *PostgresRepositoryManager) RevokedTokens() revokedtokens.Repository {
	return m.revokedTokens
}

// gooseUpContext is a seam for testing goose.UpContext.
var gooseUpContext = func(ctx context.Context, db *sql.DB, dir string, opts ...goose.OptionsFunc) error {
	return goose.UpContext(ctx, db, dir, opts...)
}

// RunMigrations sets up goose with the embedded migrations and runs them.
func (m *PostgresRepositoryManager) RunMigrations(ctx context.Context) error {
	goose.SetBaseFS(migrations.Migrations)
	if err := goose.SetDialect("pgx"); err != nil {
		return err
	}
	if err := gooseUpContext(ctx, m.db, "."); err != nil {
		return err
	}
	return nil
}

func (m *PostgresRepositoryManager) Close() error {
	return m.db.Close()
}
