package principals

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/interviewkit/internal/common"
	"github.com/dmitrijs2005/interviewkit/internal/dbx"
	"github.com/dmitrijs2005/interviewkit/internal/server/models"
	"github.com/jackc/pgx/v5/pgconn"
)

const uniqueViolation = "23505"

// PostgresRepository implements Repository over dbx.DBTX
// (satisfied by *sql.DB or *sql.Tx).
type PostgresRepository struct {
	db dbx.DBTX
}

var _ Repository = (*PostgresRepository)(nil)

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) Insert(ctx context.Context, p *models.Principal) (*models.Principal, error) {
	query :=
		`INSERT INTO users (uid, password, role)
		 VALUES ($1, $2, $3)
		 RETURNING id, star_count, created_at
		 `

	err := r.db.QueryRowContext(ctx, query, p.UID, p.PasswordHash, string(p.Role)).
		Scan(&p.ID, &p.StarCount, &p.CreatedAt)

	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return nil, common.ErrDuplicateIdentifier
		}
		return nil, fmt.Errorf("db error: %w", err)
	}

	return p, nil
}

func (r *PostgresRepository) FindByUID(ctx context.Context, uid string) (*models.Principal, error) {
	query :=
		`SELECT id, uid, password, role, star_count, created_at FROM users
		 WHERE uid = $1
		 `
	return r.scanOne(r.db.QueryRowContext(ctx, query, uid))
}

func (r *PostgresRepository) FindByID(ctx context.Context, id int64) (*models.Principal, error) {
	query :=
		`SELECT id, uid, password, role, star_count, created_at FROM users
		 WHERE id = $1
		 `
	return r.scanOne(r.db.QueryRowContext(ctx, query, id))
}

func (r *PostgresRepository) Exists(ctx context.Context, uid string) (bool, error) {
	query := `SELECT EXISTS (SELECT 1 FROM users WHERE uid = $1)`

	var exists bool
	if err := r.db.QueryRowContext(ctx, query, uid).Scan(&exists); err != nil {
		return false, fmt.Errorf("db error: %w", err)
	}
	return exists, nil
}

func (r *PostgresRepository) scanOne(row *sql.Row) (*models.Principal, error) {
	p := &models.Principal{}
	var role string

	err := row.Scan(&p.ID, &p.UID, &p.PasswordHash, &role, &p.StarCount, &p.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	p.Role, err = models.ParseRole(role)
	if err != nil {
		return nil, fmt.Errorf("db error: principal %d: %w", p.ID, err)
	}

	return p, nil
}
