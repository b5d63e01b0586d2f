package revokedtokens

import (
	"context"
	"database/sql"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
)

const (
	revokeQuery    = `(?s)^INSERT\s+INTO\s+revoked_refresh_tokens\s*\(jti,\s*expires_at\)\s*VALUES\s*\(\$1,\s*\$2\)\s*ON\s+CONFLICT\s*\(jti\)\s*DO\s+NOTHING\s*$`
	isRevokedQuery = `(?s)^SELECT\s+EXISTS\s*\(SELECT\s+1\s+FROM\s+revoked_refresh_tokens\s+WHERE\s+jti\s*=\s*\$1\)\s*$`
	purgeQuery     = `(?s)^DELETE\s+FROM\s+revoked_refresh_tokens\s+WHERE\s+expires_at\s*<\s*\$1\s*$`
)

func newRepoWithMock(t *testing.T) (*PostgresRepository, sqlmock.Sqlmock, *sql.DB) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	if err != nil {
		t.Fatalf("sqlmock.New error: %v", err)
	}
	return NewPostgresRepository(db), mock, db
}

func TestRevoke(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	exp := time.Now().Add(time.Hour)
	mock.ExpectExec(revokeQuery).WithArgs("jti-1", exp).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(revokeQuery).WithArgs("jti-1", exp).WillReturnResult(sqlmock.NewResult(0, 0))

	added, err := repo.Revoke(context.Background(), "jti-1", exp)
	if err != nil || !added {
		t.Fatalf("first Revoke = %v, %v", added, err)
	}
	added, err = repo.Revoke(context.Background(), "jti-1", exp)
	if err != nil || added {
		t.Fatalf("second Revoke = %v, %v", added, err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestRevoke_DBError(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectExec(revokeQuery).WithArgs("jti-1", sqlmock.AnyArg()).WillReturnError(errors.New("db down"))

	_, err := repo.Revoke(context.Background(), "jti-1", time.Now())
	if err == nil || !regexp.MustCompile(`db error: .*db down`).MatchString(err.Error()) {
		t.Fatalf("expected wrapped db error, got %v", err)
	}
}

func TestIsRevoked(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectQuery(isRevokedQuery).WithArgs("jti-1").
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))
	mock.ExpectQuery(isRevokedQuery).WithArgs("jti-2").
		WillReturnError(errors.New("db err"))

	revoked, err := repo.IsRevoked(context.Background(), "jti-1")
	if err != nil || !revoked {
		t.Fatalf("IsRevoked = %v, %v", revoked, err)
	}
	if _, err := repo.IsRevoked(context.Background(), "jti-2"); err == nil {
		t.Fatalf("expected error")
	}
}

func TestPurgeExpired(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	now := time.Now()
	mock.ExpectExec(purgeQuery).WithArgs(now).WillReturnResult(sqlmock.NewResult(0, 3))

	n, err := repo.PurgeExpired(context.Background(), now)
	if err != nil {
		t.Fatalf("PurgeExpired error: %v", err)
	}
	if n != 3 {
		t.Fatalf("purged %d, want 3", n)
	}
}
