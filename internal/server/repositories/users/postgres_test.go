package users

import (
	"context"
	"database/sql"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/dmitrijs2005/authkeeper/internal/common"
	"github.com/dmitrijs2005/authkeeper/internal/server/models"
	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5/pgconn"
)

const (
	insertQuery = `(?s)^INSERT\s+INTO\s+users\s*\(username,\s*email,\s*password_hash\)\s*VALUES\s*\(\$1,\s*\$2,\s*\$3\)\s*RETURNING\s+id,\s*created_at\s*$`
	selectQuery = `(?s)^SELECT\s+id,\s*username,\s*email,\s*password_hash,\s*COALESCE\(token,\s*''\),\s*created_at\s+FROM\s+users\s+WHERE\s+email\s*=\s*\$1\s*$`
	updateQuery = `^UPDATE\s+users\s+SET\s+token\s*=\s*\$2\s+WHERE\s+id\s*=\s*\$1$`
	deleteQuery = `^DELETE\s+FROM\s+users\s+WHERE\s+id\s*=\s*\$1$`
)

func newRepoWithMock(t *testing.T) (*PostgresRepository, sqlmock.Sqlmock, *sql.DB) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	if err != nil {
		t.Fatalf("sqlmock.New error: %v", err)
	}
	t.Cleanup(func() {
		if err := mock.ExpectationsWereMet(); err != nil {
			t.Errorf("unmet expectations: %v", err)
		}
	})
	return NewPostgresRepository(db), mock, db
}

func TestPostgresCreate_Success(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	created := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	rows := sqlmock.NewRows([]string{"id", "created_at"}).AddRow("u-42", created)
	mock.ExpectQuery(insertQuery).
		WithArgs("alice", "alice@x.com", "$2a$10$hash").
		WillReturnRows(rows)

	u := &models.User{UserName: "alice", Email: "alice@x.com", PasswordHash: "$2a$10$hash"}
	got, err := repo.Create(context.Background(), u)
	if err != nil {
		t.Fatalf("Create error: %v", err)
	}
	if got.ID != "u-42" || got.UserName != "alice" || !got.CreatedAt.Equal(created) {
		t.Fatalf("unexpected user: %+v", got)
	}
}

func TestPostgresCreate_DuplicateEmail(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectQuery(insertQuery).
		WithArgs("bob", "bob@x.com", "h").
		WillReturnError(&pgconn.PgError{Code: pgerrcode.UniqueViolation, ConstraintName: "users_email_key"})

	_, err := repo.Create(context.Background(), &models.User{UserName: "bob", Email: "bob@x.com", PasswordHash: "h"})
	if !errors.Is(err, common.ErrorDuplicateKey) {
		t.Fatalf("want common.ErrorDuplicateKey, got %v", err)
	}
}

func TestPostgresCreate_DBError(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectQuery(insertQuery).
		WithArgs("alice", "alice@x.com", "h").
		WillReturnError(errors.New("db down"))

	_, err := repo.Create(context.Background(), &models.User{UserName: "alice", Email: "alice@x.com", PasswordHash: "h"})
	if err == nil || !regexp.MustCompile(`db error: .*db down`).MatchString(err.Error()) {
		t.Fatalf("expected wrapped db error, got %v", err)
	}
	if errors.Is(err, common.ErrorDuplicateKey) {
		t.Fatalf("generic failure must not look like a duplicate")
	}
}

func TestPostgresFindByEmail_Found(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	created := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	rows := sqlmock.NewRows([]string{"id", "username", "email", "password_hash", "token", "created_at"}).
		AddRow("u-1", "alice", "alice@x.com", "hash", "tok", created)
	mock.ExpectQuery(selectQuery).WithArgs("alice@x.com").WillReturnRows(rows)

	got, err := repo.FindByEmail(context.Background(), "alice@x.com")
	if err != nil {
		t.Fatalf("FindByEmail error: %v", err)
	}
	want := &models.User{ID: "u-1", UserName: "alice", Email: "alice@x.com", PasswordHash: "hash", Token: "tok", CreatedAt: created}
	if *got != *want {
		t.Fatalf("got %+v, want %+v", got, want)
	}
}

func TestPostgresFindByEmail_NotFound(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectQuery(selectQuery).WithArgs("ghost@x.com").WillReturnError(sql.ErrNoRows)

	_, err := repo.FindByEmail(context.Background(), "ghost@x.com")
	if !errors.Is(err, common.ErrorNotFound) {
		t.Fatalf("want common.ErrorNotFound, got %v", err)
	}
}

func TestPostgresFindByEmail_DBError(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectQuery(selectQuery).WithArgs("alice@x.com").WillReturnError(errors.New("db err"))

	_, err := repo.FindByEmail(context.Background(), "alice@x.com")
	if err == nil || !regexp.MustCompile(`db error: .*db err`).MatchString(err.Error()) {
		t.Fatalf("expected wrapped db error, got %v", err)
	}
}

func TestPostgresUpdateToken(t *testing.T) {
	t.Run("updated", func(t *testing.T) {
		repo, mock, db := newRepoWithMock(t)
		defer db.Close()

		mock.ExpectExec(updateQuery).WithArgs("u-1", "tok").WillReturnResult(sqlmock.NewResult(0, 1))

		if err := repo.UpdateToken(context.Background(), "u-1", "tok"); err != nil {
			t.Fatalf("UpdateToken error: %v", err)
		}
	})

	t.Run("missing user", func(t *testing.T) {
		repo, mock, db := newRepoWithMock(t)
		defer db.Close()

		mock.ExpectExec(updateQuery).WithArgs("u-9", "tok").WillReturnResult(sqlmock.NewResult(0, 0))

		if err := repo.UpdateToken(context.Background(), "u-9", "tok"); !errors.Is(err, common.ErrorNotFound) {
			t.Fatalf("want common.ErrorNotFound, got %v", err)
		}
	})

	t.Run("db error", func(t *testing.T) {
		repo, mock, db := newRepoWithMock(t)
		defer db.Close()

		mock.ExpectExec(updateQuery).WithArgs("u-1", "tok").WillReturnError(errors.New("boom"))

		if err := repo.UpdateToken(context.Background(), "u-1", "tok"); err == nil {
			t.Fatal("expected error")
		}
	})
}

func TestPostgresDeleteByID(t *testing.T) {
	t.Run("idempotent for unknown id", func(t *testing.T) {
		repo, mock, db := newRepoWithMock(t)
		defer db.Close()

		mock.ExpectExec(deleteQuery).WithArgs("u-1").WillReturnResult(sqlmock.NewResult(0, 0))

		if err := repo.DeleteByID(context.Background(), "u-1"); err != nil {
			t.Fatalf("DeleteByID error: %v", err)
		}
	})

	t.Run("db error", func(t *testing.T) {
		repo, mock, db := newRepoWithMock(t)
		defer db.Close()

		mock.ExpectExec(deleteQuery).WithArgs("u-1").WillReturnError(errors.New("boom"))

		if err := repo.DeleteByID(context.Background(), "u-1"); err == nil {
			t.Fatal("expected error")
		}
	})
}
