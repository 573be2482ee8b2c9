package repomanager

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/sethvargo/go-retry"
)

var ErrUnsupportedDSN = errors.New("unsupported database dsn")

const (
	pingRetries  = 5
	pingBaseWait = 200 * time.Millisecond
)

// Storage bundles an open database handle with the manager that understands
// it. DB is nil for the in-memory backend.
type Storage struct {
	DB      *sql.DB
	Manager RepositoryManager
}

func (s *Storage) Close() error {
	if s.DB == nil {
		return nil
	}
	return s.DB.Close()
}

// seams for tests
var (
	sqlOpen = sql.Open
	pingDB  = func(ctx context.Context, db *sql.DB) error { return db.PingContext(ctx) }
	backoff = func() retry.Backoff {
		return retry.WithMaxRetries(pingRetries, retry.NewExponential(pingBaseWait))
	}
)

// Connect picks the backend from the DSN scheme, waits for the database to
// accept connections and applies migrations.
//
//	postgres://, postgresql://  pgx
//	sqlite://<path>, sqlite::memory:  modernc sqlite
//	memory://  in-process map
func Connect(ctx context.Context, dsn string) (*Storage, error) {
	driver, source, manager, err := resolve(dsn)
	if err != nil {
		return nil, err
	}
	if driver == "" {
		return &Storage{Manager: manager}, nil
	}

	db, err := sqlOpen(driver, source)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", driver, err)
	}
	if driver == "sqlite" {
		db.SetMaxOpenConns(1)
	}

	err = retry.Do(ctx, backoff(), func(ctx context.Context) error {
		if err := pingDB(ctx, db); err != nil {
			return retry.RetryableError(err)
		}
		return nil
	})
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping %s: %w", driver, err)
	}

	if err := manager.RunMigrations(ctx, db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("migrations: %w", err)
	}

	return &Storage{DB: db, Manager: manager}, nil
}

func resolve(dsn string) (driver, source string, manager RepositoryManager, err error) {
	switch {
	case strings.HasPrefix(dsn, "postgres://"), strings.HasPrefix(dsn, "postgresql://"):
		return "pgx", dsn, NewPostgresRepositoryManager(), nil
	case strings.HasPrefix(dsn, "sqlite://"):
		return "sqlite", strings.TrimPrefix(dsn, "sqlite://"), NewSQLiteRepositoryManager(), nil
	case strings.HasPrefix(dsn, "sqlite:"):
		return "sqlite", strings.TrimPrefix(dsn, "sqlite:"), NewSQLiteRepositoryManager(), nil
	case dsn == "memory://" || dsn == "memory":
		return "", "", NewMemoryRepositoryManager(), nil
	default:
		return "", "", nil, fmt.Errorf("%w: %q", ErrUnsupportedDSN, dsn)
	}
}
