package kv

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/dmitrijs2005/glasshabit/internal/client/migrations"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"
	_ "modernc.org/sqlite"
)

const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
	DriverMemory   = "memory"
)

// Store is an opened Repository together with the resources behind it.
type Store struct {
	Repository
	db *sql.DB
}

// Close releases the underlying database, if any.
func (s *Store) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

// gooseUpContext is a seam for testing goose.UpContext.
var gooseUpContext = func(ctx context.Context, db *sql.DB, dir string, opts ...goose.OptionsFunc) error {
	return goose.UpContext(ctx, db, dir, opts...)
}

// RunMigrations applies the embedded kv schema for the given goose dialect
// ("sqlite3" or "pgx") from dir.
func RunMigrations(ctx context.Context, db *sql.DB, dialect, dir string) error {
	goose.SetBaseFS(migrations.Migrations)
	if err := goose.SetDialect(dialect); err != nil {
		return fmt.Errorf("set goose dialect %s: %w", dialect, err)
	}
	if err := gooseUpContext(ctx, db, dir); err != nil {
		return fmt.Errorf("migrate kv schema: %w", err)
	}
	return nil
}

// Open connects to the store selected by driver and brings its schema up to
// date. dsn is a file path (or ":memory:") for sqlite, a connection URL for
// postgres, and ignored for memory.
func Open(ctx context.Context, driver, dsn string) (*Store, error) {
	switch driver {
	case DriverMemory:
		return &Store{Repository: NewMemoryRepository()}, nil

	case DriverSQLite, "":
		db, err := sql.Open("sqlite", dsn)
		if err != nil {
			return nil, fmt.Errorf("open sqlite %s: %w", dsn, err)
		}
		// one writer; also keeps a ":memory:" database alive across calls
		db.SetMaxOpenConns(1)
		if _, err := db.ExecContext(ctx, "PRAGMA busy_timeout = 5000"); err != nil {
			db.Close()
			return nil, fmt.Errorf("sqlite pragma: %w", err)
		}
		if err := RunMigrations(ctx, db, "sqlite3", migrations.DirSQLite); err != nil {
			db.Close()
			return nil, err
		}
		return &Store{Repository: NewSQLiteRepository(db), db: db}, nil

	case DriverPostgres:
		db, err := sql.Open("pgx", dsn)
		if err != nil {
			return nil, fmt.Errorf("open postgres: %w", err)
		}
		if err := db.PingContext(ctx); err != nil {
			db.Close()
			return nil, fmt.Errorf("ping postgres: %w", err)
		}
		if err := RunMigrations(ctx, db, "pgx", migrations.DirPostgres); err != nil {
			db.Close()
			return nil, err
		}
		return &Store{Repository: NewPostgresRepository(db), db: db}, nil
	}

	return nil, fmt.Errorf("unknown storage driver %q", driver)
}
