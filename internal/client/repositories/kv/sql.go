package kv

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sort"

	"github.com/dmitrijs2005/glasshabit/internal/dbx"
)

const (
	queryGet    = `SELECT value FROM kv_entries WHERE key = ?`
	queryKeys   = `SELECT key FROM kv_entries`
	queryDelete = `DELETE FROM kv_entries WHERE key = ?`
	queryUpsert = `
		INSERT INTO kv_entries (key, value) VALUES (?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value
	`
)

// SQLRepository stores entries in the kv_entries table. The same queries
// serve SQLite and PostgreSQL; only placeholders differ.
type SQLRepository struct {
	db      *sql.DB
	dialect dbx.Dialect
}

var (
	_ Repository = (*SQLRepository)(nil)
	_ Batcher    = (*SQLRepository)(nil)
)

func NewSQLiteRepository(db *sql.DB) *SQLRepository {
	return &SQLRepository{db: db, dialect: dbx.DialectSQLite}
}

func NewPostgresRepository(db *sql.DB) *SQLRepository {
	return &SQLRepository{db: db, dialect: dbx.DialectPostgres}
}

func (r *SQLRepository) q(query string) string {
	return dbx.Rebind(r.dialect, query)
}

func (r *SQLRepository) Get(ctx context.Context, key string) ([]byte, error) {
	var value []byte
	err := r.db.QueryRowContext(ctx, r.q(queryGet), key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get kv[%s]: %w", key, err)
	}
	return value, nil
}

func (r *SQLRepository) Set(ctx context.Context, key string, value []byte) error {
	return r.set(ctx, r.db, key, value)
}

func (r *SQLRepository) set(ctx context.Context, db dbx.DBTX, key string, value []byte) error {
	if _, err := db.ExecContext(ctx, r.q(queryUpsert), key, value); err != nil {
		return fmt.Errorf("failed to set kv[%s]: %w", key, err)
	}
	return nil
}

func (r *SQLRepository) Delete(ctx context.Context, key string) error {
	return r.delete(ctx, r.db, key)
}

func (r *SQLRepository) delete(ctx context.Context, db dbx.DBTX, key string) error {
	if _, err := db.ExecContext(ctx, r.q(queryDelete), key); err != nil {
		return fmt.Errorf("failed to delete kv[%s]: %w", key, err)
	}
	return nil
}

func (r *SQLRepository) Keys(ctx context.Context) ([]string, error) {
	rows, err := r.db.QueryContext(ctx, queryKeys)
	if err != nil {
		return nil, fmt.Errorf("failed to list kv keys: %w", err)
	}
	defer rows.Close()

	keys := make([]string, 0)
	for rows.Next() {
		var key string
		if err := rows.Scan(&key); err != nil {
			return nil, fmt.Errorf("failed to scan kv key: %w", err)
		}
		keys = append(keys, key)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate kv keys: %w", err)
	}

	// collation differs between drivers, so order in Go
	sort.Strings(keys)
	return keys, nil
}

// Apply runs the batch in a single transaction.
func (r *SQLRepository) Apply(ctx context.Context, b Batch) error {
	return dbx.WithTx(ctx, r.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		for _, key := range b.Deletes {
			if err := r.delete(ctx, tx, key); err != nil {
				return err
			}
		}
		for _, key := range sortedKeys(b.Sets) {
			if err := r.set(ctx, tx, key, b.Sets[key]); err != nil {
				return err
			}
		}
		return nil
	})
}

func sortedKeys(m map[string][]byte) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
