package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"

	_ "github.com/lib/pq"
	_ "modernc.org/sqlite"
)

// Driver names as registered with database/sql.
const (
	DialectPostgres = "postgres"
	DialectSQLite   = "sqlite"
)

const schemaSQL = `CREATE TABLE IF NOT EXISTS kv_store (
	storage_key   TEXT PRIMARY KEY,
	storage_value TEXT NOT NULL
)`

// SQL is a Backend over a kv_store table.
type SQL struct {
	DB      *sql.DB
	Dialect string
}

// OpenSQL connects, pings and creates the kv_store table if needed.
func OpenSQL(ctx context.Context, dialect, dsn string) (*SQL, error) {
	if dialect != DialectPostgres && dialect != DialectSQLite {
		return nil, fmt.Errorf("unsupported sql dialect %q", dialect)
	}
	db, err := sql.Open(dialect, dsn)
	if err != nil {
		return nil, err
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	s := &SQL{DB: db, Dialect: dialect}
	if err := s.Migrate(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

func (s *SQL) Migrate(ctx context.Context) error {
	if _, err := s.DB.ExecContext(ctx, schemaSQL); err != nil {
		return fmt.Errorf("migrate kv_store: %w", err)
	}
	return nil
}

func (s *SQL) Close() error { return s.DB.Close() }

// rebind rewrites $N placeholders to ? for sqlite.
func (s *SQL) rebind(q string) string {
	if s.Dialect != DialectSQLite {
		return q
	}
	for i := 9; i >= 1; i-- {
		q = strings.ReplaceAll(q, "$"+strconv.Itoa(i), "?")
	}
	return q
}

func (s *SQL) Get(ctx context.Context, key string) (string, bool, error) {
	var v string
	err := s.DB.QueryRowContext(ctx, s.rebind(`SELECT storage_value FROM kv_store WHERE storage_key=$1`), key).Scan(&v)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return v, true, nil
}

func (s *SQL) Set(ctx context.Context, key, value string) error {
	_, err := s.DB.ExecContext(ctx, s.rebind(`
		INSERT INTO kv_store (storage_key, storage_value) VALUES ($1, $2)
		ON CONFLICT (storage_key)
		DO UPDATE SET storage_value = EXCLUDED.storage_value
	`), key, value)
	return err
}

func (s *SQL) Remove(ctx context.Context, key string) error {
	_, err := s.DB.ExecContext(ctx, s.rebind(`DELETE FROM kv_store WHERE storage_key=$1`), key)
	return err
}

func (s *SQL) Clear(ctx context.Context) error {
	_, err := s.DB.ExecContext(ctx, `DELETE FROM kv_store`)
	return err
}

// Keys lists every stored key in order.
func (s *SQL) Keys(ctx context.Context) ([]string, error) {
	rows, err := s.DB.QueryContext(ctx, `SELECT storage_key FROM kv_store ORDER BY storage_key`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []string{}
	for rows.Next() {
		var k string
		if err := rows.Scan(&k); err != nil {
			return nil, err
		}
		out = append(out, k)
	}
	return out, rows.Err()
}
