// Package sqlite implements a SQLite-backed storage.Store using sqlx over the
// pure-Go modernc.org/sqlite driver. SQLite has no bulk-load API like
// Postgres COPY; each batch is a prepared INSERT executed inside one
// transaction, which keeps performance acceptable for moderate volumes.
//
// The backend doubles as the substitute connection for tests: a DSN of
// ":memory:" gives every test its own private database.
package sqlite

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"

	"vendorsummary/internal/ddl"
	"vendorsummary/internal/storage"
	"vendorsummary/internal/table"
)

// Dialect renders SQLite DDL.
var Dialect = ddl.Dialect{
	Name:  "sqlite",
	Quote: ddl.DoubleQuote,
	SQLType: func(t table.Type) string {
		switch t {
		case table.Int, table.NullableInt:
			return "INTEGER"
		case table.Float, table.NullableFloat:
			return "REAL"
		default:
			return "TEXT"
		}
	},
}

// Store is a SQLite implementation of storage.Store.
type Store struct {
	db *sqlx.DB
}

var _ storage.Store = (*Store)(nil)

// Open opens the database at dsn (a file path, "file:..." URI or ":memory:")
// and verifies it with a ping.
func Open(ctx context.Context, dsn string) (*Store, error) {
	if strings.TrimSpace(dsn) == "" {
		return nil, fmt.Errorf("sqlite: DSN must not be empty")
	}
	db, err := sqlx.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("sqlite: open: %w", err)
	}
	// One connection: an in-memory database exists per connection, and SQLite
	// serializes writers anyway.
	db.SetMaxOpenConns(1)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		db.Close()
		return nil, fmt.Errorf("sqlite: ping: %w", err)
	}
	return &Store{db: db}, nil
}

func init() {
	storage.Register("sqlite", func(ctx context.Context, cfg storage.Config) (storage.Store, error) {
		s, err := Open(ctx, cfg.DSN)
		if err != nil {
			return nil, err
		}
		if cfg.MaxConnLifetime > 0 {
			s.db.SetConnMaxLifetime(cfg.MaxConnLifetime)
		}
		return s, nil
	})
}

// Kind implements storage.Store.
func (s *Store) Kind() string { return "sqlite" }

// Close implements storage.Store.
func (s *Store) Close() { _ = s.db.Close() }

// Ping runs SELECT 1.
func (s *Store) Ping(ctx context.Context) error {
	var one int
	if err := s.db.QueryRowxContext(ctx, "SELECT 1").Scan(&one); err != nil {
		return fmt.Errorf("sqlite: ping: %w", err)
	}
	return nil
}

// Exec executes an arbitrary SQL statement (typically DDL).
func (s *Store) Exec(ctx context.Context, sql string) error {
	if strings.TrimSpace(sql) == "" {
		return nil
	}
	if _, err := s.db.ExecContext(ctx, sql); err != nil {
		return fmt.Errorf("sqlite: exec: %w", err)
	}
	return nil
}

// Query runs sql and returns every row as driver values.
func (s *Store) Query(ctx context.Context, sql string) (storage.Rows, error) {
	rows, err := s.db.QueryxContext(ctx, sql)
	if err != nil {
		return storage.Rows{}, fmt.Errorf("sqlite: query: %w", err)
	}
	defer rows.Close()

	cols, err := rows.Columns()
	if err != nil {
		return storage.Rows{}, fmt.Errorf("sqlite: columns: %w", err)
	}
	out := storage.Rows{Columns: cols}
	for rows.Next() {
		vals, err := rows.SliceScan()
		if err != nil {
			return storage.Rows{}, fmt.Errorf("sqlite: scan row %d: %w", len(out.Values), err)
		}
		out.Values = append(out.Values, vals)
	}
	if err := rows.Err(); err != nil {
		return storage.Rows{}, fmt.Errorf("sqlite: rows: %w", err)
	}
	return out, nil
}

// ReplaceTable implements storage.TableWriter.
func (s *Store) ReplaceTable(ctx context.Context, name string, t *table.Table, batchSize int) (int64, error) {
	return storage.Replace(ctx, s, Dialect, name, t, batchSize)
}

// CopyFrom inserts rows into fqn using a single transaction and a prepared
// INSERT statement. The columns slice must match the table's columns, and
// len(row) must equal len(columns) for every row.
func (s *Store) CopyFrom(ctx context.Context, fqn string, columns []string, rows [][]any) (int64, error) {
	if len(columns) == 0 {
		return 0, fmt.Errorf("sqlite: CopyFrom: columns must not be empty")
	}
	if len(rows) == 0 {
		return 0, nil
	}

	quoted := make([]string, len(columns))
	placeholders := make([]string, len(columns))
	for i, c := range columns {
		quoted[i] = ddl.DoubleQuote(c)
		placeholders[i] = "?"
	}
	stmtSQL := fmt.Sprintf(
		"INSERT INTO %s (%s) VALUES (%s)",
		ddl.QuoteFQN(fqn, ddl.DoubleQuote),
		strings.Join(quoted, ", "),
		strings.Join(placeholders, ", "),
	)

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("sqlite: begin tx: %w", err)
	}
	stmt, err := tx.PreparexContext(ctx, stmtSQL)
	if err != nil {
		_ = tx.Rollback()
		return 0, fmt.Errorf("sqlite: prepare insert: %w", err)
	}
	defer stmt.Close()

	var inserted int64
	for _, row := range rows {
		if len(row) != len(columns) {
			_ = tx.Rollback()
			return 0, fmt.Errorf("sqlite: CopyFrom: row length %d != columns length %d", len(row), len(columns))
		}
		if _, err := stmt.ExecContext(ctx, row...); err != nil {
			_ = tx.Rollback()
			return 0, fmt.Errorf("sqlite: insert: %w", err)
		}
		inserted++
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("sqlite: commit: %w", err)
	}
	return inserted, nil
}
