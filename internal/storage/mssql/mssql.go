// Package mssql implements a Microsoft SQL Server storage.Store using sqlx
// over go-mssqldb. Replace-on-write loads recreate the target table and send
// each batch through the driver's bulk copy API.
package mssql

import (
	"context"
	"fmt"
	"math"
	"strings"

	"github.com/jmoiron/sqlx"
	mssql "github.com/microsoft/go-mssqldb"
	"github.com/microsoft/go-mssqldb/msdsn"
	log "github.com/sirupsen/logrus"

	"vendorsummary/internal/ddl"
	"vendorsummary/internal/storage"
	"vendorsummary/internal/table"
)

// Dialect renders SQL Server DDL.
var Dialect = ddl.Dialect{
	Name:  "mssql",
	Quote: msIdent,
	SQLType: func(t table.Type) string {
		switch t {
		case table.Int, table.NullableInt:
			return "BIGINT"
		case table.Float, table.NullableFloat:
			return "FLOAT"
		default:
			return "NVARCHAR(MAX)"
		}
	},
}

// Store is an MSSQL implementation of storage.Store.
type Store struct {
	db *sqlx.DB
}

var _ storage.Store = (*Store)(nil)

// Open validates the DSN and opens the connection pool. It does not run a
// query; call Ping to validate connectivity.
func Open(cfg storage.Config) (*Store, error) {
	// Validate DSN early to fail fast on obvious mistakes.
	if _, err := msdsn.Parse(cfg.DSN); err != nil {
		return nil, fmt.Errorf("mssql dsn: %w", err)
	}
	db, err := sqlx.Open("sqlserver", cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("mssql: open: %w", err)
	}
	if cfg.MaxConnLifetime > 0 {
		db.SetConnMaxLifetime(cfg.MaxConnLifetime)
	}
	return &Store{db: db}, nil
}

func init() {
	storage.Register("mssql", func(_ context.Context, cfg storage.Config) (storage.Store, error) {
		return Open(cfg)
	})
}

// Kind implements storage.Store.
func (s *Store) Kind() string { return "mssql" }

// Close implements storage.Store.
func (s *Store) Close() { _ = s.db.Close() }

// Ping runs SELECT 1.
func (s *Store) Ping(ctx context.Context) error {
	var one int
	if err := s.db.QueryRowxContext(ctx, "SELECT 1").Scan(&one); err != nil {
		return fmt.Errorf("mssql: ping: %w", err)
	}
	return nil
}

// Exec executes a SQL statement against the pool.
func (s *Store) Exec(ctx context.Context, sqlText string) error {
	_, err := s.db.ExecContext(ctx, sqlText)
	return err
}

// Query runs sql and returns every row as driver values.
func (s *Store) Query(ctx context.Context, sql string) (storage.Rows, error) {
	rows, err := s.db.QueryxContext(ctx, sql)
	if err != nil {
		return storage.Rows{}, fmt.Errorf("mssql: query: %w", err)
	}
	defer rows.Close()

	cols, err := rows.Columns()
	if err != nil {
		return storage.Rows{}, fmt.Errorf("mssql: columns: %w", err)
	}
	out := storage.Rows{Columns: cols}
	for rows.Next() {
		vals, err := rows.SliceScan()
		if err != nil {
			return storage.Rows{}, fmt.Errorf("mssql: scan row %d: %w", len(out.Values), err)
		}
		out.Values = append(out.Values, vals)
	}
	if err := rows.Err(); err != nil {
		return storage.Rows{}, fmt.Errorf("mssql: rows: %w", err)
	}
	return out, nil
}

// ReplaceTable implements storage.TableWriter.
func (s *Store) ReplaceTable(ctx context.Context, name string, t *table.Table, batchSize int) (int64, error) {
	return storage.Replace(ctx, s, Dialect, name, t, batchSize)
}

// CopyFrom bulk-inserts one batch inside its own transaction.
//
// SQL Server FLOAT cannot hold ±Inf or NaN, so non-finite values are sent as
// NULL and counted in a warning.
func (s *Store) CopyFrom(ctx context.Context, fqn string, columns []string, rows [][]any) (int64, error) {
	if len(rows) == 0 {
		return 0, nil
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin tx: %w", err)
	}
	rollback := func() { _ = tx.Rollback() }

	stmt, err := tx.PrepareContext(ctx, mssql.CopyIn(fqn, mssql.BulkOptions{}, columns...))
	if err != nil {
		rollback()
		return 0, fmt.Errorf("prepare bulk: %w", err)
	}
	nonFinite := 0
	for i := range rows {
		vals, nf := toCopyVals(rows[i])
		nonFinite += nf
		if _, err := stmt.ExecContext(ctx, vals...); err != nil {
			_ = stmt.Close()
			rollback()
			return 0, fmt.Errorf("bulk row %d: %w", i, err)
		}
	}
	res, err := stmt.ExecContext(ctx)
	if cerr := stmt.Close(); cerr != nil && err == nil {
		err = cerr
	}
	if err != nil {
		rollback()
		return 0, fmt.Errorf("bulk finalize: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		rollback()
		return 0, fmt.Errorf("rows affected: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit: %w", err)
	}
	if nonFinite > 0 {
		log.Warnf("mssql: %s: wrote %d non-finite float values as NULL", fqn, nonFinite)
	}
	return n, nil
}

// toCopyVals returns row with non-finite floats replaced by nil, and how many
// were replaced. The input row is not modified.
func toCopyVals(row []any) ([]any, int) {
	out := make([]any, len(row))
	n := 0
	for i, v := range row {
		if f, ok := v.(float64); ok && (math.IsInf(f, 0) || math.IsNaN(f)) {
			out[i] = nil
			n++
			continue
		}
		out[i] = v
	}
	return out, n
}

// msIdent safely quotes a SQL Server identifier using [brackets], escaping ].
func msIdent(id string) string { return `[` + strings.ReplaceAll(id, `]`, `]]`) + `]` }
