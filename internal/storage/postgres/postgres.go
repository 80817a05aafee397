// Package postgres implements a Postgres storage.Store using pgx v5. Reads go
// through the pool; replace-on-write loads drop and recreate the target table
// and stream each batch with COPY.
package postgres

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
	log "github.com/sirupsen/logrus"

	"vendorsummary/internal/ddl"
	"vendorsummary/internal/storage"
	"vendorsummary/internal/table"
)

// Dialect renders Postgres DDL.
var Dialect = ddl.Dialect{
	Name:  "postgres",
	Quote: ddl.DoubleQuote,
	SQLType: func(t table.Type) string {
		switch t {
		case table.Int, table.NullableInt:
			return "BIGINT"
		case table.Float, table.NullableFloat:
			return "DOUBLE PRECISION"
		default:
			return "TEXT"
		}
	},
}

// defaultHealthCheckPeriod is how often idle pooled connections are checked.
const defaultHealthCheckPeriod = time.Minute

// Store is a Postgres implementation of storage.Store.
type Store struct {
	pool *pgxpool.Pool
}

var _ storage.Store = (*Store)(nil)

// PoolConfig parses dsn and applies the pool resilience settings: connections
// older than maxLifetime are recycled, idle connections are health-checked
// every healthCheck, and every connection is pinged before it is handed out
// so a stale one is discarded and replaced instead of failing the caller.
func PoolConfig(dsn string, maxLifetime, healthCheck time.Duration) (*pgxpool.Config, error) {
	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("postgres: parse dsn: %w", err)
	}
	if maxLifetime > 0 {
		cfg.MaxConnLifetime = maxLifetime
	}
	if healthCheck <= 0 {
		healthCheck = defaultHealthCheckPeriod
	}
	cfg.HealthCheckPeriod = healthCheck
	cfg.BeforeAcquire = func(ctx context.Context, c *pgx.Conn) bool {
		if err := c.Ping(ctx); err != nil {
			log.Warnf("postgres: discarding stale connection: %v", err)
			return false
		}
		return true
	}
	return cfg, nil
}

// Open creates the pool. It does not run a query; call Ping to validate.
func Open(ctx context.Context, cfg storage.Config) (*Store, error) {
	pc, err := PoolConfig(cfg.DSN, cfg.MaxConnLifetime, cfg.HealthCheckPeriod)
	if err != nil {
		return nil, err
	}
	pool, err := pgxpool.NewWithConfig(ctx, pc)
	if err != nil {
		return nil, fmt.Errorf("pgxpool: %w", err)
	}
	return &Store{pool: pool}, nil
}

func init() {
	storage.Register("postgres", func(ctx context.Context, cfg storage.Config) (storage.Store, error) {
		return Open(ctx, cfg)
	})
}

// Kind implements storage.Store.
func (s *Store) Kind() string { return "postgres" }

// Close implements storage.Store.
func (s *Store) Close() { s.pool.Close() }

// Ping runs SELECT 1 on a pooled connection.
func (s *Store) Ping(ctx context.Context) error {
	var one int
	if err := s.pool.QueryRow(ctx, "SELECT 1").Scan(&one); err != nil {
		return fmt.Errorf("postgres: ping: %w", describe(err))
	}
	return nil
}

// Exec executes a statement that returns no rows.
func (s *Store) Exec(ctx context.Context, sql string) error {
	if _, err := s.pool.Exec(ctx, sql); err != nil {
		return describe(err)
	}
	return nil
}

// Query runs sql and returns every row, with NUMERIC values converted to
// float64 so that callers see plain Go scalars.
func (s *Store) Query(ctx context.Context, sql string) (storage.Rows, error) {
	rows, err := s.pool.Query(ctx, sql)
	if err != nil {
		return storage.Rows{}, fmt.Errorf("postgres: query: %w", describe(err))
	}
	defer rows.Close()

	fds := rows.FieldDescriptions()
	out := storage.Rows{Columns: make([]string, len(fds))}
	for i, fd := range fds {
		out.Columns[i] = fd.Name
	}
	for rows.Next() {
		vals, err := rows.Values()
		if err != nil {
			return storage.Rows{}, fmt.Errorf("postgres: decode row %d: %w", len(out.Values), err)
		}
		for i, v := range vals {
			nv, err := normalize(v)
			if err != nil {
				return storage.Rows{}, fmt.Errorf("postgres: row %d column %q: %w", len(out.Values), out.Columns[i], err)
			}
			vals[i] = nv
		}
		out.Values = append(out.Values, vals)
	}
	if err := rows.Err(); err != nil {
		return storage.Rows{}, fmt.Errorf("postgres: rows: %w", describe(err))
	}
	return out, nil
}

// ReplaceTable implements storage.TableWriter.
func (s *Store) ReplaceTable(ctx context.Context, name string, t *table.Table, batchSize int) (int64, error) {
	return storage.Replace(ctx, s, Dialect, name, t, batchSize)
}

// CopyFrom streams one batch into fqn with the COPY protocol.
func (s *Store) CopyFrom(ctx context.Context, fqn string, columns []string, rows [][]any) (int64, error) {
	n, err := s.pool.CopyFrom(ctx, splitFQN(fqn), columns, pgx.CopyFromRows(rows))
	if err != nil {
		return n, describe(err)
	}
	return n, nil
}

// normalize maps pgx's decoded values onto the scalar set understood by
// table.Coerce. SUM over integer or numeric columns yields NUMERIC, which
// pgx decodes as pgtype.Numeric.
func normalize(v any) (any, error) {
	switch x := v.(type) {
	case pgtype.Numeric:
		if !x.Valid {
			return nil, nil
		}
		f, err := x.Float64Value()
		if err != nil {
			return nil, err
		}
		if !f.Valid {
			return nil, nil
		}
		return f.Float64, nil
	case *big.Int:
		f, _ := new(big.Float).SetInt(x).Float64()
		return f, nil
	case time.Time:
		return x.Format(time.RFC3339Nano), nil
	default:
		return v, nil
	}
}

// describe surfaces the server's detail and SQLSTATE when err is a PgError.
func describe(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Detail != "" {
		return fmt.Errorf("%w (%s: %s)", err, pgErr.SQLState(), pgErr.Detail)
	}
	return err
}

// splitFQN converts "schema.table" into a pgx.Identifier {"schema","table"}.
// If no dot is present, returns {"table"}.
func splitFQN(fqn string) pgx.Identifier {
	parts := strings.Split(fqn, ".")
	id := make(pgx.Identifier, 0, len(parts))
	for _, p := range parts {
		if p != "" {
			id = append(id, p)
		}
	}
	return id
}
