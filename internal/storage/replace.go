package storage

import (
	"context"
	"fmt"

	"vendorsummary/internal/ddl"
	"vendorsummary/internal/table"
)

// BulkBackend is what a backend exposes so that Replace can drive a
// replace-on-write load without knowing the driver.
type BulkBackend interface {
	Exec(ctx context.Context, sql string) error
	CopyFrom(ctx context.Context, fqn string, columns []string, rows [][]any) (int64, error)
}

// Replace drops fqn if it exists, recreates it from t's schema (same column
// order, no synthetic index column) and writes t's rows in batches.
//
// The three phases are not wrapped in one transaction: a failure part way
// through can leave the table empty or partially filled.
func Replace(
	ctx context.Context,
	b BulkBackend,
	d ddl.Dialect,
	fqn string,
	t *table.Table,
	batchSize int,
) (int64, error) {
	if t == nil {
		return 0, fmt.Errorf("%s: replace %s: nil table", d.Name, fqn)
	}
	if batchSize <= 0 {
		batchSize = DefaultBatchSize
	}

	create, err := ddl.BuildCreateTableSQL(ddl.FromTable(fqn, t, d), d)
	if err != nil {
		return 0, err
	}
	if err := b.Exec(ctx, ddl.BuildDropTableSQL(fqn, d)); err != nil {
		return 0, fmt.Errorf("%s: drop %s: %w", d.Name, fqn, err)
	}
	if err := b.Exec(ctx, create); err != nil {
		return 0, fmt.Errorf("%s: create %s: %w", d.Name, fqn, err)
	}

	n, err := WriteBatches(ctx, t.Names(), t.Rows, batchSize,
		func(ctx context.Context, columns []string, rows [][]any) (int64, error) {
			return b.CopyFrom(ctx, fqn, columns, rows)
		})
	if err != nil {
		return n, fmt.Errorf("%s: load %s: %w", d.Name, fqn, err)
	}
	return n, nil
}
