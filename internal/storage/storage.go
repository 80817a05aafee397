// Package storage contains the storage-agnostic contracts used by the
// aggregator and the bulk loader, plus a small factory so that callers can
// open a backend by kind ("postgres", "sqlite", "mssql") without importing it.
//
// A Store is the process-scoped connection resource: it is opened once by the
// CLI, health-checked with Ping, passed explicitly to every component that
// reads or writes, and released with Close.
package storage

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"vendorsummary/internal/table"
)

// Rows is a raw query result: column names in select order and one []any per
// row holding driver values (not yet coerced to a table schema).
type Rows struct {
	Columns []string
	Values  [][]any
}

// Querier runs a read-only query and returns every row.
type Querier interface {
	Query(ctx context.Context, sql string) (Rows, error)
}

// TableWriter persists a table under name, discarding any existing table of
// that name first. Rows are sent in batches of batchSize. It returns the
// number of rows written.
type TableWriter interface {
	ReplaceTable(ctx context.Context, name string, t *table.Table, batchSize int) (int64, error)
}

// Store is a live connection (or pool) to one backend.
type Store interface {
	Querier
	TableWriter

	// Ping runs a trivial query to prove the backend is reachable.
	Ping(ctx context.Context) error

	// Exec executes a statement that returns no rows (typically DDL).
	Exec(ctx context.Context, sql string) error

	// Kind returns the registered backend name.
	Kind() string

	Close()
}

// Config selects and configures a backend.
type Config struct {
	Kind string
	DSN  string

	// MaxConnLifetime recycles pooled connections after this age. Zero keeps
	// the backend default.
	MaxConnLifetime time.Duration

	// HealthCheckPeriod controls how often idle pooled connections are
	// checked. Only backends with a native pool health check use it.
	HealthCheckPeriod time.Duration
}

// DefaultMaxConnLifetime mirrors a one hour pool recycle.
const DefaultMaxConnLifetime = time.Hour

// Factory opens a Store for cfg.
type Factory func(ctx context.Context, cfg Config) (Store, error)

var (
	mu        sync.RWMutex
	factories = map[string]Factory{}
)

// Register makes a backend available under kind. It is called from backend
// init functions; registering the same kind twice panics.
func Register(kind string, f Factory) {
	mu.Lock()
	defer mu.Unlock()
	if f == nil {
		panic("storage: Register factory is nil for " + kind)
	}
	if _, dup := factories[kind]; dup {
		panic("storage: Register called twice for " + kind)
	}
	factories[kind] = f
}

// Kinds lists registered backend kinds in sorted order.
func Kinds() []string {
	mu.RLock()
	defer mu.RUnlock()
	out := make([]string, 0, len(factories))
	for k := range factories {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// New opens a Store for cfg.Kind. The caller owns the returned Store and must
// Close it.
func New(ctx context.Context, cfg Config) (Store, error) {
	mu.RLock()
	f, ok := factories[cfg.Kind]
	mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("storage: unknown kind %q (registered: %v)", cfg.Kind, Kinds())
	}
	if cfg.MaxConnLifetime == 0 {
		cfg.MaxConnLifetime = DefaultMaxConnLifetime
	}
	return f(ctx, cfg)
}
