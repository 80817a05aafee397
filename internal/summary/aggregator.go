package summary

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	log "github.com/sirupsen/logrus"

	"vendorsummary/internal/storage"
	"vendorsummary/internal/table"
)

// QueryError reports that the aggregation query could not be run or its
// result could not be decoded into AggregateSchema.
type QueryError struct {
	Stage string // "build", "query" or "decode"
	Err   error
}

func (e *QueryError) Error() string {
	return fmt.Sprintf("summary: aggregate %s: %v", e.Stage, e.Err)
}

func (e *QueryError) Unwrap() error { return e.Err }

// Result is the outcome of Aggregate: either a table or the error that
// prevented producing one. It is never both.
type Result struct {
	table *table.Table
	err   error
}

// Succeeded wraps a table.
func Succeeded(t *table.Table) Result { return Result{table: t} }

// Failed wraps an error.
func Failed(err error) Result {
	if err == nil {
		err = errors.New("summary: failed without cause")
	}
	return Result{err: err}
}

// Table returns the aggregated table and true on success.
func (r Result) Table() (*table.Table, bool) { return r.table, r.err == nil && r.table != nil }

// Err returns the failure, or nil.
func (r Result) Err() error { return r.err }

// Aggregate runs the summary query against q and decodes the rows into a
// table with AggregateSchema. Failures are logged and returned inside the
// Result; Aggregate itself never panics on bad data.
func Aggregate(ctx context.Context, q storage.Querier, rels Relations) Result {
	sql, err := BuildQuery(rels)
	if err != nil {
		return fail(&QueryError{Stage: "build", Err: err})
	}

	start := time.Now()
	rows, err := q.Query(ctx, sql)
	if err != nil {
		return fail(&QueryError{Stage: "query", Err: err})
	}
	if err := checkColumns(rows.Columns); err != nil {
		return fail(&QueryError{Stage: "decode", Err: err})
	}
	t, err := table.FromRows(AggregateSchema, rows.Values)
	if err != nil {
		return fail(&QueryError{Stage: "decode", Err: err})
	}

	log.WithFields(log.Fields{
		"rows":    t.Len(),
		"elapsed": time.Since(start).Truncate(time.Millisecond),
	}).Info("summary: aggregation complete")
	return Succeeded(t)
}

func fail(err error) Result {
	log.WithError(err).Error("Error while creating vendor summary")
	return Failed(err)
}

// checkColumns verifies the driver returned the declared columns in order.
// Drivers may fold identifier case, so the comparison is case-insensitive.
func checkColumns(got []string) error {
	if len(got) != len(AggregateSchema) {
		return fmt.Errorf("got %d columns, want %d", len(got), len(AggregateSchema))
	}
	for i, c := range AggregateSchema {
		if !strings.EqualFold(got[i], c.Name) {
			return fmt.Errorf("column %d is %q, want %q", i, got[i], c.Name)
		}
	}
	return nil
}
