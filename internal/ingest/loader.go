// Package ingest is the bulk loader: it persists tables into the store with
// replace-on-write semantics, either one table at a time or one table per
// delimited text file in a directory.
package ingest

import (
	"context"
	"fmt"
	"time"

	log "github.com/sirupsen/logrus"

	"vendorsummary/internal/metrics"
	"vendorsummary/internal/storage"
	"vendorsummary/internal/table"
)

// DefaultJob labels metrics when Loader.Job is empty.
const DefaultJob = "vendor_summary"

// WriteError reports a failed table write.
type WriteError struct {
	Table string
	Err   error
}

func (e *WriteError) Error() string {
	return fmt.Sprintf("ingest: write %s: %v", e.Table, e.Err)
}

func (e *WriteError) Unwrap() error { return e.Err }

// Loader writes tables through a storage.TableWriter.
type Loader struct {
	Store storage.TableWriter

	// BatchSize is the number of rows per bulk call. Zero or negative uses
	// storage.DefaultBatchSize.
	BatchSize int

	// Job labels emitted metrics.
	Job string
}

// NewLoader returns a Loader with the given batch size.
func NewLoader(s storage.TableWriter, batchSize int) *Loader {
	return &Loader{Store: s, BatchSize: batchSize, Job: DefaultJob}
}

func (l *Loader) batchSize() int {
	if l.BatchSize <= 0 {
		return storage.DefaultBatchSize
	}
	return l.BatchSize
}

func (l *Loader) job() string {
	if l.Job == "" {
		return DefaultJob
	}
	return l.Job
}

// Load replaces the table name with t: any existing table of that name is
// dropped, a new one is created with t's columns in order, and t's rows are
// inserted in batches. The write is not atomic across batches.
//
// Failures are logged and returned as *WriteError.
func (l *Loader) Load(ctx context.Context, name string, t *table.Table) (int64, error) {
	n, err := l.write(ctx, name, t)
	if err != nil {
		log.WithError(err).WithField("table", name).Error("ingest: table write failed")
	}
	return n, err
}

// write is Load without the failure log entry; LoadDir reports failed files
// itself.
func (l *Loader) write(ctx context.Context, name string, t *table.Table) (int64, error) {
	start := time.Now()
	n, err := l.load(ctx, name, t)
	metrics.RecordStep(l.job(), "write", err, time.Since(start))
	if err != nil {
		return n, &WriteError{Table: name, Err: err}
	}

	bs := l.batchSize()
	metrics.RecordRows(l.job(), "written", name, n)
	metrics.RecordBatches(l.job(), (n+int64(bs)-1)/int64(bs))
	log.WithFields(log.Fields{
		"table":       name,
		"rows":        n,
		"batch_size":  bs,
		"fingerprint": fmt.Sprintf("%016x", t.Fingerprint()),
		"elapsed":     time.Since(start).Truncate(time.Millisecond),
	}).Info("ingest: table written")
	return n, nil
}

func (l *Loader) load(ctx context.Context, name string, t *table.Table) (int64, error) {
	if l.Store == nil {
		return 0, fmt.Errorf("no store")
	}
	if name == "" {
		return 0, fmt.Errorf("empty table name")
	}
	if t == nil {
		return 0, fmt.Errorf("nil table")
	}
	if len(t.Columns) == 0 {
		return 0, fmt.Errorf("table has no columns")
	}
	n, err := l.Store.ReplaceTable(ctx, name, t, l.batchSize())
	if err != nil {
		return n, err
	}
	if n != int64(t.Len()) {
		return n, fmt.Errorf("wrote %d of %d rows", n, t.Len())
	}
	return n, nil
}
