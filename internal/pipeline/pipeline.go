// Package pipeline runs the vendor summary end to end: aggregate from the
// source tables, clean, and replace the summary table. It also owns startup
// connectivity and the mapping from errors to process exit codes.
package pipeline

import (
	"context"
	"fmt"
	"time"

	log "github.com/sirupsen/logrus"

	"vendorsummary/internal/ingest"
	"vendorsummary/internal/metrics"
	"vendorsummary/internal/storage"
	"vendorsummary/internal/summary"
)

// Job labels metrics and log entries of a summary run.
const Job = "vendor_summary"

// ConnectivityError reports that the store could not be opened or failed its
// startup health check.
type ConnectivityError struct {
	Kind string
	Err  error
}

func (e *ConnectivityError) Error() string {
	return fmt.Sprintf("pipeline: connect %s: %v", e.Kind, e.Err)
}

func (e *ConnectivityError) Unwrap() error { return e.Err }

// Connect opens the store described by cfg and proves it reachable with a
// test query. The caller owns the returned Store and must Close it.
func Connect(ctx context.Context, cfg storage.Config) (storage.Store, error) {
	s, err := storage.New(ctx, cfg)
	if err != nil {
		err = &ConnectivityError{Kind: cfg.Kind, Err: err}
		log.WithError(err).Error("Database connection failed")
		return nil, err
	}
	if err := s.Ping(ctx); err != nil {
		s.Close()
		err = &ConnectivityError{Kind: cfg.Kind, Err: err}
		log.WithError(err).Error("Database connection failed")
		return nil, err
	}
	log.WithField("driver", s.Kind()).Info("Database connection established")
	return s, nil
}

// Store is what a summary run needs from the database.
type Store interface {
	storage.Querier
	storage.TableWriter
}

// Options configures a summary run.
type Options struct {
	SummaryTable string
	Relations    summary.Relations
	BatchSize    int
}

// Stats describes a completed run.
type Stats struct {
	Rows    int64
	Elapsed time.Duration
}

// Run aggregates, cleans and writes the summary table. Any error aborts the
// run and is returned after being logged: *summary.QueryError when no
// aggregate was produced, *ingest.WriteError when the write failed.
func Run(ctx context.Context, s Store, opts Options) (Stats, error) {
	start := time.Now()
	log.WithField("table", opts.SummaryTable).Info("Starting vendor summary run")

	stepStart := time.Now()
	res := summary.Aggregate(ctx, s, opts.Relations)
	metrics.RecordStep(Job, "aggregate", res.Err(), time.Since(stepStart))
	agg, ok := res.Table()
	if !ok {
		log.Error("No aggregate produced, aborting")
		return Stats{Elapsed: time.Since(start)}, res.Err()
	}
	metrics.RecordRows(Job, "aggregated", opts.SummaryTable, int64(agg.Len()))
	log.WithField("rows", agg.Len()).Info("Vendor summary aggregated")

	stepStart = time.Now()
	clean, err := summary.Clean(agg)
	metrics.RecordStep(Job, "clean", err, time.Since(stepStart))
	if err != nil {
		log.WithError(err).Error("Cleaning failed")
		return Stats{Elapsed: time.Since(start)}, err
	}
	log.WithField("rows", clean.Len()).Info("Vendor summary cleaned")

	l := &ingest.Loader{Store: s, BatchSize: opts.BatchSize, Job: Job}
	n, err := l.Load(ctx, opts.SummaryTable, clean)
	if err != nil {
		return Stats{Rows: n, Elapsed: time.Since(start)}, err
	}

	st := Stats{Rows: n, Elapsed: time.Since(start)}
	log.WithFields(log.Fields{
		"table":   opts.SummaryTable,
		"rows":    n,
		"elapsed": st.Elapsed.Truncate(time.Millisecond),
	}).Info("Vendor summary ingested")
	return st, nil
}

// ExitCode maps a run's outcome to a process exit status: 0 for success, 1
// for any configuration, connectivity, aggregation or write failure.
func ExitCode(err error) int {
	if err == nil {
		return 0
	}
	return 1
}
