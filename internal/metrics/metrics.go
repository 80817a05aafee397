// Package metrics records operational metrics for pipeline runs behind a
// small backend-agnostic interface.
//
// The package holds one process-wide Backend that defaults to a no-op, so
// instrumentation calls are always safe. Concrete systems live in
// subpackages (prompush, datadog) and are installed with SetBackend by the
// CLI.
package metrics

import "time"

// Metric names emitted by the helpers below.
const (
	StepTotal           = "vendorsummary_step_total"
	StepDurationSeconds = "vendorsummary_step_duration_seconds"
	RowsTotal           = "vendorsummary_rows_total"
	BatchesTotal        = "vendorsummary_batches_total"
	FilesTotal          = "vendorsummary_files_total"
)

// Labels are string key/value pairs attached to a metric.
type Labels map[string]string

// Backend is the minimal interface for metrics backends.
type Backend interface {
	// IncCounter increments a counter by delta.
	IncCounter(name string, delta float64, labels Labels)
	// ObserveHistogram records a value in a duration style metric.
	ObserveHistogram(name string, value float64, labels Labels)
	// Flush pushes or flushes metrics, if the backend needs it.
	Flush() error
}

type nopBackend struct{}

func (nopBackend) IncCounter(string, float64, Labels)       {}
func (nopBackend) ObserveHistogram(string, float64, Labels) {}
func (nopBackend) Flush() error                             { return nil }

var backend Backend = nopBackend{}

// SetBackend installs a concrete backend. Passing nil keeps the existing one.
func SetBackend(b Backend) {
	if b == nil {
		return
	}
	backend = b
}

// Flush delegates to the current backend.
func Flush() error { return backend.Flush() }

// RecordStep counts one execution of a pipeline step and records its
// duration, labelled with success or failure.
func RecordStep(job, step string, err error, d time.Duration) {
	status := "success"
	if err != nil {
		status = "failure"
	}
	lbls := Labels{"job": job, "step": step, "status": status}
	backend.IncCounter(StepTotal, 1, lbls)
	backend.ObserveHistogram(StepDurationSeconds, d.Seconds(), lbls)
}

// RecordRows adds delta rows of the given kind ("aggregated", "written") for
// a destination table.
func RecordRows(job, kind, table string, delta int64) {
	if delta <= 0 {
		return
	}
	backend.IncCounter(RowsTotal, float64(delta), Labels{"job": job, "kind": kind, "table": table})
}

// RecordBatches counts bulk-write batches flushed.
func RecordBatches(job string, delta int64) {
	if delta <= 0 {
		return
	}
	backend.IncCounter(BatchesTotal, float64(delta), Labels{"job": job})
}

// RecordFile counts one file handled by the directory loader with status
// "loaded" or "failed".
func RecordFile(job string, err error) {
	status := "loaded"
	if err != nil {
		status = "failed"
	}
	backend.IncCounter(FilesTotal, 1, Labels{"job": job, "status": status})
}
