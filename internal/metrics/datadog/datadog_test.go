package datadog

import (
	"reflect"
	"testing"

	"vendorsummary/internal/metrics"
)

type call struct {
	kind  string
	name  string
	value float64
	tags  []string
}

type fakeClient struct {
	calls  []call
	closed bool
}

func (f *fakeClient) Count(name string, value int64, tags []string, _ float64) error {
	f.calls = append(f.calls, call{"count", name, float64(value), tags})
	return nil
}

func (f *fakeClient) Histogram(name string, value float64, tags []string, _ float64) error {
	f.calls = append(f.calls, call{"histogram", name, value, tags})
	return nil
}

func (f *fakeClient) Close() error {
	f.closed = true
	return nil
}

func TestNewBackend_RequiresAddr(t *testing.T) {
	if _, err := NewBackend(Config{}); err == nil {
		t.Fatalf("expected error for empty Addr")
	}
}

func TestNewBackend_UDP(t *testing.T) {
	// UDP needs no listener to construct the client.
	b, err := NewBackend(Config{Addr: "127.0.0.1:8125", Namespace: "etl.", GlobalTags: []string{"env:test"}})
	if err != nil {
		t.Fatalf("NewBackend: %v", err)
	}
	if b.client == nil {
		t.Fatalf("client not set")
	}
	_ = b.Flush()
}

func TestBackend_ForwardsWithTags(t *testing.T) {
	fc := &fakeClient{}
	b := &Backend{client: fc}

	b.IncCounter(metrics.RowsTotal, 42, metrics.Labels{"table": "sales", "kind": "written"})
	b.ObserveHistogram(metrics.StepDurationSeconds, 0.25, metrics.Labels{"step": "write"})
	if err := b.Flush(); err != nil {
		t.Fatalf("Flush: %v", err)
	}

	want := []call{
		{"count", metrics.RowsTotal, 42, []string{"kind:written", "table:sales"}},
		{"histogram", metrics.StepDurationSeconds, 0.25, []string{"step:write"}},
	}
	if !reflect.DeepEqual(fc.calls, want) {
		t.Fatalf("calls = %#v\nwant %#v", fc.calls, want)
	}
	if !fc.closed {
		t.Fatalf("Flush did not close the client")
	}
}

func TestZeroBackendIsSafe(t *testing.T) {
	b := &Backend{}
	b.IncCounter(metrics.StepTotal, 1, nil)
	b.ObserveHistogram(metrics.StepDurationSeconds, 1, nil)
	if err := b.Flush(); err != nil {
		t.Fatalf("Flush: %v", err)
	}
}

func TestLabelsToTags_Empty(t *testing.T) {
	if got := labelsToTags(nil); got != nil {
		t.Fatalf("labelsToTags(nil) = %v", got)
	}
}
