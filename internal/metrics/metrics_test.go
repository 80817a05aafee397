package metrics

import (
	"errors"
	"testing"
	"time"
)

type counterCall struct {
	name   string
	delta  float64
	labels Labels
}

type histCall struct {
	name   string
	value  float64
	labels Labels
}

// fakeBackend records every call in memory.
type fakeBackend struct {
	counters   []counterCall
	histograms []histCall
	flushes    int
}

func (f *fakeBackend) IncCounter(name string, delta float64, labels Labels) {
	f.counters = append(f.counters, counterCall{name, delta, labels})
}

func (f *fakeBackend) ObserveHistogram(name string, value float64, labels Labels) {
	f.histograms = append(f.histograms, histCall{name, value, labels})
}

func (f *fakeBackend) Flush() error {
	f.flushes++
	return nil
}

func withFake(t *testing.T) *fakeBackend {
	t.Helper()
	orig := backend
	t.Cleanup(func() { backend = orig })
	fb := &fakeBackend{}
	backend = fb
	return fb
}

func TestRecordStep_SuccessAndFailure(t *testing.T) {
	fb := withFake(t)

	RecordStep("vendor_summary", "aggregate", nil, 2*time.Second)
	RecordStep("vendor_summary", "write", errors.New("boom"), 1500*time.Millisecond)

	if len(fb.counters) != 2 || len(fb.histograms) != 2 {
		t.Fatalf("calls: counters=%d histograms=%d, want 2/2", len(fb.counters), len(fb.histograms))
	}
	if c := fb.counters[0]; c.name != StepTotal || c.delta != 1 || c.labels["status"] != "success" || c.labels["step"] != "aggregate" {
		t.Fatalf("counter[0] = %#v", c)
	}
	if c := fb.counters[1]; c.labels["status"] != "failure" || c.labels["step"] != "write" {
		t.Fatalf("counter[1] = %#v", c)
	}
	if h := fb.histograms[1]; h.name != StepDurationSeconds || h.value < 1.499 || h.value > 1.501 {
		t.Fatalf("hist[1] = %#v", h)
	}
}

func TestRecordRowsBatchesAndFiles(t *testing.T) {
	fb := withFake(t)

	RecordRows("job", "written", "sales", 25000)
	RecordRows("job", "written", "sales", 0) // ignored
	RecordBatches("job", 3)
	RecordBatches("job", -1) // ignored
	RecordFile("job", nil)
	RecordFile("job", errors.New("bad row"))

	if len(fb.counters) != 4 {
		t.Fatalf("expected 4 counter calls, got %d: %#v", len(fb.counters), fb.counters)
	}
	if c := fb.counters[0]; c.name != RowsTotal || c.delta != 25000 || c.labels["table"] != "sales" || c.labels["kind"] != "written" {
		t.Fatalf("rows counter = %#v", c)
	}
	if c := fb.counters[1]; c.name != BatchesTotal || c.delta != 3 {
		t.Fatalf("batches counter = %#v", c)
	}
	if fb.counters[2].labels["status"] != "loaded" || fb.counters[3].labels["status"] != "failed" {
		t.Fatalf("file statuses = %v, %v", fb.counters[2].labels, fb.counters[3].labels)
	}
}

func TestSetBackendAndFlush(t *testing.T) {
	orig := backend
	defer func() { backend = orig }()

	fb := &fakeBackend{}
	SetBackend(fb)
	if backend != fb {
		t.Fatal("SetBackend did not replace global backend")
	}
	if err := Flush(); err != nil {
		t.Fatalf("Flush: %v", err)
	}
	if fb.flushes != 1 {
		t.Fatalf("flushes = %d, want 1", fb.flushes)
	}

	SetBackend(nil)
	if backend != fb {
		t.Fatal("SetBackend(nil) should not change backend")
	}
}

func TestNopBackend(t *testing.T) {
	var b nopBackend
	b.IncCounter(StepTotal, 1, nil)
	b.ObserveHistogram(StepDurationSeconds, 1, nil)
	if err := b.Flush(); err != nil {
		t.Fatalf("nop Flush: %v", err)
	}
}
