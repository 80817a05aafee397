package storage

import (
	"context"
	"errors"
	"testing"
)

func makeRows(n int) [][]any {
	rows := make([][]any, n)
	for i := range rows {
		rows[i] = []any{int64(i), "x"}
	}
	return rows
}

// TestWriteBatches_Basic verifies rows are grouped into batches and copyFn is
// called with the expected counts. It also checks the total equals the sum of
// all successful copyFn returns.
func TestWriteBatches_Basic(t *testing.T) {
	t.Parallel()

	var sizes []int
	copyFn := func(_ context.Context, _ []string, rows [][]any) (int64, error) {
		sizes = append(sizes, len(rows))
		return int64(len(rows)), nil
	}

	total, err := WriteBatches(context.Background(), []string{"c1", "c2"}, makeRows(7), 3, copyFn)
	if err != nil {
		t.Fatalf("WriteBatches error: %v", err)
	}
	if total != 7 {
		t.Fatalf("total rows %d, want 7", total)
	}
	if len(sizes) != 3 || sizes[0] != 3 || sizes[1] != 3 || sizes[2] != 1 {
		t.Fatalf("batch sizes %v, want [3 3 1]", sizes)
	}
}

// TestWriteBatches_PreservesOrder concatenates the batches and checks the
// rows arrive exactly once and in input order.
func TestWriteBatches_PreservesOrder(t *testing.T) {
	t.Parallel()

	in := makeRows(25000)
	var seen []int64
	copyFn := func(_ context.Context, _ []string, rows [][]any) (int64, error) {
		for _, r := range rows {
			seen = append(seen, r[0].(int64))
		}
		return int64(len(rows)), nil
	}
	total, err := WriteBatches(context.Background(), []string{"c1", "c2"}, in, DefaultBatchSize, copyFn)
	if err != nil {
		t.Fatalf("WriteBatches: %v", err)
	}
	if total != 25000 || len(seen) != 25000 {
		t.Fatalf("total=%d seen=%d, want 25000", total, len(seen))
	}
	for i, v := range seen {
		if v != int64(i) {
			t.Fatalf("row %d out of order: got id %d", i, v)
		}
	}
}

// TestWriteBatches_ErrorPropagation ensures the first copy error is propagated
// and processing stops after that batch.
func TestWriteBatches_ErrorPropagation(t *testing.T) {
	t.Parallel()

	wantErr := errors.New("copy failed")
	var batches int
	copyFn := func(_ context.Context, _ []string, rows [][]any) (int64, error) {
		batches++
		if batches == 2 {
			return 0, wantErr
		}
		return int64(len(rows)), nil
	}

	total, err := WriteBatches(context.Background(), []string{"c"}, makeRows(5), 2, copyFn)
	if !errors.Is(err, wantErr) {
		t.Fatalf("want error %v, got %v", wantErr, err)
	}
	if total != 2 {
		t.Fatalf("total rows %d, want 2", total)
	}
	if batches != 2 {
		t.Fatalf("copyFn called %d times after failure, want 2", batches)
	}
}

func TestWriteBatches_ContextCanceled(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	called := false
	_, err := WriteBatches(ctx, []string{"c"}, makeRows(3), 2, func(context.Context, []string, [][]any) (int64, error) {
		called = true
		return 0, nil
	})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("want context.Canceled, got %v", err)
	}
	if called {
		t.Fatalf("copyFn must not run on a canceled context")
	}
}

func TestWriteBatches_InvalidArgs(t *testing.T) {
	t.Parallel()

	if _, err := WriteBatches(context.Background(), nil, nil, 0, func(context.Context, []string, [][]any) (int64, error) { return 0, nil }); err == nil {
		t.Fatalf("batchSize 0 must fail")
	}
	if _, err := WriteBatches(context.Background(), nil, nil, 1, nil); err == nil {
		t.Fatalf("nil copyFn must fail")
	}
}

func TestWriteBatches_EmptyInput(t *testing.T) {
	t.Parallel()

	total, err := WriteBatches(context.Background(), []string{"c"}, nil, 10, func(context.Context, []string, [][]any) (int64, error) {
		t.Fatalf("copyFn must not be called for empty input")
		return 0, nil
	})
	if err != nil || total != 0 {
		t.Fatalf("total=%d err=%v", total, err)
	}
}
