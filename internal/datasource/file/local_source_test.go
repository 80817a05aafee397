package file

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"
)

func writeFile(t *testing.T, dir, name, body string) string {
	t.Helper()
	p := filepath.Join(dir, name)
	if err := os.WriteFile(p, []byte(body), 0o644); err != nil {
		t.Fatalf("write %s: %v", p, err)
	}
	return p
}

func TestLocalOpen(t *testing.T) {
	dir := t.TempDir()
	p := writeFile(t, dir, "sales.csv", "a\n1\n")

	rc, err := NewLocal(p).Open(context.Background())
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer rc.Close()
	b, err := io.ReadAll(rc)
	if err != nil || string(b) != "a\n1\n" {
		t.Fatalf("read = %q, %v", b, err)
	}
}

func TestLocalOpen_Errors(t *testing.T) {
	_, err := NewLocal(filepath.Join(t.TempDir(), "missing.csv")).Open(context.Background())
	if !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("err = %v, want os.ErrNotExist", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := NewLocal("whatever").Open(ctx); !errors.Is(err, context.Canceled) {
		t.Fatalf("err = %v, want context.Canceled", err)
	}
}

func TestList_FiltersAndSorts(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "sales.csv", "")
	writeFile(t, dir, "begin_inventory.CSV", "")
	writeFile(t, dir, "vendor_invoice.tsv", "")
	writeFile(t, dir, "notes.txt", "")
	if err := os.Mkdir(filepath.Join(dir, "nested.csv"), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}

	got, err := List(dir, ".csv", ".tsv")
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	var names []string
	for _, l := range got {
		names = append(names, filepath.Base(l.Path()))
	}
	want := []string{"begin_inventory.CSV", "sales.csv", "vendor_invoice.tsv"}
	if len(names) != len(want) {
		t.Fatalf("names = %v, want %v", names, want)
	}
	for i := range want {
		if names[i] != want[i] {
			t.Fatalf("names = %v, want %v", names, want)
		}
	}
}

func TestList_MissingDir(t *testing.T) {
	if _, err := List(filepath.Join(t.TempDir(), "nope"), ".csv"); !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("err = %v, want os.ErrNotExist", err)
	}
}

func TestStem(t *testing.T) {
	cases := map[string]string{
		"data/sales.csv":          "sales",
		"purchase_prices.CSV":     "purchase_prices",
		"/abs/vendor.invoice.tsv": "vendor.invoice",
		"noext":                   "noext",
	}
	for in, want := range cases {
		if got := Stem(in); got != want {
			t.Fatalf("Stem(%q) = %q, want %q", in, got, want)
		}
	}
}
