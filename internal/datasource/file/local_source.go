// Package file locates and opens delimited text files on the local disk for
// the directory loader.
package file

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// Local is a filesystem data source for one file.
type Local struct{ path string }

// NewLocal returns a Local bound to path.
func NewLocal(path string) *Local { return &Local{path: path} }

// Path returns the bound path.
func (l *Local) Path() string { return l.path }

// Open opens the file for reading. A context that is already done is
// reported without touching the filesystem. Filesystem errors are wrapped
// with the path and remain errors.Is-compatible (os.ErrNotExist, ...).
func (l *Local) Open(ctx context.Context) (io.ReadCloser, error) {
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	default:
	}
	f, err := os.Open(l.path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", l.path, err)
	}
	return f, nil
}

// List returns the regular files directly inside dir whose extension matches
// one of exts (case-insensitive, with leading dot), sorted by name.
// Subdirectories are not descended into. A missing or unreadable dir is an
// error.
func List(dir string, exts ...string) ([]*Local, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("list %s: %w", dir, err)
	}
	want := make(map[string]struct{}, len(exts))
	for _, e := range exts {
		want[strings.ToLower(e)] = struct{}{}
	}
	var out []*Local
	for _, e := range entries {
		if !e.Type().IsRegular() {
			continue
		}
		if _, ok := want[strings.ToLower(filepath.Ext(e.Name()))]; !ok {
			continue
		}
		out = append(out, NewLocal(filepath.Join(dir, e.Name())))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].path < out[j].path })
	return out, nil
}

// Stem returns the base name of path with its final extension removed:
// "data/sales.csv" -> "sales".
func Stem(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}
