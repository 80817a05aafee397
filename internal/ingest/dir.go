package ingest

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	log "github.com/sirupsen/logrus"

	"vendorsummary/internal/datasource/file"
	"vendorsummary/internal/metrics"
	"vendorsummary/internal/parser/csv"
)

// Extensions recognized by LoadDir, mapped to their field delimiter.
var delimiters = map[string]rune{
	".csv": ',',
	".tsv": '\t',
}

// FileResult is the outcome of loading one file.
type FileResult struct {
	Path  string
	Table string
	Rows  int64
	Err   error
}

// Report summarizes a LoadDir run.
type Report struct {
	Loaded  []FileResult
	Failed  []FileResult
	Elapsed time.Duration
}

// LoadDir loads every .csv and .tsv file directly inside dir into a table
// named after the file's stem, in file name order. Each file is independent:
// a file that fails to open, parse or write is logged, recorded in
// Report.Failed and skipped. The returned error is non-nil only when dir
// itself cannot be listed or ctx is canceled.
func (l *Loader) LoadDir(ctx context.Context, dir string) (Report, error) {
	start := time.Now()
	exts := make([]string, 0, len(delimiters))
	for e := range delimiters {
		exts = append(exts, e)
	}
	files, err := file.List(dir, exts...)
	if err != nil {
		return Report{}, fmt.Errorf("ingest: %w", err)
	}
	if len(files) == 0 {
		log.WithField("dir", dir).Warn("ingest: no delimited files found")
	}

	var rep Report
	for _, f := range files {
		if err := ctx.Err(); err != nil {
			rep.Elapsed = time.Since(start)
			return rep, err
		}
		res := l.loadFile(ctx, f)
		metrics.RecordFile(l.job(), res.Err)
		if res.Err != nil {
			log.WithError(res.Err).WithField("file", res.Path).Error("ingest: file skipped")
			rep.Failed = append(rep.Failed, res)
			continue
		}
		rep.Loaded = append(rep.Loaded, res)
	}

	rep.Elapsed = time.Since(start)
	log.WithFields(log.Fields{
		"dir":    dir,
		"loaded": len(rep.Loaded),
		"failed": len(rep.Failed),
	}).Infof("Ingestion completed in %.2f minutes", rep.Elapsed.Minutes())
	return rep, nil
}

// loadFile opens, parses and writes one file. LoadDir logs the single
// file-level failure, if any.
func (l *Loader) loadFile(ctx context.Context, f *file.Local) FileResult {
	res := FileResult{Path: f.Path(), Table: file.Stem(f.Path())}

	rc, err := f.Open(ctx)
	if err != nil {
		res.Err = err
		return res
	}
	defer rc.Close()

	comma := delimiters[strings.ToLower(filepath.Ext(f.Path()))]
	t, err := csv.NewParser(csv.Options{Comma: comma}).Parse(rc)
	if err != nil {
		res.Err = fmt.Errorf("parse %s: %w", f.Path(), err)
		return res
	}
	res.Rows, res.Err = l.write(ctx, res.Table, t)
	return res
}
