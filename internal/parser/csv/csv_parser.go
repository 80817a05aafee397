// Package csv parses delimited text files into typed tables for the
// standalone bulk loader. The whole file is read into memory; column types
// are inferred from the data once every row has been seen.
package csv

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"

	"vendorsummary/internal/table"
)

// Options configures the parser. The zero value reads comma-separated input
// with a header row.
type Options struct {
	// Comma specifies the field delimiter. When zero, ',' is used.
	Comma rune

	// TrimSpace trims leading/trailing spaces from every cell before type
	// inference.
	TrimSpace bool
}

// Parser parses delimited input according to Options.
type Parser struct{ opt Options }

// NewParser constructs a Parser with the provided Options.
func NewParser(opt Options) *Parser { return &Parser{opt: opt} }

// ErrNoHeader is returned for input without a header row.
var ErrNoHeader = errors.New("csv: missing header row")

// Parse reads every record from r and returns a table whose column names come
// from the header row. A record with a different field count than the header
// fails the whole parse, as does a quoting error.
//
// Column types are inferred per column over all data rows:
//
//	every cell an integer             -> Int
//	every cell a number               -> Float
//	numbers with at least one blank   -> NullableFloat (blank cells are nil)
//	no cells at all                   -> NullableFloat
//	anything else                     -> String
func (p *Parser) Parse(r io.Reader) (*table.Table, error) {
	// BOMOverride strips a UTF-8 BOM and transcodes UTF-16 input that carries
	// one; input without a BOM passes through as UTF-8.
	dec := transform.NewReader(r, unicode.BOMOverride(unicode.UTF8.NewDecoder()))

	cr := csv.NewReader(dec)
	if p.opt.Comma != 0 {
		cr.Comma = p.opt.Comma
	}

	header, err := cr.Read()
	if err == io.EOF {
		return nil, ErrNoHeader
	}
	if err != nil {
		return nil, fmt.Errorf("read csv header: %w", err)
	}
	names, err := normalizeHeaders(header)
	if err != nil {
		return nil, err
	}

	var raw [][]string
	for {
		rec, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			// encoding/csv enforces the header's field count and reports the
			// line number.
			return nil, fmt.Errorf("read csv: %w", err)
		}
		if p.opt.TrimSpace {
			for i := range rec {
				rec[i] = strings.TrimSpace(rec[i])
			}
		}
		raw = append(raw, rec)
	}

	cols := make([]table.Column, len(names))
	for j, n := range names {
		cols[j] = table.Column{Name: n, Type: inferType(raw, j)}
	}

	t := table.New(cols)
	t.Rows = make([][]any, 0, len(raw))
	for i, rec := range raw {
		row := make([]any, len(rec))
		for j, s := range rec {
			row[j] = s
		}
		if err := t.Append(row); err != nil {
			return nil, fmt.Errorf("csv: line %d: %w", i+2, err)
		}
	}
	return t, nil
}

// normalizeHeaders trims header cells and rejects empty or duplicate names.
// Case is preserved: header names become SQL column names.
func normalizeHeaders(h []string) ([]string, error) {
	seen := make(map[string]struct{}, len(h))
	out := make([]string, len(h))
	for i, col := range h {
		c := strings.TrimSpace(col)
		if c == "" {
			return nil, fmt.Errorf("csv: header column %d is empty", i+1)
		}
		if _, dup := seen[c]; dup {
			return nil, fmt.Errorf("csv: duplicate header column %q", c)
		}
		seen[c] = struct{}{}
		out[i] = c
	}
	return out, nil
}

func inferType(raw [][]string, j int) table.Type {
	allInt, allNum, blank := true, true, false
	for _, rec := range raw {
		s := strings.TrimSpace(rec[j])
		if s == "" {
			blank = true
			continue
		}
		if _, err := strconv.ParseInt(s, 10, 64); err == nil {
			continue
		}
		allInt = false
		if _, err := strconv.ParseFloat(s, 64); err != nil {
			allNum = false
			break
		}
	}
	switch {
	case !allNum:
		return table.String
	case blank || len(raw) == 0:
		return table.NullableFloat
	case allInt:
		return table.Int
	default:
		return table.Float
	}
}
