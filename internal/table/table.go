// Package table defines the in-memory tabular value that flows between the
// aggregator, the cleaner and the bulk loader.
//
// A Table carries an explicit, ordered column schema. Every cell holds a Go
// value whose dynamic type is fixed by its column's declared Type:
//
//	String        -> string
//	Int           -> int64
//	Float         -> float64 (may be ±Inf or NaN)
//	NullableFloat -> float64 or nil
//	NullableInt   -> int64 or nil
//
// Values are coerced into that shape once, when a table is built from raw
// driver or CSV values (see FromRows and Coerce); after that the rest of the
// program can rely on the declared types without re-checking.
package table

import (
	"fmt"
	"math"
)

// Type is the declared logical type of a column.
type Type int

const (
	String Type = iota
	Int
	Float
	NullableFloat
	NullableInt
)

// String returns the lower-case name of the type, as used in logs and
// configuration.
func (t Type) String() string {
	switch t {
	case String:
		return "string"
	case Int:
		return "int"
	case Float:
		return "float"
	case NullableFloat:
		return "nullable_float"
	case NullableInt:
		return "nullable_int"
	default:
		return fmt.Sprintf("type(%d)", int(t))
	}
}

// Nullable reports whether cells of this type may hold nil.
func (t Type) Nullable() bool { return t == NullableFloat || t == NullableInt }

// Numeric reports whether the type holds numbers.
func (t Type) Numeric() bool { return t != String }

// Column is a single named, typed column.
type Column struct {
	Name string
	Type Type
}

// Table is an ordered set of typed columns plus row-major data. Rows[i][j]
// belongs to Columns[j].
type Table struct {
	Columns []Column
	Rows    [][]any
}

// New returns an empty table with a copy of cols as its schema.
func New(cols []Column) *Table {
	c := make([]Column, len(cols))
	copy(c, cols)
	return &Table{Columns: c}
}

// Len returns the number of rows.
func (t *Table) Len() int { return len(t.Rows) }

// Names returns the column names in order.
func (t *Table) Names() []string {
	out := make([]string, len(t.Columns))
	for i, c := range t.Columns {
		out[i] = c.Name
	}
	return out
}

// Index returns the position of the named column, or -1.
func (t *Table) Index(name string) int {
	for i, c := range t.Columns {
		if c.Name == name {
			return i
		}
	}
	return -1
}

// MustIndex is Index but returns an error naming the missing column.
func (t *Table) MustIndex(name string) (int, error) {
	if i := t.Index(name); i >= 0 {
		return i, nil
	}
	return -1, fmt.Errorf("table: column %q not found", name)
}

// Append coerces row to the schema and appends it.
func (t *Table) Append(row []any) error {
	if len(row) != len(t.Columns) {
		return fmt.Errorf("table: row has %d values, schema has %d columns", len(row), len(t.Columns))
	}
	out := make([]any, len(row))
	for j, v := range row {
		cv, err := Coerce(v, t.Columns[j].Type)
		if err != nil {
			return fmt.Errorf("table: row %d column %q: %w", len(t.Rows), t.Columns[j].Name, err)
		}
		out[j] = cv
	}
	t.Rows = append(t.Rows, out)
	return nil
}

// Clone returns a deep copy of the schema and the row slices. Cell values are
// immutable scalars, so copying the slices is sufficient.
func (t *Table) Clone() *Table {
	c := New(t.Columns)
	c.Rows = make([][]any, len(t.Rows))
	for i, r := range t.Rows {
		nr := make([]any, len(r))
		copy(nr, r)
		c.Rows[i] = nr
	}
	return c
}

// Float returns cell (row, col) as a float64. Int cells are widened, nil
// becomes NaN. It panics if the column is not numeric; callers check the
// schema first.
func (t *Table) Float(row, col int) float64 {
	switch v := t.Rows[row][col].(type) {
	case float64:
		return v
	case int64:
		return float64(v)
	case nil:
		return math.NaN()
	default:
		panic(fmt.Sprintf("table: column %q is %s, not numeric", t.Columns[col].Name, t.Columns[col].Type))
	}
}

// SetColumn writes values into the named column, replacing the existing
// column (and its type) when present and appending it otherwise. len(values)
// must equal Len().
func (t *Table) SetColumn(col Column, values []any) error {
	if len(values) != len(t.Rows) {
		return fmt.Errorf("table: column %q has %d values, table has %d rows", col.Name, len(values), len(t.Rows))
	}
	j := t.Index(col.Name)
	if j < 0 {
		t.Columns = append(t.Columns, col)
		for i := range t.Rows {
			t.Rows[i] = append(t.Rows[i], values[i])
		}
		return nil
	}
	t.Columns[j] = col
	for i := range t.Rows {
		t.Rows[i][j] = values[i]
	}
	return nil
}

// FromRows builds a table from raw driver values, coercing every cell to the
// declared schema. The first coercion failure is returned with its row and
// column.
func FromRows(cols []Column, raw [][]any) (*Table, error) {
	t := New(cols)
	t.Rows = make([][]any, 0, len(raw))
	for _, r := range raw {
		if err := t.Append(r); err != nil {
			return nil, err
		}
	}
	return t, nil
}
