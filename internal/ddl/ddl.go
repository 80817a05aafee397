// Package ddl defines a small, backend-agnostic model for SQL DDL and helpers
// to render the CREATE/DROP statements used by replace-on-write loads.
//
// Backends describe their SQL flavour with a Dialect (identifier quoting and
// the SQL type for each table.Type); the rendering rules are shared.
package ddl

import (
	"fmt"
	"strings"

	"vendorsummary/internal/table"
)

// ColumnDef describes a single column in a table definition.
//
// Fields:
//   - Name: logical column name (unquoted; quoting happens at render time)
//   - SQLType: target SQL type (e.g., TEXT, BIGINT, DOUBLE PRECISION)
//   - Nullable: whether NULL is allowed
type ColumnDef struct {
	Name     string
	SQLType  string
	Nullable bool
}

// TableDef holds the table name (optionally schema-qualified, dotted) and an
// ordered list of columns.
type TableDef struct {
	FQN     string
	Columns []ColumnDef
}

// Dialect captures what differs between backends when rendering DDL.
type Dialect struct {
	Name    string
	Quote   func(ident string) string
	SQLType func(t table.Type) string
}

// FromTable derives a TableDef from a table's schema. Columns keep their
// order. Every column is nullable: derived ratios may be NaN, which some
// backends store as NULL.
func FromTable(fqn string, t *table.Table, d Dialect) TableDef {
	defs := make([]ColumnDef, len(t.Columns))
	for i, c := range t.Columns {
		defs[i] = ColumnDef{Name: c.Name, SQLType: d.SQLType(c.Type), Nullable: true}
	}
	return TableDef{FQN: fqn, Columns: defs}
}

// BuildCreateTableSQL renders a deterministic CREATE TABLE statement.
//
// Rules:
//   - t.FQN must be non-empty; each dotted segment is quoted.
//   - Each column must have a non-empty Name and SQLType.
//   - NOT NULL is added when Nullable == false.
func BuildCreateTableSQL(t TableDef, d Dialect) (string, error) {
	fqn := strings.TrimSpace(t.FQN)
	if fqn == "" {
		return "", fmt.Errorf("%s ddl: table FQN must not be empty", d.Name)
	}
	if len(t.Columns) == 0 {
		return "", fmt.Errorf("%s ddl: at least one column is required", d.Name)
	}

	cols := make([]string, 0, len(t.Columns))
	for _, c := range t.Columns {
		name := strings.TrimSpace(c.Name)
		if name == "" {
			return "", fmt.Errorf("%s ddl: column with empty name in table %s", d.Name, fqn)
		}
		typ := strings.TrimSpace(c.SQLType)
		if typ == "" {
			return "", fmt.Errorf("%s ddl: column %s missing SQLType", d.Name, name)
		}

		var sb strings.Builder
		sb.WriteString(d.Quote(name))
		sb.WriteByte(' ')
		sb.WriteString(typ)
		if !c.Nullable {
			sb.WriteString(" NOT NULL")
		}
		cols = append(cols, sb.String())
	}

	return fmt.Sprintf(
		"CREATE TABLE %s (\n  %s\n)",
		QuoteFQN(fqn, d.Quote),
		strings.Join(cols, ",\n  "),
	), nil
}

// BuildDropTableSQL renders DROP TABLE IF EXISTS for fqn.
func BuildDropTableSQL(fqn string, d Dialect) string {
	return "DROP TABLE IF EXISTS " + QuoteFQN(fqn, d.Quote)
}

// QuoteFQN quotes a possibly schema-qualified name like "public.users"
// segment by segment. Empty segments are ignored.
func QuoteFQN(f string, quote func(string) string) string {
	parts := strings.Split(f, ".")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p == "" {
			continue
		}
		out = append(out, quote(p))
	}
	return strings.Join(out, ".")
}

// DoubleQuote quotes an identifier with ANSI double quotes, escaping embedded
// quotes:
//
//	DoubleQuote(`pcv`)        => `"pcv"`
//	DoubleQuote(`weird"name`) => `"weird""name"`
func DoubleQuote(id string) string {
	return `"` + strings.ReplaceAll(id, `"`, `""`) + `"`
}
