package table

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Coerce converts a raw value (as produced by a SQL driver or a CSV reader)
// into the canonical Go representation for typ.
//
// Conversion rules:
//   - String accepts strings, []byte and numbers; nil becomes "".
//   - Int accepts integer kinds, integral floats and decimal strings.
//   - Float accepts all numeric kinds and numeric strings.
//   - NullableFloat and NullableInt are Float and Int, except nil and blank
//     strings become nil.
//
// Values that cannot be represented are reported as errors rather than being
// replaced with nil.
func Coerce(v any, typ Type) (any, error) {
	switch typ {
	case String:
		return toString(v), nil
	case Int:
		return toInt(v)
	case Float:
		if v == nil {
			return nil, fmt.Errorf("null value in non-nullable float column")
		}
		return toFloat(v)
	case NullableFloat:
		if isBlank(v) {
			return nil, nil
		}
		return toFloat(v)
	case NullableInt:
		if isBlank(v) {
			return nil, nil
		}
		return toInt(v)
	default:
		return nil, fmt.Errorf("unknown column type %v", typ)
	}
}

// CoerceColumn converts every cell of the named column to typ and updates the
// column's declared type. It is idempotent.
func (t *Table) CoerceColumn(name string, typ Type) error {
	j, err := t.MustIndex(name)
	if err != nil {
		return err
	}
	for i, r := range t.Rows {
		v, err := Coerce(r[j], typ)
		if err != nil {
			return fmt.Errorf("table: coerce %q row %d to %s: %w", name, i, typ, err)
		}
		r[j] = v
	}
	t.Columns[j].Type = typ
	return nil
}

func isBlank(v any) bool {
	if v == nil {
		return true
	}
	s, ok := asString(v)
	return ok && strings.TrimSpace(s) == ""
}

func asString(v any) (string, bool) {
	switch s := v.(type) {
	case string:
		return s, true
	case []byte:
		return string(s), true
	}
	return "", false
}

func toString(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case []byte:
		return string(t)
	case int64:
		return strconv.FormatInt(t, 10)
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	default:
		return fmt.Sprint(t)
	}
}

func toInt(v any) (int64, error) {
	switch n := v.(type) {
	case nil:
		return 0, fmt.Errorf("null value in non-nullable int column")
	case int:
		return int64(n), nil
	case int8:
		return int64(n), nil
	case int16:
		return int64(n), nil
	case int32:
		return int64(n), nil
	case int64:
		return n, nil
	case uint8:
		return int64(n), nil
	case uint16:
		return int64(n), nil
	case uint32:
		return int64(n), nil
	case uint64:
		if n > math.MaxInt64 {
			return 0, fmt.Errorf("value %d overflows int64", n)
		}
		return int64(n), nil
	case float32:
		return integral(float64(n))
	case float64:
		return integral(n)
	case bool:
		if n {
			return 1, nil
		}
		return 0, nil
	}
	s, ok := asString(v)
	if !ok {
		return 0, fmt.Errorf("cannot convert %T to int", v)
	}
	s = strings.TrimSpace(s)
	if i, err := strconv.ParseInt(s, 10, 64); err == nil {
		return i, nil
	}
	// Numeric aggregates (e.g. SUM over a NUMERIC column) may arrive as "12.0".
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("parse int %q: %w", s, err)
	}
	return integral(f)
}

func integral(f float64) (int64, error) {
	if math.IsNaN(f) || math.IsInf(f, 0) || f != math.Trunc(f) {
		return 0, fmt.Errorf("value %v is not an integer", f)
	}
	if f > math.MaxInt64 || f < math.MinInt64 {
		return 0, fmt.Errorf("value %v overflows int64", f)
	}
	return int64(f), nil
}

func toFloat(v any) (float64, error) {
	switch n := v.(type) {
	case float64:
		return n, nil
	case float32:
		return float64(n), nil
	case int:
		return float64(n), nil
	case int8:
		return float64(n), nil
	case int16:
		return float64(n), nil
	case int32:
		return float64(n), nil
	case int64:
		return float64(n), nil
	case uint8:
		return float64(n), nil
	case uint16:
		return float64(n), nil
	case uint32:
		return float64(n), nil
	case uint64:
		return float64(n), nil
	}
	s, ok := asString(v)
	if !ok {
		return 0, fmt.Errorf("cannot convert %T to float", v)
	}
	f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return 0, fmt.Errorf("parse float %q: %w", s, err)
	}
	return f, nil
}
