package summary

import (
	"fmt"
	"strings"
	"time"

	log "github.com/sirupsen/logrus"

	"vendorsummary/internal/table"
)

// step is one transform of the cleaning chain. Steps mutate the working copy
// in place and run in a fixed order because later steps read earlier output.
type step struct {
	name string
	fn   func(*table.Table) error
}

var cleanSteps = []step{
	{"coerce_volume", coerceVolume},
	{"fill_missing", fillMissing},
	{"trim_text", trimText},
	{"gross_profit", grossProfit},
	{"profit_margin", profitMargin},
	{"stock_turnover", stockTurnover},
	{"sales_purchase_ratio", salesPurchaseRatio},
}

// Clean returns a cleaned copy of an aggregation result with the derived
// columns appended. The input is not modified. Running Clean on its own
// output yields an identical table.
//
// Ratios with a zero denominator are left as IEEE-754 +Inf, -Inf or NaN.
func Clean(in *table.Table) (*table.Table, error) {
	if in == nil {
		return nil, fmt.Errorf("summary: clean: nil table")
	}
	start := time.Now()
	t := in.Clone()
	for _, s := range cleanSteps {
		if err := s.fn(t); err != nil {
			return nil, fmt.Errorf("summary: clean %s: %w", s.name, err)
		}
	}
	log.WithFields(log.Fields{
		"rows":    t.Len(),
		"columns": len(t.Columns),
		"elapsed": time.Since(start).Truncate(time.Millisecond),
	}).Debug("summary: clean complete")
	return t, nil
}

func coerceVolume(t *table.Table) error {
	return t.CoerceColumn(ColVolume, table.NullableFloat)
}

// fillMissing replaces nil cells with 0 and narrows every nullable column to
// its non-nullable type.
func fillMissing(t *table.Table) error {
	for j, c := range t.Columns {
		var zero any
		switch c.Type {
		case table.NullableFloat:
			zero = 0.0
			t.Columns[j].Type = table.Float
		case table.NullableInt:
			zero = int64(0)
			t.Columns[j].Type = table.Int
		default:
			continue
		}
		for _, r := range t.Rows {
			if r[j] == nil {
				r[j] = zero
			}
		}
	}
	return nil
}

func trimText(t *table.Table) error {
	for _, name := range []string{ColVendorName, ColDescription} {
		j, err := t.MustIndex(name)
		if err != nil {
			return err
		}
		if t.Columns[j].Type != table.String {
			return fmt.Errorf("column %q is %s, want string", name, t.Columns[j].Type)
		}
		for _, r := range t.Rows {
			r[j] = strings.TrimSpace(r[j].(string))
		}
	}
	return nil
}

// derive computes a Float column from two numeric inputs and writes it with
// SetColumn, so an existing derived column is overwritten rather than
// duplicated.
func derive(t *table.Table, out, a, b string, f func(x, y float64) float64) error {
	ia, err := numericIndex(t, a)
	if err != nil {
		return err
	}
	ib, err := numericIndex(t, b)
	if err != nil {
		return err
	}
	vals := make([]any, t.Len())
	for i := range t.Rows {
		vals[i] = f(t.Float(i, ia), t.Float(i, ib))
	}
	return t.SetColumn(table.Column{Name: out, Type: table.Float}, vals)
}

func numericIndex(t *table.Table, name string) (int, error) {
	j, err := t.MustIndex(name)
	if err != nil {
		return -1, err
	}
	if !t.Columns[j].Type.Numeric() {
		return -1, fmt.Errorf("column %q is %s, want numeric", name, t.Columns[j].Type)
	}
	return j, nil
}

func grossProfit(t *table.Table) error {
	return derive(t, ColGrossProfit, ColTotalSalesDollars, ColTotalPurchaseDollars,
		func(sales, purchase float64) float64 { return sales - purchase })
}

func profitMargin(t *table.Table) error {
	return derive(t, ColProfitMargin, ColGrossProfit, ColTotalSalesDollars,
		func(gp, sales float64) float64 { return gp / sales * 100 })
}

func stockTurnover(t *table.Table) error {
	return derive(t, ColStockTurnover, ColTotalSalesQuantity, ColTotalPurchaseQuantity,
		func(sold, bought float64) float64 { return sold / bought })
}

func salesPurchaseRatio(t *table.Table) error {
	return derive(t, ColSalesPurchaseRatio, ColTotalSalesDollars, ColTotalPurchaseDollars,
		func(sales, purchase float64) float64 { return sales / purchase })
}
