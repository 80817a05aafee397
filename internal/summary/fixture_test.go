package summary

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"vendorsummary/internal/storage"
	_ "vendorsummary/internal/storage/sqlite"
	"vendorsummary/internal/table"
)

// fixtureDDL mirrors the raw CSV exports: purchase_prices.Volume is text.
var fixtureDDL = []string{
	`CREATE TABLE vendor_invoice (VendorNumber INTEGER, VendorName TEXT, PONumber INTEGER, Freight REAL)`,
	`CREATE TABLE purchases (VendorNumber INTEGER, VendorName TEXT, Brand INTEGER, Description TEXT,
		PurchasePrice REAL, Quantity INTEGER, Dollars REAL)`,
	`CREATE TABLE purchase_prices (Brand INTEGER, Description TEXT, Price REAL, Volume TEXT)`,
	`CREATE TABLE sales (VendorNo INTEGER, Brand INTEGER, SalesQuantity INTEGER, SalesDollars REAL,
		SalesPrice REAL, ExciseTax REAL)`,

	`INSERT INTO vendor_invoice VALUES
		(1, 'ACME SPIRITS', 8124, 10.0),
		(1, 'ACME SPIRITS', 8125, 5.5),
		(3, 'NO PURCHASES INC', 9001, 99.0)`,

	// Vendor 1 buys brand 10 twice at the same price (one group) and brand 11
	// once; vendor 2 buys brand 20, plus a zero-priced brand 21 that must be
	// filtered out.
	`INSERT INTO purchases VALUES
		(1, 'ACME SPIRITS   ', 10, '  Kettle One Vodka ', 5.0, 10, 50.0),
		(1, 'ACME SPIRITS   ', 10, '  Kettle One Vodka ', 5.0, 20, 100.0),
		(1, 'ACME SPIRITS   ', 11, 'Bombay Gin', 8.0, 5, 40.0),
		(2, 'BETA IMPORTS', 20, 'Havana Rum', 3.0, 100, 300.0),
		(2, 'BETA IMPORTS', 21, 'Free Sample', 0.0, 1, 0.0)`,

	`INSERT INTO purchase_prices VALUES
		(10, 'Kettle One Vodka', 9.99, '750'),
		(11, 'Bombay Gin', 12.5, '1000'),
		(20, 'Havana Rum', 6.0, '1750'),
		(21, 'Free Sample', 1.0, '50')`,

	// Brand 11 has no sales.
	`INSERT INTO sales VALUES
		(1, 10, 25, 250.0, 9.99, 1.5),
		(1, 10, 5, 50.0, 9.99, 0.25),
		(2, 20, 10, 60.0, 6.0, 0.5)`,
}

func fixtureStore(tb testing.TB) storage.Store {
	tb.Helper()
	ctx := context.Background()
	s, err := storage.New(ctx, storage.Config{Kind: "sqlite", DSN: ":memory:"})
	require.NoError(tb, err)
	tb.Cleanup(s.Close)
	for _, stmt := range fixtureDDL {
		require.NoError(tb, s.Exec(ctx, stmt))
	}
	return s
}

// rowByKey indexes a table's rows by (VendorNumber, Brand).
func rowByKey(tb testing.TB, t *table.Table) map[[2]int64][]any {
	tb.Helper()
	iv, ib := t.Index(ColVendorNumber), t.Index(ColBrand)
	require.GreaterOrEqual(tb, iv, 0)
	require.GreaterOrEqual(tb, ib, 0)
	out := make(map[[2]int64][]any, t.Len())
	for _, r := range t.Rows {
		out[[2]int64{r[iv].(int64), r[ib].(int64)}] = r
	}
	return out
}
