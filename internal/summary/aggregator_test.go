package summary

import (
	"context"
	"errors"
	"math"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"vendorsummary/internal/storage"
	"vendorsummary/internal/table"
)

func aggregateFixture(t *testing.T) *table.Table {
	t.Helper()
	res := Aggregate(context.Background(), fixtureStore(t), DefaultRelations())
	require.NoError(t, res.Err())
	tb, ok := res.Table()
	require.True(t, ok)
	return tb
}

func TestAggregate_OneRowPerPositivePricedPair(t *testing.T) {
	tb := aggregateFixture(t)

	require.Equal(t, 3, tb.Len())
	assert.Equal(t, AggregateSchema, tb.Columns)

	rows := rowByKey(t, tb)
	assert.Contains(t, rows, [2]int64{1, 10})
	assert.Contains(t, rows, [2]int64{1, 11})
	assert.Contains(t, rows, [2]int64{2, 20})
	assert.NotContains(t, rows, [2]int64{2, 21}, "zero purchase price must be filtered")
}

func TestAggregate_SumsWithinGroup(t *testing.T) {
	tb := aggregateFixture(t)
	r := rowByKey(t, tb)[[2]int64{1, 10}]

	assert.Equal(t, int64(30), r[tb.Index(ColTotalPurchaseQuantity)])
	assert.InDelta(t, 150.0, r[tb.Index(ColTotalPurchaseDollars)], 1e-9)
	assert.InDelta(t, 9.99, r[tb.Index(ColActualPrice)], 1e-9)
	assert.InDelta(t, 750.0, r[tb.Index(ColVolume)], 1e-9)

	assert.InDelta(t, 30.0, r[tb.Index(ColTotalSalesQuantity)], 1e-9)
	assert.InDelta(t, 300.0, r[tb.Index(ColTotalSalesDollars)], 1e-9)
	assert.InDelta(t, 19.98, r[tb.Index(ColTotalSalesPrice)], 1e-9, "sales price is summed")
	assert.InDelta(t, 1.75, r[tb.Index(ColTotalExciseTax)], 1e-9)
}

func TestAggregate_LeftJoinLeavesMissingSales(t *testing.T) {
	tb := aggregateFixture(t)
	rows := rowByKey(t, tb)

	noSales := rows[[2]int64{1, 11}]
	for _, c := range []string{ColTotalSalesQuantity, ColTotalSalesDollars, ColTotalSalesPrice, ColTotalExciseTax} {
		assert.Nil(t, noSales[tb.Index(c)], c)
	}
	assert.Nil(t, rows[[2]int64{2, 20}][tb.Index(ColFreightCost)], "vendor 2 has no invoices")
}

func TestAggregate_NullSourceValuesDecode(t *testing.T) {
	s := fixtureStore(t)
	ctx := context.Background()
	require.NoError(t, s.Exec(ctx, `INSERT INTO purchase_prices VALUES (30, 'Unpriced', NULL, '750')`))
	require.NoError(t, s.Exec(ctx, `INSERT INTO purchases VALUES (4, 'GAMMA WINES', 30, 'Unpriced', 2.0, 3, NULL)`))

	res := Aggregate(ctx, s, DefaultRelations())
	require.NoError(t, res.Err())
	tb, ok := res.Table()
	require.True(t, ok)
	require.Equal(t, 4, tb.Len())

	r := rowByKey(t, tb)[[2]int64{4, 30}]
	require.NotNil(t, r)
	assert.Nil(t, r[tb.Index(ColActualPrice)])
	assert.Nil(t, r[tb.Index(ColTotalPurchaseDollars)])
	assert.Equal(t, int64(3), r[tb.Index(ColTotalPurchaseQuantity)])

	out, err := Clean(tb)
	require.NoError(t, err)
	c := rowByKey(t, out)[[2]int64{4, 30}]
	assert.Equal(t, 0.0, c[out.Index(ColActualPrice)])
	assert.Equal(t, 0.0, c[out.Index(ColTotalPurchaseDollars)])
	assert.Equal(t, 0.0, c[out.Index(ColGrossProfit)])
	assert.Equal(t, 0.0, c[out.Index(ColStockTurnover)])
	assert.True(t, math.IsNaN(c[out.Index(ColSalesPurchaseRatio)].(float64)))
}

func TestAggregate_FreightBroadcastPerVendor(t *testing.T) {
	tb := aggregateFixture(t)
	rows := rowByKey(t, tb)
	j := tb.Index(ColFreightCost)

	assert.InDelta(t, 15.5, rows[[2]int64{1, 10}][j], 1e-9)
	assert.Equal(t, rows[[2]int64{1, 10}][j], rows[[2]int64{1, 11}][j])
}

func TestAggregate_OrderedByPurchaseDollarsDesc(t *testing.T) {
	tb := aggregateFixture(t)
	j := tb.Index(ColTotalPurchaseDollars)

	for i := 1; i < tb.Len(); i++ {
		assert.GreaterOrEqual(t, tb.Rows[i-1][j].(float64), tb.Rows[i][j].(float64))
	}
	assert.Equal(t, int64(20), tb.Rows[0][tb.Index(ColBrand)])
}

func TestAggregate_QueryFailureIsResult(t *testing.T) {
	rels := DefaultRelations()
	rels.Sales = "no_such_table"

	res := Aggregate(context.Background(), fixtureStore(t), rels)

	_, ok := res.Table()
	require.False(t, ok)
	var qe *QueryError
	require.True(t, errors.As(res.Err(), &qe))
	assert.Equal(t, "query", qe.Stage)
}

func TestAggregate_EmptyRelationName(t *testing.T) {
	rels := DefaultRelations()
	rels.Invoices = " "

	res := Aggregate(context.Background(), fixtureStore(t), rels)

	var qe *QueryError
	require.True(t, errors.As(res.Err(), &qe))
	assert.Equal(t, "build", qe.Stage)
}

type stubQuerier struct {
	rows storage.Rows
	err  error
}

func (s stubQuerier) Query(context.Context, string) (storage.Rows, error) { return s.rows, s.err }

func TestAggregate_DecodeFailures(t *testing.T) {
	names := make([]string, len(AggregateSchema))
	for i, c := range AggregateSchema {
		names[i] = c.Name
	}
	good := []any{int64(1), "A", int64(2), "d", 1.0, 2.0, "750", int64(3), 4.0, nil, nil, nil, nil, nil}

	cases := []struct {
		name string
		rows storage.Rows
	}{
		{"wrong column count", storage.Rows{Columns: names[:3], Values: nil}},
		{"wrong column name", storage.Rows{Columns: append([]string{"Vendor"}, names[1:]...), Values: nil}},
		{"uncoercible cell", storage.Rows{Columns: names, Values: [][]any{
			append([]any{"not-a-number"}, good[1:]...),
		}}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			res := Aggregate(context.Background(), stubQuerier{rows: tc.rows}, DefaultRelations())
			var qe *QueryError
			require.True(t, errors.As(res.Err(), &qe), "err = %v", res.Err())
			assert.Equal(t, "decode", qe.Stage)
		})
	}

	t.Run("case-folded names accepted", func(t *testing.T) {
		lower := make([]string, len(names))
		for i, n := range names {
			lower[i] = strings.ToLower(n)
		}
		res := Aggregate(context.Background(), stubQuerier{rows: storage.Rows{Columns: lower, Values: [][]any{good}}}, DefaultRelations())
		require.NoError(t, res.Err())
		tb, ok := res.Table()
		require.True(t, ok)
		assert.Equal(t, 1, tb.Len())
	})
}

func TestFailed_NilCause(t *testing.T) {
	res := Failed(nil)
	assert.Error(t, res.Err())
	_, ok := res.Table()
	assert.False(t, ok)
}

func TestBuildQuery_Shape(t *testing.T) {
	rels := DefaultRelations()
	rels.Sales = "staging.sales"

	sql, err := BuildQuery(rels)
	require.NoError(t, err)

	for _, want := range []string{
		"WITH FreightSummary AS (",
		"PurchaseSummary AS (",
		"SalesSummary AS (",
		`FROM "staging"."sales"`,
		`WHERE p."PurchasePrice" > 0`,
		`pp."Price" AS "ActualPrice"`,
		`SUM("SalesPrice") AS "TotalSalesPrice"`,
		`LEFT JOIN FreightSummary fs`,
		`ORDER BY ps."TotalPurchaseDollars" DESC, ps."VendorNumber", ps."Brand"`,
	} {
		assert.Contains(t, sql, want)
	}
}
