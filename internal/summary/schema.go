// Package summary builds the per-vendor, per-brand sales and purchasing
// summary: Aggregate runs the three-stage aggregation query against the
// source store, and Clean turns its result into the published table with
// derived profit, margin, turnover and ratio columns.
package summary

import "vendorsummary/internal/table"

// Column names of the summary table, in output order.
const (
	ColVendorNumber          = "VendorNumber"
	ColVendorName            = "VendorName"
	ColBrand                 = "Brand"
	ColDescription           = "Description"
	ColPurchasePrice         = "PurchasePrice"
	ColActualPrice           = "ActualPrice"
	ColVolume                = "Volume"
	ColTotalPurchaseQuantity = "TotalPurchaseQuantity"
	ColTotalPurchaseDollars  = "TotalPurchaseDollars"
	ColTotalSalesQuantity    = "TotalSalesQuantity"
	ColTotalSalesDollars     = "TotalSalesDollars"
	ColTotalSalesPrice       = "TotalSalesPrice"
	ColTotalExciseTax        = "TotalExciseTax"
	ColFreightCost           = "FreightCost"

	ColGrossProfit        = "GrossProfit"
	ColProfitMargin       = "ProfitMargin"
	ColStockTurnover      = "StockTurnover"
	ColSalesPurchaseRatio = "SalesPurchaseRatio"
)

// AggregateSchema is the declared schema of the aggregation result. Every
// numeric column is nullable: sales and freight come from LEFT JOINs, and
// source columns loaded from CSV may hold NULL. Clean fills them with zero.
// Volume is stored as text in some source databases and is parsed here.
var AggregateSchema = []table.Column{
	{Name: ColVendorNumber, Type: table.NullableInt},
	{Name: ColVendorName, Type: table.String},
	{Name: ColBrand, Type: table.NullableInt},
	{Name: ColDescription, Type: table.String},
	{Name: ColPurchasePrice, Type: table.NullableFloat},
	{Name: ColActualPrice, Type: table.NullableFloat},
	{Name: ColVolume, Type: table.NullableFloat},
	{Name: ColTotalPurchaseQuantity, Type: table.NullableInt},
	{Name: ColTotalPurchaseDollars, Type: table.NullableFloat},
	{Name: ColTotalSalesQuantity, Type: table.NullableFloat},
	{Name: ColTotalSalesDollars, Type: table.NullableFloat},
	{Name: ColTotalSalesPrice, Type: table.NullableFloat},
	{Name: ColTotalExciseTax, Type: table.NullableFloat},
	{Name: ColFreightCost, Type: table.NullableFloat},
}

// DerivedColumns are appended by Clean, in order.
var DerivedColumns = []table.Column{
	{Name: ColGrossProfit, Type: table.Float},
	{Name: ColProfitMargin, Type: table.Float},
	{Name: ColStockTurnover, Type: table.Float},
	{Name: ColSalesPurchaseRatio, Type: table.Float},
}
