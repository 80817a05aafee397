package summary

import (
	"fmt"
	"strings"

	"vendorsummary/internal/ddl"
)

// Relations names the four source tables read by the aggregation. Names may
// be schema-qualified ("public.sales").
type Relations struct {
	Invoices       string
	Purchases      string
	PurchasePrices string
	Sales          string
}

// DefaultRelations returns the table names produced by loading the raw CSV
// exports with the standalone loader.
func DefaultRelations() Relations {
	return Relations{
		Invoices:       "vendor_invoice",
		Purchases:      "purchases",
		PurchasePrices: "purchase_prices",
		Sales:          "sales",
	}
}

func (r Relations) validate() error {
	var missing []string
	if strings.TrimSpace(r.Invoices) == "" {
		missing = append(missing, "invoices")
	}
	if strings.TrimSpace(r.Purchases) == "" {
		missing = append(missing, "purchases")
	}
	if strings.TrimSpace(r.PurchasePrices) == "" {
		missing = append(missing, "purchase_prices")
	}
	if strings.TrimSpace(r.Sales) == "" {
		missing = append(missing, "sales")
	}
	if len(missing) > 0 {
		return fmt.Errorf("summary: relation names missing: %s", strings.Join(missing, ", "))
	}
	return nil
}

// q quotes one identifier; rel quotes a possibly qualified relation name.
func q(ident string) string { return ddl.DoubleQuote(ident) }
func rel(name string) string { return ddl.QuoteFQN(name, ddl.DoubleQuote) }

// freightCTE totals invoice freight per vendor.
func freightCTE(r Relations) string {
	return fmt.Sprintf(`FreightSummary AS (
    SELECT
        %[1]s,
        SUM(%[2]s) AS %[3]s
    FROM %[4]s
    GROUP BY %[1]s
)`, q("VendorNumber"), q("Freight"), q(ColFreightCost), rel(r.Invoices))
}

// purchaseCTE totals positive-priced purchases per vendor, brand and price
// reference row.
func purchaseCTE(r Relations) string {
	groupBy := []string{
		"p." + q("VendorNumber"),
		"p." + q("VendorName"),
		"p." + q("Brand"),
		"p." + q("Description"),
		"p." + q("PurchasePrice"),
		"pp." + q("Price"),
		"pp." + q("Volume"),
	}
	return fmt.Sprintf(`PurchaseSummary AS (
    SELECT
        p.%[1]s,
        p.%[2]s,
        p.%[3]s,
        p.%[4]s,
        p.%[5]s,
        pp.%[6]s AS %[7]s,
        pp.%[8]s,
        SUM(p.%[9]s) AS %[10]s,
        SUM(p.%[11]s) AS %[12]s
    FROM %[13]s p
    JOIN %[14]s pp
        ON p.%[3]s = pp.%[3]s
    WHERE p.%[5]s > 0
    GROUP BY
        %[15]s
)`,
		q(ColVendorNumber), q(ColVendorName), q(ColBrand), q(ColDescription), q(ColPurchasePrice),
		q("Price"), q(ColActualPrice), q(ColVolume),
		q("Quantity"), q(ColTotalPurchaseQuantity),
		q("Dollars"), q(ColTotalPurchaseDollars),
		rel(r.Purchases), rel(r.PurchasePrices),
		strings.Join(groupBy, ", "),
	)
}

// salesCTE totals sales per vendor and brand. SalesPrice is summed, not
// averaged.
func salesCTE(r Relations) string {
	return fmt.Sprintf(`SalesSummary AS (
    SELECT
        %[1]s,
        %[2]s,
        SUM(%[3]s) AS %[4]s,
        SUM(%[5]s) AS %[6]s,
        SUM(%[7]s) AS %[8]s,
        SUM(%[9]s) AS %[10]s
    FROM %[11]s
    GROUP BY %[1]s, %[2]s
)`,
		q("VendorNo"), q("Brand"),
		q("SalesQuantity"), q(ColTotalSalesQuantity),
		q("SalesDollars"), q(ColTotalSalesDollars),
		q("SalesPrice"), q(ColTotalSalesPrice),
		q("ExciseTax"), q(ColTotalExciseTax),
		rel(r.Sales),
	)
}

// BuildQuery renders the aggregation: purchases left-joined to sales on
// (vendor, brand) and to freight on vendor alone, ordered by purchase dollars
// descending with vendor and brand as tie-breakers. The select list follows
// AggregateSchema.
func BuildQuery(r Relations) (string, error) {
	if err := r.validate(); err != nil {
		return "", err
	}

	sel := make([]string, 0, len(AggregateSchema))
	for _, c := range AggregateSchema {
		switch c.Name {
		case ColTotalSalesQuantity, ColTotalSalesDollars, ColTotalSalesPrice, ColTotalExciseTax:
			sel = append(sel, "ss."+q(c.Name))
		case ColFreightCost:
			sel = append(sel, "fs."+q(c.Name))
		default:
			sel = append(sel, "ps."+q(c.Name))
		}
	}

	var sb strings.Builder
	sb.WriteString("WITH ")
	sb.WriteString(freightCTE(r))
	sb.WriteString(",\n\n")
	sb.WriteString(purchaseCTE(r))
	sb.WriteString(",\n\n")
	sb.WriteString(salesCTE(r))
	fmt.Fprintf(&sb, `

SELECT
    %s
FROM PurchaseSummary ps
LEFT JOIN SalesSummary ss
    ON ps.%[2]s = ss.%[3]s
    AND ps.%[4]s = ss.%[4]s
LEFT JOIN FreightSummary fs
    ON ps.%[2]s = fs.%[2]s
ORDER BY ps.%[5]s DESC, ps.%[2]s, ps.%[4]s`,
		strings.Join(sel, ",\n    "),
		q(ColVendorNumber), q("VendorNo"), q(ColBrand), q(ColTotalPurchaseDollars),
	)
	return sb.String(), nil
}
