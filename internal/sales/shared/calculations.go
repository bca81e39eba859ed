// Package shared holds document arithmetic shared by quotations and orders.
package shared

import "github.com/shopspring/decimal"

var hundred = decimal.NewFromInt(100)

// Line is the minimum a document line exposes for totalling.
type Line interface {
	UnitAmount() decimal.Decimal
	Qty() int
	GSTPercent() decimal.Decimal
}

// Totals is the document-level roll-up.
type Totals struct {
	Subtotal decimal.Decimal `json:"subtotal"`
	Tax      decimal.Decimal `json:"tax"`
	Total    decimal.Decimal `json:"total"`
}

// LineTotal returns unit price × quantity rounded to cents.
func LineTotal(unitPrice decimal.Decimal, quantity int) decimal.Decimal {
	return unitPrice.Mul(decimal.NewFromInt(int64(quantity))).Round(2)
}

// LineGST is the tax shown against a single line using that line's own rate.
// Document totals do not use it; they apply one flat rate in ComputeTotals.
func LineGST[L Line](line L) decimal.Decimal {
	return LineTotal(line.UnitAmount(), line.Qty()).Mul(line.GSTPercent()).Div(hundred).Round(2)
}

// ComputeTotals sums line totals and applies a single document tax rate.
// Only line totals are rounded. Shipping and document-level discounts are not part of the total.
func ComputeTotals[L Line](lines []L, taxRate decimal.Decimal) Totals {
	subtotal := decimal.Zero
	for _, line := range lines {
		subtotal = subtotal.Add(LineTotal(line.UnitAmount(), line.Qty()))
	}
	tax := subtotal.Mul(taxRate).Div(hundred)
	return Totals{
		Subtotal: subtotal,
		Tax:      tax,
		Total:    subtotal.Add(tax),
	}
}
