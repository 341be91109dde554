// Package totals computes line and document amounts. Nothing is rounded
// here; rounding to the currency's minor unit is left to presentation.
package totals

import (
	"github.com/shopspring/decimal"

	"github.com/jesses-code-adventures/invoicer/internal/models"
)

var hundred = decimal.NewFromInt(100)

type Totals struct {
	Subtotal decimal.Decimal `json:"subtotal"`
	TaxTotal decimal.Decimal `json:"taxTotal"`
	Total    decimal.Decimal `json:"total"`
}

func rate(item models.LineItem) decimal.Decimal {
	if item.TaxRate == nil {
		return decimal.Zero
	}
	return *item.TaxRate
}

// LineNet is quantity times unit price.
func LineNet(item models.LineItem) decimal.Decimal {
	return item.Quantity.Mul(item.UnitPrice)
}

func LineTax(item models.LineItem) decimal.Decimal {
	return LineNet(item).Mul(rate(item)).Div(hundred)
}

// LineTotal is the net amount plus tax.
func LineTotal(item models.LineItem) decimal.Decimal {
	return LineNet(item).Add(LineTax(item))
}

// Compute sums the items. Negative quantities and prices are carried through
// unchanged.
func Compute(items []models.LineItem) Totals {
	t := Totals{Subtotal: decimal.Zero, TaxTotal: decimal.Zero}
	for _, item := range items {
		t.Subtotal = t.Subtotal.Add(LineNet(item))
		t.TaxTotal = t.TaxTotal.Add(LineTax(item))
	}
	t.Total = t.Subtotal.Add(t.TaxTotal)
	return t
}

// Apply stores the computed totals on doc.
func Apply(doc *models.Document) {
	t := Compute(doc.Items)
	doc.Subtotal = t.Subtotal
	doc.TaxTotal = t.TaxTotal
	doc.Total = t.Total
}
