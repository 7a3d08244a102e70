package invoice

import (
	"github.com/shopspring/decimal"
)

// Totals holds the derived financial summary of an invoice. All values
// are plain numbers; formatting is a presentation concern.
type Totals struct {
	Subtotal   decimal.Decimal `json:"subtotal"`
	TaxAmount  decimal.Decimal `json:"taxAmount"`
	GrandTotal decimal.Decimal `json:"grandTotal"`
}

var oneHundred = decimal.NewFromInt(100)

// ComputeTotals derives subtotal, tax amount and grand total from the
// invoice alone. The grand total is not floored at zero: a discount
// larger than subtotal plus tax yields a negative total.
func ComputeTotals(i *Invoice) Totals {
	subtotal := decimal.Zero
	for _, item := range i.Items {
		subtotal = subtotal.Add(item.Subtotal())
	}

	taxAmount := subtotal.Mul(i.TaxRate).Div(oneHundred)

	return Totals{
		Subtotal:   subtotal,
		TaxAmount:  taxAmount,
		GrandTotal: subtotal.Add(taxAmount).Sub(i.Discount),
	}
}
