package invoice

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestComputeTotals(t *testing.T) {
	tests := []struct {
		name           string
		items          []LineItem
		taxRate        decimal.Decimal
		discount       decimal.Decimal
		wantSubtotal   string
		wantTaxAmount  string
		wantGrandTotal string
	}{
		{
			name: "default seed item, no tax, no discount",
			items: []LineItem{
				{ID: "item-1", Description: "Jasa Pembuatan Website", Quantity: decimal.NewFromInt(1), UnitPrice: decimal.NewFromInt(1500000)},
			},
			taxRate:        decimal.Zero,
			discount:       decimal.Zero,
			wantSubtotal:   "1500000",
			wantTaxAmount:  "0",
			wantGrandTotal: "1500000",
		},
		{
			name: "two items with tax and discount",
			items: []LineItem{
				{ID: "a", Description: "one", Quantity: decimal.NewFromInt(2), UnitPrice: decimal.NewFromInt(10000)},
				{ID: "b", Description: "two", Quantity: decimal.NewFromInt(3), UnitPrice: decimal.NewFromInt(20000)},
			},
			taxRate:        decimal.NewFromInt(10),
			discount:       decimal.NewFromInt(5000),
			wantSubtotal:   "80000",
			wantTaxAmount:  "8000",
			wantGrandTotal: "83000",
		},
		{
			name: "discount exceeding subtotal plus tax goes negative",
			items: []LineItem{
				{ID: "a", Description: "one", Quantity: decimal.NewFromInt(1), UnitPrice: decimal.NewFromInt(30000)},
			},
			taxRate:        decimal.Zero,
			discount:       decimal.NewFromInt(50000),
			wantSubtotal:   "30000",
			wantTaxAmount:  "0",
			wantGrandTotal: "-20000",
		},
		{
			name: "fractional tax rate",
			items: []LineItem{
				{ID: "a", Description: "one", Quantity: decimal.NewFromInt(1), UnitPrice: decimal.NewFromInt(1000)},
			},
			taxRate:        decimal.RequireFromString("2.5"),
			discount:       decimal.Zero,
			wantSubtotal:   "1000",
			wantTaxAmount:  "25",
			wantGrandTotal: "1025",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			inv := &Invoice{
				Items:    tt.items,
				TaxRate:  tt.taxRate,
				Discount: tt.discount,
			}

			totals := ComputeTotals(inv)

			assert.True(t, totals.Subtotal.Equal(decimal.RequireFromString(tt.wantSubtotal)),
				"subtotal: got %s", totals.Subtotal)
			assert.True(t, totals.TaxAmount.Equal(decimal.RequireFromString(tt.wantTaxAmount)),
				"tax amount: got %s", totals.TaxAmount)
			assert.True(t, totals.GrandTotal.Equal(decimal.RequireFromString(tt.wantGrandTotal)),
				"grand total: got %s", totals.GrandTotal)
		})
	}
}

func TestComputeTotalsIsDerivable(t *testing.T) {
	// identical inputs always derive identical totals, there is no
	// hidden accumulator
	inv := Default(time.Now(), Defaults{Currency: "IDR", SenderName: "x"})

	first := ComputeTotals(inv)
	second := ComputeTotals(inv)

	assert.True(t, first.Subtotal.Equal(second.Subtotal))
	assert.True(t, first.TaxAmount.Equal(second.TaxAmount))
	assert.True(t, first.GrandTotal.Equal(second.GrandTotal))
	assert.True(t, first.GrandTotal.Equal(first.Subtotal.Add(first.TaxAmount).Sub(inv.Discount)))
}
