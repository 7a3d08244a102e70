package invoice

import (
	"github.com/shopspring/decimal"

	"github.com/fakturlab/faktur/internal/types"
)

// LineItem represents a single billable row of the invoice.
type LineItem struct {
	// ID is an opaque identity token for list operations, not business data
	ID          string          `json:"id"`
	Description string          `json:"description"`
	Quantity    decimal.Decimal `json:"quantity"`
	UnitPrice   decimal.Decimal `json:"unitPrice"`
}

// NewLineItem returns a fresh line item with a generated id, empty
// description, quantity 1 and price 0.
func NewLineItem() LineItem {
	return LineItem{
		ID:        types.GenerateUUIDWithPrefix("item"),
		Quantity:  decimal.NewFromInt(1),
		UnitPrice: decimal.Zero,
	}
}

// Subtotal returns quantity times unit price. It is derived and never
// stored.
func (l LineItem) Subtotal() decimal.Decimal {
	return l.Quantity.Mul(l.UnitPrice)
}

// Validate validates the invoice line item
func (l LineItem) Validate() error {
	if l.ID == "" {
		return NewValidationError("items.id", "must not be empty")
	}

	if l.Quantity.LessThan(decimal.NewFromInt(1)) {
		return NewValidationError("items.quantity", "must be at least 1")
	}

	if l.UnitPrice.IsNegative() {
		return NewValidationError("items.unitPrice", "must be non negative")
	}

	return nil
}
