package invoice

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/fakturlab/faktur/internal/types"
)

// DefaultDuePeriod is the gap between issue date and due date on a
// fresh invoice.
const DefaultDuePeriod = 7 * 24 * time.Hour

// Defaults describes the values stamped onto a fresh invoice.
type Defaults struct {
	Currency      string
	SenderName    string
	SenderAddress string
}

// Default returns the invoice used when no persisted copy exists: one
// seed line item and a due date one week out.
func Default(now time.Time, d Defaults) *Invoice {
	seed := NewLineItem()
	seed.Description = "Jasa Pembuatan Website"
	seed.UnitPrice = decimal.NewFromInt(1500000)

	return &Invoice{
		InvoiceNumber: "INV-001",
		Date:          now,
		DueDate:       now.Add(DefaultDuePeriod),
		SenderDetails: SenderDetails{
			Name:    d.SenderName,
			Address: d.SenderAddress,
		},
		ClientDetails: ClientDetails{},
		Items:         []LineItem{seed},
		TaxRate:       decimal.Zero,
		Discount:      decimal.Zero,
		Status:        types.InvoiceStatusUnpaid,
		Currency:      d.Currency,
	}
}
