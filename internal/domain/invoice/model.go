package invoice

import (
	"time"

	"github.com/samber/lo"
	"github.com/shopspring/decimal"

	"github.com/fakturlab/faktur/internal/types"
)

// Invoice represents the invoice domain model. It is the root aggregate
// of the application; exactly one instance exists per session.
type Invoice struct {
	InvoiceNumber string              `json:"invoiceNumber"`
	Date          time.Time           `json:"date"`
	DueDate       time.Time           `json:"dueDate"`
	SenderDetails SenderDetails       `json:"senderDetails"`
	ClientDetails ClientDetails       `json:"clientDetails"`
	Items         []LineItem          `json:"items"`
	TaxRate       decimal.Decimal     `json:"taxRate"`
	Discount      decimal.Decimal     `json:"discount"`
	Status        types.InvoiceStatus `json:"status"`
	Currency      string              `json:"currency"`
}

// SenderDetails holds the issuing party. Logo is a base64 data URI or
// the empty string; it is never nil-like.
type SenderDetails struct {
	Name    string `json:"name"`
	Address string `json:"address"`
	Logo    string `json:"logo"`
}

// ClientDetails holds the billed party.
type ClientDetails struct {
	Name    string `json:"name"`
	Address string `json:"address"`
	Email   string `json:"email"`
}

// Validate checks the structural invariants of the invoice. Field level
// input validation (email syntax, required strings) belongs to the form
// session; this guards what must hold for any committed invoice.
func (i *Invoice) Validate() error {
	if i.InvoiceNumber == "" {
		return NewValidationError("invoiceNumber", "must not be empty")
	}

	if i.Date.IsZero() {
		return NewValidationError("date", "must be set")
	}

	if i.DueDate.IsZero() {
		return NewValidationError("dueDate", "must be set")
	}

	if len(i.Items) == 0 {
		return NewValidationError("items", "must contain at least one item")
	}

	if i.TaxRate.IsNegative() || i.TaxRate.GreaterThan(decimal.NewFromInt(100)) {
		return NewValidationError("taxRate", "must be between 0 and 100")
	}

	if i.Discount.IsNegative() {
		return NewValidationError("discount", "must be non negative")
	}

	if err := i.Status.Validate(); err != nil {
		return err
	}

	for _, item := range i.Items {
		if err := item.Validate(); err != nil {
			return err
		}
	}

	return nil
}

// Clone returns a deep copy of the invoice. Mutating the copy never
// affects the original.
func (i *Invoice) Clone() *Invoice {
	clone := *i
	clone.Items = lo.Map(i.Items, func(item LineItem, _ int) LineItem {
		return item
	})
	return &clone
}
