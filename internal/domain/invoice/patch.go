package invoice

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/fakturlab/faktur/internal/types"
)

// Partial update structs. Every mutation of the document model is a
// merge of one of these into the current value: nil fields are left
// untouched, set fields replace. An all-nil patch is a no-op.

// SenderPatch is a partial update of the sender details.
type SenderPatch struct {
	Name    *string
	Address *string
	Logo    *string
}

func (p SenderPatch) Apply(s SenderDetails) SenderDetails {
	if p.Name != nil {
		s.Name = *p.Name
	}
	if p.Address != nil {
		s.Address = *p.Address
	}
	if p.Logo != nil {
		s.Logo = *p.Logo
	}
	return s
}

// ClientPatch is a partial update of the client details.
type ClientPatch struct {
	Name    *string
	Address *string
	Email   *string
}

func (p ClientPatch) Apply(c ClientDetails) ClientDetails {
	if p.Name != nil {
		c.Name = *p.Name
	}
	if p.Address != nil {
		c.Address = *p.Address
	}
	if p.Email != nil {
		c.Email = *p.Email
	}
	return c
}

// MetaPatch is a partial update of the invoice header fields.
type MetaPatch struct {
	InvoiceNumber *string
	Date          *time.Time
	DueDate       *time.Time
	Status        *types.InvoiceStatus
}

func (p MetaPatch) Apply(i *Invoice) {
	if p.InvoiceNumber != nil {
		i.InvoiceNumber = *p.InvoiceNumber
	}
	if p.Date != nil {
		i.Date = *p.Date
	}
	if p.DueDate != nil {
		i.DueDate = *p.DueDate
	}
	if p.Status != nil {
		i.Status = *p.Status
	}
}

// LineItemPatch is a partial update of one line item. The item id is
// identity, never patched.
type LineItemPatch struct {
	Description *string
	Quantity    *decimal.Decimal
	UnitPrice   *decimal.Decimal
}

func (p LineItemPatch) Apply(l LineItem) LineItem {
	if p.Description != nil {
		l.Description = *p.Description
	}
	if p.Quantity != nil {
		l.Quantity = *p.Quantity
	}
	if p.UnitPrice != nil {
		l.UnitPrice = *p.UnitPrice
	}
	return l
}
