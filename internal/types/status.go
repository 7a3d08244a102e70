package types

import (
	"github.com/samber/lo"

	ierr "github.com/fakturlab/faktur/internal/errors"
)

// InvoiceStatus represents the payment state of the invoice.
// The canonical schema is two-valued; a PARTIAL state seen in one form
// variant is intentionally not part of it.
type InvoiceStatus string

const (
	// InvoiceStatusUnpaid indicates the invoice has not been settled yet
	InvoiceStatusUnpaid InvoiceStatus = "UNPAID"
	// InvoiceStatusPaid indicates the invoice has been settled in full
	InvoiceStatusPaid InvoiceStatus = "PAID"
)

func (s InvoiceStatus) String() string {
	return string(s)
}

func (s InvoiceStatus) Validate() error {
	allowed := []InvoiceStatus{
		InvoiceStatusUnpaid,
		InvoiceStatusPaid,
	}
	if !lo.Contains(allowed, s) {
		return ierr.NewError("invalid invoice status").
			WithHint("Please provide a valid invoice status").
			WithReportableDetails(map[string]any{
				"allowed": allowed,
			}).
			Mark(ierr.ErrValidation)
	}
	return nil
}
