package repository

import (
	"context"

	"github.com/fakturlab/faktur/internal/domain/invoice"
)

// InvoiceRepository durably stores the single invoice document across
// sessions. Load never fails the caller: missing or corrupt state
// yields the default invoice.
type InvoiceRepository interface {
	// Load returns the persisted invoice, or the default invoice when
	// nothing usable is stored
	Load(ctx context.Context) (*invoice.Invoice, error)
	// Save writes the whole invoice under the fixed storage key
	Save(ctx context.Context, inv *invoice.Invoice) error
	// Clear removes the persisted state so the next Load yields defaults
	Clear(ctx context.Context) error
}
