package testutil

import (
	"context"
	"time"

	"github.com/fakturlab/faktur/internal/domain/invoice"
	"github.com/fakturlab/faktur/internal/repository"
)

// InMemoryInvoiceStore implements repository.InvoiceRepository for
// tests. It mirrors the file repository's contract: Load never fails,
// yielding defaults when nothing is stored.
type InMemoryInvoiceStore struct {
	defaults  invoice.Defaults
	stored    *invoice.Invoice
	saveCount int
	saveErr   error
}

// NewInMemoryInvoiceStore creates a new in-memory invoice store
func NewInMemoryInvoiceStore(defaults invoice.Defaults) *InMemoryInvoiceStore {
	return &InMemoryInvoiceStore{defaults: defaults}
}

var _ repository.InvoiceRepository = (*InMemoryInvoiceStore)(nil)

func (s *InMemoryInvoiceStore) Load(_ context.Context) (*invoice.Invoice, error) {
	if s.stored == nil {
		return invoice.Default(time.Now(), s.defaults), nil
	}
	return s.stored.Clone(), nil
}

func (s *InMemoryInvoiceStore) Save(_ context.Context, inv *invoice.Invoice) error {
	if s.saveErr != nil {
		return s.saveErr
	}
	s.stored = inv.Clone()
	s.saveCount++
	return nil
}

func (s *InMemoryInvoiceStore) Clear(_ context.Context) error {
	s.stored = nil
	return nil
}

// SaveCount reports how many writes were committed.
func (s *InMemoryInvoiceStore) SaveCount() int {
	return s.saveCount
}

// Stored returns the last persisted invoice, nil when empty.
func (s *InMemoryInvoiceStore) Stored() *invoice.Invoice {
	return s.stored
}

// FailSavesWith makes subsequent saves return err.
func (s *InMemoryInvoiceStore) FailSavesWith(err error) {
	s.saveErr = err
}
