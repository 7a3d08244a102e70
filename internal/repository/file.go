package repository

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"time"

	"github.com/shopspring/decimal"

	"github.com/fakturlab/faktur/internal/domain/invoice"
	ierr "github.com/fakturlab/faktur/internal/errors"
	"github.com/fakturlab/faktur/internal/logger"
	"github.com/fakturlab/faktur/internal/types"
)

// fileRepository stores the invoice as one JSON document at a fixed
// path, the local analogue of a single key-value entry.
type fileRepository struct {
	path     string
	defaults invoice.Defaults
	now      func() time.Time
	log      *logger.Logger
}

// NewFileRepository creates an InvoiceRepository backed by a single
// JSON file.
func NewFileRepository(path string, defaults invoice.Defaults, log *logger.Logger) InvoiceRepository {
	return &fileRepository{
		path:     path,
		defaults: defaults,
		now:      time.Now,
		log:      log,
	}
}

// storedInvoice is the wire form of the invoice. Dates are not natively
// representable in JSON, so they are written as RFC 3339 text and
// parsed back on read.
type storedInvoice struct {
	InvoiceNumber string                `json:"invoiceNumber"`
	Date          string                `json:"date"`
	DueDate       string                `json:"dueDate"`
	SenderDetails invoice.SenderDetails `json:"senderDetails"`
	ClientDetails invoice.ClientDetails `json:"clientDetails"`
	Items         []invoice.LineItem    `json:"items"`
	TaxRate       decimal.Decimal       `json:"taxRate"`
	Discount      decimal.Decimal       `json:"discount"`
	Status        types.InvoiceStatus   `json:"status"`
	Currency      string                `json:"currency"`
}

func toStored(inv *invoice.Invoice) storedInvoice {
	return storedInvoice{
		InvoiceNumber: inv.InvoiceNumber,
		Date:          inv.Date.Format(time.RFC3339Nano),
		DueDate:       inv.DueDate.Format(time.RFC3339Nano),
		SenderDetails: inv.SenderDetails,
		ClientDetails: inv.ClientDetails,
		Items:         inv.Items,
		TaxRate:       inv.TaxRate,
		Discount:      inv.Discount,
		Status:        inv.Status,
		Currency:      inv.Currency,
	}
}

func (s storedInvoice) toDomain() (*invoice.Invoice, error) {
	date, err := time.Parse(time.RFC3339Nano, s.Date)
	if err != nil {
		return nil, err
	}

	dueDate, err := time.Parse(time.RFC3339Nano, s.DueDate)
	if err != nil {
		return nil, err
	}

	return &invoice.Invoice{
		InvoiceNumber: s.InvoiceNumber,
		Date:          date,
		DueDate:       dueDate,
		SenderDetails: s.SenderDetails,
		ClientDetails: s.ClientDetails,
		Items:         s.Items,
		TaxRate:       s.TaxRate,
		Discount:      s.Discount,
		Status:        s.Status,
		Currency:      s.Currency,
	}, nil
}

// Load restores the persisted invoice. Absent, unreadable or invalid
// state falls back to the default invoice without surfacing an error.
func (r *fileRepository) Load(_ context.Context) (*invoice.Invoice, error) {
	data, err := os.ReadFile(r.path)
	if err != nil {
		if !os.IsNotExist(err) {
			r.log.Warnf("failed to read invoice store, using defaults: %v", err)
		}
		return invoice.Default(r.now(), r.defaults), nil
	}

	var stored storedInvoice
	if err := json.Unmarshal(data, &stored); err != nil {
		r.log.Warnf("corrupt invoice store, using defaults: %v", err)
		return invoice.Default(r.now(), r.defaults), nil
	}

	inv, err := stored.toDomain()
	if err != nil {
		r.log.Warnf("unparseable dates in invoice store, using defaults: %v", err)
		return invoice.Default(r.now(), r.defaults), nil
	}

	if err := inv.Validate(); err != nil {
		r.log.Warnf("invalid invoice in store, using defaults: %v", err)
		return invoice.Default(r.now(), r.defaults), nil
	}

	return inv, nil
}

// Save writes the whole invoice. The write is atomic: a crash mid-write
// leaves the previous document intact.
func (r *fileRepository) Save(_ context.Context, inv *invoice.Invoice) error {
	data, err := json.MarshalIndent(toStored(inv), "", "  ")
	if err != nil {
		return ierr.WithError(err).
			WithHint("Failed to serialize the invoice").
			Mark(ierr.ErrStorage)
	}

	if err := os.MkdirAll(filepath.Dir(r.path), 0o755); err != nil {
		return ierr.WithError(err).
			WithHint("Failed to create the storage directory").
			Mark(ierr.ErrStorage)
	}

	tmp := r.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return ierr.WithError(err).
			WithHint("Failed to write the invoice").
			Mark(ierr.ErrStorage)
	}

	if err := os.Rename(tmp, r.path); err != nil {
		return ierr.WithError(err).
			WithHint("Failed to write the invoice").
			Mark(ierr.ErrStorage)
	}

	return nil
}

// Clear removes the persisted document.
func (r *fileRepository) Clear(_ context.Context) error {
	if err := os.Remove(r.path); err != nil && !os.IsNotExist(err) {
		return ierr.WithError(err).
			WithHint("Failed to clear the invoice store").
			Mark(ierr.ErrStorage)
	}
	return nil
}
