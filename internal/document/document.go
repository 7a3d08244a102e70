package document

import (
	"context"
	"encoding/json"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/shopspring/decimal"

	"github.com/fakturlab/faktur/internal/domain/invoice"
	ierr "github.com/fakturlab/faktur/internal/errors"
	"github.com/fakturlab/faktur/internal/logger"
	"github.com/fakturlab/faktur/internal/pubsub"
	"github.com/fakturlab/faktur/internal/repository"
)

// TopicInvoiceUpdated carries one event per committed mutation.
const TopicInvoiceUpdated = "invoice.updated"

// ChangeEvent is the payload published after every committed mutation.
type ChangeEvent struct {
	Op            string `json:"op"`
	InvoiceNumber string `json:"invoiceNumber"`
}

// Model holds the authoritative invoice value and exposes narrow
// mutation operations. Every successful mutation is written through to
// the repository and announced on the change topic, so the persisted
// copy and any renderer view never drift for longer than one edit.
//
// The model is a trusted-input sink: callers (the form session)
// validate monetary bounds before calling it. Exactly one session
// operates per model, so no internal locking is employed.
type Model struct {
	inv       *invoice.Invoice
	repo      repository.InvoiceRepository
	publisher pubsub.Publisher
	log       *logger.Logger
}

// NewModel hydrates a model from the repository.
func NewModel(ctx context.Context, repo repository.InvoiceRepository, publisher pubsub.Publisher, log *logger.Logger) (*Model, error) {
	inv, err := repo.Load(ctx)
	if err != nil {
		return nil, err
	}

	return &Model{
		inv:       inv,
		repo:      repo,
		publisher: publisher,
		log:       log,
	}, nil
}

// Snapshot returns a deep copy of the current invoice. Consumers may
// not mutate the model through it.
func (m *Model) Snapshot() *invoice.Invoice {
	return m.inv.Clone()
}

// UpdateSender shallow-merges the patch into the sender details.
func (m *Model) UpdateSender(ctx context.Context, patch invoice.SenderPatch) error {
	m.inv.SenderDetails = patch.Apply(m.inv.SenderDetails)
	return m.commit(ctx, "update_sender")
}

// UpdateClient shallow-merges the patch into the client details.
func (m *Model) UpdateClient(ctx context.Context, patch invoice.ClientPatch) error {
	m.inv.ClientDetails = patch.Apply(m.inv.ClientDetails)
	return m.commit(ctx, "update_client")
}

// UpdateMeta merges the patch into invoice number, dates and status.
func (m *Model) UpdateMeta(ctx context.Context, patch invoice.MetaPatch) error {
	patch.Apply(m.inv)
	return m.commit(ctx, "update_meta")
}

// SetTaxRate replaces the tax rate.
func (m *Model) SetTaxRate(ctx context.Context, rate decimal.Decimal) error {
	m.inv.TaxRate = rate
	return m.commit(ctx, "set_tax_rate")
}

// SetDiscount replaces the discount amount.
func (m *Model) SetDiscount(ctx context.Context, amount decimal.Decimal) error {
	m.inv.Discount = amount
	return m.commit(ctx, "set_discount")
}

// AddItem appends a fresh line item with a generated id, quantity 1 and
// price 0.
func (m *Model) AddItem(ctx context.Context) (invoice.LineItem, error) {
	item := invoice.NewLineItem()
	m.inv.Items = append(m.inv.Items, item)
	if err := m.commit(ctx, "add_item"); err != nil {
		return invoice.LineItem{}, err
	}
	return item, nil
}

// RemoveItem removes the item at index, preserving the order of the
// rest. Removing the last remaining item is a no-op: the item list
// never becomes empty.
func (m *Model) RemoveItem(ctx context.Context, index int) error {
	if len(m.inv.Items) <= 1 {
		m.log.Debugf("ignoring removal of the last line item")
		return nil
	}

	if index < 0 || index >= len(m.inv.Items) {
		return ierr.WithError(invoice.ErrItemIndexOutOfRange).
			WithHintf("No line item at position %d", index+1).
			Mark(ierr.ErrInvalidOperation)
	}

	m.inv.Items = append(m.inv.Items[:index], m.inv.Items[index+1:]...)
	return m.commit(ctx, "remove_item")
}

// UpdateItem merges the patch into the item at index.
func (m *Model) UpdateItem(ctx context.Context, index int, patch invoice.LineItemPatch) error {
	if index < 0 || index >= len(m.inv.Items) {
		return ierr.WithError(invoice.ErrItemIndexOutOfRange).
			WithHintf("No line item at position %d", index+1).
			Mark(ierr.ErrInvalidOperation)
	}

	m.inv.Items[index] = patch.Apply(m.inv.Items[index])
	return m.commit(ctx, "update_item")
}

// ReplaceItems replaces the whole item list. The item sub-editor owns
// array identity and ordering; the model stores what it is given, but
// never an empty list.
func (m *Model) ReplaceItems(ctx context.Context, items []invoice.LineItem) error {
	if len(items) == 0 {
		return ierr.NewError("item list must not be empty").
			WithHint("An invoice keeps at least one line item").
			Mark(ierr.ErrInvalidOperation)
	}

	m.inv.Items = items
	return m.commit(ctx, "replace_items")
}

// Reset discards the current invoice and persisted state, restoring the
// defaults. The caller is responsible for user confirmation.
func (m *Model) Reset(ctx context.Context, fresh *invoice.Invoice) error {
	if err := m.repo.Clear(ctx); err != nil {
		return err
	}

	m.inv = fresh
	return m.commit(ctx, "reset")
}

// commit persists the mutated invoice and announces the change. The
// write happens before the notification so subscribers always observe
// persisted state.
func (m *Model) commit(ctx context.Context, op string) error {
	if err := m.repo.Save(ctx, m.inv); err != nil {
		m.log.Errorf("failed to persist invoice after %s: %v", op, err)
		return err
	}

	m.publish(ctx, op)
	return nil
}

func (m *Model) publish(ctx context.Context, op string) {
	if m.publisher == nil {
		return
	}

	payload, err := json.Marshal(ChangeEvent{
		Op:            op,
		InvoiceNumber: m.inv.InvoiceNumber,
	})
	if err != nil {
		m.log.Errorf("failed to encode change event: %v", err)
		return
	}

	msg := message.NewMessage(watermill.NewUUID(), payload)
	if err := m.publisher.Publish(ctx, TopicInvoiceUpdated, msg); err != nil {
		m.log.Errorf("failed to publish change event: %v", err)
	}
}
