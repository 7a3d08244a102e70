package service

import (
	"context"
	"reflect"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/samber/lo"
	"github.com/shopspring/decimal"

	"github.com/fakturlab/faktur/internal/document"
	"github.com/fakturlab/faktur/internal/domain/invoice"
	ierr "github.com/fakturlab/faktur/internal/errors"
	"github.com/fakturlab/faktur/internal/logger"
	"github.com/fakturlab/faktur/internal/types"
)

// Draft is the transient, continuously validated working copy of the
// invoice bound to user input. It mirrors the document model field by
// field; the json tags double as the validation error keys.
type Draft struct {
	InvoiceNumber string              `json:"invoiceNumber" validate:"required"`
	Date          time.Time           `json:"date" validate:"required"`
	DueDate       time.Time           `json:"dueDate" validate:"required"`
	SenderName    string              `json:"senderDetails.name" validate:"required"`
	SenderAddress string              `json:"senderDetails.address"`
	SenderLogo    string              `json:"senderDetails.logo"`
	ClientName    string              `json:"clientDetails.name" validate:"required"`
	ClientAddress string              `json:"clientDetails.address"`
	ClientEmail   string              `json:"clientDetails.email" validate:"omitempty,email"`
	Items         []DraftItem         `json:"items" validate:"min=1,dive"`
	TaxRate       decimal.Decimal     `json:"taxRate"`
	Discount      decimal.Decimal     `json:"discount"`
	Status        types.InvoiceStatus `json:"status"`
}

// DraftItem is one editable line item row.
type DraftItem struct {
	ID          string          `json:"id"`
	Description string          `json:"description" validate:"required"`
	Quantity    decimal.Decimal `json:"quantity"`
	UnitPrice   decimal.Decimal `json:"unitPrice"`
}

// Session keeps the draft eventually consistent with the document model
// on every field change. Validation failures are field-scoped: they
// block only the offending value, never unrelated fields.
type Session struct {
	model    *document.Model
	validate *validator.Validate
	log      *logger.Logger

	draft       Draft
	fieldErrors map[string]string
	logoGen     uint64
}

// NewSession initializes a session from the current document model.
func NewSession(model *document.Model, log *logger.Logger) *Session {
	validate := validator.New()
	validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	s := &Session{
		model:    model,
		validate: validate,
		log:      log,
	}
	s.reload()
	return s
}

// Draft returns a copy of the current draft.
func (s *Session) Draft() Draft {
	draft := s.draft
	draft.Items = append([]DraftItem(nil), s.draft.Items...)
	return draft
}

// FieldErrors returns the field-scoped validation messages for the
// current draft, keyed by field path.
func (s *Session) FieldErrors() map[string]string {
	out := make(map[string]string, len(s.fieldErrors))
	for k, v := range s.fieldErrors {
		out[k] = v
	}
	return out
}

// Totals derives the financial summary from the committed invoice.
func (s *Session) Totals() invoice.Totals {
	return invoice.ComputeTotals(s.model.Snapshot())
}

// Invoice returns a snapshot of the committed invoice.
func (s *Session) Invoice() *invoice.Invoice {
	return s.model.Snapshot()
}

// SetInvoiceNumber updates the draft and propagates a non-empty number.
func (s *Session) SetInvoiceNumber(ctx context.Context, number string) error {
	s.draft.InvoiceNumber = number
	s.revalidate()

	if number == "" {
		return nil
	}
	return s.model.UpdateMeta(ctx, invoice.MetaPatch{InvoiceNumber: &number})
}

// SetDate updates the issue date.
func (s *Session) SetDate(ctx context.Context, date time.Time) error {
	s.draft.Date = date
	s.revalidate()
	return s.model.UpdateMeta(ctx, invoice.MetaPatch{Date: &date})
}

// SetDueDate updates the due date. No ordering against the issue date
// is enforced.
func (s *Session) SetDueDate(ctx context.Context, dueDate time.Time) error {
	s.draft.DueDate = dueDate
	s.revalidate()
	return s.model.UpdateMeta(ctx, invoice.MetaPatch{DueDate: &dueDate})
}

// SetStatus updates the payment status; a value outside the canonical
// enum is held back in the draft and rejected.
func (s *Session) SetStatus(ctx context.Context, status types.InvoiceStatus) error {
	s.draft.Status = status
	s.revalidate()

	if err := status.Validate(); err != nil {
		return err
	}
	return s.model.UpdateMeta(ctx, invoice.MetaPatch{Status: &status})
}

// SetSenderName propagates immediately as a partial merge.
func (s *Session) SetSenderName(ctx context.Context, name string) error {
	s.draft.SenderName = name
	s.revalidate()
	return s.model.UpdateSender(ctx, invoice.SenderPatch{Name: &name})
}

func (s *Session) SetSenderAddress(ctx context.Context, address string) error {
	s.draft.SenderAddress = address
	s.revalidate()
	return s.model.UpdateSender(ctx, invoice.SenderPatch{Address: &address})
}

func (s *Session) SetClientName(ctx context.Context, name string) error {
	s.draft.ClientName = name
	s.revalidate()
	return s.model.UpdateClient(ctx, invoice.ClientPatch{Name: &name})
}

func (s *Session) SetClientAddress(ctx context.Context, address string) error {
	s.draft.ClientAddress = address
	s.revalidate()
	return s.model.UpdateClient(ctx, invoice.ClientPatch{Address: &address})
}

// SetClientEmail propagates the value even when the syntax check fails;
// the failure stays visible as a field-scoped message.
func (s *Session) SetClientEmail(ctx context.Context, email string) error {
	s.draft.ClientEmail = email
	s.revalidate()
	return s.model.UpdateClient(ctx, invoice.ClientPatch{Email: &email})
}

// SetTaxRate coerces raw input to a number before propagation. Input
// that fails coercion propagates as 0, never an error. A parsed value
// outside [0,100] is held back in the draft.
func (s *Session) SetTaxRate(ctx context.Context, raw string) error {
	rate, ok := coerceDecimal(raw)
	s.draft.TaxRate = rate
	s.revalidate()
	if !ok {
		s.fieldErrors["taxRate"] = "not a number, stored as 0"
	}

	if _, bad := s.fieldErrors["taxRate"]; bad && ok {
		return nil
	}
	return s.model.SetTaxRate(ctx, rate)
}

// SetDiscount coerces raw input like SetTaxRate; negative amounts are
// held back in the draft.
func (s *Session) SetDiscount(ctx context.Context, raw string) error {
	amount, ok := coerceDecimal(raw)
	s.draft.Discount = amount
	s.revalidate()
	if !ok {
		s.fieldErrors["discount"] = "not a number, stored as 0"
	}

	if _, bad := s.fieldErrors["discount"]; bad && ok {
		return nil
	}
	return s.model.SetDiscount(ctx, amount)
}

// AddItem appends a fresh line item through the model and reloads the
// draft rows.
func (s *Session) AddItem(ctx context.Context) error {
	if _, err := s.model.AddItem(ctx); err != nil {
		return err
	}
	s.reload()
	return nil
}

// RemoveItem removes the row at index. Removing the last remaining row
// is a no-op.
func (s *Session) RemoveItem(ctx context.Context, index int) error {
	if err := s.model.RemoveItem(ctx, index); err != nil {
		return err
	}
	s.reload()
	return nil
}

// UpdateItem edits the row at index from raw user input. Numeric fields
// are coerced with the 0 fallback; a quantity below 1 or a negative
// price stays in the draft only. Item changes propagate to the model as
// a full-array replace: the item editor owns array identity.
func (s *Session) UpdateItem(ctx context.Context, index int, description, quantity, unitPrice *string) error {
	if index < 0 || index >= len(s.draft.Items) {
		return s.model.UpdateItem(ctx, index, invoice.LineItemPatch{})
	}

	row := &s.draft.Items[index]
	coerceNotes := make(map[string]string)
	if description != nil {
		row.Description = *description
	}
	if quantity != nil {
		qty, ok := coerceDecimal(*quantity)
		row.Quantity = qty
		if !ok {
			coerceNotes[itemField(index, "quantity")] = "not a number"
		}
	}
	if unitPrice != nil {
		price, ok := coerceDecimal(*unitPrice)
		row.UnitPrice = price
		if !ok {
			coerceNotes[itemField(index, "unitPrice")] = "not a number"
		}
	}

	s.revalidate()
	for field, note := range coerceNotes {
		s.fieldErrors[field] = note
	}

	return s.model.ReplaceItems(ctx, s.itemsForModel())
}

// reload re-reads the draft from the committed invoice.
func (s *Session) reload() {
	inv := s.model.Snapshot()
	s.draft = Draft{
		InvoiceNumber: inv.InvoiceNumber,
		Date:          inv.Date,
		DueDate:       inv.DueDate,
		SenderName:    inv.SenderDetails.Name,
		SenderAddress: inv.SenderDetails.Address,
		SenderLogo:    inv.SenderDetails.Logo,
		ClientName:    inv.ClientDetails.Name,
		ClientAddress: inv.ClientDetails.Address,
		ClientEmail:   inv.ClientDetails.Email,
		TaxRate:       inv.TaxRate,
		Discount:      inv.Discount,
		Status:        inv.Status,
		Items: lo.Map(inv.Items, func(item invoice.LineItem, _ int) DraftItem {
			return DraftItem{
				ID:          item.ID,
				Description: item.Description,
				Quantity:    item.Quantity,
				UnitPrice:   item.UnitPrice,
			}
		}),
	}
	s.revalidate()
}

// itemsForModel converts the draft rows back to domain items. An
// out-of-bounds quantity or price keeps the last committed value for
// that field; the rest of the row still synchronizes.
func (s *Session) itemsForModel() []invoice.LineItem {
	committed := s.model.Snapshot().Items
	byID := lo.SliceToMap(committed, func(item invoice.LineItem) (string, invoice.LineItem) {
		return item.ID, item
	})

	return lo.Map(s.draft.Items, func(row DraftItem, i int) invoice.LineItem {
		item := invoice.LineItem{
			ID:          row.ID,
			Description: row.Description,
			Quantity:    row.Quantity,
			UnitPrice:   row.UnitPrice,
		}

		// hold back out-of-bounds numerics, keep the committed value
		if prev, ok := byID[row.ID]; ok {
			if _, bad := s.fieldErrors[itemField(i, "quantity")]; bad && row.Quantity.LessThan(decimal.NewFromInt(1)) {
				item.Quantity = prev.Quantity
			}
			if _, bad := s.fieldErrors[itemField(i, "unitPrice")]; bad && row.UnitPrice.IsNegative() {
				item.UnitPrice = prev.UnitPrice
			}
		}
		return item
	})
}

// revalidate re-checks the whole draft and rebuilds the field-scoped
// error map. It never blocks propagation of unrelated fields.
func (s *Session) revalidate() {
	s.fieldErrors = make(map[string]string)

	if err := s.validate.Struct(s.draft); err != nil {
		var validateErrs validator.ValidationErrors
		if ierr.As(err, &validateErrs) {
			for _, fe := range validateErrs {
				s.fieldErrors[strings.TrimPrefix(fe.Namespace(), "Draft.")] = messageFor(fe)
			}
		}
	}

	if err := s.draft.Status.Validate(); err != nil {
		s.fieldErrors["status"] = "must be UNPAID or PAID"
	}

	// decimal bounds are checked by hand; validator tags cannot range
	// check decimal.Decimal values
	if s.draft.TaxRate.IsNegative() || s.draft.TaxRate.GreaterThan(decimal.NewFromInt(100)) {
		s.fieldErrors["taxRate"] = "must be between 0 and 100"
	}
	if s.draft.Discount.IsNegative() {
		s.fieldErrors["discount"] = "must be non negative"
	}
	for i, row := range s.draft.Items {
		if row.Quantity.LessThan(decimal.NewFromInt(1)) {
			s.fieldErrors[itemField(i, "quantity")] = "must be at least 1"
		}
		if row.UnitPrice.IsNegative() {
			s.fieldErrors[itemField(i, "unitPrice")] = "must be non negative"
		}
	}
}

func messageFor(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "must not be empty"
	case "email":
		return "must be a valid email address"
	case "min":
		return "too few entries"
	default:
		return "invalid value"
	}
}

func itemField(index int, field string) string {
	return "items[" + strconv.Itoa(index) + "]." + field
}

// coerceDecimal parses raw numeric input. Empty or non-numeric input
// yields 0 and false.
func coerceDecimal(raw string) (decimal.Decimal, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return decimal.Zero, false
	}

	d, err := decimal.NewFromString(raw)
	if err != nil {
		return decimal.Zero, false
	}
	return d, true
}
