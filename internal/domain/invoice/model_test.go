package invoice

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fakturlab/faktur/internal/types"
)

func testDefaults() Defaults {
	return Defaults{
		Currency:      "IDR",
		SenderName:    "Minilemon Media",
		SenderAddress: "Jl. Veteran No. 1, Semarang, Jawa Tengah",
	}
}

func TestDefaultInvoice(t *testing.T) {
	now := time.Date(2026, time.August, 1, 10, 0, 0, 0, time.UTC)
	inv := Default(now, testDefaults())

	assert.Equal(t, "INV-001", inv.InvoiceNumber)
	assert.Equal(t, now, inv.Date)
	assert.Equal(t, now.Add(7*24*time.Hour), inv.DueDate)
	assert.Equal(t, types.InvoiceStatusUnpaid, inv.Status)
	assert.Equal(t, "IDR", inv.Currency)

	require.Len(t, inv.Items, 1)
	assert.Equal(t, "Jasa Pembuatan Website", inv.Items[0].Description)
	assert.True(t, inv.Items[0].Quantity.Equal(decimal.NewFromInt(1)))
	assert.True(t, inv.Items[0].UnitPrice.Equal(decimal.NewFromInt(1500000)))
	assert.NotEmpty(t, inv.Items[0].ID)

	require.NoError(t, inv.Validate())
}

func TestSenderPatchEmptyIsIdempotent(t *testing.T) {
	details := SenderDetails{Name: "Acme", Address: "Street 1", Logo: "data:image/png;base64,xxxx"}

	patched := SenderPatch{}.Apply(details)

	assert.Equal(t, details, patched)
}

func TestPatchesMergePartially(t *testing.T) {
	name := "New Name"
	sender := SenderPatch{Name: &name}.Apply(SenderDetails{Name: "Old", Address: "Keep"})
	assert.Equal(t, "New Name", sender.Name)
	assert.Equal(t, "Keep", sender.Address)

	email := "billing@example.com"
	client := ClientPatch{Email: &email}.Apply(ClientDetails{Name: "Client", Email: "old@example.com"})
	assert.Equal(t, "Client", client.Name)
	assert.Equal(t, "billing@example.com", client.Email)

	inv := Default(time.Now(), testDefaults())
	status := types.InvoiceStatusPaid
	MetaPatch{Status: &status}.Apply(inv)
	assert.Equal(t, types.InvoiceStatusPaid, inv.Status)
	assert.Equal(t, "INV-001", inv.InvoiceNumber)

	qty := decimal.NewFromInt(4)
	item := LineItemPatch{Quantity: &qty}.Apply(LineItem{ID: "keep", Description: "desc", Quantity: decimal.NewFromInt(1)})
	assert.Equal(t, "keep", item.ID)
	assert.Equal(t, "desc", item.Description)
	assert.True(t, item.Quantity.Equal(qty))
}

func TestInvoiceValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Invoice)
		wantErr string
	}{
		{
			name:   "valid default",
			mutate: func(*Invoice) {},
		},
		{
			name:    "empty invoice number",
			mutate:  func(i *Invoice) { i.InvoiceNumber = "" },
			wantErr: "invoiceNumber",
		},
		{
			name:    "no items",
			mutate:  func(i *Invoice) { i.Items = nil },
			wantErr: "items",
		},
		{
			name:    "tax rate above 100",
			mutate:  func(i *Invoice) { i.TaxRate = decimal.NewFromInt(101) },
			wantErr: "taxRate",
		},
		{
			name:    "negative discount",
			mutate:  func(i *Invoice) { i.Discount = decimal.NewFromInt(-1) },
			wantErr: "discount",
		},
		{
			name:    "quantity below one",
			mutate:  func(i *Invoice) { i.Items[0].Quantity = decimal.Zero },
			wantErr: "items.quantity",
		},
		{
			name:    "negative unit price",
			mutate:  func(i *Invoice) { i.Items[0].UnitPrice = decimal.NewFromInt(-5) },
			wantErr: "items.unitPrice",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			inv := Default(time.Now(), testDefaults())
			tt.mutate(inv)

			err := inv.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}

			require.Error(t, err)
			require.True(t, IsValidationError(err))
			var ve *ValidationError
			require.ErrorAs(t, err, &ve)
			assert.Equal(t, tt.wantErr, ve.Field)
		})
	}
}

func TestInvoiceStatusValidate(t *testing.T) {
	assert.NoError(t, types.InvoiceStatusUnpaid.Validate())
	assert.NoError(t, types.InvoiceStatusPaid.Validate())

	// PARTIAL exists in one form variant only; the canonical schema
	// rejects it
	assert.Error(t, types.InvoiceStatus("PARTIAL").Validate())
	assert.Error(t, types.InvoiceStatus("").Validate())
}

func TestCloneIsDeep(t *testing.T) {
	inv := Default(time.Now(), testDefaults())
	clone := inv.Clone()

	clone.Items[0].Description = "changed"
	clone.ClientDetails.Name = "changed"

	assert.Equal(t, "Jasa Pembuatan Website", inv.Items[0].Description)
	assert.Empty(t, inv.ClientDetails.Name)
}

func TestNewLineItem(t *testing.T) {
	a := NewLineItem()
	b := NewLineItem()

	assert.NotEqual(t, a.ID, b.ID)
	assert.Empty(t, a.Description)
	assert.True(t, a.Quantity.Equal(decimal.NewFromInt(1)))
	assert.True(t, a.UnitPrice.IsZero())
}
