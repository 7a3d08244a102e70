package pdf

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"image"
	"image/color"
	"image/png"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fakturlab/faktur/internal/domain/invoice"
	"github.com/fakturlab/faktur/internal/logger"
	"github.com/fakturlab/faktur/internal/types"
)

func sampleInvoice(t *testing.T) *invoice.Invoice {
	t.Helper()

	now := time.Date(2026, 8, 10, 0, 0, 0, 0, time.UTC)
	inv := invoice.Default(now, invoice.Defaults{
		Currency:      "IDR",
		SenderName:    "Minilemon Media",
		SenderAddress: "Jl. Veteran No. 1, Semarang, Jawa Tengah",
	})
	inv.ClientDetails = invoice.ClientDetails{
		Name:    "PT Maju Jaya",
		Address: "Jl. Sudirman No. 10, Jakarta",
		Email:   "finance@majujaya.co.id",
	}
	inv.TaxRate = decimal.NewFromInt(11)
	inv.Discount = decimal.NewFromInt(50000)
	return inv
}

func logoDataURI(t *testing.T) string {
	t.Helper()

	img := image.NewRGBA(image.Rect(0, 0, 4, 4))
	img.Set(0, 0, color.RGBA{B: 255, A: 255})

	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return "data:image/png;base64," + base64.StdEncoding.EncodeToString(buf.Bytes())
}

func TestRenderInvoicePDF(t *testing.T) {
	r := NewRenderer(logger.L)

	out, err := r.RenderInvoicePDF(sampleInvoice(t))
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(out, []byte("%PDF")), "output is not a PDF document")
	assert.Greater(t, len(out), 1000)
}

func TestRenderPaidInvoiceWithLogo(t *testing.T) {
	r := NewRenderer(logger.L)

	inv := sampleInvoice(t)
	inv.Status = types.InvoiceStatusPaid
	inv.SenderDetails.Logo = logoDataURI(t)

	out, err := r.RenderInvoicePDF(inv)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(out, []byte("%PDF")))
}

func TestRenderNegativeGrandTotal(t *testing.T) {
	r := NewRenderer(logger.L)

	inv := sampleInvoice(t)
	inv.TaxRate = decimal.Zero
	inv.Discount = decimal.NewFromInt(2000000)

	out, err := r.RenderInvoicePDF(inv)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(out, []byte("%PDF")))
}

func TestRenderDoesNotMutateInvoice(t *testing.T) {
	r := NewRenderer(logger.L)

	inv := sampleInvoice(t)
	before, err := json.Marshal(inv)
	require.NoError(t, err)

	_, err = r.RenderInvoicePDF(inv)
	require.NoError(t, err)

	after, err := json.Marshal(inv)
	require.NoError(t, err)
	assert.JSONEq(t, string(before), string(after))
}

func TestFormatAmount(t *testing.T) {
	tests := []struct {
		name     string
		amount   decimal.Decimal
		expected string
	}{
		{"grouped", decimal.NewFromInt(1500000), "IDR 1,500,000"},
		{"small", decimal.NewFromInt(950), "IDR 950"},
		{"zero", decimal.Zero, "IDR 0"},
		{"negative", decimal.NewFromInt(-20000), "-IDR 20,000"},
		{"rounds fractions", decimal.NewFromFloat(1234.56), "IDR 1,235"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.expected, formatAmount(tc.amount, "IDR"))
		})
	}
}
