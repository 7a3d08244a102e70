package pdf

import (
	"bytes"
	"encoding/base64"
	"strings"

	"github.com/jung-kurt/gofpdf"
	"github.com/shopspring/decimal"

	"github.com/fakturlab/faktur/internal/domain/invoice"
	ierr "github.com/fakturlab/faktur/internal/errors"
	"github.com/fakturlab/faktur/internal/logger"
	"github.com/fakturlab/faktur/internal/types"
)

// Renderer maps an invoice snapshot to a paginated A4 document. It is a
// pure function of the snapshot: totals are recomputed, nothing is
// mutated.
type Renderer interface {
	RenderInvoicePDF(inv *invoice.Invoice) ([]byte, error)
}

type renderer struct {
	log *logger.Logger
}

// NewRenderer creates the gofpdf backed renderer.
func NewRenderer(log *logger.Logger) Renderer {
	return &renderer{log: log}
}

const (
	marginLeft  = 15.0
	marginTop   = 15.0
	marginRight = 15.0

	colDescWidth  = 80.0
	colQtyWidth   = 20.0
	colPriceWidth = 40.0
	colTotalWidth = 40.0
)

func (r *renderer) RenderInvoicePDF(inv *invoice.Invoice) ([]byte, error) {
	totals := invoice.ComputeTotals(inv)

	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(marginLeft, marginTop, marginRight)
	pdf.SetAutoPageBreak(true, 20)
	pdf.AddPage()

	r.drawHeader(pdf, inv)
	r.drawParties(pdf, inv)
	r.drawItemTable(pdf, inv)
	r.drawTotals(pdf, inv, totals)

	if inv.Status == types.InvoiceStatusPaid {
		drawPaidWatermark(pdf)
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, ierr.WithError(err).
			WithHint("Failed to generate the invoice PDF").
			Mark(ierr.ErrSystem)
	}

	return buf.Bytes(), nil
}

func (r *renderer) drawHeader(pdf *gofpdf.Fpdf, inv *invoice.Invoice) {
	top := pdf.GetY()

	if inv.SenderDetails.Logo != "" {
		if err := embedLogo(pdf, inv.SenderDetails.Logo, marginLeft, top); err != nil {
			r.log.Warnf("skipping logo in PDF: %v", err)
		} else {
			pdf.SetY(top + 26)
		}
	}

	pdf.SetFont("Helvetica", "B", 14)
	pdf.CellFormat(110, 7, inv.SenderDetails.Name, "", 1, "L", false, 0, "")
	pdf.SetFont("Helvetica", "", 9)
	pdf.SetTextColor(102, 102, 102)
	pdf.MultiCell(110, 4.5, inv.SenderDetails.Address, "", "L", false)
	pdf.SetTextColor(51, 51, 51)

	// document title block, right aligned against the sender block
	title := "INVOICE"
	if inv.Status == types.InvoiceStatusPaid {
		title = "RECEIPT"
	}
	pdf.SetXY(marginLeft+110, top)
	pdf.SetFont("Helvetica", "B", 22)
	pdf.SetTextColor(37, 99, 235)
	pdf.CellFormat(70, 10, title, "", 2, "R", false, 0, "")
	pdf.SetFont("Helvetica", "", 10)
	pdf.SetTextColor(102, 102, 102)
	pdf.CellFormat(70, 6, "#"+inv.InvoiceNumber, "", 1, "R", false, 0, "")
	pdf.SetTextColor(51, 51, 51)

	pdf.Ln(8)
	x := pdf.GetY()
	pdf.SetDrawColor(238, 238, 238)
	pdf.Line(marginLeft, x, 210-marginRight, x)
	pdf.Ln(6)
}

func (r *renderer) drawParties(pdf *gofpdf.Fpdf, inv *invoice.Invoice) {
	top := pdf.GetY()

	pdf.SetFont("Helvetica", "", 8)
	pdf.SetTextColor(136, 136, 136)
	pdf.CellFormat(100, 4, "BILLED TO", "", 1, "L", false, 0, "")
	pdf.SetTextColor(51, 51, 51)
	pdf.SetFont("Helvetica", "B", 10)
	pdf.CellFormat(100, 5.5, inv.ClientDetails.Name, "", 1, "L", false, 0, "")
	pdf.SetFont("Helvetica", "", 9)
	if inv.ClientDetails.Address != "" {
		pdf.MultiCell(100, 4.5, inv.ClientDetails.Address, "", "L", false)
	}
	if inv.ClientDetails.Email != "" {
		pdf.CellFormat(100, 4.5, inv.ClientDetails.Email, "", 1, "L", false, 0, "")
	}

	// date block on the right of the client block
	pdf.SetXY(marginLeft+110, top)
	pdf.SetFont("Helvetica", "", 8)
	pdf.SetTextColor(136, 136, 136)
	pdf.CellFormat(70, 4, "DATE", "", 2, "L", false, 0, "")
	pdf.SetFont("Helvetica", "", 9)
	pdf.SetTextColor(51, 51, 51)
	pdf.CellFormat(70, 5, inv.Date.Format("02 Jan 2006"), "", 2, "L", false, 0, "")
	pdf.SetFont("Helvetica", "", 8)
	pdf.SetTextColor(136, 136, 136)
	pdf.CellFormat(70, 4, "DUE DATE", "", 2, "L", false, 0, "")
	pdf.SetFont("Helvetica", "", 9)
	pdf.SetTextColor(51, 51, 51)
	pdf.CellFormat(70, 5, inv.DueDate.Format("02 Jan 2006"), "", 1, "L", false, 0, "")

	pdf.SetY(pdf.GetY() + 10)
}

func (r *renderer) drawItemTable(pdf *gofpdf.Fpdf, inv *invoice.Invoice) {
	pdf.SetFont("Helvetica", "B", 8)
	pdf.SetFillColor(248, 250, 252)
	pdf.SetTextColor(136, 136, 136)
	pdf.CellFormat(colDescWidth, 7, "DESCRIPTION", "B", 0, "L", true, 0, "")
	pdf.CellFormat(colQtyWidth, 7, "QTY", "B", 0, "C", true, 0, "")
	pdf.CellFormat(colPriceWidth, 7, "UNIT PRICE", "B", 0, "R", true, 0, "")
	pdf.CellFormat(colTotalWidth, 7, "AMOUNT", "B", 1, "R", true, 0, "")

	pdf.SetFont("Helvetica", "", 9)
	pdf.SetTextColor(51, 51, 51)
	for _, item := range inv.Items {
		pdf.CellFormat(colDescWidth, 8, item.Description, "B", 0, "L", false, 0, "")
		pdf.CellFormat(colQtyWidth, 8, item.Quantity.String(), "B", 0, "C", false, 0, "")
		pdf.CellFormat(colPriceWidth, 8, formatAmount(item.UnitPrice, inv.Currency), "B", 0, "R", false, 0, "")
		pdf.CellFormat(colTotalWidth, 8, formatAmount(item.Subtotal(), inv.Currency), "B", 1, "R", false, 0, "")
	}

	pdf.Ln(4)
}

func (r *renderer) drawTotals(pdf *gofpdf.Fpdf, inv *invoice.Invoice, totals invoice.Totals) {
	labelX := marginLeft + colDescWidth + colQtyWidth
	labelW := colPriceWidth
	valueW := colTotalWidth

	row := func(label, value string) {
		pdf.SetX(labelX)
		pdf.SetFont("Helvetica", "", 9)
		pdf.SetTextColor(102, 102, 102)
		pdf.CellFormat(labelW, 6, label, "", 0, "L", false, 0, "")
		pdf.SetFont("Helvetica", "B", 9)
		pdf.SetTextColor(51, 51, 51)
		pdf.CellFormat(valueW, 6, value, "", 1, "R", false, 0, "")
	}

	row("Subtotal", formatAmount(totals.Subtotal, inv.Currency))

	if inv.TaxRate.IsPositive() {
		row("Tax ("+inv.TaxRate.String()+"%)", formatAmount(totals.TaxAmount, inv.Currency))
	}

	if inv.Discount.IsPositive() {
		pdf.SetX(labelX)
		pdf.SetFont("Helvetica", "", 9)
		pdf.SetTextColor(102, 102, 102)
		pdf.CellFormat(labelW, 6, "Discount", "", 0, "L", false, 0, "")
		pdf.SetFont("Helvetica", "B", 9)
		pdf.SetTextColor(220, 38, 38)
		pdf.CellFormat(valueW, 6, "- "+formatAmount(inv.Discount, inv.Currency), "", 1, "R", false, 0, "")
		pdf.SetTextColor(51, 51, 51)
	}

	pdf.Ln(2)
	pdf.SetX(labelX)
	pdf.SetDrawColor(37, 99, 235)
	pdf.SetFont("Helvetica", "B", 11)
	pdf.SetTextColor(37, 99, 235)
	pdf.CellFormat(labelW, 8, "TOTAL", "T", 0, "L", false, 0, "")
	pdf.CellFormat(valueW, 8, formatAmount(totals.GrandTotal, inv.Currency), "T", 1, "R", false, 0, "")
	pdf.SetTextColor(51, 51, 51)
}

// drawPaidWatermark draws the rotated settled badge near the page foot.
func drawPaidWatermark(pdf *gofpdf.Fpdf) {
	pdf.TransformBegin()
	pdf.TransformRotate(15, marginLeft+30, 250)
	pdf.SetDrawColor(22, 163, 74)
	pdf.SetTextColor(22, 163, 74)
	pdf.SetLineWidth(0.8)
	pdf.SetFont("Helvetica", "B", 20)
	pdf.SetXY(marginLeft+5, 244)
	pdf.CellFormat(50, 12, "PAID", "1", 0, "C", false, 0, "")
	pdf.TransformEnd()
	pdf.SetTextColor(51, 51, 51)
	pdf.SetLineWidth(0.2)
}

// embedLogo decodes the base64 data URI stored in the sender details
// and places it in the header.
func embedLogo(pdf *gofpdf.Fpdf, dataURI string, x, y float64) error {
	meta, payload, found := strings.Cut(dataURI, ",")
	if !found {
		return ierr.NewError("malformed logo data URI").Mark(ierr.ErrValidation)
	}

	imageType := "PNG"
	if strings.Contains(meta, "image/jpeg") || strings.Contains(meta, "image/jpg") {
		imageType = "JPG"
	}

	raw, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return ierr.WithError(err).WithMessage("failed to decode logo").Mark(ierr.ErrValidation)
	}

	opts := gofpdf.ImageOptions{ImageType: imageType, ReadDpi: true}
	pdf.RegisterImageOptionsReader("sender-logo", opts, bytes.NewReader(raw))
	if pdf.Err() {
		return ierr.NewError(pdf.Error().Error()).Mark(ierr.ErrValidation)
	}

	pdf.ImageOptions("sender-logo", x, y, 24, 24, false, opts, 0, "")
	return nil
}

// formatAmount renders a monetary value with thousands separators and
// the invoice currency, no fraction digits.
func formatAmount(amount decimal.Decimal, currency string) string {
	rounded := amount.Round(0)
	digits := rounded.Abs().String()

	var b strings.Builder
	lead := len(digits) % 3
	if lead > 0 {
		b.WriteString(digits[:lead])
	}
	for i := lead; i < len(digits); i += 3 {
		if b.Len() > 0 {
			b.WriteByte(',')
		}
		b.WriteString(digits[i : i+3])
	}

	out := currency + " " + b.String()
	if rounded.IsNegative() {
		out = "-" + out
	}
	return out
}
