package document

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/go-pdf/fpdf"
	"github.com/shopspring/decimal"

	"github.com/damianpacheco/facturacion-arca/internal/core/customer"
	"github.com/damianpacheco/facturacion-arca/internal/core/invoice"
)

// Issuer is the emitter data printed on every document.
type Issuer struct {
	LegalName       string
	Address         string
	TaxCategory     string
	GrossIncomeID   string
	ActivitiesStart string
	CUIT            int64
}

// Renderer produces A4 invoice PDFs.
type Renderer struct {
	issuer Issuer
}

// NewRenderer creates a PDF renderer for the given issuer.
func NewRenderer(issuer Issuer) *Renderer {
	return &Renderer{issuer: issuer}
}

const (
	pageMargin = 15.0
	pageWidth  = 210.0 - 2*pageMargin
)

// Render generates the invoice PDF, including the fiscal QR code.
func (r *Renderer) Render(inv invoice.Invoice) ([]byte, error) {
	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(pageMargin, pageMargin, pageMargin)
	pdf.SetAutoPageBreak(true, pageMargin)
	pdf.AddPage()
	tr := pdf.UnicodeTranslatorFromDescriptor("")

	r.renderHeader(pdf, tr, inv)
	r.renderReceiver(pdf, tr, inv)
	r.renderItems(pdf, tr, inv)
	r.renderTotals(pdf, tr, inv)
	if err := r.renderFooter(pdf, tr, inv); err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("render PDF: %w", err)
	}
	return buf.Bytes(), nil
}

func (r *Renderer) renderHeader(pdf *fpdf.Fpdf, tr func(string) string, inv invoice.Invoice) {
	const headerHeight = 42.0
	leftWidth := pageWidth * 0.4
	centerWidth := pageWidth * 0.2
	top := pdf.GetY()

	pdf.Rect(pageMargin, top, pageWidth, headerHeight, "D")

	// Issuer block, left.
	issuerName := r.issuer.LegalName
	if issuerName == "" {
		issuerName = "RAZÓN SOCIAL"
	}
	pdf.SetXY(pageMargin+3, top+3)
	pdf.SetFont("Helvetica", "B", 10)
	pdf.MultiCell(leftWidth-6, 5, tr(issuerName), "", "L", false)
	pdf.SetX(pageMargin + 3)
	pdf.SetFont("Helvetica", "", 8)
	issuerLines := []string{
		r.issuer.Address,
		"CUIT: " + customer.FormatCUIT(fmt.Sprintf("%d", r.issuer.CUIT)),
		r.issuer.TaxCategory,
		"IIBB: " + orDash(r.issuer.GrossIncomeID),
		"Inicio Act.: " + orDash(r.issuer.ActivitiesStart),
	}
	pdf.MultiCell(leftWidth-6, 4, tr(strings.Join(issuerLines, "\n")), "", "L", false)

	// Voucher letter, boxed and shaded, center.
	letterX := pageMargin + leftWidth
	pdf.SetFillColor(225, 225, 225)
	pdf.Rect(letterX, top, centerWidth, 16, "FD")
	pdf.SetXY(letterX, top+2)
	pdf.SetFont("Helvetica", "B", 24)
	pdf.CellFormat(centerWidth, 12, inv.VoucherType.Letter(), "", 0, "C", false, 0, "")
	pdf.SetXY(letterX, top+16)
	pdf.SetFont("Helvetica", "", 7)
	pdf.CellFormat(centerWidth, 4, fmt.Sprintf("COD. %02d", int(inv.VoucherType)), "", 0, "C", false, 0, "")

	// Voucher data, right.
	rightX := pageMargin + leftWidth + centerWidth
	pdf.SetXY(rightX+3, top+3)
	pdf.SetFont("Helvetica", "B", 11)
	pdf.CellFormat(pageWidth*0.4-6, 6, tr(inv.VoucherType.Name()), "", 2, "L", false, 0, "")
	pdf.SetFont("Helvetica", "", 9)
	voucherLines := []string{
		"N° " + inv.FullNumber(),
		"Fecha: " + inv.IssueDate.Format("02/01/2006"),
		"CAE: " + orDash(inv.CAE),
		"Vto. CAE: " + formatOptionalDate(inv),
	}
	pdf.MultiCell(pageWidth*0.4-6, 5, tr(strings.Join(voucherLines, "\n")), "", "L", false)

	pdf.SetY(top + headerHeight + 6)
}

func (r *Renderer) renderReceiver(pdf *fpdf.Fpdf, tr func(string) string, inv invoice.Invoice) {
	top := pdf.GetY()

	name, cuit, category, address := "-", "-", "-", "-"
	if inv.Customer != nil {
		name = inv.Customer.LegalName
		cuit = customer.FormatCUIT(inv.Customer.CUIT)
		category = string(inv.Customer.TaxCategory)
		address = orDash(inv.Customer.Address)
	}

	pdf.SetXY(pageMargin+3, top+3)
	pdf.SetFont("Helvetica", "B", 9)
	pdf.CellFormat(pageWidth-6, 5, "DATOS DEL RECEPTOR", "", 2, "L", false, 0, "")
	pdf.SetFont("Helvetica", "", 9)
	lines := []string{
		"Razón Social: " + name,
		"CUIT: " + cuit,
		"Condición IVA: " + category,
		"Domicilio: " + address,
	}
	pdf.MultiCell(pageWidth-6, 5, tr(strings.Join(lines, "\n")), "", "L", false)

	bottom := pdf.GetY() + 3
	pdf.Rect(pageMargin, top, pageWidth, bottom-top, "D")
	pdf.SetY(bottom + 6)
}

func (r *Renderer) renderItems(pdf *fpdf.Fpdf, tr func(string) string, inv invoice.Invoice) {
	colWidths := []float64{pageWidth * 0.4, pageWidth * 0.1, pageWidth * 0.2, pageWidth * 0.1, pageWidth * 0.2}
	headers := []string{"Descripción", "Cant.", "P. Unit.", "IVA %", "Subtotal"}

	pdf.SetFont("Helvetica", "B", 9)
	pdf.SetFillColor(120, 120, 120)
	pdf.SetTextColor(255, 255, 255)
	for i, header := range headers {
		pdf.CellFormat(colWidths[i], 7, tr(header), "1", 0, "C", true, 0, "")
	}
	pdf.Ln(-1)

	pdf.SetFont("Helvetica", "", 9)
	pdf.SetTextColor(0, 0, 0)
	for _, item := range inv.Items {
		description := item.Description
		if len(description) > 50 {
			description = description[:50]
		}
		pdf.CellFormat(colWidths[0], 6, tr(description), "1", 0, "L", false, 0, "")
		pdf.CellFormat(colWidths[1], 6, item.Quantity.StringFixed(2), "1", 0, "R", false, 0, "")
		pdf.CellFormat(colWidths[2], 6, formatAmount(item.UnitPrice), "1", 0, "R", false, 0, "")
		pdf.CellFormat(colWidths[3], 6, item.VATRate.Label(), "1", 0, "R", false, 0, "")
		pdf.CellFormat(colWidths[4], 6, formatAmount(item.Subtotal), "1", 0, "R", false, 0, "")
		pdf.Ln(-1)
	}

	pdf.Ln(6)
}

func (r *Renderer) renderTotals(pdf *fpdf.Fpdf, tr func(string) string, inv invoice.Invoice) {
	labelWidth := pageWidth * 0.7
	valueWidth := pageWidth * 0.3

	row := func(label, value string, bold bool) {
		style := ""
		size := 10.0
		if bold {
			style = "B"
			size = 12
		}
		pdf.SetFont("Helvetica", style, size)
		pdf.CellFormat(labelWidth, 6, tr(label), "", 0, "R", false, 0, "")
		pdf.CellFormat(valueWidth, 6, value, "", 1, "R", false, 0, "")
	}

	// C-letter vouchers show only the final amount.
	if inv.VoucherType.DiscriminatesVAT() {
		row("Subtotal Neto:", formatAmount(inv.Net), false)
		if inv.VAT105.IsPositive() {
			row("IVA 10.5%:", formatAmount(inv.VAT105), false)
		}
		if inv.VAT21.IsPositive() {
			row("IVA 21%:", formatAmount(inv.VAT21), false)
		}
		if inv.VAT27.IsPositive() {
			row("IVA 27%:", formatAmount(inv.VAT27), false)
		}
	}
	row("TOTAL:", formatAmount(inv.Total), true)

	pdf.Ln(6)
}

func (r *Renderer) renderFooter(pdf *fpdf.Fpdf, tr func(string) string, inv invoice.Invoice) error {
	url, err := QRURL(inv, r.issuer.CUIT)
	if err != nil {
		return err
	}
	png, err := QRImage(url)
	if err != nil {
		return err
	}

	top := pdf.GetY()
	opts := fpdf.ImageOptions{ImageType: "PNG"}
	pdf.RegisterImageOptionsReader("fiscal-qr", opts, bytes.NewReader(png))
	pdf.ImageOptions("fiscal-qr", pageMargin, top, 30, 30, false, opts, 0, "")

	pdf.SetXY(pageMargin+35, top+8)
	pdf.SetFont("Helvetica", "", 9)
	caeLines := []string{
		"CAE: " + orDash(inv.CAE),
		"Vencimiento: " + formatOptionalDate(inv),
	}
	pdf.MultiCell(pageWidth-35, 5, tr(strings.Join(caeLines, "\n")), "", "L", false)
	pdf.SetY(top + 34)

	if inv.Notes != "" {
		pdf.SetFont("Helvetica", "", 8)
		pdf.MultiCell(pageWidth, 4, tr("Observaciones: "+inv.Notes), "", "L", false)
	}
	return nil
}

// formatAmount renders a monetary value with Argentine separators:
// $ 1.234,56.
func formatAmount(d decimal.Decimal) string {
	s := d.StringFixed(2)
	negative := strings.HasPrefix(s, "-")
	s = strings.TrimPrefix(s, "-")

	parts := strings.SplitN(s, ".", 2)
	intPart, decPart := parts[0], parts[1]

	var grouped strings.Builder
	for i, digit := range intPart {
		if i > 0 && (len(intPart)-i)%3 == 0 {
			grouped.WriteByte('.')
		}
		grouped.WriteRune(digit)
	}

	sign := ""
	if negative {
		sign = "-"
	}
	return fmt.Sprintf("$ %s%s,%s", sign, grouped.String(), decPart)
}

func formatOptionalDate(inv invoice.Invoice) string {
	if inv.CAEExpiry == nil {
		return "-"
	}
	return inv.CAEExpiry.Format("02/01/2006")
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
