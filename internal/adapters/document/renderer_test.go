package document

import (
	"strings"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/damianpacheco/facturacion-arca/internal/core/invoice"
)

func testIssuer() Issuer {
	return Issuer{
		LegalName:   "Mi Empresa S.R.L.",
		Address:     "Av. Corrientes 1234, CABA",
		TaxCategory: "Responsable Inscripto",
		CUIT:        20409378472,
	}
}

func TestRender(t *testing.T) {
	inv := sampleInvoice()
	inv.Net = decimal.RequireFromString("1000.41")
	inv.VAT21 = decimal.RequireFromString("210.09")
	inv.Items = []invoice.LineItem{
		{
			Description: "Servicio de consultoría",
			Quantity:    decimal.NewFromInt(1),
			UnitPrice:   decimal.RequireFromString("1000.41"),
			VATRate:     invoice.VAT21,
			Subtotal:    decimal.RequireFromString("1000.41"),
		},
	}
	inv.Notes = "Orden TiendaNube #55"

	pdf, err := NewRenderer(testIssuer()).Render(inv)
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	if !strings.HasPrefix(string(pdf), "%PDF") {
		t.Errorf("output is not a PDF: % x", pdf[:8])
	}
}

func TestRenderWithoutCustomer(t *testing.T) {
	inv := sampleInvoice()
	inv.Customer = nil

	if _, err := NewRenderer(testIssuer()).Render(inv); err != nil {
		t.Fatalf("Render without customer: %v", err)
	}
}

func TestFormatAmount(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"0", "$ 0,00"},
		{"1210.5", "$ 1.210,50"},
		{"1234567.89", "$ 1.234.567,89"},
		{"-45.30", "$ -45,30"},
	}
	for _, tc := range tests {
		if got := formatAmount(decimal.RequireFromString(tc.in)); got != tc.want {
			t.Errorf("formatAmount(%s) = %q, want %q", tc.in, got, tc.want)
		}
	}
}
