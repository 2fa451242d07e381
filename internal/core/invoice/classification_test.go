package invoice

import (
	"errors"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/damianpacheco/facturacion-arca/internal/core/customer"
)

func TestValidateClass(t *testing.T) {
	ri := customer.Customer{LegalName: "ACME SA", TaxCategory: customer.ResponsableInscripto}
	cf := customer.Customer{LegalName: "Juan Pérez", TaxCategory: customer.ConsumidorFinal}
	mono := customer.Customer{LegalName: "Kiosco Luna", TaxCategory: customer.Monotributista}

	aTypes := []VoucherType{FacturaA, NotaDebitoA, NotaCreditoA}
	bTypes := []VoucherType{FacturaB, NotaDebitoB, NotaCreditoB}
	cTypes := []VoucherType{FacturaC, NotaDebitoC, NotaCreditoC}

	for _, vt := range aTypes {
		if err := ValidateClass(vt, ri); err != nil {
			t.Errorf("type %d to Responsable Inscripto: unexpected error %v", vt, err)
		}
		for _, c := range []customer.Customer{cf, mono} {
			err := ValidateClass(vt, c)
			var mismatch *TaxClassMismatchError
			if !errors.As(err, &mismatch) {
				t.Errorf("type %d to %s: expected TaxClassMismatchError, got %v", vt, c.TaxCategory, err)
				continue
			}
			if mismatch.SuggestedLetter != "B" {
				t.Errorf("type %d: suggested letter = %q, want B", vt, mismatch.SuggestedLetter)
			}
		}
	}

	for _, vt := range bTypes {
		err := ValidateClass(vt, ri)
		var mismatch *TaxClassMismatchError
		if !errors.As(err, &mismatch) {
			t.Errorf("type %d to Responsable Inscripto: expected TaxClassMismatchError, got %v", vt, err)
		} else if mismatch.SuggestedLetter != "A" {
			t.Errorf("type %d: suggested letter = %q, want A", vt, mismatch.SuggestedLetter)
		}
		if err := ValidateClass(vt, cf); err != nil {
			t.Errorf("type %d to Consumidor Final: unexpected error %v", vt, err)
		}
	}

	// Letter C has no receiver restriction.
	for _, vt := range cTypes {
		for _, c := range []customer.Customer{ri, cf, mono} {
			if err := ValidateClass(vt, c); err != nil {
				t.Errorf("type %d to %s: unexpected error %v", vt, c.TaxCategory, err)
			}
		}
	}
}

func TestReceiverDocument(t *testing.T) {
	tests := []struct {
		name     string
		customer customer.Customer
		total    string
		wantType int
		wantNro  int64
	}{
		{
			name:     "final consumer below threshold goes anonymous",
			customer: customer.Customer{CUIT: "20409378472", TaxCategory: customer.ConsumidorFinal},
			total:    "23264.99",
			wantType: DocTypeAnonymous,
			wantNro:  0,
		},
		{
			name:     "final consumer at threshold identified by DNI",
			customer: customer.Customer{CUIT: "20409378472", TaxCategory: customer.ConsumidorFinal},
			total:    "23265",
			wantType: DocTypeDNI,
			wantNro:  20409378472,
		},
		{
			name:     "registered customer uses CUIT",
			customer: customer.Customer{CUIT: "30-50001091-2", TaxCategory: customer.ResponsableInscripto},
			total:    "100",
			wantType: DocTypeCUIT,
			wantNro:  30500010912,
		},
		{
			name:     "monotributista uses CUIT",
			customer: customer.Customer{CUIT: "20409378472", TaxCategory: customer.Monotributista},
			total:    "100",
			wantType: DocTypeCUIT,
			wantNro:  20409378472,
		},
		{
			name:     "sentinel CUIT final consumer below threshold",
			customer: customer.Customer{CUIT: customer.SentinelCUIT, TaxCategory: customer.ConsumidorFinal},
			total:    "500",
			wantType: DocTypeAnonymous,
			wantNro:  0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			docType, docNro := ReceiverDocument(tt.customer, decimal.RequireFromString(tt.total))
			if docType != tt.wantType {
				t.Errorf("docType = %d, want %d", docType, tt.wantType)
			}
			if docNro != tt.wantNro {
				t.Errorf("docNro = %d, want %d", docNro, tt.wantNro)
			}
		})
	}
}

func TestVoucherTypeLetter(t *testing.T) {
	tests := []struct {
		vt   VoucherType
		want string
	}{
		{FacturaA, "A"}, {NotaDebitoA, "A"}, {NotaCreditoA, "A"},
		{FacturaB, "B"}, {NotaDebitoB, "B"}, {NotaCreditoB, "B"},
		{FacturaC, "C"}, {NotaDebitoC, "C"}, {NotaCreditoC, "C"},
		{VoucherType(4), ""},
	}
	for _, tt := range tests {
		if got := tt.vt.Letter(); got != tt.want {
			t.Errorf("VoucherType(%d).Letter() = %q, want %q", tt.vt, got, tt.want)
		}
	}
}

func TestVoucherTypeDiscriminatesVAT(t *testing.T) {
	for _, vt := range []VoucherType{FacturaA, NotaDebitoA, NotaCreditoA, FacturaB, NotaDebitoB, NotaCreditoB} {
		if !vt.DiscriminatesVAT() {
			t.Errorf("type %d should discriminate VAT", vt)
		}
	}
	for _, vt := range []VoucherType{FacturaC, NotaDebitoC, NotaCreditoC} {
		if vt.DiscriminatesVAT() {
			t.Errorf("type %d should not discriminate VAT", vt)
		}
	}
}
