package invoice

import (
	"strconv"

	"github.com/shopspring/decimal"

	"github.com/damianpacheco/facturacion-arca/internal/core/customer"
)

// Receiver document type codes per the ARCA document-type table.
const (
	DocTypeCUIT      = 80 // fiscal identifier
	DocTypeDNI       = 96 // personal ID
	DocTypeAnonymous = 99 // unidentified final consumer
)

// finalConsumerIDThreshold is the total amount above which a Consumidor Final
// must be identified on the voucher (RG 5003 y modificatorias).
var finalConsumerIDThreshold = decimal.NewFromInt(23265)

// ValidateClass checks that a voucher type may legally be issued to a
// customer with the given IVA category:
//
//   - letter A only to Responsable Inscripto
//   - letter B to anyone except Responsable Inscripto
//   - letter C unrestricted (simplified-regime issuers)
//
// Violations are reported as *TaxClassMismatchError.
func ValidateClass(t VoucherType, c customer.Customer) error {
	switch t.Letter() {
	case "A":
		if c.TaxCategory != customer.ResponsableInscripto {
			return &TaxClassMismatchError{
				VoucherType:     t,
				Category:        c.TaxCategory,
				CustomerName:    c.LegalName,
				SuggestedLetter: "B",
			}
		}
	case "B":
		if c.TaxCategory == customer.ResponsableInscripto {
			return &TaxClassMismatchError{
				VoucherType:     t,
				Category:        c.TaxCategory,
				CustomerName:    c.LegalName,
				SuggestedLetter: "A",
			}
		}
	}
	return nil
}

// ReceiverDocument resolves the receiver document type and number for the
// voucher submission. Final consumers below the identification threshold go
// out anonymous (type 99, number 0); above it they are identified by DNI with
// the numeric identifier on file. Every other category uses the CUIT.
func ReceiverDocument(c customer.Customer, total decimal.Decimal) (docType int, docNumber int64) {
	num, _ := strconv.ParseInt(customer.NormalizeCUIT(c.CUIT), 10, 64)

	if c.TaxCategory == customer.ConsumidorFinal {
		if total.LessThan(finalConsumerIDThreshold) {
			return DocTypeAnonymous, 0
		}
		return DocTypeDNI, num
	}
	return DocTypeCUIT, num
}
