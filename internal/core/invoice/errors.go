package invoice

import (
	"errors"
	"fmt"

	"github.com/damianpacheco/facturacion-arca/internal/core/customer"
)

// ErrNotFound is returned when a referenced invoice does not exist.
var ErrNotFound = errors.New("factura no encontrada")

// ValidationError is a recoverable business-rule violation on invoice data.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// TaxClassMismatchError reports an invoice class that is not legal for the
// customer's IVA category. SuggestedLetter carries the letter that would be.
type TaxClassMismatchError struct {
	VoucherType     VoucherType
	Category        customer.TaxCategory
	CustomerName    string
	SuggestedLetter string
}

func (e *TaxClassMismatchError) Error() string {
	switch e.VoucherType.Letter() {
	case "A":
		return fmt.Sprintf(
			"Factura A solo puede emitirse a clientes Responsable Inscripto. El cliente %q es %q. Use Factura %s para este cliente.",
			e.CustomerName, e.Category, e.SuggestedLetter)
	case "B":
		return fmt.Sprintf(
			"Factura B no puede emitirse a clientes Responsable Inscripto. Use Factura %s para el cliente %q.",
			e.SuggestedLetter, e.CustomerName)
	}
	return fmt.Sprintf("tipo de comprobante %d incompatible con la condición IVA %q", e.VoucherType, e.Category)
}

// SubmissionError wraps a failure reported by the tax authority while
// creating a voucher. Submissions are never retried automatically: a blind
// retry could double-submit and duplicate a sequential number.
type SubmissionError struct {
	Err error
}

func (e *SubmissionError) Error() string {
	return fmt.Sprintf("error al emitir comprobante en ARCA: %v", e.Err)
}

func (e *SubmissionError) Unwrap() error { return e.Err }
