package customer

import (
	"errors"
	"fmt"
)

// ErrNotFound is returned when a referenced customer does not exist.
var ErrNotFound = errors.New("cliente no encontrado")

// ErrDuplicateCUIT is returned when creating a customer whose CUIT is taken.
var ErrDuplicateCUIT = errors.New("ya existe un cliente con ese CUIT")

// ErrHasInvoices is returned when deleting a customer with invoices on file.
var ErrHasInvoices = errors.New("no se puede eliminar un cliente con facturas asociadas")

// ValidationError is a recoverable business-rule violation on customer data.
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
