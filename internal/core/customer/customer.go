package customer

import "time"

// TaxCategory is the IVA condition of a customer as registered with ARCA.
type TaxCategory string

const (
	ResponsableInscripto TaxCategory = "Responsable Inscripto"
	Monotributista       TaxCategory = "Monotributista"
	Exento               TaxCategory = "Exento"
	ConsumidorFinal      TaxCategory = "Consumidor Final"
	NoResponsable        TaxCategory = "No Responsable"
)

// SentinelCUIT identifies customers created without a fiscal identifier
// (typically final consumers imported from e-commerce orders). It passes the
// mod-11 checksum, so it can be stored and validated like any other CUIT.
const SentinelCUIT = "00000000000"

// Valid reports whether the category is one of the five known IVA conditions.
func (c TaxCategory) Valid() bool {
	switch c {
	case ResponsableInscripto, Monotributista, Exento, ConsumidorFinal, NoResponsable:
		return true
	}
	return false
}

// AuthorityCode returns the receiver IVA-condition code required by ARCA
// (RG 5616). The mapping is a wire contract and must not change.
func (c TaxCategory) AuthorityCode() int {
	switch c {
	case ResponsableInscripto:
		return 1
	case Exento:
		return 4
	case ConsumidorFinal:
		return 5
	case Monotributista:
		return 6
	case NoResponsable:
		return 7
	}
	return 5
}

// Customer represents a billable customer.
type Customer struct {
	ID          int64       `json:"id"`
	LegalName   string      `json:"razon_social"`
	CUIT        string      `json:"cuit"`
	TaxCategory TaxCategory `json:"condicion_iva"`
	Address     string      `json:"domicilio,omitempty"`
	Email       string      `json:"email,omitempty"`
	Phone       string      `json:"telefono,omitempty"`
	CreatedAt   time.Time   `json:"created_at"`
	UpdatedAt   time.Time   `json:"updated_at"`
}
