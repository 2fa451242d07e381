package invoice

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/damianpacheco/facturacion-arca/internal/core/customer"
)

// VoucherType is an ARCA comprobante type code. Nine codes exist, spanning the
// three letters (A, B, C) times invoice, debit note and credit note.
type VoucherType int

const (
	FacturaA     VoucherType = 1
	NotaDebitoA  VoucherType = 2
	NotaCreditoA VoucherType = 3
	FacturaB     VoucherType = 6
	NotaDebitoB  VoucherType = 7
	NotaCreditoB VoucherType = 8
	FacturaC     VoucherType = 11
	NotaDebitoC  VoucherType = 12
	NotaCreditoC VoucherType = 13
)

// Valid reports whether t is one of the nine supported voucher types.
func (t VoucherType) Valid() bool {
	switch t {
	case FacturaA, NotaDebitoA, NotaCreditoA,
		FacturaB, NotaDebitoB, NotaCreditoB,
		FacturaC, NotaDebitoC, NotaCreditoC:
		return true
	}
	return false
}

// Letter returns the comprobante letter (A, B or C) for the voucher type.
func (t VoucherType) Letter() string {
	switch t {
	case FacturaA, NotaDebitoA, NotaCreditoA:
		return "A"
	case FacturaB, NotaDebitoB, NotaCreditoB:
		return "B"
	case FacturaC, NotaDebitoC, NotaCreditoC:
		return "C"
	}
	return ""
}

// Name returns the printable document title for the voucher type.
func (t VoucherType) Name() string {
	switch t {
	case FacturaA:
		return "FACTURA A"
	case NotaDebitoA:
		return "NOTA DE DÉBITO A"
	case NotaCreditoA:
		return "NOTA DE CRÉDITO A"
	case FacturaB:
		return "FACTURA B"
	case NotaDebitoB:
		return "NOTA DE DÉBITO B"
	case NotaCreditoB:
		return "NOTA DE CRÉDITO B"
	case FacturaC:
		return "FACTURA C"
	case NotaDebitoC:
		return "NOTA DE DÉBITO C"
	case NotaCreditoC:
		return "NOTA DE CRÉDITO C"
	}
	return "COMPROBANTE"
}

// DiscriminatesVAT reports whether the voucher type itemizes VAT towards the
// authority. C-letter vouchers (simplified regime) never do.
func (t VoucherType) DiscriminatesVAT() bool {
	return t.Letter() == "A" || t.Letter() == "B"
}

// Concept codes for the ARCA "Concepto" field.
const (
	ConceptProducts            = 1
	ConceptServices            = 2
	ConceptProductsAndServices = 3
)

// Status is the lifecycle state of an invoice.
type Status string

const (
	StatusPending    Status = "pendiente"
	StatusAuthorized Status = "autorizada"
	StatusRejected   Status = "rechazada"
	StatusVoided     Status = "anulada"
)

// VATRate identifies an IVA bracket using the stored alícuota identifier
// (0=not taxed, 3=0%, 4=10.5%, 5=21%, 6=27%).
type VATRate int

const (
	VATNotTaxed VATRate = 0
	VATZero     VATRate = 3
	VAT10_5     VATRate = 4
	VAT21       VATRate = 5
	VAT27       VATRate = 6
)

var vatPercents = map[VATRate]decimal.Decimal{
	VATNotTaxed: decimal.Zero,
	VATZero:     decimal.Zero,
	VAT10_5:     decimal.RequireFromString("10.5"),
	VAT21:       decimal.NewFromInt(21),
	VAT27:       decimal.NewFromInt(27),
}

// Valid reports whether r is a known IVA bracket.
func (r VATRate) Valid() bool {
	_, ok := vatPercents[r]
	return ok
}

// Percent returns the bracket percentage (e.g. 21 for VAT21).
func (r VATRate) Percent() decimal.Decimal {
	return vatPercents[r]
}

// AliquotCode returns the ARCA aliquot code used in the itemized VAT detail.
// Not-taxed amounts share the 0% code.
func (r VATRate) AliquotCode() int {
	if r == VATNotTaxed {
		return int(VATZero)
	}
	return int(r)
}

// Label returns the bracket label used on printed documents.
func (r VATRate) Label() string {
	switch r {
	case VATNotTaxed:
		return "N/G"
	case VATZero:
		return "0%"
	case VAT10_5:
		return "10.5%"
	case VAT21:
		return "21%"
	case VAT27:
		return "27%"
	}
	return "-"
}

// LineItem is a single line of an invoice. Line items are immutable once the
// invoice is authorized.
type LineItem struct {
	ID          int64           `json:"id,omitempty"`
	Description string          `json:"descripcion"`
	Quantity    decimal.Decimal `json:"cantidad"`
	UnitPrice   decimal.Decimal `json:"precio_unitario"`
	VATRate     VATRate         `json:"alicuota_iva"`
	Subtotal    decimal.Decimal `json:"subtotal"`
}

// Invoice represents an emitted (or pending) comprobante.
type Invoice struct {
	ID          int64           `json:"id"`
	CustomerID  int64           `json:"cliente_id"`
	VoucherType VoucherType     `json:"tipo_comprobante"`
	SalesPoint  int             `json:"punto_venta"`
	Number      int64           `json:"numero"`
	IssueDate   time.Time       `json:"fecha"`
	CAE         string          `json:"cae,omitempty"`
	CAEExpiry   *time.Time      `json:"vencimiento_cae,omitempty"`
	Status      Status          `json:"estado"`
	Net         decimal.Decimal `json:"subtotal"`
	VAT21       decimal.Decimal `json:"iva_21"`
	VAT105      decimal.Decimal `json:"iva_10_5"`
	VAT27       decimal.Decimal `json:"iva_27"`
	Total       decimal.Decimal `json:"total"`
	Concept     int             `json:"concepto"`
	Notes       string          `json:"observaciones,omitempty"`
	CreatedAt   time.Time       `json:"created_at"`

	Customer *customer.Customer `json:"cliente,omitempty"`
	Items    []LineItem         `json:"items,omitempty"`
}

// FullNumber renders the comprobante number as PPPP-NNNNNNNN.
func (i Invoice) FullNumber() string {
	return fmt.Sprintf("%04d-%08d", i.SalesPoint, i.Number)
}
