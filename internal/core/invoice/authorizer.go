package invoice

import (
	"context"
	"time"
)

// VATEntry is one row of the Iva array in a voucher request. Field names
// mirror the WSFE schema and must not change.
type VATEntry struct {
	ID      int     `json:"Id"`
	BaseImp float64 `json:"BaseImp"`
	Importe float64 `json:"Importe"`
}

// VoucherRequest is the voucher-creation payload sent to the tax authority.
// Field names and types mirror the WSFE FECAESolicitar schema; they are a
// fixed wire contract, not a design choice.
type VoucherRequest struct {
	CantReg                int        `json:"CantReg"`
	PtoVta                 int        `json:"PtoVta"`
	CbteTipo               int        `json:"CbteTipo"`
	Concepto               int        `json:"Concepto"`
	DocTipo                int        `json:"DocTipo"`
	DocNro                 int64      `json:"DocNro"`
	CondicionIVAReceptorID int        `json:"CondicionIVAReceptorId"`
	CbteDesde              int64      `json:"CbteDesde"`
	CbteHasta              int64      `json:"CbteHasta"`
	CbteFch                int        `json:"CbteFch"`
	ImpTotal               float64    `json:"ImpTotal"`
	ImpTotConc             float64    `json:"ImpTotConc"`
	ImpNeto                float64    `json:"ImpNeto"`
	ImpOpEx                float64    `json:"ImpOpEx"`
	ImpIVA                 float64    `json:"ImpIVA"`
	ImpTrib                float64    `json:"ImpTrib"`
	MonID                  string     `json:"MonId"`
	MonCotiz               float64    `json:"MonCotiz"`
	IVA                    []VATEntry `json:"Iva,omitempty"`
	FchServDesde           string     `json:"FchServDesde,omitempty"`
	FchServHasta           string     `json:"FchServHasta,omitempty"`
	FchVtoPago             string     `json:"FchVtoPago,omitempty"`
}

// Authorization is the authority's answer to a voucher submission.
type Authorization struct {
	CAE       string
	CAEExpiry time.Time
	Number    int64
	Result    string // "A" approved, "R" rejected
}

// Approved reports whether the authority accepted the voucher.
func (a Authorization) Approved() bool { return a.Result == "A" }

// Authorizer is the tax-authority capability consumed by the submission
// adapter. Implementations talk to the external SDK; the core only relies on
// these two operations.
//
// LastVoucherNumber is idempotent and safe to retry. CreateVoucher is NOT:
// callers must attempt it at most once per invocation.
type Authorizer interface {
	LastVoucherNumber(ctx context.Context, voucherType VoucherType, salesPoint int) (int64, error)
	CreateVoucher(ctx context.Context, req VoucherRequest) (*Authorization, error)
}
