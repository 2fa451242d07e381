// Package invoice orchestrates electronic invoice issuance: classification
// checks, totals, voucher submission to the tax authority and persistence.
package invoice

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/damianpacheco/facturacion-arca/internal/core/customer"
	"github.com/damianpacheco/facturacion-arca/internal/core/invoice"
)

// Service orchestrates invoice use cases.
type Service struct {
	repo       invoice.Repository
	customers  customer.Repository
	authorizer invoice.Authorizer
	salesPoint int
	log        *slog.Logger
}

// NewService creates a new invoice service. salesPoint is the configured
// punto de venta used on every voucher.
func NewService(repo invoice.Repository, customers customer.Repository, authorizer invoice.Authorizer, salesPoint int, log *slog.Logger) *Service {
	return &Service{
		repo:       repo,
		customers:  customers,
		authorizer: authorizer,
		salesPoint: salesPoint,
		log:        log,
	}
}

// ItemRequest is one line of an issuance request. A nil VAT rate defaults to
// the general 21% bracket.
type ItemRequest struct {
	Description string           `json:"descripcion"`
	Quantity    decimal.Decimal  `json:"cantidad"`
	UnitPrice   decimal.Decimal  `json:"precio_unitario"`
	VATRate     *invoice.VATRate `json:"alicuota_iva"`
}

// IssueRequest carries the data to issue a new invoice. Dates beyond the
// issue date only apply to service concepts (2 and 3).
type IssueRequest struct {
	CustomerID  int64               `json:"cliente_id"`
	VoucherType invoice.VoucherType `json:"tipo_comprobante"`
	Concept     int                 `json:"concepto"`
	IssueDate   *time.Time          `json:"fecha"`
	ServiceFrom *time.Time          `json:"fecha_servicio_desde"`
	ServiceTo   *time.Time          `json:"fecha_servicio_hasta"`
	PaymentDue  *time.Time          `json:"fecha_vencimiento_pago"`
	Notes       string              `json:"observaciones"`
	Items       []ItemRequest       `json:"items"`
}

// ListResponse is the paginated invoice listing.
type ListResponse struct {
	Items []invoice.Invoice `json:"items"`
	Total int               `json:"total"`
}

// List returns invoices matching the filter.
func (s *Service) List(ctx context.Context, filter invoice.ListFilter) (*ListResponse, error) {
	if filter.Offset < 0 {
		filter.Offset = 0
	}
	if filter.Limit <= 0 || filter.Limit > 100 {
		filter.Limit = 50
	}

	invoices, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("list invoices: %w", err)
	}

	return &ListResponse{Items: invoices, Total: total}, nil
}

// Get returns an invoice by ID, with customer and line items attached.
func (s *Service) Get(ctx context.Context, id int64) (*invoice.Invoice, error) {
	return s.repo.FindByID(ctx, id)
}

// LastVoucherNumber queries the authority for the last authorized number of
// the given voucher type on the configured sales point. The query is
// idempotent and safe to retry.
func (s *Service) LastVoucherNumber(ctx context.Context, voucherType invoice.VoucherType) (int64, error) {
	if !voucherType.Valid() {
		return 0, &invoice.ValidationError{Field: "tipo_comprobante", Message: "tipo de comprobante inválido"}
	}
	return s.authorizer.LastVoucherNumber(ctx, voucherType, s.salesPoint)
}

// Issue authorizes and persists a new invoice.
//
// The flow queries the authority for the last voucher number, submits the
// next number exactly once and records the outcome. The submission itself is
// never retried here: a failed CreateVoucher surfaces as *SubmissionError and
// the caller must query the authority before trying again, because the
// voucher may have been registered despite the error.
func (s *Service) Issue(ctx context.Context, req IssueRequest) (*invoice.Invoice, error) {
	items, err := s.buildItems(req.Items)
	if err != nil {
		return nil, err
	}
	if !req.VoucherType.Valid() {
		return nil, &invoice.ValidationError{Field: "tipo_comprobante", Message: "tipo de comprobante inválido"}
	}
	if req.Concept < invoice.ConceptProducts || req.Concept > invoice.ConceptProductsAndServices {
		return nil, &invoice.ValidationError{Field: "concepto", Message: "concepto inválido"}
	}

	cust, err := s.customers.FindByID(ctx, req.CustomerID)
	if err != nil {
		return nil, err
	}

	if err := invoice.ValidateClass(req.VoucherType, *cust); err != nil {
		return nil, err
	}

	totals := invoice.CalculateTotals(items)

	issueDate := time.Now()
	if req.IssueDate != nil {
		issueDate = *req.IssueDate
	}

	last, err := s.authorizer.LastVoucherNumber(ctx, req.VoucherType, s.salesPoint)
	if err != nil {
		return nil, fmt.Errorf("query last voucher number: %w", err)
	}
	number := last + 1

	voucherReq := s.buildVoucherRequest(req, *cust, totals, number, issueDate)

	auth, err := s.authorizer.CreateVoucher(ctx, voucherReq)
	if err != nil {
		return nil, &invoice.SubmissionError{Err: err}
	}
	if auth.Number > 0 {
		number = auth.Number
	}

	status := invoice.StatusRejected
	if auth.Approved() {
		status = invoice.StatusAuthorized
	}

	// Each amount rounds to 2 decimals independently, like the NUMERIC
	// columns that store them. With sub-cent line amounts the persisted
	// parts can differ from the persisted total by a cent; the line items
	// keep full precision so the exact totals remain recomputable.
	inv := invoice.Invoice{
		CustomerID:  cust.ID,
		VoucherType: req.VoucherType,
		SalesPoint:  s.salesPoint,
		Number:      number,
		IssueDate:   issueDate,
		CAE:         auth.CAE,
		Status:      status,
		Net:         totals.Net.Round(2),
		VAT21:       totals.VAT21.Round(2),
		VAT105:      totals.VAT105.Round(2),
		VAT27:       totals.VAT27.Round(2),
		Total:       totals.Total.Round(2),
		Concept:     req.Concept,
		Notes:       strings.TrimSpace(req.Notes),
		Items:       items,
	}
	if !auth.CAEExpiry.IsZero() {
		expiry := auth.CAEExpiry
		inv.CAEExpiry = &expiry
	}

	id, err := s.repo.Create(ctx, inv)
	if err != nil {
		return nil, fmt.Errorf("persist invoice: %w", err)
	}
	inv.ID = id
	inv.Customer = cust

	s.log.Info("invoice issued",
		"id", id,
		"comprobante", inv.FullNumber(),
		"tipo", int(inv.VoucherType),
		"estado", string(status),
		"cae", auth.CAE,
	)
	return &inv, nil
}

func (s *Service) buildItems(reqs []ItemRequest) ([]invoice.LineItem, error) {
	if len(reqs) == 0 {
		return nil, &invoice.ValidationError{Field: "items", Message: "la factura debe tener al menos un item"}
	}

	items := make([]invoice.LineItem, 0, len(reqs))
	for _, r := range reqs {
		if strings.TrimSpace(r.Description) == "" {
			return nil, &invoice.ValidationError{Field: "descripcion", Message: "la descripción del item es requerida"}
		}
		if !r.Quantity.IsPositive() {
			return nil, &invoice.ValidationError{Field: "cantidad", Message: "la cantidad debe ser mayor a cero"}
		}
		if r.UnitPrice.IsNegative() {
			return nil, &invoice.ValidationError{Field: "precio_unitario", Message: "el precio unitario no puede ser negativo"}
		}

		rate := invoice.VAT21
		if r.VATRate != nil {
			if !r.VATRate.Valid() {
				return nil, &invoice.ValidationError{Field: "alicuota_iva", Message: "alícuota de IVA inválida"}
			}
			rate = *r.VATRate
		}

		items = append(items, invoice.LineItem{
			Description: strings.TrimSpace(r.Description),
			Quantity:    r.Quantity,
			UnitPrice:   r.UnitPrice,
			VATRate:     rate,
			Subtotal:    r.Quantity.Mul(r.UnitPrice),
		})
	}
	return items, nil
}

// buildVoucherRequest assembles the wire payload. C-letter vouchers report
// the full amount as net with zero VAT and no itemized detail.
func (s *Service) buildVoucherRequest(req IssueRequest, cust customer.Customer, totals invoice.Totals, number int64, issueDate time.Time) invoice.VoucherRequest {
	docType, docNumber := invoice.ReceiverDocument(cust, totals.Total)
	dateInt, _ := strconv.Atoi(issueDate.Format("20060102"))

	vr := invoice.VoucherRequest{
		CantReg:                1,
		PtoVta:                 s.salesPoint,
		CbteTipo:               int(req.VoucherType),
		Concepto:               req.Concept,
		DocTipo:                docType,
		DocNro:                 docNumber,
		CondicionIVAReceptorID: cust.TaxCategory.AuthorityCode(),
		CbteDesde:              number,
		CbteHasta:              number,
		CbteFch:                dateInt,
		ImpTotal:               round2(totals.Total),
		ImpTotConc:             0,
		ImpOpEx:                0,
		ImpTrib:                0,
		MonID:                  "PES",
		MonCotiz:               1,
	}

	if req.VoucherType.DiscriminatesVAT() {
		vr.ImpNeto = round2(totals.Net)
		vr.ImpIVA = round2(totals.VATTotal())
		for _, entry := range totals.Breakdown {
			vr.IVA = append(vr.IVA, invoice.VATEntry{
				ID:      entry.AliquotCode,
				BaseImp: round2(entry.Base),
				Importe: round2(entry.Amount),
			})
		}
	} else {
		vr.ImpNeto = round2(totals.Total)
		vr.ImpIVA = 0
	}

	if req.Concept == invoice.ConceptServices || req.Concept == invoice.ConceptProductsAndServices {
		if req.ServiceFrom != nil {
			vr.FchServDesde = req.ServiceFrom.Format("20060102")
		}
		if req.ServiceTo != nil {
			vr.FchServHasta = req.ServiceTo.Format("20060102")
		}
		if req.PaymentDue != nil {
			vr.FchVtoPago = req.PaymentDue.Format("20060102")
		}
	}

	return vr
}

func round2(d decimal.Decimal) float64 {
	return d.Round(2).InexactFloat64()
}
