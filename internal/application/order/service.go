// Package order orchestrates the TiendaNube integration: store connection via
// OAuth, order listing and the order-to-invoice flow.
package order

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/damianpacheco/facturacion-arca/internal/adapters/tiendanube"
	invoiceapp "github.com/damianpacheco/facturacion-arca/internal/application/invoice"
	"github.com/damianpacheco/facturacion-arca/internal/core/customer"
	"github.com/damianpacheco/facturacion-arca/internal/core/invoice"
	"github.com/damianpacheco/facturacion-arca/internal/core/order"
)

// Platform events the integration subscribes to.
const (
	EventOrderPaid      = "order/paid"
	EventOrderCancelled = "order/cancelled"
)

// Issuer is the invoice-issuance capability the order flow delegates to.
type Issuer interface {
	Issue(ctx context.Context, req invoiceapp.IssueRequest) (*invoice.Invoice, error)
}

// Config holds the integration settings.
type Config struct {
	// RedirectURI is the OAuth callback registered with the platform.
	RedirectURI string

	// WebhookURL is the public endpoint platform events are delivered to.
	WebhookURL string

	// DefaultAutoInvoice is the auto-invoicing flag for newly connected stores.
	DefaultAutoInvoice bool

	// DefaultVoucherType is the voucher type for newly connected stores.
	DefaultVoucherType int
}

// Service orchestrates the platform integration use cases.
type Service struct {
	stores    order.StoreRepository
	records   order.RecordRepository
	customers customer.Repository
	invoices  invoice.Repository
	issuer    Issuer
	platform  PlatformClient
	cfg       Config
	log       *slog.Logger
}

// NewService creates the integration service.
func NewService(
	stores order.StoreRepository,
	records order.RecordRepository,
	customers customer.Repository,
	invoices invoice.Repository,
	issuer Issuer,
	platform PlatformClient,
	cfg Config,
	log *slog.Logger,
) *Service {
	return &Service{
		stores:    stores,
		records:   records,
		customers: customers,
		invoices:  invoices,
		issuer:    issuer,
		platform:  platform,
		cfg:       cfg,
		log:       log,
	}
}

// InstallURL returns the OAuth authorization URL the merchant must visit.
func (s *Service) InstallURL() string {
	return s.platform.AuthorizationURL(s.cfg.RedirectURI)
}

// Connect completes the OAuth flow: exchanges the authorization code, stores
// the shop with its token and subscribes the event webhooks. Webhook
// registration is best-effort; a platform hiccup there must not lose the
// freshly obtained token.
func (s *Service) Connect(ctx context.Context, code string) (*order.Store, error) {
	token, err := s.platform.ExchangeCode(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("exchange authorization code: %w", err)
	}
	storeID := token.StoreID()

	st := order.Store{
		StoreID:            storeID,
		AccessToken:        token.AccessToken,
		AutoInvoice:        s.cfg.DefaultAutoInvoice,
		DefaultVoucherType: s.cfg.DefaultVoucherType,
		Active:             true,
	}

	info, err := s.platform.GetStoreInfo(ctx, storeID, token.AccessToken)
	if err != nil {
		s.log.Warn("could not fetch store info", "store_id", storeID, "error", err)
	} else {
		st.Name = info.LocalName()
		st.URL = info.URL
		st.Email = info.Email
		st.OwnerName = info.ContactName
		st.OwnerEmail = info.ContactEmail
	}

	id, err := s.stores.Upsert(ctx, st)
	if err != nil {
		return nil, fmt.Errorf("persist store: %w", err)
	}
	st.ID = id

	s.registerWebhooks(ctx, st)

	s.log.Info("tiendanube store connected", "store_id", storeID, "store_name", st.Name)
	return &st, nil
}

func (s *Service) registerWebhooks(ctx context.Context, st order.Store) {
	if s.cfg.WebhookURL == "" {
		return
	}

	registered := map[string]bool{}
	if hooks, err := s.platform.GetWebhooks(ctx, st.StoreID, st.AccessToken); err == nil {
		for _, h := range hooks {
			if h.URL == s.cfg.WebhookURL {
				registered[h.Event] = true
			}
		}
	} else {
		s.log.Warn("could not list webhooks", "store_id", st.StoreID, "error", err)
	}

	for _, event := range []string{EventOrderPaid, EventOrderCancelled} {
		if registered[event] {
			continue
		}
		if _, err := s.platform.RegisterWebhook(ctx, st.StoreID, st.AccessToken, event, s.cfg.WebhookURL); err != nil {
			s.log.Warn("webhook registration failed", "store_id", st.StoreID, "event", event, "error", err)
			continue
		}
		s.log.Info("webhook registered", "store_id", st.StoreID, "event", event)
	}
}

// Status returns the connected store, or order.ErrStoreNotConnected.
func (s *Service) Status(ctx context.Context) (*order.Store, error) {
	return s.stores.FindActive(ctx)
}

// UpdateConfig changes the invoicing configuration of the connected store.
// Nil fields are untouched.
func (s *Service) UpdateConfig(ctx context.Context, autoInvoice *bool, defaultVoucherType *int) (*order.Store, error) {
	st, err := s.stores.FindActive(ctx)
	if err != nil {
		return nil, err
	}

	if defaultVoucherType != nil && !invoice.VoucherType(*defaultVoucherType).Valid() {
		return nil, &invoice.ValidationError{Field: "default_invoice_type", Message: "tipo de comprobante inválido"}
	}

	if err := s.stores.UpdateConfig(ctx, st.StoreID, autoInvoice, defaultVoucherType); err != nil {
		return nil, fmt.Errorf("update store config: %w", err)
	}

	return s.stores.FindActive(ctx)
}

// Disconnect deactivates the connected store. The platform token is kept so a
// reconnection can reuse the store row.
func (s *Service) Disconnect(ctx context.Context) error {
	st, err := s.stores.FindActive(ctx)
	if err != nil {
		return err
	}
	if err := s.stores.Deactivate(ctx, st.StoreID); err != nil {
		return fmt.Errorf("deactivate store: %w", err)
	}
	s.log.Info("tiendanube store disconnected", "store_id", st.StoreID)
	return nil
}

// ListQuery filters the order listing.
type ListQuery struct {
	Page          int
	PerPage       int
	Status        string
	PaymentStatus string
	Invoiced      *bool
}

// OrderSummary is one row of the order listing, the platform order merged
// with the local invoicing state.
type OrderSummary struct {
	ID                     int64  `json:"id"`
	Number                 int64  `json:"number"`
	Status                 string `json:"status"`
	PaymentStatus          string `json:"payment_status"`
	Total                  string `json:"total"`
	Subtotal               string `json:"subtotal"`
	Currency               string `json:"currency"`
	CreatedAt              string `json:"created_at"`
	CustomerName           string `json:"customer_name,omitempty"`
	CustomerEmail          string `json:"customer_email,omitempty"`
	CustomerIdentification string `json:"customer_identification,omitempty"`
	Invoiced               bool   `json:"invoiced"`
	InvoiceID              *int64 `json:"factura_id,omitempty"`
	InvoiceNumber          string `json:"factura_numero,omitempty"`
}

// ListOrdersResponse is the paginated order listing.
type ListOrdersResponse struct {
	Items   []OrderSummary `json:"items"`
	Total   int            `json:"total"`
	Page    int            `json:"page"`
	PerPage int            `json:"per_page"`
}

// ListOrders fetches the store's orders from the platform and merges each one
// with its local invoicing state.
func (s *Service) ListOrders(ctx context.Context, query ListQuery) (*ListOrdersResponse, error) {
	st, err := s.stores.FindActive(ctx)
	if err != nil {
		return nil, err
	}

	if query.Page < 1 {
		query.Page = 1
	}
	if query.PerPage < 1 || query.PerPage > 50 {
		query.PerPage = 20
	}

	orders, err := s.platform.GetOrders(ctx, st.StoreID, st.AccessToken, tiendanube.OrderQuery{
		Status:        query.Status,
		PaymentStatus: query.PaymentStatus,
		Page:          query.Page,
		PerPage:       query.PerPage,
	})
	if err != nil {
		return nil, fmt.Errorf("fetch platform orders: %w", err)
	}

	orderIDs := make([]string, 0, len(orders))
	for _, o := range orders {
		orderIDs = append(orderIDs, o.OrderIDString())
	}

	recs, err := s.records.FindByOrderIDs(ctx, st.StoreID, orderIDs)
	if err != nil {
		return nil, fmt.Errorf("load tracking records: %w", err)
	}

	items := make([]OrderSummary, 0, len(orders))
	for _, o := range orders {
		rec, tracked := recs[o.OrderIDString()]

		isInvoiced := tracked && rec.Invoiced
		if query.Invoiced != nil && isInvoiced != *query.Invoiced {
			continue
		}

		summary := OrderSummary{
			ID:            o.ID,
			Number:        o.Number,
			Status:        o.Status,
			PaymentStatus: o.PaymentStatus,
			Total:         o.Total,
			Subtotal:      o.Subtotal,
			Currency:      o.Currency,
			CreatedAt:     o.CreatedAt,
			CustomerName:  o.ContactName,
			CustomerEmail: o.ContactEmail,
			Invoiced:      isInvoiced,
		}
		summary.CustomerIdentification = o.ContactIdentification
		if o.Customer != nil {
			if summary.CustomerName == "" {
				summary.CustomerName = o.Customer.Name
			}
			if summary.CustomerEmail == "" {
				summary.CustomerEmail = o.Customer.Email
			}
			if summary.CustomerIdentification == "" {
				summary.CustomerIdentification = o.Customer.Identification
			}
		}

		if tracked && rec.InvoiceID != nil {
			summary.InvoiceID = rec.InvoiceID
			if inv, err := s.invoices.FindByID(ctx, *rec.InvoiceID); err == nil {
				summary.InvoiceNumber = inv.FullNumber()
			}
		}

		items = append(items, summary)
	}

	return &ListOrdersResponse{
		Items:   items,
		Total:   len(items),
		Page:    query.Page,
		PerPage: query.PerPage,
	}, nil
}

// OrderDetail is a platform order plus its local invoicing state.
type OrderDetail struct {
	tiendanube.Order
	Invoiced  bool            `json:"invoiced"`
	InvoiceID *int64          `json:"factura_id,omitempty"`
	Override  *order.Override `json:"customer_override,omitempty"`
}

// GetOrder fetches one order with its invoicing state.
func (s *Service) GetOrder(ctx context.Context, orderID string) (*OrderDetail, error) {
	st, err := s.stores.FindActive(ctx)
	if err != nil {
		return nil, err
	}

	platformOrder, err := s.platform.GetOrder(ctx, st.StoreID, st.AccessToken, orderID)
	if err != nil {
		return nil, fmt.Errorf("fetch platform order: %w", err)
	}

	detail := &OrderDetail{Order: *platformOrder}

	rec, err := s.records.Find(ctx, st.StoreID, orderID)
	if err != nil {
		return nil, fmt.Errorf("load tracking record: %w", err)
	}
	if rec != nil {
		detail.Invoiced = rec.Invoiced
		detail.InvoiceID = rec.InvoiceID
		detail.Override = rec.Override
	}

	return detail, nil
}

// SetOverride stores customer data to use instead of the order payload when
// the order is invoiced.
func (s *Service) SetOverride(ctx context.Context, orderID string, ov order.Override) error {
	st, err := s.stores.FindActive(ctx)
	if err != nil {
		return err
	}

	if ov.CUIT != "" {
		ov.CUIT = customer.NormalizeCUIT(ov.CUIT)
		if err := customer.ValidateCUIT(ov.CUIT); err != nil {
			return err
		}
	}
	if ov.TaxCategory != "" && !ov.TaxCategory.Valid() {
		return &customer.ValidationError{Field: "condicion_iva", Message: "condición de IVA inválida"}
	}

	return s.records.SaveOverride(ctx, st.StoreID, orderID, ov)
}

// InvoiceResult is the outcome of invoicing an order.
type InvoiceResult struct {
	Success    bool   `json:"success"`
	InvoiceID  int64  `json:"factura_id"`
	FullNumber string `json:"numero_completo"`
	CAE        string `json:"cae,omitempty"`
	Message    string `json:"message"`
}

// InvoiceOrder issues an invoice for a platform order. The operation is
// idempotent per order: an already-invoiced order yields ErrAlreadyInvoiced.
func (s *Service) InvoiceOrder(ctx context.Context, orderID string, requestedType *invoice.VoucherType) (*InvoiceResult, error) {
	st, err := s.stores.FindActive(ctx)
	if err != nil {
		return nil, err
	}
	return s.invoiceForStore(ctx, st, orderID, requestedType, false)
}

// ProcessPaidOrder is the webhook entry point: it invoices a paid order in
// the background when the store has auto-invoicing enabled. Orders already
// invoiced are silently skipped.
func (s *Service) ProcessPaidOrder(ctx context.Context, storeID, orderID string) error {
	st, err := s.stores.FindByStoreID(ctx, storeID)
	if err != nil {
		return err
	}
	if !st.AutoInvoice {
		s.log.Debug("auto-invoicing disabled, skipping order", "store_id", storeID, "order_id", orderID)
		return nil
	}

	_, err = s.invoiceForStore(ctx, st, orderID, nil, true)
	if errors.Is(err, order.ErrAlreadyInvoiced) {
		s.log.Debug("order already invoiced", "store_id", storeID, "order_id", orderID)
		return nil
	}
	return err
}

func (s *Service) invoiceForStore(ctx context.Context, st *order.Store, orderID string, requestedType *invoice.VoucherType, auto bool) (*InvoiceResult, error) {
	rec, err := s.records.Find(ctx, st.StoreID, orderID)
	if err != nil {
		return nil, fmt.Errorf("load tracking record: %w", err)
	}
	if rec != nil && rec.Invoiced {
		return nil, order.ErrAlreadyInvoiced
	}

	platformOrder, err := s.platform.GetOrder(ctx, st.StoreID, st.AccessToken, orderID)
	if err != nil {
		return nil, fmt.Errorf("fetch platform order: %w", err)
	}

	candidate := CustomerFromOrder(*platformOrder)
	if rec != nil {
		candidate = ApplyOverride(candidate, rec.Override)
	}

	voucherType := invoice.VoucherType(st.DefaultVoucherType)
	if requestedType != nil {
		voucherType = *requestedType
	}
	// Responsable Inscripto receivers always get a Factura A.
	if candidate.TaxCategory == customer.ResponsableInscripto {
		voucherType = invoice.FacturaA
	}

	cust, err := s.findOrCreateCustomer(ctx, candidate)
	if err != nil {
		return nil, err
	}

	items, err := ItemsFromOrder(*platformOrder)
	if err != nil {
		return nil, err
	}

	notes := fmt.Sprintf("Orden TiendaNube #%d", platformOrder.Number)
	if auto {
		notes += " (auto)"
	}

	inv, err := s.issuer.Issue(ctx, invoiceapp.IssueRequest{
		CustomerID:  cust.ID,
		VoucherType: voucherType,
		Concept:     invoice.ConceptProducts,
		Notes:       notes,
		Items:       items,
	})
	if err != nil {
		return nil, err
	}

	now := time.Now()
	newRec := order.Record{
		StoreID:       st.StoreID,
		OrderID:       orderID,
		OrderNumber:   platformOrder.Number,
		Invoiced:      true,
		InvoiceID:     &inv.ID,
		OrderTotal:    platformOrder.Total,
		OrderStatus:   platformOrder.Status,
		PaymentStatus: platformOrder.PaymentStatus,
		CustomerName:  cust.LegalName,
		CustomerEmail: cust.Email,
		CustomerCUIT:  cust.CUIT,
		InvoicedAt:    &now,
	}
	if rec != nil {
		newRec.ID = rec.ID
		newRec.Override = rec.Override
	}
	if err := s.records.Save(ctx, newRec); err != nil {
		return nil, fmt.Errorf("save tracking record: %w", err)
	}

	s.log.Info("order invoiced",
		"store_id", st.StoreID,
		"order_id", orderID,
		"factura_id", inv.ID,
		"comprobante", inv.FullNumber(),
		"auto", auto,
	)

	return &InvoiceResult{
		Success:    true,
		InvoiceID:  inv.ID,
		FullNumber: inv.FullNumber(),
		CAE:        inv.CAE,
		Message:    "Factura emitida correctamente",
	}, nil
}

// findOrCreateCustomer looks the customer up by CUIT and creates it from the
// order data when missing. Anonymous final consumers (sentinel CUIT) are
// always created fresh, since the sentinel may repeat.
func (s *Service) findOrCreateCustomer(ctx context.Context, candidate customer.Customer) (*customer.Customer, error) {
	if candidate.CUIT != customer.SentinelCUIT {
		existing, err := s.customers.FindByCUIT(ctx, candidate.CUIT)
		if err != nil {
			return nil, fmt.Errorf("find customer by CUIT: %w", err)
		}
		if existing != nil {
			return existing, nil
		}
	}

	created, err := s.customers.Create(ctx, candidate)
	if err != nil {
		return nil, fmt.Errorf("create customer: %w", err)
	}
	s.log.Info("customer created from order", "id", created.ID, "cuit", created.CUIT)
	return created, nil
}
