package order

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/damianpacheco/facturacion-arca/internal/adapters/tiendanube"
	invoiceapp "github.com/damianpacheco/facturacion-arca/internal/application/invoice"
	"github.com/damianpacheco/facturacion-arca/internal/core/customer"
	"github.com/damianpacheco/facturacion-arca/internal/core/invoice"
	"github.com/damianpacheco/facturacion-arca/internal/core/order"
	"github.com/damianpacheco/facturacion-arca/internal/testutil"
)

type mockIssuer struct {
	IssueFunc func(ctx context.Context, req invoiceapp.IssueRequest) (*invoice.Invoice, error)
	Calls     []invoiceapp.IssueRequest
}

func (m *mockIssuer) Issue(ctx context.Context, req invoiceapp.IssueRequest) (*invoice.Invoice, error) {
	m.Calls = append(m.Calls, req)
	if m.IssueFunc != nil {
		return m.IssueFunc(ctx, req)
	}
	return &invoice.Invoice{
		ID:          10,
		VoucherType: req.VoucherType,
		SalesPoint:  1,
		Number:      42,
		CAE:         "71234567890123",
		Status:      invoice.StatusAuthorized,
	}, nil
}

type serviceDeps struct {
	stores    *testutil.MockStoreRepository
	records   *testutil.MockRecordRepository
	customers *testutil.MockCustomerRepository
	invoices  *testutil.MockInvoiceRepository
	issuer    *mockIssuer
	platform  *testutil.MockPlatform
}

func connectedStore() *order.Store {
	return &order.Store{
		ID:                 1,
		StoreID:            "987654",
		AccessToken:        "tok-1",
		Name:               "Mi Tienda",
		AutoInvoice:        true,
		DefaultVoucherType: int(invoice.FacturaB),
		Active:             true,
	}
}

func newTestService(deps *serviceDeps) *Service {
	if deps.stores == nil {
		deps.stores = &testutil.MockStoreRepository{
			FindActiveFunc: func(ctx context.Context) (*order.Store, error) {
				return connectedStore(), nil
			},
			FindByStoreIDFunc: func(ctx context.Context, storeID string) (*order.Store, error) {
				return connectedStore(), nil
			},
		}
	}
	if deps.records == nil {
		deps.records = &testutil.MockRecordRepository{}
	}
	if deps.customers == nil {
		deps.customers = &testutil.MockCustomerRepository{
			CreateFunc: func(ctx context.Context, c customer.Customer) (*customer.Customer, error) {
				c.ID = 5
				return &c, nil
			},
		}
	}
	if deps.invoices == nil {
		deps.invoices = &testutil.MockInvoiceRepository{}
	}
	if deps.issuer == nil {
		deps.issuer = &mockIssuer{}
	}
	if deps.platform == nil {
		deps.platform = &testutil.MockPlatform{}
	}

	return NewService(
		deps.stores,
		deps.records,
		deps.customers,
		deps.invoices,
		deps.issuer,
		deps.platform,
		Config{
			RedirectURI:        "https://app.example.com/api/tiendanube/callback",
			WebhookURL:         "https://app.example.com/api/webhooks/tiendanube",
			DefaultAutoInvoice: false,
			DefaultVoucherType: int(invoice.FacturaB),
		},
		testutil.NewNullLogger(),
	)
}

func paidOrder() *tiendanube.Order {
	return &tiendanube.Order{
		ID:            100,
		Number:        55,
		Status:        "open",
		PaymentStatus: "paid",
		Total:         "1210.00",
		BillingName:   "Juan Pérez",
		ContactEmail:  "juan@example.com",
		Products: []tiendanube.OrderProduct{
			{Name: "Remera", Quantity: "2", Price: "500.00"},
		},
	}
}

func TestConnect(t *testing.T) {
	var upserted order.Store
	deps := &serviceDeps{
		stores: &testutil.MockStoreRepository{
			UpsertFunc: func(ctx context.Context, s order.Store) (int64, error) {
				upserted = s
				return 7, nil
			},
		},
		platform: &testutil.MockPlatform{
			ExchangeCodeFunc: func(ctx context.Context, code string) (*tiendanube.TokenResponse, error) {
				if code != "auth-code" {
					t.Errorf("code = %q", code)
				}
				return &tiendanube.TokenResponse{AccessToken: "tok-9", UserID: 987654}, nil
			},
			GetStoreInfoFunc: func(ctx context.Context, storeID, accessToken string) (*tiendanube.StoreInfo, error) {
				return &tiendanube.StoreInfo{
					Name:         map[string]string{"es": "Mi Tienda"},
					URL:          "https://mitienda.com",
					ContactName:  "Ana",
					ContactEmail: "ana@mitienda.com",
				}, nil
			},
		},
	}
	svc := newTestService(deps)

	st, err := svc.Connect(context.Background(), "auth-code")
	if err != nil {
		t.Fatalf("Connect: %v", err)
	}
	if st.ID != 7 || st.StoreID != "987654" {
		t.Errorf("store = %+v", st)
	}
	if upserted.AccessToken != "tok-9" || upserted.Name != "Mi Tienda" || !upserted.Active {
		t.Errorf("upserted = %+v", upserted)
	}
	if upserted.OwnerName != "Ana" {
		t.Errorf("OwnerName = %q", upserted.OwnerName)
	}

	if len(deps.platform.RegisteredEvents) != 2 {
		t.Fatalf("registered events = %v, want order/paid and order/cancelled", deps.platform.RegisteredEvents)
	}
}

func TestConnectSkipsRegisteredWebhooks(t *testing.T) {
	deps := &serviceDeps{
		stores: &testutil.MockStoreRepository{},
		platform: &testutil.MockPlatform{
			GetWebhooksFunc: func(ctx context.Context, storeID, accessToken string) ([]tiendanube.Webhook, error) {
				return []tiendanube.Webhook{
					{ID: 1, Event: EventOrderPaid, URL: "https://app.example.com/api/webhooks/tiendanube"},
				}, nil
			},
		},
	}
	svc := newTestService(deps)

	if _, err := svc.Connect(context.Background(), "auth-code"); err != nil {
		t.Fatalf("Connect: %v", err)
	}
	if len(deps.platform.RegisteredEvents) != 1 || deps.platform.RegisteredEvents[0] != EventOrderCancelled {
		t.Errorf("registered events = %v, want only order/cancelled", deps.platform.RegisteredEvents)
	}
}

func TestConnectSurvivesWebhookFailure(t *testing.T) {
	deps := &serviceDeps{
		stores: &testutil.MockStoreRepository{},
		platform: &testutil.MockPlatform{
			RegisterWebhookFunc: func(ctx context.Context, storeID, accessToken, event, callbackURL string) (*tiendanube.Webhook, error) {
				return nil, &tiendanube.APIError{StatusCode: 422}
			},
		},
	}
	svc := newTestService(deps)

	if _, err := svc.Connect(context.Background(), "auth-code"); err != nil {
		t.Fatalf("Connect should tolerate webhook failures: %v", err)
	}
}

func TestInvoiceOrder(t *testing.T) {
	deps := &serviceDeps{
		platform: &testutil.MockPlatform{
			GetOrderFunc: func(ctx context.Context, storeID, accessToken, orderID string) (*tiendanube.Order, error) {
				return paidOrder(), nil
			},
		},
	}
	svc := newTestService(deps)

	result, err := svc.InvoiceOrder(context.Background(), "100", nil)
	if err != nil {
		t.Fatalf("InvoiceOrder: %v", err)
	}
	if !result.Success || result.InvoiceID != 10 {
		t.Errorf("result = %+v", result)
	}
	if result.FullNumber != "0001-00000042" {
		t.Errorf("FullNumber = %q", result.FullNumber)
	}

	if len(deps.issuer.Calls) != 1 {
		t.Fatalf("Issue calls = %d, want 1", len(deps.issuer.Calls))
	}
	issued := deps.issuer.Calls[0]
	if issued.VoucherType != invoice.FacturaB {
		t.Errorf("VoucherType = %d, want store default 6", issued.VoucherType)
	}
	if issued.Concept != invoice.ConceptProducts {
		t.Errorf("Concept = %d, want 1", issued.Concept)
	}
	if issued.Notes != "Orden TiendaNube #55" {
		t.Errorf("Notes = %q", issued.Notes)
	}
	if issued.CustomerID != 5 {
		t.Errorf("CustomerID = %d, want created customer 5", issued.CustomerID)
	}

	if len(deps.records.SaveCalls) != 1 {
		t.Fatalf("Save calls = %d, want 1", len(deps.records.SaveCalls))
	}
	rec := deps.records.SaveCalls[0]
	if !rec.Invoiced || rec.InvoiceID == nil || *rec.InvoiceID != 10 {
		t.Errorf("record = %+v", rec)
	}
	if rec.OrderID != "100" || rec.OrderNumber != 55 {
		t.Errorf("record order fields = %+v", rec)
	}
	if rec.CustomerName != "Juan Pérez" || rec.CustomerCUIT != customer.SentinelCUIT {
		t.Errorf("record customer fields = %+v", rec)
	}
	if rec.InvoicedAt == nil {
		t.Error("InvoicedAt not set")
	}
}

func TestInvoiceOrderAlreadyInvoiced(t *testing.T) {
	invoiceID := int64(9)
	deps := &serviceDeps{
		records: &testutil.MockRecordRepository{
			FindFunc: func(ctx context.Context, storeID, orderID string) (*order.Record, error) {
				return &order.Record{StoreID: storeID, OrderID: orderID, Invoiced: true, InvoiceID: &invoiceID}, nil
			},
		},
	}
	svc := newTestService(deps)

	_, err := svc.InvoiceOrder(context.Background(), "100", nil)
	if !errors.Is(err, order.ErrAlreadyInvoiced) {
		t.Fatalf("expected ErrAlreadyInvoiced, got %v", err)
	}
	if len(deps.issuer.Calls) != 0 {
		t.Error("already invoiced order must not be re-issued")
	}
}

func TestInvoiceOrderResponsableInscriptoForcesFacturaA(t *testing.T) {
	o := paidOrder()
	o.BillingName = "ACME S.A."
	o.BillingCustomerType = "company"
	o.BillingDocumentType = "cuit"
	o.ContactIdentification = "30500010912"

	deps := &serviceDeps{
		platform: &testutil.MockPlatform{
			GetOrderFunc: func(ctx context.Context, storeID, accessToken, orderID string) (*tiendanube.Order, error) {
				return o, nil
			},
		},
	}
	svc := newTestService(deps)

	requested := invoice.FacturaB
	if _, err := svc.InvoiceOrder(context.Background(), "100", &requested); err != nil {
		t.Fatalf("InvoiceOrder: %v", err)
	}
	if deps.issuer.Calls[0].VoucherType != invoice.FacturaA {
		t.Errorf("VoucherType = %d, want Factura A even when B was requested", deps.issuer.Calls[0].VoucherType)
	}
}

func TestInvoiceOrderReusesCustomerByCUIT(t *testing.T) {
	o := paidOrder()
	o.ContactIdentification = "30500010912"

	created := false
	deps := &serviceDeps{
		customers: &testutil.MockCustomerRepository{
			FindByCUITFunc: func(ctx context.Context, cuit string) (*customer.Customer, error) {
				if cuit != "30500010912" {
					t.Errorf("looked up %q", cuit)
				}
				return &customer.Customer{ID: 33, CUIT: cuit, TaxCategory: customer.ConsumidorFinal}, nil
			},
			CreateFunc: func(ctx context.Context, c customer.Customer) (*customer.Customer, error) {
				created = true
				return &c, nil
			},
		},
		platform: &testutil.MockPlatform{
			GetOrderFunc: func(ctx context.Context, storeID, accessToken, orderID string) (*tiendanube.Order, error) {
				return o, nil
			},
		},
	}
	svc := newTestService(deps)

	if _, err := svc.InvoiceOrder(context.Background(), "100", nil); err != nil {
		t.Fatalf("InvoiceOrder: %v", err)
	}
	if created {
		t.Error("existing customer must be reused, not recreated")
	}
	if deps.issuer.Calls[0].CustomerID != 33 {
		t.Errorf("CustomerID = %d, want 33", deps.issuer.Calls[0].CustomerID)
	}
}

func TestInvoiceOrderAppliesOverride(t *testing.T) {
	deps := &serviceDeps{
		records: &testutil.MockRecordRepository{
			FindFunc: func(ctx context.Context, storeID, orderID string) (*order.Record, error) {
				return &order.Record{
					StoreID: storeID,
					OrderID: orderID,
					Override: &order.Override{
						LegalName:   "ACME S.A.",
						CUIT:        "30500010912",
						TaxCategory: customer.ResponsableInscripto,
					},
				}, nil
			},
		},
		platform: &testutil.MockPlatform{
			GetOrderFunc: func(ctx context.Context, storeID, accessToken, orderID string) (*tiendanube.Order, error) {
				return paidOrder(), nil
			},
		},
	}
	svc := newTestService(deps)

	if _, err := svc.InvoiceOrder(context.Background(), "100", nil); err != nil {
		t.Fatalf("InvoiceOrder: %v", err)
	}
	// The override makes the receiver Responsable Inscripto, which forces A.
	if deps.issuer.Calls[0].VoucherType != invoice.FacturaA {
		t.Errorf("VoucherType = %d, want Factura A from override", deps.issuer.Calls[0].VoucherType)
	}
	if rec := deps.records.SaveCalls[0]; rec.CustomerName != "ACME S.A." {
		t.Errorf("record CustomerName = %q, want override name", rec.CustomerName)
	}
}

func TestProcessPaidOrderAutoInvoiceDisabled(t *testing.T) {
	st := connectedStore()
	st.AutoInvoice = false
	deps := &serviceDeps{
		stores: &testutil.MockStoreRepository{
			FindByStoreIDFunc: func(ctx context.Context, storeID string) (*order.Store, error) {
				return st, nil
			},
		},
	}
	svc := newTestService(deps)

	if err := svc.ProcessPaidOrder(context.Background(), "987654", "100"); err != nil {
		t.Fatalf("ProcessPaidOrder: %v", err)
	}
	if len(deps.issuer.Calls) != 0 {
		t.Error("auto-invoicing disabled, nothing should be issued")
	}
}

func TestProcessPaidOrderMarksAuto(t *testing.T) {
	deps := &serviceDeps{
		platform: &testutil.MockPlatform{
			GetOrderFunc: func(ctx context.Context, storeID, accessToken, orderID string) (*tiendanube.Order, error) {
				return paidOrder(), nil
			},
		},
	}
	svc := newTestService(deps)

	if err := svc.ProcessPaidOrder(context.Background(), "987654", "100"); err != nil {
		t.Fatalf("ProcessPaidOrder: %v", err)
	}
	if len(deps.issuer.Calls) != 1 {
		t.Fatalf("Issue calls = %d, want 1", len(deps.issuer.Calls))
	}
	if !strings.HasSuffix(deps.issuer.Calls[0].Notes, "(auto)") {
		t.Errorf("Notes = %q, want (auto) suffix", deps.issuer.Calls[0].Notes)
	}
}

func TestProcessPaidOrderIgnoresAlreadyInvoiced(t *testing.T) {
	deps := &serviceDeps{
		records: &testutil.MockRecordRepository{
			FindFunc: func(ctx context.Context, storeID, orderID string) (*order.Record, error) {
				return &order.Record{Invoiced: true}, nil
			},
		},
	}
	svc := newTestService(deps)

	if err := svc.ProcessPaidOrder(context.Background(), "987654", "100"); err != nil {
		t.Fatalf("duplicate webhook delivery must not error: %v", err)
	}
}

func TestListOrdersMergesInvoicedState(t *testing.T) {
	invoiceID := int64(10)
	deps := &serviceDeps{
		records: &testutil.MockRecordRepository{
			FindByOrderIDsFunc: func(ctx context.Context, storeID string, orderIDs []string) (map[string]order.Record, error) {
				return map[string]order.Record{
					"100": {OrderID: "100", Invoiced: true, InvoiceID: &invoiceID},
				}, nil
			},
		},
		invoices: &testutil.MockInvoiceRepository{
			FindByIDFunc: func(ctx context.Context, id int64) (*invoice.Invoice, error) {
				return &invoice.Invoice{ID: id, SalesPoint: 1, Number: 42}, nil
			},
		},
		platform: &testutil.MockPlatform{
			GetOrdersFunc: func(ctx context.Context, storeID, accessToken string, query tiendanube.OrderQuery) ([]tiendanube.Order, error) {
				return []tiendanube.Order{
					{ID: 100, Number: 55, Status: "open", PaymentStatus: "paid", Total: "1210.00"},
					{ID: 101, Number: 56, Status: "open", PaymentStatus: "paid", Total: "500.00"},
				}, nil
			},
		},
	}
	svc := newTestService(deps)

	resp, err := svc.ListOrders(context.Background(), ListQuery{})
	if err != nil {
		t.Fatalf("ListOrders: %v", err)
	}
	if len(resp.Items) != 2 {
		t.Fatalf("len(items) = %d, want 2", len(resp.Items))
	}
	if !resp.Items[0].Invoiced || resp.Items[0].InvoiceNumber != "0001-00000042" {
		t.Errorf("items[0] = %+v", resp.Items[0])
	}
	if resp.Items[1].Invoiced {
		t.Errorf("items[1] should not be invoiced")
	}

	// Filter down to pending orders only.
	pending := false
	resp, err = svc.ListOrders(context.Background(), ListQuery{Invoiced: &pending})
	if err != nil {
		t.Fatalf("ListOrders: %v", err)
	}
	if len(resp.Items) != 1 || resp.Items[0].ID != 101 {
		t.Errorf("filtered items = %+v", resp.Items)
	}
}

func TestListOrdersRequiresStore(t *testing.T) {
	deps := &serviceDeps{stores: &testutil.MockStoreRepository{
		FindActiveFunc: func(ctx context.Context) (*order.Store, error) {
			return nil, order.ErrStoreNotConnected
		},
	}}
	svc := newTestService(deps)

	if _, err := svc.ListOrders(context.Background(), ListQuery{}); !errors.Is(err, order.ErrStoreNotConnected) {
		t.Fatalf("expected ErrStoreNotConnected, got %v", err)
	}
}

func TestUpdateConfigValidatesVoucherType(t *testing.T) {
	svc := newTestService(&serviceDeps{})

	bad := 4
	_, err := svc.UpdateConfig(context.Background(), nil, &bad)
	var vErr *invoice.ValidationError
	if !errors.As(err, &vErr) {
		t.Fatalf("expected *ValidationError, got %v", err)
	}
}

func TestSetOverrideValidatesCUIT(t *testing.T) {
	svc := newTestService(&serviceDeps{})

	err := svc.SetOverride(context.Background(), "100", order.Override{CUIT: "123"})
	var vErr *customer.ValidationError
	if !errors.As(err, &vErr) {
		t.Fatalf("expected *ValidationError, got %v", err)
	}

	if err := svc.SetOverride(context.Background(), "100", order.Override{
		LegalName:   "ACME S.A.",
		CUIT:        "30-50001091-2",
		TaxCategory: customer.ResponsableInscripto,
	}); err != nil {
		t.Fatalf("SetOverride: %v", err)
	}
}
