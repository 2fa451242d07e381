package order

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"

	"github.com/damianpacheco/facturacion-arca/internal/adapters/tiendanube"
	appinvoice "github.com/damianpacheco/facturacion-arca/internal/application/invoice"
	apporder "github.com/damianpacheco/facturacion-arca/internal/application/order"
	"github.com/damianpacheco/facturacion-arca/internal/core/invoice"
	"github.com/damianpacheco/facturacion-arca/internal/core/order"
	"github.com/damianpacheco/facturacion-arca/internal/testutil"
)

type issuerFunc func(ctx context.Context, req appinvoice.IssueRequest) (*invoice.Invoice, error)

func (f issuerFunc) Issue(ctx context.Context, req appinvoice.IssueRequest) (*invoice.Invoice, error) {
	return f(ctx, req)
}

type handlerDeps struct {
	stores   *testutil.MockStoreRepository
	records  *testutil.MockRecordRepository
	platform *testutil.MockPlatform
	issuer   apporder.Issuer
}

func newTestRouter(deps handlerDeps) *chi.Mux {
	log := testutil.NewNullLogger()
	if deps.stores == nil {
		deps.stores = &testutil.MockStoreRepository{}
	}
	if deps.records == nil {
		deps.records = &testutil.MockRecordRepository{}
	}
	if deps.platform == nil {
		deps.platform = &testutil.MockPlatform{}
	}
	svc := apporder.NewService(
		deps.stores,
		deps.records,
		&testutil.MockCustomerRepository{},
		&testutil.MockInvoiceRepository{},
		deps.issuer,
		deps.platform,
		apporder.Config{DefaultVoucherType: 6},
		log,
	)
	h := NewHandler(svc, log)

	r := chi.NewRouter()
	r.Get("/api/ordenes", h.List)
	r.Get("/api/ordenes/{orderID}", h.Get)
	r.Post("/api/ordenes/{orderID}/facturar", h.Invoice)
	r.Put("/api/ordenes/{orderID}/cliente", h.SetOverride)
	return r
}

func connectedStore() *order.Store {
	return &order.Store{
		ID:                 1,
		StoreID:            "987654",
		AccessToken:        "tok",
		Name:               "Mi Tienda",
		AutoInvoice:        true,
		DefaultVoucherType: 6,
		Active:             true,
	}
}

func activeStoreRepo() *testutil.MockStoreRepository {
	return &testutil.MockStoreRepository{
		FindActiveFunc: func(ctx context.Context) (*order.Store, error) {
			return connectedStore(), nil
		},
	}
}

func paidOrder() *tiendanube.Order {
	return &tiendanube.Order{
		ID:            555,
		Number:        1001,
		Status:        "open",
		PaymentStatus: "paid",
		Total:         "121.00",
		ContactName:   "Juan Pérez",
		Products: []tiendanube.OrderProduct{
			{Name: "Producto", Quantity: "1", Price: "100.00"},
		},
	}
}

func TestListOrders(t *testing.T) {
	platform := &testutil.MockPlatform{
		GetOrdersFunc: func(ctx context.Context, storeID, accessToken string, query tiendanube.OrderQuery) ([]tiendanube.Order, error) {
			if storeID != "987654" || accessToken != "tok" {
				t.Errorf("platform called with store %q token %q", storeID, accessToken)
			}
			return []tiendanube.Order{*paidOrder()}, nil
		},
	}
	router := newTestRouter(handlerDeps{stores: activeStoreRepo(), platform: platform})

	req := testutil.CreateRequest(http.MethodGet, "/api/ordenes?status=open", nil, nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", w.Code, w.Body.String())
	}

	var got apporder.ListOrdersResponse
	testutil.ReadJSONResponse(t, w, &got)
	if len(got.Items) != 1 {
		t.Fatalf("len(Items) = %d, want 1", len(got.Items))
	}
	if got.Items[0].Invoiced {
		t.Error("order should not be marked invoiced")
	}
}

func TestListOrdersBadPage(t *testing.T) {
	router := newTestRouter(handlerDeps{stores: activeStoreRepo()})

	req := testutil.CreateRequest(http.MethodGet, "/api/ordenes?page=0", nil, nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", w.Code)
	}
}

func TestGetOrderWithoutStore(t *testing.T) {
	router := newTestRouter(handlerDeps{})

	req := testutil.CreateRequest(http.MethodGet, "/api/ordenes/555", nil, nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", w.Code)
	}
}

func TestInvoiceOrder(t *testing.T) {
	records := &testutil.MockRecordRepository{}
	platform := &testutil.MockPlatform{
		GetOrderFunc: func(ctx context.Context, storeID, accessToken, orderID string) (*tiendanube.Order, error) {
			return paidOrder(), nil
		},
	}
	issuer := issuerFunc(func(ctx context.Context, req appinvoice.IssueRequest) (*invoice.Invoice, error) {
		if req.VoucherType != invoice.FacturaB {
			t.Errorf("VoucherType = %d, want FacturaB", req.VoucherType)
		}
		return &invoice.Invoice{
			ID:          7,
			VoucherType: invoice.FacturaB,
			SalesPoint:  1,
			Number:      43,
			CAE:         "71234567890123",
			Status:      invoice.StatusAuthorized,
		}, nil
	})
	router := newTestRouter(handlerDeps{stores: activeStoreRepo(), records: records, platform: platform, issuer: issuer})

	req := testutil.CreateRequest(http.MethodPost, "/api/ordenes/555/facturar", nil, nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusCreated {
		t.Fatalf("status = %d, body %s", w.Code, w.Body.String())
	}

	var got apporder.InvoiceResult
	testutil.ReadJSONResponse(t, w, &got)
	if !got.Success {
		t.Error("Success = false")
	}
	if got.InvoiceID != 7 {
		t.Errorf("InvoiceID = %d, want 7", got.InvoiceID)
	}
	if got.FullNumber != "0001-00000043" {
		t.Errorf("FullNumber = %q", got.FullNumber)
	}

	if len(records.SaveCalls) != 1 {
		t.Fatalf("SaveCalls = %d, want 1", len(records.SaveCalls))
	}
	if !records.SaveCalls[0].Invoiced {
		t.Error("tracking record not marked invoiced")
	}
}

func TestInvoiceOrderAlreadyInvoiced(t *testing.T) {
	records := &testutil.MockRecordRepository{
		FindFunc: func(ctx context.Context, storeID, orderID string) (*order.Record, error) {
			return &order.Record{StoreID: storeID, OrderID: orderID, Invoiced: true}, nil
		},
	}
	router := newTestRouter(handlerDeps{stores: activeStoreRepo(), records: records})

	req := testutil.CreateRequest(http.MethodPost, "/api/ordenes/555/facturar", nil, nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", w.Code)
	}
	errResp := testutil.ReadErrorResponse(t, w)
	if errResp["message"] != "Error de Validación" {
		t.Errorf("message = %v", errResp["message"])
	}
}

func TestInvoiceOrderInvalidVoucherType(t *testing.T) {
	router := newTestRouter(handlerDeps{stores: activeStoreRepo()})

	req := testutil.CreateRequest(http.MethodPost, "/api/ordenes/555/facturar", map[string]any{
		"tipo_comprobante": 99,
	}, nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", w.Code)
	}
}

func TestSetOverride(t *testing.T) {
	var saved order.Override
	records := &testutil.MockRecordRepository{
		SaveOverrideFunc: func(ctx context.Context, storeID, orderID string, ov order.Override) error {
			saved = ov
			return nil
		},
	}
	router := newTestRouter(handlerDeps{stores: activeStoreRepo(), records: records})

	req := testutil.CreateRequest(http.MethodPut, "/api/ordenes/555/cliente", map[string]any{
		"razon_social":  "ACME S.A.",
		"cuit":          "30-50001091-2",
		"condicion_iva": "Responsable Inscripto",
	}, nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", w.Code, w.Body.String())
	}
	if saved.CUIT != "30500010912" {
		t.Errorf("saved CUIT = %q, want normalized", saved.CUIT)
	}
}

func TestSetOverrideInvalidCUIT(t *testing.T) {
	router := newTestRouter(handlerDeps{stores: activeStoreRepo()})

	req := testutil.CreateRequest(http.MethodPut, "/api/ordenes/555/cliente", map[string]any{
		"razon_social": "ACME S.A.",
		"cuit":         "123",
	}, nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", w.Code)
	}
}
