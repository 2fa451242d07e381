package invoice

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/damianpacheco/facturacion-arca/internal/core/customer"
	"github.com/damianpacheco/facturacion-arca/internal/core/invoice"
	"github.com/damianpacheco/facturacion-arca/internal/testutil"
)

func approvedAuthorizer(last int64) *testutil.MockAuthorizer {
	return &testutil.MockAuthorizer{
		LastVoucherNumberFunc: func(ctx context.Context, voucherType invoice.VoucherType, salesPoint int) (int64, error) {
			return last, nil
		},
		CreateVoucherFunc: func(ctx context.Context, req invoice.VoucherRequest) (*invoice.Authorization, error) {
			return &invoice.Authorization{
				CAE:       "71234567890123",
				CAEExpiry: time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC),
				Number:    req.CbteDesde,
				Result:    "A",
			}, nil
		},
	}
}

func customerRepoWith(c customer.Customer) *testutil.MockCustomerRepository {
	return &testutil.MockCustomerRepository{
		FindByIDFunc: func(ctx context.Context, id int64) (*customer.Customer, error) {
			if id != c.ID {
				return nil, customer.ErrNotFound
			}
			return &c, nil
		},
	}
}

func decStr(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func itemReq(desc, qty, price string, rate invoice.VATRate) ItemRequest {
	return ItemRequest{
		Description: desc,
		Quantity:    decStr(qty),
		UnitPrice:   decStr(price),
		VATRate:     &rate,
	}
}

func TestIssueFacturaB(t *testing.T) {
	auth := approvedAuthorizer(41)
	repo := &testutil.MockInvoiceRepository{}
	customers := customerRepoWith(customer.Customer{
		ID:          3,
		LegalName:   "Juan Pérez",
		CUIT:        customer.SentinelCUIT,
		TaxCategory: customer.ConsumidorFinal,
	})
	svc := NewService(repo, customers, auth, 1, testutil.NewNullLogger())

	issueDate := time.Date(2026, 2, 20, 0, 0, 0, 0, time.UTC)
	inv, err := svc.Issue(context.Background(), IssueRequest{
		CustomerID:  3,
		VoucherType: invoice.FacturaB,
		Concept:     invoice.ConceptProducts,
		IssueDate:   &issueDate,
		Items: []ItemRequest{
			itemReq("Remera", "2", "500.00", invoice.VAT21),
			itemReq("Gorra", "1", "1000.00", invoice.VAT10_5),
		},
	})
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}

	if len(auth.CreateVoucherCalls) != 1 {
		t.Fatalf("CreateVoucher calls = %d, want exactly 1", len(auth.CreateVoucherCalls))
	}
	req := auth.CreateVoucherCalls[0]

	if req.CbteTipo != 6 || req.PtoVta != 1 {
		t.Errorf("CbteTipo/PtoVta = %d/%d, want 6/1", req.CbteTipo, req.PtoVta)
	}
	if req.CbteDesde != 42 || req.CbteHasta != 42 {
		t.Errorf("CbteDesde/Hasta = %d/%d, want 42/42", req.CbteDesde, req.CbteHasta)
	}
	if req.CbteFch != 20260220 {
		t.Errorf("CbteFch = %d, want 20260220", req.CbteFch)
	}
	// Total 2315 is below the anonymous-consumer threshold.
	if req.DocTipo != invoice.DocTypeAnonymous || req.DocNro != 0 {
		t.Errorf("DocTipo/DocNro = %d/%d, want 99/0", req.DocTipo, req.DocNro)
	}
	if req.CondicionIVAReceptorID != 5 {
		t.Errorf("CondicionIVAReceptorId = %d, want 5", req.CondicionIVAReceptorID)
	}
	if req.ImpNeto != 2000 || req.ImpIVA != 315 || req.ImpTotal != 2315 {
		t.Errorf("ImpNeto/ImpIVA/ImpTotal = %v/%v/%v, want 2000/315/2315", req.ImpNeto, req.ImpIVA, req.ImpTotal)
	}
	if len(req.IVA) != 2 {
		t.Fatalf("len(Iva) = %d, want 2", len(req.IVA))
	}
	if req.IVA[0].ID != 5 || req.IVA[0].BaseImp != 1000 || req.IVA[0].Importe != 210 {
		t.Errorf("Iva[0] = %+v", req.IVA[0])
	}
	if req.MonID != "PES" || req.MonCotiz != 1 {
		t.Errorf("MonId/MonCotiz = %q/%v", req.MonID, req.MonCotiz)
	}

	if inv.Status != invoice.StatusAuthorized {
		t.Errorf("Status = %q, want autorizada", inv.Status)
	}
	if inv.CAE != "71234567890123" {
		t.Errorf("CAE = %q", inv.CAE)
	}
	if inv.CAEExpiry == nil || !inv.CAEExpiry.Equal(time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC)) {
		t.Errorf("CAEExpiry = %v", inv.CAEExpiry)
	}
	if inv.Number != 42 {
		t.Errorf("Number = %d, want 42", inv.Number)
	}
	if inv.FullNumber() != "0001-00000042" {
		t.Errorf("FullNumber = %q", inv.FullNumber())
	}
	if len(repo.CreateCalls) != 1 {
		t.Fatalf("Create calls = %d, want 1", len(repo.CreateCalls))
	}
	if !repo.CreateCalls[0].Total.Equal(decStr("2315")) {
		t.Errorf("persisted total = %v", repo.CreateCalls[0].Total)
	}
}

func TestIssueFacturaCDoesNotDiscriminateVAT(t *testing.T) {
	auth := approvedAuthorizer(0)
	customers := customerRepoWith(customer.Customer{
		ID:          1,
		LegalName:   "ACME S.A.",
		CUIT:        "30500010912",
		TaxCategory: customer.ResponsableInscripto,
	})
	svc := NewService(&testutil.MockInvoiceRepository{}, customers, auth, 2, testutil.NewNullLogger())

	_, err := svc.Issue(context.Background(), IssueRequest{
		CustomerID:  1,
		VoucherType: invoice.FacturaC,
		Concept:     invoice.ConceptProducts,
		Items:       []ItemRequest{itemReq("Servicio técnico", "1", "1000.00", invoice.VAT21)},
	})
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}

	req := auth.CreateVoucherCalls[0]
	if req.ImpNeto != 1210 {
		t.Errorf("ImpNeto = %v, want full total 1210", req.ImpNeto)
	}
	if req.ImpIVA != 0 {
		t.Errorf("ImpIVA = %v, want 0", req.ImpIVA)
	}
	if req.IVA != nil {
		t.Errorf("Iva = %+v, want absent", req.IVA)
	}
	if req.ImpTotal != 1210 {
		t.Errorf("ImpTotal = %v, want 1210", req.ImpTotal)
	}
}

func TestIssueClassMismatch(t *testing.T) {
	auth := &testutil.MockAuthorizer{}
	customers := customerRepoWith(customer.Customer{
		ID:          1,
		LegalName:   "Juan Pérez",
		CUIT:        "20123456786",
		TaxCategory: customer.Monotributista,
	})
	svc := NewService(&testutil.MockInvoiceRepository{}, customers, auth, 1, testutil.NewNullLogger())

	_, err := svc.Issue(context.Background(), IssueRequest{
		CustomerID:  1,
		VoucherType: invoice.FacturaA,
		Concept:     invoice.ConceptProducts,
		Items:       []ItemRequest{itemReq("Item", "1", "100", invoice.VAT21)},
	})

	var mismatch *invoice.TaxClassMismatchError
	if !errors.As(err, &mismatch) {
		t.Fatalf("expected *TaxClassMismatchError, got %v", err)
	}
	if mismatch.SuggestedLetter != "B" {
		t.Errorf("SuggestedLetter = %q, want B", mismatch.SuggestedLetter)
	}
	if len(auth.CreateVoucherCalls) != 0 {
		t.Error("rejected classification must not reach the authority")
	}
}

func TestIssueRejectedVoucherIsPersisted(t *testing.T) {
	auth := approvedAuthorizer(10)
	auth.CreateVoucherFunc = func(ctx context.Context, req invoice.VoucherRequest) (*invoice.Authorization, error) {
		return &invoice.Authorization{Result: "R", Number: req.CbteDesde}, nil
	}
	repo := &testutil.MockInvoiceRepository{}
	customers := customerRepoWith(customer.Customer{
		ID:          1,
		LegalName:   "ACME S.A.",
		CUIT:        "30500010912",
		TaxCategory: customer.ResponsableInscripto,
	})
	svc := NewService(repo, customers, auth, 1, testutil.NewNullLogger())

	inv, err := svc.Issue(context.Background(), IssueRequest{
		CustomerID:  1,
		VoucherType: invoice.FacturaA,
		Concept:     invoice.ConceptProducts,
		Items:       []ItemRequest{itemReq("Item", "1", "100", invoice.VAT21)},
	})
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}
	if inv.Status != invoice.StatusRejected {
		t.Errorf("Status = %q, want rechazada", inv.Status)
	}
	if inv.CAE != "" {
		t.Errorf("CAE = %q, want empty", inv.CAE)
	}
	if len(repo.CreateCalls) != 1 {
		t.Errorf("rejected voucher must still be persisted")
	}
}

func TestIssueSubmissionFailureIsNotRetried(t *testing.T) {
	auth := approvedAuthorizer(10)
	auth.CreateVoucherFunc = func(ctx context.Context, req invoice.VoucherRequest) (*invoice.Authorization, error) {
		return nil, errors.New("gateway timeout")
	}
	repo := &testutil.MockInvoiceRepository{}
	customers := customerRepoWith(customer.Customer{
		ID:          1,
		LegalName:   "ACME S.A.",
		CUIT:        "30500010912",
		TaxCategory: customer.ResponsableInscripto,
	})
	svc := NewService(repo, customers, auth, 1, testutil.NewNullLogger())

	_, err := svc.Issue(context.Background(), IssueRequest{
		CustomerID:  1,
		VoucherType: invoice.FacturaA,
		Concept:     invoice.ConceptProducts,
		Items:       []ItemRequest{itemReq("Item", "1", "100", invoice.VAT21)},
	})

	var subErr *invoice.SubmissionError
	if !errors.As(err, &subErr) {
		t.Fatalf("expected *SubmissionError, got %v", err)
	}
	if len(auth.CreateVoucherCalls) != 1 {
		t.Errorf("CreateVoucher calls = %d, want exactly 1 (never retried)", len(auth.CreateVoucherCalls))
	}
	if len(repo.CreateCalls) != 0 {
		t.Error("failed submission must not persist an invoice")
	}
}

func TestIssueServiceDates(t *testing.T) {
	auth := approvedAuthorizer(0)
	customers := customerRepoWith(customer.Customer{
		ID:          1,
		LegalName:   "ACME S.A.",
		CUIT:        "30500010912",
		TaxCategory: customer.ResponsableInscripto,
	})
	svc := NewService(&testutil.MockInvoiceRepository{}, customers, auth, 1, testutil.NewNullLogger())

	from := time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC)
	to := time.Date(2026, 2, 28, 0, 0, 0, 0, time.UTC)
	due := time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC)

	_, err := svc.Issue(context.Background(), IssueRequest{
		CustomerID:  1,
		VoucherType: invoice.FacturaA,
		Concept:     invoice.ConceptServices,
		ServiceFrom: &from,
		ServiceTo:   &to,
		PaymentDue:  &due,
		Items:       []ItemRequest{itemReq("Abono mensual", "1", "10000", invoice.VAT21)},
	})
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}

	req := auth.CreateVoucherCalls[0]
	if req.FchServDesde != "20260201" || req.FchServHasta != "20260228" || req.FchVtoPago != "20260310" {
		t.Errorf("service dates = %q/%q/%q", req.FchServDesde, req.FchServHasta, req.FchVtoPago)
	}

	// Product concept must not carry service dates even if provided.
	auth.CreateVoucherCalls = nil
	_, err = svc.Issue(context.Background(), IssueRequest{
		CustomerID:  1,
		VoucherType: invoice.FacturaA,
		Concept:     invoice.ConceptProducts,
		ServiceFrom: &from,
		Items:       []ItemRequest{itemReq("Mercadería", "1", "10000", invoice.VAT21)},
	})
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}
	if got := auth.CreateVoucherCalls[0]; got.FchServDesde != "" || got.FchVtoPago != "" {
		t.Errorf("product voucher carries service dates: %q/%q", got.FchServDesde, got.FchVtoPago)
	}
}

func TestIssueValidation(t *testing.T) {
	badRate := invoice.VATRate(9)
	tests := []struct {
		name  string
		req   IssueRequest
		field string
	}{
		{
			name:  "no items",
			req:   IssueRequest{CustomerID: 1, VoucherType: invoice.FacturaB, Concept: 1},
			field: "items",
		},
		{
			name: "zero quantity",
			req: IssueRequest{CustomerID: 1, VoucherType: invoice.FacturaB, Concept: 1,
				Items: []ItemRequest{{Description: "Item", Quantity: decimal.Zero, UnitPrice: decStr("10")}}},
			field: "cantidad",
		},
		{
			name: "negative price",
			req: IssueRequest{CustomerID: 1, VoucherType: invoice.FacturaB, Concept: 1,
				Items: []ItemRequest{{Description: "Item", Quantity: decStr("1"), UnitPrice: decStr("-10")}}},
			field: "precio_unitario",
		},
		{
			name: "unknown vat rate",
			req: IssueRequest{CustomerID: 1, VoucherType: invoice.FacturaB, Concept: 1,
				Items: []ItemRequest{{Description: "Item", Quantity: decStr("1"), UnitPrice: decStr("10"), VATRate: &badRate}}},
			field: "alicuota_iva",
		},
		{
			name: "invalid voucher type",
			req: IssueRequest{CustomerID: 1, VoucherType: 4, Concept: 1,
				Items: []ItemRequest{itemReq("Item", "1", "10", invoice.VAT21)}},
			field: "tipo_comprobante",
		},
		{
			name: "invalid concept",
			req: IssueRequest{CustomerID: 1, VoucherType: invoice.FacturaB, Concept: 9,
				Items: []ItemRequest{itemReq("Item", "1", "10", invoice.VAT21)}},
			field: "concepto",
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			auth := &testutil.MockAuthorizer{}
			svc := NewService(&testutil.MockInvoiceRepository{}, &testutil.MockCustomerRepository{}, auth, 1, testutil.NewNullLogger())

			_, err := svc.Issue(context.Background(), tc.req)
			var vErr *invoice.ValidationError
			if !errors.As(err, &vErr) {
				t.Fatalf("expected *ValidationError, got %v", err)
			}
			if vErr.Field != tc.field {
				t.Errorf("Field = %q, want %q", vErr.Field, tc.field)
			}
			if len(auth.CreateVoucherCalls) != 0 {
				t.Error("invalid request must not reach the authority")
			}
		})
	}
}

func TestIssueDefaultsVATRate(t *testing.T) {
	auth := approvedAuthorizer(0)
	customers := customerRepoWith(customer.Customer{
		ID:          1,
		LegalName:   "Juan Pérez",
		CUIT:        customer.SentinelCUIT,
		TaxCategory: customer.ConsumidorFinal,
	})
	svc := NewService(&testutil.MockInvoiceRepository{}, customers, auth, 1, testutil.NewNullLogger())

	inv, err := svc.Issue(context.Background(), IssueRequest{
		CustomerID:  1,
		VoucherType: invoice.FacturaB,
		Concept:     invoice.ConceptProducts,
		Items:       []ItemRequest{{Description: "Item", Quantity: decStr("1"), UnitPrice: decStr("100")}},
	})
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}
	if inv.Items[0].VATRate != invoice.VAT21 {
		t.Errorf("VATRate = %d, want default 21%% bracket", inv.Items[0].VATRate)
	}
	if !inv.Total.Equal(decStr("121")) {
		t.Errorf("Total = %v, want 121", inv.Total)
	}
}

func TestIssueCustomerNotFound(t *testing.T) {
	svc := NewService(&testutil.MockInvoiceRepository{}, &testutil.MockCustomerRepository{}, &testutil.MockAuthorizer{}, 1, testutil.NewNullLogger())

	_, err := svc.Issue(context.Background(), IssueRequest{
		CustomerID:  404,
		VoucherType: invoice.FacturaB,
		Concept:     invoice.ConceptProducts,
		Items:       []ItemRequest{itemReq("Item", "1", "10", invoice.VAT21)},
	})
	if !errors.Is(err, customer.ErrNotFound) {
		t.Fatalf("expected customer.ErrNotFound, got %v", err)
	}
}

func TestLastVoucherNumber(t *testing.T) {
	auth := &testutil.MockAuthorizer{
		LastVoucherNumberFunc: func(ctx context.Context, voucherType invoice.VoucherType, salesPoint int) (int64, error) {
			if voucherType != invoice.FacturaB || salesPoint != 3 {
				t.Errorf("queried %d/%d, want 6/3", voucherType, salesPoint)
			}
			return 120, nil
		},
	}
	svc := NewService(&testutil.MockInvoiceRepository{}, &testutil.MockCustomerRepository{}, auth, 3, testutil.NewNullLogger())

	got, err := svc.LastVoucherNumber(context.Background(), invoice.FacturaB)
	if err != nil {
		t.Fatalf("LastVoucherNumber: %v", err)
	}
	if got != 120 {
		t.Errorf("got %d, want 120", got)
	}

	if _, err := svc.LastVoucherNumber(context.Background(), 99); err == nil {
		t.Error("expected error for invalid voucher type")
	}
}

func TestIssuePersistsPerFieldRounding(t *testing.T) {
	auth := approvedAuthorizer(0)
	repo := &testutil.MockInvoiceRepository{}
	customers := customerRepoWith(customer.Customer{
		ID:          3,
		LegalName:   "Juan Pérez",
		CUIT:        customer.SentinelCUIT,
		TaxCategory: customer.ConsumidorFinal,
	})
	svc := NewService(repo, customers, auth, 1, testutil.NewNullLogger())

	// Sub-cent line amounts: exact totals are 62.62 / 10.49895 / 1.3256250
	// / 74.4445750.
	_, err := svc.Issue(context.Background(), IssueRequest{
		CustomerID:  3,
		VoucherType: invoice.FacturaB,
		Concept:     invoice.ConceptProducts,
		Items: []ItemRequest{
			itemReq("Media remera", "0.5", "99.99", invoice.VAT21),
			itemReq("Snack", "1.25", "10.10", invoice.VAT10_5),
		},
	})
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}

	if len(repo.CreateCalls) != 1 {
		t.Fatalf("CreateCalls = %d, want 1", len(repo.CreateCalls))
	}
	saved := repo.CreateCalls[0]

	check := func(field string, got decimal.Decimal, want string) {
		if !got.Equal(decStr(want)) {
			t.Errorf("%s = %s, want %s", field, got, want)
		}
	}
	check("Net", saved.Net, "62.62")
	check("VAT21", saved.VAT21, "10.50")
	check("VAT105", saved.VAT105, "1.33")
	check("VAT27", saved.VAT27, "0")
	check("Total", saved.Total, "74.44")

	// The independently rounded parts drift a cent from the rounded total.
	// That is the stored representation; exactness lives in the items.
	parts := saved.Net.Add(saved.VAT21).Add(saved.VAT105).Add(saved.VAT27)
	if !parts.Equal(decStr("74.45")) {
		t.Errorf("sum of persisted parts = %s, want 74.45", parts)
	}

	if !saved.Items[0].Subtotal.Equal(decStr("49.995")) {
		t.Errorf("item subtotal = %s, want full precision 49.995", saved.Items[0].Subtotal)
	}
	recomputed := invoice.CalculateTotals(saved.Items)
	if !recomputed.Total.Equal(decStr("74.4445750")) {
		t.Errorf("recomputed total = %s, want 74.4445750", recomputed.Total)
	}
}
