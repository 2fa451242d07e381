package testutil

import (
	"context"

	"github.com/damianpacheco/facturacion-arca/internal/core/customer"
	"github.com/damianpacheco/facturacion-arca/internal/core/invoice"
	"github.com/damianpacheco/facturacion-arca/internal/core/order"
)

// MockAuthorizer is a mock implementation of invoice.Authorizer.
type MockAuthorizer struct {
	LastVoucherNumberFunc func(ctx context.Context, voucherType invoice.VoucherType, salesPoint int) (int64, error)
	CreateVoucherFunc     func(ctx context.Context, req invoice.VoucherRequest) (*invoice.Authorization, error)

	CreateVoucherCalls []invoice.VoucherRequest
}

func (m *MockAuthorizer) LastVoucherNumber(ctx context.Context, voucherType invoice.VoucherType, salesPoint int) (int64, error) {
	if m.LastVoucherNumberFunc != nil {
		return m.LastVoucherNumberFunc(ctx, voucherType, salesPoint)
	}
	return 0, nil
}

func (m *MockAuthorizer) CreateVoucher(ctx context.Context, req invoice.VoucherRequest) (*invoice.Authorization, error) {
	m.CreateVoucherCalls = append(m.CreateVoucherCalls, req)
	if m.CreateVoucherFunc != nil {
		return m.CreateVoucherFunc(ctx, req)
	}
	return &invoice.Authorization{Result: "A"}, nil
}

// MockCustomerRepository is a mock implementation of customer.Repository.
type MockCustomerRepository struct {
	CreateFunc     func(ctx context.Context, c customer.Customer) (*customer.Customer, error)
	UpdateFunc     func(ctx context.Context, c customer.Customer) error
	FindByIDFunc   func(ctx context.Context, id int64) (*customer.Customer, error)
	FindByCUITFunc func(ctx context.Context, cuit string) (*customer.Customer, error)
	ListFunc       func(ctx context.Context, offset, limit int, search string) ([]customer.Customer, int, error)
	DeleteFunc     func(ctx context.Context, id int64) error
}

func (m *MockCustomerRepository) Create(ctx context.Context, c customer.Customer) (*customer.Customer, error) {
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, c)
	}
	return &c, nil
}

func (m *MockCustomerRepository) Update(ctx context.Context, c customer.Customer) error {
	if m.UpdateFunc != nil {
		return m.UpdateFunc(ctx, c)
	}
	return nil
}

func (m *MockCustomerRepository) FindByID(ctx context.Context, id int64) (*customer.Customer, error) {
	if m.FindByIDFunc != nil {
		return m.FindByIDFunc(ctx, id)
	}
	return nil, customer.ErrNotFound
}

func (m *MockCustomerRepository) FindByCUIT(ctx context.Context, cuit string) (*customer.Customer, error) {
	if m.FindByCUITFunc != nil {
		return m.FindByCUITFunc(ctx, cuit)
	}
	return nil, nil
}

func (m *MockCustomerRepository) List(ctx context.Context, offset, limit int, search string) ([]customer.Customer, int, error) {
	if m.ListFunc != nil {
		return m.ListFunc(ctx, offset, limit, search)
	}
	return []customer.Customer{}, 0, nil
}

func (m *MockCustomerRepository) Delete(ctx context.Context, id int64) error {
	if m.DeleteFunc != nil {
		return m.DeleteFunc(ctx, id)
	}
	return nil
}

// MockInvoiceRepository is a mock implementation of invoice.Repository.
type MockInvoiceRepository struct {
	CreateFunc          func(ctx context.Context, inv invoice.Invoice) (int64, error)
	FindByIDFunc        func(ctx context.Context, id int64) (*invoice.Invoice, error)
	ListFunc            func(ctx context.Context, filter invoice.ListFilter) ([]invoice.Invoice, int, error)
	CountByCustomerFunc func(ctx context.Context, customerID int64) (int, error)

	CreateCalls []invoice.Invoice
}

func (m *MockInvoiceRepository) Create(ctx context.Context, inv invoice.Invoice) (int64, error) {
	m.CreateCalls = append(m.CreateCalls, inv)
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, inv)
	}
	return 1, nil
}

func (m *MockInvoiceRepository) FindByID(ctx context.Context, id int64) (*invoice.Invoice, error) {
	if m.FindByIDFunc != nil {
		return m.FindByIDFunc(ctx, id)
	}
	return nil, invoice.ErrNotFound
}

func (m *MockInvoiceRepository) List(ctx context.Context, filter invoice.ListFilter) ([]invoice.Invoice, int, error) {
	if m.ListFunc != nil {
		return m.ListFunc(ctx, filter)
	}
	return []invoice.Invoice{}, 0, nil
}

func (m *MockInvoiceRepository) CountByCustomer(ctx context.Context, customerID int64) (int, error) {
	if m.CountByCustomerFunc != nil {
		return m.CountByCustomerFunc(ctx, customerID)
	}
	return 0, nil
}

// MockStoreRepository is a mock implementation of order.StoreRepository.
type MockStoreRepository struct {
	UpsertFunc        func(ctx context.Context, s order.Store) (int64, error)
	FindActiveFunc    func(ctx context.Context) (*order.Store, error)
	FindByStoreIDFunc func(ctx context.Context, storeID string) (*order.Store, error)
	UpdateConfigFunc  func(ctx context.Context, storeID string, autoInvoice *bool, defaultVoucherType *int) error
	DeactivateFunc    func(ctx context.Context, storeID string) error
}

func (m *MockStoreRepository) Upsert(ctx context.Context, s order.Store) (int64, error) {
	if m.UpsertFunc != nil {
		return m.UpsertFunc(ctx, s)
	}
	return 1, nil
}

func (m *MockStoreRepository) FindActive(ctx context.Context) (*order.Store, error) {
	if m.FindActiveFunc != nil {
		return m.FindActiveFunc(ctx)
	}
	return nil, order.ErrStoreNotConnected
}

func (m *MockStoreRepository) FindByStoreID(ctx context.Context, storeID string) (*order.Store, error) {
	if m.FindByStoreIDFunc != nil {
		return m.FindByStoreIDFunc(ctx, storeID)
	}
	return nil, order.ErrStoreNotConnected
}

func (m *MockStoreRepository) UpdateConfig(ctx context.Context, storeID string, autoInvoice *bool, defaultVoucherType *int) error {
	if m.UpdateConfigFunc != nil {
		return m.UpdateConfigFunc(ctx, storeID, autoInvoice, defaultVoucherType)
	}
	return nil
}

func (m *MockStoreRepository) Deactivate(ctx context.Context, storeID string) error {
	if m.DeactivateFunc != nil {
		return m.DeactivateFunc(ctx, storeID)
	}
	return nil
}

// MockRecordRepository is a mock implementation of order.RecordRepository.
type MockRecordRepository struct {
	FindFunc           func(ctx context.Context, storeID, orderID string) (*order.Record, error)
	FindByOrderIDsFunc func(ctx context.Context, storeID string, orderIDs []string) (map[string]order.Record, error)
	SaveFunc           func(ctx context.Context, rec order.Record) error
	SaveOverrideFunc   func(ctx context.Context, storeID, orderID string, ov order.Override) error

	SaveCalls []order.Record
}

func (m *MockRecordRepository) Find(ctx context.Context, storeID, orderID string) (*order.Record, error) {
	if m.FindFunc != nil {
		return m.FindFunc(ctx, storeID, orderID)
	}
	return nil, nil
}

func (m *MockRecordRepository) FindByOrderIDs(ctx context.Context, storeID string, orderIDs []string) (map[string]order.Record, error) {
	if m.FindByOrderIDsFunc != nil {
		return m.FindByOrderIDsFunc(ctx, storeID, orderIDs)
	}
	return map[string]order.Record{}, nil
}

func (m *MockRecordRepository) Save(ctx context.Context, rec order.Record) error {
	m.SaveCalls = append(m.SaveCalls, rec)
	if m.SaveFunc != nil {
		return m.SaveFunc(ctx, rec)
	}
	return nil
}

func (m *MockRecordRepository) SaveOverride(ctx context.Context, storeID, orderID string, ov order.Override) error {
	if m.SaveOverrideFunc != nil {
		return m.SaveOverrideFunc(ctx, storeID, orderID, ov)
	}
	return nil
}
