package testutil

import (
	"context"
	"time"

	"github.com/damianpacheco/facturacion-arca/internal/core/analytics"
)

// MockStatsRepository is a mock implementation of analytics.Repository.
type MockStatsRepository struct {
	CountInvoicesFunc  func(ctx context.Context) (int, error)
	SalesInRangeFunc   func(ctx context.Context, from time.Time, to *time.Time) (analytics.PeriodSales, error)
	TopCustomersFunc   func(ctx context.Context, from time.Time, limit int) ([]analytics.CustomerSales, error)
	TopProductsFunc    func(ctx context.Context, from time.Time, limit int) ([]analytics.ProductSales, error)
	SalesByWeekdayFunc func(ctx context.Context, from time.Time) ([]analytics.WeekdaySales, error)
	RecentInvoicesFunc func(ctx context.Context, limit int) ([]analytics.RecentInvoice, error)
}

func (m *MockStatsRepository) CountInvoices(ctx context.Context) (int, error) {
	if m.CountInvoicesFunc != nil {
		return m.CountInvoicesFunc(ctx)
	}
	return 0, nil
}

func (m *MockStatsRepository) SalesInRange(ctx context.Context, from time.Time, to *time.Time) (analytics.PeriodSales, error) {
	if m.SalesInRangeFunc != nil {
		return m.SalesInRangeFunc(ctx, from, to)
	}
	return analytics.PeriodSales{}, nil
}

func (m *MockStatsRepository) TopCustomers(ctx context.Context, from time.Time, limit int) ([]analytics.CustomerSales, error) {
	if m.TopCustomersFunc != nil {
		return m.TopCustomersFunc(ctx, from, limit)
	}
	return nil, nil
}

func (m *MockStatsRepository) TopProducts(ctx context.Context, from time.Time, limit int) ([]analytics.ProductSales, error) {
	if m.TopProductsFunc != nil {
		return m.TopProductsFunc(ctx, from, limit)
	}
	return nil, nil
}

func (m *MockStatsRepository) SalesByWeekday(ctx context.Context, from time.Time) ([]analytics.WeekdaySales, error) {
	if m.SalesByWeekdayFunc != nil {
		return m.SalesByWeekdayFunc(ctx, from)
	}
	return nil, nil
}

func (m *MockStatsRepository) RecentInvoices(ctx context.Context, limit int) ([]analytics.RecentInvoice, error) {
	if m.RecentInvoicesFunc != nil {
		return m.RecentInvoicesFunc(ctx, limit)
	}
	return nil, nil
}
