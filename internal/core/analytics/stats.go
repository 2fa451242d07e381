// Package analytics defines the sales-aggregation queries behind the sales
// assistant.
package analytics

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

// PeriodSales is the authorized-sales aggregate over a date range.
type PeriodSales struct {
	Total decimal.Decimal `json:"total"`
	Count int             `json:"cantidad"`
}

// CustomerSales is one row of the top-customers ranking.
type CustomerSales struct {
	Name  string          `json:"nombre"`
	Total decimal.Decimal `json:"total"`
	Count int             `json:"cantidad"`
}

// ProductSales is one row of the top-products ranking, grouped by line
// description.
type ProductSales struct {
	Description string          `json:"descripcion"`
	Quantity    decimal.Decimal `json:"cantidad"`
	Total       decimal.Decimal `json:"total"`
}

// WeekdaySales aggregates authorized sales per day of week. Weekday follows
// the SQL DOW convention, 0 = Sunday.
type WeekdaySales struct {
	Weekday int
	Total   decimal.Decimal
	Count   int
}

// RecentInvoice is one row of the latest-invoices listing.
type RecentInvoice struct {
	Number   string
	Customer string
	Total    decimal.Decimal
	Date     time.Time
}

// Repository is the persistence capability for sales aggregation. Except for
// CountInvoices and RecentInvoices, every query covers authorized invoices
// only.
type Repository interface {
	CountInvoices(ctx context.Context) (int, error)
	SalesInRange(ctx context.Context, from time.Time, to *time.Time) (PeriodSales, error)
	TopCustomers(ctx context.Context, from time.Time, limit int) ([]CustomerSales, error)
	TopProducts(ctx context.Context, from time.Time, limit int) ([]ProductSales, error)
	SalesByWeekday(ctx context.Context, from time.Time) ([]WeekdaySales, error)
	RecentInvoices(ctx context.Context, limit int) ([]RecentInvoice, error)
}
