package invoice

import (
	"context"
	"time"
)

// ListFilter narrows invoice listings. Zero values mean "no filter".
type ListFilter struct {
	CustomerID  int64
	VoucherType VoucherType
	Status      Status
	DateFrom    *time.Time
	DateTo      *time.Time
	Offset      int
	Limit       int
}

// Repository defines the persistence operations for invoices and their items.
type Repository interface {
	// Create persists an invoice together with its line items and returns the
	// invoice ID. Items are written atomically with the header.
	Create(ctx context.Context, inv Invoice) (int64, error)

	// FindByID retrieves an invoice with its customer and line items.
	// Returns ErrNotFound if missing.
	FindByID(ctx context.Context, id int64) (*Invoice, error)

	// List retrieves invoice headers matching the filter, newest first,
	// plus the total count before pagination.
	List(ctx context.Context, filter ListFilter) ([]Invoice, int, error)

	// CountByCustomer returns how many invoices reference a customer.
	CountByCustomer(ctx context.Context, customerID int64) (int, error)
}
