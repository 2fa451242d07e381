package customer

import "context"

// Repository defines the persistence operations for customers.
type Repository interface {
	// Create persists a new customer and returns its ID.
	Create(ctx context.Context, c Customer) (*Customer, error)

	// Update updates the mutable fields of an existing customer.
	Update(ctx context.Context, c Customer) error

	// FindByID retrieves a customer by ID. Returns ErrNotFound if missing.
	FindByID(ctx context.Context, id int64) (*Customer, error)

	// FindByCUIT retrieves a customer by normalized CUIT.
	// Returns nil (no error) if not found.
	FindByCUIT(ctx context.Context, cuit string) (*Customer, error)

	// List retrieves customers ordered by legal name, optionally filtered by a
	// search term matched against legal name and CUIT. Returns the page and
	// the total count before pagination.
	List(ctx context.Context, offset, limit int, search string) ([]Customer, int, error)

	// Delete removes a customer. Returns ErrNotFound if missing and
	// ErrHasInvoices when invoices reference it.
	Delete(ctx context.Context, id int64) error
}
