package order

import "context"

// StoreRepository defines persistence for connected stores.
type StoreRepository interface {
	// Upsert creates the store or refreshes its token/metadata when the
	// store_id already exists, reactivating it.
	Upsert(ctx context.Context, s Store) (int64, error)

	// FindActive returns the active store, or ErrStoreNotConnected.
	FindActive(ctx context.Context) (*Store, error)

	// FindByStoreID returns an active store by platform ID, or
	// ErrStoreNotConnected.
	FindByStoreID(ctx context.Context, storeID string) (*Store, error)

	// UpdateConfig updates the invoicing configuration of a store.
	UpdateConfig(ctx context.Context, storeID string, autoInvoice *bool, defaultVoucherType *int) error

	// Deactivate disconnects a store.
	Deactivate(ctx context.Context, storeID string) error
}

// RecordRepository defines persistence for order-tracking records.
type RecordRepository interface {
	// Find returns the tracking record for an order, or nil if none exists.
	Find(ctx context.Context, storeID, orderID string) (*Record, error)

	// FindByOrderIDs returns the tracking records for a set of orders keyed
	// by order ID.
	FindByOrderIDs(ctx context.Context, storeID string, orderIDs []string) (map[string]Record, error)

	// Save inserts or updates a tracking record (keyed by store_id+order_id).
	Save(ctx context.Context, rec Record) error

	// SaveOverride stores customer-override data for an order, creating the
	// tracking record if needed.
	SaveOverride(ctx context.Context, storeID, orderID string, ov Override) error
}
