// Package postgres persists connected TiendaNube stores and their
// order-tracking records in PostgreSQL.
package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/damianpacheco/facturacion-arca/internal/core/customer"
	"github.com/damianpacheco/facturacion-arca/internal/core/order"
)

// StoreRepository implements order.StoreRepository using PostgreSQL.
type StoreRepository struct {
	pool *pgxpool.Pool
}

// NewStoreRepository creates a new PostgreSQL store repository.
func NewStoreRepository(pool *pgxpool.Pool) order.StoreRepository {
	return &StoreRepository{pool: pool}
}

const storeColumns = `id, store_id, access_token, store_name, store_url, store_email,
	owner_name, owner_email, auto_invoice, default_invoice_type, is_active,
	created_at, updated_at`

// Upsert creates the store or refreshes its token and metadata, reactivating
// it when it was previously disconnected.
func (r *StoreRepository) Upsert(ctx context.Context, s order.Store) (int64, error) {
	query := `
		INSERT INTO tiendanube_stores (
			store_id, access_token, store_name, store_url, store_email,
			owner_name, owner_email, auto_invoice, default_invoice_type, is_active
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, TRUE)
		ON CONFLICT (store_id) DO UPDATE SET
			access_token = EXCLUDED.access_token,
			store_name = EXCLUDED.store_name,
			store_url = EXCLUDED.store_url,
			store_email = EXCLUDED.store_email,
			owner_name = EXCLUDED.owner_name,
			owner_email = EXCLUDED.owner_email,
			is_active = TRUE,
			updated_at = NOW()
		RETURNING id
	`

	var id int64
	err := r.pool.QueryRow(ctx, query,
		s.StoreID,
		s.AccessToken,
		s.Name,
		s.URL,
		s.Email,
		s.OwnerName,
		s.OwnerEmail,
		s.AutoInvoice,
		s.DefaultVoucherType,
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("upsert store: %w", err)
	}
	return id, nil
}

// FindActive returns the active store.
func (r *StoreRepository) FindActive(ctx context.Context) (*order.Store, error) {
	query := `SELECT ` + storeColumns + ` FROM tiendanube_stores WHERE is_active ORDER BY updated_at DESC LIMIT 1`

	s, err := scanStore(r.pool.QueryRow(ctx, query))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, order.ErrStoreNotConnected
		}
		return nil, fmt.Errorf("query active store: %w", err)
	}
	return s, nil
}

// FindByStoreID returns an active store by platform ID.
func (r *StoreRepository) FindByStoreID(ctx context.Context, storeID string) (*order.Store, error) {
	query := `SELECT ` + storeColumns + ` FROM tiendanube_stores WHERE store_id = $1 AND is_active`

	s, err := scanStore(r.pool.QueryRow(ctx, query, storeID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, order.ErrStoreNotConnected
		}
		return nil, fmt.Errorf("query store: %w", err)
	}
	return s, nil
}

// UpdateConfig updates the invoicing configuration. Nil fields keep their
// current value.
func (r *StoreRepository) UpdateConfig(ctx context.Context, storeID string, autoInvoice *bool, defaultVoucherType *int) error {
	query := `
		UPDATE tiendanube_stores SET
			auto_invoice = COALESCE($1, auto_invoice),
			default_invoice_type = COALESCE($2, default_invoice_type),
			updated_at = NOW()
		WHERE store_id = $3 AND is_active
	`

	result, err := r.pool.Exec(ctx, query, autoInvoice, defaultVoucherType, storeID)
	if err != nil {
		return fmt.Errorf("update store config: %w", err)
	}
	if result.RowsAffected() == 0 {
		return order.ErrStoreNotConnected
	}
	return nil
}

// Deactivate disconnects a store, keeping its row for a later reconnection.
func (r *StoreRepository) Deactivate(ctx context.Context, storeID string) error {
	query := `UPDATE tiendanube_stores SET is_active = FALSE, updated_at = NOW() WHERE store_id = $1`

	result, err := r.pool.Exec(ctx, query, storeID)
	if err != nil {
		return fmt.Errorf("deactivate store: %w", err)
	}
	if result.RowsAffected() == 0 {
		return order.ErrStoreNotConnected
	}
	return nil
}

func scanStore(row pgx.Row) (*order.Store, error) {
	var s order.Store
	err := row.Scan(
		&s.ID,
		&s.StoreID,
		&s.AccessToken,
		&s.Name,
		&s.URL,
		&s.Email,
		&s.OwnerName,
		&s.OwnerEmail,
		&s.AutoInvoice,
		&s.DefaultVoucherType,
		&s.Active,
		&s.CreatedAt,
		&s.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &s, nil
}

// RecordRepository implements order.RecordRepository using PostgreSQL.
type RecordRepository struct {
	pool *pgxpool.Pool
}

// NewRecordRepository creates a new PostgreSQL order-record repository.
func NewRecordRepository(pool *pgxpool.Pool) order.RecordRepository {
	return &RecordRepository{pool: pool}
}

const recordColumns = `id, store_id, order_id, order_number, invoiced, factura_id,
	order_total, order_status, payment_status, customer_name, customer_email,
	customer_identification, override_razon_social, override_cuit,
	override_condicion_iva, invoiced_at, created_at`

// Find returns the tracking record for an order, or nil if none exists.
func (r *RecordRepository) Find(ctx context.Context, storeID, orderID string) (*order.Record, error) {
	query := `SELECT ` + recordColumns + ` FROM tiendanube_orders WHERE store_id = $1 AND order_id = $2`

	rec, err := scanRecord(r.pool.QueryRow(ctx, query, storeID, orderID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("query order record: %w", err)
	}
	return rec, nil
}

// FindByOrderIDs returns the tracking records for a set of orders keyed by
// order ID.
func (r *RecordRepository) FindByOrderIDs(ctx context.Context, storeID string, orderIDs []string) (map[string]order.Record, error) {
	records := map[string]order.Record{}
	if len(orderIDs) == 0 {
		return records, nil
	}

	query := `SELECT ` + recordColumns + ` FROM tiendanube_orders WHERE store_id = $1 AND order_id = ANY($2)`

	rows, err := r.pool.Query(ctx, query, storeID, orderIDs)
	if err != nil {
		return nil, fmt.Errorf("query order records: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("scan order record: %w", err)
		}
		records[rec.OrderID] = *rec
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate rows: %w", err)
	}

	return records, nil
}

// Save inserts or updates a tracking record.
func (r *RecordRepository) Save(ctx context.Context, rec order.Record) error {
	var ovName, ovCUIT, ovCategory string
	if rec.Override != nil {
		ovName = rec.Override.LegalName
		ovCUIT = rec.Override.CUIT
		ovCategory = string(rec.Override.TaxCategory)
	}

	query := `
		INSERT INTO tiendanube_orders (
			store_id, order_id, order_number, invoiced, factura_id,
			order_total, order_status, payment_status, customer_name,
			customer_email, customer_identification, override_razon_social,
			override_cuit, override_condicion_iva, invoiced_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
		ON CONFLICT (store_id, order_id) DO UPDATE SET
			order_number = EXCLUDED.order_number,
			invoiced = EXCLUDED.invoiced,
			factura_id = EXCLUDED.factura_id,
			order_total = EXCLUDED.order_total,
			order_status = EXCLUDED.order_status,
			payment_status = EXCLUDED.payment_status,
			customer_name = EXCLUDED.customer_name,
			customer_email = EXCLUDED.customer_email,
			customer_identification = EXCLUDED.customer_identification,
			invoiced_at = EXCLUDED.invoiced_at
	`

	_, err := r.pool.Exec(ctx, query,
		rec.StoreID,
		rec.OrderID,
		rec.OrderNumber,
		rec.Invoiced,
		rec.InvoiceID,
		rec.OrderTotal,
		rec.OrderStatus,
		rec.PaymentStatus,
		rec.CustomerName,
		rec.CustomerEmail,
		rec.CustomerCUIT,
		ovName,
		ovCUIT,
		ovCategory,
		rec.InvoicedAt,
	)
	if err != nil {
		return fmt.Errorf("save order record: %w", err)
	}
	return nil
}

// SaveOverride stores customer-override data for an order, creating the
// tracking record if needed.
func (r *RecordRepository) SaveOverride(ctx context.Context, storeID, orderID string, ov order.Override) error {
	query := `
		INSERT INTO tiendanube_orders (
			store_id, order_id, override_razon_social, override_cuit, override_condicion_iva
		) VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (store_id, order_id) DO UPDATE SET
			override_razon_social = EXCLUDED.override_razon_social,
			override_cuit = EXCLUDED.override_cuit,
			override_condicion_iva = EXCLUDED.override_condicion_iva
	`

	_, err := r.pool.Exec(ctx, query, storeID, orderID, ov.LegalName, ov.CUIT, string(ov.TaxCategory))
	if err != nil {
		return fmt.Errorf("save order override: %w", err)
	}
	return nil
}

func scanRecord(row pgx.Row) (*order.Record, error) {
	var rec order.Record
	var ovName, ovCUIT, ovCategory string

	err := row.Scan(
		&rec.ID,
		&rec.StoreID,
		&rec.OrderID,
		&rec.OrderNumber,
		&rec.Invoiced,
		&rec.InvoiceID,
		&rec.OrderTotal,
		&rec.OrderStatus,
		&rec.PaymentStatus,
		&rec.CustomerName,
		&rec.CustomerEmail,
		&rec.CustomerCUIT,
		&ovName,
		&ovCUIT,
		&ovCategory,
		&rec.InvoicedAt,
		&rec.CreatedAt,
	)
	if err != nil {
		return nil, err
	}

	if ovName != "" || ovCUIT != "" || ovCategory != "" {
		rec.Override = &order.Override{
			LegalName:   ovName,
			CUIT:        ovCUIT,
			TaxCategory: customer.TaxCategory(ovCategory),
		}
	}
	return &rec, nil
}
