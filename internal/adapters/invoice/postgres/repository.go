// Package postgres persists invoices and their line items in PostgreSQL.
package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/damianpacheco/facturacion-arca/internal/core/customer"
	"github.com/damianpacheco/facturacion-arca/internal/core/invoice"
)

// Repository implements invoice.Repository using PostgreSQL.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates a new PostgreSQL invoice repository.
func NewRepository(pool *pgxpool.Pool) invoice.Repository {
	return &Repository{pool: pool}
}

const invoiceColumns = `id, cliente_id, tipo_comprobante, punto_venta, numero, fecha, cae,
	vencimiento_cae, estado, subtotal, iva_21, iva_10_5, iva_27, total, concepto,
	observaciones, created_at`

// Create persists the invoice header and its line items in one transaction.
func (r *Repository) Create(ctx context.Context, inv invoice.Invoice) (int64, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return 0, fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	query := `
		INSERT INTO facturas (
			cliente_id, tipo_comprobante, punto_venta, numero, fecha, cae,
			vencimiento_cae, estado, subtotal, iva_21, iva_10_5, iva_27, total,
			concepto, observaciones
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
		RETURNING id
	`

	var id int64
	err = tx.QueryRow(ctx, query,
		inv.CustomerID,
		int(inv.VoucherType),
		inv.SalesPoint,
		inv.Number,
		inv.IssueDate,
		inv.CAE,
		inv.CAEExpiry,
		string(inv.Status),
		inv.Net,
		inv.VAT21,
		inv.VAT105,
		inv.VAT27,
		inv.Total,
		inv.Concept,
		inv.Notes,
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("insert invoice: %w", err)
	}

	itemQuery := `
		INSERT INTO factura_items (factura_id, descripcion, cantidad, precio_unitario, alicuota_iva, subtotal)
		VALUES ($1, $2, $3, $4, $5, $6)
	`
	for _, item := range inv.Items {
		if _, err := tx.Exec(ctx, itemQuery,
			id,
			item.Description,
			item.Quantity,
			item.UnitPrice,
			int(item.VATRate),
			item.Subtotal,
		); err != nil {
			return 0, fmt.Errorf("insert invoice item: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return 0, fmt.Errorf("commit transaction: %w", err)
	}
	return id, nil
}

// FindByID retrieves an invoice with its customer and line items.
func (r *Repository) FindByID(ctx context.Context, id int64) (*invoice.Invoice, error) {
	query := `SELECT ` + invoiceColumns + ` FROM facturas WHERE id = $1`

	inv, err := scanInvoice(r.pool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, invoice.ErrNotFound
		}
		return nil, fmt.Errorf("query invoice: %w", err)
	}

	cust, err := r.findCustomer(ctx, inv.CustomerID)
	if err != nil {
		return nil, err
	}
	inv.Customer = cust

	items, err := r.findItems(ctx, id)
	if err != nil {
		return nil, err
	}
	inv.Items = items

	return inv, nil
}

// List retrieves invoice headers matching the filter, newest first.
func (r *Repository) List(ctx context.Context, filter invoice.ListFilter) ([]invoice.Invoice, int, error) {
	whereConditions := []string{}
	queryArgs := []interface{}{}
	argIndex := 1

	addCondition := func(condition string, value interface{}) {
		whereConditions = append(whereConditions, fmt.Sprintf(condition, argIndex))
		queryArgs = append(queryArgs, value)
		argIndex++
	}

	if filter.CustomerID != 0 {
		addCondition("cliente_id = $%d", filter.CustomerID)
	}
	if filter.VoucherType != 0 {
		addCondition("tipo_comprobante = $%d", int(filter.VoucherType))
	}
	if filter.Status != "" {
		addCondition("estado = $%d", string(filter.Status))
	}
	if filter.DateFrom != nil {
		addCondition("fecha >= $%d", *filter.DateFrom)
	}
	if filter.DateTo != nil {
		addCondition("fecha <= $%d", *filter.DateTo)
	}

	whereClause := ""
	if len(whereConditions) > 0 {
		whereClause = "WHERE " + strings.Join(whereConditions, " AND ")
	}

	countQuery := "SELECT COUNT(*) FROM facturas " + whereClause
	var total int
	if err := r.pool.QueryRow(ctx, countQuery, queryArgs...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count invoices: %w", err)
	}

	query := fmt.Sprintf(`
		SELECT %s FROM facturas
		%s
		ORDER BY fecha DESC, id DESC
		LIMIT $%d OFFSET $%d
	`, invoiceColumns, whereClause, argIndex, argIndex+1)
	queryArgs = append(queryArgs, filter.Limit, filter.Offset)

	rows, err := r.pool.Query(ctx, query, queryArgs...)
	if err != nil {
		return nil, 0, fmt.Errorf("query invoices: %w", err)
	}
	defer rows.Close()

	invoices := []invoice.Invoice{}
	for rows.Next() {
		inv, err := scanInvoice(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("scan invoice: %w", err)
		}
		invoices = append(invoices, *inv)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("iterate rows: %w", err)
	}

	return invoices, total, nil
}

// CountByCustomer returns how many invoices reference a customer.
func (r *Repository) CountByCustomer(ctx context.Context, customerID int64) (int, error) {
	var count int
	err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM facturas WHERE cliente_id = $1`, customerID).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count customer invoices: %w", err)
	}
	return count, nil
}

func (r *Repository) findCustomer(ctx context.Context, id int64) (*customer.Customer, error) {
	query := `
		SELECT id, razon_social, cuit, condicion_iva, domicilio, email, telefono, created_at, updated_at
		FROM clientes WHERE id = $1
	`

	var c customer.Customer
	var category string
	err := r.pool.QueryRow(ctx, query, id).Scan(
		&c.ID,
		&c.LegalName,
		&c.CUIT,
		&category,
		&c.Address,
		&c.Email,
		&c.Phone,
		&c.CreatedAt,
		&c.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("query invoice customer: %w", err)
	}

	c.TaxCategory = customer.TaxCategory(category)
	return &c, nil
}

func (r *Repository) findItems(ctx context.Context, invoiceID int64) ([]invoice.LineItem, error) {
	query := `
		SELECT id, descripcion, cantidad, precio_unitario, alicuota_iva, subtotal
		FROM factura_items
		WHERE factura_id = $1
		ORDER BY id
	`

	rows, err := r.pool.Query(ctx, query, invoiceID)
	if err != nil {
		return nil, fmt.Errorf("query invoice items: %w", err)
	}
	defer rows.Close()

	items := []invoice.LineItem{}
	for rows.Next() {
		var item invoice.LineItem
		var rate int
		if err := rows.Scan(
			&item.ID,
			&item.Description,
			&item.Quantity,
			&item.UnitPrice,
			&rate,
			&item.Subtotal,
		); err != nil {
			return nil, fmt.Errorf("scan invoice item: %w", err)
		}
		item.VATRate = invoice.VATRate(rate)
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate rows: %w", err)
	}

	return items, nil
}

func scanInvoice(row pgx.Row) (*invoice.Invoice, error) {
	var inv invoice.Invoice
	var voucherType, concept int
	var status string

	err := row.Scan(
		&inv.ID,
		&inv.CustomerID,
		&voucherType,
		&inv.SalesPoint,
		&inv.Number,
		&inv.IssueDate,
		&inv.CAE,
		&inv.CAEExpiry,
		&status,
		&inv.Net,
		&inv.VAT21,
		&inv.VAT105,
		&inv.VAT27,
		&inv.Total,
		&concept,
		&inv.Notes,
		&inv.CreatedAt,
	)
	if err != nil {
		return nil, err
	}

	inv.VoucherType = invoice.VoucherType(voucherType)
	inv.Status = invoice.Status(status)
	inv.Concept = concept
	return &inv, nil
}
