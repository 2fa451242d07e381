// Package postgres runs the sales-aggregation queries against PostgreSQL.
package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/damianpacheco/facturacion-arca/internal/core/analytics"
)

// Repository implements analytics.Repository using PostgreSQL.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates a new PostgreSQL analytics repository.
func NewRepository(pool *pgxpool.Pool) analytics.Repository {
	return &Repository{pool: pool}
}

// CountInvoices counts every invoice regardless of state.
func (r *Repository) CountInvoices(ctx context.Context) (int, error) {
	var count int
	err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM facturas`).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count invoices: %w", err)
	}
	return count, nil
}

// SalesInRange sums authorized sales from the given date, inclusive. A nil
// upper bound leaves the range open.
func (r *Repository) SalesInRange(ctx context.Context, from time.Time, to *time.Time) (analytics.PeriodSales, error) {
	query := `
		SELECT COALESCE(SUM(total), 0), COUNT(*)
		FROM facturas
		WHERE estado = 'autorizada' AND fecha >= $1 AND ($2::date IS NULL OR fecha <= $2)
	`

	var ps analytics.PeriodSales
	if err := r.pool.QueryRow(ctx, query, from, to).Scan(&ps.Total, &ps.Count); err != nil {
		return analytics.PeriodSales{}, fmt.Errorf("sum sales: %w", err)
	}
	return ps, nil
}

// TopCustomers ranks customers by authorized sales since the given date.
func (r *Repository) TopCustomers(ctx context.Context, from time.Time, limit int) ([]analytics.CustomerSales, error) {
	query := `
		SELECT c.razon_social, SUM(f.total), COUNT(f.id)
		FROM facturas f
		JOIN clientes c ON f.cliente_id = c.id
		WHERE f.estado = 'autorizada' AND f.fecha >= $1
		GROUP BY c.id, c.razon_social
		ORDER BY SUM(f.total) DESC
		LIMIT $2
	`

	rows, err := r.pool.Query(ctx, query, from, limit)
	if err != nil {
		return nil, fmt.Errorf("query top customers: %w", err)
	}
	defer rows.Close()

	var ranking []analytics.CustomerSales
	for rows.Next() {
		var cs analytics.CustomerSales
		if err := rows.Scan(&cs.Name, &cs.Total, &cs.Count); err != nil {
			return nil, fmt.Errorf("scan top customer: %w", err)
		}
		ranking = append(ranking, cs)
	}
	return ranking, rows.Err()
}

// TopProducts ranks line descriptions by authorized sales since the given
// date.
func (r *Repository) TopProducts(ctx context.Context, from time.Time, limit int) ([]analytics.ProductSales, error) {
	query := `
		SELECT i.descripcion, SUM(i.cantidad), SUM(i.subtotal)
		FROM factura_items i
		JOIN facturas f ON i.factura_id = f.id
		WHERE f.estado = 'autorizada' AND f.fecha >= $1
		GROUP BY i.descripcion
		ORDER BY SUM(i.subtotal) DESC
		LIMIT $2
	`

	rows, err := r.pool.Query(ctx, query, from, limit)
	if err != nil {
		return nil, fmt.Errorf("query top products: %w", err)
	}
	defer rows.Close()

	var ranking []analytics.ProductSales
	for rows.Next() {
		var ps analytics.ProductSales
		if err := rows.Scan(&ps.Description, &ps.Quantity, &ps.Total); err != nil {
			return nil, fmt.Errorf("scan top product: %w", err)
		}
		ranking = append(ranking, ps)
	}
	return ranking, rows.Err()
}

// SalesByWeekday groups authorized sales since the given date by day of
// week, best-selling day first.
func (r *Repository) SalesByWeekday(ctx context.Context, from time.Time) ([]analytics.WeekdaySales, error) {
	query := `
		SELECT EXTRACT(DOW FROM fecha)::int, SUM(total), COUNT(*)
		FROM facturas
		WHERE estado = 'autorizada' AND fecha >= $1
		GROUP BY 1
		ORDER BY SUM(total) DESC
	`

	rows, err := r.pool.Query(ctx, query, from)
	if err != nil {
		return nil, fmt.Errorf("query sales by weekday: %w", err)
	}
	defer rows.Close()

	var days []analytics.WeekdaySales
	for rows.Next() {
		var ws analytics.WeekdaySales
		if err := rows.Scan(&ws.Weekday, &ws.Total, &ws.Count); err != nil {
			return nil, fmt.Errorf("scan weekday sales: %w", err)
		}
		days = append(days, ws)
	}
	return days, rows.Err()
}

// RecentInvoices returns the latest invoices in any state, newest first.
func (r *Repository) RecentInvoices(ctx context.Context, limit int) ([]analytics.RecentInvoice, error) {
	query := `
		SELECT f.punto_venta, f.numero, c.razon_social, f.total, f.fecha
		FROM facturas f
		JOIN clientes c ON f.cliente_id = c.id
		ORDER BY f.fecha DESC, f.id DESC
		LIMIT $1
	`

	rows, err := r.pool.Query(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("query recent invoices: %w", err)
	}
	defer rows.Close()

	var recent []analytics.RecentInvoice
	for rows.Next() {
		var (
			salesPoint int
			number     int64
			ri         analytics.RecentInvoice
		)
		if err := rows.Scan(&salesPoint, &number, &ri.Customer, &ri.Total, &ri.Date); err != nil {
			return nil, fmt.Errorf("scan recent invoice: %w", err)
		}
		ri.Number = fmt.Sprintf("%04d-%08d", salesPoint, number)
		recent = append(recent, ri)
	}
	return recent, rows.Err()
}
