// Package postgres persists customers in PostgreSQL.
package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/damianpacheco/facturacion-arca/internal/core/customer"
)

// Repository implements customer.Repository using PostgreSQL.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates a new PostgreSQL customer repository.
func NewRepository(pool *pgxpool.Pool) customer.Repository {
	return &Repository{pool: pool}
}

const customerColumns = `id, razon_social, cuit, condicion_iva, domicilio, email, telefono, created_at, updated_at`

// Create persists a new customer.
func (r *Repository) Create(ctx context.Context, c customer.Customer) (*customer.Customer, error) {
	query := `
		INSERT INTO clientes (razon_social, cuit, condicion_iva, domicilio, email, telefono)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, created_at, updated_at
	`

	err := r.pool.QueryRow(ctx, query,
		c.LegalName,
		c.CUIT,
		string(c.TaxCategory),
		c.Address,
		c.Email,
		c.Phone,
	).Scan(&c.ID, &c.CreatedAt, &c.UpdatedAt)

	if err != nil {
		if isUniqueViolation(err) {
			return nil, customer.ErrDuplicateCUIT
		}
		return nil, fmt.Errorf("create customer: %w", err)
	}

	return &c, nil
}

// Update updates an existing customer.
func (r *Repository) Update(ctx context.Context, c customer.Customer) error {
	query := `
		UPDATE clientes SET
			razon_social = $1,
			cuit = $2,
			condicion_iva = $3,
			domicilio = $4,
			email = $5,
			telefono = $6,
			updated_at = NOW()
		WHERE id = $7
	`

	result, err := r.pool.Exec(ctx, query,
		c.LegalName,
		c.CUIT,
		string(c.TaxCategory),
		c.Address,
		c.Email,
		c.Phone,
		c.ID,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return customer.ErrDuplicateCUIT
		}
		return fmt.Errorf("update customer: %w", err)
	}

	if result.RowsAffected() == 0 {
		return customer.ErrNotFound
	}
	return nil
}

// FindByID retrieves a customer by ID.
func (r *Repository) FindByID(ctx context.Context, id int64) (*customer.Customer, error) {
	query := `SELECT ` + customerColumns + ` FROM clientes WHERE id = $1`

	c, err := scanCustomer(r.pool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, customer.ErrNotFound
		}
		return nil, fmt.Errorf("query customer: %w", err)
	}
	return c, nil
}

// FindByCUIT retrieves a customer by CUIT, or nil when none exists.
func (r *Repository) FindByCUIT(ctx context.Context, cuit string) (*customer.Customer, error) {
	query := `SELECT ` + customerColumns + ` FROM clientes WHERE cuit = $1 ORDER BY id LIMIT 1`

	c, err := scanCustomer(r.pool.QueryRow(ctx, query, cuit))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("query customer by cuit: %w", err)
	}
	return c, nil
}

// List retrieves customers with pagination and optional search over legal
// name and CUIT.
func (r *Repository) List(ctx context.Context, offset, limit int, search string) ([]customer.Customer, int, error) {
	whereClause := ""
	queryArgs := []interface{}{}
	argIndex := 1

	if search != "" {
		whereClause = fmt.Sprintf("WHERE (razon_social ILIKE $%d OR cuit LIKE $%d)", argIndex, argIndex)
		queryArgs = append(queryArgs, "%"+search+"%")
		argIndex++
	}

	countQuery := "SELECT COUNT(*) FROM clientes " + whereClause
	var total int
	if err := r.pool.QueryRow(ctx, countQuery, queryArgs...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count customers: %w", err)
	}

	query := fmt.Sprintf(`
		SELECT %s FROM clientes
		%s
		ORDER BY razon_social, id
		LIMIT $%d OFFSET $%d
	`, customerColumns, whereClause, argIndex, argIndex+1)
	queryArgs = append(queryArgs, limit, offset)

	rows, err := r.pool.Query(ctx, query, queryArgs...)
	if err != nil {
		return nil, 0, fmt.Errorf("query customers: %w", err)
	}
	defer rows.Close()

	customers := []customer.Customer{}
	for rows.Next() {
		c, err := scanCustomer(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("scan customer: %w", err)
		}
		customers = append(customers, *c)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("iterate rows: %w", err)
	}

	return customers, total, nil
}

// Delete removes a customer.
func (r *Repository) Delete(ctx context.Context, id int64) error {
	result, err := r.pool.Exec(ctx, `DELETE FROM clientes WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete customer: %w", err)
	}
	if result.RowsAffected() == 0 {
		return customer.ErrNotFound
	}
	return nil
}

func scanCustomer(row pgx.Row) (*customer.Customer, error) {
	var c customer.Customer
	var category string

	err := row.Scan(
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
		return nil, err
	}

	c.TaxCategory = customer.TaxCategory(category)
	return &c, nil
}

func isUniqueViolation(err error) bool {
	return strings.Contains(err.Error(), "duplicate key") || strings.Contains(err.Error(), "unique constraint")
}
