// Package customer orchestrates customer CRUD use cases.
package customer

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/damianpacheco/facturacion-arca/internal/core/customer"
	"github.com/damianpacheco/facturacion-arca/internal/core/invoice"
)

// Service orchestrates customer-related use cases.
type Service struct {
	repo     customer.Repository
	invoices invoice.Repository
	log      *slog.Logger
}

// NewService creates a new customer service.
func NewService(repo customer.Repository, invoices invoice.Repository, log *slog.Logger) *Service {
	return &Service{repo: repo, invoices: invoices, log: log}
}

// CreateRequest carries the data to create a customer.
type CreateRequest struct {
	LegalName   string               `json:"razon_social"`
	CUIT        string               `json:"cuit"`
	TaxCategory customer.TaxCategory `json:"condicion_iva"`
	Address     string               `json:"domicilio"`
	Email       string               `json:"email"`
	Phone       string               `json:"telefono"`
}

// UpdateRequest carries a partial customer update. Nil fields are untouched.
type UpdateRequest struct {
	LegalName   *string               `json:"razon_social"`
	CUIT        *string               `json:"cuit"`
	TaxCategory *customer.TaxCategory `json:"condicion_iva"`
	Address     *string               `json:"domicilio"`
	Email       *string               `json:"email"`
	Phone       *string               `json:"telefono"`
}

// ListResponse is the paginated customer listing.
type ListResponse struct {
	Items []customer.Customer `json:"items"`
	Total int                 `json:"total"`
}

// List returns customers with pagination and optional search over legal name
// and CUIT.
func (s *Service) List(ctx context.Context, offset, limit int, search string) (*ListResponse, error) {
	if offset < 0 {
		offset = 0
	}
	if limit <= 0 || limit > 100 {
		limit = 50
	}

	customers, total, err := s.repo.List(ctx, offset, limit, strings.TrimSpace(search))
	if err != nil {
		return nil, fmt.Errorf("list customers: %w", err)
	}

	return &ListResponse{Items: customers, Total: total}, nil
}

// Get returns a customer by ID.
func (s *Service) Get(ctx context.Context, id int64) (*customer.Customer, error) {
	return s.repo.FindByID(ctx, id)
}

// Create validates and persists a new customer.
func (s *Service) Create(ctx context.Context, req CreateRequest) (*customer.Customer, error) {
	c := customer.Customer{
		LegalName:   strings.TrimSpace(req.LegalName),
		CUIT:        customer.NormalizeCUIT(req.CUIT),
		TaxCategory: req.TaxCategory,
		Address:     strings.TrimSpace(req.Address),
		Email:       strings.TrimSpace(req.Email),
		Phone:       strings.TrimSpace(req.Phone),
	}

	if err := s.validate(c); err != nil {
		return nil, err
	}

	// The sentinel CUIT identifies anonymous final consumers and may repeat.
	if c.CUIT != customer.SentinelCUIT {
		existing, err := s.repo.FindByCUIT(ctx, c.CUIT)
		if err != nil {
			return nil, fmt.Errorf("check duplicate CUIT: %w", err)
		}
		if existing != nil {
			return nil, customer.ErrDuplicateCUIT
		}
	}

	created, err := s.repo.Create(ctx, c)
	if err != nil {
		return nil, fmt.Errorf("create customer: %w", err)
	}

	s.log.Info("customer created", "id", created.ID, "cuit", created.CUIT)
	return created, nil
}

// Update applies a partial update to an existing customer.
func (s *Service) Update(ctx context.Context, id int64, req UpdateRequest) (*customer.Customer, error) {
	c, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if req.LegalName != nil {
		c.LegalName = strings.TrimSpace(*req.LegalName)
	}
	if req.CUIT != nil {
		c.CUIT = customer.NormalizeCUIT(*req.CUIT)
	}
	if req.TaxCategory != nil {
		c.TaxCategory = *req.TaxCategory
	}
	if req.Address != nil {
		c.Address = strings.TrimSpace(*req.Address)
	}
	if req.Email != nil {
		c.Email = strings.TrimSpace(*req.Email)
	}
	if req.Phone != nil {
		c.Phone = strings.TrimSpace(*req.Phone)
	}

	if err := s.validate(*c); err != nil {
		return nil, err
	}

	if req.CUIT != nil && c.CUIT != customer.SentinelCUIT {
		existing, err := s.repo.FindByCUIT(ctx, c.CUIT)
		if err != nil {
			return nil, fmt.Errorf("check duplicate CUIT: %w", err)
		}
		if existing != nil && existing.ID != id {
			return nil, customer.ErrDuplicateCUIT
		}
	}

	if err := s.repo.Update(ctx, *c); err != nil {
		return nil, fmt.Errorf("update customer: %w", err)
	}

	return c, nil
}

// Delete removes a customer. Customers with invoices on file cannot be
// deleted.
func (s *Service) Delete(ctx context.Context, id int64) error {
	if _, err := s.repo.FindByID(ctx, id); err != nil {
		return err
	}

	count, err := s.invoices.CountByCustomer(ctx, id)
	if err != nil {
		return fmt.Errorf("count customer invoices: %w", err)
	}
	if count > 0 {
		return customer.ErrHasInvoices
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		return fmt.Errorf("delete customer: %w", err)
	}

	s.log.Info("customer deleted", "id", id)
	return nil
}

func (s *Service) validate(c customer.Customer) error {
	if c.LegalName == "" {
		return &customer.ValidationError{Field: "razon_social", Message: "la razón social es requerida"}
	}
	if !c.TaxCategory.Valid() {
		return &customer.ValidationError{Field: "condicion_iva", Message: "condición de IVA inválida"}
	}
	if err := customer.ValidateCUIT(c.CUIT); err != nil {
		return err
	}
	return nil
}
