// Package order holds the domain model for connected TiendaNube stores and
// the tracking records correlating platform orders with locally issued
// invoices.
package order

import (
	"time"

	"github.com/damianpacheco/facturacion-arca/internal/core/customer"
)

// Store is a TiendaNube shop connected through OAuth.
type Store struct {
	ID                 int64     `json:"id"`
	StoreID            string    `json:"store_id"`
	AccessToken        string    `json:"-"`
	Name               string    `json:"store_name,omitempty"`
	URL                string    `json:"store_url,omitempty"`
	Email              string    `json:"store_email,omitempty"`
	OwnerName          string    `json:"owner_name,omitempty"`
	OwnerEmail         string    `json:"owner_email,omitempty"`
	AutoInvoice        bool      `json:"auto_invoice"`
	DefaultVoucherType int       `json:"default_invoice_type"`
	Active             bool      `json:"is_active"`
	CreatedAt          time.Time `json:"created_at"`
	UpdatedAt          time.Time `json:"updated_at"`
}

// Record tracks one platform order and whether it was invoiced locally.
type Record struct {
	ID            int64      `json:"id"`
	StoreID       string     `json:"store_id"`
	OrderID       string     `json:"order_id"`
	OrderNumber   int64      `json:"order_number,omitempty"`
	Invoiced      bool       `json:"invoiced"`
	InvoiceID     *int64     `json:"factura_id,omitempty"`
	OrderTotal    string     `json:"order_total,omitempty"`
	OrderStatus   string     `json:"order_status,omitempty"`
	PaymentStatus string     `json:"payment_status,omitempty"`
	CustomerName  string     `json:"customer_name,omitempty"`
	CustomerEmail string     `json:"customer_email,omitempty"`
	CustomerCUIT  string     `json:"customer_identification,omitempty"`
	Override      *Override  `json:"customer_override,omitempty"`
	InvoicedAt    *time.Time `json:"invoiced_at,omitempty"`
	CreatedAt     time.Time  `json:"created_at"`
}

// Override is customer data captured manually before invoicing an order; it
// takes precedence over whatever the platform payload carries.
type Override struct {
	LegalName   string               `json:"razon_social,omitempty"`
	CUIT        string               `json:"cuit,omitempty"`
	TaxCategory customer.TaxCategory `json:"condicion_iva,omitempty"`
}
