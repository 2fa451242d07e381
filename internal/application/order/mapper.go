package order

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/damianpacheco/facturacion-arca/internal/adapters/tiendanube"
	invoiceapp "github.com/damianpacheco/facturacion-arca/internal/application/invoice"
	"github.com/damianpacheco/facturacion-arca/internal/core/customer"
	"github.com/damianpacheco/facturacion-arca/internal/core/invoice"
	"github.com/damianpacheco/facturacion-arca/internal/core/order"
)

// CustomerFromOrder derives the billable customer from an order payload.
//
// The billing name wins over the embedded customer name; an order without
// either is billed to an anonymous final consumer. Responsable Inscripto is
// only assumed when the buyer explicitly asked for a company invoice with a
// CUIT document; everything else is Consumidor Final. Identifications that do
// not pass the CUIT checksum fall back to the anonymous sentinel rather than
// aborting the sale.
func CustomerFromOrder(o tiendanube.Order) customer.Customer {
	name := o.BillingName
	email := o.ContactEmail
	identification := o.ContactIdentification

	if o.Customer != nil {
		if name == "" {
			name = o.Customer.Name
		}
		if email == "" {
			email = o.Customer.Email
		}
		if identification == "" {
			identification = o.Customer.Identification
		}
	}
	if name == "" {
		name = "Consumidor Final"
	}

	cuit := customer.NormalizeCUIT(identification)
	if customer.ValidateCUIT(cuit) != nil {
		cuit = customer.SentinelCUIT
	}

	category := customer.ConsumidorFinal
	if o.BillingCustomerType == "company" && o.BillingDocumentType == "cuit" && cuit != customer.SentinelCUIT {
		category = customer.ResponsableInscripto
	}

	return customer.Customer{
		LegalName:   name,
		CUIT:        cuit,
		TaxCategory: category,
		Address:     o.BillingAddress,
		Email:       email,
		Phone:       o.ContactPhone,
	}
}

// ApplyOverride replaces customer fields with manually captured data.
func ApplyOverride(c customer.Customer, ov *order.Override) customer.Customer {
	if ov == nil {
		return c
	}
	if ov.LegalName != "" {
		c.LegalName = ov.LegalName
	}
	if ov.CUIT != "" {
		c.CUIT = customer.NormalizeCUIT(ov.CUIT)
	}
	if ov.TaxCategory != "" {
		c.TaxCategory = ov.TaxCategory
	}
	return c
}

// ItemsFromOrder converts order products into invoice line items at the
// general 21% bracket. An order without product lines becomes a single line
// for the order total.
func ItemsFromOrder(o tiendanube.Order) ([]invoiceapp.ItemRequest, error) {
	rate := invoice.VAT21

	if len(o.Products) == 0 {
		total, err := decimal.NewFromString(o.Total)
		if err != nil {
			return nil, fmt.Errorf("parse order total %q: %w", o.Total, err)
		}
		return []invoiceapp.ItemRequest{{
			Description: fmt.Sprintf("Orden #%d", o.Number),
			Quantity:    decimal.NewFromInt(1),
			UnitPrice:   total,
			VATRate:     &rate,
		}}, nil
	}

	items := make([]invoiceapp.ItemRequest, 0, len(o.Products))
	for _, p := range o.Products {
		quantity, err := decimal.NewFromString(p.Quantity)
		if err != nil {
			return nil, fmt.Errorf("parse quantity %q: %w", p.Quantity, err)
		}
		price, err := decimal.NewFromString(p.Price)
		if err != nil {
			return nil, fmt.Errorf("parse price %q: %w", p.Price, err)
		}

		description := p.Name
		if description == "" {
			description = "Producto"
		}

		items = append(items, invoiceapp.ItemRequest{
			Description: description,
			Quantity:    quantity,
			UnitPrice:   price,
			VATRate:     &rate,
		})
	}
	return items, nil
}
