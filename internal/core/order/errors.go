package order

import "errors"

// ErrStoreNotConnected is returned when no active store exists.
var ErrStoreNotConnected = errors.New("no hay tienda de TiendaNube conectada")

// ErrAlreadyInvoiced is returned when invoicing an order that already has an
// invoice on file.
var ErrAlreadyInvoiced = errors.New("esta orden ya fue facturada")
