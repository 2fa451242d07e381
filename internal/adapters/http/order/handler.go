// Package order exposes the TiendaNube order listing and order-to-invoice
// endpoints.
package order

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/damianpacheco/facturacion-arca/internal/adapters/tiendanube"
	apporder "github.com/damianpacheco/facturacion-arca/internal/application/order"
	"github.com/damianpacheco/facturacion-arca/internal/core/customer"
	"github.com/damianpacheco/facturacion-arca/internal/core/invoice"
	"github.com/damianpacheco/facturacion-arca/internal/core/order"
	httperrors "github.com/damianpacheco/facturacion-arca/internal/infrastructure/http"
)

// Handler bridges HTTP traffic with the order integration service.
type Handler struct {
	service *apporder.Service
	log     *slog.Logger
}

// NewHandler creates a new order HTTP handler.
func NewHandler(service *apporder.Service, log *slog.Logger) *Handler {
	return &Handler{service: service, log: log}
}

// List handles GET /api/ordenes with platform filters plus the local
// invoiced state.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	query := apporder.ListQuery{
		Status:        q.Get("status"),
		PaymentStatus: q.Get("payment_status"),
	}

	if raw := q.Get("page"); raw != "" {
		v, err := strconv.Atoi(raw)
		if err != nil || v < 1 {
			httperrors.WriteError(w, http.StatusBadRequest, "Error de Validación", []string{"page debe ser un número entero positivo"}, h.log)
			return
		}
		query.Page = v
	}
	if raw := q.Get("per_page"); raw != "" {
		v, err := strconv.Atoi(raw)
		if err != nil || v < 1 {
			httperrors.WriteError(w, http.StatusBadRequest, "Error de Validación", []string{"per_page debe ser un número entero positivo"}, h.log)
			return
		}
		query.PerPage = v
	}
	if raw := q.Get("invoiced"); raw != "" {
		v, err := strconv.ParseBool(raw)
		if err != nil {
			httperrors.WriteError(w, http.StatusBadRequest, "Error de Validación", []string{"invoiced debe ser true o false"}, h.log)
			return
		}
		query.Invoiced = &v
	}

	response, err := h.service.ListOrders(r.Context(), query)
	if err != nil {
		h.handleError(w, err)
		return
	}

	httperrors.WriteJSON(w, http.StatusOK, response, h.log)
}

// Get handles GET /api/ordenes/{orderID}.
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	orderID, ok := h.parseOrderID(w, r)
	if !ok {
		return
	}

	detail, err := h.service.GetOrder(r.Context(), orderID)
	if err != nil {
		h.handleError(w, err)
		return
	}

	httperrors.WriteJSON(w, http.StatusOK, detail, h.log)
}

// InvoiceRequest is the optional body of a manual invoicing request.
type InvoiceRequest struct {
	VoucherType *int `json:"tipo_comprobante"`
}

// Invoice handles POST /api/ordenes/{orderID}/facturar. The body is optional;
// without it the store's default voucher type applies.
func (h *Handler) Invoice(w http.ResponseWriter, r *http.Request) {
	orderID, ok := h.parseOrderID(w, r)
	if !ok {
		return
	}

	var req InvoiceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		httperrors.WriteError(w, http.StatusBadRequest, "Error de Validación", []string{"El cuerpo de la petición no es válido"}, h.log)
		return
	}

	var requestedType *invoice.VoucherType
	if req.VoucherType != nil {
		vt := invoice.VoucherType(*req.VoucherType)
		if !vt.Valid() {
			httperrors.WriteError(w, http.StatusBadRequest, "Error de Validación", []string{"tipo_comprobante inválido"}, h.log)
			return
		}
		requestedType = &vt
	}

	result, err := h.service.InvoiceOrder(r.Context(), orderID, requestedType)
	if err != nil {
		h.handleError(w, err)
		return
	}

	httperrors.WriteJSON(w, http.StatusCreated, result, h.log)
}

// OverrideRequest carries customer data to use instead of the order payload.
type OverrideRequest struct {
	LegalName   string `json:"razon_social"`
	CUIT        string `json:"cuit"`
	TaxCategory string `json:"condicion_iva"`
}

// SetOverride handles PUT /api/ordenes/{orderID}/cliente.
func (h *Handler) SetOverride(w http.ResponseWriter, r *http.Request) {
	orderID, ok := h.parseOrderID(w, r)
	if !ok {
		return
	}

	var req OverrideRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httperrors.WriteError(w, http.StatusBadRequest, "Error de Validación", []string{"El cuerpo de la petición no es válido"}, h.log)
		return
	}

	ov := order.Override{
		LegalName:   req.LegalName,
		CUIT:        req.CUIT,
		TaxCategory: customer.TaxCategory(req.TaxCategory),
	}
	if err := h.service.SetOverride(r.Context(), orderID, ov); err != nil {
		h.handleError(w, err)
		return
	}

	httperrors.WriteJSON(w, http.StatusOK, map[string]any{"success": true}, h.log)
}

func (h *Handler) parseOrderID(w http.ResponseWriter, r *http.Request) (string, bool) {
	orderID := chi.URLParam(r, "orderID")
	if orderID == "" {
		httperrors.WriteError(w, http.StatusBadRequest, "Error de Validación", []string{"orderID es requerido en la URL"}, h.log)
		return "", false
	}
	return orderID, true
}

func (h *Handler) handleError(w http.ResponseWriter, err error) {
	var custValidation *customer.ValidationError
	var invValidation *invoice.ValidationError
	var mismatch *invoice.TaxClassMismatchError
	var submission *invoice.SubmissionError
	var apiErr *tiendanube.APIError

	switch {
	case errors.Is(err, order.ErrAlreadyInvoiced):
		httperrors.WriteError(w, http.StatusBadRequest, "Error de Validación", []string{"La orden ya fue facturada"}, h.log)
	case errors.As(err, &custValidation):
		httperrors.WriteError(w, http.StatusBadRequest, "Error de Validación", []string{custValidation.Error()}, h.log)
	case errors.As(err, &invValidation):
		httperrors.WriteError(w, http.StatusBadRequest, "Error de Validación", []string{invValidation.Error()}, h.log)
	case errors.As(err, &mismatch):
		httperrors.WriteError(w, http.StatusBadRequest, "Error de Validación", []string{mismatch.Error()}, h.log)
	case errors.Is(err, order.ErrStoreNotConnected):
		httperrors.WriteError(w, http.StatusNotFound, "No Encontrado", []string{"No hay una tienda conectada"}, h.log)
	case errors.As(err, &submission):
		h.log.Error("voucher submission failed", "error", err)
		httperrors.WriteError(w, http.StatusBadGateway, "Error del Servicio de Facturación", []string{submission.Error()}, h.log)
	case errors.As(err, &apiErr):
		h.log.Error("tiendanube API error", "status", apiErr.StatusCode, "error", err)
		httperrors.WriteError(w, http.StatusBadGateway, "Error de TiendaNube", []string{"La API de TiendaNube devolvió un error"}, h.log)
	default:
		h.log.Error("order handler error", "error", err)
		httperrors.WriteError(w, http.StatusInternalServerError, "Error Interno del Servidor", []string{"Ha ocurrido un error interno"}, h.log)
	}
}
