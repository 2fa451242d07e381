// Package invoice exposes the invoice issuance, listing and PDF endpoints.
package invoice

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/damianpacheco/facturacion-arca/internal/adapters/document"
	appinvoice "github.com/damianpacheco/facturacion-arca/internal/application/invoice"
	"github.com/damianpacheco/facturacion-arca/internal/core/customer"
	"github.com/damianpacheco/facturacion-arca/internal/core/invoice"
	httperrors "github.com/damianpacheco/facturacion-arca/internal/infrastructure/http"
)

// Handler bridges HTTP traffic with the invoice application service.
type Handler struct {
	service  *appinvoice.Service
	renderer *document.Renderer
	log      *slog.Logger
}

// NewHandler creates a new invoice HTTP handler.
func NewHandler(service *appinvoice.Service, renderer *document.Renderer, log *slog.Logger) *Handler {
	return &Handler{service: service, renderer: renderer, log: log}
}

// List handles GET /api/facturas with pagination and filters.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	filter, ok := h.parseFilter(w, r)
	if !ok {
		return
	}

	response, err := h.service.List(r.Context(), filter)
	if err != nil {
		h.handleError(w, err)
		return
	}

	httperrors.WriteJSON(w, http.StatusOK, response, h.log)
}

// Get handles GET /api/facturas/{id}.
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := h.parseID(w, r)
	if !ok {
		return
	}

	inv, err := h.service.Get(r.Context(), id)
	if err != nil {
		h.handleError(w, err)
		return
	}

	httperrors.WriteJSON(w, http.StatusOK, inv, h.log)
}

// Issue handles POST /api/facturas: authorizes the voucher against ARCA and
// persists the result.
func (h *Handler) Issue(w http.ResponseWriter, r *http.Request) {
	var req appinvoice.IssueRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httperrors.WriteError(w, http.StatusBadRequest, "Error de Validación", []string{"El cuerpo de la petición no es válido"}, h.log)
		return
	}

	inv, err := h.service.Issue(r.Context(), req)
	if err != nil {
		h.handleError(w, err)
		return
	}

	httperrors.WriteJSON(w, http.StatusCreated, inv, h.log)
}

// DownloadPDF handles GET /api/facturas/{id}/pdf.
func (h *Handler) DownloadPDF(w http.ResponseWriter, r *http.Request) {
	id, ok := h.parseID(w, r)
	if !ok {
		return
	}

	inv, err := h.service.Get(r.Context(), id)
	if err != nil {
		h.handleError(w, err)
		return
	}

	pdf, err := h.renderer.Render(*inv)
	if err != nil {
		h.log.Error("render invoice PDF", "factura_id", id, "error", err)
		httperrors.WriteError(w, http.StatusInternalServerError, "Error Interno del Servidor", []string{"No se pudo generar el PDF"}, h.log)
		return
	}

	filename := fmt.Sprintf("factura_%04d_%08d.pdf", inv.SalesPoint, inv.Number)
	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	w.Header().Set("Cache-Control", "no-cache, no-store, must-revalidate")
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(pdf); err != nil {
		h.log.Error("write PDF response", "factura_id", id, "error", err)
	}
}

func (h *Handler) parseFilter(w http.ResponseWriter, r *http.Request) (invoice.ListFilter, bool) {
	var filter invoice.ListFilter
	q := r.URL.Query()

	filter.Limit = 50
	intParams := []struct {
		name string
		dst  *int
	}{
		{"skip", &filter.Offset},
		{"limit", &filter.Limit},
	}
	for _, p := range intParams {
		if raw := q.Get(p.name); raw != "" {
			v, err := strconv.Atoi(raw)
			if err != nil || v < 0 {
				httperrors.WriteError(w, http.StatusBadRequest, "Error de Validación", []string{p.name + " debe ser un número entero no negativo"}, h.log)
				return filter, false
			}
			*p.dst = v
		}
	}

	if raw := q.Get("cliente_id"); raw != "" {
		v, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || v <= 0 {
			httperrors.WriteError(w, http.StatusBadRequest, "Error de Validación", []string{"cliente_id debe ser un número entero positivo"}, h.log)
			return filter, false
		}
		filter.CustomerID = v
	}

	if raw := q.Get("tipo_comprobante"); raw != "" {
		v, err := strconv.Atoi(raw)
		if err != nil || !invoice.VoucherType(v).Valid() {
			httperrors.WriteError(w, http.StatusBadRequest, "Error de Validación", []string{"tipo_comprobante inválido"}, h.log)
			return filter, false
		}
		filter.VoucherType = invoice.VoucherType(v)
	}

	filter.Status = invoice.Status(q.Get("estado"))

	dateParams := []struct {
		name string
		dst  **time.Time
	}{
		{"fecha_desde", &filter.DateFrom},
		{"fecha_hasta", &filter.DateTo},
	}
	for _, p := range dateParams {
		if raw := q.Get(p.name); raw != "" {
			t, err := time.Parse("2006-01-02", raw)
			if err != nil {
				httperrors.WriteError(w, http.StatusBadRequest, "Error de Validación", []string{p.name + " debe tener formato YYYY-MM-DD"}, h.log)
				return filter, false
			}
			*p.dst = &t
		}
	}

	return filter, true
}

func (h *Handler) parseID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		httperrors.WriteError(w, http.StatusBadRequest, "Error de Validación", []string{"id debe ser un número entero positivo"}, h.log)
		return 0, false
	}
	return id, true
}

func (h *Handler) handleError(w http.ResponseWriter, err error) {
	var invValidation *invoice.ValidationError
	var custValidation *customer.ValidationError
	var mismatch *invoice.TaxClassMismatchError
	var submission *invoice.SubmissionError

	switch {
	case errors.As(err, &invValidation):
		httperrors.WriteError(w, http.StatusBadRequest, "Error de Validación", []string{invValidation.Error()}, h.log)
	case errors.As(err, &custValidation):
		httperrors.WriteError(w, http.StatusBadRequest, "Error de Validación", []string{custValidation.Error()}, h.log)
	case errors.As(err, &mismatch):
		httperrors.WriteError(w, http.StatusBadRequest, "Error de Validación", []string{mismatch.Error()}, h.log)
	case errors.As(err, &submission):
		h.log.Error("voucher submission failed", "error", err)
		httperrors.WriteError(w, http.StatusBadGateway, "Error del Servicio de Facturación", []string{submission.Error()}, h.log)
	case errors.Is(err, invoice.ErrNotFound):
		httperrors.WriteError(w, http.StatusNotFound, "No Encontrado", []string{"La factura no existe"}, h.log)
	case errors.Is(err, customer.ErrNotFound):
		httperrors.WriteError(w, http.StatusNotFound, "No Encontrado", []string{"El cliente no existe"}, h.log)
	default:
		h.log.Error("invoice handler error", "error", err)
		httperrors.WriteError(w, http.StatusInternalServerError, "Error Interno del Servidor", []string{"Ha ocurrido un error interno"}, h.log)
	}
}
