// Package customer exposes the customer CRUD endpoints.
package customer

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	appcustomer "github.com/damianpacheco/facturacion-arca/internal/application/customer"
	"github.com/damianpacheco/facturacion-arca/internal/core/customer"
	httperrors "github.com/damianpacheco/facturacion-arca/internal/infrastructure/http"
)

// Handler bridges HTTP traffic with the customer application service.
type Handler struct {
	service *appcustomer.Service
	log     *slog.Logger
}

// NewHandler creates a new customer HTTP handler.
func NewHandler(service *appcustomer.Service, log *slog.Logger) *Handler {
	return &Handler{service: service, log: log}
}

// List handles GET /api/clientes with pagination and search.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	skip := 0
	if s := r.URL.Query().Get("skip"); s != "" {
		var err error
		skip, err = strconv.Atoi(s)
		if err != nil || skip < 0 {
			httperrors.WriteError(w, http.StatusBadRequest, "Error de Validación", []string{"skip debe ser un número entero no negativo"}, h.log)
			return
		}
	}

	limit := 50
	if l := r.URL.Query().Get("limit"); l != "" {
		var err error
		limit, err = strconv.Atoi(l)
		if err != nil || limit <= 0 {
			httperrors.WriteError(w, http.StatusBadRequest, "Error de Validación", []string{"limit debe ser un número entero positivo"}, h.log)
			return
		}
	}

	response, err := h.service.List(r.Context(), skip, limit, r.URL.Query().Get("search"))
	if err != nil {
		h.handleError(w, err)
		return
	}

	httperrors.WriteJSON(w, http.StatusOK, response, h.log)
}

// Get handles GET /api/clientes/{id}.
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := h.parseID(w, r)
	if !ok {
		return
	}

	c, err := h.service.Get(r.Context(), id)
	if err != nil {
		h.handleError(w, err)
		return
	}

	httperrors.WriteJSON(w, http.StatusOK, c, h.log)
}

// Create handles POST /api/clientes.
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	var req appcustomer.CreateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httperrors.WriteError(w, http.StatusBadRequest, "Error de Validación", []string{"El cuerpo de la petición no es válido"}, h.log)
		return
	}

	c, err := h.service.Create(r.Context(), req)
	if err != nil {
		h.handleError(w, err)
		return
	}

	httperrors.WriteJSON(w, http.StatusCreated, c, h.log)
}

// Update handles PUT /api/clientes/{id} with a partial body.
func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := h.parseID(w, r)
	if !ok {
		return
	}

	var req appcustomer.UpdateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httperrors.WriteError(w, http.StatusBadRequest, "Error de Validación", []string{"El cuerpo de la petición no es válido"}, h.log)
		return
	}

	c, err := h.service.Update(r.Context(), id, req)
	if err != nil {
		h.handleError(w, err)
		return
	}

	httperrors.WriteJSON(w, http.StatusOK, c, h.log)
}

// Delete handles DELETE /api/clientes/{id}.
func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := h.parseID(w, r)
	if !ok {
		return
	}

	if err := h.service.Delete(r.Context(), id); err != nil {
		h.handleError(w, err)
		return
	}

	httperrors.WriteJSON(w, http.StatusOK, map[string]any{"success": true}, h.log)
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
	var validationErr *customer.ValidationError

	switch {
	case errors.As(err, &validationErr):
		httperrors.WriteError(w, http.StatusBadRequest, "Error de Validación", []string{validationErr.Error()}, h.log)
	case errors.Is(err, customer.ErrDuplicateCUIT):
		httperrors.WriteError(w, http.StatusBadRequest, "Error de Validación", []string{"Ya existe un cliente con ese CUIT"}, h.log)
	case errors.Is(err, customer.ErrHasInvoices):
		httperrors.WriteError(w, http.StatusBadRequest, "Error de Validación", []string{"El cliente tiene facturas asociadas y no puede eliminarse"}, h.log)
	case errors.Is(err, customer.ErrNotFound):
		httperrors.WriteError(w, http.StatusNotFound, "No Encontrado", []string{"El cliente no existe"}, h.log)
	default:
		h.log.Error("customer handler error", "error", err)
		httperrors.WriteError(w, http.StatusInternalServerError, "Error Interno del Servidor", []string{"Ha ocurrido un error interno"}, h.log)
	}
}
