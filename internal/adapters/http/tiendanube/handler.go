// Package tiendanube exposes the store connection endpoints: OAuth install and
// callback, connection status and invoicing configuration.
package tiendanube

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/damianpacheco/facturacion-arca/internal/adapters/tiendanube"
	apporder "github.com/damianpacheco/facturacion-arca/internal/application/order"
	"github.com/damianpacheco/facturacion-arca/internal/core/invoice"
	"github.com/damianpacheco/facturacion-arca/internal/core/order"
	httperrors "github.com/damianpacheco/facturacion-arca/internal/infrastructure/http"
)

// Handler bridges HTTP traffic with the store integration service.
type Handler struct {
	service *apporder.Service
	log     *slog.Logger
}

// NewHandler creates a new store integration HTTP handler.
func NewHandler(service *apporder.Service, log *slog.Logger) *Handler {
	return &Handler{service: service, log: log}
}

// Install handles GET /api/tiendanube/install: redirects the merchant to the
// platform authorization page.
func (h *Handler) Install(w http.ResponseWriter, r *http.Request) {
	http.Redirect(w, r, h.service.InstallURL(), http.StatusTemporaryRedirect)
}

// Callback handles GET /api/tiendanube/callback, the OAuth redirect target.
func (h *Handler) Callback(w http.ResponseWriter, r *http.Request) {
	code := r.URL.Query().Get("code")
	if code == "" {
		httperrors.WriteError(w, http.StatusBadRequest, "Error de Validación", []string{"code es requerido"}, h.log)
		return
	}

	st, err := h.service.Connect(r.Context(), code)
	if err != nil {
		h.handleError(w, err)
		return
	}

	httperrors.WriteJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"store":   st,
	}, h.log)
}

// Status handles GET /api/tiendanube/status.
func (h *Handler) Status(w http.ResponseWriter, r *http.Request) {
	st, err := h.service.Status(r.Context())
	if err != nil {
		if errors.Is(err, order.ErrStoreNotConnected) {
			httperrors.WriteJSON(w, http.StatusOK, map[string]any{"connected": false}, h.log)
			return
		}
		h.handleError(w, err)
		return
	}

	httperrors.WriteJSON(w, http.StatusOK, map[string]any{
		"connected": true,
		"store":     st,
	}, h.log)
}

// ConfigRequest is the store configuration update body. Nil fields are
// untouched.
type ConfigRequest struct {
	AutoInvoice        *bool `json:"auto_invoice"`
	DefaultVoucherType *int  `json:"default_invoice_type"`
}

// UpdateConfig handles PUT /api/tiendanube/config.
func (h *Handler) UpdateConfig(w http.ResponseWriter, r *http.Request) {
	var req ConfigRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httperrors.WriteError(w, http.StatusBadRequest, "Error de Validación", []string{"El cuerpo de la petición no es válido"}, h.log)
		return
	}

	st, err := h.service.UpdateConfig(r.Context(), req.AutoInvoice, req.DefaultVoucherType)
	if err != nil {
		h.handleError(w, err)
		return
	}

	httperrors.WriteJSON(w, http.StatusOK, st, h.log)
}

// Disconnect handles DELETE /api/tiendanube/disconnect.
func (h *Handler) Disconnect(w http.ResponseWriter, r *http.Request) {
	if err := h.service.Disconnect(r.Context()); err != nil {
		h.handleError(w, err)
		return
	}

	httperrors.WriteJSON(w, http.StatusOK, map[string]any{"success": true}, h.log)
}

func (h *Handler) handleError(w http.ResponseWriter, err error) {
	var validationErr *invoice.ValidationError
	var apiErr *tiendanube.APIError

	switch {
	case errors.As(err, &validationErr):
		httperrors.WriteError(w, http.StatusBadRequest, "Error de Validación", []string{validationErr.Error()}, h.log)
	case errors.Is(err, order.ErrStoreNotConnected):
		httperrors.WriteError(w, http.StatusNotFound, "No Encontrado", []string{"No hay una tienda conectada"}, h.log)
	case errors.As(err, &apiErr):
		h.log.Error("tiendanube API error", "status", apiErr.StatusCode, "error", err)
		httperrors.WriteError(w, http.StatusBadGateway, "Error de TiendaNube", []string{"La API de TiendaNube devolvió un error"}, h.log)
	default:
		h.log.Error("tiendanube handler error", "error", err)
		httperrors.WriteError(w, http.StatusInternalServerError, "Error Interno del Servidor", []string{"Ha ocurrido un error interno"}, h.log)
	}
}
