// Package arca exposes the tax-authority status and voucher-number endpoints.
package arca

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	appinvoice "github.com/damianpacheco/facturacion-arca/internal/application/invoice"
	"github.com/damianpacheco/facturacion-arca/internal/core/invoice"
	"github.com/damianpacheco/facturacion-arca/internal/infrastructure/config"
	httperrors "github.com/damianpacheco/facturacion-arca/internal/infrastructure/http"
)

// Handler bridges HTTP traffic with the ARCA gateway queries.
type Handler struct {
	service *appinvoice.Service
	cfg     config.ARCASettings
	log     *slog.Logger
}

// NewHandler creates a new ARCA HTTP handler.
func NewHandler(service *appinvoice.Service, cfg config.ARCASettings, log *slog.Logger) *Handler {
	return &Handler{service: service, cfg: cfg, log: log}
}

// Status handles GET /api/arca/status with the emitter configuration.
func (h *Handler) Status(w http.ResponseWriter, r *http.Request) {
	httperrors.WriteJSON(w, http.StatusOK, map[string]any{
		"configured":  h.cfg.AccessToken != "",
		"environment": h.cfg.Environment(),
		"cuit":        h.cfg.CUIT,
		"punto_venta": h.cfg.SalesPoint,
	}, h.log)
}

// LastVoucherNumber handles GET /api/arca/ultimo-comprobante. The query is
// idempotent against the authority and safe to retry.
func (h *Handler) LastVoucherNumber(w http.ResponseWriter, r *http.Request) {
	raw := r.URL.Query().Get("tipo_comprobante")
	if raw == "" {
		httperrors.WriteError(w, http.StatusBadRequest, "Error de Validación", []string{"tipo_comprobante es requerido"}, h.log)
		return
	}
	voucherType, err := strconv.Atoi(raw)
	if err != nil {
		httperrors.WriteError(w, http.StatusBadRequest, "Error de Validación", []string{"tipo_comprobante debe ser un número entero"}, h.log)
		return
	}

	last, err := h.service.LastVoucherNumber(r.Context(), invoice.VoucherType(voucherType))
	if err != nil {
		h.handleError(w, err)
		return
	}

	httperrors.WriteJSON(w, http.StatusOK, map[string]any{
		"tipo_comprobante":   voucherType,
		"punto_venta":        h.cfg.SalesPoint,
		"ultimo_comprobante": last,
	}, h.log)
}

// CatalogEntry is one row of a static code catalog.
type CatalogEntry struct {
	ID          int    `json:"id"`
	Description string `json:"descripcion"`
}

// VoucherTypes handles GET /api/arca/tipos-comprobante with the nine
// supported comprobante codes.
func (h *Handler) VoucherTypes(w http.ResponseWriter, r *http.Request) {
	types := []invoice.VoucherType{
		invoice.FacturaA, invoice.NotaDebitoA, invoice.NotaCreditoA,
		invoice.FacturaB, invoice.NotaDebitoB, invoice.NotaCreditoB,
		invoice.FacturaC, invoice.NotaDebitoC, invoice.NotaCreditoC,
	}

	entries := make([]CatalogEntry, 0, len(types))
	for _, t := range types {
		entries = append(entries, CatalogEntry{ID: int(t), Description: t.Name()})
	}
	httperrors.WriteJSON(w, http.StatusOK, map[string]any{"tipos": entries}, h.log)
}

// DocumentTypes handles GET /api/arca/tipos-documento with the receiver
// document codes.
func (h *Handler) DocumentTypes(w http.ResponseWriter, r *http.Request) {
	entries := []CatalogEntry{
		{ID: invoice.DocTypeCUIT, Description: "CUIT"},
		{ID: invoice.DocTypeDNI, Description: "DNI"},
		{ID: invoice.DocTypeAnonymous, Description: "Consumidor Final"},
	}
	httperrors.WriteJSON(w, http.StatusOK, map[string]any{"tipos": entries}, h.log)
}

// VATAliquots handles GET /api/arca/alicuotas-iva with the supported IVA
// brackets and their authority codes.
func (h *Handler) VATAliquots(w http.ResponseWriter, r *http.Request) {
	// Not-taxed shares the 0% authority code, so the catalog lists each
	// code once.
	rates := []invoice.VATRate{
		invoice.VATZero, invoice.VAT10_5, invoice.VAT21, invoice.VAT27,
	}

	entries := make([]CatalogEntry, 0, len(rates))
	for _, rate := range rates {
		entries = append(entries, CatalogEntry{ID: rate.AliquotCode(), Description: rate.Label()})
	}
	httperrors.WriteJSON(w, http.StatusOK, map[string]any{"alicuotas": entries}, h.log)
}

// SalesPoints handles GET /api/arca/puntos-venta with the configured emitter
// sales point.
func (h *Handler) SalesPoints(w http.ResponseWriter, r *http.Request) {
	httperrors.WriteJSON(w, http.StatusOK, map[string]any{
		"puntos_venta": []int{h.cfg.SalesPoint},
	}, h.log)
}

func (h *Handler) handleError(w http.ResponseWriter, err error) {
	var validationErr *invoice.ValidationError

	switch {
	case errors.As(err, &validationErr):
		httperrors.WriteError(w, http.StatusBadRequest, "Error de Validación", []string{validationErr.Error()}, h.log)
	default:
		h.log.Error("arca query failed", "error", err)
		httperrors.WriteError(w, http.StatusBadGateway, "Error del Servicio de Facturación", []string{"No se pudo consultar el servicio de ARCA"}, h.log)
	}
}
