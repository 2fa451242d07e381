// Package analytics exposes the sales-assistant endpoints.
package analytics

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	appanalytics "github.com/damianpacheco/facturacion-arca/internal/application/analytics"
	httperrors "github.com/damianpacheco/facturacion-arca/internal/infrastructure/http"
)

// Handler bridges HTTP traffic with the sales-insight service.
type Handler struct {
	service *appanalytics.Service
	log     *slog.Logger
}

// NewHandler creates a new sales-assistant HTTP handler.
func NewHandler(service *appanalytics.Service, log *slog.Logger) *Handler {
	return &Handler{service: service, log: log}
}

// ChatRequest is the body of a chat message.
type ChatRequest struct {
	Message string `json:"message"`
}

// ChatResponse carries the assistant's answer.
type ChatResponse struct {
	Response string `json:"response"`
}

// Chat handles POST /api/ai/chat.
func (h *Handler) Chat(w http.ResponseWriter, r *http.Request) {
	var req ChatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httperrors.WriteError(w, http.StatusBadRequest, "Error de Validación", []string{"El cuerpo de la petición no es válido"}, h.log)
		return
	}

	answer, err := h.service.Chat(r.Context(), req.Message)
	if err != nil {
		h.handleError(w, err)
		return
	}

	httperrors.WriteJSON(w, http.StatusOK, ChatResponse{Response: answer}, h.log)
}

// Stats handles GET /api/ai/stats.
func (h *Handler) Stats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.service.Stats(r.Context())
	if err != nil {
		h.handleError(w, err)
		return
	}

	httperrors.WriteJSON(w, http.StatusOK, stats, h.log)
}

func (h *Handler) handleError(w http.ResponseWriter, err error) {
	var assistantErr *appanalytics.AssistantError

	switch {
	case errors.As(err, &assistantErr):
		h.log.Error("assistant backend failed", "error", err)
		httperrors.WriteError(w, http.StatusBadGateway, "Error del Asistente de IA", []string{"No se pudo procesar la consulta"}, h.log)
	default:
		h.log.Error("analytics handler error", "error", err)
		httperrors.WriteError(w, http.StatusInternalServerError, "Error Interno del Servidor", []string{"Ha ocurrido un error interno"}, h.log)
	}
}
