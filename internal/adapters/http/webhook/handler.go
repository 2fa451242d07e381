// Package webhook receives TiendaNube event notifications.
package webhook

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"

	apporder "github.com/damianpacheco/facturacion-arca/internal/application/order"
	httperrors "github.com/damianpacheco/facturacion-arca/internal/infrastructure/http"
)

// Handler receives platform events and hands them to the background queue.
// The platform retries deliveries that do not answer quickly, so processing
// never happens inline.
type Handler struct {
	queue *apporder.Queue
	log   *slog.Logger
}

// NewHandler creates a new webhook HTTP handler.
func NewHandler(queue *apporder.Queue, log *slog.Logger) *Handler {
	return &Handler{queue: queue, log: log}
}

// Event is the notification payload TiendaNube delivers.
type Event struct {
	StoreID int64  `json:"store_id"`
	Event   string `json:"event"`
	ID      int64  `json:"id"`
}

// Receive handles POST /api/webhooks/tiendanube. It always answers 200 for
// well-formed payloads, including events it does not act on.
func (h *Handler) Receive(w http.ResponseWriter, r *http.Request) {
	var event Event
	if err := json.NewDecoder(r.Body).Decode(&event); err != nil {
		httperrors.WriteError(w, http.StatusBadRequest, "Error de Validación", []string{"El cuerpo de la petición no es válido"}, h.log)
		return
	}
	if event.StoreID == 0 || event.ID == 0 {
		httperrors.WriteError(w, http.StatusBadRequest, "Error de Validación", []string{"store_id e id son requeridos"}, h.log)
		return
	}

	storeID := strconv.FormatInt(event.StoreID, 10)
	orderID := strconv.FormatInt(event.ID, 10)

	switch event.Event {
	case apporder.EventOrderPaid:
		jobID, accepted := h.queue.Enqueue(storeID, orderID)
		if !accepted {
			// The delivery is acknowledged anyway: the platform retry would
			// hit the same full queue.
			h.log.Warn("webhook queue full, event dropped", "store_id", storeID, "order_id", orderID)
			httperrors.WriteJSON(w, http.StatusOK, map[string]any{"received": true, "queued": false}, h.log)
			return
		}
		httperrors.WriteJSON(w, http.StatusOK, map[string]any{"received": true, "queued": true, "job_id": jobID}, h.log)
	case apporder.EventOrderCancelled:
		h.log.Info("order cancelled on platform", "store_id", storeID, "order_id", orderID)
		httperrors.WriteJSON(w, http.StatusOK, map[string]any{"received": true, "queued": false}, h.log)
	default:
		h.log.Debug("ignoring webhook event", "event", event.Event, "store_id", storeID)
		httperrors.WriteJSON(w, http.StatusOK, map[string]any{"received": true, "queued": false}, h.log)
	}
}
