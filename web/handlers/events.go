package handlers

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/colosseum-live/arena/internal/lifecycle"
)

// eventPayload is the body of an external lifecycle notification.
type eventPayload struct {
	Type     string `json:"type"`
	MarketID string `json:"marketId"`
}

// handleEvent accepts a lifecycle notification and forwards it to the
// monitor. Delivery to remote agents stays at-least-once; a duplicate
// notification is a no-op downstream.
func (h *Handler) handleEvent(w http.ResponseWriter, r *http.Request) {
	var payload eventPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid event payload"})
		return
	}

	ev := lifecycle.Event{
		Type:     lifecycle.EventType(payload.Type),
		MarketID: payload.MarketID,
	}

	switch ev.Type {
	case lifecycle.EventBondingComplete, lifecycle.EventRoundStarted:
	default:
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "unknown event type"})
		return
	}

	select {
	case h.events <- ev:
		slog.Info("Lifecycle event accepted", "type", ev.Type, "market_id", ev.MarketID)
		writeJSON(w, http.StatusAccepted, map[string]string{"status": "accepted"})
	default:
		slog.Warn("Event queue full, rejecting notification", "type", ev.Type, "market_id", ev.MarketID)
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"error": "event queue full"})
	}
}
