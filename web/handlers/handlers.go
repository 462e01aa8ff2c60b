// Package handlers provides the HTTP surface for spectators.
package handlers

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/colosseum-live/arena/internal/chat"
	"github.com/colosseum-live/arena/internal/feed"
	"github.com/colosseum-live/arena/internal/lifecycle"
)

// Handler holds dependencies for HTTP handlers.
type Handler struct {
	chat   *chat.Service
	hub    *feed.Hub
	events chan<- lifecycle.Event
}

// New creates a new Handler.
func New(chatSvc *chat.Service, hub *feed.Hub, events chan<- lifecycle.Event) *Handler {
	return &Handler{
		chat:   chatSvc,
		hub:    hub,
		events: events,
	}
}

// Router builds the chi router with all routes registered.
func (h *Handler) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)

	r.Get("/api/healthz", h.handleHealthz)
	r.Get("/api/debates/{debateID}/messages", h.handleMessages)
	r.Get("/api/debates/{debateID}/stream", h.handleStream)
	r.Post("/api/events", h.handleEvent)

	return r
}

func (h *Handler) handleHealthz(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// handleMessages returns the full ordered history for a debate. An unknown
// debate yields an empty list.
func (h *Handler) handleMessages(w http.ResponseWriter, r *http.Request) {
	debateID, ok := parseDebateID(w, r)
	if !ok {
		return
	}

	msgs, err := h.chat.Messages(debateID)
	if err != nil {
		slog.Error("Failed to read messages", "debate_id", debateID, "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to read messages"})
		return
	}

	writeJSON(w, http.StatusOK, msgs)
}

func parseDebateID(w http.ResponseWriter, r *http.Request) (uint64, bool) {
	raw := chi.URLParam(r, "debateID")
	debateID, err := strconv.ParseUint(raw, 10, 64)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid debate id"})
		return 0, false
	}
	return debateID, true
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("Failed to encode response", "error", err)
	}
}
