package handlers

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
)

// handleStream streams a debate's feed using Server-Sent Events: the full
// history first, then every newly appended message as it is published.
func (h *Handler) handleStream(w http.ResponseWriter, r *http.Request) {
	debateID, ok := parseDebateID(w, r)
	if !ok {
		return
	}
	slog.Debug("New spectator stream", "debate_id", debateID, "remote_addr", r.RemoteAddr)

	// Set headers for SSE
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("Access-Control-Allow-Origin", "*")

	flusher, ok := w.(http.Flusher)
	if !ok {
		slog.Error("Streaming unsupported: ResponseWriter does not implement http.Flusher")
		http.Error(w, "Streaming unsupported", http.StatusInternalServerError)
		return
	}

	// Subscribe before replaying history so nothing published in between is
	// missed; duplicates at the boundary are possible and harmless for
	// spectators.
	live, cancel := h.hub.Subscribe(debateID)
	defer cancel()

	history, err := h.chat.Messages(debateID)
	if err != nil {
		slog.Error("Failed to read history for stream", "debate_id", debateID, "error", err)
		h.sendSSEEvent(w, flusher, "error", map[string]string{"error": "failed to read history"})
		return
	}

	for _, msg := range history {
		h.sendSSEEvent(w, flusher, "message", msg)
	}

	for {
		select {
		case <-r.Context().Done():
			slog.Debug("Spectator stream closed", "debate_id", debateID)
			return
		case msg, ok := <-live:
			if !ok {
				return
			}
			h.sendSSEEvent(w, flusher, "message", msg)
		}
	}
}

// sendSSEEvent sends a server-sent event.
func (h *Handler) sendSSEEvent(w http.ResponseWriter, flusher http.Flusher, eventType string, data interface{}) {
	jsonData, err := json.Marshal(data)
	if err != nil {
		slog.Error("Failed to marshal SSE data", "error", err)
		return
	}

	if _, err := fmt.Fprintf(w, "event: %s\n", eventType); err != nil {
		slog.Error("Failed to write SSE event", "error", err)
		return
	}
	if _, err := fmt.Fprintf(w, "data: %s\n\n", jsonData); err != nil {
		slog.Error("Failed to write SSE data", "error", err)
		return
	}

	flusher.Flush()
}
