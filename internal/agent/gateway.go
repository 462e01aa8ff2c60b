// Package agent provides the gateway to remote gladiator and judge agents.
package agent

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/colosseum-live/arena/internal/core"
)

const defaultTimeout = 2 * time.Minute

// relayRequest is the payload posted to an agent's message endpoint.
type relayRequest struct {
	RoomID     string `json:"roomId"`
	SenderID   string `json:"senderId"`
	Text       string `json:"text"`
	SenderName string `json:"senderName,omitempty"`
}

// replyEnvelope is the versioned response schema. Unexpected shapes fail
// closed rather than degrading to an empty reply.
type replyEnvelope struct {
	Version int              `json:"version,omitempty"`
	Replies []replyCandidate `json:"replies"`
}

type replyCandidate struct {
	Content replyContent `json:"content"`
}

type replyContent struct {
	Text string `json:"text"`
}

// Gateway performs request/response calls and liveness checks against remote
// agent endpoints. It holds no per-debate state.
type Gateway struct {
	httpClient *http.Client
}

// NewGateway creates a gateway with the given request timeout. A zero
// timeout uses the default.
func NewGateway(timeout time.Duration) *Gateway {
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &Gateway{
		httpClient: &http.Client{Timeout: timeout},
	}
}

// Send relays text to the participant's endpoint and returns the first reply
// candidate's text.
func (g *Gateway) Send(ctx context.Context, p core.Participant, roomID, senderID, text string) (string, error) {
	if p.Endpoint == "" {
		return "", &core.DeliveryError{AgentID: p.AgentID, Err: fmt.Errorf("no registered endpoint")}
	}

	body, err := json.Marshal(relayRequest{
		RoomID:     roomID,
		SenderID:   senderID,
		Text:       text,
		SenderName: p.Name,
	})
	if err != nil {
		return "", &core.DeliveryError{AgentID: p.AgentID, Err: err}
	}

	url := strings.TrimSuffix(p.Endpoint, "/") + "/message"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return "", &core.DeliveryError{AgentID: p.AgentID, Err: err}
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := g.httpClient.Do(req)
	if err != nil {
		return "", &core.DeliveryError{AgentID: p.AgentID, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return "", &core.DeliveryError{
			AgentID: p.AgentID,
			Err:     fmt.Errorf("unexpected status %d: %s", resp.StatusCode, strings.TrimSpace(string(respBody))),
		}
	}

	var envelope replyEnvelope
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		return "", &core.DeliveryError{AgentID: p.AgentID, Err: fmt.Errorf("malformed reply: %w", err)}
	}

	if len(envelope.Replies) == 0 {
		return "", &core.DeliveryError{AgentID: p.AgentID, Err: fmt.Errorf("reply envelope has no candidates")}
	}

	reply := envelope.Replies[0].Content.Text
	if strings.TrimSpace(reply) == "" {
		return "", &core.DeliveryError{AgentID: p.AgentID, Err: fmt.Errorf("first reply candidate has no text")}
	}

	return reply, nil
}

// IsHealthy probes the participant's liveness endpoint. Any failure reads as
// unhealthy; errors are logged, never propagated.
func (g *Gateway) IsHealthy(ctx context.Context, p core.Participant) bool {
	if p.Endpoint == "" {
		return false
	}

	url := strings.TrimSuffix(p.Endpoint, "/") + "/health"
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return false
	}

	resp, err := g.httpClient.Do(req)
	if err != nil {
		slog.Debug("Agent health probe failed", "agent_id", p.AgentID, "error", err)
		return false
	}
	defer resp.Body.Close()

	return resp.StatusCode >= 200 && resp.StatusCode < 300
}
