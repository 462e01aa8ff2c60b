package agent

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/colosseum-live/arena/internal/core"
)

func TestSend(t *testing.T) {
	ctx := context.Background()

	t.Run("FirstCandidateWins", func(t *testing.T) {
		var gotReq relayRequest
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.URL.Path != "/message" {
				t.Errorf("wrong path: %s", r.URL.Path)
			}
			json.NewDecoder(r.Body).Decode(&gotReq)
			json.NewEncoder(w).Encode(replyEnvelope{
				Version: 1,
				Replies: []replyCandidate{
					{Content: replyContent{Text: "first reply"}},
					{Content: replyContent{Text: "second reply"}},
				},
			})
		}))
		defer srv.Close()

		gw := NewGateway(5 * time.Second)
		p := core.Participant{AgentID: "g-1", Name: "Socrates", Endpoint: srv.URL}

		reply, err := gw.Send(ctx, p, "room-1", "system", "speak")
		if err != nil {
			t.Fatalf("send failed: %v", err)
		}
		if reply != "first reply" {
			t.Errorf("wrong reply: %q", reply)
		}
		if gotReq.RoomID != "room-1" || gotReq.SenderID != "system" || gotReq.Text != "speak" || gotReq.SenderName != "Socrates" {
			t.Errorf("wrong request payload: %+v", gotReq)
		}
	})

	t.Run("EmptyEnvelopeFailsClosed", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			json.NewEncoder(w).Encode(replyEnvelope{})
		}))
		defer srv.Close()

		gw := NewGateway(5 * time.Second)
		p := core.Participant{AgentID: "g-1", Endpoint: srv.URL}

		_, err := gw.Send(ctx, p, "room-1", "system", "speak")
		var deliveryErr *core.DeliveryError
		if !errors.As(err, &deliveryErr) {
			t.Fatalf("expected DeliveryError, got %v", err)
		}
		if deliveryErr.AgentID != "g-1" {
			t.Errorf("wrong agent id: %s", deliveryErr.AgentID)
		}
	})

	t.Run("BlankReplyTextFailsClosed", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			json.NewEncoder(w).Encode(replyEnvelope{
				Replies: []replyCandidate{{Content: replyContent{Text: "   "}}},
			})
		}))
		defer srv.Close()

		gw := NewGateway(5 * time.Second)
		p := core.Participant{AgentID: "g-1", Endpoint: srv.URL}

		var deliveryErr *core.DeliveryError
		if _, err := gw.Send(ctx, p, "room-1", "system", "speak"); !errors.As(err, &deliveryErr) {
			t.Fatalf("expected DeliveryError, got %v", err)
		}
	})

	t.Run("NonSuccessStatus", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, "boom", http.StatusInternalServerError)
		}))
		defer srv.Close()

		gw := NewGateway(5 * time.Second)
		p := core.Participant{AgentID: "g-1", Endpoint: srv.URL}

		var deliveryErr *core.DeliveryError
		if _, err := gw.Send(ctx, p, "room-1", "system", "speak"); !errors.As(err, &deliveryErr) {
			t.Fatalf("expected DeliveryError, got %v", err)
		}
	})

	t.Run("MissingEndpoint", func(t *testing.T) {
		gw := NewGateway(5 * time.Second)
		p := core.Participant{AgentID: "g-1"}

		var deliveryErr *core.DeliveryError
		if _, err := gw.Send(ctx, p, "room-1", "system", "speak"); !errors.As(err, &deliveryErr) {
			t.Fatalf("expected DeliveryError, got %v", err)
		}
	})
}

func TestIsHealthy(t *testing.T) {
	ctx := context.Background()

	t.Run("Healthy", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.URL.Path != "/health" {
				t.Errorf("wrong path: %s", r.URL.Path)
			}
			w.WriteHeader(http.StatusOK)
		}))
		defer srv.Close()

		gw := NewGateway(5 * time.Second)
		if !gw.IsHealthy(ctx, core.Participant{AgentID: "g-1", Endpoint: srv.URL}) {
			t.Error("expected healthy")
		}
	})

	t.Run("UnhealthyOnError", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusServiceUnavailable)
		}))
		defer srv.Close()

		gw := NewGateway(5 * time.Second)
		if gw.IsHealthy(ctx, core.Participant{AgentID: "g-1", Endpoint: srv.URL}) {
			t.Error("expected unhealthy on 503")
		}
		if gw.IsHealthy(ctx, core.Participant{AgentID: "g-2", Endpoint: "http://127.0.0.1:1"}) {
			t.Error("expected unhealthy on connection failure")
		}
		if gw.IsHealthy(ctx, core.Participant{AgentID: "g-3"}) {
			t.Error("expected unhealthy without endpoint")
		}
	})
}
