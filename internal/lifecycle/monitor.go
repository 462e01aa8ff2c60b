// Package lifecycle advances debate rounds from external triggers.
package lifecycle

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/colosseum-live/arena/internal/chat"
	"github.com/colosseum-live/arena/internal/core"
	"github.com/colosseum-live/arena/internal/discussion"
	"github.com/colosseum-live/arena/internal/ledger"
	"github.com/colosseum-live/arena/internal/store"
	"github.com/colosseum-live/arena/internal/verdict"
)

// DefaultPollInterval is the cadence of the round bookkeeping sweep.
const DefaultPollInterval = 30 * time.Second

// EventType names an external lifecycle notification.
type EventType string

const (
	// EventBondingComplete fires when a market's bonding/funding phase ends
	// and the debate can begin.
	EventBondingComplete EventType = "bonding_complete"

	// EventRoundStarted fires when the ledger opens a round for judging.
	EventRoundStarted EventType = "round_started"
)

// Event is a lifecycle notification for one market.
type Event struct {
	Type     EventType
	MarketID string
}

// Monitor reacts to lifecycle events and runs the periodic poll. The event
// path drives conversations (discussion and verdict); the poll path only
// does round bookkeeping against the ledger. Both paths claim a per-debate
// transition lease before acting, so double-triggering is a logged no-op; a
// failed transition releases its lease so a redelivered trigger can finish
// the work.
type Monitor struct {
	ledger       ledger.Ledger
	chat         *chat.Service
	store        store.Store
	orchestrator *discussion.Orchestrator
	verdicts     *verdict.Protocol
	pollInterval time.Duration
	now          func() time.Time
}

// Config collects the monitor's collaborators.
type Config struct {
	Ledger       ledger.Ledger
	Chat         *chat.Service
	Store        store.Store
	Orchestrator *discussion.Orchestrator
	Verdicts     *verdict.Protocol
	PollInterval time.Duration
}

// NewMonitor creates a monitor. A zero poll interval uses the default.
func NewMonitor(cfg Config) *Monitor {
	interval := cfg.PollInterval
	if interval <= 0 {
		interval = DefaultPollInterval
	}
	return &Monitor{
		ledger:       cfg.Ledger,
		chat:         cfg.Chat,
		store:        cfg.Store,
		orchestrator: cfg.Orchestrator,
		verdicts:     cfg.Verdicts,
		pollInterval: interval,
		now:          time.Now,
	}
}

// Run consumes events and runs the poll loop until the context is done.
func (m *Monitor) Run(ctx context.Context, events <-chan Event) error {
	ticker := time.NewTicker(m.pollInterval)
	defer ticker.Stop()

	slog.Info("Lifecycle monitor running", "poll_interval", m.pollInterval)

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case ev, ok := <-events:
			if !ok {
				return fmt.Errorf("event stream closed")
			}
			if err := m.HandleEvent(ctx, ev); err != nil {
				slog.Error("Event handling failed", "event", ev.Type, "market_id", ev.MarketID, "error", err)
			}
		case <-ticker.C:
			m.Poll(ctx)
		}
	}
}

// HandleEvent processes a single lifecycle notification.
func (m *Monitor) HandleEvent(ctx context.Context, ev Event) error {
	market, err := m.findMarket(ctx, ev.MarketID)
	if err != nil {
		return err
	}

	switch ev.Type {
	case EventBondingComplete:
		return m.startDebate(ctx, market)
	case EventRoundStarted:
		return m.judgeRound(ctx, market)
	default:
		return fmt.Errorf("unknown event type: %s", ev.Type)
	}
}

// runLeased claims the transition lease, runs fn, and drops the lease again
// when fn fails so a retried trigger can complete the transition. It returns
// false when the lease was already held.
func (m *Monitor) runLeased(debateID uint64, transition string, fn func() error) (bool, error) {
	ok, err := m.store.AcquireLease(debateID, transition)
	if err != nil || !ok {
		return ok, err
	}

	if err := fn(); err != nil {
		if rerr := m.store.ReleaseLease(debateID, transition); rerr != nil {
			slog.Error("Lease release failed", "debate_id", debateID, "transition", transition, "error", rerr)
		}
		return true, err
	}
	return true, nil
}

// startDebate creates the chat room, admits the gladiators and runs one
// discussion session.
func (m *Monitor) startDebate(ctx context.Context, market core.Market) error {
	claimed, err := m.runLeased(market.DebateID, "discussion:start", func() error {
		if _, err := m.chat.CreateChatRoom(market.DebateID); err != nil {
			return err
		}

		gladiators, err := m.ledger.Gladiators(ctx, market.ID)
		if err != nil {
			return err
		}
		for _, g := range gladiators {
			if !g.Active {
				continue
			}
			if err := m.chat.JoinAsGladiator(market.DebateID, g.Name); err != nil {
				return err
			}
		}

		result, err := m.orchestrator.Facilitate(ctx, market.DebateID, market.Topic, gladiators)
		if err != nil {
			return err
		}

		slog.Info("Debate discussion complete", "debate_id", market.DebateID, "room_id", result.RoomID, "turns", result.TurnsCompleted)
		return nil
	})
	if err == nil && !claimed {
		slog.Info("Debate already started elsewhere", "debate_id", market.DebateID)
	}
	return err
}

// judgeRound admits the judge and runs the verdict protocol for the current
// round, then reports the winner back to the ledger.
func (m *Monitor) judgeRound(ctx context.Context, market core.Market) error {
	round, err := m.ledger.CurrentRound(ctx, market.ID)
	if err != nil {
		return err
	}

	claimed, err := m.runLeased(market.DebateID, fmt.Sprintf("verdict:%d", round.Index), func() error {
		judge, err := m.ledger.Judge(ctx, market.ID)
		if err != nil {
			return err
		}

		if err := m.chat.JoinAsJudge(market.DebateID, judge.Name); err != nil {
			return err
		}

		v, err := m.verdicts.RequestVerdict(ctx, market.DebateID, judge)
		if err != nil {
			return err
		}

		// Make the verdict visible to spectators before reporting it.
		if err := m.chat.SendMessage(market.DebateID, judge.AgentID, v.Text); err != nil {
			return err
		}

		return m.ledger.RecordVerdict(ctx, market.ID, round.Index, v.WinnerID)
	})
	if err == nil && !claimed {
		slog.Info("Round already being judged", "debate_id", market.DebateID, "round", round.Index)
	}
	return err
}

// Poll runs one bookkeeping sweep over all active markets. One market's
// failure never halts the cycle for the others.
func (m *Monitor) Poll(ctx context.Context) {
	markets, err := m.ledger.ActiveMarkets(ctx)
	if err != nil {
		slog.Error("Poll could not list markets", "error", err)
		return
	}

	for _, market := range markets {
		if err := m.pollMarket(ctx, market); err != nil {
			slog.Error("Market poll failed", "market_id", market.ID, "error", err)
		}
	}
}

// pollMarket advances one market's round bookkeeping. It deliberately never
// invokes the orchestrator or verdict protocol; conversations are driven by
// the event path alone.
func (m *Monitor) pollMarket(ctx context.Context, market core.Market) error {
	round, err := m.ledger.CurrentRound(ctx, market.ID)
	if err != nil {
		return err
	}

	switch {
	case round.Overdue(m.now()):
		_, err := m.runLeased(market.DebateID, fmt.Sprintf("finalize:%d", round.Index), func() error {
			slog.Info("Finalizing overdue round", "market_id", market.ID, "round", round.Index)
			return m.ledger.FinalizeRound(ctx, market.ID, round.Index)
		})
		return err

	case round.Completed && round.Index+1 < market.TotalRounds:
		_, err := m.runLeased(market.DebateID, fmt.Sprintf("advance:%d", round.Index), func() error {
			slog.Info("Starting next round", "market_id", market.ID, "after_round", round.Index)
			return m.ledger.StartNextRound(ctx, market.ID)
		})
		return err
	}

	return nil
}

func (m *Monitor) findMarket(ctx context.Context, marketID string) (core.Market, error) {
	markets, err := m.ledger.ActiveMarkets(ctx)
	if err != nil {
		return core.Market{}, err
	}
	for _, market := range markets {
		if market.ID == marketID {
			return market, nil
		}
	}
	return core.Market{}, fmt.Errorf("market not found: %s", marketID)
}
