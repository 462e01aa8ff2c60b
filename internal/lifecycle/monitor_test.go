package lifecycle

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"github.com/colosseum-live/arena/internal/chat"
	"github.com/colosseum-live/arena/internal/core"
	"github.com/colosseum-live/arena/internal/discussion"
	"github.com/colosseum-live/arena/internal/feed"
	"github.com/colosseum-live/arena/internal/store"
	"github.com/colosseum-live/arena/internal/verdict"
)

// fakeLedger serves canned market state and records transitions.
type fakeLedger struct {
	markets     []core.Market
	rounds      map[string]core.Round
	roundErr    map[string]error
	gladiators  []core.Gladiator
	judge       core.Judge
	finalized   map[string][]int
	nextStarted map[string]int
	verdicts    map[string][]string

	// one-shot failures, cleared after first use
	gladiatorsErr error
	verdictErr    error
}

func newFakeLedger() *fakeLedger {
	return &fakeLedger{
		rounds:      make(map[string]core.Round),
		roundErr:    make(map[string]error),
		finalized:   make(map[string][]int),
		nextStarted: make(map[string]int),
		verdicts:    make(map[string][]string),
	}
}

func (f *fakeLedger) ActiveMarkets(ctx context.Context) ([]core.Market, error) {
	return f.markets, nil
}

func (f *fakeLedger) CurrentRound(ctx context.Context, marketID string) (core.Round, error) {
	if err := f.roundErr[marketID]; err != nil {
		return core.Round{}, err
	}
	return f.rounds[marketID], nil
}

func (f *fakeLedger) Gladiators(ctx context.Context, marketID string) ([]core.Gladiator, error) {
	if err := f.gladiatorsErr; err != nil {
		f.gladiatorsErr = nil
		return nil, err
	}
	return f.gladiators, nil
}

func (f *fakeLedger) Judge(ctx context.Context, marketID string) (core.Judge, error) {
	return f.judge, nil
}

func (f *fakeLedger) FinalizeRound(ctx context.Context, marketID string, roundIndex int) error {
	f.finalized[marketID] = append(f.finalized[marketID], roundIndex)
	return nil
}

func (f *fakeLedger) StartNextRound(ctx context.Context, marketID string) error {
	f.nextStarted[marketID]++
	return nil
}

func (f *fakeLedger) RecordVerdict(ctx context.Context, marketID string, roundIndex int, winnerID string) error {
	if err := f.verdictErr; err != nil {
		f.verdictErr = nil
		return err
	}
	f.verdicts[marketID] = append(f.verdicts[marketID], winnerID)
	return nil
}

// echoRelayer replies to every relay with a fixed well-formed line, which
// satisfies both the discussion loop and the verdict format extraction.
type echoRelayer struct {
	calls int
}

func (e *echoRelayer) Send(ctx context.Context, p core.Participant, roomID, senderID, text string) (string, error) {
	e.calls++
	return fmt.Sprintf("considered response %d {winner: 'socrates'}", e.calls), nil
}

func newTestMonitor(t *testing.T, lg *fakeLedger) (*Monitor, *chat.Service) {
	t.Helper()

	st, err := store.NewSQLiteStore(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("failed to create store: %v", err)
	}
	t.Cleanup(func() { st.Close() })

	if err := st.Initialize(); err != nil {
		t.Fatalf("failed to initialize: %v", err)
	}

	chatSvc := chat.NewService(st, feed.NewHub())
	relay := &echoRelayer{}

	monitor := NewMonitor(Config{
		Ledger: lg,
		Chat:   chatSvc,
		Store:  st,
		Orchestrator: discussion.NewOrchestrator(chatSvc, relay, discussion.Options{
			TurnBudget: 2,
			TurnDelay:  time.Millisecond,
		}),
		Verdicts:     verdict.NewProtocol(chatSvc, relay, 3),
		PollInterval: time.Minute,
	})

	return monitor, chatSvc
}

func arenaMarket() core.Market {
	return core.Market{ID: "mkt-1", DebateID: 42, Topic: "Is virtue teachable?", TotalRounds: 3, Bonded: true}
}

func arenaGladiators() []core.Gladiator {
	return []core.Gladiator{
		{AgentID: "socrates", Name: "Socrates", Endpoint: "http://socrates", Ordinal: 0, Active: true},
		{AgentID: "plato", Name: "Plato", Endpoint: "http://plato", Ordinal: 1, Active: true},
		{AgentID: "ghost", Name: "Ghost", Endpoint: "http://ghost", Ordinal: 2, Active: false},
	}
}

func TestBondingCompleteStartsDebate(t *testing.T) {
	ctx := context.Background()
	lg := newFakeLedger()
	lg.markets = []core.Market{arenaMarket()}
	lg.gladiators = arenaGladiators()

	monitor, chatSvc := newTestMonitor(t, lg)

	ev := Event{Type: EventBondingComplete, MarketID: "mkt-1"}
	if err := monitor.HandleEvent(ctx, ev); err != nil {
		t.Fatalf("event handling failed: %v", err)
	}

	// created + 2 joins (inactive gladiator excluded) + opening + 2 replies
	msgs, err := chatSvc.Messages(42)
	if err != nil {
		t.Fatalf("failed to read messages: %v", err)
	}
	if len(msgs) != 6 {
		t.Fatalf("expected 6 messages, got %d", len(msgs))
	}
	if msgs[1].Content != "Socrates has joined the chat" || msgs[2].Content != "Plato has joined the chat" {
		t.Errorf("wrong join messages: %q, %q", msgs[1].Content, msgs[2].Content)
	}

	t.Run("Idempotent", func(t *testing.T) {
		if err := monitor.HandleEvent(ctx, ev); err != nil {
			t.Fatalf("second event failed: %v", err)
		}
		again, _ := chatSvc.Messages(42)
		if len(again) != len(msgs) {
			t.Errorf("duplicate trigger appended messages: %d vs %d", len(again), len(msgs))
		}
	})
}

func TestRoundStartedJudgesRound(t *testing.T) {
	ctx := context.Background()
	lg := newFakeLedger()
	lg.markets = []core.Market{arenaMarket()}
	lg.gladiators = arenaGladiators()
	lg.judge = core.Judge{AgentID: "minos", Name: "Minos", Endpoint: "http://minos"}
	lg.rounds["mkt-1"] = core.Round{DebateID: 42, Index: 0, EndsAt: time.Now().Add(time.Hour)}

	monitor, chatSvc := newTestMonitor(t, lg)

	// Debate must exist first, as in the real event sequence.
	if err := monitor.HandleEvent(ctx, Event{Type: EventBondingComplete, MarketID: "mkt-1"}); err != nil {
		t.Fatalf("bonding event failed: %v", err)
	}
	before, _ := chatSvc.Messages(42)

	ev := Event{Type: EventRoundStarted, MarketID: "mkt-1"}
	if err := monitor.HandleEvent(ctx, ev); err != nil {
		t.Fatalf("round event failed: %v", err)
	}

	if got := lg.verdicts["mkt-1"]; len(got) != 1 || got[0] != "socrates" {
		t.Errorf("verdict not recorded: %v", got)
	}

	msgs, _ := chatSvc.Messages(42)
	// judge join plus the verdict text
	if len(msgs) != len(before)+2 {
		t.Fatalf("expected %d messages, got %d", len(before)+2, len(msgs))
	}
	if msgs[len(before)].Content != "Judge Minos has entered the chat" {
		t.Errorf("wrong judge announcement: %q", msgs[len(before)].Content)
	}
	if msgs[len(msgs)-1].Sender != "minos" {
		t.Errorf("verdict message not from judge: %s", msgs[len(msgs)-1].Sender)
	}

	t.Run("Idempotent", func(t *testing.T) {
		if err := monitor.HandleEvent(ctx, ev); err != nil {
			t.Fatalf("second event failed: %v", err)
		}
		if len(lg.verdicts["mkt-1"]) != 1 {
			t.Errorf("verdict recorded twice: %v", lg.verdicts["mkt-1"])
		}
		again, _ := chatSvc.Messages(42)
		if len(again) != len(msgs) {
			t.Errorf("duplicate judge messages: %d vs %d", len(again), len(msgs))
		}
	})
}

func TestFailedStartIsRetriable(t *testing.T) {
	ctx := context.Background()
	lg := newFakeLedger()
	lg.markets = []core.Market{arenaMarket()}
	lg.gladiators = arenaGladiators()
	lg.gladiatorsErr = errors.New("ledger rpc down")

	monitor, chatSvc := newTestMonitor(t, lg)

	ev := Event{Type: EventBondingComplete, MarketID: "mkt-1"}
	if err := monitor.HandleEvent(ctx, ev); err == nil {
		t.Fatal("expected first event to fail")
	}

	// The redelivered event must finish the start, not hit a dead lease.
	if err := monitor.HandleEvent(ctx, ev); err != nil {
		t.Fatalf("retried event failed: %v", err)
	}

	msgs, err := chatSvc.Messages(42)
	if err != nil {
		t.Fatalf("failed to read messages: %v", err)
	}
	// created + 2 joins + opening + 2 replies, same as an untroubled start
	if len(msgs) != 6 {
		t.Fatalf("debate never started after retry: %d messages", len(msgs))
	}
	var agentMsgs int
	for _, msg := range msgs {
		if !msg.IsSystem() {
			agentMsgs++
		}
	}
	if agentMsgs != 2 {
		t.Errorf("expected 2 relayed replies after retry, got %d", agentMsgs)
	}
}

func TestFailedVerdictIsRetriable(t *testing.T) {
	ctx := context.Background()
	lg := newFakeLedger()
	lg.markets = []core.Market{arenaMarket()}
	lg.gladiators = arenaGladiators()
	lg.judge = core.Judge{AgentID: "minos", Name: "Minos", Endpoint: "http://minos"}
	lg.rounds["mkt-1"] = core.Round{DebateID: 42, Index: 0, EndsAt: time.Now().Add(time.Hour)}
	lg.verdictErr = errors.New("ledger rpc down")

	monitor, chatSvc := newTestMonitor(t, lg)

	if err := monitor.HandleEvent(ctx, Event{Type: EventBondingComplete, MarketID: "mkt-1"}); err != nil {
		t.Fatalf("bonding event failed: %v", err)
	}

	ev := Event{Type: EventRoundStarted, MarketID: "mkt-1"}
	if err := monitor.HandleEvent(ctx, ev); err == nil {
		t.Fatal("expected first round event to fail")
	}
	if len(lg.verdicts["mkt-1"]) != 0 {
		t.Fatalf("verdict recorded despite failure: %v", lg.verdicts["mkt-1"])
	}

	if err := monitor.HandleEvent(ctx, ev); err != nil {
		t.Fatalf("retried round event failed: %v", err)
	}
	if got := lg.verdicts["mkt-1"]; len(got) != 1 || got[0] != "socrates" {
		t.Errorf("verdict not recorded after retry: %v", got)
	}

	msgs, _ := chatSvc.Messages(42)
	if len(msgs) == 0 || msgs[len(msgs)-1].Sender != "minos" {
		t.Error("verdict message missing after retry")
	}
}

func TestPoll(t *testing.T) {
	ctx := context.Background()

	t.Run("FinalizesOverdueRound", func(t *testing.T) {
		lg := newFakeLedger()
		lg.markets = []core.Market{arenaMarket()}
		lg.rounds["mkt-1"] = core.Round{DebateID: 42, Index: 1, EndsAt: time.Now().Add(-time.Minute)}

		monitor, _ := newTestMonitor(t, lg)

		monitor.Poll(ctx)
		monitor.Poll(ctx)

		if got := lg.finalized["mkt-1"]; len(got) != 1 || got[0] != 1 {
			t.Errorf("expected one finalization of round 1, got %v", got)
		}
	})

	t.Run("StartsNextRoundAfterCompletion", func(t *testing.T) {
		lg := newFakeLedger()
		lg.markets = []core.Market{arenaMarket()}
		lg.rounds["mkt-1"] = core.Round{DebateID: 42, Index: 1, Completed: true, EndsAt: time.Now().Add(-time.Minute)}

		monitor, _ := newTestMonitor(t, lg)

		monitor.Poll(ctx)
		monitor.Poll(ctx)

		if lg.nextStarted["mkt-1"] != 1 {
			t.Errorf("expected one next-round start, got %d", lg.nextStarted["mkt-1"])
		}
		if len(lg.finalized["mkt-1"]) != 0 {
			t.Errorf("completed round must not be finalized: %v", lg.finalized["mkt-1"])
		}
	})

	t.Run("FinalRoundIsNotAdvanced", func(t *testing.T) {
		lg := newFakeLedger()
		lg.markets = []core.Market{arenaMarket()}
		lg.rounds["mkt-1"] = core.Round{DebateID: 42, Index: 2, Completed: true}

		monitor, _ := newTestMonitor(t, lg)
		monitor.Poll(ctx)

		if lg.nextStarted["mkt-1"] != 0 {
			t.Errorf("final round advanced: %d", lg.nextStarted["mkt-1"])
		}
	})

	t.Run("OneMarketFailureDoesNotHaltOthers", func(t *testing.T) {
		lg := newFakeLedger()
		broken := arenaMarket()
		healthy := core.Market{ID: "mkt-2", DebateID: 43, Topic: "t", TotalRounds: 2}
		lg.markets = []core.Market{broken, healthy}
		lg.roundErr["mkt-1"] = &core.LedgerError{MarketID: "mkt-1", Op: "read current round", Err: errors.New("rpc down")}
		lg.rounds["mkt-2"] = core.Round{DebateID: 43, Index: 0, EndsAt: time.Now().Add(-time.Minute)}

		monitor, _ := newTestMonitor(t, lg)
		monitor.Poll(ctx)

		if got := lg.finalized["mkt-2"]; len(got) != 1 {
			t.Errorf("healthy market not processed: %v", got)
		}
	})
}

func TestUnknownMarket(t *testing.T) {
	lg := newFakeLedger()
	monitor, _ := newTestMonitor(t, lg)

	err := monitor.HandleEvent(context.Background(), Event{Type: EventBondingComplete, MarketID: "nope"})
	if err == nil {
		t.Error("expected error for unknown market")
	}
}
