// Package discussion orchestrates the turn-based exchange between gladiators.
package discussion

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/colosseum-live/arena/internal/chat"
	"github.com/colosseum-live/arena/internal/core"
)

const (
	// DefaultTurnBudget is the number of relay exchanges performed before a
	// discussion session ends, independent of participant count.
	DefaultTurnBudget = 5

	// DefaultTurnDelay is the inter-turn pause used as backpressure against
	// remote agents and the spectator fan-out.
	DefaultTurnDelay = 2 * time.Second

	openingPoints = 3
)

// Relayer delivers a message to a participant's remote endpoint and returns
// the reply.
type Relayer interface {
	Send(ctx context.Context, p core.Participant, roomID, senderID, text string) (string, error)
}

// Options tunes a discussion session. Zero values fall back to defaults;
// KeepAliveCycles of zero leaves the keep-alive nudge off.
type Options struct {
	TurnBudget      int
	TurnDelay       time.Duration
	KeepAliveCycles int
}

// Result reports what a finished session produced.
type Result struct {
	RoomID         string
	TurnsCompleted int
}

// Orchestrator cycles speaking rights among participants, relaying the
// latest room message to the current speaker and appending the reply.
type Orchestrator struct {
	chat  *chat.Service
	relay Relayer
	opts  Options
}

// NewOrchestrator creates an orchestrator.
func NewOrchestrator(chatSvc *chat.Service, relay Relayer, opts Options) *Orchestrator {
	if opts.TurnBudget <= 0 {
		opts.TurnBudget = DefaultTurnBudget
	}
	if opts.TurnDelay <= 0 {
		opts.TurnDelay = DefaultTurnDelay
	}
	return &Orchestrator{
		chat:  chatSvc,
		relay: relay,
		opts:  opts,
	}
}

// Facilitate runs one budgeted discussion session for a debate. The chat
// room must already exist; a single speaker's delivery failure is logged and
// the loop moves on, still consuming that turn's budget.
func (o *Orchestrator) Facilitate(ctx context.Context, debateID uint64, topic string, gladiators []core.Gladiator) (Result, error) {
	roomID, err := o.chat.RoomIDFor(debateID)
	if err != nil {
		return Result{}, err
	}

	participants := activeOnly(gladiators)
	if len(participants) == 0 {
		return Result{}, fmt.Errorf("no active participants for debate %d", debateID)
	}

	opening := fmt.Sprintf(
		"The topic of this debate is: %q. %s, open with your position statement and %d supporting points. Every speaker after that should engage directly with the previous argument.",
		topic, participants[0].Name, openingPoints,
	)
	if err := o.chat.SendMessage(debateID, core.SystemSender, opening); err != nil {
		return Result{}, err
	}

	slog.Info("Discussion started",
		"debate_id", debateID,
		"room_id", roomID,
		"participants", len(participants),
		"turn_budget", o.opts.TurnBudget,
	)

	turns := 0
	for turnIndex := 0; turns < o.opts.TurnBudget; turnIndex++ {
		if err := ctx.Err(); err != nil {
			return Result{RoomID: roomID, TurnsCompleted: turns}, err
		}

		speaker := participants[turnIndex%len(participants)]

		last, err := o.chat.LastMessage(debateID)
		if err != nil {
			return Result{RoomID: roomID, TurnsCompleted: turns}, err
		}
		if last == nil {
			// Cannot happen after the opening message; a nil here means the
			// store lost the log out from under us.
			return Result{RoomID: roomID, TurnsCompleted: turns}, fmt.Errorf("no message to relay in room %s", roomID)
		}
		turns++

		reply, err := o.relay.Send(ctx, speaker.AsParticipant(), roomID, last.Sender, last.Content)
		if err != nil {
			var deliveryErr *core.DeliveryError
			if !errors.As(err, &deliveryErr) {
				return Result{RoomID: roomID, TurnsCompleted: turns}, err
			}
			// Spectators see the gap in the log, not an error message.
			slog.Warn("Speaker unreachable, moving on", "debate_id", debateID, "speaker", speaker.AgentID, "error", err)
		} else if err := o.chat.SendMessage(debateID, speaker.AgentID, reply); err != nil {
			return Result{RoomID: roomID, TurnsCompleted: turns}, err
		}

		if o.nudgeDue(turnIndex, len(participants)) {
			nudge := "Moderator check-in: respond to the most recent argument directly and bring one new point. Avoid restating earlier turns."
			if err := o.chat.SendMessage(debateID, core.SystemSender, nudge); err != nil {
				return Result{RoomID: roomID, TurnsCompleted: turns}, err
			}
		}

		if turns < o.opts.TurnBudget {
			select {
			case <-ctx.Done():
				return Result{RoomID: roomID, TurnsCompleted: turns}, ctx.Err()
			case <-time.After(o.opts.TurnDelay):
			}
		}
	}

	slog.Info("Discussion finished", "debate_id", debateID, "room_id", roomID, "turns", turns)
	return Result{RoomID: roomID, TurnsCompleted: turns}, nil
}

// nudgeDue reports whether a keep-alive nudge lands after this turn. A cycle
// is one full rotation of speakers.
func (o *Orchestrator) nudgeDue(turnIndex, participants int) bool {
	if o.opts.KeepAliveCycles <= 0 {
		return false
	}
	completed := turnIndex + 1
	if completed%participants != 0 {
		return false
	}
	cycles := completed / participants
	return cycles%o.opts.KeepAliveCycles == 0
}

// activeOnly filters out inactive gladiators and fixes the speaking order by
// ordinal, whatever order the registry returned them in.
func activeOnly(gladiators []core.Gladiator) []core.Gladiator {
	active := make([]core.Gladiator, 0, len(gladiators))
	for _, g := range gladiators {
		if g.Active {
			active = append(active, g)
		}
	}
	sort.Slice(active, func(i, j int) bool { return active[i].Ordinal < active[j].Ordinal })
	return active
}
