// Package verdict runs the fixed message exchange that extracts a winner
// from the judge agent.
package verdict

import (
	"context"
	"fmt"
	"log/slog"
	"regexp"
	"strings"
	"time"

	"github.com/colosseum-live/arena/internal/chat"
	"github.com/colosseum-live/arena/internal/core"
)

// DefaultMaxAttempts bounds the format-extraction loop. The exchange fails
// with core.ErrVerdictUnparsable once the bound is reached.
const DefaultMaxAttempts = 4

var winnerRe = regexp.MustCompile(`\{\s*winner\s*:\s*'([^']+)'\s*\}`)

// Relayer delivers a message to the judge's endpoint and returns the reply.
type Relayer interface {
	Send(ctx context.Context, p core.Participant, roomID, senderID, text string) (string, error)
}

// Protocol performs the prime/transcript/decision/extract exchange.
type Protocol struct {
	chat        *chat.Service
	relay       Relayer
	maxAttempts int
	backoff     func(attempt int) time.Duration
}

// NewProtocol creates a verdict protocol with the given extraction retry cap.
// A cap of zero or less uses the default.
func NewProtocol(chatSvc *chat.Service, relay Relayer, maxAttempts int) *Protocol {
	if maxAttempts <= 0 {
		maxAttempts = DefaultMaxAttempts
	}
	return &Protocol{
		chat:        chatSvc,
		relay:       relay,
		maxAttempts: maxAttempts,
		backoff:     defaultBackoff,
	}
}

func defaultBackoff(attempt int) time.Duration {
	return time.Duration(1<<uint(attempt)) * time.Second
}

// RequestVerdict walks the judge through the full exchange and returns the
// reasoned verdict text plus the extracted winner identifier. Transport
// failures during the prime, transcript and decision steps propagate; a
// malformed winner declaration only drives the bounded retry.
func (p *Protocol) RequestVerdict(ctx context.Context, debateID uint64, judge core.Judge) (core.Verdict, error) {
	roomID, err := p.chat.RoomIDFor(debateID)
	if err != nil {
		return core.Verdict{}, err
	}

	transcript, err := p.buildTranscript(debateID)
	if err != nil {
		return core.Verdict{}, err
	}

	participant := judge.AsParticipant()

	prime := "You are the judge of this debate. The full transcript follows in the next message. Read it carefully and wait for the decision prompt before judging."
	if _, err := p.relay.Send(ctx, participant, roomID, core.SystemSender, prime); err != nil {
		return core.Verdict{}, err
	}

	if _, err := p.relay.Send(ctx, participant, roomID, core.SystemSender, transcript); err != nil {
		return core.Verdict{}, err
	}

	decisionPrompt := "Deliver your verdict: name the participant who argued best and explain your reasoning."
	verdictText, err := p.relay.Send(ctx, participant, roomID, core.SystemSender, decisionPrompt)
	if err != nil {
		return core.Verdict{}, err
	}

	winnerID, err := p.extractWinner(ctx, participant, roomID)
	if err != nil {
		return core.Verdict{}, err
	}

	slog.Info("Verdict extracted", "debate_id", debateID, "winner", winnerID)

	return core.Verdict{
		Text:      verdictText,
		WinnerID:  winnerID,
		CreatedAt: time.Now(),
	}, nil
}

// extractWinner asks the judge to restate the winner as a fixed-shape token
// until it parses or the attempt bound is hit.
func (p *Protocol) extractWinner(ctx context.Context, judge core.Participant, roomID string) (string, error) {
	formatPrompt := "Restate your winner as exactly {winner: '<agent id>'} with nothing else."

	for attempt := 0; attempt < p.maxAttempts; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return "", ctx.Err()
			case <-time.After(p.backoff(attempt - 1)):
			}
		}

		reply, err := p.relay.Send(ctx, judge, roomID, core.SystemSender, formatPrompt)
		if err != nil {
			return "", err
		}

		if m := winnerRe.FindStringSubmatch(reply); m != nil {
			return m[1], nil
		}

		slog.Warn("Winner declaration unparsable, retrying", "attempt", attempt+1, "max_attempts", p.maxAttempts)
	}

	return "", fmt.Errorf("%w after %d attempts", core.ErrVerdictUnparsable, p.maxAttempts)
}

// buildTranscript serializes the debate's non-system messages in append
// order.
func (p *Protocol) buildTranscript(debateID uint64) (string, error) {
	msgs, err := p.chat.Messages(debateID)
	if err != nil {
		return "", err
	}

	var sb strings.Builder
	sb.WriteString("Debate transcript:\n")
	for _, msg := range msgs {
		if msg.IsSystem() {
			continue
		}
		fmt.Fprintf(&sb, "%s: %s\n", msg.Sender, msg.Content)
	}
	return sb.String(), nil
}
