// Package ledger reads market and round state from the external ledger and
// requests lifecycle transitions on it.
package ledger

import (
	"context"

	"github.com/colosseum-live/arena/internal/core"
)

// Ledger is the coordinator's view of the external contract/ledger. Reads
// have no side effects on the ledger; the transition calls ask the ledger to
// advance its own state and write nothing locally.
type Ledger interface {
	// ActiveMarkets lists markets whose debates are live.
	ActiveMarkets(ctx context.Context) ([]core.Market, error)

	// CurrentRound returns the market's current round record.
	CurrentRound(ctx context.Context, marketID string) (core.Round, error)

	// Gladiators returns the market's gladiator registry in ordinal order.
	Gladiators(ctx context.Context, marketID string) ([]core.Gladiator, error)

	// Judge returns the market's judge registry entry.
	Judge(ctx context.Context, marketID string) (core.Judge, error)

	// FinalizeRound asks the ledger to close an overdue round.
	FinalizeRound(ctx context.Context, marketID string, roundIndex int) error

	// StartNextRound asks the ledger to open the round after a completed one.
	StartNextRound(ctx context.Context, marketID string) error

	// RecordVerdict reports the judge's winner for a round.
	RecordVerdict(ctx context.Context, marketID string, roundIndex int, winnerID string) error
}
