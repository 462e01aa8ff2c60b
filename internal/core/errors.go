package core

import (
	"errors"
	"fmt"
)

// ErrRoomNotFound is returned when an operation references a debate that has
// no chat room yet.
var ErrRoomNotFound = errors.New("chat room not found")

// ErrVerdictUnparsable is returned when the judge never produced a
// well-formed winner declaration within the retry budget.
var ErrVerdictUnparsable = errors.New("verdict format unparsable")

// DeliveryError indicates a remote agent was unreachable or returned a
// malformed or non-success response.
type DeliveryError struct {
	AgentID string
	Err     error
}

func (e *DeliveryError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("delivery to agent %s failed: %v", e.AgentID, e.Err)
	}
	return fmt.Sprintf("delivery to agent %s failed", e.AgentID)
}

func (e *DeliveryError) Unwrap() error {
	return e.Err
}

// StoreError indicates a persistence layer failure.
type StoreError struct {
	Op  string
	Err error
}

func (e *StoreError) Error() string {
	return fmt.Sprintf("store %s failed: %v", e.Op, e.Err)
}

func (e *StoreError) Unwrap() error {
	return e.Err
}

// LedgerError indicates a failed read or transition against the external
// ledger. It aborts only the current market's processing.
type LedgerError struct {
	MarketID string
	Op       string
	Err      error
}

func (e *LedgerError) Error() string {
	if e.MarketID != "" {
		return fmt.Sprintf("ledger %s failed for market %s: %v", e.Op, e.MarketID, e.Err)
	}
	return fmt.Sprintf("ledger %s failed: %v", e.Op, e.Err)
}

func (e *LedgerError) Unwrap() error {
	return e.Err
}
