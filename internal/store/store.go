// Package store provides persistence for chat rooms and their message logs.
package store

import (
	"github.com/colosseum-live/arena/internal/core"
)

// Store defines the persistence interface for the coordinator. Message logs
// are append-only; the append order returned by Messages is authoritative.
type Store interface {
	// Initialize sets up the storage (creates tables, etc.)
	Initialize() error

	// Close closes the storage connection.
	Close() error

	// Room operations. MapDebateToRoom is intentionally not atomic with
	// room creation: callers must check RoomIDFor first and only create
	// when absent. A check-then-act race under concurrent creation is an
	// accepted limitation; the transition lease narrows the window.
	CreateRoom() (string, error)
	MapDebateToRoom(debateID uint64, roomID string) error
	RoomIDFor(debateID uint64) (string, error)
	DebateIDFor(roomID string) (uint64, bool, error)

	// Message operations
	Append(roomID string, msg core.Message) error
	Messages(roomID string) ([]core.Message, error)
	LastMessage(roomID string) (*core.Message, error)

	// AcquireLease claims the (debateID, transition) lease. It returns
	// false when another path already holds it. A holder whose transition
	// failed must call ReleaseLease so a later trigger can retry.
	AcquireLease(debateID uint64, transition string) (bool, error)
	ReleaseLease(debateID uint64, transition string) error
}
