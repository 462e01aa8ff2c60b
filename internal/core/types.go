// Package core contains the core domain types for arena.
package core

import (
	"time"
)

// SystemSender is the sender id used for moderator/system messages.
const SystemSender = "system"

// Debate is the top-level topic entity, owned by the external ledger.
// The coordinator only reads and derives from it.
type Debate struct {
	ID          uint64  `json:"id"`
	Topic       string  `json:"topic"`
	TotalRounds int     `json:"total_rounds"`
	Rounds      []Round `json:"rounds,omitempty"`
	WinnerID    string  `json:"winner_id,omitempty"`
}

// Round is one timed segment of a debate.
type Round struct {
	DebateID  uint64    `json:"debate_id"`
	Index     int       `json:"index"`
	StartedAt time.Time `json:"started_at"`
	EndsAt    time.Time `json:"ends_at"`
	Completed bool      `json:"completed"`
	Verdict   *Verdict  `json:"verdict,omitempty"`
}

// Overdue reports whether the round's end time has passed without the
// external source marking it complete.
func (r Round) Overdue(now time.Time) bool {
	return !r.Completed && now.After(r.EndsAt)
}

// Verdict is the judge's reasoning plus the extracted winner identifier.
type Verdict struct {
	Text      string    `json:"text"`
	WinnerID  string    `json:"winner_id"`
	Scores    []Score   `json:"scores,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// Score is a single entry of a verdict's ordered score list.
type Score struct {
	AgentID string `json:"agent_id"`
	Value   int    `json:"value"`
}

// Message is one entry of a chat room's append-only log. Messages are never
// mutated or deleted; insertion order is authoritative.
type Message struct {
	ID        string    `json:"id"`
	RoomID    string    `json:"room_id"`
	Sender    string    `json:"sender"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`
}

// IsSystem reports whether the message was authored by the moderator.
func (m Message) IsSystem() bool {
	return m.Sender == SystemSender
}

// Gladiator is an autonomous participant agent with an ordinal speaking
// position, materialized from the ledger registry at orchestration start.
type Gladiator struct {
	AgentID  string `json:"agent_id"`
	Name     string `json:"name"`
	Endpoint string `json:"endpoint"`
	Ordinal  int    `json:"ordinal"`
	Active   bool   `json:"active"`
}

// Judge is the privileged agent that reviews a transcript and names a winner.
type Judge struct {
	AgentID  string `json:"agent_id"`
	Name     string `json:"name"`
	Endpoint string `json:"endpoint"`
}

// Participant is the subset of an agent the gateway needs to reach it.
type Participant struct {
	AgentID  string
	Name     string
	Endpoint string
}

// AsParticipant converts a gladiator for gateway calls.
func (g Gladiator) AsParticipant() Participant {
	return Participant{AgentID: g.AgentID, Name: g.Name, Endpoint: g.Endpoint}
}

// AsParticipant converts a judge for gateway calls.
func (j Judge) AsParticipant() Participant {
	return Participant{AgentID: j.AgentID, Name: j.Name, Endpoint: j.Endpoint}
}

// Market is a ledger market hosting a debate.
type Market struct {
	ID          string `json:"id"`
	DebateID    uint64 `json:"debate_id"`
	Topic       string `json:"topic"`
	TotalRounds int    `json:"total_rounds"`
	Bonded      bool   `json:"bonded"`
}
