// Package chat manages debate chat rooms and their message logs.
package chat

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/colosseum-live/arena/internal/core"
	"github.com/colosseum-live/arena/internal/feed"
	"github.com/colosseum-live/arena/internal/store"
)

const roomCreatedNotice = "Chat room created"

// Service creates rooms, admits participants and appends messages. Every
// appended message is published to the spectator hub.
type Service struct {
	store store.Store
	hub   *feed.Hub
}

// NewService creates a new chat service.
func NewService(st store.Store, hub *feed.Hub) *Service {
	return &Service{
		store: st,
		hub:   hub,
	}
}

// CreateChatRoom returns the room for a debate, creating it on first need.
// A freshly created room always opens with the synthetic system notice,
// written exactly once; an existing room is returned unchanged.
func (s *Service) CreateChatRoom(debateID uint64) (string, error) {
	roomID, err := s.store.RoomIDFor(debateID)
	if err != nil {
		return "", err
	}
	if roomID != "" {
		return roomID, nil
	}

	roomID, err = s.store.CreateRoom()
	if err != nil {
		return "", err
	}
	if err := s.store.MapDebateToRoom(debateID, roomID); err != nil {
		return "", err
	}

	slog.Info("Chat room created", "debate_id", debateID, "room_id", roomID)

	if err := s.append(debateID, roomID, core.SystemSender, roomCreatedNotice); err != nil {
		return "", err
	}

	return roomID, nil
}

// JoinAsGladiator announces a gladiator's entrance.
func (s *Service) JoinAsGladiator(debateID uint64, name string) error {
	return s.SendMessage(debateID, core.SystemSender, fmt.Sprintf("%s has joined the chat", name))
}

// JoinAsJudge announces the judge's entrance.
func (s *Service) JoinAsJudge(debateID uint64, name string) error {
	return s.SendMessage(debateID, core.SystemSender, fmt.Sprintf("Judge %s has entered the chat", name))
}

// SendMessage appends a message to the debate's room, creating the room if
// this is the debate's very first message.
func (s *Service) SendMessage(debateID uint64, senderID, content string) error {
	roomID, err := s.CreateChatRoom(debateID)
	if err != nil {
		return err
	}
	return s.append(debateID, roomID, senderID, content)
}

// Messages returns the debate's full ordered history. A debate with no room
// yields an empty sequence, not an error.
func (s *Service) Messages(debateID uint64) ([]core.Message, error) {
	roomID, err := s.store.RoomIDFor(debateID)
	if err != nil {
		return nil, err
	}
	if roomID == "" {
		return []core.Message{}, nil
	}
	return s.store.Messages(roomID)
}

// RoomIDFor resolves the room for a debate without creating one. It returns
// core.ErrRoomNotFound when no room was ever created.
func (s *Service) RoomIDFor(debateID uint64) (string, error) {
	roomID, err := s.store.RoomIDFor(debateID)
	if err != nil {
		return "", err
	}
	if roomID == "" {
		return "", core.ErrRoomNotFound
	}
	return roomID, nil
}

// LastMessage returns the most recent message of the debate's room, or nil
// for an empty room.
func (s *Service) LastMessage(debateID uint64) (*core.Message, error) {
	roomID, err := s.RoomIDFor(debateID)
	if err != nil {
		return nil, err
	}
	return s.store.LastMessage(roomID)
}

func (s *Service) append(debateID uint64, roomID, senderID, content string) error {
	msg := core.Message{
		ID:        uuid.NewString(),
		RoomID:    roomID,
		Sender:    senderID,
		Content:   content,
		CreatedAt: time.Now(),
	}

	if err := s.store.Append(roomID, msg); err != nil {
		return err
	}

	s.hub.Publish(debateID, msg)
	return nil
}
