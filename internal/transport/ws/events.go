package ws

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/vedran77/huddle/internal/domain"
)

// Event types - Client → Server
const (
	EventTypeRoomSubscribe   = "room.subscribe"
	EventTypeRoomUnsubscribe = "room.unsubscribe"
	EventTypePing            = "ping"
)

// Event types - Server → Client
const (
	EventTypeRoomSubscribed = "room.subscribed"
	EventTypeMessageNew     = "message.new"
	EventTypeMessageDeleted = "message.deleted"
	EventTypePong           = "pong"
	EventTypeError          = "error"
)

// Event is the base envelope for all WebSocket messages.
type Event struct {
	Type      string          `json:"type"`
	RoomID    *uuid.UUID      `json:"room_id,omitempty"`
	Payload   json.RawMessage `json:"payload,omitempty"`
	Timestamp int64           `json:"ts,omitempty"`
}

// --- Client → Server payloads ---

type RoomPayload struct {
	RoomID uuid.UUID `json:"room_id"`
}

// --- Server → Client payloads ---

type MessagePayload struct {
	domain.Message
}

type MessageDeletedPayload struct {
	ID uuid.UUID `json:"id"`
}

type ErrorPayload struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// NewEvent creates a server→client event with the current timestamp.
func NewEvent(eventType string, roomID *uuid.UUID, payload any) (*Event, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return &Event{
		Type:      eventType,
		RoomID:    roomID,
		Payload:   data,
		Timestamp: time.Now().Unix(),
	}, nil
}
