package ws

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/jwall29/swiply/internal/domain"
)

// Event types - Client → Server
const (
	EventTypeRoomSubscribe   = "room.subscribe"
	EventTypeRoomUnsubscribe = "room.unsubscribe"
	EventTypePing            = "ping"
)

// Event types - Server → Client
const (
	EventTypeMessageNew       = "message.new"
	EventTypeRoomClosed       = "room.closed"
	EventTypeUnreadUpdated    = "unread.updated"
	EventTypeRequestUpdated   = "request.updated"
	EventTypeProposalNew      = "proposal.new"
	EventTypeProposalResolved = "proposal.resolved"
	EventTypePush             = "push"
	EventTypePong             = "pong"
	EventTypeError            = "error"
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
	domain.ChatMessage
}

type RoomClosedPayload struct {
	RoomID uuid.UUID `json:"room_id"`
}

type UnreadPayload struct {
	RoomID uuid.UUID `json:"room_id"`
	Count  int       `json:"count"`
}

type RequestPayload struct {
	domain.SwipeRequest
}

type ProposalPayload struct {
	domain.ChangeProposal
}

// PushPayload is the push-worthy signal notification delivery reacts
// to; Kind is one of the service push kinds.
type PushPayload struct {
	Kind  string    `json:"kind"`
	RefID uuid.UUID `json:"ref_id"`
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
