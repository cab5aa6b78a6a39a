package domain

import (
	"time"

	"github.com/google/uuid"
)

// ChatRoom is the 1:1 messaging channel paired with a SwipeRequest.
// It shares the request's id and exists for the request's whole life;
// closing is permanent, the room is never deleted or reopened.
type ChatRoom struct {
	ID            uuid.UUID  `json:"id"` // same as the request id
	RequesterID   uuid.UUID  `json:"requester_id"`
	SwiperID      *uuid.UUID `json:"swiper_id,omitempty"` // reassigned if the swiper changes
	IsActive      bool       `json:"is_active"`
	LastMessage   string     `json:"last_message,omitempty"`
	LastMessageAt time.Time  `json:"last_message_at"`
	CreatedAt     time.Time  `json:"created_at"`

	// Joined for list responses
	UnreadCount int `json:"unread_count,omitempty"`
}

// Participant reports whether userID belongs to this room.
func (c *ChatRoom) Participant(userID uuid.UUID) bool {
	if c.RequesterID == userID {
		return true
	}
	return c.SwiperID != nil && *c.SwiperID == userID
}

// OtherParticipant returns the counterpart of userID, or nil if the room
// has no swiper yet or userID is not a participant.
func (c *ChatRoom) OtherParticipant(userID uuid.UUID) *uuid.UUID {
	if c.RequesterID == userID {
		return c.SwiperID
	}
	if c.SwiperID != nil && *c.SwiperID == userID {
		req := c.RequesterID
		return &req
	}
	return nil
}

// MessageType distinguishes participant messages from synthetic ones.
type MessageType string

const (
	MessageTypeUser           MessageType = "user_message"
	MessageTypeSystem         MessageType = "system_notification"
	MessageTypeChangeProposal MessageType = "change_proposal"
)

// ChatMessage is an append-only chat entry. SenderID is nil for
// messages authored by the system.
type ChatMessage struct {
	ID         uuid.UUID   `json:"id"`
	RoomID     uuid.UUID   `json:"room_id"`
	SenderID   *uuid.UUID  `json:"sender_id,omitempty"`
	Content    string      `json:"content"`
	Type       MessageType `json:"type"`
	ProposalID *uuid.UUID  `json:"proposal_id,omitempty"`
	CreatedAt  time.Time   `json:"created_at"`
}
