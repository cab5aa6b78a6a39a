// Package realtime fans service events out to WebSocket hubs through
// Redis pub/sub, so a write on any server instance reaches the clients
// of every instance.
package realtime

import (
	"context"
	"encoding/json"
	"log"
	"sync"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/jwall29/swiply/internal/domain"
	"github.com/jwall29/swiply/internal/transport/ws"
)

const eventsChannel = "swiply:events"

// Fanout is the local delivery side of the bus, implemented by ws.Hub.
type Fanout interface {
	BroadcastToRoom(roomID uuid.UUID, data []byte)
	SendToUser(userID uuid.UUID, data []byte)
}

// envelope wraps a ws event with its addressing for cross-instance
// transport.
type envelope struct {
	RoomID *uuid.UUID      `json:"room_id,omitempty"`
	UserID *uuid.UUID      `json:"user_id,omitempty"`
	Event  json.RawMessage `json:"event"`
}

// Bus implements service.Notifier by publishing envelopes to Redis and
// delivers subscribed envelopes to a local Fanout.
type Bus struct {
	rdb *redis.Client

	mu     sync.Mutex
	pubsub *redis.PubSub
	closed bool
}

func NewBus(rdb *redis.Client) *Bus {
	return &Bus{rdb: rdb}
}

// Run subscribes to the events channel and forwards every envelope to
// f until Close is called or the subscription ends.
func (b *Bus) Run(ctx context.Context, f Fanout) {
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return
	}
	b.pubsub = b.rdb.Subscribe(ctx, eventsChannel)
	pubsub := b.pubsub
	b.mu.Unlock()

	for msg := range pubsub.Channel() {
		var env envelope
		if err := json.Unmarshal([]byte(msg.Payload), &env); err != nil {
			log.Printf("realtime: bad envelope: %v", err)
			continue
		}
		switch {
		case env.UserID != nil:
			f.SendToUser(*env.UserID, env.Event)
		case env.RoomID != nil:
			f.BroadcastToRoom(*env.RoomID, env.Event)
		}
	}
}

// Close stops the subscription. Safe to call more than once.
func (b *Bus) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return nil
	}
	b.closed = true
	if b.pubsub != nil {
		return b.pubsub.Close()
	}
	return nil
}

// --- service.Notifier ---

func (b *Bus) NotifyNewMessage(msg *domain.ChatMessage) {
	evt, err := ws.NewEvent(ws.EventTypeMessageNew, &msg.RoomID, ws.MessagePayload{ChatMessage: *msg})
	if err != nil {
		log.Printf("realtime: marshal error: %v", err)
		return
	}
	b.publishRoom(msg.RoomID, evt)
}

func (b *Bus) NotifyRoomClosed(roomID uuid.UUID) {
	evt, err := ws.NewEvent(ws.EventTypeRoomClosed, &roomID, ws.RoomClosedPayload{RoomID: roomID})
	if err != nil {
		return
	}
	b.publishRoom(roomID, evt)
}

func (b *Bus) NotifyUnread(userID, roomID uuid.UUID, count int) {
	evt, err := ws.NewEvent(ws.EventTypeUnreadUpdated, &roomID, ws.UnreadPayload{RoomID: roomID, Count: count})
	if err != nil {
		return
	}
	b.publishUser(userID, evt)
}

func (b *Bus) NotifyRequestUpdated(req *domain.SwipeRequest) {
	evt, err := ws.NewEvent(ws.EventTypeRequestUpdated, &req.ID, ws.RequestPayload{SwipeRequest: *req})
	if err != nil {
		log.Printf("realtime: marshal error: %v", err)
		return
	}
	b.publishRoom(req.ID, evt)
}

func (b *Bus) NotifyProposalCreated(p *domain.ChangeProposal) {
	evt, err := ws.NewEvent(ws.EventTypeProposalNew, &p.RequestID, ws.ProposalPayload{ChangeProposal: *p})
	if err != nil {
		return
	}
	b.publishRoom(p.RequestID, evt)
}

func (b *Bus) NotifyProposalResolved(p *domain.ChangeProposal) {
	evt, err := ws.NewEvent(ws.EventTypeProposalResolved, &p.RequestID, ws.ProposalPayload{ChangeProposal: *p})
	if err != nil {
		return
	}
	b.publishRoom(p.RequestID, evt)
}

func (b *Bus) NotifyPush(userID uuid.UUID, kind string, refID uuid.UUID) {
	evt, err := ws.NewEvent(ws.EventTypePush, nil, ws.PushPayload{Kind: kind, RefID: refID})
	if err != nil {
		return
	}
	b.publishUser(userID, evt)
}

func (b *Bus) publishRoom(roomID uuid.UUID, evt *ws.Event) {
	b.publish(envelope{RoomID: &roomID}, evt)
}

func (b *Bus) publishUser(userID uuid.UUID, evt *ws.Event) {
	b.publish(envelope{UserID: &userID}, evt)
}

func (b *Bus) publish(env envelope, evt *ws.Event) {
	data, err := json.Marshal(evt)
	if err != nil {
		log.Printf("realtime: marshal error: %v", err)
		return
	}
	env.Event = data

	payload, err := json.Marshal(env)
	if err != nil {
		log.Printf("realtime: marshal error: %v", err)
		return
	}
	if err := b.rdb.Publish(context.Background(), eventsChannel, payload).Err(); err != nil {
		log.Printf("realtime: publish error: %v", err)
	}
}
