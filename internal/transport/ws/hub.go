package ws

import (
	"log"

	"github.com/google/uuid"
)

// Hub manages all active WebSocket clients and routes events to them.
type Hub struct {
	// clients maps userID → client.
	clients map[uuid.UUID]*Client

	register   chan *Client
	unregister chan *Client
	broadcast  chan *broadcastMsg
}

type broadcastMsg struct {
	roomID *uuid.UUID // fan out to room subscribers
	userID *uuid.UUID // or deliver to one user
	data   []byte
}

func NewHub() *Hub {
	return &Hub{
		clients:    make(map[uuid.UUID]*Client),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		broadcast:  make(chan *broadcastMsg, 256),
	}
}

// Run starts the Hub's main event loop. Call this in a goroutine.
func (h *Hub) Run() {
	for {
		select {
		case client := <-h.register:
			h.clients[client.userID] = client
			log.Printf("ws hub: user %s connected (%d total)", client.userID, len(h.clients))

		case client := <-h.unregister:
			if _, ok := h.clients[client.userID]; ok {
				delete(h.clients, client.userID)
				close(client.send)
				close(client.done)
				log.Printf("ws hub: user %s disconnected (%d total)", client.userID, len(h.clients))
			}

		case msg := <-h.broadcast:
			if msg.userID != nil {
				if client, ok := h.clients[*msg.userID]; ok {
					h.deliver(client, msg.data)
				}
				continue
			}
			for _, client := range h.clients {
				if msg.roomID != nil && !client.IsSubscribed(*msg.roomID) {
					continue
				}
				h.deliver(client, msg.data)
			}
		}
	}
}

func (h *Hub) deliver(client *Client, data []byte) {
	select {
	case client.send <- data:
	default:
		// Client buffer full - disconnect
		delete(h.clients, client.userID)
		close(client.send)
		close(client.done)
	}
}

// BroadcastToRoom sends raw event bytes to all subscribers of a room.
func (h *Hub) BroadcastToRoom(roomID uuid.UUID, data []byte) {
	h.broadcast <- &broadcastMsg{roomID: &roomID, data: data}
}

// SendToUser sends raw event bytes directly to a specific user.
func (h *Hub) SendToUser(userID uuid.UUID, data []byte) {
	h.broadcast <- &broadcastMsg{userID: &userID, data: data}
}
