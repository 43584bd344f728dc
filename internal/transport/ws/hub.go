package ws

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync/atomic"

	"github.com/google/uuid"
	"nhooyr.io/websocket"
)

// Hub manages all active WebSocket clients and routes room events to the
// clients subscribed to that room.
type Hub struct {
	clients map[*Client]struct{}
	count   atomic.Int64

	register   chan *Client
	unregister chan *Client
	broadcast  chan *broadcastMsg
	stopped    chan struct{}

	logger *slog.Logger
}

type broadcastMsg struct {
	roomID uuid.UUID
	data   []byte
}

func NewHub(logger *slog.Logger) *Hub {
	return &Hub{
		clients:    make(map[*Client]struct{}),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		broadcast:  make(chan *broadcastMsg, 256),
		stopped:    make(chan struct{}),
		logger:     logger.With("component", "ws"),
	}
}

// Run is the Hub's event loop. It returns when ctx is done, after closing
// every connection.
func (h *Hub) Run(ctx context.Context) {
	defer close(h.stopped)
	for {
		select {
		case <-ctx.Done():
			for client := range h.clients {
				h.drop(client)
				go client.conn.Close(websocket.StatusGoingAway, "server shutting down")
			}
			h.logger.Info("hub stopped")
			return

		case client := <-h.register:
			h.clients[client] = struct{}{}
			h.count.Store(int64(len(h.clients)))
			h.logger.Info("client connected", "client_id", client.id, "name", client.name, "total", len(h.clients))

		case client := <-h.unregister:
			if _, ok := h.clients[client]; ok {
				h.drop(client)
				h.logger.Info("client disconnected", "client_id", client.id, "total", len(h.clients))
			}

		case msg := <-h.broadcast:
			for client := range h.clients {
				if !client.IsSubscribed(msg.roomID) {
					continue
				}
				select {
				case client.send <- msg.data:
				default:
					// Client buffer full - disconnect
					h.logger.Warn("client too slow, dropping", "client_id", client.id)
					h.drop(client)
					go client.conn.Close(websocket.StatusPolicyViolation, "too slow")
				}
			}
		}
	}
}

// drop forgets client and stops its write pump. send stays open because the
// read pump may still be queueing replies. Closing the connection is left to
// the caller.
func (h *Hub) drop(client *Client) {
	delete(h.clients, client)
	h.count.Store(int64(len(h.clients)))
	close(client.done)
}

// Count is the number of connected clients.
func (h *Hub) Count() int {
	return int(h.count.Load())
}

func (h *Hub) Register(client *Client) bool {
	select {
	case h.register <- client:
		return true
	case <-h.stopped:
		return false
	}
}

func (h *Hub) Unregister(client *Client) {
	select {
	case h.unregister <- client:
	case <-h.stopped:
	}
}

// BroadcastToRoom sends an event to all subscribers of a room.
func (h *Hub) BroadcastToRoom(roomID uuid.UUID, event *Event) {
	data, err := json.Marshal(event)
	if err != nil {
		h.logger.Error("marshal event", "type", event.Type, "error", err)
		return
	}
	select {
	case h.broadcast <- &broadcastMsg{roomID: roomID, data: data}:
	case <-h.stopped:
	}
}
