package ws

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"nhooyr.io/websocket"
	"nhooyr.io/websocket/wsjson"
)

const (
	writeWait      = 10 * time.Second
	pingInterval   = 30 * time.Second
	maxMessageSize = 4096
	sendBufSize    = 256
)

// Client represents a single WebSocket connection.
type Client struct {
	hub  *Hub
	conn *websocket.Conn
	id   uuid.UUID
	name string

	// rooms tracks which rooms this client listens to.
	rooms map[uuid.UUID]struct{}
	mu    sync.RWMutex

	send chan []byte
	done chan struct{}
}

func NewClient(hub *Hub, conn *websocket.Conn, name string) *Client {
	conn.SetReadLimit(maxMessageSize)
	return &Client{
		hub:   hub,
		conn:  conn,
		id:    uuid.New(),
		name:  name,
		rooms: make(map[uuid.UUID]struct{}),
		send:  make(chan []byte, sendBufSize),
		done:  make(chan struct{}),
	}
}

// IsSubscribed checks if this client is subscribed to a room.
func (c *Client) IsSubscribed(roomID uuid.UUID) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	_, ok := c.rooms[roomID]
	return ok
}

func (c *Client) Subscribe(roomID uuid.UUID) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.rooms[roomID] = struct{}{}
}

func (c *Client) Unsubscribe(roomID uuid.UUID) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.rooms, roomID)
}

// ReadPump reads messages from the WebSocket until the connection or ctx
// ends, then unregisters the client.
func (c *Client) ReadPump(ctx context.Context) {
	defer func() {
		c.hub.Unregister(c)
		c.conn.Close(websocket.StatusNormalClosure, "")
	}()

	for {
		var event Event
		err := wsjson.Read(ctx, c.conn, &event)
		if err != nil {
			if websocket.CloseStatus(err) != -1 || errors.Is(err, context.Canceled) {
				c.hub.logger.Debug("client closed", "client_id", c.id)
			} else {
				c.hub.logger.Warn("read error", "client_id", c.id, "error", err)
			}
			return
		}

		c.handleEvent(&event)
	}
}

// WritePump writes messages from the send channel to the WebSocket until the
// hub drops the client.
func (c *Client) WritePump() {
	ticker := time.NewTicker(pingInterval)
	defer ticker.Stop()

	for {
		select {
		case message := <-c.send:
			ctx, cancel := context.WithTimeout(context.Background(), writeWait)
			err := c.conn.Write(ctx, websocket.MessageText, message)
			cancel()
			if err != nil {
				c.hub.logger.Warn("write error", "client_id", c.id, "error", err)
				c.conn.CloseNow()
				return
			}

		case <-ticker.C:
			ctx, cancel := context.WithTimeout(context.Background(), writeWait)
			err := c.conn.Ping(ctx)
			cancel()
			if err != nil {
				c.hub.logger.Warn("ping error", "client_id", c.id, "error", err)
				c.conn.CloseNow()
				return
			}

		case <-c.done:
			return
		}
	}
}

// handleEvent routes an incoming client event.
func (c *Client) handleEvent(event *Event) {
	switch event.Type {
	case EventTypeRoomSubscribe:
		var p RoomPayload
		if err := json.Unmarshal(event.Payload, &p); err != nil || p.RoomID == uuid.Nil {
			c.sendError("INVALID_PAYLOAD", "invalid room.subscribe payload")
			return
		}
		c.Subscribe(p.RoomID)
		c.hub.logger.Debug("subscribed", "client_id", c.id, "room_id", p.RoomID)
		// Anything broadcast after this ack reaches the client. The
		// subscriber waits for it, so it is never dropped on a full buffer.
		c.sendAck(EventTypeRoomSubscribed, &p.RoomID, p)

	case EventTypeRoomUnsubscribe:
		var p RoomPayload
		if err := json.Unmarshal(event.Payload, &p); err != nil {
			c.sendError("INVALID_PAYLOAD", "invalid room.unsubscribe payload")
			return
		}
		c.Unsubscribe(p.RoomID)
		c.hub.logger.Debug("unsubscribed", "client_id", c.id, "room_id", p.RoomID)

	case EventTypePing:
		c.sendEvent(EventTypePong, nil, nil)

	default:
		c.sendError("UNKNOWN_EVENT", "unknown event type: "+event.Type)
	}
}

func (c *Client) sendError(code, message string) {
	c.sendEvent(EventTypeError, nil, ErrorPayload{Code: code, Message: message})
}

// sendEvent queues a reply, dropping it when the send buffer is full.
func (c *Client) sendEvent(eventType string, roomID *uuid.UUID, payload any) {
	data, ok := encodeEvent(eventType, roomID, payload)
	if !ok {
		return
	}
	select {
	case c.send <- data:
	case <-c.done:
	default:
	}
}

// sendAck queues a reply the peer is waiting for. It blocks until there is
// room, the client is dropped, or writeWait passes.
func (c *Client) sendAck(eventType string, roomID *uuid.UUID, payload any) {
	data, ok := encodeEvent(eventType, roomID, payload)
	if !ok {
		return
	}
	timer := time.NewTimer(writeWait)
	defer timer.Stop()
	select {
	case c.send <- data:
	case <-c.done:
	case <-timer.C:
		c.hub.logger.Warn("ack dropped, send buffer full", "client_id", c.id, "type", eventType)
	}
}

func encodeEvent(eventType string, roomID *uuid.UUID, payload any) ([]byte, bool) {
	evt := &Event{Type: eventType}
	if payload != nil {
		var err error
		if evt, err = NewEvent(eventType, roomID, payload); err != nil {
			return nil, false
		}
	}
	data, err := json.Marshal(evt)
	if err != nil {
		return nil, false
	}
	return data, true
}
