package client

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/vedran77/huddle/internal/roomsync"
	"github.com/vedran77/huddle/internal/transport/ws"
	"nhooyr.io/websocket"
	"nhooyr.io/websocket/wsjson"
)

const (
	feedReadLimit = 1 << 20
	closeWait     = 2 * time.Second
)

// Feed opens one WebSocket per subscription and turns server events into
// roomsync feed events.
type Feed struct {
	baseURL string
	name    string
	logger  *slog.Logger

	// OnDisconnect, when set, is called once if a subscription's connection
	// ends without being cancelled.
	OnDisconnect func(roomID uuid.UUID, err error)
}

func NewFeed(baseURL, name string, logger *slog.Logger) *Feed {
	return &Feed{
		baseURL: strings.TrimRight(baseURL, "/"),
		name:    name,
		logger:  logger.With("component", "feed"),
	}
}

func (f *Feed) wsURL() (string, error) {
	u, err := url.Parse(f.baseURL + "/ws")
	if err != nil {
		return "", fmt.Errorf("parsing server url: %w", err)
	}
	switch u.Scheme {
	case "http":
		u.Scheme = "ws"
	case "https":
		u.Scheme = "wss"
	}
	if f.name != "" {
		u.RawQuery = url.Values{"name": {f.name}}.Encode()
	}
	return u.String(), nil
}

// Subscribe dials the server, subscribes to roomID and waits for the
// server's acknowledgement. Every event broadcast after Subscribe returns
// reaches handler.
func (f *Feed) Subscribe(ctx context.Context, roomID uuid.UUID, handler func(roomsync.FeedEvent)) (roomsync.Subscription, error) {
	endpoint, err := f.wsURL()
	if err != nil {
		return nil, err
	}

	conn, _, err := websocket.Dial(ctx, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("dialing feed: %w", err)
	}
	conn.SetReadLimit(feedReadLimit)

	if err := f.handshake(ctx, conn, roomID); err != nil {
		conn.CloseNow()
		return nil, err
	}

	runCtx, cancel := context.WithCancel(context.Background())
	sub := &subscription{
		conn:   conn,
		cancel: cancel,
		done:   make(chan struct{}),
	}
	go f.read(runCtx, sub, roomID, handler)

	f.logger.Info("subscribed", "room_id", roomID)
	return sub, nil
}

func (f *Feed) handshake(ctx context.Context, conn *websocket.Conn, roomID uuid.UUID) error {
	payload, err := json.Marshal(ws.RoomPayload{RoomID: roomID})
	if err != nil {
		return err
	}
	if err := wsjson.Write(ctx, conn, ws.Event{Type: ws.EventTypeRoomSubscribe, Payload: payload}); err != nil {
		return fmt.Errorf("sending subscribe: %w", err)
	}

	for {
		var evt ws.Event
		if err := wsjson.Read(ctx, conn, &evt); err != nil {
			return fmt.Errorf("waiting for subscribe ack: %w", err)
		}
		switch evt.Type {
		case ws.EventTypeRoomSubscribed:
			if evt.RoomID != nil && *evt.RoomID == roomID {
				return nil
			}
		case ws.EventTypeError:
			p, err := decodeError(evt.Payload)
			if err != nil {
				f.logger.Warn("bad error payload", "error", err)
			}
			return fmt.Errorf("subscribe rejected: %s: %s", p.Code, p.Message)
		}
	}
}

func (f *Feed) read(ctx context.Context, sub *subscription, roomID uuid.UUID, handler func(roomsync.FeedEvent)) {
	defer close(sub.done)

	for {
		var evt ws.Event
		err := wsjson.Read(ctx, sub.conn, &evt)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			f.logger.Warn("feed connection lost", "room_id", roomID, "error", err)
			sub.conn.CloseNow()
			if f.OnDisconnect != nil {
				f.OnDisconnect(roomID, err)
			}
			return
		}

		ev, ok := f.decode(&evt)
		if !ok {
			continue
		}
		handler(ev)
	}
}

func (f *Feed) decode(evt *ws.Event) (roomsync.FeedEvent, bool) {
	switch evt.Type {
	case ws.EventTypeMessageNew:
		var p ws.MessagePayload
		if err := json.Unmarshal(evt.Payload, &p); err != nil {
			f.logger.Warn("bad message.new payload", "error", err)
			return roomsync.FeedEvent{}, false
		}
		return roomsync.FeedEvent{Kind: roomsync.FeedInsert, Message: p.Message}, true

	case ws.EventTypeMessageDeleted:
		var p ws.MessageDeletedPayload
		if err := json.Unmarshal(evt.Payload, &p); err != nil || p.ID == uuid.Nil {
			f.logger.Warn("bad message.deleted payload", "error", err)
			return roomsync.FeedEvent{}, false
		}
		return roomsync.FeedEvent{Kind: roomsync.FeedDelete, ID: p.ID}, true

	case ws.EventTypeError:
		p, err := decodeError(evt.Payload)
		if err != nil {
			f.logger.Warn("bad error payload", "error", err)
		}
		f.logger.Warn("feed error", "code", p.Code, "message", p.Message)
	}
	return roomsync.FeedEvent{}, false
}

// decodeError falls back to a generic payload when the server's error
// cannot be read.
func decodeError(raw json.RawMessage) (ws.ErrorPayload, error) {
	var p ws.ErrorPayload
	if err := json.Unmarshal(raw, &p); err != nil {
		return ws.ErrorPayload{Code: "UNKNOWN", Message: "unreadable error payload"}, err
	}
	return p, nil
}

type subscription struct {
	conn   *websocket.Conn
	cancel context.CancelFunc
	done   chan struct{}
	once   sync.Once
}

// Cancel closes the connection and waits for the reader to stop, so no
// handler call happens after it returns.
func (s *subscription) Cancel() {
	s.once.Do(func() {
		s.cancel()
		go s.conn.Close(websocket.StatusNormalClosure, "")
		select {
		case <-s.done:
		case <-time.After(closeWait):
		}
	})
}
