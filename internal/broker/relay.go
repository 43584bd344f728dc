// Package broker relays message events between server instances over NATS so
// that every instance's WebSocket hub sees writes made through any other.
package broker

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"
	"github.com/nats-io/nats.go"
	"github.com/vedran77/huddle/internal/domain"
	"github.com/vedran77/huddle/internal/service"
)

const subjectPrefix = "rooms."

type eventKind string

const (
	kindInsert eventKind = "insert"
	kindDelete eventKind = "delete"
)

type relayEvent struct {
	Kind      eventKind       `json:"kind"`
	RoomID    uuid.UUID       `json:"room_id"`
	Message   *domain.Message `json:"message,omitempty"`
	MessageID uuid.UUID       `json:"message_id,omitempty"`
}

// Relay implements service.Notifier. Events are published to
// rooms.<room id>.events and delivered to the local notifier only when they
// come back from NATS, so each instance delivers every event once.
type Relay struct {
	nc     *nats.Conn
	local  service.Notifier
	logger *slog.Logger
	sub    *nats.Subscription
}

func NewRelay(nc *nats.Conn, local service.Notifier, logger *slog.Logger) *Relay {
	return &Relay{nc: nc, local: local, logger: logger.With("component", "relay")}
}

func Subject(roomID uuid.UUID) string {
	return subjectPrefix + roomID.String() + ".events"
}

// Start subscribes to every room's events.
func (r *Relay) Start() error {
	sub, err := r.nc.Subscribe(subjectPrefix+"*.events", r.handle)
	if err != nil {
		return fmt.Errorf("subscribing to room events: %w", err)
	}
	r.sub = sub
	r.logger.Info("relay started", "subject", sub.Subject)
	return nil
}

// Stop drains the subscription so events already received are delivered.
func (r *Relay) Stop() error {
	if r.sub == nil {
		return nil
	}
	return r.sub.Drain()
}

func (r *Relay) NotifyNewMessage(msg *domain.Message) {
	r.publish(relayEvent{Kind: kindInsert, RoomID: msg.RoomID, Message: msg})
}

func (r *Relay) NotifyDeletedMessage(roomID, messageID uuid.UUID) {
	r.publish(relayEvent{Kind: kindDelete, RoomID: roomID, MessageID: messageID})
}

func (r *Relay) publish(ev relayEvent) {
	data, err := json.Marshal(ev)
	if err == nil {
		err = r.nc.Publish(Subject(ev.RoomID), data)
	}
	if err != nil {
		// Local clients should still hear about it.
		r.logger.Warn("publish failed, delivering locally", "room_id", ev.RoomID, "kind", ev.Kind, "error", err)
		r.deliver(ev)
	}
}

func (r *Relay) handle(m *nats.Msg) {
	var ev relayEvent
	if err := json.Unmarshal(m.Data, &ev); err != nil {
		r.logger.Warn("dropping malformed relay event", "subject", m.Subject, "error", err)
		return
	}
	if want := Subject(ev.RoomID); !strings.EqualFold(m.Subject, want) {
		r.logger.Warn("relay event on wrong subject", "subject", m.Subject, "room_id", ev.RoomID)
		return
	}
	r.deliver(ev)
}

func (r *Relay) deliver(ev relayEvent) {
	switch ev.Kind {
	case kindInsert:
		if ev.Message == nil {
			r.logger.Warn("insert event without message", "room_id", ev.RoomID)
			return
		}
		r.local.NotifyNewMessage(ev.Message)
	case kindDelete:
		r.local.NotifyDeletedMessage(ev.RoomID, ev.MessageID)
	default:
		r.logger.Warn("unknown relay event", "kind", ev.Kind)
	}
}
