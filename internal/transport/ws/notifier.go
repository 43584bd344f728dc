package ws

import (
	"github.com/google/uuid"
	"github.com/vedran77/huddle/internal/domain"
)

// HubNotifier implements service.Notifier using the WebSocket Hub.
type HubNotifier struct {
	hub *Hub
}

func NewHubNotifier(hub *Hub) *HubNotifier {
	return &HubNotifier{hub: hub}
}

func (n *HubNotifier) NotifyNewMessage(msg *domain.Message) {
	evt, err := NewEvent(EventTypeMessageNew, &msg.RoomID, MessagePayload{Message: *msg})
	if err != nil {
		n.hub.logger.Error("marshal message.new", "error", err)
		return
	}
	n.hub.BroadcastToRoom(msg.RoomID, evt)
}

func (n *HubNotifier) NotifyDeletedMessage(roomID, messageID uuid.UUID) {
	evt, err := NewEvent(EventTypeMessageDeleted, &roomID, MessageDeletedPayload{ID: messageID})
	if err != nil {
		n.hub.logger.Error("marshal message.deleted", "error", err)
		return
	}
	n.hub.BroadcastToRoom(roomID, evt)
}
