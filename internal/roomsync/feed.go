package roomsync

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/google/uuid"
	"github.com/vedran77/huddle/internal/domain"
)

// Subscriber attaches to the change feed for a single room and dispatches
// one callback per event.
type Subscriber struct {
	feed   ChangeFeed
	logger *slog.Logger
}

func NewSubscriber(feed ChangeFeed, logger *slog.Logger) *Subscriber {
	return &Subscriber{feed: feed, logger: logger}
}

func (s *Subscriber) Subscribe(ctx context.Context, room *domain.Room, onInsert func(domain.Message), onDelete func(uuid.UUID)) (Subscription, error) {
	roomID := room.ID
	sub, err := s.feed.Subscribe(ctx, roomID, func(ev FeedEvent) {
		switch ev.Kind {
		case FeedInsert:
			if ev.Message.RoomID != roomID {
				s.logger.Warn("dropping insert for another room", "room_id", roomID, "message_room_id", ev.Message.RoomID)
				return
			}
			onInsert(ev.Message)
		case FeedDelete:
			onDelete(ev.ID)
		default:
			s.logger.Warn("unknown feed event", "room_id", roomID, "kind", ev.Kind)
		}
	})
	if err != nil {
		return nil, fmt.Errorf("subscribing to room %s: %w", roomID, err)
	}
	return &onceSubscription{sub: sub}, nil
}

// onceSubscription makes Cancel safe to call more than once while releasing
// the underlying subscription exactly once.
type onceSubscription struct {
	once sync.Once
	sub  Subscription
}

func (o *onceSubscription) Cancel() {
	o.once.Do(o.sub.Cancel)
}
