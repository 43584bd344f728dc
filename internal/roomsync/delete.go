package roomsync

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/vedran77/huddle/internal/domain"
)

// DeletePipeline removes a message remotely, drops it locally without
// waiting for the feed echo, then replaces the store with a fresh read of the
// room. The re-read is the final word when the feed and the local removal
// disagree.
type DeletePipeline struct {
	rooms  RoomStore
	room   domain.Room
	post   func(Event) bool
	logger *slog.Logger
}

func NewDeletePipeline(rooms RoomStore, room domain.Room, post func(Event) bool, logger *slog.Logger) *DeletePipeline {
	return &DeletePipeline{rooms: rooms, room: room, post: post, logger: logger}
}

func (p *DeletePipeline) Remove(ctx context.Context, id uuid.UUID) error {
	if err := p.rooms.DeleteMessage(ctx, id); err != nil {
		p.logger.Warn("delete request failed", "message_id", id, "error", err)
		if rerr := p.refetch(ctx); rerr != nil {
			p.logger.Warn("re-fetch after failed delete", "error", rerr)
		}
		return fmt.Errorf("%w: %w", ErrDelete, err)
	}

	p.post(Event{Kind: EventLocalDelete, ID: id})
	if err := p.refetch(ctx); err != nil {
		// The local removal stands; the next re-fetch or echo settles it.
		p.logger.Warn("re-fetch after delete", "message_id", id, "error", err)
	}
	return nil
}

// refetch marks the loop's position before reading so that inserts applied
// while the read is in flight are not lost by the reseed.
func (p *DeletePipeline) refetch(ctx context.Context) error {
	mark := &ReseedMark{}
	if !p.post(Event{Kind: EventReseedMark, Mark: mark}) {
		return nil
	}
	messages, err := p.rooms.ListMessages(ctx, p.room.ID)
	if err != nil {
		p.post(Event{Kind: EventReseedAbort, Mark: mark})
		return fmt.Errorf("re-fetching room %s: %w", p.room.ID, err)
	}
	p.post(Event{Kind: EventReseed, Messages: messages, Mark: mark})
	return nil
}
