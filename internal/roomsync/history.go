package roomsync

import (
	"context"
	"fmt"

	"github.com/vedran77/huddle/internal/domain"
)

// HistoryLoader fetches a room's backlog in one request.
type HistoryLoader struct {
	rooms RoomStore
}

func NewHistoryLoader(rooms RoomStore) *HistoryLoader {
	return &HistoryLoader{rooms: rooms}
}

func (h *HistoryLoader) Load(ctx context.Context, room *domain.Room) ([]domain.Message, error) {
	messages, err := h.rooms.ListMessages(ctx, room.ID)
	if err != nil {
		return nil, fmt.Errorf("%w: loading history for %q: %w", ErrBootstrap, room.Slug, err)
	}
	return messages, nil
}
