package roomsync

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/vedran77/huddle/internal/domain"
)

// Resolver maps a slug to its canonical room, creating the room on first
// use. When two clients race to create the same slug the store's unique
// constraint rejects the loser, which re-reads and converges on the winner.
type Resolver struct {
	rooms  RoomStore
	logger *slog.Logger
}

func NewResolver(rooms RoomStore, logger *slog.Logger) *Resolver {
	return &Resolver{rooms: rooms, logger: logger}
}

func (r *Resolver) Resolve(ctx context.Context, slug string) (*domain.Room, error) {
	slug = domain.Slugify(slug)
	if slug == "" {
		return nil, fmt.Errorf("%w: empty room slug", ErrBootstrap)
	}

	room, err := r.rooms.FindRoom(ctx, slug)
	if err != nil {
		return nil, fmt.Errorf("%w: finding room %q: %w", ErrBootstrap, slug, err)
	}
	if room != nil {
		return room, nil
	}

	room, err = r.rooms.CreateRoom(ctx, domain.DefaultRoomName(slug), slug)
	if errors.Is(err, ErrRoomExists) {
		r.logger.Info("room created by another client, re-reading", "slug", slug)
		room, err = r.rooms.FindRoom(ctx, slug)
		if err == nil && room == nil {
			err = errors.New("room missing after create conflict")
		}
	}
	if err != nil {
		return nil, fmt.Errorf("%w: creating room %q: %w", ErrBootstrap, slug, err)
	}

	r.logger.Info("room resolved", "slug", slug, "room_id", room.ID)
	return room, nil
}
