package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/vedran77/huddle/internal/domain"
	"github.com/vedran77/huddle/internal/repository"
	"golang.org/x/sync/singleflight"
)

var (
	ErrRoomNotFound = errors.New("room not found")
	ErrSlugTaken    = errors.New("room slug already taken")
)

// RoomCache is an optional read-through cache keyed by slug.
type RoomCache interface {
	Get(ctx context.Context, slug string) (*domain.Room, error)
	Set(ctx context.Context, room *domain.Room) error
}

type RoomService struct {
	roomRepo repository.RoomRepository
	cache    RoomCache
	lookups  singleflight.Group
	logger   *slog.Logger
}

func NewRoomService(roomRepo repository.RoomRepository, logger *slog.Logger) *RoomService {
	return &RoomService{
		roomRepo: roomRepo,
		logger:   logger.With("component", "rooms"),
	}
}

// SetCache sets the slug cache (optional dependency).
func (s *RoomService) SetCache(c RoomCache) {
	s.cache = c
}

type CreateRoomInput struct {
	Name string `json:"name"`
	Slug string `json:"slug"`
}

// FindBySlug looks a room up through the cache. Concurrent lookups of the same
// slug share one backend round trip.
func (s *RoomService) FindBySlug(ctx context.Context, slug string) (*domain.Room, error) {
	v, err, _ := s.lookups.Do(slug, func() (any, error) {
		if s.cache != nil {
			room, err := s.cache.Get(ctx, slug)
			if err != nil {
				s.logger.Warn("room cache read failed", "slug", slug, "error", err)
			}
			if room != nil {
				return room, nil
			}
		}

		room, err := s.roomRepo.GetBySlug(ctx, slug)
		if err != nil {
			return nil, fmt.Errorf("finding room: %w", err)
		}
		if room == nil {
			return nil, ErrRoomNotFound
		}
		s.remember(ctx, room)
		return room, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*domain.Room), nil
}

func (s *RoomService) GetByID(ctx context.Context, id uuid.UUID) (*domain.Room, error) {
	room, err := s.roomRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if room == nil {
		return nil, ErrRoomNotFound
	}
	return room, nil
}

// Create inserts a room. A slug that is already in use yields ErrSlugTaken;
// rooms are never overwritten.
func (s *RoomService) Create(ctx context.Context, input CreateRoomInput) (*domain.Room, error) {
	slug := domain.Slugify(input.Slug)
	if slug == "" {
		slug = domain.Slugify(input.Name)
	}

	room := &domain.Room{
		ID:        uuid.New(),
		Name:      strings.TrimSpace(input.Name),
		Slug:      slug,
		CreatedAt: time.Now().UTC(),
	}

	if err := s.roomRepo.Create(ctx, room); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, ErrSlugTaken
		}
		return nil, fmt.Errorf("creating room: %w", err)
	}

	s.logger.Info("room created", "room_id", room.ID, "slug", room.Slug)
	s.remember(ctx, room)
	return room, nil
}

// Ensure returns the room for slug, creating it with the default name when
// it does not exist yet.
func (s *RoomService) Ensure(ctx context.Context, slug string) (*domain.Room, error) {
	room, err := s.FindBySlug(ctx, slug)
	if !errors.Is(err, ErrRoomNotFound) {
		return room, err
	}

	room, err = s.Create(ctx, CreateRoomInput{Name: domain.DefaultRoomName(slug), Slug: slug})
	if errors.Is(err, ErrSlugTaken) {
		return s.FindBySlug(ctx, slug)
	}
	return room, err
}

func (s *RoomService) remember(ctx context.Context, room *domain.Room) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Set(ctx, room); err != nil {
		s.logger.Warn("room cache write failed", "slug", room.Slug, "error", err)
	}
}

