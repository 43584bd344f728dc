package repository

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/vedran77/huddle/internal/domain"
)

// ErrDuplicate is returned when a write violates a unique constraint.
var ErrDuplicate = errors.New("duplicate key")

type RoomRepository interface {
	// Create returns ErrDuplicate when the slug is already taken.
	Create(ctx context.Context, room *domain.Room) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Room, error)
	GetBySlug(ctx context.Context, slug string) (*domain.Room, error)
}

type MessageRepository interface {
	Create(ctx context.Context, msg *domain.Message) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Message, error)
	// ListByRoom returns the full history ordered by created_at, then id.
	ListByRoom(ctx context.Context, roomID uuid.UUID) ([]domain.Message, error)
	// Delete reports whether a row was removed.
	Delete(ctx context.Context, id uuid.UUID) (bool, error)
}
