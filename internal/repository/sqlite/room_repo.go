package sqlite

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/vedran77/huddle/internal/domain"
	"github.com/vedran77/huddle/internal/repository"
	"gorm.io/gorm"
)

type RoomRepo struct {
	db *gorm.DB
}

func NewRoomRepo(db *gorm.DB) *RoomRepo {
	return &RoomRepo{db: db}
}

func (r *RoomRepo) Create(ctx context.Context, room *domain.Room) error {
	err := r.db.WithContext(ctx).Create(toRoomModel(room)).Error
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return repository.ErrDuplicate
	}
	return err
}

func (r *RoomRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.Room, error) {
	return r.first(ctx, "id = ?", id.String())
}

func (r *RoomRepo) GetBySlug(ctx context.Context, slug string) (*domain.Room, error) {
	return r.first(ctx, "slug = ?", slug)
}

func (r *RoomRepo) first(ctx context.Context, query string, arg any) (*domain.Room, error) {
	var m roomModel
	err := r.db.WithContext(ctx).Where(query, arg).First(&m).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return m.toDomain()
}
