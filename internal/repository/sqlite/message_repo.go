package sqlite

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/vedran77/huddle/internal/domain"
	"gorm.io/gorm"
)

type MessageRepo struct {
	db *gorm.DB
}

func NewMessageRepo(db *gorm.DB) *MessageRepo {
	return &MessageRepo{db: db}
}

func (r *MessageRepo) Create(ctx context.Context, msg *domain.Message) error {
	return r.db.WithContext(ctx).Create(toMessageModel(msg)).Error
}

func (r *MessageRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.Message, error) {
	var m messageModel
	err := r.db.WithContext(ctx).Where("id = ?", id.String()).First(&m).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return m.toDomain()
}

func (r *MessageRepo) ListByRoom(ctx context.Context, roomID uuid.UUID) ([]domain.Message, error) {
	var rows []messageModel
	err := r.db.WithContext(ctx).
		Where("room_id = ?", roomID.String()).
		Order("created_at ASC").Order("id ASC").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}

	messages := make([]domain.Message, 0, len(rows))
	for i := range rows {
		msg, err := rows[i].toDomain()
		if err != nil {
			return nil, err
		}
		messages = append(messages, *msg)
	}
	return messages, nil
}

func (r *MessageRepo) Delete(ctx context.Context, id uuid.UUID) (bool, error) {
	res := r.db.WithContext(ctx).Where("id = ?", id.String()).Delete(&messageModel{})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}
