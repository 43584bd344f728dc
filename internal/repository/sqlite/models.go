// Package sqlite implements the repositories on gorm with the sqlite driver,
// for single-node and development deployments.
package sqlite

import (
	"time"

	"github.com/google/uuid"
	"github.com/vedran77/huddle/internal/domain"
)

// Models lists what database.OpenSQLite has to migrate.
func Models() []any {
	return []any{&roomModel{}, &messageModel{}}
}

type roomModel struct {
	ID        string `gorm:"primaryKey"`
	Name      string `gorm:"not null"`
	Slug      string `gorm:"uniqueIndex;not null"`
	CreatedAt time.Time
}

func (roomModel) TableName() string { return "rooms" }

type messageModel struct {
	ID             string `gorm:"primaryKey"`
	RoomID         string `gorm:"not null;index:idx_messages_room_created,priority:1"`
	SenderName     string `gorm:"not null"`
	Content        string `gorm:"not null;default:''"`
	AttachmentPath *string
	AttachmentType *string
	CreatedAt      time.Time `gorm:"index:idx_messages_room_created,priority:2"`
}

func (messageModel) TableName() string { return "messages" }

func toRoomModel(r *domain.Room) *roomModel {
	return &roomModel{
		ID:        r.ID.String(),
		Name:      r.Name,
		Slug:      r.Slug,
		CreatedAt: r.CreatedAt.UTC(),
	}
}

func (m *roomModel) toDomain() (*domain.Room, error) {
	id, err := uuid.Parse(m.ID)
	if err != nil {
		return nil, err
	}
	return &domain.Room{ID: id, Name: m.Name, Slug: m.Slug, CreatedAt: m.CreatedAt}, nil
}

func toMessageModel(msg *domain.Message) *messageModel {
	m := &messageModel{
		ID:         msg.ID.String(),
		RoomID:     msg.RoomID.String(),
		SenderName: msg.SenderName,
		Content:    msg.Content,
		CreatedAt:  msg.CreatedAt.UTC(),
	}
	if msg.Attachment != nil {
		path, mediaType := msg.Attachment.Path, msg.Attachment.MediaType
		m.AttachmentPath, m.AttachmentType = &path, &mediaType
	}
	return m
}

func (m *messageModel) toDomain() (*domain.Message, error) {
	id, err := uuid.Parse(m.ID)
	if err != nil {
		return nil, err
	}
	roomID, err := uuid.Parse(m.RoomID)
	if err != nil {
		return nil, err
	}
	msg := &domain.Message{
		ID:         id,
		RoomID:     roomID,
		SenderName: m.SenderName,
		Content:    m.Content,
		CreatedAt:  m.CreatedAt,
	}
	if m.AttachmentPath != nil {
		msg.Attachment = &domain.Attachment{Path: *m.AttachmentPath}
		if m.AttachmentType != nil {
			msg.Attachment.MediaType = *m.AttachmentType
		}
	}
	return msg, nil
}
