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
)

var ErrEmptyMessage = errors.New("message needs text or an attachment")

// Notifier broadcasts real-time events to connected clients.
type Notifier interface {
	NotifyNewMessage(msg *domain.Message)
	NotifyDeletedMessage(roomID, messageID uuid.UUID)
}

type MessageService struct {
	messageRepo repository.MessageRepository
	roomRepo    repository.RoomRepository
	notifier    Notifier
	logger      *slog.Logger
	now         func() time.Time
}

func NewMessageService(
	messageRepo repository.MessageRepository,
	roomRepo repository.RoomRepository,
	logger *slog.Logger,
) *MessageService {
	return &MessageService{
		messageRepo: messageRepo,
		roomRepo:    roomRepo,
		logger:      logger.With("component", "messages"),
		now:         time.Now,
	}
}

// SetNotifier sets the real-time notifier (optional dependency).
func (s *MessageService) SetNotifier(n Notifier) {
	s.notifier = n
}

type SendMessageInput struct {
	SenderName string             `json:"sender_name"`
	Content    string             `json:"content"`
	Attachment *domain.Attachment `json:"attachment,omitempty"`
}

func (s *MessageService) Send(ctx context.Context, roomID uuid.UUID, input SendMessageInput) (*domain.Message, error) {
	if err := s.checkRoom(ctx, roomID); err != nil {
		return nil, err
	}

	// Postgres keeps microseconds; the echo must match what history returns.
	msg := &domain.Message{
		ID:         uuid.New(),
		RoomID:     roomID,
		SenderName: strings.TrimSpace(input.SenderName),
		Content:    strings.TrimSpace(input.Content),
		Attachment: input.Attachment,
		CreatedAt:  s.now().UTC().Truncate(time.Microsecond),
	}
	if msg.IsEmpty() {
		return nil, ErrEmptyMessage
	}

	if err := s.messageRepo.Create(ctx, msg); err != nil {
		return nil, fmt.Errorf("creating message: %w", err)
	}

	if s.notifier != nil {
		s.notifier.NotifyNewMessage(msg)
	}

	return msg, nil
}

// List returns the room's whole history, oldest first.
func (s *MessageService) List(ctx context.Context, roomID uuid.UUID) ([]domain.Message, error) {
	if err := s.checkRoom(ctx, roomID); err != nil {
		return nil, err
	}

	messages, err := s.messageRepo.ListByRoom(ctx, roomID)
	if err != nil {
		return nil, fmt.Errorf("listing messages: %w", err)
	}
	if messages == nil {
		messages = []domain.Message{}
	}
	return messages, nil
}

// Delete removes a message. Deleting a message that is already gone is not
// an error, and only an actual removal is broadcast.
func (s *MessageService) Delete(ctx context.Context, messageID uuid.UUID) error {
	msg, err := s.messageRepo.GetByID(ctx, messageID)
	if err != nil {
		return err
	}
	if msg == nil {
		return nil
	}

	removed, err := s.messageRepo.Delete(ctx, messageID)
	if err != nil {
		return fmt.Errorf("deleting message: %w", err)
	}
	if !removed {
		return nil
	}

	s.logger.Info("message deleted", "room_id", msg.RoomID, "message_id", messageID)
	if s.notifier != nil {
		s.notifier.NotifyDeletedMessage(msg.RoomID, messageID)
	}

	return nil
}

func (s *MessageService) checkRoom(ctx context.Context, roomID uuid.UUID) error {
	room, err := s.roomRepo.GetByID(ctx, roomID)
	if err != nil {
		return err
	}
	if room == nil {
		return ErrRoomNotFound
	}
	return nil
}
