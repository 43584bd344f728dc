// Package roomsync keeps a client's view of a shared room consistent with
// the backing store. It resolves the room, seeds a local message store from
// history and merges the live change feed with the client's own sends and
// deletes.
package roomsync

import (
	"context"

	"github.com/google/uuid"
	"github.com/vedran77/huddle/internal/domain"
)

// RoomStore is the authoritative store for rooms and their messages.
type RoomStore interface {
	// FindRoom returns nil, nil when no room has the slug.
	FindRoom(ctx context.Context, slug string) (*domain.Room, error)
	// CreateRoom returns ErrRoomExists when another client won the race.
	CreateRoom(ctx context.Context, name, slug string) (*domain.Room, error)
	ListMessages(ctx context.Context, roomID uuid.UUID) ([]domain.Message, error)
	InsertMessage(ctx context.Context, msg NewMessage) (*domain.Message, error)
	DeleteMessage(ctx context.Context, id uuid.UUID) error
}

type NewMessage struct {
	RoomID     uuid.UUID          `json:"-"`
	SenderName string             `json:"sender_name"`
	Content    string             `json:"content"`
	Attachment *domain.Attachment `json:"attachment,omitempty"`
}

type FeedEventKind string

const (
	FeedInsert FeedEventKind = "insert"
	FeedDelete FeedEventKind = "delete"
)

// FeedEvent is one notification from the change feed. Message is set for
// inserts, ID for deletes.
type FeedEvent struct {
	Kind    FeedEventKind
	Message domain.Message
	ID      uuid.UUID
}

// ChangeFeed pushes insert and delete notifications for one room. The
// context only bounds the subscribe handshake; the subscription lives until
// it is cancelled. Handlers are called sequentially in delivery order.
type ChangeFeed interface {
	Subscribe(ctx context.Context, roomID uuid.UUID, handler func(FeedEvent)) (Subscription, error)
}

type Subscription interface {
	Cancel()
}

// BlobStore holds attachment bytes.
type BlobStore interface {
	Upload(ctx context.Context, key string, data []byte, contentType string) (domain.Attachment, error)
	PublicURL(path string) string
}

// SpeechRecognizer turns recorded audio into text. An empty result with a
// nil error means no speech was detected.
type SpeechRecognizer interface {
	Recognize(ctx context.Context, audio []byte) (string, error)
}
