package domain

import (
	"bytes"
	"time"

	"github.com/google/uuid"
)

type Message struct {
	ID         uuid.UUID   `json:"id"`
	RoomID     uuid.UUID   `json:"room_id"`
	SenderName string      `json:"sender_name"`
	Content    string      `json:"content"`
	CreatedAt  time.Time   `json:"created_at"`
	Attachment *Attachment `json:"attachment,omitempty"`
}

// IsEmpty reports whether the message has neither text nor an attachment.
func (m *Message) IsEmpty() bool {
	return m.Content == "" && m.Attachment == nil
}

// Compare orders messages by creation time, breaking ties on the id bytes.
func Compare(a, b Message) int {
	if c := a.CreatedAt.Compare(b.CreatedAt); c != 0 {
		return c
	}
	return bytes.Compare(a.ID[:], b.ID[:])
}
