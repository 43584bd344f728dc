package roomsync

import (
	"context"
	"fmt"
	"log/slog"
	"mime"
	"net/http"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/vedran77/huddle/internal/domain"
)

// AttachmentFile is a file picked for the next message.
type AttachmentFile struct {
	Name        string
	ContentType string
	Data        []byte
}

// MediaType returns the declared content type, falling back to the file
// extension and then to sniffing the bytes.
func (f *AttachmentFile) MediaType() string {
	if f.ContentType != "" {
		return f.ContentType
	}
	if ct := mime.TypeByExtension(strings.ToLower(filepath.Ext(f.Name))); ct != "" {
		return ct
	}
	return http.DetectContentType(f.Data)
}

// SendPipeline uploads an optional attachment and submits a message. It
// never touches the local store: the feed echo is what makes the message
// visible.
type SendPipeline struct {
	rooms  RoomStore
	blobs  BlobStore
	room   domain.Room
	sender domain.Identity
	logger *slog.Logger
	now    func() time.Time

	onSubmitted func(id uuid.UUID)
}

func NewSendPipeline(rooms RoomStore, blobs BlobStore, room domain.Room, sender domain.Identity, logger *slog.Logger) *SendPipeline {
	return &SendPipeline{
		rooms:  rooms,
		blobs:  blobs,
		room:   room,
		sender: sender,
		logger: logger,
		now:    time.Now,
	}
}

func (p *SendPipeline) Send(ctx context.Context, draft *Draft, file *AttachmentFile) error {
	raw := draft.Text()
	text := strings.TrimSpace(raw)
	if text == "" && file == nil {
		return ErrEmptyMessage
	}

	var att *domain.Attachment
	if file != nil {
		if len(file.Data) == 0 {
			return fmt.Errorf("%w: %q is empty", ErrUpload, file.Name)
		}
		if p.blobs == nil {
			return fmt.Errorf("%w: no blob store configured", ErrUpload)
		}
		key := domain.AttachmentPath(file.Name, p.now())
		uploaded, err := p.blobs.Upload(ctx, key, file.Data, file.MediaType())
		if err != nil {
			p.logger.Warn("attachment upload failed", "key", key, "error", err)
			return fmt.Errorf("%w: %w", ErrUpload, err)
		}
		att = &uploaded
	}

	msg, err := p.rooms.InsertMessage(ctx, NewMessage{
		RoomID:     p.room.ID,
		SenderName: p.sender.Username,
		Content:    text,
		Attachment: att,
	})
	if err != nil {
		if att != nil {
			p.logger.Warn("message insert failed after upload, blob orphaned", "path", att.Path, "error", err)
		}
		return fmt.Errorf("%w: %w", ErrSubmit, err)
	}

	draft.clearSent(raw)
	p.logger.Debug("message submitted", "message_id", msg.ID)
	if p.onSubmitted != nil {
		p.onSubmitted(msg.ID)
	}
	return nil
}
