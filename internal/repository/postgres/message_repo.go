package postgres

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/vedran77/huddle/internal/domain"
)

type MessageRepo struct {
	pool *pgxpool.Pool
}

func NewMessageRepo(pool *pgxpool.Pool) *MessageRepo {
	return &MessageRepo{pool: pool}
}

const messageColumns = `id, room_id, sender_name, content, attachment_path, attachment_type, created_at`

func (r *MessageRepo) Create(ctx context.Context, msg *domain.Message) error {
	var path, mediaType *string
	if msg.Attachment != nil {
		path, mediaType = &msg.Attachment.Path, &msg.Attachment.MediaType
	}

	query := `
		INSERT INTO messages (` + messageColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`
	_, err := r.pool.Exec(ctx, query,
		msg.ID, msg.RoomID, msg.SenderName, msg.Content, path, mediaType, msg.CreatedAt,
	)
	return err
}

func (r *MessageRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.Message, error) {
	query := `SELECT ` + messageColumns + ` FROM messages WHERE id = $1`
	msg, err := scanMessage(r.pool.QueryRow(ctx, query, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	return msg, err
}

func (r *MessageRepo) ListByRoom(ctx context.Context, roomID uuid.UUID) ([]domain.Message, error) {
	query := `
		SELECT ` + messageColumns + `
		FROM messages
		WHERE room_id = $1
		ORDER BY created_at, id`

	rows, err := r.pool.Query(ctx, query, roomID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	messages := []domain.Message{}
	for rows.Next() {
		msg, err := scanMessage(rows)
		if err != nil {
			return nil, err
		}
		messages = append(messages, *msg)
	}
	return messages, rows.Err()
}

func (r *MessageRepo) Delete(ctx context.Context, id uuid.UUID) (bool, error) {
	tag, err := r.pool.Exec(ctx, `DELETE FROM messages WHERE id = $1`, id)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

func scanMessage(row pgx.Row) (*domain.Message, error) {
	var (
		msg             domain.Message
		path, mediaType *string
	)
	if err := row.Scan(
		&msg.ID, &msg.RoomID, &msg.SenderName, &msg.Content, &path, &mediaType, &msg.CreatedAt,
	); err != nil {
		return nil, err
	}
	if path != nil {
		msg.Attachment = &domain.Attachment{Path: *path}
		if mediaType != nil {
			msg.Attachment.MediaType = *mediaType
		}
	}
	return &msg, nil
}
