package postgres

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/vedran77/huddle/internal/domain"
	"github.com/vedran77/huddle/internal/repository"
)

const uniqueViolation = "23505"

type RoomRepo struct {
	pool *pgxpool.Pool
}

func NewRoomRepo(pool *pgxpool.Pool) *RoomRepo {
	return &RoomRepo{pool: pool}
}

func (r *RoomRepo) Create(ctx context.Context, room *domain.Room) error {
	query := `
		INSERT INTO rooms (id, name, slug, created_at)
		VALUES ($1, $2, $3, $4)`

	_, err := r.pool.Exec(ctx, query, room.ID, room.Name, room.Slug, room.CreatedAt)
	if isUniqueViolation(err) {
		return repository.ErrDuplicate
	}
	return err
}

func (r *RoomRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.Room, error) {
	query := `SELECT id, name, slug, created_at FROM rooms WHERE id = $1`
	return r.scanRoom(ctx, query, id)
}

func (r *RoomRepo) GetBySlug(ctx context.Context, slug string) (*domain.Room, error) {
	query := `SELECT id, name, slug, created_at FROM rooms WHERE slug = $1`
	return r.scanRoom(ctx, query, slug)
}

func (r *RoomRepo) scanRoom(ctx context.Context, query string, arg any) (*domain.Room, error) {
	var room domain.Room
	err := r.pool.QueryRow(ctx, query, arg).Scan(&room.ID, &room.Name, &room.Slug, &room.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	return &room, err
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == uniqueViolation
}
