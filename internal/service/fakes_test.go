package service

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"slices"
	"sync"

	"github.com/google/uuid"
	"github.com/vedran77/huddle/internal/blob"
	"github.com/vedran77/huddle/internal/domain"
	"github.com/vedran77/huddle/internal/repository"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type fakeRoomRepo struct {
	mu          sync.Mutex
	rooms       map[uuid.UUID]*domain.Room
	slugLookups int
	err         error
}

func newFakeRoomRepo() *fakeRoomRepo {
	return &fakeRoomRepo{rooms: make(map[uuid.UUID]*domain.Room)}
}

func (f *fakeRoomRepo) Create(_ context.Context, room *domain.Room) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	for _, r := range f.rooms {
		if r.Slug == room.Slug {
			return repository.ErrDuplicate
		}
	}
	cp := *room
	f.rooms[room.ID] = &cp
	return nil
}

func (f *fakeRoomRepo) GetByID(_ context.Context, id uuid.UUID) (*domain.Room, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	r, ok := f.rooms[id]
	if !ok {
		return nil, nil
	}
	cp := *r
	return &cp, nil
}

func (f *fakeRoomRepo) GetBySlug(_ context.Context, slug string) (*domain.Room, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.slugLookups++
	if f.err != nil {
		return nil, f.err
	}
	for _, r := range f.rooms {
		if r.Slug == slug {
			cp := *r
			return &cp, nil
		}
	}
	return nil, nil
}

type fakeMessageRepo struct {
	mu       sync.Mutex
	messages []domain.Message
	err      error
}

func (f *fakeMessageRepo) Create(_ context.Context, msg *domain.Message) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.messages = append(f.messages, *msg)
	return nil
}

func (f *fakeMessageRepo) GetByID(_ context.Context, id uuid.UUID) (*domain.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, m := range f.messages {
		if m.ID == id {
			return &m, nil
		}
	}
	return nil, nil
}

func (f *fakeMessageRepo) ListByRoom(_ context.Context, roomID uuid.UUID) ([]domain.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	var out []domain.Message
	for _, m := range f.messages {
		if m.RoomID == roomID {
			out = append(out, m)
		}
	}
	slices.SortFunc(out, domain.Compare)
	return out, nil
}

func (f *fakeMessageRepo) Delete(_ context.Context, id uuid.UUID) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return false, f.err
	}
	before := len(f.messages)
	f.messages = slices.DeleteFunc(f.messages, func(m domain.Message) bool { return m.ID == id })
	return len(f.messages) < before, nil
}

type recordingNotifier struct {
	inserts []*domain.Message
	deletes []uuid.UUID
}

func (n *recordingNotifier) NotifyNewMessage(msg *domain.Message) {
	n.inserts = append(n.inserts, msg)
}

func (n *recordingNotifier) NotifyDeletedMessage(_, messageID uuid.UUID) {
	n.deletes = append(n.deletes, messageID)
}

type memoryCache struct {
	mu    sync.Mutex
	rooms map[string]*domain.Room
	gets  int
	err   error
}

func newMemoryCache() *memoryCache {
	return &memoryCache{rooms: make(map[string]*domain.Room)}
}

func (c *memoryCache) Get(_ context.Context, slug string) (*domain.Room, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.gets++
	if c.err != nil {
		return nil, c.err
	}
	return c.rooms[slug], nil
}

func (c *memoryCache) Set(_ context.Context, room *domain.Room) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.err != nil {
		return c.err
	}
	c.rooms[room.Slug] = room
	return nil
}

type memoryBlobs struct {
	objects map[string][]byte
	types   map[string]string
	err     error
}

func newMemoryBlobs() *memoryBlobs {
	return &memoryBlobs{objects: make(map[string][]byte), types: make(map[string]string)}
}

func (m *memoryBlobs) Put(_ context.Context, key string, data []byte, contentType string) error {
	if m.err != nil {
		return m.err
	}
	m.objects[key] = data
	m.types[key] = contentType
	return nil
}

func (m *memoryBlobs) Open(_ context.Context, key string) (io.ReadCloser, string, error) {
	data, ok := m.objects[key]
	if !ok {
		return nil, "", blob.ErrNotFound
	}
	return io.NopCloser(bytes.NewReader(data)), m.types[key], nil
}
