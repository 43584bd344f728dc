package roomsync

import (
	"context"
	"encoding/binary"
	"errors"
	"io"
	"log/slog"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/vedran77/huddle/internal/domain"
)

var t0 = time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func testID(n int) uuid.UUID {
	var id uuid.UUID
	binary.BigEndian.PutUint64(id[8:], uint64(n))
	return id
}

func msg(n int, at time.Time) domain.Message {
	return domain.Message{ID: testID(n), CreatedAt: at, SenderName: "ana", Content: "m"}
}

func ids(messages []domain.Message) []uuid.UUID {
	out := make([]uuid.UUID, 0, len(messages))
	for _, m := range messages {
		out = append(out, m.ID)
	}
	return out
}

// fakeRooms is an in-memory RoomStore. When echo is set, writes are pushed
// to it the way the server pushes them to the change feed.
type fakeRooms struct {
	mu       sync.Mutex
	rooms    map[string]*domain.Room
	messages []domain.Message
	nextID   int

	findErr, createErr, listErr, insertErr, deleteErr error
	// lostRace makes the first CreateRoom behave as if another client
	// created the room just before.
	lostRace bool

	creates int
	inserts []NewMessage
	deletes []uuid.UUID
	lists   int

	echo func(FeedEvent)
	// afterList runs once, after the next ListMessages has read its result
	// and before it returns.
	afterList func()
}

func newFakeRooms() *fakeRooms {
	return &fakeRooms{rooms: make(map[string]*domain.Room), nextID: 100}
}

func (f *fakeRooms) addRoom(slug string) *domain.Room {
	f.mu.Lock()
	defer f.mu.Unlock()
	r := &domain.Room{ID: uuid.New(), Name: slug, Slug: slug, CreatedAt: t0}
	f.rooms[slug] = r
	return r
}

func (f *fakeRooms) FindRoom(_ context.Context, slug string) (*domain.Room, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.findErr != nil {
		return nil, f.findErr
	}
	r, ok := f.rooms[slug]
	if !ok {
		return nil, nil
	}
	cp := *r
	return &cp, nil
}

func (f *fakeRooms) CreateRoom(_ context.Context, name, slug string) (*domain.Room, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.createErr != nil {
		return nil, f.createErr
	}
	if f.lostRace {
		f.lostRace = false
		f.rooms[slug] = &domain.Room{ID: uuid.New(), Name: "winner", Slug: slug, CreatedAt: t0}
	}
	if _, ok := f.rooms[slug]; ok {
		return nil, ErrRoomExists
	}
	f.creates++
	r := &domain.Room{ID: uuid.New(), Name: name, Slug: slug, CreatedAt: t0}
	f.rooms[slug] = r
	cp := *r
	return &cp, nil
}

func (f *fakeRooms) ListMessages(_ context.Context, roomID uuid.UUID) ([]domain.Message, error) {
	f.mu.Lock()
	f.lists++
	err := f.listErr
	var out []domain.Message
	if err == nil {
		out = slices.Clone(f.messages)
	}
	hook := f.afterList
	f.afterList = nil
	f.mu.Unlock()

	if hook != nil {
		hook()
	}
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (f *fakeRooms) InsertMessage(_ context.Context, in NewMessage) (*domain.Message, error) {
	f.mu.Lock()
	if f.insertErr != nil {
		f.mu.Unlock()
		return nil, f.insertErr
	}
	f.inserts = append(f.inserts, in)
	f.nextID++
	m := domain.Message{
		ID:         testID(f.nextID),
		RoomID:     in.RoomID,
		SenderName: in.SenderName,
		Content:    in.Content,
		Attachment: in.Attachment,
		CreatedAt:  t0.Add(time.Duration(f.nextID) * time.Second),
	}
	f.messages = append(f.messages, m)
	echo := f.echo
	f.mu.Unlock()

	if echo != nil {
		echo(FeedEvent{Kind: FeedInsert, Message: m})
	}
	return &m, nil
}

func (f *fakeRooms) DeleteMessage(_ context.Context, id uuid.UUID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.deleteErr != nil {
		return f.deleteErr
	}
	f.deletes = append(f.deletes, id)
	f.messages = slices.DeleteFunc(f.messages, func(m domain.Message) bool { return m.ID == id })
	return nil
}

type fakeFeed struct {
	mu      sync.Mutex
	handler func(FeedEvent)
	cancels int
	err     error
}

func (f *fakeFeed) Subscribe(_ context.Context, _ uuid.UUID, handler func(FeedEvent)) (Subscription, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	f.handler = handler
	return f, nil
}

func (f *fakeFeed) Cancel() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.cancels++
}

func (f *fakeFeed) emit(ev FeedEvent) {
	f.mu.Lock()
	h := f.handler
	f.mu.Unlock()
	h(ev)
}

func (f *fakeFeed) cancelCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.cancels
}

type fakeBlobs struct {
	err     error
	uploads []string
}

func (f *fakeBlobs) Upload(_ context.Context, key string, _ []byte, contentType string) (domain.Attachment, error) {
	if f.err != nil {
		return domain.Attachment{}, f.err
	}
	f.uploads = append(f.uploads, key)
	return domain.Attachment{Path: key, MediaType: contentType}, nil
}

func (f *fakeBlobs) PublicURL(path string) string {
	return "http://blobs.test/" + path
}

type fakeRecognizer struct {
	text  string
	err   error
	calls int
}

func (f *fakeRecognizer) Recognize(_ context.Context, _ []byte) (string, error) {
	f.calls++
	return f.text, f.err
}

var errBackend = errors.New("backend down")
