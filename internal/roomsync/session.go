package roomsync

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/google/uuid"
	"github.com/vedran77/huddle/internal/domain"
)

const defaultEventBuffer = 256

type EventKind int

const (
	EventInsert EventKind = iota + 1
	EventDelete
	EventLocalSend
	EventLocalDelete
	EventReseedMark
	EventReseed
	EventReseedAbort
)

func (k EventKind) String() string {
	switch k {
	case EventInsert:
		return "insert"
	case EventDelete:
		return "delete"
	case EventLocalSend:
		return "local_send"
	case EventLocalDelete:
		return "local_delete"
	case EventReseedMark:
		return "reseed_mark"
	case EventReseed:
		return "reseed"
	case EventReseedAbort:
		return "reseed_abort"
	}
	return fmt.Sprintf("event(%d)", int(k))
}

// Event is one input to the session loop. Insert carries Message, the delete
// kinds and LocalSend carry ID, Reseed carries Messages. The reseed kinds
// share the Mark that was posted before the re-read started.
type Event struct {
	Kind     EventKind
	Message  domain.Message
	ID       uuid.UUID
	Messages []domain.Message
	Mark     *ReseedMark
}

// ReseedMark records how far the loop had got when a re-read began. Inserts
// applied after it may be missing from the re-read and survive the reseed.
type ReseedMark struct {
	seq uint64
}

type loggedInsert struct {
	seq     uint64
	message domain.Message
}

// Snapshot is what the session publishes after every change.
type Snapshot struct {
	Room     domain.Room
	Messages []domain.Message
	// Pending counts sends accepted by the store whose echo has not
	// arrived yet.
	Pending int
}

type Deps struct {
	Rooms  RoomStore
	Feed   ChangeFeed
	Blobs  BlobStore
	Logger *slog.Logger
}

type Config struct {
	Slug     string
	Identity domain.Identity
	// EventBuffer sizes the queue between the feed and the loop.
	EventBuffer int
}

// Session is one client's membership in a room. A single goroutine running
// Run owns the message store and applies events in arrival order.
type Session struct {
	room     domain.Room
	identity domain.Identity
	logger   *slog.Logger

	store      *Store
	pending    map[uuid.UUID]struct{}
	tombstones map[uuid.UUID]struct{}

	// Inserts are logged while any reseed mark is open.
	insertSeq uint64
	openMarks int
	inserts   []loggedInsert

	events  chan Event
	updates chan Snapshot
	done    chan struct{}

	sub       Subscription
	closeOnce sync.Once

	sender  *SendPipeline
	deleter *DeletePipeline
}

// Join resolves the room, opens the change feed and seeds the store from
// history. The feed is opened first so that nothing committed between the
// two requests is missed; events queue until Run starts, which is after the
// seed. Any failure here is a bootstrap failure.
func Join(ctx context.Context, deps Deps, cfg Config) (*Session, error) {
	if cfg.Identity.Username == "" {
		return nil, fmt.Errorf("%w: %w", ErrBootstrap, ErrNoIdentity)
	}
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}
	buffer := cfg.EventBuffer
	if buffer <= 0 {
		buffer = defaultEventBuffer
	}

	room, err := NewResolver(deps.Rooms, logger).Resolve(ctx, cfg.Slug)
	if err != nil {
		return nil, err
	}

	s := &Session{
		room:       *room,
		identity:   cfg.Identity,
		logger:     logger.With("room_id", room.ID, "slug", room.Slug),
		store:      NewStore(),
		pending:    make(map[uuid.UUID]struct{}),
		tombstones: make(map[uuid.UUID]struct{}),
		events:     make(chan Event, buffer),
		updates:    make(chan Snapshot, 1),
		done:       make(chan struct{}),
	}

	sub, err := NewSubscriber(deps.Feed, s.logger).Subscribe(ctx, room,
		func(m domain.Message) { s.post(Event{Kind: EventInsert, Message: m}) },
		func(id uuid.UUID) { s.post(Event{Kind: EventDelete, ID: id}) },
	)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrBootstrap, err)
	}

	backlog, err := NewHistoryLoader(deps.Rooms).Load(ctx, room)
	if err != nil {
		// Unblocks a feed callback stuck in post on a full queue.
		s.closeOnce.Do(func() { close(s.done) })
		sub.Cancel()
		return nil, err
	}
	s.store.Seed(backlog)
	s.sub = sub

	s.sender = NewSendPipeline(deps.Rooms, deps.Blobs, s.room, s.identity, s.logger)
	s.sender.onSubmitted = func(id uuid.UUID) { s.post(Event{Kind: EventLocalSend, ID: id}) }
	s.deleter = NewDeletePipeline(deps.Rooms, s.room, s.post, s.logger)

	s.publish()
	s.logger.Info("joined room", "backlog", len(backlog))
	return s, nil
}

func (s *Session) Room() domain.Room {
	return s.room
}

func (s *Session) Identity() domain.Identity {
	return s.identity
}

// Updates delivers the latest snapshot. Intermediate snapshots are dropped
// when the reader falls behind.
func (s *Session) Updates() <-chan Snapshot {
	return s.updates
}

// Done is closed once the session has been closed.
func (s *Session) Done() <-chan struct{} {
	return s.done
}

// Send submits a message through the send pipeline. The message appears in
// the snapshot once its echo arrives on the feed.
func (s *Session) Send(ctx context.Context, draft *Draft, file *AttachmentFile) error {
	return s.sender.Send(ctx, draft, file)
}

// Remove deletes a message and reconciles the store with a fresh read.
func (s *Session) Remove(ctx context.Context, id uuid.UUID) error {
	return s.deleter.Remove(ctx, id)
}

// Run applies queued events until ctx is done or the session is closed. It
// must be called at most once.
func (s *Session) Run(ctx context.Context) error {
	defer s.Close()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-s.done:
			return nil
		case ev := <-s.events:
			if s.apply(ev) {
				s.publish()
			}
		}
	}
}

// Close leaves the room and releases the feed subscription.
func (s *Session) Close() {
	s.closeOnce.Do(func() {
		close(s.done)
		if s.sub != nil {
			s.sub.Cancel()
		}
		s.logger.Info("left room")
	})
}

// post queues ev for the loop. It returns false once the session is closed.
func (s *Session) post(ev Event) bool {
	select {
	case <-s.done:
		return false
	default:
	}
	select {
	case s.events <- ev:
		return true
	case <-s.done:
		return false
	}
}

func (s *Session) apply(ev Event) bool {
	switch ev.Kind {
	case EventInsert:
		id := ev.Message.ID
		if _, gone := s.tombstones[id]; gone {
			s.logger.Debug("ignoring insert for deleted message", "message_id", id)
			return false
		}
		if s.openMarks > 0 {
			s.insertSeq++
			s.inserts = append(s.inserts, loggedInsert{seq: s.insertSeq, message: ev.Message})
		}
		_, waiting := s.pending[id]
		delete(s.pending, id)
		return s.store.ApplyInsert(ev.Message) || waiting

	case EventDelete, EventLocalDelete:
		s.tombstones[ev.ID] = struct{}{}
		_, waiting := s.pending[ev.ID]
		delete(s.pending, ev.ID)
		return s.store.ApplyDelete(ev.ID) || waiting

	case EventLocalSend:
		if s.store.Contains(ev.ID) {
			return false
		}
		if _, gone := s.tombstones[ev.ID]; gone {
			return false
		}
		s.pending[ev.ID] = struct{}{}
		return true

	case EventReseedMark:
		if ev.Mark != nil {
			ev.Mark.seq = s.insertSeq
			s.openMarks++
		}
		return false

	case EventReseed:
		fresh := make([]domain.Message, 0, len(ev.Messages))
		seen := make(map[uuid.UUID]struct{}, len(ev.Messages))
		for _, m := range ev.Messages {
			if _, gone := s.tombstones[m.ID]; !gone {
				fresh = append(fresh, m)
				seen[m.ID] = struct{}{}
			}
		}
		// The re-read may predate inserts the loop has already applied.
		if ev.Mark != nil {
			for _, in := range s.inserts {
				if in.seq <= ev.Mark.seq {
					continue
				}
				if _, ok := seen[in.message.ID]; ok {
					continue
				}
				if _, gone := s.tombstones[in.message.ID]; gone {
					continue
				}
				fresh = append(fresh, in.message)
				seen[in.message.ID] = struct{}{}
			}
		}
		s.store.Seed(fresh)
		for id := range s.pending {
			if s.store.Contains(id) {
				delete(s.pending, id)
			}
		}
		s.closeMark(ev.Mark)
		return true

	case EventReseedAbort:
		s.closeMark(ev.Mark)
		return false
	}

	s.logger.Warn("unknown session event", "kind", ev.Kind)
	return false
}

func (s *Session) closeMark(m *ReseedMark) {
	if m == nil || s.openMarks == 0 {
		return
	}
	s.openMarks--
	if s.openMarks == 0 {
		s.inserts = nil
	}
}

func (s *Session) publish() {
	snap := Snapshot{
		Room:     s.room,
		Messages: s.store.Snapshot(),
		Pending:  len(s.pending),
	}
	select {
	case <-s.updates:
	default:
	}
	select {
	case s.updates <- snap:
	default:
	}
}
