package roomsync

import (
	"context"
	"slices"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vedran77/huddle/internal/domain"
)

type harness struct {
	rooms   *fakeRooms
	feed    *fakeFeed
	blobs   *fakeBlobs
	room    *domain.Room
	session *Session
}

func startSession(t *testing.T, backlog ...domain.Message) *harness {
	t.Helper()
	h := &harness{rooms: newFakeRooms(), feed: &fakeFeed{}, blobs: &fakeBlobs{}}
	h.room = h.rooms.addRoom("public")
	for i := range backlog {
		backlog[i].RoomID = h.room.ID
	}
	h.rooms.messages = backlog
	h.rooms.echo = func(ev FeedEvent) { h.feed.emit(ev) }

	s, err := Join(context.Background(), Deps{
		Rooms:  h.rooms,
		Feed:   h.feed,
		Blobs:  h.blobs,
		Logger: discardLogger(),
	}, Config{Slug: "public", Identity: domain.Identity{Username: "ana"}})
	require.NoError(t, err)
	h.session = s

	ctx, cancel := context.WithCancel(context.Background())
	go s.Run(ctx)
	t.Cleanup(func() {
		cancel()
		s.Close()
	})
	return h
}

func (h *harness) insert(m domain.Message) {
	m.RoomID = h.room.ID
	h.feed.emit(FeedEvent{Kind: FeedInsert, Message: m})
}

func waitForSnapshot(t *testing.T, s *Session, cond func(Snapshot) bool) Snapshot {
	t.Helper()
	timeout := time.After(2 * time.Second)
	for {
		select {
		case snap := <-s.Updates():
			if cond(snap) {
				return snap
			}
		case <-timeout:
			t.Fatal("timed out waiting for snapshot")
			return Snapshot{}
		}
	}
}

func hasIDs(want ...uuid.UUID) func(Snapshot) bool {
	return func(s Snapshot) bool {
		got := ids(s.Messages)
		if len(got) != len(want) {
			return false
		}
		for i := range got {
			if got[i] != want[i] {
				return false
			}
		}
		return true
	}
}

func TestSession_FeedInsertLandsBetweenBacklog(t *testing.T) {
	h := startSession(t, msg(1, t0), msg(3, t0.Add(2*time.Minute)))

	h.insert(msg(2, t0.Add(time.Minute)))

	waitForSnapshot(t, h.session, hasIDs(testID(1), testID(2), testID(3)))
}

func TestSession_DuplicateAndOverlappingInserts(t *testing.T) {
	h := startSession(t, msg(1, t0))

	h.insert(msg(1, t0))
	h.insert(msg(2, t0.Add(time.Second)))
	h.insert(msg(2, t0.Add(time.Second)))

	snap := waitForSnapshot(t, h.session, hasIDs(testID(1), testID(2)))
	assert.Zero(t, snap.Pending)
}

func TestSession_DeleteBeforeInsertKeepsMessageOut(t *testing.T) {
	h := startSession(t, msg(1, t0))

	h.feed.emit(FeedEvent{Kind: FeedDelete, ID: testID(5)})
	h.insert(msg(5, t0.Add(time.Second)))
	h.insert(msg(6, t0.Add(2*time.Second)))

	waitForSnapshot(t, h.session, hasIDs(testID(1), testID(6)))
}

func TestSession_FeedDeleteRemovesMessage(t *testing.T) {
	h := startSession(t, msg(1, t0), msg(2, t0.Add(time.Second)))

	h.feed.emit(FeedEvent{Kind: FeedDelete, ID: testID(1)})
	h.feed.emit(FeedEvent{Kind: FeedDelete, ID: testID(1)})

	waitForSnapshot(t, h.session, hasIDs(testID(2)))
}

func TestSession_SendAppearsThroughEcho(t *testing.T) {
	h := startSession(t)
	draft := NewDraft("hello there")

	require.NoError(t, h.session.Send(context.Background(), draft, nil))

	snap := waitForSnapshot(t, h.session, func(s Snapshot) bool { return len(s.Messages) == 1 })
	assert.Equal(t, "hello there", snap.Messages[0].Content)
	assert.Equal(t, "ana", snap.Messages[0].SenderName)
	assert.Empty(t, draft.Text())
	require.Len(t, h.rooms.inserts, 1)
}

func TestSession_SendWithoutEchoIsPending(t *testing.T) {
	h := startSession(t)
	h.rooms.echo = nil

	require.NoError(t, h.session.Send(context.Background(), NewDraft("anyone?"), nil))

	snap := waitForSnapshot(t, h.session, func(s Snapshot) bool { return s.Pending == 1 })
	assert.Empty(t, snap.Messages, "sends are never inserted optimistically")
}

func TestSession_RemoveWithoutEcho(t *testing.T) {
	h := startSession(t, msg(1, t0), msg(2, t0.Add(time.Second)), msg(3, t0.Add(2*time.Second)))

	require.NoError(t, h.session.Remove(context.Background(), testID(2)))

	waitForSnapshot(t, h.session, hasIDs(testID(1), testID(3)))
	assert.Equal(t, []uuid.UUID{testID(2)}, h.rooms.deletes)

	// A late duplicate of the original insert must not bring it back.
	h.insert(msg(2, t0.Add(time.Second)))
	h.insert(msg(4, t0.Add(3*time.Second)))
	waitForSnapshot(t, h.session, hasIDs(testID(1), testID(3), testID(4)))
}

func TestSession_RemoveFailureKeepsMessage(t *testing.T) {
	h := startSession(t, msg(1, t0))
	h.rooms.deleteErr = errBackend

	err := h.session.Remove(context.Background(), testID(1))

	assert.ErrorIs(t, err, ErrDelete)
	snap := waitForSnapshot(t, h.session, func(Snapshot) bool { return true })
	assert.Equal(t, []uuid.UUID{testID(1)}, ids(snap.Messages))
}

func TestSession_RemoveKeepsInsertCommittedDuringRefetch(t *testing.T) {
	ctx := context.Background()
	h := startSession(t, msg(1, t0))

	var late *domain.Message
	h.rooms.afterList = func() {
		m, err := h.rooms.InsertMessage(ctx, NewMessage{RoomID: h.room.ID, SenderName: "bo", Content: "still here"})
		require.NoError(t, err)
		late = m
		waitForSnapshot(t, h.session, func(s Snapshot) bool { return slices.Contains(ids(s.Messages), m.ID) })
	}

	require.NoError(t, h.session.Remove(ctx, testID(1)))
	require.NotNil(t, late)

	// Anything applied after the reseed proves the reseed has been applied.
	h.insert(msg(9, t0.Add(time.Hour)))
	snap := waitForSnapshot(t, h.session, func(s Snapshot) bool { return slices.Contains(ids(s.Messages), testID(9)) })
	assert.Equal(t, []uuid.UUID{late.ID, testID(9)}, ids(snap.Messages), "bo's message vanished from the local view")
}

func TestSession_ReseedDropsTombstonedLateInsert(t *testing.T) {
	ctx := context.Background()
	h := startSession(t, msg(1, t0))

	h.rooms.afterList = func() {
		h.insert(msg(5, t0.Add(time.Minute)))
		h.feed.emit(FeedEvent{Kind: FeedDelete, ID: testID(5)})
		waitForSnapshot(t, h.session, hasIDs())
	}

	require.NoError(t, h.session.Remove(ctx, testID(1)))

	h.insert(msg(9, t0.Add(time.Hour)))
	waitForSnapshot(t, h.session, hasIDs(testID(9)))
}

func TestSession_CloseCancelsSubscriptionOnce(t *testing.T) {
	h := startSession(t)

	h.session.Close()
	h.session.Close()

	<-h.session.Done()
	assert.Equal(t, 1, h.feed.cancelCount())
	assert.False(t, h.session.post(Event{Kind: EventInsert, Message: msg(1, t0)}))
}

func TestJoin_BootstrapFailures(t *testing.T) {
	tests := []struct {
		name     string
		identity string
		setup    func(*fakeRooms, *fakeFeed)
		cancels  int
	}{
		{name: "no identity", identity: ""},
		{name: "room lookup fails", identity: "ana", setup: func(r *fakeRooms, _ *fakeFeed) { r.findErr = errBackend }},
		{name: "feed refuses", identity: "ana", setup: func(_ *fakeRooms, f *fakeFeed) { f.err = errBackend }},
		{name: "history fails", identity: "ana", setup: func(r *fakeRooms, _ *fakeFeed) { r.listErr = errBackend }, cancels: 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rooms, feed := newFakeRooms(), &fakeFeed{}
			if tt.setup != nil {
				tt.setup(rooms, feed)
			}

			s, err := Join(context.Background(), Deps{Rooms: rooms, Feed: feed, Logger: discardLogger()},
				Config{Slug: "public", Identity: domain.Identity{Username: tt.identity}})

			assert.Nil(t, s)
			assert.ErrorIs(t, err, ErrBootstrap)
			assert.Equal(t, tt.cancels, feed.cancelCount())
		})
	}
}

func TestJoin_HistoryFailureReleasesFeedCallbacks(t *testing.T) {
	rooms, feed := newFakeRooms(), &fakeFeed{}
	room := rooms.addRoom("public")
	rooms.listErr = errBackend

	returned := make(chan struct{})
	rooms.afterList = func() {
		go func() {
			defer close(returned)
			for i := 1; i <= 3; i++ {
				m := msg(i, t0)
				m.RoomID = room.ID
				feed.emit(FeedEvent{Kind: FeedInsert, Message: m})
			}
		}()
	}

	s, err := Join(context.Background(), Deps{Rooms: rooms, Feed: feed, Logger: discardLogger()},
		Config{Slug: "public", Identity: domain.Identity{Username: "ana"}, EventBuffer: 1})
	require.ErrorIs(t, err, ErrBootstrap)
	assert.Nil(t, s)

	select {
	case <-returned:
	case <-time.After(2 * time.Second):
		t.Fatal("feed callback still blocked after failed join")
	}
}

func TestEventKind_String(t *testing.T) {
	tests := []struct {
		kind EventKind
		want string
	}{
		{EventInsert, "insert"},
		{EventLocalDelete, "local_delete"},
		{EventReseedMark, "reseed_mark"},
		{EventReseed, "reseed"},
		{EventReseedAbort, "reseed_abort"},
		{EventKind(42), "event(42)"},
	}

	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.kind.String())
		})
	}
}
