package roomsync

import (
	"context"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vedran77/huddle/internal/domain"
)

type eventRecorder struct {
	mu     sync.Mutex
	events []Event
}

func (r *eventRecorder) post(ev Event) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, ev)
	return true
}

func (r *eventRecorder) kinds() []EventKind {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]EventKind, 0, len(r.events))
	for _, ev := range r.events {
		out = append(out, ev.Kind)
	}
	return out
}

func TestDeletePipeline_Remove(t *testing.T) {
	tests := []struct {
		name      string
		setup     func(*fakeRooms)
		wantErr   error
		wantKinds []EventKind
	}{
		{
			name:      "success removes locally then reseeds",
			wantKinds: []EventKind{EventLocalDelete, EventReseedMark, EventReseed},
		},
		{
			name:      "re-fetch failure keeps local removal",
			setup:     func(r *fakeRooms) { r.listErr = errBackend },
			wantKinds: []EventKind{EventLocalDelete, EventReseedMark, EventReseedAbort},
		},
		{
			name:      "delete failure reseeds only",
			setup:     func(r *fakeRooms) { r.deleteErr = errBackend },
			wantErr:   ErrDelete,
			wantKinds: []EventKind{EventReseedMark, EventReseed},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rooms := newFakeRooms()
			rooms.messages = []domain.Message{msg(1, t0), msg(2, t0)}
			if tt.setup != nil {
				tt.setup(rooms)
			}
			rec := &eventRecorder{}
			p := NewDeletePipeline(rooms, domain.Room{ID: uuid.New()}, rec.post, discardLogger())

			err := p.Remove(context.Background(), testID(1))

			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
			} else {
				require.NoError(t, err)
			}
			assert.Equal(t, tt.wantKinds, rec.kinds())
		})
	}
}

func TestDeletePipeline_ReseedReflectsServer(t *testing.T) {
	rooms := newFakeRooms()
	rooms.messages = []domain.Message{msg(1, t0), msg(2, t0)}
	rec := &eventRecorder{}

	require.NoError(t, NewDeletePipeline(rooms, domain.Room{ID: uuid.New()}, rec.post, discardLogger()).
		Remove(context.Background(), testID(1)))

	require.Len(t, rec.events, 3)
	assert.Equal(t, testID(1), rec.events[0].ID)
	require.NotNil(t, rec.events[1].Mark)
	assert.Same(t, rec.events[1].Mark, rec.events[2].Mark)
	assert.Equal(t, []uuid.UUID{testID(2)}, ids(rec.events[2].Messages))
}
