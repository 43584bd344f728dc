package roomsync

import (
	"slices"

	"github.com/google/uuid"
	"github.com/vedran77/huddle/internal/domain"
)

// Store is the ordered local mirror of a room's messages. It holds at most
// one message per id, sorted by (created_at, id). Store is not safe for
// concurrent use; a Session confines it to its own goroutine.
type Store struct {
	messages []domain.Message
	ids      map[uuid.UUID]struct{}
}

func NewStore() *Store {
	return &Store{ids: make(map[uuid.UUID]struct{})}
}

// Seed replaces the contents of the store. Duplicate ids keep the first
// occurrence.
func (s *Store) Seed(messages []domain.Message) {
	s.messages = make([]domain.Message, 0, len(messages))
	s.ids = make(map[uuid.UUID]struct{}, len(messages))
	for _, m := range messages {
		if _, ok := s.ids[m.ID]; ok {
			continue
		}
		s.ids[m.ID] = struct{}{}
		s.messages = append(s.messages, m)
	}
	slices.SortFunc(s.messages, domain.Compare)
}

// ApplyInsert adds msg unless its id is already present. It reports whether
// the store changed.
func (s *Store) ApplyInsert(msg domain.Message) bool {
	if _, ok := s.ids[msg.ID]; ok {
		return false
	}
	i, _ := slices.BinarySearchFunc(s.messages, msg, domain.Compare)
	s.messages = slices.Insert(s.messages, i, msg)
	s.ids[msg.ID] = struct{}{}
	return true
}

// ApplyDelete removes the message with id. Unknown ids are ignored.
func (s *Store) ApplyDelete(id uuid.UUID) bool {
	if _, ok := s.ids[id]; !ok {
		return false
	}
	delete(s.ids, id)
	s.messages = slices.DeleteFunc(s.messages, func(m domain.Message) bool {
		return m.ID == id
	})
	return true
}

func (s *Store) Contains(id uuid.UUID) bool {
	_, ok := s.ids[id]
	return ok
}

func (s *Store) Len() int {
	return len(s.messages)
}

// Snapshot returns a copy of the ordered messages.
func (s *Store) Snapshot() []domain.Message {
	out := make([]domain.Message, len(s.messages))
	copy(out, s.messages)
	return out
}
