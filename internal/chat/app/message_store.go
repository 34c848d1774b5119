package app

import (
	"sort"
	"time"

	"ephemeral_chat/internal/chat/domain"
)

// MessageStore keeps the single deduplicated, ordered timeline for the
// active room. It merges three event streams: optimistic local sends,
// confirmed inserts from the realtime channel, and history pages from
// pagination. Messages are held sorted ascending by created_at; the
// rendering layer reads them newest first.
//
// The store is owned by the session controller and is not safe for
// concurrent use on its own.
type MessageStore struct {
	roomID   string
	messages []domain.Message
	ids      map[string]struct{}
}

// NewMessageStore create an empty store bound to one room id.
func NewMessageStore(roomID string) *MessageStore {
	return &MessageStore{
		roomID: roomID,
		ids:    make(map[string]struct{}),
	}
}

// RoomID the room this store reconciles
func (s *MessageStore) RoomID() string { return s.roomID }

// Len current timeline size
func (s *MessageStore) Len() int { return len(s.messages) }

// ApplyOptimistic appends a provisional local send so the sender sees
// instant feedback.
func (s *MessageStore) ApplyOptimistic(m domain.Message) {
	m.Provisional = true
	s.insertSorted(m)
}

// ApplyConfirmed merges a confirmed insert from the realtime channel.
// Events for other rooms are discarded: they are stale deliveries from a
// torn-down subscription. A confirmed copy of a provisional send (same id,
// or same sender with identical content) replaces that entry in place.
// Re-delivery of an already-known id leaves the timeline unchanged.
//
// The return reports whether the event added a new confirmed entry (rather
// than being dropped or superseding a provisional one).
func (s *MessageStore) ApplyConfirmed(m domain.Message) bool {
	if m.RoomID != s.roomID {
		return false
	}
	m.Provisional = false

	if _, known := s.ids[m.ID]; known {
		for i := range s.messages {
			if s.messages[i].ID == m.ID {
				if s.messages[i].Provisional {
					s.messages[i] = m
				}
				break
			}
		}
		return false
	}

	for i := range s.messages {
		if s.messages[i].Provisional && s.messages[i].SameSend(m) {
			delete(s.ids, s.messages[i].ID)
			s.messages[i] = m
			s.ids[m.ID] = struct{}{}
			return false
		}
	}

	s.insertSorted(m)
	return true
}

// ApplyHistoryPage merges a batch of older messages fetched by pagination,
// skipping any id already present. Returns how many were added.
func (s *MessageStore) ApplyHistoryPage(batch []domain.Message) int {
	added := 0
	for _, m := range batch {
		if _, known := s.ids[m.ID]; known {
			continue
		}
		m.Provisional = false
		s.insertSorted(m)
		added++
	}
	return added
}

// Remove drops a message by id; used to roll back a failed optimistic send.
func (s *MessageStore) Remove(id string) bool {
	if _, known := s.ids[id]; !known {
		return false
	}
	delete(s.ids, id)
	for i := range s.messages {
		if s.messages[i].ID == id {
			s.messages = append(s.messages[:i], s.messages[i+1:]...)
			return true
		}
	}
	return false
}

// Messages ascending copy of the timeline
func (s *MessageStore) Messages() []domain.Message {
	out := make([]domain.Message, len(s.messages))
	copy(out, s.messages)
	return out
}

// NewestFirst timeline in render order
func (s *MessageStore) NewestFirst() []domain.Message {
	out := make([]domain.Message, len(s.messages))
	for i, m := range s.messages {
		out[len(out)-1-i] = m
	}
	return out
}

// OldestTimestamp the historical edge of the loaded window
func (s *MessageStore) OldestTimestamp() (time.Time, bool) {
	if len(s.messages) == 0 {
		return time.Time{}, false
	}
	return s.messages[0].CreatedAt, true
}

func (s *MessageStore) insertSorted(m domain.Message) {
	s.ids[m.ID] = struct{}{}
	idx := sort.Search(len(s.messages), func(i int) bool {
		return s.messages[i].CreatedAt.After(m.CreatedAt)
	})
	s.messages = append(s.messages, domain.Message{})
	copy(s.messages[idx+1:], s.messages[idx:])
	s.messages[idx] = m
}
