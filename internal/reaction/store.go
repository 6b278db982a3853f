// Package reaction stores per-message emoji reactions with toggle semantics.
package reaction

import (
	"slices"
	"sync"
)

// Entry is the set of users who reacted with one emoji. Count always equals len(Users).
type Entry struct {
	Count int
	Users []string
}

// Aggregate maps emoji to its entry for a single message.
type Aggregate map[string]Entry

// Store holds aggregates keyed by message id. It does not check that the
// message exists.
type Store struct {
	mu   sync.Mutex
	aggs map[string]map[string][]string // messageID -> emoji -> users in reaction order
}

// NewStore returns an empty store.
func NewStore() *Store {
	return &Store{aggs: make(map[string]map[string][]string)}
}

// Toggle adds username's reaction with emoji to messageID, or removes it if
// already present. It returns the full aggregate for messageID after the change.
func (s *Store) Toggle(messageID, emoji, username string) Aggregate {
	s.mu.Lock()
	defer s.mu.Unlock()

	emojis, ok := s.aggs[messageID]
	if !ok {
		emojis = make(map[string][]string)
		s.aggs[messageID] = emojis
	}

	users := emojis[emoji]
	if i := slices.Index(users, username); i >= 0 {
		users = slices.Delete(users, i, i+1)
		if len(users) == 0 {
			delete(emojis, emoji)
		} else {
			emojis[emoji] = users
		}
	} else {
		emojis[emoji] = append(users, username)
	}

	return snapshot(emojis)
}

// Snapshot returns a copy of the aggregate for messageID. Unknown ids yield an empty aggregate.
func (s *Store) Snapshot(messageID string) Aggregate {
	s.mu.Lock()
	defer s.mu.Unlock()
	return snapshot(s.aggs[messageID])
}

// Forget drops the aggregates of the given messages.
func (s *Store) Forget(messageIDs ...string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, id := range messageIDs {
		delete(s.aggs, id)
	}
}

// Len returns the number of messages with a stored aggregate.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.aggs)
}

func snapshot(emojis map[string][]string) Aggregate {
	out := make(Aggregate, len(emojis))
	for emoji, users := range emojis {
		out[emoji] = Entry{Count: len(users), Users: slices.Clone(users)}
	}
	return out
}
