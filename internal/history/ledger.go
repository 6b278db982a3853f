// Package history keeps a bounded, ordered message log per room.
package history

import "sync"

// DefaultLimit is the number of entries retained per room.
const DefaultLimit = 50

// Ledger is a per-room bounded log. Rooms are created on first append.
type Ledger[T any] struct {
	mu    sync.RWMutex
	limit int
	rooms map[string][]T
}

// NewLedger returns a ledger that keeps at most limit entries per room.
// A non-positive limit falls back to DefaultLimit.
func NewLedger[T any](limit int) *Ledger[T] {
	if limit <= 0 {
		limit = DefaultLimit
	}
	return &Ledger[T]{
		limit: limit,
		rooms: make(map[string][]T),
	}
}

// Append adds entry to the end of room's log and returns the entries evicted
// from the front to stay within the limit.
func (l *Ledger[T]) Append(room string, entry T) []T {
	l.mu.Lock()
	defer l.mu.Unlock()

	entries := append(l.rooms[room], entry)
	var evicted []T
	if over := len(entries) - l.limit; over > 0 {
		evicted = make([]T, over)
		copy(evicted, entries[:over])
		// Copy into a fresh slice so the evicted prefix can be collected.
		kept := make([]T, l.limit, l.limit+1)
		copy(kept, entries[over:])
		entries = kept
	}
	l.rooms[room] = entries
	return evicted
}

// Replay returns a copy of room's log, oldest first.
func (l *Ledger[T]) Replay(room string) []T {
	l.mu.RLock()
	defer l.mu.RUnlock()

	entries := l.rooms[room]
	out := make([]T, len(entries))
	copy(out, entries)
	return out
}

// Len returns the number of retained entries for room.
func (l *Ledger[T]) Len(room string) int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.rooms[room])
}
