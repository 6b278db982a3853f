// Package presence tracks which connection is bound to which username and room.
package presence

import (
	"sort"
	"sync"
)

// Session is the live binding of a connection to a username and room.
type Session struct {
	ConnID   string
	Username string
	Room     string

	seq uint64
}

// Registry maps connection ids to sessions and keeps a per-room index
// so roster lookups never scan every connection.
type Registry struct {
	mu       sync.RWMutex
	sessions map[string]Session
	rooms    map[string]map[string]uint64 // room -> connID -> seq
	nextSeq  uint64
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		sessions: make(map[string]Session),
		rooms:    make(map[string]map[string]uint64),
	}
}

// Join registers or overwrites the session for connID. It returns the session it
// replaced, if any, so callers can notify the previous room.
func (r *Registry) Join(connID, username, room string) (previous Session, replaced bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	previous, replaced = r.sessions[connID]
	if replaced {
		r.unindex(previous)
	}

	r.nextSeq++
	sess := Session{ConnID: connID, Username: username, Room: room, seq: r.nextSeq}
	r.sessions[connID] = sess

	members, ok := r.rooms[room]
	if !ok {
		members = make(map[string]uint64)
		r.rooms[room] = members
	}
	members[connID] = sess.seq

	return previous, replaced
}

// Leave removes and returns the session for connID. The second call for the
// same connection reports false.
func (r *Registry) Leave(connID string) (Session, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	sess, ok := r.sessions[connID]
	if !ok {
		return Session{}, false
	}
	delete(r.sessions, connID)
	r.unindex(sess)
	return sess, true
}

// Get returns the current session for connID.
func (r *Registry) Get(connID string) (Session, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	sess, ok := r.sessions[connID]
	return sess, ok
}

// Count returns the number of live sessions.
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sessions)
}

// caller holds mu.
func (r *Registry) unindex(sess Session) {
	members, ok := r.rooms[sess.Room]
	if !ok {
		return
	}
	delete(members, sess.ConnID)
	if len(members) == 0 {
		delete(r.rooms, sess.Room)
	}
}

// caller holds mu (read or write).
func (r *Registry) orderedSessions(room string) []Session {
	members := r.rooms[room]
	out := make([]Session, 0, len(members))
	for connID := range members {
		out = append(out, r.sessions[connID])
	}
	sort.Slice(out, func(i, j int) bool { return out[i].seq < out[j].seq })
	return out
}
