package presence

import "slices"

// MembersOf returns the usernames joined to room ordered by join time.
// Duplicate usernames are kept, one entry per connection.
func (r *Registry) MembersOf(room string) []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	sessions := r.orderedSessions(room)
	users := make([]string, 0, len(sessions))
	for _, s := range sessions {
		users = append(users, s.Username)
	}
	return users
}

// ConnectionsIn returns the connection ids joined to room ordered by join time.
func (r *Registry) ConnectionsIn(room string) []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	sessions := r.orderedSessions(room)
	ids := make([]string, 0, len(sessions))
	for _, s := range sessions {
		ids = append(ids, s.ConnID)
	}
	return ids
}

// Rooms returns the names of rooms with at least one member, sorted.
func (r *Registry) Rooms() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.rooms))
	for name := range r.rooms {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}
