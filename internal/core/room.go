package core

// Delivery scopes. Rooms have no object of their own: membership is read from
// the presence registry at send time, so a connection that left or moved never
// receives the room's events.

// toConn delivers to exactly one connection.
func (h *Hub) toConn(c *Client, ev *Event) {
	h.deliver(c, ev)
}

// toRoom delivers to every connection joined to room.
func (h *Hub) toRoom(room string, ev *Event) {
	h.toRoomExcept(room, "", ev)
}

// toRoomExcept delivers to every connection joined to room except the one with id except.
func (h *Hub) toRoomExcept(room, except string, ev *Event) {
	for _, id := range h.registry.ConnectionsIn(room) {
		if id == except {
			continue
		}
		if c, ok := h.clients[id]; ok {
			h.deliver(c, ev)
		}
	}
}

func (h *Hub) deliver(c *Client, ev *Event) {
	select {
	case c.Events <- ev:
	default:
		// Drop if slow consumer.
		h.metrics.EventDropped()
		h.log.Warn().Str("client_id", c.ID).Str("event", ev.Kind.String()).Msg("client queue full, event dropped")
	}
}
