package core

import "github.com/vovakirdan/miochat-server/internal/reaction"

// EventKind is a notification the core emits to clients.
type EventKind int

const (
	// EventMessage delivers a chat, bot or system message.
	EventMessage EventKind = iota
	// EventReaction carries the full reaction aggregate of one message.
	EventReaction
	// EventUserTyping reports that someone started typing.
	EventUserTyping
	// EventUserStopTyping reports that someone stopped typing.
	EventUserStopTyping
	// EventRoomUsers carries a room roster.
	EventRoomUsers
)

func (k EventKind) String() string {
	switch k {
	case EventMessage:
		return "message"
	case EventReaction:
		return "reaction"
	case EventUserTyping:
		return "user_typing"
	case EventUserStopTyping:
		return "user_stop_typing"
	case EventRoomUsers:
		return "room_users"
	default:
		return "unknown"
	}
}

// Event is sent to clients to describe what happened in a room.
// Events are shared between recipients and must not be mutated after delivery.
type Event struct {
	Kind      EventKind
	Room      string
	User      string             // typing events
	Message   Message            // EventMessage
	MessageID string             // EventReaction
	Reactions reaction.Aggregate // EventReaction
	Users     []string           // EventRoomUsers
}
