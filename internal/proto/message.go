package proto

import "encoding/json"

// Inbound is the envelope for messages coming from the client.
type Inbound struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data"`
}

const (
	InboundTypeJoin       = "join-room"
	InboundTypeChat       = "chat-message"
	InboundTypeReaction   = "send-reaction"
	InboundTypeTyping     = "typing"
	InboundTypeStopTyping = "stop-typing"

	OutboundTypeEvent = "event"

	EventNameMessage        = "message"
	EventNameReaction       = "receive-reaction"
	EventNameUserTyping     = "user-typing"
	EventNameUserStopTyping = "user-stop-typing"
	EventNameRoomUsers      = "room-users"
)

// JoinData binds the connection to a username and room.
type JoinData struct {
	Username string `json:"username"`
	Room     string `json:"room"`
}

// ChatData is a chat message from the client. Msg is the legacy name for Text.
type ChatData struct {
	Room     string     `json:"room"`
	Username string     `json:"username"`
	Text     string     `json:"text"`
	Msg      string     `json:"msg,omitempty"`
	ReplyTo  *ReplyData `json:"replyTo,omitempty"`
}

// Body returns the message text, falling back to the legacy field.
func (d ChatData) Body() string {
	if d.Text != "" {
		return d.Text
	}
	return d.Msg
}

// ReplyData references the message being answered.
type ReplyData struct {
	ID       string `json:"id"`
	Username string `json:"username"`
	Text     string `json:"text"`
}

// ReactionData toggles one emoji on one message.
type ReactionData struct {
	MessageID string `json:"messageId"`
	Emoji     string `json:"emoji"`
	Room      string `json:"room"`
	Username  string `json:"username"`
}

// TypingData starts or stops a typing indicator.
type TypingData struct {
	Room     string `json:"room"`
	Username string `json:"username"`
}

// Outbound is the envelope for messages sent to the client.
type Outbound struct {
	Type  string `json:"type"`
	Event string `json:"event"`
	Data  any    `json:"data"`
}

// EventMessage is a chat message as clients render it.
type EventMessage struct {
	ID        string              `json:"id"`
	Username  string              `json:"username"`
	Text      string              `json:"text"`
	Time      string              `json:"time"`
	TS        string              `json:"ts"`
	ReplyTo   *ReplyData          `json:"replyTo,omitempty"`
	Reactions map[string]Reaction `json:"reactions"`
}

// Reaction is one emoji entry of a message's aggregate.
type Reaction struct {
	Count int      `json:"count"`
	Users []string `json:"users"`
}

// EventReaction carries a message's full reaction aggregate after a toggle.
type EventReaction struct {
	MessageID string              `json:"messageId"`
	Reactions map[string]Reaction `json:"reactions"`
}

// EventTyping names the user whose typing indicator changed.
type EventTyping struct {
	Username string `json:"username"`
}

// EventRoomUsers is the current roster of a room.
type EventRoomUsers struct {
	Room  string   `json:"room"`
	Users []string `json:"users"`
}
