package core

// CommandKind describes what the client wants to do.
type CommandKind int

const (
	// CommandJoinRoom binds the connection to a username and room.
	CommandJoinRoom CommandKind = iota
	// CommandSendMessage posts a chat message to a room.
	CommandSendMessage
	// CommandToggleReaction adds or removes the sender's emoji on a message.
	CommandToggleReaction
	// CommandTyping announces that the sender started typing.
	CommandTyping
	// CommandStopTyping announces that the sender stopped typing.
	CommandStopTyping
)

// Command represents an action requested by a client. Room and Username come
// from the inbound payload; empty values fall back to the connection's session.
type Command struct {
	Kind      CommandKind
	Room      string
	Username  string
	Text      string
	ReplyTo   *ReplyRef
	MessageID string
	Emoji     string
}
