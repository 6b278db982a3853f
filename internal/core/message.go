package core

import (
	"time"
	"unicode/utf8"

	"github.com/vovakirdan/miochat-server/internal/reaction"
	"github.com/vovakirdan/miochat-server/internal/utils"
)

// replySnapshotRunes bounds the quoted text kept in a reply reference.
const replySnapshotRunes = 50

// ReplyRef is a by-value snapshot of the message being replied to.
type ReplyRef struct {
	ID       string
	Username string
	Text     string
}

// Message is the domain model for a chat message. Everything but Reactions is
// fixed at creation; Reactions is filled from the reaction store when emitted.
type Message struct {
	ID        string
	Room      string
	Username  string
	Text      string
	CreatedAt time.Time
	ReplyTo   *ReplyRef
	Reactions reaction.Aggregate
}

// NewMessage creates a message with a fresh id.
func NewMessage(room, username, text string, replyTo *ReplyRef) Message {
	return Message{
		ID:        utils.NewID(),
		Room:      room,
		Username:  username,
		Text:      text,
		CreatedAt: time.Now(),
		ReplyTo:   snapshotReply(replyTo),
	}
}

// DisplayTime is the HH:MM form shown next to a message.
func (m Message) DisplayTime() string {
	return m.CreatedAt.Format("15:04")
}

func snapshotReply(ref *ReplyRef) *ReplyRef {
	if ref == nil || ref.ID == "" || ref.Username == "" {
		return nil
	}
	text := ref.Text
	if utf8.RuneCountInString(text) > replySnapshotRunes {
		text = string([]rune(text)[:replySnapshotRunes]) + "..."
	}
	return &ReplyRef{ID: ref.ID, Username: ref.Username, Text: text}
}
