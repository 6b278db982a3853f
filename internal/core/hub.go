package core

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"github.com/vovakirdan/miochat-server/internal/bot"
	"github.com/vovakirdan/miochat-server/internal/config"
	"github.com/vovakirdan/miochat-server/internal/history"
	"github.com/vovakirdan/miochat-server/internal/metrics"
	"github.com/vovakirdan/miochat-server/internal/presence"
	"github.com/vovakirdan/miochat-server/internal/reaction"
)

// Options carries the state containers and collaborators injected into a Hub.
// Nil fields get fresh defaults.
type Options struct {
	Registry   *presence.Registry
	Ledger     *history.Ledger[Message]
	Reactions  *reaction.Store
	Bots       *bot.Dispatcher
	SystemName string
	InboxSize  int
	Logger     *zerolog.Logger
	Metrics    *metrics.Metrics
}

type envelopeKind int

const (
	envRegister envelopeKind = iota
	envUnregister
	envCommand
	envBotReply
)

type envelope struct {
	kind   envelopeKind
	client *Client
	cmd    *Command
	room   string
	reply  bot.Reply
}

// Hub serializes every client command and bot reply through one goroutine and
// fans the resulting events out to room members.
type Hub struct {
	inbox chan envelope
	done  chan struct{}

	// owned by the Run goroutine
	clients map[string]*Client

	registry   *presence.Registry
	ledger     *history.Ledger[Message]
	reactions  *reaction.Store
	bots       *bot.Dispatcher
	systemName string
	log        *zerolog.Logger
	metrics    *metrics.Metrics
}

// NewHub creates a new chat hub instance.
func NewHub(opts Options) *Hub {
	if opts.Registry == nil {
		opts.Registry = presence.NewRegistry()
	}
	if opts.Ledger == nil {
		opts.Ledger = history.NewLedger[Message](history.DefaultLimit)
	}
	if opts.Reactions == nil {
		opts.Reactions = reaction.NewStore()
	}
	if opts.SystemName == "" {
		opts.SystemName = config.DefaultSystemName
	}
	if opts.InboxSize <= 0 {
		opts.InboxSize = 256
	}
	if opts.Logger == nil {
		nop := zerolog.Nop()
		opts.Logger = &nop
	}
	if opts.Bots == nil {
		opts.Bots = bot.NewDispatcher(nil, nil, opts.Logger, opts.Metrics)
	}

	return &Hub{
		inbox:      make(chan envelope, opts.InboxSize),
		done:       make(chan struct{}),
		clients:    make(map[string]*Client),
		registry:   opts.Registry,
		ledger:     opts.Ledger,
		reactions:  opts.Reactions,
		bots:       opts.Bots,
		systemName: opts.SystemName,
		log:        opts.Logger,
		metrics:    opts.Metrics,
	}
}

// Run processes events until ctx is canceled, then waits for in-flight bot
// requests to finish. It must be called exactly once.
func (h *Hub) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			h.bots.Wait()
			close(h.done)
			return
		case env := <-h.inbox:
			h.handle(ctx, env)
		}
	}
}

// RegisterClient makes c known to the hub and starts forwarding its commands.
func (h *Hub) RegisterClient(c *Client) {
	if !h.post(envelope{kind: envRegister, client: c}) {
		return
	}
	go h.pump(c)
}

// UnregisterClient closes c's command stream. Commands already queued are
// processed first, then the connection's session is removed and its Events
// channel closed. The caller must have stopped writing to c.Commands.
func (h *Hub) UnregisterClient(c *Client) {
	c.closeCommands()
}

// Roster returns the usernames currently joined to room.
func (h *Hub) Roster(room string) []string {
	return h.registry.MembersOf(room)
}

// History returns room's retained messages with their current reactions.
func (h *Hub) History(room string) []Message {
	msgs := h.ledger.Replay(room)
	for i := range msgs {
		msgs[i].Reactions = h.reactions.Snapshot(msgs[i].ID)
	}
	return msgs
}

// RoomInfo summarizes a room with live members.
type RoomInfo struct {
	Name     string
	Users    int
	Messages int
}

// Rooms lists the rooms that currently have members, sorted by name.
func (h *Hub) Rooms() []RoomInfo {
	names := h.registry.Rooms()
	out := make([]RoomInfo, 0, len(names))
	for _, name := range names {
		out = append(out, RoomInfo{
			Name:     name,
			Users:    len(h.registry.MembersOf(name)),
			Messages: h.ledger.Len(name),
		})
	}
	return out
}

func (h *Hub) pump(c *Client) {
	for cmd := range c.Commands {
		if !h.post(envelope{kind: envCommand, client: c, cmd: cmd}) {
			return
		}
	}
	h.post(envelope{kind: envUnregister, client: c})
}

func (h *Hub) post(env envelope) bool {
	select {
	case h.inbox <- env:
		return true
	case <-h.done:
		return false
	}
}

func (h *Hub) handle(ctx context.Context, env envelope) {
	switch env.kind {
	case envRegister:
		h.clients[env.client.ID] = env.client
		h.metrics.ConnectionOpened()
		h.log.Debug().Str("client_id", env.client.ID).Msg("client registered")
	case envUnregister:
		h.disconnect(env.client)
	case envCommand:
		if _, ok := h.clients[env.client.ID]; !ok {
			return
		}
		h.handleCommand(ctx, env.client, env.cmd)
	case envBotReply:
		h.handleBotReply(env.room, env.reply)
	}
}

func (h *Hub) handleCommand(ctx context.Context, c *Client, cmd *Command) {
	if cmd == nil {
		return
	}
	switch cmd.Kind {
	case CommandJoinRoom:
		h.join(c, cmd)
	case CommandSendMessage:
		h.chat(ctx, c, cmd)
	case CommandToggleReaction:
		h.react(c, cmd)
	case CommandTyping:
		h.typing(c, cmd, EventUserTyping)
	case CommandStopTyping:
		h.typing(c, cmd, EventUserStopTyping)
	default:
		h.log.Debug().Str("client_id", c.ID).Int("kind", int(cmd.Kind)).Msg("unknown command dropped")
	}
}

func (h *Hub) join(c *Client, cmd *Command) {
	username := strings.TrimSpace(cmd.Username)
	room := strings.TrimSpace(cmd.Room)
	if username == "" || room == "" {
		h.log.Debug().Str("client_id", c.ID).Msg("join without username or room dropped")
		return
	}

	prev, replaced := h.registry.Join(c.ID, username, room)
	if replaced && prev.Room != room {
		h.announceLeave(prev)
	}
	h.log.Info().Str("client_id", c.ID).Str("user", username).Str("room", room).Msg("user joined")

	for _, msg := range h.ledger.Replay(room) {
		h.toConn(c, h.messageEvent(msg))
	}
	h.toConn(c, h.systemEvent(room, fmt.Sprintf("Welcome to %s, %s.", room, username)))
	h.toRoomExcept(room, c.ID, h.systemEvent(room, fmt.Sprintf("%s has joined the chat.", username)))
	h.toRoom(room, h.rosterEvent(room))
}

func (h *Hub) disconnect(c *Client) {
	if _, ok := h.clients[c.ID]; !ok {
		return
	}
	delete(h.clients, c.ID)
	close(c.Events)
	h.metrics.ConnectionClosed()

	sess, ok := h.registry.Leave(c.ID)
	if !ok {
		h.log.Debug().Str("client_id", c.ID).Msg("client left without session")
		return
	}
	h.log.Info().Str("client_id", c.ID).Str("user", sess.Username).Str("room", sess.Room).Msg("user disconnected")
	h.announceLeave(sess)
}

func (h *Hub) announceLeave(sess presence.Session) {
	h.toRoom(sess.Room, h.systemEvent(sess.Room, fmt.Sprintf("%s has left the chat.", sess.Username)))
	h.toRoom(sess.Room, h.rosterEvent(sess.Room))
}

func (h *Hub) chat(ctx context.Context, c *Client, cmd *Command) {
	room, username := h.resolve(c, cmd)
	text := strings.TrimSpace(cmd.Text)
	if room == "" || username == "" || text == "" {
		h.log.Debug().Str("client_id", c.ID).Msg("incomplete chat message dropped")
		return
	}

	h.appendAndBroadcast(NewMessage(room, username, text, cmd.ReplyTo), "user")

	p, ok := h.bots.Match(text)
	if !ok {
		return
	}
	h.log.Debug().Str("room", room).Str("persona", p.Name).Msg("bot mention")
	h.toRoom(room, &Event{Kind: EventUserTyping, Room: room, User: p.Name})
	h.bots.Dispatch(ctx, p, text, func(reply bot.Reply) {
		// Results rejoin the event loop; state is never touched from here.
		select {
		case h.inbox <- envelope{kind: envBotReply, room: room, reply: reply}:
		case <-ctx.Done():
		}
	})
}

func (h *Hub) handleBotReply(room string, reply bot.Reply) {
	h.toRoom(room, &Event{Kind: EventUserStopTyping, Room: room, User: reply.Persona.Name})
	if reply.Err != nil {
		return
	}
	h.appendAndBroadcast(NewMessage(room, reply.Persona.Name, reply.Text, nil), "bot")
}

func (h *Hub) appendAndBroadcast(msg Message, author string) {
	evicted := h.ledger.Append(msg.Room, msg)
	if len(evicted) > 0 {
		ids := make([]string, 0, len(evicted))
		for _, old := range evicted {
			ids = append(ids, old.ID)
		}
		h.reactions.Forget(ids...)
	}
	h.metrics.MessageAppended(author, len(evicted))
	h.toRoom(msg.Room, h.messageEvent(msg))
}

func (h *Hub) react(c *Client, cmd *Command) {
	room, username := h.resolve(c, cmd)
	if cmd.MessageID == "" || cmd.Emoji == "" || username == "" {
		h.log.Debug().Str("client_id", c.ID).Msg("incomplete reaction dropped")
		return
	}

	agg := h.reactions.Toggle(cmd.MessageID, cmd.Emoji, username)
	h.metrics.ReactionToggled()
	h.toRoom(room, &Event{Kind: EventReaction, Room: room, MessageID: cmd.MessageID, Reactions: agg})
}

func (h *Hub) typing(c *Client, cmd *Command, kind EventKind) {
	room, username := h.resolve(c, cmd)
	if room == "" || username == "" {
		return
	}
	h.toRoomExcept(room, c.ID, &Event{Kind: kind, Room: room, User: username})
}

// resolve prefers the room and username carried by the command and falls back
// to the connection's session.
func (h *Hub) resolve(c *Client, cmd *Command) (room, username string) {
	room = strings.TrimSpace(cmd.Room)
	username = strings.TrimSpace(cmd.Username)
	if room != "" && username != "" {
		return room, username
	}
	if sess, ok := h.registry.Get(c.ID); ok {
		if room == "" {
			room = sess.Room
		}
		if username == "" {
			username = sess.Username
		}
	}
	return room, username
}

func (h *Hub) messageEvent(msg Message) *Event {
	msg.Reactions = h.reactions.Snapshot(msg.ID)
	return &Event{Kind: EventMessage, Room: msg.Room, Message: msg}
}

func (h *Hub) systemEvent(room, text string) *Event {
	return h.messageEvent(NewMessage(room, h.systemName, text, nil))
}

func (h *Hub) rosterEvent(room string) *Event {
	return &Event{Kind: EventRoomUsers, Room: room, Users: h.registry.MembersOf(room)}
}
