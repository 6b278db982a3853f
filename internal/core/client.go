package core

import "sync"

const defaultClientBuffer = 128

// Client is a connection as seen by the core layer. The transport writes
// Commands and reads Events; the hub owns and closes Events.
type Client struct {
	ID       string
	Commands chan *Command
	Events   chan *Event

	closeOnce sync.Once
}

// NewClient constructs a client with initialized channels. buffer sizes the
// outbound queue and must hold a full history replay plus the join burst.
func NewClient(id string, buffer int) *Client {
	if buffer <= 0 {
		buffer = defaultClientBuffer
	}
	return &Client{
		ID:       id,
		Commands: make(chan *Command, 8),
		Events:   make(chan *Event, buffer),
	}
}

func (c *Client) closeCommands() {
	c.closeOnce.Do(func() { close(c.Commands) })
}
