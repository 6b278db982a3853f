package core

import (
	"context"
	"testing"
	"time"
)

func mustEvent(t *testing.T, ch <-chan *Event, kind EventKind) *Event {
	t.Helper()

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		select {
		case ev := <-ch:
			if ev == nil {
				continue
			}
			if ev.Kind == kind {
				return ev
			}
		default:
			time.Sleep(10 * time.Millisecond)
		}
	}
	t.Fatalf("expected event kind %v not received", kind)
	return nil
}

// nextEvent returns the very next event, failing on timeout or a closed channel.
func nextEvent(t *testing.T, ch <-chan *Event) *Event {
	t.Helper()

	select {
	case ev, ok := <-ch:
		if !ok {
			t.Fatal("event channel closed")
		}
		return ev
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for event")
	}
	return nil
}

func expectNoEvent(t *testing.T, ch <-chan *Event, wait time.Duration) {
	t.Helper()

	select {
	case ev, ok := <-ch:
		if ok {
			t.Fatalf("unexpected event: kind=%v user=%q text=%q", ev.Kind, ev.User, ev.Message.Text)
		}
	case <-time.After(wait):
	}
}

func startHub(t *testing.T, opts Options) *Hub {
	t.Helper()

	ctx, cancel := context.WithCancel(context.Background())
	hub := NewHub(opts)
	go hub.Run(ctx)
	t.Cleanup(cancel)
	return hub
}

func connect(t *testing.T, hub *Hub, id string) *Client {
	t.Helper()

	c := NewClient(id, 0)
	hub.RegisterClient(c)
	return c
}

// joinAndDrain joins c to room and consumes the join burst up to and including the roster.
func joinAndDrain(t *testing.T, c *Client, username, room string) {
	t.Helper()

	c.Commands <- &Command{Kind: CommandJoinRoom, Username: username, Room: room}
	mustEvent(t, c.Events, EventRoomUsers)
}
