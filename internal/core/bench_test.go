package core

import (
	"context"
	"fmt"
	"testing"
)

func benchmarkRoomBroadcast(b *testing.B, recipients int) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	hub := NewHub(Options{InboxSize: 1024})
	go hub.Run(ctx)

	sender := NewClient("sender", 0)
	hub.RegisterClient(sender)
	go func() {
		for range sender.Events {
		}
	}()
	sender.Commands <- &Command{Kind: CommandJoinRoom, Username: "sender", Room: "bench"}

	clients := make([]*Client, 0, recipients)
	for i := range recipients {
		c := NewClient(fmt.Sprintf("c%d", i), 4096)
		hub.RegisterClient(c)
		c.Commands <- &Command{Kind: CommandJoinRoom, Username: fmt.Sprintf("client-%d", i), Room: "bench"}
		clients = append(clients, c)
	}

	// Drain events for all but the first recipient to avoid channel backpressure.
	target := clients[0]
	for _, c := range clients[1:] {
		go func(cl *Client) {
			for range cl.Events {
			}
		}(c)
	}

	// Wait until every recipient has joined: the last roster the target sees lists all of them.
	for {
		ev := <-target.Events
		if ev.Kind == EventRoomUsers && len(ev.Users) == recipients+1 {
			break
		}
	}

	b.ReportAllocs()
	b.ResetTimer()

	for i := 0; i < b.N; i++ {
		sender.Commands <- &Command{Kind: CommandSendMessage, Text: "payload"}
		for {
			ev := <-target.Events
			if ev.Kind == EventMessage && ev.Message.Username == "sender" {
				break
			}
		}
	}
}

func BenchmarkRoomBroadcast_10(b *testing.B)  { benchmarkRoomBroadcast(b, 10) }
func BenchmarkRoomBroadcast_100(b *testing.B) { benchmarkRoomBroadcast(b, 100) }
func BenchmarkRoomBroadcast_500(b *testing.B) { benchmarkRoomBroadcast(b, 500) }
