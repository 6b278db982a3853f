package main

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"

	"github.com/vovakirdan/miochat-server/internal/proto"
)

type outboundFrame struct {
	Type  string          `json:"type"`
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data"`
}

func main() {
	if err := run(); err != nil {
		log.Printf("ws_chat: %v", err)
		os.Exit(1)
	}
}

func run() error {
	addr := flag.String("addr", "ws://localhost:3000/ws", "WebSocket address")
	user := flag.String("user", "cli-user", "username")
	room := flag.String("room", "general", "room to join")
	flag.Parse()

	baseCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx, cancel := context.WithCancel(baseCtx)
	defer cancel()

	conn, _, err := websocket.Dial(ctx, *addr, nil)
	if err != nil {
		return fmt.Errorf("dial: %w", err)
	}
	defer conn.Close(websocket.StatusNormalClosure, "bye")

	if err := send(ctx, conn, proto.InboundTypeJoin, proto.JoinData{Username: *user, Room: *room}); err != nil {
		return err
	}

	fmt.Printf("Connected to %s as %s in room %s\n", *addr, *user, *room)
	fmt.Println("Type messages and press Enter to send. /react <id> <emoji> toggles a reaction. Ctrl+C to exit.")

	go func() {
		defer cancel()
		readLoop(ctx, conn)
	}()

	writeLoop(ctx, conn, *user, *room)

	stop()
	cancel()
	_ = conn.Close(websocket.StatusNormalClosure, "bye")
	return nil
}

func send(ctx context.Context, conn *websocket.Conn, typ string, data any) error {
	payload, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("marshal %s: %w", typ, err)
	}
	if err := wsjson.Write(ctx, conn, proto.Inbound{Type: typ, Data: payload}); err != nil {
		return fmt.Errorf("send %s: %w", typ, err)
	}
	return nil
}

func readLoop(ctx context.Context, conn *websocket.Conn) {
	for {
		var frame outboundFrame
		if err := wsjson.Read(ctx, conn, &frame); err != nil {
			// Treat expected shutdowns quietly.
			if errors.Is(err, context.Canceled) {
				return
			}
			switch websocket.CloseStatus(err) {
			case websocket.StatusNormalClosure, websocket.StatusGoingAway:
				return
			}
			log.Printf("read error: %v", err)
			return
		}

		switch frame.Event {
		case proto.EventNameMessage:
			var evt proto.EventMessage
			if err := json.Unmarshal(frame.Data, &evt); err != nil {
				log.Printf("unmarshal message: %v", err)
				continue
			}
			if evt.ReplyTo != nil {
				fmt.Printf("  > %s: %s\n", evt.ReplyTo.Username, evt.ReplyTo.Text)
			}
			fmt.Printf("%s %s: %s  (%s)\n", evt.Time, evt.Username, evt.Text, evt.ID)
		case proto.EventNameReaction:
			var evt proto.EventReaction
			if err := json.Unmarshal(frame.Data, &evt); err != nil {
				log.Printf("unmarshal reaction: %v", err)
				continue
			}
			parts := make([]string, 0, len(evt.Reactions))
			for emoji, r := range evt.Reactions {
				parts = append(parts, fmt.Sprintf("%s %d", emoji, r.Count))
			}
			fmt.Printf("[reactions %s] %s\n", evt.MessageID, strings.Join(parts, " "))
		case proto.EventNameUserTyping:
			var evt proto.EventTyping
			if err := json.Unmarshal(frame.Data, &evt); err == nil {
				fmt.Printf("... %s is typing\n", evt.Username)
			}
		case proto.EventNameUserStopTyping:
		case proto.EventNameRoomUsers:
			var evt proto.EventRoomUsers
			if err := json.Unmarshal(frame.Data, &evt); err != nil {
				log.Printf("unmarshal room-users: %v", err)
				continue
			}
			fmt.Printf("[room %s] online: %s\n", evt.Room, strings.Join(evt.Users, ", "))
		default:
			fmt.Printf("event=%s data=%s\n", frame.Event, frame.Data)
		}
	}
}

func writeLoop(ctx context.Context, conn *websocket.Conn, user, room string) {
	lines := make(chan string)
	go func() {
		defer close(lines)
		scanner := bufio.NewScanner(os.Stdin)
		for scanner.Scan() {
			lines <- scanner.Text()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return
		case line, ok := <-lines:
			if !ok {
				return
			}
			text := strings.TrimSpace(line)
			if text == "" {
				continue
			}

			var err error
			if fields := strings.Fields(text); len(fields) == 3 && fields[0] == "/react" {
				err = send(ctx, conn, proto.InboundTypeReaction, proto.ReactionData{
					MessageID: fields[1],
					Emoji:     fields[2],
					Room:      room,
					Username:  user,
				})
			} else {
				err = send(ctx, conn, proto.InboundTypeChat, proto.ChatData{Room: room, Username: user, Text: text})
			}
			if err != nil {
				log.Printf("send error: %v", err)
				return
			}
		}
	}
}
