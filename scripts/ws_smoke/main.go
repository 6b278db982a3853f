package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

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
		log.Printf("ws_smoke: %v", err)
		os.Exit(1)
	}
}

// run joins a room, mentions a bot and checks that the room sees the bot typing.
func run() error {
	addr := flag.String("addr", "ws://localhost:3000/ws", "WebSocket address")
	user := flag.String("user", "tester", "username to join with")
	room := flag.String("room", "general", "room name")
	text := flag.String("text", "@Comedian tell me a joke", "message text to send")
	waitReply := flag.Bool("wait-reply", false, "also wait for the bot's stop-typing and reply")
	timeout := flag.Duration("timeout", 15*time.Second, "total timeout for the run")
	flag.Parse()

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	conn, _, err := websocket.Dial(ctx, *addr, nil)
	if err != nil {
		return fmt.Errorf("dial: %w", err)
	}
	defer conn.Close(websocket.StatusNormalClosure, "bye")

	mustSend := func(typ string, data any) error {
		payload, err := json.Marshal(data)
		if err != nil {
			return fmt.Errorf("marshal %s: %w", typ, err)
		}
		if err := wsjson.Write(ctx, conn, proto.Inbound{Type: typ, Data: payload}); err != nil {
			return fmt.Errorf("send: %w", err)
		}
		return nil
	}

	if err := mustSend(proto.InboundTypeJoin, proto.JoinData{Username: *user, Room: *room}); err != nil {
		return err
	}
	if err := mustSend(proto.InboundTypeChat, proto.ChatData{Room: *room, Username: *user, Text: *text}); err != nil {
		return err
	}

	var botName string
	for {
		var frame outboundFrame
		if err := wsjson.Read(ctx, conn, &frame); err != nil {
			if botName == "" {
				return fmt.Errorf("no bot typing event received: %w", err)
			}
			return fmt.Errorf("read: %w", err)
		}
		fmt.Printf("Received outbound: type=%s event=%s\n", frame.Type, frame.Event)

		switch frame.Event {
		case proto.EventNameUserTyping:
			var evt proto.EventTyping
			if err := json.Unmarshal(frame.Data, &evt); err != nil {
				return fmt.Errorf("unmarshal typing: %w", err)
			}
			if !strings.Contains(evt.Username, "Bot") {
				continue
			}
			botName = evt.Username
			fmt.Printf("PASS: %s is typing\n", botName)
			if !*waitReply {
				return nil
			}
		case proto.EventNameUserStopTyping:
			var evt proto.EventTyping
			if err := json.Unmarshal(frame.Data, &evt); err == nil && evt.Username == botName {
				fmt.Printf("%s stopped typing\n", botName)
			}
		case proto.EventNameMessage:
			var evt proto.EventMessage
			if err := json.Unmarshal(frame.Data, &evt); err != nil {
				return fmt.Errorf("unmarshal message: %w", err)
			}
			fmt.Printf("EventMessage: user=%s time=%s text=%q\n", evt.Username, evt.Time, evt.Text)
			if botName != "" && evt.Username == botName {
				fmt.Println("PASS: bot replied")
				return nil
			}
		default:
			// keep looping for the bot
		}
	}
}
