package http

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"reflect"
	"strings"
	"testing"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"

	"github.com/vovakirdan/miochat-server/internal/bot"
	"github.com/vovakirdan/miochat-server/internal/completion"
	"github.com/vovakirdan/miochat-server/internal/config"
	"github.com/vovakirdan/miochat-server/internal/core"
	"github.com/vovakirdan/miochat-server/internal/metrics"
	"github.com/vovakirdan/miochat-server/internal/proto"
)

type wireEvent struct {
	Type  string          `json:"type"`
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data"`
}

func startTestServer(t *testing.T, completer completion.Completer) *httptest.Server {
	t.Helper()

	logger := zerolog.Nop()
	reg := prometheus.NewRegistry()
	m := metrics.New(reg)

	hub := core.NewHub(core.Options{
		Bots:    bot.NewDispatcher(completer, nil, &logger, m),
		Logger:  &logger,
		Metrics: m,
	})
	ctx, cancel := context.WithCancel(context.Background())
	go hub.Run(ctx)
	t.Cleanup(cancel)

	cfg := config.Default()
	cfg.ReadHeaderTimeout = time.Second
	server := NewServer(hub, &cfg, &logger, reg)

	ts := httptest.NewServer(server.Handler)
	t.Cleanup(ts.Close)

	return ts
}

func dial(ctx context.Context, t *testing.T, ts *httptest.Server) *websocket.Conn {
	t.Helper()

	wsURL := strings.Replace(ts.URL, "http", "ws", 1) + "/ws"
	conn, _, err := websocket.Dial(ctx, wsURL, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	t.Cleanup(func() { conn.Close(websocket.StatusNormalClosure, "done") })
	return conn
}

func send(ctx context.Context, t *testing.T, conn *websocket.Conn, typ string, data any) {
	t.Helper()

	payload, err := json.Marshal(data)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if err := wsjson.Write(ctx, conn, proto.Inbound{Type: typ, Data: payload}); err != nil {
		t.Fatalf("write %s: %v", typ, err)
	}
}

// readUntil reads frames until one carries the named event and decodes its data into v.
func readUntil(ctx context.Context, t *testing.T, conn *websocket.Conn, event string, v any) {
	t.Helper()

	for {
		var ev wireEvent
		if err := wsjson.Read(ctx, conn, &ev); err != nil {
			t.Fatalf("read waiting for %s: %v", event, err)
		}
		if ev.Type != proto.OutboundTypeEvent {
			t.Fatalf("unexpected outbound type: %s", ev.Type)
		}
		if ev.Event != event {
			continue
		}
		if v != nil {
			if err := json.Unmarshal(ev.Data, v); err != nil {
				t.Fatalf("unmarshal %s data: %v", event, err)
			}
		}
		return
	}
}

func joinRoom(ctx context.Context, t *testing.T, conn *websocket.Conn, username, room string) proto.EventRoomUsers {
	t.Helper()

	send(ctx, t, conn, proto.InboundTypeJoin, proto.JoinData{Username: username, Room: room})
	var roster proto.EventRoomUsers
	readUntil(ctx, t, conn, proto.EventNameRoomUsers, &roster)
	return roster
}

func TestHealthEndpoint(t *testing.T) {
	ts := startTestServer(t, nil)

	resp, err := ts.Client().Get(ts.URL + "/health")
	if err != nil {
		t.Fatalf("health request failed: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != 200 {
		t.Fatalf("unexpected status: %d", resp.StatusCode)
	}
}

func TestWebSocketJoinAndMessage(t *testing.T) {
	ts := startTestServer(t, nil)

	ctx, closeCtx := context.WithTimeout(context.Background(), 5*time.Second)
	defer closeCtx()

	connA := dial(ctx, t, ts)
	connB := dial(ctx, t, ts)

	send(ctx, t, connA, proto.InboundTypeJoin, proto.JoinData{Username: "Alice", Room: "lobby"})
	var welcome proto.EventMessage
	readUntil(ctx, t, connA, proto.EventNameMessage, &welcome)
	if welcome.Username != config.DefaultSystemName || welcome.Text != "Welcome to lobby, Alice." {
		t.Fatalf("unexpected welcome: %+v", welcome)
	}
	readUntil(ctx, t, connA, proto.EventNameRoomUsers, nil)

	roster := joinRoom(ctx, t, connB, "Bob", "lobby")
	if !reflect.DeepEqual(roster.Users, []string{"Alice", "Bob"}) {
		t.Fatalf("unexpected roster: %+v", roster)
	}

	var notice proto.EventMessage
	readUntil(ctx, t, connA, proto.EventNameMessage, &notice)
	if notice.Text != "Bob has joined the chat." {
		t.Fatalf("unexpected join notice: %+v", notice)
	}
	readUntil(ctx, t, connA, proto.EventNameRoomUsers, nil)

	send(ctx, t, connA, proto.InboundTypeChat, proto.ChatData{Room: "lobby", Username: "Alice", Text: "hi there"})

	var raw wireEvent
	if err := wsjson.Read(ctx, connB, &raw); err != nil {
		t.Fatalf("read outbound: %v", err)
	}
	if raw.Event != proto.EventNameMessage {
		t.Fatalf("unexpected event: %s", raw.Event)
	}
	if !strings.Contains(string(raw.Data), `"reactions":{}`) {
		t.Fatalf("fresh message must carry empty reactions object: %s", raw.Data)
	}

	var msg proto.EventMessage
	if err := json.Unmarshal(raw.Data, &msg); err != nil {
		t.Fatalf("unmarshal event data: %v", err)
	}
	if msg.Username != "Alice" || msg.Text != "hi there" || msg.ID == "" || len(msg.Time) != 5 {
		t.Fatalf("unexpected event payload: %+v", msg)
	}
	if _, err := time.Parse(time.RFC3339, msg.TS); err != nil {
		t.Fatalf("ts is not RFC3339: %q", msg.TS)
	}
}

func TestWebSocketLegacyMsgField(t *testing.T) {
	ts := startTestServer(t, nil)

	ctx, closeCtx := context.WithTimeout(context.Background(), 5*time.Second)
	defer closeCtx()

	conn := dial(ctx, t, ts)
	joinRoom(ctx, t, conn, "Alice", "lobby")

	send(ctx, t, conn, proto.InboundTypeChat, map[string]string{"msg": "old client"})
	var msg proto.EventMessage
	readUntil(ctx, t, conn, proto.EventNameMessage, &msg)
	if msg.Text != "old client" || msg.Username != "Alice" {
		t.Fatalf("unexpected message: %+v", msg)
	}
}

func TestWebSocketReactionToggle(t *testing.T) {
	ts := startTestServer(t, nil)

	ctx, closeCtx := context.WithTimeout(context.Background(), 5*time.Second)
	defer closeCtx()

	connA := dial(ctx, t, ts)
	connB := dial(ctx, t, ts)
	joinRoom(ctx, t, connA, "Alice", "lobby")
	joinRoom(ctx, t, connB, "Bob", "lobby")

	send(ctx, t, connA, proto.InboundTypeChat, proto.ChatData{Text: "react please"})
	var msg proto.EventMessage
	readUntil(ctx, t, connB, proto.EventNameMessage, &msg)

	react := proto.ReactionData{MessageID: msg.ID, Emoji: "👍", Room: "lobby", Username: "Bob"}
	send(ctx, t, connB, proto.InboundTypeReaction, react)

	var got proto.EventReaction
	readUntil(ctx, t, connA, proto.EventNameReaction, &got)
	want := map[string]proto.Reaction{"👍": {Count: 1, Users: []string{"Bob"}}}
	if got.MessageID != msg.ID || !reflect.DeepEqual(got.Reactions, want) {
		t.Fatalf("unexpected reaction: %+v", got)
	}

	send(ctx, t, connB, proto.InboundTypeReaction, react)
	readUntil(ctx, t, connA, proto.EventNameReaction, &got)
	if len(got.Reactions) != 0 {
		t.Fatalf("expected empty aggregate, got %+v", got.Reactions)
	}
}

func TestWebSocketMalformedFrameKeepsConnection(t *testing.T) {
	ts := startTestServer(t, nil)

	ctx, closeCtx := context.WithTimeout(context.Background(), 5*time.Second)
	defer closeCtx()

	conn := dial(ctx, t, ts)
	joinRoom(ctx, t, conn, "Alice", "lobby")

	if err := conn.Write(ctx, websocket.MessageText, []byte("{not json")); err != nil {
		t.Fatalf("write garbage: %v", err)
	}
	send(ctx, t, conn, "shout", map[string]string{"text": "unknown"})
	send(ctx, t, conn, proto.InboundTypeChat, proto.ChatData{Text: "still here"})

	var msg proto.EventMessage
	readUntil(ctx, t, conn, proto.EventNameMessage, &msg)
	if msg.Text != "still here" {
		t.Fatalf("unexpected message: %+v", msg)
	}
}

func TestWebSocketTypingAndDisconnect(t *testing.T) {
	ts := startTestServer(t, nil)

	ctx, closeCtx := context.WithTimeout(context.Background(), 5*time.Second)
	defer closeCtx()

	connA := dial(ctx, t, ts)
	connB := dial(ctx, t, ts)
	joinRoom(ctx, t, connA, "Alice", "lobby")
	joinRoom(ctx, t, connB, "Bob", "lobby")

	send(ctx, t, connB, proto.InboundTypeTyping, proto.TypingData{Room: "lobby", Username: "Bob"})
	var typing proto.EventTyping
	readUntil(ctx, t, connA, proto.EventNameUserTyping, &typing)
	if typing.Username != "Bob" {
		t.Fatalf("unexpected typing: %+v", typing)
	}

	connB.Close(websocket.StatusNormalClosure, "bye")

	var notice proto.EventMessage
	readUntil(ctx, t, connA, proto.EventNameMessage, &notice)
	for notice.Text != "Bob has left the chat." {
		readUntil(ctx, t, connA, proto.EventNameMessage, &notice)
	}
	var roster proto.EventRoomUsers
	readUntil(ctx, t, connA, proto.EventNameRoomUsers, &roster)
	if !reflect.DeepEqual(roster.Users, []string{"Alice"}) {
		t.Fatalf("unexpected roster after disconnect: %+v", roster)
	}
}

func TestWebSocketBotTyping(t *testing.T) {
	completer := completion.Func(func(_ context.Context, prompt string) (string, error) {
		return "Keep going!", nil
	})
	ts := startTestServer(t, completer)

	ctx, closeCtx := context.WithTimeout(context.Background(), 5*time.Second)
	defer closeCtx()

	conn := dial(ctx, t, ts)
	joinRoom(ctx, t, conn, "Alice", "lobby")

	send(ctx, t, conn, proto.InboundTypeChat, proto.ChatData{Text: "@Motivator I need a push"})

	var typing proto.EventTyping
	readUntil(ctx, t, conn, proto.EventNameUserTyping, &typing)
	if !strings.Contains(typing.Username, "Bot") {
		t.Fatalf("expected bot typing, got %+v", typing)
	}
	readUntil(ctx, t, conn, proto.EventNameUserStopTyping, nil)

	var reply proto.EventMessage
	readUntil(ctx, t, conn, proto.EventNameMessage, &reply)
	if reply.Username != "Motivator-Bot" || reply.Text != "Keep going!" {
		t.Fatalf("unexpected bot reply: %+v", reply)
	}
}

func TestRoomViews(t *testing.T) {
	ts := startTestServer(t, nil)

	ctx, closeCtx := context.WithTimeout(context.Background(), 5*time.Second)
	defer closeCtx()

	conn := dial(ctx, t, ts)
	joinRoom(ctx, t, conn, "Alice", "lobby")
	send(ctx, t, conn, proto.InboundTypeChat, proto.ChatData{Text: "for the record"})
	readUntil(ctx, t, conn, proto.EventNameMessage, nil)

	var roster proto.EventRoomUsers
	getJSON(t, ts.URL+"/api/rooms/lobby/users", &roster)
	if !reflect.DeepEqual(roster.Users, []string{"Alice"}) {
		t.Fatalf("unexpected roster: %+v", roster)
	}

	var empty proto.EventRoomUsers
	getJSON(t, ts.URL+"/api/rooms/nowhere/users", &empty)
	if empty.Users == nil || len(empty.Users) != 0 {
		t.Fatalf("expected empty roster, got %+v", empty)
	}

	var hist HistoryResponse
	getJSON(t, ts.URL+"/api/rooms/lobby/history", &hist)
	if len(hist.Messages) != 1 || hist.Messages[0].Text != "for the record" {
		t.Fatalf("unexpected history: %+v", hist)
	}

	var rooms []RoomSummary
	getJSON(t, ts.URL+"/api/rooms", &rooms)
	if want := []RoomSummary{{Name: "lobby", Users: 1, Messages: 1}}; !reflect.DeepEqual(rooms, want) {
		t.Fatalf("unexpected rooms: %+v", rooms)
	}
}

func TestMetricsEndpoint(t *testing.T) {
	ts := startTestServer(t, nil)

	ctx, closeCtx := context.WithTimeout(context.Background(), 5*time.Second)
	defer closeCtx()

	conn := dial(ctx, t, ts)
	joinRoom(ctx, t, conn, "Alice", "lobby")

	resp, err := ts.Client().Get(ts.URL + "/metrics")
	if err != nil {
		t.Fatalf("metrics request failed: %v", err)
	}
	defer resp.Body.Close()
	body, _ := io.ReadAll(resp.Body)
	if !strings.Contains(string(body), "miochat_connections") {
		t.Fatalf("connections gauge missing from metrics output")
	}
}

func getJSON(t *testing.T, url string, v any) {
	t.Helper()

	resp, err := http.Get(url)
	if err != nil {
		t.Fatalf("GET %s: %v", url, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("GET %s: status %d", url, resp.StatusCode)
	}
	if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
		t.Fatalf("decode %s: %v", url, err)
	}
}
