package http

import (
	"context"
	"encoding/json"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
	"github.com/rs/zerolog"

	"github.com/vovakirdan/wirerelay/internal/config"
	"github.com/vovakirdan/wirerelay/internal/core"
)

func startTestServer(t *testing.T, mutate func(*config.Config)) (*httptest.Server, *core.Hub) {
	t.Helper()

	disabledLogger := zerolog.New(nil)
	hub := core.NewHub(&disabledLogger)
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	go hub.Run(ctx)

	cfg := config.Default()
	cfg.Addr = ":0"
	if mutate != nil {
		mutate(&cfg)
	}

	server := NewServer(hub, &cfg, &disabledLogger)
	ts := httptest.NewServer(server.Handler)
	t.Cleanup(ts.Close)

	return ts, hub
}

type testClient struct {
	t    *testing.T
	conn *websocket.Conn
	ctx  context.Context
}

func dial(t *testing.T, ts *httptest.Server) *testClient {
	t.Helper()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	t.Cleanup(cancel)

	wsURL := strings.Replace(ts.URL, "http", "ws", 1) + "/ws"
	conn, _, err := websocket.Dial(ctx, wsURL, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	t.Cleanup(func() { conn.CloseNow() })

	return &testClient{t: t, conn: conn, ctx: ctx}
}

func (c *testClient) send(v any) {
	c.t.Helper()
	if err := wsjson.Write(c.ctx, c.conn, v); err != nil {
		c.t.Fatalf("send: %v", err)
	}
}

func (c *testClient) sendRaw(frame string) {
	c.t.Helper()
	if err := c.conn.Write(c.ctx, websocket.MessageText, []byte(frame)); err != nil {
		c.t.Fatalf("send raw: %v", err)
	}
}

// frame is a decoded server frame; fields absent from a type stay zero.
type frame struct {
	Type     string          `json:"type"`
	ID       int64           `json:"id"`
	Room     string          `json:"room"`
	Peers    []int64         `json:"peers"`
	FromID   int64           `json:"fromId"`
	TargetID int64           `json:"targetId"`
	Payload  json.RawMessage `json:"payload"`
	Name     string          `json:"name"`
	Text     string          `json:"text"`
	Action   string          `json:"action"`
	Message  string          `json:"message"`
}

func (c *testClient) read() frame {
	c.t.Helper()
	var f frame
	if err := wsjson.Read(c.ctx, c.conn, &f); err != nil {
		c.t.Fatalf("read: %v", err)
	}
	return f
}

func (c *testClient) expect(typ string) frame {
	c.t.Helper()
	f := c.read()
	if f.Type != typ {
		c.t.Fatalf("expected %s frame, got %+v", typ, f)
	}
	return f
}

// expectSilence asserts that nothing arrives within a short window.
func (c *testClient) expectSilence() {
	c.t.Helper()
	ctx, cancel := context.WithTimeout(c.ctx, 150*time.Millisecond)
	defer cancel()
	var f frame
	err := wsjson.Read(ctx, c.conn, &f)
	if err == nil {
		c.t.Fatalf("unexpected frame: %+v", f)
	}
}

func (c *testClient) join(room string) frame {
	c.t.Helper()
	c.send(map[string]any{"type": "join", "room": room, "name": "tester"})
	return c.expect("joined")
}

func waitForRooms(t *testing.T, hub *core.Hub, want int) core.Stats {
	t.Helper()

	deadline := time.Now().Add(2 * time.Second)
	for {
		st, err := hub.Stats(context.Background())
		if err != nil {
			t.Fatalf("stats: %v", err)
		}
		if len(st.Rooms) == want {
			return st
		}
		if time.Now().After(deadline) {
			t.Fatalf("expected %d rooms, got %+v", want, st.Rooms)
		}
		time.Sleep(10 * time.Millisecond)
	}
}
