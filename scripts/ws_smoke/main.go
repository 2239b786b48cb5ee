package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"

	"github.com/vovakirdan/wirerelay/internal/proto"
)

func main() {
	if err := run(); err != nil {
		log.Printf("ws_smoke: %v", err)
		os.Exit(1)
	}
}

// run joins a room, sends one chat line and waits for the relay to echo it back.
func run() error {
	addr := flag.String("addr", "ws://localhost:3000/ws", "WebSocket address")
	room := flag.String("room", "smoke", "room name")
	text := flag.String("text", "hello from smoke test", "chat text to send")
	timeout := flag.Duration("timeout", 5*time.Second, "total timeout for the run")
	flag.Parse()

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	conn, _, err := websocket.Dial(ctx, *addr, nil)
	if err != nil {
		return fmt.Errorf("dial: %w", err)
	}
	defer conn.Close(websocket.StatusNormalClosure, "bye")

	if err := wsjson.Write(ctx, conn, map[string]any{"type": proto.TypeJoin, "room": *room, "name": "smoke"}); err != nil {
		return fmt.Errorf("send join: %w", err)
	}
	var joined proto.Joined
	if err := wsjson.Read(ctx, conn, &joined); err != nil {
		return fmt.Errorf("read joined: %w", err)
	}
	if joined.Type != proto.TypeJoined {
		return fmt.Errorf("expected joined, got %q", joined.Type)
	}
	fmt.Printf("joined %s as #%d with %d peer(s)\n", joined.Room, joined.ID, len(joined.Peers))

	if err := wsjson.Write(ctx, conn, map[string]any{"type": proto.TypeChat, "name": "smoke", "text": *text}); err != nil {
		return fmt.Errorf("send chat: %w", err)
	}
	for {
		var chat proto.ChatMessage
		if err := wsjson.Read(ctx, conn, &chat); err != nil {
			return fmt.Errorf("read: %w", err)
		}
		if chat.Type == proto.TypeChat && chat.FromID == joined.ID {
			fmt.Printf("echo received: %q\n", chat.Text)
			return nil
		}
		fmt.Printf("skipping frame type=%s\n", chat.Type)
	}
}
