package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"

	"github.com/vovakirdan/wirerelay/internal/proto"
)

func main() {
	if err := run(); err != nil {
		log.Printf("ws_chat: %v", err)
		os.Exit(1)
	}
}

func run() error {
	addr := flag.String("addr", "ws://localhost:3000/ws", "WebSocket address")
	name := flag.String("name", "cli-user", "display name")
	room := flag.String("room", "lobby", "room to join")
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

	if err := wsjson.Write(ctx, conn, map[string]any{"type": proto.TypeJoin, "room": *room, "name": *name}); err != nil {
		return fmt.Errorf("send join: %w", err)
	}

	fmt.Printf("Connected to %s as %s, joining %s\n", *addr, *name, *room)
	fmt.Println("Type a message and press Enter. /control <id> <action> relays a command. Ctrl+C to exit.")

	go func() {
		defer cancel()
		readLoop(ctx, conn)
	}()

	writeLoop(ctx, conn, *name)
	return nil
}

func readLoop(ctx context.Context, conn *websocket.Conn) {
	for {
		var f struct {
			Type    string  `json:"type"`
			ID      int64   `json:"id"`
			Room    string  `json:"room"`
			Peers   []int64 `json:"peers"`
			FromID  int64   `json:"fromId"`
			Name    string  `json:"name"`
			Text    string  `json:"text"`
			Action  string  `json:"action"`
			Message string  `json:"message"`
		}
		if err := wsjson.Read(ctx, conn, &f); err != nil {
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

		switch f.Type {
		case proto.TypeJoined:
			fmt.Printf("joined %s as #%d, peers: %v\n", f.Room, f.ID, f.Peers)
		case proto.TypePeerJoined:
			fmt.Printf("#%d joined\n", f.ID)
		case proto.TypePeerLeft:
			fmt.Printf("#%d left\n", f.ID)
		case proto.TypeChat:
			fmt.Printf("%s (#%d): %s\n", f.Name, f.FromID, f.Text)
		case proto.TypeControl:
			fmt.Printf("control from #%d: %s\n", f.FromID, f.Action)
		case proto.TypeSignal:
			fmt.Printf("signal from #%d\n", f.FromID)
		case proto.TypeError:
			fmt.Printf("error: %s\n", f.Message)
		default:
			fmt.Printf("frame type=%s\n", f.Type)
		}
	}
}

func writeLoop(ctx context.Context, conn *websocket.Conn, name string) {
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
			msg, ok := parseLine(line, name)
			if !ok {
				continue
			}
			if err := wsjson.Write(ctx, conn, msg); err != nil {
				log.Printf("send error: %v", err)
				return
			}
		}
	}
}

func parseLine(line, name string) (map[string]any, bool) {
	text := strings.TrimSpace(line)
	if text == "" {
		return nil, false
	}
	if rest, ok := strings.CutPrefix(text, "/control "); ok {
		fields := strings.Fields(rest)
		if len(fields) != 2 {
			log.Printf("usage: /control <id> <action>")
			return nil, false
		}
		id, err := strconv.ParseInt(fields[0], 10, 64)
		if err != nil {
			log.Printf("bad id %q", fields[0])
			return nil, false
		}
		return map[string]any{"type": proto.TypeControl, "targetId": id, "action": fields[1]}, true
	}
	return map[string]any{"type": proto.TypeChat, "name": name, "text": text}, true
}
