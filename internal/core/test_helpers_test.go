package core

import (
	"context"
	"testing"
	"time"
)

func startHub(t *testing.T) *Hub {
	t.Helper()

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	hub := NewHub(nil)
	go hub.Run(ctx)
	return hub
}

func connect(t *testing.T, hub *Hub) *Session {
	t.Helper()

	s := hub.NewSession("trace", 16)
	if err := hub.RegisterClient(s); err != nil {
		t.Fatalf("register: %v", err)
	}
	return s
}

func submit(t *testing.T, hub *Hub, s *Session, cmd *Command) {
	t.Helper()

	if err := hub.Submit(s, cmd); err != nil {
		t.Fatalf("submit: %v", err)
	}
}

// settle waits until every operation queued so far has been applied.
func settle(t *testing.T, hub *Hub) Stats {
	t.Helper()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	st, err := hub.Stats(ctx)
	if err != nil {
		t.Fatalf("stats: %v", err)
	}
	return st
}

func mustEvent(t *testing.T, ch <-chan *Event, kind EventKind) *Event {
	t.Helper()

	select {
	case ev := <-ch:
		if ev == nil {
			t.Fatalf("expected event kind %v, channel closed", kind)
		}
		if ev.Kind != kind {
			t.Fatalf("expected event kind %v, got %+v", kind, ev)
		}
		return ev
	case <-time.After(2 * time.Second):
		t.Fatalf("expected event kind %v not received", kind)
	}
	return nil
}

// expectNoEvent must be called after settle so all deliveries have happened.
func expectNoEvent(t *testing.T, s *Session) {
	t.Helper()

	select {
	case ev, ok := <-s.Events:
		if ok {
			t.Fatalf("client %d: unexpected event %+v", s.ID, ev)
		}
	default:
	}
}

func findRoom(st Stats, name string) (RoomInfo, bool) {
	for _, r := range st.Rooms {
		if r.Name == name {
			return r, true
		}
	}
	return RoomInfo{}, false
}

func join(room string) *Command {
	return &Command{Kind: CommandJoinRoom, Room: room}
}
