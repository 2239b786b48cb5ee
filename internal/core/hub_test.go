package core

import (
	"context"
	"encoding/json"
	"errors"
	"slices"
	"strings"
	"testing"
	"time"
)

func TestHubJoinSignalAndDisconnectLifecycle(t *testing.T) {
	hub := startHub(t)
	x := connect(t, hub)
	y := connect(t, hub)

	submit(t, hub, x, join("lobby"))
	joined := mustEvent(t, x.Events, EventJoined)
	if joined.ID != x.ID || joined.Room != "lobby" || len(joined.Peers) != 0 {
		t.Fatalf("unexpected joined for x: %+v", joined)
	}

	submit(t, hub, y, join("lobby"))
	joined = mustEvent(t, y.Events, EventJoined)
	if !slices.Equal(joined.Peers, []ClientID{x.ID}) {
		t.Fatalf("expected y peers [%d], got %v", x.ID, joined.Peers)
	}
	if ev := mustEvent(t, x.Events, EventPeerJoined); ev.ID != y.ID {
		t.Fatalf("expected peer-joined for %d, got %+v", y.ID, ev)
	}
	settle(t, hub)
	expectNoEvent(t, y)

	if err := hub.UnregisterClient(y); err != nil {
		t.Fatalf("unregister y: %v", err)
	}
	if ev := mustEvent(t, x.Events, EventPeerLeft); ev.ID != y.ID {
		t.Fatalf("expected peer-left for %d, got %+v", y.ID, ev)
	}
	st := settle(t, hub)
	if r, ok := findRoom(st, "lobby"); !ok || !slices.Equal(r.Members, []ClientID{x.ID}) {
		t.Fatalf("unexpected lobby after y left: %+v", st)
	}
	if _, open := <-y.Events; open {
		t.Fatal("expected y events channel to be closed")
	}

	if err := hub.UnregisterClient(x); err != nil {
		t.Fatalf("unregister x: %v", err)
	}
	st = settle(t, hub)
	if _, ok := findRoom(st, "lobby"); ok {
		t.Fatalf("lobby should be gone: %+v", st)
	}
	if st.Sessions != 0 {
		t.Fatalf("expected no sessions, got %d", st.Sessions)
	}
}

func TestHubJoinSnapshotExcludesSelf(t *testing.T) {
	hub := startHub(t)
	clients := make([]*Session, 4)
	for i := range clients {
		clients[i] = connect(t, hub)
	}

	for i, c := range clients {
		submit(t, hub, c, join("r"))
		ev := mustEvent(t, c.Events, EventJoined)
		want := make([]ClientID, 0, i)
		for _, prev := range clients[:i] {
			want = append(want, prev.ID)
		}
		if !slices.Equal(ev.Peers, want) {
			t.Fatalf("client %d: expected peers %v, got %v", i, want, ev.Peers)
		}
		for _, prev := range clients[:i] {
			if pj := mustEvent(t, prev.Events, EventPeerJoined); pj.ID != c.ID {
				t.Fatalf("expected peer-joined %d, got %+v", c.ID, pj)
			}
		}
	}

	settle(t, hub)
	for _, c := range clients {
		expectNoEvent(t, c)
	}
}

func TestHubJoinDoesNotLeakAcrossRooms(t *testing.T) {
	hub := startHub(t)
	a := connect(t, hub)
	b := connect(t, hub)

	submit(t, hub, a, join("red"))
	mustEvent(t, a.Events, EventJoined)
	submit(t, hub, b, join("blue"))
	mustEvent(t, b.Events, EventJoined)

	settle(t, hub)
	expectNoEvent(t, a)
	expectNoEvent(t, b)
}

func TestHubJoinTrimsRoomAndRejectsEmpty(t *testing.T) {
	hub := startHub(t)
	a := connect(t, hub)

	submit(t, hub, a, join("   "))
	ev := mustEvent(t, a.Events, EventError)
	if ev.Error == nil || ev.Error.Message != "Room name required" || ev.Error.Code != ErrCodeRoomRequired {
		t.Fatalf("unexpected error event: %+v", ev)
	}
	if st := settle(t, hub); len(st.Rooms) != 0 {
		t.Fatalf("no room expected, got %+v", st.Rooms)
	}

	submit(t, hub, a, join("  lobby \t"))
	if ev := mustEvent(t, a.Events, EventJoined); ev.Room != "lobby" {
		t.Fatalf("expected trimmed room name, got %q", ev.Room)
	}

	// an invalid join keeps the current membership
	submit(t, hub, a, join(""))
	mustEvent(t, a.Events, EventError)
	if _, ok := findRoom(settle(t, hub), "lobby"); !ok {
		t.Fatal("lobby should survive a rejected join")
	}
}

func TestHubRepeatedJoinSuppressesPeerJoined(t *testing.T) {
	hub := startHub(t)
	a := connect(t, hub)
	b := connect(t, hub)

	submit(t, hub, a, join("lobby"))
	mustEvent(t, a.Events, EventJoined)
	submit(t, hub, b, join("lobby"))
	mustEvent(t, b.Events, EventJoined)
	mustEvent(t, a.Events, EventPeerJoined)

	submit(t, hub, b, join("lobby"))
	if ev := mustEvent(t, b.Events, EventJoined); !slices.Equal(ev.Peers, []ClientID{a.ID}) {
		t.Fatalf("unexpected peers on rejoin: %v", ev.Peers)
	}
	settle(t, hub)
	expectNoEvent(t, a)
}

func TestHubJoinOtherRoomLeavesPrevious(t *testing.T) {
	hub := startHub(t)
	a := connect(t, hub)
	b := connect(t, hub)

	submit(t, hub, a, join("one"))
	mustEvent(t, a.Events, EventJoined)
	submit(t, hub, b, join("one"))
	mustEvent(t, b.Events, EventJoined)
	mustEvent(t, a.Events, EventPeerJoined)

	submit(t, hub, b, join("two"))
	if ev := mustEvent(t, a.Events, EventPeerLeft); ev.ID != b.ID {
		t.Fatalf("expected peer-left for %d, got %+v", b.ID, ev)
	}
	if ev := mustEvent(t, b.Events, EventJoined); ev.Room != "two" || len(ev.Peers) != 0 {
		t.Fatalf("unexpected joined: %+v", ev)
	}

	submit(t, hub, a, join("two"))
	mustEvent(t, a.Events, EventJoined)
	mustEvent(t, b.Events, EventPeerJoined)

	st := settle(t, hub)
	if _, ok := findRoom(st, "one"); ok {
		t.Fatalf("room one should be collected: %+v", st.Rooms)
	}
	if r, ok := findRoom(st, "two"); !ok || r.Members[0] != b.ID || len(r.Members) != 2 {
		t.Fatalf("unexpected room two: %+v", st.Rooms)
	}
}

func TestHubSignalDeliversOnlyWithinRoom(t *testing.T) {
	hub := startHub(t)
	a := connect(t, hub)
	b := connect(t, hub)
	foreign := connect(t, hub)

	submit(t, hub, a, join("lobby"))
	submit(t, hub, b, join("lobby"))
	submit(t, hub, foreign, join("elsewhere"))
	mustEvent(t, a.Events, EventJoined)
	mustEvent(t, a.Events, EventPeerJoined)
	mustEvent(t, b.Events, EventJoined)
	mustEvent(t, foreign.Events, EventJoined)

	payload := json.RawMessage(`{"sdp":"offer"}`)
	submit(t, hub, a, &Command{Kind: CommandSignal, TargetID: b.ID, Payload: payload})
	ev := mustEvent(t, b.Events, EventSignal)
	if ev.From != a.ID || string(ev.Payload) != string(payload) {
		t.Fatalf("unexpected signal: %+v", ev)
	}

	submit(t, hub, a, &Command{Kind: CommandSignal, TargetID: foreign.ID, Payload: payload})
	submit(t, hub, a, &Command{Kind: CommandControl, TargetID: foreign.ID, Action: "mute-audio"})
	submit(t, hub, a, &Command{Kind: CommandSignal, TargetID: 9999, Payload: payload})
	settle(t, hub)
	for _, s := range []*Session{a, b, foreign} {
		expectNoEvent(t, s)
	}
}

func TestHubControlRelaysAction(t *testing.T) {
	hub := startHub(t)
	host := connect(t, hub)
	guest := connect(t, hub)

	submit(t, hub, host, join("stage"))
	submit(t, hub, guest, join("stage"))
	mustEvent(t, host.Events, EventJoined)
	mustEvent(t, host.Events, EventPeerJoined)
	mustEvent(t, guest.Events, EventJoined)

	submit(t, hub, guest, &Command{Kind: CommandControl, TargetID: host.ID, Action: "anything-goes"})
	ev := mustEvent(t, host.Events, EventControl)
	if ev.From != guest.ID || ev.Target != host.ID || ev.Action != "anything-goes" {
		t.Fatalf("unexpected control: %+v", ev)
	}
	settle(t, hub)
	expectNoEvent(t, guest)
}

func TestHubSignalAndControlBeforeJoinAreIgnored(t *testing.T) {
	hub := startHub(t)
	a := connect(t, hub)
	b := connect(t, hub)
	submit(t, hub, b, join("lobby"))
	mustEvent(t, b.Events, EventJoined)

	submit(t, hub, a, &Command{Kind: CommandSignal, TargetID: b.ID, Payload: json.RawMessage(`1`)})
	submit(t, hub, a, &Command{Kind: CommandControl, TargetID: b.ID, Action: "mute-video"})
	submit(t, hub, a, &Command{Kind: CommandChat, Text: "hello?"})

	settle(t, hub)
	expectNoEvent(t, a)
	expectNoEvent(t, b)
}

func TestHubChatIncludesSenderAndNormalizes(t *testing.T) {
	hub := startHub(t)
	a := connect(t, hub)
	b := connect(t, hub)
	submit(t, hub, a, join("lobby"))
	submit(t, hub, b, join("lobby"))
	mustEvent(t, a.Events, EventJoined)
	mustEvent(t, a.Events, EventPeerJoined)
	mustEvent(t, b.Events, EventJoined)

	long := strings.Repeat("x", 600)
	submit(t, hub, a, &Command{Kind: CommandChat, Text: long, Name: strings.Repeat("n", 50)})
	for _, s := range []*Session{a, b} {
		ev := mustEvent(t, s.Events, EventChat)
		if ev.From != a.ID || len(ev.Text) != 500 || len(ev.Name) != 40 {
			t.Fatalf("unexpected chat: from=%d text=%d name=%d", ev.From, len(ev.Text), len(ev.Name))
		}
	}

	submit(t, hub, b, &Command{Kind: CommandChat, Text: "  hi  "})
	for _, s := range []*Session{a, b} {
		ev := mustEvent(t, s.Events, EventChat)
		if ev.Name != "Guest" || ev.Text != "  hi  " {
			t.Fatalf("unexpected chat: %+v", ev)
		}
	}

	submit(t, hub, a, &Command{Kind: CommandChat, Text: " \t\n "})
	submit(t, hub, a, &Command{Kind: CommandChat, Text: ""})
	settle(t, hub)
	expectNoEvent(t, a)
	expectNoEvent(t, b)
}

func TestHubChatWhitespaceAfterTruncationIsDropped(t *testing.T) {
	hub := startHub(t)
	a := connect(t, hub)
	submit(t, hub, a, join("lobby"))
	mustEvent(t, a.Events, EventJoined)

	submit(t, hub, a, &Command{Kind: CommandChat, Text: strings.Repeat(" ", 500) + "tail"})
	settle(t, hub)
	expectNoEvent(t, a)
}

func TestHubDisconnectWithoutRoomIsNoop(t *testing.T) {
	hub := startHub(t)
	a := connect(t, hub)
	b := connect(t, hub)
	submit(t, hub, b, join("lobby"))
	mustEvent(t, b.Events, EventJoined)

	if err := hub.UnregisterClient(a); err != nil {
		t.Fatalf("unregister: %v", err)
	}
	// a second unregister must not panic on the closed channel
	if err := hub.UnregisterClient(a); err != nil {
		t.Fatalf("unregister again: %v", err)
	}
	st := settle(t, hub)
	expectNoEvent(t, b)
	if st.Sessions != 1 {
		t.Fatalf("expected 1 session, got %d", st.Sessions)
	}
}

func TestHubCommandAfterUnregisterIsDropped(t *testing.T) {
	hub := startHub(t)
	a := connect(t, hub)
	if err := hub.UnregisterClient(a); err != nil {
		t.Fatalf("unregister: %v", err)
	}
	submit(t, hub, a, join("lobby"))
	if st := settle(t, hub); len(st.Rooms) != 0 {
		t.Fatalf("unregistered client created a room: %+v", st.Rooms)
	}
}

func TestHubSkipsClosingAndFullRecipients(t *testing.T) {
	hub := startHub(t)
	a := connect(t, hub)
	slow := hub.NewSession("slow", 1)
	if err := hub.RegisterClient(slow); err != nil {
		t.Fatalf("register: %v", err)
	}
	closing := connect(t, hub)

	submit(t, hub, slow, join("lobby"))
	submit(t, hub, closing, join("lobby"))
	submit(t, hub, a, join("lobby"))
	settle(t, hub)
	// slow's single slot now holds its joined event; peer-joined events were dropped
	mustEvent(t, slow.Events, EventJoined)
	expectNoEvent(t, slow)
	mustEvent(t, closing.Events, EventJoined)
	mustEvent(t, closing.Events, EventPeerJoined)
	mustEvent(t, a.Events, EventJoined)

	closing.MarkClosing()
	submit(t, hub, a, &Command{Kind: CommandSignal, TargetID: closing.ID})
	submit(t, hub, a, &Command{Kind: CommandChat, Text: "one"})
	submit(t, hub, a, &Command{Kind: CommandChat, Text: "two"})
	settle(t, hub)

	expectNoEvent(t, closing)
	if ev := mustEvent(t, slow.Events, EventChat); ev.Text != "one" {
		t.Fatalf("expected first chat, got %+v", ev)
	}
	expectNoEvent(t, slow)
	mustEvent(t, a.Events, EventChat)
	mustEvent(t, a.Events, EventChat)
}

func TestHubStopClosesSessions(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	hub := NewHub(nil)
	stopped := make(chan struct{})
	go func() {
		hub.Run(ctx)
		close(stopped)
	}()

	a := hub.NewSession("a", 4)
	if err := hub.RegisterClient(a); err != nil {
		t.Fatalf("register: %v", err)
	}
	settle(t, hub)
	cancel()

	select {
	case <-stopped:
	case <-time.After(2 * time.Second):
		t.Fatal("hub did not stop")
	}
	if _, open := <-a.Events; open {
		t.Fatal("expected events channel closed on shutdown")
	}
	if err := hub.Submit(a, join("late")); !errors.Is(err, ErrHubStopped) {
		t.Fatalf("expected ErrHubStopped, got %v", err)
	}
	if _, err := hub.Stats(context.Background()); !errors.Is(err, ErrHubStopped) {
		t.Fatalf("expected ErrHubStopped from Stats, got %v", err)
	}
}

func TestHubClientIDsIncrease(t *testing.T) {
	hub := NewHub(nil)
	prev := hub.NewSession("", 1).ID
	for range 10 {
		next := hub.NewSession("", 1).ID
		if next <= prev {
			t.Fatalf("ids not increasing: %d after %d", next, prev)
		}
		prev = next
	}
}
