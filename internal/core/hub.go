package core

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/vovakirdan/wirerelay/internal/utils"
)

const inboxSize = 64

type opKind int

const (
	opRegister opKind = iota
	opUnregister
	opCommand
	opStats
)

type op struct {
	kind    opKind
	session *Session
	cmd     *Command
	reply   chan Stats
}

// Stats is a point-in-time view of the hub.
type Stats struct {
	Rooms    []RoomInfo
	Sessions int
}

// Hub owns the room registry and applies every client operation on a single
// goroutine, one at a time, so each command's state change and sends are atomic.
type Hub struct {
	registry *Registry
	sessions map[ClientID]*Session
	ids      utils.Sequence

	inbox chan op
	done  chan struct{}
	log   *zerolog.Logger
}

// NewHub creates a hub. A nil logger disables logging.
func NewHub(logger *zerolog.Logger) *Hub {
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}
	return &Hub{
		registry: NewRegistry(),
		sessions: make(map[ClientID]*Session),
		inbox:    make(chan op, inboxSize),
		done:     make(chan struct{}),
		log:      logger,
	}
}

// NewSession allocates the next ClientID and returns an unregistered session.
func (h *Hub) NewSession(traceID string, buffer int) *Session {
	return NewSession(ClientID(h.ids.Next()), traceID, buffer)
}

// Run processes operations until ctx is cancelled. On exit every remaining
// session queue is closed so connection writers can finish.
func (h *Hub) Run(ctx context.Context) {
	defer close(h.done)
	for {
		select {
		case o := <-h.inbox:
			h.apply(o)
		case <-ctx.Done():
			for id, s := range h.sessions {
				s.MarkClosing()
				close(s.Events)
				delete(h.sessions, id)
			}
			h.log.Info().Msg("hub stopped")
			return
		}
	}
}

// RegisterClient makes s known to the hub. Commands from unregistered sessions are ignored.
func (h *Hub) RegisterClient(s *Session) error {
	return h.send(op{kind: opRegister, session: s})
}

// UnregisterClient removes s from its room, notifies the remaining members and
// closes s.Events.
func (h *Hub) UnregisterClient(s *Session) error {
	return h.send(op{kind: opUnregister, session: s})
}

// Submit queues a command issued by s. Commands from one caller are applied in order.
func (h *Hub) Submit(s *Session, cmd *Command) error {
	return h.send(op{kind: opCommand, session: s, cmd: cmd})
}

// Stats returns a snapshot taken on the hub loop after all previously queued operations.
func (h *Hub) Stats(ctx context.Context) (Stats, error) {
	reply := make(chan Stats, 1)
	if h.stopped() {
		return Stats{}, ErrHubStopped
	}
	select {
	case h.inbox <- op{kind: opStats, reply: reply}:
	case <-h.done:
		return Stats{}, ErrHubStopped
	case <-ctx.Done():
		return Stats{}, ctx.Err()
	}
	select {
	case st := <-reply:
		return st, nil
	case <-h.done:
		return Stats{}, ErrHubStopped
	case <-ctx.Done():
		return Stats{}, ctx.Err()
	}
}

func (h *Hub) send(o op) error {
	if h.stopped() {
		return ErrHubStopped
	}
	select {
	case h.inbox <- o:
		return nil
	case <-h.done:
		return ErrHubStopped
	}
}

func (h *Hub) stopped() bool {
	select {
	case <-h.done:
		return true
	default:
		return false
	}
}

func (h *Hub) apply(o op) {
	switch o.kind {
	case opRegister:
		h.sessions[o.session.ID] = o.session
		h.log.Info().Int64("client_id", int64(o.session.ID)).Str("trace_id", o.session.TraceID).Msg("client connected")
	case opUnregister:
		h.disconnect(o.session)
	case opCommand:
		if _, ok := h.sessions[o.session.ID]; !ok {
			h.log.Debug().Int64("client_id", int64(o.session.ID)).Msg("command from unregistered client dropped")
			return
		}
		h.handleCommand(o.session, o.cmd)
	case opStats:
		o.reply <- Stats{Rooms: h.registry.Snapshot(), Sessions: len(h.sessions)}
	}
}

func (h *Hub) disconnect(s *Session) {
	if _, ok := h.sessions[s.ID]; !ok {
		return
	}
	s.MarkClosing()
	h.leaveRoom(s)
	delete(h.sessions, s.ID)
	close(s.Events)
	h.log.Info().Int64("client_id", int64(s.ID)).Str("trace_id", s.TraceID).Msg("client disconnected")
}

// leaveRoom removes s from its room, tells the remaining members and drops
// the room once it is empty.
func (h *Hub) leaveRoom(s *Session) {
	room, dropped := h.registry.Leave(s)
	if room == nil {
		return
	}
	broadcast(room, &Event{Kind: EventPeerLeft, Room: room.Name, ID: s.ID}, s.ID)
	h.log.Info().Int64("client_id", int64(s.ID)).Str("room", room.Name).Msg("client left room")
	if dropped {
		h.log.Info().Str("room", room.Name).Msg("room removed (empty)")
	}
}
