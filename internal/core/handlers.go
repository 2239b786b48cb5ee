package core

import (
	"strings"
	"unicode/utf8"
)

const (
	maxChatText = 500
	maxChatName = 40
	defaultName = "Guest"

	msgRoomRequired = "Room name required"
)

func (h *Hub) handleCommand(s *Session, cmd *Command) {
	switch cmd.Kind {
	case CommandJoinRoom:
		h.handleJoin(s, cmd)
	case CommandSignal:
		h.handleSignal(s, cmd)
	case CommandChat:
		h.handleChat(s, cmd)
	case CommandControl:
		h.handleControl(s, cmd)
	default:
		h.log.Debug().Int64("client_id", int64(s.ID)).Int("kind", int(cmd.Kind)).Msg("unknown command ignored")
	}
}

func (h *Hub) handleJoin(s *Session, cmd *Command) {
	name := strings.TrimSpace(cmd.Room)
	if name == "" {
		deliver(s, &Event{Kind: EventError, Error: coreError(ErrCodeRoomRequired, msgRoomRequired)})
		return
	}

	// A session belongs to one room at a time: switching rooms leaves the old one first.
	if s.room != "" && s.room != name {
		h.leaveRoom(s)
	}

	room, peers, added := h.registry.Join(s, name)
	deliver(s, &Event{Kind: EventJoined, Room: name, ID: s.ID, Peers: peers})
	if !added {
		h.log.Debug().Int64("client_id", int64(s.ID)).Str("room", name).Msg("repeated join, peer-joined suppressed")
		return
	}
	broadcast(room, &Event{Kind: EventPeerJoined, Room: name, ID: s.ID}, s.ID)
	h.log.Info().Int64("client_id", int64(s.ID)).Str("room", name).Str("name", cmd.Name).Int("members", room.Len()).Msg("client joined room")
}

func (h *Hub) handleSignal(s *Session, cmd *Command) {
	room, ok := h.registry.CurrentRoom(s)
	if !ok {
		return
	}
	ev := &Event{Kind: EventSignal, Room: room.Name, From: s.ID, Target: cmd.TargetID, Payload: cmd.Payload}
	if !sendTo(room, cmd.TargetID, ev) {
		h.log.Debug().Int64("client_id", int64(s.ID)).Int64("target_id", int64(cmd.TargetID)).Msg("signal target unreachable")
	}
}

func (h *Hub) handleChat(s *Session, cmd *Command) {
	room, ok := h.registry.CurrentRoom(s)
	if !ok {
		return
	}
	text := truncate(cmd.Text, maxChatText)
	if strings.TrimSpace(text) == "" {
		return
	}
	name := cmd.Name
	if name == "" {
		name = defaultName
	}
	name = truncate(name, maxChatName)

	broadcast(room, &Event{Kind: EventChat, Room: room.Name, From: s.ID, Name: name, Text: text}, 0)
}

func (h *Hub) handleControl(s *Session, cmd *Command) {
	room, ok := h.registry.CurrentRoom(s)
	if !ok {
		return
	}
	ev := &Event{Kind: EventControl, Room: room.Name, From: s.ID, Target: cmd.TargetID, Action: cmd.Action}
	if !sendTo(room, cmd.TargetID, ev) {
		h.log.Debug().Int64("client_id", int64(s.ID)).Int64("target_id", int64(cmd.TargetID)).Msg("control target unreachable")
		return
	}
	h.log.Info().Int64("client_id", int64(s.ID)).Int64("target_id", int64(cmd.TargetID)).Str("action", cmd.Action).Msg("control relayed")
}

// truncate cuts s to at most n characters.
func truncate(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	i := 0
	for pos := range s {
		if i == n {
			return s[:pos]
		}
		i++
	}
	return s
}
