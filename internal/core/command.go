package core

import "encoding/json"

// CommandKind describes what the client wants to do.
type CommandKind int

const (
	// CommandJoinRoom places the client in a room.
	CommandJoinRoom CommandKind = iota
	// CommandSignal relays a handshake payload to one room member.
	CommandSignal
	// CommandChat broadcasts a chat line to the client's room.
	CommandChat
	// CommandControl relays a control action to one room member.
	CommandControl
)

func (k CommandKind) String() string {
	switch k {
	case CommandJoinRoom:
		return "join"
	case CommandSignal:
		return "signal"
	case CommandChat:
		return "chat"
	case CommandControl:
		return "control"
	default:
		return "unknown"
	}
}

// Command represents an action requested by a client.
type Command struct {
	Kind     CommandKind
	Room     string
	Name     string
	Text     string
	TargetID ClientID
	Action   string
	Payload  json.RawMessage
}
