package core

import "encoding/json"

// EventKind is a notification the core emits to clients.
type EventKind int

const (
	// EventJoined confirms a join to the requester.
	EventJoined EventKind = iota
	// EventPeerJoined tells existing members about a new arrival.
	EventPeerJoined
	// EventPeerLeft tells remaining members about a departure.
	EventPeerLeft
	// EventSignal delivers a relayed handshake payload.
	EventSignal
	// EventChat delivers a chat line.
	EventChat
	// EventControl delivers a relayed control action.
	EventControl
	// EventError notifies the requester about a validation failure.
	EventError
)

// Event is sent to clients to describe what happened in the system.
// Events are shared between recipients and must not be modified once delivered.
type Event struct {
	Kind EventKind
	Room string
	// ID is the subject of joined, peer-joined and peer-left.
	ID     ClientID
	Peers  []ClientID
	From   ClientID
	Target ClientID
	Name   string
	Text   string
	Action string
	// Payload is forwarded verbatim.
	Payload json.RawMessage
	Error   *CoreError
}
