package proto

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
)

// Message types carried in the "type" field of every frame.
const (
	TypeJoin       = "join"
	TypeJoined     = "joined"
	TypePeerJoined = "peer-joined"
	TypeSignal     = "signal"
	TypeChat       = "chat"
	TypeControl    = "control"
	TypePeerLeft   = "peer-left"
	TypeError      = "error"
)

var (
	// ErrMalformed is returned for frames that are not a JSON object or carry fields of the wrong type.
	ErrMalformed = errors.New("malformed frame")
	// ErrMissingType is returned for objects without a non-empty "type".
	ErrMissingType = errors.New("missing message type")
)

// Inbound is one decoded client frame: JoinRequest, SignalRequest,
// ChatRequest, ControlRequest or Unknown.
type Inbound interface {
	Kind() string
}

// JoinRequest asks to enter a room. Name is informational only.
type JoinRequest struct {
	Room string `json:"room"`
	Name Text   `json:"name"`
}

// SignalRequest carries an opaque handshake payload for one peer.
type SignalRequest struct {
	TargetID int64           `json:"targetId"`
	Payload  json.RawMessage `json:"payload"`
}

// ChatRequest is a chat line for the sender's room.
type ChatRequest struct {
	Name Text `json:"name"`
	Text Text `json:"text"`
}

// ControlRequest relays a command such as "mute-audio" to one peer.
type ControlRequest struct {
	TargetID int64  `json:"targetId"`
	Action   string `json:"action"`
}

// Unknown is any frame whose type is not part of the protocol. It is always ignored.
type Unknown struct {
	Type string
}

func (JoinRequest) Kind() string    { return TypeJoin }
func (SignalRequest) Kind() string  { return TypeSignal }
func (ChatRequest) Kind() string    { return TypeChat }
func (ControlRequest) Kind() string { return TypeControl }
func (u Unknown) Kind() string      { return u.Type }

// Text is a string field that also accepts JSON numbers and booleans,
// keeping their literal form. Falsy scalars (null, false, 0) decode to "".
type Text string

// UnmarshalJSON implements json.Unmarshaler.
func (t *Text) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	switch {
	case len(b) == 0 || bytes.Equal(b, []byte("null")) || bytes.Equal(b, []byte("false")):
		*t = ""
	case b[0] == '"':
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*t = Text(s)
	case b[0] == '{' || b[0] == '[':
		return fmt.Errorf("%w: expected scalar, got %c", ErrMalformed, b[0])
	default:
		if f, err := strconv.ParseFloat(string(b), 64); err == nil && f == 0 {
			*t = ""
			return nil
		}
		*t = Text(b)
	}
	return nil
}

// Decode parses one text frame into its Inbound variant.
// Unrecognized types decode to Unknown with a nil error. Keys are matched
// exactly: "TYPE" or "Room" are not protocol fields.
func Decode(frame []byte) (Inbound, error) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(frame, &fields); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	var typ string
	if err := field(fields, "type", &typ); err != nil {
		return nil, err
	}
	if typ == "" {
		return nil, ErrMissingType
	}

	switch typ {
	case TypeJoin:
		var m JoinRequest
		if err := fieldsInto(fields, "room", &m.Room, "name", &m.Name); err != nil {
			return nil, err
		}
		return m, nil
	case TypeSignal:
		var m SignalRequest
		if err := field(fields, "targetId", &m.TargetID); err != nil {
			return nil, err
		}
		m.Payload = fields["payload"]
		return m, nil
	case TypeChat:
		var m ChatRequest
		if err := fieldsInto(fields, "name", &m.Name, "text", &m.Text); err != nil {
			return nil, err
		}
		return m, nil
	case TypeControl:
		var m ControlRequest
		if err := fieldsInto(fields, "targetId", &m.TargetID, "action", &m.Action); err != nil {
			return nil, err
		}
		return m, nil
	default:
		return Unknown{Type: typ}, nil
	}
}

// field decodes fields[key] into dst. An absent key leaves dst untouched.
func field(fields map[string]json.RawMessage, key string, dst any) error {
	raw, ok := fields[key]
	if !ok {
		return nil
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		return fmt.Errorf("%w: %s: %v", ErrMalformed, key, err)
	}
	return nil
}

func fieldsInto(fields map[string]json.RawMessage, k1 string, d1 any, k2 string, d2 any) error {
	if err := field(fields, k1, d1); err != nil {
		return err
	}
	return field(fields, k2, d2)
}

// Joined confirms a join to the requester with a snapshot of the other members.
type Joined struct {
	Type  string  `json:"type"`
	ID    int64   `json:"id"`
	Room  string  `json:"room"`
	Peers []int64 `json:"peers"`
}

// PeerNotice announces an arrival (peer-joined) or a departure (peer-left).
type PeerNotice struct {
	Type string `json:"type"`
	ID   int64  `json:"id"`
}

// SignalRelay is a handshake payload delivered to its target.
type SignalRelay struct {
	Type    string          `json:"type"`
	FromID  int64           `json:"fromId"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// ChatMessage is a chat line delivered to every room member.
type ChatMessage struct {
	Type   string `json:"type"`
	FromID int64  `json:"fromId"`
	Name   string `json:"name"`
	Text   string `json:"text"`
}

// ControlRelay is a control command delivered to its target.
type ControlRelay struct {
	Type     string `json:"type"`
	FromID   int64  `json:"fromId"`
	TargetID int64  `json:"targetId"`
	Action   string `json:"action"`
}

// Error describes a validation failure sent back to the requester.
type Error struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}

// NewJoined builds a joined frame. A nil peers slice is sent as [].
func NewJoined(id int64, room string, peers []int64) Joined {
	if peers == nil {
		peers = []int64{}
	}
	return Joined{Type: TypeJoined, ID: id, Room: room, Peers: peers}
}

func NewPeerJoined(id int64) PeerNotice { return PeerNotice{Type: TypePeerJoined, ID: id} }

func NewPeerLeft(id int64) PeerNotice { return PeerNotice{Type: TypePeerLeft, ID: id} }

func NewSignalRelay(from int64, payload json.RawMessage) SignalRelay {
	return SignalRelay{Type: TypeSignal, FromID: from, Payload: payload}
}

func NewChatMessage(from int64, name, text string) ChatMessage {
	return ChatMessage{Type: TypeChat, FromID: from, Name: name, Text: text}
}

func NewControlRelay(from, target int64, action string) ControlRelay {
	return ControlRelay{Type: TypeControl, FromID: from, TargetID: target, Action: action}
}

func NewError(message string) Error {
	return Error{Type: TypeError, Message: message}
}
