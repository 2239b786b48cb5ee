package http

import (
	"github.com/vovakirdan/wirerelay/internal/core"
	"github.com/vovakirdan/wirerelay/internal/proto"
)

// inboundToCommand decodes one frame. It returns (nil, nil) for frame types
// the protocol does not know; those are ignored.
func inboundToCommand(frame []byte) (*core.Command, error) {
	msg, err := proto.Decode(frame)
	if err != nil {
		return nil, err
	}

	switch m := msg.(type) {
	case proto.JoinRequest:
		return &core.Command{
			Kind: core.CommandJoinRoom,
			Room: m.Room,
			Name: string(m.Name),
		}, nil
	case proto.SignalRequest:
		return &core.Command{
			Kind:     core.CommandSignal,
			TargetID: core.ClientID(m.TargetID),
			Payload:  m.Payload,
		}, nil
	case proto.ChatRequest:
		return &core.Command{
			Kind: core.CommandChat,
			Name: string(m.Name),
			Text: string(m.Text),
		}, nil
	case proto.ControlRequest:
		return &core.Command{
			Kind:     core.CommandControl,
			TargetID: core.ClientID(m.TargetID),
			Action:   m.Action,
		}, nil
	default:
		return nil, nil
	}
}

func outboundFromEvent(event *core.Event) any {
	switch event.Kind {
	case core.EventJoined:
		peers := make([]int64, 0, len(event.Peers))
		for _, id := range event.Peers {
			peers = append(peers, int64(id))
		}
		return proto.NewJoined(int64(event.ID), event.Room, peers)
	case core.EventPeerJoined:
		return proto.NewPeerJoined(int64(event.ID))
	case core.EventPeerLeft:
		return proto.NewPeerLeft(int64(event.ID))
	case core.EventSignal:
		return proto.NewSignalRelay(int64(event.From), event.Payload)
	case core.EventChat:
		return proto.NewChatMessage(int64(event.From), event.Name, event.Text)
	case core.EventControl:
		return proto.NewControlRelay(int64(event.From), int64(event.Target), event.Action)
	case core.EventError:
		if event.Error == nil {
			return proto.NewError("unknown error")
		}
		return proto.NewError(event.Error.Message)
	default:
		return nil
	}
}
