package http

import (
	"encoding/json"
	"strings"
	"time"

	"github.com/vovakirdan/livestage-server/internal/core"
	"github.com/vovakirdan/livestage-server/internal/proto"
)

var nullMessage = json.RawMessage("null")

func badRequest(msg string) *proto.Error {
	return &proto.Error{Code: core.ErrCodeBadRequest, Msg: msg}
}

// inboundToCommand returns either a command for the hub or a protocol error for the sender.
func inboundToCommand(client *core.Client, inbound proto.Inbound, now time.Time) (*core.Command, *proto.Error) {
	switch inbound.Type {
	case proto.InboundTypeJoinRoom, proto.InboundTypeLeaveRoom:
		var ref proto.RoomRef
		if err := json.Unmarshal(inbound.Data, &ref); err != nil {
			return nil, badRequest("invalid room reference")
		}
		room := strings.TrimSpace(ref.RoomID)
		if room == "" {
			return nil, badRequest("roomId is required")
		}
		kind := core.CommandJoinRoom
		if inbound.Type == proto.InboundTypeLeaveRoom {
			kind = core.CommandLeaveRoom
		}
		return &core.Command{Kind: kind, Room: room}, nil
	case proto.InboundTypeChatMessage:
		var msg proto.ChatData
		if err := json.Unmarshal(inbound.Data, &msg); err != nil {
			return nil, badRequest("invalid chat message")
		}
		room := strings.TrimSpace(msg.RoomID)
		if room == "" {
			return nil, badRequest("roomId is required")
		}
		body := msg.Message
		if len(body) == 0 {
			body = nullMessage
		}
		return &core.Command{
			Kind: core.CommandSendRoomMessage,
			Room: room,
			Message: core.Message{
				Room:   room,
				From:   client.ID,
				Body:   body,
				SentAt: now,
			},
		}, nil
	default:
		return nil, &proto.Error{Code: core.ErrCodeInvalidMessage, Msg: "unknown message type"}
	}
}

func outboundFromEvent(event *core.Event) proto.Outbound {
	switch event.Kind {
	case core.EventRoomMessage:
		return proto.Outbound{
			Type: proto.OutboundTypeChatMessage,
			Data: proto.ChatEvent{
				RoomID:  event.Message.Room,
				Message: event.Message.Body,
				From:    event.Message.From,
				TS:      event.Message.SentAt.UnixMilli(),
			},
		}
	case core.EventRoomJoined:
		return proto.Outbound{
			Type: proto.OutboundTypeRoomJoined,
			Data: proto.RoomEvent{RoomID: event.Room},
		}
	case core.EventRoomLeft:
		return proto.Outbound{
			Type: proto.OutboundTypeRoomLeft,
			Data: proto.RoomEvent{RoomID: event.Room},
		}
	case core.EventError:
		if event.Error == nil {
			return proto.Outbound{Type: proto.OutboundTypeError, Error: &proto.Error{Code: "unknown", Msg: "unknown error"}}
		}
		return proto.Outbound{
			Type:  proto.OutboundTypeError,
			Error: &proto.Error{Code: event.Error.Code, Msg: event.Error.Message},
		}
	default:
		return proto.Outbound{Type: proto.OutboundTypeError, Error: &proto.Error{Code: "unknown", Msg: "unknown event"}}
	}
}
