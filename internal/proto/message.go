package proto

import (
	"bytes"
	"encoding/json"
)

// Inbound is the envelope for messages coming from the client.
type Inbound struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data"`
}

const (
	InboundTypeJoinRoom    = "join-room"
	InboundTypeLeaveRoom   = "leave-room"
	InboundTypeChatMessage = "chat-message"

	OutboundTypeChatMessage = "chat-message"
	OutboundTypeRoomJoined  = "room-joined"
	OutboundTypeRoomLeft    = "room-left"
	OutboundTypeError       = "error"
)

// RoomRef names a room. It decodes from a bare JSON string or from {"roomId": "..."}.
type RoomRef struct {
	RoomID string `json:"roomId"`
}

// UnmarshalJSON accepts both wire shapes.
func (r *RoomRef) UnmarshalJSON(data []byte) error {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) > 0 && trimmed[0] == '"' {
		return json.Unmarshal(trimmed, &r.RoomID)
	}
	type plain RoomRef
	var p plain
	if err := json.Unmarshal(trimmed, &p); err != nil {
		return err
	}
	*r = RoomRef(p)
	return nil
}

// ChatData is a chat message from the client. Message is arbitrary JSON relayed untouched.
type ChatData struct {
	RoomID  string          `json:"roomId"`
	Message json.RawMessage `json:"message"`
}

// Outbound is the envelope for messages sent to the client.
type Outbound struct {
	Type  string `json:"type"`
	Data  any    `json:"data,omitempty"`
	Error *Error `json:"error,omitempty"`
}

// ChatEvent is the broadcast form of a chat message.
type ChatEvent struct {
	RoomID  string          `json:"roomId"`
	Message json.RawMessage `json:"message"`
	From    string          `json:"from"`
	TS      int64           `json:"ts"`
}

// RoomEvent acknowledges a membership change.
type RoomEvent struct {
	RoomID string `json:"roomId"`
}

// Error describes a protocol-level error response.
type Error struct {
	Code string `json:"code"`
	Msg  string `json:"msg"`
}
