package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"

	"github.com/vovakirdan/livestage-server/internal/proto"
)

func main() {
	if err := run(); err != nil {
		log.Printf("ws_smoke: %v", err)
		os.Exit(1)
	}
}

type outbound struct {
	Type  string          `json:"type"`
	Data  json.RawMessage `json:"data"`
	Error *proto.Error    `json:"error,omitempty"`
}

func run() error {
	addr := flag.String("addr", "ws://localhost:3001/ws", "WebSocket address")
	user := flag.String("user", "tester", "display name placed in the message payload")
	room := flag.String("room", "general", "room name")
	text := flag.String("text", "hello from smoke test", "message text to send")
	timeout := flag.Duration("timeout", 5*time.Second, "total timeout for the run")
	flag.Parse()

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	conn, _, err := websocket.Dial(ctx, *addr, nil)
	if err != nil {
		return fmt.Errorf("dial: %w", err)
	}
	defer conn.Close(websocket.StatusNormalClosure, "bye")

	send := func(typ string, data any) error {
		payload, err := json.Marshal(data)
		if err != nil {
			return fmt.Errorf("marshal %s: %w", typ, err)
		}
		if err := wsjson.Write(ctx, conn, proto.Inbound{Type: typ, Data: payload}); err != nil {
			return fmt.Errorf("send %s: %w", typ, err)
		}
		return nil
	}

	if err := send(proto.InboundTypeJoinRoom, *room); err != nil {
		return err
	}
	if err := send(proto.InboundTypeChatMessage, map[string]any{
		"roomId":  *room,
		"message": map[string]string{"user": *user, "text": *text},
	}); err != nil {
		return err
	}

	for {
		var out outbound
		if err := wsjson.Read(ctx, conn, &out); err != nil {
			return fmt.Errorf("read: %w", err)
		}

		switch out.Type {
		case proto.OutboundTypeRoomJoined:
			var evt proto.RoomEvent
			if err := json.Unmarshal(out.Data, &evt); err == nil {
				fmt.Printf("Joined: room=%s\n", evt.RoomID)
			}
		case proto.OutboundTypeChatMessage:
			var evt proto.ChatEvent
			if err := json.Unmarshal(out.Data, &evt); err != nil {
				fmt.Printf("Raw data: %s\n", string(out.Data))
				return fmt.Errorf("unmarshal message: %w", err)
			}
			fmt.Printf("ChatEvent: room=%s from=%s message=%s ts=%d\n", evt.RoomID, evt.From, evt.Message, evt.TS)
			return nil
		case proto.OutboundTypeError:
			if out.Error != nil {
				return fmt.Errorf("server error %s: %s", out.Error.Code, out.Error.Msg)
			}
			return fmt.Errorf("server error")
		default:
			fmt.Printf("Received outbound: type=%s\n", out.Type)
		}
	}
}
