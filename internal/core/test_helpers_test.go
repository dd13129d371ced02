package core

import (
	"context"
	"testing"
	"time"
)

func startHub(t *testing.T) *Hub {
	t.Helper()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	t.Cleanup(cancel)

	hub := NewHub(nil, nil)
	go hub.Run(ctx)
	return hub
}

func connect(t *testing.T, hub *Hub, id string) *Client {
	t.Helper()

	c := NewClient(id)
	hub.RegisterClient(c)
	return c
}

func join(t *testing.T, c *Client, room string) {
	t.Helper()

	c.Commands <- &Command{Kind: CommandJoinRoom, Room: room}
	ev := mustEvent(t, c.Events, EventRoomJoined)
	if ev.Room != room {
		t.Fatalf("joined %q, want %q", ev.Room, room)
	}
}

func mustEvent(t *testing.T, ch <-chan *Event, kind EventKind) *Event {
	t.Helper()

	deadline := time.After(2 * time.Second)
	for {
		select {
		case ev, ok := <-ch:
			if !ok {
				t.Fatalf("events closed while waiting for kind %v", kind)
			}
			if ev != nil && ev.Kind == kind {
				return ev
			}
		case <-deadline:
			t.Fatalf("expected event kind %v not received", kind)
			return nil
		}
	}
}

func mustNoEvent(t *testing.T, ch <-chan *Event, kind EventKind, wait time.Duration) {
	t.Helper()

	deadline := time.After(wait)
	for {
		select {
		case ev, ok := <-ch:
			if !ok {
				return
			}
			if ev != nil && ev.Kind == kind {
				t.Fatalf("unexpected event %+v", ev)
			}
		case <-deadline:
			return
		}
	}
}
