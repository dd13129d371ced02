package core

import (
	"context"

	"github.com/rs/zerolog"
)

// Observer receives relay activity, typically for metrics.
type Observer interface {
	ConnectionOpened()
	ConnectionClosed()
	MessageRelayed(delivered int)
}

type nopObserver struct{}

func (nopObserver) ConnectionOpened() {}
func (nopObserver) ConnectionClosed() {}
func (nopObserver) MessageRelayed(int) {}

type envelope struct {
	client *Client
	cmd    *Command
}

// Hub owns room membership and fans chat messages out to room members.
// All state is touched only from the Run goroutine.
type Hub struct {
	register   chan *Client
	unregister chan *Client
	inbox      chan envelope
	done       chan struct{}

	clients map[*Client]struct{}
	rooms   map[string]*Room

	obs Observer
	log *zerolog.Logger
}

// NewHub creates a chat hub. A nil observer or logger disables that concern.
func NewHub(obs Observer, logger *zerolog.Logger) *Hub {
	if obs == nil {
		obs = nopObserver{}
	}
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}
	return &Hub{
		register:   make(chan *Client),
		unregister: make(chan *Client),
		inbox:      make(chan envelope, 256),
		done:       make(chan struct{}),
		clients:    make(map[*Client]struct{}),
		rooms:      make(map[string]*Room),
		obs:        obs,
		log:        logger,
	}
}

// RegisterClient attaches a client and starts forwarding its commands.
func (h *Hub) RegisterClient(c *Client) {
	select {
	case h.register <- c:
	case <-h.done:
	}
}

// UnregisterClient removes the client from every room and closes its Events channel.
func (h *Hub) UnregisterClient(c *Client) {
	select {
	case h.unregister <- c:
	case <-h.done:
	}
}

// Run processes hub traffic until ctx is cancelled. On exit every client is
// released, closing its Done and Events channels.
func (h *Hub) Run(ctx context.Context) {
	defer close(h.done)
	defer h.releaseAll()

	for {
		select {
		case <-ctx.Done():
			return
		case c := <-h.register:
			h.addClient(ctx, c)
		case c := <-h.unregister:
			h.removeClient(c)
		case env := <-h.inbox:
			if _, ok := h.clients[env.client]; !ok {
				continue
			}
			h.handle(env.client, env.cmd)
		}
	}
}

func (h *Hub) addClient(ctx context.Context, c *Client) {
	if _, exists := h.clients[c]; exists {
		return
	}
	h.clients[c] = struct{}{}
	h.obs.ConnectionOpened()
	go h.forward(ctx, c)
	h.log.Debug().Str("client_id", c.ID).Msg("client registered")
}

// forward moves commands from a client into the shared inbox, preserving per-client order.
func (h *Hub) forward(ctx context.Context, c *Client) {
	for {
		select {
		case <-ctx.Done():
			return
		case <-c.done:
			return
		case cmd := <-c.Commands:
			if cmd == nil {
				continue
			}
			select {
			case h.inbox <- envelope{client: c, cmd: cmd}:
			case <-ctx.Done():
				return
			case <-c.done:
				return
			}
		}
	}
}

func (h *Hub) removeClient(c *Client) {
	if _, exists := h.clients[c]; !exists {
		return
	}
	for name := range c.Rooms {
		h.detach(c, name)
	}
	delete(h.clients, c)
	close(c.done)
	close(c.Events)
	h.obs.ConnectionClosed()
	h.log.Debug().Str("client_id", c.ID).Msg("client unregistered")
}

func (h *Hub) releaseAll() {
	for c := range h.clients {
		h.removeClient(c)
	}
}

func (h *Hub) handle(c *Client, cmd *Command) {
	switch cmd.Kind {
	case CommandJoinRoom:
		h.joinRoom(c, cmd.Room)
	case CommandLeaveRoom:
		h.leaveRoom(c, cmd.Room)
	case CommandSendRoomMessage:
		h.sendMessage(cmd.Room, cmd.Message)
	default:
		c.deliver(&Event{Kind: EventError, Error: coreError(ErrCodeInvalidMessage, "unknown command")})
	}
}

// joinRoom is idempotent: a member joining again stays a single member.
func (h *Hub) joinRoom(c *Client, name string) {
	room, ok := h.rooms[name]
	if !ok {
		room = NewRoom(name)
		h.rooms[name] = room
	}
	if room.AddClient(c) {
		c.Rooms[name] = struct{}{}
		h.log.Debug().Str("client_id", c.ID).Str("room", name).Int("members", room.Len()).Msg("joined room")
	}
	c.deliver(&Event{Kind: EventRoomJoined, Room: name})
}

// leaveRoom is a no-op for non-members apart from the acknowledgement.
func (h *Hub) leaveRoom(c *Client, name string) {
	if h.detach(c, name) {
		h.log.Debug().Str("client_id", c.ID).Str("room", name).Msg("left room")
	}
	c.deliver(&Event{Kind: EventRoomLeft, Room: name})
}

func (h *Hub) detach(c *Client, name string) bool {
	delete(c.Rooms, name)
	room, ok := h.rooms[name]
	if !ok {
		return false
	}
	removed := room.RemoveClient(c)
	if room.Empty() {
		delete(h.rooms, name)
	}
	return removed
}

// sendMessage reaches every current member, the sender included when joined.
func (h *Hub) sendMessage(name string, msg Message) {
	msg.Room = name
	delivered := 0
	if room, ok := h.rooms[name]; ok {
		delivered = room.Broadcast(&Event{Kind: EventRoomMessage, Room: name, Message: msg})
	}
	h.obs.MessageRelayed(delivered)
}
