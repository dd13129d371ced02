package core

const (
	commandBuffer = 16
	eventBuffer   = 64
)

// Client is one relay connection as seen by the core layer.
type Client struct {
	ID       string
	Commands chan *Command
	Events   chan *Event
	// Rooms is owned by the hub goroutine.
	Rooms map[string]struct{}
	done  chan struct{}
}

// NewClient constructs a client with initialized channels.
func NewClient(id string) *Client {
	return &Client{
		ID:       id,
		Commands: make(chan *Command, commandBuffer),
		Events:   make(chan *Event, eventBuffer),
		Rooms:    make(map[string]struct{}),
		done:     make(chan struct{}),
	}
}

// Done is closed once the hub has dropped the client.
func (c *Client) Done() <-chan struct{} {
	return c.done
}

func (c *Client) deliver(event *Event) bool {
	select {
	case c.Events <- event:
		return true
	default:
		// Drop if slow consumer.
		return false
	}
}
