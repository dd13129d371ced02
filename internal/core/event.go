package core

// EventKind is a notification the core emits to clients.
type EventKind int

const (
	// EventRoomMessage carries a chat message broadcast to a room.
	EventRoomMessage EventKind = iota
	// EventRoomJoined acknowledges a join to the requesting client.
	EventRoomJoined
	// EventRoomLeft acknowledges a leave to the requesting client.
	EventRoomLeft
	// EventError notifies a client about a protocol error.
	EventError
)

// Event is sent to clients to describe what happened in the system.
type Event struct {
	Kind    EventKind
	Room    string
	Message Message
	Error   *CoreError
}
