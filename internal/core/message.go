package core

import (
	"encoding/json"
	"time"
)

// Message is a chat payload relayed to a room. Body is opaque to the relay.
type Message struct {
	Room   string
	From   string
	Body   json.RawMessage
	SentAt time.Time
}
