package amqp

import (
	"encoding/json"
	"slices"
	"time"
)

// StateChangedMessage announces a committed change to the stored collections.
// It carries no data: consumers reload the state from the shared backend.
type StateChangedMessage struct {
	Collections []string  `json:"collections"`
	Operation   string    `json:"operation"`
	Revision    uint64    `json:"revision"`
	Timestamp   time.Time `json:"timestamp"`
}

// NewStateChangedMessage creates a message stamped with the current time
func NewStateChangedMessage(collections []string, operation string, revision uint64) *StateChangedMessage {
	return &StateChangedMessage{
		Collections: slices.Clone(collections),
		Operation:   operation,
		Revision:    revision,
		Timestamp:   time.Now(),
	}
}

// Touches reports whether the change affected the given collection
func (m *StateChangedMessage) Touches(collection string) bool {
	return slices.Contains(m.Collections, collection)
}

// ToJSON converts the message to JSON bytes
func (m *StateChangedMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// StateChangedMessageFromJSON creates a message from JSON bytes
func StateChangedMessageFromJSON(data []byte) (*StateChangedMessage, error) {
	var msg StateChangedMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}
