package amqp

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// EventAppendedMessage announces that the event log grew. It carries only
// the event type; consumers replay the store for the details.
type EventAppendedMessage struct {
	ID        string    `json:"id"`
	EventType string    `json:"event_type"`
	Version   int       `json:"version"`
	Timestamp time.Time `json:"timestamp"`
}

// NewEventAppendedMessage creates a message with a fresh ID.
func NewEventAppendedMessage(eventType string, version int) *EventAppendedMessage {
	return &EventAppendedMessage{
		ID:        uuid.NewString(),
		EventType: eventType,
		Version:   version,
		Timestamp: time.Now(),
	}
}

// ToJSON converts the message to JSON bytes
func (m *EventAppendedMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// EventAppendedMessageFromJSON parses a message body.
func EventAppendedMessageFromJSON(data []byte) (*EventAppendedMessage, error) {
	var msg EventAppendedMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}
