package amqp

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/Kristiina602/collecting-stock/internal/core"
)

// RecordEventMessage is the wire form of a record change. It carries ids
// only; consumers read the current state from the database.
type RecordEventMessage struct {
	Event     string    `json:"event"`
	RecordID  string    `json:"recordId"`
	UserID    string    `json:"userId"`
	Timestamp time.Time `json:"timestamp"`
}

// NewRecordEventMessage converts a ledger event into its wire form
func NewRecordEventMessage(e core.RecordEvent) *RecordEventMessage {
	ts := e.Timestamp
	if ts.IsZero() {
		ts = time.Now().UTC()
	}
	return &RecordEventMessage{
		Event:     string(e.Kind),
		RecordID:  e.RecordID,
		UserID:    e.UserID,
		Timestamp: ts,
	}
}

// ToJSON converts the message to JSON bytes
func (m *RecordEventMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// ToEvent converts the message back into a ledger event
func (m *RecordEventMessage) ToEvent() core.RecordEvent {
	return core.RecordEvent{
		Kind:      core.EventKind(m.Event),
		RecordID:  m.RecordID,
		UserID:    m.UserID,
		Timestamp: m.Timestamp,
	}
}

// RecordEventMessageFromJSON decodes and checks a message body
func RecordEventMessageFromJSON(data []byte) (*RecordEventMessage, error) {
	var msg RecordEventMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	if !core.EventKind(msg.Event).IsValid() {
		return nil, fmt.Errorf("unknown event %q", msg.Event)
	}
	if msg.RecordID == "" {
		return nil, fmt.Errorf("event %s without record id", msg.Event)
	}
	return &msg, nil
}
