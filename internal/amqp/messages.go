package amqp

import (
	"encoding/json"
	"fmt"
	"time"

	"fintrack/internal/core"
)

// TransactionEvent announces that a transaction changed. It carries only the
// ID; consumers read current state from the store.
type TransactionEvent struct {
	ID        string            `json:"id"`
	Action    core.ChangeAction `json:"action"`
	Timestamp time.Time         `json:"timestamp"`
}

func NewTransactionEvent(id string, action core.ChangeAction) *TransactionEvent {
	return &TransactionEvent{
		ID:        id,
		Action:    action,
		Timestamp: time.Now().UTC(),
	}
}

func (m *TransactionEvent) Validate() error {
	if m.ID == "" {
		return fmt.Errorf("event without id")
	}
	if !m.Action.Valid() {
		return fmt.Errorf("unknown action %q", m.Action)
	}
	return nil
}

// ToJSON converts the message to JSON bytes
func (m *TransactionEvent) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// TransactionEventFromJSON decodes and validates a message body.
func TransactionEventFromJSON(data []byte) (*TransactionEvent, error) {
	var msg TransactionEvent
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	if err := msg.Validate(); err != nil {
		return nil, err
	}
	return &msg, nil
}
