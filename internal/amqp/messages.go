package amqp

import (
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
)

// TableChangedMessage announces that a table was rewritten. It carries no
// cells: the consumer reads the current table from the primary store.
type TableChangedMessage struct {
	ID        uuid.UUID `json:"id"`
	Table     string    `json:"table"`
	Rows      int       `json:"rows"`
	Timestamp time.Time `json:"timestamp"`
}

// NewTableChangedMessage stamps a change event with a fresh ID.
func NewTableChangedMessage(table string, rows int) *TableChangedMessage {
	return &TableChangedMessage{
		ID:        uuid.New(),
		Table:     table,
		Rows:      rows,
		Timestamp: time.Now(),
	}
}

// ToJSON converts the message to JSON bytes
func (m *TableChangedMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// TableChangedMessageFromJSON decodes a message and rejects one without a table name.
func TableChangedMessageFromJSON(data []byte) (*TableChangedMessage, error) {
	var msg TableChangedMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	if msg.Table == "" {
		return nil, errors.New("message has no table")
	}
	return &msg, nil
}
