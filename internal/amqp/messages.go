package amqp

import (
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
)

// Operations carried by RecordChangedMessage.
const (
	OpCreate = "create"
	OpUpdate = "update"
	OpDelete = "delete"
)

// RecordChangedMessage says that one record of a collection changed.
// It carries no record data; consumers reload the collection from the store.
type RecordChangedMessage struct {
	MessageID  string    `json:"messageId"`
	Collection string    `json:"collection"`
	RecordID   int64     `json:"recordId"`
	Operation  string    `json:"operation"`
	Timestamp  time.Time `json:"timestamp"`
}

func NewRecordChangedMessage(collection string, id int64, op string, at time.Time) *RecordChangedMessage {
	return &RecordChangedMessage{
		MessageID:  uuid.NewString(),
		Collection: collection,
		RecordID:   id,
		Operation:  op,
		Timestamp:  at.UTC(),
	}
}

func (m *RecordChangedMessage) Validate() error {
	if m.Collection == "" {
		return errors.New("message has no collection")
	}
	switch m.Operation {
	case OpCreate, OpUpdate, OpDelete:
	default:
		return errors.New("unknown operation " + m.Operation)
	}
	return nil
}

func (m *RecordChangedMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

func RecordChangedMessageFromJSON(data []byte) (*RecordChangedMessage, error) {
	var msg RecordChangedMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	if err := msg.Validate(); err != nil {
		return nil, err
	}
	return &msg, nil
}
