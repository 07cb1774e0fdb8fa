package amqp

import (
	"encoding/json"
	"fmt"
	"time"
)

// Sync actions carried by WorkedHoursSyncMessage.
const (
	ActionUpsert = "upsert"
	ActionDelete = "delete"
)

// WorkedHoursSyncMessage announces a change to one worked-hours record.
// The worker loads the record itself; the message only carries its identity.
// Deletes also carry the date of work, since the record is gone by the time
// the worker sees them.
type WorkedHoursSyncMessage struct {
	ID         int64     `json:"id"`
	Version    int64     `json:"version"`
	Action     string    `json:"action"`
	DateOfWork time.Time `json:"date_of_work,omitzero"`
	Timestamp  time.Time `json:"timestamp"`
}

func NewWorkedHoursSyncMessage(id, version int64) *WorkedHoursSyncMessage {
	return &WorkedHoursSyncMessage{
		ID:        id,
		Version:   version,
		Action:    ActionUpsert,
		Timestamp: time.Now(),
	}
}

func NewWorkedHoursDeleteMessage(id int64, dateOfWork time.Time) *WorkedHoursSyncMessage {
	return &WorkedHoursSyncMessage{
		ID:         id,
		Action:     ActionDelete,
		DateOfWork: dateOfWork,
		Timestamp:  time.Now(),
	}
}

func (m *WorkedHoursSyncMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// WorkedHoursSyncMessageFromJSON decodes a message. Messages without an
// action are upserts.
func WorkedHoursSyncMessageFromJSON(data []byte) (*WorkedHoursSyncMessage, error) {
	var msg WorkedHoursSyncMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	switch msg.Action {
	case "":
		msg.Action = ActionUpsert
	case ActionUpsert, ActionDelete:
	default:
		return nil, fmt.Errorf("unknown action %q", msg.Action)
	}
	return &msg, nil
}
