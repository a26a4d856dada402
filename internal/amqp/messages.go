package amqp

import (
	"encoding/json"
	"time"
)

// RefreshMessage asks the worker to regenerate one user's suggestions. It
// carries only the user key; the worker reads the records from the database
// so a stale message can never overwrite fresher data.
type RefreshMessage struct {
	User      string    `json:"user"`
	Reason    string    `json:"reason"`
	Timestamp time.Time `json:"timestamp"`
}

// NewRefreshMessage creates a refresh request for the given user. Reason is
// free-form and only used for logging ("expense-created", "scheduled", ...).
func NewRefreshMessage(user, reason string) *RefreshMessage {
	return &RefreshMessage{
		User:      user,
		Reason:    reason,
		Timestamp: time.Now(),
	}
}

// ToJSON converts the message to JSON bytes
func (m *RefreshMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// RefreshMessageFromJSON creates a message from JSON bytes
func RefreshMessageFromJSON(data []byte) (*RefreshMessage, error) {
	var msg RefreshMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}
