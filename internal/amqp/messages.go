package amqp

import (
	"encoding/json"
	"fmt"
	"time"

	"bilancio/internal/core"

	"github.com/google/uuid"
)

// MonthChangedMessage announces that a month's figures must be recomputed.
// It carries only the month; consumers reload the data themselves.
type MonthChangedMessage struct {
	ID        string    `json:"id"`
	Month     string    `json:"month"`
	Reason    string    `json:"reason"`
	Timestamp time.Time `json:"timestamp"`
}

func NewMonthChangedMessage(month core.MonthKey, reason string) *MonthChangedMessage {
	return &MonthChangedMessage{
		ID:        uuid.NewString(),
		Month:     month.String(),
		Reason:    reason,
		Timestamp: time.Now().UTC(),
	}
}

// MonthKey parses the month carried by the message.
func (m *MonthChangedMessage) MonthKey() (core.MonthKey, error) {
	return core.ParseMonthKey(m.Month)
}

func (m *MonthChangedMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// MonthChangedMessageFromJSON decodes and checks a message body.
func MonthChangedMessageFromJSON(data []byte) (*MonthChangedMessage, error) {
	var msg MonthChangedMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	if _, err := uuid.Parse(msg.ID); err != nil {
		return nil, fmt.Errorf("message id: %w", err)
	}
	if _, err := msg.MonthKey(); err != nil {
		return nil, err
	}
	return &msg, nil
}
