package protocol

import (
	"encoding/json"
	"time"
)

// AlertEvent is the internal message format for the alert fan-out topic.
// One event is published per persisted alert.
type AlertEvent struct {
	AlertID   int64     `json:"alert_id"`
	ReadingID int64     `json:"reading_id"`
	NodeID    string    `json:"node_id"`
	Type      string    `json:"type"`
	Message   string    `json:"message"`
	Severity  string    `json:"severity"`
	CreatedAt time.Time `json:"created_at"`
}

// EncodeAlertEvent encodes an AlertEvent to JSON
func EncodeAlertEvent(event *AlertEvent) ([]byte, error) {
	return json.Marshal(event)
}

// DecodeAlertEvent decodes JSON to AlertEvent
func DecodeAlertEvent(data []byte) (*AlertEvent, error) {
	var event AlertEvent
	if err := json.Unmarshal(data, &event); err != nil {
		return nil, err
	}
	return &event, nil
}
