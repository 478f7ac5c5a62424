package models

import "time"

// RawMessage is an SMS as delivered by the host messaging subsystem.
type RawMessage struct {
	Sender          string `json:"sender,omitempty"`
	Body            string `json:"body"`
	TimestampMillis int64  `json:"timestamp"`
}

// NewRawMessage builds a RawMessage received at the given instant.
func NewRawMessage(sender, body string, receivedAt time.Time) RawMessage {
	return RawMessage{
		Sender:          sender,
		Body:            body,
		TimestampMillis: receivedAt.UnixMilli(),
	}
}
