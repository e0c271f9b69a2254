package models

import "time"

// ProcessedMessage is an audit trail entry for a classified message.
type ProcessedMessage struct {
	ID          string         `json:"id"` // ULID
	MessageID   string         `json:"message_id"`
	RoomID      string         `json:"room_id"`
	Sender      string         `json:"sender"`
	SenderID    int64          `json:"sender_id"`
	Body        string         `json:"body"`
	SendTime    int64          `json:"send_time"`
	ProcessedAt time.Time      `json:"processed_at"`
	Analysis    Classification `json:"analysis"`
}
