package models

import "time"

// DeletionKind tells how a deletion was detected.
type DeletionKind string

const (
	// DeletionTag is a message its author marked with a delete marker.
	DeletionTag DeletionKind = "tag"
	// DeletionVanished is a message that disappeared between two snapshots.
	DeletionVanished DeletionKind = "vanished"
)

// DeletionRecord is an entry in a room's deletion log.
type DeletionRecord struct {
	MessageID string       `json:"message_id"`
	RoomID    string       `json:"room_id"`
	Sender    string       `json:"sender"`
	Body      string       `json:"body"`
	SendTime  int64        `json:"send_time"`
	DeletedAt time.Time    `json:"deleted_at"`
	Kind      DeletionKind `json:"deletion_type"`
}
