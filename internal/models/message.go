package models

// Account identifies the sender of a chat message.
type Account struct {
	ID        int64  `json:"account_id"`
	Name      string `json:"name"`
	AvatarURL string `json:"avatar_image_url,omitempty"`
}

// Message represents a chat message observed in a monitored room.
type Message struct {
	ID         string  `json:"message_id"`
	RoomID     string  `json:"room_id"`
	Account    Account `json:"account"`
	Body       string  `json:"body"`
	SendTime   int64   `json:"send_time"`   // Unix seconds
	UpdateTime int64   `json:"update_time"` // Unix seconds
}

// Key returns the identifier used for idempotency and alert tracking.
func (m Message) Key() string {
	return AlertKey(m.RoomID, m.ID)
}

// AlertKey joins a room and message id into a single key.
func AlertKey(roomID, messageID string) string {
	return roomID + "_" + messageID
}
