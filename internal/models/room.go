package models

// Room is a chat room visible to the API token.
type Room struct {
	RoomID     int64  `json:"room_id"`
	Name       string `json:"name"`
	Type       string `json:"type"` // my, direct or group
	Role       string `json:"role"`
	UnreadNum  int    `json:"unread_num"`
	MentionNum int    `json:"mention_num"`
	IconPath   string `json:"icon_path"`
	Category   string `json:"category"`
}
