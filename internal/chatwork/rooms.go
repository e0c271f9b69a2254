package chatwork

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"regexp"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/engetsu-hub/chatwork-ai-manager/internal/models"
)

// Room categories, in the order the dashboard shows them.
const (
	CategoryMonitored     = "monitored"
	CategoryDirect        = "TO"
	CategoryClient        = "クライアント窓口"
	CategoryProjects      = "projects"
	CategoryTeams         = "teams"
	CategoryMeetings      = "meetings"
	CategoryDevelopment   = "development"
	CategoryAnnouncements = "announcements"
	CategoryMyChat        = "my_chat"
	CategoryOthers        = "others"
)

// Categories lists every category key GroupByCategory returns.
var Categories = []string{
	CategoryMonitored, CategoryDirect, CategoryClient, CategoryProjects,
	CategoryTeams, CategoryMeetings, CategoryDevelopment,
	CategoryAnnouncements, CategoryMyChat, CategoryOthers,
}

// First match wins, so the order matters: "client project" is a client room.
var nameKeywords = []struct {
	category string
	words    []string
}{
	{CategoryClient, []string{"クライアント", "client", "顧客", "お客様", "案件"}},
	{CategoryProjects, []string{"プロジェクト", "project", "pj"}},
	{CategoryTeams, []string{"チーム", "team", "部", "課", "department"}},
	{CategoryMeetings, []string{"会議", "meeting", "ミーティング", "打ち合わせ"}},
	{CategoryDevelopment, []string{"テスト", "test", "開発", "dev", "development", "ai manager"}},
	{CategoryAnnouncements, []string{"通知", "notice", "アナウンス", "announce", "連絡"}},
}

// Categorize picks a dashboard category from the room type and name.
func Categorize(room models.Room) string {
	switch room.Type {
	case "direct":
		return CategoryDirect
	case "my":
		return CategoryMyChat
	}
	name := strings.ToLower(room.Name)
	for _, kw := range nameKeywords {
		for _, w := range kw.words {
			if strings.Contains(name, w) {
				return kw.category
			}
		}
	}
	return CategoryOthers
}

// GroupByCategory buckets rooms for the dashboard. Monitored rooms go to
// CategoryMonitored regardless of their name. Every category key is present.
func GroupByCategory(rooms []models.Room, monitored []string) map[string][]models.Room {
	watch := make(map[string]bool, len(monitored))
	for _, id := range monitored {
		watch[id] = true
	}

	out := make(map[string][]models.Room, len(Categories))
	for _, c := range Categories {
		out[c] = []models.Room{}
	}
	for _, room := range rooms {
		category := room.Category
		if watch[strconv.FormatInt(room.RoomID, 10)] {
			category = CategoryMonitored
		} else if category == "" {
			category = Categorize(room)
		}
		out[category] = append(out[category], room)
	}
	return out
}

type wireRoom struct {
	RoomID     int64  `json:"room_id"`
	Name       string `json:"name"`
	Type       string `json:"type"`
	Role       string `json:"role"`
	UnreadNum  int    `json:"unread_num"`
	MentionNum int    `json:"mention_num"`
	IconPath   string `json:"icon_path"`
}

// GetRooms lists the rooms the token can see, each tagged with its category.
func (c *Client) GetRooms(ctx context.Context) ([]models.Room, error) {
	respBody, err := c.doRequest(ctx, http.MethodGet, "/rooms", nil)
	if err != nil {
		return nil, err
	}
	if len(respBody) == 0 {
		return []models.Room{}, nil
	}

	var wire []wireRoom
	if err := json.Unmarshal(respBody, &wire); err != nil {
		return nil, fmt.Errorf("decode rooms: %w", err)
	}

	rooms := make([]models.Room, 0, len(wire))
	for _, w := range wire {
		room := models.Room{
			RoomID:     w.RoomID,
			Name:       w.Name,
			Type:       w.Type,
			Role:       w.Role,
			UnreadNum:  w.UnreadNum,
			MentionNum: w.MentionNum,
			IconPath:   w.IconPath,
		}
		room.Category = Categorize(room)
		rooms = append(rooms, room)
	}
	return rooms, nil
}

// ReplyBody addresses body to sender. Without a sender the reply is marked
// as a plain quote line.
func ReplyBody(senderID int64, body string) string {
	if senderID == 0 {
		return "> 返信: " + body
	}
	return fmt.Sprintf("[To:%d] %s", senderID, body)
}

var reactionEmoji = map[string]string{
	"thumbsup":   "👍",
	"thumbsdown": "👎",
	"clap":       "👏",
	"love":       "❤️",
	"smile":      "😄",
	"surprised":  "😲",
}

// ReactionBody maps a reaction name to its emoji. Unknown names pass through.
func ReactionBody(reaction string) string {
	if e, ok := reactionEmoji[reaction]; ok {
		return e
	}
	return reaction
}

const quoteLimit = 100

var markupTag = regexp.MustCompile(`\[.*?\]`)

// QuoteBody wraps original in a quote block with Chatwork tags stripped and
// the text cut to quoteLimit characters. comment, if any, follows the block.
func QuoteBody(original, comment string) string {
	text := strings.TrimSpace(markupTag.ReplaceAllString(original, ""))
	if utf8.RuneCountInString(text) > quoteLimit {
		text = string([]rune(text)[:quoteLimit]) + "..."
	}
	body := "[qt]" + text + "[/qt]"
	if comment != "" {
		body += "\n" + comment
	}
	return body
}
