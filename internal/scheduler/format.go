package scheduler

import (
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/engetsu-hub/chatwork-ai-manager/internal/models"
)

const (
	bodyPreviewRunes = 100
	taskPreviewRunes = 50
	maxListedTasks   = 3
)

var priorityEmoji = map[models.Priority]string{
	models.PriorityHigh:   "🚨",
	models.PriorityNormal: "⚠️",
	models.PriorityLow:    "ℹ️",
}

// RenderAlert builds the Chatwork-markup reminder for a pending alert as of
// now. The escalation suffix reflects the level before this firing.
func RenderAlert(a models.PendingAlert, now time.Time) string {
	emoji, ok := priorityEmoji[a.Analysis.Priority]
	if !ok {
		emoji = priorityEmoji[models.PriorityNormal]
	}

	escalation := ""
	if a.EscalationLevel > 0 {
		escalation = fmt.Sprintf(" (エスカレーション %d回目)", a.EscalationLevel)
	}

	body := a.Message.Body
	if utf8.RuneCountInString(body) > bodyPreviewRunes {
		body = truncate(body, bodyPreviewRunes) + "..."
	}

	var b strings.Builder
	if len(a.Analysis.Mentions) > 0 {
		tokens := make([]string, len(a.Analysis.Mentions))
		for i, id := range a.Analysis.Mentions {
			tokens[i] = fmt.Sprintf("[To:%d]", id)
		}
		b.WriteString(strings.Join(tokens, " "))
		b.WriteString("\n\n")
	}

	fmt.Fprintf(&b, "[info][title]%s 未返信メッセージのお知らせ%s[/title]\n", emoji, escalation)
	fmt.Fprintf(&b, "差出人: %s\n", a.Message.Account.Name)
	fmt.Fprintf(&b, "経過時間: %s\n", FormatElapsed(now.Sub(a.AddedAt)))
	fmt.Fprintf(&b, "優先度: %s\n", a.Analysis.Priority)
	fmt.Fprintf(&b, "\n元メッセージ:\n%s\n\n分析結果:\n%s", body, a.Analysis.Summary)

	if n := len(a.Analysis.Tasks); n > 0 {
		fmt.Fprintf(&b, "\n\n抽出されたタスク: %d件", n)
		for i, task := range a.Analysis.Tasks {
			if i == maxListedTasks {
				break
			}
			fmt.Fprintf(&b, "\n%d. %s...", i+1, truncate(task.Description, taskPreviewRunes))
		}
	}

	if n := len(a.Analysis.Questions); n > 0 {
		fmt.Fprintf(&b, "\n\n質問: %d件", n)
	}

	b.WriteString("[/info]")
	return b.String()
}

// FormatElapsed renders whole minutes as 日/時間/分. Minutes are always shown;
// hours are shown when non-zero or when days are present.
func FormatElapsed(d time.Duration) string {
	total := int(d / time.Minute)
	if total < 0 {
		total = 0
	}
	minutes := total % 60
	hours := total / 60 % 24
	days := total / (60 * 24)

	switch {
	case days > 0:
		return fmt.Sprintf("%d日%d時間%d分", days, hours, minutes)
	case hours > 0:
		return fmt.Sprintf("%d時間%d分", hours, minutes)
	default:
		return fmt.Sprintf("%d分", minutes)
	}
}

func truncate(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	return string([]rune(s)[:n])
}
