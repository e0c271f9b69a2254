package classifier

import (
	"regexp"
	"strings"

	"golang.org/x/text/width"

	"github.com/engetsu-hub/chatwork-ai-manager/internal/models"
)

// taskPatterns mark a line as a request, assignment or work item.
var taskPatterns = compileAll(
	`(?i)(?:お願い|依頼|タスク|TODO|やること|作業|実装|修正|対応)(?:し|を|が)`,
	`(?:〜してください|〜して下さい|〜してもらえ|〜お願いします)`,
	`(?:確認|チェック|レビュー|テスト|検証)(?:を|して|お願い)`,
	`(?:作成|制作|開発|実装|設計)(?:を|して|してください)`,
	`(?:調査|調べ|検討|考え)(?:て|を|してください)`,
)

// questionPatterns match a single sentence.
var questionPatterns = compileAll(
	`[？?]$`,
	`(?:どう|どの|どこ|いつ|なぜ|どうして|どのように)`,
	`(?:ですか|でしょうか|ましょうか|ませんか)$`,
	`(?:教えて|知りたい|分かる|わかる|聞きたい)`,
)

// noReplyPatterns are sharing, acknowledgement and closing phrases.
var noReplyPatterns = compileAll(
	`(?i)(?:共有|報告|連絡|お知らせ|FYI|参考|完了|終了)`,
	`(?i)(?:ありがとう|感謝|了解|承知|OK|おっけー)`,
	`(?:お疲れさま|お疲れ様|お先に)`,
)

var (
	mentionPattern     = regexp.MustCompile(`(?i)\[to:(\d+)\]`)
	bulletPattern      = regexp.MustCompile(`^\s*[・•●○▪▫□☐\-\*]\s*(.+)`)
	sentenceSplitter   = regexp.MustCompile(`[。．\n]`)
	estimatedTimeRules = compileAll(
		`(\d+)\s*時間`,
		`(\d+)\s*分`,
		`(\d+)\s*日`,
		`(\d+)\s*週間`,
	)
)

type urgencyLevel struct {
	priority models.Priority
	keywords []string
}

// urgencyLexicon is scanned in order; the first level with a hit wins.
// The medium tier has no priority class of its own and maps to normal.
var urgencyLexicon = []urgencyLevel{
	{models.PriorityHigh, []string{"緊急", "至急", "ASAP", "今すぐ", "即", "急ぎ", "重要", "クリティカル"}},
	{models.PriorityNormal, []string{"なるべく早く", "できれば", "可能であれば", "お早めに"}},
	{models.PriorityLow, []string{"時間があるとき", "お手すきで", "ゆっくり", "いつでも"}},
}

var (
	positiveWords = []string{"ありがとう", "素晴らしい", "良い", "いいね", "完璧", "最高", "助かり"}
	negativeWords = []string{"問題", "困った", "遅れ", "失敗", "ダメ", "最悪", "緊急", "トラブル"}
)

func compileAll(exprs ...string) []*regexp.Regexp {
	out := make([]*regexp.Regexp, len(exprs))
	for i, e := range exprs {
		out[i] = regexp.MustCompile(e)
	}
	return out
}

func matchesAny(patterns []*regexp.Regexp, s string) bool {
	for _, p := range patterns {
		if p.MatchString(s) {
			return true
		}
	}
	return false
}

// fold maps full-width digits and punctuation to ASCII so numeric patterns
// see "１２月" as "12月".
func fold(s string) string {
	return width.Fold.String(s)
}

// normalize folds case and character width so "ＡＳＡＰ" and "asap" match.
func normalize(s string) string {
	return strings.ToLower(fold(s))
}

func countHits(text string, words []string) int {
	n := 0
	for _, w := range words {
		if strings.Contains(text, normalize(w)) {
			n++
		}
	}
	return n
}
