package classifier

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/engetsu-hub/chatwork-ai-manager/internal/models"
)

var jst = time.FixedZone("JST", 9*60*60)

// Thursday.
var fixedNow = time.Date(2026, 10, 15, 10, 0, 0, 0, jst)

func newTestAnalyzer() *Analyzer {
	return New(WithClock(func() time.Time { return fixedNow }), WithLocation(jst))
}

func analyzeText(text string) models.Classification {
	return newTestAnalyzer().Analyze(models.Message{ID: "1", RoomID: "100", Body: text})
}

func endOfDayOn(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 23, 59, 59, 0, jst)
}

func TestUrgentRequestWithMention(t *testing.T) {
	res := analyzeText("緊急！今日中に確認してください [To:123]")

	assert.Equal(t, models.PriorityHigh, res.Priority)
	assert.True(t, res.RequiresReply)
	assert.Equal(t, []int64{123}, res.Mentions)
	require.NotNil(t, res.Deadline)
	assert.True(t, endOfDayOn(2026, 10, 15).Equal(*res.Deadline))
	require.Len(t, res.Tasks, 1)
	assert.Equal(t, []int64{123}, res.Tasks[0].Assignees)
	assert.Equal(t, "検出: タスク1件, 高優先度", res.Summary)
	assert.Equal(t, models.SentimentNegative, res.Sentiment)
}

func TestExclamationMarksImplyHighPriority(t *testing.T) {
	for _, text := range []string{"これ見て!!", "これ見て！！", "えっ!本当！"} {
		res := analyzeText(text)
		assert.Equal(t, models.PriorityHigh, res.Priority, text)
		assert.True(t, res.RequiresReply, text)
	}
	assert.Equal(t, models.PriorityNormal, analyzeText("これ見て!").Priority)
}

func TestUrgencyLexiconOrder(t *testing.T) {
	tests := []struct {
		text string
		want models.Priority
	}{
		{"至急お願いします", models.PriorityHigh},
		{"ＡＳＡＰで", models.PriorityHigh},
		{"asap please", models.PriorityHigh},
		{"なるべく早く!!", models.PriorityNormal},
		{"お手すきで見ておいてください", models.PriorityLow},
		{"いつでも大丈夫、でも重要です", models.PriorityHigh},
		{"こんにちは", models.PriorityNormal},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, determinePriority(tt.text), tt.text)
	}
}

func TestNoReplyLexiconWinsOverMention(t *testing.T) {
	res := analyzeText("[To:123] 資料を共有します。ご確認をお願いします？")

	assert.False(t, res.RequiresReply)
	assert.Equal(t, []int64{123}, res.Mentions)
	assert.NotEmpty(t, res.Questions)
}

func TestNoReplyPhrases(t *testing.T) {
	for _, text := range []string{"了解です [To:1]", "お疲れ様でした!!", "FYI: release done", "ありがとうございます？"} {
		assert.False(t, analyzeText(text).RequiresReply, text)
	}
}

func TestQuestionDetection(t *testing.T) {
	res := analyzeText("資料を見ました。どこに置けばいいでしょうか\n会議は15時でいい?\nよろしく")

	assert.Equal(t, []string{"どこに置けばいいでしょうか", "会議は15時でいい?"}, res.Questions)
	assert.True(t, res.RequiresReply)
	assert.Equal(t, "検出: 質問2件", res.Summary)
}

func TestMentionsAreDeduplicated(t *testing.T) {
	assert.Equal(t, []int64{5, 7}, extractMentions("[To:5][To:7] hi [To:5] [to:7]"))
	assert.Empty(t, extractMentions("[To:abc] hello"))
}

func TestTaskExtraction(t *testing.T) {
	text := "・資料を作成してください\n・議事録の修正\n- OK\nテストをお願いします"
	tasks := extractTasks(text, fixedNow)

	require.Len(t, tasks, 3)
	assert.Equal(t, "資料を作成してください", tasks[0].Description)
	assert.Equal(t, "議事録の修正", tasks[1].Description)
	assert.Equal(t, "テストをお願いします", tasks[2].Description)
}

func TestBulletItemsMatchingNoReplyAreSkipped(t *testing.T) {
	tasks := extractTasks("・進捗を共有するだけです\n・短い", fixedNow)
	assert.Empty(t, tasks)
}

func TestTaskFields(t *testing.T) {
	tasks := extractTasks("・API実装 3時間くらい [To:5] 明日まで 至急", fixedNow)

	require.Len(t, tasks, 1)
	task := tasks[0]
	assert.Equal(t, []int64{5}, task.Assignees)
	assert.Equal(t, "3時間", task.EstimatedTime)
	assert.Equal(t, models.PriorityHigh, task.Priority)
	require.NotNil(t, task.Deadline)
	assert.True(t, endOfDayOn(2026, 10, 16).Equal(*task.Deadline))
}

func TestFullWidthDigits(t *testing.T) {
	res := analyzeText("１２月２５日までに資料を作成してください。３時間くらいかかります ［Ｔｏ：１２３］")

	require.NotNil(t, res.Deadline)
	assert.True(t, endOfDayOn(2026, 12, 25).Equal(*res.Deadline))
	assert.Equal(t, []int64{123}, res.Mentions)
	require.Len(t, res.Tasks, 1)
	assert.Equal(t, "3時間", res.Tasks[0].EstimatedTime)
	assert.Equal(t, []int64{123}, res.Tasks[0].Assignees)
	require.NotNil(t, res.Tasks[0].Deadline)
	assert.True(t, endOfDayOn(2026, 12, 25).Equal(*res.Tasks[0].Deadline))
}

func TestDeadlineGrammar(t *testing.T) {
	tests := []struct {
		text string
		want *time.Time
	}{
		{"2026年12月1日までに", ptr(endOfDayOn(2026, 12, 1))},
		{"2027-01-05 締切", ptr(endOfDayOn(2027, 1, 5))},
		{"12/24に", ptr(endOfDayOn(2026, 12, 24))},
		{"3月1日まで", ptr(endOfDayOn(2027, 3, 1))},
		{"20日にお願いします", ptr(endOfDayOn(2026, 10, 20))},
		{"10日に", ptr(endOfDayOn(2026, 11, 10))},
		{"１２月２５日までに", ptr(endOfDayOn(2026, 12, 25))},
		{"２０２７／０１／０５", ptr(endOfDayOn(2027, 1, 5))},
		{"２０日に", ptr(endOfDayOn(2026, 10, 20))},
		{"今日中", ptr(endOfDayOn(2026, 10, 15))},
		{"明日まで", ptr(endOfDayOn(2026, 10, 16))},
		{"今週中", ptr(endOfDayOn(2026, 10, 18))},
		{"来週", ptr(endOfDayOn(2026, 10, 25))},
		{"2026/02/30", nil},
		{"13月40日", nil},
		{"特になし", nil},
	}
	for _, tt := range tests {
		got := extractDeadline(tt.text, fixedNow)
		if tt.want == nil {
			assert.Nil(t, got, tt.text)
			continue
		}
		require.NotNil(t, got, tt.text)
		assert.True(t, tt.want.Equal(*got), "%s: got %v want %v", tt.text, got, tt.want)
	}
}

func TestThisWeekOnSundayIsToday(t *testing.T) {
	sunday := time.Date(2026, 10, 18, 9, 0, 0, 0, jst)
	got := extractDeadline("今週", sunday)
	require.NotNil(t, got)
	assert.True(t, endOfDayOn(2026, 10, 18).Equal(*got))
}

func TestSentiment(t *testing.T) {
	assert.Equal(t, models.SentimentPositive, analyzeSentiment("ありがとう、最高です"))
	assert.Equal(t, models.SentimentNegative, analyzeSentiment("問題が発生、トラブルです"))
	assert.Equal(t, models.SentimentNeutral, analyzeSentiment("問題ありましたがありがとう"))
	assert.Equal(t, models.SentimentNeutral, analyzeSentiment("hello"))
}

func TestConfidenceBounds(t *testing.T) {
	inputs := []string{
		"",
		"a",
		strings.Repeat("あ", 500),
		strings.Repeat("・資料を作成してください？ [To:1]\n", 50),
		"[To:1][To:2] どうしますか？いつですか？なぜですか？",
	}
	for _, in := range inputs {
		res := analyzeText(in)
		assert.GreaterOrEqual(t, res.Confidence, 0.0, in)
		assert.LessOrEqual(t, res.Confidence, 1.0, in)
	}
}

func TestConfidenceFormula(t *testing.T) {
	tasks := []models.Task{{}, {}, {}}
	questions := []string{"q"}
	got := confidence(strings.Repeat("x", 50), tasks, questions, []int64{1})
	assert.InDelta(t, 0.15+0.4+0.15+0.2, got, 1e-9)

	assert.InDelta(t, 1.0, confidence(strings.Repeat("x", 200), tasks, []string{"a", "b", "c"}, []int64{1}), 1e-9)
}

func TestPlainMessage(t *testing.T) {
	res := analyzeText("おはようございます")

	assert.False(t, res.RequiresReply)
	assert.Equal(t, "通常メッセージ", res.Summary)
	assert.NotNil(t, res.Tasks)
	assert.NotNil(t, res.Questions)
	assert.NotNil(t, res.Mentions)
	assert.Nil(t, res.Deadline)
}

func TestPanicYieldsSafeDefault(t *testing.T) {
	a := New(WithClock(func() time.Time { panic("clock broke") }))

	res := a.Analyze(models.Message{Body: "緊急 [To:1]"})

	assert.False(t, res.RequiresReply)
	assert.Equal(t, models.PriorityNormal, res.Priority)
	assert.Equal(t, models.SentimentNeutral, res.Sentiment)
	assert.Equal(t, "分析エラー", res.Summary)
	assert.Empty(t, res.Tasks)
	assert.Empty(t, res.Mentions)
}

func ptr(t time.Time) *time.Time { return &t }
