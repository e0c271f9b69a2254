// Package classifier turns chat message text into a structured analysis using
// lexicon and pattern heuristics.
package classifier

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/rs/zerolog"

	"github.com/engetsu-hub/chatwork-ai-manager/internal/models"
)

// Summary strings are part of the rendered alert text.
const (
	summaryPlain  = "通常メッセージ"
	summaryFailed = "分析エラー"
)

// Analyzer classifies messages. The zero value is not usable; call New.
type Analyzer struct {
	now    func() time.Time
	loc    *time.Location
	logger zerolog.Logger
}

// Option configures an Analyzer.
type Option func(*Analyzer)

// WithClock sets the time source used to resolve relative deadlines.
func WithClock(now func() time.Time) Option {
	return func(a *Analyzer) { a.now = now }
}

// WithLocation sets the time zone deadlines are resolved in.
func WithLocation(loc *time.Location) Option {
	return func(a *Analyzer) { a.loc = loc }
}

// WithLogger sets the logger used to report recovered failures.
func WithLogger(logger zerolog.Logger) Option {
	return func(a *Analyzer) { a.logger = logger.With().Str("component", "classifier").Logger() }
}

// New creates an Analyzer using the wall clock and local time zone.
func New(opts ...Option) *Analyzer {
	a := &Analyzer{now: time.Now, loc: time.Local, logger: zerolog.Nop()}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

var defaultAnalyzer = New()

// Analyze classifies msg with the default analyzer.
func Analyze(msg models.Message) models.Classification {
	return defaultAnalyzer.Analyze(msg)
}

// Analyze classifies msg. It never fails: any internal fault produces a
// result that does not require a reply.
func (a *Analyzer) Analyze(msg models.Message) (result models.Classification) {
	defer func() {
		if r := recover(); r != nil {
			a.logger.Error().
				Str("room_id", msg.RoomID).
				Str("message_id", msg.ID).
				Interface("panic", r).
				Msg("analysis failed")
			result = fallback()
		}
	}()

	text := msg.Body
	now := a.now().In(a.loc)

	tasks := extractTasks(text, now)
	questions := detectQuestions(text)
	mentions := extractMentions(text)
	priority := determinePriority(text)

	result = models.Classification{
		RequiresReply: requiresReply(text, tasks, questions, mentions, priority),
		Priority:      priority,
		Tasks:         tasks,
		Questions:     questions,
		Mentions:      mentions,
		Deadline:      extractDeadline(text, now),
		Sentiment:     analyzeSentiment(text),
		Summary:       summarize(tasks, questions, priority),
		Confidence:    confidence(text, tasks, questions, mentions),
	}

	a.logger.Debug().
		Str("message_id", msg.ID).
		Int("tasks", len(tasks)).
		Bool("requires_reply", result.RequiresReply).
		Str("priority", string(priority)).
		Msg("analysis completed")
	return result
}

func fallback() models.Classification {
	return models.Classification{
		Priority:  models.PriorityNormal,
		Tasks:     []models.Task{},
		Questions: []string{},
		Mentions:  []int64{},
		Sentiment: models.SentimentNeutral,
		Summary:   summaryFailed,
	}
}

func extractTasks(text string, now time.Time) []models.Task {
	tasks := []models.Task{}
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		desc := line
		isTask := matchesAny(taskPatterns, line)
		if m := bulletPattern.FindStringSubmatch(line); m != nil {
			item := strings.TrimSpace(m[1])
			if utf8.RuneCountInString(item) > 5 && !matchesAny(noReplyPatterns, item) {
				isTask = true
				desc = item
			}
		}
		if !isTask {
			continue
		}

		tasks = append(tasks, models.Task{
			Description:   desc,
			Assignees:     extractMentions(desc),
			Deadline:      extractDeadline(desc, now),
			Priority:      determinePriority(desc),
			EstimatedTime: estimateTime(desc),
		})
	}
	return tasks
}

func detectQuestions(text string) []string {
	questions := []string{}
	for _, sentence := range sentenceSplitter.Split(text, -1) {
		sentence = strings.TrimSpace(sentence)
		if sentence != "" && matchesAny(questionPatterns, sentence) {
			questions = append(questions, sentence)
		}
	}
	return questions
}

func extractMentions(text string) []int64 {
	mentions := []int64{}
	seen := make(map[int64]bool)
	for _, m := range mentionPattern.FindAllStringSubmatch(fold(text), -1) {
		id, err := strconv.ParseInt(m[1], 10, 64)
		if err != nil || seen[id] {
			continue
		}
		seen[id] = true
		mentions = append(mentions, id)
	}
	return mentions
}

func determinePriority(text string) models.Priority {
	folded := normalize(text)
	for _, level := range urgencyLexicon {
		if countHits(folded, level.keywords) > 0 {
			return level.priority
		}
	}
	if strings.Count(text, "!")+strings.Count(text, "！") >= 2 {
		return models.PriorityHigh
	}
	return models.PriorityNormal
}

func analyzeSentiment(text string) models.Sentiment {
	folded := normalize(text)
	pos := countHits(folded, positiveWords)
	neg := countHits(folded, negativeWords)
	switch {
	case pos > neg:
		return models.SentimentPositive
	case neg > pos:
		return models.SentimentNegative
	default:
		return models.SentimentNeutral
	}
}

func requiresReply(text string, tasks []models.Task, questions []string, mentions []int64, priority models.Priority) bool {
	if matchesAny(noReplyPatterns, text) {
		return false
	}
	return len(mentions) > 0 ||
		len(questions) > 0 ||
		len(tasks) > 0 ||
		priority == models.PriorityHigh
}

func summarize(tasks []models.Task, questions []string, priority models.Priority) string {
	var parts []string
	if len(tasks) > 0 {
		parts = append(parts, fmt.Sprintf("タスク%d件", len(tasks)))
	}
	if len(questions) > 0 {
		parts = append(parts, fmt.Sprintf("質問%d件", len(questions)))
	}
	if priority == models.PriorityHigh {
		parts = append(parts, "高優先度")
	}
	if len(parts) == 0 {
		return summaryPlain
	}
	return "検出: " + strings.Join(parts, ", ")
}

func confidence(text string, tasks []models.Task, questions []string, mentions []int64) float64 {
	score := 0.3 * math.Min(float64(utf8.RuneCountInString(text))/100, 1)
	score += math.Min(0.2*float64(len(tasks)), 0.4)
	score += math.Min(0.15*float64(len(questions)), 0.3)
	if len(mentions) > 0 {
		score += 0.2
	}
	return math.Max(0, math.Min(score, 1))
}

func estimateTime(text string) string {
	text = fold(text)
	for _, re := range estimatedTimeRules {
		if m := re.FindString(text); m != "" {
			return m
		}
	}
	return ""
}
