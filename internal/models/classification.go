package models

import "time"

// Priority is the urgency class of a message or task.
type Priority string

const (
	PriorityHigh   Priority = "high"
	PriorityNormal Priority = "normal"
	PriorityLow    Priority = "low"
)

// Sentiment is the coarse tone of a message.
type Sentiment string

const (
	SentimentPositive Sentiment = "positive"
	SentimentNegative Sentiment = "negative"
	SentimentNeutral  Sentiment = "neutral"
)

// Task is an action item extracted from a message line.
type Task struct {
	Description   string     `json:"description"`
	Assignees     []int64    `json:"assignees"`
	Deadline      *time.Time `json:"deadline,omitempty"`
	Priority      Priority   `json:"priority"`
	EstimatedTime string     `json:"estimated_time,omitempty"`
}

// Classification is the result of analyzing one message.
type Classification struct {
	RequiresReply bool       `json:"requires_reply"`
	Priority      Priority   `json:"priority"`
	Tasks         []Task     `json:"tasks"`
	Questions     []string   `json:"questions"`
	Mentions      []int64    `json:"mentions"`
	Deadline      *time.Time `json:"deadline,omitempty"`
	Sentiment     Sentiment  `json:"sentiment"`
	Summary       string     `json:"summary"`
	Confidence    float64    `json:"confidence_score"`
}
