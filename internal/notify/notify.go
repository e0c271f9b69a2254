// Package notify delivers rendered reminder alerts.
package notify

import (
	"context"
	"unicode/utf8"

	"github.com/rs/zerolog"
)

// Notifier delivers alert text for a room. Delivery is best effort: callers
// log failures and never retry synchronously.
type Notifier interface {
	Deliver(ctx context.Context, roomID, text string) error

	// Name returns the notifier type for logging and metrics.
	Name() string
}

// Log writes alerts to the log instead of posting them anywhere.
type Log struct {
	logger zerolog.Logger
}

// NewLog creates a log-only notifier.
func NewLog(logger zerolog.Logger) *Log {
	return &Log{logger: logger.With().Str("component", "notifier").Logger()}
}

// Deliver logs the first 100 characters of the alert.
func (l *Log) Deliver(_ context.Context, roomID, text string) error {
	l.logger.Info().
		Str("room_id", roomID).
		Str("alert", preview(text, 100)).
		Msg("alert generated (not sent)")
	return nil
}

func (l *Log) Name() string { return "log" }

func preview(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	return string([]rune(s)[:n]) + "..."
}
