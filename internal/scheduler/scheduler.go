// Package scheduler tracks unresolved reply-worthy messages and fires
// reminders on an escalating cadence.
package scheduler

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/engetsu-hub/chatwork-ai-manager/internal/metrics"
	"github.com/engetsu-hub/chatwork-ai-manager/internal/models"
	"github.com/engetsu-hub/chatwork-ai-manager/internal/notify"
)

// Config holds reminder thresholds and escalation settings.
type Config struct {
	HighThreshold   time.Duration
	NormalThreshold time.Duration
	LowThreshold    time.Duration

	// EscalationIntervals[k] is the wait after the (k+1)-th reminder. The last
	// interval repeats once the list is exhausted.
	EscalationIntervals []time.Duration
	MaxEscalationLevel  int

	// Retention bounds how long an entry may stay pending.
	Retention time.Duration
}

// DefaultConfig returns the stock thresholds.
func DefaultConfig() Config {
	return Config{
		HighThreshold:       30 * time.Minute,
		NormalThreshold:     2 * time.Hour,
		LowThreshold:        24 * time.Hour,
		EscalationIntervals: []time.Duration{60 * time.Minute, 180 * time.Minute, 360 * time.Minute},
		MaxEscalationLevel:  3,
		Retention:           48 * time.Hour,
	}
}

// OldestAlert describes the longest-waiting pending entry.
type OldestAlert struct {
	RoomID    string    `json:"room_id"`
	MessageID string    `json:"message_id"`
	Sender    string    `json:"sender"`
	AddedAt   time.Time `json:"added_at"`
	Elapsed   string    `json:"time_elapsed"`
}

// Summary aggregates the pending table.
type Summary struct {
	Total      int                     `json:"total"`
	ByPriority map[models.Priority]int `json:"by_priority"`
	ByRoom     map[string]int          `json:"by_room"`
	Oldest     *OldestAlert            `json:"oldest_alert"`
}

// Option configures a Scheduler.
type Option func(*Scheduler)

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(s *Scheduler) { s.now = now }
}

// Renderer builds the alert text for a pending entry as of now.
type Renderer func(a models.PendingAlert, now time.Time) string

// WithRenderer replaces RenderAlert, e.g. for plain-text consumers.
func WithRenderer(r Renderer) Option {
	return func(s *Scheduler) { s.render = r }
}

// Scheduler owns the pending-alert table.
type Scheduler struct {
	cfg      Config
	notifier notify.Notifier
	logger   zerolog.Logger
	now      func() time.Time
	render   Renderer

	mu      sync.Mutex
	pending map[string]*models.PendingAlert
}

// New creates a Scheduler delivering through notifier.
func New(cfg Config, notifier notify.Notifier, logger zerolog.Logger, opts ...Option) *Scheduler {
	s := &Scheduler{
		cfg:      cfg,
		notifier: notifier,
		logger:   logger.With().Str("component", "scheduler").Logger(),
		now:      time.Now,
		render:   RenderAlert,
		pending:  make(map[string]*models.PendingAlert),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Add starts tracking msg. It returns false when the message is already
// pending; the existing entry keeps its timers.
func (s *Scheduler) Add(msg models.Message, analysis models.Classification) bool {
	key := msg.Key()

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.pending[key]; ok {
		return false
	}
	s.pending[key] = &models.PendingAlert{
		Message:  msg,
		Analysis: analysis,
		AddedAt:  s.now(),
	}
	metrics.AlertsPending.Set(float64(len(s.pending)))

	s.logger.Info().
		Str("alert_id", key).
		Str("priority", string(analysis.Priority)).
		Msg("alert scheduled")
	return true
}

// Resolve stops tracking a message. Unknown keys are a no-op.
func (s *Scheduler) Resolve(roomID, messageID string) bool {
	key := models.AlertKey(roomID, messageID)

	s.mu.Lock()
	_, ok := s.pending[key]
	delete(s.pending, key)
	metrics.AlertsPending.Set(float64(len(s.pending)))
	s.mu.Unlock()

	if ok {
		metrics.AlertsRemoved.WithLabelValues("resolved").Inc()
		s.logger.Info().Str("alert_id", key).Msg("alert resolved")
	}
	return ok
}

type firing struct {
	key   string
	alert models.PendingAlert // state before this firing
}

// Sweep fires every due reminder and returns the keys fired. Counters are
// committed before delivery, so a failed delivery is not retried.
func (s *Scheduler) Sweep(ctx context.Context) []string {
	now := s.now()
	due := s.claimDue(now)

	keys := make([]string, 0, len(due))
	for _, f := range due {
		keys = append(keys, f.key)
	}
	for _, f := range due {
		metrics.AlertsFired.WithLabelValues(string(f.alert.Analysis.Priority)).Inc()
		if ctx.Err() != nil {
			continue
		}
		text := s.render(f.alert, now)
		if err := s.notifier.Deliver(ctx, f.alert.Message.RoomID, text); err != nil {
			metrics.AlertDeliveryFailures.WithLabelValues(s.notifier.Name()).Inc()
			s.logger.Error().Err(err).
				Str("alert_id", f.key).
				Str("notifier", s.notifier.Name()).
				Msg("alert delivery failed")
			continue
		}
		s.logger.Info().Str("alert_id", f.key).Msg("alert sent")
	}
	return keys
}

// claimDue advances the bookkeeping of every due entry and returns copies
// taken before the advance, sorted by key. Nothing that can fail runs under
// the lock.
func (s *Scheduler) claimDue(now time.Time) []firing {
	s.mu.Lock()
	defer s.mu.Unlock()

	var due []firing
	for key, a := range s.pending {
		if !s.isDue(a, now) {
			continue
		}
		snapshot := *a
		if a.LastAlertAt != nil {
			t := *a.LastAlertAt
			snapshot.LastAlertAt = &t
		}
		due = append(due, firing{key: key, alert: snapshot})

		fired := now
		a.AlertsSent++
		a.LastAlertAt = &fired
		a.EscalationLevel++
	}
	sort.Slice(due, func(i, j int) bool { return due[i].key < due[j].key })
	return due
}

// isDue must be called with s.mu held.
func (s *Scheduler) isDue(a *models.PendingAlert, now time.Time) bool {
	if a.AlertsSent == 0 {
		return now.Sub(a.AddedAt) >= s.threshold(a.Analysis.Priority)
	}
	if a.LastAlertAt == nil || a.EscalationLevel >= s.cfg.MaxEscalationLevel {
		return false
	}
	intervals := s.cfg.EscalationIntervals
	if len(intervals) == 0 {
		return false
	}
	idx := a.EscalationLevel - 1
	if idx < 0 {
		idx = 0
	}
	if idx > len(intervals)-1 {
		idx = len(intervals) - 1
	}
	return now.Sub(*a.LastAlertAt) >= intervals[idx]
}

func (s *Scheduler) threshold(p models.Priority) time.Duration {
	switch p {
	case models.PriorityHigh:
		return s.cfg.HighThreshold
	case models.PriorityNormal:
		return s.cfg.NormalThreshold
	default:
		return s.cfg.LowThreshold
	}
}

// Expire drops entries pending longer than the configured retention and
// returns their keys.
func (s *Scheduler) Expire() []string {
	cutoff := s.now().Add(-s.cfg.Retention)

	s.mu.Lock()
	var expired []string
	for key, a := range s.pending {
		if a.AddedAt.Before(cutoff) {
			expired = append(expired, key)
			delete(s.pending, key)
		}
	}
	metrics.AlertsPending.Set(float64(len(s.pending)))
	s.mu.Unlock()

	if len(expired) > 0 {
		sort.Strings(expired)
		metrics.AlertsRemoved.WithLabelValues("expired").Add(float64(len(expired)))
		s.logger.Info().Int("count", len(expired)).Msg("cleared old alerts")
	}
	return expired
}

// ForceSweep runs a sweep immediately and returns the keys still pending.
func (s *Scheduler) ForceSweep(ctx context.Context) []string {
	s.Sweep(ctx)

	s.mu.Lock()
	defer s.mu.Unlock()
	keys := make([]string, 0, len(s.pending))
	for key := range s.pending {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}

// Len returns the number of pending entries.
func (s *Scheduler) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.pending)
}

// Pending returns a copy of every pending entry, oldest first.
func (s *Scheduler) Pending() []models.PendingAlert {
	s.mu.Lock()
	out := make([]models.PendingAlert, 0, len(s.pending))
	for _, a := range s.pending {
		cp := *a
		if a.LastAlertAt != nil {
			t := *a.LastAlertAt
			cp.LastAlertAt = &t
		}
		out = append(out, cp)
	}
	s.mu.Unlock()

	sort.Slice(out, func(i, j int) bool {
		if !out[i].AddedAt.Equal(out[j].AddedAt) {
			return out[i].AddedAt.Before(out[j].AddedAt)
		}
		return out[i].Key() < out[j].Key()
	})
	return out
}

// Summary aggregates pending entries by priority and room.
func (s *Scheduler) Summary() Summary {
	now := s.now()
	sum := Summary{
		ByPriority: map[models.Priority]int{
			models.PriorityHigh:   0,
			models.PriorityNormal: 0,
			models.PriorityLow:    0,
		},
		ByRoom: make(map[string]int),
	}

	pending := s.Pending()
	sum.Total = len(pending)
	for _, a := range pending {
		sum.ByPriority[a.Analysis.Priority]++
		sum.ByRoom[a.Message.RoomID]++
	}
	if len(pending) > 0 {
		oldest := pending[0]
		sum.Oldest = &OldestAlert{
			RoomID:    oldest.Message.RoomID,
			MessageID: oldest.Message.ID,
			Sender:    oldest.Message.Account.Name,
			AddedAt:   oldest.AddedAt,
			Elapsed:   FormatElapsed(now.Sub(oldest.AddedAt)),
		}
	}
	return sum
}

// Run sweeps every interval until ctx is cancelled.
func (s *Scheduler) Run(ctx context.Context, every time.Duration) {
	s.logger.Info().Dur("interval", every).Msg("starting alert scheduler")
	ticker := time.NewTicker(every)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.logger.Info().Msg("alert scheduler stopped")
			return
		case <-ticker.C:
			s.safeSweep(ctx)
		}
	}
}

func (s *Scheduler) safeSweep(ctx context.Context) {
	defer func() {
		if r := recover(); r != nil {
			s.logger.Error().Interface("panic", r).Msg("alert sweep failed")
		}
	}()
	s.Sweep(ctx)
}
