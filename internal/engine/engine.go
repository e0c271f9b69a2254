// Package engine runs the triage pipeline: poll rooms, detect changes,
// classify new messages and hand reply-worthy ones to the scheduler.
package engine

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"
	"unicode/utf8"

	"github.com/oklog/ulid/v2"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/engetsu-hub/chatwork-ai-manager/internal/classifier"
	"github.com/engetsu-hub/chatwork-ai-manager/internal/detector"
	"github.com/engetsu-hub/chatwork-ai-manager/internal/metrics"
	"github.com/engetsu-hub/chatwork-ai-manager/internal/models"
	"github.com/engetsu-hub/chatwork-ai-manager/internal/scheduler"
	"github.com/engetsu-hub/chatwork-ai-manager/internal/source"
)

const (
	// AuditCapacity bounds the processed-message log.
	AuditCapacity = 100

	auditBodyRunes = 200
)

// Config holds loop cadences and retention.
type Config struct {
	Rooms              []string
	PollInterval       time.Duration
	ErrorInterval      time.Duration
	SweepInterval      time.Duration
	CleanupInterval    time.Duration
	ProcessedRetention time.Duration
}

// DefaultConfig returns the stock cadences for rooms.
func DefaultConfig(rooms ...string) Config {
	return Config{
		Rooms:              rooms,
		PollInterval:       30 * time.Second,
		ErrorInterval:      60 * time.Second,
		SweepInterval:      60 * time.Second,
		CleanupInterval:    time.Hour,
		ProcessedRetention: 24 * time.Hour,
	}
}

// Result summarizes one room check.
type Result struct {
	RoomID    string                    `json:"room_id"`
	New       int                       `json:"new_messages"`
	Deleted   []models.DeletionRecord   `json:"deleted"`
	Processed []models.ProcessedMessage `json:"processed"`
	Scheduled []string                  `json:"scheduled_alerts"`
}

// Status reports pipeline state for the API.
type Status struct {
	Running        bool       `json:"is_running"`
	Source         string     `json:"source"`
	Rooms          []string   `json:"monitored_rooms"`
	ProcessedCount int        `json:"processed_messages_count"`
	PendingAlerts  int        `json:"pending_alerts_count"`
	DeletedCount   int        `json:"deleted_messages_count"`
	LastCheck      *time.Time `json:"last_check"`
}

// Option configures an Engine.
type Option func(*Engine)

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) { e.now = now }
}

// WithAnalyzer overrides the classifier.
func WithAnalyzer(a *classifier.Analyzer) Option {
	return func(e *Engine) { e.analyzer = a }
}

// Engine owns all pipeline state. Nothing is shared through globals.
type Engine struct {
	cfg      Config
	src      source.Source
	sched    *scheduler.Scheduler
	detector *detector.Detector
	analyzer *classifier.Analyzer
	logger   zerolog.Logger
	now      func() time.Time

	running atomic.Bool

	mu        sync.RWMutex
	processed map[string]time.Time
	audit     []models.ProcessedMessage
	lastCheck *time.Time
}

// New creates an Engine.
func New(cfg Config, src source.Source, sched *scheduler.Scheduler, logger zerolog.Logger, opts ...Option) *Engine {
	e := &Engine{
		cfg:       cfg,
		src:       src,
		sched:     sched,
		detector:  detector.New(logger),
		logger:    logger.With().Str("component", "engine").Logger(),
		now:       time.Now,
		processed: make(map[string]time.Time),
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.analyzer == nil {
		e.analyzer = classifier.New(classifier.WithClock(e.now), classifier.WithLogger(logger))
	}
	return e
}

// CheckRoom polls one room and processes its new messages.
func (e *Engine) CheckRoom(ctx context.Context, roomID string) (Result, error) {
	start := time.Now()
	snapshot, err := e.src.Poll(ctx, roomID, true)
	metrics.SourceLatency.Observe(time.Since(start).Seconds())
	if err != nil {
		metrics.RoomPolls.WithLabelValues("error").Inc()
		return Result{RoomID: roomID}, fmt.Errorf("poll room %s: %w", roomID, err)
	}
	metrics.RoomPolls.WithLabelValues("ok").Inc()

	now := e.now()
	changes := e.detector.Observe(roomID, snapshot, now)
	res := Result{
		RoomID:    roomID,
		New:       len(changes.New),
		Deleted:   changes.Deleted,
		Processed: []models.ProcessedMessage{},
		Scheduled: []string{},
	}

	for _, msg := range changes.New {
		if e.isProcessed(msg.Key()) {
			continue
		}

		analysis := e.analyzer.Analyze(msg)
		entry := e.record(msg, analysis, now)
		res.Processed = append(res.Processed, entry)
		metrics.MessagesProcessed.WithLabelValues(string(analysis.Priority), fmt.Sprint(analysis.RequiresReply)).Inc()

		if analysis.RequiresReply && e.sched.Add(msg, analysis) {
			res.Scheduled = append(res.Scheduled, msg.Key())
		}
	}

	if len(res.Processed) > 0 {
		e.logger.Info().
			Str("room_id", roomID).
			Int("processed", len(res.Processed)).
			Int("scheduled", len(res.Scheduled)).
			Msg("room checked")
	}
	return res, nil
}

// PollOnce checks every monitored room. Per-room failures are joined; an
// authentication failure stops the pass immediately.
func (e *Engine) PollOnce(ctx context.Context) error {
	var errs []error
	for _, roomID := range e.cfg.Rooms {
		if err := ctx.Err(); err != nil {
			return err
		}
		if _, err := e.CheckRoom(ctx, roomID); err != nil {
			if errors.Is(err, source.ErrUnauthorized) {
				return err
			}
			e.logger.Error().Err(err).Str("room_id", roomID).Msg("room check failed")
			errs = append(errs, err)
		}
	}

	now := e.now()
	e.mu.Lock()
	e.lastCheck = &now
	e.mu.Unlock()
	return errors.Join(errs...)
}

// Run starts the ingest, sweep and cleanup loops and blocks until ctx is
// cancelled or the source rejects the credentials.
func (e *Engine) Run(ctx context.Context) error {
	e.running.Store(true)
	defer e.running.Store(false)

	e.logger.Info().
		Strs("rooms", e.cfg.Rooms).
		Str("source", e.src.Name()).
		Dur("poll_interval", e.cfg.PollInterval).
		Msg("starting monitoring")

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error { return e.ingestLoop(ctx) })
	g.Go(func() error {
		e.sched.Run(ctx, e.cfg.SweepInterval)
		return nil
	})
	g.Go(func() error {
		e.cleanupLoop(ctx)
		return nil
	})

	err := g.Wait()
	e.logger.Info().Msg("monitoring stopped")
	return err
}

func (e *Engine) ingestLoop(ctx context.Context) error {
	for {
		wait := e.cfg.PollInterval
		if err := e.safePoll(ctx); err != nil {
			if errors.Is(err, source.ErrUnauthorized) {
				e.logger.Error().Err(err).Msg("source rejected credentials, stopping")
				return err
			}
			if ctx.Err() != nil {
				return nil
			}
			wait = e.cfg.ErrorInterval
		}

		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil
		case <-timer.C:
		}
	}
}

func (e *Engine) safePoll(ctx context.Context) (err error) {
	defer func() {
		if r := recover(); r != nil {
			e.logger.Error().Interface("panic", r).Msg("poll cycle panicked")
			err = fmt.Errorf("poll cycle panicked: %v", r)
		}
	}()
	return e.PollOnce(ctx)
}

func (e *Engine) cleanupLoop(ctx context.Context) {
	ticker := time.NewTicker(e.cfg.CleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			e.Cleanup()
		}
	}
}

// Cleanup expires stale alerts and forgets old processed markers.
func (e *Engine) Cleanup() {
	e.sched.Expire()

	cutoff := e.now().Add(-e.cfg.ProcessedRetention)
	pruned := 0
	e.mu.Lock()
	for key, at := range e.processed {
		if at.Before(cutoff) {
			delete(e.processed, key)
			pruned++
		}
	}
	e.mu.Unlock()

	if pruned > 0 {
		e.logger.Info().Int("count", pruned).Msg("pruned processed markers")
	}
}

func (e *Engine) isProcessed(key string) bool {
	e.mu.RLock()
	defer e.mu.RUnlock()
	_, ok := e.processed[key]
	return ok
}

func (e *Engine) record(msg models.Message, analysis models.Classification, now time.Time) models.ProcessedMessage {
	body := msg.Body
	if utf8.RuneCountInString(body) > auditBodyRunes {
		body = string([]rune(body)[:auditBodyRunes]) + "..."
	}
	entry := models.ProcessedMessage{
		ID:          ulid.Make().String(),
		MessageID:   msg.ID,
		RoomID:      msg.RoomID,
		Sender:      msg.Account.Name,
		SenderID:    msg.Account.ID,
		Body:        body,
		SendTime:    msg.SendTime,
		ProcessedAt: now,
		Analysis:    analysis,
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	e.processed[msg.Key()] = now
	e.audit = append(e.audit, entry)
	if len(e.audit) > AuditCapacity {
		e.audit = append([]models.ProcessedMessage(nil), e.audit[len(e.audit)-AuditCapacity:]...)
	}
	return entry
}

// Status reports the current pipeline state.
func (e *Engine) Status() Status {
	e.mu.RLock()
	processed := len(e.processed)
	var last *time.Time
	if e.lastCheck != nil {
		t := *e.lastCheck
		last = &t
	}
	e.mu.RUnlock()

	deleted := 0
	for _, recs := range e.detector.AllDeleted() {
		deleted += len(recs)
	}

	return Status{
		Running:        e.running.Load(),
		Source:         e.src.Name(),
		Rooms:          append([]string{}, e.cfg.Rooms...),
		ProcessedCount: processed,
		PendingAlerts:  e.sched.Len(),
		DeletedCount:   deleted,
		LastCheck:      last,
	}
}

// Recent returns up to limit audit entries, newest first. A non-positive
// limit returns everything.
func (e *Engine) Recent(limit int) []models.ProcessedMessage {
	e.mu.RLock()
	defer e.mu.RUnlock()

	n := len(e.audit)
	if limit <= 0 || limit > n {
		limit = n
	}
	out := make([]models.ProcessedMessage, 0, limit)
	for i := n - 1; i >= n-limit; i-- {
		out = append(out, e.audit[i])
	}
	return out
}

// Deleted returns the deletion log of one room.
func (e *Engine) Deleted(roomID string) []models.DeletionRecord {
	return e.detector.Deleted(roomID)
}

// AllDeleted returns every room's deletion log.
func (e *Engine) AllDeleted() map[string][]models.DeletionRecord {
	return e.detector.AllDeleted()
}

// ClearDeleted empties one room's deletion log, or all of them when roomID
// is empty.
func (e *Engine) ClearDeleted(roomID string) {
	e.detector.Clear(roomID)
}

// Resolve marks a pending alert as answered.
func (e *Engine) Resolve(roomID, messageID string) bool {
	return e.sched.Resolve(roomID, messageID)
}

// ForceSweep fires due alerts now and returns the keys still pending.
func (e *Engine) ForceSweep(ctx context.Context) []string {
	return e.sched.ForceSweep(ctx)
}

// AlertSummary aggregates pending alerts.
func (e *Engine) AlertSummary() scheduler.Summary {
	return e.sched.Summary()
}

// PendingAlerts lists pending alerts, oldest first.
func (e *Engine) PendingAlerts() []models.PendingAlert {
	return e.sched.Pending()
}

// Analyze classifies free text without touching pipeline state.
func (e *Engine) Analyze(text string) models.Classification {
	return e.analyzer.Analyze(models.Message{ID: "adhoc", Body: text})
}

// SourceName reports the configured message source.
func (e *Engine) SourceName() string {
	return e.src.Name()
}
