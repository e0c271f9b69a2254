// Package detector derives new and deleted messages from successive room
// snapshots.
package detector

import (
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/engetsu-hub/chatwork-ai-manager/internal/metrics"
	"github.com/engetsu-hub/chatwork-ai-manager/internal/models"
)

// LogCapacity is the number of deletion records kept per room.
const LogCapacity = 100

// deleteMarkers are the in-body tags an author uses to retract a message.
var deleteMarkers = []string{"[deleted]", "[delete]"}

// Changes is the outcome of observing one snapshot.
type Changes struct {
	New     []models.Message
	Deleted []models.DeletionRecord
}

type roomState struct {
	snapshot  map[string]models.Message
	tagged    map[string]bool
	highWater string
	seeded    bool
}

// Detector tracks per-room snapshots and deletion logs.
type Detector struct {
	mu     sync.Mutex
	rooms  map[string]*roomState
	logs   map[string][]models.DeletionRecord
	logger zerolog.Logger
}

// New creates an empty detector.
func New(logger zerolog.Logger) *Detector {
	return &Detector{
		rooms:  make(map[string]*roomState),
		logs:   make(map[string][]models.DeletionRecord),
		logger: logger.With().Str("component", "detector").Logger(),
	}
}

// Observe diffs a room snapshot against the previous one.
func (d *Detector) Observe(roomID string, snapshot []models.Message, now time.Time) Changes {
	d.mu.Lock()
	defer d.mu.Unlock()

	state, ok := d.rooms[roomID]
	if !ok {
		state = &roomState{}
		d.rooms[roomID] = state
	}

	var changes Changes
	current := make(map[string]models.Message, len(snapshot))
	tagged := make(map[string]bool)

	for _, msg := range snapshot {
		if !hasDeleteMarker(msg.Body) {
			current[msg.ID] = msg
			continue
		}
		tagged[msg.ID] = true
		if state.tagged[msg.ID] || d.logged(roomID, msg.ID) {
			continue
		}
		rec := models.DeletionRecord{
			MessageID: msg.ID,
			RoomID:    roomID,
			Sender:    msg.Account.Name,
			Body:      stripDeleteMarkers(msg.Body),
			SendTime:  msg.SendTime,
			DeletedAt: now,
			Kind:      models.DeletionTag,
		}
		d.appendLog(roomID, rec)
		changes.Deleted = append(changes.Deleted, rec)
		d.logger.Info().Str("room_id", roomID).Str("message_id", msg.ID).Msg("tag-deleted message logged")
	}

	highWater := state.highWater
	for _, msg := range snapshot {
		if _, ok := current[msg.ID]; !ok {
			continue
		}
		if !state.seeded || compareIDs(msg.ID, state.highWater) > 0 {
			changes.New = append(changes.New, msg)
		}
		if highWater == "" || compareIDs(msg.ID, highWater) > 0 {
			highWater = msg.ID
		}
	}
	state.highWater = highWater

	if state.seeded {
		var gone []string
		for id := range state.snapshot {
			if _, ok := current[id]; ok || tagged[id] || d.logged(roomID, id) {
				continue
			}
			gone = append(gone, id)
		}
		slices.SortFunc(gone, compareIDs)
		for _, id := range gone {
			prev := state.snapshot[id]
			rec := models.DeletionRecord{
				MessageID: id,
				RoomID:    roomID,
				Sender:    prev.Account.Name,
				Body:      prev.Body,
				SendTime:  prev.SendTime,
				DeletedAt: now,
				Kind:      models.DeletionVanished,
			}
			d.appendLog(roomID, rec)
			changes.Deleted = append(changes.Deleted, rec)
			d.logger.Info().Str("room_id", roomID).Str("message_id", id).Msg("vanished message logged")
		}
	}

	state.snapshot = current
	state.tagged = tagged
	state.seeded = true

	for _, rec := range changes.Deleted {
		metrics.DeletionsDetected.WithLabelValues(string(rec.Kind)).Inc()
	}
	return changes
}

// Deleted returns a copy of one room's deletion log, oldest first.
func (d *Detector) Deleted(roomID string) []models.DeletionRecord {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]models.DeletionRecord(nil), d.logs[roomID]...)
}

// AllDeleted returns a copy of every room's deletion log.
func (d *Detector) AllDeleted() map[string][]models.DeletionRecord {
	d.mu.Lock()
	defer d.mu.Unlock()
	out := make(map[string][]models.DeletionRecord, len(d.logs))
	for room, log := range d.logs {
		out[room] = append([]models.DeletionRecord(nil), log...)
	}
	return out
}

// Clear empties a room's deletion log, or every log when roomID is empty.
func (d *Detector) Clear(roomID string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if roomID == "" {
		d.logs = make(map[string][]models.DeletionRecord)
		return
	}
	delete(d.logs, roomID)
}

func (d *Detector) logged(roomID, messageID string) bool {
	for _, rec := range d.logs[roomID] {
		if rec.MessageID == messageID {
			return true
		}
	}
	return false
}

// appendLog must be called with d.mu held.
func (d *Detector) appendLog(roomID string, rec models.DeletionRecord) {
	log := append(d.logs[roomID], rec)
	if len(log) > LogCapacity {
		log = append([]models.DeletionRecord(nil), log[len(log)-LogCapacity:]...)
	}
	d.logs[roomID] = log
}

func hasDeleteMarker(body string) bool {
	for _, m := range deleteMarkers {
		if strings.Contains(body, m) {
			return true
		}
	}
	return false
}

func stripDeleteMarkers(body string) string {
	for _, m := range deleteMarkers {
		body = strings.ReplaceAll(body, m, "")
	}
	return strings.TrimSpace(body)
}
