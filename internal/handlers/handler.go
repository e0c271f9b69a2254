package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"unicode"

	"github.com/engetsu-hub/chatwork-ai-manager/internal/engine"
	"github.com/engetsu-hub/chatwork-ai-manager/internal/models"
)

// Pinger is a backing connection the health check can probe.
type Pinger interface {
	Ping(ctx context.Context) error
}

// ChatClient is the Chatwork surface the dashboard endpoints use.
type ChatClient interface {
	GetRooms(ctx context.Context) ([]models.Room, error)
	GetMessages(ctx context.Context, roomID string, force bool) ([]models.Message, error)
	PostMessage(ctx context.Context, roomID, body string) (string, error)
}

// Handler contains shared dependencies for all HTTP handlers.
type Handler struct {
	engine   *engine.Engine
	redis    Pinger
	notifier string
	chat     ChatClient
}

// NewHandler creates a new Handler. redis may be nil when no Redis is
// configured, and chat may be nil when no Chatwork token is set.
func NewHandler(e *engine.Engine, redis Pinger, notifier string, chat ChatClient) *Handler {
	return &Handler{engine: e, redis: redis, notifier: notifier, chat: chat}
}

// JSON sends a JSON response with the given status code.
func (h *Handler) JSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

// Error sends a JSON error response with the given status code.
func (h *Handler) Error(w http.ResponseWriter, status int, message string) {
	h.JSON(w, status, map[string]string{"error": message})
}

// decode reads a JSON body into v, reporting failures to the client.
func (h *Handler) decode(w http.ResponseWriter, r *http.Request, v interface{}) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		h.Error(w, http.StatusBadRequest, "invalid JSON body")
		return false
	}
	return true
}

// sanitizeID trims an identifier and drops control characters.
func sanitizeID(id string) string {
	return strings.Map(func(r rune) rune {
		if unicode.IsControl(r) {
			return -1
		}
		return r
	}, strings.TrimSpace(id))
}
