package handlers

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/engetsu-hub/chatwork-ai-manager/internal/chatwork"
	"github.com/engetsu-hub/chatwork-ai-manager/internal/models"
)

// RoomsResponse lists the rooms visible to the token.
type RoomsResponse struct {
	Rooms []models.Room `json:"rooms"`
}

// CategoriesResponse groups rooms by dashboard category.
type CategoriesResponse struct {
	Categories map[string][]models.Room `json:"categories"`
}

// RoomMessagesResponse is the latest snapshot of a room.
type RoomMessagesResponse struct {
	Messages []models.Message `json:"messages"`
}

// ReplyRequest answers a message, addressed to its sender when known.
type ReplyRequest struct {
	RoomID         string `json:"room_id"`
	MessageID      string `json:"message_id"`
	ReplyBody      string `json:"reply_body"`
	OriginalSender int64  `json:"original_sender"`
}

// ReactionRequest posts an emoji reaction to a message.
type ReactionRequest struct {
	RoomID    string `json:"room_id"`
	MessageID string `json:"message_id"`
	Reaction  string `json:"reaction"`
}

// QuoteRequest quotes a message with an optional comment.
type QuoteRequest struct {
	RoomID       string `json:"room_id"`
	MessageID    string `json:"message_id"`
	OriginalBody string `json:"original_body"`
	QuoteComment string `json:"quote_comment"`
}

// PostResponse reports a message posted on the operator's behalf.
type PostResponse struct {
	Success bool     `json:"success"`
	Data    PostData `json:"data"`
}

// PostData identifies the posted message.
type PostData struct {
	RoomID    string `json:"room_id"`
	MessageID string `json:"message_id"`
	Body      string `json:"body"`
}

func (h *Handler) requireChat(w http.ResponseWriter) bool {
	if h.chat == nil {
		h.Error(w, http.StatusServiceUnavailable, "chatwork client not configured")
		return false
	}
	return true
}

// Rooms lists every room the token can see.
func (h *Handler) Rooms(w http.ResponseWriter, r *http.Request) {
	if !h.requireChat(w) {
		return
	}
	rooms, err := h.chat.GetRooms(r.Context())
	if err != nil {
		h.upstreamError(w, err, "failed to list rooms")
		return
	}
	h.JSON(w, http.StatusOK, RoomsResponse{Rooms: rooms})
}

// RoomCategories groups rooms for the dashboard sidebar.
func (h *Handler) RoomCategories(w http.ResponseWriter, r *http.Request) {
	if !h.requireChat(w) {
		return
	}
	rooms, err := h.chat.GetRooms(r.Context())
	if err != nil {
		h.upstreamError(w, err, "failed to list rooms")
		return
	}
	groups := chatwork.GroupByCategory(rooms, h.engine.Status().Rooms)
	h.JSON(w, http.StatusOK, CategoriesResponse{Categories: groups})
}

// RoomMessages returns the latest messages of a room, bypassing the
// unread-only cache.
func (h *Handler) RoomMessages(w http.ResponseWriter, r *http.Request) {
	if !h.requireChat(w) {
		return
	}
	roomID := sanitizeID(chi.URLParam(r, "room"))
	if roomID == "" {
		h.Error(w, http.StatusBadRequest, "room id is required")
		return
	}
	limit := 50
	if limitStr := r.URL.Query().Get("limit"); limitStr != "" {
		if l, err := strconv.Atoi(limitStr); err == nil && l > 0 {
			limit = l
		}
	}

	msgs, err := h.chat.GetMessages(r.Context(), roomID, true)
	if err != nil {
		h.upstreamError(w, err, "failed to fetch messages")
		return
	}
	if len(msgs) > limit {
		msgs = msgs[len(msgs)-limit:]
	}
	h.JSON(w, http.StatusOK, RoomMessagesResponse{Messages: msgs})
}

// Reply posts an answer to a message.
func (h *Handler) Reply(w http.ResponseWriter, r *http.Request) {
	if !h.requireChat(w) {
		return
	}
	var req ReplyRequest
	if !h.decode(w, r, &req) {
		return
	}
	roomID := sanitizeID(req.RoomID)
	if roomID == "" || sanitizeID(req.MessageID) == "" || strings.TrimSpace(req.ReplyBody) == "" {
		h.Error(w, http.StatusBadRequest, "room_id, message_id and reply_body are required")
		return
	}
	h.post(w, r, roomID, chatwork.ReplyBody(req.OriginalSender, req.ReplyBody))
}

// Reaction posts an emoji in answer to a message.
func (h *Handler) Reaction(w http.ResponseWriter, r *http.Request) {
	if !h.requireChat(w) {
		return
	}
	var req ReactionRequest
	if !h.decode(w, r, &req) {
		return
	}
	roomID := sanitizeID(req.RoomID)
	if roomID == "" || sanitizeID(req.MessageID) == "" || strings.TrimSpace(req.Reaction) == "" {
		h.Error(w, http.StatusBadRequest, "room_id, message_id and reaction are required")
		return
	}
	h.post(w, r, roomID, chatwork.ReactionBody(strings.TrimSpace(req.Reaction)))
}

// Quote reposts a message inside a quote block.
func (h *Handler) Quote(w http.ResponseWriter, r *http.Request) {
	if !h.requireChat(w) {
		return
	}
	var req QuoteRequest
	if !h.decode(w, r, &req) {
		return
	}
	roomID := sanitizeID(req.RoomID)
	if roomID == "" || sanitizeID(req.MessageID) == "" || strings.TrimSpace(req.OriginalBody) == "" {
		h.Error(w, http.StatusBadRequest, "room_id, message_id and original_body are required")
		return
	}
	h.post(w, r, roomID, chatwork.QuoteBody(req.OriginalBody, req.QuoteComment))
}

func (h *Handler) post(w http.ResponseWriter, r *http.Request, roomID, body string) {
	id, err := h.chat.PostMessage(r.Context(), roomID, body)
	if err != nil {
		h.upstreamError(w, err, "failed to post message")
		return
	}
	h.JSON(w, http.StatusOK, PostResponse{
		Success: true,
		Data:    PostData{RoomID: roomID, MessageID: id, Body: body},
	})
}
