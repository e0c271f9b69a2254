package handlers

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/engetsu-hub/chatwork-ai-manager/internal/models"
	"github.com/engetsu-hub/chatwork-ai-manager/internal/source"
)

// ProcessedResponse lists audit entries, newest first.
type ProcessedResponse struct {
	Messages []models.ProcessedMessage `json:"messages"`
	Count    int                       `json:"count"`
}

// AnalyzeRequest carries free text to classify.
type AnalyzeRequest struct {
	Body string `json:"body"`
}

// ProcessedMessages returns recent audit entries.
func (h *Handler) ProcessedMessages(w http.ResponseWriter, r *http.Request) {
	limit := 50
	if limitStr := r.URL.Query().Get("limit"); limitStr != "" {
		if l, err := strconv.Atoi(limitStr); err == nil && l > 0 {
			limit = l
		}
	}

	msgs := h.engine.Recent(limit)
	h.JSON(w, http.StatusOK, ProcessedResponse{Messages: msgs, Count: len(msgs)})
}

// Analyze classifies ad-hoc text.
func (h *Handler) Analyze(w http.ResponseWriter, r *http.Request) {
	var req AnalyzeRequest
	if !h.decode(w, r, &req) {
		return
	}
	if strings.TrimSpace(req.Body) == "" {
		h.Error(w, http.StatusBadRequest, "body is required")
		return
	}

	h.JSON(w, http.StatusOK, h.engine.Analyze(req.Body))
}

// CheckRoom polls one room immediately.
func (h *Handler) CheckRoom(w http.ResponseWriter, r *http.Request) {
	roomID := sanitizeID(chi.URLParam(r, "id"))
	if roomID == "" {
		h.Error(w, http.StatusBadRequest, "room id is required")
		return
	}

	res, err := h.engine.CheckRoom(r.Context(), roomID)
	if err != nil {
		h.upstreamError(w, err, "failed to poll room")
		return
	}

	h.JSON(w, http.StatusOK, res)
}

// upstreamError maps a message-source or Chatwork failure to a response.
func (h *Handler) upstreamError(w http.ResponseWriter, err error, fallback string) {
	switch {
	case errors.Is(err, source.ErrUnauthorized):
		h.Error(w, http.StatusBadGateway, "message source rejected credentials")
	case errors.Is(err, source.ErrRateLimited):
		h.Error(w, http.StatusTooManyRequests, "message source rate limit exceeded")
	default:
		h.Error(w, http.StatusBadGateway, fallback)
	}
}
