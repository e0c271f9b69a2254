package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/engetsu-hub/chatwork-ai-manager/internal/models"
)

// DeletedResponse lists deletion records.
type DeletedResponse struct {
	RoomID  string                  `json:"room_id"`
	Records []models.DeletionRecord `json:"deleted_messages"`
	Count   int                     `json:"count"`
}

// ListDeleted returns every room's deletion log.
func (h *Handler) ListDeleted(w http.ResponseWriter, r *http.Request) {
	h.JSON(w, http.StatusOK, h.engine.AllDeleted())
}

// RoomDeleted returns one room's deletion log.
func (h *Handler) RoomDeleted(w http.ResponseWriter, r *http.Request) {
	roomID := sanitizeID(chi.URLParam(r, "room"))
	records := h.engine.Deleted(roomID)
	if records == nil {
		records = []models.DeletionRecord{}
	}
	h.JSON(w, http.StatusOK, DeletedResponse{RoomID: roomID, Records: records, Count: len(records)})
}

// ClearDeleted empties every deletion log.
func (h *Handler) ClearDeleted(w http.ResponseWriter, r *http.Request) {
	h.engine.ClearDeleted("")
	w.WriteHeader(http.StatusNoContent)
}

// ClearRoomDeleted empties one room's deletion log.
func (h *Handler) ClearRoomDeleted(w http.ResponseWriter, r *http.Request) {
	roomID := sanitizeID(chi.URLParam(r, "room"))
	if roomID == "" {
		h.Error(w, http.StatusBadRequest, "room id is required")
		return
	}
	h.engine.ClearDeleted(roomID)
	w.WriteHeader(http.StatusNoContent)
}
