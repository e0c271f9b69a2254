package handlers

import (
	"net/http"

	"github.com/engetsu-hub/chatwork-ai-manager/internal/models"
	"github.com/engetsu-hub/chatwork-ai-manager/internal/scheduler"
)

// AlertsResponse lists pending alerts with their summary.
type AlertsResponse struct {
	Summary scheduler.Summary     `json:"summary"`
	Pending []models.PendingAlert `json:"pending"`
}

// ResolveRequest identifies an alert to resolve.
type ResolveRequest struct {
	RoomID    string `json:"room_id"`
	MessageID string `json:"message_id"`
}

// ResolveResponse reports whether a pending alert was removed.
type ResolveResponse struct {
	Resolved bool `json:"resolved"`
}

// CheckAlertsResponse lists the alerts still pending after a forced sweep.
type CheckAlertsResponse struct {
	Pending []string `json:"pending_alerts"`
}

// ListAlerts returns the pending-alert summary and entries.
func (h *Handler) ListAlerts(w http.ResponseWriter, r *http.Request) {
	h.JSON(w, http.StatusOK, AlertsResponse{
		Summary: h.engine.AlertSummary(),
		Pending: h.engine.PendingAlerts(),
	})
}

// ResolveAlert stops reminders for a message. Unknown alerts are not an
// error.
func (h *Handler) ResolveAlert(w http.ResponseWriter, r *http.Request) {
	var req ResolveRequest
	if !h.decode(w, r, &req) {
		return
	}

	req.RoomID = sanitizeID(req.RoomID)
	req.MessageID = sanitizeID(req.MessageID)
	if req.RoomID == "" || req.MessageID == "" {
		h.Error(w, http.StatusBadRequest, "room_id and message_id are required")
		return
	}

	h.JSON(w, http.StatusOK, ResolveResponse{Resolved: h.engine.Resolve(req.RoomID, req.MessageID)})
}

// CheckAlerts runs an immediate sweep.
func (h *Handler) CheckAlerts(w http.ResponseWriter, r *http.Request) {
	h.JSON(w, http.StatusOK, CheckAlertsResponse{Pending: h.engine.ForceSweep(r.Context())})
}
