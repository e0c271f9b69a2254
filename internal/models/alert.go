package models

import "time"

// PendingAlert tracks an unresolved message that needs a reply.
type PendingAlert struct {
	Message         Message        `json:"message"`
	Analysis        Classification `json:"analysis"`
	AddedAt         time.Time      `json:"added_at"`
	AlertsSent      int            `json:"alerts_sent"`
	LastAlertAt     *time.Time     `json:"last_alert_at,omitempty"`
	EscalationLevel int            `json:"escalation_level"`
}

// Key returns the (room, message) key of the alert.
func (a PendingAlert) Key() string {
	return a.Message.Key()
}
