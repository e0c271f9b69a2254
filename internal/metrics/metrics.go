package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// HTTP metrics
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cwmanager_http_requests_total",
			Help: "Total HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "cwmanager_http_request_duration_seconds",
			Help:    "HTTP request duration",
			Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1},
		},
		[]string{"method", "path"},
	)

	// Ingest metrics
	RoomPolls = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cwmanager_room_polls_total",
			Help: "Total room polls",
		},
		[]string{"result"}, // "ok" or "error"
	)

	SourceLatency = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "cwmanager_source_latency_seconds",
			Help:    "Message source poll latency",
			Buckets: []float64{.01, .05, .1, .25, .5, 1, 2.5, 5, 10},
		},
	)

	MessagesProcessed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cwmanager_messages_processed_total",
			Help: "Total messages classified",
		},
		[]string{"priority", "requires_reply"},
	)

	DeletionsDetected = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cwmanager_deletions_detected_total",
			Help: "Total deleted messages detected",
		},
		[]string{"kind"}, // "tag" or "vanished"
	)

	// Alert metrics
	AlertsPending = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "cwmanager_alerts_pending",
			Help: "Unresolved reply-worthy messages",
		},
	)

	AlertsFired = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cwmanager_alerts_fired_total",
			Help: "Total reminder alerts fired",
		},
		[]string{"priority"},
	)

	AlertDeliveryFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cwmanager_alert_delivery_failures_total",
			Help: "Total reminder deliveries that failed",
		},
		[]string{"notifier"},
	)

	AlertsRemoved = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cwmanager_alerts_removed_total",
			Help: "Total pending alerts removed",
		},
		[]string{"reason"}, // "resolved" or "expired"
	)
)
