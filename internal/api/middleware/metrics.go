package middleware

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/engetsu-hub/chatwork-ai-manager/internal/metrics"
)

// statusWriter wraps http.ResponseWriter to capture status code.
type statusWriter struct {
	http.ResponseWriter
	status int
}

func (w *statusWriter) WriteHeader(status int) {
	w.status = status
	w.ResponseWriter.WriteHeader(status)
}

// Metrics returns middleware that records Prometheus metrics.
func Metrics(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		wrapped := &statusWriter{ResponseWriter: w, status: http.StatusOK}

		next.ServeHTTP(wrapped, r)

		path := normalizePath(r.URL.Path)
		metrics.HTTPRequestsTotal.WithLabelValues(r.Method, path, strconv.Itoa(wrapped.status)).Inc()
		metrics.HTTPRequestDuration.WithLabelValues(r.Method, path).Observe(time.Since(start).Seconds())
	})
}

var fixedMessagePaths = map[string]bool{
	"/api/messages/processed": true,
	"/api/messages/reply":     true,
	"/api/messages/reaction":  true,
	"/api/messages/quote":     true,
}

// normalizePath collapses room ids so label cardinality stays bounded.
func normalizePath(path string) string {
	switch {
	case strings.HasPrefix(path, "/api/rooms/") && strings.HasSuffix(path, "/check"):
		return "/api/rooms/:id/check"
	case strings.HasPrefix(path, "/api/deleted/") && len(path) > len("/api/deleted/"):
		return "/api/deleted/:room"
	case strings.HasPrefix(path, "/api/messages/") && len(path) > len("/api/messages/") && !fixedMessagePaths[path]:
		return "/api/messages/:room"
	}
	return path
}
