// Package telemetry exposes the prometheus instrumentation for the server:
// an HTTP middleware for request timing plus the domain counters updated by
// the chat service and the realtime router. Metrics are served on /metrics.
package telemetry

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	requestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "chatmesh_http_request_duration_seconds",
		Help:    "HTTP request latency by method and status class.",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "status"})

	requestsInFlight = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "chatmesh_http_requests_in_flight",
		Help: "Number of HTTP requests currently being served.",
	})

	// MessagesSent counts persisted messages by variant.
	MessagesSent = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "chatmesh_messages_sent_total",
		Help: "Messages persisted, labeled by message type.",
	}, []string{"type"})

	// MessagesBlocked counts sends refused by the block registry.
	MessagesBlocked = promauto.NewCounter(prometheus.CounterOpts{
		Name: "chatmesh_messages_blocked_total",
		Help: "Message sends refused because of a blocked relationship.",
	})

	// WSSessions tracks currently connected realtime sessions.
	WSSessions = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "chatmesh_ws_sessions",
		Help: "Currently connected websocket sessions.",
	})

	// WSEvents counts realtime events received from clients by name.
	WSEvents = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "chatmesh_ws_events_total",
		Help: "Realtime events received from clients, labeled by event.",
	}, []string{"event"})
)

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

// Middleware records request duration and in-flight count for every request.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		requestsInFlight.Inc()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		requestsInFlight.Dec()
		requestDuration.WithLabelValues(r.Method, statusClass(rec.status)).
			Observe(time.Since(start).Seconds())
	})
}

func statusClass(code int) string {
	return strconv.Itoa(code/100) + "xx"
}
