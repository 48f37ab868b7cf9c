package telemetry

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// APIRequestsTotal counts HTTP requests by method, endpoint and status.
	APIRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "setschedule_api_requests_total",
		Help: "Total HTTP requests.",
	}, []string{"method", "endpoint", "status"})

	// APIRequestDuration observes HTTP request latency.
	APIRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "setschedule_api_request_duration_seconds",
		Help:    "HTTP request duration.",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "endpoint", "status"})

	// APIActiveConnections gauges in-flight HTTP requests.
	APIActiveConnections = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "setschedule_api_active_connections",
		Help: "In-flight HTTP requests.",
	})

	// ViewerConnections gauges connected snapshot WebSocket viewers.
	ViewerConnections = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "setschedule_viewer_connections",
		Help: "Connected WebSocket viewers.",
	})

	// EventsApplied counts accepted lifecycle events by operation.
	EventsApplied = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "setschedule_events_applied_total",
		Help: "Accepted lifecycle events.",
	}, []string{"op"})

	// EventsRejected counts rejected lifecycle events by reason.
	EventsRejected = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "setschedule_events_rejected_total",
		Help: "Rejected lifecycle events.",
	}, []string{"op", "reason"})

	// CurrentSlipSeconds gauges the signed slip from the latest snapshot.
	CurrentSlipSeconds = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "setschedule_slip_seconds",
		Help: "Signed schedule slip in seconds; positive is late.",
	})

	// TriggerEvents counts lighting trigger lines by outcome.
	TriggerEvents = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "setschedule_trigger_events_total",
		Help: "Lighting trigger lines received.",
	}, []string{"outcome"})
)

// Handler exposes the metrics endpoint.
func Handler() http.Handler {
	return promhttp.Handler()
}
