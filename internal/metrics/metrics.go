package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// DestinationRequestsTotal counts outbound HTTP calls per destination.
	DestinationRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "signal_export_destination_requests_total",
			Help: "Total number of destination API requests (by destination, method and status).",
		},
		[]string{"destination", "method", "status"},
	)

	// DestinationRequestDuration measures outbound HTTP latency.
	DestinationRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "signal_export_destination_request_duration_seconds",
			Help:    "Duration of destination API requests in seconds.",
			Buckets: prometheus.ExponentialBuckets(0.001, 2, 15), // 1ms → ~16s
		},
		[]string{"destination", "method"},
	)

	// ExportsTotal counts Send outcomes: delivered, rejected or failed.
	ExportsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "signal_exports_total",
			Help: "Signal export attempts by destination and outcome.",
		},
		[]string{"destination", "outcome"},
	)

	// ExportTargets records the batch size of the last export per destination.
	ExportTargets = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "signal_export_targets",
			Help: "Number of portfolio targets in the last export per destination.",
		},
		[]string{"destination"},
	)

	// ExportCycleDuration measures a full manager cycle across all destinations.
	ExportCycleDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "signal_export_cycle_duration_seconds",
			Help:    "Duration of a full export cycle in seconds.",
			Buckets: prometheus.ExponentialBuckets(0.005, 2, 12),
		},
	)

	// EventPublishErrors tracks broker publish failures.
	EventPublishErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "signal_export_event_publish_errors_total",
			Help: "Number of export event publish failures by broker and subject.",
		},
		[]string{"broker", "subject"},
	)

	// EventPublishLatency measures broker publish round trips.
	EventPublishLatency = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "signal_export_event_publish_latency_seconds",
			Help:    "Latency of export event publishes by broker.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"broker"},
	)
)

// Export outcomes.
const (
	OutcomeDelivered = "delivered"
	OutcomeRejected  = "rejected"
	OutcomeFailed    = "failed"
)

// IncDestinationRequest increments the request counter.
func IncDestinationRequest(destination, method, status string) {
	DestinationRequestsTotal.WithLabelValues(destination, method, status).Inc()
}

// IncExport records one Send outcome.
func IncExport(destination, outcome string) {
	ExportsTotal.WithLabelValues(destination, outcome).Inc()
}

// SetExportTargets records the batch size for destination.
func SetExportTargets(destination string, n int) {
	ExportTargets.WithLabelValues(destination).Set(float64(n))
}

// IncEventPublishError increments the publish error counter.
func IncEventPublishError(broker, subject string) {
	EventPublishErrors.WithLabelValues(broker, subject).Inc()
}

// ObserveDuration records elapsed time since start into a Histogram, HistogramVec or SummaryVec.
func ObserveDuration(v any, start time.Time, labels ...string) {
	duration := time.Since(start).Seconds()
	switch metric := v.(type) {
	case prometheus.Histogram:
		metric.Observe(duration)
	case *prometheus.HistogramVec:
		metric.WithLabelValues(labels...).Observe(duration)
	case *prometheus.SummaryVec:
		metric.WithLabelValues(labels...).Observe(duration)
	}
}
