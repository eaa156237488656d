// Package observability defines the Prometheus metrics for streamed chat
// requests and the relay endpoint.
package observability

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	metricsNamespace   = "nova"
	streamingSubsystem = "streaming"
	relaySubsystem     = "relay"
)

// StreamingMetrics holds the collectors. A nil *StreamingMetrics is valid and
// records nothing, so components can run without a registry in tests.
type StreamingMetrics struct {
	// RequestsTotal counts settled chat requests.
	// Labels: outcome (completed, cancelled, failed), kind (rate_limit, usage_limit, transport, stream, "")
	RequestsTotal *prometheus.CounterVec

	// FragmentsTotal counts text fragments applied to the transcript.
	FragmentsTotal prometheus.Counter

	// ActiveStreams is the number of requests in Sending or Streaming.
	ActiveStreams prometheus.Gauge

	// TimeToFirstFragmentSeconds measures latency from submit to the first fragment.
	TimeToFirstFragmentSeconds prometheus.Histogram

	// RelayRequestsTotal counts relay responses by HTTP status.
	RelayRequestsTotal *prometheus.CounterVec

	// SearchesTotal counts search augmentation calls by result (hit, miss, error).
	SearchesTotal *prometheus.CounterVec
}

// NewStreamingMetrics creates the collectors and registers them with reg.
func NewStreamingMetrics(reg prometheus.Registerer) *StreamingMetrics {
	factory := promauto.With(reg)
	return &StreamingMetrics{
		RequestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: metricsNamespace,
				Subsystem: streamingSubsystem,
				Name:      "requests_total",
				Help:      "Total number of chat requests by outcome and failure kind",
			},
			[]string{"outcome", "kind"},
		),
		FragmentsTotal: factory.NewCounter(
			prometheus.CounterOpts{
				Namespace: metricsNamespace,
				Subsystem: streamingSubsystem,
				Name:      "fragments_total",
				Help:      "Total number of text fragments applied to assistant messages",
			},
		),
		ActiveStreams: factory.NewGauge(
			prometheus.GaugeOpts{
				Namespace: metricsNamespace,
				Subsystem: streamingSubsystem,
				Name:      "active_streams",
				Help:      "Number of chat requests currently in flight",
			},
		),
		TimeToFirstFragmentSeconds: factory.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: metricsNamespace,
				Subsystem: streamingSubsystem,
				Name:      "time_to_first_fragment_seconds",
				Help:      "Time from submit to the first applied fragment",
				Buckets:   []float64{0.1, 0.25, 0.5, 1, 2, 5, 10, 30},
			},
		),
		RelayRequestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: metricsNamespace,
				Subsystem: relaySubsystem,
				Name:      "requests_total",
				Help:      "Total number of relay requests by response status",
			},
			[]string{"status"},
		),
		SearchesTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: metricsNamespace,
				Subsystem: relaySubsystem,
				Name:      "searches_total",
				Help:      "Total number of search augmentation calls by result",
			},
			[]string{"result"},
		),
	}
}

func (m *StreamingMetrics) StreamStarted() {
	if m == nil {
		return
	}
	m.ActiveStreams.Inc()
}

// StreamSettled records the outcome of a request that was counted by StreamStarted.
func (m *StreamingMetrics) StreamSettled(outcome, kind string) {
	if m == nil {
		return
	}
	m.ActiveStreams.Dec()
	m.RequestsTotal.WithLabelValues(outcome, kind).Inc()
}

func (m *StreamingMetrics) FragmentApplied() {
	if m == nil {
		return
	}
	m.FragmentsTotal.Inc()
}

func (m *StreamingMetrics) FirstFragment(since time.Time) {
	if m == nil {
		return
	}
	m.TimeToFirstFragmentSeconds.Observe(time.Since(since).Seconds())
}

func (m *StreamingMetrics) RelayResponded(status string) {
	if m == nil {
		return
	}
	m.RelayRequestsTotal.WithLabelValues(status).Inc()
}

func (m *StreamingMetrics) SearchCompleted(result string) {
	if m == nil {
		return
	}
	m.SearchesTotal.WithLabelValues(result).Inc()
}
