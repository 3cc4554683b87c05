// Package metrics defines the Prometheus instruments of the answer engine.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Answer modes
const (
	ModeSync   = "sync"
	ModeStream = "stream"
	ModeChat   = "chat"
)

// Answer outcomes
const (
	OutcomeOK             = "ok"
	OutcomeInvalid        = "invalid_request"
	OutcomeNotFound       = "not_found"
	OutcomeTreeError      = "tree_error"
	OutcomeNoProvider     = "no_provider"
	OutcomeUpstreamError  = "upstream_error"
	OutcomeTimeout        = "timeout"
	OutcomeClientCanceled = "canceled"
)

// Metrics holds the answer engine instruments. A nil *Metrics is valid and records nothing.
type Metrics struct {
	answers       *prometheus.CounterVec
	activeStreams prometheus.Gauge
	firstFragment prometheus.Histogram
	fragments     prometheus.Counter
	groundingSize prometheus.Histogram
}

// New registers the instruments with reg
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		// Labels: mode (sync, stream, chat), outcome
		answers: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "akut",
			Subsystem: "answer",
			Name:      "requests_total",
			Help:      "Grounded answer requests by mode and outcome",
		}, []string{"mode", "outcome"}),

		activeStreams: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: "akut",
			Subsystem: "answer",
			Name:      "active_streams",
			Help:      "Streamed answers currently in flight",
		}),

		firstFragment: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: "akut",
			Subsystem: "answer",
			Name:      "first_fragment_seconds",
			Help:      "Time from stream start to the first forwarded fragment",
			Buckets:   []float64{0.1, 0.25, 0.5, 1, 2, 5, 10, 30},
		}),

		fragments: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "akut",
			Subsystem: "answer",
			Name:      "fragments_total",
			Help:      "Text fragments forwarded to stream clients",
		}),

		groundingSize: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: "akut",
			Subsystem: "answer",
			Name:      "grounding_nodes",
			Help:      "Number of decision tree nodes used to ground a prompt",
			Buckets:   []float64{0, 1, 2, 3, 4, 5, 10},
		}),
	}
}

// ObserveAnswer counts one finished request
func (m *Metrics) ObserveAnswer(mode, outcome string) {
	if m == nil {
		return
	}
	m.answers.WithLabelValues(mode, outcome).Inc()
}

// ObserveGrounding records the size of a grounding set
func (m *Metrics) ObserveGrounding(n int) {
	if m == nil {
		return
	}
	m.groundingSize.Observe(float64(n))
}

// StreamStarted marks a stream as active and returns the function that ends it
func (m *Metrics) StreamStarted() func() {
	if m == nil {
		return func() {}
	}
	m.activeStreams.Inc()
	return m.activeStreams.Dec
}

// ObserveFragment counts a forwarded fragment; first is true for the first one of a stream
func (m *Metrics) ObserveFragment(first bool, sinceStart time.Duration) {
	if m == nil {
		return
	}
	m.fragments.Inc()
	if first {
		m.firstFragment.Observe(sinceStart.Seconds())
	}
}
