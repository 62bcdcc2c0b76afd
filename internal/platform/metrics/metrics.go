package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics for the application.
type Metrics struct {
	InteractionsTotal   *prometheus.CounterVec
	RegistrationsTotal  *prometheus.CounterVec
	TokenDecodeFailures prometheus.Counter
	HolidayFetches      *prometheus.CounterVec
	RecorderLatency     prometheus.Histogram
}

// New creates and registers all Prometheus metrics.
func New() *Metrics {
	return &Metrics{
		InteractionsTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "invoicebot_interactions_total",
			Help: "Total number of inbound interactions by type",
		}, []string{"type"}),
		RegistrationsTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "invoicebot_registrations_total",
			Help: "Total number of completed conversations by outcome",
		}, []string{"outcome"}),
		TokenDecodeFailures: promauto.NewCounter(prometheus.CounterOpts{
			Name: "invoicebot_token_decode_failures_total",
			Help: "Total number of stage tokens that failed to decode",
		}),
		HolidayFetches: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "invoicebot_holiday_fetches_total",
			Help: "Total number of holiday calendar fetches by result",
		}, []string{"result"}),
		RecorderLatency: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "invoicebot_recorder_latency_seconds",
			Help:    "Latency of the external recorder call",
			Buckets: prometheus.DefBuckets,
		}),
	}
}

// IncInteraction counts one inbound interaction of the given type.
func (m *Metrics) IncInteraction(interactionType string) {
	if m == nil {
		return
	}
	m.InteractionsTotal.WithLabelValues(interactionType).Inc()
}

// IncRegistration counts one completed conversation with the given outcome.
func (m *Metrics) IncRegistration(outcome string) {
	if m == nil {
		return
	}
	m.RegistrationsTotal.WithLabelValues(outcome).Inc()
}

// IncTokenDecodeFailure counts one undecodable stage token.
func (m *Metrics) IncTokenDecodeFailure() {
	if m == nil {
		return
	}
	m.TokenDecodeFailures.Inc()
}

// IncHolidayFetch counts one holiday calendar fetch with the given result.
func (m *Metrics) IncHolidayFetch(result string) {
	if m == nil {
		return
	}
	m.HolidayFetches.WithLabelValues(result).Inc()
}

// ObserveRecorderLatency records the duration of one recorder call.
func (m *Metrics) ObserveRecorderLatency(seconds float64) {
	if m == nil {
		return
	}
	m.RecorderLatency.Observe(seconds)
}
