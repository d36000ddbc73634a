package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the service's Prometheus collectors. A nil *Metrics is valid
// and records nothing.
type Metrics struct {
	votes       *prometheus.CounterVec
	submissions *prometheus.CounterVec
	moderation  *prometheus.CounterVec
	requests    *prometheus.CounterVec
	latency     *prometheus.HistogramVec
}

// New registers the collectors with registry. Pass prometheus.DefaultRegisterer
// in production and a fresh prometheus.NewRegistry() in tests.
func New(registry prometheus.Registerer) *Metrics {
	factory := promauto.With(registry)
	return &Metrics{
		votes: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "civic_votes_total",
			Help: "Vote and cancel attempts by voter kind and outcome",
		}, []string{"kind", "outcome"}),
		submissions: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "civic_option_submissions_total",
			Help: "User submitted options by initial status",
		}, []string{"status"}),
		moderation: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "civic_moderation_total",
			Help: "Moderation actions on options",
		}, []string{"action"}),
		requests: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "civic_http_requests_total",
			Help: "HTTP requests by route and status",
		}, []string{"method", "route", "status"}),
		latency: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "civic_http_request_duration_seconds",
			Help:    "HTTP request latency by route",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "route"}),
	}
}

func (m *Metrics) Vote(kind, outcome string) {
	if m == nil {
		return
	}
	m.votes.WithLabelValues(kind, outcome).Inc()
}

func (m *Metrics) OptionSubmitted(status string) {
	if m == nil {
		return
	}
	m.submissions.WithLabelValues(status).Inc()
}

func (m *Metrics) Moderation(action string) {
	if m == nil {
		return
	}
	m.moderation.WithLabelValues(action).Inc()
}

func (m *Metrics) Request(method, route, status string, seconds float64) {
	if m == nil {
		return
	}
	m.requests.WithLabelValues(method, route, status).Inc()
	m.latency.WithLabelValues(method, route).Observe(seconds)
}
