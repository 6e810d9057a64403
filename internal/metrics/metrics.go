package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Poll results recorded on relay_polls_total.
const (
	PollOK      = "ok"
	PollPartial = "partial"
	PollFailed  = "failed"
)

// Metrics holds the relay's Prometheus collectors on a private registry.
type Metrics struct {
	reg *prometheus.Registry

	PollsTotal           *prometheus.CounterVec
	RepliesReceived      prometheus.Counter
	RepliesForwarded     prometheus.Counter
	RepliesConfirmed     prometheus.Counter
	ConfirmErrors        *prometheus.CounterVec
	APIRequestDuration   *prometheus.HistogramVec
	PublishFailuresTotal *prometheus.CounterVec
	LedgerUnconfirmed    prometheus.Gauge
}

// New registers the relay collectors on a fresh registry.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &Metrics{
		reg: reg,
		PollsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "relay_polls_total",
				Help: "Total number of relay poll passes by result",
			},
			[]string{"result"},
		),
		RepliesReceived: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "relay_replies_received_total",
				Help: "Total number of replies returned by check replies",
			},
		),
		RepliesForwarded: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "relay_replies_forwarded_total",
				Help: "Total number of replies accepted by every publisher",
			},
		),
		RepliesConfirmed: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "relay_replies_confirmed_total",
				Help: "Total number of replies confirmed as received",
			},
		),
		ConfirmErrors: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "relay_confirm_errors_total",
				Help: "Total number of failed confirm batches by error kind",
			},
			[]string{"kind"},
		),
		APIRequestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "relay_api_request_duration_seconds",
				Help:    "Duration of replies API calls in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"operation", "outcome"},
		),
		PublishFailuresTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "relay_publish_failures_total",
				Help: "Total number of replies that at least one publisher rejected",
			},
			[]string{"reason"},
		),
		LedgerUnconfirmed: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "relay_ledger_unconfirmed",
				Help: "Forwarded replies in the ledger that were not yet confirmed",
			},
		),
	}
}

// --- Recording Methods ---

func (m *Metrics) RecordPoll(result string) {
	if m == nil {
		return
	}
	m.PollsTotal.WithLabelValues(result).Inc()
}

func (m *Metrics) RecordReceived(n int) {
	if m == nil || n <= 0 {
		return
	}
	m.RepliesReceived.Add(float64(n))
}

func (m *Metrics) RecordForwarded() {
	if m == nil {
		return
	}
	m.RepliesForwarded.Inc()
}

func (m *Metrics) RecordPublishFailure(reason string) {
	if m == nil {
		return
	}
	m.PublishFailuresTotal.WithLabelValues(reason).Inc()
}

func (m *Metrics) RecordConfirmed(n int) {
	if m == nil || n <= 0 {
		return
	}
	m.RepliesConfirmed.Add(float64(n))
}

func (m *Metrics) SetUnconfirmed(n int) {
	if m == nil {
		return
	}
	m.LedgerUnconfirmed.Set(float64(n))
}

func (m *Metrics) RecordConfirmError(kind string) {
	if m == nil {
		return
	}
	m.ConfirmErrors.WithLabelValues(kind).Inc()
}

// RecordAPICall observes a replies API call. outcome is "success" or an error kind.
func (m *Metrics) RecordAPICall(operation, outcome string, duration time.Duration) {
	if m == nil {
		return
	}
	m.APIRequestDuration.WithLabelValues(operation, outcome).Observe(duration.Seconds())
}

// Registry exposes the private registry for gathering.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.reg
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.reg, promhttp.HandlerOpts{Registry: m.reg})
}
