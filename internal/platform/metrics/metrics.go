package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics for the application.
type Metrics struct {
	CustomersCreated   prometheus.Counter
	QuotesCreated      *prometheus.CounterVec
	QuoteStatusUpdates *prometheus.CounterVec
	PolicyStateChanges *prometheus.CounterVec
	OutboxPublished    prometheus.Counter
	OutboxFailures     prometheus.Counter
	RequestDuration    *prometheus.HistogramVec
}

// New creates and registers all Prometheus metrics.
func New() *Metrics {
	return &Metrics{
		CustomersCreated: promauto.NewCounter(prometheus.CounterOpts{
			Name: "coverbase_customers_created_total",
			Help: "Total number of customers created",
		}),
		QuotesCreated: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "coverbase_quotes_created_total",
			Help: "Total number of quotes created by type",
		}, []string{"type"}),
		QuoteStatusUpdates: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "coverbase_quote_status_updates_total",
			Help: "Total quote status updates by target status",
		}, []string{"status"}),
		PolicyStateChanges: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "coverbase_policy_state_changes_total",
			Help: "Total policy state changes by target state",
		}, []string{"state"}),
		OutboxPublished: promauto.NewCounter(prometheus.CounterOpts{
			Name: "coverbase_outbox_published_total",
			Help: "Total outbox events published to the broker",
		}),
		OutboxFailures: promauto.NewCounter(prometheus.CounterOpts{
			Name: "coverbase_outbox_failures_total",
			Help: "Total outbox publish attempts that failed",
		}),
		RequestDuration: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "coverbase_http_request_duration_seconds",
			Help:    "Duration of HTTP requests by route and status",
			Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
		}, []string{"route", "status"}),
	}
}

// IncrementCustomersCreated increments the customers created counter by 1.
func (m *Metrics) IncrementCustomersCreated() {
	if m != nil {
		m.CustomersCreated.Inc()
	}
}

// IncrementQuotesCreated records a created quote by type.
func (m *Metrics) IncrementQuotesCreated(quoteType string) {
	if m != nil {
		m.QuotesCreated.WithLabelValues(quoteType).Inc()
	}
}

// IncrementQuoteStatusUpdates records a quote status update.
func (m *Metrics) IncrementQuoteStatusUpdates(status string) {
	if m != nil {
		m.QuoteStatusUpdates.WithLabelValues(status).Inc()
	}
}

// IncrementPolicyStateChanges records a policy state change.
func (m *Metrics) IncrementPolicyStateChanges(state string) {
	if m != nil {
		m.PolicyStateChanges.WithLabelValues(state).Inc()
	}
}

// IncrementOutboxPublished records a successfully published outbox event.
func (m *Metrics) IncrementOutboxPublished() {
	if m != nil {
		m.OutboxPublished.Inc()
	}
}

// IncrementOutboxFailures records a failed outbox publish attempt.
func (m *Metrics) IncrementOutboxFailures() {
	if m != nil {
		m.OutboxFailures.Inc()
	}
}
