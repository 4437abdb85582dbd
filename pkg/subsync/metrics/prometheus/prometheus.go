// Package prommetrics provides a Prometheus implementation of the
// subsync.Metrics interface.
package prommetrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/abhinavshm95/subsync/pkg/subsync"
)

// Metrics implements subsync.Metrics using Prometheus.
type Metrics struct {
	webhookEventsTotal        *prometheus.CounterVec
	webhookProcessingDuration *prometheus.HistogramVec
	webhookErrorsTotal        *prometheus.CounterVec
	billingFetchesTotal       *prometheus.CounterVec
	tokenExchangesTotal       *prometheus.CounterVec
	metadataPatchesTotal      *prometheus.CounterVec
	syncDuration              prometheus.Histogram
}

// NewMetrics creates a new Prometheus metrics implementation for the pipeline.
func NewMetrics(reg prometheus.Registerer, namespace string) *Metrics {
	factory := promauto.With(reg)

	return &Metrics{
		webhookEventsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "webhook",
			Name:      "events_total",
			Help:      "Total number of verified webhook events by outcome.",
		}, []string{"event_type", "outcome"}),

		webhookProcessingDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "webhook",
			Name:      "processing_duration_seconds",
			Help:      "Duration of webhook processing in seconds.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"event_type"}),

		webhookErrorsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "webhook",
			Name:      "errors_total",
			Help:      "Total number of webhook processing errors.",
		}, []string{"error_type"}),

		billingFetchesTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "billing",
			Name:      "fetches_total",
			Help:      "Total number of authoritative record fetches from the payment processor.",
		}, []string{"object", "status"}),

		tokenExchangesTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "identity",
			Name:      "token_exchanges_total",
			Help:      "Total number of client-credential exchanges with the identity provider.",
		}, []string{"status"}),

		metadataPatchesTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "identity",
			Name:      "metadata_patches_total",
			Help:      "Total number of user metadata patches against the identity provider.",
		}, []string{"status"}),

		syncDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "identity",
			Name:      "sync_duration_seconds",
			Help:      "Duration of full state synchronizations in seconds.",
			Buckets:   prometheus.DefBuckets,
		}),
	}
}

func (m *Metrics) RecordWebhookEvent(eventType, outcome string) {
	m.webhookEventsTotal.WithLabelValues(eventType, outcome).Inc()
}

func (m *Metrics) RecordWebhookProcessingDuration(eventType string, duration time.Duration) {
	m.webhookProcessingDuration.WithLabelValues(eventType).Observe(duration.Seconds())
}

func (m *Metrics) RecordWebhookError(errorType string) {
	m.webhookErrorsTotal.WithLabelValues(errorType).Inc()
}

func (m *Metrics) RecordBillingFetch(object, status string) {
	m.billingFetchesTotal.WithLabelValues(object, status).Inc()
}

func (m *Metrics) RecordTokenExchange(status string) {
	m.tokenExchangesTotal.WithLabelValues(status).Inc()
}

func (m *Metrics) RecordMetadataPatch(status string) {
	m.metadataPatchesTotal.WithLabelValues(status).Inc()
}

func (m *Metrics) RecordSyncDuration(duration time.Duration) {
	m.syncDuration.Observe(duration.Seconds())
}

// DefaultMetrics returns a Metrics implementation using the default Prometheus registerer.
func DefaultMetrics(namespace string) subsync.Metrics {
	return NewMetrics(prometheus.DefaultRegisterer, namespace)
}
