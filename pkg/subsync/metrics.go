package subsync

import "time"

// Metrics defines the interface for tracking pipeline operations.
// All methods are optional - components should gracefully handle nil metrics.
type Metrics interface {
	// RecordWebhookEvent records a verified webhook event and its outcome.
	// outcome: "synced", "skipped_unrecognized", "skipped_guard" or "error"
	RecordWebhookEvent(eventType, outcome string)

	// RecordWebhookProcessingDuration records how long it took to process a webhook.
	RecordWebhookProcessingDuration(eventType string, duration time.Duration)

	// RecordWebhookError records a webhook processing error.
	// errorType: e.g. "auth_failed", "invalid_payload", "fetch_failed",
	// "missing_correlation_key", "sync_failed"
	RecordWebhookError(errorType string)

	// RecordBillingFetch records an authoritative re-read against the
	// payment processor.
	// object: "subscription" or "invoice"; status: "success" or "error"
	RecordBillingFetch(object, status string)

	// RecordTokenExchange records a client-credentials exchange with the
	// identity provider. status: "success" or "error"
	RecordTokenExchange(status string)

	// RecordMetadataPatch records a metadata patch against the identity
	// provider. status: "success" or "error"
	RecordMetadataPatch(status string)

	// RecordSyncDuration records how long a full synchronization took,
	// token exchange included.
	RecordSyncDuration(duration time.Duration)
}

// NoopMetrics is a no-op implementation of the Metrics interface.
type NoopMetrics struct{}

func (n *NoopMetrics) RecordWebhookEvent(_, _ string)                            {}
func (n *NoopMetrics) RecordWebhookProcessingDuration(_ string, _ time.Duration) {}
func (n *NoopMetrics) RecordWebhookError(_ string)                               {}
func (n *NoopMetrics) RecordBillingFetch(_, _ string)                            {}
func (n *NoopMetrics) RecordTokenExchange(_ string)                              {}
func (n *NoopMetrics) RecordMetadataPatch(_ string)                              {}
func (n *NoopMetrics) RecordSyncDuration(_ time.Duration)                        {}
