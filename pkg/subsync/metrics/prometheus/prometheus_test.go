package prommetrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
)

func TestPrometheusMetrics_NewMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	metrics := NewMetrics(reg, "test")

	if metrics == nil {
		t.Fatal("NewMetrics returned nil")
	}
}

func TestPrometheusMetrics_RecordWebhookEvent(t *testing.T) {
	reg := prometheus.NewRegistry()
	metrics := NewMetrics(reg, "test")

	metrics.RecordWebhookEvent("customer.subscription.deleted", "synced")
	metrics.RecordWebhookEvent("payment_intent.created", "skipped_unrecognized")

	counter := findMetric(t, reg, "test_webhook_events_total")
	if counter == nil {
		t.Fatal("Expected webhook events counter to be registered")
	}
	if len(counter.Metric) != 2 {
		t.Errorf("Expected 2 label combinations, got %d", len(counter.Metric))
	}
}

func TestPrometheusMetrics_RecordWebhookError(t *testing.T) {
	reg := prometheus.NewRegistry()
	metrics := NewMetrics(reg, "test")

	metrics.RecordWebhookError("auth_failed")
	metrics.RecordWebhookError("auth_failed")

	counter := findMetric(t, reg, "test_webhook_errors_total")
	if counter == nil {
		t.Fatal("Expected webhook errors counter to be registered")
	}
	if got := counter.Metric[0].Counter.GetValue(); got != 2 {
		t.Errorf("Expected counter value 2, got %v", got)
	}
}

func TestPrometheusMetrics_RecordDurations(t *testing.T) {
	reg := prometheus.NewRegistry()
	metrics := NewMetrics(reg, "test")

	metrics.RecordWebhookProcessingDuration("invoice.payment_succeeded", 25*time.Millisecond)
	metrics.RecordSyncDuration(120 * time.Millisecond)
	metrics.RecordBillingFetch("subscription", "success")
	metrics.RecordTokenExchange("success")
	metrics.RecordMetadataPatch("error")

	families, err := reg.Gather()
	if err != nil {
		t.Fatalf("Gather failed: %v", err)
	}
	if len(families) < 5 {
		t.Errorf("Expected at least 5 metric families, got %d", len(families))
	}
}

func findMetric(t *testing.T, reg *prometheus.Registry, name string) *dto.MetricFamily {
	t.Helper()
	families, err := reg.Gather()
	if err != nil {
		t.Fatalf("Gather failed: %v", err)
	}
	for _, mf := range families {
		if mf.GetName() == name {
			return mf
		}
	}
	return nil
}
