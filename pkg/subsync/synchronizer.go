package subsync

import (
	"context"
	"fmt"
	"time"
)

// SynchronizerConfig holds configuration for a Synchronizer.
type SynchronizerConfig struct {
	// Sink receives the canonical state (required).
	Sink MetadataSink

	// Logger is an optional structured logger. If nil, logging is a no-op.
	Logger Logger

	// Metrics is an optional metrics collector. If nil, metrics are
	// silently ignored.
	Metrics Metrics
}

// Synchronizer builds the canonical subscription state from authoritative
// billing records and pushes it through a MetadataSink. It holds no state
// between calls; idempotence rests on the sink being a full-field overwrite
// of the same nested object.
type Synchronizer struct {
	sink    MetadataSink
	logger  Logger
	metrics Metrics
}

// NewSynchronizer creates a new Synchronizer.
func NewSynchronizer(config SynchronizerConfig) (*Synchronizer, error) {
	if config.Sink == nil {
		return nil, fmt.Errorf("metadata sink is required")
	}

	logger := config.Logger
	if logger == nil {
		logger = &NoopLogger{}
	}

	metrics := config.Metrics
	if metrics == nil {
		metrics = &NoopMetrics{}
	}

	return &Synchronizer{
		sink:    config.Sink,
		logger:  logger,
		metrics: metrics,
	}, nil
}

// Synchronize builds the canonical state for the given records and patches
// it onto the user identified by the subscription's correlation key.
// A missing or empty correlation key is a hard failure: no downstream call
// is attempted.
func (s *Synchronizer) Synchronize(ctx context.Context, sub *Subscription, inv *Invoice, eventID string) error {
	startTime := time.Now()

	authUserID := sub.AuthUserID()
	if authUserID == "" {
		s.metrics.RecordWebhookError("missing_correlation_key")
		s.logger.Error("subscription has no correlation key",
			Field{Key: "subscription_id", Value: sub.ID},
			Field{Key: "event_id", Value: eventID},
		)
		return fmt.Errorf("subscription %s: %w", sub.ID, ErrMissingCorrelationKey)
	}

	state := BuildSubscriptionState(sub, inv, eventID)

	if err := s.sink.PatchSubscriptionState(ctx, authUserID, state); err != nil {
		s.metrics.RecordSyncDuration(time.Since(startTime))
		s.logger.Error("subscription state sync failed",
			Field{Key: "subscription_id", Value: sub.ID},
			Field{Key: "event_id", Value: eventID},
			Field{Key: "error", Value: err.Error()},
		)
		return err
	}

	s.metrics.RecordSyncDuration(time.Since(startTime))
	s.logger.Info("subscription state synced",
		Field{Key: "subscription_id", Value: sub.ID},
		Field{Key: "status", Value: sub.Status},
		Field{Key: "event_id", Value: eventID},
	)
	return nil
}

// BuildSubscriptionState flattens the authoritative records into the
// canonical state. The event id is carried purely for traceability; for the
// same subscription+invoice pair the remaining fields are deterministic.
func BuildSubscriptionState(sub *Subscription, inv *Invoice, eventID string) *SubscriptionState {
	state := &SubscriptionState{
		Status:            sub.Status,
		ID:                sub.ID,
		CustomerID:        sub.CustomerID,
		LatestInvoiceID:   sub.LatestInvoiceID,
		EventID:           eventID,
		PlanID:            sub.PlanID,
		ProductID:         sub.ProductID,
		EndDate:           sub.CurrentPeriodEnd,
		CancelAtPeriodEnd: sub.CancelAtPeriodEnd,
		HostedInvoiceURL:  inv.HostedInvoiceURL,
	}

	if sub.CanceledAt != 0 {
		cancelledAt := sub.CanceledAt
		state.CancelledAt = &cancelledAt
	}
	if sub.CancelAt != 0 {
		cancelAt := sub.CancelAt
		state.CancelAt = &cancelAt
	}

	return state
}
