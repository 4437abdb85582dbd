package stripe

import (
	"errors"
	"net/http"
	"time"

	"github.com/stripe/stripe-go/v83"

	"github.com/abhinavshm95/subsync/pkg/subsync"
	"github.com/abhinavshm95/subsync/pkg/subsync/internal"
)

// handleWebhook is the single error boundary of the pipeline: every internal
// error kind maps to a deterministic status here, and nothing propagates past
// it. Non-2xx statuses signal the delivery system to retry, so they are
// reserved for verification failures and transient dispatch/sync errors.
func (p *Processor) handleWebhook(w http.ResponseWriter, r *http.Request) {
	startTime := time.Now()
	internal.SetSecurityHeaders(w)

	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	// Fail closed: without a shared secret no request can be authenticated,
	// so none is parsed.
	if len(p.webhookSecret) == 0 {
		p.logger.Error("webhook secret not configured, rejecting event")
		p.metrics.RecordWebhookError("not_configured")
		http.Error(w, subsync.ErrNotConfigured.Error(), http.StatusBadRequest)
		return
	}

	body, err := internal.ReadBodyStrict(w, r, maxBodyBytes)
	if err != nil {
		if errors.Is(err, internal.ErrPayloadTooLarge) {
			p.metrics.RecordWebhookError("payload_too_large")
			http.Error(w, "payload too large", http.StatusRequestEntityTooLarge)
		} else {
			p.metrics.RecordWebhookError("invalid_payload")
			http.Error(w, "invalid payload", http.StatusBadRequest)
		}
		return
	}

	sig := r.Header.Get("Stripe-Signature")
	event, err := stripe.ConstructEvent(body, sig, string(p.webhookSecret))
	if err != nil {
		// No partial event data leaks past this point: only the failure is
		// logged, never the body.
		p.logger.Warn("webhook signature verification failed",
			subsync.Field{Key: "error", Value: err.Error()},
		)
		p.metrics.RecordWebhookError("auth_failed")
		http.Error(w, subsync.ErrInvalidSignature.Error(), http.StatusBadRequest)
		return
	}

	eventType := string(event.Type)
	outcome, err := p.processEvent(r.Context(), &event)
	if err != nil {
		p.metrics.RecordWebhookEvent(eventType, "error")
		p.metrics.RecordWebhookProcessingDuration(eventType, time.Since(startTime))
		p.writeProcessingError(w, &event, err)
		return
	}

	p.metrics.RecordWebhookEvent(eventType, outcome.String())
	p.metrics.RecordWebhookProcessingDuration(eventType, time.Since(startTime))

	w.WriteHeader(http.StatusOK)
	if _, err := w.Write([]byte("ok")); err != nil {
		return
	}
}

func (p *Processor) writeProcessingError(w http.ResponseWriter, event *stripe.Event, err error) {
	p.logger.Error("event processing failed",
		subsync.Field{Key: "event_id", Value: event.ID},
		subsync.Field{Key: "event_type", Value: string(event.Type)},
		subsync.Field{Key: "error", Value: err.Error()},
	)

	switch {
	case errors.Is(err, subsync.ErrInvalidPayload):
		p.metrics.RecordWebhookError("invalid_payload")
		http.Error(w, "invalid payload", http.StatusBadRequest)

	case errors.Is(err, subsync.ErrMissingCorrelationKey):
		// Upstream data defect. Non-2xx keeps it visible in the processor's
		// delivery dashboard, but redelivery will not fix it.
		http.Error(w, "subscription not correlated to a user", http.StatusUnprocessableEntity)

	case errors.Is(err, subsync.ErrBillingFetch),
		errors.Is(err, subsync.ErrCredentialExchange),
		errors.Is(err, subsync.ErrMetadataPatch):
		// Transient: recovery is delivery-based, the processor redelivers on
		// non-2xx and the sync overwrite is idempotent.
		p.metrics.RecordWebhookError("transient_failure")
		http.Error(w, "upstream call failed", http.StatusBadGateway)

	default:
		p.metrics.RecordWebhookError("processing_error")
		http.Error(w, "failed to process webhook", http.StatusInternalServerError)
	}
}
