package stripe

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/stripe/stripe-go/v83"

	"github.com/abhinavshm95/subsync/pkg/subsync"
)

// syncTask names the subscription to re-fetch for an event that passed its
// guard. invoiceGuard, when non-empty, is a billing reason the fetched
// invoice must carry before the state is synchronized.
type syncTask struct {
	subscriptionID string
	invoiceGuard   string
}

// route inspects the event type and its nested object state and decides
// whether the event denotes a billing-relevant transition. The payload is
// trusted only for the guards below and the id used to re-fetch; everything
// synchronized downstream comes from authoritative re-reads.
//
//	type                            guard                                   action
//	checkout.session.completed      mode == "subscription"                  fetch; sync if invoice is subscription_create
//	invoice.payment_succeeded       object == "invoice" &&
//	                                billing_reason == "subscription_cycle"  fetch; sync
//	customer.subscription.updated   object == "subscription"                fetch; sync
//	customer.subscription.deleted   object == "subscription"                fetch; sync
//	anything else                   -                                       skip
func (p *Processor) route(event *stripe.Event) (*syncTask, subsync.Outcome, error) {
	switch event.Type {
	case "checkout.session.completed":
		var session stripe.CheckoutSession
		if err := json.Unmarshal(event.Data.Raw, &session); err != nil {
			return nil, 0, fmt.Errorf("%w: checkout session: %v", subsync.ErrInvalidPayload, err)
		}
		if session.Mode != modeSubscription || session.Subscription == nil || session.Subscription.ID == "" {
			return nil, subsync.OutcomeSkippedGuard, nil
		}
		return &syncTask{
			subscriptionID: session.Subscription.ID,
			invoiceGuard:   billingReasonCreate,
		}, 0, nil

	case "invoice.payment_succeeded":
		var invoice stripe.Invoice
		if err := json.Unmarshal(event.Data.Raw, &invoice); err != nil {
			return nil, 0, fmt.Errorf("%w: invoice: %v", subsync.ErrInvalidPayload, err)
		}
		if invoice.Object != objectInvoice || string(invoice.BillingReason) != billingReasonCycle {
			return nil, subsync.OutcomeSkippedGuard, nil
		}
		subscriptionID := invoiceSubscriptionID(event.Data.Raw)
		if subscriptionID == "" {
			return nil, subsync.OutcomeSkippedGuard, nil
		}
		return &syncTask{subscriptionID: subscriptionID}, 0, nil

	case "customer.subscription.updated", "customer.subscription.deleted":
		var subscription stripe.Subscription
		if err := json.Unmarshal(event.Data.Raw, &subscription); err != nil {
			return nil, 0, fmt.Errorf("%w: subscription: %v", subsync.ErrInvalidPayload, err)
		}
		if subscription.Object != objectSubscription || subscription.ID == "" {
			return nil, subsync.OutcomeSkippedGuard, nil
		}
		return &syncTask{subscriptionID: subscription.ID}, 0, nil

	default:
		return nil, subsync.OutcomeSkippedUnrecognized, nil
	}
}

// processEvent resolves a verified event end to end: route, fetch the
// authoritative records, apply any post-fetch invoice guard, synchronize.
func (p *Processor) processEvent(ctx context.Context, event *stripe.Event) (subsync.Outcome, error) {
	task, outcome, err := p.route(event)
	if err != nil {
		return 0, err
	}
	if task == nil {
		p.logger.Debug("event skipped",
			subsync.Field{Key: "event_id", Value: event.ID},
			subsync.Field{Key: "event_type", Value: string(event.Type)},
			subsync.Field{Key: "outcome", Value: outcome.String()},
		)
		return outcome, nil
	}

	sub, err := p.backend.RetrieveSubscription(ctx, task.subscriptionID)
	if err != nil {
		p.metrics.RecordBillingFetch("subscription", "error")
		return 0, fmt.Errorf("%w: %v", subsync.ErrBillingFetch, err)
	}
	p.metrics.RecordBillingFetch("subscription", "success")

	inv, err := p.backend.RetrieveInvoice(ctx, sub.LatestInvoiceID)
	if err != nil {
		p.metrics.RecordBillingFetch("invoice", "error")
		return 0, fmt.Errorf("%w: %v", subsync.ErrBillingFetch, err)
	}
	p.metrics.RecordBillingFetch("invoice", "success")

	if task.invoiceGuard != "" && inv.BillingReason != task.invoiceGuard {
		p.logger.Debug("invoice guard unmet",
			subsync.Field{Key: "event_id", Value: event.ID},
			subsync.Field{Key: "billing_reason", Value: inv.BillingReason},
		)
		return subsync.OutcomeSkippedGuard, nil
	}

	if err := p.synchronizer.Synchronize(ctx, sub, inv, event.ID); err != nil {
		return 0, err
	}
	return subsync.OutcomeSynced, nil
}

// invoiceSubscriptionID pulls the parent subscription id out of a raw invoice
// payload. Depending on API version the field is a bare id or an embedded
// object, so it is extracted from the raw JSON rather than the typed struct.
func invoiceSubscriptionID(raw json.RawMessage) string {
	var rawData map[string]interface{}
	if err := json.Unmarshal(raw, &rawData); err != nil {
		return ""
	}
	switch v := rawData["subscription"].(type) {
	case string:
		return v
	case map[string]interface{}:
		if id, ok := v["id"].(string); ok {
			return id
		}
	}
	return ""
}
