package stripe

import (
	"context"
	"fmt"

	"github.com/stripe/stripe-go/v83"

	"github.com/abhinavshm95/subsync/pkg/subsync"
)

// billingBackend is the slice of the Stripe API the dispatcher needs.
// Kept as an interface so tests can substitute the live client.
type billingBackend interface {
	RetrieveSubscription(ctx context.Context, id string) (*subsync.Subscription, error)
	RetrieveInvoice(ctx context.Context, id string) (*subsync.Invoice, error)
}

// clientBackend implements billingBackend against the Stripe client (v83 API).
type clientBackend struct {
	client *stripe.Client
}

func (b *clientBackend) RetrieveSubscription(ctx context.Context, id string) (*subsync.Subscription, error) {
	sub, err := b.client.V1Subscriptions.Retrieve(ctx, id, nil)
	if err != nil {
		return nil, fmt.Errorf("retrieve subscription %s: %w", id, err)
	}
	return subscriptionRecord(sub), nil
}

func (b *clientBackend) RetrieveInvoice(ctx context.Context, id string) (*subsync.Invoice, error) {
	inv, err := b.client.V1Invoices.Retrieve(ctx, id, nil)
	if err != nil {
		return nil, fmt.Errorf("retrieve invoice %s: %w", id, err)
	}
	return invoiceRecord(inv), nil
}

// subscriptionRecord flattens a Stripe subscription into the pipeline's own
// record type. All nested pointers are optional in the API response, so every
// access is guarded.
func subscriptionRecord(sub *stripe.Subscription) *subsync.Subscription {
	rec := &subsync.Subscription{
		ID:                sub.ID,
		Status:            string(sub.Status),
		CanceledAt:        sub.CanceledAt,
		CancelAt:          sub.CancelAt,
		CancelAtPeriodEnd: sub.CancelAtPeriodEnd,
		Metadata:          sub.Metadata,
	}

	if sub.Customer != nil {
		rec.CustomerID = sub.Customer.ID
	}
	if sub.LatestInvoice != nil {
		rec.LatestInvoiceID = sub.LatestInvoice.ID
	}

	// Price and period data live on the subscription items (v83 API).
	if sub.Items != nil && len(sub.Items.Data) > 0 {
		item := sub.Items.Data[0]
		rec.CurrentPeriodEnd = item.CurrentPeriodEnd
		if item.Price != nil {
			rec.PlanID = item.Price.ID
			if item.Price.Product != nil {
				rec.ProductID = item.Price.Product.ID
			}
		}
	}

	return rec
}

func invoiceRecord(inv *stripe.Invoice) *subsync.Invoice {
	return &subsync.Invoice{
		ID:               inv.ID,
		BillingReason:    string(inv.BillingReason),
		HostedInvoiceURL: inv.HostedInvoiceURL,
	}
}
