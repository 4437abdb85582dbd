// Package subsync synchronizes billing subscription state from a payment
// processor into an identity provider's per-user metadata store. It is a
// stateless forwarder: every entity below is created and discarded within a
// single webhook invocation.
package subsync

// CorrelationKey is the metadata key on the processor's subscription record
// that maps a billing subscription to an identity-provider user.
const CorrelationKey = "authUserID"

// Subscription is the authoritative subscription record re-fetched from the
// payment processor. Webhook payload fields are never trusted beyond the id
// used to perform this fetch.
type Subscription struct {
	ID                string
	Status            string
	CustomerID        string
	LatestInvoiceID   string
	PlanID            string
	ProductID         string
	CurrentPeriodEnd  int64
	CanceledAt        int64
	CancelAt          int64
	CancelAtPeriodEnd bool
	Metadata          map[string]string
}

// AuthUserID returns the correlation key embedded in the subscription
// metadata, or empty string when absent.
func (s *Subscription) AuthUserID() string {
	if s.Metadata == nil {
		return ""
	}
	return s.Metadata[CorrelationKey]
}

// Invoice is the authoritative invoice record re-fetched from the payment
// processor.
type Invoice struct {
	ID               string
	BillingReason    string
	HostedInvoiceURL string
}

// SubscriptionState is the canonical, provider-agnostic record pushed to the
// identity provider. It is built fresh per event and never mutated after
// construction; re-running the same event reproduces the same state.
type SubscriptionState struct {
	Status            string `json:"status"`
	ID                string `json:"id"`
	CustomerID        string `json:"customer_id"`
	LatestInvoiceID   string `json:"latest_invoice_id"`
	EventID           string `json:"event_id"`
	PlanID            string `json:"plan_id"`
	ProductID         string `json:"product_id"`
	EndDate           int64  `json:"end_date"`
	CancelledAt       *int64 `json:"cancelled_at"`
	CancelAt          *int64 `json:"cancel_at"`
	CancelAtPeriodEnd bool   `json:"cancel_at_period_end"`
	HostedInvoiceURL  string `json:"hosted_invoice_url"`
}

// Outcome classifies how a verified event was resolved.
type Outcome int

const (
	// OutcomeSynced means the canonical state was pushed downstream.
	OutcomeSynced Outcome = iota

	// OutcomeSkippedUnrecognized means the event type is not one the
	// dispatcher handles.
	OutcomeSkippedUnrecognized

	// OutcomeSkippedGuard means the event type is handled but its nested
	// object state failed the guard for that type.
	OutcomeSkippedGuard
)

func (o Outcome) String() string {
	switch o {
	case OutcomeSynced:
		return "synced"
	case OutcomeSkippedUnrecognized:
		return "skipped_unrecognized"
	case OutcomeSkippedGuard:
		return "skipped_guard"
	default:
		return "unknown"
	}
}
