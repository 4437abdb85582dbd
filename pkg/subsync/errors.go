package subsync

import "errors"

var (
	// ErrNotConfigured is returned when the webhook shared secret is empty.
	// The pipeline fails closed: every event is rejected until configuration
	// is corrected.
	ErrNotConfigured = errors.New("webhook secret not configured")

	// ErrInvalidSignature is returned when webhook signature verification
	// fails. Deterministic and non-retryable.
	ErrInvalidSignature = errors.New("invalid webhook signature")

	// ErrInvalidPayload is returned when a webhook body cannot be read or
	// parsed.
	ErrInvalidPayload = errors.New("invalid webhook payload")

	// ErrBillingFetch is returned when an authoritative re-read against the
	// payment processor fails. Transient; recovered by event redelivery.
	ErrBillingFetch = errors.New("billing record fetch failed")

	// ErrMissingCorrelationKey is returned when a fetched subscription has no
	// authUserID in its metadata. Non-retryable: it indicates an upstream
	// data defect, and no downstream call is attempted.
	ErrMissingCorrelationKey = errors.New("subscription metadata missing correlation key")

	// ErrCredentialExchange is returned when the identity provider refuses
	// the client-credentials token exchange. Retryable via redelivery.
	ErrCredentialExchange = errors.New("identity provider credential exchange failed")

	// ErrMetadataPatch is returned when the identity provider rejects the
	// metadata patch. Retryable via redelivery.
	ErrMetadataPatch = errors.New("identity provider metadata patch failed")
)
