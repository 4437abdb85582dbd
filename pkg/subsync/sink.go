package subsync

import "context"

// MetadataSink is the capability that propagates canonical subscription
// state into an identity provider's per-user metadata store. This allows the
// pipeline to swap identity backends (or integration styles) with zero logic
// changes.
type MetadataSink interface {
	// PatchSubscriptionState issues a single partial update of the target
	// user's application metadata, nesting state under a stable field path.
	// The call is atomic at the provider: it either fully applies or fails.
	PatchSubscriptionState(ctx context.Context, authUserID string, state *SubscriptionState) error
}
