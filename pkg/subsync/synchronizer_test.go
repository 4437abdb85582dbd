package subsync

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// recordingSink captures every patch for assertions
type recordingSink struct {
	calls []sinkCall
	err   error
}

type sinkCall struct {
	authUserID string
	state      *SubscriptionState
}

func (s *recordingSink) PatchSubscriptionState(_ context.Context, authUserID string, state *SubscriptionState) error {
	s.calls = append(s.calls, sinkCall{authUserID: authUserID, state: state})
	return s.err
}

func canceledSubscription() *Subscription {
	return &Subscription{
		ID:               "sub_1",
		Status:           "canceled",
		CustomerID:       "cus_1",
		LatestInvoiceID:  "in_1",
		PlanID:           "plan_A",
		ProductID:        "prod_A",
		CurrentPeriodEnd: 1700000000,
		CanceledAt:       1699999000,
		Metadata:         map[string]string{"authUserID": "u1"},
	}
}

func TestNewSynchronizer_RequiresSink(t *testing.T) {
	_, err := NewSynchronizer(SynchronizerConfig{})
	require.Error(t, err)
}

func TestSynchronize_CanceledSubscription(t *testing.T) {
	sink := &recordingSink{}
	syncer, err := NewSynchronizer(SynchronizerConfig{Sink: sink})
	require.NoError(t, err)

	inv := &Invoice{ID: "in_1", HostedInvoiceURL: "https://pay/in_1"}
	err = syncer.Synchronize(context.Background(), canceledSubscription(), inv, "evt_1")
	require.NoError(t, err)

	require.Len(t, sink.calls, 1)
	call := sink.calls[0]
	assert.Equal(t, "u1", call.authUserID)

	state := call.state
	assert.Equal(t, "canceled", state.Status)
	assert.Equal(t, "sub_1", state.ID)
	assert.Equal(t, "cus_1", state.CustomerID)
	assert.Equal(t, "in_1", state.LatestInvoiceID)
	assert.Equal(t, "evt_1", state.EventID)
	assert.Equal(t, "plan_A", state.PlanID)
	assert.Equal(t, "prod_A", state.ProductID)
	assert.Equal(t, int64(1700000000), state.EndDate)
	require.NotNil(t, state.CancelledAt)
	assert.Equal(t, int64(1699999000), *state.CancelledAt)
	assert.Nil(t, state.CancelAt)
	assert.False(t, state.CancelAtPeriodEnd)
	assert.Equal(t, "https://pay/in_1", state.HostedInvoiceURL)
}

func TestSynchronize_MissingCorrelationKey(t *testing.T) {
	sink := &recordingSink{}
	syncer, err := NewSynchronizer(SynchronizerConfig{Sink: sink})
	require.NoError(t, err)

	sub := canceledSubscription()
	sub.Metadata = nil

	err = syncer.Synchronize(context.Background(), sub, &Invoice{}, "evt_1")
	require.ErrorIs(t, err, ErrMissingCorrelationKey)
	assert.Empty(t, sink.calls, "no downstream call may be attempted")
}

func TestSynchronize_EmptyCorrelationKey(t *testing.T) {
	sink := &recordingSink{}
	syncer, err := NewSynchronizer(SynchronizerConfig{Sink: sink})
	require.NoError(t, err)

	sub := canceledSubscription()
	sub.Metadata = map[string]string{"authUserID": ""}

	err = syncer.Synchronize(context.Background(), sub, &Invoice{}, "evt_1")
	require.ErrorIs(t, err, ErrMissingCorrelationKey)
	assert.Empty(t, sink.calls)
}

func TestSynchronize_SinkErrorPropagates(t *testing.T) {
	sinkErr := errors.New("patch rejected")
	sink := &recordingSink{err: sinkErr}
	syncer, err := NewSynchronizer(SynchronizerConfig{Sink: sink})
	require.NoError(t, err)

	err = syncer.Synchronize(context.Background(), canceledSubscription(), &Invoice{}, "evt_1")
	require.ErrorIs(t, err, sinkErr)
}

// Re-running the same event must reproduce the same canonical state
// byte-for-byte; two distinct events over the same records differ only in
// the event id.
func TestBuildSubscriptionState_Deterministic(t *testing.T) {
	sub := canceledSubscription()
	inv := &Invoice{ID: "in_1", HostedInvoiceURL: "https://pay/in_1"}

	first, err := json.Marshal(BuildSubscriptionState(sub, inv, "evt_1"))
	require.NoError(t, err)
	second, err := json.Marshal(BuildSubscriptionState(sub, inv, "evt_1"))
	require.NoError(t, err)
	assert.Equal(t, first, second)

	other, err := json.Marshal(BuildSubscriptionState(sub, inv, "evt_2"))
	require.NoError(t, err)
	assert.NotEqual(t, first, other)

	// Identical except for the event id field.
	var a, b map[string]interface{}
	require.NoError(t, json.Unmarshal(first, &a))
	require.NoError(t, json.Unmarshal(other, &b))
	assert.Equal(t, "evt_1", a["event_id"])
	assert.Equal(t, "evt_2", b["event_id"])
	delete(a, "event_id")
	delete(b, "event_id")
	assert.Equal(t, a, b)
}

func TestBuildSubscriptionState_NullableCancellation(t *testing.T) {
	sub := canceledSubscription()
	sub.CanceledAt = 0
	sub.CancelAt = 1800000000

	state := BuildSubscriptionState(sub, &Invoice{}, "evt_1")
	assert.Nil(t, state.CancelledAt)
	require.NotNil(t, state.CancelAt)
	assert.Equal(t, int64(1800000000), *state.CancelAt)
}
