package checkout

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"library/internal/events"
)

func newTestProjector(t *testing.T) (*Projector, *fakeRepo) {
	t.Helper()
	svc, repo, _ := newTestService()
	_, err := svc.PlaceOrder(context.Background(), &Order{Items: []OrderItem{{BookID: 1, Quantity: 1}}})
	require.NoError(t, err)
	return NewProjector(svc, zerolog.Nop()), repo
}

func deliver(t *testing.T, p *Projector, routingKey string, evt any) error {
	t.Helper()
	body, err := json.Marshal(evt)
	require.NoError(t, err)
	return p.Handle(context.Background(), routingKey, body)
}

func TestProjectorMapsEventsToStatuses(t *testing.T) {
	cases := []struct {
		routingKey string
		want       Status
	}{
		{events.RKPaymentConfirmed, StatusPaymentConfirmed},
		{events.RKPaymentFailed, StatusPaymentFailed},
		{events.RKOrderProcessing, StatusProcessing},
		{events.RKOrderShipped, StatusShipped},
		{events.RKOrderDelivered, StatusDelivered},
		{events.RKOrderCompleted, StatusCompleted},
	}
	for _, tc := range cases {
		t.Run(tc.routingKey, func(t *testing.T) {
			p, repo := newTestProjector(t)
			require.NoError(t, deliver(t, p, tc.routingKey, events.PaymentConfirmedEvent{OrderID: 1, ConfirmedAt: time.Now()}))
			assert.Equal(t, tc.want, repo.orders[1].Status)
		})
	}
}

// Locks in the current semantics: the projector blindly overwrites, so a
// duplicate of an earlier event regresses the status (last write wins).
func TestProjectorLastWriteWins(t *testing.T) {
	p, repo := newTestProjector(t)

	require.NoError(t, deliver(t, p, events.RKPaymentConfirmed, events.PaymentConfirmedEvent{OrderID: 1}))
	require.NoError(t, deliver(t, p, events.RKOrderShipped, events.OrderShippedEvent{OrderID: 1}))
	require.NoError(t, deliver(t, p, events.RKPaymentConfirmed, events.PaymentConfirmedEvent{OrderID: 1}))

	assert.Equal(t, StatusPaymentConfirmed, repo.orders[1].Status)
}

func TestProjectorUnknownOrderIsAcked(t *testing.T) {
	p, repo := newTestProjector(t)

	err := deliver(t, p, events.RKOrderShipped, events.OrderShippedEvent{OrderID: 999})
	assert.NoError(t, err, "an unknown order must not be requeued")
	assert.Equal(t, StatusPlaced, repo.orders[1].Status)
}

func TestProjectorInvalidPayloadIsAcked(t *testing.T) {
	p, _ := newTestProjector(t)
	assert.NoError(t, p.Handle(context.Background(), events.RKOrderShipped, []byte("{not json")))
}

func TestProjectorStoreFailurePropagates(t *testing.T) {
	p, repo := newTestProjector(t)
	repo.updateErr = errors.New("db locked")

	err := deliver(t, p, events.RKOrderShipped, events.OrderShippedEvent{OrderID: 1})
	assert.Error(t, err, "a store failure must reach the broker for redelivery")
}

func TestProjectorBindingsCoverAllConfirmationEvents(t *testing.T) {
	p, _ := newTestProjector(t)
	assert.ElementsMatch(t, []string{
		events.RKPaymentConfirmed,
		events.RKPaymentFailed,
		events.RKOrderProcessing,
		events.RKOrderShipped,
		events.RKOrderDelivered,
		events.RKOrderCompleted,
	}, p.Bindings())
}
