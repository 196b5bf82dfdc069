package sync

import (
	"context"
	"testing"
	"time"

	"caregate/apperr"
	"caregate/database/repository/booking"
	"caregate/database/repository/fulfillment"
	"caregate/database/repository/order"
	"caregate/models"
	"caregate/utils"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newFixture(t *testing.T) (*Synchronizer, *orderRepo.MemoryOrderRepo, *fulfillmentRepo.MemoryFulfillmentRepo, *models.Order, *models.Fulfillment) {
	t.Helper()
	orders := orderRepo.NewMemoryOrderRepo()
	fulfillments := fulfillmentRepo.NewMemoryFulfillmentRepo()
	pair := bookingRepo.NewMemoryBookingRepo(orders, fulfillments)
	clock := utils.NewManualClock(time.Date(2026, 3, 2, 8, 0, 0, 0, time.UTC))
	s := NewSynchronizer(orders, fulfillments, pair, clock, 3)

	o := &models.Order{ID: "o1", TransactionID: "tx1", State: models.OrderConfirmed, FulfillmentID: "f1"}
	f := &models.Fulfillment{ID: "f1", OrderID: "o1", State: models.FulfillmentScheduled,
		Slot: models.TimeSlot{Start: time.Date(2026, 3, 3, 10, 0, 0, 0, time.UTC), Duration: 30 * time.Minute}}
	require.NoError(t, pair.CreatePair(context.Background(), o, f))
	return s, orders, fulfillments, o, f
}

func TestApplyDrivesOrderThroughFulfillment(t *testing.T) {
	s, orders, _, o, f := newFixture(t)
	ctx := context.Background()

	require.NoError(t, s.Apply(ctx, o, f, models.FulfillmentInProgress))
	assert.Equal(t, models.OrderInProgress, o.State)
	assert.Equal(t, models.FulfillmentInProgress, f.State)

	require.NoError(t, s.Apply(ctx, o, f, models.FulfillmentCompleted))
	assert.Equal(t, models.OrderCompleted, o.State)

	stored, err := orders.GetByID(ctx, o.ID)
	require.NoError(t, err)
	assert.Equal(t, models.OrderCompleted, stored.State)
}

func TestApplyWaitingLeavesOrderAlone(t *testing.T) {
	s, orders, _, o, f := newFixture(t)
	ctx := context.Background()

	require.NoError(t, s.Apply(ctx, o, f, models.FulfillmentWaiting))
	assert.Equal(t, models.FulfillmentWaiting, f.State)
	assert.Equal(t, models.OrderConfirmed, o.State)

	stored, err := orders.GetByID(ctx, o.ID)
	require.NoError(t, err)
	assert.Equal(t, models.OrderConfirmed, stored.State)
}

func TestApplyNotReadyBeforeConfirm(t *testing.T) {
	s, orders, _, o, f := newFixture(t)
	ctx := context.Background()

	o.State = models.OrderQuoted
	require.NoError(t, orders.Update(ctx, o))

	err := s.Apply(ctx, o, f, models.FulfillmentInProgress)
	assert.ErrorIs(t, err, apperr.ErrNotReady)
	assert.Equal(t, models.FulfillmentScheduled, f.State)
	assert.Equal(t, models.OrderQuoted, o.State)
}

func TestApplyInvalidFulfillmentEdge(t *testing.T) {
	s, _, _, o, f := newFixture(t)

	err := s.Apply(context.Background(), o, f, models.FulfillmentNoShow)
	require.NoError(t, err) // SCHEDULED -> NO_SHOW is legal and cancels the order
	assert.Equal(t, models.OrderCancelled, o.State)

	err = s.Apply(context.Background(), o, f, models.FulfillmentCompleted)
	assert.ErrorIs(t, err, apperr.ErrInvalidTransition)
}

func TestApplyRetriesStaleVersion(t *testing.T) {
	s, _, fulfillments, o, f := newFixture(t)
	ctx := context.Background()

	// Another writer bumps the fulfillment behind our back.
	other, err := fulfillments.GetByID(ctx, f.ID)
	require.NoError(t, err)
	other.Tags = map[string]string{"note": "concurrent"}
	require.NoError(t, fulfillments.Update(ctx, other))

	// Our copy is stale now; Apply must reload and still land the edge.
	require.NoError(t, s.Apply(ctx, o, f, models.FulfillmentInProgress))
	assert.Equal(t, models.FulfillmentInProgress, f.State)
	assert.Equal(t, models.OrderInProgress, o.State)

	stored, err := fulfillments.GetByID(ctx, f.ID)
	require.NoError(t, err)
	assert.Equal(t, models.FulfillmentInProgress, stored.State)
	assert.Equal(t, "concurrent", stored.Tags["note"])
}

func TestForwardCancellationCancelsPair(t *testing.T) {
	s, orders, fulfillments, o, f := newFixture(t)
	ctx := context.Background()

	require.NoError(t, s.ForwardCancellation(ctx, o, f))
	assert.Equal(t, models.OrderCancelled, o.State)
	assert.Equal(t, models.FulfillmentCancelled, f.State)

	storedO, err := orders.GetByID(ctx, o.ID)
	require.NoError(t, err)
	assert.Equal(t, models.OrderCancelled, storedO.State)
	storedF, err := fulfillments.GetByID(ctx, f.ID)
	require.NoError(t, err)
	assert.Equal(t, models.FulfillmentCancelled, storedF.State)
}

func TestForwardCancellationRejectsStartedAppointment(t *testing.T) {
	s, _, _, o, f := newFixture(t)
	ctx := context.Background()

	require.NoError(t, s.Apply(ctx, o, f, models.FulfillmentInProgress))
	err := s.ForwardCancellation(ctx, o, f)
	assert.ErrorIs(t, err, apperr.ErrInvalidTransition)
}
