package fulfillment

import (
	"context"
	"testing"
	"time"

	"caregate/apperr"
	"caregate/database/repository/booking"
	"caregate/database/repository/fulfillment"
	"caregate/database/repository/order"
	"caregate/database/repository/provider"
	"caregate/models"
	"caregate/services/directory"
	"caregate/services/sync"
	"caregate/utils"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fixture struct {
	svc          *Service
	orders       *orderRepo.MemoryOrderRepo
	fulfillments *fulfillmentRepo.MemoryFulfillmentRepo
	clock        *utils.ManualClock
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	orders := orderRepo.NewMemoryOrderRepo()
	fulfillments := fulfillmentRepo.NewMemoryFulfillmentRepo()
	providers := providerRepo.NewMemoryProviderRepo()
	pair := bookingRepo.NewMemoryBookingRepo(orders, fulfillments)
	clock := utils.NewManualClock(time.Date(2026, 3, 2, 8, 0, 0, 0, time.UTC))

	var schedule models.ScheduleConfig
	for d := 0; d < 7; d++ {
		schedule.Weekly[d] = []models.ClockRange{{Start: 9 * 60, End: 17 * 60}}
	}
	schedule.BufferMinutes = 5
	require.NoError(t, providers.Create(context.Background(), &models.Provider{
		ID: "prov-1", Name: "City Clinic", Schedule: schedule,
	}))

	dir := directory.NewRepoDirectory(providers, fulfillments)
	synchronizer := sync.NewSynchronizer(orders, fulfillments, pair, clock, 3)
	svc := NewService(fulfillments, orders, dir, synchronizer, clock, utils.NewKeyedMutex())
	return &fixture{svc: svc, orders: orders, fulfillments: fulfillments, clock: clock}
}

func (fx *fixture) seedPair(t *testing.T, start time.Time) (*models.Order, *models.Fulfillment) {
	t.Helper()
	o := &models.Order{ID: "o1", TransactionID: "tx1", State: models.OrderConfirmed, FulfillmentID: "f1", ProviderID: "prov-1"}
	f := &models.Fulfillment{ID: "f1", OrderID: "o1", ProviderID: "prov-1", State: models.FulfillmentScheduled,
		Slot: models.TimeSlot{Start: start, Duration: 30 * time.Minute}}
	require.NoError(t, fx.orders.Create(context.Background(), o))
	require.NoError(t, fx.fulfillments.Create(context.Background(), f))
	return o, f
}

func TestCreateChecksAvailability(t *testing.T) {
	fx := newFixture(t)
	ctx := context.Background()
	fx.seedPair(t, time.Date(2026, 3, 3, 10, 0, 0, 0, time.UTC))

	// Slot inside the tail buffer of the seeded appointment.
	err := fx.svc.Create(ctx, &models.Fulfillment{
		OrderID: "o2", ProviderID: "prov-1",
		Slot: models.TimeSlot{Start: time.Date(2026, 3, 3, 10, 25, 0, 0, time.UTC), Duration: 30 * time.Minute},
	})
	assert.ErrorIs(t, err, apperr.ErrSlotUnavailable)

	// Clear of the buffer.
	f := &models.Fulfillment{
		OrderID: "o2", ProviderID: "prov-1",
		Slot: models.TimeSlot{Start: time.Date(2026, 3, 3, 10, 35, 0, 0, time.UTC), Duration: 30 * time.Minute},
	}
	require.NoError(t, fx.svc.Create(ctx, f))
	assert.NotEmpty(t, f.ID)
	assert.Equal(t, models.FulfillmentScheduled, f.State)
}

func TestTransitionPropagatesToOrder(t *testing.T) {
	fx := newFixture(t)
	ctx := context.Background()
	fx.seedPair(t, time.Date(2026, 3, 3, 10, 0, 0, 0, time.UTC))

	f, err := fx.svc.Transition(ctx, "f1", models.FulfillmentInProgress)
	require.NoError(t, err)
	assert.Equal(t, models.FulfillmentInProgress, f.State)

	o, err := fx.orders.GetByID(ctx, "o1")
	require.NoError(t, err)
	assert.Equal(t, models.OrderInProgress, o.State)
}

func TestTransitionRejectsInvalidEdge(t *testing.T) {
	fx := newFixture(t)
	ctx := context.Background()
	fx.seedPair(t, time.Date(2026, 3, 3, 10, 0, 0, 0, time.UTC))

	_, err := fx.svc.Transition(ctx, "f1", models.FulfillmentCompleted)
	assert.ErrorIs(t, err, apperr.ErrInvalidTransition)

	stored, err := fx.fulfillments.GetByID(ctx, "f1")
	require.NoError(t, err)
	assert.Equal(t, models.FulfillmentScheduled, stored.State)
}

func TestTransitionRejectsRescheduledWithoutSlot(t *testing.T) {
	fx := newFixture(t)
	fx.seedPair(t, time.Date(2026, 3, 3, 10, 0, 0, 0, time.UTC))

	_, err := fx.svc.Transition(context.Background(), "f1", models.FulfillmentRescheduled)
	assert.ErrorIs(t, err, apperr.ErrInvalidTransition)
}

func TestRescheduleLandsBackInScheduled(t *testing.T) {
	fx := newFixture(t)
	ctx := context.Background()
	fx.seedPair(t, time.Date(2026, 3, 3, 10, 0, 0, 0, time.UTC))

	newSlot := models.TimeSlot{Start: time.Date(2026, 3, 3, 14, 0, 0, 0, time.UTC), Duration: 30 * time.Minute}
	f, err := fx.svc.Reschedule(ctx, "f1", newSlot)
	require.NoError(t, err)
	assert.Equal(t, models.FulfillmentScheduled, f.State)
	assert.Equal(t, newSlot.Start, f.Slot.Start)
	assert.NotEmpty(t, f.Tags["rescheduled_from"])
}

func TestRescheduleOntoOccupiedSlotLeavesAppointmentUnchanged(t *testing.T) {
	fx := newFixture(t)
	ctx := context.Background()
	fx.seedPair(t, time.Date(2026, 3, 3, 10, 0, 0, 0, time.UTC))
	require.NoError(t, fx.fulfillments.Create(ctx, &models.Fulfillment{
		ID: "f2", OrderID: "o2", ProviderID: "prov-1", State: models.FulfillmentScheduled,
		Slot: models.TimeSlot{Start: time.Date(2026, 3, 3, 14, 0, 0, 0, time.UTC), Duration: 30 * time.Minute},
	}))

	_, err := fx.svc.Reschedule(ctx, "f1", models.TimeSlot{
		Start: time.Date(2026, 3, 3, 14, 0, 0, 0, time.UTC), Duration: 30 * time.Minute,
	})
	assert.ErrorIs(t, err, apperr.ErrSlotUnavailable)

	stored, err := fx.fulfillments.GetByID(ctx, "f1")
	require.NoError(t, err)
	assert.Equal(t, time.Date(2026, 3, 3, 10, 0, 0, 0, time.UTC), stored.Slot.Start)
	assert.Empty(t, stored.Tags["rescheduled_from"])
}

func TestRescheduleExcludesOwnSlot(t *testing.T) {
	fx := newFixture(t)
	ctx := context.Background()
	fx.seedPair(t, time.Date(2026, 3, 3, 10, 0, 0, 0, time.UTC))

	// Shifting by 15 minutes overlaps the appointment's own current slot,
	// which must not count against it.
	f, err := fx.svc.Reschedule(ctx, "f1", models.TimeSlot{
		Start: time.Date(2026, 3, 3, 10, 15, 0, 0, time.UTC), Duration: 30 * time.Minute,
	})
	require.NoError(t, err)
	assert.Equal(t, time.Date(2026, 3, 3, 10, 15, 0, 0, time.UTC), f.Slot.Start)
}
