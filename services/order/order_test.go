package order

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"caregate/apperr"
	"caregate/database/repository/booking"
	"caregate/database/repository/fulfillment"
	"caregate/database/repository/order"
	"caregate/database/repository/provider"
	"caregate/database/repository/registry"
	"caregate/gateway"
	"caregate/models"
	"caregate/services/directory"
	"caregate/services/notification"
	"caregate/services/payment"
	syncsvc "caregate/services/sync"
	"caregate/utils"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type dispatchCall struct {
	Participant string
	Action      string
}

type fakeDispatcher struct {
	mu         sync.Mutex
	calls      []dispatchCall
	failAction string // this action errors after being recorded
}

func (d *fakeDispatcher) Dispatch(_ context.Context, p models.ParticipantRef, action string, _ any) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.calls = append(d.calls, dispatchCall{Participant: p.ID, Action: action})
	if action == d.failAction {
		return errors.New("participant unreachable")
	}
	return nil
}

func (d *fakeDispatcher) actions() []string {
	d.mu.Lock()
	defer d.mu.Unlock()
	out := make([]string, len(d.calls))
	for i, c := range d.calls {
		out[i] = c.Action
	}
	return out
}

type fakePayments struct {
	declined bool
}

func (p *fakePayments) Process(_ context.Context, req payment.Request) (*models.Payment, error) {
	if p.declined {
		return nil, payment.ErrPaymentDeclined
	}
	return &models.Payment{ID: uuid.NewString(), Method: req.Method, Status: "paid", Amount: req.Amount}, nil
}

type fixture struct {
	svc          *Service
	orders       *orderRepo.MemoryOrderRepo
	fulfillments *fulfillmentRepo.MemoryFulfillmentRepo
	dispatcher   *fakeDispatcher
	payments     *fakePayments
	clock        *utils.ManualClock
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	orders := orderRepo.NewMemoryOrderRepo()
	fulfillments := fulfillmentRepo.NewMemoryFulfillmentRepo()
	providers := providerRepo.NewMemoryProviderRepo()
	registry := registryRepo.NewMemorySubscriberRepo()
	pair := bookingRepo.NewMemoryBookingRepo(orders, fulfillments)
	clock := utils.NewManualClock(time.Date(2026, 3, 2, 8, 0, 0, 0, time.UTC))
	dispatcher := &fakeDispatcher{}
	payments := &fakePayments{}

	var schedule models.ScheduleConfig
	for d := 0; d < 7; d++ {
		schedule.Weekly[d] = []models.ClockRange{{Start: 9 * 60, End: 17 * 60}}
	}
	schedule.BufferMinutes = 5
	ctx := context.Background()
	require.NoError(t, providers.Create(ctx, &models.Provider{ID: "prov-1", Name: "City Clinic", Schedule: schedule}))
	require.NoError(t, registry.Upsert(ctx, &models.Subscriber{
		ID: "hspa-1", Role: models.RoleHSPA, CallbackURI: "http://hspa-1.example/callbacks",
		SigningKey: "k1", Status: "SUBSCRIBED",
	}))

	svc := &Service{
		Orders:       orders,
		Fulfillments: fulfillments,
		Pair:         pair,
		Registry:     registry,
		Dir:          directory.NewRepoDirectory(providers, fulfillments),
		Sync:         syncsvc.NewSynchronizer(orders, fulfillments, pair, clock, 3),
		Payments:     payments,
		Notifier:     notification.NopNotifier{},
		Dispatcher:   dispatcher,
		Identity: gateway.Identity{
			Domain: "nic2004:85111", CoreVersion: "0.7.1",
			SubscriberID: "gw.test", CallbackURI: "http://gw.test/api/gateway",
		},
		Clock:              clock,
		Locks:              utils.NewKeyedMutex(),
		CancellationWindow: 2 * time.Hour,
		ReminderLead:       time.Hour,
	}
	return &fixture{svc: svc, orders: orders, fulfillments: fulfillments, dispatcher: dispatcher, payments: payments, clock: clock}
}

func draft() models.OrderDraft {
	return models.OrderDraft{
		ProviderID: "prov-1",
		HSPAID:     "hspa-1",
		Items:      []models.OrderItem{{ID: "item-1", Quantity: 1, Descriptor: "Consultation"}},
		Billing:    models.Billing{Name: "Asha Rao", Email: "asha@example.com"},
		Fulfillment: models.FulfillmentDraft{
			Type: "teleconsultation",
			Slot: models.TimeSlot{Start: time.Date(2026, 3, 3, 10, 0, 0, 0, time.UTC), Duration: 30 * time.Minute},
		},
	}
}

func (fx *fixture) initiated(t *testing.T) (*models.Order, *models.Fulfillment, models.Context) {
	t.Helper()
	env := fx.svc.Identity.NewContext("init", "std:080")
	o, f, err := fx.svc.Init(context.Background(), env, draft())
	require.NoError(t, err)
	return o, f, env
}

func (fx *fixture) quoted(t *testing.T) (*models.Order, *models.Fulfillment, models.Context) {
	t.Helper()
	o, f, env := fx.initiated(t)
	quote := models.Quotation{Price: models.Money{Currency: "INR", Value: 500}}
	o, err := fx.svc.OnInit(context.Background(), env.TransactionID, uuid.NewString(), quote)
	require.NoError(t, err)
	return o, f, env
}

func TestInitCreatesPairAndForwards(t *testing.T) {
	fx := newFixture(t)
	o, f, _ := fx.initiated(t)

	assert.Equal(t, models.OrderInitiated, o.State)
	assert.Equal(t, models.FulfillmentScheduled, f.State)
	assert.Equal(t, o.ID, f.OrderID)
	assert.Equal(t, []string{"init"}, fx.dispatcher.actions())

	stored, err := fx.orders.GetByTransactionID(context.Background(), o.TransactionID)
	require.NoError(t, err)
	assert.Equal(t, o.ID, stored.ID)
}

func TestInitRejectsOccupiedSlot(t *testing.T) {
	fx := newFixture(t)
	fx.initiated(t)

	env := fx.svc.Identity.NewContext("init", "std:080")
	_, _, err := fx.svc.Init(context.Background(), env, draft())
	assert.ErrorIs(t, err, apperr.ErrSlotUnavailable)
}

func TestInitRedeliveryReturnsExistingPair(t *testing.T) {
	fx := newFixture(t)
	o, f, env := fx.initiated(t)

	// Same transaction id delivered again: the committed pair comes back
	// instead of a slot collision with our own fulfillment.
	again, againF, err := fx.svc.Init(context.Background(), env, draft())
	require.NoError(t, err)
	assert.Equal(t, o.ID, again.ID)
	assert.Equal(t, f.ID, againF.ID)
	assert.Equal(t, []string{"init"}, fx.dispatcher.actions())
}

func TestInitDispatchFailureStillBooks(t *testing.T) {
	fx := newFixture(t)
	fx.dispatcher.failAction = "init"

	env := fx.svc.Identity.NewContext("init", "std:080")
	o, f, err := fx.svc.Init(context.Background(), env, draft())
	require.NoError(t, err)
	assert.Equal(t, models.OrderInitiated, o.State)
	assert.Equal(t, models.FulfillmentScheduled, f.State)

	stored, err := fx.orders.GetByTransactionID(context.Background(), env.TransactionID)
	require.NoError(t, err)
	assert.Equal(t, o.ID, stored.ID)
}

func TestOnInitBeforeInitIsNotReady(t *testing.T) {
	fx := newFixture(t)

	_, err := fx.svc.OnInit(context.Background(), "tx-unknown", uuid.NewString(), models.Quotation{})
	assert.ErrorIs(t, err, apperr.ErrNotReady)
}

func TestOnInitQuotesOrder(t *testing.T) {
	fx := newFixture(t)
	o, _, _ := fx.quoted(t)

	assert.Equal(t, models.OrderQuoted, o.State)
	require.NotNil(t, o.Quote)
	assert.Equal(t, 500.0, o.Quote.Price.Value)
}

func TestOnInitRedeliveryAbsorbed(t *testing.T) {
	fx := newFixture(t)
	_, _, env := fx.initiated(t)
	msgID := uuid.NewString()
	quote := models.Quotation{Price: models.Money{Currency: "INR", Value: 500}}

	first, err := fx.svc.OnInit(context.Background(), env.TransactionID, msgID, quote)
	require.NoError(t, err)
	second, err := fx.svc.OnInit(context.Background(), env.TransactionID, msgID, quote)
	require.NoError(t, err)
	assert.Equal(t, first.State, second.State)
	assert.Equal(t, first.Version, second.Version)
}

func TestConfirmHappyPath(t *testing.T) {
	fx := newFixture(t)
	o, _, _ := fx.quoted(t)

	o, err := fx.svc.Confirm(context.Background(), o.ID, "card")
	require.NoError(t, err)
	assert.Equal(t, models.OrderProvisionallyBooked, o.State)
	require.NotNil(t, o.Payment)
	assert.Equal(t, "paid", o.Payment.Status)
	assert.Contains(t, fx.dispatcher.actions(), "confirm")
}

func TestConfirmRedeliveryReturnsSnapshot(t *testing.T) {
	fx := newFixture(t)
	o, _, _ := fx.quoted(t)
	ctx := context.Background()
	first, err := fx.svc.Confirm(ctx, o.ID, "card")
	require.NoError(t, err)

	// A second confirm is absorbed: no new payment, no second forward.
	second, err := fx.svc.Confirm(ctx, o.ID, "card")
	require.NoError(t, err)
	assert.Equal(t, models.OrderProvisionallyBooked, second.State)
	assert.Equal(t, first.Version, second.Version)

	confirms := 0
	for _, a := range fx.dispatcher.actions() {
		if a == "confirm" {
			confirms++
		}
	}
	assert.Equal(t, 1, confirms)
}

func TestConfirmDispatchFailureStaysBooked(t *testing.T) {
	fx := newFixture(t)
	o, _, _ := fx.quoted(t)
	fx.dispatcher.failAction = "confirm"

	confirmed, err := fx.svc.Confirm(context.Background(), o.ID, "card")
	require.NoError(t, err)
	assert.Equal(t, models.OrderProvisionallyBooked, confirmed.State)
	require.NotNil(t, confirmed.Payment)
	assert.Equal(t, "paid", confirmed.Payment.Status)
}

func TestConfirmSlotGoneLeavesOrderQuoted(t *testing.T) {
	fx := newFixture(t)
	o, f, _ := fx.quoted(t)
	ctx := context.Background()

	// A competing booking takes an overlapping slot between quote and confirm.
	require.NoError(t, fx.fulfillments.Create(ctx, &models.Fulfillment{
		ID: "rival", OrderID: "rival-order", ProviderID: "prov-1",
		State: models.FulfillmentScheduled,
		Slot:  models.TimeSlot{Start: f.Slot.Start.Add(15 * time.Minute), Duration: 30 * time.Minute},
	}))

	_, err := fx.svc.Confirm(ctx, o.ID, "card")
	assert.ErrorIs(t, err, apperr.ErrSlotUnavailable)

	stored, err := fx.orders.GetByID(ctx, o.ID)
	require.NoError(t, err)
	assert.Equal(t, models.OrderQuoted, stored.State)
	assert.Nil(t, stored.Payment)
}

func TestConfirmPaymentDeclinedFailsOrder(t *testing.T) {
	fx := newFixture(t)
	o, _, _ := fx.quoted(t)
	fx.payments.declined = true

	_, err := fx.svc.Confirm(context.Background(), o.ID, "card")
	assert.ErrorIs(t, err, payment.ErrPaymentDeclined)

	stored, err := fx.orders.GetByID(context.Background(), o.ID)
	require.NoError(t, err)
	assert.Equal(t, models.OrderFailed, stored.State)
}

func TestConfirmWithoutQuoteIsNotReady(t *testing.T) {
	fx := newFixture(t)
	o, _, _ := fx.initiated(t)

	// INITIATED cannot reach PROVISIONALLY_BOOKED directly.
	_, err := fx.svc.Confirm(context.Background(), o.ID, "card")
	assert.ErrorIs(t, err, apperr.ErrInvalidTransition)
}

func TestOnConfirmFinalizesBooking(t *testing.T) {
	fx := newFixture(t)
	o, _, env := fx.quoted(t)
	ctx := context.Background()
	_, err := fx.svc.Confirm(ctx, o.ID, "card")
	require.NoError(t, err)

	confirmed, err := fx.svc.OnConfirm(ctx, env.TransactionID, uuid.NewString())
	require.NoError(t, err)
	assert.Equal(t, models.OrderConfirmed, confirmed.State)
}

func TestOnConfirmDuplicateAbsorbed(t *testing.T) {
	fx := newFixture(t)
	o, _, env := fx.quoted(t)
	ctx := context.Background()
	_, err := fx.svc.Confirm(ctx, o.ID, "card")
	require.NoError(t, err)

	msgID := uuid.NewString()
	first, err := fx.svc.OnConfirm(ctx, env.TransactionID, msgID)
	require.NoError(t, err)

	// Redelivery with the same message id returns the committed snapshot
	// without another transition.
	second, err := fx.svc.OnConfirm(ctx, env.TransactionID, msgID)
	require.NoError(t, err)
	assert.Equal(t, models.OrderConfirmed, second.State)
	assert.Equal(t, first.Version, second.Version)
}

func TestOnConfirmBeforeConfirmIsNotReady(t *testing.T) {
	fx := newFixture(t)
	_, _, env := fx.quoted(t)

	_, err := fx.svc.OnConfirm(context.Background(), env.TransactionID, uuid.NewString())
	assert.ErrorIs(t, err, apperr.ErrNotReady)
}

func TestOnStatusDrivesLifecycleToCompletion(t *testing.T) {
	fx := newFixture(t)
	o, _, env := fx.quoted(t)
	ctx := context.Background()
	_, err := fx.svc.Confirm(ctx, o.ID, "card")
	require.NoError(t, err)
	_, err = fx.svc.OnConfirm(ctx, env.TransactionID, uuid.NewString())
	require.NoError(t, err)

	gotO, gotF, err := fx.svc.OnStatus(ctx, env.TransactionID, models.FulfillmentInProgress)
	require.NoError(t, err)
	assert.Equal(t, models.OrderInProgress, gotO.State)
	assert.Equal(t, models.FulfillmentInProgress, gotF.State)

	gotO, gotF, err = fx.svc.OnStatus(ctx, env.TransactionID, models.FulfillmentCompleted)
	require.NoError(t, err)
	assert.Equal(t, models.OrderCompleted, gotO.State)
	assert.Equal(t, models.FulfillmentCompleted, gotF.State)
}

func TestOnStatusSameStateIsNoOp(t *testing.T) {
	fx := newFixture(t)
	_, _, env := fx.quoted(t)

	o, f, err := fx.svc.OnStatus(context.Background(), env.TransactionID, models.FulfillmentScheduled)
	require.NoError(t, err)
	assert.Equal(t, models.OrderQuoted, o.State)
	assert.Equal(t, models.FulfillmentScheduled, f.State)
}

func TestOnStatusBeforeConfirmIsNotReady(t *testing.T) {
	fx := newFixture(t)
	_, _, env := fx.quoted(t)

	_, _, err := fx.svc.OnStatus(context.Background(), env.TransactionID, models.FulfillmentInProgress)
	assert.ErrorIs(t, err, apperr.ErrNotReady)
}

func TestCancelInsideWindow(t *testing.T) {
	fx := newFixture(t)
	o, _, _ := fx.quoted(t)

	// Clock is 2026-03-02 08:00, slot starts 2026-03-03 10:00: plenty of notice.
	cancelled, err := fx.svc.Cancel(context.Background(), o.ID)
	require.NoError(t, err)
	assert.Equal(t, models.OrderCancelled, cancelled.State)

	f, err := fx.fulfillments.GetByID(context.Background(), o.FulfillmentID)
	require.NoError(t, err)
	assert.Equal(t, models.FulfillmentCancelled, f.State)
}

func TestCancelPastWindowRejected(t *testing.T) {
	fx := newFixture(t)
	o, f, _ := fx.quoted(t)

	// Move to 90 minutes before the slot; the window requires 2 hours.
	fx.clock.Set(f.Slot.Start.Add(-90 * time.Minute))
	_, err := fx.svc.Cancel(context.Background(), o.ID)
	assert.ErrorIs(t, err, apperr.ErrCancellationWindowExpired)

	stored, err := fx.orders.GetByID(context.Background(), o.ID)
	require.NoError(t, err)
	assert.Equal(t, models.OrderQuoted, stored.State)
}

func TestFailFromAnyState(t *testing.T) {
	fx := newFixture(t)
	o, _, _ := fx.initiated(t)

	failed, err := fx.svc.Fail(context.Background(), o.ID)
	require.NoError(t, err)
	assert.Equal(t, models.OrderFailed, failed.State)
}
