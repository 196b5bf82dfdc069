package order

import (
	"context"
	"errors"
	"fmt"
	"time"

	"caregate/apperr"
	"caregate/database/repository/booking"
	"caregate/database/repository/fulfillment"
	"caregate/database/repository/order"
	"caregate/database/repository/registry"
	"caregate/gateway"
	"caregate/models"
	"caregate/services/availability"
	"caregate/services/directory"
	"caregate/services/notification"
	"caregate/services/payment"
	"caregate/services/sync"
	"caregate/services/tasks"
	"caregate/utils"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"
	"go.uber.org/zap"
)

// Service drives the booking lifecycle: init through confirm, status and
// cancellation. All mutations of one order serialize on its id so a
// provider callback and a consumer action can never interleave.
type Service struct {
	Orders       orderRepo.OrderRepository
	Fulfillments fulfillmentRepo.FulfillmentRepository
	Pair         bookingRepo.BookingRepository
	Registry     registryRepo.SubscriberRepository
	Dir          directory.Directory
	Sync         *sync.Synchronizer
	Payments     payment.Handler
	Notifier     notification.Service
	Dispatcher   gateway.Dispatcher
	Tasks        *asynq.Client // nil disables reminders
	Identity     gateway.Identity
	Clock        utils.Clock
	Locks        *utils.KeyedMutex

	CancellationWindow time.Duration
	ReminderLead       time.Duration
}

// Init creates the order/fulfillment pair and forwards the init to the
// provider's HSPA. The slot is checked before anything is written. A
// redelivered init for a transaction that already booked returns the
// committed pair: re-running the availability check would collide with
// the fulfillment its own first delivery created.
func (s *Service) Init(ctx context.Context, env models.Context, draft models.OrderDraft) (*models.Order, *models.Fulfillment, error) {
	if existing, err := s.Orders.GetByTransactionID(ctx, env.TransactionID); err == nil {
		f, ferr := s.Fulfillments.GetByID(ctx, existing.FulfillmentID)
		if ferr != nil {
			return nil, nil, ferr
		}
		return existing, f, nil
	} else if !errors.Is(err, apperr.ErrNotFound) {
		return nil, nil, err
	}

	if !draft.Fulfillment.Slot.Valid() {
		return nil, nil, &apperr.SlotUnavailableError{ProviderID: draft.ProviderID, Reason: "slot has no duration"}
	}
	if err := s.checkAvailable(ctx, draft.ProviderID, draft.Fulfillment.Slot, ""); err != nil {
		return nil, nil, err
	}

	now := s.Clock.Now()
	f := &models.Fulfillment{
		ID:         uuid.NewString(),
		Type:       draft.Fulfillment.Type,
		ProviderID: draft.ProviderID,
		State:      models.FulfillmentScheduled,
		Slot:       draft.Fulfillment.Slot,
		Agent:      draft.Fulfillment.Agent,
		Customer:   draft.Fulfillment.Customer,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	o := &models.Order{
		ID:            uuid.NewString(),
		TransactionID: env.TransactionID,
		State:         models.OrderInitiated,
		FulfillmentID: f.ID,
		ProviderID:    draft.ProviderID,
		HSPAID:        draft.HSPAID,
		Items:         draft.Items,
		Billing:       draft.Billing,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	f.OrderID = o.ID

	if err := s.Pair.CreatePair(ctx, o, f); err != nil {
		return nil, nil, fmt.Errorf("failed to create booking pair: %w", err)
	}
	utils.GetLogger().Info("order initiated",
		zap.String("order_id", o.ID),
		zap.String("transaction_id", o.TransactionID),
		zap.String("provider_id", o.ProviderID))

	// The pair is committed; a delivery failure must not surface as a
	// failed init. The HSPA side recovers through status polling.
	if err := s.forward(ctx, o, "init", models.InitMessage{Order: draft}); err != nil {
		utils.GetLogger().Warn("init dispatch failed",
			zap.String("order_id", o.ID), zap.Error(err))
	}
	return o, f, nil
}

// OnInit attaches the provider's quote and moves the order to QUOTED. A
// callback that lands before the init commit reports NotReady so the
// sender retries.
func (s *Service) OnInit(ctx context.Context, transactionID, messageID string, quote models.Quotation) (*models.Order, error) {
	o, err := s.lockByTransaction(ctx, transactionID, "on_init")
	if err != nil {
		return nil, err
	}
	defer s.Locks.Unlock(o.ID)

	if !o.State.CanTransitionTo(models.OrderQuoted) {
		if o.LastMessageID == messageID {
			// Redelivery of a quote already applied.
			return o, nil
		}
		return nil, &apperr.InvalidTransitionError{
			Entity: "order", ID: o.ID,
			Current: string(o.State), Requested: string(models.OrderQuoted),
		}
	}

	o.State = models.OrderQuoted
	o.Quote = &quote
	o.LastMessageID = messageID
	o.Touch(s.Clock.Now())
	if err := s.Orders.Update(ctx, o); err != nil {
		return nil, err
	}
	utils.GetLogger().Info("order quoted",
		zap.String("order_id", o.ID),
		zap.Float64("price", quote.Price.Value))
	return o, nil
}

// Confirm re-checks the slot, collects payment and moves the order to
// PROVISIONALLY_BOOKED before forwarding the confirm to the HSPA. An
// unavailable slot leaves the order QUOTED; a declined payment fails it.
func (s *Service) Confirm(ctx context.Context, orderID, paymentMethod string) (*models.Order, error) {
	s.Locks.Lock(orderID)
	defer s.Locks.Unlock(orderID)

	o, err := s.Orders.GetByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	// A confirm redelivered after success returns the committed snapshot,
	// the same tolerance the callbacks extend to redeliveries.
	if o.State == models.OrderProvisionallyBooked || o.State == models.OrderConfirmed {
		return o, nil
	}
	if !o.State.CanTransitionTo(models.OrderProvisionallyBooked) {
		return nil, &apperr.InvalidTransitionError{
			Entity: "order", ID: o.ID,
			Current: string(o.State), Requested: string(models.OrderProvisionallyBooked),
		}
	}
	if o.Quote == nil {
		return nil, &apperr.NotReadyError{Entity: "order", ID: o.ID, Action: "confirm"}
	}
	f, err := s.Fulfillments.GetByID(ctx, o.FulfillmentID)
	if err != nil {
		return nil, err
	}

	// The quote may be minutes old; make sure the slot still holds before
	// taking money.
	if err := s.checkAvailable(ctx, f.ProviderID, f.Slot, f.ID); err != nil {
		return nil, err
	}

	p, err := s.Payments.Process(ctx, payment.Request{
		OrderID: o.ID,
		Method:  paymentMethod,
		Amount:  o.Quote.Price,
		Billing: o.Billing,
	})
	if err != nil {
		if errors.Is(err, payment.ErrPaymentDeclined) {
			o.State = models.OrderFailed
			o.Touch(s.Clock.Now())
			if updErr := s.Orders.Update(ctx, o); updErr != nil {
				utils.GetLogger().Error("failed to record declined payment",
					zap.String("order_id", o.ID), zap.Error(updErr))
			}
		}
		return nil, err
	}

	o.State = models.OrderProvisionallyBooked
	o.Payment = p
	o.Touch(s.Clock.Now())
	if err := s.Orders.Update(ctx, o); err != nil {
		return nil, err
	}
	utils.GetLogger().Info("order provisionally booked",
		zap.String("order_id", o.ID),
		zap.String("payment_method", paymentMethod))

	// Payment is captured and the order committed; the forward is
	// best-effort like status and cancel.
	if err := s.forward(ctx, o, "confirm", models.ConfirmMessage{OrderID: o.ID, PaymentMethod: paymentMethod}); err != nil {
		utils.GetLogger().Warn("confirm dispatch failed",
			zap.String("order_id", o.ID), zap.Error(err))
	}
	return o, nil
}

// OnConfirm finalizes the booking. A redelivered on_confirm with the same
// message id is absorbed and the committed snapshot returned; one that
// arrives before the confirm commit reports NotReady.
func (s *Service) OnConfirm(ctx context.Context, transactionID, messageID string) (*models.Order, error) {
	o, err := s.lockByTransaction(ctx, transactionID, "on_confirm")
	if err != nil {
		return nil, err
	}
	defer s.Locks.Unlock(o.ID)

	if o.State == models.OrderConfirmed && o.LastMessageID == messageID {
		return o, nil
	}
	if !o.State.CanTransitionTo(models.OrderConfirmed) {
		if o.State == models.OrderQuoted || o.State == models.OrderInitiated {
			return nil, &apperr.NotReadyError{Entity: "order", ID: o.ID, Action: "on_confirm"}
		}
		return nil, &apperr.InvalidTransitionError{
			Entity: "order", ID: o.ID,
			Current: string(o.State), Requested: string(models.OrderConfirmed),
		}
	}

	o.State = models.OrderConfirmed
	o.LastMessageID = messageID
	o.Touch(s.Clock.Now())
	if err := s.Orders.Update(ctx, o); err != nil {
		return nil, err
	}
	utils.GetLogger().Info("order confirmed", zap.String("order_id", o.ID))

	f, err := s.Fulfillments.GetByID(ctx, o.FulfillmentID)
	if err != nil {
		return o, nil
	}
	s.scheduleReminder(o, f)
	if err := s.Notifier.NotifyBookingConfirmed(ctx, o, f); err != nil {
		utils.GetLogger().Warn("confirmation push failed",
			zap.String("order_id", o.ID), zap.Error(err))
	}
	return o, nil
}

// Status returns the current pair and asks the HSPA for a fresh report.
func (s *Service) Status(ctx context.Context, orderID string) (*models.Order, *models.Fulfillment, error) {
	o, err := s.Orders.GetByID(ctx, orderID)
	if err != nil {
		return nil, nil, err
	}
	f, err := s.Fulfillments.GetByID(ctx, o.FulfillmentID)
	if err != nil {
		return nil, nil, err
	}
	if err := s.forward(ctx, o, "status", models.StatusMessage{OrderID: o.ID}); err != nil {
		utils.GetLogger().Warn("status dispatch failed",
			zap.String("order_id", o.ID), zap.Error(err))
	}
	return o, f, nil
}

// OnStatus applies the provider-reported fulfillment state and lets the
// synchronizer carry it onto the order. Reporting the state already held
// is a no-op.
func (s *Service) OnStatus(ctx context.Context, transactionID string, state models.FulfillmentState) (*models.Order, *models.Fulfillment, error) {
	o, err := s.lockByTransaction(ctx, transactionID, "on_status")
	if err != nil {
		return nil, nil, err
	}
	defer s.Locks.Unlock(o.ID)

	f, err := s.Fulfillments.GetByID(ctx, o.FulfillmentID)
	if err != nil {
		return nil, nil, err
	}
	if f.State == state {
		return o, f, nil
	}
	if err := s.Sync.Apply(ctx, o, f, state); err != nil {
		return nil, nil, err
	}
	if o.State == models.OrderCancelled {
		if err := s.Notifier.NotifyBookingCancelled(ctx, o, f); err != nil {
			utils.GetLogger().Warn("cancellation push failed",
				zap.String("order_id", o.ID), zap.Error(err))
		}
	}
	return o, f, nil
}

// Cancel cancels the pair if enough notice remains before the slot starts,
// then tells the HSPA.
func (s *Service) Cancel(ctx context.Context, orderID string) (*models.Order, error) {
	s.Locks.Lock(orderID)
	defer s.Locks.Unlock(orderID)

	o, err := s.Orders.GetByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	f, err := s.Fulfillments.GetByID(ctx, o.FulfillmentID)
	if err != nil {
		return nil, err
	}

	cutoff := f.Slot.Start.Add(-s.CancellationWindow)
	if !s.Clock.Now().Before(cutoff) {
		return nil, fmt.Errorf("order %s: %w", o.ID, apperr.ErrCancellationWindowExpired)
	}
	if err := s.Sync.ForwardCancellation(ctx, o, f); err != nil {
		return nil, err
	}
	utils.GetLogger().Info("order cancelled", zap.String("order_id", o.ID))

	if err := s.forward(ctx, o, "cancel", models.StatusMessage{OrderID: o.ID}); err != nil {
		utils.GetLogger().Warn("cancel dispatch failed",
			zap.String("order_id", o.ID), zap.Error(err))
	}
	if err := s.Notifier.NotifyBookingCancelled(ctx, o, f); err != nil {
		utils.GetLogger().Warn("cancellation push failed",
			zap.String("order_id", o.ID), zap.Error(err))
	}
	return o, nil
}

// Fail force-fails an order, reachable from any state.
func (s *Service) Fail(ctx context.Context, orderID string) (*models.Order, error) {
	s.Locks.Lock(orderID)
	defer s.Locks.Unlock(orderID)

	o, err := s.Orders.GetByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	o.State = models.OrderFailed
	o.Touch(s.Clock.Now())
	if err := s.Orders.Update(ctx, o); err != nil {
		return nil, err
	}
	utils.GetLogger().Warn("order failed", zap.String("order_id", o.ID))
	return o, nil
}

// lockByTransaction resolves the order for a callback and takes its lock.
// A missing order means the prerequisite action has not committed yet, so
// the caller gets NotReady rather than NotFound. The lock is re-validated
// by reloading under it.
func (s *Service) lockByTransaction(ctx context.Context, transactionID, action string) (*models.Order, error) {
	o, err := s.Orders.GetByTransactionID(ctx, transactionID)
	if err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			return nil, &apperr.NotReadyError{Entity: "order", ID: transactionID, Action: action}
		}
		return nil, err
	}
	s.Locks.Lock(o.ID)
	fresh, err := s.Orders.GetByID(ctx, o.ID)
	if err != nil {
		s.Locks.Unlock(o.ID)
		return nil, err
	}
	return fresh, nil
}

func (s *Service) checkAvailable(ctx context.Context, providerID string, slot models.TimeSlot, excludeID string) error {
	cfg, err := s.Dir.Schedule(ctx, providerID)
	if err != nil {
		return err
	}
	active, err := s.Dir.ActiveFulfillments(ctx, providerID)
	if err != nil {
		return fmt.Errorf("failed to load provider calendar: %w", err)
	}
	if excludeID != "" {
		filtered := active[:0]
		for _, a := range active {
			if a.ID != excludeID {
				filtered = append(filtered, a)
			}
		}
		active = filtered
	}
	if !availability.Check(cfg, active, slot) {
		return &apperr.SlotUnavailableError{ProviderID: providerID, Reason: "slot conflicts with schedule or existing bookings"}
	}
	return nil
}

// forward sends an action to the order's HSPA with a context continuing
// the order's transaction.
func (s *Service) forward(ctx context.Context, o *models.Order, action string, message any) error {
	hspa, err := s.Registry.GetByID(ctx, o.HSPAID)
	if err != nil {
		return fmt.Errorf("failed to resolve HSPA %s: %w", o.HSPAID, err)
	}
	out := gateway.Outbound{
		Context: s.Identity.Continue(o.TransactionID, action),
		Message: message,
	}
	return s.Dispatcher.Dispatch(ctx, hspa.ParticipantRef(), action, out)
}

func (s *Service) scheduleReminder(o *models.Order, f *models.Fulfillment) {
	if s.Tasks == nil {
		return
	}
	fireAt := f.Slot.Start.Add(-s.ReminderLead)
	if !fireAt.After(s.Clock.Now()) {
		return
	}
	task, opts, err := tasks.NewReminderTask(models.ReminderPayload{
		OrderID:       o.ID,
		FulfillmentID: f.ID,
		Start:         f.Slot.Start,
	}, fireAt)
	if err != nil {
		utils.GetLogger().Error("failed to build reminder task", zap.Error(err))
		return
	}
	if _, err := s.Tasks.Enqueue(task, opts...); err != nil {
		utils.GetLogger().Error("failed to enqueue reminder",
			zap.String("order_id", o.ID), zap.Error(err))
	}
}
