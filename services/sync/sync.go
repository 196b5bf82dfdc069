package sync

import (
	"context"
	"errors"

	"caregate/apperr"
	"caregate/database/repository/booking"
	"caregate/database/repository/fulfillment"
	"caregate/database/repository/order"
	"caregate/models"
	"caregate/utils"

	"go.uber.org/zap"
)

// Synchronizer keeps an order and its fulfillment in lock-step: every
// fulfillment transition that implies an order transition commits both
// sides together, and a stale read is retried a bounded number of times.
type Synchronizer struct {
	Orders       orderRepo.OrderRepository
	Fulfillments fulfillmentRepo.FulfillmentRepository
	Pair         bookingRepo.BookingRepository
	Clock        utils.Clock
	RetryLimit   int
}

func NewSynchronizer(orders orderRepo.OrderRepository, fulfillments fulfillmentRepo.FulfillmentRepository, pair bookingRepo.BookingRepository, clock utils.Clock, retryLimit int) *Synchronizer {
	if retryLimit < 1 {
		retryLimit = 1
	}
	return &Synchronizer{
		Orders:       orders,
		Fulfillments: fulfillments,
		Pair:         pair,
		Clock:        clock,
		RetryLimit:   retryLimit,
	}
}

// MapFulfillmentToOrder returns the order state implied by a fulfillment
// state, if any. WAITING has no order-side effect.
func MapFulfillmentToOrder(state models.FulfillmentState) (models.OrderState, bool) {
	switch state {
	case models.FulfillmentInProgress:
		return models.OrderInProgress, true
	case models.FulfillmentCompleted:
		return models.OrderCompleted, true
	case models.FulfillmentCancelled, models.FulfillmentNoShow:
		return models.OrderCancelled, true
	default:
		return "", false
	}
}

// Apply drives the fulfillment to next and, when that implies an order
// transition, commits the pair atomically. The passed order and
// fulfillment are updated in place. A fulfillment transition whose
// order-side prerequisite has not committed yet fails with NotReady so
// the caller can retry after the confirm lands.
func (s *Synchronizer) Apply(ctx context.Context, order *models.Order, f *models.Fulfillment, next models.FulfillmentState) error {
	for attempt := 0; ; attempt++ {
		if !f.State.CanTransitionTo(next) {
			return &apperr.InvalidTransitionError{
				Entity: "fulfillment", ID: f.ID,
				Current: string(f.State), Requested: string(next),
			}
		}

		prevF, prevO := f.State, order.State
		now := s.Clock.Now()
		f.State = next
		f.Touch(now)

		var err error
		if mapped, ok := MapFulfillmentToOrder(next); ok && order.State != mapped {
			if !order.State.CanTransitionTo(mapped) {
				f.State = prevF
				return &apperr.NotReadyError{Entity: "order", ID: order.ID, Action: string(mapped)}
			}
			order.State = mapped
			order.Touch(now)
			err = s.Pair.CommitPair(ctx, order, f)
		} else {
			err = s.Fulfillments.Update(ctx, f)
		}
		if err == nil {
			return nil
		}
		f.State, order.State = prevF, prevO
		if !errors.Is(err, apperr.ErrStorageConflict) || attempt+1 >= s.RetryLimit {
			return err
		}

		utils.GetLogger().Debug("stale pair commit, reloading",
			zap.String("order_id", order.ID),
			zap.String("fulfillment_id", f.ID),
			zap.Int("attempt", attempt+1))
		if err := s.reload(ctx, order, f); err != nil {
			return err
		}
	}
}

// ForwardCancellation cancels the order and its fulfillment together.
// The window check belongs to the order service; here only the state
// machines are enforced.
func (s *Synchronizer) ForwardCancellation(ctx context.Context, order *models.Order, f *models.Fulfillment) error {
	for attempt := 0; ; attempt++ {
		if !f.State.CanTransitionTo(models.FulfillmentCancelled) {
			return &apperr.InvalidTransitionError{
				Entity: "fulfillment", ID: f.ID,
				Current: string(f.State), Requested: string(models.FulfillmentCancelled),
			}
		}
		if !order.State.CanTransitionTo(models.OrderCancelled) {
			return &apperr.InvalidTransitionError{
				Entity: "order", ID: order.ID,
				Current: string(order.State), Requested: string(models.OrderCancelled),
			}
		}

		prevF, prevO := f.State, order.State
		now := s.Clock.Now()
		f.State = models.FulfillmentCancelled
		f.Touch(now)
		order.State = models.OrderCancelled
		order.Touch(now)

		err := s.Pair.CommitPair(ctx, order, f)
		if err == nil {
			return nil
		}
		f.State, order.State = prevF, prevO
		if !errors.Is(err, apperr.ErrStorageConflict) || attempt+1 >= s.RetryLimit {
			return err
		}
		if err := s.reload(ctx, order, f); err != nil {
			return err
		}
	}
}

func (s *Synchronizer) reload(ctx context.Context, order *models.Order, f *models.Fulfillment) error {
	freshOrder, err := s.Orders.GetByID(ctx, order.ID)
	if err != nil {
		return err
	}
	freshF, err := s.Fulfillments.GetByID(ctx, f.ID)
	if err != nil {
		return err
	}
	*order = *freshOrder
	*f = *freshF
	return nil
}
