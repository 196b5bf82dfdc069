package fulfillment

import (
	"context"
	"fmt"

	"caregate/apperr"
	"caregate/database/repository/fulfillment"
	"caregate/database/repository/order"
	"caregate/models"
	"caregate/services/availability"
	"caregate/services/directory"
	"caregate/services/sync"
	"caregate/utils"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Service owns the appointment lifecycle. Transitions on a fulfillment
// serialize on its order's key so a cancel and a provider callback can
// never interleave on the same pair.
type Service struct {
	Fulfillments fulfillmentRepo.FulfillmentRepository
	Orders       orderRepo.OrderRepository
	Dir          directory.Directory
	Sync         *sync.Synchronizer
	Clock        utils.Clock
	Locks        *utils.KeyedMutex
}

func NewService(fulfillments fulfillmentRepo.FulfillmentRepository, orders orderRepo.OrderRepository, dir directory.Directory, syncer *sync.Synchronizer, clock utils.Clock, locks *utils.KeyedMutex) *Service {
	return &Service{
		Fulfillments: fulfillments,
		Orders:       orders,
		Dir:          dir,
		Sync:         syncer,
		Clock:        clock,
		Locks:        locks,
	}
}

// Create books a fresh appointment after an availability check.
func (s *Service) Create(ctx context.Context, f *models.Fulfillment) error {
	if !f.Slot.Valid() {
		return &apperr.SlotUnavailableError{ProviderID: f.ProviderID, Reason: "slot has no duration"}
	}
	if err := s.checkAvailable(ctx, f.ProviderID, f.Slot, ""); err != nil {
		return err
	}

	now := s.Clock.Now()
	if f.ID == "" {
		f.ID = uuid.NewString()
	}
	f.State = models.FulfillmentScheduled
	f.CreatedAt = now
	f.UpdatedAt = now
	return s.Fulfillments.Create(ctx, f)
}

func (s *Service) Get(ctx context.Context, id string) (*models.Fulfillment, error) {
	return s.Fulfillments.GetByID(ctx, id)
}

// Transition drives a fulfillment along one edge of its state machine and
// propagates the implied order transition through the synchronizer.
// RESCHEDULED is not reachable here: a reschedule carries a new slot and
// must go through Reschedule.
func (s *Service) Transition(ctx context.Context, id string, next models.FulfillmentState) (*models.Fulfillment, error) {
	f, err := s.Fulfillments.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if next == models.FulfillmentRescheduled {
		return nil, &apperr.InvalidTransitionError{
			Entity: "fulfillment", ID: id,
			Current: string(f.State), Requested: string(next),
		}
	}

	s.Locks.Lock(f.OrderID)
	defer s.Locks.Unlock(f.OrderID)

	// Reload under the lock so the transition validates against the
	// committed state.
	f, err = s.Fulfillments.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	order, err := s.Orders.GetByID(ctx, f.OrderID)
	if err != nil {
		return nil, err
	}
	if err := s.Sync.Apply(ctx, order, f, next); err != nil {
		return nil, err
	}
	utils.GetLogger().Info("fulfillment transitioned",
		zap.String("fulfillment_id", f.ID),
		zap.String("state", string(f.State)))
	return f, nil
}

// Reschedule moves a SCHEDULED appointment to a new slot in one step: the
// availability check (excluding the appointment itself) and the slot swap
// commit together, and the appointment lands back in SCHEDULED. On a
// failed check nothing changes.
func (s *Service) Reschedule(ctx context.Context, id string, newSlot models.TimeSlot) (*models.Fulfillment, error) {
	if !newSlot.Valid() {
		return nil, &apperr.SlotUnavailableError{Reason: "slot has no duration"}
	}

	f, err := s.Fulfillments.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	s.Locks.Lock(f.OrderID)
	defer s.Locks.Unlock(f.OrderID)

	f, err = s.Fulfillments.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !f.State.CanTransitionTo(models.FulfillmentRescheduled) {
		return nil, &apperr.InvalidTransitionError{
			Entity: "fulfillment", ID: id,
			Current: string(f.State), Requested: string(models.FulfillmentRescheduled),
		}
	}
	if err := s.checkAvailable(ctx, f.ProviderID, newSlot, f.ID); err != nil {
		return nil, err
	}

	previous := f.Slot
	f.Slot = newSlot
	if f.Tags == nil {
		f.Tags = make(map[string]string)
	}
	f.Tags["rescheduled_from"] = previous.Start.Format("2006-01-02T15:04:05Z07:00")
	f.Touch(s.Clock.Now())
	if err := s.Fulfillments.Update(ctx, f); err != nil {
		return nil, err
	}
	utils.GetLogger().Info("fulfillment rescheduled",
		zap.String("fulfillment_id", f.ID),
		zap.Time("from", previous.Start),
		zap.Time("to", newSlot.Start))
	return f, nil
}

// checkAvailable runs the availability rules against the provider's live
// calendar, skipping excludeID so a reschedule does not collide with its
// own current slot.
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
