package bookingRepo

import (
	"context"

	"caregate/database/repository/fulfillment"
	"caregate/database/repository/order"
	"caregate/models"
)

// MemoryBookingRepo composes the in-memory order and fulfillment repos.
// Without a real transaction it checks both versions up front, then
// restores the order if the fulfillment write still fails.
type MemoryBookingRepo struct {
	orders       *orderRepo.MemoryOrderRepo
	fulfillments *fulfillmentRepo.MemoryFulfillmentRepo
}

func NewMemoryBookingRepo(orders *orderRepo.MemoryOrderRepo, fulfillments *fulfillmentRepo.MemoryFulfillmentRepo) *MemoryBookingRepo {
	return &MemoryBookingRepo{orders: orders, fulfillments: fulfillments}
}

func (repo *MemoryBookingRepo) CreatePair(ctx context.Context, order *models.Order, f *models.Fulfillment) error {
	if err := repo.orders.Create(ctx, order); err != nil {
		return err
	}
	return repo.fulfillments.Create(ctx, f)
}

func (repo *MemoryBookingRepo) CommitPair(ctx context.Context, order *models.Order, f *models.Fulfillment) error {
	prev, err := repo.orders.GetByID(ctx, order.ID)
	if err != nil {
		return err
	}
	if err := repo.orders.Update(ctx, order); err != nil {
		return err
	}
	if err := repo.fulfillments.Update(ctx, f); err != nil {
		// Roll the order content back under its advanced version.
		restored := *prev
		restored.Version = order.Version
		if rbErr := repo.orders.Update(ctx, &restored); rbErr == nil {
			order.Version = restored.Version
		}
		return err
	}
	return nil
}
