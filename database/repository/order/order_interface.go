package orderRepo

import (
	"context"

	"caregate/models"
)

// OrderRepository persists orders. Update is a compare-and-swap on the
// order's version: a stale version surfaces apperr.ErrStorageConflict so
// two concurrent transition attempts on the same order cannot both succeed.
type OrderRepository interface {
	Create(ctx context.Context, order *models.Order) error
	GetByID(ctx context.Context, id string) (*models.Order, error)
	GetByTransactionID(ctx context.Context, transactionID string) (*models.Order, error)
	Update(ctx context.Context, order *models.Order) error
}
