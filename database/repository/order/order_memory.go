package orderRepo

import (
	"context"
	"sync"

	"caregate/apperr"
	"caregate/models"
)

// MemoryOrderRepo is an in-memory OrderRepository with the same versioned
// CAS semantics as the mongo implementation. Used by tests and local runs.
type MemoryOrderRepo struct {
	mu     sync.RWMutex
	orders map[string]models.Order
}

func NewMemoryOrderRepo() *MemoryOrderRepo {
	return &MemoryOrderRepo{orders: make(map[string]models.Order)}
}

func (repo *MemoryOrderRepo) Create(ctx context.Context, order *models.Order) error {
	repo.mu.Lock()
	defer repo.mu.Unlock()
	repo.orders[order.ID] = *order
	return nil
}

func (repo *MemoryOrderRepo) GetByID(ctx context.Context, id string) (*models.Order, error) {
	repo.mu.RLock()
	defer repo.mu.RUnlock()
	order, ok := repo.orders[id]
	if !ok {
		return nil, &apperr.NotFoundError{Entity: "order", ID: id}
	}
	out := order
	return &out, nil
}

func (repo *MemoryOrderRepo) GetByTransactionID(ctx context.Context, transactionID string) (*models.Order, error) {
	repo.mu.RLock()
	defer repo.mu.RUnlock()
	for _, order := range repo.orders {
		if order.TransactionID == transactionID {
			out := order
			return &out, nil
		}
	}
	return nil, &apperr.NotFoundError{Entity: "order", ID: transactionID}
}

func (repo *MemoryOrderRepo) Update(ctx context.Context, order *models.Order) error {
	repo.mu.Lock()
	defer repo.mu.Unlock()
	return repo.updateLocked(order)
}

func (repo *MemoryOrderRepo) updateLocked(order *models.Order) error {
	current, ok := repo.orders[order.ID]
	if !ok {
		return &apperr.NotFoundError{Entity: "order", ID: order.ID}
	}
	if current.Version != order.Version {
		return apperr.ErrStorageConflict
	}
	order.Version++
	repo.orders[order.ID] = *order
	return nil
}
