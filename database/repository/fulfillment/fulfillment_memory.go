package fulfillmentRepo

import (
	"context"
	"sort"
	"sync"

	"caregate/apperr"
	"caregate/models"
)

// MemoryFulfillmentRepo is the in-memory twin of the mongo repository.
type MemoryFulfillmentRepo struct {
	mu           sync.RWMutex
	fulfillments map[string]models.Fulfillment
}

func NewMemoryFulfillmentRepo() *MemoryFulfillmentRepo {
	return &MemoryFulfillmentRepo{fulfillments: make(map[string]models.Fulfillment)}
}

func (repo *MemoryFulfillmentRepo) Create(ctx context.Context, f *models.Fulfillment) error {
	repo.mu.Lock()
	defer repo.mu.Unlock()
	repo.fulfillments[f.ID] = *f
	return nil
}

func (repo *MemoryFulfillmentRepo) GetByID(ctx context.Context, id string) (*models.Fulfillment, error) {
	repo.mu.RLock()
	defer repo.mu.RUnlock()
	f, ok := repo.fulfillments[id]
	if !ok {
		return nil, &apperr.NotFoundError{Entity: "fulfillment", ID: id}
	}
	out := f
	return &out, nil
}

func (repo *MemoryFulfillmentRepo) ListActiveByProvider(ctx context.Context, providerID string) ([]models.Fulfillment, error) {
	repo.mu.RLock()
	defer repo.mu.RUnlock()
	var out []models.Fulfillment
	for _, f := range repo.fulfillments {
		if f.ProviderID == providerID && f.State.Active() {
			out = append(out, f)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Slot.Start.Before(out[j].Slot.Start) })
	return out, nil
}

func (repo *MemoryFulfillmentRepo) Update(ctx context.Context, f *models.Fulfillment) error {
	repo.mu.Lock()
	defer repo.mu.Unlock()
	current, ok := repo.fulfillments[f.ID]
	if !ok {
		return &apperr.NotFoundError{Entity: "fulfillment", ID: f.ID}
	}
	if current.Version != f.Version {
		return apperr.ErrStorageConflict
	}
	f.Version++
	repo.fulfillments[f.ID] = *f
	return nil
}
