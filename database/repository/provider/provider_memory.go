package providerRepo

import (
	"context"
	"sync"

	"caregate/apperr"
	"caregate/models"
)

// MemoryProviderRepo is the in-memory twin of the mongo repository.
type MemoryProviderRepo struct {
	mu        sync.RWMutex
	providers map[string]models.Provider
}

func NewMemoryProviderRepo() *MemoryProviderRepo {
	return &MemoryProviderRepo{providers: make(map[string]models.Provider)}
}

func (repo *MemoryProviderRepo) Create(ctx context.Context, p *models.Provider) error {
	repo.mu.Lock()
	defer repo.mu.Unlock()
	repo.providers[p.ID] = *p
	return nil
}

func (repo *MemoryProviderRepo) GetByID(ctx context.Context, id string) (*models.Provider, error) {
	repo.mu.RLock()
	defer repo.mu.RUnlock()
	p, ok := repo.providers[id]
	if !ok {
		return nil, &apperr.NotFoundError{Entity: "provider", ID: id}
	}
	out := p
	return &out, nil
}

func (repo *MemoryProviderRepo) List(ctx context.Context) ([]models.Provider, error) {
	repo.mu.RLock()
	defer repo.mu.RUnlock()
	out := make([]models.Provider, 0, len(repo.providers))
	for _, p := range repo.providers {
		out = append(out, p)
	}
	return out, nil
}

func (repo *MemoryProviderRepo) Update(ctx context.Context, p *models.Provider) error {
	repo.mu.Lock()
	defer repo.mu.Unlock()
	current, ok := repo.providers[p.ID]
	if !ok {
		return &apperr.NotFoundError{Entity: "provider", ID: p.ID}
	}
	if current.Version != p.Version {
		return apperr.ErrStorageConflict
	}
	p.Version++
	repo.providers[p.ID] = *p
	return nil
}
