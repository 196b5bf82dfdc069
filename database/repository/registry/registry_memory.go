package registryRepo

import (
	"context"
	"sort"
	"sync"

	"caregate/apperr"
	"caregate/models"
)

// MemorySubscriberRepo is the in-memory twin of the mongo repository.
type MemorySubscriberRepo struct {
	mu          sync.RWMutex
	subscribers map[string]models.Subscriber
}

func NewMemorySubscriberRepo() *MemorySubscriberRepo {
	return &MemorySubscriberRepo{subscribers: make(map[string]models.Subscriber)}
}

func (repo *MemorySubscriberRepo) Upsert(ctx context.Context, s *models.Subscriber) error {
	repo.mu.Lock()
	defer repo.mu.Unlock()
	repo.subscribers[s.ID] = *s
	return nil
}

func (repo *MemorySubscriberRepo) GetByID(ctx context.Context, id string) (*models.Subscriber, error) {
	repo.mu.RLock()
	defer repo.mu.RUnlock()
	s, ok := repo.subscribers[id]
	if !ok {
		return nil, &apperr.NotFoundError{Entity: "subscriber", ID: id}
	}
	out := s
	return &out, nil
}

func (repo *MemorySubscriberRepo) ListByRole(ctx context.Context, role models.SubscriberRole, city string) ([]models.Subscriber, error) {
	repo.mu.RLock()
	defer repo.mu.RUnlock()
	var out []models.Subscriber
	for _, s := range repo.subscribers {
		if s.Role != role || !s.Subscribed() {
			continue
		}
		if city != "" && s.City != city {
			continue
		}
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}
