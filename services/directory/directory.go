package directory

import (
	"context"

	"caregate/database/repository/fulfillment"
	"caregate/database/repository/provider"
	"caregate/models"
)

// Directory is the read side the availability checks run against: a
// provider's schedule plus whatever currently occupies their calendar.
type Directory interface {
	Schedule(ctx context.Context, providerID string) (models.ScheduleConfig, error)
	ActiveFulfillments(ctx context.Context, providerID string) ([]models.Fulfillment, error)
}

// RepoDirectory reads straight from the repositories.
type RepoDirectory struct {
	Providers    providerRepo.ProviderRepository
	Fulfillments fulfillmentRepo.FulfillmentRepository
}

func NewRepoDirectory(providers providerRepo.ProviderRepository, fulfillments fulfillmentRepo.FulfillmentRepository) *RepoDirectory {
	return &RepoDirectory{Providers: providers, Fulfillments: fulfillments}
}

func (d *RepoDirectory) Schedule(ctx context.Context, providerID string) (models.ScheduleConfig, error) {
	p, err := d.Providers.GetByID(ctx, providerID)
	if err != nil {
		return models.ScheduleConfig{}, err
	}
	return p.Schedule, nil
}

func (d *RepoDirectory) ActiveFulfillments(ctx context.Context, providerID string) ([]models.Fulfillment, error) {
	return d.Fulfillments.ListActiveByProvider(ctx, providerID)
}
