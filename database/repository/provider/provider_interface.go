package providerRepo

import (
	"context"

	"caregate/models"
)

// ProviderRepository persists provider records. The availability engine only
// ever reads through this interface.
type ProviderRepository interface {
	Create(ctx context.Context, p *models.Provider) error
	GetByID(ctx context.Context, id string) (*models.Provider, error)
	List(ctx context.Context) ([]models.Provider, error)
	Update(ctx context.Context, p *models.Provider) error
}
