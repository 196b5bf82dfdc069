package fulfillmentRepo

import (
	"context"

	"caregate/models"
)

// FulfillmentRepository persists fulfillments. Update follows the same
// versioned compare-and-swap contract as the order repository.
type FulfillmentRepository interface {
	Create(ctx context.Context, f *models.Fulfillment) error
	GetByID(ctx context.Context, id string) (*models.Fulfillment, error)
	// ListActiveByProvider returns the provider's fulfillments in a state
	// that occupies the calendar (SCHEDULED, WAITING, IN_PROGRESS).
	ListActiveByProvider(ctx context.Context, providerID string) ([]models.Fulfillment, error)
	Update(ctx context.Context, f *models.Fulfillment) error
}
