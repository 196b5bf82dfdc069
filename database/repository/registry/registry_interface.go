package registryRepo

import (
	"context"

	"caregate/models"
)

// SubscriberRepository is the network-registry read model: who is on the
// network, where to call them back, and what key they sign with.
type SubscriberRepository interface {
	Upsert(ctx context.Context, s *models.Subscriber) error
	GetByID(ctx context.Context, id string) (*models.Subscriber, error)
	// ListByRole returns subscribed participants with the given role,
	// optionally filtered by city (empty city matches all).
	ListByRole(ctx context.Context, role models.SubscriberRole, city string) ([]models.Subscriber, error)
}
