package bookingRepo

import (
	"context"

	"caregate/models"
)

// BookingRepository commits an order and its fulfillment as one unit, so
// the pair never drifts apart on a partial failure.
type BookingRepository interface {
	// CreatePair inserts a fresh order/fulfillment pair.
	CreatePair(ctx context.Context, order *models.Order, f *models.Fulfillment) error
	// CommitPair replaces both documents with version checks; if either
	// version is stale the whole commit fails with ErrStorageConflict
	// and nothing is written.
	CommitPair(ctx context.Context, order *models.Order, f *models.Fulfillment) error
}
