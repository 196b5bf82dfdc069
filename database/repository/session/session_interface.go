package sessionRepo

import (
	"context"

	"caregate/models"
)

// Store persists search correlation sessions for the lifetime of a
// discovery round. Closed sessions stay readable until TTL so late
// provider callbacks can be distinguished from unknown transactions.
type Store interface {
	Put(ctx context.Context, s *models.TransactionSession) error
	Get(ctx context.Context, id string) (*models.TransactionSession, error)
	Delete(ctx context.Context, id string) error
}
