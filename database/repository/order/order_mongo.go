package orderRepo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"caregate/apperr"
	"caregate/database"
	"caregate/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

// MongoOrderRepo implements OrderRepository backed by MongoDB.
type MongoOrderRepo struct {
	coll *mongo.Collection
}

// NewMongoOrderRepo returns a repository over the orders collection.
func NewMongoOrderRepo() *MongoOrderRepo {
	coll := database.MongoClient.Database(database.DBName).Collection("orders")
	return &MongoOrderRepo{coll: coll}
}

func (repo *MongoOrderRepo) Create(ctx context.Context, order *models.Order) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if _, err := repo.coll.InsertOne(ctx, order); err != nil {
		return fmt.Errorf("failed to insert order: %w", err)
	}
	return nil
}

func (repo *MongoOrderRepo) GetByID(ctx context.Context, id string) (*models.Order, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	var order models.Order
	err := repo.coll.FindOne(ctx, bson.M{"id": id}).Decode(&order)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, &apperr.NotFoundError{Entity: "order", ID: id}
	}
	if err != nil {
		return nil, fmt.Errorf("failed to fetch order: %w", err)
	}
	return &order, nil
}

func (repo *MongoOrderRepo) GetByTransactionID(ctx context.Context, transactionID string) (*models.Order, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	var order models.Order
	err := repo.coll.FindOne(ctx, bson.M{"transaction_id": transactionID}).Decode(&order)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, &apperr.NotFoundError{Entity: "order", ID: transactionID}
	}
	if err != nil {
		return nil, fmt.Errorf("failed to fetch order by transaction: %w", err)
	}
	return &order, nil
}

// Update replaces the order only if the stored version matches the one the
// caller read. On success the in-memory version is bumped to match.
func (repo *MongoOrderRepo) Update(ctx context.Context, order *models.Order) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	filter := bson.M{"id": order.ID, "version": order.Version}
	next := *order
	next.Version = order.Version + 1

	res, err := repo.coll.ReplaceOne(ctx, filter, &next)
	if err != nil {
		return fmt.Errorf("failed to update order: %w", err)
	}
	if res.MatchedCount == 0 {
		if _, getErr := repo.GetByID(ctx, order.ID); getErr != nil {
			return getErr
		}
		return apperr.ErrStorageConflict
	}
	order.Version = next.Version
	return nil
}
