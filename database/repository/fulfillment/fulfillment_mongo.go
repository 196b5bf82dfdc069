package fulfillmentRepo

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

// MongoFulfillmentRepo implements FulfillmentRepository backed by MongoDB.
type MongoFulfillmentRepo struct {
	coll *mongo.Collection
}

// NewMongoFulfillmentRepo returns a repository over the fulfillments collection.
func NewMongoFulfillmentRepo() *MongoFulfillmentRepo {
	coll := database.MongoClient.Database(database.DBName).Collection("fulfillments")
	return &MongoFulfillmentRepo{coll: coll}
}

func (repo *MongoFulfillmentRepo) Create(ctx context.Context, f *models.Fulfillment) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if _, err := repo.coll.InsertOne(ctx, f); err != nil {
		return fmt.Errorf("failed to insert fulfillment: %w", err)
	}
	return nil
}

func (repo *MongoFulfillmentRepo) GetByID(ctx context.Context, id string) (*models.Fulfillment, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	var f models.Fulfillment
	err := repo.coll.FindOne(ctx, bson.M{"id": id}).Decode(&f)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, &apperr.NotFoundError{Entity: "fulfillment", ID: id}
	}
	if err != nil {
		return nil, fmt.Errorf("failed to fetch fulfillment: %w", err)
	}
	return &f, nil
}

func (repo *MongoFulfillmentRepo) ListActiveByProvider(ctx context.Context, providerID string) ([]models.Fulfillment, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	filter := bson.M{
		"provider_id": providerID,
		"state": bson.M{"$in": []models.FulfillmentState{
			models.FulfillmentScheduled,
			models.FulfillmentWaiting,
			models.FulfillmentInProgress,
		}},
	}
	cursor, err := repo.coll.Find(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to list fulfillments: %w", err)
	}
	defer cursor.Close(ctx)

	var out []models.Fulfillment
	if err := cursor.All(ctx, &out); err != nil {
		return nil, fmt.Errorf("failed to decode fulfillments: %w", err)
	}
	return out, nil
}

func (repo *MongoFulfillmentRepo) Update(ctx context.Context, f *models.Fulfillment) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	filter := bson.M{"id": f.ID, "version": f.Version}
	next := *f
	next.Version = f.Version + 1

	res, err := repo.coll.ReplaceOne(ctx, filter, &next)
	if err != nil {
		return fmt.Errorf("failed to update fulfillment: %w", err)
	}
	if res.MatchedCount == 0 {
		if _, getErr := repo.GetByID(ctx, f.ID); getErr != nil {
			return getErr
		}
		return apperr.ErrStorageConflict
	}
	f.Version = next.Version
	return nil
}
