package providerRepo

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

// MongoProviderRepo implements ProviderRepository backed by MongoDB.
type MongoProviderRepo struct {
	coll *mongo.Collection
}

// NewMongoProviderRepo returns a repository over the providers collection.
func NewMongoProviderRepo() *MongoProviderRepo {
	coll := database.MongoClient.Database(database.DBName).Collection("providers")
	return &MongoProviderRepo{coll: coll}
}

func (repo *MongoProviderRepo) Create(ctx context.Context, p *models.Provider) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if _, err := repo.coll.InsertOne(ctx, p); err != nil {
		return fmt.Errorf("failed to insert provider: %w", err)
	}
	return nil
}

func (repo *MongoProviderRepo) GetByID(ctx context.Context, id string) (*models.Provider, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	var p models.Provider
	err := repo.coll.FindOne(ctx, bson.M{"id": id}).Decode(&p)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, &apperr.NotFoundError{Entity: "provider", ID: id}
	}
	if err != nil {
		return nil, fmt.Errorf("failed to fetch provider: %w", err)
	}
	return &p, nil
}

func (repo *MongoProviderRepo) List(ctx context.Context) ([]models.Provider, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	cursor, err := repo.coll.Find(ctx, bson.M{})
	if err != nil {
		return nil, fmt.Errorf("failed to list providers: %w", err)
	}
	defer cursor.Close(ctx)

	var out []models.Provider
	if err := cursor.All(ctx, &out); err != nil {
		return nil, fmt.Errorf("failed to decode providers: %w", err)
	}
	return out, nil
}

func (repo *MongoProviderRepo) Update(ctx context.Context, p *models.Provider) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	filter := bson.M{"id": p.ID, "version": p.Version}
	next := *p
	next.Version = p.Version + 1

	res, err := repo.coll.ReplaceOne(ctx, filter, &next)
	if err != nil {
		return fmt.Errorf("failed to update provider: %w", err)
	}
	if res.MatchedCount == 0 {
		if _, getErr := repo.GetByID(ctx, p.ID); getErr != nil {
			return getErr
		}
		return apperr.ErrStorageConflict
	}
	p.Version = next.Version
	return nil
}
