package registryRepo

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
	"go.mongodb.org/mongo-driver/mongo/options"
)

// MongoSubscriberRepo implements SubscriberRepository backed by MongoDB.
type MongoSubscriberRepo struct {
	coll *mongo.Collection
}

// NewMongoSubscriberRepo returns a repository over the subscribers collection.
func NewMongoSubscriberRepo() *MongoSubscriberRepo {
	coll := database.MongoClient.Database(database.DBName).Collection("subscribers")
	return &MongoSubscriberRepo{coll: coll}
}

func (repo *MongoSubscriberRepo) Upsert(ctx context.Context, s *models.Subscriber) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	opts := options.Replace().SetUpsert(true)
	if _, err := repo.coll.ReplaceOne(ctx, bson.M{"id": s.ID}, s, opts); err != nil {
		return fmt.Errorf("failed to upsert subscriber: %w", err)
	}
	return nil
}

func (repo *MongoSubscriberRepo) GetByID(ctx context.Context, id string) (*models.Subscriber, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	var s models.Subscriber
	err := repo.coll.FindOne(ctx, bson.M{"id": id}).Decode(&s)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, &apperr.NotFoundError{Entity: "subscriber", ID: id}
	}
	if err != nil {
		return nil, fmt.Errorf("failed to fetch subscriber: %w", err)
	}
	return &s, nil
}

func (repo *MongoSubscriberRepo) ListByRole(ctx context.Context, role models.SubscriberRole, city string) ([]models.Subscriber, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	filter := bson.M{"role": role, "status": "SUBSCRIBED"}
	if city != "" {
		filter["city"] = city
	}
	cursor, err := repo.coll.Find(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to list subscribers: %w", err)
	}
	defer cursor.Close(ctx)

	var out []models.Subscriber
	if err := cursor.All(ctx, &out); err != nil {
		return nil, fmt.Errorf("failed to decode subscribers: %w", err)
	}
	return out, nil
}
