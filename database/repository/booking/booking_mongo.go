package bookingRepo

import (
	"context"
	"fmt"

	"caregate/apperr"
	"caregate/database"
	"caregate/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

// MongoBookingRepo runs the dual commit inside a mongo transaction
// against the same collections the single-entity repositories use.
type MongoBookingRepo struct {
	orderColl       *mongo.Collection
	fulfillmentColl *mongo.Collection
}

func NewMongoBookingRepo() *MongoBookingRepo {
	db := database.MongoClient.Database(database.DBName)
	return &MongoBookingRepo{
		orderColl:       db.Collection("orders"),
		fulfillmentColl: db.Collection("fulfillments"),
	}
}

func (repo *MongoBookingRepo) CreatePair(ctx context.Context, order *models.Order, f *models.Fulfillment) error {
	return repo.withTransaction(ctx, func(sc mongo.SessionContext) error {
		if _, err := repo.orderColl.InsertOne(sc, order); err != nil {
			return fmt.Errorf("insert order failed: %w", err)
		}
		if _, err := repo.fulfillmentColl.InsertOne(sc, f); err != nil {
			return fmt.Errorf("insert fulfillment failed: %w", err)
		}
		return nil
	})
}

func (repo *MongoBookingRepo) CommitPair(ctx context.Context, order *models.Order, f *models.Fulfillment) error {
	nextOrder := *order
	nextOrder.Version = order.Version + 1
	nextFulfillment := *f
	nextFulfillment.Version = f.Version + 1

	err := repo.withTransaction(ctx, func(sc mongo.SessionContext) error {
		res, err := repo.orderColl.ReplaceOne(sc, bson.M{"id": order.ID, "version": order.Version}, &nextOrder)
		if err != nil {
			return fmt.Errorf("replace order failed: %w", err)
		}
		if res.MatchedCount == 0 {
			return apperr.ErrStorageConflict
		}

		res, err = repo.fulfillmentColl.ReplaceOne(sc, bson.M{"id": f.ID, "version": f.Version}, &nextFulfillment)
		if err != nil {
			return fmt.Errorf("replace fulfillment failed: %w", err)
		}
		if res.MatchedCount == 0 {
			return apperr.ErrStorageConflict
		}
		return nil
	})
	if err != nil {
		return err
	}

	order.Version = nextOrder.Version
	f.Version = nextFulfillment.Version
	return nil
}

func (repo *MongoBookingRepo) withTransaction(ctx context.Context, txnFn func(sc mongo.SessionContext) error) error {
	client := repo.orderColl.Database().Client()
	sess, err := client.StartSession()
	if err != nil {
		return fmt.Errorf("could not start mongo session: %w", err)
	}
	defer sess.EndSession(ctx)

	return mongo.WithSession(ctx, sess, func(sc mongo.SessionContext) error {
		if err := sc.StartTransaction(); err != nil {
			return err
		}
		if err := txnFn(sc); err != nil {
			_ = sc.AbortTransaction(sc)
			return err
		}
		return sc.CommitTransaction(sc)
	})
}
