package availabilityRepo

import (
	"context"
	"errors"
	"fmt"

	"soulseer/database"
	"soulseer/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// MongoAvailabilityRepo implements Repository on MongoDB.
type MongoAvailabilityRepo struct {
	coll *mongo.Collection
}

func NewMongoAvailabilityRepo() *MongoAvailabilityRepo {
	return &MongoAvailabilityRepo{
		coll: database.MongoClient.Database("soulseer").Collection("availability"),
	}
}

func (r *MongoAvailabilityRepo) GetByReader(ctx context.Context, readerID string) (*models.ReaderAvailability, error) {
	var avail models.ReaderAvailability
	err := r.coll.FindOne(ctx, bson.M{"reader_id": readerID}).Decode(&avail)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to fetch availability for reader %s: %w", readerID, err)
	}
	return &avail, nil
}

func (r *MongoAvailabilityRepo) Upsert(ctx context.Context, avail models.ReaderAvailability) error {
	filter := bson.M{"reader_id": avail.ReaderID}
	update := bson.M{"$set": avail}
	opts := options.Update().SetUpsert(true)
	if _, err := r.coll.UpdateOne(ctx, filter, update, opts); err != nil {
		return fmt.Errorf("failed to upsert availability for reader %s: %w", avail.ReaderID, err)
	}
	return nil
}
