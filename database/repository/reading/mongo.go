package readingRepo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"soulseer/database"
	"soulseer/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// MongoReadingRepo implements Repository on MongoDB.
type MongoReadingRepo struct {
	coll *mongo.Collection
}

func NewMongoReadingRepo() *MongoReadingRepo {
	return &MongoReadingRepo{
		coll: database.MongoClient.Database("soulseer").Collection("readings"),
	}
}

func (r *MongoReadingRepo) Insert(ctx context.Context, reading models.ScheduledReading) error {
	if _, err := r.coll.InsertOne(ctx, reading); err != nil {
		return fmt.Errorf("failed to insert reading %s: %w", reading.ID, err)
	}
	return nil
}

func (r *MongoReadingRepo) Update(ctx context.Context, reading models.ScheduledReading) error {
	filter := bson.M{"id": reading.ID}
	update := bson.M{"$set": reading}
	opts := options.Update().SetUpsert(true)
	if _, err := r.coll.UpdateOne(ctx, filter, update, opts); err != nil {
		return fmt.Errorf("failed to update reading %s: %w", reading.ID, err)
	}
	return nil
}

func (r *MongoReadingRepo) GetByID(ctx context.Context, id string) (*models.ScheduledReading, error) {
	var reading models.ScheduledReading
	err := r.coll.FindOne(ctx, bson.M{"id": id}).Decode(&reading)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to fetch reading %s: %w", id, err)
	}
	return &reading, nil
}

func (r *MongoReadingRepo) FindOverlapping(ctx context.Context, readerID string, start, end time.Time) ([]models.ScheduledReading, error) {
	// A stored reading [s, s+d) intersects [start, end) when s < end and
	// s+d > start. Duration is minutes, so the end bound is computed inline.
	filter := bson.M{
		"reader_id":    readerID,
		"status":       bson.M{"$in": models.BlockingStatuses},
		"scheduled_at": bson.M{"$lt": end},
		"$expr": bson.M{
			"$gt": bson.A{
				bson.M{"$add": bson.A{
					"$scheduled_at",
					bson.M{"$multiply": bson.A{"$duration", 60000}},
				}},
				start,
			},
		},
	}
	cur, err := r.coll.Find(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to query overlapping readings: %w", err)
	}
	defer cur.Close(ctx)

	var readings []models.ScheduledReading
	if err := cur.All(ctx, &readings); err != nil {
		return nil, fmt.Errorf("failed to decode overlapping readings: %w", err)
	}
	return readings, nil
}

func (r *MongoReadingRepo) ListByUser(ctx context.Context, userID, role string, statuses []string) ([]models.ScheduledReading, error) {
	field := "client_id"
	if role == "reader" {
		field = "reader_id"
	}
	filter := bson.M{field: userID}
	if len(statuses) > 0 {
		filter["status"] = bson.M{"$in": statuses}
	}
	opts := options.Find().SetSort(bson.D{{Key: "scheduled_at", Value: 1}})
	cur, err := r.coll.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to list readings for %s: %w", userID, err)
	}
	defer cur.Close(ctx)

	var readings []models.ScheduledReading
	if err := cur.All(ctx, &readings); err != nil {
		return nil, fmt.Errorf("failed to decode readings for %s: %w", userID, err)
	}
	return readings, nil
}
