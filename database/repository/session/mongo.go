package sessionRepo

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

// MongoSessionRepo implements Repository on MongoDB.
type MongoSessionRepo struct {
	coll           *mongo.Collection
	settlementColl *mongo.Collection
}

func NewMongoSessionRepo() *MongoSessionRepo {
	db := database.MongoClient.Database("soulseer")
	return &MongoSessionRepo{
		coll:           db.Collection("sessions"),
		settlementColl: db.Collection("settlements"),
	}
}

func (r *MongoSessionRepo) Save(ctx context.Context, sess models.Session) error {
	filter := bson.M{"id": sess.ID}
	update := bson.M{"$set": sess}
	opts := options.Update().SetUpsert(true)
	if _, err := r.coll.UpdateOne(ctx, filter, update, opts); err != nil {
		return fmt.Errorf("failed to upsert session %s: %w", sess.ID, err)
	}
	return nil
}

func (r *MongoSessionRepo) GetByID(ctx context.Context, id string) (*models.Session, error) {
	var sess models.Session
	err := r.coll.FindOne(ctx, bson.M{"id": id}).Decode(&sess)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to fetch session %s: %w", id, err)
	}
	return &sess, nil
}

func (r *MongoSessionRepo) SaveSettlement(ctx context.Context, rec models.SettlementRecord) error {
	filter := bson.M{"session_id": rec.SessionID}
	update := bson.M{"$set": rec}
	opts := options.Update().SetUpsert(true)
	if _, err := r.settlementColl.UpdateOne(ctx, filter, update, opts); err != nil {
		return fmt.Errorf("failed to upsert settlement for session %s: %w", rec.SessionID, err)
	}
	return nil
}
