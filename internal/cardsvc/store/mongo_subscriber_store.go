package store

import (
	"context"
	"time"

	"github.com/avvvet/card-services/internal/cardsvc/models"
	"github.com/pkg/errors"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const subscriberCollection = "subscribers"

type mongoSubscriber struct {
	UserID    int64     `bson:"user_id"`
	Username  string    `bson:"username,omitempty"`
	FirstName string    `bson:"first_name"`
	LastName  string    `bson:"last_name"`
	CreatedAt time.Time `bson:"created_at"`
}

// MongoSubscriberStore keeps subscribers in a collection with a unique
// user_id index. Records have no numeric id, List numbers them from 1.
type MongoSubscriberStore struct {
	coll *mongo.Collection
}

func NewMongoSubscriberStore(db *mongo.Database) *MongoSubscriberStore {
	return &MongoSubscriberStore{coll: db.Collection(subscriberCollection)}
}

func (s *MongoSubscriberStore) Migrate(ctx context.Context) error {
	indexModel := mongo.IndexModel{
		Keys:    bson.D{{Key: "user_id", Value: 1}},
		Options: options.Index().SetUnique(true),
	}

	if _, err := s.coll.Indexes().CreateOne(ctx, indexModel); err != nil {
		return models.StorageError("migrate subscribers", err)
	}
	return nil
}

func (s *MongoSubscriberStore) Upsert(ctx context.Context, sub models.Subscriber) (bool, error) {
	// user_id comes from the filter on insert
	onInsert := bson.M{
		"first_name": sub.FirstName,
		"last_name":  sub.LastName,
		"created_at": time.Now().UTC(),
	}
	if sub.Username != "" {
		onInsert["username"] = sub.Username
	}

	res, err := s.coll.UpdateOne(ctx,
		bson.M{"user_id": sub.UserID},
		bson.M{"$setOnInsert": onInsert},
		options.Update().SetUpsert(true),
	)
	if err != nil {
		// a concurrent upsert won the unique index
		if mongo.IsDuplicateKeyError(err) {
			return false, nil
		}
		return false, models.StorageError("upsert subscriber", errors.Wrapf(err, "user %d", sub.UserID))
	}
	return res.UpsertedCount == 1, nil
}

func (s *MongoSubscriberStore) List(ctx context.Context) ([]models.Subscriber, error) {
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: 1}, {Key: "_id", Value: 1}})

	cursor, err := s.coll.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, models.StorageError("list subscribers", err)
	}
	defer cursor.Close(ctx)

	subs := []models.Subscriber{}
	for cursor.Next(ctx) {
		var doc mongoSubscriber
		if err := cursor.Decode(&doc); err != nil {
			return nil, models.StorageError("decode subscriber", err)
		}
		subs = append(subs, models.Subscriber{
			ID:        int64(len(subs) + 1),
			UserID:    doc.UserID,
			Username:  doc.Username,
			FirstName: doc.FirstName,
			LastName:  doc.LastName,
			CreatedAt: doc.CreatedAt,
		})
	}
	if err := cursor.Err(); err != nil {
		return nil, models.StorageError("list subscribers", err)
	}
	return subs, nil
}
