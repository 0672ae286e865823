package rootmeaning

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
)

// MongoDBStore implements Store for MongoDB. Documents are keyed by the
// normalized root in _id.
type MongoDBStore struct {
	collection *mongo.Collection
}

// NewMongoDBStore binds the root_translation_cache collection.
func NewMongoDBStore(database *mongo.Database) (*MongoDBStore, error) {
	if database == nil {
		return nil, fmt.Errorf("database is required")
	}
	return &MongoDBStore{collection: database.Collection("root_translation_cache")}, nil
}

func (s *MongoDBStore) Get(ctx context.Context, root string) (*Entry, error) {
	var e Entry
	err := s.collection.FindOne(ctx, bson.D{{Key: "_id", Value: root}}).Decode(&e)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to query root meaning: %w", err)
	}
	return &e, nil
}

func (s *MongoDBStore) Upsert(ctx context.Context, e Entry) error {
	_, err := s.collection.ReplaceOne(ctx, bson.D{{Key: "_id", Value: e.Root}}, e,
		options.Replace().SetUpsert(true))
	if err != nil {
		return fmt.Errorf("failed to upsert root meaning: %w", err)
	}
	return nil
}

// Close is a no-op; the shared client is closed by its owner.
func (s *MongoDBStore) Close() error {
	return nil
}
