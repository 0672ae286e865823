package translationcache

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"regexp"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
)

const statsID = 1

// MongoDBStore implements Store for MongoDB. Entries are keyed by phrase hash
// in _id; the stats singleton is the document with _id 1.
type MongoDBStore struct {
	entries *mongo.Collection
	stats   *mongo.Collection
}

// NewMongoDBStore creates the indexes and seeds the stats singleton.
func NewMongoDBStore(database *mongo.Database) (*MongoDBStore, error) {
	if database == nil {
		return nil, fmt.Errorf("database is required")
	}

	s := &MongoDBStore{
		entries: database.Collection("translation_cache"),
		stats:   database.Collection("cache_stats"),
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	_, err := s.entries.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "created_at", Value: -1}},
	})
	if err != nil {
		slog.Warn("failed to create MongoDB index for translation cache", "error", err)
	}

	_, err = s.stats.UpdateOne(ctx,
		bson.D{{Key: "_id", Value: statsID}},
		bson.D{{Key: "$setOnInsert", Value: bson.D{
			{Key: "hits", Value: int64(0)},
			{Key: "misses", Value: int64(0)},
			{Key: "malformed_hits", Value: int64(0)},
			{Key: "updated_at", Value: time.Now().Unix()},
		}}},
		options.UpdateOne().SetUpsert(true),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to seed cache_stats: %w", err)
	}

	return s, nil
}

func (s *MongoDBStore) Get(ctx context.Context, hash string) (*Entry, error) {
	var e Entry
	err := s.entries.FindOne(ctx, bson.D{{Key: "_id", Value: hash}}).Decode(&e)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to query translation cache: %w", err)
	}
	return &e, nil
}

func (s *MongoDBStore) Upsert(ctx context.Context, e Entry) error {
	_, err := s.entries.ReplaceOne(ctx,
		bson.D{{Key: "_id", Value: e.PhraseHash}},
		e,
		options.Replace().SetUpsert(true),
	)
	if err != nil {
		return fmt.Errorf("failed to upsert translation cache entry: %w", err)
	}
	return nil
}

func (s *MongoDBStore) Delete(ctx context.Context, hash string) (bool, error) {
	res, err := s.entries.DeleteOne(ctx, bson.D{{Key: "_id", Value: hash}})
	if err != nil {
		return false, fmt.Errorf("failed to delete translation cache entry: %w", err)
	}
	return res.DeletedCount > 0, nil
}

func (s *MongoDBStore) DeleteAll(ctx context.Context) (int64, error) {
	res, err := s.entries.DeleteMany(ctx, bson.D{})
	if err != nil {
		return 0, fmt.Errorf("failed to clear translation cache: %w", err)
	}
	return res.DeletedCount, nil
}

func (s *MongoDBStore) List(ctx context.Context, p ListParams) ([]Entry, int64, error) {
	filter := bson.D{}
	if p.Search != "" {
		pattern := bson.Regex{Pattern: regexp.QuoteMeta(p.Search), Options: "i"}
		filter = bson.D{{Key: "$or", Value: bson.A{
			bson.D{{Key: "phrase", Value: pattern}},
			bson.D{{Key: "_id", Value: pattern}},
		}}}
	}

	total, err := s.entries.CountDocuments(ctx, filter)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to count translation cache entries: %w", err)
	}

	opts := options.Find().
		SetSort(bson.D{{Key: "created_at", Value: -1}, {Key: "_id", Value: 1}}).
		SetSkip(int64(p.Offset)).
		SetLimit(int64(p.Limit))
	cursor, err := s.entries.Find(ctx, filter, opts)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list translation cache entries: %w", err)
	}
	defer cursor.Close(ctx)

	entries := make([]Entry, 0)
	if err := cursor.All(ctx, &entries); err != nil {
		return nil, 0, fmt.Errorf("failed to decode translation cache entries: %w", err)
	}
	return entries, total, nil
}

func (s *MongoDBStore) Stats(ctx context.Context) (Stats, error) {
	var st Stats
	err := s.stats.FindOne(ctx, bson.D{{Key: "_id", Value: statsID}}).Decode(&st)
	if err != nil && !errors.Is(err, mongo.ErrNoDocuments) {
		return Stats{}, fmt.Errorf("failed to read cache stats: %w", err)
	}
	return st, nil
}

func (s *MongoDBStore) Increment(ctx context.Context, c Counter, now int64) error {
	if !c.valid() {
		return fmt.Errorf("unknown counter %q", c)
	}
	_, err := s.stats.UpdateOne(ctx,
		bson.D{{Key: "_id", Value: statsID}},
		bson.D{
			{Key: "$inc", Value: bson.D{{Key: string(c), Value: int64(1)}}},
			{Key: "$set", Value: bson.D{{Key: "updated_at", Value: now}}},
		},
		options.UpdateOne().SetUpsert(true),
	)
	if err != nil {
		return fmt.Errorf("failed to increment %s: %w", c, err)
	}
	return nil
}

func (s *MongoDBStore) ResetStats(ctx context.Context, now int64) error {
	_, err := s.stats.UpdateOne(ctx,
		bson.D{{Key: "_id", Value: statsID}},
		bson.D{{Key: "$set", Value: bson.D{
			{Key: "hits", Value: int64(0)},
			{Key: "misses", Value: int64(0)},
			{Key: "malformed_hits", Value: int64(0)},
			{Key: "updated_at", Value: now},
		}}},
		options.UpdateOne().SetUpsert(true),
	)
	if err != nil {
		return fmt.Errorf("failed to reset cache stats: %w", err)
	}
	return nil
}

func (s *MongoDBStore) Close() error {
	return nil
}
