package pronunciation

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

// MongoDBStore implements Store for MongoDB. Entries are keyed by text hash
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
		entries: database.Collection("pronunciation_cache"),
		stats:   database.Collection("pronunciation_cache_stats"),
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	_, err := s.entries.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "last_accessed_at", Value: 1}, {Key: "_id", Value: 1}},
	})
	if err != nil {
		slog.Warn("failed to create MongoDB index for pronunciation cache", "error", err)
	}

	_, err = s.stats.UpdateOne(ctx,
		bson.D{{Key: "_id", Value: statsID}},
		bson.D{{Key: "$setOnInsert", Value: bson.D{
			{Key: "total_size_bytes", Value: int64(0)},
			{Key: "total_files", Value: int64(0)},
			{Key: "hits", Value: int64(0)},
			{Key: "misses", Value: int64(0)},
			{Key: "last_purge_at", Value: int64(0)},
			{Key: "updated_at", Value: time.Now().Unix()},
		}}},
		options.UpdateOne().SetUpsert(true),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to seed pronunciation_cache_stats: %w", err)
	}

	return s, nil
}

func byID(id any) bson.D {
	return bson.D{{Key: "_id", Value: id}}
}

func (s *MongoDBStore) Get(ctx context.Context, hash string) (*Entry, error) {
	var e Entry
	if err := s.entries.FindOne(ctx, byID(hash)).Decode(&e); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to query pronunciation cache: %w", err)
	}
	return &e, nil
}

func (s *MongoDBStore) Upsert(ctx context.Context, e Entry) error {
	if _, err := s.entries.ReplaceOne(ctx, byID(e.TextHash), e, options.Replace().SetUpsert(true)); err != nil {
		return fmt.Errorf("failed to upsert pronunciation entry: %w", err)
	}
	return nil
}

func (s *MongoDBStore) Touch(ctx context.Context, hash string, now int64) error {
	_, err := s.entries.UpdateOne(ctx, byID(hash), bson.D{
		{Key: "$set", Value: bson.D{{Key: "last_accessed_at", Value: now}}},
		{Key: "$inc", Value: bson.D{{Key: "access_count", Value: int64(1)}}},
	})
	if err != nil {
		return fmt.Errorf("failed to touch pronunciation entry: %w", err)
	}
	return nil
}

func (s *MongoDBStore) Delete(ctx context.Context, hash string) (bool, error) {
	res, err := s.entries.DeleteOne(ctx, byID(hash))
	if err != nil {
		return false, fmt.Errorf("failed to delete pronunciation entry: %w", err)
	}
	return res.DeletedCount > 0, nil
}

func (s *MongoDBStore) DeleteAll(ctx context.Context) (int64, error) {
	res, err := s.entries.DeleteMany(ctx, bson.D{})
	if err != nil {
		return 0, fmt.Errorf("failed to clear pronunciation cache: %w", err)
	}
	return res.DeletedCount, nil
}

func (s *MongoDBStore) find(ctx context.Context, filter bson.D, opts *options.FindOptionsBuilder) ([]Entry, error) {
	cursor, err := s.entries.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to list pronunciation entries: %w", err)
	}
	defer cursor.Close(ctx)

	entries := make([]Entry, 0)
	if err := cursor.All(ctx, &entries); err != nil {
		return nil, fmt.Errorf("failed to decode pronunciation entries: %w", err)
	}
	return entries, nil
}

func (s *MongoDBStore) ListLRU(ctx context.Context) ([]Entry, error) {
	return s.find(ctx, bson.D{},
		options.Find().SetSort(bson.D{{Key: "last_accessed_at", Value: 1}, {Key: "_id", Value: 1}}))
}

func (s *MongoDBStore) List(ctx context.Context, p ListParams) ([]Entry, int64, error) {
	filter := bson.D{}
	if p.Search != "" {
		pattern := bson.Regex{Pattern: regexp.QuoteMeta(p.Search), Options: "i"}
		filter = bson.D{{Key: "$or", Value: bson.A{
			bson.D{{Key: "normalized_text", Value: pattern}},
			bson.D{{Key: "_id", Value: pattern}},
		}}}
	}

	total, err := s.entries.CountDocuments(ctx, filter)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to count pronunciation entries: %w", err)
	}

	entries, err := s.find(ctx, filter, options.Find().
		SetSort(bson.D{{Key: "last_accessed_at", Value: -1}, {Key: "_id", Value: 1}}).
		SetSkip(int64(p.Offset)).
		SetLimit(int64(p.Limit)))
	return entries, total, err
}

func (s *MongoDBStore) Count(ctx context.Context) (int64, error) {
	n, err := s.entries.CountDocuments(ctx, bson.D{})
	if err != nil {
		return 0, fmt.Errorf("failed to count pronunciation entries: %w", err)
	}
	return n, nil
}

func (s *MongoDBStore) Stats(ctx context.Context) (Stats, error) {
	var st Stats
	err := s.stats.FindOne(ctx, byID(statsID)).Decode(&st)
	if err != nil && !errors.Is(err, mongo.ErrNoDocuments) {
		return Stats{}, fmt.Errorf("failed to read pronunciation stats: %w", err)
	}
	return st, nil
}

func (s *MongoDBStore) Increment(ctx context.Context, c Counter, now int64) error {
	if !c.valid() {
		return fmt.Errorf("unknown counter %q", c)
	}
	_, err := s.stats.UpdateOne(ctx, byID(statsID), bson.D{
		{Key: "$inc", Value: bson.D{{Key: string(c), Value: int64(1)}}},
		{Key: "$set", Value: bson.D{{Key: "updated_at", Value: now}}},
	}, options.UpdateOne().SetUpsert(true))
	if err != nil {
		return fmt.Errorf("failed to increment %s: %w", c, err)
	}
	return nil
}

func (s *MongoDBStore) AdjustTotals(ctx context.Context, sizeDelta, filesDelta, now int64) error {
	clampAdd := func(field string, delta int64) bson.D {
		return bson.D{{Key: "$max", Value: bson.A{
			int64(0),
			bson.D{{Key: "$add", Value: bson.A{bson.D{{Key: "$ifNull", Value: bson.A{"$" + field, int64(0)}}}, delta}}},
		}}}
	}
	pipeline := mongo.Pipeline{
		{{Key: "$set", Value: bson.D{
			{Key: "total_size_bytes", Value: clampAdd("total_size_bytes", sizeDelta)},
			{Key: "total_files", Value: clampAdd("total_files", filesDelta)},
			{Key: "updated_at", Value: now},
		}}},
	}
	if _, err := s.stats.UpdateOne(ctx, byID(statsID), pipeline); err != nil {
		return fmt.Errorf("failed to adjust pronunciation totals: %w", err)
	}
	return nil
}

func (s *MongoDBStore) SetTotals(ctx context.Context, totalSize, totalFiles, purgedAt, now int64) error {
	set := bson.D{
		{Key: "total_size_bytes", Value: totalSize},
		{Key: "total_files", Value: totalFiles},
		{Key: "updated_at", Value: now},
	}
	if purgedAt > 0 {
		set = append(set, bson.E{Key: "last_purge_at", Value: purgedAt})
	}
	_, err := s.stats.UpdateOne(ctx, byID(statsID), bson.D{{Key: "$set", Value: set}}, options.UpdateOne().SetUpsert(true))
	if err != nil {
		return fmt.Errorf("failed to set pronunciation totals: %w", err)
	}
	return nil
}

func (s *MongoDBStore) Close() error {
	return nil
}
