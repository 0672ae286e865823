//go:build integration

// Integration tests run the caches against real PostgreSQL and MongoDB
// instances started with testcontainers-go.
//
// Run with: go test -tags=integration ./internal/app/...
package app

import (
	"context"
	"fmt"
	"log"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/mongodb"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"sefariaproxy/config"
	"sefariaproxy/internal/blobstore"
	"sefariaproxy/internal/pronunciation"
	"sefariaproxy/internal/storage"
	"sefariaproxy/internal/translationcache"
)

var (
	pgContainer    *postgres.PostgresContainer
	pgURL          string
	mongoContainer *mongodb.MongoDBContainer
	mongoURL       string
)

func TestMain(m *testing.M) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)

	errCh := make(chan error, 2)
	go func() { errCh <- setupPostgreSQL(ctx) }()
	go func() { errCh <- setupMongoDB(ctx) }()

	for range 2 {
		if err := <-errCh; err != nil {
			log.Printf("Container setup failed: %v", err)
			cleanup()
			cancel()
			os.Exit(1)
		}
	}

	code := m.Run()

	cleanup()
	cancel()
	os.Exit(code)
}

func setupPostgreSQL(ctx context.Context) error {
	var err error
	pgContainer, err = postgres.Run(ctx,
		"postgres:16-alpine",
		postgres.WithDatabase("sefariaproxy_test"),
		postgres.WithUsername("test"),
		postgres.WithPassword("test"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second),
		),
	)
	if err != nil {
		return fmt.Errorf("failed to start PostgreSQL container: %w", err)
	}
	pgURL, err = pgContainer.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		return fmt.Errorf("failed to get PostgreSQL connection string: %w", err)
	}
	return nil
}

func setupMongoDB(ctx context.Context) error {
	var err error
	mongoContainer, err = mongodb.Run(ctx, "mongo:7")
	if err != nil {
		return fmt.Errorf("failed to start MongoDB container: %w", err)
	}
	mongoURL, err = mongoContainer.ConnectionString(ctx)
	if err != nil {
		return fmt.Errorf("failed to get MongoDB connection string: %w", err)
	}
	return nil
}

func cleanup() {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if pgContainer != nil {
		if err := pgContainer.Terminate(ctx); err != nil {
			log.Printf("Failed to terminate PostgreSQL container: %v", err)
		}
	}
	if mongoContainer != nil {
		if err := mongoContainer.Terminate(ctx); err != nil {
			log.Printf("Failed to terminate MongoDB container: %v", err)
		}
	}
}

func backendConfig(t *testing.T, storageType string) *config.Config {
	t.Helper()
	cfg := &config.Config{}
	cfg.Storage.Type = storageType
	cfg.Storage.PostgreSQL.URL = pgURL
	cfg.Storage.PostgreSQL.MaxConns = 5
	cfg.Storage.MongoDB.URL = mongoURL
	// One database per test keeps MongoDB runs independent.
	cfg.Storage.MongoDB.Database = "sefariaproxy_" + strings.ToLower(strings.NewReplacer("/", "_", " ", "_").Replace(t.Name()))
	cfg.Blob.Type = blobstore.TypeMemory
	cfg.TranslationCache.SchemaVersion = translationcache.DefaultSchemaVersion
	cfg.TranslationCache.TTLSeconds = int64(translationcache.DefaultTTL / time.Second)
	cfg.PronunciationCache.MaxSizeBytes = 100
	cfg.OpenAI.TranslationModel = "gpt-5.1-chat-latest"
	return cfg
}

const envelope = `{"output":[{"type":"message","content":[{"type":"output_text","text":"{\"translatedPhrase\":\"peace\"}"}]}]}`

func TestCachesAgainstDatabases(t *testing.T) {
	for _, storageType := range []string{storage.TypePostgreSQL, storage.TypeMongoDB} {
		t.Run(storageType, func(t *testing.T) {
			ctx := context.Background()
			caches, err := OpenCaches(ctx, backendConfig(t, storageType))
			require.NoError(t, err)
			t.Cleanup(func() { _ = caches.Close() })

			_, err = caches.Translations.Clear(ctx)
			require.NoError(t, err)
			_, err = caches.Pronunciations.Clear(ctx)
			require.NoError(t, err)

			t.Run("translation round trip", func(t *testing.T) {
				assert.False(t, caches.Translations.Lookup(ctx, "שלום").Hit())
				require.NoError(t, caches.Translations.Store(ctx, "שלום", envelope, "p1"))
				require.NoError(t, caches.Translations.RecordMiss(ctx))

				res := caches.Translations.Lookup(ctx, "  שלום ")
				require.True(t, res.Hit(), "reason: %s", res.Reason)
				assert.Equal(t, envelope, res.Payload.Raw)
				require.NoError(t, caches.Translations.RecordHit(ctx))

				stats, err := caches.Translations.Stats(ctx)
				require.NoError(t, err)
				assert.Equal(t, int64(1), stats.Hits)
				assert.Equal(t, int64(1), stats.Misses)

				entries, total, err := caches.Translations.List(ctx, translationcache.ListParams{Limit: 10, Search: "שלום"})
				require.NoError(t, err)
				assert.Equal(t, int64(1), total)
				require.Len(t, entries, 1)

				deleted, err := caches.Translations.Delete(ctx, entries[0].PhraseHash)
				require.NoError(t, err)
				assert.True(t, deleted)
			})

			t.Run("pronunciation add and purge", func(t *testing.T) {
				clip := []byte(strings.Repeat("a", 30))
				for _, text := range []string{"אחד", "שתיים", "שלוש"} {
					lookup := caches.Pronunciations.Lookup(ctx, text)
					require.False(t, lookup.Hit)
					_, err := caches.Pronunciations.Add(ctx, lookup.Key, clip)
					require.NoError(t, err)
				}

				lookup := caches.Pronunciations.Lookup(ctx, "שלוש")
				require.True(t, lookup.Hit)
				assert.Equal(t, clip, lookup.Audio)

				res, err := caches.Pronunciations.Purge(ctx, caches.Pronunciations.MaxSizeBytes())
				require.NoError(t, err)
				assert.Equal(t, 1, res.DeletedCount)
				assert.Equal(t, int64(30), res.FreedBytes)

				stats, err := caches.Pronunciations.Stats(ctx)
				require.NoError(t, err)
				assert.Equal(t, int64(2), stats.TotalFiles)
				assert.Equal(t, int64(60), stats.TotalSizeBytes)
				assert.NotZero(t, stats.LastPurgeAt)

				_, total, err := caches.Pronunciations.List(ctx, pronunciation.ListParams{Limit: 10})
				require.NoError(t, err)
				assert.Equal(t, int64(2), total)
			})

			t.Run("default model setting", func(t *testing.T) {
				assert.Equal(t, "gpt-5.1-chat-latest", caches.Models.DefaultModel(ctx))
				require.NoError(t, caches.Models.SetDefaultModel(ctx, "gpt-4o"))
				assert.Equal(t, "gpt-4o", caches.Models.DefaultModel(ctx))
				require.NoError(t, caches.Models.SetDefaultModel(ctx, ""))
				assert.Equal(t, "gpt-5.1-chat-latest", caches.Models.DefaultModel(ctx))
			})

			t.Run("replacing a clip keeps totals exact", func(t *testing.T) {
				_, err := caches.Pronunciations.Clear(ctx)
				require.NoError(t, err)
				key := caches.Pronunciations.Lookup(ctx, "חמש").Key
				for _, n := range []int{100, 40} {
					_, err := caches.Pronunciations.Add(ctx, key, make([]byte, n))
					require.NoError(t, err)
				}
				stats, err := caches.Pronunciations.Stats(ctx)
				require.NoError(t, err)
				assert.Equal(t, int64(1), stats.TotalFiles)
				assert.Equal(t, int64(40), stats.TotalSizeBytes)
			})

			t.Run("search treats wildcards literally", func(t *testing.T) {
				require.NoError(t, caches.Translations.Store(ctx, "100%", envelope, ""))
				require.NoError(t, caches.Translations.Store(ctx, "100 אחוז", envelope, ""))
				_, total, err := caches.Translations.List(ctx, translationcache.ListParams{Limit: 10, Search: "%"})
				require.NoError(t, err)
				assert.Equal(t, int64(1), total)
			})

			t.Run("root meaning round trip", func(t *testing.T) {
				_, ok := caches.RootMeanings.Lookup(ctx, "אמר")
				assert.False(t, ok)
				caches.RootMeanings.Store(ctx, "אמר", "say, speak")
				meaning, ok := caches.RootMeanings.Lookup(ctx, "אמר")
				require.True(t, ok)
				assert.Equal(t, "say, speak", meaning)
			})

			t.Run("speech model setting", func(t *testing.T) {
				require.NoError(t, caches.SpeechModels.SetDefaultModel(ctx, "tts-1-hd"))
				assert.Equal(t, "tts-1-hd", caches.SpeechModels.DefaultModel(ctx))
				assert.Equal(t, "gpt-5.1-chat-latest", caches.Models.DefaultModel(ctx))
				require.NoError(t, caches.SpeechModels.SetDefaultModel(ctx, ""))
			})
		})
	}
}
