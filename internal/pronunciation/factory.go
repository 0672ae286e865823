package pronunciation

import (
	"database/sql"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.mongodb.org/mongo-driver/v2/mongo"

	"sefariaproxy/internal/storage"
)

// NewStore creates the Store matching the shared storage backend.
func NewStore(store storage.Storage) (Store, error) {
	return storage.Select(store, storage.Backends[Store]{
		SQLite:     func(db *sql.DB) (Store, error) { return NewSQLiteStore(db) },
		PostgreSQL: func(pool *pgxpool.Pool) (Store, error) { return NewPostgreSQLStore(pool) },
		MongoDB:    func(db *mongo.Database) (Store, error) { return NewMongoDBStore(db) },
	})
}
