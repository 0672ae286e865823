package blobstore

import "fmt"

// Type constants for blob store backends
const (
	TypeLocal  = "local"
	TypeRedis  = "redis"
	TypeMemory = "memory"
)

// DefaultLocalDir is used when no local directory is configured.
const DefaultLocalDir = "data/blobs"

// Config selects and configures the blob store backend.
type Config struct {
	Type     string
	LocalDir string
	Redis    RedisConfig
}

// New creates the configured blob store.
func New(cfg Config) (Store, error) {
	switch cfg.Type {
	case TypeLocal, "":
		dir := cfg.LocalDir
		if dir == "" {
			dir = DefaultLocalDir
		}
		return NewLocalStore(dir)
	case TypeRedis:
		if cfg.Redis.URL == "" {
			return nil, fmt.Errorf("redis URL is required for redis blob store")
		}
		return NewRedisStore(cfg.Redis)
	case TypeMemory:
		return NewMemoryStore(), nil
	default:
		return nil, fmt.Errorf("unknown blob store type: %s (valid: local, redis, memory)", cfg.Type)
	}
}
