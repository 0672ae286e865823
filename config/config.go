// Package config loads the application configuration from defaults, an
// optional YAML file, an optional .env file and environment variables.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"regexp"
	"strings"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"sefariaproxy/internal/blobstore"
	"sefariaproxy/internal/openai"
	"sefariaproxy/internal/pronunciation"
	"sefariaproxy/internal/storage"
	"sefariaproxy/internal/translationcache"
)

// Config holds the application configuration
type Config struct {
	Server             ServerConfig             `yaml:"server"`
	OpenAI             OpenAIConfig             `yaml:"openai"`
	Storage            StorageConfig            `yaml:"storage"`
	Blob               BlobConfig               `yaml:"blob"`
	TranslationCache   TranslationCacheConfig   `yaml:"translation_cache"`
	PronunciationCache PronunciationCacheConfig `yaml:"pronunciation_cache"`
	Metrics            MetricsConfig            `yaml:"metrics"`
	Logging            LoggingConfig            `yaml:"logging"`
	HTTP               HTTPConfig               `yaml:"http"`
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Port string `yaml:"port" env:"PORT"`
	// MasterKey guards /api/*. Empty disables the check.
	MasterKey string `yaml:"master_key" env:"SEFARIAPROXY_MASTER_KEY"`
	// AdminKey guards /admin/api/v1/*. Empty disables the admin API.
	AdminKey string `yaml:"admin_key" env:"SEFARIAPROXY_ADMIN_KEY"`
	// BodySizeLimit uses echo's size syntax, e.g. "1M".
	BodySizeLimit string `yaml:"body_size_limit" env:"BODY_SIZE_LIMIT"`
	// RateLimit is requests per second per client IP; 0 disables limiting.
	RateLimit      float64 `yaml:"rate_limit" env:"RATE_LIMIT"`
	RateLimitBurst int     `yaml:"rate_limit_burst" env:"RATE_LIMIT_BURST"`
	SwaggerEnabled bool    `yaml:"swagger_enabled" env:"SWAGGER_ENABLED"`
}

// OpenAIConfig holds upstream API configuration
type OpenAIConfig struct {
	APIKey           string `yaml:"api_key" env:"OPENAI_API_KEY"`
	BaseURL          string `yaml:"base_url" env:"OPENAI_BASE_URL"`
	TranslationModel string `yaml:"translation_model" env:"TRANSLATION_MODEL"`
	TTSModel         string `yaml:"tts_model" env:"TTS_MODEL"`
	TTSVoice         string `yaml:"tts_voice" env:"TTS_VOICE"`
	TTSInstructions  string `yaml:"tts_instructions" env:"TTS_INSTRUCTIONS"`
	MaxRetries       int    `yaml:"max_retries" env:"OPENAI_MAX_RETRIES"`
}

// StorageConfig selects the metadata database.
type StorageConfig struct {
	Type       string           `yaml:"type" env:"STORAGE_TYPE"`
	SQLite     SQLiteConfig     `yaml:"sqlite"`
	PostgreSQL PostgreSQLConfig `yaml:"postgresql"`
	MongoDB    MongoDBConfig    `yaml:"mongodb"`
}

// SQLiteConfig holds SQLite settings
type SQLiteConfig struct {
	Path string `yaml:"path" env:"SQLITE_PATH"`
}

// PostgreSQLConfig holds PostgreSQL settings
type PostgreSQLConfig struct {
	URL      string `yaml:"url" env:"POSTGRES_URL"`
	MaxConns int    `yaml:"max_conns" env:"POSTGRES_MAX_CONNS"`
}

// MongoDBConfig holds MongoDB settings
type MongoDBConfig struct {
	URL      string `yaml:"url" env:"MONGODB_URL"`
	Database string `yaml:"database" env:"MONGODB_DATABASE"`
}

// BlobConfig selects the audio object store.
type BlobConfig struct {
	Type  string          `yaml:"type" env:"BLOB_TYPE"`
	Local LocalBlobConfig `yaml:"local"`
	Redis RedisBlobConfig `yaml:"redis"`
}

// LocalBlobConfig holds filesystem blob settings
type LocalBlobConfig struct {
	Dir string `yaml:"dir" env:"BLOB_LOCAL_DIR"`
}

// RedisBlobConfig holds Redis blob settings
type RedisBlobConfig struct {
	URL    string `yaml:"url" env:"BLOB_REDIS_URL"`
	Prefix string `yaml:"prefix" env:"BLOB_REDIS_PREFIX"`
}

// TranslationCacheConfig holds translation cache policy
type TranslationCacheConfig struct {
	SchemaVersion int   `yaml:"schema_version" env:"TRANSLATION_CACHE_SCHEMA_VERSION"`
	TTLSeconds    int64 `yaml:"ttl_seconds" env:"TRANSLATION_CACHE_TTL_SECONDS"`
}

// PronunciationCacheConfig holds the audio cache budget
type PronunciationCacheConfig struct {
	MaxSizeBytes int64 `yaml:"max_size_bytes" env:"PRONUNCIATION_CACHE_MAX_SIZE_BYTES"`
}

// MetricsConfig holds Prometheus exposition settings
type MetricsConfig struct {
	Enabled  bool   `yaml:"enabled" env:"METRICS_ENABLED"`
	Endpoint string `yaml:"endpoint" env:"METRICS_ENDPOINT"`
}

// LoggingConfig holds process logger settings
type LoggingConfig struct {
	// Format is "text" (colored when stdout is a terminal) or "json".
	Format string `yaml:"format" env:"LOG_FORMAT"`
	Level  string `yaml:"level" env:"LOG_LEVEL"`
}

// HTTPConfig holds upstream HTTP client timeouts in seconds
type HTTPConfig struct {
	Timeout               int `yaml:"timeout" env:"HTTP_TIMEOUT"`
	ResponseHeaderTimeout int `yaml:"response_header_timeout" env:"HTTP_RESPONSE_HEADER_TIMEOUT"`
}

// LoadResult is the loaded configuration plus where it came from.
type LoadResult struct {
	Config *Config
	// ConfigFile is the YAML file that was read, empty when none was found.
	ConfigFile string
}

// configPaths are tried in order; the first existing file wins.
var configPaths = []string{"config/config.yaml", "config.yaml"}

// Load builds the configuration. Precedence, lowest first: defaults, YAML
// file (with ${VAR} and ${VAR:-default} expansion), environment. A .env file
// in the working directory is loaded into the environment first and never
// overrides variables that are already set.
func Load() (*LoadResult, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env: %w", err)
	}

	cfg := buildDefaultConfig()
	result := &LoadResult{Config: cfg}

	for _, path := range configPaths {
		data, err := os.ReadFile(path)
		if errors.Is(err, fs.ErrNotExist) {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read %s: %w", path, err)
		}
		if err := yaml.Unmarshal([]byte(expandString(string(data))), cfg); err != nil {
			return nil, fmt.Errorf("failed to parse %s: %w", path, err)
		}
		result.ConfigFile = path
		break
	}

	if err := applyEnvOverrides(cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return result, nil
}

func buildDefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Port:           "8080",
			BodySizeLimit:  "1M",
			RateLimit:      20,
			RateLimitBurst: 40,
		},
		OpenAI: OpenAIConfig{
			BaseURL:          openai.DefaultBaseURL,
			TranslationModel: openai.DefaultTranslationModel,
			TTSModel:         openai.DefaultTTSModel,
			TTSVoice:         openai.DefaultTTSVoice,
			TTSInstructions:  openai.DefaultTTSInstructions,
			MaxRetries:       2,
		},
		Storage: StorageConfig{
			Type:       storage.TypeSQLite,
			SQLite:     SQLiteConfig{Path: storage.DefaultSQLitePath},
			PostgreSQL: PostgreSQLConfig{MaxConns: 10},
			MongoDB:    MongoDBConfig{Database: storage.DefaultMongoDatabase},
		},
		Blob: BlobConfig{
			Type:  blobstore.TypeLocal,
			Local: LocalBlobConfig{Dir: blobstore.DefaultLocalDir},
			Redis: RedisBlobConfig{Prefix: blobstore.DefaultRedisPrefix},
		},
		TranslationCache: TranslationCacheConfig{
			SchemaVersion: translationcache.DefaultSchemaVersion,
			TTLSeconds:    int64(translationcache.DefaultTTL.Seconds()),
		},
		PronunciationCache: PronunciationCacheConfig{
			MaxSizeBytes: pronunciation.DefaultMaxSizeBytes,
		},
		Metrics: MetricsConfig{
			Enabled:  true,
			Endpoint: "/metrics",
		},
		Logging: LoggingConfig{
			Format: "text",
			Level:  "info",
		},
		HTTP: HTTPConfig{
			Timeout:               120,
			ResponseHeaderTimeout: 90,
		},
	}
}

// applyEnvOverrides overwrites fields whose environment variable is set.
func applyEnvOverrides(cfg *Config) error {
	if err := env.Parse(cfg); err != nil {
		return fmt.Errorf("failed to parse environment: %w", err)
	}
	return nil
}

var envPlaceholder = regexp.MustCompile(`\$\{([A-Za-z_][A-Za-z0-9_]*)(:-([^}]*))?\}`)

// expandString replaces ${VAR} and ${VAR:-default}. An unset variable
// without a default is left as written; an empty one takes the default.
func expandString(s string) string {
	return envPlaceholder.ReplaceAllStringFunc(s, func(match string) string {
		m := envPlaceholder.FindStringSubmatch(match)
		name, hasDefault, def := m[1], m[2] != "", m[3]
		if val, ok := os.LookupEnv(name); ok && (val != "" || !hasDefault) {
			return val
		}
		if hasDefault {
			return def
		}
		return match
	})
}

// Validate checks the values that cannot be defaulted.
func (c *Config) Validate() error {
	var errs []error
	switch c.Storage.Type {
	case storage.TypeSQLite, storage.TypePostgreSQL, storage.TypeMongoDB:
	default:
		errs = append(errs, fmt.Errorf("storage.type %q is not one of sqlite, postgresql, mongodb", c.Storage.Type))
	}
	if c.Storage.Type == storage.TypePostgreSQL && c.Storage.PostgreSQL.URL == "" {
		errs = append(errs, errors.New("storage.postgresql.url is required for postgresql storage"))
	}
	if c.Storage.Type == storage.TypeMongoDB && c.Storage.MongoDB.URL == "" {
		errs = append(errs, errors.New("storage.mongodb.url is required for mongodb storage"))
	}
	switch c.Blob.Type {
	case blobstore.TypeLocal, blobstore.TypeRedis, blobstore.TypeMemory:
	default:
		errs = append(errs, fmt.Errorf("blob.type %q is not one of local, redis, memory", c.Blob.Type))
	}
	if c.Blob.Type == blobstore.TypeRedis && c.Blob.Redis.URL == "" {
		errs = append(errs, errors.New("blob.redis.url is required for redis blob storage"))
	}
	if c.PronunciationCache.MaxSizeBytes <= 0 {
		errs = append(errs, errors.New("pronunciation_cache.max_size_bytes must be positive"))
	}
	if c.TranslationCache.TTLSeconds <= 0 {
		errs = append(errs, errors.New("translation_cache.ttl_seconds must be positive"))
	}
	if c.TranslationCache.SchemaVersion <= 0 {
		errs = append(errs, errors.New("translation_cache.schema_version must be positive"))
	}
	switch strings.ToLower(c.Logging.Format) {
	case "text", "json":
	default:
		errs = append(errs, fmt.Errorf("logging.format %q is not one of text, json", c.Logging.Format))
	}
	return errors.Join(errs...)
}

// StorageSettings converts to the storage package configuration.
func (c *Config) StorageSettings() storage.Config {
	return storage.Config{
		Type:       c.Storage.Type,
		SQLite:     storage.SQLiteConfig{Path: c.Storage.SQLite.Path},
		PostgreSQL: storage.PostgreSQLConfig{URL: c.Storage.PostgreSQL.URL, MaxConns: c.Storage.PostgreSQL.MaxConns},
		MongoDB:    storage.MongoDBConfig{URL: c.Storage.MongoDB.URL, Database: c.Storage.MongoDB.Database},
	}
}

// BlobSettings converts to the blobstore package configuration.
func (c *Config) BlobSettings() blobstore.Config {
	return blobstore.Config{
		Type:     c.Blob.Type,
		LocalDir: c.Blob.Local.Dir,
		Redis:    blobstore.RedisConfig{URL: c.Blob.Redis.URL, Prefix: c.Blob.Redis.Prefix},
	}
}
