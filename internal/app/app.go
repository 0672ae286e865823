// Package app wires configuration, caches, the upstream client and the HTTP
// server into one process and owns their lifecycle.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"sefariaproxy/config"
	"sefariaproxy/internal/admin"
	"sefariaproxy/internal/httpclient"
	"sefariaproxy/internal/openai"
	"sefariaproxy/internal/orchestrator"
	"sefariaproxy/internal/server"
)

// App is a running proxy. Create it with New and release it with Shutdown.
type App struct {
	config *config.Config
	caches *Caches
	server *server.Server

	closeOnce sync.Once
	closeErr  error
}

// Config holds the inputs of New.
type Config struct {
	// AppConfig is the result of config.Load.
	AppConfig *config.LoadResult

	// HTTPClient replaces the upstream HTTP client, for tests.
	HTTPClient *http.Client
}

// New opens the caches and builds the request pipeline on top of them.
func New(ctx context.Context, cfg Config) (*App, error) {
	if cfg.AppConfig == nil || cfg.AppConfig.Config == nil {
		return nil, errors.New("app: loaded configuration is required")
	}
	appCfg := cfg.AppConfig.Config

	caches, err := OpenCaches(ctx, appCfg)
	if err != nil {
		return nil, err
	}
	logStartup(appCfg, cfg.AppConfig.ConfigFile)

	upstream := openai.New(openai.Config{
		APIKey:     appCfg.OpenAI.APIKey,
		BaseURL:    appCfg.OpenAI.BaseURL,
		MaxRetries: appCfg.OpenAI.MaxRetries,
	}, upstreamHTTPClient(cfg.HTTPClient, appCfg.HTTP))

	return &App{
		config: appCfg,
		caches: caches,
		server: buildServer(appCfg, caches, upstream),
	}, nil
}

func upstreamHTTPClient(override *http.Client, cfg config.HTTPConfig) *http.Client {
	if override != nil {
		return override
	}
	return httpclient.New(httpclient.Options{
		Timeout:               time.Duration(cfg.Timeout) * time.Second,
		ResponseHeaderTimeout: time.Duration(cfg.ResponseHeaderTimeout) * time.Second,
	})
}

// buildServer assembles the orchestrators and mounts them. The admin API is
// only mounted when an admin key is configured.
func buildServer(cfg *config.Config, caches *Caches, upstream *openai.Client) *server.Server {
	catalogue := openai.NewCatalogue(upstream, openai.CatalogueTTL)
	translator := orchestrator.NewTranslator(caches.Translations, upstream, caches.Models, catalogue)
	pronouncer := orchestrator.NewPronouncer(caches.Pronunciations, upstream, catalogue, orchestrator.SpeechConfig{
		Models:       caches.SpeechModels,
		Model:        cfg.OpenAI.TTSModel,
		Voice:        cfg.OpenAI.TTSVoice,
		Instructions: cfg.OpenAI.TTSInstructions,
	})
	tutor := orchestrator.NewTutor(upstream, caches.Models, catalogue, orchestrator.WithRootMeanings(caches.RootMeanings))

	var adminHandler *admin.Handler
	if cfg.Server.AdminKey != "" {
		adminHandler = admin.NewHandler(caches.Translations, caches.Pronunciations, caches.Models, tutor,
			admin.WithSpeechModels(caches.SpeechModels))
		slog.Info("admin API enabled", "api", "/admin/api/v1")
	} else {
		slog.Info("admin API disabled", "reason", "SEFARIAPROXY_ADMIN_KEY not set")
	}
	if cfg.Server.SwaggerEnabled {
		slog.Info("swagger UI enabled", "path", "/swagger/index.html")
	}

	return server.New(server.NewHandler(translator, pronouncer, tutor), adminHandler, &server.Config{
		MasterKey:       cfg.Server.MasterKey,
		AdminKey:        cfg.Server.AdminKey,
		MetricsEnabled:  cfg.Metrics.Enabled,
		MetricsEndpoint: cfg.Metrics.Endpoint,
		BodySizeLimit:   cfg.Server.BodySizeLimit,
		RateLimit:       cfg.Server.RateLimit,
		RateLimitBurst:  cfg.Server.RateLimitBurst,
		SwaggerEnabled:  cfg.Server.SwaggerEnabled,
	})
}

// Caches returns the cache services.
func (a *App) Caches() *Caches {
	return a.caches
}

// ServeHTTP exposes the HTTP surface, for tests.
func (a *App) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	a.server.ServeHTTP(w, r)
}

// Start listens on addr and blocks until the server stops. A graceful stop
// returns nil.
func (a *App) Start(addr string) error {
	slog.Info("starting server", "address", addr)
	err := a.server.Start(addr)
	if errors.Is(err, http.ErrServerClosed) {
		slog.Info("server stopped gracefully")
		return nil
	}
	if err != nil {
		return fmt.Errorf("server failed: %w", err)
	}
	return nil
}

// Shutdown stops the HTTP server within ctx, then closes the caches. Every
// step runs even if an earlier one fails. Later calls return the first
// call's result.
func (a *App) Shutdown(ctx context.Context) error {
	a.closeOnce.Do(func() {
		slog.Info("shutting down")
		var errs []error
		if err := a.server.Shutdown(ctx); err != nil {
			errs = append(errs, fmt.Errorf("server: %w", err))
		}
		if err := a.caches.Close(); err != nil {
			errs = append(errs, fmt.Errorf("caches: %w", err))
		}
		a.closeErr = errors.Join(errs...)
		if a.closeErr != nil {
			slog.Error("shutdown finished with errors", "error", a.closeErr)
			return
		}
		slog.Info("shutdown complete")
	})
	return a.closeErr
}

func logStartup(cfg *config.Config, configFile string) {
	if configFile != "" {
		slog.Info("configuration loaded", "file", configFile)
	}
	if cfg.Server.MasterKey == "" {
		slog.Warn("SEFARIAPROXY_MASTER_KEY not set, /api is open to unauthenticated callers")
	}
	if cfg.OpenAI.APIKey == "" {
		slog.Warn("OPENAI_API_KEY not set, uncached requests will fail with a configuration error")
	}
	slog.Info("caches configured",
		"storage", cfg.Storage.Type,
		"blobs", cfg.Blob.Type,
		"translation_schema_version", cfg.TranslationCache.SchemaVersion,
		"translation_ttl", time.Duration(cfg.TranslationCache.TTLSeconds)*time.Second,
		"pronunciation_max_size", cfg.PronunciationCache.MaxSizeBytes,
		"translation_model", cfg.OpenAI.TranslationModel,
		"metrics", cfg.Metrics.Enabled,
	)
}
