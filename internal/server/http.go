package server

import (
	"cmp"
	"context"
	"log/slog"
	"net/http"
	"path"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	echoSwagger "github.com/swaggo/echo-swagger"
	"golang.org/x/time/rate"

	"sefariaproxy/internal/admin"
	"sefariaproxy/internal/core"
)

// DefaultBodySizeLimit caps request bodies when Config leaves it empty.
const DefaultBodySizeLimit = "1M"

// Server wraps the Echo server
type Server struct {
	echo    *echo.Echo
	handler *Handler
}

// Config holds server configuration options
type Config struct {
	MasterKey       string  // Optional: bearer key for /api/*
	AdminKey        string  // Optional: bearer key for /admin/api/v1/*; empty disables the admin API
	MetricsEnabled  bool    // Whether to expose Prometheus metrics endpoint
	MetricsEndpoint string  // HTTP path for metrics endpoint (default: /metrics)
	BodySizeLimit   string  // Max request body size in echo syntax (default: 1M)
	RateLimit       float64 // Requests per second per client IP on /api/*; 0 disables
	RateLimitBurst  int
	SwaggerEnabled  bool
}

// New builds the Echo instance: request ID, access log, panic recovery and a
// body limit on every route, then the public, API and admin routes.
// adminHandler may be nil.
func New(handler *Handler, adminHandler *admin.Handler, cfg *Config) *Server {
	if cfg == nil {
		cfg = &Config{}
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Use(
		requestID(),
		requestLogger(),
		middleware.Recover(),
		middleware.BodyLimit(cmp.Or(cfg.BodySizeLimit, DefaultBodySizeLimit)),
	)

	e.GET("/health", handler.Health)
	if cfg.MetricsEnabled {
		// path.Clean keeps a configured "../" from escaping the root.
		e.GET(path.Clean("/"+cmp.Or(cfg.MetricsEndpoint, "/metrics")), echo.WrapHandler(promhttp.Handler()))
	}
	if cfg.SwaggerEnabled {
		e.GET("/swagger/*", echoSwagger.WrapHandler)
	}

	api := e.Group("/api/openai", AuthMiddleware(cfg.MasterKey))
	if cfg.RateLimit > 0 {
		api.Use(rateLimiter(cfg.RateLimit, cfg.RateLimitBurst))
	}
	handler.Register(api)

	if adminHandler != nil && cfg.AdminKey != "" {
		adminHandler.Register(e.Group("/admin/api/v1", AdminAuthMiddleware(cfg.AdminKey)))
	}

	return &Server{echo: e, handler: handler}
}

// requestID accepts the caller's X-Request-ID or generates a UUID, and puts
// it on the request context for logging and upstream forwarding.
func requestID() echo.MiddlewareFunc {
	return middleware.RequestIDWithConfig(middleware.RequestIDConfig{
		Generator:    uuid.NewString,
		TargetHeader: core.RequestIDHeader,
		RequestIDHandler: func(c echo.Context, id string) {
			req := c.Request()
			c.SetRequest(req.WithContext(core.WithRequestID(req.Context(), id)))
		},
	})
}

func requestLogger() echo.MiddlewareFunc {
	return middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogStatus:    true,
		LogURI:       true,
		LogMethod:    true,
		LogLatency:   true,
		LogRequestID: true,
		LogError:     true,
		HandleError:  true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			level := slog.LevelInfo
			if v.Error != nil || v.Status >= http.StatusInternalServerError {
				level = slog.LevelWarn
			}
			attrs := []slog.Attr{
				slog.String("method", v.Method),
				slog.String("uri", v.URI),
				slog.Int("status", v.Status),
				slog.Duration("latency", v.Latency),
				slog.String("request_id", v.RequestID),
			}
			if v.Error != nil {
				attrs = append(attrs, slog.String("error", v.Error.Error()))
			}
			slog.LogAttrs(c.Request().Context(), level, "request", attrs...)
			return nil
		},
	})
}

func rateLimiter(perSecond float64, burst int) echo.MiddlewareFunc {
	if burst <= 0 {
		burst = int(perSecond) + 1
	}
	store := middleware.NewRateLimiterMemoryStoreWithConfig(middleware.RateLimiterMemoryStoreConfig{
		Rate:      rate.Limit(perSecond),
		Burst:     burst,
		ExpiresIn: 3 * time.Minute,
	})
	return middleware.RateLimiterWithConfig(middleware.RateLimiterConfig{
		Store: store,
		ErrorHandler: func(c echo.Context, err error) error {
			return handleError(c, core.NewInvalidRequestErrorWithStatus(http.StatusForbidden, "unable to identify client", err))
		},
		DenyHandler: func(c echo.Context, _ string, _ error) error {
			return handleError(c, core.NewRateLimitError("", "rate limit exceeded"))
		},
	})
}

// Start starts the HTTP server on the given address
func (s *Server) Start(addr string) error {
	return s.echo.Start(addr)
}

// Shutdown gracefully shuts down the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.echo.Shutdown(ctx)
}

// ServeHTTP implements the http.Handler interface, allowing Server to be used with httptest
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.echo.ServeHTTP(w, r)
}
