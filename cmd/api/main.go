// Package main is the entrypoint for the SPA backend server.
package main

import (
	"log/slog"
	"net/http"
	"os"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/ramzan118/gke-node-backend/internal/config"
	"github.com/ramzan118/gke-node-backend/internal/handler"
	"github.com/ramzan118/gke-node-backend/internal/metrics"
	"github.com/ramzan118/gke-node-backend/internal/middleware"
	"github.com/ramzan118/gke-node-backend/internal/repository"
	"github.com/ramzan118/gke-node-backend/internal/server"
	"github.com/ramzan118/gke-node-backend/internal/startup"
)

func main() {
	// Load configuration. Missing required variables stop the process
	// before the listener starts.
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := initLogger(cfg)

	// Metrics
	var (
		recorder metrics.Recorder = metrics.NewNoop()
		registry *prometheus.Registry
	)
	if cfg.MetricsEnabled {
		registry = metrics.NewRegistry()
		recorder = metrics.NewPrometheus(registry)
	}

	// The handle stays empty until the start task below publishes a store.
	handle := repository.NewHandle()

	initializer := &startup.Initializer{
		ProjectID: cfg.ProjectID,
		SecretID:  cfg.ConnectionSecretID,
		Resolver:  startup.ManagedSecrets{},
		Connector: startup.SpannerConnector{},
		Handle:    handle,
		Recorder:  recorder,
		Logger:    logger,
		Timeout:   cfg.InitTimeout,
	}

	r := setupRouter(cfg, handle, recorder, registry, logger)

	srv := server.New(
		r,
		cfg.Port,
		cfg.ReadTimeout,
		cfg.WriteTimeout,
		cfg.ShutdownTimeout,
		logger,
	)
	srv.OnShutdown("spanner", initializer.Close)

	logger.Info("starting server",
		"port", cfg.Port,
		"static_dir", cfg.StaticDir,
		"project_id", cfg.ProjectID,
		"env", cfg.AppEnv,
	)

	err = srv.Run(server.StartTask{Name: "spanner-init", Run: initializer.Run})
	if err != nil {
		logger.Error("server error", "error", err)
		os.Exit(1)
	}
}

// initLogger initializes the slog logger based on configuration.
func initLogger(cfg *config.Config) *slog.Logger {
	var h slog.Handler

	opts := &slog.HandlerOptions{
		Level: parseLogLevel(cfg.LogLevel),
	}

	if cfg.LogFormat == "json" {
		h = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		h = slog.NewTextHandler(os.Stdout, opts)
	}

	logger := slog.New(h)
	slog.SetDefault(logger)

	return logger
}

// parseLogLevel converts string log level to slog.Level.
func parseLogLevel(level string) slog.Level {
	switch level {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// setupRouter configures the chi router with all routes and middleware.
// registry may be nil when metrics are disabled.
func setupRouter(
	cfg *config.Config,
	handle *repository.Handle,
	recorder metrics.Recorder,
	registry *prometheus.Registry,
	logger *slog.Logger,
) *chi.Mux {
	h := handler.New()
	healthHandler := handler.NewHealthHandler(handle)
	usersHandler := handler.NewUsersHandler(handle, logger, recorder, cfg.QueryTimeout)
	staticHandler := handler.NewStaticHandler(os.DirFS(cfg.StaticDir), logger, h.NotFound)

	securityCfg := middleware.DefaultSecurityConfig()
	securityCfg.IsDevelopment = cfg.IsDevelopment()

	r := chi.NewRouter()

	// Global middleware
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger(logger, recorder))
	r.Use(middleware.Recoverer(logger))
	r.Use(middleware.Security(securityCfg))

	// Probes
	r.Get("/healthz", healthHandler.Healthz)
	r.Get("/readyz", healthHandler.Readyz)
	if registry != nil {
		r.Method(http.MethodGet, "/metrics", metrics.Handler(registry))
	}

	r.Get("/api/users", usersHandler.List)
	r.Head("/api/users", usersHandler.List)

	// Static assets, then the SPA entry document for everything else.
	r.Method(http.MethodGet, "/*", staticHandler)
	r.Method(http.MethodHead, "/*", staticHandler)

	r.NotFound(h.NotFound)
	r.MethodNotAllowed(h.MethodNotAllowed)

	return r
}
