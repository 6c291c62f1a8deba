package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/callboard/backend/internal/api"
	"github.com/callboard/backend/internal/auth"
	"github.com/callboard/backend/internal/config"
	"github.com/callboard/backend/internal/kpi"
	"github.com/callboard/backend/internal/loader"
	"github.com/callboard/backend/internal/metrics"
	"github.com/callboard/backend/internal/normalize"
	"github.com/callboard/backend/internal/store"
	"github.com/callboard/backend/internal/ticker"
	"github.com/callboard/backend/internal/websocket"
	"github.com/callboard/backend/pkg/middleware"
	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

func main() {
	// Configure logger
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load configuration")
	}

	// Set log level
	level, err := zerolog.ParseLevel(cfg.LogLevel)
	if err != nil {
		log.Warn().Str("level", cfg.LogLevel).Msg("invalid log level, using info")
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)

	log.Info().
		Str("port", cfg.Port).
		Strs("allowed_origins", cfg.AllowedOrigins).
		Bool("day_first", cfg.DayFirst).
		Msg("starting callboard backend server")

	// Load field-mapping and page definitions
	mapping, err := config.LoadMapping(cfg.MappingFile)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load field mapping")
	}

	// Initialize JWKS for token verification in production
	if issuer := os.Getenv("OIDC_ISSUER_URL"); issuer != "" {
		if err := auth.InitJWKS(issuer); err != nil {
			log.Fatal().Err(err).Msg("failed to initialize JWKS")
		}
	}

	// Create WebSocket hub
	hub := websocket.NewHub(log.Logger)
	go hub.Run()

	// Create context for services
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Core services
	stores := store.New(log.Logger)
	engine := normalize.NewEngine(cfg, mapping, log.Logger)
	reconciler := kpi.New(stores, log.Logger)

	ldr := loader.New(cfg, engine, stores, hub, log.Logger)
	go ldr.Run(ctx)

	if cfg.AutoRefresh > 0 {
		tick := ticker.NewTicker(ldr, cfg.AutoRefresh, log.Logger)
		go tick.Start(ctx)
	}

	// Initial load so the dashboard has data before the first refresh
	go ldr.LoadAll(ctx)

	// Create WebSocket handler
	wsHandler := websocket.NewHandler(hub, cfg, log.Logger)

	// Dashboard API
	dashboard := api.NewDashboardHandler(stores, reconciler, mapping, cfg, ldr, log.Logger)

	// Create router
	r := chi.NewRouter()

	// Add middleware
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.Logger(log.Logger))
	r.Use(chimiddleware.Recoverer)
	r.Use(middleware.CORS(cfg.AllowedOrigins))

	// Register public routes (no auth required)
	r.Get("/health", healthHandler)
	r.Get("/metrics", metrics.Get().Handler())

	// Add auth middleware for protected routes
	r.Group(func(r chi.Router) {
		r.Use(auth.Middleware)
		r.Get("/ws", wsHandler.ServeHTTP)
		r.Route("/api", dashboard.Routes)
	})

	// Create HTTP server
	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in a goroutine
	go func() {
		log.Info().Msgf("server listening on :%s", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("failed to start server")
		}
	}()

	// Wait for interrupt signal to gracefully shut down the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("shutting down server...")

	// Stop the refresh loop
	cancel()

	// Create shutdown context with timeout
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	// Attempt graceful shutdown
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Fatal().Err(err).Msg("server forced to shutdown")
	}

	log.Info().Msg("server stopped")
}

// healthHandler handles health check requests
func healthHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	fmt.Fprintf(w, `{"status":"ok","service":"callboard-backend"}`)
}
