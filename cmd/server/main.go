package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/bloomhaus/mailflow/internal/cart"
	"github.com/bloomhaus/mailflow/internal/clock"
	"github.com/bloomhaus/mailflow/internal/config"
	"github.com/bloomhaus/mailflow/internal/database"
	"github.com/bloomhaus/mailflow/internal/directory"
	"github.com/bloomhaus/mailflow/internal/engine"
	"github.com/bloomhaus/mailflow/internal/handler"
	"github.com/bloomhaus/mailflow/internal/logger"
	"github.com/bloomhaus/mailflow/internal/middleware"
	"github.com/bloomhaus/mailflow/internal/provider"
	"github.com/bloomhaus/mailflow/internal/quota"
	"github.com/bloomhaus/mailflow/internal/render"
	"github.com/bloomhaus/mailflow/internal/repository"
	"github.com/bloomhaus/mailflow/internal/router"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger
	log := logger.New(cfg.Log.Level, cfg.Log.Format)
	log.Info().Str("version", "0.1.0").Msg("starting mailflow automation engine")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Tracking store: Postgres when configured, in-memory otherwise
	var db *database.Postgres
	var store repository.TrackingStore
	if cfg.Database.Enabled {
		db, err = database.NewPostgres(cfg.Database)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to connect to database")
		}
		defer db.Close()
		store = repository.NewPostgresTrackingStore(db)
		log.Info().Msg("tracking store: postgres")
	} else {
		store = repository.NewMemoryTrackingStore()
		log.Info().Msg("tracking store: in-memory")
	}

	// Daily quota: Redis when configured, process-local otherwise
	var rdb *database.Redis
	var dailyQuota quota.Quota
	if cfg.Redis.Enabled {
		rdb, err = database.NewRedis(cfg.Redis)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to connect to Redis")
		}
		defer rdb.Close()
		dailyQuota = quota.NewRedisQuota(rdb, cfg.Engine.DailySendCap)
		log.Info().Msg("daily quota: redis")
	} else {
		dailyQuota = quota.NewCounter(cfg.Engine.DailySendCap)
		log.Info().Msg("daily quota: in-memory")
	}

	// Provider chain and dispatcher
	clk := clock.Real{}
	providers, err := provider.BuildChain(ctx, cfg.Providers, log)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to build provider chain")
	}
	dispatcher := provider.NewDispatcher(providers, clk, log)

	// Collaborators
	contacts := directory.NewLogDirectory(log)
	events := directory.NewLogSink(log)
	renderer := render.NewCatalogRenderer("Bloomhaus")

	// Engine
	eng := engine.New(engine.Params{
		Store:     store,
		Quota:     dailyQuota,
		Sender:    dispatcher,
		Renderer:  renderer,
		Directory: contacts,
		Events:    events,
		Clock:     clk,
		Log:       log,
	})
	log.Info().Int("daily_send_cap", cfg.Engine.DailySendCap).Msg("engine initialized")

	// Periodic sweep
	sweeper := engine.NewSweeper(eng, cfg.Engine.SweepInterval, log)
	go sweeper.Run(ctx)

	// Abandoned-cart tracker and scanner
	cartStore := repository.NewMemoryCartStore()
	tracker := cart.NewTracker(cartStore, clk, log)
	scanner := cart.NewScanner(cart.ScannerParams{
		Store:         cartStore,
		Notifier:      eng,
		Directory:     contacts,
		Events:        events,
		IdleThreshold: cfg.Cart.IdleThreshold,
		Interval:      cfg.Cart.ScanInterval,
		Clock:         clk,
		Log:           log,
	})
	go scanner.Run(ctx)

	// HTTP surface
	h := handler.New(eng, tracker, store, db, rdb, log, cfg)
	mw := middleware.New(log)
	r := router.New(h, mw)

	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Info().Str("addr", addr).Msg("HTTP server listening")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("HTTP server error")
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info().Msg("shutting down")

	// Stop the background loops, then drain the HTTP server
	cancel()
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("HTTP server shutdown error")
	}
	log.Info().Msg("shutdown complete")
}
