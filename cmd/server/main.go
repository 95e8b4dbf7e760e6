package main

import (
	"context"
	"fmt"
	"log"

	"go.uber.org/zap"

	"github.com/mealsnap/backend/config"
	httpDelivery "github.com/mealsnap/backend/internal/delivery/http"
	"github.com/mealsnap/backend/internal/domain"
	"github.com/mealsnap/backend/internal/infrastructure/bolt"
	"github.com/mealsnap/backend/internal/infrastructure/sqlite"
	"github.com/mealsnap/backend/internal/infrastructure/vision"
	"github.com/mealsnap/backend/internal/usecase"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	logger, err := newLogger(cfg.Server.Environment)
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer logger.Sync()

	loc := cfg.Location()

	logger.Info("starting MealSnap backend",
		zap.String("version", "1.0.0"),
		zap.String("environment", cfg.Server.Environment),
		zap.String("port", cfg.Server.Port),
		zap.String("storage_backend", cfg.Storage.Backend),
		zap.String("timezone", loc.String()),
	)

	// Initialize the meal store
	var repo domain.MealRepository
	switch cfg.Storage.Backend {
	case "bolt":
		repo, err = bolt.Open(cfg.Storage.DataDir, loc, logger)
	default:
		repo, err = sqlite.Open(cfg.Storage.DataDir, loc, logger)
	}
	if err != nil {
		logger.Fatal("failed to open meal store", zap.Error(err))
	}
	defer repo.Close()

	// Initialize the recognition client
	visionClient := vision.NewClient(cfg.Vision.APIKey, cfg.Vision.BaseURL, cfg.Vision.RequestsPerMinute, logger)
	if cfg.Server.Environment == "development" {
		visionClient.SetDebug(true)
		logger.Info("vision client debug mode enabled")
	}

	// Initialize the tracker service and load today's state
	tracker := usecase.NewTrackerService(repo, visionClient, usecase.TrackerConfig{
		Location: loc,
		Logger:   logger,
	})

	ctx := context.Background()
	if err := tracker.Load(ctx); err != nil {
		logger.Warn("initial state load failed", zap.Error(err))
	}

	// Watch for local-midnight rollover in the background
	watchCtx, cancelWatch := context.WithCancel(ctx)
	defer cancelWatch()
	tracker.StartDateWatcher(watchCtx, cfg.Tracker.DateCheckInterval)

	// Create HTTP handler with dependencies
	handler := httpDelivery.NewHandler(tracker, loc, logger)

	// Setup router
	router := httpDelivery.SetupRouter(cfg, handler, logger)

	// Start server
	addr := fmt.Sprintf(":%s", cfg.Server.Port)
	logger.Info("server listening", zap.String("addr", addr))

	if err := router.Run(addr); err != nil {
		logger.Fatal("failed to start server", zap.Error(err))
	}
}

func newLogger(environment string) (*zap.Logger, error) {
	if environment == "production" {
		return zap.NewProduction()
	}
	return zap.NewDevelopment()
}
