package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"github.com/KevinKickass/PlantDeck/internal/config"
	"github.com/KevinKickass/PlantDeck/internal/logging"
	"github.com/KevinKickass/PlantDeck/internal/system"
)

const defaultConfigPath = "configs/config.yaml"

func main() {
	path := os.Getenv("PLANTDECK_CONFIG")
	if path == "" {
		path = defaultConfigPath
	}

	cfg, err := config.Load(path)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	logger, err := logging.New(cfg.Log.Level, cfg.Log.Format, "plantdeck")
	if err != nil {
		log.Fatalf("Failed to create logger: %v", err)
	}
	defer logger.Sync()

	logger.Info("Config loaded successfully", zap.String("path", path))

	lifecycle, err := system.NewLifecycleManager(context.Background(), cfg, logger)
	if err != nil {
		logger.Fatal("Failed to initialize system", zap.Error(err))
	}

	if err := lifecycle.Start(); err != nil {
		logger.Fatal("Failed to start system", zap.Error(err))
	}

	logger.Info("PlantDeck started successfully")

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	<-sigChan
	logger.Info("Shutdown signal received")

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := lifecycle.Shutdown(ctx); err != nil {
		logger.Error("Shutdown failed", zap.Error(err))
		os.Exit(1)
	}

	logger.Info("PlantDeck stopped successfully")
}
