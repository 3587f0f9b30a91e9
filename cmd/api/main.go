package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"wcperfit/internal/api"
	"wcperfit/internal/app"
	"wcperfit/internal/config"
	"wcperfit/internal/logger"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatal("Failed to load configuration:", err)
	}

	// Initialize logger
	logger := logger.New(cfg.LogLevel)

	// Initialize services
	a, err := app.New(cfg, logger)
	if err != nil {
		logger.Fatal("Failed to initialize: %v", err)
	}
	defer a.Close()

	// Make sure the schema exists
	if ran, err := a.Installer.Install(context.Background()); err != nil {
		logger.Fatal("Failed to install: %v", err)
	} else if !ran {
		logger.Info("Install already running elsewhere, skipping")
	}

	// Initialize API server
	server := api.New(cfg, logger, api.Dependencies{
		Lifecycle: a.Lifecycle,
		Keys:      a.Keys,
		Webhooks:  a.Webhooks,
	})

	go func() {
		if err := server.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("Failed to start server: %v", err)
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := server.Stop(ctx); err != nil {
		logger.Error("Server shutdown failed: %v", err)
	}
}
