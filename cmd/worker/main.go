package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"wcperfit/internal/app"
	"wcperfit/internal/config"
	"wcperfit/internal/logger"
	"wcperfit/internal/worker"
	"wcperfit/internal/worker/processors"
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
	if _, err := a.Installer.Install(context.Background()); err != nil {
		logger.Fatal("Failed to install: %v", err)
	}

	// Initialize worker
	processor := processors.NewEventProcessor(a.Installer, a.Lifecycle, logger.With("events"))
	w := worker.New(cfg, processor, logger)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})

	// Start worker
	logger.Info("Starting worker...")
	go func() {
		w.Start(ctx)
		close(done)
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down worker...")
	cancel()
	<-done
	w.Stop()
}
