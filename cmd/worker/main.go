package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/dvloznov/expense-coach/internal/app"
	"github.com/dvloznov/expense-coach/internal/config"
	"github.com/dvloznov/expense-coach/internal/logger"
)

// The worker runs the scheduler and batch queue without the HTTP surface.
func main() {
	cfg, err := config.Load()
	if err != nil {
		bootLog := logger.New()
		bootLog.Fatal().Err(err).Msg("Invalid configuration")
	}

	// Initialize logger
	log := logger.WithComponent(logger.NewWithOptions(logger.Options{Level: cfg.LogLevel, JSON: cfg.JSONLogs()}), "worker")

	// Create context that cancels on interrupt
	ctx, cancel := context.WithCancel(logger.WithContext(context.Background(), log))
	defer cancel()

	a, err := app.New(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize application")
	}
	defer a.Close()

	log.Info().Msg("Starting worker service")

	// Start consuming jobs
	if err := a.Queue.Start(ctx, a.BatchHandler()); err != nil {
		log.Fatal().Err(err).Msg("Failed to start job consumer")
	}

	sched, err := a.NewScheduler()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create scheduler")
	}

	// Recover a period missed while the worker was down.
	if jobs, err := sched.CatchUp(ctx); err != nil {
		log.Error().Err(err).Msg("Catch-up check failed")
	} else if len(jobs) > 0 {
		log.Info().Int("jobs", len(jobs)).Msg("Catch-up batches published")
	}
	sched.Start()

	log.Info().Msg("Worker service started, waiting for schedules...")

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutting down worker service...")

	// Create shutdown context with timeout
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := sched.Stop(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Error stopping scheduler")
	}

	// Stop the queue and wait for in-flight jobs
	if err := a.Queue.Stop(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Error during graceful shutdown")
	}

	// Cancel context to stop workers
	cancel()

	log.Info().Msg("Worker service exited")
}
