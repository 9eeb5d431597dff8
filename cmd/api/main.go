package main

import (
	"context"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/dvloznov/expense-coach/internal/api/handlers"
	"github.com/dvloznov/expense-coach/internal/api/middleware"
	"github.com/dvloznov/expense-coach/internal/app"
	"github.com/dvloznov/expense-coach/internal/config"
	"github.com/dvloznov/expense-coach/internal/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		bootLog := logger.New()
		bootLog.Fatal().Err(err).Msg("Invalid configuration")
	}

	// Parse command-line flags
	var (
		port        = flag.String("port", cfg.Port, "HTTP server port (or set PORT)")
		runSchedule = flag.Bool("schedule", cfg.APISchedule, "Run the weekly/monthly batch scheduler in this process instead of the worker")
	)
	flag.Parse()

	// Initialize logger
	log := logger.NewWithOptions(logger.Options{Level: cfg.LogLevel, JSON: cfg.JSONLogs()})
	ctx := logger.WithContext(context.Background(), log)

	a, err := app.New(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize application")
	}
	defer a.Close()

	if !a.AIConfigured {
		log.Warn().Msg("Summaries and chat will return 503 until AI credentials are configured")
	}

	// Start worker in background to process batch jobs
	workerCtx, cancelWorker := context.WithCancel(ctx)
	defer cancelWorker()

	log.Info().Msg("Starting job worker")
	if err := a.Queue.Start(workerCtx, a.BatchHandler()); err != nil {
		log.Fatal().Err(err).Msg("Failed to start job worker")
	}

	var stopScheduler func(context.Context) error
	if *runSchedule {
		sched, err := a.NewScheduler()
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to create scheduler")
		}
		if _, err := sched.CatchUp(ctx); err != nil {
			log.Error().Err(err).Msg("Catch-up check failed")
		}
		sched.Start()
		stopScheduler = sched.Stop
	}

	mux := handlers.NewMux(a.Handlers())

	// Apply middleware
	handler := middleware.Recovery(log)(
		middleware.RequestID(
			middleware.Logger(log)(
				middleware.CORS(
					middleware.Auth(handlers.HealthPath)(mux),
				),
			),
		),
	)

	// Create HTTP server
	server := &http.Server{
		Addr:         ":" + *port,
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in a goroutine
	go func() {
		log.Info().Str("port", *port).Str("datastore", cfg.Datastore).Msg("Starting API server")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("Failed to start server")
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutting down server...")

	// Graceful shutdown
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if stopScheduler != nil {
		if err := stopScheduler(shutdownCtx); err != nil {
			log.Error().Err(err).Msg("Error stopping scheduler")
		}
	}

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
	}

	// Stop job queue and wait for in-flight jobs
	if err := a.Queue.Stop(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Error stopping job queue")
	}
	cancelWorker()

	log.Info().Msg("Server exited")
}
