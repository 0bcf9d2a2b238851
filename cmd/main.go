package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"

	"gymcoach/internal/app"
	"gymcoach/internal/config"
	"gymcoach/internal/logging"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load config")
	}
	logger := logging.Setup(cfg.LogLevel, cfg.LogFormat)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	a, err := app.New(ctx, cfg, logger)
	if err != nil {
		logger.Fatal().Err(err).Str("driver", cfg.StoreDriver).Msg("Failed to open store")
	}
	defer a.Close()

	sched, err := a.Scheduler()
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to configure recalibration schedule")
	}
	sched.Start()
	defer sched.Stop()

	httpServer := &http.Server{
		Addr:         cfg.HTTPAddr,
		Handler:      a.Router(),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	// Graceful shutdown
	go func() {
		<-ctx.Done()
		logger.Info().Msg("Shutting down gracefully...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			logger.Error().Err(err).Msg("HTTP shutdown failed")
		}
	}()

	logger.Info().
		Str("addr", cfg.HTTPAddr).
		Str("driver", cfg.StoreDriver).
		Str("recalibration_cron", cfg.RecalibrationCron).
		Msg("gymcoach is ready")

	if err := httpServer.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
		logger.Error().Err(err).Msg("Server failed")
		os.Exit(1)
	}
}
