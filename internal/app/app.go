// Package app собирает хранилище и движки по конфигурации.
// Используется сервером (cmd) и CLI (cmd/plancli).
package app

import (
	"context"
	"fmt"
	"net/http"

	"github.com/rs/zerolog"

	"gymcoach/internal/api"
	"gymcoach/internal/config"
	"gymcoach/internal/equipment"
	"gymcoach/internal/generator"
	"gymcoach/internal/metrics"
	"gymcoach/internal/recalibration"
	"gymcoach/internal/repository"
	"gymcoach/internal/repository/memory"
	"gymcoach/internal/repository/sqlite"
	"gymcoach/internal/scheduler"
	"gymcoach/internal/substitution"
	"gymcoach/internal/warmup"
)

// App - собранные зависимости
type App struct {
	Config *config.Config
	Store  repository.Store

	Equipment     *equipment.Resolver
	Substitution  *substitution.Engine
	Generator     *generator.Engine
	Warmup        *warmup.Engine
	Recalibration *recalibration.Engine
	Metrics       *metrics.Recorder

	logger zerolog.Logger
}

// OpenStore открывает хранилище по STORE_DRIVER и применяет SEED_FILE
func OpenStore(ctx context.Context, cfg *config.Config, logger zerolog.Logger) (repository.Store, error) {
	var seed *memory.Snapshot
	if cfg.SeedFile != "" {
		snap, err := memory.LoadSnapshot(cfg.SeedFile)
		if err != nil {
			return nil, err
		}
		seed = &snap
	}

	switch cfg.StoreDriver {
	case config.DriverPostgres:
		if seed != nil {
			logger.Warn().Str("seed_file", cfg.SeedFile).Msg("seed file ignored for postgres")
		}
		repo, err := repository.Open(ctx, cfg.DSN())
		if err != nil {
			return nil, err
		}
		logger.Info().Str("host", cfg.DBHost).Str("db", cfg.DBName).Msg("connected to postgres")
		return repo, nil

	case config.DriverSQLite:
		store, err := sqlite.NewStore(cfg.SQLitePath)
		if err != nil {
			return nil, err
		}
		// сид только для пустого файла, иначе рестарт затёр бы данные
		if seed != nil && len(store.Export().Exercises) == 0 {
			if err := store.Import(ctx, *seed); err != nil {
				store.Close()
				return nil, fmt.Errorf("seed sqlite: %w", err)
			}
			logger.Info().Str("seed_file", cfg.SeedFile).Int("exercises", len(seed.Exercises)).Msg("sqlite store seeded")
		}
		logger.Info().Str("path", store.Path()).Msg("using sqlite store")
		return store, nil

	case config.DriverMemory:
		store := memory.New()
		if seed != nil {
			store.Import(*seed)
			if cfg.SeedWatch {
				if _, err := memory.Watch(ctx, store, cfg.SeedFile, logger); err != nil {
					return nil, err
				}
			}
		}
		logger.Info().Msg("using in-memory store")
		return store, nil
	}
	return nil, fmt.Errorf("unknown store driver %q", cfg.StoreDriver)
}

// New открывает хранилище и создаёт движки
func New(ctx context.Context, cfg *config.Config, logger zerolog.Logger) (*App, error) {
	store, err := OpenStore(ctx, cfg, logger)
	if err != nil {
		return nil, err
	}
	return Wire(cfg, store, logger), nil
}

// Wire создаёт движки поверх готового хранилища
func Wire(cfg *config.Config, store repository.Store, logger zerolog.Logger) *App {
	resolver := equipment.NewResolver(store, equipment.WithLogger(logger.With().Str("component", "equipment").Logger()))
	return &App{
		Config:        cfg,
		Store:         store,
		Equipment:     resolver,
		Substitution:  substitution.NewEngine(store, substitution.WithLogger(logger.With().Str("component", "substitution").Logger())),
		Generator:     generator.NewEngine(store, resolver, generator.WithLogger(logger.With().Str("component", "generator").Logger())),
		Warmup:        warmup.NewEngine(store, warmup.WithLogger(logger.With().Str("component", "warmup").Logger())),
		Recalibration: recalibration.NewEngine(store, recalibration.WithEquipment(resolver), recalibration.WithLogger(logger.With().Str("component", "recalibration").Logger())),
		Metrics:       metrics.New(),
		logger:        logger,
	}
}

// Router - HTTP API поверх движков
func (a *App) Router() http.Handler {
	return api.NewRouter(api.Deps{
		Substitution:   a.Substitution,
		Generator:      a.Generator,
		Warmup:         a.Warmup,
		Recalibration:  a.Recalibration,
		Equipment:      a.Equipment,
		Metrics:        a.Metrics,
		Logger:         &a.logger,
		RequestTimeout: a.Config.RequestTimeout,
	})
}

// Scheduler - ночной пересчёт по RECALIBRATION_CRON
func (a *App) Scheduler() (*scheduler.Scheduler, error) {
	return scheduler.New(a.Store, a.Recalibration, a.Config.RecalibrationCron,
		scheduler.WithDryRun(a.Config.RecalibrationDryRun),
		scheduler.WithLogger(a.logger.With().Str("component", "scheduler").Logger()),
	)
}

// Close закрывает хранилище
func (a *App) Close() error {
	return a.Store.Close()
}
