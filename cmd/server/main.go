// Package main is the entry point for the Hindsight backtest service.
// It wires the upstream price client, the series provider with its cache,
// the backtest engine, scenario persistence, and the HTTP server.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hindsightlab/hindsight/internal/clients/yahoo"
	"github.com/hindsightlab/hindsight/internal/config"
	"github.com/hindsightlab/hindsight/internal/database"
	"github.com/hindsightlab/hindsight/internal/modules/backtest"
	backtesthandlers "github.com/hindsightlab/hindsight/internal/modules/backtest/handlers"
	"github.com/hindsightlab/hindsight/internal/modules/scenarios"
	scenariohandlers "github.com/hindsightlab/hindsight/internal/modules/scenarios/handlers"
	"github.com/hindsightlab/hindsight/internal/modules/series"
	"github.com/hindsightlab/hindsight/internal/scheduler"
	"github.com/hindsightlab/hindsight/internal/server"
	"github.com/hindsightlab/hindsight/pkg/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fallbackLog := logger.New(logger.Config{Level: "info", Pretty: true})
		fallbackLog.Fatal().Err(err).Msg("Failed to load configuration")
	}

	log := logger.New(logger.Config{
		Level:  cfg.LogLevel,
		Pretty: cfg.DevMode,
	})
	logger.SetGlobalLogger(log)

	log.Info().Int("port", cfg.Port).Msg("Starting Hindsight")

	// Scenario persistence
	scenarioDB, err := database.New(database.Config{
		Path: cfg.ScenarioDBPath(),
		Name: "scenarios",
	})
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to open scenario database")
	}
	defer scenarioDB.Close()

	scenarioRepo, err := scenarios.NewRepository(scenarioDB, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize scenario repository")
	}

	// Price series pipeline: upstream client -> provider-owned cache
	yahooClient := yahoo.NewClient(log)
	seriesCache := series.NewCache(series.CacheConfig{
		TTL:      cfg.CacheTTL,
		Capacity: cfg.CacheCapacity,
	}, log)
	seriesProvider := series.NewProvider(yahooClient, seriesCache, log)

	backtestService := backtest.NewService(seriesProvider, log)

	// Maintenance jobs
	sched := scheduler.New(seriesCache, scenarioDB, log)
	if err := sched.Register(cfg.SweepSchedule); err != nil {
		log.Fatal().Err(err).Msg("Failed to register maintenance jobs")
	}
	sched.Start()
	defer sched.Stop()

	srv := server.New(server.Config{
		Log:              log,
		ScenarioDB:       scenarioDB,
		BacktestHandlers: backtesthandlers.NewHandler(backtestService, log),
		ScenarioHandlers: scenariohandlers.NewHandler(scenarioRepo, log),
		Port:             cfg.Port,
		DevMode:          cfg.DevMode,
	})

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Start()
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		log.Fatal().Err(err).Msg("HTTP server failed")
	case sig := <-stop:
		log.Info().Str("signal", sig.String()).Msg("Shutting down")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Error().Err(err).Msg("Graceful shutdown failed")
	}
}
