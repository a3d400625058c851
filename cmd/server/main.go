// Package main is the entry point for the bondpricer service. It exposes
// bond valuation and yield-to-maturity endpoints over HTTP, keeps a small
// book of bond definitions in SQLite, and revalues the book on a cron
// schedule.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/aristath/bondpricer/internal/config"
	"github.com/aristath/bondpricer/internal/database"
	"github.com/aristath/bondpricer/internal/modules/bonds"
	bondhandlers "github.com/aristath/bondpricer/internal/modules/bonds/handlers"
	"github.com/aristath/bondpricer/internal/scheduler"
	"github.com/aristath/bondpricer/internal/server"
	"github.com/aristath/bondpricer/pkg/logger"
)

func main() {
	// Load configuration first to get the log level
	cfg, err := config.Load()
	if err != nil {
		fallbackLog := logger.New(logger.Config{Level: "info", Pretty: true})
		fallbackLog.Fatal().Err(err).Msg("Failed to load configuration")
	}

	log := logger.New(logger.Config{
		Level:  cfg.LogLevel,
		Pretty: true,
	})

	log.Info().Msg("Starting bondpricer")

	// Two-database layout: bond definitions and append-only valuation
	// history are kept apart so the history can grow without touching the
	// book.
	bondsDB, err := database.New(database.Config{
		Path:    cfg.DatabasePath("bonds.db"),
		Profile: database.ProfileStandard,
		Name:    "bonds",
	})
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to open bonds database")
	}
	defer bondsDB.Close()

	historyDB, err := database.New(database.Config{
		Path:    cfg.DatabasePath("history.db"),
		Profile: database.ProfileHistory,
		Name:    "history",
	})
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to open history database")
	}
	defer historyDB.Close()

	// Repositories and service
	bondRepo := bonds.NewBondRepository(bondsDB.Conn(), log)
	if err := bondRepo.InitSchema(); err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize bonds schema")
	}

	valuationRepo := bonds.NewValuationRepository(historyDB.Conn(), log)
	if err := valuationRepo.InitSchema(); err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize valuations schema")
	}

	bondService := bonds.NewService(bondRepo, valuationRepo, log)

	// Background revaluation job
	sched := scheduler.New(log)
	if err := sched.AddJob(cfg.RevalueSchedule, bonds.NewRevalueJob(bondService, cfg.RetentionDays, log)); err != nil {
		log.Fatal().Err(err).Msg("Failed to register revaluation job")
	}
	sched.Start()
	defer sched.Stop()

	// HTTP server
	srv := server.New(server.Config{
		Port:         cfg.Port,
		Log:          log,
		BondsDB:      bondsDB,
		HistoryDB:    historyDB,
		Config:       cfg,
		DevMode:      cfg.DevMode,
		BondHandlers: bondhandlers.NewHandler(bondService, bondRepo, valuationRepo, log),
	})

	go func() {
		if err := srv.Start(); err != nil {
			log.Fatal().Err(err).Msg("Failed to start server")
		}
	}()

	log.Info().Int("port", cfg.Port).Msg("Server started successfully")

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
	}

	log.Info().Msg("Server stopped")
}
