package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	corecfg "github.com/beacon-lab/project-beacon/internal/core/config"
	"github.com/beacon-lab/project-beacon/internal/core/storage/postgres"
	"github.com/beacon-lab/project-beacon/internal/ingestion"
	"github.com/beacon-lab/project-beacon/internal/migrations"
	"github.com/beacon-lab/project-beacon/internal/notify"
	"github.com/beacon-lab/project-beacon/internal/reporting"
	"github.com/beacon-lab/project-beacon/internal/rules"
	"github.com/beacon-lab/project-beacon/internal/server"
	"github.com/beacon-lab/project-beacon/internal/validation"
)

func main() {
	configPath := flag.String("config", "beacon.yaml", "Path to configuration file")
	flag.Parse()

	// 0. Initialize Logger
	logger := slog.New(slog.NewTextHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	// 1. Load Configuration
	cfg, err := corecfg.Load(*configPath)
	if err != nil {
		slog.Error("Failed to load config", "error", err)
		os.Exit(1)
	}
	slog.Info("Loaded config", "config", cfg)

	ingestTimeout, err := cfg.Ingest.IngestTimeout()
	if err != nil {
		slog.Error("Invalid ingest timeout", "value", cfg.Ingest.Timeout, "error", err)
		os.Exit(1)
	}
	refreshEvery, err := cfg.Reporting.RefreshEvery()
	if err != nil {
		slog.Error("Invalid refresh interval", "value", cfg.Reporting.RefreshInterval, "error", err)
		os.Exit(1)
	}

	// 2. Initialize Storage (PostgreSQL)
	dbAdapter, err := postgres.NewAdapter(
		cfg.Database.DSN,
		cfg.Database.MaxOpenConns,
		cfg.Database.MaxIdleConns,
	)
	if err != nil {
		slog.Error("Failed to initialize database", "error", err)
		os.Exit(1)
	}
	defer dbAdapter.Close()

	// 2.1. Run Database Migrations
	if err := migrations.RunMigrations(dbAdapter.DB(), cfg.Database.AutoMigrate); err != nil {
		slog.Error("Failed to run database migrations", "error", err)
		os.Exit(1)
	}

	// 3. Initialize Rule Store
	var ruleRepo rules.Repository
	switch cfg.Rules.SourceType {
	case "filesystem":
		ruleRepo, err = rules.NewFileSystemRepository(cfg.Rules.Path)
		if err != nil {
			slog.Error("Failed to load rule files", "path", cfg.Rules.Path, "error", err)
			os.Exit(1)
		}
	default:
		ruleRepo = postgres.NewRulesAdapter(dbAdapter.DB())
	}

	// 4. Initialize Pipeline Services
	hub := notify.NewHub(64)
	validator := validation.NewEventValidator(ruleRepo)
	ingestionSvc := ingestion.NewService(validator, dbAdapter, hub, cfg.Ingest.MaxBodySizeMB, ingestTimeout)
	reportingSvc := reporting.NewService(ruleRepo, dbAdapter,
		cfg.Reporting.DefaultWindowHours, cfg.Reporting.MaxPageSize)

	// 5. Initialize Server
	srv := server.New(fmtAddr(cfg.Server.Host, cfg.Server.Port), dbAdapter.DB(), cfg.Server.Mode)
	ingestionSvc.RegisterRoutes(srv.Engine)
	reportingSvc.RegisterRoutes(srv.Engine)

	// 6. Start Services
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Periodic coverage refresh / retention sweep, if configured.
	if refreshEvery > 0 {
		refresher := reporting.NewRefresher(reportingSvc, refreshEvery,
			cfg.Reporting.RefreshApps, cfg.Reporting.RetentionDays)
		go func() {
			if err := refresher.Start(ctx); err != nil {
				slog.Error("Refresher stopped with error", "error", err)
			}
		}()
	} else {
		slog.Info("Coverage refresher disabled by config")
	}

	// Signal handler triggers the shutdown sequence below.
	go func() {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
		<-quit
		slog.Info("Signal received, shutting down...")
		cancel()
	}()

	// HTTP server blocks until ctx is cancelled.
	if err := srv.Run(ctx); err != nil {
		slog.Error("Server stopped with error", "error", err)
	}

	slog.Info("Shutdown complete")
}

func fmtAddr(host string, port int) string {
	return fmt.Sprintf("%s:%d", host, port)
}
