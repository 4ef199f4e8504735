// Harrier - Wire transfer fraud review pipeline.
// Copyright (c) 2025 opensource.finance
// Licensed under the Apache License 2.0

package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/opensource-finance/harrier/internal/api"
	"github.com/opensource-finance/harrier/internal/bus"
	"github.com/opensource-finance/harrier/internal/cache"
	"github.com/opensource-finance/harrier/internal/classifier"
	"github.com/opensource-finance/harrier/internal/domain"
	"github.com/opensource-finance/harrier/internal/investigator"
	"github.com/opensource-finance/harrier/internal/oracle"
	"github.com/opensource-finance/harrier/internal/pipeline"
	"github.com/opensource-finance/harrier/internal/repository"
	"github.com/opensource-finance/harrier/internal/reviewer"
	"github.com/opensource-finance/harrier/internal/screening"
	"github.com/opensource-finance/harrier/internal/worker"
)

// Version information (set via ldflags)
var (
	Version   = "dev"
	Commit    = "none"
	BuildDate = "unknown"
)

func main() {
	// Initialize structured logger
	logLevel := slog.LevelInfo
	if os.Getenv("HARRIER_DEBUG") == "true" {
		logLevel = slog.LevelDebug
	}
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: logLevel,
	}))
	slog.SetDefault(logger)

	// Log startup
	slog.Info("starting harrier",
		"version", Version,
		"commit", Commit,
		"build_date", BuildDate,
	)

	// Load configuration
	cfg := domain.DefaultConfig()
	if os.Getenv("HARRIER_MODE") == "cluster" {
		cfg = domain.ClusterConfig()
		slog.Info("running in cluster mode")
	}
	applyEnvOverrides(cfg)

	slog.Info("configuration loaded",
		"repository", cfg.Repository.Driver,
		"cache", cfg.Cache.Type,
		"eventbus", cfg.EventBus.Type,
		"oracle", cfg.Oracle.BaseURL,
	)

	// Create context with cancellation
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Handle shutdown signals
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		sig := <-sigCh
		slog.Info("received shutdown signal", "signal", sig)
		cancel()
	}()

	// Initialize Repository
	repo, err := repository.New(cfg.Repository)
	if err != nil {
		slog.Error("failed to initialize repository", "error", err)
		os.Exit(1)
	}
	defer repo.Close()
	slog.Info("repository initialized", "driver", cfg.Repository.Driver)

	// Initialize Cache
	cacheImpl, err := cache.New(cfg.Cache)
	if err != nil {
		slog.Error("failed to initialize cache", "error", err)
		os.Exit(1)
	}
	defer cacheImpl.Close()
	slog.Info("cache initialized", "type", cfg.Cache.Type)

	// Initialize EventBus
	busImpl, err := bus.New(cfg.EventBus)
	if err != nil {
		slog.Error("failed to initialize event bus", "error", err)
		os.Exit(1)
	}
	defer busImpl.Close()
	slog.Info("event bus initialized", "type", cfg.EventBus.Type)

	// Initialize Oracle. With HARRIER_ORACLE_DISABLED=true the pipeline
	// runs on deterministic fallback responses only.
	var backend domain.TextOracle
	if os.Getenv("HARRIER_ORACLE_DISABLED") != "true" {
		backend = oracle.NewLLMClient(cfg.Oracle)
	}
	textOracle := oracle.NewResilient(backend)
	slog.Info("oracle initialized", "fallback_only", backend == nil)

	// Initialize Screening Engine
	engine, err := screening.NewEngine()
	if err != nil {
		slog.Error("failed to initialize screening engine", "error", err)
		os.Exit(1)
	}
	if err := loadScreeningRules(ctx, repo, engine); err != nil {
		slog.Error("failed to load screening rules", "error", err)
		os.Exit(1)
	}
	slog.Info("screening engine initialized", "rules_count", engine.RulesCount())

	// Wire the review stages. The investigator reads auxiliary customer
	// data through the cache.
	store := cache.NewCachedStore(repo, cacheImpl, cfg.Cache.LocalTTL)
	cls := classifier.New(textOracle)
	rev := reviewer.New(textOracle)
	inv := investigator.New(textOracle, store)

	p := pipeline.New(cls, rev, inv, pipeline.Options{
		Screening:  engine,
		Repository: repo,
		EventBus:   busImpl,
		Logger:     logger,
	})

	// Initialize async Worker
	var asyncWorker *worker.Worker
	if os.Getenv("HARRIER_ASYNC_WORKER") == "true" {
		asyncWorker = worker.NewWorker(busImpl, p)
		if err := asyncWorker.Start(); err != nil {
			slog.Error("failed to start async worker", "error", err)
		} else {
			slog.Info("async worker started")
		}
	}

	// Initialize Server
	srv := api.NewServer(cfg.Server, repo, cacheImpl, busImpl, engine, p, Version)

	// Start Server in goroutine
	go func() {
		if err := srv.Start(); err != nil && err != http.ErrServerClosed {
			slog.Error("server failed", "error", err)
			os.Exit(1)
		}
	}()

	slog.Info("harrier is ready",
		"host", cfg.Server.Host,
		"port", cfg.Server.Port,
	)

	printBanner(cfg, Version)

	// Wait for shutdown signal
	<-ctx.Done()
	slog.Info("shutting down...")

	// Stop async worker first
	if asyncWorker != nil {
		if err := asyncWorker.Stop(); err != nil {
			slog.Error("failed to stop async worker", "error", err)
		}
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("server forced to shutdown", "error", err)
	}

	slog.Info("harrier shutdown complete")
}

// applyEnvOverrides applies HARRIER_* environment overrides on top of
// the selected base configuration.
func applyEnvOverrides(cfg *domain.Config) {
	if v := os.Getenv("HARRIER_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.Server.Port = port
		}
	}
	if v := os.Getenv("HARRIER_DB_PATH"); v != "" {
		cfg.Repository.SQLitePath = v
	}
	if v := os.Getenv("HARRIER_POSTGRES_HOST"); v != "" {
		cfg.Repository.PostgresHost = v
	}
	if v := os.Getenv("HARRIER_POSTGRES_USER"); v != "" {
		cfg.Repository.PostgresUser = v
	}
	if v := os.Getenv("HARRIER_POSTGRES_PASSWORD"); v != "" {
		cfg.Repository.PostgresPassword = v
	}
	if v := os.Getenv("HARRIER_REDIS_ADDR"); v != "" {
		cfg.Cache.RedisAddr = v
	}
	if v := os.Getenv("HARRIER_NATS_URL"); v != "" {
		cfg.EventBus.NATSUrl = v
	}
	if v := os.Getenv("HARRIER_ORACLE_URL"); v != "" {
		cfg.Oracle.BaseURL = v
	}
	if v := os.Getenv("HARRIER_ORACLE_MODEL"); v != "" {
		cfg.Oracle.Model = v
	}
	if v := os.Getenv("HARRIER_ORACLE_KEY"); v != "" {
		cfg.Oracle.APIKey = v
	}
}

// loadScreeningRules loads rules from the database into the engine. A
// fresh database is seeded with the built-in defaults; after that the
// database is the single source of truth.
func loadScreeningRules(ctx context.Context, repo domain.Repository, engine *screening.Engine) error {
	dbRules, err := repo.ListScreeningRules(ctx)
	if err != nil {
		slog.Warn("failed to list screening rules from database", "error", err)
		return nil // Start with empty rules - they can be added via API
	}

	if len(dbRules) == 0 {
		defaults := screening.DefaultRules()
		slog.Info("seeding default screening rules", "count", len(defaults))
		for _, rule := range defaults {
			if err := repo.SaveScreeningRule(ctx, rule); err != nil {
				slog.Warn("failed to seed screening rule", "id", rule.ID, "error", err)
			}
		}
		dbRules = defaults
	}

	return engine.LoadRules(dbRules)
}

func printBanner(cfg *domain.Config, version string) {
	fmt.Println()
	fmt.Println("  ╔═══════════════════════════════════════════╗")
	fmt.Println("  ║               🦅 HARRIER                  ║")
	fmt.Println("  ║      Fraud Review Pipeline Engine         ║")
	fmt.Println("  ║      Every wire, every verdict.           ║")
	fmt.Println("  ╚═══════════════════════════════════════════╝")
	fmt.Println()
	fmt.Printf("  Version:  %s\n", version)
	fmt.Printf("  Server:   http://%s:%d\n", cfg.Server.Host, cfg.Server.Port)
	fmt.Println()
	fmt.Println("  Endpoints:")
	fmt.Println("    POST /transfers       - Review a single transfer")
	fmt.Println("    POST /batch           - Review a batch of transfers")
	fmt.Println("    GET  /transfers/{id}  - Get transfer by ID")
	fmt.Println("    GET  /results/{id}    - Get review result by transfer ID")
	fmt.Println("    GET  /rules           - List screening rules")
	fmt.Println("    POST /rules           - Create a screening rule")
	fmt.Println("    POST /rules/reload    - Hot-reload rules from database")
	fmt.Println("    GET  /health          - Health check")
	fmt.Println()
}
