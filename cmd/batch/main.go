// Batch runner for the Harrier fraud review pipeline.
//
// Usage:
//   go run cmd/batch/main.go -count 100
//   go run cmd/batch/main.go -csv /path/to/transfers.csv
//
// This tool:
//  1. Seeds a local database with synthetic customer data (or uses an
//     existing one)
//  2. Generates synthetic transfers, or loads them from a CSV export
//  3. Runs every transfer through the full review pipeline
//  4. Prints per-transfer outcomes and batch statistics
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/opensource-finance/harrier/internal/classifier"
	"github.com/opensource-finance/harrier/internal/domain"
	"github.com/opensource-finance/harrier/internal/ingest"
	"github.com/opensource-finance/harrier/internal/investigator"
	"github.com/opensource-finance/harrier/internal/oracle"
	"github.com/opensource-finance/harrier/internal/pipeline"
	"github.com/opensource-finance/harrier/internal/repository"
	"github.com/opensource-finance/harrier/internal/reviewer"
	"github.com/opensource-finance/harrier/internal/screening"
)

func main() {
	count := flag.Int("count", 100, "Number of synthetic transfers to generate")
	customers := flag.Int("customers", 50, "Number of synthetic customers to seed")
	seed := flag.Int64("seed", 42, "Random seed for synthetic data")
	dbPath := flag.String("db", "./harrier-batch.db", "SQLite database path")
	csvPath := flag.String("csv", "", "Load transfers from CSV instead of generating")
	oracleURL := flag.String("oracle-url", os.Getenv("HARRIER_ORACLE_URL"), "OpenAI-compatible oracle endpoint (empty = deterministic fallback)")
	oracleModel := flag.String("oracle-model", "llama-3.2-3b-instruct", "Oracle model name")
	verbose := flag.Bool("verbose", false, "Print each transfer result")
	flag.Parse()

	logLevel := slog.LevelWarn
	if os.Getenv("HARRIER_DEBUG") == "true" {
		logLevel = slog.LevelDebug
	}
	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: logLevel}))
	slog.SetDefault(logger)

	ctx := context.Background()

	fmt.Println("╔═══════════════════════════════════════════════════════════════╗")
	fmt.Println("║            HARRIER BATCH - Fraud Review Pipeline              ║")
	fmt.Println("╚═══════════════════════════════════════════════════════════════╝")
	fmt.Printf("\nDatabase:  %s\n", *dbPath)
	if *csvPath != "" {
		fmt.Printf("Input:     %s\n", *csvPath)
	} else {
		fmt.Printf("Input:     %d synthetic transfers (seed %d)\n", *count, *seed)
	}
	if *oracleURL != "" {
		fmt.Printf("Oracle:    %s\n", *oracleURL)
	} else {
		fmt.Println("Oracle:    deterministic fallback")
	}
	fmt.Println()

	repo, err := repository.New(domain.RepositoryConfig{
		Driver:     "sqlite",
		SQLitePath: *dbPath,
	})
	if err != nil {
		fmt.Printf("ERROR: failed to open database: %v\n", err)
		os.Exit(1)
	}
	defer repo.Close()

	gen := ingest.NewGenerator(*seed)
	seedAuxiliaryData(ctx, repo, gen, *customers)

	var transfers []*domain.Transfer
	if *csvPath != "" {
		transfers, err = loadCSV(*csvPath)
		if err != nil {
			fmt.Printf("ERROR: failed to load CSV: %v\n", err)
			os.Exit(1)
		}
	} else {
		transfers = gen.Transfers(*count, *customers)
	}
	fmt.Printf("✓ Loaded %d transfers\n", len(transfers))

	var backend domain.TextOracle
	if *oracleURL != "" {
		backend = oracle.NewLLMClient(domain.OracleConfig{
			BaseURL:        *oracleURL,
			Model:          *oracleModel,
			APIKey:         os.Getenv("HARRIER_ORACLE_KEY"),
			TimeoutSeconds: 60,
		})
	}
	textOracle := oracle.NewResilient(backend)

	engine, err := screening.NewEngine()
	if err != nil {
		fmt.Printf("ERROR: failed to create screening engine: %v\n", err)
		os.Exit(1)
	}
	if err := engine.LoadRules(screening.DefaultRules()); err != nil {
		fmt.Printf("ERROR: failed to load screening rules: %v\n", err)
		os.Exit(1)
	}

	p := pipeline.New(
		classifier.New(textOracle),
		reviewer.New(textOracle),
		investigator.New(textOracle, repo),
		pipeline.Options{
			Screening:  engine,
			Repository: repo,
			Logger:     logger,
		},
	)

	fmt.Println("\nProcessing...")
	start := time.Now()
	results := p.Run(ctx, transfers)
	duration := time.Since(start)

	if *verbose {
		printResults(results)
	}
	printStatistics(pipeline.Statistics(results), duration)
}

// seedAuxiliaryData writes synthetic profiles, logins, and devices so
// investigations have data to cross-reference. Re-seeding an existing
// database overwrites profiles and devices and appends logins.
func seedAuxiliaryData(ctx context.Context, repo domain.Repository, gen *ingest.Generator, customers int) {
	profiles := gen.Profiles(customers)
	for _, p := range profiles {
		if err := repo.SaveProfile(ctx, p); err != nil {
			slog.Warn("failed to seed profile", "customer_id", p.CustomerID, "error", err)
		}
	}

	logins := gen.Logins(customers)
	for _, l := range logins {
		if err := repo.SaveLogin(ctx, l); err != nil {
			slog.Warn("failed to seed login", "customer_id", l.CustomerID, "error", err)
		}
	}

	devices := gen.Devices(customers)
	for _, d := range devices {
		if err := repo.SaveDevice(ctx, d); err != nil {
			slog.Warn("failed to seed device", "customer_id", d.CustomerID, "error", err)
		}
	}

	fmt.Printf("✓ Seeded %d profiles, %d logins, %d devices\n", len(profiles), len(logins), len(devices))
}

func loadCSV(path string) ([]*domain.Transfer, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()
	return ingest.ReadTransfers(file)
}

func printResults(results []*domain.Result) {
	fmt.Println()
	for _, r := range results {
		if r.Err != "" {
			fmt.Printf("✗ %-14s | ERROR: %s\n", r.Transfer.ID, r.Err)
			continue
		}

		category := ""
		if r.Classification != nil {
			category = string(r.Classification.Category)
		}
		action := ""
		caseID := "-"
		if r.Review != nil {
			action = string(r.Review.Action)
			if r.Review.CaseID != "" {
				caseID = r.Review.CaseID
			}
		}
		status := "-"
		if r.Investigation != nil {
			status = string(r.Investigation.CaseStatus)
		}

		fmt.Printf("  %-14s | %10.2f %s | ML %.3f | %-11s | %-20s | %-13s | %s\n",
			r.Transfer.ID,
			r.Transfer.Amount, r.Transfer.Currency,
			r.Transfer.MLScore,
			category,
			action,
			caseID,
			status,
		)
	}
}

func printStatistics(stats domain.BatchStatistics, duration time.Duration) {
	fmt.Println("\n╔═══════════════════════════════════════════════════════════════╗")
	fmt.Println("║                       BATCH STATISTICS                        ║")
	fmt.Println("╚═══════════════════════════════════════════════════════════════╝")
	fmt.Printf("\n   Total Processed:  %d\n", stats.Total)
	fmt.Printf("   Flagged:          %d\n", stats.Flagged)
	fmt.Printf("   Investigate:      %d\n", stats.Investigate)
	fmt.Printf("   Non-Fraud:        %d\n", stats.NonFraud)
	fmt.Printf("   Cases Created:    %d\n", stats.CasesCreated)
	fmt.Printf("   Confirmed Fraud:  %d\n", stats.ConfirmedFraud)
	fmt.Printf("   Avg ML Score:     %.3f\n", stats.AvgMLScore)
	fmt.Printf("\n   Duration:         %v\n", duration.Round(time.Millisecond))
	if stats.Total > 0 && duration > 0 {
		fmt.Printf("   Throughput:       %.2f transfers/sec\n", float64(stats.Total)/duration.Seconds())
	}
	fmt.Println()
}
