// Package main provides the report CLI: it recomputes analytics for every
// stored run and writes a Markdown report plus CSV exports into an output
// directory.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/shopspring/decimal"

	"trade-analytics-lab/internal/analytics"
	"trade-analytics-lab/internal/observability"
	"trade-analytics-lab/internal/reporting"
	"trade-analytics-lab/internal/storage"
	"trade-analytics-lab/internal/storage/memory"
	"trade-analytics-lab/internal/storage/migrations"
	pgstore "trade-analytics-lab/internal/storage/postgres"
	"trade-analytics-lab/internal/tradeio"
)

func main() {
	loadEnvFile()

	outputDir := flag.String("output-dir", "reports", "Output directory for generated files")
	initialCapital := flag.String("initial-capital", "10000", "Starting account balance applied to every run")
	topN := flag.Int("top-n", analytics.DefaultTopDrawdowns, "Number of drawdown periods per run")
	tradesCSV := flag.String("trades-csv", "", "CSV file of trades to load (required with --use-memory)")
	postgresDSN := flag.String("postgres-dsn", os.Getenv("POSTGRES_DSN"), "PostgreSQL connection string")
	useMemory := flag.Bool("use-memory", false, "Use in-memory storage instead of PostgreSQL")
	flag.Parse()

	logger := log.New(os.Stderr, "[report] ", log.LstdFlags)

	capital, err := decimal.NewFromString(*initialCapital)
	if err != nil {
		logger.Fatalf("Invalid --initial-capital %q: %v", *initialCapital, err)
	}
	if !*useMemory && *postgresDSN == "" {
		logger.Fatal("--postgres-dsn is required (use --use-memory for in-memory storage)")
	}
	if *useMemory && *tradesCSV == "" {
		logger.Fatal("--trades-csv is required with --use-memory")
	}

	ctx := context.Background()

	var tradeStore storage.TradeStore
	if *useMemory {
		tradeStore = memory.NewTradeStore()
	} else {
		pool, err := pgstore.NewPool(ctx, *postgresDSN)
		if err != nil {
			logger.Fatalf("Failed to connect to postgres: %v", err)
		}
		defer pool.Close()
		if err := migrations.RunPostgresMigrations(ctx, pool); err != nil {
			logger.Fatalf("Failed to run migrations: %v", err)
		}
		tradeStore = pgstore.NewTradeStore(pool)
	}

	if *tradesCSV != "" {
		f, err := os.Open(*tradesCSV)
		if err != nil {
			logger.Fatalf("Failed to open %s: %v", *tradesCSV, err)
		}
		trades, err := tradeio.ReadTrades(f)
		f.Close()
		if err != nil {
			logger.Fatalf("Failed to parse %s: %v", *tradesCSV, err)
		}
		if err := tradeStore.InsertBulk(ctx, trades); err != nil {
			logger.Fatalf("Failed to load trades: %v", err)
		}
		logger.Printf("Loaded %d trades from %s", len(trades), *tradesCSV)
	}

	svc := analytics.NewService(tradeStore, analytics.WithTopDrawdowns(*topN))
	gen := reporting.NewGenerator(tradeStore, svc, capital)

	report, err := gen.Generate(ctx)
	if err != nil {
		logger.Fatalf("Failed to generate report: %v", err)
	}

	if err := writeReportFiles(*outputDir, report); err != nil {
		logger.Fatalf("Failed to write report files: %v", err)
	}
	observability.RecordReportGenerated()

	fmt.Println("Report generated successfully:")
	fmt.Printf("  - %s/REPORT.md\n", *outputDir)
	fmt.Printf("  - %s/RUN_SUMMARY.csv\n", *outputDir)
	for _, d := range report.Details {
		fmt.Printf("  - %s/equity_curve_%s.csv\n", *outputDir, d.RunID)
		fmt.Printf("  - %s/drawdowns_%s.csv\n", *outputDir, d.RunID)
	}
}

// writeReportFiles renders and writes the Markdown report and CSV exports.
func writeReportFiles(dir string, report *reporting.Report) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create output dir: %w", err)
	}

	files := map[string]string{
		"REPORT.md":       reporting.RenderMarkdown(report),
		"RUN_SUMMARY.csv": reporting.RenderRunSummaryCSV(report.Runs),
	}
	for _, d := range report.Details {
		files["equity_curve_"+d.RunID+".csv"] = reporting.RenderEquityCurveCSV(d.Analytics.Curve)
		if d.Analytics.Drawdowns != nil {
			files["drawdowns_"+d.RunID+".csv"] = reporting.RenderDrawdownsCSV(d.Analytics.Drawdowns.Top)
		}
	}

	for name, content := range files {
		path := filepath.Join(dir, name)
		if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
			return fmt.Errorf("write %s: %w", path, err)
		}
	}

	return nil
}

// loadEnvFile loads .env into the environment without overriding existing
// variables.
func loadEnvFile() {
	data, err := os.ReadFile(".env")
	if err != nil {
		return // File doesn't exist, use system env vars
	}

	for _, line := range strings.Split(string(data), "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		parts := strings.SplitN(line, "=", 2)
		if len(parts) != 2 {
			continue
		}

		key := strings.TrimSpace(parts[0])
		value := strings.TrimSpace(parts[1])

		if os.Getenv(key) == "" {
			os.Setenv(key, value)
		}
	}
}
