// Package main provides the analyze CLI: it loads the trades of one run,
// computes the full analytics view (per-trade P&L, equity curve, drawdowns,
// statistics) and prints it as text or JSON, optionally materializing the
// derived rows into ClickHouse.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"trade-analytics-lab/internal/analytics"
	"trade-analytics-lab/internal/domain"
	"trade-analytics-lab/internal/observability"
	"trade-analytics-lab/internal/storage"
	chstore "trade-analytics-lab/internal/storage/clickhouse"
	"trade-analytics-lab/internal/storage/memory"
	"trade-analytics-lab/internal/storage/migrations"
	pgstore "trade-analytics-lab/internal/storage/postgres"
	"trade-analytics-lab/internal/tradeio"
)

func main() {
	loadEnvFile()

	runID := flag.String("run-id", "", "Backtest run to analyze")
	initialCapital := flag.String("initial-capital", "10000", "Starting account balance")
	topN := flag.Int("top-n", analytics.DefaultTopDrawdowns, "Number of drawdown periods to report")
	tradesCSV := flag.String("trades-csv", "", "CSV file of trades to ingest before analyzing")
	postgresDSN := flag.String("postgres-dsn", os.Getenv("POSTGRES_DSN"), "PostgreSQL connection string")
	clickhouseDSN := flag.String("clickhouse-dsn", os.Getenv("CLICKHOUSE_DSN"), "ClickHouse connection string")
	useMemory := flag.Bool("use-memory", false, "Use in-memory storage instead of PostgreSQL")
	jsonOut := flag.Bool("json", false, "Emit the full analytics view as JSON")
	persist := flag.Bool("persist", false, "Materialize the equity curve and statistics into ClickHouse")
	flag.Parse()

	logger := log.New(os.Stderr, "[analyze] ", log.LstdFlags)

	if *runID == "" {
		logger.Fatal("--run-id is required")
	}
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
	if *persist && *clickhouseDSN == "" {
		logger.Fatal("--clickhouse-dsn is required with --persist")
	}

	ctx := context.Background()

	tradeStore, opts, cleanup, err := createStores(ctx, *postgresDSN, *clickhouseDSN, *useMemory, *persist)
	if err != nil {
		logger.Fatalf("Failed to create stores: %v", err)
	}
	defer cleanup()

	if *tradesCSV != "" {
		n, err := ingestCSV(ctx, tradeStore, *tradesCSV)
		if err != nil {
			logger.Fatalf("Failed to ingest %s: %v", *tradesCSV, err)
		}
		logger.Printf("Ingested %d trades from %s", n, *tradesCSV)
	}

	opts = append(opts, analytics.WithTopDrawdowns(*topN))
	svc := analytics.NewService(tradeStore, opts...)

	start := time.Now()
	var ra *domain.RunAnalytics
	if *persist {
		ra, err = svc.ComputeAndStore(ctx, *runID, capital)
	} else {
		ra, err = svc.ComputeRun(ctx, *runID, capital)
	}
	if err != nil {
		observability.RecordAnalyticsRun("error", time.Since(start).Seconds(), 0)
		logger.Fatalf("Analytics failed for run %s: %v", *runID, err)
	}
	observability.RecordAnalyticsRun("ok", time.Since(start).Seconds(), ra.Statistics.TotalTrades)

	if *jsonOut {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(ra); err != nil {
			logger.Fatalf("Failed to encode analytics: %v", err)
		}
		return
	}

	printSummary(ra)
}

// createStores wires trade storage plus optional materialization stores.
func createStores(ctx context.Context, postgresDSN, clickhouseDSN string, useMemory, persist bool) (
	storage.TradeStore,
	[]analytics.Option,
	func(),
	error,
) {
	if useMemory {
		var opts []analytics.Option
		if persist {
			opts = append(opts, analytics.WithMaterialization(
				memory.NewEquityCurveStore(), memory.NewStatisticsStore()))
		}
		return memory.NewTradeStore(), opts, func() {}, nil
	}

	pool, err := pgstore.NewPool(ctx, postgresDSN)
	if err != nil {
		return nil, nil, nil, err
	}
	if err := migrations.RunPostgresMigrations(ctx, pool); err != nil {
		pool.Close()
		return nil, nil, nil, err
	}

	cleanup := func() { pool.Close() }
	var opts []analytics.Option

	if persist {
		conn, err := migrations.RunClickhouseMigrations(ctx, clickhouseDSN)
		if err != nil {
			pool.Close()
			return nil, nil, nil, err
		}
		opts = append(opts, analytics.WithMaterialization(
			chstore.NewEquityCurveStore(conn), chstore.NewStatisticsStore(conn)))
		cleanup = func() {
			conn.Close()
			pool.Close()
		}
	}

	return pgstore.NewTradeStore(pool), opts, cleanup, nil
}

// ingestCSV loads trades from a CSV file into the store. Re-running over the
// same file is fine: duplicates are skipped, not fatal.
func ingestCSV(ctx context.Context, store storage.TradeStore, path string) (int, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, err
	}
	defer f.Close()

	trades, err := tradeio.ReadTrades(f)
	if err != nil {
		observability.RecordIngestError("parse")
		return 0, err
	}

	inserted := 0
	for _, t := range trades {
		err := store.Insert(ctx, t)
		if errors.Is(err, storage.ErrDuplicateKey) {
			continue
		}
		if err != nil {
			observability.RecordIngestError("insert")
			return inserted, fmt.Errorf("insert trade %s: %w", t.ID, err)
		}
		inserted++
	}
	observability.RecordTradesIngested(inserted)

	return inserted, nil
}

// printSummary renders a human-readable analytics summary to stdout.
func printSummary(ra *domain.RunAnalytics) {
	stats := ra.Statistics

	fmt.Printf("Run %s (initial capital %s)\n\n", ra.RunID, ra.InitialCapital.StringFixed(2))

	fmt.Printf("Trades:     %d closed (%d wins, %d losses, %d breakeven)\n",
		stats.TotalTrades, stats.WinningTrades, stats.LosingTrades, stats.BreakevenTrades)
	fmt.Printf("Win rate:   %s%%\n", stats.WinRate.StringFixed(2))
	fmt.Printf("Net P&L:    %s (gross +%s / -%s)\n",
		stats.NetProfit.StringFixed(2), stats.GrossProfit.StringFixed(2), stats.GrossLoss.StringFixed(2))
	fmt.Printf("Profit factor: %s\n", fmtOpt(stats.ProfitFactor, 4))
	fmt.Printf("Expectancy:    %s per trade\n", fmtOpt(stats.Expectancy, 2))
	fmt.Printf("Streaks:       %d consecutive wins, %d consecutive losses\n",
		stats.MaxConsecutiveWins, stats.MaxConsecutiveLosses)
	if h := stats.AvgHoldingPeriodHours(); h != nil {
		fmt.Printf("Avg holding:   %s hours\n", h.StringFixed(2))
	}

	last := ra.Curve[len(ra.Curve)-1]
	fmt.Printf("\nFinal balance: %s (%s%% return, %d curve points)\n",
		last.Balance.StringFixed(2), last.CumulativeReturnPct.StringFixed(2), len(ra.Curve))

	dd := ra.Drawdowns
	if dd == nil || dd.Max == nil {
		fmt.Println("Drawdowns:     none")
		return
	}
	fmt.Printf("Max drawdown:  %s (%s%%) over %s\n",
		dd.Max.DrawdownAmount.StringFixed(2), dd.Max.DrawdownPct.StringFixed(2), dd.Max.Duration)
	if dd.Current != nil {
		fmt.Printf("Current drawdown: %s%% (ongoing since %s)\n",
			dd.Current.DrawdownPct.StringFixed(2), dd.Current.PeakTime.Format(time.RFC3339))
	}
	fmt.Printf("Periods:       %d total\n", dd.TotalPeriods)
}

func fmtOpt(d *decimal.Decimal, places int32) string {
	if d == nil {
		return "n/a"
	}
	return d.StringFixed(places)
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
