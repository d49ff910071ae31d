// Package main provides the analytics HTTP server: it serves run analytics
// computed on demand from stored trades, plus health and Prometheus metrics
// endpoints.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/shopspring/decimal"

	"trade-analytics-lab/internal/analytics"
	"trade-analytics-lab/internal/domain"
	"trade-analytics-lab/internal/observability"
	"trade-analytics-lab/internal/storage"
	"trade-analytics-lab/internal/storage/memory"
	"trade-analytics-lab/internal/storage/migrations"
	pgstore "trade-analytics-lab/internal/storage/postgres"
	"trade-analytics-lab/internal/tradeio"
)

// Server serves run analytics over HTTP.
type Server struct {
	tradeStore     storage.TradeStore
	svc            *analytics.Service
	initialCapital decimal.Decimal
	logger         *log.Logger
}

func main() {
	loadEnvFile()

	addr := flag.String("addr", ":8080", "HTTP listen address")
	initialCapital := flag.String("initial-capital", "10000", "Default starting balance for analytics")
	topN := flag.Int("top-n", analytics.DefaultTopDrawdowns, "Number of drawdown periods to report")
	tradesCSV := flag.String("trades-csv", "", "CSV file of trades to load at startup (required with --use-memory)")
	postgresDSN := flag.String("postgres-dsn", os.Getenv("POSTGRES_DSN"), "PostgreSQL connection string")
	useMemory := flag.Bool("use-memory", false, "Use in-memory storage instead of PostgreSQL")
	flag.Parse()

	logger := log.New(os.Stderr, "[server] ", log.LstdFlags)

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

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

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

	server := &Server{
		tradeStore:     tradeStore,
		svc:            analytics.NewService(tradeStore, analytics.WithTopDrawdowns(*topN)),
		initialCapital: capital,
		logger:         logger,
	}

	httpServer := &http.Server{
		Addr:              *addr,
		Handler:           server.routes(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Printf("Listening on %s", *addr)
		errCh <- httpServer.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatalf("HTTP server error: %v", err)
		}
	case <-ctx.Done():
		logger.Println("Shutting down...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			logger.Printf("Shutdown error: %v", err)
		}
	}

	logger.Println("Shutdown complete")
}

// routes builds the HTTP mux.
func (s *Server) routes() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})
	mux.Handle("GET /metrics", observability.Handler())

	mux.HandleFunc("GET /runs", s.instrument("runs", s.handleListRuns))
	mux.HandleFunc("GET /runs/{id}/analytics", s.instrument("analytics", s.handleRunAnalytics))
	mux.HandleFunc("GET /runs/{id}/equity-curve", s.instrument("equity-curve", s.handleEquityCurve))
	mux.HandleFunc("GET /runs/{id}/statistics", s.instrument("statistics", s.handleStatistics))

	return mux
}

// statusRecorder captures the response status for metrics.
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

// instrument wraps a handler with request duration metrics.
func (s *Server) instrument(route string, h http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		h(rec, r)
		observability.RecordHTTPRequest(route, strconv.Itoa(rec.status), time.Since(start).Seconds())
	}
}

// handleListRuns returns the stored run identifiers.
func (s *Server) handleListRuns(w http.ResponseWriter, r *http.Request) {
	runs, err := s.tradeStore.ListRunIDs(r.Context())
	if err != nil {
		s.serverError(w, "list runs", err)
		return
	}
	if runs == nil {
		runs = []string{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"runs": runs})
}

// handleRunAnalytics returns the full analytics view for one run.
func (s *Server) handleRunAnalytics(w http.ResponseWriter, r *http.Request) {
	ra, err := s.computeRun(r)
	if err != nil {
		s.analyticsError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, ra)
}

// handleEquityCurve returns just the equity curve for one run.
func (s *Server) handleEquityCurve(w http.ResponseWriter, r *http.Request) {
	ra, err := s.computeRun(r)
	if err != nil {
		s.analyticsError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"run_id": ra.RunID,
		"curve":  ra.Curve,
	})
}

// handleStatistics returns just the aggregate statistics for one run.
func (s *Server) handleStatistics(w http.ResponseWriter, r *http.Request) {
	ra, err := s.computeRun(r)
	if err != nil {
		s.analyticsError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"run_id":     ra.RunID,
		"statistics": ra.Statistics,
	})
}

// computeRun derives analytics for the run in the request path. The default
// initial capital can be overridden per request with ?initial_capital=.
func (s *Server) computeRun(r *http.Request) (*domain.RunAnalytics, error) {
	capital := s.initialCapital
	if q := r.URL.Query().Get("initial_capital"); q != "" {
		c, err := decimal.NewFromString(q)
		if err != nil {
			return nil, fmt.Errorf("%w: initial_capital %q", errBadRequest, q)
		}
		capital = c
	}

	return s.svc.ComputeRun(r.Context(), r.PathValue("id"), capital)
}

var errBadRequest = errors.New("bad request")

// analyticsError maps computation failures to HTTP statuses.
func (s *Server) analyticsError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, errBadRequest), errors.Is(err, analytics.ErrInvalidCapital):
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
	case errors.Is(err, storage.ErrNotFound):
		writeJSON(w, http.StatusNotFound, map[string]string{"error": err.Error()})
	default:
		s.serverError(w, r.URL.Path, err)
	}
}

func (s *Server) serverError(w http.ResponseWriter, op string, err error) {
	s.logger.Printf("%s: %v", op, err)
	writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal error"})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
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
