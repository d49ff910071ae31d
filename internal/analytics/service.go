package analytics

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"trade-analytics-lab/internal/domain"
	"trade-analytics-lab/internal/storage"
)

// Service ties the pure computations to storage: it loads the trades of a
// run, derives the full analytics view, and optionally materializes the
// derived rows for the serving layer. The stored rows are a cache; the
// computation never reads them back.
type Service struct {
	trades storage.TradeStore
	curves storage.EquityCurveStore
	stats  storage.StatisticsStore

	topDrawdowns int
	now          func() time.Time
}

// Option configures a Service.
type Option func(*Service)

// WithClock overrides the time source, for deterministic tests.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		s.now = now
	}
}

// WithMaterialization attaches stores for derived data. Without them the
// service computes on the fly and persists nothing.
func WithMaterialization(curves storage.EquityCurveStore, stats storage.StatisticsStore) Option {
	return func(s *Service) {
		s.curves = curves
		s.stats = stats
	}
}

// WithTopDrawdowns sets the ranking depth for the drawdown report.
func WithTopDrawdowns(n int) Option {
	return func(s *Service) {
		s.topDrawdowns = n
	}
}

// NewService creates an analytics service over a trade store.
func NewService(trades storage.TradeStore, opts ...Option) *Service {
	s := &Service{
		trades:       trades,
		topDrawdowns: DefaultTopDrawdowns,
		now:          time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// ComputeRun loads the trades of a run and derives the complete analytics
// view: per-trade outcomes, equity curve, drawdown scan and statistics.
// Returns storage.ErrNotFound when the run has no trades at all.
func (s *Service) ComputeRun(ctx context.Context, runID string, initialCapital decimal.Decimal) (*domain.RunAnalytics, error) {
	trades, err := s.trades.GetByRunID(ctx, runID)
	if err != nil {
		return nil, fmt.Errorf("load trades for run %s: %w", runID, err)
	}
	if len(trades) == 0 {
		return nil, fmt.Errorf("run %s: %w", runID, storage.ErrNotFound)
	}

	closed := sortedClosed(trades)

	metrics, err := ComputeAllTradeMetrics(ctx, closed)
	if err != nil {
		return nil, err
	}

	outcomes := make([]domain.TradeOutcome, len(closed))
	for i, t := range closed {
		outcomes[i] = domain.TradeOutcome{TradeID: t.ID, Metrics: *metrics[i]}
	}

	curve, err := GenerateEquityCurve(trades, initialCapital)
	if err != nil {
		return nil, err
	}

	stats, err := ComputeTradeStatistics(trades)
	if err != nil {
		return nil, err
	}

	return &domain.RunAnalytics{
		RunID:          runID,
		InitialCapital: initialCapital,
		ComputedAt:     s.now().UTC(),
		Trades:         outcomes,
		Curve:          curve,
		Drawdowns:      AnalyzeDrawdowns(curve, s.topDrawdowns),
		Statistics:     stats,
	}, nil
}

// ComputeAndStore derives the analytics view and materializes the equity
// curve and statistics into the attached stores. Stores left unattached are
// skipped.
func (s *Service) ComputeAndStore(ctx context.Context, runID string, initialCapital decimal.Decimal) (*domain.RunAnalytics, error) {
	ra, err := s.ComputeRun(ctx, runID, initialCapital)
	if err != nil {
		return nil, err
	}

	if s.curves != nil {
		if err := s.curves.ReplaceRun(ctx, runID, ra.Curve); err != nil {
			return nil, fmt.Errorf("materialize equity curve for run %s: %w", runID, err)
		}
	}
	if s.stats != nil {
		if err := s.stats.Upsert(ctx, runID, ra.Statistics); err != nil {
			return nil, fmt.Errorf("materialize statistics for run %s: %w", runID, err)
		}
	}

	return ra, nil
}
