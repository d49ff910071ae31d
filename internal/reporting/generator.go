package reporting

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"trade-analytics-lab/internal/analytics"
	"trade-analytics-lab/internal/domain"
	"trade-analytics-lab/internal/storage"
)

// Generator produces cross-run reports from stored trades. Every figure is
// recomputed from the trade set at generation time.
type Generator struct {
	tradeStore     storage.TradeStore
	svc            *analytics.Service
	initialCapital decimal.Decimal
	now            func() time.Time // Injectable clock for deterministic output
}

// NewGenerator creates a new report generator. The initial capital applies
// to every run in the report.
func NewGenerator(tradeStore storage.TradeStore, svc *analytics.Service, initialCapital decimal.Decimal) *Generator {
	return &Generator{
		tradeStore:     tradeStore,
		svc:            svc,
		initialCapital: initialCapital,
		now:            func() time.Time { return time.Now().UTC() },
	}
}

// WithClock sets a custom clock function for deterministic output.
func (g *Generator) WithClock(now func() time.Time) *Generator {
	g.now = now
	return g
}

// Generate computes analytics for every stored run and assembles the report.
func (g *Generator) Generate(ctx context.Context) (*Report, error) {
	runIDs, err := g.tradeStore.ListRunIDs(ctx)
	if err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}

	report := &Report{
		GeneratedAt:    g.now(),
		InitialCapital: g.initialCapital,
	}

	for _, runID := range runIDs {
		ra, err := g.svc.ComputeRun(ctx, runID, g.initialCapital)
		if err != nil {
			return nil, fmt.Errorf("compute run %s: %w", runID, err)
		}

		report.Runs = append(report.Runs, summarizeRun(ra))
		report.Details = append(report.Details, RunDetail{RunID: runID, Analytics: ra})
		report.TotalTrades += ra.Statistics.TotalTrades
	}
	report.RunCount = len(runIDs)

	return report, nil
}

// summarizeRun flattens a run's analytics into one summary row.
func summarizeRun(ra *domain.RunAnalytics) RunSummaryRow {
	stats := ra.Statistics

	row := RunSummaryRow{
		RunID:                ra.RunID,
		TotalTrades:          stats.TotalTrades,
		WinningTrades:        stats.WinningTrades,
		LosingTrades:         stats.LosingTrades,
		WinRate:              stats.WinRate,
		NetProfit:            stats.NetProfit,
		ProfitFactor:         stats.ProfitFactor,
		Expectancy:           stats.Expectancy,
		MaxConsecutiveLosses: stats.MaxConsecutiveLosses,
	}

	last := ra.Curve[len(ra.Curve)-1]
	row.FinalBalance = last.Balance
	row.TotalReturnPct = last.CumulativeReturnPct

	if ra.Drawdowns != nil && ra.Drawdowns.Max != nil {
		pct := ra.Drawdowns.Max.DrawdownPct
		row.MaxDrawdownPct = &pct
	}

	return row
}
