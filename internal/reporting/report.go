package reporting

import (
	"time"

	"github.com/shopspring/decimal"

	"trade-analytics-lab/internal/domain"
)

// Report is the cross-run analytics summary.
type Report struct {
	// Metadata
	GeneratedAt    time.Time
	InitialCapital decimal.Decimal
	RunCount       int
	TotalTrades    int

	// Per-run summaries (sorted by run_id)
	Runs []RunSummaryRow

	// Full per-run analytics, keyed into Runs by position
	Details []RunDetail
}

// RunSummaryRow is one row of the run summary table.
type RunSummaryRow struct {
	RunID                string
	TotalTrades          int
	WinningTrades        int
	LosingTrades         int
	WinRate              decimal.Decimal
	NetProfit            decimal.Decimal
	ProfitFactor         *decimal.Decimal // nil when gross loss is zero
	Expectancy           *decimal.Decimal // nil when there are no closed trades
	FinalBalance         decimal.Decimal
	TotalReturnPct       decimal.Decimal
	MaxDrawdownPct       *decimal.Decimal // nil when the curve never declines
	MaxConsecutiveLosses int
}

// RunDetail carries the complete analytics view for one run, for callers
// that render equity curves and drawdown tables.
type RunDetail struct {
	RunID     string
	Analytics *domain.RunAnalytics
}
