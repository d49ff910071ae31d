package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// TradeMetrics holds the derived figures for a single trade. All fields are
// nil for open trades: an open position contributes no realized P&L.
type TradeMetrics struct {
	ProfitLoss        *decimal.Decimal // net of commission and fees, 2dp banker's rounding
	ProfitPct         *decimal.Decimal // percent of entry notional, 2dp
	HoldingPeriodSecs *int64           // whole seconds between entry and exit
}

// EquityCurvePoint is one sample of the account balance series. The first
// point of every curve is the seed: sequence 0, balance equal to the initial
// capital, zero cumulative return.
type EquityCurvePoint struct {
	Timestamp           time.Time
	Balance             decimal.Decimal
	CumulativeReturnPct decimal.Decimal
	TradeSequence       int // 0 for the seed point, then 1..n in close order
}

// DrawdownPeriod is a peak-to-trough-to-(optional)-recovery span derived from
// the equity curve. Periods are never stored as a source of truth; they are
// always recomputed from trades.
type DrawdownPeriod struct {
	PeakTime       time.Time
	PeakBalance    decimal.Decimal
	TroughTime     time.Time
	TroughBalance  decimal.Decimal
	DrawdownAmount decimal.Decimal // peak balance - trough balance
	DrawdownPct    decimal.Decimal // amount / peak * 100, 0 when peak is 0
	Duration       time.Duration   // peak to recovery, or peak to trough while ongoing
	Recovered      bool
	RecoveryTime   *time.Time // nil while the drawdown is ongoing
}

// DrawdownMetrics is the result of a full drawdown scan over one curve.
type DrawdownMetrics struct {
	// Max is the period with the largest drawdown percentage, or nil when the
	// curve never dips below its running peak.
	Max *DrawdownPeriod
	// Current is the still-open drawdown at the end of the curve, nil if the
	// curve ends at or above its peak. It may coincide with Max.
	Current *DrawdownPeriod
	// Top holds all distinct periods ranked by percentage descending,
	// truncated to the requested depth.
	Top []DrawdownPeriod
	// TotalPeriods counts every distinct period found, before truncation.
	TotalPeriods int
}

// TradeStatistics aggregates counts and ratios over the closed trades of a
// run. It is a value object: no identity, fully recomputable from the trade
// set. Undefined ratios are nil rather than zero or infinity.
type TradeStatistics struct {
	TotalTrades     int
	WinningTrades   int
	LosingTrades    int
	BreakevenTrades int

	WinRate decimal.Decimal // percent; 0 when there are no closed trades

	GrossProfit decimal.Decimal
	GrossLoss   decimal.Decimal // positive magnitude
	NetProfit   decimal.Decimal

	ProfitFactor *decimal.Decimal // gross profit / gross loss; nil when gross loss is 0
	AverageWin   *decimal.Decimal // nil when there are no winners
	AverageLoss  *decimal.Decimal // positive magnitude; nil when there are no losers
	Expectancy   *decimal.Decimal // net profit per trade; nil when there are no closed trades

	MaxConsecutiveWins   int
	MaxConsecutiveLosses int

	AvgHoldingPeriodSecs *decimal.Decimal // nil when there are no closed trades
}

// AvgHoldingPeriodHours converts the average holding period to hours for
// display. Returns nil when there are no closed trades.
func (s *TradeStatistics) AvgHoldingPeriodHours() *decimal.Decimal {
	if s.AvgHoldingPeriodSecs == nil {
		return nil
	}
	h := s.AvgHoldingPeriodSecs.Div(decimal.NewFromInt(3600))
	return &h
}

// TradeOutcome pairs a trade identifier with its computed metrics, for
// serving layers that render per-trade tables.
type TradeOutcome struct {
	TradeID string
	Metrics TradeMetrics
}

// RunAnalytics is the complete derived view of one backtest run: per-trade
// results, the equity curve, its drawdown scan and the aggregate statistics.
// Recomputing it from the same trades and capital always yields identical
// values.
type RunAnalytics struct {
	RunID          string
	InitialCapital decimal.Decimal
	ComputedAt     time.Time

	Trades     []TradeOutcome // closed trades in chronological close order
	Curve      []EquityCurvePoint
	Drawdowns  *DrawdownMetrics
	Statistics *TradeStatistics
}
