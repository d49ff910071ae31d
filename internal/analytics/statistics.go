package analytics

import (
	"fmt"

	"github.com/shopspring/decimal"

	"trade-analytics-lab/internal/domain"
)

// ComputeTradeStatistics aggregates win/loss counts, ratios and streak
// metrics over the closed trades of a run. Counts and ratios are
// order-independent; streaks use the same (exit time ASC, trade ID ASC)
// ordering as the equity curve so that recomputation is reproducible.
//
// Zero closed trades is not an error: counts are zero and every ratio is
// nil. Average loss is reported as a positive magnitude; the presentation
// sign is left to the caller.
func ComputeTradeStatistics(trades []*domain.Trade) (*domain.TradeStatistics, error) {
	closed := sortedClosed(trades)

	stats := &domain.TradeStatistics{
		WinRate:     decimal.Zero,
		GrossProfit: decimal.Zero,
		GrossLoss:   decimal.Zero,
		NetProfit:   decimal.Zero,
	}
	if len(closed) == 0 {
		return stats, nil
	}

	var (
		consecWins   int
		consecLosses int
		holdingSecs  decimal.Decimal
	)

	for _, t := range closed {
		m, err := ComputeTradeMetrics(t)
		if err != nil {
			return nil, fmt.Errorf("trade %s: %w", t.ID, err)
		}
		pnl := *m.ProfitLoss

		stats.TotalTrades++
		switch {
		case pnl.IsPositive():
			stats.WinningTrades++
			stats.GrossProfit = stats.GrossProfit.Add(pnl)
			consecWins++
			consecLosses = 0
			if consecWins > stats.MaxConsecutiveWins {
				stats.MaxConsecutiveWins = consecWins
			}
		case pnl.IsNegative():
			stats.LosingTrades++
			stats.GrossLoss = stats.GrossLoss.Add(pnl.Abs())
			consecLosses++
			consecWins = 0
			if consecLosses > stats.MaxConsecutiveLosses {
				stats.MaxConsecutiveLosses = consecLosses
			}
		default:
			// Breakeven trades interrupt both streaks.
			stats.BreakevenTrades++
			consecWins = 0
			consecLosses = 0
		}

		holdingSecs = holdingSecs.Add(decimal.NewFromInt(*m.HoldingPeriodSecs))
	}

	total := decimal.NewFromInt(int64(stats.TotalTrades))

	stats.WinRate = decimal.NewFromInt(int64(stats.WinningTrades)).Div(total).Mul(hundred)
	stats.NetProfit = stats.GrossProfit.Sub(stats.GrossLoss)

	if stats.GrossLoss.IsPositive() {
		pf := stats.GrossProfit.Div(stats.GrossLoss)
		stats.ProfitFactor = &pf
	}
	if stats.WinningTrades > 0 {
		avgWin := stats.GrossProfit.Div(decimal.NewFromInt(int64(stats.WinningTrades)))
		stats.AverageWin = &avgWin
	}
	if stats.LosingTrades > 0 {
		avgLoss := stats.GrossLoss.Div(decimal.NewFromInt(int64(stats.LosingTrades)))
		stats.AverageLoss = &avgLoss
	}

	expectancy := stats.NetProfit.Div(total)
	stats.Expectancy = &expectancy

	avgHold := holdingSecs.Div(total)
	stats.AvgHoldingPeriodSecs = &avgHold

	return stats, nil
}
