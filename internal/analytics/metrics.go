// Package analytics computes post-trade analytics for a backtest run:
// per-trade profit/loss, the equity curve, drawdown periods and aggregate
// trade statistics. Every function is pure and deterministic; all monetary
// arithmetic uses exact decimals.
package analytics

import (
	"context"
	"fmt"
	"runtime"
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"

	"trade-analytics-lab/internal/domain"
)

// monetaryPlaces is the precision for realized monetary values.
const monetaryPlaces = 2

var hundred = decimal.NewFromInt(100)

// ComputeTradeMetrics derives profit/loss, percentage return and holding
// period for a single trade. Open trades yield empty metrics (all nil).
// Net P&L is gross minus commission and fees, banker's-rounded to 2 decimal
// places; the percentage return is net over entry notional.
func ComputeTradeMetrics(t *domain.Trade) (*domain.TradeMetrics, error) {
	if err := t.Validate(); err != nil {
		return nil, err
	}
	if !t.IsClosed() {
		return &domain.TradeMetrics{}, nil
	}

	var gross decimal.Decimal
	if t.Side == domain.SideBuy {
		gross = t.ExitPrice.Sub(t.EntryPrice).Mul(t.Quantity)
	} else {
		gross = t.EntryPrice.Sub(*t.ExitPrice).Mul(t.Quantity)
	}

	net := gross.Sub(t.Commission.Add(t.Fees)).RoundBank(monetaryPlaces)

	// Entry notional cannot be zero given the invariants, but a zero guard
	// beats a division panic on hand-built records.
	notional := t.EntryPrice.Mul(t.Quantity)
	pct := decimal.Zero
	if !notional.IsZero() {
		pct = net.Div(notional).Mul(hundred).RoundBank(monetaryPlaces)
	}

	secs := int64(t.ExitTime.Sub(t.EntryTime) / time.Second)

	return &domain.TradeMetrics{
		ProfitLoss:        &net,
		ProfitPct:         &pct,
		HoldingPeriodSecs: &secs,
	}, nil
}

// ComputeAllTradeMetrics computes metrics for every trade concurrently.
// Results are positionally aligned with the input, so the output is
// deterministic regardless of scheduling. A single invalid trade fails the
// whole batch: dropping bad financial data silently is worse than failing
// loudly.
func ComputeAllTradeMetrics(ctx context.Context, trades []*domain.Trade) ([]*domain.TradeMetrics, error) {
	results := make([]*domain.TradeMetrics, len(trades))

	g, _ := errgroup.WithContext(ctx)
	g.SetLimit(runtime.GOMAXPROCS(0))

	for i, t := range trades {
		g.Go(func() error {
			m, err := ComputeTradeMetrics(t)
			if err != nil {
				return fmt.Errorf("trade %s: %w", t.ID, err)
			}
			results[i] = m
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}
