package analytics

import (
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"trade-analytics-lab/internal/domain"
)

// ErrInvalidCapital is returned when the starting balance is not positive.
var ErrInvalidCapital = errors.New("initial capital must be positive")

// GenerateEquityCurve produces the time-ordered balance series for a run.
// Only closed trades move the balance; there is no mark-to-market for open
// positions. Trades are walked in (exit time ASC, trade ID ASC) order, each
// adding its net P&L to the running balance.
//
// The curve is seeded with one point at the first trade's entry time (or the
// current time when there are no closed trades) carrying the initial capital
// and zero return, so a run with no closed trades yields exactly one point.
func GenerateEquityCurve(trades []*domain.Trade, initialCapital decimal.Decimal) ([]domain.EquityCurvePoint, error) {
	if !initialCapital.IsPositive() {
		return nil, fmt.Errorf("%w: got %s", ErrInvalidCapital, initialCapital)
	}

	closed := sortedClosed(trades)

	seedTime := time.Now().UTC()
	if len(closed) > 0 {
		seedTime = closed[0].EntryTime
	}

	curve := make([]domain.EquityCurvePoint, 0, len(closed)+1)
	curve = append(curve, domain.EquityCurvePoint{
		Timestamp:           seedTime,
		Balance:             initialCapital,
		CumulativeReturnPct: decimal.Zero,
		TradeSequence:       0,
	})

	balance := initialCapital
	for i, t := range closed {
		m, err := ComputeTradeMetrics(t)
		if err != nil {
			return nil, fmt.Errorf("trade %s: %w", t.ID, err)
		}

		balance = balance.Add(*m.ProfitLoss)
		curve = append(curve, domain.EquityCurvePoint{
			Timestamp:           *t.ExitTime,
			Balance:             balance,
			CumulativeReturnPct: balance.Sub(initialCapital).Div(initialCapital).Mul(hundred),
			TradeSequence:       i + 1,
		})
	}

	return curve, nil
}
