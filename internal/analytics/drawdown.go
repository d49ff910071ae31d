package analytics

import (
	"sort"

	"github.com/shopspring/decimal"

	"trade-analytics-lab/internal/domain"
)

// DefaultTopDrawdowns is the ranking depth used when the caller passes a
// non-positive value.
const DefaultTopDrawdowns = 5

// AnalyzeDrawdowns scans an equity curve in a single forward pass and
// reports every peak-to-trough period, the maximum drawdown, and the
// still-open (current) drawdown if the curve ends below its peak.
//
// The scan keeps a running peak seeded from the first point. A point at or
// above the peak closes any open period (marking it recovered at that
// point's timestamp) and raises the peak; a point below the peak opens a
// period, or deepens the open one when its balance undercuts the recorded
// trough. A curve that never dips below its running peak produces no
// periods at all rather than a zero-magnitude one.
func AnalyzeDrawdowns(curve []domain.EquityCurvePoint, topN int) *domain.DrawdownMetrics {
	if topN <= 0 {
		topN = DefaultTopDrawdowns
	}

	metrics := &domain.DrawdownMetrics{}
	if len(curve) < 2 {
		return metrics
	}

	peak := curve[0].Balance
	peakTime := curve[0].Timestamp

	var periods []domain.DrawdownPeriod
	var open *domain.DrawdownPeriod

	for _, p := range curve[1:] {
		if p.Balance.GreaterThanOrEqual(peak) {
			if open != nil {
				recovery := p.Timestamp
				open.Recovered = true
				open.RecoveryTime = &recovery
				open.Duration = recovery.Sub(open.PeakTime)
				periods = append(periods, *open)
				open = nil
			}
			// No new period starts at a new peak.
			peak = p.Balance
			peakTime = p.Timestamp
			continue
		}

		if open == nil {
			open = &domain.DrawdownPeriod{
				PeakTime:      peakTime,
				PeakBalance:   peak,
				TroughTime:    p.Timestamp,
				TroughBalance: p.Balance,
			}
		} else if p.Balance.LessThan(open.TroughBalance) {
			open.TroughTime = p.Timestamp
			open.TroughBalance = p.Balance
		}
	}

	stillOpen := open != nil
	if stillOpen {
		open.Duration = open.TroughTime.Sub(open.PeakTime)
		periods = append(periods, *open)
	}

	if len(periods) == 0 {
		return metrics
	}

	for i := range periods {
		d := &periods[i]
		d.DrawdownAmount = d.PeakBalance.Sub(d.TroughBalance)
		if d.PeakBalance.IsZero() {
			d.DrawdownPct = decimal.Zero
		} else {
			d.DrawdownPct = d.DrawdownAmount.Div(d.PeakBalance).Mul(hundred)
		}
	}

	if stillOpen {
		current := periods[len(periods)-1]
		metrics.Current = &current
	}

	ranked := make([]domain.DrawdownPeriod, len(periods))
	copy(ranked, periods)
	sort.Slice(ranked, func(i, j int) bool {
		a, b := ranked[i], ranked[j]
		if !a.DrawdownPct.Equal(b.DrawdownPct) {
			return a.DrawdownPct.GreaterThan(b.DrawdownPct)
		}
		if !a.DrawdownAmount.Equal(b.DrawdownAmount) {
			return a.DrawdownAmount.GreaterThan(b.DrawdownAmount)
		}
		return a.PeakTime.Before(b.PeakTime)
	})

	maxDD := ranked[0]
	metrics.Max = &maxDD
	metrics.TotalPeriods = len(periods)

	if len(ranked) > topN {
		ranked = ranked[:topN]
	}
	metrics.Top = ranked

	return metrics
}
