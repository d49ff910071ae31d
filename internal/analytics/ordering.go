package analytics

import (
	"sort"

	"trade-analytics-lab/internal/domain"
)

// ClosedTrades returns the subset of trades with a realized exit. Open trades
// contribute nothing to the equity curve or the statistics.
func ClosedTrades(trades []*domain.Trade) []*domain.Trade {
	var closed []*domain.Trade
	for _, t := range trades {
		if t.IsClosed() {
			closed = append(closed, t)
		}
	}
	return closed
}

// SortByExit orders closed trades by (exit time ASC, trade ID ASC) into a new
// slice. The ID tie-break makes runs where several trades close at the same
// instant reproducible. The input must contain only closed trades.
func SortByExit(trades []*domain.Trade) []*domain.Trade {
	sorted := make([]*domain.Trade, len(trades))
	copy(sorted, trades)
	sort.Slice(sorted, func(i, j int) bool {
		a, b := sorted[i], sorted[j]
		if !a.ExitTime.Equal(*b.ExitTime) {
			return a.ExitTime.Before(*b.ExitTime)
		}
		return a.ID < b.ID
	})
	return sorted
}

// sortedClosed filters to closed trades and applies the canonical ordering.
func sortedClosed(trades []*domain.Trade) []*domain.Trade {
	return SortByExit(ClosedTrades(trades))
}
