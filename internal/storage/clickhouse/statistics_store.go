package clickhouse

import (
	"context"
	"fmt"
	"time"

	"trade-analytics-lab/internal/domain"
	"trade-analytics-lab/internal/storage"
)

// StatisticsStore implements storage.StatisticsStore using ClickHouse.
// One versioned row per run in a ReplacingMergeTree; Upsert writes a fresh
// version and FINAL reads collapse to the latest.
type StatisticsStore struct {
	conn *Conn
}

// NewStatisticsStore creates a new StatisticsStore.
func NewStatisticsStore(conn *Conn) *StatisticsStore {
	return &StatisticsStore{conn: conn}
}

// Compile-time interface check.
var _ storage.StatisticsStore = (*StatisticsStore)(nil)

// Upsert stores the statistics for a run, superseding any previous value.
func (s *StatisticsStore) Upsert(ctx context.Context, runID string, stats *domain.TradeStatistics) error {
	if runID == "" || stats == nil {
		return storage.ErrInvalidInput
	}

	query := `
		INSERT INTO run_statistics (
			run_id,
			total_trades, winning_trades, losing_trades, breakeven_trades,
			win_rate, gross_profit, gross_loss, net_profit,
			profit_factor, average_win, average_loss, expectancy,
			max_consecutive_wins, max_consecutive_losses,
			avg_holding_period_secs,
			version
		) VALUES (
			?,
			?, ?, ?, ?,
			?, ?, ?, ?,
			?, ?, ?, ?,
			?, ?,
			?,
			?
		)
	`

	err := s.conn.Exec(ctx, query,
		runID,
		int32(stats.TotalTrades), int32(stats.WinningTrades), int32(stats.LosingTrades), int32(stats.BreakevenTrades),
		stats.WinRate, stats.GrossProfit, stats.GrossLoss, stats.NetProfit,
		stats.ProfitFactor, stats.AverageWin, stats.AverageLoss, stats.Expectancy,
		int32(stats.MaxConsecutiveWins), int32(stats.MaxConsecutiveLosses),
		stats.AvgHoldingPeriodSecs,
		uint64(time.Now().UnixNano()),
	)
	if err != nil {
		return fmt.Errorf("upsert run statistics: %w", err)
	}
	return nil
}

// GetByRunID retrieves the statistics. Returns ErrNotFound when nothing has
// been materialized for the run.
func (s *StatisticsStore) GetByRunID(ctx context.Context, runID string) (*domain.TradeStatistics, error) {
	query := `
		SELECT
			total_trades, winning_trades, losing_trades, breakeven_trades,
			win_rate, gross_profit, gross_loss, net_profit,
			profit_factor, average_win, average_loss, expectancy,
			max_consecutive_wins, max_consecutive_losses,
			avg_holding_period_secs
		FROM run_statistics FINAL
		WHERE run_id = ?
		LIMIT 1
	`

	var (
		stats                          domain.TradeStatistics
		total, wins, losses, breakeven int32
		maxConsecWins, maxConsecLosses int32
	)

	row := s.conn.QueryRow(ctx, query, runID)
	err := row.Scan(
		&total, &wins, &losses, &breakeven,
		&stats.WinRate, &stats.GrossProfit, &stats.GrossLoss, &stats.NetProfit,
		&stats.ProfitFactor, &stats.AverageWin, &stats.AverageLoss, &stats.Expectancy,
		&maxConsecWins, &maxConsecLosses,
		&stats.AvgHoldingPeriodSecs,
	)
	if err != nil {
		if isNotFoundError(err) {
			return nil, storage.ErrNotFound
		}
		return nil, fmt.Errorf("get run statistics: %w", err)
	}

	stats.TotalTrades = int(total)
	stats.WinningTrades = int(wins)
	stats.LosingTrades = int(losses)
	stats.BreakevenTrades = int(breakeven)
	stats.MaxConsecutiveWins = int(maxConsecWins)
	stats.MaxConsecutiveLosses = int(maxConsecLosses)

	return &stats, nil
}
