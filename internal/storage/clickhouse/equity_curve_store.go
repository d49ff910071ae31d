package clickhouse

import (
	"context"
	"fmt"
	"time"

	"trade-analytics-lab/internal/domain"
	"trade-analytics-lab/internal/storage"
)

// EquityCurveStore implements storage.EquityCurveStore using ClickHouse.
//
// Rows live in a ReplacingMergeTree keyed by (run_id, trade_sequence) with a
// monotonic version column. ReplaceRun writes every point of the new curve
// under a fresh version; reads pin to the latest version so a shorter
// recomputation never serves stale tail points.
type EquityCurveStore struct {
	conn *Conn
}

// NewEquityCurveStore creates a new EquityCurveStore.
func NewEquityCurveStore(conn *Conn) *EquityCurveStore {
	return &EquityCurveStore{conn: conn}
}

// Compile-time interface check.
var _ storage.EquityCurveStore = (*EquityCurveStore)(nil)

// ReplaceRun stores the full curve for a run, superseding any previous
// materialization.
func (s *EquityCurveStore) ReplaceRun(ctx context.Context, runID string, points []domain.EquityCurvePoint) error {
	if runID == "" {
		return storage.ErrInvalidInput
	}
	if len(points) == 0 {
		return nil
	}

	batch, err := s.conn.PrepareBatch(ctx, `
		INSERT INTO equity_curve_points (
			run_id, trade_sequence, ts, balance, cumulative_return_pct, version
		)
	`)
	if err != nil {
		return fmt.Errorf("prepare batch: %w", err)
	}

	version := uint64(time.Now().UnixNano())
	for _, p := range points {
		err = batch.Append(
			runID, int32(p.TradeSequence), p.Timestamp,
			p.Balance, p.CumulativeReturnPct, version,
		)
		if err != nil {
			return fmt.Errorf("append to batch: %w", err)
		}
	}

	if err := batch.Send(); err != nil {
		return fmt.Errorf("send batch: %w", err)
	}

	return nil
}

// GetByRunID retrieves the latest materialized curve ordered by trade
// sequence ASC. Returns an empty slice when nothing has been materialized.
func (s *EquityCurveStore) GetByRunID(ctx context.Context, runID string) ([]domain.EquityCurvePoint, error) {
	query := `
		SELECT trade_sequence, ts, balance, cumulative_return_pct
		FROM equity_curve_points FINAL
		WHERE run_id = ?
		  AND version = (SELECT max(version) FROM equity_curve_points WHERE run_id = ?)
		ORDER BY trade_sequence ASC
	`

	rows, err := s.conn.Query(ctx, query, runID, runID)
	if err != nil {
		return nil, fmt.Errorf("get equity curve by run id: %w", err)
	}
	defer rows.Close()

	var points []domain.EquityCurvePoint
	for rows.Next() {
		var (
			p   domain.EquityCurvePoint
			seq int32
		)
		err := rows.Scan(&seq, &p.Timestamp, &p.Balance, &p.CumulativeReturnPct)
		if err != nil {
			return nil, fmt.Errorf("scan equity curve row: %w", err)
		}
		p.TradeSequence = int(seq)
		points = append(points, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate equity curve rows: %w", err)
	}

	return points, nil
}
