package storage

import (
	"context"

	"trade-analytics-lab/internal/domain"
)

// TradeStore provides access to recorded trades. Trades are written once by
// the capture layer and never mutated; the analytics core reads them as an
// immutable snapshot.
type TradeStore interface {
	// Insert adds a new trade. Returns ErrDuplicateKey if the trade ID exists,
	// ErrInvalidInput if the trade fails validation.
	Insert(ctx context.Context, t *domain.Trade) error

	// InsertBulk adds multiple trades atomically. Fails the entire batch on
	// any duplicate or invalid record.
	InsertBulk(ctx context.Context, trades []*domain.Trade) error

	// GetByID retrieves a trade by its ID. Returns ErrNotFound if not exists.
	GetByID(ctx context.Context, tradeID string) (*domain.Trade, error)

	// GetByRunID retrieves all trades of a run ordered by
	// (exit time ASC with open trades last, trade ID ASC).
	GetByRunID(ctx context.Context, runID string) ([]*domain.Trade, error)

	// ListRunIDs returns the distinct run identifiers, sorted ascending.
	ListRunIDs(ctx context.Context) ([]string, error)
}

// EquityCurveStore materializes computed equity curves per run for the
// serving layer. Rows are a cache: the curve is always recomputable
// byte-for-byte from the trades and the initial capital.
type EquityCurveStore interface {
	// ReplaceRun stores the full curve for a run, superseding any previous
	// materialization.
	ReplaceRun(ctx context.Context, runID string, points []domain.EquityCurvePoint) error

	// GetByRunID retrieves the curve ordered by trade sequence ASC.
	// Returns an empty slice when nothing has been materialized.
	GetByRunID(ctx context.Context, runID string) ([]domain.EquityCurvePoint, error)
}

// StatisticsStore materializes computed trade statistics per run.
type StatisticsStore interface {
	// Upsert stores the statistics for a run, superseding any previous value.
	Upsert(ctx context.Context, runID string, stats *domain.TradeStatistics) error

	// GetByRunID retrieves the statistics. Returns ErrNotFound when nothing
	// has been materialized for the run.
	GetByRunID(ctx context.Context, runID string) (*domain.TradeStatistics, error)
}
