package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"trade-analytics-lab/internal/domain"
	"trade-analytics-lab/internal/storage"
)

// TradeStore implements storage.TradeStore using PostgreSQL.
type TradeStore struct {
	pool *Pool
}

// NewTradeStore creates a new TradeStore.
func NewTradeStore(pool *Pool) *TradeStore {
	return &TradeStore{pool: pool}
}

// Compile-time interface check.
var _ storage.TradeStore = (*TradeStore)(nil)

const insertTradeQuery = `
	INSERT INTO trades (
		trade_id, run_id, instrument, side,
		quantity, entry_price, exit_price, commission, fees,
		entry_time, exit_time
	) VALUES (
		$1, $2, $3, $4,
		$5::numeric, $6::numeric, $7::numeric, $8::numeric, $9::numeric,
		$10, $11
	)
`

// Prices and quantities round-trip through text. pgx maps numeric to its own
// types; the domain uses decimal.Decimal, so values are sent as strings with
// an explicit ::numeric cast and read back via ::text.
const selectTradeColumns = `
	trade_id, run_id, instrument, side,
	quantity::text, entry_price::text, exit_price::text, commission::text, fees::text,
	entry_time, exit_time
`

// Insert adds a new trade. Returns ErrDuplicateKey if trade_id exists.
func (s *TradeStore) Insert(ctx context.Context, t *domain.Trade) error {
	if err := t.Validate(); err != nil {
		return fmt.Errorf("%w: %v", storage.ErrInvalidInput, err)
	}

	_, err := s.pool.Exec(ctx, insertTradeQuery, tradeArgs(t)...)
	if err != nil {
		if isDuplicateKeyError(err) {
			return storage.ErrDuplicateKey
		}
		return fmt.Errorf("insert trade: %w", err)
	}
	return nil
}

// InsertBulk adds multiple trades atomically. Fails entire batch on any
// duplicate or invalid record.
func (s *TradeStore) InsertBulk(ctx context.Context, trades []*domain.Trade) error {
	if len(trades) == 0 {
		return nil
	}

	for _, t := range trades {
		if err := t.Validate(); err != nil {
			return fmt.Errorf("%w: %v", storage.ErrInvalidInput, err)
		}
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	for _, t := range trades {
		if _, err := tx.Exec(ctx, insertTradeQuery, tradeArgs(t)...); err != nil {
			if isDuplicateKeyError(err) {
				return storage.ErrDuplicateKey
			}
			return fmt.Errorf("insert trade in bulk: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}

	return nil
}

// GetByID retrieves a trade by its ID. Returns ErrNotFound if not exists.
func (s *TradeStore) GetByID(ctx context.Context, tradeID string) (*domain.Trade, error) {
	query := `SELECT ` + selectTradeColumns + ` FROM trades WHERE trade_id = $1`

	row := s.pool.QueryRow(ctx, query, tradeID)
	t, err := scanTrade(row)
	if err != nil {
		if isNotFoundError(err) {
			return nil, storage.ErrNotFound
		}
		return nil, fmt.Errorf("get trade by id: %w", err)
	}
	return t, nil
}

// GetByRunID retrieves all trades for a run, closed trades first in close
// order, then open trades, ties broken by trade_id.
func (s *TradeStore) GetByRunID(ctx context.Context, runID string) ([]*domain.Trade, error) {
	query := `
		SELECT ` + selectTradeColumns + `
		FROM trades
		WHERE run_id = $1
		ORDER BY exit_time ASC NULLS LAST, trade_id ASC
	`

	rows, err := s.pool.Query(ctx, query, runID)
	if err != nil {
		return nil, fmt.Errorf("get trades by run id: %w", err)
	}
	defer rows.Close()

	return scanTrades(rows)
}

// ListRunIDs returns the distinct run identifiers, sorted ascending.
func (s *TradeStore) ListRunIDs(ctx context.Context) ([]string, error) {
	rows, err := s.pool.Query(ctx, `SELECT DISTINCT run_id FROM trades ORDER BY run_id ASC`)
	if err != nil {
		return nil, fmt.Errorf("list run ids: %w", err)
	}
	defer rows.Close()

	var runs []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan run id: %w", err)
		}
		runs = append(runs, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate run ids: %w", err)
	}

	return runs, nil
}

// tradeArgs builds the positional arguments for insertTradeQuery.
func tradeArgs(t *domain.Trade) []any {
	return []any{
		t.ID, t.RunID, t.Instrument, string(t.Side),
		t.Quantity.String(), t.EntryPrice.String(), nullableDecimal(t.ExitPrice),
		t.Commission.String(), t.Fees.String(),
		t.EntryTime, t.ExitTime,
	}
}

// nullableDecimal renders an optional decimal as a string or SQL NULL.
func nullableDecimal(d *decimal.Decimal) any {
	if d == nil {
		return nil
	}
	return d.String()
}

// scanTrade scans a single row into a Trade.
func scanTrade(row pgx.Row) (*domain.Trade, error) {
	var (
		t       domain.Trade
		side    string
		qty     string
		entry   string
		exit    *string
		commStr string
		feesStr string
	)

	err := row.Scan(
		&t.ID, &t.RunID, &t.Instrument, &side,
		&qty, &entry, &exit, &commStr, &feesStr,
		&t.EntryTime, &t.ExitTime,
	)
	if err != nil {
		return nil, err
	}

	t.Side = domain.Side(side)
	if t.Quantity, err = decimal.NewFromString(qty); err != nil {
		return nil, fmt.Errorf("parse quantity: %w", err)
	}
	if t.EntryPrice, err = decimal.NewFromString(entry); err != nil {
		return nil, fmt.Errorf("parse entry price: %w", err)
	}
	if exit != nil {
		p, err := decimal.NewFromString(*exit)
		if err != nil {
			return nil, fmt.Errorf("parse exit price: %w", err)
		}
		t.ExitPrice = &p
	}
	if t.Commission, err = decimal.NewFromString(commStr); err != nil {
		return nil, fmt.Errorf("parse commission: %w", err)
	}
	if t.Fees, err = decimal.NewFromString(feesStr); err != nil {
		return nil, fmt.Errorf("parse fees: %w", err)
	}

	return &t, nil
}

// scanTrades scans multiple rows into a slice of Trade.
func scanTrades(rows pgx.Rows) ([]*domain.Trade, error) {
	var trades []*domain.Trade

	for rows.Next() {
		t, err := scanTrade(rows)
		if err != nil {
			return nil, fmt.Errorf("scan trade row: %w", err)
		}
		trades = append(trades, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate trade rows: %w", err)
	}

	return trades, nil
}
