package domain

import (
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// Side is the direction of a trade's entry.
type Side string

const (
	SideBuy  Side = "BUY"  // long entry, profits when price rises
	SideSell Side = "SELL" // short entry, profits when price falls
)

// ErrInvalidTrade is returned when a trade violates a construction invariant.
var ErrInvalidTrade = errors.New("invalid trade")

// Trade represents one matched entry/exit (or still-open) execution recorded
// by the owning backtest engine. Trades are immutable once constructed; the
// analytics core consumes them read-only. Monetary fields are exact decimals,
// never binary floats.
type Trade struct {
	ID         string // unique trade identifier
	RunID      string // owning backtest run (opaque foreign key)
	Instrument string // e.g. "ETHUSDT"

	Side       Side
	Quantity   decimal.Decimal
	EntryPrice decimal.Decimal
	ExitPrice  *decimal.Decimal // nil while the position is open

	Commission decimal.Decimal
	Fees       decimal.Decimal

	EntryTime time.Time  // UTC
	ExitTime  *time.Time // nil while open; required when ExitPrice is set
}

// NewTrade validates t and returns a copy. Invalid records are rejected at
// construction time rather than probed at use sites.
func NewTrade(t Trade) (*Trade, error) {
	if err := t.Validate(); err != nil {
		return nil, err
	}
	return &t, nil
}

// IsClosed reports whether the trade has a realized exit.
func (t *Trade) IsClosed() bool {
	return t.ExitPrice != nil && t.ExitTime != nil
}

// Validate checks the construction invariants. Violations are reported,
// never silently corrected.
func (t *Trade) Validate() error {
	if t.ID == "" {
		return fmt.Errorf("%w: empty trade id", ErrInvalidTrade)
	}
	if t.Side != SideBuy && t.Side != SideSell {
		return fmt.Errorf("%w: side must be BUY or SELL, got %q", ErrInvalidTrade, t.Side)
	}
	if !t.Quantity.IsPositive() {
		return fmt.Errorf("%w: quantity must be positive, got %s", ErrInvalidTrade, t.Quantity)
	}
	if !t.EntryPrice.IsPositive() {
		return fmt.Errorf("%w: entry price must be positive, got %s", ErrInvalidTrade, t.EntryPrice)
	}
	if t.Commission.IsNegative() {
		return fmt.Errorf("%w: commission must not be negative, got %s", ErrInvalidTrade, t.Commission)
	}
	if t.Fees.IsNegative() {
		return fmt.Errorf("%w: fees must not be negative, got %s", ErrInvalidTrade, t.Fees)
	}
	if t.EntryTime.IsZero() {
		return fmt.Errorf("%w: entry time is required", ErrInvalidTrade)
	}

	// Exit price and exit time must be present together.
	if (t.ExitPrice != nil) != (t.ExitTime != nil) {
		return fmt.Errorf("%w: exit price and exit time must both be set or both be absent", ErrInvalidTrade)
	}
	if t.ExitPrice != nil {
		if !t.ExitPrice.IsPositive() {
			return fmt.Errorf("%w: exit price must be positive, got %s", ErrInvalidTrade, t.ExitPrice)
		}
		if t.ExitTime.Before(t.EntryTime) {
			return fmt.Errorf("%w: exit time %s precedes entry time %s", ErrInvalidTrade,
				t.ExitTime.Format(time.RFC3339), t.EntryTime.Format(time.RFC3339))
		}
	}

	return nil
}
