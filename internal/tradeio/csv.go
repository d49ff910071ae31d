// Package tradeio reads and writes trade sets as CSV, the interchange
// format between backtest engines and the analytics tooling.
package tradeio

import (
	"encoding/csv"
	"fmt"
	"io"
	"time"

	"github.com/shopspring/decimal"

	"trade-analytics-lab/internal/domain"
)

// csvHeader is the canonical column order. Exit columns are empty for open
// trades.
var csvHeader = []string{
	"trade_id", "run_id", "instrument", "side",
	"quantity", "entry_price", "exit_price", "commission", "fees",
	"entry_time", "exit_time",
}

// ReadTrades parses trades from CSV. The first row must be the canonical
// header. Every record is validated; a single bad row fails the whole read
// with its line number.
func ReadTrades(r io.Reader) ([]*domain.Trade, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = len(csvHeader)

	header, err := cr.Read()
	if err != nil {
		return nil, fmt.Errorf("read csv header: %w", err)
	}
	for i, col := range csvHeader {
		if header[i] != col {
			return nil, fmt.Errorf("%w: unexpected csv header column %q, want %q",
				domain.ErrInvalidTrade, header[i], col)
		}
	}

	var trades []*domain.Trade
	for line := 2; ; line++ {
		record, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read csv line %d: %w", line, err)
		}

		t, err := parseRecord(record)
		if err != nil {
			return nil, fmt.Errorf("csv line %d: %w", line, err)
		}
		trades = append(trades, t)
	}

	return trades, nil
}

// WriteTrades renders trades as CSV in the canonical column order.
func WriteTrades(w io.Writer, trades []*domain.Trade) error {
	cw := csv.NewWriter(w)

	if err := cw.Write(csvHeader); err != nil {
		return fmt.Errorf("write csv header: %w", err)
	}

	for _, t := range trades {
		exitPrice := ""
		if t.ExitPrice != nil {
			exitPrice = t.ExitPrice.String()
		}
		exitTime := ""
		if t.ExitTime != nil {
			exitTime = t.ExitTime.UTC().Format(time.RFC3339Nano)
		}

		record := []string{
			t.ID, t.RunID, t.Instrument, string(t.Side),
			t.Quantity.String(), t.EntryPrice.String(), exitPrice,
			t.Commission.String(), t.Fees.String(),
			t.EntryTime.UTC().Format(time.RFC3339Nano), exitTime,
		}
		if err := cw.Write(record); err != nil {
			return fmt.Errorf("write trade %s: %w", t.ID, err)
		}
	}

	cw.Flush()
	return cw.Error()
}

func parseRecord(record []string) (*domain.Trade, error) {
	t := domain.Trade{
		ID:         record[0],
		RunID:      record[1],
		Instrument: record[2],
		Side:       domain.Side(record[3]),
	}

	var err error
	if t.Quantity, err = decimal.NewFromString(record[4]); err != nil {
		return nil, fmt.Errorf("parse quantity: %w", err)
	}
	if t.EntryPrice, err = decimal.NewFromString(record[5]); err != nil {
		return nil, fmt.Errorf("parse entry_price: %w", err)
	}
	if record[6] != "" {
		p, err := decimal.NewFromString(record[6])
		if err != nil {
			return nil, fmt.Errorf("parse exit_price: %w", err)
		}
		t.ExitPrice = &p
	}
	if t.Commission, err = decimal.NewFromString(record[7]); err != nil {
		return nil, fmt.Errorf("parse commission: %w", err)
	}
	if t.Fees, err = decimal.NewFromString(record[8]); err != nil {
		return nil, fmt.Errorf("parse fees: %w", err)
	}
	if t.EntryTime, err = time.Parse(time.RFC3339Nano, record[9]); err != nil {
		return nil, fmt.Errorf("parse entry_time: %w", err)
	}
	if record[10] != "" {
		ts, err := time.Parse(time.RFC3339Nano, record[10])
		if err != nil {
			return nil, fmt.Errorf("parse exit_time: %w", err)
		}
		t.ExitTime = &ts
	}

	return domain.NewTrade(t)
}
