package analytics

import (
	"errors"
	"testing"
	"time"

	"trade-analytics-lab/internal/domain"
)

func TestGenerateEquityCurve_SingleWin(t *testing.T) {
	// BUY 100 @ 150 → 160, commission 5, capital 100000:
	// curve = [(t0, 100000, 0%), (t1, 100995, 0.995%)]
	exitAt := baseTime.Add(time.Hour)
	trades := []*domain.Trade{
		closedTrade("t1", domain.SideBuy, "100", "150", "160", "5", baseTime, exitAt),
	}

	curve, err := GenerateEquityCurve(trades, dec("100000"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(curve) != 2 {
		t.Fatalf("expected 2 points, got %d", len(curve))
	}

	seed := curve[0]
	if !seed.Balance.Equal(dec("100000")) {
		t.Errorf("expected seed balance 100000, got %s", seed.Balance)
	}
	if !seed.CumulativeReturnPct.IsZero() {
		t.Errorf("expected seed return 0, got %s", seed.CumulativeReturnPct)
	}
	if !seed.Timestamp.Equal(baseTime) {
		t.Errorf("expected seed at entry time %v, got %v", baseTime, seed.Timestamp)
	}
	if seed.TradeSequence != 0 {
		t.Errorf("expected seed sequence 0, got %d", seed.TradeSequence)
	}

	p1 := curve[1]
	if !p1.Balance.Equal(dec("100995")) {
		t.Errorf("expected balance 100995, got %s", p1.Balance)
	}
	if !p1.CumulativeReturnPct.Equal(dec("0.995")) {
		t.Errorf("expected return 0.995%%, got %s", p1.CumulativeReturnPct)
	}
	if !p1.Timestamp.Equal(exitAt) {
		t.Errorf("expected point at exit time %v, got %v", exitAt, p1.Timestamp)
	}
	if p1.TradeSequence != 1 {
		t.Errorf("expected sequence 1, got %d", p1.TradeSequence)
	}
}

func TestGenerateEquityCurve_ZeroTrades(t *testing.T) {
	curve, err := GenerateEquityCurve(nil, dec("5000"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(curve) != 1 {
		t.Fatalf("expected exactly 1 seed point, got %d", len(curve))
	}
	if !curve[0].Balance.Equal(dec("5000")) {
		t.Errorf("expected balance 5000, got %s", curve[0].Balance)
	}
}

func TestGenerateEquityCurve_OpenTradesExcluded(t *testing.T) {
	trades := []*domain.Trade{
		closedTrade("t1", domain.SideBuy, "1", "100", "110", "0", baseTime, baseTime.Add(time.Hour)),
		openTrade("t2", baseTime.Add(time.Minute)),
	}

	curve, err := GenerateEquityCurve(trades, dec("1000"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// Seed + one closed trade; the open trade moves nothing.
	if len(curve) != 2 {
		t.Fatalf("expected 2 points, got %d", len(curve))
	}
}

func TestGenerateEquityCurve_InvalidCapital(t *testing.T) {
	for _, capital := range []string{"0", "-100"} {
		_, err := GenerateEquityCurve(nil, dec(capital))
		if !errors.Is(err, ErrInvalidCapital) {
			t.Errorf("capital %s: expected ErrInvalidCapital, got %v", capital, err)
		}
	}
}

func TestGenerateEquityCurve_MonotonicTimestamps(t *testing.T) {
	// Deliberately unsorted input; the generator applies canonical ordering.
	trades := []*domain.Trade{
		closedTrade("t3", domain.SideBuy, "1", "100", "105", "0", baseTime, baseTime.Add(3*time.Hour)),
		closedTrade("t1", domain.SideBuy, "1", "100", "90", "0", baseTime, baseTime.Add(time.Hour)),
		closedTrade("t2", domain.SideSell, "1", "100", "95", "0", baseTime, baseTime.Add(2*time.Hour)),
	}

	curve, err := GenerateEquityCurve(trades, dec("1000"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	for i := 1; i < len(curve); i++ {
		if curve[i].Timestamp.Before(curve[i-1].Timestamp) {
			t.Errorf("timestamps not monotonic at %d: %v < %v",
				i, curve[i].Timestamp, curve[i-1].Timestamp)
		}
	}
}

func TestGenerateEquityCurve_RunningBalance(t *testing.T) {
	trades := []*domain.Trade{
		closedTrade("t1", domain.SideBuy, "1", "100", "110", "0", baseTime, baseTime.Add(time.Hour)),
		closedTrade("t2", domain.SideBuy, "1", "100", "80", "0", baseTime, baseTime.Add(2*time.Hour)),
	}

	curve, err := GenerateEquityCurve(trades, dec("1000"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	want := []string{"1000", "1010", "990"}
	for i, w := range want {
		if !curve[i].Balance.Equal(dec(w)) {
			t.Errorf("point %d: expected balance %s, got %s", i, w, curve[i].Balance)
		}
	}

	// -1% cumulative return after the losing trade
	if !curve[2].CumulativeReturnPct.Equal(dec("-1")) {
		t.Errorf("expected cumulative return -1%%, got %s", curve[2].CumulativeReturnPct)
	}
}

func TestGenerateEquityCurve_Deterministic(t *testing.T) {
	trades := []*domain.Trade{
		closedTrade("t2", domain.SideBuy, "1", "100", "107.77", "0.33", baseTime, baseTime.Add(time.Hour)),
		closedTrade("t1", domain.SideSell, "2", "55.5", "54.25", "0.1", baseTime, baseTime.Add(time.Hour)),
	}

	first, err := GenerateEquityCurve(trades, dec("1234.56"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	second, err := GenerateEquityCurve(trades, dec("1234.56"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(first) != len(second) {
		t.Fatalf("curve lengths differ: %d vs %d", len(first), len(second))
	}
	for i := range first {
		if !first[i].Balance.Equal(second[i].Balance) ||
			!first[i].Timestamp.Equal(second[i].Timestamp) {
			t.Errorf("point %d differs between runs", i)
		}
	}
}
