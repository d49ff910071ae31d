package analytics

import (
	"context"
	"errors"
	"testing"
	"time"

	"trade-analytics-lab/internal/domain"
	"trade-analytics-lab/internal/storage"
	"trade-analytics-lab/internal/storage/memory"
)

func seedRun(t *testing.T, store storage.TradeStore, trades ...*domain.Trade) {
	t.Helper()
	if err := store.InsertBulk(context.Background(), trades); err != nil {
		t.Fatalf("seed trades: %v", err)
	}
}

func TestService_ComputeRun(t *testing.T) {
	store := memory.NewTradeStore()
	seedRun(t, store,
		closedTrade("t1", domain.SideBuy, "100", "150", "160", "5", baseTime, baseTime.Add(time.Hour)),
		openTrade("t2", baseTime.Add(time.Minute)),
	)

	fixed := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	svc := NewService(store, WithClock(func() time.Time { return fixed }))

	ra, err := svc.ComputeRun(context.Background(), "run-1", dec("100000"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if ra.RunID != "run-1" {
		t.Errorf("expected run-1, got %s", ra.RunID)
	}
	if !ra.ComputedAt.Equal(fixed) {
		t.Errorf("expected injected clock time, got %v", ra.ComputedAt)
	}
	if len(ra.Trades) != 1 {
		t.Fatalf("expected 1 closed trade outcome, got %d", len(ra.Trades))
	}
	if !ra.Trades[0].Metrics.ProfitLoss.Equal(dec("995.00")) {
		t.Errorf("expected P&L 995.00, got %s", ra.Trades[0].Metrics.ProfitLoss)
	}
	if len(ra.Curve) != 2 {
		t.Errorf("expected 2 curve points, got %d", len(ra.Curve))
	}
	if ra.Statistics.TotalTrades != 1 {
		t.Errorf("expected 1 closed trade in statistics, got %d", ra.Statistics.TotalTrades)
	}
}

func TestService_ComputeRun_UnknownRun(t *testing.T) {
	svc := NewService(memory.NewTradeStore())

	_, err := svc.ComputeRun(context.Background(), "missing", dec("1000"))
	if !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestService_ComputeRun_InvalidCapital(t *testing.T) {
	store := memory.NewTradeStore()
	seedRun(t, store,
		closedTrade("t1", domain.SideBuy, "1", "100", "110", "0", baseTime, baseTime.Add(time.Hour)))

	svc := NewService(store)

	_, err := svc.ComputeRun(context.Background(), "run-1", dec("0"))
	if !errors.Is(err, ErrInvalidCapital) {
		t.Errorf("expected ErrInvalidCapital, got %v", err)
	}
}

func TestService_ComputeAndStore(t *testing.T) {
	ctx := context.Background()
	store := memory.NewTradeStore()
	curves := memory.NewEquityCurveStore()
	stats := memory.NewStatisticsStore()
	seedRun(t, store,
		closedTrade("t1", domain.SideBuy, "1", "100", "110", "0", baseTime, baseTime.Add(time.Hour)),
		closedTrade("t2", domain.SideBuy, "1", "100", "95", "0", baseTime, baseTime.Add(2*time.Hour)),
	)

	svc := NewService(store, WithMaterialization(curves, stats))

	ra, err := svc.ComputeAndStore(ctx, "run-1", dec("1000"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	storedCurve, err := curves.GetByRunID(ctx, "run-1")
	if err != nil {
		t.Fatalf("load curve: %v", err)
	}
	if len(storedCurve) != len(ra.Curve) {
		t.Errorf("expected %d materialized points, got %d", len(ra.Curve), len(storedCurve))
	}
	for i := range storedCurve {
		if !storedCurve[i].Balance.Equal(ra.Curve[i].Balance) {
			t.Errorf("point %d: materialized %s != computed %s",
				i, storedCurve[i].Balance, ra.Curve[i].Balance)
		}
	}

	storedStats, err := stats.GetByRunID(ctx, "run-1")
	if err != nil {
		t.Fatalf("load statistics: %v", err)
	}
	if storedStats.TotalTrades != ra.Statistics.TotalTrades ||
		!storedStats.NetProfit.Equal(ra.Statistics.NetProfit) {
		t.Errorf("materialized statistics differ: %+v vs %+v", storedStats, ra.Statistics)
	}
}

func TestService_ComputeAndStore_Recompute(t *testing.T) {
	// Re-running after new trades supersedes the previous materialization.
	ctx := context.Background()
	store := memory.NewTradeStore()
	curves := memory.NewEquityCurveStore()
	stats := memory.NewStatisticsStore()
	seedRun(t, store,
		closedTrade("t1", domain.SideBuy, "1", "100", "110", "0", baseTime, baseTime.Add(time.Hour)))

	svc := NewService(store, WithMaterialization(curves, stats))

	if _, err := svc.ComputeAndStore(ctx, "run-1", dec("1000")); err != nil {
		t.Fatalf("first compute: %v", err)
	}

	seedRun(t, store,
		closedTrade("t2", domain.SideBuy, "1", "100", "120", "0", baseTime, baseTime.Add(2*time.Hour)))

	if _, err := svc.ComputeAndStore(ctx, "run-1", dec("1000")); err != nil {
		t.Fatalf("second compute: %v", err)
	}

	curve, err := curves.GetByRunID(ctx, "run-1")
	if err != nil {
		t.Fatalf("load curve: %v", err)
	}
	if len(curve) != 3 {
		t.Errorf("expected 3 points after recompute, got %d", len(curve))
	}
	storedStats, err := stats.GetByRunID(ctx, "run-1")
	if err != nil {
		t.Fatalf("load statistics: %v", err)
	}
	if storedStats.TotalTrades != 2 {
		t.Errorf("expected 2 trades after recompute, got %d", storedStats.TotalTrades)
	}
}
