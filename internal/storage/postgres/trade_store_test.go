package postgres

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"trade-analytics-lab/internal/domain"
	"trade-analytics-lab/internal/storage"
)

var testEntry = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

func createTestTrade(id, runID string, exitOffset time.Duration) *domain.Trade {
	t := &domain.Trade{
		ID:         id,
		RunID:      runID,
		Instrument: "ETHUSDT",
		Side:       domain.SideBuy,
		Quantity:   decimal.RequireFromString("2.5"),
		EntryPrice: decimal.RequireFromString("1850.75"),
		Commission: decimal.RequireFromString("1.25"),
		Fees:       decimal.RequireFromString("0.5"),
		EntryTime:  testEntry,
	}
	if exitOffset > 0 {
		exitPrice := decimal.RequireFromString("1901.3")
		exitAt := testEntry.Add(exitOffset)
		t.ExitPrice = &exitPrice
		t.ExitTime = &exitAt
	}
	return t
}

func TestTradeStore_InsertAndGetByID(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	store := NewTradeStore(pool)

	trade := createTestTrade("trade-001", "run-1", time.Hour)
	require.NoError(t, store.Insert(ctx, trade))

	got, err := store.GetByID(ctx, "trade-001")
	require.NoError(t, err)

	assert.Equal(t, trade.ID, got.ID)
	assert.Equal(t, trade.RunID, got.RunID)
	assert.Equal(t, trade.Instrument, got.Instrument)
	assert.Equal(t, trade.Side, got.Side)
	assert.True(t, trade.Quantity.Equal(got.Quantity), "quantity: want %s, got %s", trade.Quantity, got.Quantity)
	assert.True(t, trade.EntryPrice.Equal(got.EntryPrice))
	require.NotNil(t, got.ExitPrice)
	assert.True(t, trade.ExitPrice.Equal(*got.ExitPrice))
	assert.True(t, trade.Commission.Equal(got.Commission))
	assert.True(t, trade.Fees.Equal(got.Fees))
	assert.True(t, trade.EntryTime.Equal(got.EntryTime))
	require.NotNil(t, got.ExitTime)
	assert.True(t, trade.ExitTime.Equal(*got.ExitTime))
}

func TestTradeStore_OpenTradeRoundTrip(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	store := NewTradeStore(pool)

	require.NoError(t, store.Insert(ctx, createTestTrade("trade-open", "run-1", 0)))

	got, err := store.GetByID(ctx, "trade-open")
	require.NoError(t, err)

	assert.Nil(t, got.ExitPrice)
	assert.Nil(t, got.ExitTime)
	assert.False(t, got.IsClosed())
}

func TestTradeStore_DuplicateKey(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	store := NewTradeStore(pool)

	require.NoError(t, store.Insert(ctx, createTestTrade("trade-001", "run-1", time.Hour)))

	err := store.Insert(ctx, createTestTrade("trade-001", "run-1", time.Hour))
	assert.ErrorIs(t, err, storage.ErrDuplicateKey)
}

func TestTradeStore_InvalidInput(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	store := NewTradeStore(pool)

	bad := createTestTrade("trade-001", "run-1", time.Hour)
	bad.Quantity = decimal.Zero

	err := store.Insert(ctx, bad)
	assert.ErrorIs(t, err, storage.ErrInvalidInput)
}

func TestTradeStore_NotFound(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	store := NewTradeStore(pool)

	_, err := store.GetByID(context.Background(), "nonexistent")
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestTradeStore_InsertBulkAtomic(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	store := NewTradeStore(pool)

	require.NoError(t, store.Insert(ctx, createTestTrade("trade-002", "run-1", time.Hour)))

	// A batch containing an existing key rolls back entirely.
	err := store.InsertBulk(ctx, []*domain.Trade{
		createTestTrade("trade-001", "run-1", time.Hour),
		createTestTrade("trade-002", "run-1", time.Hour),
	})
	require.ErrorIs(t, err, storage.ErrDuplicateKey)

	_, err = store.GetByID(ctx, "trade-001")
	assert.ErrorIs(t, err, storage.ErrNotFound, "partial batch must not be visible")
}

func TestTradeStore_GetByRunIDOrdering(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	store := NewTradeStore(pool)

	require.NoError(t, store.InsertBulk(ctx, []*domain.Trade{
		createTestTrade("trade-c", "run-1", 2*time.Hour),
		createTestTrade("trade-b", "run-1", time.Hour),
		createTestTrade("trade-a", "run-1", time.Hour),
		createTestTrade("trade-open", "run-1", 0),
		createTestTrade("trade-other", "run-2", time.Hour),
	}))

	got, err := store.GetByRunID(ctx, "run-1")
	require.NoError(t, err)
	require.Len(t, got, 4)

	// Closed trades by exit time (ID tie-break), open trades last.
	want := []string{"trade-a", "trade-b", "trade-c", "trade-open"}
	for i, id := range want {
		assert.Equal(t, id, got[i].ID, "position %d", i)
	}
}

func TestTradeStore_ListRunIDs(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	store := NewTradeStore(pool)

	require.NoError(t, store.InsertBulk(ctx, []*domain.Trade{
		createTestTrade("t1", "run-b", time.Hour),
		createTestTrade("t2", "run-a", time.Hour),
		createTestTrade("t3", "run-b", 2*time.Hour),
	}))

	runs, err := store.ListRunIDs(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"run-a", "run-b"}, runs)
}
