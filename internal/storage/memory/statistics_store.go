package memory

import (
	"context"
	"sync"

	"trade-analytics-lab/internal/domain"
	"trade-analytics-lab/internal/storage"
)

// StatisticsStore is an in-memory implementation of storage.StatisticsStore.
type StatisticsStore struct {
	mu   sync.RWMutex
	data map[string]*domain.TradeStatistics // keyed by run ID
}

// NewStatisticsStore creates a new in-memory statistics store.
func NewStatisticsStore() *StatisticsStore {
	return &StatisticsStore{
		data: make(map[string]*domain.TradeStatistics),
	}
}

// Upsert stores the statistics for a run, superseding any previous value.
func (s *StatisticsStore) Upsert(_ context.Context, runID string, stats *domain.TradeStatistics) error {
	if runID == "" || stats == nil {
		return storage.ErrInvalidInput
	}

	cp := *stats

	s.mu.Lock()
	defer s.mu.Unlock()

	s.data[runID] = &cp
	return nil
}

// GetByRunID retrieves the statistics. Returns ErrNotFound when nothing has
// been materialized for the run.
func (s *StatisticsStore) GetByRunID(_ context.Context, runID string) (*domain.TradeStatistics, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stats, exists := s.data[runID]
	if !exists {
		return nil, storage.ErrNotFound
	}

	cp := *stats
	return &cp, nil
}

var _ storage.StatisticsStore = (*StatisticsStore)(nil)
