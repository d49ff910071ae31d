package memory

import (
	"context"
	"sync"

	"trade-analytics-lab/internal/domain"
	"trade-analytics-lab/internal/storage"
)

// EquityCurveStore is an in-memory implementation of storage.EquityCurveStore.
type EquityCurveStore struct {
	mu   sync.RWMutex
	data map[string][]domain.EquityCurvePoint // keyed by run ID
}

// NewEquityCurveStore creates a new in-memory equity curve store.
func NewEquityCurveStore() *EquityCurveStore {
	return &EquityCurveStore{
		data: make(map[string][]domain.EquityCurvePoint),
	}
}

// ReplaceRun stores the full curve for a run, superseding any previous one.
func (s *EquityCurveStore) ReplaceRun(_ context.Context, runID string, points []domain.EquityCurvePoint) error {
	if runID == "" {
		return storage.ErrInvalidInput
	}

	cp := make([]domain.EquityCurvePoint, len(points))
	copy(cp, points)

	s.mu.Lock()
	defer s.mu.Unlock()

	s.data[runID] = cp
	return nil
}

// GetByRunID retrieves the curve ordered by trade sequence ASC. Returns an
// empty slice when nothing has been materialized for the run.
func (s *EquityCurveStore) GetByRunID(_ context.Context, runID string) ([]domain.EquityCurvePoint, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	points := s.data[runID]
	cp := make([]domain.EquityCurvePoint, len(points))
	copy(cp, points)

	return cp, nil
}

var _ storage.EquityCurveStore = (*EquityCurveStore)(nil)
