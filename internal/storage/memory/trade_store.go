package memory

import (
	"context"
	"sort"
	"sync"

	"trade-analytics-lab/internal/domain"
	"trade-analytics-lab/internal/storage"
)

// TradeStore is an in-memory implementation of storage.TradeStore.
type TradeStore struct {
	mu   sync.RWMutex
	data map[string]*domain.Trade // keyed by trade ID
}

// NewTradeStore creates a new in-memory trade store.
func NewTradeStore() *TradeStore {
	return &TradeStore{
		data: make(map[string]*domain.Trade),
	}
}

// Insert adds a new trade. Returns ErrDuplicateKey if the trade ID exists.
func (s *TradeStore) Insert(_ context.Context, t *domain.Trade) error {
	if t == nil || t.ID == "" {
		return storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.data[t.ID]; exists {
		return storage.ErrDuplicateKey
	}

	cp := *t
	s.data[t.ID] = &cp
	return nil
}

// InsertBulk adds multiple trades atomically. Fails entire batch on any duplicate.
func (s *TradeStore) InsertBulk(_ context.Context, trades []*domain.Trade) error {
	if len(trades) == 0 {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	// First pass: check for duplicates (existing + intra-batch).
	batchKeys := make(map[string]struct{}, len(trades))
	for _, t := range trades {
		if t == nil || t.ID == "" {
			return storage.ErrInvalidInput
		}
		if _, exists := s.data[t.ID]; exists {
			return storage.ErrDuplicateKey
		}
		if _, exists := batchKeys[t.ID]; exists {
			return storage.ErrDuplicateKey
		}
		batchKeys[t.ID] = struct{}{}
	}

	// Second pass: insert all.
	for _, t := range trades {
		cp := *t
		s.data[t.ID] = &cp
	}

	return nil
}

// GetByID retrieves a trade by its ID. Returns ErrNotFound if not exists.
func (s *TradeStore) GetByID(_ context.Context, tradeID string) (*domain.Trade, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	t, exists := s.data[tradeID]
	if !exists {
		return nil, storage.ErrNotFound
	}

	cp := *t
	return &cp, nil
}

// GetByRunID retrieves all trades of a run, ordered by exit time ASC with
// open trades last, ties broken by trade ID ASC.
func (s *TradeStore) GetByRunID(_ context.Context, runID string) ([]*domain.Trade, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*domain.Trade
	for _, t := range s.data {
		if t.RunID == runID {
			cp := *t
			result = append(result, &cp)
		}
	}

	sort.Slice(result, func(i, j int) bool {
		a, b := result[i], result[j]
		switch {
		case a.ExitTime == nil && b.ExitTime == nil:
			return a.ID < b.ID
		case a.ExitTime == nil:
			return false
		case b.ExitTime == nil:
			return true
		case !a.ExitTime.Equal(*b.ExitTime):
			return a.ExitTime.Before(*b.ExitTime)
		default:
			return a.ID < b.ID
		}
	})

	return result, nil
}

// ListRunIDs returns the distinct run identifiers, sorted ascending.
func (s *TradeStore) ListRunIDs(_ context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	seen := make(map[string]struct{})
	for _, t := range s.data {
		seen[t.RunID] = struct{}{}
	}

	runs := make([]string, 0, len(seen))
	for id := range seen {
		runs = append(runs, id)
	}
	sort.Strings(runs)

	return runs, nil
}

var _ storage.TradeStore = (*TradeStore)(nil)
