package services

import (
	"sync"
	"time"

	"github.com/poolscout/poolscout/internal/models"
)

// HistoryStore owns the per-pool APY time series. Each pool's history is
// guarded by its own lock; cross-pool operations never need to be atomic with
// each other.
type HistoryStore struct {
	retention time.Duration

	mu    sync.RWMutex
	pools map[string]*poolHistory
}

type poolHistory struct {
	mu     sync.Mutex
	points []models.APYDataPoint
}

// NewHistoryStore builds a store that evicts points older than retentionDays
// on every insert.
func NewHistoryStore(retentionDays int) *HistoryStore {
	if retentionDays <= 0 {
		retentionDays = 30
	}
	return &HistoryStore{
		retention: time.Duration(retentionDays) * 24 * time.Hour,
		pools:     make(map[string]*poolHistory),
	}
}

// Ingest appends one observation to the pool's history and evicts expired
// points. History stays ordered as long as observations arrive in order,
// which is the collaborator's contract.
func (s *HistoryStore) Ingest(point models.APYDataPoint) {
	h := s.pool(point.PoolAddress)

	h.mu.Lock()
	defer h.mu.Unlock()

	h.points = append(h.points, point)

	cutoff := point.Timestamp.Add(-s.retention)
	idx := 0
	for idx < len(h.points) && h.points[idx].Timestamp.Before(cutoff) {
		idx++
	}
	if idx > 0 {
		h.points = append(h.points[:0:0], h.points[idx:]...)
	}
}

// History returns a copy of the pool's points; callers may not mutate store
// state through the returned slice.
func (s *HistoryStore) History(poolAddress string) []models.APYDataPoint {
	s.mu.RLock()
	h, ok := s.pools[poolAddress]
	s.mu.RUnlock()
	if !ok {
		return nil
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	out := make([]models.APYDataPoint, len(h.points))
	copy(out, h.points)
	return out
}

// Len reports how many points a pool currently holds.
func (s *HistoryStore) Len(poolAddress string) int {
	s.mu.RLock()
	h, ok := s.pools[poolAddress]
	s.mu.RUnlock()
	if !ok {
		return 0
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.points)
}

// Pools lists the pool addresses with at least one stored point.
func (s *HistoryStore) Pools() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]string, 0, len(s.pools))
	for addr := range s.pools {
		out = append(out, addr)
	}
	return out
}

func (s *HistoryStore) pool(address string) *poolHistory {
	s.mu.RLock()
	h, ok := s.pools[address]
	s.mu.RUnlock()
	if ok {
		return h
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if h, ok = s.pools[address]; ok {
		return h
	}
	h = &poolHistory{}
	s.pools[address] = h
	return h
}
