// Package querystore memoizes the full key set of a query under a
// caller-supplied query id, so that later pages read a frozen snapshot
// instead of re-running the query against a store that may have changed.
package querystore

import (
	"sync"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/google/uuid"
)

// Store registers and pages frozen query result sets.
type Store interface {
	// RegisterQuerySet freezes keys under queryId. total is the reported
	// total for the whole set, which may exceed len(keys) when the total was
	// counted but only one page of keys was materialized.
	RegisterQuerySet(queryId uuid.UUID, keys []uuid.UUID, total int64)

	// IsRegistered reports whether queryId has a frozen set.
	IsRegistered(queryId uuid.UUID) bool

	// GetQueryResults returns the page [offset, offset+count) of the frozen
	// key set. Out-of-range requests return the empty slice.
	GetQueryResults(queryId uuid.UUID, offset int, count int) []uuid.UUID

	// TotalQuantity returns the registered total, or -1 when unregistered.
	TotalQuantity(queryId uuid.UUID) int64
}

type querySet struct {
	keys  []uuid.UUID
	total int64
}

type memoryStore struct {
	mu   sync.RWMutex
	sets *lru.Cache[uuid.UUID, *querySet]
}

// NewMemory returns an in-process Store bounded to size live query sets.
// Old sessions fall out LRU-wise.
func NewMemory(size int) (Store, error) {
	sets, err := lru.New[uuid.UUID, *querySet](size)
	if err != nil {
		return nil, err
	}
	return &memoryStore{sets: sets}, nil
}

func (m *memoryStore) RegisterQuerySet(queryId uuid.UUID, keys []uuid.UUID, total int64) {
	if queryId == uuid.Nil {
		return
	}
	frozen := make([]uuid.UUID, len(keys))
	copy(frozen, keys)

	m.mu.Lock()
	defer m.mu.Unlock()
	m.sets.Add(queryId, &querySet{keys: frozen, total: total})
}

func (m *memoryStore) IsRegistered(queryId uuid.UUID) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.sets.Contains(queryId)
}

func (m *memoryStore) GetQueryResults(queryId uuid.UUID, offset int, count int) []uuid.UUID {
	m.mu.RLock()
	defer m.mu.RUnlock()

	set, ok := m.sets.Get(queryId)
	if !ok || offset < 0 || len(set.keys) <= offset {
		return []uuid.UUID{}
	}
	end := offset + count
	if len(set.keys) < end || count < 0 {
		end = len(set.keys)
	}
	page := make([]uuid.UUID, end-offset)
	copy(page, set.keys[offset:end])
	return page
}

func (m *memoryStore) TotalQuantity(queryId uuid.UUID) int64 {
	m.mu.RLock()
	defer m.mu.RUnlock()

	set, ok := m.sets.Get(queryId)
	if !ok {
		return -1
	}
	return set.total
}
