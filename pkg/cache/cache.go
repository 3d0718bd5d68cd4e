// Package cache is the record cache facade of the persistence layer.
//
// Discipline: read the cache only outside a transaction, always write through
// on a successful load. Records hydrated inside an open transaction must not
// be cached, since the transaction may roll back; use Nop there.
package cache

import (
	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/google/uuid"

	"github.com/carestack/cdr/pkg/domain"
)

// Cache looks up fully- or partially-materialized records by identity key.
type Cache interface {
	// Get returns the cached record for key, if any. Callers must check that
	// the record's LoadedDepth satisfies their request.
	Get(key uuid.UUID) (domain.Record, bool)

	// Put stores rec under its identity key, replacing any prior entry.
	Put(rec domain.Record)

	// Remove drops the entry for key.
	Remove(key uuid.UUID)
}

type shared struct {
	entries *lru.Cache[uuid.UUID, domain.Record]
}

// NewShared returns the long-lived LRU-bounded cache shared by all
// persistence services.
func NewShared(size int) (Cache, error) {
	entries, err := lru.New[uuid.UUID, domain.Record](size)
	if err != nil {
		return nil, err
	}
	return &shared{entries: entries}, nil
}

func (s *shared) Get(key uuid.UUID) (domain.Record, bool) {
	return s.entries.Get(key)
}

func (s *shared) Put(rec domain.Record) {
	if rec == nil || rec.RecordKey() == uuid.Nil {
		return
	}
	s.entries.Add(rec.RecordKey(), rec)
}

func (s *shared) Remove(key uuid.UUID) {
	s.entries.Remove(key)
}

type nop struct{}

// Nop is the cache used inside open transactions: it stores nothing and
// never hits.
func Nop() Cache {
	return nop{}
}

func (nop) Get(uuid.UUID) (domain.Record, bool) { return nil, false }
func (nop) Put(domain.Record)                   {}
func (nop) Remove(uuid.UUID)                    {}
