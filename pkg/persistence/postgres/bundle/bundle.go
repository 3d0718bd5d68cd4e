// Package bundle persists heterogeneous batches of records in one
// transaction, reordering them so that referenced records land before their
// referrers.
package bundle

import (
	"context"
	"fmt"
	"log"

	"github.com/google/uuid"

	"github.com/carestack/cdr/pkg/cache"
	cpool "github.com/carestack/cdr/pkg/conn/db/postgres/pool"
	"github.com/carestack/cdr/pkg/domain"
	cpgerr "github.com/carestack/cdr/pkg/domain/errors/dberrors/postgres"
	"github.com/carestack/cdr/pkg/persistence"
	"github.com/carestack/cdr/pkg/persistence/postgres/act"
	"github.com/carestack/cdr/pkg/persistence/postgres/entity"
)

type Store struct {
	pool     cpool.Pool
	entities *entity.Store
	acts     *act.Store
	records  cache.Cache
	logger   *log.Logger
}

var _ persistence.BundleStore = &Store{}

func New(pool cpool.Pool, entities *entity.Store, acts *act.Store, records cache.Cache, logger *log.Logger) *Store {
	return &Store{pool: pool, entities: entities, acts: acts, records: records, logger: logger}
}

// Reorder arranges items so that every record referenced by another bundle
// member comes before its referrer. Duplicate identity keys keep their first
// occurrence only. References pointing outside the bundle are left alone, and
// a reference cycle falls back to input order for the records on the cycle.
func Reorder(items []domain.Record) []domain.Record {
	byKey := make(map[uuid.UUID]domain.Record, len(items))
	for _, item := range items {
		if _, ok := byKey[item.RecordKey()]; !ok {
			byKey[item.RecordKey()] = item
		}
	}

	ordered := make([]domain.Record, 0, len(byKey))
	const (
		placing = 1
		placed  = 2
	)
	state := map[uuid.UUID]int{}
	var place func(rec domain.Record)
	place = func(rec domain.Record) {
		key := rec.RecordKey()
		if state[key] != 0 {
			return
		}
		state[key] = placing
		if ref, ok := rec.(domain.Referencer); ok {
			for _, target := range ref.References() {
				if dep, ok := byKey[target]; ok {
					place(dep)
				}
			}
		}
		state[key] = placed
		ordered = append(ordered, rec)
	}
	for _, item := range items {
		place(byKey[item.RecordKey()])
	}
	return ordered
}

// Submit persists every non-expansion item of b, referenced records first,
// inside a single transaction. Each item updates its record when the identity
// already exists and inserts it otherwise. progress may be nil.
func (s *Store) Submit(ctx context.Context, p domain.Principal, b domain.Bundle, progress persistence.Progress) (domain.Bundle, error) {
	ordered := Reorder(b.Items)
	s.warnMixedProvenance(b.Items)

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return b, err
	}
	defer tx.Rollback(ctx)

	for i, item := range ordered {
		if !b.IsExpansion(item.RecordKey()) {
			if err := s.submitOne(ctx, tx, p, item); err != nil {
				return b, fmt.Errorf("bundle item %d (%s): %w", i, item.RecordKey(), err)
			}
		}
		if progress != nil {
			progress(i+1, len(ordered))
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return b, err
	}

	// The entity and act stores answer Get from the shared cache first; a
	// record cached before this bundle rewrote it would keep serving the
	// superseded version.
	for _, item := range ordered {
		if b.IsExpansion(item.RecordKey()) {
			continue
		}
		s.records.Put(item)
	}
	return b, nil
}

func (s *Store) submitOne(ctx context.Context, tx cpool.Tx, p domain.Principal, item domain.Record) error {
	switch rec := item.(type) {
	case domain.EntityRecord:
		exists, err := s.entities.ExistsIn(ctx, tx, rec.EntityBody().Key)
		if err != nil {
			return err
		}
		if exists {
			_, err = s.entities.UpdateIn(ctx, tx, p, rec)
		} else {
			_, err = s.entities.InsertIn(ctx, tx, p, rec)
		}
		return err
	case domain.ActRecord:
		exists, err := s.acts.ExistsIn(ctx, tx, rec.ActBody().Key)
		if err != nil {
			return err
		}
		if exists {
			_, err = s.acts.UpdateIn(ctx, tx, p, rec)
		} else {
			_, err = s.acts.InsertIn(ctx, tx, p, rec)
		}
		return err
	default:
		return cpgerr.FormalConstraint{
			Reason: fmt.Sprintf("no persister handles %T", item),
		}
	}
}

// warnMixedProvenance flags bundles whose items were created by different
// identities. Batch imports stamped this way usually mean the caller mixed
// sources; the bundle still persists.
func (s *Store) warnMixedProvenance(items []domain.Record) {
	var first uuid.UUID
	for _, item := range items {
		v, ok := item.(domain.VersionedRecord)
		if !ok || v.Header().CreatedByKey == uuid.Nil {
			continue
		}
		creator := v.Header().CreatedByKey
		if first == uuid.Nil {
			first = creator
			continue
		}
		if creator != first {
			s.logger.Printf(
				"warning (issue %s): bundle mixes records created by %s and %s",
				domain.IssueMixedProvenance, first, creator,
			)
			return
		}
	}
}
