package bundle_test

import (
	"context"
	"io"
	"log"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgconn"
	"github.com/jackc/pgx/v4"

	"github.com/carestack/cdr/pkg/cache"
	cpool "github.com/carestack/cdr/pkg/conn/db/postgres/pool"
	"github.com/carestack/cdr/pkg/domain"
	"github.com/carestack/cdr/pkg/persistence/postgres/act"
	"github.com/carestack/cdr/pkg/persistence/postgres/bundle"
	"github.com/carestack/cdr/pkg/persistence/postgres/entity"
	"github.com/carestack/cdr/pkg/querystore"
	"github.com/carestack/cdr/pkg/utils/cmp"
	"github.com/carestack/cdr/pkg/utils/try"
)

func TestReorder(t *testing.T) {
	keyA := uuid.MustParse("6e9dba2e-41a0-46f7-a11a-bd94b1cc0b31")
	keyB := uuid.MustParse("f2e0f853-00f8-4c3a-8c2a-9c7d1cfebd1e")
	keyC := uuid.MustParse("2b5cb1d2-73dd-4f3e-bf0a-16d5f2b0c642")

	entityReferring := func(key uuid.UUID, targets ...uuid.UUID) *domain.Entity {
		e := &domain.Entity{}
		e.Key = key
		for _, target := range targets {
			e.Relationships = append(e.Relationships, domain.EntityRelationship{TargetKey: target})
		}
		return e
	}
	actPlaying := func(key uuid.UUID, players ...uuid.UUID) *domain.Act {
		a := &domain.Act{}
		a.Key = key
		for _, player := range players {
			a.Participations = append(a.Participations, domain.ActParticipation{PlayerKey: player})
		}
		return a
	}

	type When struct {
		items []domain.Record
	}
	type Then struct {
		order []uuid.UUID
	}

	theory := func(when When, then Then) func(*testing.T) {
		return func(t *testing.T) {
			ordered := bundle.Reorder(when.items)

			actual := make([]uuid.UUID, 0, len(ordered))
			for _, rec := range ordered {
				actual = append(actual, rec.RecordKey())
			}
			if !cmp.SliceEq(actual, then.order) {
				t.Errorf(
					"ordering\n===actual===\n%v\n===expected===\n%v",
					actual, then.order,
				)
			}
		}
	}

	t.Run("independent items keep input order", theory(
		When{items: []domain.Record{
			entityReferring(keyA), entityReferring(keyB),
		}},
		Then{order: []uuid.UUID{keyA, keyB}},
	))

	t.Run("a forward reference pulls its target ahead", theory(
		When{items: []domain.Record{
			entityReferring(keyA, keyB), entityReferring(keyB),
		}},
		Then{order: []uuid.UUID{keyB, keyA}},
	))

	t.Run("transitive references resolve depth first", theory(
		When{items: []domain.Record{
			entityReferring(keyA, keyB),
			entityReferring(keyB, keyC),
			entityReferring(keyC),
		}},
		Then{order: []uuid.UUID{keyC, keyB, keyA}},
	))

	t.Run("an act follows its participation players", theory(
		When{items: []domain.Record{
			actPlaying(keyA, keyB),
			entityReferring(keyB),
		}},
		Then{order: []uuid.UUID{keyB, keyA}},
	))

	t.Run("references outside the bundle are ignored", theory(
		When{items: []domain.Record{
			entityReferring(keyA, keyC),
			entityReferring(keyB),
		}},
		Then{order: []uuid.UUID{keyA, keyB}},
	))

	t.Run("duplicate keys keep their first occurrence only", theory(
		When{items: []domain.Record{
			entityReferring(keyA),
			entityReferring(keyB, keyA),
			entityReferring(keyA, keyB),
		}},
		Then{order: []uuid.UUID{keyA, keyB}},
	))

	t.Run("a cycle falls back to input order", theory(
		When{items: []domain.Record{
			entityReferring(keyA, keyB),
			entityReferring(keyB, keyA),
		}},
		Then{order: []uuid.UUID{keyB, keyA}},
	))
}

// entityTx answers the statements an entity update issues, serving one stored
// version so the update appends the next one.
type entityTx struct {
	t *testing.T

	priorVersionKey uuid.UUID
	nextSequence    int64

	committed bool
}

func (tx *entityTx) Begin(ctx context.Context) (cpool.Tx, error) { return tx, nil }

func (tx *entityTx) Commit(ctx context.Context) error {
	tx.committed = true
	return nil
}

func (tx *entityTx) Rollback(ctx context.Context) error { return nil }

func (tx *entityTx) Exec(ctx context.Context, sql string, args ...interface{}) (pgconn.CommandTag, error) {
	return nil, nil
}

func (tx *entityTx) Query(ctx context.Context, sql string, args ...interface{}) (pgx.Rows, error) {
	return &noRows{}, nil
}

func (tx *entityTx) QueryRow(ctx context.Context, sql string, args ...interface{}) pgx.Row {
	switch {
	case strings.Contains(sql, "SELECT EXISTS"):
		return scanRow{vals: []any{true}}
	case strings.Contains(sql, `"rd_only"`):
		return scanRow{vals: []any{false}}
	case strings.Contains(sql, `RETURNING "vrsn_seq", "crt_utc"`):
		return scanRow{vals: []any{tx.nextSequence, time.Now()}}
	case strings.Contains(sql, `("obslt_utc" IS NULL) DESC`):
		return scanRow{vals: []any{
			tx.priorVersionKey, tx.nextSequence - 1, domain.StatusNew, nil, nil,
			uuid.New(), time.Now(), nil, nil,
		}}
	}
	tx.t.Fatalf("unexpected query: %s", sql)
	return scanRow{}
}

type fakePool struct {
	t  *testing.T
	tx *entityTx
}

func (p *fakePool) Begin(ctx context.Context) (cpool.Tx, error) { return p.tx, nil }

func (p *fakePool) Acquire(ctx context.Context) (cpool.Conn, error) {
	p.t.Fatal("Acquire is not ready to be called")
	return nil, nil
}

func (p *fakePool) Ping(ctx context.Context) error {
	p.t.Fatal("Ping is not ready to be called")
	return nil
}

type scanRow struct {
	vals []any
}

func (r scanRow) Scan(dest ...interface{}) error {
	for nth, d := range dest {
		v := r.vals[nth]
		switch p := d.(type) {
		case *uuid.UUID:
			*p = v.(uuid.UUID)
		case *int64:
			*p = v.(int64)
		case *bool:
			*p = v.(bool)
		case *time.Time:
			*p = v.(time.Time)
		case **uuid.UUID:
			if v == nil {
				*p = nil
			} else {
				*p = v.(*uuid.UUID)
			}
		case **time.Time:
			if v == nil {
				*p = nil
			} else {
				*p = v.(*time.Time)
			}
		}
	}
	return nil
}

type noRows struct {
	pgx.Rows
}

func (*noRows) Next() bool { return false }
func (*noRows) Close()     {}
func (*noRows) Err() error { return nil }

func TestSubmit(t *testing.T) {
	t.Run("when an item rewrites a cached record, it should refresh the shared cache", func(t *testing.T) {
		ctx := context.Background()
		logger := log.New(io.Discard, "", 0)

		key := uuid.MustParse("4a8f2b1e-9c3d-4e5f-8a7b-6c5d4e3f2a1b")
		priorVersion := uuid.MustParse("2433c7a5-1b6f-47d0-9e8a-5f4c3b2a1d0e")

		tx := &entityTx{t: t, priorVersionKey: priorVersion, nextSequence: 2}
		pool := &fakePool{t: t, tx: tx}

		records := try.To(cache.NewShared(16)).OrFatal(t)
		queries := try.To(querystore.NewMemory(8)).OrFatal(t)
		entities := entity.New(pool, records, queries, entity.DefaultRegistry(), logger)
		acts := act.New(pool, records, queries, act.DefaultRegistry(), logger)

		stale := &domain.Patient{}
		stale.Key = key
		stale.VersionKey = priorVersion
		stale.VersionSequence = 1
		stale.LoadedDepth = domain.LoadFull
		records.Put(stale)

		updated := &domain.Patient{}
		updated.Key = key
		updated.ClassKey = domain.ClassPatient

		testee := bundle.New(pool, entities, acts, records, logger)
		if _, err := testee.Submit(
			ctx, domain.Principal{UserKey: uuid.New()},
			domain.Bundle{Items: []domain.Record{updated}}, nil,
		); err != nil {
			t.Fatalf("unexpected error: %s", err)
		}
		if !tx.committed {
			t.Fatal("the bundle transaction should be committed")
		}

		cached, ok := records.Get(key)
		if !ok {
			t.Fatal("the rewritten record should stay cached")
		}
		v, ok := cached.(domain.VersionedRecord)
		if !ok {
			t.Fatalf("unexpected cached record: %+v", cached)
		}
		if v.Header().VersionKey == priorVersion {
			t.Error("the cache still serves the superseded version")
		}
		if v.Header().VersionSequence != 2 {
			t.Errorf("wrong version sequence: %d", v.Header().VersionSequence)
		}
	})

	t.Run("expansion items are not cached", func(t *testing.T) {
		ctx := context.Background()
		logger := log.New(io.Discard, "", 0)

		key := uuid.MustParse("7d6c5b4a-3e2f-4a1b-8c9d-0e1f2a3b4c5d")
		tx := &entityTx{t: t, priorVersionKey: uuid.New(), nextSequence: 2}
		pool := &fakePool{t: t, tx: tx}

		records := try.To(cache.NewShared(16)).OrFatal(t)
		queries := try.To(querystore.NewMemory(8)).OrFatal(t)
		entities := entity.New(pool, records, queries, entity.DefaultRegistry(), logger)
		acts := act.New(pool, records, queries, act.DefaultRegistry(), logger)

		reference := &domain.Patient{}
		reference.Key = key

		testee := bundle.New(pool, entities, acts, records, logger)
		if _, err := testee.Submit(
			ctx, domain.Principal{UserKey: uuid.New()},
			domain.Bundle{
				Items:         []domain.Record{reference},
				ExpansionKeys: []uuid.UUID{key},
			}, nil,
		); err != nil {
			t.Fatalf("unexpected error: %s", err)
		}

		if _, ok := records.Get(key); ok {
			t.Error("an expansion item should not land in the cache")
		}
	})
}
