package entity_test

import (
	"bytes"
	"context"
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
	"github.com/carestack/cdr/pkg/persistence/postgres/entity"
)

// chainConn serves the version chain of a single identity and records every
// statement it executes. It stands in for a pooled connection and for a
// transaction alike.
type chainConn struct {
	t *testing.T

	versionKey  uuid.UUID
	versionKeys []uuid.UUID

	// when set, the newest version row scans as closed until an update
	// reopens it
	obsoletedBy *uuid.UUID
	obsoletedAt *time.Time

	execs     []string
	committed bool
}

func (c *chainConn) Begin(ctx context.Context) (cpool.Tx, error) { return c, nil }

func (c *chainConn) Commit(ctx context.Context) error {
	c.committed = true
	return nil
}

func (c *chainConn) Rollback(ctx context.Context) error { return nil }
func (c *chainConn) Release()                           {}
func (c *chainConn) Ping(ctx context.Context) error     { return nil }

func (c *chainConn) Exec(ctx context.Context, sql string, args ...interface{}) (pgconn.CommandTag, error) {
	c.execs = append(c.execs, sql)
	if strings.Contains(sql, `SET "obslt_prov_id" = NULL`) {
		c.obsoletedBy = nil
		c.obsoletedAt = nil
	}
	return nil, nil
}

func (c *chainConn) Query(ctx context.Context, sql string, args ...interface{}) (pgx.Rows, error) {
	if strings.Contains(sql, `SELECT "vrsn_id"`) {
		return &versionRows{keys: c.versionKeys}, nil
	}
	return &versionRows{}, nil
}

func (c *chainConn) QueryRow(ctx context.Context, sql string, args ...interface{}) pgx.Row {
	switch {
	case strings.Contains(sql, `"cls_cd", "rd_only"`):
		return fakeRow{vals: []any{domain.ClassEntity, false}}
	case strings.Contains(sql, `"rd_only"`):
		return fakeRow{vals: []any{false}}
	case strings.Contains(sql, `RETURNING "vrsn_seq", "crt_utc"`):
		return fakeRow{vals: []any{int64(1), time.Now()}}
	case strings.Contains(sql, `("obslt_utc" IS NULL) DESC`):
		return fakeRow{vals: []any{
			c.versionKey, int64(3), domain.StatusNew, nil, nil,
			uuid.New(), time.Now(), c.obsoletedBy, c.obsoletedAt,
		}}
	}
	c.t.Fatalf("unexpected query: %s", sql)
	return fakeRow{}
}

func (c *chainConn) executed(fragment string) bool {
	for _, sql := range c.execs {
		if strings.Contains(sql, fragment) {
			return true
		}
	}
	return false
}

type chainPool struct {
	conn *chainConn
}

func (p *chainPool) Begin(ctx context.Context) (cpool.Tx, error)     { return p.conn, nil }
func (p *chainPool) Acquire(ctx context.Context) (cpool.Conn, error) { return p.conn, nil }
func (p *chainPool) Ping(ctx context.Context) error                  { return nil }

type fakeRow struct {
	vals []any
}

func (r fakeRow) Scan(dest ...interface{}) error {
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

type versionRows struct {
	pgx.Rows
	keys []uuid.UUID
	next int
}

func (r *versionRows) Next() bool {
	if r.next >= len(r.keys) {
		return false
	}
	r.next++
	return true
}

func (r *versionRows) Scan(dest ...interface{}) error {
	*(dest[0].(*uuid.UUID)) = r.keys[r.next-1]
	return nil
}

func (r *versionRows) Close()     {}
func (r *versionRows) Err() error { return nil }

func TestPurge(t *testing.T) {
	t.Run("after erasing history, it should move the sequence back to the surviving rows", func(t *testing.T) {
		ctx := context.Background()
		key := uuid.New()

		conn := &chainConn{
			t:           t,
			versionKey:  uuid.New(),
			versionKeys: []uuid.UUID{uuid.New(), uuid.New(), uuid.New()},
		}
		testee := entity.New(
			&chainPool{conn: conn}, cache.Nop(), nil,
			entity.DefaultRegistry(), log.New(bytes.NewBuffer(nil), "", 0),
		)

		p := domain.Principal{UserKey: uuid.New(), ProvenanceKey: uuid.New()}
		if err := testee.Purge(ctx, p, []uuid.UUID{key}); err != nil {
			t.Fatal(err)
		}

		if !conn.committed {
			t.Error("the purge transaction should commit")
		}
		if !conn.executed(`setval('ent_vrsn_seq'`) {
			t.Errorf("the version sequence should be reset, actually: %v", conn.execs)
		}
		if !conn.executed(`DELETE FROM "ent_vrsn_tbl"`) {
			t.Errorf("history should be erased, actually: %v", conn.execs)
		}
	})
}

func TestGet(t *testing.T) {
	t.Run("when every version is closed, it should reopen the newest one", func(t *testing.T) {
		ctx := context.Background()
		key := uuid.New()

		closedBy := uuid.New()
		closedAt := time.Now().Add(-time.Hour)
		conn := &chainConn{
			t:           t,
			versionKey:  uuid.New(),
			obsoletedBy: &closedBy,
			obsoletedAt: &closedAt,
		}

		logged := bytes.NewBuffer(nil)
		testee := entity.New(
			&chainPool{conn: conn}, cache.Nop(), nil,
			entity.DefaultRegistry(), log.New(logged, "", 0),
		)

		rec, err := testee.Get(ctx, key, uuid.Nil, domain.LoadHeader)
		if err != nil {
			t.Fatal(err)
		}

		if !rec.EntityBody().IsCurrent() {
			t.Error("the returned version should be current again")
		}
		if !conn.executed(`SET "obslt_prov_id" = NULL`) {
			t.Errorf("the newest version should be reopened, actually: %v", conn.execs)
		}
		if !strings.Contains(logged.String(), "no live version") {
			t.Errorf("the repair should be logged: %q", logged.String())
		}
	})

	t.Run("a live chain is served without repair", func(t *testing.T) {
		ctx := context.Background()
		key := uuid.New()

		conn := &chainConn{t: t, versionKey: uuid.New()}
		testee := entity.New(
			&chainPool{conn: conn}, cache.Nop(), nil,
			entity.DefaultRegistry(), log.New(bytes.NewBuffer(nil), "", 0),
		)

		rec, err := testee.Get(ctx, key, uuid.Nil, domain.LoadHeader)
		if err != nil {
			t.Fatal(err)
		}
		if !rec.EntityBody().IsCurrent() {
			t.Error("the current version should be served")
		}
		if conn.executed(`SET "obslt_prov_id" = NULL`) {
			t.Errorf("nothing should be rewritten, actually: %v", conn.execs)
		}
	})
}
