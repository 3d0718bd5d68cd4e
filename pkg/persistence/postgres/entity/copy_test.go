package entity_test

import (
	"context"
	"io"
	"log"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/jackc/pgconn"
	"github.com/jackc/pgproto3/v2"
	"github.com/jackc/pgx/v4"

	"github.com/carestack/cdr/pkg/cache"
	cpool "github.com/carestack/cdr/pkg/conn/db/postgres/pool"
	"github.com/carestack/cdr/pkg/persistence/postgres/entity"
)

// emptyRows answers any row scan with nothing, so the replication loop walks
// every table without moving rows.
type emptyRows struct {
	pgx.Rows
}

func (*emptyRows) FieldDescriptions() []pgproto3.FieldDescription { return nil }
func (*emptyRows) Next() bool                                     { return false }
func (*emptyRows) Close()                                         {}
func (*emptyRows) Err() error                                     { return nil }

// copySource records the statements the replication reads from.
type copySource struct {
	t       *testing.T
	queries []string
}

func (c *copySource) Query(ctx context.Context, sql string, args ...interface{}) (pgx.Rows, error) {
	c.queries = append(c.queries, sql)
	return &emptyRows{}, nil
}

func (c *copySource) QueryRow(ctx context.Context, sql string, args ...interface{}) pgx.Row {
	if strings.Contains(sql, `max("vrsn_seq")`) {
		return fakeRow{vals: []any{int64(0)}}
	}
	c.t.Fatalf("unexpected query: %s", sql)
	return fakeRow{}
}

func (c *copySource) Exec(ctx context.Context, sql string, args ...interface{}) (pgconn.CommandTag, error) {
	c.t.Fatalf("the source should not be written: %s", sql)
	return nil, nil
}

func (c *copySource) Begin(ctx context.Context) (cpool.Tx, error) {
	c.t.Fatal("the source should not open a transaction")
	return nil, nil
}

func (c *copySource) Release()                       {}
func (c *copySource) Ping(ctx context.Context) error { return nil }

type sourcePool struct {
	conn *copySource
}

func (p *sourcePool) Begin(ctx context.Context) (cpool.Tx, error) {
	p.conn.t.Fatal("the source pool should only be read")
	return nil, nil
}

func (p *sourcePool) Acquire(ctx context.Context) (cpool.Conn, error) { return p.conn, nil }
func (p *sourcePool) Ping(ctx context.Context) error                  { return nil }

type destTx struct {
	committed bool
}

func (tx *destTx) Begin(ctx context.Context) (cpool.Tx, error) { return tx, nil }
func (tx *destTx) Commit(ctx context.Context) error {
	tx.committed = true
	return nil
}
func (tx *destTx) Rollback(ctx context.Context) error { return nil }
func (tx *destTx) Exec(ctx context.Context, sql string, args ...interface{}) (pgconn.CommandTag, error) {
	return nil, nil
}
func (tx *destTx) Query(ctx context.Context, sql string, args ...interface{}) (pgx.Rows, error) {
	return &emptyRows{}, nil
}
func (tx *destTx) QueryRow(ctx context.Context, sql string, args ...interface{}) pgx.Row {
	return fakeRow{}
}

type destPool struct {
	tx *destTx
}

func (p *destPool) Begin(ctx context.Context) (cpool.Tx, error) { return p.tx, nil }
func (p *destPool) Acquire(ctx context.Context) (cpool.Conn, error) {
	return nil, nil
}
func (p *destPool) Ping(ctx context.Context) error { return nil }

func TestCopy(t *testing.T) {
	t.Run("it should replicate the vocabulary the copied rows reference", func(t *testing.T) {
		ctx := context.Background()
		key := uuid.New()

		src := &copySource{t: t}
		dest := &destPool{tx: &destTx{}}

		testee := entity.New(
			&sourcePool{conn: src}, cache.Nop(), nil,
			entity.DefaultRegistry(), log.New(io.Discard, "", 0),
		)

		if err := testee.Copy(ctx, []uuid.UUID{key}, dest); err != nil {
			t.Fatal(err)
		}
		if !dest.tx.committed {
			t.Error("the replication transaction should commit")
		}

		conceptAt, rootAt := -1, -1
		for nth, sql := range src.queries {
			switch {
			case strings.Contains(sql, `SELECT * FROM "cd_tbl"`):
				conceptAt = nth
			case strings.Contains(sql, `SELECT * FROM "ent_tbl"`):
				rootAt = nth
			}
		}
		if conceptAt < 0 {
			t.Fatalf("concept rows should be read for replication, actually: %v", src.queries)
		}
		if rootAt < 0 {
			t.Fatalf("the root row should be read for replication, actually: %v", src.queries)
		}
		if rootAt < conceptAt {
			t.Error("concepts should land before the rows referencing them")
		}

		concepts := src.queries[conceptAt]
		for _, column := range []string{`"cls_cd"`, `"sts_cd"`, `"typ_cd"`} {
			if !strings.Contains(concepts, column) {
				t.Errorf("the %s column should contribute concept keys: %s", column, concepts)
			}
		}

		// the concepts' own provenance stamps come along
		for _, sql := range src.queries {
			if strings.Contains(sql, `FROM "sec_prov_tbl"`) {
				if !strings.Contains(sql, `FROM "cd_tbl"`) {
					t.Errorf("concept provenance should be replicated too: %s", sql)
				}
				return
			}
		}
		t.Error("provenance rows should be read for replication")
	})
}
