package act

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgtype"

	cpool "github.com/carestack/cdr/pkg/conn/db/postgres/pool"
	"github.com/carestack/cdr/pkg/domain"
	"github.com/carestack/cdr/pkg/persistence"
	"github.com/carestack/cdr/pkg/persistence/postgres/engine"
	"github.com/carestack/cdr/pkg/utils/slices"
)

func uuidArray(keys []uuid.UUID) *pgtype.UUIDArray {
	arr := &pgtype.UUIDArray{}
	_ = arr.Set(slices.Map(keys, func(k uuid.UUID) [16]byte { return k }))
	return arr
}

type condition struct {
	clauses []string
	args    []any
}

func (c *condition) add(clause string, args ...any) {
	for _, a := range args {
		c.args = append(c.args, a)
		clause = strings.Replace(clause, "?", fmt.Sprintf("$%d", len(c.args)), 1)
	}
	c.clauses = append(c.clauses, clause)
}

func (c *condition) where() string {
	if len(c.clauses) == 0 {
		return "true"
	}
	return strings.Join(c.clauses, " AND ")
}

func buildCondition(q persistence.ActQuery, args []any) *condition {
	c := &condition{args: args}

	c.add(`v."obslt_utc" IS NULL`)
	switch {
	case q.ObsoleteOnly:
		c.add(`v."sts_cd" IN (?, ?)`, domain.StatusObsolete, domain.StatusNullified)
	case !q.IncludeObsolete:
		c.add(
			`v."sts_cd" NOT IN (?, ?, ?)`,
			domain.StatusObsolete, domain.StatusNullified, domain.StatusPurged,
		)
	}

	if len(q.Keys) > 0 {
		c.add(`v."act_id" = ANY (?)`, uuidArray(q.Keys))
	}
	if q.ClassKey != nil {
		c.add(`a."cls_cd" = ?`, *q.ClassKey)
	}
	if q.MoodKey != nil {
		c.add(`a."mod_cd" = ?`, *q.MoodKey)
	}
	if q.StatusKey != nil {
		c.add(`v."sts_cd" = ?`, *q.StatusKey)
	}
	if q.PatientKey != nil {
		c.add(
			`EXISTS (
				SELECT 1 FROM "act_ptcpt_tbl" pt
				WHERE pt."act_id" = v."act_id"
				  AND pt."rol_cd" = ?
				  AND pt."ent_id" = ?
				  AND pt."obslt_vrsn_seq_id" IS NULL
			)`,
			domain.ParticipationRecordTarget, *q.PatientKey,
		)
	}
	if q.From != nil {
		c.add(`coalesce(v."act_utc", v."act_start_utc", v."crt_utc") >= ?`, *q.From)
	}
	if q.To != nil {
		c.add(`coalesce(v."act_utc", v."act_stop_utc", v."crt_utc") <= ?`, *q.To)
	}

	return c
}

const fromClause = `FROM "act_vrsn_tbl" v JOIN "act_tbl" a ON a."act_id" = v."act_id"`

// unionOf combines each predicate's WHERE into one deduplicated derived
// table. Acts matching any predicate appear once.
func unionOf(qs []persistence.ActQuery) (string, []any) {
	if len(qs) == 0 {
		qs = []persistence.ActQuery{{}}
	}

	args := []any{}
	branches := make([]string, 0, len(qs))
	for _, q := range qs {
		c := buildCondition(q, args)
		args = c.args
		branches = append(branches, fmt.Sprintf(
			`SELECT v."act_id", v."vrsn_seq" %s WHERE %s`,
			fromClause, c.where(),
		))
	}
	return fmt.Sprintf(`(%s) u`, strings.Join(branches, " UNION ")), args
}

func (s *Store) selectKeys(
	ctx context.Context, conn cpool.Queryer, union string, args []any, offset, limit int,
) ([]uuid.UUID, error) {
	query := fmt.Sprintf(
		`SELECT u."act_id" FROM %s ORDER BY u."vrsn_seq" DESC`, union,
	)
	if offset > 0 {
		query += fmt.Sprintf(" OFFSET %d", offset)
	}
	if limit > 0 {
		query += fmt.Sprintf(" LIMIT %d", limit)
	}

	rows, err := conn.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	keys := []uuid.UUID{}
	for rows.Next() {
		var k uuid.UUID
		if err := rows.Scan(&k); err != nil {
			return nil, err
		}
		keys = append(keys, k)
	}
	return keys, rows.Err()
}

func (s *Store) countMatches(ctx context.Context, conn cpool.Queryer, union string, args []any) (int64, error) {
	var total int64
	err := conn.QueryRow(
		ctx,
		fmt.Sprintf(`SELECT count(*) FROM %s`, union),
		args...,
	).Scan(&total)
	return total, err
}

func (s *Store) loadMany(ctx context.Context, conn cpool.Conn, keys []uuid.UUID) ([]domain.ActRecord, error) {
	items := make([]domain.ActRecord, 0, len(keys))
	for _, key := range keys {
		rec, err := s.load(ctx, conn, key, uuid.Nil, domain.LoadCore)
		if err != nil {
			return nil, err
		}
		items = append(items, rec)
	}
	return items, nil
}

func (s *Store) Query(ctx context.Context, qs []persistence.ActQuery, opts persistence.QueryOptions) (persistence.ActResult, error) {
	none := persistence.ActResult{}

	conn, err := s.pool.Acquire(ctx)
	if err != nil {
		return none, err
	}
	defer conn.Release()

	if opts.QueryId != uuid.Nil && s.queries.IsRegistered(opts.QueryId) {
		keys := s.queries.GetQueryResults(opts.QueryId, opts.Offset, opts.Count)
		items, err := s.loadMany(ctx, conn, keys)
		if err != nil {
			return none, err
		}
		return persistence.ActResult{
			Items: items,
			Total: s.queries.TotalQuantity(opts.QueryId),
		}, nil
	}

	union, args := unionOf(qs)

	if opts.QueryId != uuid.Nil {
		keys, err := s.selectKeys(ctx, conn, union, args, 0, 0)
		if err != nil {
			return none, err
		}
		s.queries.RegisterQuerySet(opts.QueryId, keys, int64(len(keys)))

		page := s.queries.GetQueryResults(opts.QueryId, opts.Offset, opts.Count)
		items, err := s.loadMany(ctx, conn, page)
		if err != nil {
			return none, err
		}
		return persistence.ActResult{Items: items, Total: int64(len(keys))}, nil
	}

	if opts.FuzzyTotal && opts.Count > 0 {
		keys, err := s.selectKeys(ctx, conn, union, args, opts.Offset, engine.ProbeLimit(opts.Count))
		if err != nil {
			return none, err
		}
		total, page, approximate := engine.Total(opts.Offset, opts.Count, len(keys))
		items, err := s.loadMany(ctx, conn, keys[:page])
		if err != nil {
			return none, err
		}
		return persistence.ActResult{Items: items, Total: total, Approximate: approximate}, nil
	}

	total, err := s.countMatches(ctx, conn, union, args)
	if err != nil {
		return none, err
	}
	keys, err := s.selectKeys(ctx, conn, union, args, opts.Offset, opts.Count)
	if err != nil {
		return none, err
	}
	items, err := s.loadMany(ctx, conn, keys)
	if err != nil {
		return none, err
	}
	return persistence.ActResult{Items: items, Total: total}, nil
}
