package entity

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

// uuidArray binds a key set as one parameter.
func uuidArray(keys []uuid.UUID) *pgtype.UUIDArray {
	arr := &pgtype.UUIDArray{}
	// [16]byte elements cannot fail to encode
	_ = arr.Set(slices.Map(keys, func(k uuid.UUID) [16]byte { return k }))
	return arr
}

// condition accumulates WHERE clauses with positional parameters.
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

// buildCondition renders one predicate. args carries the positional
// parameters accumulated by earlier predicates of the same statement.
func buildCondition(q persistence.EntityQuery, args []any) *condition {
	c := &condition{args: args}

	c.add(`v."obslt_utc" IS NULL`)
	switch {
	case q.ObsoleteOnly:
		c.add(`v."sts_cd" IN (?, ?)`, domain.StatusObsolete, domain.StatusNullified)
	case !q.IncludeObsolete:
		// resting filter: hide logically deleted and purged records
		c.add(
			`v."sts_cd" NOT IN (?, ?, ?)`,
			domain.StatusObsolete, domain.StatusNullified, domain.StatusPurged,
		)
	}

	if len(q.Keys) > 0 {
		c.add(`v."ent_id" = ANY (?)`, uuidArray(q.Keys))
	}
	if q.ClassKey != nil {
		c.add(`e."cls_cd" = ?`, *q.ClassKey)
	}
	if q.StatusKey != nil {
		c.add(`v."sts_cd" = ?`, *q.StatusKey)
	}
	if q.NameValue != nil {
		c.add(
			`EXISTS (
				SELECT 1 FROM "ent_name_tbl" n
				JOIN "name_cmp_tbl" cm ON cm."asoc_id" = n."asoc_id"
				JOIN "phon_val_tbl" pv ON pv."val_id" = cm."val_id"
				WHERE n."ent_id" = v."ent_id"
				  AND n."obslt_vrsn_seq_id" IS NULL
				  AND pv."val" ILIKE ?
			)`,
			*q.NameValue,
		)
	}
	if q.IdentifierValue != nil || q.IdentifierDomain != nil {
		sub := &condition{args: c.args}
		sub.add(`i."ent_id" = v."ent_id"`)
		sub.add(`i."obslt_vrsn_seq_id" IS NULL`)
		if q.IdentifierValue != nil {
			sub.add(`i."id_val" = ?`, *q.IdentifierValue)
		}
		if q.IdentifierDomain != nil {
			sub.add(`d."dmn_name" = ?`, *q.IdentifierDomain)
		}
		c.args = sub.args
		c.clauses = append(c.clauses, fmt.Sprintf(
			`EXISTS (
				SELECT 1 FROM "ent_id_tbl" i
				JOIN "id_dmn_tbl" d ON d."dmn_id" = i."dmn_id"
				WHERE %s
			)`,
			sub.where(),
		))
	}

	return c
}

const fromClause = `FROM "ent_vrsn_tbl" v JOIN "ent_tbl" e ON e."ent_id" = v."ent_id"`

// unionOf combines each predicate's WHERE into one deduplicated derived
// table. Records matching any predicate appear once.
func unionOf(qs []persistence.EntityQuery) (string, []any) {
	if len(qs) == 0 {
		qs = []persistence.EntityQuery{{}}
	}

	args := []any{}
	branches := make([]string, 0, len(qs))
	for _, q := range qs {
		c := buildCondition(q, args)
		args = c.args
		branches = append(branches, fmt.Sprintf(
			`SELECT v."ent_id", v."vrsn_seq" %s WHERE %s`,
			fromClause, c.where(),
		))
	}
	return fmt.Sprintf(`(%s) u`, strings.Join(branches, " UNION ")), args
}

func (s *Store) selectKeys(
	ctx context.Context, conn cpool.Queryer, union string, args []any, offset, limit int,
) ([]uuid.UUID, error) {
	query := fmt.Sprintf(
		`SELECT u."ent_id" FROM %s ORDER BY u."vrsn_seq" DESC`, union,
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

func (s *Store) loadMany(ctx context.Context, conn cpool.Conn, keys []uuid.UUID) ([]domain.EntityRecord, error) {
	items := make([]domain.EntityRecord, 0, len(keys))
	for _, key := range keys {
		rec, err := s.load(ctx, conn, key, uuid.Nil, domain.LoadCore)
		if err != nil {
			return nil, err
		}
		items = append(items, rec)
	}
	return items, nil
}

func (s *Store) Query(ctx context.Context, qs []persistence.EntityQuery, opts persistence.QueryOptions) (persistence.EntityResult, error) {
	none := persistence.EntityResult{}

	conn, err := s.pool.Acquire(ctx)
	if err != nil {
		return none, err
	}
	defer conn.Release()

	// later pages of a frozen query read the snapshot, not the store
	if opts.QueryId != uuid.Nil && s.queries.IsRegistered(opts.QueryId) {
		keys := s.queries.GetQueryResults(opts.QueryId, opts.Offset, opts.Count)
		items, err := s.loadMany(ctx, conn, keys)
		if err != nil {
			return none, err
		}
		return persistence.EntityResult{
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
		return persistence.EntityResult{Items: items, Total: int64(len(keys))}, nil
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
		return persistence.EntityResult{Items: items, Total: total, Approximate: approximate}, nil
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
	return persistence.EntityResult{Items: items, Total: total}, nil
}
