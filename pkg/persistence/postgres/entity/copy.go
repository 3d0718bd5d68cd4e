package entity

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	cpool "github.com/carestack/cdr/pkg/conn/db/postgres/pool"
)

// Copy replicates the identities and everything they depend on into dest:
// the users and provenance rows stamped on them, the identity domains of
// their identifiers, their relationship targets, then the rows themselves.
// Re-copying an identity already present on dest is a no-op per row.
func (s *Store) Copy(ctx context.Context, keys []uuid.UUID, dest cpool.Pool) error {
	conn, err := s.pool.Acquire(ctx)
	if err != nil {
		return err
	}
	defer conn.Release()

	ordered, err := s.dependencyOrder(ctx, conn, keys)
	if err != nil {
		return err
	}

	tx, err := dest.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	var maxSequence int64
	for _, key := range ordered {
		seq, err := s.copyOne(ctx, conn, tx, key)
		if err != nil {
			return err
		}
		if maxSequence < seq {
			maxSequence = seq
		}
	}

	if maxSequence > 0 {
		if err := shape.AdvanceSequence(ctx, tx, maxSequence); err != nil {
			return err
		}
	}

	return tx.Commit(ctx)
}

// dependencyOrder expands keys with their active relationship targets,
// transitively, and orders the result so every target precedes its sources.
func (s *Store) dependencyOrder(ctx context.Context, conn cpool.Queryer, keys []uuid.UUID) ([]uuid.UUID, error) {
	ordered := []uuid.UUID{}
	state := map[uuid.UUID]int{} // 0 unseen, 1 visiting, 2 done

	var visit func(key uuid.UUID) error
	visit = func(key uuid.UUID) error {
		switch state[key] {
		case 1:
			// relationship cycles exist (organizations owning each other);
			// rows carry no FK between roots, so any order within the cycle works
			return nil
		case 2:
			return nil
		}
		state[key] = 1

		rows, err := conn.Query(
			ctx,
			`SELECT DISTINCT "trg_ent_id" FROM "ent_rel_tbl"
			 WHERE "src_ent_id" = $1 AND "obslt_vrsn_seq_id" IS NULL`,
			key,
		)
		if err != nil {
			return err
		}
		targets := []uuid.UUID{}
		for rows.Next() {
			var t uuid.UUID
			if err := rows.Scan(&t); err != nil {
				rows.Close()
				return err
			}
			targets = append(targets, t)
		}
		rows.Close()
		if err := rows.Err(); err != nil {
			return err
		}

		for _, t := range targets {
			if err := visit(t); err != nil {
				return err
			}
		}

		state[key] = 2
		ordered = append(ordered, key)
		return nil
	}

	for _, key := range keys {
		if err := visit(key); err != nil {
			return nil, err
		}
	}
	return ordered, nil
}

// copyRows replicates the rows of one table matching the where clause,
// column-for-column. Rows already on dest stay as they are.
func copyRows(
	ctx context.Context, src cpool.Queryer, dst cpool.Queryer,
	table string, where string, args ...any,
) error {
	rows, err := src.Query(
		ctx,
		fmt.Sprintf(`SELECT * FROM "%s" WHERE %s`, table, where),
		args...,
	)
	if err != nil {
		return err
	}
	defer rows.Close()

	columns := []string{}
	for _, fd := range rows.FieldDescriptions() {
		columns = append(columns, `"`+string(fd.Name)+`"`)
	}
	placeholders := make([]string, len(columns))
	for nth := range placeholders {
		placeholders[nth] = fmt.Sprintf("$%d", nth+1)
	}
	insert := fmt.Sprintf(
		`INSERT INTO "%s" (%s) VALUES (%s) ON CONFLICT DO NOTHING`,
		table, strings.Join(columns, ", "), strings.Join(placeholders, ", "),
	)

	for rows.Next() {
		values, err := rows.Values()
		if err != nil {
			return err
		}
		if _, err := dst.Exec(ctx, insert, values...); err != nil {
			return err
		}
	}
	return rows.Err()
}

var subtypeTables = []string{"psn_tbl", "pat_tbl", "pvdr_tbl", "plc_tbl", "org_tbl", "mat_tbl"}

// conceptKeys selects every cd_tbl key the copied rows point at through their
// class, status and type columns.
const conceptKeys = `SELECT "cls_cd" FROM "ent_tbl" WHERE "ent_id" = $1
			UNION SELECT "sts_cd" FROM "ent_vrsn_tbl" WHERE "ent_id" = $1
			UNION SELECT "typ_cd" FROM "ent_vrsn_tbl" WHERE "ent_id" = $1 AND "typ_cd" IS NOT NULL`

func (s *Store) copyOne(ctx context.Context, src cpool.Queryer, dst cpool.Queryer, key uuid.UUID) (maxSequence int64, err error) {
	// principals stamped on the rows come first: users, then provenance.
	// Concept rows carry their own provenance stamp, so theirs come along.
	provenanceKeys := fmt.Sprintf(
		`SELECT "crt_prov_id" FROM "ent_tbl" WHERE "ent_id" = $1
			UNION SELECT "crt_prov_id" FROM "ent_vrsn_tbl" WHERE "ent_id" = $1
			UNION SELECT "obslt_prov_id" FROM "ent_vrsn_tbl" WHERE "ent_id" = $1 AND "obslt_prov_id" IS NOT NULL
			UNION SELECT "crt_prov_id" FROM "cd_tbl" WHERE "cd_id" IN (%s)`,
		conceptKeys,
	)
	if err := copyRows(
		ctx, src, dst, "sec_usr_tbl",
		fmt.Sprintf(
			`"usr_id" IN (
			SELECT p."usr_id" FROM "sec_prov_tbl" p
			WHERE p."prov_id" IN (%s)
		)`,
			provenanceKeys,
		),
		key,
	); err != nil {
		return 0, err
	}
	if err := copyRows(
		ctx, src, dst, "sec_prov_tbl",
		fmt.Sprintf(`"prov_id" IN (%s)`, provenanceKeys),
		key,
	); err != nil {
		return 0, err
	}

	// the vocabulary behind the class, status and type columns
	if err := copyRows(
		ctx, src, dst, "cd_tbl",
		fmt.Sprintf(`"cd_id" IN (%s)`, conceptKeys),
		key,
	); err != nil {
		return 0, err
	}

	if err := copyRows(
		ctx, src, dst, "id_dmn_tbl",
		`"dmn_id" IN (SELECT "dmn_id" FROM "ent_id_tbl" WHERE "ent_id" = $1)`,
		key,
	); err != nil {
		return 0, err
	}

	if err := copyRows(ctx, src, dst, "ent_tbl", `"ent_id" = $1`, key); err != nil {
		return 0, err
	}
	// versions in sequence order so replaced-by backlinks resolve
	if err := copyRows(
		ctx, src, dst, "ent_vrsn_tbl",
		`"ent_id" = $1 ORDER BY "vrsn_seq"`, key,
	); err != nil {
		return 0, err
	}
	for _, table := range subtypeTables {
		if err := copyRows(
			ctx, src, dst, table,
			`"vrsn_id" IN (SELECT "vrsn_id" FROM "ent_vrsn_tbl" WHERE "ent_id" = $1)`,
			key,
		); err != nil {
			return 0, err
		}
	}

	if err := copyRows(ctx, src, dst, "ent_id_tbl", `"ent_id" = $1`, key); err != nil {
		return 0, err
	}
	if err := s.copyStructured(ctx, src, dst, key, "ent_name_tbl", "name_cmp_tbl", "phon_val_tbl"); err != nil {
		return 0, err
	}
	if err := s.copyStructured(ctx, src, dst, key, "ent_addr_tbl", "addr_cmp_tbl", "addr_val_tbl"); err != nil {
		return 0, err
	}
	if err := copyRows(ctx, src, dst, "ent_rel_tbl", `"src_ent_id" = $1`, key); err != nil {
		return 0, err
	}
	if err := copyRows(ctx, src, dst, "ent_tag_tbl", `"ent_id" = $1`, key); err != nil {
		return 0, err
	}
	if err := copyRows(ctx, src, dst, "ent_note_tbl", `"ent_id" = $1`, key); err != nil {
		return 0, err
	}
	if err := copyRows(ctx, src, dst, "ent_ext_tbl", `"ent_id" = $1`, key); err != nil {
		return 0, err
	}

	err = src.QueryRow(
		ctx,
		`SELECT coalesce(max("vrsn_seq"), 0) FROM "ent_vrsn_tbl" WHERE "ent_id" = $1`,
		key,
	).Scan(&maxSequence)
	return maxSequence, err
}

// copyStructured replicates names or addresses. Component values are interned
// on the destination rather than copied, since the destination may already
// hold the value under a different key.
func (s *Store) copyStructured(
	ctx context.Context, src cpool.Queryer, dst cpool.Queryer,
	key uuid.UUID, assocTable, cmpTable, valTable string,
) error {
	if err := copyRows(ctx, src, dst, assocTable, `"ent_id" = $1`, key); err != nil {
		return err
	}

	rows, err := src.Query(
		ctx,
		fmt.Sprintf(
			`SELECT c."cmp_id", c."asoc_id", c."typ_cd", v."val", c."cmp_seq"
			 FROM "%s" c
			 JOIN "%s" v ON v."val_id" = c."val_id"
			 WHERE c."asoc_id" IN (SELECT "asoc_id" FROM "%s" WHERE "ent_id" = $1)`,
			cmpTable, valTable, assocTable,
		),
		key,
	)
	if err != nil {
		return err
	}
	defer rows.Close()

	type cmp struct {
		Key      uuid.UUID
		AssocKey uuid.UUID
		TypeKey  uuid.UUID
		Value    string
		Seq      int
	}
	cmps := []cmp{}
	for rows.Next() {
		c := cmp{}
		if err := rows.Scan(&c.Key, &c.AssocKey, &c.TypeKey, &c.Value, &c.Seq); err != nil {
			return err
		}
		cmps = append(cmps, c)
	}
	if err := rows.Err(); err != nil {
		return err
	}

	for _, c := range cmps {
		var valKey uuid.UUID
		if err := dst.QueryRow(
			ctx,
			fmt.Sprintf(
				`INSERT INTO "%s" ("val_id", "val") VALUES ($1, $2)
				 ON CONFLICT ("val") DO UPDATE SET "val" = EXCLUDED."val"
				 RETURNING "val_id"`,
				valTable,
			),
			uuid.New(), c.Value,
		).Scan(&valKey); err != nil {
			return err
		}
		if _, err := dst.Exec(
			ctx,
			fmt.Sprintf(
				`INSERT INTO "%s" ("cmp_id", "asoc_id", "typ_cd", "val_id", "cmp_seq")
				 VALUES ($1, $2, $3, $4, $5) ON CONFLICT DO NOTHING`,
				cmpTable,
			),
			c.Key, c.AssocKey, c.TypeKey, valKey, c.Seq,
		); err != nil {
			return err
		}
	}
	return nil
}
