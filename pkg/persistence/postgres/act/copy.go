package act

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	cpool "github.com/carestack/cdr/pkg/conn/db/postgres/pool"
)

// EntityCopier replicates entities into another store. The act store calls it
// for participation players before copying the acts themselves, so the
// aggregate wires the entity store's Copy in here.
type EntityCopier func(ctx context.Context, keys []uuid.UUID, dest cpool.Pool) error

// WithEntityCopier installs the replicator for participation players.
func (s *Store) WithEntityCopier(copier EntityCopier) *Store {
	s.entityCopy = copier
	return s
}

// Copy replicates the acts and their dependencies into dest: participating
// entities first (through the installed EntityCopier), then the act rows.
// Rows already present on dest are left alone.
func (s *Store) Copy(ctx context.Context, keys []uuid.UUID, dest cpool.Pool) error {
	conn, err := s.pool.Acquire(ctx)
	if err != nil {
		return err
	}
	defer conn.Release()

	if s.entityCopy != nil {
		players, err := s.playerKeys(ctx, conn, keys)
		if err != nil {
			return err
		}
		if len(players) > 0 {
			if err := s.entityCopy(ctx, players, dest); err != nil {
				return err
			}
		}
	}

	tx, err := dest.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	var maxSequence int64
	for _, key := range keys {
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

func (s *Store) playerKeys(ctx context.Context, conn cpool.Queryer, actKeys []uuid.UUID) ([]uuid.UUID, error) {
	players := []uuid.UUID{}
	for _, key := range actKeys {
		rows, err := conn.Query(
			ctx,
			`SELECT DISTINCT "ent_id" FROM "act_ptcpt_tbl"
			 WHERE "act_id" = $1 AND "obslt_vrsn_seq_id" IS NULL`,
			key,
		)
		if err != nil {
			return nil, err
		}
		for rows.Next() {
			var p uuid.UUID
			if err := rows.Scan(&p); err != nil {
				rows.Close()
				return nil, err
			}
			players = append(players, p)
		}
		rows.Close()
		if err := rows.Err(); err != nil {
			return nil, err
		}
	}
	return players, nil
}

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

var subtypeTables = []string{"obs_tbl", "sub_adm_tbl", "pcdr_tbl", "enc_tbl"}

// conceptKeys selects every cd_tbl key the copied rows point at through their
// class, mood, status and type columns.
const conceptKeys = `SELECT "cls_cd" FROM "act_tbl" WHERE "act_id" = $1
			UNION SELECT "mod_cd" FROM "act_tbl" WHERE "act_id" = $1
			UNION SELECT "sts_cd" FROM "act_vrsn_tbl" WHERE "act_id" = $1
			UNION SELECT "typ_cd" FROM "act_vrsn_tbl" WHERE "act_id" = $1 AND "typ_cd" IS NOT NULL`

func (s *Store) copyOne(ctx context.Context, src cpool.Queryer, dst cpool.Queryer, key uuid.UUID) (maxSequence int64, err error) {
	provenanceKeys := fmt.Sprintf(
		`SELECT "crt_prov_id" FROM "act_tbl" WHERE "act_id" = $1
			UNION SELECT "crt_prov_id" FROM "act_vrsn_tbl" WHERE "act_id" = $1
			UNION SELECT "obslt_prov_id" FROM "act_vrsn_tbl" WHERE "act_id" = $1 AND "obslt_prov_id" IS NOT NULL
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

	// the vocabulary behind the class, mood, status and type columns
	if err := copyRows(
		ctx, src, dst, "cd_tbl",
		fmt.Sprintf(`"cd_id" IN (%s)`, conceptKeys),
		key,
	); err != nil {
		return 0, err
	}

	if err := copyRows(ctx, src, dst, "act_tbl", `"act_id" = $1`, key); err != nil {
		return 0, err
	}
	if err := copyRows(
		ctx, src, dst, "act_vrsn_tbl",
		`"act_id" = $1 ORDER BY "vrsn_seq"`, key,
	); err != nil {
		return 0, err
	}
	for _, table := range subtypeTables {
		if err := copyRows(
			ctx, src, dst, table,
			`"vrsn_id" IN (SELECT "vrsn_id" FROM "act_vrsn_tbl" WHERE "act_id" = $1)`,
			key,
		); err != nil {
			return 0, err
		}
	}

	for _, table := range []string{"act_ptcpt_tbl", "act_tag_tbl", "act_note_tbl", "act_ext_tbl"} {
		if err := copyRows(ctx, src, dst, table, `"act_id" = $1`, key); err != nil {
			return 0, err
		}
	}

	err = src.QueryRow(
		ctx,
		`SELECT coalesce(max("vrsn_seq"), 0) FROM "act_vrsn_tbl" WHERE "act_id" = $1`,
		key,
	).Scan(&maxSequence)
	return maxSequence, err
}
