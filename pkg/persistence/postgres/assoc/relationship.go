package assoc

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	cpool "github.com/carestack/cdr/pkg/conn/db/postgres/pool"
	"github.com/carestack/cdr/pkg/domain"
	cpgerr "github.com/carestack/cdr/pkg/domain/errors/dberrors/postgres"
	"github.com/carestack/cdr/pkg/utils/pointer"
)

// LoadRelationships fetches the relationships an entity sources, visible at
// the given owner version sequence.
func LoadRelationships(
	ctx context.Context, conn cpool.Queryer, entityKey uuid.UUID, atSequence int64,
) ([]domain.EntityRelationship, error) {
	rows, err := conn.Query(
		ctx,
		`SELECT "asoc_id", "trg_ent_id", "rel_typ_cd", "qty",
		        "efft_vrsn_seq_id", "obslt_vrsn_seq_id"
		 FROM "ent_rel_tbl"
		 WHERE "src_ent_id" = $1
		   AND "efft_vrsn_seq_id" <= $2
		   AND ("obslt_vrsn_seq_id" IS NULL OR "obslt_vrsn_seq_id" > $2)
		 ORDER BY "efft_vrsn_seq_id"`,
		entityKey, atSequence,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	rels := []domain.EntityRelationship{}
	for rows.Next() {
		r := domain.EntityRelationship{}
		r.SourceKey = entityKey
		if err := rows.Scan(
			&r.Key, &r.TargetKey, &r.TypeKey, &r.Quantity,
			&r.EffectiveVersionSequence, &r.ObsoleteVersionSequence,
		); err != nil {
			return nil, err
		}
		rels = append(rels, r)
	}
	return rels, rows.Err()
}

// SyncRelationships reconciles the stored relationships of an entity with the
// incoming collection at a version transition to newSequence.
//
// A unique violation on insert means another active row holds the (source,
// target, type) triple but was not visible to this transition: that row is
// closed with FallbackObsoleteSequence, the insert retried, and a warning
// returned so the caller can record the repair.
func SyncRelationships(
	ctx context.Context, conn cpool.Queryer,
	entityKey uuid.UUID, newSequence int64,
	incoming []domain.EntityRelationship,
) ([]domain.DetectedIssue, error) {
	for nth := range incoming {
		incoming[nth].SourceKey = entityKey
	}

	existing, err := LoadRelationships(ctx, conn, entityKey, newSequence)
	if err != nil {
		return nil, err
	}

	d := Plan(
		existing, incoming,
		domain.EntityRelationship.SameTriple,
		func(old, new domain.EntityRelationship) bool {
			return pointer.SafeDeref(old.Quantity) != pointer.SafeDeref(new.Quantity)
		},
	)

	issues := []domain.DetectedIssue{}

	for _, ins := range d.Insert {
		key := ins.Key
		if key == uuid.Nil {
			key = uuid.New()
		}
		repaired, err := insertRelationship(ctx, conn, key, ins, newSequence)
		if err != nil {
			return nil, err
		}
		if repaired {
			issues = append(issues, domain.DetectedIssue{
				Priority: domain.IssueWarning,
				TypeKey:  domain.IssueDuplicateRelationship,
				Text: fmt.Sprintf(
					"an active relationship %s -[%s]-> %s already existed and was retired",
					entityKey, ins.TypeKey, ins.TargetKey,
				),
			})
		}
	}

	for _, upd := range d.Update {
		if _, err := conn.Exec(
			ctx,
			`UPDATE "ent_rel_tbl" SET "qty" = $1
			 WHERE "src_ent_id" = $2 AND "trg_ent_id" = $3 AND "rel_typ_cd" = $4
			   AND "obslt_vrsn_seq_id" IS NULL`,
			upd.Quantity, entityKey, upd.TargetKey, upd.TypeKey,
		); err != nil {
			return nil, err
		}
	}

	for _, obs := range d.Obsolete {
		if _, err := conn.Exec(
			ctx,
			`UPDATE "ent_rel_tbl" SET "obslt_vrsn_seq_id" = $1 WHERE "asoc_id" = $2`,
			newSequence, obs.Key,
		); err != nil {
			return nil, err
		}
	}

	return issues, nil
}

func insertRelationship(
	ctx context.Context, conn cpool.Queryer,
	key uuid.UUID, rel domain.EntityRelationship, newSequence int64,
) (repaired bool, err error) {
	const insert = `INSERT INTO "ent_rel_tbl"
		 ("asoc_id", "src_ent_id", "trg_ent_id", "rel_typ_cd", "qty", "efft_vrsn_seq_id")
		 VALUES ($1, $2, $3, $4, $5, $6)`

	_, err = conn.Exec(
		ctx, insert,
		key, rel.SourceKey, rel.TargetKey, rel.TypeKey, rel.Quantity, newSequence,
	)
	if err == nil {
		return false, nil
	}
	if !cpgerr.IsUniqueViolation(err) {
		return false, cpgerr.AsMissing(err, rel.TargetKey.String())
	}

	if _, err := conn.Exec(
		ctx,
		`UPDATE "ent_rel_tbl" SET "obslt_vrsn_seq_id" = $1
		 WHERE "src_ent_id" = $2 AND "trg_ent_id" = $3 AND "rel_typ_cd" = $4
		   AND "obslt_vrsn_seq_id" IS NULL`,
		FallbackObsoleteSequence, rel.SourceKey, rel.TargetKey, rel.TypeKey,
	); err != nil {
		return false, err
	}

	if _, err := conn.Exec(
		ctx, insert,
		key, rel.SourceKey, rel.TargetKey, rel.TypeKey, rel.Quantity, newSequence,
	); err != nil {
		return false, cpgerr.AsMissing(err, rel.TargetKey.String())
	}
	return true, nil
}
