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

// LoadParticipations fetches the participations of an act visible at the
// given owner version sequence.
func LoadParticipations(
	ctx context.Context, conn cpool.Queryer, actKey uuid.UUID, atSequence int64,
) ([]domain.ActParticipation, error) {
	rows, err := conn.Query(
		ctx,
		`SELECT "asoc_id", "ent_id", "rol_cd", "qty",
		        "efft_vrsn_seq_id", "obslt_vrsn_seq_id"
		 FROM "act_ptcpt_tbl"
		 WHERE "act_id" = $1
		   AND "efft_vrsn_seq_id" <= $2
		   AND ("obslt_vrsn_seq_id" IS NULL OR "obslt_vrsn_seq_id" > $2)
		 ORDER BY "efft_vrsn_seq_id"`,
		actKey, atSequence,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	ptcpts := []domain.ActParticipation{}
	for rows.Next() {
		p := domain.ActParticipation{}
		p.SourceKey = actKey
		if err := rows.Scan(
			&p.Key, &p.PlayerKey, &p.RoleKey, &p.Quantity,
			&p.EffectiveVersionSequence, &p.ObsoleteVersionSequence,
		); err != nil {
			return nil, err
		}
		ptcpts = append(ptcpts, p)
	}
	return ptcpts, rows.Err()
}

// SyncParticipations reconciles the stored participations of an act with the
// incoming collection at a version transition to newSequence. Conflicting
// active triples are repaired the same way SyncRelationships repairs them.
func SyncParticipations(
	ctx context.Context, conn cpool.Queryer,
	actKey uuid.UUID, newSequence int64,
	incoming []domain.ActParticipation,
) ([]domain.DetectedIssue, error) {
	for nth := range incoming {
		incoming[nth].SourceKey = actKey
	}

	existing, err := LoadParticipations(ctx, conn, actKey, newSequence)
	if err != nil {
		return nil, err
	}

	d := Plan(
		existing, incoming,
		domain.ActParticipation.SameTriple,
		func(old, new domain.ActParticipation) bool {
			return pointer.SafeDeref(old.Quantity) != pointer.SafeDeref(new.Quantity)
		},
	)

	issues := []domain.DetectedIssue{}

	for _, ins := range d.Insert {
		key := ins.Key
		if key == uuid.Nil {
			key = uuid.New()
		}
		repaired, err := insertParticipation(ctx, conn, key, ins, newSequence)
		if err != nil {
			return nil, err
		}
		if repaired {
			issues = append(issues, domain.DetectedIssue{
				Priority: domain.IssueWarning,
				TypeKey:  domain.IssueDuplicateRelationship,
				Text: fmt.Sprintf(
					"an active participation of %s as %s in act %s already existed and was retired",
					ins.PlayerKey, ins.RoleKey, actKey,
				),
			})
		}
	}

	for _, upd := range d.Update {
		if _, err := conn.Exec(
			ctx,
			`UPDATE "act_ptcpt_tbl" SET "qty" = $1
			 WHERE "act_id" = $2 AND "ent_id" = $3 AND "rol_cd" = $4
			   AND "obslt_vrsn_seq_id" IS NULL`,
			upd.Quantity, actKey, upd.PlayerKey, upd.RoleKey,
		); err != nil {
			return nil, err
		}
	}

	for _, obs := range d.Obsolete {
		if _, err := conn.Exec(
			ctx,
			`UPDATE "act_ptcpt_tbl" SET "obslt_vrsn_seq_id" = $1 WHERE "asoc_id" = $2`,
			newSequence, obs.Key,
		); err != nil {
			return nil, err
		}
	}

	return issues, nil
}

func insertParticipation(
	ctx context.Context, conn cpool.Queryer,
	key uuid.UUID, ptcpt domain.ActParticipation, newSequence int64,
) (repaired bool, err error) {
	const insert = `INSERT INTO "act_ptcpt_tbl"
		 ("asoc_id", "act_id", "ent_id", "rol_cd", "qty", "efft_vrsn_seq_id")
		 VALUES ($1, $2, $3, $4, $5, $6)`

	_, err = conn.Exec(
		ctx, insert,
		key, ptcpt.SourceKey, ptcpt.PlayerKey, ptcpt.RoleKey, ptcpt.Quantity, newSequence,
	)
	if err == nil {
		return false, nil
	}
	if !cpgerr.IsUniqueViolation(err) {
		return false, cpgerr.AsMissing(err, ptcpt.PlayerKey.String())
	}

	if _, err := conn.Exec(
		ctx,
		`UPDATE "act_ptcpt_tbl" SET "obslt_vrsn_seq_id" = $1
		 WHERE "act_id" = $2 AND "ent_id" = $3 AND "rol_cd" = $4
		   AND "obslt_vrsn_seq_id" IS NULL`,
		FallbackObsoleteSequence, ptcpt.SourceKey, ptcpt.PlayerKey, ptcpt.RoleKey,
	); err != nil {
		return false, err
	}

	if _, err := conn.Exec(
		ctx, insert,
		key, ptcpt.SourceKey, ptcpt.PlayerKey, ptcpt.RoleKey, ptcpt.Quantity, newSequence,
	); err != nil {
		return false, cpgerr.AsMissing(err, ptcpt.PlayerKey.String())
	}
	return true, nil
}
