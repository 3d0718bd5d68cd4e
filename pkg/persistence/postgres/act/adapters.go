package act

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v4"

	cpool "github.com/carestack/cdr/pkg/conn/db/postgres/pool"
	"github.com/carestack/cdr/pkg/domain"
	cpgerr "github.com/carestack/cdr/pkg/domain/errors/dberrors/postgres"
)

type baseAdapter struct{}

func (baseAdapter) ClassKey() uuid.UUID   { return domain.ClassAct }
func (baseAdapter) New() domain.ActRecord { return &domain.Act{} }

func (baseAdapter) InsertSubtype(context.Context, cpool.Queryer, uuid.UUID, domain.ActRecord) error {
	return nil
}

func (baseAdapter) LoadSubtype(context.Context, cpool.Queryer, uuid.UUID, domain.ActRecord) error {
	return nil
}

func (baseAdapter) DeleteSubtype(context.Context, cpool.Queryer, []uuid.UUID) error {
	return nil
}

func deleteByVersion(
	ctx context.Context, conn cpool.Queryer, table string, versionKeys []uuid.UUID,
) error {
	if len(versionKeys) == 0 {
		return nil
	}
	placeholders := make([]string, len(versionKeys))
	args := make([]any, len(versionKeys))
	for nth, k := range versionKeys {
		placeholders[nth] = fmt.Sprintf("$%d", nth+1)
		args[nth] = k
	}
	_, err := conn.Exec(
		ctx,
		fmt.Sprintf(
			`DELETE FROM "%s" WHERE "vrsn_id" IN (%s)`,
			table, strings.Join(placeholders, ", "),
		),
		args...,
	)
	return err
}

type observationAdapter struct{}

func (observationAdapter) ClassKey() uuid.UUID   { return domain.ClassObservation }
func (observationAdapter) New() domain.ActRecord { return &domain.Observation{} }

func (observationAdapter) InsertSubtype(ctx context.Context, conn cpool.Queryer, versionKey uuid.UUID, rec domain.ActRecord) error {
	obs, ok := rec.(*domain.Observation)
	if !ok {
		return cpgerr.FormalConstraint{Reason: "an observation adapter received a non-observation record"}
	}
	if obs.ValueType == "" {
		obs.ValueType = "ST"
	}
	_, err := conn.Exec(
		ctx,
		`INSERT INTO "obs_tbl"
		 ("vrsn_id", "int_cd", "val_typ", "qty_val", "qty_uom_cd", "cd_val", "str_val")
		 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		versionKey, obs.InterpretationKey, obs.ValueType,
		obs.QuantityValue, obs.QuantityUnit, obs.CodedValueKey, obs.StringValue,
	)
	return cpgerr.AsMissing(err, versionKey.String())
}

func (observationAdapter) LoadSubtype(ctx context.Context, conn cpool.Queryer, versionKey uuid.UUID, rec domain.ActRecord) error {
	obs, ok := rec.(*domain.Observation)
	if !ok {
		return cpgerr.FormalConstraint{Reason: "an observation adapter received a non-observation record"}
	}
	err := conn.QueryRow(
		ctx,
		`SELECT "int_cd", "val_typ", "qty_val", "qty_uom_cd", "cd_val", "str_val"
		 FROM "obs_tbl" WHERE "vrsn_id" = $1`,
		versionKey,
	).Scan(
		&obs.InterpretationKey, &obs.ValueType,
		&obs.QuantityValue, &obs.QuantityUnit, &obs.CodedValueKey, &obs.StringValue,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil
	}
	return err
}

func (observationAdapter) DeleteSubtype(ctx context.Context, conn cpool.Queryer, versionKeys []uuid.UUID) error {
	return deleteByVersion(ctx, conn, "obs_tbl", versionKeys)
}

type substanceAdministrationAdapter struct{}

func (substanceAdministrationAdapter) ClassKey() uuid.UUID {
	return domain.ClassSubstanceAdministration
}

func (substanceAdministrationAdapter) New() domain.ActRecord {
	return &domain.SubstanceAdministration{}
}

func (substanceAdministrationAdapter) InsertSubtype(ctx context.Context, conn cpool.Queryer, versionKey uuid.UUID, rec domain.ActRecord) error {
	sbadm, ok := rec.(*domain.SubstanceAdministration)
	if !ok {
		return cpgerr.FormalConstraint{Reason: "a substance administration adapter received a record of another class"}
	}
	_, err := conn.Exec(
		ctx,
		`INSERT INTO "sub_adm_tbl"
		 ("vrsn_id", "rte_cd", "dos_unt_cd", "dos_qty", "seq_id", "site_cd")
		 VALUES ($1, $2, $3, $4, $5, $6)`,
		versionKey, sbadm.RouteKey, sbadm.DoseUnitKey, sbadm.DoseQuantity, sbadm.SequenceId, sbadm.SiteKey,
	)
	return cpgerr.AsMissing(err, versionKey.String())
}

func (substanceAdministrationAdapter) LoadSubtype(ctx context.Context, conn cpool.Queryer, versionKey uuid.UUID, rec domain.ActRecord) error {
	sbadm, ok := rec.(*domain.SubstanceAdministration)
	if !ok {
		return cpgerr.FormalConstraint{Reason: "a substance administration adapter received a record of another class"}
	}
	err := conn.QueryRow(
		ctx,
		`SELECT "rte_cd", "dos_unt_cd", "dos_qty", "seq_id", "site_cd"
		 FROM "sub_adm_tbl" WHERE "vrsn_id" = $1`,
		versionKey,
	).Scan(&sbadm.RouteKey, &sbadm.DoseUnitKey, &sbadm.DoseQuantity, &sbadm.SequenceId, &sbadm.SiteKey)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil
	}
	return err
}

func (substanceAdministrationAdapter) DeleteSubtype(ctx context.Context, conn cpool.Queryer, versionKeys []uuid.UUID) error {
	return deleteByVersion(ctx, conn, "sub_adm_tbl", versionKeys)
}

type procedureAdapter struct{}

func (procedureAdapter) ClassKey() uuid.UUID   { return domain.ClassProcedure }
func (procedureAdapter) New() domain.ActRecord { return &domain.Procedure{} }

func (procedureAdapter) InsertSubtype(ctx context.Context, conn cpool.Queryer, versionKey uuid.UUID, rec domain.ActRecord) error {
	pcdr, ok := rec.(*domain.Procedure)
	if !ok {
		return cpgerr.FormalConstraint{Reason: "a procedure adapter received a non-procedure record"}
	}
	_, err := conn.Exec(
		ctx,
		`INSERT INTO "pcdr_tbl" ("vrsn_id", "mth_cd", "apr_ste_cd", "trg_ste_cd")
		 VALUES ($1, $2, $3, $4)`,
		versionKey, pcdr.MethodKey, pcdr.ApproachSiteKey, pcdr.TargetSiteKey,
	)
	return cpgerr.AsMissing(err, versionKey.String())
}

func (procedureAdapter) LoadSubtype(ctx context.Context, conn cpool.Queryer, versionKey uuid.UUID, rec domain.ActRecord) error {
	pcdr, ok := rec.(*domain.Procedure)
	if !ok {
		return cpgerr.FormalConstraint{Reason: "a procedure adapter received a non-procedure record"}
	}
	err := conn.QueryRow(
		ctx,
		`SELECT "mth_cd", "apr_ste_cd", "trg_ste_cd" FROM "pcdr_tbl" WHERE "vrsn_id" = $1`,
		versionKey,
	).Scan(&pcdr.MethodKey, &pcdr.ApproachSiteKey, &pcdr.TargetSiteKey)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil
	}
	return err
}

func (procedureAdapter) DeleteSubtype(ctx context.Context, conn cpool.Queryer, versionKeys []uuid.UUID) error {
	return deleteByVersion(ctx, conn, "pcdr_tbl", versionKeys)
}

type encounterAdapter struct{}

func (encounterAdapter) ClassKey() uuid.UUID   { return domain.ClassPatientEncounter }
func (encounterAdapter) New() domain.ActRecord { return &domain.PatientEncounter{} }

func (encounterAdapter) InsertSubtype(ctx context.Context, conn cpool.Queryer, versionKey uuid.UUID, rec domain.ActRecord) error {
	enc, ok := rec.(*domain.PatientEncounter)
	if !ok {
		return cpgerr.FormalConstraint{Reason: "an encounter adapter received a non-encounter record"}
	}
	_, err := conn.Exec(
		ctx,
		`INSERT INTO "enc_tbl" ("vrsn_id", "adm_src_cd", "dsch_dsp_cd")
		 VALUES ($1, $2, $3)`,
		versionKey, enc.AdmissionSourceKey, enc.DischargeDispositionKey,
	)
	return cpgerr.AsMissing(err, versionKey.String())
}

func (encounterAdapter) LoadSubtype(ctx context.Context, conn cpool.Queryer, versionKey uuid.UUID, rec domain.ActRecord) error {
	enc, ok := rec.(*domain.PatientEncounter)
	if !ok {
		return cpgerr.FormalConstraint{Reason: "an encounter adapter received a non-encounter record"}
	}
	err := conn.QueryRow(
		ctx,
		`SELECT "adm_src_cd", "dsch_dsp_cd" FROM "enc_tbl" WHERE "vrsn_id" = $1`,
		versionKey,
	).Scan(&enc.AdmissionSourceKey, &enc.DischargeDispositionKey)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil
	}
	return err
}

func (encounterAdapter) DeleteSubtype(ctx context.Context, conn cpool.Queryer, versionKeys []uuid.UUID) error {
	return deleteByVersion(ctx, conn, "enc_tbl", versionKeys)
}
