package entity

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

// baseAdapter persists the shared columns only. It serves both records of the
// generic entity class and classes no adapter is registered for.
type baseAdapter struct{}

func (baseAdapter) ClassKey() uuid.UUID      { return domain.ClassEntity }
func (baseAdapter) New() domain.EntityRecord { return &domain.Entity{} }

func (baseAdapter) InsertSubtype(context.Context, cpool.Queryer, uuid.UUID, domain.EntityRecord) error {
	return nil
}

func (baseAdapter) LoadSubtype(context.Context, cpool.Queryer, uuid.UUID, domain.EntityRecord) error {
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

// insertPerson writes the psn_tbl row shared by persons, patients and
// providers.
func insertPerson(ctx context.Context, conn cpool.Queryer, versionKey uuid.UUID, p *domain.Person) error {
	_, err := conn.Exec(
		ctx,
		`INSERT INTO "psn_tbl" ("vrsn_id", "dob", "dob_prec", "gndr_cd")
		 VALUES ($1, $2, $3, $4)`,
		versionKey, p.DateOfBirth, p.DateOfBirthPrecision, p.GenderConceptKey,
	)
	return cpgerr.AsMissing(err, versionKey.String())
}

func loadPerson(ctx context.Context, conn cpool.Queryer, versionKey uuid.UUID, p *domain.Person) error {
	err := conn.QueryRow(
		ctx,
		`SELECT "dob", "dob_prec", "gndr_cd" FROM "psn_tbl" WHERE "vrsn_id" = $1`,
		versionKey,
	).Scan(&p.DateOfBirth, &p.DateOfBirthPrecision, &p.GenderConceptKey)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil
	}
	return err
}

type personAdapter struct{}

func (personAdapter) ClassKey() uuid.UUID      { return domain.ClassPerson }
func (personAdapter) New() domain.EntityRecord { return &domain.Person{} }

func (personAdapter) InsertSubtype(ctx context.Context, conn cpool.Queryer, versionKey uuid.UUID, rec domain.EntityRecord) error {
	p, ok := rec.(*domain.Person)
	if !ok {
		return cpgerr.FormalConstraint{Reason: "a person adapter received a non-person record"}
	}
	return insertPerson(ctx, conn, versionKey, p)
}

func (personAdapter) LoadSubtype(ctx context.Context, conn cpool.Queryer, versionKey uuid.UUID, rec domain.EntityRecord) error {
	p, ok := rec.(*domain.Person)
	if !ok {
		return cpgerr.FormalConstraint{Reason: "a person adapter received a non-person record"}
	}
	return loadPerson(ctx, conn, versionKey, p)
}

func (personAdapter) DeleteSubtype(ctx context.Context, conn cpool.Queryer, versionKeys []uuid.UUID) error {
	return deleteByVersion(ctx, conn, "psn_tbl", versionKeys)
}

type patientAdapter struct{}

func (patientAdapter) ClassKey() uuid.UUID      { return domain.ClassPatient }
func (patientAdapter) New() domain.EntityRecord { return &domain.Patient{} }

func (patientAdapter) InsertSubtype(ctx context.Context, conn cpool.Queryer, versionKey uuid.UUID, rec domain.EntityRecord) error {
	pat, ok := rec.(*domain.Patient)
	if !ok {
		return cpgerr.FormalConstraint{Reason: "a patient adapter received a non-patient record"}
	}
	if err := insertPerson(ctx, conn, versionKey, &pat.Person); err != nil {
		return err
	}
	_, err := conn.Exec(
		ctx,
		`INSERT INTO "pat_tbl" ("vrsn_id", "dcsd_utc", "mb_ord", "mrtl_sts_cd", "edu_lvl_cd")
		 VALUES ($1, $2, $3, $4, $5)`,
		versionKey, pat.DeceasedDate, pat.MultipleBirthOrder, pat.MaritalStatusKey, pat.EducationLevelKey,
	)
	return cpgerr.AsMissing(err, versionKey.String())
}

func (patientAdapter) LoadSubtype(ctx context.Context, conn cpool.Queryer, versionKey uuid.UUID, rec domain.EntityRecord) error {
	pat, ok := rec.(*domain.Patient)
	if !ok {
		return cpgerr.FormalConstraint{Reason: "a patient adapter received a non-patient record"}
	}
	if err := loadPerson(ctx, conn, versionKey, &pat.Person); err != nil {
		return err
	}
	err := conn.QueryRow(
		ctx,
		`SELECT "dcsd_utc", "mb_ord", "mrtl_sts_cd", "edu_lvl_cd"
		 FROM "pat_tbl" WHERE "vrsn_id" = $1`,
		versionKey,
	).Scan(&pat.DeceasedDate, &pat.MultipleBirthOrder, &pat.MaritalStatusKey, &pat.EducationLevelKey)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil
	}
	return err
}

func (patientAdapter) DeleteSubtype(ctx context.Context, conn cpool.Queryer, versionKeys []uuid.UUID) error {
	if err := deleteByVersion(ctx, conn, "pat_tbl", versionKeys); err != nil {
		return err
	}
	return deleteByVersion(ctx, conn, "psn_tbl", versionKeys)
}

type providerAdapter struct{}

func (providerAdapter) ClassKey() uuid.UUID      { return domain.ClassProvider }
func (providerAdapter) New() domain.EntityRecord { return &domain.Provider{} }

func (providerAdapter) InsertSubtype(ctx context.Context, conn cpool.Queryer, versionKey uuid.UUID, rec domain.EntityRecord) error {
	pvdr, ok := rec.(*domain.Provider)
	if !ok {
		return cpgerr.FormalConstraint{Reason: "a provider adapter received a non-provider record"}
	}
	if err := insertPerson(ctx, conn, versionKey, &pvdr.Person); err != nil {
		return err
	}
	_, err := conn.Exec(
		ctx,
		`INSERT INTO "pvdr_tbl" ("vrsn_id", "spec_cd") VALUES ($1, $2)`,
		versionKey, pvdr.SpecialtyKey,
	)
	return cpgerr.AsMissing(err, versionKey.String())
}

func (providerAdapter) LoadSubtype(ctx context.Context, conn cpool.Queryer, versionKey uuid.UUID, rec domain.EntityRecord) error {
	pvdr, ok := rec.(*domain.Provider)
	if !ok {
		return cpgerr.FormalConstraint{Reason: "a provider adapter received a non-provider record"}
	}
	if err := loadPerson(ctx, conn, versionKey, &pvdr.Person); err != nil {
		return err
	}
	err := conn.QueryRow(
		ctx,
		`SELECT "spec_cd" FROM "pvdr_tbl" WHERE "vrsn_id" = $1`,
		versionKey,
	).Scan(&pvdr.SpecialtyKey)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil
	}
	return err
}

func (providerAdapter) DeleteSubtype(ctx context.Context, conn cpool.Queryer, versionKeys []uuid.UUID) error {
	if err := deleteByVersion(ctx, conn, "pvdr_tbl", versionKeys); err != nil {
		return err
	}
	return deleteByVersion(ctx, conn, "psn_tbl", versionKeys)
}

type placeAdapter struct{}

func (placeAdapter) ClassKey() uuid.UUID      { return domain.ClassPlace }
func (placeAdapter) New() domain.EntityRecord { return &domain.Place{} }

func (placeAdapter) InsertSubtype(ctx context.Context, conn cpool.Queryer, versionKey uuid.UUID, rec domain.EntityRecord) error {
	plc, ok := rec.(*domain.Place)
	if !ok {
		return cpgerr.FormalConstraint{Reason: "a place adapter received a non-place record"}
	}
	_, err := conn.Exec(
		ctx,
		`INSERT INTO "plc_tbl" ("vrsn_id", "mob_ind", "lat", "lng")
		 VALUES ($1, $2, $3, $4)`,
		versionKey, plc.IsMobile, plc.Lat, plc.Lng,
	)
	return cpgerr.AsMissing(err, versionKey.String())
}

func (placeAdapter) LoadSubtype(ctx context.Context, conn cpool.Queryer, versionKey uuid.UUID, rec domain.EntityRecord) error {
	plc, ok := rec.(*domain.Place)
	if !ok {
		return cpgerr.FormalConstraint{Reason: "a place adapter received a non-place record"}
	}
	err := conn.QueryRow(
		ctx,
		`SELECT "mob_ind", "lat", "lng" FROM "plc_tbl" WHERE "vrsn_id" = $1`,
		versionKey,
	).Scan(&plc.IsMobile, &plc.Lat, &plc.Lng)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil
	}
	return err
}

func (placeAdapter) DeleteSubtype(ctx context.Context, conn cpool.Queryer, versionKeys []uuid.UUID) error {
	return deleteByVersion(ctx, conn, "plc_tbl", versionKeys)
}

type organizationAdapter struct{}

func (organizationAdapter) ClassKey() uuid.UUID      { return domain.ClassOrganization }
func (organizationAdapter) New() domain.EntityRecord { return &domain.Organization{} }

func (organizationAdapter) InsertSubtype(ctx context.Context, conn cpool.Queryer, versionKey uuid.UUID, rec domain.EntityRecord) error {
	org, ok := rec.(*domain.Organization)
	if !ok {
		return cpgerr.FormalConstraint{Reason: "an organization adapter received a non-organization record"}
	}
	_, err := conn.Exec(
		ctx,
		`INSERT INTO "org_tbl" ("vrsn_id", "ind_cd") VALUES ($1, $2)`,
		versionKey, org.IndustryConceptKey,
	)
	return cpgerr.AsMissing(err, versionKey.String())
}

func (organizationAdapter) LoadSubtype(ctx context.Context, conn cpool.Queryer, versionKey uuid.UUID, rec domain.EntityRecord) error {
	org, ok := rec.(*domain.Organization)
	if !ok {
		return cpgerr.FormalConstraint{Reason: "an organization adapter received a non-organization record"}
	}
	err := conn.QueryRow(
		ctx,
		`SELECT "ind_cd" FROM "org_tbl" WHERE "vrsn_id" = $1`,
		versionKey,
	).Scan(&org.IndustryConceptKey)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil
	}
	return err
}

func (organizationAdapter) DeleteSubtype(ctx context.Context, conn cpool.Queryer, versionKeys []uuid.UUID) error {
	return deleteByVersion(ctx, conn, "org_tbl", versionKeys)
}

type materialAdapter struct{}

func (materialAdapter) ClassKey() uuid.UUID      { return domain.ClassMaterial }
func (materialAdapter) New() domain.EntityRecord { return &domain.Material{} }

func (materialAdapter) InsertSubtype(ctx context.Context, conn cpool.Queryer, versionKey uuid.UUID, rec domain.EntityRecord) error {
	mat, ok := rec.(*domain.Material)
	if !ok {
		return cpgerr.FormalConstraint{Reason: "a material adapter received a non-material record"}
	}
	_, err := conn.Exec(
		ctx,
		`INSERT INTO "mat_tbl" ("vrsn_id", "exp_utc", "frm_cd", "qty_cd", "qty")
		 VALUES ($1, $2, $3, $4, $5)`,
		versionKey, mat.ExpiryDate, mat.FormConceptKey, mat.QuantityConceptKey, mat.Quantity,
	)
	return cpgerr.AsMissing(err, versionKey.String())
}

func (materialAdapter) LoadSubtype(ctx context.Context, conn cpool.Queryer, versionKey uuid.UUID, rec domain.EntityRecord) error {
	mat, ok := rec.(*domain.Material)
	if !ok {
		return cpgerr.FormalConstraint{Reason: "a material adapter received a non-material record"}
	}
	err := conn.QueryRow(
		ctx,
		`SELECT "exp_utc", "frm_cd", "qty_cd", "qty" FROM "mat_tbl" WHERE "vrsn_id" = $1`,
		versionKey,
	).Scan(&mat.ExpiryDate, &mat.FormConceptKey, &mat.QuantityConceptKey, &mat.Quantity)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil
	}
	return err
}

func (materialAdapter) DeleteSubtype(ctx context.Context, conn cpool.Queryer, versionKeys []uuid.UUID) error {
	return deleteByVersion(ctx, conn, "mat_tbl", versionKeys)
}
