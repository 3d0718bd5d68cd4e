package assoc

import (
	"context"
	"errors"
	"fmt"
	"regexp"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v4"

	cpool "github.com/carestack/cdr/pkg/conn/db/postgres/pool"
	"github.com/carestack/cdr/pkg/domain"
)

// LoadIdentifiers fetches the identifiers of an entity visible at the given
// owner version sequence.
func LoadIdentifiers(
	ctx context.Context, conn cpool.Queryer, entityKey uuid.UUID, atSequence int64,
) ([]domain.EntityIdentifier, error) {
	rows, err := conn.Query(
		ctx,
		`SELECT "asoc_id", "dmn_id", "id_val", "typ_cd", "iss_utc",
		        "efft_vrsn_seq_id", "obslt_vrsn_seq_id"
		 FROM "ent_id_tbl"
		 WHERE "ent_id" = $1
		   AND "efft_vrsn_seq_id" <= $2
		   AND ("obslt_vrsn_seq_id" IS NULL OR "obslt_vrsn_seq_id" > $2)
		 ORDER BY "efft_vrsn_seq_id"`,
		entityKey, atSequence,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	idents := []domain.EntityIdentifier{}
	for rows.Next() {
		i := domain.EntityIdentifier{}
		i.SourceKey = entityKey
		if err := rows.Scan(
			&i.Key, &i.DomainKey, &i.Value, &i.TypeKey, &i.IssuedTime,
			&i.EffectiveVersionSequence, &i.ObsoleteVersionSequence,
		); err != nil {
			return nil, err
		}
		idents = append(idents, i)
	}
	return idents, rows.Err()
}

// SyncIdentifiers reconciles the stored identifiers of an entity with the
// incoming collection at a version transition to newSequence.
func SyncIdentifiers(
	ctx context.Context, conn cpool.Queryer,
	entityKey uuid.UUID, newSequence int64,
	incoming []domain.EntityIdentifier,
) error {
	existing, err := LoadIdentifiers(ctx, conn, entityKey, newSequence)
	if err != nil {
		return err
	}

	d := Plan(existing, incoming, domain.EntityIdentifier.SameIdentity, nil)

	for _, ins := range d.Insert {
		key := ins.Key
		if key == uuid.Nil {
			key = uuid.New()
		}
		if _, err := conn.Exec(
			ctx,
			`INSERT INTO "ent_id_tbl"
			 ("asoc_id", "ent_id", "dmn_id", "id_val", "typ_cd", "iss_utc", "efft_vrsn_seq_id")
			 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
			key, entityKey, ins.DomainKey, ins.Value, ins.TypeKey, ins.IssuedTime, newSequence,
		); err != nil {
			return err
		}
	}

	for _, obs := range d.Obsolete {
		if _, err := conn.Exec(
			ctx,
			`UPDATE "ent_id_tbl" SET "obslt_vrsn_seq_id" = $1 WHERE "asoc_id" = $2`,
			newSequence, obs.Key,
		); err != nil {
			return err
		}
	}

	return nil
}

// VerifyIdentities validates the incoming identifiers of an entity against
// their identity domains. It returns findings rather than failing fast so a
// caller sees every problem in one pass; the write layer aborts only on
// error-priority findings.
func VerifyIdentities(
	ctx context.Context, conn cpool.Queryer,
	p domain.Principal, entityKey uuid.UUID, classKey uuid.UUID,
	incoming []domain.EntityIdentifier,
) ([]domain.DetectedIssue, error) {
	issues := []domain.DetectedIssue{}

	for _, ident := range incoming {
		d, err := getDomain(ctx, conn, ident.DomainKey)
		if err != nil {
			if isNoRows(err) {
				issues = append(issues, domain.DetectedIssue{
					Priority: domain.IssueError,
					TypeKey:  domain.IssueInvalidIdentifier,
					Text: fmt.Sprintf(
						"identifier %q names unknown identity domain %s",
						ident.Value, ident.DomainKey,
					),
				})
				continue
			}
			return nil, err
		}

		if d.ValidationPattern != nil {
			re, err := regexp.Compile(*d.ValidationPattern)
			if err == nil && !re.MatchString(ident.Value) {
				issues = append(issues, domain.DetectedIssue{
					Priority: domain.IssueError,
					TypeKey:  domain.IssueInvalidIdentifier,
					Text: fmt.Sprintf(
						"identifier %q does not match the format of domain %s",
						ident.Value, d.DomainName,
					),
				})
			}
		}

		if !d.InScope(classKey) {
			issues = append(issues, domain.DetectedIssue{
				Priority: domain.IssueWarning,
				TypeKey:  domain.IssueIdentifierNotInScope,
				Text: fmt.Sprintf(
					"domain %s is not applicable to this class of record",
					d.DomainName,
				),
			})
		}

		if p.ApplicationKey != nil && !d.MayAssign(*p.ApplicationKey) {
			issues = append(issues, domain.DetectedIssue{
				Priority: domain.IssueError,
				TypeKey:  domain.IssueUnauthorizedAssigner,
				Text: fmt.Sprintf(
					"the requesting application may not assign identifiers in domain %s",
					d.DomainName,
				),
			})
		}

		if d.Unique {
			var holder uuid.UUID
			err := conn.QueryRow(
				ctx,
				`SELECT "ent_id" FROM "ent_id_tbl"
				 WHERE "dmn_id" = $1 AND "id_val" = $2 AND "ent_id" <> $3
				   AND "obslt_vrsn_seq_id" IS NULL
				 LIMIT 1`,
				ident.DomainKey, ident.Value, entityKey,
			).Scan(&holder)
			switch {
			case err == nil:
				issues = append(issues, domain.DetectedIssue{
					Priority: domain.IssueError,
					TypeKey:  domain.IssueDuplicateIdentifier,
					Text: fmt.Sprintf(
						"identifier %q in domain %s is already assigned to %s",
						ident.Value, d.DomainName, holder,
					),
				})
			case isNoRows(err):
				// unique, as required
			default:
				return nil, err
			}
		}
	}

	return issues, nil
}

func getDomain(ctx context.Context, conn cpool.Queryer, key uuid.UUID) (domain.IdentityDomain, error) {
	d := domain.IdentityDomain{}
	err := conn.QueryRow(
		ctx,
		`SELECT "dmn_id", "dmn_name", "oid", "is_unq", "val_rgx"
		 FROM "id_dmn_tbl" WHERE "dmn_id" = $1 AND "obslt_utc" IS NULL`,
		key,
	).Scan(&d.Key, &d.DomainName, &d.Oid, &d.Unique, &d.ValidationPattern)
	if err != nil {
		return domain.IdentityDomain{}, err
	}

	// Restriction rows decide InScope / MayAssign; a domain loaded without
	// them would verify as unrestricted.
	d.ScopeKeys, err = domainKeys(
		ctx, conn, `SELECT "cls_cd" FROM "id_dmn_scp_tbl" WHERE "dmn_id" = $1`, d.Key,
	)
	if err != nil {
		return domain.IdentityDomain{}, err
	}
	d.AssignerKeys, err = domainKeys(
		ctx, conn, `SELECT "app_id" FROM "id_dmn_asgn_tbl" WHERE "dmn_id" = $1`, d.Key,
	)
	if err != nil {
		return domain.IdentityDomain{}, err
	}
	return d, nil
}

func domainKeys(ctx context.Context, conn cpool.Queryer, query string, dmnKey uuid.UUID) ([]uuid.UUID, error) {
	rows, err := conn.Query(ctx, query, dmnKey)
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

func isNoRows(err error) bool {
	return errors.Is(err, pgx.ErrNoRows)
}
