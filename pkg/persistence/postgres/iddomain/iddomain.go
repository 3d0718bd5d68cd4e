// Package iddomain persists the assigning authorities entity identifiers are
// scoped to.
package iddomain

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v4"

	cpool "github.com/carestack/cdr/pkg/conn/db/postgres/pool"
	"github.com/carestack/cdr/pkg/domain"
	cpgerr "github.com/carestack/cdr/pkg/domain/errors/dberrors/postgres"
	"github.com/carestack/cdr/pkg/persistence"
)

type Store struct {
	pool cpool.Pool
}

var _ persistence.IdentityDomainStore = &Store{}

func New(pool cpool.Pool) *Store {
	return &Store{pool: pool}
}

func (s *Store) Get(ctx context.Context, key uuid.UUID) (domain.IdentityDomain, error) {
	return s.get(ctx, `"dmn_id" = $1`, key)
}

func (s *Store) GetByName(ctx context.Context, domainName string) (domain.IdentityDomain, error) {
	return s.get(ctx, `"dmn_name" = $1`, domainName)
}

func (s *Store) get(ctx context.Context, where string, arg any) (domain.IdentityDomain, error) {
	conn, err := s.pool.Acquire(ctx)
	if err != nil {
		return domain.IdentityDomain{}, err
	}
	defer conn.Release()

	d := domain.IdentityDomain{}
	err = conn.QueryRow(
		ctx,
		`SELECT "dmn_id", "dmn_name", "oid", "is_unq", "val_rgx",
		        "crt_prov_id", "crt_utc", "upd_prov_id", "upd_utc",
		        "obslt_prov_id", "obslt_utc"
		 FROM "id_dmn_tbl" WHERE `+where+` AND "obslt_utc" IS NULL`,
		arg,
	).Scan(
		&d.Key, &d.DomainName, &d.Oid, &d.Unique, &d.ValidationPattern,
		&d.CreatedByKey, &d.CreationTime, &d.UpdatedByKey, &d.UpdatedTime,
		&d.ObsoletedByKey, &d.ObsoletionTime,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.IdentityDomain{}, cpgerr.Missing{Table: "id_dmn_tbl", Identity: "the requested domain"}
	}
	if err != nil {
		return domain.IdentityDomain{}, err
	}

	d.ScopeKeys, err = s.keysOf(ctx, conn, `SELECT "cls_cd" FROM "id_dmn_scp_tbl" WHERE "dmn_id" = $1`, d.Key)
	if err != nil {
		return domain.IdentityDomain{}, err
	}
	d.AssignerKeys, err = s.keysOf(ctx, conn, `SELECT "app_id" FROM "id_dmn_asgn_tbl" WHERE "dmn_id" = $1`, d.Key)
	if err != nil {
		return domain.IdentityDomain{}, err
	}
	return d, nil
}

func (s *Store) keysOf(ctx context.Context, conn cpool.Queryer, query string, dmnKey uuid.UUID) ([]uuid.UUID, error) {
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

func (s *Store) List(ctx context.Context) ([]domain.IdentityDomain, error) {
	conn, err := s.pool.Acquire(ctx)
	if err != nil {
		return nil, err
	}
	defer conn.Release()

	rows, err := conn.Query(
		ctx,
		`SELECT "dmn_id", "dmn_name", "oid", "is_unq", "val_rgx"
		 FROM "id_dmn_tbl" WHERE "obslt_utc" IS NULL ORDER BY "dmn_name"`,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	domains := []domain.IdentityDomain{}
	for rows.Next() {
		d := domain.IdentityDomain{}
		if err := rows.Scan(&d.Key, &d.DomainName, &d.Oid, &d.Unique, &d.ValidationPattern); err != nil {
			return nil, err
		}
		domains = append(domains, d)
	}
	return domains, rows.Err()
}

func (s *Store) Insert(ctx context.Context, p domain.Principal, d domain.IdentityDomain) (domain.IdentityDomain, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return domain.IdentityDomain{}, err
	}
	defer tx.Rollback(ctx)

	if d.Key == uuid.Nil {
		d.Key = uuid.New()
	}

	err = tx.QueryRow(
		ctx,
		`INSERT INTO "id_dmn_tbl" ("dmn_id", "dmn_name", "oid", "is_unq", "val_rgx", "crt_prov_id")
		 VALUES ($1, $2, $3, $4, $5, $6)
		 RETURNING "crt_utc"`,
		d.Key, d.DomainName, d.Oid, d.Unique, d.ValidationPattern, p.ProvenanceKey,
	).Scan(&d.CreationTime)
	if err != nil {
		if cpgerr.IsUniqueViolation(err) {
			return domain.IdentityDomain{}, cpgerr.TooMuch{
				Table: "id_dmn_tbl", Identity: d.DomainName, Expected: 1,
			}
		}
		return domain.IdentityDomain{}, cpgerr.AsMissing(err, d.DomainName)
	}

	for _, scope := range d.ScopeKeys {
		if _, err := tx.Exec(
			ctx,
			`INSERT INTO "id_dmn_scp_tbl" ("dmn_id", "cls_cd") VALUES ($1, $2)`,
			d.Key, scope,
		); err != nil {
			return domain.IdentityDomain{}, err
		}
	}
	for _, assigner := range d.AssignerKeys {
		if _, err := tx.Exec(
			ctx,
			`INSERT INTO "id_dmn_asgn_tbl" ("dmn_id", "app_id") VALUES ($1, $2)`,
			d.Key, assigner,
		); err != nil {
			return domain.IdentityDomain{}, err
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return domain.IdentityDomain{}, err
	}
	d.CreatedByKey = p.ProvenanceKey
	return d, nil
}
