// Package concept persists coded vocabulary. Concepts are base-layer rows:
// updates rewrite in place and deletes are soft.
package concept

import (
	"context"
	"errors"
	"log"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v4"

	cpool "github.com/carestack/cdr/pkg/conn/db/postgres/pool"
	"github.com/carestack/cdr/pkg/domain"
	domerr "github.com/carestack/cdr/pkg/domain/errors"
	cpgerr "github.com/carestack/cdr/pkg/domain/errors/dberrors/postgres"
	"github.com/carestack/cdr/pkg/persistence"
)

type Store struct {
	pool   cpool.Pool
	logger *log.Logger
}

var _ persistence.ConceptStore = &Store{}

func New(pool cpool.Pool, logger *log.Logger) *Store {
	return &Store{pool: pool, logger: logger}
}

const conceptColumns = `"cd_id", "mnemonic", "cls_cd", "sts_cd", "is_sys",
	"crt_prov_id", "crt_utc", "upd_prov_id", "upd_utc", "obslt_prov_id", "obslt_utc"`

func scanConcept(row pgx.Row) (domain.Concept, error) {
	c := domain.Concept{}
	err := row.Scan(
		&c.Key, &c.Mnemonic, &c.ClassKey, &c.StatusKey, &c.IsSystemConcept,
		&c.CreatedByKey, &c.CreationTime, &c.UpdatedByKey, &c.UpdatedTime,
		&c.ObsoletedByKey, &c.ObsoletionTime,
	)
	return c, err
}

func (s *Store) Get(ctx context.Context, key uuid.UUID) (domain.Concept, error) {
	conn, err := s.pool.Acquire(ctx)
	if err != nil {
		return domain.Concept{}, err
	}
	defer conn.Release()

	c, err := scanConcept(conn.QueryRow(
		ctx, `SELECT `+conceptColumns+` FROM "cd_tbl" WHERE "cd_id" = $1`, key,
	))
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.Concept{}, cpgerr.Missing{Table: "cd_tbl", Identity: key.String()}
	}
	return c, err
}

func (s *Store) GetByMnemonic(ctx context.Context, mnemonic string) (domain.Concept, error) {
	conn, err := s.pool.Acquire(ctx)
	if err != nil {
		return domain.Concept{}, err
	}
	defer conn.Release()

	return s.getByMnemonic(ctx, conn, mnemonic)
}

func (s *Store) getByMnemonic(ctx context.Context, conn cpool.Queryer, mnemonic string) (domain.Concept, error) {
	c, err := scanConcept(conn.QueryRow(
		ctx,
		`SELECT `+conceptColumns+` FROM "cd_tbl"
		 WHERE "mnemonic" = $1 AND "obslt_utc" IS NULL`,
		mnemonic,
	))
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.Concept{}, cpgerr.Missing{Table: "cd_tbl", Identity: mnemonic}
	}
	return c, err
}

// EnsureExists resolves mnemonic to a concept key. An unknown mnemonic gets a
// stub concept so references from inbound records never dangle; the stub can
// be fleshed out by a later vocabulary import.
func (s *Store) EnsureExists(ctx context.Context, p domain.Principal, mnemonic string) (uuid.UUID, error) {
	conn, err := s.pool.Acquire(ctx)
	if err != nil {
		return uuid.Nil, err
	}
	defer conn.Release()

	c, err := s.getByMnemonic(ctx, conn, mnemonic)
	if err == nil {
		return c.Key, nil
	}
	if !errors.Is(err, domerr.ErrMissing) {
		return uuid.Nil, err
	}

	stub := domain.NewConceptStub(mnemonic)
	s.logger.Printf("concept %q is unknown; creating stub %s", mnemonic, stub.Key)

	if _, err := conn.Exec(
		ctx,
		`INSERT INTO "cd_tbl" ("cd_id", "mnemonic", "cls_cd", "sts_cd", "is_sys", "crt_prov_id")
		 VALUES ($1, $2, $3, $4, false, $5)`,
		stub.Key, stub.Mnemonic, stub.ClassKey, stub.StatusKey, p.ProvenanceKey,
	); err != nil {
		if cpgerr.IsUniqueViolation(err) {
			// lost the race to another writer; theirs wins
			c, err := s.getByMnemonic(ctx, conn, mnemonic)
			return c.Key, err
		}
		return uuid.Nil, err
	}
	return stub.Key, nil
}

func (s *Store) Insert(ctx context.Context, p domain.Principal, c domain.Concept) (domain.Concept, error) {
	conn, err := s.pool.Acquire(ctx)
	if err != nil {
		return domain.Concept{}, err
	}
	defer conn.Release()

	if c.Key == uuid.Nil {
		c.Key = uuid.New()
	}
	if c.IsSystemConcept && !p.IsSystem() {
		return domain.Concept{}, cpgerr.ReadOnly{Table: "cd_tbl", Identity: c.Mnemonic}
	}

	err = conn.QueryRow(
		ctx,
		`INSERT INTO "cd_tbl" ("cd_id", "mnemonic", "cls_cd", "sts_cd", "is_sys", "crt_prov_id")
		 VALUES ($1, $2, $3, $4, $5, $6)
		 RETURNING "crt_utc"`,
		c.Key, c.Mnemonic, c.ClassKey, c.StatusKey, c.IsSystemConcept, p.ProvenanceKey,
	).Scan(&c.CreationTime)
	if err != nil {
		if cpgerr.IsUniqueViolation(err) {
			return domain.Concept{}, cpgerr.TooMuch{Table: "cd_tbl", Identity: c.Mnemonic, Expected: 1}
		}
		return domain.Concept{}, cpgerr.AsMissing(err, c.Key.String())
	}
	c.CreatedByKey = p.ProvenanceKey
	return c, nil
}

func (s *Store) Update(ctx context.Context, p domain.Principal, c domain.Concept) (domain.Concept, error) {
	conn, err := s.pool.Acquire(ctx)
	if err != nil {
		return domain.Concept{}, err
	}
	defer conn.Release()

	stored, err := s.Get(ctx, c.Key)
	if err != nil {
		return domain.Concept{}, err
	}
	if stored.IsSystemConcept && !p.IsSystem() {
		return domain.Concept{}, cpgerr.ReadOnly{Table: "cd_tbl", Identity: stored.Mnemonic}
	}

	err = conn.QueryRow(
		ctx,
		`UPDATE "cd_tbl"
		 SET "mnemonic" = $1, "cls_cd" = $2, "sts_cd" = $3,
		     "upd_prov_id" = $4, "upd_utc" = now()
		 WHERE "cd_id" = $5 AND "obslt_utc" IS NULL
		 RETURNING "upd_utc"`,
		c.Mnemonic, c.ClassKey, c.StatusKey, p.ProvenanceKey, c.Key,
	).Scan(&c.UpdatedTime)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.Concept{}, cpgerr.Missing{Table: "cd_tbl", Identity: c.Key.String()}
	}
	if err != nil {
		return domain.Concept{}, err
	}
	c.UpdatedByKey = &p.ProvenanceKey
	c.IsSystemConcept = stored.IsSystemConcept
	return c, nil
}

func (s *Store) Obsolete(ctx context.Context, p domain.Principal, key uuid.UUID) error {
	conn, err := s.pool.Acquire(ctx)
	if err != nil {
		return err
	}
	defer conn.Release()

	stored, err := s.Get(ctx, key)
	if err != nil {
		return err
	}
	if stored.IsSystemConcept && !p.IsSystem() {
		return cpgerr.ReadOnly{Table: "cd_tbl", Identity: stored.Mnemonic}
	}

	_, err = conn.Exec(
		ctx,
		`UPDATE "cd_tbl" SET "obslt_prov_id" = $1, "obslt_utc" = now()
		 WHERE "cd_id" = $2 AND "obslt_utc" IS NULL`,
		p.ProvenanceKey, key,
	)
	return err
}
