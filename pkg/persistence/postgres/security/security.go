// Package security persists accounts and provenance rows.
package security

import (
	"context"
	"errors"
	"time"

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

var _ persistence.SecurityStore = &Store{}

func New(pool cpool.Pool) *Store {
	return &Store{pool: pool}
}

const userColumns = `"usr_id", "usr_name", "pwd_hash", "email", "locked_until", "fail_login",
	"crt_prov_id", "crt_utc", "upd_prov_id", "upd_utc", "obslt_prov_id", "obslt_utc"`

func scanUser(row pgx.Row) (domain.SecurityUser, error) {
	u := domain.SecurityUser{}
	err := row.Scan(
		&u.Key, &u.UserName, &u.PasswordHash, &u.Email, &u.Lockout, &u.InvalidLoginAttempts,
		&u.CreatedByKey, &u.CreationTime, &u.UpdatedByKey, &u.UpdatedTime,
		&u.ObsoletedByKey, &u.ObsoletionTime,
	)
	return u, err
}

func (s *Store) CreateUser(ctx context.Context, p domain.Principal, u domain.SecurityUser) (domain.SecurityUser, error) {
	conn, err := s.pool.Acquire(ctx)
	if err != nil {
		return domain.SecurityUser{}, err
	}
	defer conn.Release()

	if u.Key == uuid.Nil {
		u.Key = uuid.New()
	}

	err = conn.QueryRow(
		ctx,
		`INSERT INTO "sec_usr_tbl" ("usr_id", "usr_name", "pwd_hash", "email", "crt_prov_id")
		 VALUES ($1, $2, $3, $4, $5)
		 RETURNING "crt_utc"`,
		u.Key, u.UserName, u.PasswordHash, u.Email, p.ProvenanceKey,
	).Scan(&u.CreationTime)
	if err != nil {
		if cpgerr.IsUniqueViolation(err) {
			return domain.SecurityUser{}, cpgerr.TooMuch{
				Table: "sec_usr_tbl", Identity: u.UserName, Expected: 1,
			}
		}
		return domain.SecurityUser{}, err
	}
	u.CreatedByKey = p.ProvenanceKey
	return u, nil
}

func (s *Store) GetUser(ctx context.Context, userName string) (domain.SecurityUser, error) {
	conn, err := s.pool.Acquire(ctx)
	if err != nil {
		return domain.SecurityUser{}, err
	}
	defer conn.Release()

	u, err := scanUser(conn.QueryRow(
		ctx,
		`SELECT `+userColumns+` FROM "sec_usr_tbl"
		 WHERE "usr_name" = $1 AND "obslt_utc" IS NULL`,
		userName,
	))
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.SecurityUser{}, cpgerr.Missing{Table: "sec_usr_tbl", Identity: userName}
	}
	return u, err
}

func (s *Store) ListUsers(ctx context.Context) ([]domain.SecurityUser, error) {
	conn, err := s.pool.Acquire(ctx)
	if err != nil {
		return nil, err
	}
	defer conn.Release()

	rows, err := conn.Query(
		ctx,
		`SELECT `+userColumns+` FROM "sec_usr_tbl"
		 WHERE "obslt_utc" IS NULL ORDER BY "usr_name"`,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	users := []domain.SecurityUser{}
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		users = append(users, u)
	}
	return users, rows.Err()
}

func (s *Store) SetLockout(ctx context.Context, p domain.Principal, userName string, until *time.Time) error {
	conn, err := s.pool.Acquire(ctx)
	if err != nil {
		return err
	}
	defer conn.Release()

	tag, err := conn.Exec(
		ctx,
		`UPDATE "sec_usr_tbl"
		 SET "locked_until" = $1, "fail_login" = 0, "upd_prov_id" = $2, "upd_utc" = now()
		 WHERE "usr_name" = $3 AND "obslt_utc" IS NULL`,
		until, p.ProvenanceKey, userName,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return cpgerr.Missing{Table: "sec_usr_tbl", Identity: userName}
	}
	return nil
}

// Provenance establishes the provenance row naming p as the cause of the
// writes that follow. One session gets one row; repeat calls with the same
// session reuse it.
func (s *Store) Provenance(ctx context.Context, p domain.Principal) (domain.Provenance, error) {
	conn, err := s.pool.Acquire(ctx)
	if err != nil {
		return domain.Provenance{}, err
	}
	defer conn.Release()

	if p.ProvenanceKey != uuid.Nil {
		prov := domain.Provenance{}
		err := conn.QueryRow(
			ctx,
			`SELECT "prov_id", "usr_id", "app_id", "ses_id", "est_utc"
			 FROM "sec_prov_tbl" WHERE "prov_id" = $1`,
			p.ProvenanceKey,
		).Scan(&prov.Key, &prov.UserKey, &prov.ApplicationKey, &prov.SessionKey, &prov.EstablishedTime)
		if err == nil {
			return prov, nil
		}
		if !errors.Is(err, pgx.ErrNoRows) {
			return domain.Provenance{}, err
		}
	}

	prov := domain.Provenance{
		Key:            uuid.New(),
		UserKey:        p.UserKey,
		ApplicationKey: p.ApplicationKey,
	}
	err = conn.QueryRow(
		ctx,
		`INSERT INTO "sec_prov_tbl" ("prov_id", "usr_id", "app_id")
		 VALUES ($1, $2, $3)
		 RETURNING "est_utc"`,
		prov.Key, prov.UserKey, prov.ApplicationKey,
	).Scan(&prov.EstablishedTime)
	if err != nil {
		return domain.Provenance{}, cpgerr.AsMissing(err, p.UserName)
	}
	return prov, nil
}
