// Package engine implements the version-chain algebra shared by the entity
// and act families. Family stores describe their tables with a Shape and
// orchestrate subtype and association rows themselves.
package engine

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v4"

	cpool "github.com/carestack/cdr/pkg/conn/db/postgres/pool"
	"github.com/carestack/cdr/pkg/domain"
	cpgerr "github.com/carestack/cdr/pkg/domain/errors/dberrors/postgres"
	"github.com/carestack/cdr/pkg/utils/slices"
)

// Shape names the tables carrying one versioned family.
type Shape struct {
	// RootTable holds one row per identity.
	RootTable string
	// RootKey is the identity key column, shared by RootTable and
	// VersionTable.
	RootKey string
	// VersionTable holds one row per version.
	VersionTable string
	// Sequence assigns the family-wide version sequence.
	Sequence string
}

// Column is a family-specific column carried alongside the shared ones.
type Column struct {
	Name  string
	Value any
}

func names(cols []Column) []string {
	return slices.Map(cols, func(c Column) string { return `"` + c.Name + `"` })
}

func values(cols []Column) []any {
	return slices.Map(cols, func(c Column) any { return c.Value })
}

func placeholders(from, n int) []string {
	ps := make([]string, n)
	for i := range ps {
		ps[i] = fmt.Sprintf("$%d", from+i)
	}
	return ps
}

// RootExists reports whether the identity has a root row.
func (s Shape) RootExists(ctx context.Context, conn cpool.Queryer, key uuid.UUID) (bool, error) {
	var found bool
	err := conn.QueryRow(
		ctx,
		fmt.Sprintf(
			`SELECT EXISTS (SELECT 1 FROM "%s" WHERE "%s" = $1)`,
			s.RootTable, s.RootKey,
		),
		key,
	).Scan(&found)
	return found, err
}

// ReadOnly reports whether the identity's root row is protected.
func (s Shape) ReadOnly(ctx context.Context, conn cpool.Queryer, key uuid.UUID) (bool, error) {
	var readOnly bool
	err := conn.QueryRow(
		ctx,
		fmt.Sprintf(
			`SELECT "rd_only" FROM "%s" WHERE "%s" = $1`,
			s.RootTable, s.RootKey,
		),
		key,
	).Scan(&readOnly)
	if errors.Is(err, pgx.ErrNoRows) {
		return false, cpgerr.Missing{Table: s.RootTable, Identity: key.String()}
	}
	return readOnly, err
}

// InsertRoot creates the identity row. extras carry family-specific columns
// such as the act mood.
func (s Shape) InsertRoot(
	ctx context.Context, conn cpool.Queryer,
	key uuid.UUID, classKey uuid.UUID, readOnly bool, provenanceKey uuid.UUID,
	extras ...Column,
) error {
	cols := append(
		[]string{`"` + s.RootKey + `"`, `"cls_cd"`, `"rd_only"`, `"crt_prov_id"`},
		names(extras)...,
	)
	args := append([]any{key, classKey, readOnly, provenanceKey}, values(extras)...)

	_, err := conn.Exec(
		ctx,
		fmt.Sprintf(
			`INSERT INTO "%s" (%s) VALUES (%s)`,
			s.RootTable,
			strings.Join(cols, ", "),
			strings.Join(placeholders(1, len(args)), ", "),
		),
		args...,
	)
	if err != nil {
		if cpgerr.IsUniqueViolation(err) {
			return cpgerr.TooMuch{Table: s.RootTable, Identity: key.String(), Expected: 1}
		}
		return cpgerr.AsMissing(err, key.String())
	}
	return nil
}

// NewVersion carries the shared fields of a version row to insert. The store
// assigns VersionSequence and CreationTime.
type NewVersion struct {
	Key                uuid.UUID
	VersionKey         uuid.UUID
	StatusKey          uuid.UUID
	TypeConceptKey     *uuid.UUID
	ReplacesVersionKey *uuid.UUID
	ProvenanceKey      uuid.UUID
	Extras             []Column
}

// InsertVersion appends a version row and returns its header with the
// store-assigned sequence and timestamp filled in.
func (s Shape) InsertVersion(
	ctx context.Context, conn cpool.Queryer, v NewVersion,
) (domain.VersionHeader, error) {
	cols := append(
		[]string{
			`"vrsn_id"`, `"` + s.RootKey + `"`, `"sts_cd"`, `"typ_cd"`,
			`"rplc_vrsn_id"`, `"crt_prov_id"`,
		},
		names(v.Extras)...,
	)
	args := append(
		[]any{v.VersionKey, v.Key, v.StatusKey, v.TypeConceptKey, v.ReplacesVersionKey, v.ProvenanceKey},
		values(v.Extras)...,
	)

	var seq int64
	var created time.Time
	err := conn.QueryRow(
		ctx,
		fmt.Sprintf(
			`INSERT INTO "%s" (%s) VALUES (%s) RETURNING "vrsn_seq", "crt_utc"`,
			s.VersionTable,
			strings.Join(cols, ", "),
			strings.Join(placeholders(1, len(args)), ", "),
		),
		args...,
	).Scan(&seq, &created)
	if err != nil {
		if cpgerr.IsUniqueViolation(err) {
			return domain.VersionHeader{}, cpgerr.TooMuch{
				Table: s.VersionTable, Identity: v.Key.String(), Expected: 1,
			}
		}
		return domain.VersionHeader{}, cpgerr.AsMissing(err, v.Key.String())
	}

	return domain.VersionHeader{
		Key:                v.Key,
		VersionKey:         v.VersionKey,
		VersionSequence:    seq,
		ReplacesVersionKey: v.ReplacesVersionKey,
		StatusKey:          v.StatusKey,
		CreatedByKey:       v.ProvenanceKey,
		CreationTime:       created,
		LoadedDepth:        domain.LoadHeader,
	}, nil
}

const headerColumns = `"vrsn_id", "vrsn_seq", "sts_cd", "typ_cd", "rplc_vrsn_id", ` +
	`"crt_prov_id", "crt_utc", "obslt_prov_id", "obslt_utc"`

func (s Shape) scanHeader(row pgx.Row, key uuid.UUID) (domain.VersionHeader, *uuid.UUID, error) {
	h := domain.VersionHeader{Key: key, LoadedDepth: domain.LoadHeader}
	var typeConcept *uuid.UUID
	err := row.Scan(
		&h.VersionKey, &h.VersionSequence, &h.StatusKey, &typeConcept,
		&h.ReplacesVersionKey,
		&h.CreatedByKey, &h.CreationTime, &h.ObsoletedByKey, &h.ObsoletionTime,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return h, nil, cpgerr.Missing{Table: s.VersionTable, Identity: key.String()}
	}
	return h, typeConcept, err
}

// CurrentHeader fetches the live version of the identity.
//
// When no row has a nil obsoletion time (an interrupted purge or a torn
// update closed every version), the highest-sequence version is reopened in
// place so the chain regains a current version. healed reports that repair;
// callers log it.
func (s Shape) CurrentHeader(
	ctx context.Context, conn cpool.Queryer, key uuid.UUID,
) (domain.VersionHeader, *uuid.UUID, bool, error) {
	row := conn.QueryRow(
		ctx,
		fmt.Sprintf(
			`SELECT %s FROM "%s" WHERE "%s" = $1
			 ORDER BY ("obslt_utc" IS NULL) DESC, "vrsn_seq" DESC LIMIT 1`,
			headerColumns, s.VersionTable, s.RootKey,
		),
		key,
	)
	header, typeConcept, err := s.scanHeader(row, key)
	if err != nil || header.ObsoletionTime == nil {
		return header, typeConcept, false, err
	}

	if _, err := conn.Exec(
		ctx,
		fmt.Sprintf(
			`UPDATE "%s" SET "obslt_prov_id" = NULL, "obslt_utc" = NULL
			 WHERE "vrsn_id" = $1`,
			s.VersionTable,
		),
		header.VersionKey,
	); err != nil {
		return header, typeConcept, false, err
	}
	header.ObsoletedByKey = nil
	header.ObsoletionTime = nil
	return header, typeConcept, true, nil
}

// HeaderByVersion fetches one specific version of the identity.
func (s Shape) HeaderByVersion(
	ctx context.Context, conn cpool.Queryer, key uuid.UUID, versionKey uuid.UUID,
) (domain.VersionHeader, *uuid.UUID, error) {
	row := conn.QueryRow(
		ctx,
		fmt.Sprintf(
			`SELECT %s FROM "%s" WHERE "%s" = $1 AND "vrsn_id" = $2`,
			headerColumns, s.VersionTable, s.RootKey,
		),
		key, versionKey,
	)
	return s.scanHeader(row, key)
}

// ObsoleteVersion closes one version row. It is a no-op for rows already
// closed, so replaying an update is harmless.
func (s Shape) ObsoleteVersion(
	ctx context.Context, conn cpool.Queryer, versionKey uuid.UUID, provenanceKey uuid.UUID,
) error {
	_, err := conn.Exec(
		ctx,
		fmt.Sprintf(
			`UPDATE "%s" SET "obslt_prov_id" = $1, "obslt_utc" = now()
			 WHERE "vrsn_id" = $2 AND "obslt_utc" IS NULL`,
			s.VersionTable,
		),
		provenanceKey, versionKey,
	)
	return err
}

// VersionKeys lists every version of the identity, oldest first.
func (s Shape) VersionKeys(
	ctx context.Context, conn cpool.Queryer, key uuid.UUID,
) ([]uuid.UUID, error) {
	rows, err := conn.Query(
		ctx,
		fmt.Sprintf(
			`SELECT "vrsn_id" FROM "%s" WHERE "%s" = $1 ORDER BY "vrsn_seq"`,
			s.VersionTable, s.RootKey,
		),
		key,
	)
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

// DetachReplacedBy clears the backlink chain of the identity so its version
// rows can be deleted in any order.
func (s Shape) DetachReplacedBy(
	ctx context.Context, conn cpool.Queryer, key uuid.UUID,
) error {
	_, err := conn.Exec(
		ctx,
		fmt.Sprintf(
			`UPDATE "%s" SET "rplc_vrsn_id" = NULL WHERE "%s" = $1`,
			s.VersionTable, s.RootKey,
		),
		key,
	)
	return err
}

// DeleteVersions removes every version row of the identity. Callers detach
// the backlink chain and remove subtype rows first.
func (s Shape) DeleteVersions(
	ctx context.Context, conn cpool.Queryer, key uuid.UUID,
) error {
	_, err := conn.Exec(
		ctx,
		fmt.Sprintf(
			`DELETE FROM "%s" WHERE "%s" = $1`,
			s.VersionTable, s.RootKey,
		),
		key,
	)
	return err
}

// InsertTombstone appends the single version row a purged identity keeps.
func (s Shape) InsertTombstone(
	ctx context.Context, conn cpool.Queryer,
	key uuid.UUID, statusKey uuid.UUID, provenanceKey uuid.UUID,
	extras ...Column,
) (domain.VersionHeader, error) {
	return s.InsertVersion(ctx, conn, NewVersion{
		Key:           key,
		VersionKey:    uuid.New(),
		StatusKey:     statusKey,
		ProvenanceKey: provenanceKey,
		Extras:        extras,
	})
}

// ResetSequence moves the family sequence back to the highest version
// sequence still stored. Purge calls it so erased history does not leave the
// generator far ahead of the surviving rows.
func (s Shape) ResetSequence(ctx context.Context, conn cpool.Queryer) error {
	_, err := conn.Exec(
		ctx,
		fmt.Sprintf(
			`SELECT setval('%s', COALESCE((SELECT max("vrsn_seq") FROM "%s"), 1))`,
			s.Sequence, s.VersionTable,
		),
	)
	return err
}

// AdvanceSequence moves the family sequence to at least the given value.
// Copy uses it so replicated rows keep their ordering on the destination.
func (s Shape) AdvanceSequence(
	ctx context.Context, conn cpool.Queryer, atLeast int64,
) error {
	_, err := conn.Exec(
		ctx,
		fmt.Sprintf(
			`SELECT setval('%s', greatest($1::bigint, (SELECT last_value FROM "%s")))`,
			s.Sequence, s.Sequence,
		),
		atLeast,
	)
	return err
}
