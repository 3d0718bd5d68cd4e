package schema

import (
	"cmp"
	"context"
	"embed"
	"errors"
	"io/fs"
	"slices"
	"strconv"
	"strings"

	"github.com/jackc/pgconn"
	"github.com/jackc/pgerrcode"
	cpool "github.com/carestack/cdr/pkg/conn/db/postgres/pool"
	"github.com/carestack/cdr/pkg/persistence"
)

//go:embed ddl/*.sql
var ddl embed.FS

type pgSchema struct {
	pool cpool.Pool
}

// New creates a Schema manager over the embedded DDL repository.
func New(pool cpool.Pool) *pgSchema {
	return &pgSchema{pool: pool}
}

type version struct {
	Version int
	Files   []string
}

func (v version) Apply(ctx context.Context, conn cpool.Queryer) error {
	for _, name := range v.Files {
		query, err := ddl.ReadFile(name)
		if err != nil {
			return err
		}
		if _, err := conn.Exec(ctx, string(query)); err != nil {
			return err
		}
	}
	return nil
}

func (s *pgSchema) Version(ctx context.Context) (int, error) {
	conn, err := s.pool.Acquire(ctx)
	if err != nil {
		return -1, err
	}
	defer conn.Release()

	var version int
	if err := conn.QueryRow(
		ctx, `SELECT max("version") FROM "schema_version"`,
	).Scan(&version); err != nil {
		if pgerr := new(pgconn.PgError); errors.As(err, &pgerr) {
			if pgerr.Code == pgerrcode.UndefinedTable {
				return 0, nil
			}
		}
		return -1, err
	}

	return version, nil
}

func (s *pgSchema) Sequences(ctx context.Context) ([]persistence.SequenceStatus, error) {
	conn, err := s.pool.Acquire(ctx)
	if err != nil {
		return nil, err
	}
	defer conn.Release()

	rows, err := conn.Query(
		ctx,
		`
		SELECT "sequencename", COALESCE("last_value", 0)
		FROM "pg_sequences"
		WHERE "schemaname" = current_schema()
		ORDER BY "sequencename"
		`,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	statuses := []persistence.SequenceStatus{}
	for rows.Next() {
		var seq persistence.SequenceStatus
		if err := rows.Scan(&seq.Name, &seq.Value); err != nil {
			return nil, err
		}
		statuses = append(statuses, seq)
	}
	return statuses, rows.Err()
}

func (s *pgSchema) Upgrade(ctx context.Context) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	schemaVersions, err := versions()
	if err != nil {
		return err
	}

	currentVersion, err := s.Version(ctx)
	if err != nil {
		return err
	}

	for _, v := range schemaVersions {
		if v.Version <= currentVersion {
			continue
		}
		if err := v.Apply(ctx, tx); err != nil {
			return err
		}
		if _, err := tx.Exec(
			ctx, `DELETE FROM "schema_version"`,
		); err != nil {
			return err
		}
		if _, err := tx.Exec(
			ctx,
			`INSERT INTO "schema_version" ("version") VALUES ($1)`,
			v.Version,
		); err != nil {
			return err
		}
	}

	return tx.Commit(ctx)
}

// versions lists the embedded DDL files grouped by their numeric prefix,
// sorted by version number.
func versions() ([]version, error) {
	entries, err := fs.ReadDir(ddl, "ddl")
	if err != nil {
		return nil, err
	}

	byVersion := map[int]*version{}
	for _, entry := range entries {
		name := entry.Name()
		if !strings.HasSuffix(name, ".sql") {
			continue
		}
		prefix, _, ok := strings.Cut(name, "_")
		if !ok {
			continue
		}
		v, err := strconv.Atoi(prefix)
		if err != nil {
			continue
		}
		if byVersion[v] == nil {
			byVersion[v] = &version{Version: v}
		}
		byVersion[v].Files = append(byVersion[v].Files, "ddl/"+name)
	}

	schemaVersions := make([]version, 0, len(byVersion))
	for _, v := range byVersion {
		slices.Sort(v.Files)
		schemaVersions = append(schemaVersions, *v)
	}
	slices.SortFunc(
		schemaVersions,
		func(i, j version) int { return cmp.Compare(i.Version, j.Version) },
	)

	return schemaVersions, nil
}
