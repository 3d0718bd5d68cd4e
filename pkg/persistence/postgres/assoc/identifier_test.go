package assoc_test

import (
	"context"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/jackc/pgconn"
	"github.com/jackc/pgx/v4"

	"github.com/carestack/cdr/pkg/domain"
	"github.com/carestack/cdr/pkg/persistence/postgres/assoc"
)

// domainQueryer serves one identity domain and its restriction rows. The
// unique-holder lookup always answers no rows.
type domainQueryer struct {
	t      *testing.T
	domain domain.IdentityDomain
}

func (q *domainQueryer) Exec(ctx context.Context, sql string, args ...interface{}) (pgconn.CommandTag, error) {
	q.t.Fatal("Exec is not ready to be called")
	return nil, nil
}

func (q *domainQueryer) Query(ctx context.Context, sql string, args ...interface{}) (pgx.Rows, error) {
	switch {
	case strings.Contains(sql, `"id_dmn_scp_tbl"`):
		return &keyRows{keys: q.domain.ScopeKeys}, nil
	case strings.Contains(sql, `"id_dmn_asgn_tbl"`):
		return &keyRows{keys: q.domain.AssignerKeys}, nil
	}
	q.t.Fatalf("unexpected query: %s", sql)
	return nil, nil
}

func (q *domainQueryer) QueryRow(ctx context.Context, sql string, args ...interface{}) pgx.Row {
	switch {
	case strings.Contains(sql, `FROM "id_dmn_tbl"`):
		return fakeRow{vals: []any{
			q.domain.Key, q.domain.DomainName, q.domain.Oid,
			q.domain.Unique, q.domain.ValidationPattern,
		}}
	case strings.Contains(sql, `FROM "ent_id_tbl"`):
		return fakeRow{err: pgx.ErrNoRows}
	}
	q.t.Fatalf("unexpected query: %s", sql)
	return fakeRow{err: pgx.ErrNoRows}
}

type fakeRow struct {
	err  error
	vals []any
}

func (r fakeRow) Scan(dest ...interface{}) error {
	if r.err != nil {
		return r.err
	}
	for nth, d := range dest {
		switch p := d.(type) {
		case *uuid.UUID:
			*p = r.vals[nth].(uuid.UUID)
		case *string:
			*p = r.vals[nth].(string)
		case *bool:
			*p = r.vals[nth].(bool)
		case **string:
			if r.vals[nth] == nil {
				*p = nil
			} else {
				*p = r.vals[nth].(*string)
			}
		}
	}
	return nil
}

// keyRows yields one uuid column per row. Methods beyond the cursor are
// inherited unimplemented from the embedded interface.
type keyRows struct {
	pgx.Rows
	keys []uuid.UUID
	next int
}

func (r *keyRows) Next() bool {
	r.next += 1
	return r.next <= len(r.keys)
}

func (r *keyRows) Scan(dest ...interface{}) error {
	*(dest[0].(*uuid.UUID)) = r.keys[r.next-1]
	return nil
}

func (r *keyRows) Close()     {}
func (r *keyRows) Err() error { return nil }

func TestVerifyIdentities(t *testing.T) {
	ctx := context.Background()

	domainKey := uuid.MustParse("0e52a1b7-6f87-4a5e-8c4e-2f8d0f6a7f31")
	appAllowed := uuid.MustParse("5b2f0a63-9a2e-4d7a-9e9f-3e2b7c9d1a22")
	appOther := uuid.MustParse("c43d10de-8b7a-4b2c-9f5b-6a1e2d3c4b5a")
	entityKey := uuid.MustParse("9bf1a6a7-2c3d-4e5f-8a9b-0c1d2e3f4a5b")

	ident := func() []domain.EntityIdentifier {
		i := domain.EntityIdentifier{DomainKey: domainKey, Value: "MRN-0001"}
		i.SourceKey = entityKey
		return []domain.EntityIdentifier{i}
	}

	t.Run("when the domain is scoped to another class, it should warn", func(t *testing.T) {
		conn := &domainQueryer{t: t, domain: domain.IdentityDomain{
			DomainName: "hospital MRN",
			ScopeKeys:  []uuid.UUID{domain.ClassOrganization},
		}}
		conn.domain.Key = domainKey

		issues, err := assoc.VerifyIdentities(
			ctx, conn, domain.Principal{}, entityKey, domain.ClassPatient, ident(),
		)
		if err != nil {
			t.Fatalf("unexpected error: %s", err)
		}
		if len(issues) != 1 {
			t.Fatalf("wrong issues: %+v", issues)
		}
		if issues[0].Priority != domain.IssueWarning ||
			issues[0].TypeKey != domain.IssueIdentifierNotInScope {
			t.Errorf("wrong finding: %+v", issues[0])
		}
	})

	t.Run("when the domain is scoped to the entity's class, it should stay silent", func(t *testing.T) {
		conn := &domainQueryer{t: t, domain: domain.IdentityDomain{
			DomainName: "hospital MRN",
			ScopeKeys:  []uuid.UUID{domain.ClassPatient},
		}}
		conn.domain.Key = domainKey

		issues, err := assoc.VerifyIdentities(
			ctx, conn, domain.Principal{}, entityKey, domain.ClassPatient, ident(),
		)
		if err != nil {
			t.Fatalf("unexpected error: %s", err)
		}
		if len(issues) != 0 {
			t.Errorf("unexpected issues: %+v", issues)
		}
	})

	t.Run("when another application assigns in a restricted domain, it should report an error", func(t *testing.T) {
		conn := &domainQueryer{t: t, domain: domain.IdentityDomain{
			DomainName:   "hospital MRN",
			AssignerKeys: []uuid.UUID{appAllowed},
		}}
		conn.domain.Key = domainKey

		issues, err := assoc.VerifyIdentities(
			ctx, conn, domain.Principal{ApplicationKey: &appOther},
			entityKey, domain.ClassPatient, ident(),
		)
		if err != nil {
			t.Fatalf("unexpected error: %s", err)
		}
		if len(issues) != 1 {
			t.Fatalf("wrong issues: %+v", issues)
		}
		if issues[0].Priority != domain.IssueError ||
			issues[0].TypeKey != domain.IssueUnauthorizedAssigner {
			t.Errorf("wrong finding: %+v", issues[0])
		}
	})

	t.Run("when a scoped domain restricts assigners too, it should report both findings", func(t *testing.T) {
		conn := &domainQueryer{t: t, domain: domain.IdentityDomain{
			DomainName:   "hospital MRN",
			ScopeKeys:    []uuid.UUID{domain.ClassOrganization},
			AssignerKeys: []uuid.UUID{appAllowed},
		}}
		conn.domain.Key = domainKey

		issues, err := assoc.VerifyIdentities(
			ctx, conn, domain.Principal{ApplicationKey: &appOther},
			entityKey, domain.ClassPatient, ident(),
		)
		if err != nil {
			t.Fatalf("unexpected error: %s", err)
		}
		if len(issues) != 2 {
			t.Fatalf("wrong issues: %+v", issues)
		}
	})
}
