package postgres_test

import (
	"context"
	"errors"
	"io"
	"log"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/carestack/cdr/pkg/cache"
	cpool "github.com/carestack/cdr/pkg/conn/db/postgres/pool"
	"github.com/carestack/cdr/pkg/domain"
	"github.com/carestack/cdr/pkg/persistence"
	cpgentity "github.com/carestack/cdr/pkg/persistence/postgres/entity"
	cpgiddomain "github.com/carestack/cdr/pkg/persistence/postgres/iddomain"
	"github.com/carestack/cdr/pkg/persistence/postgres/testenv"
	"github.com/carestack/cdr/pkg/querystore"
	"github.com/carestack/cdr/pkg/utils/pointer"
	"github.com/carestack/cdr/pkg/utils/try"
)

func newEntityStore(t *testing.T, pool cpool.Pool) *cpgentity.Store {
	t.Helper()
	queries := try.To(querystore.NewMemory(16)).OrFatal(t)
	return cpgentity.New(
		pool, cache.Nop(), queries,
		cpgentity.DefaultRegistry(), log.New(io.Discard, "", 0),
	)
}

func officialName(family, given string) domain.EntityName {
	return domain.EntityName{
		UseKey: domain.NameUseOfficial,
		Components: []domain.NameComponent{
			{TypeKey: domain.ComponentFamily, Value: family},
			{TypeKey: domain.ComponentGiven, Value: given},
		},
	}
}

func TestEntityStore_VersionChain(t *testing.T) {
	ctx := context.Background()
	broaker := testenv.NewPoolBroaker(ctx, t)

	t.Run("rewrites keep exactly one live version", func(t *testing.T) {
		pool := broaker.GetPool(ctx, t)
		testee := newEntityStore(t, pool)
		p := domain.SystemPrincipal()

		pat := &domain.Patient{}
		pat.Names = []domain.EntityName{officialName("Dent", "Arthur")}
		inserted := try.To(testee.Insert(ctx, p, pat)).OrFatal(t)
		key := inserted.RecordKey()

		for _, given := range []string{"Arthur P.", "Arthur Philip"} {
			next := &domain.Patient{}
			next.Key = key
			next.Names = []domain.EntityName{officialName("Dent", given)}
			if _, err := testee.Update(ctx, p, next); err != nil {
				t.Fatal(err)
			}
		}

		conn := try.To(pool.Acquire(ctx)).OrFatal(t)
		defer conn.Release()

		var liveRows, allRows int64
		if err := conn.QueryRow(
			ctx,
			`SELECT count(*) FILTER (WHERE "obslt_utc" IS NULL), count(*)
			 FROM "ent_vrsn_tbl" WHERE "ent_id" = $1`,
			key,
		).Scan(&liveRows, &allRows); err != nil {
			t.Fatal(err)
		}
		if liveRows != 1 {
			t.Errorf("one live version should remain, actually %d", liveRows)
		}
		if allRows != 3 {
			t.Errorf("history should keep every version, actually %d", allRows)
		}

		got := try.To(testee.Get(ctx, key, uuid.Nil, domain.LoadFull)).OrFatal(t)
		if got.EntityBody().VersionSequence != 3 {
			t.Errorf("the current version should be the newest, actually %d", got.EntityBody().VersionSequence)
		}
		if len(got.EntityBody().Names) != 1 || got.EntityBody().Names[0].Text() != "Dent Arthur Philip" {
			t.Errorf("the current name should win: %+v", got.EntityBody().Names)
		}
	})
}

func TestEntityStore_PurgeTombstone(t *testing.T) {
	ctx := context.Background()
	broaker := testenv.NewPoolBroaker(ctx, t)

	t.Run("purge erases history down to one tombstone", func(t *testing.T) {
		pool := broaker.GetPool(ctx, t)
		testee := newEntityStore(t, pool)
		p := domain.SystemPrincipal()

		pat := &domain.Patient{}
		pat.Names = []domain.EntityName{officialName("Prefect", "Ford")}
		inserted := try.To(testee.Insert(ctx, p, pat)).OrFatal(t)
		key := inserted.RecordKey()

		next := &domain.Patient{}
		next.Key = key
		next.Names = []domain.EntityName{officialName("Prefect", "Ix")}
		try.To(testee.Update(ctx, p, next)).OrFatal(t)

		if err := testee.Purge(ctx, p, []uuid.UUID{key}); err != nil {
			t.Fatal(err)
		}

		conn := try.To(pool.Acquire(ctx)).OrFatal(t)
		defer conn.Release()

		var versions, names int64
		if err := conn.QueryRow(
			ctx,
			`SELECT count(*) FROM "ent_vrsn_tbl" WHERE "ent_id" = $1`,
			key,
		).Scan(&versions); err != nil {
			t.Fatal(err)
		}
		if versions != 1 {
			t.Fatalf("only the tombstone should remain, actually %d versions", versions)
		}
		var statusKey uuid.UUID
		var tombstoneSeq int64
		if err := conn.QueryRow(
			ctx,
			`SELECT "sts_cd", "vrsn_seq" FROM "ent_vrsn_tbl" WHERE "ent_id" = $1`,
			key,
		).Scan(&statusKey, &tombstoneSeq); err != nil {
			t.Fatal(err)
		}
		if statusKey != domain.StatusPurged {
			t.Errorf("the tombstone should carry the purged status, actually %s", statusKey)
		}

		if err := conn.QueryRow(
			ctx,
			`SELECT count(*) FROM "ent_name_tbl" WHERE "ent_id" = $1`,
			key,
		).Scan(&names); err != nil {
			t.Fatal(err)
		}
		if names != 0 {
			t.Errorf("the clinical payload should be erased, actually %d name rows", names)
		}

		// the key still resolves, and the generator follows the surviving rows
		got := try.To(testee.Get(ctx, key, uuid.Nil, domain.LoadHeader)).OrFatal(t)
		if got.EntityBody().StatusKey != domain.StatusPurged {
			t.Errorf("the key should resolve to the tombstone, actually %s", got.EntityBody().StatusKey)
		}

		var lastValue int64
		if err := conn.QueryRow(
			ctx, `SELECT last_value FROM "ent_vrsn_seq"`,
		).Scan(&lastValue); err != nil {
			t.Fatal(err)
		}
		if lastValue != tombstoneSeq {
			t.Errorf("the sequence should be pulled back to %d, actually %d", tombstoneSeq, lastValue)
		}
	})
}

func TestEntityStore_AssociationInterning(t *testing.T) {
	ctx := context.Background()
	broaker := testenv.NewPoolBroaker(ctx, t)

	t.Run("an unchanged name survives a rewrite as the same row", func(t *testing.T) {
		pool := broaker.GetPool(ctx, t)
		testee := newEntityStore(t, pool)
		p := domain.SystemPrincipal()

		pat := &domain.Patient{}
		pat.Names = []domain.EntityName{officialName("Beeblebrox", "Zaphod")}
		inserted := try.To(testee.Insert(ctx, p, pat)).OrFatal(t)
		key := inserted.RecordKey()

		loaded := try.To(testee.Get(ctx, key, uuid.Nil, domain.LoadFull)).OrFatal(t)
		next := &domain.Patient{}
		next.Key = key
		next.Names = loaded.EntityBody().Names
		try.To(testee.Update(ctx, p, next)).OrFatal(t)

		conn := try.To(pool.Acquire(ctx)).OrFatal(t)
		defer conn.Release()

		var nameRows int64
		if err := conn.QueryRow(
			ctx,
			`SELECT count(*) FROM "ent_name_tbl" WHERE "ent_id" = $1 AND "obslt_vrsn_seq_id" IS NULL`,
			key,
		).Scan(&nameRows); err != nil {
			t.Fatal(err)
		}
		if nameRows != 1 {
			t.Errorf("replaying the same name should keep one active row, actually %d", nameRows)
		}
	})

	t.Run("shared component values are interned once", func(t *testing.T) {
		pool := broaker.GetPool(ctx, t)
		testee := newEntityStore(t, pool)
		p := domain.SystemPrincipal()

		for _, given := range []string{"Arthur", "Gag"} {
			pat := &domain.Patient{}
			pat.Names = []domain.EntityName{officialName("Halfrunt", given)}
			try.To(testee.Insert(ctx, p, pat)).OrFatal(t)
		}

		conn := try.To(pool.Acquire(ctx)).OrFatal(t)
		defer conn.Release()

		var valueRows int64
		if err := conn.QueryRow(
			ctx,
			`SELECT count(*) FROM "phon_val_tbl" WHERE "val" = $1`,
			"Halfrunt",
		).Scan(&valueRows); err != nil {
			t.Fatal(err)
		}
		if valueRows != 1 {
			t.Errorf("a shared value should be stored once, actually %d rows", valueRows)
		}
	})
}

func TestEntityStore_PatientScenario(t *testing.T) {
	ctx := context.Background()
	broaker := testenv.NewPoolBroaker(ctx, t)

	t.Run("a patient round-trips with demographics, identifiers and relations", func(t *testing.T) {
		pool := broaker.GetPool(ctx, t)
		testee := newEntityStore(t, pool)
		domains := cpgiddomain.New(pool)
		p := domain.SystemPrincipal()

		mrn := try.To(domains.Insert(ctx, p, domain.IdentityDomain{
			DomainName: "HOSPITAL MRN",
			Oid:        "1.2.3.4.5",
		})).OrFatal(t)

		hospital := &domain.Organization{Entity: domain.NewEntity(domain.ClassOrganization)}
		hospital.Names = []domain.EntityName{{
			UseKey: domain.NameUseOfficial,
			Components: []domain.NameComponent{
				{TypeKey: domain.ComponentFamily, Value: "St Brutus"},
			},
		}}
		try.To(testee.Insert(ctx, p, hospital)).OrFatal(t)

		dob := time.Date(1962, time.March, 8, 0, 0, 0, 0, time.UTC)
		pat := &domain.Patient{}
		pat.DateOfBirth = &dob
		pat.DateOfBirthPrecision = pointer.Ref("D")
		pat.Names = []domain.EntityName{officialName("McMillan", "Tricia")}
		pat.Addresses = []domain.EntityAddress{{
			UseKey: domain.AddressUseHome,
			Components: []domain.AddressComponent{
				{TypeKey: domain.ComponentCity, Value: "Islington"},
				{TypeKey: domain.ComponentCountry, Value: "UK"},
			},
		}}
		pat.Identifiers = []domain.EntityIdentifier{{
			DomainKey: mrn.Key, Value: "MRN-0042",
		}}
		pat.Relationships = []domain.EntityRelationship{{
			TypeKey: domain.RelationshipDedicatedSDL, TargetKey: hospital.Key,
		}}

		inserted := try.To(testee.Insert(ctx, p, pat)).OrFatal(t)
		key := inserted.RecordKey()

		got := try.To(testee.Get(ctx, key, uuid.Nil, domain.LoadFull)).OrFatal(t)
		body := got.EntityBody()
		if _, ok := got.(*domain.Patient); !ok {
			t.Fatalf("the patient class should hydrate a *domain.Patient, actually %T", got)
		}
		if gotDob := got.(*domain.Patient).DateOfBirth; gotDob == nil || gotDob.Format("2006-01-02") != "1962-03-08" {
			t.Errorf("the date of birth should round-trip: %v", gotDob)
		}
		if len(body.Identifiers) != 1 || body.Identifiers[0].Value != "MRN-0042" {
			t.Errorf("identifiers should round-trip: %+v", body.Identifiers)
		}
		if len(body.Addresses) != 1 || len(body.Addresses[0].Components) != 2 {
			t.Errorf("addresses should round-trip: %+v", body.Addresses)
		}
		if len(body.Relationships) != 1 || body.Relationships[0].TargetKey != hospital.Key {
			t.Errorf("relationships should round-trip: %+v", body.Relationships)
		}

		found := try.To(testee.Query(
			ctx,
			[]persistence.EntityQuery{{NameValue: pointer.Ref("McMillan")}},
			persistence.QueryOptions{Count: 10},
		)).OrFatal(t)
		if found.Total != 1 || len(found.Items) != 1 || found.Items[0].RecordKey() != key {
			t.Errorf("searching the name should find the patient: %+v", found)
		}

		if err := testee.Obsolete(ctx, p, []uuid.UUID{key}); err != nil {
			t.Fatal(err)
		}
		after := try.To(testee.Query(
			ctx,
			[]persistence.EntityQuery{{NameValue: pointer.Ref("McMillan")}},
			persistence.QueryOptions{Count: 10},
		)).OrFatal(t)
		if after.Total != 0 {
			t.Errorf("a deleted patient should leave the default search, actually %d", after.Total)
		}
	})
}

func TestEntityStore_UniqueIdentityDomain(t *testing.T) {
	ctx := context.Background()
	broaker := testenv.NewPoolBroaker(ctx, t)

	t.Run("a second holder of a unique identifier is rejected", func(t *testing.T) {
		pool := broaker.GetPool(ctx, t)
		testee := newEntityStore(t, pool)
		domains := cpgiddomain.New(pool)
		p := domain.SystemPrincipal()

		ssn := try.To(domains.Insert(ctx, p, domain.IdentityDomain{
			DomainName: "NATIONAL ID",
			Oid:        "2.16.840.1",
			Unique:     true,
		})).OrFatal(t)

		first := &domain.Patient{}
		first.Names = []domain.EntityName{officialName("Dent", "Arthur")}
		first.Identifiers = []domain.EntityIdentifier{{DomainKey: ssn.Key, Value: "424242"}}
		try.To(testee.Insert(ctx, p, first)).OrFatal(t)

		second := &domain.Patient{}
		second.Names = []domain.EntityName{officialName("Prefect", "Ford")}
		second.Identifiers = []domain.EntityIdentifier{{DomainKey: ssn.Key, Value: "424242"}}
		_, err := testee.Insert(ctx, p, second)

		var issueErr domain.DetectedIssueError
		if !errors.As(err, &issueErr) {
			t.Fatalf("the duplicate should be rejected with findings, actually %v", err)
		}
		duplicate := false
		for _, issue := range issueErr.Issues {
			if issue.TypeKey == domain.IssueDuplicateIdentifier && issue.Priority == domain.IssueError {
				duplicate = true
			}
		}
		if !duplicate {
			t.Errorf("the findings should name the duplicate identifier: %+v", issueErr.Issues)
		}

		// the same holder re-asserting its identifier stays legal
		refreshed := &domain.Patient{}
		refreshed.Key = first.Key
		refreshed.Names = first.Names
		refreshed.Identifiers = []domain.EntityIdentifier{{DomainKey: ssn.Key, Value: "424242"}}
		if _, err := testee.Update(ctx, p, refreshed); err != nil {
			t.Errorf("re-asserting an owned identifier should pass: %v", err)
		}
	})
}
