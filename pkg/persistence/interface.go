// Package persistence declares the service contracts of the clinical data
// repository's storage layer. Implementations live under
// persistence/postgres; hand-rolled fakes live under persistence/mocks.
package persistence

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/carestack/cdr/pkg/conn/db/postgres/pool"
	"github.com/carestack/cdr/pkg/domain"
)

// QueryOptions control pagination and total accounting for Query calls.
type QueryOptions struct {
	Offset int
	Count  int

	// QueryId, when not Nil, freezes the full result key set in the query
	// store so later pages with the same id read a stable snapshot.
	QueryId uuid.UUID

	// FuzzyTotal skips the COUNT round trip: the store fetches Count+1 rows
	// and reports offset+returned as the total when no extra row came back.
	// The reported total is then a monotonic lower bound, exact only while
	// the true total is at most Offset+Count.
	FuzzyTotal bool
}

// EntityQuery filters entity queries. Zero values mean "no filter".
//
// Unless IncludeObsolete or ObsoleteOnly is set, queries implicitly select
// current versions only (ObsoletionTime is null).
type EntityQuery struct {
	Keys      []uuid.UUID
	ClassKey  *uuid.UUID
	StatusKey *uuid.UUID

	// NameValue matches any interned name component value.
	NameValue *string
	// IdentifierValue / IdentifierDomain match attached identifiers.
	IdentifierValue  *string
	IdentifierDomain *string

	IncludeObsolete bool
	ObsoleteOnly    bool
}

// ActQuery filters act queries, with the same obsolescence defaults as
// EntityQuery.
type ActQuery struct {
	Keys      []uuid.UUID
	ClassKey  *uuid.UUID
	MoodKey   *uuid.UUID
	StatusKey *uuid.UUID

	// PatientKey selects acts with a record-target participation of this
	// entity.
	PatientKey *uuid.UUID

	From *time.Time
	To   *time.Time

	IncludeObsolete bool
	ObsoleteOnly    bool
}

// EntityResult is one page of an entity query.
type EntityResult struct {
	Items []domain.EntityRecord
	Total int64
	// Approximate marks fuzzy totals (see QueryOptions.FuzzyTotal).
	Approximate bool
}

// ActResult is one page of an act query.
type ActResult struct {
	Items       []domain.ActRecord
	Total       int64
	Approximate bool
}

// EntityStore persists the entity family through the version-chain protocol.
type EntityStore interface {
	// Insert stores rec as the first version of a new identity. Missing keys
	// are assigned. The caller-supplied CreatedByKey is overwritten with p's
	// provenance.
	Insert(ctx context.Context, p domain.Principal, rec domain.EntityRecord) (domain.EntityRecord, error)

	// Update appends a new current version carrying rec's state, obsoleting
	// the prior one. rec.Key must be set.
	Update(ctx context.Context, p domain.Principal, rec domain.EntityRecord) (domain.EntityRecord, error)

	// Get resolves key to its current version, or to the exact (possibly
	// historical) version when versionKey is not Nil. depth bounds hydration.
	Get(ctx context.Context, key uuid.UUID, versionKey uuid.UUID, depth domain.LoadDepth) (domain.EntityRecord, error)

	// Exists reports whether the identity key is present, regardless of
	// obsolescence.
	Exists(ctx context.Context, key uuid.UUID) (bool, error)

	// Query pages over entities matching any of qs. Each element is one
	// conjunctive predicate; the result is their union, deduplicated.
	Query(ctx context.Context, qs []EntityQuery, opts QueryOptions) (EntityResult, error)

	// Obsolete soft-deletes each identity by appending an obsolete-status
	// version, preserving full history.
	Obsolete(ctx context.Context, p domain.Principal, keys []uuid.UUID) error

	// Purge hard-deletes all history of each identity, leaving one tombstone
	// version with status Purged.
	Purge(ctx context.Context, p domain.Principal, keys []uuid.UUID) error

	// Copy replicates the identities and their referenced dependencies into
	// dest in foreign-key order.
	Copy(ctx context.Context, keys []uuid.UUID, dest pool.Pool) error
}

// ActStore persists the act family. Semantics mirror EntityStore.
type ActStore interface {
	Insert(ctx context.Context, p domain.Principal, rec domain.ActRecord) (domain.ActRecord, error)
	Update(ctx context.Context, p domain.Principal, rec domain.ActRecord) (domain.ActRecord, error)
	Get(ctx context.Context, key uuid.UUID, versionKey uuid.UUID, depth domain.LoadDepth) (domain.ActRecord, error)
	Exists(ctx context.Context, key uuid.UUID) (bool, error)
	Query(ctx context.Context, qs []ActQuery, opts QueryOptions) (ActResult, error)
	Obsolete(ctx context.Context, p domain.Principal, keys []uuid.UUID) error
	Purge(ctx context.Context, p domain.Principal, keys []uuid.UUID) error
	Copy(ctx context.Context, keys []uuid.UUID, dest pool.Pool) error
}

// ConceptStore persists coded vocabulary.
type ConceptStore interface {
	Get(ctx context.Context, key uuid.UUID) (domain.Concept, error)
	GetByMnemonic(ctx context.Context, mnemonic string) (domain.Concept, error)

	// EnsureExists resolves mnemonic to a concept key, creating a stub
	// concept when the mnemonic is absent locally.
	EnsureExists(ctx context.Context, p domain.Principal, mnemonic string) (uuid.UUID, error)

	Insert(ctx context.Context, p domain.Principal, c domain.Concept) (domain.Concept, error)
	Update(ctx context.Context, p domain.Principal, c domain.Concept) (domain.Concept, error)
	Obsolete(ctx context.Context, p domain.Principal, key uuid.UUID) error
}

// IdentityDomainStore persists assigning authorities for entity identifiers.
type IdentityDomainStore interface {
	Get(ctx context.Context, key uuid.UUID) (domain.IdentityDomain, error)
	GetByName(ctx context.Context, domainName string) (domain.IdentityDomain, error)
	List(ctx context.Context) ([]domain.IdentityDomain, error)
	Insert(ctx context.Context, p domain.Principal, d domain.IdentityDomain) (domain.IdentityDomain, error)
}

// SecurityStore persists accounts and provenance.
type SecurityStore interface {
	CreateUser(ctx context.Context, p domain.Principal, u domain.SecurityUser) (domain.SecurityUser, error)
	GetUser(ctx context.Context, userName string) (domain.SecurityUser, error)
	ListUsers(ctx context.Context) ([]domain.SecurityUser, error)

	// SetLockout locks (until != nil) or unlocks (until == nil) an account.
	SetLockout(ctx context.Context, p domain.Principal, userName string, until *time.Time) error

	// Provenance establishes (or reuses) the provenance row for p's session
	// and returns it.
	Provenance(ctx context.Context, p domain.Principal) (domain.Provenance, error)
}

// Progress reports bundle completion as (done, total) item counts.
type Progress func(done int, total int)

// BundleStore persists heterogeneous batches transactionally.
type BundleStore interface {
	// Submit reorders b so referenced items precede their referrers, then
	// persists every non-expansion item (insert or update) in one
	// transaction. progress may be nil.
	Submit(ctx context.Context, p domain.Principal, b domain.Bundle, progress Progress) (domain.Bundle, error)
}

// SequenceStatus is the current value of one version sequence.
type SequenceStatus struct {
	Name  string
	Value int64
}

// SchemaStore manages the physical schema.
type SchemaStore interface {
	Version(ctx context.Context) (int, error)
	Upgrade(ctx context.Context) error

	// Sequences reports the version sequences and their current values.
	// Purge resets these; admins read them back to audit the reset.
	Sequences(ctx context.Context) ([]SequenceStatus, error)
}

// Database aggregates every persistence service over one store.
type Database interface {
	Entity() EntityStore
	Act() ActStore
	Concept() ConceptStore
	IdentityDomain() IdentityDomainStore
	Security() SecurityStore
	Bundle() BundleStore
	Schema() SchemaStore

	Close() error
}
