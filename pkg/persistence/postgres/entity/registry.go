package entity

import (
	"context"

	"github.com/google/uuid"

	cpool "github.com/carestack/cdr/pkg/conn/db/postgres/pool"
	"github.com/carestack/cdr/pkg/domain"
)

// Adapter binds one entity class to its subtype table. The store dispatches
// by the class concept on the root row.
type Adapter interface {
	// ClassKey is the class concept this adapter serves.
	ClassKey() uuid.UUID

	// New returns an empty record of the concrete subtype.
	New() domain.EntityRecord

	// InsertSubtype writes the subtype row of one version.
	InsertSubtype(ctx context.Context, conn cpool.Queryer, versionKey uuid.UUID, rec domain.EntityRecord) error

	// LoadSubtype fills rec's subtype fields from the row of versionKey.
	// A missing row is not an error: records written as the generic base
	// simply have no subtype fields.
	LoadSubtype(ctx context.Context, conn cpool.Queryer, versionKey uuid.UUID, rec domain.EntityRecord) error

	// DeleteSubtype removes the subtype rows of the given versions.
	DeleteSubtype(ctx context.Context, conn cpool.Queryer, versionKeys []uuid.UUID) error
}

// Registry resolves entity classes to adapters. It is built once at startup;
// lookups afterwards are read-only and safe for concurrent use.
type Registry struct {
	byClass  map[uuid.UUID]Adapter
	fallback Adapter
}

// NewRegistry indexes the adapters by class. Classes with no adapter resolve
// to the generic base, which persists the shared columns only.
func NewRegistry(adapters ...Adapter) *Registry {
	r := &Registry{
		byClass:  map[uuid.UUID]Adapter{},
		fallback: baseAdapter{},
	}
	for _, a := range adapters {
		r.byClass[a.ClassKey()] = a
	}
	return r
}

// Resolve returns the adapter for classKey, falling back to the generic base.
func (r *Registry) Resolve(classKey uuid.UUID) Adapter {
	if a, ok := r.byClass[classKey]; ok {
		return a
	}
	return r.fallback
}

// DefaultRegistry serves every built-in entity class.
func DefaultRegistry() *Registry {
	return NewRegistry(
		personAdapter{},
		patientAdapter{},
		providerAdapter{},
		placeAdapter{},
		organizationAdapter{},
		materialAdapter{},
	)
}
