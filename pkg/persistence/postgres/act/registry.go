package act

import (
	"context"

	"github.com/google/uuid"

	cpool "github.com/carestack/cdr/pkg/conn/db/postgres/pool"
	"github.com/carestack/cdr/pkg/domain"
)

// Adapter binds one act class to its subtype table.
type Adapter interface {
	ClassKey() uuid.UUID
	New() domain.ActRecord
	InsertSubtype(ctx context.Context, conn cpool.Queryer, versionKey uuid.UUID, rec domain.ActRecord) error
	LoadSubtype(ctx context.Context, conn cpool.Queryer, versionKey uuid.UUID, rec domain.ActRecord) error
	DeleteSubtype(ctx context.Context, conn cpool.Queryer, versionKeys []uuid.UUID) error
}

// Registry resolves act classes to adapters; built once at startup.
type Registry struct {
	byClass  map[uuid.UUID]Adapter
	fallback Adapter
}

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

func (r *Registry) Resolve(classKey uuid.UUID) Adapter {
	if a, ok := r.byClass[classKey]; ok {
		return a
	}
	return r.fallback
}

// DefaultRegistry serves every built-in act class. Conditions deliberately
// have no adapter of their own: they carry no columns beyond the shared ones,
// so the generic base serves them.
func DefaultRegistry() *Registry {
	return NewRegistry(
		observationAdapter{},
		substanceAdministrationAdapter{},
		procedureAdapter{},
		encounterAdapter{},
	)
}
