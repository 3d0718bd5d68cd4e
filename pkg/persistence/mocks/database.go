package mocks

import (
	"context"
	"errors"

	"github.com/carestack/cdr/pkg/persistence"
)

type SchemaStore struct {
	Impl struct {
		Version   func(context.Context) (int, error)
		Upgrade   func(context.Context) error
		Sequences func(context.Context) ([]persistence.SequenceStatus, error)
	}
	Calls struct {
		Version   CallLog[struct{}]
		Upgrade   CallLog[struct{}]
		Sequences CallLog[struct{}]
	}
}

func NewSchemaStore() *SchemaStore {
	return &SchemaStore{}
}

var _ persistence.SchemaStore = &SchemaStore{}

func (m *SchemaStore) Version(ctx context.Context) (int, error) {
	m.Calls.Version = append(m.Calls.Version, struct{}{})
	if m.Impl.Version != nil {
		return m.Impl.Version(ctx)
	}
	panic(errors.New("it should not be called"))
}

func (m *SchemaStore) Upgrade(ctx context.Context) error {
	m.Calls.Upgrade = append(m.Calls.Upgrade, struct{}{})
	if m.Impl.Upgrade != nil {
		return m.Impl.Upgrade(ctx)
	}
	panic(errors.New("it should not be called"))
}

func (m *SchemaStore) Sequences(ctx context.Context) ([]persistence.SequenceStatus, error) {
	m.Calls.Sequences = append(m.Calls.Sequences, struct{}{})
	if m.Impl.Sequences != nil {
		return m.Impl.Sequences(ctx)
	}
	panic(errors.New("it should not be called"))
}

// Database bundles one mock per service; NewDatabase pre-fills every slot so
// handler tests can reach into the concrete mocks via the typed fields.
type Database struct {
	EntityStore         *EntityStore
	ActStore            *ActStore
	ConceptStore        *ConceptStore
	IdentityDomainStore *IdentityDomainStore
	SecurityStore       *SecurityStore
	BundleStore         *BundleStore
	SchemaStore         *SchemaStore
}

func NewDatabase() *Database {
	return &Database{
		EntityStore:         NewEntityStore(),
		ActStore:            NewActStore(),
		ConceptStore:        NewConceptStore(),
		IdentityDomainStore: NewIdentityDomainStore(),
		SecurityStore:       NewSecurityStore(),
		BundleStore:         NewBundleStore(),
		SchemaStore:         NewSchemaStore(),
	}
}

var _ persistence.Database = &Database{}

func (d *Database) Entity() persistence.EntityStore {
	return d.EntityStore
}

func (d *Database) Act() persistence.ActStore {
	return d.ActStore
}

func (d *Database) Concept() persistence.ConceptStore {
	return d.ConceptStore
}

func (d *Database) IdentityDomain() persistence.IdentityDomainStore {
	return d.IdentityDomainStore
}

func (d *Database) Security() persistence.SecurityStore {
	return d.SecurityStore
}

func (d *Database) Bundle() persistence.BundleStore {
	return d.BundleStore
}

func (d *Database) Schema() persistence.SchemaStore {
	return d.SchemaStore
}

func (d *Database) Close() error {
	return nil
}
