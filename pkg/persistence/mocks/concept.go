package mocks

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"github.com/carestack/cdr/pkg/domain"
	"github.com/carestack/cdr/pkg/persistence"
)

type ConceptStore struct {
	Impl struct {
		Get           func(context.Context, uuid.UUID) (domain.Concept, error)
		GetByMnemonic func(context.Context, string) (domain.Concept, error)
		EnsureExists  func(context.Context, domain.Principal, string) (uuid.UUID, error)
		Insert        func(context.Context, domain.Principal, domain.Concept) (domain.Concept, error)
		Update        func(context.Context, domain.Principal, domain.Concept) (domain.Concept, error)
		Obsolete      func(context.Context, domain.Principal, uuid.UUID) error
	}
	Calls struct {
		Get           CallLog[struct{ Key uuid.UUID }]
		GetByMnemonic CallLog[struct{ Mnemonic string }]
		EnsureExists  CallLog[struct {
			Principal domain.Principal
			Mnemonic  string
		}]
		Insert CallLog[struct {
			Principal domain.Principal
			Concept   domain.Concept
		}]
		Update CallLog[struct {
			Principal domain.Principal
			Concept   domain.Concept
		}]
		Obsolete CallLog[struct {
			Principal domain.Principal
			Key       uuid.UUID
		}]
	}
}

func NewConceptStore() *ConceptStore {
	return &ConceptStore{}
}

var _ persistence.ConceptStore = &ConceptStore{}

func (m *ConceptStore) Get(ctx context.Context, key uuid.UUID) (domain.Concept, error) {
	m.Calls.Get = append(m.Calls.Get, struct{ Key uuid.UUID }{Key: key})
	if m.Impl.Get != nil {
		return m.Impl.Get(ctx, key)
	}
	panic(errors.New("it should not be called"))
}

func (m *ConceptStore) GetByMnemonic(ctx context.Context, mnemonic string) (domain.Concept, error) {
	m.Calls.GetByMnemonic = append(m.Calls.GetByMnemonic, struct{ Mnemonic string }{Mnemonic: mnemonic})
	if m.Impl.GetByMnemonic != nil {
		return m.Impl.GetByMnemonic(ctx, mnemonic)
	}
	panic(errors.New("it should not be called"))
}

func (m *ConceptStore) EnsureExists(ctx context.Context, p domain.Principal, mnemonic string) (uuid.UUID, error) {
	m.Calls.EnsureExists = append(m.Calls.EnsureExists, struct {
		Principal domain.Principal
		Mnemonic  string
	}{Principal: p, Mnemonic: mnemonic})
	if m.Impl.EnsureExists != nil {
		return m.Impl.EnsureExists(ctx, p, mnemonic)
	}
	panic(errors.New("it should not be called"))
}

func (m *ConceptStore) Insert(ctx context.Context, p domain.Principal, c domain.Concept) (domain.Concept, error) {
	m.Calls.Insert = append(m.Calls.Insert, struct {
		Principal domain.Principal
		Concept   domain.Concept
	}{Principal: p, Concept: c})
	if m.Impl.Insert != nil {
		return m.Impl.Insert(ctx, p, c)
	}
	panic(errors.New("it should not be called"))
}

func (m *ConceptStore) Update(ctx context.Context, p domain.Principal, c domain.Concept) (domain.Concept, error) {
	m.Calls.Update = append(m.Calls.Update, struct {
		Principal domain.Principal
		Concept   domain.Concept
	}{Principal: p, Concept: c})
	if m.Impl.Update != nil {
		return m.Impl.Update(ctx, p, c)
	}
	panic(errors.New("it should not be called"))
}

func (m *ConceptStore) Obsolete(ctx context.Context, p domain.Principal, key uuid.UUID) error {
	m.Calls.Obsolete = append(m.Calls.Obsolete, struct {
		Principal domain.Principal
		Key       uuid.UUID
	}{Principal: p, Key: key})
	if m.Impl.Obsolete != nil {
		return m.Impl.Obsolete(ctx, p, key)
	}
	panic(errors.New("it should not be called"))
}
