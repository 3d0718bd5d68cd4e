package mocks

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"github.com/carestack/cdr/pkg/domain"
	"github.com/carestack/cdr/pkg/persistence"
)

type IdentityDomainStore struct {
	Impl struct {
		Get       func(context.Context, uuid.UUID) (domain.IdentityDomain, error)
		GetByName func(context.Context, string) (domain.IdentityDomain, error)
		List      func(context.Context) ([]domain.IdentityDomain, error)
		Insert    func(context.Context, domain.Principal, domain.IdentityDomain) (domain.IdentityDomain, error)
	}
	Calls struct {
		Get       CallLog[struct{ Key uuid.UUID }]
		GetByName CallLog[struct{ DomainName string }]
		List      CallLog[struct{}]
		Insert    CallLog[struct {
			Principal domain.Principal
			Domain    domain.IdentityDomain
		}]
	}
}

func NewIdentityDomainStore() *IdentityDomainStore {
	return &IdentityDomainStore{}
}

var _ persistence.IdentityDomainStore = &IdentityDomainStore{}

func (m *IdentityDomainStore) Get(ctx context.Context, key uuid.UUID) (domain.IdentityDomain, error) {
	m.Calls.Get = append(m.Calls.Get, struct{ Key uuid.UUID }{Key: key})
	if m.Impl.Get != nil {
		return m.Impl.Get(ctx, key)
	}
	panic(errors.New("it should not be called"))
}

func (m *IdentityDomainStore) GetByName(ctx context.Context, domainName string) (domain.IdentityDomain, error) {
	m.Calls.GetByName = append(m.Calls.GetByName, struct{ DomainName string }{DomainName: domainName})
	if m.Impl.GetByName != nil {
		return m.Impl.GetByName(ctx, domainName)
	}
	panic(errors.New("it should not be called"))
}

func (m *IdentityDomainStore) List(ctx context.Context) ([]domain.IdentityDomain, error) {
	m.Calls.List = append(m.Calls.List, struct{}{})
	if m.Impl.List != nil {
		return m.Impl.List(ctx)
	}
	panic(errors.New("it should not be called"))
}

func (m *IdentityDomainStore) Insert(ctx context.Context, p domain.Principal, d domain.IdentityDomain) (domain.IdentityDomain, error) {
	m.Calls.Insert = append(m.Calls.Insert, struct {
		Principal domain.Principal
		Domain    domain.IdentityDomain
	}{Principal: p, Domain: d})
	if m.Impl.Insert != nil {
		return m.Impl.Insert(ctx, p, d)
	}
	panic(errors.New("it should not be called"))
}
