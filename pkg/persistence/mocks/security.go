package mocks

import (
	"context"
	"errors"
	"time"

	"github.com/carestack/cdr/pkg/domain"
	"github.com/carestack/cdr/pkg/persistence"
)

type SecurityStore struct {
	Impl struct {
		CreateUser func(context.Context, domain.Principal, domain.SecurityUser) (domain.SecurityUser, error)
		GetUser    func(context.Context, string) (domain.SecurityUser, error)
		ListUsers  func(context.Context) ([]domain.SecurityUser, error)
		SetLockout func(context.Context, domain.Principal, string, *time.Time) error
		Provenance func(context.Context, domain.Principal) (domain.Provenance, error)
	}
	Calls struct {
		CreateUser CallLog[struct {
			Principal domain.Principal
			User      domain.SecurityUser
		}]
		GetUser    CallLog[struct{ UserName string }]
		ListUsers  CallLog[struct{}]
		SetLockout CallLog[struct {
			Principal domain.Principal
			UserName  string
			Until     *time.Time
		}]
		Provenance CallLog[struct{ Principal domain.Principal }]
	}
}

func NewSecurityStore() *SecurityStore {
	return &SecurityStore{}
}

var _ persistence.SecurityStore = &SecurityStore{}

func (m *SecurityStore) CreateUser(ctx context.Context, p domain.Principal, u domain.SecurityUser) (domain.SecurityUser, error) {
	m.Calls.CreateUser = append(m.Calls.CreateUser, struct {
		Principal domain.Principal
		User      domain.SecurityUser
	}{Principal: p, User: u})
	if m.Impl.CreateUser != nil {
		return m.Impl.CreateUser(ctx, p, u)
	}
	panic(errors.New("it should not be called"))
}

func (m *SecurityStore) GetUser(ctx context.Context, userName string) (domain.SecurityUser, error) {
	m.Calls.GetUser = append(m.Calls.GetUser, struct{ UserName string }{UserName: userName})
	if m.Impl.GetUser != nil {
		return m.Impl.GetUser(ctx, userName)
	}
	panic(errors.New("it should not be called"))
}

func (m *SecurityStore) ListUsers(ctx context.Context) ([]domain.SecurityUser, error) {
	m.Calls.ListUsers = append(m.Calls.ListUsers, struct{}{})
	if m.Impl.ListUsers != nil {
		return m.Impl.ListUsers(ctx)
	}
	panic(errors.New("it should not be called"))
}

func (m *SecurityStore) SetLockout(ctx context.Context, p domain.Principal, userName string, until *time.Time) error {
	m.Calls.SetLockout = append(m.Calls.SetLockout, struct {
		Principal domain.Principal
		UserName  string
		Until     *time.Time
	}{Principal: p, UserName: userName, Until: until})
	if m.Impl.SetLockout != nil {
		return m.Impl.SetLockout(ctx, p, userName, until)
	}
	panic(errors.New("it should not be called"))
}

func (m *SecurityStore) Provenance(ctx context.Context, p domain.Principal) (domain.Provenance, error) {
	m.Calls.Provenance = append(m.Calls.Provenance, struct{ Principal domain.Principal }{Principal: p})
	if m.Impl.Provenance != nil {
		return m.Impl.Provenance(ctx, p)
	}
	panic(errors.New("it should not be called"))
}
