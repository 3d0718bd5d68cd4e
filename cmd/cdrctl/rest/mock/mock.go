package mock

import (
	"context"
	"testing"

	"github.com/carestack/cdr/cmd/cdrctl/rest"
	apiact "github.com/carestack/cdr/pkg/api/types/acts"
	apibundle "github.com/carestack/cdr/pkg/api/types/bundles"
	apient "github.com/carestack/cdr/pkg/api/types/entities"
	apiusers "github.com/carestack/cdr/pkg/api/types/users"
)

type LoginArgs struct {
	UserName string
	Password string
}

type FindEntitiesArgs struct {
	Filter rest.EntityFilter
	Page   rest.Page
}

type GetEntityArgs struct {
	Key     string
	Version string
}

type PutEntityArgs struct {
	Key    string
	Detail apient.Detail
}

type DeleteEntityArgs struct {
	Key   string
	Purge bool
}

type FindActsArgs struct {
	Filter rest.ActFilter
	Page   rest.Page
}

type GetActArgs struct {
	Key     string
	Version string
}

type CopyArgs struct {
	Kind string
	Keys []string
}

type LockUserArgs struct {
	UserName string
	Request  apiusers.LockRequest
}

func New(t *testing.T) *mockCdrClient {
	return &mockCdrClient{t: t}
}

type mockCdrClient struct {
	t    *testing.T
	Impl struct {
		Login        func(ctx context.Context, userName string, password string) (apiusers.AuthResponse, error)
		FindEntities func(ctx context.Context, filter rest.EntityFilter, page rest.Page) (apient.FindResult, error)
		GetEntity    func(ctx context.Context, key string, version string) (apient.Detail, error)
		PostEntity   func(ctx context.Context, detail apient.Detail) (apient.Detail, error)
		PutEntity    func(ctx context.Context, key string, detail apient.Detail) (apient.Detail, error)
		DeleteEntity func(ctx context.Context, key string, purge bool) error
		FindActs     func(ctx context.Context, filter rest.ActFilter, page rest.Page) (apiact.FindResult, error)
		GetAct       func(ctx context.Context, key string, version string) (apiact.Detail, error)
		SubmitBundle func(ctx context.Context, b apibundle.Bundle) (apibundle.Bundle, error)
		Copy         func(ctx context.Context, kind string, keys []string) (int, error)
		ListUsers    func(ctx context.Context) ([]apiusers.Detail, error)
		CreateUser   func(ctx context.Context, req apiusers.CreateRequest) (apiusers.Detail, error)
		LockUser     func(ctx context.Context, userName string, req apiusers.LockRequest) error
		UnlockUser   func(ctx context.Context, userName string) error
	}
	Calls struct {
		Login        []LoginArgs
		FindEntities []FindEntitiesArgs
		GetEntity    []GetEntityArgs
		PostEntity   []apient.Detail
		PutEntity    []PutEntityArgs
		DeleteEntity []DeleteEntityArgs
		FindActs     []FindActsArgs
		GetAct       []GetActArgs
		SubmitBundle []apibundle.Bundle
		Copy         []CopyArgs
		ListUsers    int
		CreateUser   []apiusers.CreateRequest
		LockUser     []LockUserArgs
		UnlockUser   []string
	}
}

var _ rest.CdrClient = &mockCdrClient{}

func (m *mockCdrClient) Login(ctx context.Context, userName string, password string) (apiusers.AuthResponse, error) {
	m.t.Helper()

	m.Calls.Login = append(m.Calls.Login, LoginArgs{UserName: userName, Password: password})
	if m.Impl.Login == nil {
		m.t.Fatal("Login is not ready to be called")
	}
	return m.Impl.Login(ctx, userName, password)
}

func (m *mockCdrClient) FindEntities(ctx context.Context, filter rest.EntityFilter, page rest.Page) (apient.FindResult, error) {
	m.t.Helper()

	m.Calls.FindEntities = append(m.Calls.FindEntities, FindEntitiesArgs{Filter: filter, Page: page})
	if m.Impl.FindEntities == nil {
		m.t.Fatal("FindEntities is not ready to be called")
	}
	return m.Impl.FindEntities(ctx, filter, page)
}

func (m *mockCdrClient) GetEntity(ctx context.Context, key string, version string) (apient.Detail, error) {
	m.t.Helper()

	m.Calls.GetEntity = append(m.Calls.GetEntity, GetEntityArgs{Key: key, Version: version})
	if m.Impl.GetEntity == nil {
		m.t.Fatal("GetEntity is not ready to be called")
	}
	return m.Impl.GetEntity(ctx, key, version)
}

func (m *mockCdrClient) PostEntity(ctx context.Context, detail apient.Detail) (apient.Detail, error) {
	m.t.Helper()

	m.Calls.PostEntity = append(m.Calls.PostEntity, detail)
	if m.Impl.PostEntity == nil {
		m.t.Fatal("PostEntity is not ready to be called")
	}
	return m.Impl.PostEntity(ctx, detail)
}

func (m *mockCdrClient) PutEntity(ctx context.Context, key string, detail apient.Detail) (apient.Detail, error) {
	m.t.Helper()

	m.Calls.PutEntity = append(m.Calls.PutEntity, PutEntityArgs{Key: key, Detail: detail})
	if m.Impl.PutEntity == nil {
		m.t.Fatal("PutEntity is not ready to be called")
	}
	return m.Impl.PutEntity(ctx, key, detail)
}

func (m *mockCdrClient) DeleteEntity(ctx context.Context, key string, purge bool) error {
	m.t.Helper()

	m.Calls.DeleteEntity = append(m.Calls.DeleteEntity, DeleteEntityArgs{Key: key, Purge: purge})
	if m.Impl.DeleteEntity == nil {
		m.t.Fatal("DeleteEntity is not ready to be called")
	}
	return m.Impl.DeleteEntity(ctx, key, purge)
}

func (m *mockCdrClient) FindActs(ctx context.Context, filter rest.ActFilter, page rest.Page) (apiact.FindResult, error) {
	m.t.Helper()

	m.Calls.FindActs = append(m.Calls.FindActs, FindActsArgs{Filter: filter, Page: page})
	if m.Impl.FindActs == nil {
		m.t.Fatal("FindActs is not ready to be called")
	}
	return m.Impl.FindActs(ctx, filter, page)
}

func (m *mockCdrClient) GetAct(ctx context.Context, key string, version string) (apiact.Detail, error) {
	m.t.Helper()

	m.Calls.GetAct = append(m.Calls.GetAct, GetActArgs{Key: key, Version: version})
	if m.Impl.GetAct == nil {
		m.t.Fatal("GetAct is not ready to be called")
	}
	return m.Impl.GetAct(ctx, key, version)
}

func (m *mockCdrClient) SubmitBundle(ctx context.Context, b apibundle.Bundle) (apibundle.Bundle, error) {
	m.t.Helper()

	m.Calls.SubmitBundle = append(m.Calls.SubmitBundle, b)
	if m.Impl.SubmitBundle == nil {
		m.t.Fatal("SubmitBundle is not ready to be called")
	}
	return m.Impl.SubmitBundle(ctx, b)
}

func (m *mockCdrClient) Copy(ctx context.Context, kind string, keys []string) (int, error) {
	m.t.Helper()

	m.Calls.Copy = append(m.Calls.Copy, CopyArgs{Kind: kind, Keys: keys})
	if m.Impl.Copy == nil {
		m.t.Fatal("Copy is not ready to be called")
	}
	return m.Impl.Copy(ctx, kind, keys)
}

func (m *mockCdrClient) ListUsers(ctx context.Context) ([]apiusers.Detail, error) {
	m.t.Helper()

	m.Calls.ListUsers += 1
	if m.Impl.ListUsers == nil {
		m.t.Fatal("ListUsers is not ready to be called")
	}
	return m.Impl.ListUsers(ctx)
}

func (m *mockCdrClient) CreateUser(ctx context.Context, req apiusers.CreateRequest) (apiusers.Detail, error) {
	m.t.Helper()

	m.Calls.CreateUser = append(m.Calls.CreateUser, req)
	if m.Impl.CreateUser == nil {
		m.t.Fatal("CreateUser is not ready to be called")
	}
	return m.Impl.CreateUser(ctx, req)
}

func (m *mockCdrClient) LockUser(ctx context.Context, userName string, req apiusers.LockRequest) error {
	m.t.Helper()

	m.Calls.LockUser = append(m.Calls.LockUser, LockUserArgs{UserName: userName, Request: req})
	if m.Impl.LockUser == nil {
		m.t.Fatal("LockUser is not ready to be called")
	}
	return m.Impl.LockUser(ctx, userName, req)
}

func (m *mockCdrClient) UnlockUser(ctx context.Context, userName string) error {
	m.t.Helper()

	m.Calls.UnlockUser = append(m.Calls.UnlockUser, userName)
	if m.Impl.UnlockUser == nil {
		m.t.Fatal("UnlockUser is not ready to be called")
	}
	return m.Impl.UnlockUser(ctx, userName)
}
