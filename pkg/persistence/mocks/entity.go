package mocks

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"github.com/carestack/cdr/pkg/conn/db/postgres/pool"
	"github.com/carestack/cdr/pkg/domain"
	"github.com/carestack/cdr/pkg/persistence"
)

type EntityStore struct {
	Impl struct {
		Insert   func(context.Context, domain.Principal, domain.EntityRecord) (domain.EntityRecord, error)
		Update   func(context.Context, domain.Principal, domain.EntityRecord) (domain.EntityRecord, error)
		Get      func(context.Context, uuid.UUID, uuid.UUID, domain.LoadDepth) (domain.EntityRecord, error)
		Exists   func(context.Context, uuid.UUID) (bool, error)
		Query    func(context.Context, []persistence.EntityQuery, persistence.QueryOptions) (persistence.EntityResult, error)
		Obsolete func(context.Context, domain.Principal, []uuid.UUID) error
		Purge    func(context.Context, domain.Principal, []uuid.UUID) error
		Copy     func(context.Context, []uuid.UUID, pool.Pool) error
	}
	Calls struct {
		Insert CallLog[struct {
			Principal domain.Principal
			Record    domain.EntityRecord
		}]
		Update CallLog[struct {
			Principal domain.Principal
			Record    domain.EntityRecord
		}]
		Get CallLog[struct {
			Key        uuid.UUID
			VersionKey uuid.UUID
			Depth      domain.LoadDepth
		}]
		Exists CallLog[struct{ Key uuid.UUID }]
		Query  CallLog[struct {
			Queries []persistence.EntityQuery
			Options persistence.QueryOptions
		}]
		Obsolete CallLog[struct {
			Principal domain.Principal
			Keys      []uuid.UUID
		}]
		Purge CallLog[struct {
			Principal domain.Principal
			Keys      []uuid.UUID
		}]
		Copy CallLog[struct{ Keys []uuid.UUID }]
	}
}

func NewEntityStore() *EntityStore {
	return &EntityStore{}
}

var _ persistence.EntityStore = &EntityStore{}

func (m *EntityStore) Insert(ctx context.Context, p domain.Principal, rec domain.EntityRecord) (domain.EntityRecord, error) {
	m.Calls.Insert = append(m.Calls.Insert, struct {
		Principal domain.Principal
		Record    domain.EntityRecord
	}{Principal: p, Record: rec})
	if m.Impl.Insert != nil {
		return m.Impl.Insert(ctx, p, rec)
	}
	panic(errors.New("it should not be called"))
}

func (m *EntityStore) Update(ctx context.Context, p domain.Principal, rec domain.EntityRecord) (domain.EntityRecord, error) {
	m.Calls.Update = append(m.Calls.Update, struct {
		Principal domain.Principal
		Record    domain.EntityRecord
	}{Principal: p, Record: rec})
	if m.Impl.Update != nil {
		return m.Impl.Update(ctx, p, rec)
	}
	panic(errors.New("it should not be called"))
}

func (m *EntityStore) Get(ctx context.Context, key uuid.UUID, versionKey uuid.UUID, depth domain.LoadDepth) (domain.EntityRecord, error) {
	m.Calls.Get = append(m.Calls.Get, struct {
		Key        uuid.UUID
		VersionKey uuid.UUID
		Depth      domain.LoadDepth
	}{Key: key, VersionKey: versionKey, Depth: depth})
	if m.Impl.Get != nil {
		return m.Impl.Get(ctx, key, versionKey, depth)
	}
	panic(errors.New("it should not be called"))
}

func (m *EntityStore) Exists(ctx context.Context, key uuid.UUID) (bool, error) {
	m.Calls.Exists = append(m.Calls.Exists, struct{ Key uuid.UUID }{Key: key})
	if m.Impl.Exists != nil {
		return m.Impl.Exists(ctx, key)
	}
	panic(errors.New("it should not be called"))
}

func (m *EntityStore) Query(ctx context.Context, qs []persistence.EntityQuery, opts persistence.QueryOptions) (persistence.EntityResult, error) {
	m.Calls.Query = append(m.Calls.Query, struct {
		Queries []persistence.EntityQuery
		Options persistence.QueryOptions
	}{Queries: qs, Options: opts})
	if m.Impl.Query != nil {
		return m.Impl.Query(ctx, qs, opts)
	}
	panic(errors.New("it should not be called"))
}

func (m *EntityStore) Obsolete(ctx context.Context, p domain.Principal, keys []uuid.UUID) error {
	m.Calls.Obsolete = append(m.Calls.Obsolete, struct {
		Principal domain.Principal
		Keys      []uuid.UUID
	}{Principal: p, Keys: keys})
	if m.Impl.Obsolete != nil {
		return m.Impl.Obsolete(ctx, p, keys)
	}
	panic(errors.New("it should not be called"))
}

func (m *EntityStore) Purge(ctx context.Context, p domain.Principal, keys []uuid.UUID) error {
	m.Calls.Purge = append(m.Calls.Purge, struct {
		Principal domain.Principal
		Keys      []uuid.UUID
	}{Principal: p, Keys: keys})
	if m.Impl.Purge != nil {
		return m.Impl.Purge(ctx, p, keys)
	}
	panic(errors.New("it should not be called"))
}

func (m *EntityStore) Copy(ctx context.Context, keys []uuid.UUID, dest pool.Pool) error {
	m.Calls.Copy = append(m.Calls.Copy, struct{ Keys []uuid.UUID }{Keys: keys})
	if m.Impl.Copy != nil {
		return m.Impl.Copy(ctx, keys, dest)
	}
	panic(errors.New("it should not be called"))
}
