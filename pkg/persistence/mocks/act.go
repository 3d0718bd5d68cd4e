package mocks

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"github.com/carestack/cdr/pkg/conn/db/postgres/pool"
	"github.com/carestack/cdr/pkg/domain"
	"github.com/carestack/cdr/pkg/persistence"
)

type ActStore struct {
	Impl struct {
		Insert   func(context.Context, domain.Principal, domain.ActRecord) (domain.ActRecord, error)
		Update   func(context.Context, domain.Principal, domain.ActRecord) (domain.ActRecord, error)
		Get      func(context.Context, uuid.UUID, uuid.UUID, domain.LoadDepth) (domain.ActRecord, error)
		Exists   func(context.Context, uuid.UUID) (bool, error)
		Query    func(context.Context, []persistence.ActQuery, persistence.QueryOptions) (persistence.ActResult, error)
		Obsolete func(context.Context, domain.Principal, []uuid.UUID) error
		Purge    func(context.Context, domain.Principal, []uuid.UUID) error
		Copy     func(context.Context, []uuid.UUID, pool.Pool) error
	}
	Calls struct {
		Insert CallLog[struct {
			Principal domain.Principal
			Record    domain.ActRecord
		}]
		Update CallLog[struct {
			Principal domain.Principal
			Record    domain.ActRecord
		}]
		Get CallLog[struct {
			Key        uuid.UUID
			VersionKey uuid.UUID
			Depth      domain.LoadDepth
		}]
		Exists CallLog[struct{ Key uuid.UUID }]
		Query  CallLog[struct {
			Queries []persistence.ActQuery
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

func NewActStore() *ActStore {
	return &ActStore{}
}

var _ persistence.ActStore = &ActStore{}

func (m *ActStore) Insert(ctx context.Context, p domain.Principal, rec domain.ActRecord) (domain.ActRecord, error) {
	m.Calls.Insert = append(m.Calls.Insert, struct {
		Principal domain.Principal
		Record    domain.ActRecord
	}{Principal: p, Record: rec})
	if m.Impl.Insert != nil {
		return m.Impl.Insert(ctx, p, rec)
	}
	panic(errors.New("it should not be called"))
}

func (m *ActStore) Update(ctx context.Context, p domain.Principal, rec domain.ActRecord) (domain.ActRecord, error) {
	m.Calls.Update = append(m.Calls.Update, struct {
		Principal domain.Principal
		Record    domain.ActRecord
	}{Principal: p, Record: rec})
	if m.Impl.Update != nil {
		return m.Impl.Update(ctx, p, rec)
	}
	panic(errors.New("it should not be called"))
}

func (m *ActStore) Get(ctx context.Context, key uuid.UUID, versionKey uuid.UUID, depth domain.LoadDepth) (domain.ActRecord, error) {
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

func (m *ActStore) Exists(ctx context.Context, key uuid.UUID) (bool, error) {
	m.Calls.Exists = append(m.Calls.Exists, struct{ Key uuid.UUID }{Key: key})
	if m.Impl.Exists != nil {
		return m.Impl.Exists(ctx, key)
	}
	panic(errors.New("it should not be called"))
}

func (m *ActStore) Query(ctx context.Context, qs []persistence.ActQuery, opts persistence.QueryOptions) (persistence.ActResult, error) {
	m.Calls.Query = append(m.Calls.Query, struct {
		Queries []persistence.ActQuery
		Options persistence.QueryOptions
	}{Queries: qs, Options: opts})
	if m.Impl.Query != nil {
		return m.Impl.Query(ctx, qs, opts)
	}
	panic(errors.New("it should not be called"))
}

func (m *ActStore) Obsolete(ctx context.Context, p domain.Principal, keys []uuid.UUID) error {
	m.Calls.Obsolete = append(m.Calls.Obsolete, struct {
		Principal domain.Principal
		Keys      []uuid.UUID
	}{Principal: p, Keys: keys})
	if m.Impl.Obsolete != nil {
		return m.Impl.Obsolete(ctx, p, keys)
	}
	panic(errors.New("it should not be called"))
}

func (m *ActStore) Purge(ctx context.Context, p domain.Principal, keys []uuid.UUID) error {
	m.Calls.Purge = append(m.Calls.Purge, struct {
		Principal domain.Principal
		Keys      []uuid.UUID
	}{Principal: p, Keys: keys})
	if m.Impl.Purge != nil {
		return m.Impl.Purge(ctx, p, keys)
	}
	panic(errors.New("it should not be called"))
}

func (m *ActStore) Copy(ctx context.Context, keys []uuid.UUID, dest pool.Pool) error {
	m.Calls.Copy = append(m.Calls.Copy, struct{ Keys []uuid.UUID }{Keys: keys})
	if m.Impl.Copy != nil {
		return m.Impl.Copy(ctx, keys, dest)
	}
	panic(errors.New("it should not be called"))
}
