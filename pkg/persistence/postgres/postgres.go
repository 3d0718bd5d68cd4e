// Package postgres aggregates every persistence service over one PostgreSQL
// connection pool.
package postgres

import (
	"context"
	"log"
	"os"

	"github.com/jackc/pgx/v4/pgxpool"

	"github.com/carestack/cdr/pkg/cache"
	cpool "github.com/carestack/cdr/pkg/conn/db/postgres/pool"
	xe "github.com/carestack/cdr/pkg/errors"
	"github.com/carestack/cdr/pkg/persistence"
	cpgact "github.com/carestack/cdr/pkg/persistence/postgres/act"
	cpgbundle "github.com/carestack/cdr/pkg/persistence/postgres/bundle"
	cpgconcept "github.com/carestack/cdr/pkg/persistence/postgres/concept"
	cpgentity "github.com/carestack/cdr/pkg/persistence/postgres/entity"
	cpgiddomain "github.com/carestack/cdr/pkg/persistence/postgres/iddomain"
	cpgschema "github.com/carestack/cdr/pkg/persistence/postgres/schema"
	cpgsecurity "github.com/carestack/cdr/pkg/persistence/postgres/security"
	"github.com/carestack/cdr/pkg/querystore"
)

type cdrDBPostgres struct {
	pool *pgxpool.Pool

	entities       persistence.EntityStore
	acts           persistence.ActStore
	concepts       persistence.ConceptStore
	identityDomain persistence.IdentityDomainStore
	security       persistence.SecurityStore
	bundles        persistence.BundleStore
	schema         persistence.SchemaStore
}

type Config struct {
	// CacheSize bounds the shared record cache; zero disables caching.
	CacheSize int
	// QuerySetSize bounds how many frozen query results are retained.
	QuerySetSize int
	Logger       *log.Logger
	ParallelLoad bool
}

func DefaultConfig() Config {
	return Config{
		CacheSize:    4096,
		QuerySetSize: 256,
		Logger:       log.New(os.Stderr, "cdr-db: ", log.LstdFlags),
	}
}

type Option func(*Config) *Config

func WithCacheSize(size int) Option {
	return func(c *Config) *Config {
		c.CacheSize = size
		return c
	}
}

func WithQuerySetSize(size int) Option {
	return func(c *Config) *Config {
		c.QuerySetSize = size
		return c
	}
}

func WithLogger(logger *log.Logger) Option {
	return func(c *Config) *Config {
		c.Logger = logger
		return c
	}
}

// WithParallelLoad fans full-depth collection hydration out over separate
// pooled connections.
func WithParallelLoad() Option {
	return func(c *Config) *Config {
		c.ParallelLoad = true
		return c
	}
}

func New(
	ctx context.Context,
	url string,
	options ...Option,
) (persistence.Database, error) {
	pool, err := pgxpool.Connect(ctx, url)
	if err != nil {
		return nil, xe.Wrap(err)
	}

	c := DefaultConfig()
	for _, option := range options {
		c = *option(&c)
	}

	records := cache.Nop()
	if c.CacheSize > 0 {
		records, err = cache.NewShared(c.CacheSize)
		if err != nil {
			pool.Close()
			return nil, xe.Wrap(err)
		}
	}
	queries, err := querystore.NewMemory(c.QuerySetSize)
	if err != nil {
		pool.Close()
		return nil, xe.Wrap(err)
	}

	p := cpool.Wrap(pool)

	var entityOptions []cpgentity.Option
	if c.ParallelLoad {
		entityOptions = append(entityOptions, cpgentity.WithParallelLoad())
	}
	entities := cpgentity.New(
		p, records, queries, cpgentity.DefaultRegistry(), c.Logger, entityOptions...,
	)
	acts := cpgact.New(
		p, records, queries, cpgact.DefaultRegistry(), c.Logger,
	).WithEntityCopier(entities.Copy)

	return &cdrDBPostgres{
		pool:           pool,
		entities:       entities,
		acts:           acts,
		concepts:       cpgconcept.New(p, c.Logger),
		identityDomain: cpgiddomain.New(p),
		security:       cpgsecurity.New(p),
		bundles:        cpgbundle.New(p, entities, acts, records, c.Logger),
		schema:         cpgschema.New(p),
	}, nil
}

func (d *cdrDBPostgres) Entity() persistence.EntityStore {
	return d.entities
}

func (d *cdrDBPostgres) Act() persistence.ActStore {
	return d.acts
}

func (d *cdrDBPostgres) Concept() persistence.ConceptStore {
	return d.concepts
}

func (d *cdrDBPostgres) IdentityDomain() persistence.IdentityDomainStore {
	return d.identityDomain
}

func (d *cdrDBPostgres) Security() persistence.SecurityStore {
	return d.security
}

func (d *cdrDBPostgres) Bundle() persistence.BundleStore {
	return d.bundles
}

func (d *cdrDBPostgres) Schema() persistence.SchemaStore {
	return d.schema
}

func (d *cdrDBPostgres) Close() error {
	d.pool.Close()
	return nil
}
