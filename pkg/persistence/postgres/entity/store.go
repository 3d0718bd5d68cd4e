// Package entity persists the entity family (patients, providers, places,
// organizations, materials) through the version-chain protocol.
package entity

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"sync"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v4"

	"github.com/carestack/cdr/pkg/cache"
	cpool "github.com/carestack/cdr/pkg/conn/db/postgres/pool"
	"github.com/carestack/cdr/pkg/domain"
	cpgerr "github.com/carestack/cdr/pkg/domain/errors/dberrors/postgres"
	"github.com/carestack/cdr/pkg/persistence"
	"github.com/carestack/cdr/pkg/persistence/postgres/assoc"
	"github.com/carestack/cdr/pkg/persistence/postgres/engine"
	"github.com/carestack/cdr/pkg/querystore"
	"github.com/carestack/cdr/pkg/utils/slices"
)

var shape = engine.Shape{
	RootTable:    "ent_tbl",
	RootKey:      "ent_id",
	VersionTable: "ent_vrsn_tbl",
	Sequence:     "ent_vrsn_seq",
}

// purgeChunkSize bounds how many identities one purge transaction touches.
const purgeChunkSize = 100

type Store struct {
	pool     cpool.Pool
	cache    cache.Cache
	queries  querystore.Store
	registry *Registry
	logger   *log.Logger

	// parallelLoad fans the collection loads of a full Get out over separate
	// pooled connections.
	parallelLoad bool
}

var _ persistence.EntityStore = &Store{}

type Option func(*Store)

// WithParallelLoad turns on concurrent collection hydration for full gets.
func WithParallelLoad() Option {
	return func(s *Store) { s.parallelLoad = true }
}

func New(
	pool cpool.Pool, c cache.Cache, queries querystore.Store,
	registry *Registry, logger *log.Logger, options ...Option,
) *Store {
	s := &Store{
		pool: pool, cache: c, queries: queries,
		registry: registry, logger: logger,
	}
	for _, opt := range options {
		opt(s)
	}
	return s
}

func classOf(rec domain.EntityRecord) uuid.UUID {
	switch rec.(type) {
	case *domain.Patient:
		return domain.ClassPatient
	case *domain.Provider:
		return domain.ClassProvider
	case *domain.Person:
		return domain.ClassPerson
	case *domain.Place:
		return domain.ClassPlace
	case *domain.Organization:
		return domain.ClassOrganization
	case *domain.Material:
		return domain.ClassMaterial
	default:
		return domain.ClassEntity
	}
}

func (s *Store) Insert(ctx context.Context, p domain.Principal, rec domain.EntityRecord) (domain.EntityRecord, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	if _, err := s.InsertIn(ctx, tx, p, rec); err != nil {
		return nil, err
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}

	s.cache.Put(rec)
	return rec, nil
}

// InsertIn is Insert running on the caller's transaction. The caller commits
// and owns cache coherence.
func (s *Store) InsertIn(ctx context.Context, tx cpool.Tx, p domain.Principal, rec domain.EntityRecord) (domain.EntityRecord, error) {
	body := rec.EntityBody()
	if body.Key == uuid.Nil {
		body.Key = uuid.New()
	}
	if body.VersionKey == uuid.Nil {
		body.VersionKey = uuid.New()
	}
	if body.StatusKey == uuid.Nil {
		body.StatusKey = domain.StatusNew
	}
	if body.ClassKey == uuid.Nil {
		body.ClassKey = classOf(rec)
	}
	body.ReplacesVersionKey = nil

	if err := shape.InsertRoot(ctx, tx, body.Key, body.ClassKey, body.ReadOnly, p.ProvenanceKey); err != nil {
		return nil, err
	}
	if err := s.writeVersion(ctx, tx, p, rec); err != nil {
		return nil, err
	}

	body.LoadedDepth = domain.LoadFull
	return rec, nil
}

func (s *Store) Update(ctx context.Context, p domain.Principal, rec domain.EntityRecord) (domain.EntityRecord, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	if _, err := s.UpdateIn(ctx, tx, p, rec); err != nil {
		return nil, err
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}

	s.cache.Put(rec)
	return rec, nil
}

// UpdateIn is Update running on the caller's transaction. The caller commits
// and owns cache coherence.
func (s *Store) UpdateIn(ctx context.Context, tx cpool.Tx, p domain.Principal, rec domain.EntityRecord) (domain.EntityRecord, error) {
	body := rec.EntityBody()
	if body.Key == uuid.Nil {
		return nil, cpgerr.FormalConstraint{Reason: "an update needs the identity key"}
	}

	readOnly, err := shape.ReadOnly(ctx, tx, body.Key)
	if err != nil {
		return nil, err
	}
	if readOnly && !p.IsSystem() {
		return nil, cpgerr.ReadOnly{Table: shape.RootTable, Identity: body.Key.String()}
	}

	current, currentType, healed, err := shape.CurrentHeader(ctx, tx, body.Key)
	if err != nil {
		return nil, err
	}
	if healed {
		s.logger.Printf(
			"warning: entity %s had no live version; updating as un-deleting %s",
			body.Key, current.VersionKey,
		)
	}

	body.VersionKey = uuid.New()
	body.ReplacesVersionKey = &current.VersionKey
	if body.StatusKey == uuid.Nil {
		body.StatusKey = current.StatusKey
	}
	if body.TypeConceptKey == nil {
		body.TypeConceptKey = currentType
	}

	if err := shape.ObsoleteVersion(ctx, tx, current.VersionKey, p.ProvenanceKey); err != nil {
		return nil, err
	}
	if err := s.writeVersion(ctx, tx, p, rec); err != nil {
		return nil, err
	}

	body.LoadedDepth = domain.LoadFull
	return rec, nil
}

// writeVersion appends the version row of rec and reconciles its subtype row
// and collections. The root row must exist; update callers obsolete the
// prior version first.
func (s *Store) writeVersion(ctx context.Context, tx cpool.Tx, p domain.Principal, rec domain.EntityRecord) error {
	body := rec.EntityBody()

	issues, err := assoc.VerifyIdentities(ctx, tx, p, body.Key, body.ClassKey, body.Identifiers)
	if err != nil {
		return err
	}

	header, err := shape.InsertVersion(ctx, tx, engine.NewVersion{
		Key:                body.Key,
		VersionKey:         body.VersionKey,
		StatusKey:          body.StatusKey,
		TypeConceptKey:     body.TypeConceptKey,
		ReplacesVersionKey: body.ReplacesVersionKey,
		ProvenanceKey:      p.ProvenanceKey,
	})
	if err != nil {
		return err
	}
	body.VersionSequence = header.VersionSequence
	body.CreatedByKey = header.CreatedByKey
	body.CreationTime = header.CreationTime
	body.ObsoletedByKey = nil
	body.ObsoletionTime = nil

	adapter := s.registry.Resolve(body.ClassKey)
	if err := adapter.InsertSubtype(ctx, tx, body.VersionKey, rec); err != nil {
		return err
	}

	if err := assoc.SyncIdentifiers(ctx, tx, body.Key, body.VersionSequence, body.Identifiers); err != nil {
		return err
	}
	if err := assoc.SyncNames(ctx, tx, body.Key, body.VersionSequence, body.Names); err != nil {
		return err
	}
	if err := assoc.SyncAddresses(ctx, tx, body.Key, body.VersionSequence, body.Addresses); err != nil {
		return err
	}
	relIssues, err := assoc.SyncRelationships(ctx, tx, body.Key, body.VersionSequence, body.Relationships)
	if err != nil {
		return err
	}
	issues = append(issues, relIssues...)

	if domain.HasErrors(issues) {
		return domain.DetectedIssueError{Issues: issues}
	}
	extensions := body.Extensions
	if warnings := domain.Warnings(issues); len(warnings) > 0 {
		for _, w := range warnings {
			s.logger.Printf("entity %s: [%s] %s", body.Key, w.Priority, w.Text)
		}
		ext, err := dataQualityExtension(body.Key, warnings)
		if err != nil {
			return err
		}
		extensions = append(extensions, ext)
	}

	if err := assoc.EntityAnnex.SyncNotes(ctx, tx, body.Key, body.VersionSequence, body.Notes); err != nil {
		return err
	}
	if err := assoc.EntityAnnex.SyncExtensions(ctx, tx, body.Key, body.VersionSequence, extensions); err != nil {
		return err
	}
	if err := assoc.EntityAnnex.SyncTags(ctx, tx, body.Key, body.Tags); err != nil {
		return err
	}

	return nil
}

// dataQualityExtension packs warning findings into the extension persisted
// alongside the record.
func dataQualityExtension(key uuid.UUID, warnings []domain.DetectedIssue) (domain.Extension, error) {
	payload, err := json.Marshal(warnings)
	if err != nil {
		return domain.Extension{}, err
	}
	ext := domain.Extension{TypeKey: domain.ExtensionDataQuality, Value: payload}
	ext.SourceKey = key
	return ext, nil
}

func (s *Store) Get(ctx context.Context, key uuid.UUID, versionKey uuid.UUID, depth domain.LoadDepth) (domain.EntityRecord, error) {
	if versionKey == uuid.Nil {
		if cached, ok := s.cache.Get(key); ok {
			if rec, ok := cached.(domain.EntityRecord); ok && depth <= rec.EntityBody().LoadedDepth {
				return rec, nil
			}
		}
	}

	conn, err := s.pool.Acquire(ctx)
	if err != nil {
		return nil, err
	}
	defer conn.Release()

	rec, err := s.load(ctx, conn, key, versionKey, depth)
	if err != nil {
		return nil, err
	}

	if versionKey == uuid.Nil && rec.EntityBody().IsCurrent() {
		s.cache.Put(rec)
	}
	return rec, nil
}

func (s *Store) rootInfo(ctx context.Context, conn cpool.Queryer, key uuid.UUID) (classKey uuid.UUID, readOnly bool, err error) {
	err = conn.QueryRow(
		ctx,
		`SELECT "cls_cd", "rd_only" FROM "ent_tbl" WHERE "ent_id" = $1`,
		key,
	).Scan(&classKey, &readOnly)
	if errors.Is(err, pgx.ErrNoRows) {
		err = cpgerr.Missing{Table: "ent_tbl", Identity: key.String()}
	}
	return
}

func (s *Store) load(ctx context.Context, conn cpool.Conn, key uuid.UUID, versionKey uuid.UUID, depth domain.LoadDepth) (domain.EntityRecord, error) {
	classKey, readOnly, err := s.rootInfo(ctx, conn, key)
	if err != nil {
		return nil, err
	}

	var header domain.VersionHeader
	var typeConcept *uuid.UUID
	if versionKey == uuid.Nil {
		var healed bool
		header, typeConcept, healed, err = shape.CurrentHeader(ctx, conn, key)
		if healed {
			s.logger.Printf(
				"warning: entity %s had no live version; reopened %s",
				key, header.VersionKey,
			)
		}
	} else {
		header, typeConcept, err = shape.HeaderByVersion(ctx, conn, key, versionKey)
	}
	if err != nil {
		return nil, err
	}

	adapter := s.registry.Resolve(classKey)
	rec := adapter.New()
	body := rec.EntityBody()
	body.VersionHeader = header
	body.ClassKey = classKey
	body.TypeConceptKey = typeConcept
	body.ReadOnly = readOnly

	if depth >= domain.LoadCore {
		if err := adapter.LoadSubtype(ctx, conn, header.VersionKey, rec); err != nil {
			return nil, err
		}
		body.LoadedDepth = domain.LoadCore
	}
	if depth >= domain.LoadFull {
		if err := s.loadCollections(ctx, conn, body); err != nil {
			return nil, err
		}
		body.LoadedDepth = domain.LoadFull
	}
	return rec, nil
}

func (s *Store) loadCollections(ctx context.Context, conn cpool.Conn, body *domain.Entity) error {
	if s.parallelLoad {
		return s.loadCollectionsParallel(ctx, body)
	}

	seq := body.VersionSequence
	var err error
	if body.Identifiers, err = assoc.LoadIdentifiers(ctx, conn, body.Key, seq); err != nil {
		return err
	}
	if body.Names, err = assoc.LoadNames(ctx, conn, body.Key, seq); err != nil {
		return err
	}
	if body.Addresses, err = assoc.LoadAddresses(ctx, conn, body.Key, seq); err != nil {
		return err
	}
	if body.Relationships, err = assoc.LoadRelationships(ctx, conn, body.Key, seq); err != nil {
		return err
	}
	if body.Tags, err = assoc.EntityAnnex.Tags(ctx, conn, body.Key); err != nil {
		return err
	}
	if body.Notes, err = assoc.EntityAnnex.Notes(ctx, conn, body.Key, seq); err != nil {
		return err
	}
	if body.Extensions, err = assoc.EntityAnnex.Extensions(ctx, conn, body.Key, seq); err != nil {
		return err
	}
	return nil
}

// loadCollectionsParallel hydrates each collection over its own pooled
// connection. A connection is bound to one goroutine, so the fan-out cannot
// share the caller's.
func (s *Store) loadCollectionsParallel(ctx context.Context, body *domain.Entity) error {
	seq := body.VersionSequence

	loaders := []func(conn cpool.Conn) error{
		func(conn cpool.Conn) (err error) {
			body.Identifiers, err = assoc.LoadIdentifiers(ctx, conn, body.Key, seq)
			return
		},
		func(conn cpool.Conn) (err error) {
			body.Names, err = assoc.LoadNames(ctx, conn, body.Key, seq)
			return
		},
		func(conn cpool.Conn) (err error) {
			body.Addresses, err = assoc.LoadAddresses(ctx, conn, body.Key, seq)
			return
		},
		func(conn cpool.Conn) (err error) {
			body.Relationships, err = assoc.LoadRelationships(ctx, conn, body.Key, seq)
			return
		},
		func(conn cpool.Conn) (err error) {
			body.Tags, err = assoc.EntityAnnex.Tags(ctx, conn, body.Key)
			return
		},
		func(conn cpool.Conn) (err error) {
			body.Notes, err = assoc.EntityAnnex.Notes(ctx, conn, body.Key, seq)
			return
		},
		func(conn cpool.Conn) (err error) {
			body.Extensions, err = assoc.EntityAnnex.Extensions(ctx, conn, body.Key, seq)
			return
		},
	}

	wg := sync.WaitGroup{}
	errs := make([]error, len(loaders))
	for nth, loader := range loaders {
		wg.Add(1)
		go func(nth int, loader func(cpool.Conn) error) {
			defer wg.Done()
			conn, err := s.pool.Acquire(ctx)
			if err != nil {
				errs[nth] = err
				return
			}
			defer conn.Release()
			errs[nth] = loader(conn)
		}(nth, loader)
	}
	wg.Wait()

	return errors.Join(errs...)
}

func (s *Store) Exists(ctx context.Context, key uuid.UUID) (bool, error) {
	conn, err := s.pool.Acquire(ctx)
	if err != nil {
		return false, err
	}
	defer conn.Release()

	return shape.RootExists(ctx, conn, key)
}

// ExistsIn is Exists against the caller's connection or transaction.
func (s *Store) ExistsIn(ctx context.Context, conn cpool.Queryer, key uuid.UUID) (bool, error) {
	return shape.RootExists(ctx, conn, key)
}

func (s *Store) Obsolete(ctx context.Context, p domain.Principal, keys []uuid.UUID) error {
	for _, chunk := range slices.Chunk(keys, purgeChunkSize) {
		if err := s.obsoleteChunk(ctx, p, chunk); err != nil {
			return err
		}
	}
	return nil
}

func (s *Store) obsoleteChunk(ctx context.Context, p domain.Principal, keys []uuid.UUID) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	for _, key := range keys {
		readOnly, err := shape.ReadOnly(ctx, tx, key)
		if err != nil {
			return err
		}
		if readOnly && !p.IsSystem() {
			return cpgerr.ReadOnly{Table: shape.RootTable, Identity: key.String()}
		}

		current, currentType, healed, err := shape.CurrentHeader(ctx, tx, key)
		if err != nil {
			return err
		}
		if healed {
			s.logger.Printf(
				"warning: entity %s had no live version; obsoleting %s",
				key, current.VersionKey,
			)
		}
		if err := shape.ObsoleteVersion(ctx, tx, current.VersionKey, p.ProvenanceKey); err != nil {
			return err
		}
		if _, err := shape.InsertVersion(ctx, tx, engine.NewVersion{
			Key:                key,
			VersionKey:         uuid.New(),
			StatusKey:          domain.StatusObsolete,
			TypeConceptKey:     currentType,
			ReplacesVersionKey: &current.VersionKey,
			ProvenanceKey:      p.ProvenanceKey,
		}); err != nil {
			return err
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return err
	}
	for _, key := range keys {
		s.cache.Remove(key)
	}
	return nil
}

func (s *Store) Purge(ctx context.Context, p domain.Principal, keys []uuid.UUID) error {
	for _, chunk := range slices.Chunk(keys, purgeChunkSize) {
		if err := s.purgeChunk(ctx, p, chunk); err != nil {
			return err
		}
	}
	return nil
}

func (s *Store) purgeChunk(ctx context.Context, p domain.Principal, keys []uuid.UUID) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	for _, key := range keys {
		if err := s.purgeOne(ctx, tx, p, key); err != nil {
			return err
		}
	}
	if err := shape.ResetSequence(ctx, tx); err != nil {
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return err
	}
	for _, key := range keys {
		s.cache.Remove(key)
	}
	return nil
}

// purgeOne erases the history of one identity, leaving the root row and a
// single tombstone version so the key keeps resolving.
func (s *Store) purgeOne(ctx context.Context, tx cpool.Tx, p domain.Principal, key uuid.UUID) error {
	classKey, readOnly, err := s.rootInfo(ctx, tx, key)
	if err != nil {
		return err
	}
	if readOnly && !p.IsSystem() {
		return cpgerr.ReadOnly{Table: shape.RootTable, Identity: key.String()}
	}

	versionKeys, err := shape.VersionKeys(ctx, tx, key)
	if err != nil {
		return err
	}
	if err := s.registry.Resolve(classKey).DeleteSubtype(ctx, tx, versionKeys); err != nil {
		return err
	}

	// association rows go first; they carry the clinical payload
	for _, del := range []string{
		`DELETE FROM "name_cmp_tbl" WHERE "asoc_id" IN (SELECT "asoc_id" FROM "ent_name_tbl" WHERE "ent_id" = $1)`,
		`DELETE FROM "ent_name_tbl" WHERE "ent_id" = $1`,
		`DELETE FROM "addr_cmp_tbl" WHERE "asoc_id" IN (SELECT "asoc_id" FROM "ent_addr_tbl" WHERE "ent_id" = $1)`,
		`DELETE FROM "ent_addr_tbl" WHERE "ent_id" = $1`,
		`DELETE FROM "ent_id_tbl" WHERE "ent_id" = $1`,
		`DELETE FROM "ent_rel_tbl" WHERE "src_ent_id" = $1 OR "trg_ent_id" = $1`,
		`DELETE FROM "act_ptcpt_tbl" WHERE "ent_id" = $1`,
		`DELETE FROM "ent_tag_tbl" WHERE "ent_id" = $1`,
		`DELETE FROM "ent_note_tbl" WHERE "ent_id" = $1`,
		`DELETE FROM "ent_ext_tbl" WHERE "ent_id" = $1`,
	} {
		if _, err := tx.Exec(ctx, del, key); err != nil {
			return err
		}
	}

	if err := shape.DetachReplacedBy(ctx, tx, key); err != nil {
		return err
	}
	if err := shape.DeleteVersions(ctx, tx, key); err != nil {
		return err
	}
	if _, err := shape.InsertTombstone(ctx, tx, key, domain.StatusPurged, p.ProvenanceKey); err != nil {
		return err
	}

	s.logger.Printf("purged entity %s (%d versions erased)", key, len(versionKeys))
	return nil
}
