// Package act persists the act family (observations, substance
// administrations, procedures, encounters, conditions) through the
// version-chain protocol.
package act

import (
	"context"
	"encoding/json"
	"errors"
	"log"

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
	RootTable:    "act_tbl",
	RootKey:      "act_id",
	VersionTable: "act_vrsn_tbl",
	Sequence:     "act_vrsn_seq",
}

const purgeChunkSize = 100

type Store struct {
	pool     cpool.Pool
	cache    cache.Cache
	queries  querystore.Store
	registry *Registry
	logger   *log.Logger

	entityCopy EntityCopier
}

var _ persistence.ActStore = &Store{}

func New(
	pool cpool.Pool, c cache.Cache, queries querystore.Store,
	registry *Registry, logger *log.Logger,
) *Store {
	return &Store{
		pool: pool, cache: c, queries: queries,
		registry: registry, logger: logger,
	}
}

func classOf(rec domain.ActRecord) uuid.UUID {
	switch rec.(type) {
	case *domain.Observation:
		return domain.ClassObservation
	case *domain.SubstanceAdministration:
		return domain.ClassSubstanceAdministration
	case *domain.Procedure:
		return domain.ClassProcedure
	case *domain.PatientEncounter:
		return domain.ClassPatientEncounter
	default:
		return domain.ClassAct
	}
}

// versionExtras carries the act-specific version columns through the shared
// engine.
func versionExtras(body *domain.Act) []engine.Column {
	return []engine.Column{
		{Name: "rsn_cd", Value: body.ReasonConceptKey},
		{Name: "neg_ind", Value: body.IsNegated},
		{Name: "act_utc", Value: body.ActTime},
		{Name: "act_start_utc", Value: body.StartTime},
		{Name: "act_stop_utc", Value: body.StopTime},
	}
}

func (s *Store) Insert(ctx context.Context, p domain.Principal, rec domain.ActRecord) (domain.ActRecord, error) {
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
func (s *Store) InsertIn(ctx context.Context, tx cpool.Tx, p domain.Principal, rec domain.ActRecord) (domain.ActRecord, error) {
	body := rec.ActBody()
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
	if body.MoodKey == uuid.Nil {
		body.MoodKey = domain.MoodEventOccurrence
	}
	body.ReplacesVersionKey = nil

	if err := shape.InsertRoot(
		ctx, tx, body.Key, body.ClassKey, body.ReadOnly, p.ProvenanceKey,
		engine.Column{Name: "mod_cd", Value: body.MoodKey},
	); err != nil {
		return nil, err
	}
	if err := s.writeVersion(ctx, tx, p, rec); err != nil {
		return nil, err
	}

	body.LoadedDepth = domain.LoadFull
	return rec, nil
}

func (s *Store) Update(ctx context.Context, p domain.Principal, rec domain.ActRecord) (domain.ActRecord, error) {
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
func (s *Store) UpdateIn(ctx context.Context, tx cpool.Tx, p domain.Principal, rec domain.ActRecord) (domain.ActRecord, error) {
	body := rec.ActBody()
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
			"warning: act %s had no live version; updating as un-deleting %s",
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

func (s *Store) writeVersion(ctx context.Context, tx cpool.Tx, p domain.Principal, rec domain.ActRecord) error {
	body := rec.ActBody()

	header, err := shape.InsertVersion(ctx, tx, engine.NewVersion{
		Key:                body.Key,
		VersionKey:         body.VersionKey,
		StatusKey:          body.StatusKey,
		TypeConceptKey:     body.TypeConceptKey,
		ReplacesVersionKey: body.ReplacesVersionKey,
		ProvenanceKey:      p.ProvenanceKey,
		Extras:             versionExtras(body),
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

	issues, err := assoc.SyncParticipations(ctx, tx, body.Key, body.VersionSequence, body.Participations)
	if err != nil {
		return err
	}
	if domain.HasErrors(issues) {
		return domain.DetectedIssueError{Issues: issues}
	}
	extensions := body.Extensions
	if warnings := domain.Warnings(issues); len(warnings) > 0 {
		for _, w := range warnings {
			s.logger.Printf("act %s: [%s] %s", body.Key, w.Priority, w.Text)
		}
		payload, err := json.Marshal(warnings)
		if err != nil {
			return err
		}
		ext := domain.Extension{TypeKey: domain.ExtensionDataQuality, Value: payload}
		ext.SourceKey = body.Key
		extensions = append(extensions, ext)
	}

	if err := assoc.ActAnnex.SyncNotes(ctx, tx, body.Key, body.VersionSequence, body.Notes); err != nil {
		return err
	}
	if err := assoc.ActAnnex.SyncExtensions(ctx, tx, body.Key, body.VersionSequence, extensions); err != nil {
		return err
	}
	if err := assoc.ActAnnex.SyncTags(ctx, tx, body.Key, body.Tags); err != nil {
		return err
	}

	return nil
}

func (s *Store) Get(ctx context.Context, key uuid.UUID, versionKey uuid.UUID, depth domain.LoadDepth) (domain.ActRecord, error) {
	if versionKey == uuid.Nil {
		if cached, ok := s.cache.Get(key); ok {
			if rec, ok := cached.(domain.ActRecord); ok && depth <= rec.ActBody().LoadedDepth {
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

	if versionKey == uuid.Nil && rec.ActBody().IsCurrent() {
		s.cache.Put(rec)
	}
	return rec, nil
}

func (s *Store) rootInfo(ctx context.Context, conn cpool.Queryer, key uuid.UUID) (classKey, moodKey uuid.UUID, readOnly bool, err error) {
	err = conn.QueryRow(
		ctx,
		`SELECT "cls_cd", "mod_cd", "rd_only" FROM "act_tbl" WHERE "act_id" = $1`,
		key,
	).Scan(&classKey, &moodKey, &readOnly)
	if errors.Is(err, pgx.ErrNoRows) {
		err = cpgerr.Missing{Table: "act_tbl", Identity: key.String()}
	}
	return
}

// loadVersionCore fills the act-specific columns of the version row.
func (s *Store) loadVersionCore(ctx context.Context, conn cpool.Queryer, body *domain.Act) error {
	return conn.QueryRow(
		ctx,
		`SELECT "rsn_cd", "neg_ind", "act_utc", "act_start_utc", "act_stop_utc"
		 FROM "act_vrsn_tbl" WHERE "vrsn_id" = $1`,
		body.VersionKey,
	).Scan(&body.ReasonConceptKey, &body.IsNegated, &body.ActTime, &body.StartTime, &body.StopTime)
}

func (s *Store) load(ctx context.Context, conn cpool.Conn, key uuid.UUID, versionKey uuid.UUID, depth domain.LoadDepth) (domain.ActRecord, error) {
	classKey, moodKey, readOnly, err := s.rootInfo(ctx, conn, key)
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
				"warning: act %s had no live version; reopened %s",
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
	body := rec.ActBody()
	body.VersionHeader = header
	body.ClassKey = classKey
	body.MoodKey = moodKey
	body.TypeConceptKey = typeConcept
	body.ReadOnly = readOnly

	if depth >= domain.LoadCore {
		if err := s.loadVersionCore(ctx, conn, body); err != nil {
			return nil, err
		}
		if err := adapter.LoadSubtype(ctx, conn, header.VersionKey, rec); err != nil {
			return nil, err
		}
		body.LoadedDepth = domain.LoadCore
	}
	if depth >= domain.LoadFull {
		seq := body.VersionSequence
		if body.Participations, err = assoc.LoadParticipations(ctx, conn, body.Key, seq); err != nil {
			return nil, err
		}
		if body.Tags, err = assoc.ActAnnex.Tags(ctx, conn, body.Key); err != nil {
			return nil, err
		}
		if body.Notes, err = assoc.ActAnnex.Notes(ctx, conn, body.Key, seq); err != nil {
			return nil, err
		}
		if body.Extensions, err = assoc.ActAnnex.Extensions(ctx, conn, body.Key, seq); err != nil {
			return nil, err
		}
		body.LoadedDepth = domain.LoadFull
	}
	return rec, nil
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
				"warning: act %s had no live version; obsoleting %s",
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
			Extras:             versionExtras(&domain.Act{}),
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

func (s *Store) purgeOne(ctx context.Context, tx cpool.Tx, p domain.Principal, key uuid.UUID) error {
	classKey, _, readOnly, err := s.rootInfo(ctx, tx, key)
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

	for _, del := range []string{
		`DELETE FROM "act_ptcpt_tbl" WHERE "act_id" = $1`,
		`DELETE FROM "act_tag_tbl" WHERE "act_id" = $1`,
		`DELETE FROM "act_note_tbl" WHERE "act_id" = $1`,
		`DELETE FROM "act_ext_tbl" WHERE "act_id" = $1`,
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
	if _, err := shape.InsertTombstone(
		ctx, tx, key, domain.StatusPurged, p.ProvenanceKey,
		versionExtras(&domain.Act{})...,
	); err != nil {
		return err
	}

	s.logger.Printf("purged act %s (%d versions erased)", key, len(versionKeys))
	return nil
}
