package domain

import (
	"time"

	"github.com/google/uuid"
)

// LoadDepth tells how much of a record has been materialized from the store.
// Cached records answer a request only when their depth satisfies it.
type LoadDepth int

const (
	// LoadHeader: version header only.
	LoadHeader LoadDepth = iota
	// LoadCore: header plus subtype fields.
	LoadCore
	// LoadFull: core plus all associated collections.
	LoadFull
)

// Record is anything addressable by an identity key.
type Record interface {
	RecordKey() uuid.UUID
}

// VersionedRecord is a record whose mutations append immutable versions.
type VersionedRecord interface {
	Record
	Header() *VersionHeader
}

// Referencer is implemented by records that point at other records in the
// same bundle. The bundle service persists referenced records first.
type Referencer interface {
	References() []uuid.UUID
}

// VersionHeader carries the version-chain fields shared by every versioned
// record.
//
// Invariant: for one identity Key, at most one version row has a nil
// ObsoletionTime. That row is "the current version". Prior versions are
// immutable and linked through ReplacesVersionKey.
type VersionHeader struct {
	// Key names the logical record across all of its versions.
	Key uuid.UUID
	// VersionKey names this one version row.
	VersionKey uuid.UUID
	// VersionSequence is assigned by the store on insert, monotonically
	// increasing per family.
	VersionSequence int64
	// ReplacesVersionKey points at the version this one superseded.
	ReplacesVersionKey *uuid.UUID

	StatusKey uuid.UUID

	CreatedByKey uuid.UUID
	CreationTime time.Time

	ObsoletedByKey *uuid.UUID
	ObsoletionTime *time.Time

	// LoadedDepth records how much of the record was hydrated.
	LoadedDepth LoadDepth
}

func (h *VersionHeader) RecordKey() uuid.UUID {
	return h.Key
}

func (h *VersionHeader) Header() *VersionHeader {
	return h
}

// IsCurrent reports whether this version holds the live slot.
func (h *VersionHeader) IsCurrent() bool {
	return h.ObsoletionTime == nil
}

// BaseRecord carries the fields of a non-versioned, soft-deletable row.
type BaseRecord struct {
	Key uuid.UUID

	CreatedByKey uuid.UUID
	CreationTime time.Time

	UpdatedByKey *uuid.UUID
	UpdatedTime  *time.Time

	ObsoletedByKey *uuid.UUID
	ObsoletionTime *time.Time
}

func (b *BaseRecord) RecordKey() uuid.UUID {
	return b.Key
}

// IsObsolete reports whether the row has been soft-deleted.
func (b *BaseRecord) IsObsolete() bool {
	return b.ObsoletionTime != nil
}

// AssociationHeader carries the fields shared by records attached to a
// versioned owner. Effective/Obsolete sequences bound the owner-version range
// in which the association is visible.
type AssociationHeader struct {
	Key       uuid.UUID
	SourceKey uuid.UUID

	EffectiveVersionSequence *int64
	ObsoleteVersionSequence  *int64
}

func (a *AssociationHeader) RecordKey() uuid.UUID {
	return a.Key
}

// ActiveFor reports whether the association is visible at the given owner
// version sequence.
func (a *AssociationHeader) ActiveFor(versionSequence int64) bool {
	if a.EffectiveVersionSequence != nil && versionSequence < *a.EffectiveVersionSequence {
		return false
	}
	if a.ObsoleteVersionSequence != nil && *a.ObsoleteVersionSequence <= versionSequence {
		return false
	}
	return true
}
