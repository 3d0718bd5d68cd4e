package domain

import (
	"time"

	"github.com/google/uuid"
)

// Act is the versioned root of the act family (observations, substance
// administrations, procedures, encounters...). ClassKey discriminates the
// concrete subtype.
type Act struct {
	VersionHeader

	ClassKey uuid.UUID
	MoodKey  uuid.UUID

	TypeConceptKey   *uuid.UUID
	ReasonConceptKey *uuid.UUID

	ActTime   *time.Time
	StartTime *time.Time
	StopTime  *time.Time

	// IsNegated marks "this did NOT happen" assertions.
	IsNegated bool
	ReadOnly  bool

	Participations []ActParticipation
	Tags           []Tag
	Notes          []Note
	Extensions     []Extension
}

// ActRecord is implemented by Act and every act subtype.
type ActRecord interface {
	VersionedRecord
	ActBody() *Act
}

func (a *Act) ActBody() *Act {
	return a
}

func (a *Act) References() []uuid.UUID {
	refs := make([]uuid.UUID, 0, len(a.Participations))
	for _, p := range a.Participations {
		refs = append(refs, p.PlayerKey)
	}
	return refs
}

// Observation is a clinical measurement or finding. ValueType tells which of
// the value fields carries the payload.
type Observation struct {
	Act

	InterpretationKey *uuid.UUID
	ValueType         string // "PQ" quantity | "CD" coded | "ST" string

	QuantityValue *float64
	QuantityUnit  *uuid.UUID
	CodedValueKey *uuid.UUID
	StringValue   *string
}

// SubstanceAdministration records giving a substance to a patient.
type SubstanceAdministration struct {
	Act

	RouteKey     *uuid.UUID
	DoseUnitKey  *uuid.UUID
	DoseQuantity *float64
	SequenceId   *int
	SiteKey      *uuid.UUID
}

// Procedure records an intervention performed on a patient.
type Procedure struct {
	Act

	MethodKey       *uuid.UUID
	ApproachSiteKey *uuid.UUID
	TargetSiteKey   *uuid.UUID
}

// PatientEncounter records an interaction between a patient and the care
// system.
type PatientEncounter struct {
	Act

	AdmissionSourceKey      *uuid.UUID
	DischargeDispositionKey *uuid.UUID
}

// NewAct returns a bare act of the given class and mood with a fresh
// identity.
func NewAct(classKey uuid.UUID, moodKey uuid.UUID) Act {
	return Act{
		VersionHeader: VersionHeader{Key: uuid.New(), StatusKey: StatusNew},
		ClassKey:      classKey,
		MoodKey:       moodKey,
	}
}
