package domain

import (
	"time"

	"github.com/google/uuid"
)

// Entity is the versioned root of the entity family (patients, providers,
// places, organizations, materials...). ClassKey discriminates the concrete
// subtype.
type Entity struct {
	VersionHeader

	ClassKey       uuid.UUID
	TypeConceptKey *uuid.UUID
	// ReadOnly rows may only be edited by the system principal.
	ReadOnly bool

	Identifiers   []EntityIdentifier
	Names         []EntityName
	Addresses     []EntityAddress
	Relationships []EntityRelationship
	Tags          []Tag
	Notes         []Note
	Extensions    []Extension
}

// EntityRecord is implemented by Entity and every entity subtype.
type EntityRecord interface {
	VersionedRecord
	EntityBody() *Entity
}

func (e *Entity) EntityBody() *Entity {
	return e
}

func (e *Entity) References() []uuid.UUID {
	refs := make([]uuid.UUID, 0, len(e.Relationships))
	for _, r := range e.Relationships {
		refs = append(refs, r.TargetKey)
	}
	return refs
}

// Person adds demographic fields common to patients and providers.
type Person struct {
	Entity

	DateOfBirth          *time.Time
	DateOfBirthPrecision *string
	GenderConceptKey     *uuid.UUID
}

// Patient is a person under care.
type Patient struct {
	Person

	DeceasedDate       *time.Time
	MultipleBirthOrder *int
	MaritalStatusKey   *uuid.UUID
	EducationLevelKey  *uuid.UUID
}

// Provider is a person delivering care.
type Provider struct {
	Person

	SpecialtyKey *uuid.UUID
}

// Place is a physical location.
type Place struct {
	Entity

	IsMobile bool
	Lat      *float64
	Lng      *float64
}

// Organization is an administrative body.
type Organization struct {
	Entity

	IndustryConceptKey *uuid.UUID
}

// Material is a substance or supply item.
type Material struct {
	Entity

	ExpiryDate         *time.Time
	FormConceptKey     *uuid.UUID
	QuantityConceptKey *uuid.UUID
	Quantity           *float64
}

// NewEntity returns a bare entity of the given class with a fresh identity.
func NewEntity(classKey uuid.UUID) Entity {
	return Entity{
		VersionHeader: VersionHeader{Key: uuid.New(), StatusKey: StatusNew},
		ClassKey:      classKey,
	}
}
