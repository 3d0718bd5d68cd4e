// Package entities carries the wire form of entity-family resources.
//
// A Detail is the flat version header plus at most one subtype facet; the
// facet present (or the bare header) decides which concrete record a
// round-trip produces.
package entities

import (
	"time"

	"github.com/google/uuid"

	"github.com/carestack/cdr/pkg/api/types/annex"
	"github.com/carestack/cdr/pkg/domain"
	"github.com/carestack/cdr/pkg/utils/rfctime"
	"github.com/carestack/cdr/pkg/utils/slices"
)

type Identifier struct {
	DomainKey  uuid.UUID        `json:"domainKey"`
	Value      string           `json:"value"`
	TypeKey    *uuid.UUID       `json:"typeKey,omitempty"`
	IssuedTime *rfctime.RFC3339 `json:"issuedTime,omitempty"`
}

type NameComponent struct {
	TypeKey uuid.UUID `json:"typeKey"`
	Value   string    `json:"value"`
}

type Name struct {
	UseKey     uuid.UUID       `json:"useKey"`
	Components []NameComponent `json:"components"`
}

type AddressComponent struct {
	TypeKey uuid.UUID `json:"typeKey"`
	Value   string    `json:"value"`
}

type Address struct {
	UseKey     uuid.UUID          `json:"useKey"`
	Components []AddressComponent `json:"components"`
}

type Relationship struct {
	TypeKey   uuid.UUID `json:"typeKey"`
	TargetKey uuid.UUID `json:"targetKey"`
	Quantity  *int      `json:"quantity,omitempty"`
}

type Person struct {
	DateOfBirth          *rfctime.RFC3339 `json:"dateOfBirth,omitempty"`
	DateOfBirthPrecision *string          `json:"dateOfBirthPrecision,omitempty"`
	GenderConceptKey     *uuid.UUID       `json:"genderConceptKey,omitempty"`
}

type Patient struct {
	Person

	DeceasedDate       *rfctime.RFC3339 `json:"deceasedDate,omitempty"`
	MultipleBirthOrder *int             `json:"multipleBirthOrder,omitempty"`
	MaritalStatusKey   *uuid.UUID       `json:"maritalStatusKey,omitempty"`
	EducationLevelKey  *uuid.UUID       `json:"educationLevelKey,omitempty"`
}

type Provider struct {
	Person

	SpecialtyKey *uuid.UUID `json:"specialtyKey,omitempty"`
}

type Place struct {
	IsMobile bool     `json:"isMobile,omitempty"`
	Lat      *float64 `json:"lat,omitempty"`
	Lng      *float64 `json:"lng,omitempty"`
}

type Organization struct {
	IndustryConceptKey *uuid.UUID `json:"industryConceptKey,omitempty"`
}

type Material struct {
	ExpiryDate         *rfctime.RFC3339 `json:"expiryDate,omitempty"`
	FormConceptKey     *uuid.UUID       `json:"formConceptKey,omitempty"`
	QuantityConceptKey *uuid.UUID       `json:"quantityConceptKey,omitempty"`
	Quantity           *float64         `json:"quantity,omitempty"`
}

type Detail struct {
	Key             uuid.UUID  `json:"key"`
	VersionKey      uuid.UUID  `json:"versionKey,omitempty"`
	VersionSequence int64      `json:"versionSequence,omitempty"`
	ClassKey        uuid.UUID  `json:"classKey,omitempty"`
	StatusKey       uuid.UUID  `json:"statusKey,omitempty"`
	TypeConceptKey  *uuid.UUID `json:"typeConceptKey,omitempty"`
	ReadOnly        bool       `json:"readOnly,omitempty"`

	CreatedByKey   uuid.UUID        `json:"createdByKey,omitempty"`
	CreationTime   rfctime.RFC3339  `json:"creationTime,omitempty"`
	ObsoletionTime *rfctime.RFC3339 `json:"obsoletionTime,omitempty"`

	Identifiers   []Identifier      `json:"identifiers,omitempty"`
	Names         []Name            `json:"names,omitempty"`
	Addresses     []Address         `json:"addresses,omitempty"`
	Relationships []Relationship    `json:"relationships,omitempty"`
	Tags          []annex.Tag       `json:"tags,omitempty"`
	Notes         []annex.Note      `json:"notes,omitempty"`
	Extensions    []annex.Extension `json:"extensions,omitempty"`

	// at most one facet is set, matching ClassKey
	Person       *Person       `json:"person,omitempty"`
	Patient      *Patient      `json:"patient,omitempty"`
	Provider     *Provider     `json:"provider,omitempty"`
	Place        *Place        `json:"place,omitempty"`
	Organization *Organization `json:"organization,omitempty"`
	Material     *Material     `json:"material,omitempty"`
}

// FindResult is one page of an entity query.
type FindResult struct {
	Items []Detail `json:"items"`
	Total int64    `json:"total"`
	// Approximate marks fuzzy totals: Total is a lower bound once it
	// exceeds the requested page.
	Approximate bool `json:"approximate,omitempty"`
}

func stamp(t *time.Time) *rfctime.RFC3339 {
	if t == nil {
		return nil
	}
	out := rfctime.RFC3339(*t)
	return &out
}

func unstamp(t *rfctime.RFC3339) *time.Time {
	if t == nil {
		return nil
	}
	out := t.Time()
	return &out
}

func composePerson(p domain.Person) Person {
	return Person{
		DateOfBirth:          stamp(p.DateOfBirth),
		DateOfBirthPrecision: p.DateOfBirthPrecision,
		GenderConceptKey:     p.GenderConceptKey,
	}
}

// ComposeDetail renders rec with the facet of its concrete subtype.
func ComposeDetail(rec domain.EntityRecord) Detail {
	body := rec.EntityBody()
	out := Detail{
		Key:             body.Key,
		VersionKey:      body.VersionKey,
		VersionSequence: body.VersionSequence,
		ClassKey:        body.ClassKey,
		StatusKey:       body.StatusKey,
		TypeConceptKey:  body.TypeConceptKey,
		ReadOnly:        body.ReadOnly,
		CreatedByKey:    body.CreatedByKey,
		CreationTime:    rfctime.RFC3339(body.CreationTime),
		ObsoletionTime:  stamp(body.ObsoletionTime),
		Identifiers: slices.Map(body.Identifiers, func(i domain.EntityIdentifier) Identifier {
			return Identifier{
				DomainKey: i.DomainKey, Value: i.Value,
				TypeKey: i.TypeKey, IssuedTime: stamp(i.IssuedTime),
			}
		}),
		Names: slices.Map(body.Names, func(n domain.EntityName) Name {
			return Name{
				UseKey: n.UseKey,
				Components: slices.Map(n.Components, func(c domain.NameComponent) NameComponent {
					return NameComponent{TypeKey: c.TypeKey, Value: c.Value}
				}),
			}
		}),
		Addresses: slices.Map(body.Addresses, func(a domain.EntityAddress) Address {
			return Address{
				UseKey: a.UseKey,
				Components: slices.Map(a.Components, func(c domain.AddressComponent) AddressComponent {
					return AddressComponent{TypeKey: c.TypeKey, Value: c.Value}
				}),
			}
		}),
		Relationships: slices.Map(body.Relationships, func(r domain.EntityRelationship) Relationship {
			return Relationship{TypeKey: r.TypeKey, TargetKey: r.TargetKey, Quantity: r.Quantity}
		}),
		Tags: slices.Map(body.Tags, func(t domain.Tag) annex.Tag {
			return annex.Tag{Name: t.Name, Value: t.Value}
		}),
		Notes: slices.Map(body.Notes, func(n domain.Note) annex.Note {
			return annex.Note{Key: n.Key, AuthorKey: n.AuthorKey, Text: n.Text}
		}),
		Extensions: slices.Map(body.Extensions, func(e domain.Extension) annex.Extension {
			return annex.Extension{Key: e.Key, TypeKey: e.TypeKey, Value: e.Value}
		}),
	}

	switch r := rec.(type) {
	case *domain.Patient:
		out.Patient = &Patient{
			Person:             composePerson(r.Person),
			DeceasedDate:       stamp(r.DeceasedDate),
			MultipleBirthOrder: r.MultipleBirthOrder,
			MaritalStatusKey:   r.MaritalStatusKey,
			EducationLevelKey:  r.EducationLevelKey,
		}
	case *domain.Provider:
		out.Provider = &Provider{
			Person:       composePerson(r.Person),
			SpecialtyKey: r.SpecialtyKey,
		}
	case *domain.Person:
		p := composePerson(*r)
		out.Person = &p
	case *domain.Place:
		out.Place = &Place{IsMobile: r.IsMobile, Lat: r.Lat, Lng: r.Lng}
	case *domain.Organization:
		out.Organization = &Organization{IndustryConceptKey: r.IndustryConceptKey}
	case *domain.Material:
		out.Material = &Material{
			ExpiryDate:         stamp(r.ExpiryDate),
			FormConceptKey:     r.FormConceptKey,
			QuantityConceptKey: r.QuantityConceptKey,
			Quantity:           r.Quantity,
		}
	}
	return out
}

func (d Detail) body() domain.Entity {
	body := domain.Entity{
		VersionHeader: domain.VersionHeader{
			Key:        d.Key,
			VersionKey: d.VersionKey,
			StatusKey:  d.StatusKey,
		},
		ClassKey:       d.ClassKey,
		TypeConceptKey: d.TypeConceptKey,
		ReadOnly:       d.ReadOnly,
		Identifiers: slices.Map(d.Identifiers, func(i Identifier) domain.EntityIdentifier {
			return domain.EntityIdentifier{
				DomainKey: i.DomainKey, Value: i.Value,
				TypeKey: i.TypeKey, IssuedTime: unstamp(i.IssuedTime),
			}
		}),
		Names: slices.Map(d.Names, func(n Name) domain.EntityName {
			return domain.EntityName{
				UseKey: n.UseKey,
				Components: slices.Map(n.Components, func(c NameComponent) domain.NameComponent {
					return domain.NameComponent{TypeKey: c.TypeKey, Value: c.Value}
				}),
			}
		}),
		Addresses: slices.Map(d.Addresses, func(a Address) domain.EntityAddress {
			return domain.EntityAddress{
				UseKey: a.UseKey,
				Components: slices.Map(a.Components, func(c AddressComponent) domain.AddressComponent {
					return domain.AddressComponent{TypeKey: c.TypeKey, Value: c.Value}
				}),
			}
		}),
		Relationships: slices.Map(d.Relationships, func(r Relationship) domain.EntityRelationship {
			return domain.EntityRelationship{TypeKey: r.TypeKey, TargetKey: r.TargetKey, Quantity: r.Quantity}
		}),
		Tags: slices.Map(d.Tags, func(t annex.Tag) domain.Tag {
			return domain.Tag{Name: t.Name, Value: t.Value}
		}),
		Notes: slices.Map(d.Notes, func(n annex.Note) domain.Note {
			return domain.Note{AuthorKey: n.AuthorKey, Text: n.Text}
		}),
		Extensions: slices.Map(d.Extensions, func(e annex.Extension) domain.Extension {
			return domain.Extension{TypeKey: e.TypeKey, Value: e.Value}
		}),
	}
	return body
}

func (d Detail) person() domain.Person {
	var facet Person
	switch {
	case d.Patient != nil:
		facet = d.Patient.Person
	case d.Provider != nil:
		facet = d.Provider.Person
	case d.Person != nil:
		facet = *d.Person
	}
	return domain.Person{
		Entity:               d.body(),
		DateOfBirth:          unstamp(facet.DateOfBirth),
		DateOfBirthPrecision: facet.DateOfBirthPrecision,
		GenderConceptKey:     facet.GenderConceptKey,
	}
}

// ToDomain rebuilds the concrete record the facet stands for. A Detail
// without a facet is a generic entity.
func (d Detail) ToDomain() domain.EntityRecord {
	switch {
	case d.Patient != nil:
		return &domain.Patient{
			Person:             d.person(),
			DeceasedDate:       unstamp(d.Patient.DeceasedDate),
			MultipleBirthOrder: d.Patient.MultipleBirthOrder,
			MaritalStatusKey:   d.Patient.MaritalStatusKey,
			EducationLevelKey:  d.Patient.EducationLevelKey,
		}
	case d.Provider != nil:
		return &domain.Provider{
			Person:       d.person(),
			SpecialtyKey: d.Provider.SpecialtyKey,
		}
	case d.Person != nil:
		p := d.person()
		return &p
	case d.Place != nil:
		return &domain.Place{
			Entity:   d.body(),
			IsMobile: d.Place.IsMobile,
			Lat:      d.Place.Lat,
			Lng:      d.Place.Lng,
		}
	case d.Organization != nil:
		return &domain.Organization{
			Entity:             d.body(),
			IndustryConceptKey: d.Organization.IndustryConceptKey,
		}
	case d.Material != nil:
		return &domain.Material{
			Entity:             d.body(),
			ExpiryDate:         unstamp(d.Material.ExpiryDate),
			FormConceptKey:     d.Material.FormConceptKey,
			QuantityConceptKey: d.Material.QuantityConceptKey,
			Quantity:           d.Material.Quantity,
		}
	default:
		body := d.body()
		return &body
	}
}
