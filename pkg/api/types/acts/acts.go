// Package acts carries the wire form of act-family resources, shaped the
// same way as entities: a flat header plus at most one subtype facet.
package acts

import (
	"time"

	"github.com/google/uuid"

	"github.com/carestack/cdr/pkg/api/types/annex"
	"github.com/carestack/cdr/pkg/domain"
	"github.com/carestack/cdr/pkg/utils/rfctime"
	"github.com/carestack/cdr/pkg/utils/slices"
)

type Participation struct {
	RoleKey   uuid.UUID `json:"roleKey"`
	PlayerKey uuid.UUID `json:"playerKey"`
	Quantity  *int      `json:"quantity,omitempty"`
}

type Observation struct {
	InterpretationKey *uuid.UUID `json:"interpretationKey,omitempty"`
	ValueType         string     `json:"valueType,omitempty"`
	QuantityValue     *float64   `json:"quantityValue,omitempty"`
	QuantityUnit      *uuid.UUID `json:"quantityUnit,omitempty"`
	CodedValueKey     *uuid.UUID `json:"codedValueKey,omitempty"`
	StringValue       *string    `json:"stringValue,omitempty"`
}

type SubstanceAdministration struct {
	RouteKey     *uuid.UUID `json:"routeKey,omitempty"`
	DoseUnitKey  *uuid.UUID `json:"doseUnitKey,omitempty"`
	DoseQuantity *float64   `json:"doseQuantity,omitempty"`
	SequenceId   *int       `json:"sequenceId,omitempty"`
	SiteKey      *uuid.UUID `json:"siteKey,omitempty"`
}

type Procedure struct {
	MethodKey       *uuid.UUID `json:"methodKey,omitempty"`
	ApproachSiteKey *uuid.UUID `json:"approachSiteKey,omitempty"`
	TargetSiteKey   *uuid.UUID `json:"targetSiteKey,omitempty"`
}

type Encounter struct {
	AdmissionSourceKey      *uuid.UUID `json:"admissionSourceKey,omitempty"`
	DischargeDispositionKey *uuid.UUID `json:"dischargeDispositionKey,omitempty"`
}

type Detail struct {
	Key             uuid.UUID  `json:"key"`
	VersionKey      uuid.UUID  `json:"versionKey,omitempty"`
	VersionSequence int64      `json:"versionSequence,omitempty"`
	ClassKey        uuid.UUID  `json:"classKey,omitempty"`
	MoodKey         uuid.UUID  `json:"moodKey,omitempty"`
	StatusKey       uuid.UUID  `json:"statusKey,omitempty"`
	TypeConceptKey  *uuid.UUID `json:"typeConceptKey,omitempty"`

	ReasonConceptKey *uuid.UUID       `json:"reasonConceptKey,omitempty"`
	ActTime          *rfctime.RFC3339 `json:"actTime,omitempty"`
	StartTime        *rfctime.RFC3339 `json:"startTime,omitempty"`
	StopTime         *rfctime.RFC3339 `json:"stopTime,omitempty"`
	IsNegated        bool             `json:"isNegated,omitempty"`
	ReadOnly         bool             `json:"readOnly,omitempty"`

	CreatedByKey   uuid.UUID        `json:"createdByKey,omitempty"`
	CreationTime   rfctime.RFC3339  `json:"creationTime,omitempty"`
	ObsoletionTime *rfctime.RFC3339 `json:"obsoletionTime,omitempty"`

	Participations []Participation   `json:"participations,omitempty"`
	Tags           []annex.Tag       `json:"tags,omitempty"`
	Notes          []annex.Note      `json:"notes,omitempty"`
	Extensions     []annex.Extension `json:"extensions,omitempty"`

	// at most one facet is set, matching ClassKey
	Observation             *Observation             `json:"observation,omitempty"`
	SubstanceAdministration *SubstanceAdministration `json:"substanceAdministration,omitempty"`
	Procedure               *Procedure               `json:"procedure,omitempty"`
	Encounter               *Encounter               `json:"encounter,omitempty"`
}

// FindResult is one page of an act query.
type FindResult struct {
	Items       []Detail `json:"items"`
	Total       int64    `json:"total"`
	Approximate bool     `json:"approximate,omitempty"`
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

// ComposeDetail renders rec with the facet of its concrete subtype.
func ComposeDetail(rec domain.ActRecord) Detail {
	body := rec.ActBody()
	out := Detail{
		Key:              body.Key,
		VersionKey:       body.VersionKey,
		VersionSequence:  body.VersionSequence,
		ClassKey:         body.ClassKey,
		MoodKey:          body.MoodKey,
		StatusKey:        body.StatusKey,
		TypeConceptKey:   body.TypeConceptKey,
		ReasonConceptKey: body.ReasonConceptKey,
		ActTime:          stamp(body.ActTime),
		StartTime:        stamp(body.StartTime),
		StopTime:         stamp(body.StopTime),
		IsNegated:        body.IsNegated,
		ReadOnly:         body.ReadOnly,
		CreatedByKey:     body.CreatedByKey,
		CreationTime:     rfctime.RFC3339(body.CreationTime),
		ObsoletionTime:   stamp(body.ObsoletionTime),
		Participations: slices.Map(body.Participations, func(p domain.ActParticipation) Participation {
			return Participation{RoleKey: p.RoleKey, PlayerKey: p.PlayerKey, Quantity: p.Quantity}
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
	case *domain.Observation:
		out.Observation = &Observation{
			InterpretationKey: r.InterpretationKey,
			ValueType:         r.ValueType,
			QuantityValue:     r.QuantityValue,
			QuantityUnit:      r.QuantityUnit,
			CodedValueKey:     r.CodedValueKey,
			StringValue:       r.StringValue,
		}
	case *domain.SubstanceAdministration:
		out.SubstanceAdministration = &SubstanceAdministration{
			RouteKey:     r.RouteKey,
			DoseUnitKey:  r.DoseUnitKey,
			DoseQuantity: r.DoseQuantity,
			SequenceId:   r.SequenceId,
			SiteKey:      r.SiteKey,
		}
	case *domain.Procedure:
		out.Procedure = &Procedure{
			MethodKey:       r.MethodKey,
			ApproachSiteKey: r.ApproachSiteKey,
			TargetSiteKey:   r.TargetSiteKey,
		}
	case *domain.PatientEncounter:
		out.Encounter = &Encounter{
			AdmissionSourceKey:      r.AdmissionSourceKey,
			DischargeDispositionKey: r.DischargeDispositionKey,
		}
	}
	return out
}

func (d Detail) body() domain.Act {
	return domain.Act{
		VersionHeader: domain.VersionHeader{
			Key:        d.Key,
			VersionKey: d.VersionKey,
			StatusKey:  d.StatusKey,
		},
		ClassKey:         d.ClassKey,
		MoodKey:          d.MoodKey,
		TypeConceptKey:   d.TypeConceptKey,
		ReasonConceptKey: d.ReasonConceptKey,
		ActTime:          unstamp(d.ActTime),
		StartTime:        unstamp(d.StartTime),
		StopTime:         unstamp(d.StopTime),
		IsNegated:        d.IsNegated,
		ReadOnly:         d.ReadOnly,
		Participations: slices.Map(d.Participations, func(p Participation) domain.ActParticipation {
			return domain.ActParticipation{RoleKey: p.RoleKey, PlayerKey: p.PlayerKey, Quantity: p.Quantity}
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
}

// ToDomain rebuilds the concrete record the facet stands for. A Detail
// without a facet is a generic act, which is also how conditions travel.
func (d Detail) ToDomain() domain.ActRecord {
	switch {
	case d.Observation != nil:
		return &domain.Observation{
			Act:               d.body(),
			InterpretationKey: d.Observation.InterpretationKey,
			ValueType:         d.Observation.ValueType,
			QuantityValue:     d.Observation.QuantityValue,
			QuantityUnit:      d.Observation.QuantityUnit,
			CodedValueKey:     d.Observation.CodedValueKey,
			StringValue:       d.Observation.StringValue,
		}
	case d.SubstanceAdministration != nil:
		return &domain.SubstanceAdministration{
			Act:          d.body(),
			RouteKey:     d.SubstanceAdministration.RouteKey,
			DoseUnitKey:  d.SubstanceAdministration.DoseUnitKey,
			DoseQuantity: d.SubstanceAdministration.DoseQuantity,
			SequenceId:   d.SubstanceAdministration.SequenceId,
			SiteKey:      d.SubstanceAdministration.SiteKey,
		}
	case d.Procedure != nil:
		return &domain.Procedure{
			Act:             d.body(),
			MethodKey:       d.Procedure.MethodKey,
			ApproachSiteKey: d.Procedure.ApproachSiteKey,
			TargetSiteKey:   d.Procedure.TargetSiteKey,
		}
	case d.Encounter != nil:
		return &domain.PatientEncounter{
			Act:                     d.body(),
			AdmissionSourceKey:      d.Encounter.AdmissionSourceKey,
			DischargeDispositionKey: d.Encounter.DischargeDispositionKey,
		}
	default:
		body := d.body()
		return &body
	}
}
