package entity

import (
	"testing"

	"github.com/google/uuid"

	"github.com/carestack/cdr/pkg/domain"
)

func TestRegistry_Resolve(t *testing.T) {
	registry := DefaultRegistry()

	for name, testcase := range map[string]struct {
		ClassKey uuid.UUID
		Want     domain.EntityRecord
	}{
		"patients resolve to the patient adapter":   {domain.ClassPatient, &domain.Patient{}},
		"providers resolve to the provider adapter": {domain.ClassProvider, &domain.Provider{}},
		"persons resolve to the person adapter":     {domain.ClassPerson, &domain.Person{}},
		"places resolve to the place adapter":       {domain.ClassPlace, &domain.Place{}},
		"organizations resolve to their adapter":    {domain.ClassOrganization, &domain.Organization{}},
		"materials resolve to the material adapter": {domain.ClassMaterial, &domain.Material{}},
		"unregistered classes fall back to the generic base": {
			uuid.MustParse("e3b3e1b5-0000-4000-8000-000000000001"), &domain.Entity{},
		},
	} {
		t.Run(name, func(t *testing.T) {
			got := registry.Resolve(testcase.ClassKey).New()
			if gotType, wantType := typeName(got), typeName(testcase.Want); gotType != wantType {
				t.Errorf("got %s, want %s", gotType, wantType)
			}
		})
	}
}

func typeName(rec domain.EntityRecord) string {
	switch rec.(type) {
	case *domain.Patient:
		return "patient"
	case *domain.Provider:
		return "provider"
	case *domain.Person:
		return "person"
	case *domain.Place:
		return "place"
	case *domain.Organization:
		return "organization"
	case *domain.Material:
		return "material"
	default:
		return "entity"
	}
}

func TestClassOf(t *testing.T) {
	if got := classOf(&domain.Patient{}); got != domain.ClassPatient {
		t.Errorf("got %s, want the patient class", got)
	}
	if got := classOf(&domain.Entity{}); got != domain.ClassEntity {
		t.Errorf("got %s, want the generic entity class", got)
	}

	// the type switch must see subtypes before their embedded base
	if got := classOf(&domain.Provider{}); got != domain.ClassProvider {
		t.Errorf("got %s, want the provider class", got)
	}
}
