package act

import (
	"testing"

	"github.com/carestack/cdr/pkg/domain"
)

func TestRegistry_Resolve(t *testing.T) {
	registry := DefaultRegistry()

	if _, ok := registry.Resolve(domain.ClassObservation).New().(*domain.Observation); !ok {
		t.Error("observations should resolve to the observation adapter")
	}
	if _, ok := registry.Resolve(domain.ClassSubstanceAdministration).New().(*domain.SubstanceAdministration); !ok {
		t.Error("substance administrations should resolve to their adapter")
	}
	if _, ok := registry.Resolve(domain.ClassProcedure).New().(*domain.Procedure); !ok {
		t.Error("procedures should resolve to the procedure adapter")
	}
	if _, ok := registry.Resolve(domain.ClassPatientEncounter).New().(*domain.PatientEncounter); !ok {
		t.Error("encounters should resolve to the encounter adapter")
	}

	// conditions carry no subtype columns and ride on the generic base
	if _, ok := registry.Resolve(domain.ClassCondition).New().(*domain.Act); !ok {
		t.Error("conditions should fall back to the generic act")
	}
}
