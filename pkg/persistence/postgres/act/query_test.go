package act

import (
	"fmt"
	"strings"
	"testing"

	"github.com/google/uuid"

	"github.com/carestack/cdr/pkg/persistence"
)

func TestUnionOf(t *testing.T) {

	t.Run("each predicate becomes one branch of a UNION", func(t *testing.T) {
		patient := uuid.New()
		mood := uuid.New()

		union, args := unionOf([]persistence.ActQuery{
			{PatientKey: &patient},
			{MoodKey: &mood},
		})

		if got := strings.Count(union, " UNION "); got != 1 {
			t.Fatalf("two predicates should join with one UNION, actually %d: %s", got, union)
		}
		if !strings.HasPrefix(union, "(") || !strings.HasSuffix(union, ") u") {
			t.Errorf("branches should be wrapped as a derived table: %s", union)
		}
		for i := range args {
			placeholder := fmt.Sprintf("$%d", i+1)
			if !strings.Contains(union, placeholder) {
				t.Errorf("parameter %s is not referenced: %s", placeholder, union)
			}
		}
		if strings.Contains(union, fmt.Sprintf("$%d", len(args)+1)) {
			t.Errorf("parameters past the argument list are referenced: %s", union)
		}
	})

	t.Run("no predicate falls back to the resting filter", func(t *testing.T) {
		union, _ := unionOf(nil)
		if strings.Contains(union, "UNION") {
			t.Errorf("no predicates should not union: %s", union)
		}
		if !strings.Contains(union, `"sts_cd" NOT IN`) {
			t.Errorf("the resting status filter should apply: %s", union)
		}
	})
}
