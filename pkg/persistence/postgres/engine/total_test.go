package engine_test

import (
	"testing"

	"github.com/carestack/cdr/pkg/persistence/postgres/engine"
)

func TestTotal(t *testing.T) {
	type When struct {
		Offset  int
		Limit   int
		Fetched int
	}
	type Then struct {
		Total       int64
		Page        int
		Approximate bool
	}

	for name, testcase := range map[string]struct {
		When When
		Then Then
	}{
		"when the store returns fewer rows than the page size, the total is exact": {
			When: When{Offset: 0, Limit: 10, Fetched: 3},
			Then: Then{Total: 3, Page: 3, Approximate: false},
		},
		"when the store returns exactly the page size, the total is exact": {
			When: When{Offset: 0, Limit: 10, Fetched: 10},
			Then: Then{Total: 10, Page: 10, Approximate: false},
		},
		"when the probe row comes back, the total is approximate": {
			When: When{Offset: 0, Limit: 10, Fetched: 11},
			Then: Then{Total: 11, Page: 10, Approximate: true},
		},
		"offsets shift both exact and approximate totals": {
			When: When{Offset: 20, Limit: 10, Fetched: 11},
			Then: Then{Total: 31, Page: 10, Approximate: true},
		},
		"an offset past the end yields an exact empty total": {
			When: When{Offset: 40, Limit: 10, Fetched: 0},
			Then: Then{Total: 40, Page: 0, Approximate: false},
		},
		"a zero limit means no paging and an exact count of what came back": {
			When: When{Offset: 0, Limit: 0, Fetched: 7},
			Then: Then{Total: 7, Page: 7, Approximate: false},
		},
	} {
		t.Run(name, func(t *testing.T) {
			total, page, approx := engine.Total(
				testcase.When.Offset, testcase.When.Limit, testcase.When.Fetched,
			)
			if total != testcase.Then.Total {
				t.Errorf("total: got %d, want %d", total, testcase.Then.Total)
			}
			if page != testcase.Then.Page {
				t.Errorf("page: got %d, want %d", page, testcase.Then.Page)
			}
			if approx != testcase.Then.Approximate {
				t.Errorf("approximate: got %t, want %t", approx, testcase.Then.Approximate)
			}
		})
	}
}

func TestProbeLimit(t *testing.T) {
	if got := engine.ProbeLimit(10); got != 11 {
		t.Errorf("got %d, want 11", got)
	}
	if got := engine.ProbeLimit(0); got != 0 {
		t.Errorf("got %d, want 0", got)
	}
	if got := engine.ProbeLimit(-5); got != 0 {
		t.Errorf("got %d, want 0", got)
	}
}
