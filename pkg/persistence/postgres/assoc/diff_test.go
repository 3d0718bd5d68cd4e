package assoc_test

import (
	"testing"

	"github.com/carestack/cdr/pkg/persistence/postgres/assoc"
	"github.com/carestack/cdr/pkg/utils/cmp"
)

type rel struct {
	Target string
	Qty    int
}

func sameTarget(a, b rel) bool     { return a.Target == b.Target }
func qtyChanged(old, new rel) bool { return old.Qty != new.Qty }

func TestPlan(t *testing.T) {
	type When struct {
		Existing []rel
		Incoming []rel
	}
	type Then struct {
		Insert   []rel
		Update   []rel
		Obsolete []rel
		Keep     []rel
	}

	for name, testcase := range map[string]struct {
		When When
		Then Then
	}{
		"an empty incoming collection obsoletes everything": {
			When: When{
				Existing: []rel{{"a", 1}, {"b", 2}},
				Incoming: nil,
			},
			Then: Then{Obsolete: []rel{{"a", 1}, {"b", 2}}},
		},
		"restating the active rows writes nothing": {
			When: When{
				Existing: []rel{{"a", 1}},
				Incoming: []rel{{"a", 1}},
			},
			Then: Then{Keep: []rel{{"a", 1}}},
		},
		"new rows insert, missing rows obsolete, changed rows update": {
			When: When{
				Existing: []rel{{"a", 1}, {"b", 2}},
				Incoming: []rel{{"b", 5}, {"c", 3}},
			},
			Then: Then{
				Insert:   []rel{{"c", 3}},
				Update:   []rel{{"b", 5}},
				Obsolete: []rel{{"a", 1}},
			},
		},
		"incoming duplicates of an active row are suppressed": {
			When: When{
				Existing: []rel{{"a", 1}},
				Incoming: []rel{{"a", 1}, {"a", 1}},
			},
			Then: Then{Keep: []rel{{"a", 1}}},
		},
		"incoming duplicates of a new row insert once": {
			When: When{
				Existing: nil,
				Incoming: []rel{{"a", 1}, {"a", 1}},
			},
			Then: Then{Insert: []rel{{"a", 1}}},
		},
	} {
		t.Run(name, func(t *testing.T) {
			got := assoc.Plan(testcase.When.Existing, testcase.When.Incoming, sameTarget, qtyChanged)

			if !cmp.SliceEq(got.Insert, testcase.Then.Insert) {
				t.Errorf("insert: got %v, want %v", got.Insert, testcase.Then.Insert)
			}
			if !cmp.SliceEq(got.Update, testcase.Then.Update) {
				t.Errorf("update: got %v, want %v", got.Update, testcase.Then.Update)
			}
			if !cmp.SliceEq(got.Obsolete, testcase.Then.Obsolete) {
				t.Errorf("obsolete: got %v, want %v", got.Obsolete, testcase.Then.Obsolete)
			}
			if !cmp.SliceEq(got.Keep, testcase.Then.Keep) {
				t.Errorf("keep: got %v, want %v", got.Keep, testcase.Then.Keep)
			}
		})
	}
}

func TestPlan_NilChangedNeverUpdates(t *testing.T) {
	got := assoc.Plan(
		[]rel{{"a", 1}}, []rel{{"a", 99}}, sameTarget, nil,
	)
	if len(got.Update) != 0 {
		t.Errorf("update: got %v, want empty", got.Update)
	}
	if !cmp.SliceEq(got.Keep, []rel{{"a", 1}}) {
		t.Errorf("keep: got %v, want the existing row", got.Keep)
	}
}
