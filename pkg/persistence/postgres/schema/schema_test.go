package schema

import (
	"testing"
)

func TestVersions_ListsEmbeddedDDLInOrder(t *testing.T) {
	vs, err := versions()
	if err != nil {
		t.Fatal(err)
	}
	if len(vs) == 0 {
		t.Fatal("no DDL versions found in the embedded repository")
	}

	last := 0
	for _, v := range vs {
		if v.Version <= last {
			t.Errorf("versions are not sorted ascending: %d after %d", v.Version, last)
		}
		last = v.Version
		if len(v.Files) == 0 {
			t.Errorf("version %d has no files", v.Version)
		}
		for i := 1; i < len(v.Files); i++ {
			if v.Files[i-1] >= v.Files[i] {
				t.Errorf("files of version %d are not sorted: %v", v.Version, v.Files)
			}
		}
	}
}
