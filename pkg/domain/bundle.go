package domain

import "github.com/google/uuid"

// Bundle is an ordered batch of heterogeneous records submitted together for
// transactional persistence. It has no identity of its own.
type Bundle struct {
	Items []Record

	// ExpansionKeys name records included only so that references can be
	// resolved; they are not persisted.
	ExpansionKeys []uuid.UUID
}

// IsExpansion reports whether key was included for reference resolution only.
func (b Bundle) IsExpansion(key uuid.UUID) bool {
	for _, k := range b.ExpansionKeys {
		if k == key {
			return true
		}
	}
	return false
}

// Add appends items to the bundle.
func (b *Bundle) Add(items ...Record) {
	b.Items = append(b.Items, items...)
}
