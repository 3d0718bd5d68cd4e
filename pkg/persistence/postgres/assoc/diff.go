// Package assoc persists the collections hanging off versioned records:
// identifiers, names, addresses, relationships, participations, tags, notes
// and extensions. Rows are bounded to the owner's version chain through
// effective/obsolete sequence columns rather than being versioned themselves.
package assoc

// FallbackObsoleteSequence closes a conflicting row found outside a version
// transition, where no new owner sequence exists to stamp it with. Sequence 1
// predates every real version, so such rows drop out of every view.
const FallbackObsoleteSequence int64 = 1

// Diff is the persistence plan for one association collection on an owner
// version transition.
type Diff[T any] struct {
	// Insert: incoming rows with no active counterpart.
	Insert []T
	// Update: active rows whose mutable attributes changed; rewritten in
	// place, outside the version chain.
	Update []T
	// Obsolete: active rows absent from the incoming collection.
	Obsolete []T
	// Keep: active rows restated unchanged; no write happens for them, so
	// resubmitting a record is idempotent.
	Keep []T
}

// Plan splits existing active rows and the incoming collection into the
// minimal set of writes. same decides row identity; changed (nil means
// "never") detects in-place updates on identical rows. Incoming duplicates of
// a kept row are dropped.
func Plan[T any](existing, incoming []T, same func(a, b T) bool, changed func(old, new T) bool) Diff[T] {
	d := Diff[T]{}

	matched := make([]bool, len(existing))
	for _, in := range incoming {
		found := false
		for nth, ex := range existing {
			if !same(ex, in) {
				continue
			}
			found = true
			if !matched[nth] {
				matched[nth] = true
				if changed != nil && changed(ex, in) {
					d.Update = append(d.Update, in)
				} else {
					d.Keep = append(d.Keep, ex)
				}
			}
			break
		}
		if !found && !contains(d.Insert, in, same) {
			d.Insert = append(d.Insert, in)
		}
	}

	for nth, ex := range existing {
		if !matched[nth] {
			d.Obsolete = append(d.Obsolete, ex)
		}
	}

	return d
}

func contains[T any](haystack []T, needle T, same func(a, b T) bool) bool {
	for _, h := range haystack {
		if same(h, needle) {
			return true
		}
	}
	return false
}
