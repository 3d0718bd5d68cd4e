package cmp

type BiPredicator[A, B any] func(a A, b B) bool

// SliceEq checks two slices have the same elements in the same order.
func SliceEq[T comparable](a []T, b []T) bool {
	return SliceEqWith(a, b, func(x T, y T) bool { return x == y })
}

func SliceEqWith[T any, U any](a []T, b []U, pred BiPredicator[T, U]) bool {
	if len(a) != len(b) {
		return false
	}
	for nth := range a {
		if !pred(a[nth], b[nth]) {
			return false
		}
	}
	return true
}

// SliceContentEq checks two slices have the same elements, ignoring order.
func SliceContentEq[T comparable](a, b []T) bool {
	if len(a) != len(b) {
		return false
	}
	counts := map[T]int{}
	for _, v := range a {
		counts[v]++
	}
	for _, v := range b {
		counts[v]--
		if counts[v] < 0 {
			return false
		}
	}
	return true
}

// SliceContentEqWith checks a and b are the same multiset under equiv.
func SliceContentEqWith[S, T any](a []S, b []T, equiv BiPredicator[S, T]) bool {
	if len(a) != len(b) {
		return false
	}
	used := make([]bool, len(b))
scan:
	for _, x := range a {
		for nth, y := range b {
			if used[nth] || !equiv(x, y) {
				continue
			}
			used[nth] = true
			continue scan
		}
		return false
	}
	return true
}
