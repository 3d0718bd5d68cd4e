package slices

// Map applies mapper to each element of sli and returns the results in order.
func Map[T any, R any](sli []T, mapper func(v T) R) []R {
	ret := make([]R, len(sli))
	for nth, v := range sli {
		ret[nth] = mapper(v)
	}
	return ret
}

// MapUntilError maps sli with mapper, stopping at the first error.
func MapUntilError[T any, R any](sli []T, mapper func(v T) (R, error)) ([]R, error) {
	ret := make([]R, len(sli))
	for nth, v := range sli {
		r, err := mapper(v)
		if err != nil {
			return nil, err
		}
		ret[nth] = r
	}
	return ret, nil
}

// Filter returns the elements of vs for which predicator holds.
func Filter[T any](vs []T, predicator func(T) bool) []T {
	ret := []T{}
	for _, v := range vs {
		if predicator(v) {
			ret = append(ret, v)
		}
	}
	return ret
}

// First finds the first element matching predicator.
//
// returns: (element, true) when found, (zero value, false) otherwise.
func First[T any](sli []T, predicator func(T) bool) (T, bool) {
	for _, v := range sli {
		if predicator(v) {
			return v, true
		}
	}
	var zero T
	return zero, false
}

// Contains reports whether item occurs in sli.
func Contains[T comparable](sli []T, item T) bool {
	for _, v := range sli {
		if v == item {
			return true
		}
	}
	return false
}

// KeysOf flattens a map to the slice of its keys. Order is unspecified.
func KeysOf[K comparable, T any](m map[K]T) []K {
	sli := make([]K, 0, len(m))
	for k := range m {
		sli = append(sli, k)
	}
	return sli
}

// ValuesOf flattens a map to the slice of its values. Order is unspecified.
func ValuesOf[K comparable, T any](m map[K]T) []T {
	sli := make([]T, 0, len(m))
	for _, v := range m {
		sli = append(sli, v)
	}
	return sli
}

// ToMap indexes sli by getkey. Later elements win on key collision.
func ToMap[T any, K comparable](sli []T, getkey func(v T) K) map[K]T {
	m := map[K]T{}
	for _, v := range sli {
		m[getkey(v)] = v
	}
	return m
}

// Chunk splits sli into runs of at most size elements.
// The last chunk may be shorter. size must be positive.
func Chunk[T any](sli []T, size int) [][]T {
	if size <= 0 {
		panic("slices.Chunk: non-positive chunk size")
	}
	chunks := make([][]T, 0, (len(sli)+size-1)/size)
	for len(sli) > size {
		chunks = append(chunks, sli[:size])
		sli = sli[size:]
	}
	if 0 < len(sli) {
		chunks = append(chunks, sli)
	}
	return chunks
}

// Concat concatenates slices into one.
func Concat[T any](sli ...[]T) []T {
	l := 0
	for _, s := range sli {
		l += len(s)
	}
	dest := make([]T, 0, l)
	for _, s := range sli {
		dest = append(dest, s...)
	}
	return dest
}

// Clone returns a shallow copy of sli. Nil stays nil.
func Clone[T any](sli []T) []T {
	if sli == nil {
		return nil
	}
	dest := make([]T, len(sli))
	copy(dest, sli)
	return dest
}
