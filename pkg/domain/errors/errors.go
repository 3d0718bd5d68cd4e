package errors

import "errors"

// Sentinel errors of the persistence layer. Concrete wrappers carrying
// table/identity context live in dberrors.
var (
	// ErrMissing: the requested record is not in the store.
	ErrMissing = errors.New("missing data")

	// ErrTooMuch: more rows matched than the operation allows.
	ErrTooMuch = errors.New("too much data")

	// ErrFormalConstraint: the call violates a formal contract, such as
	// updating a record without an identity key. Never retried.
	ErrFormalConstraint = errors.New("formal constraint violation")

	// ErrReadOnly: the target row is system-protected and the caller is not
	// the system principal.
	ErrReadOnly = errors.New("read-only data")
)
