package postgres

import (
	"errors"
	"fmt"

	"github.com/jackc/pgconn"
	"github.com/jackc/pgerrcode"

	domerr "github.com/carestack/cdr/pkg/domain/errors"
)

// Missing: the requested record is not in the store.
type Missing struct {
	Table    string
	Identity string
}

var _ error = Missing{}

func (m Missing) Error() string {
	return fmt.Sprintf("%s is not found in %s", m.Identity, m.Table)
}

func (m Missing) Unwrap() error {
	return domerr.ErrMissing
}

// TooMuch: the requested record is found more times than expected.
type TooMuch struct {
	Table    string
	Identity string
	Expected int
}

var _ error = TooMuch{}

func (t TooMuch) Error() string {
	return fmt.Sprintf(
		"%s is found in %s more than %d times",
		t.Identity, t.Table, t.Expected,
	)
}

func (t TooMuch) Unwrap() error {
	return domerr.ErrTooMuch
}

// FormalConstraint: the call violates a formal contract of the layer.
type FormalConstraint struct {
	Reason string
}

var _ error = FormalConstraint{}

func (f FormalConstraint) Error() string {
	return "formal constraint: " + f.Reason
}

func (f FormalConstraint) Unwrap() error {
	return domerr.ErrFormalConstraint
}

// ReadOnly: the target row is protected and the caller is not the system
// principal.
type ReadOnly struct {
	Table    string
	Identity string
}

var _ error = ReadOnly{}

func (r ReadOnly) Error() string {
	return fmt.Sprintf("%s in %s is read-only", r.Identity, r.Table)
}

func (r ReadOnly) Unwrap() error {
	return domerr.ErrReadOnly
}

// AsMissing converts a foreign-key violation raised by conn.Exec/Query into a
// Missing error naming the offended table, or returns err unchanged.
func AsMissing(err error, identity string) error {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return err
	}
	if pgErr.Code != pgerrcode.ForeignKeyViolation {
		return err
	}
	return Missing{
		Table:    pgErr.TableName,
		Identity: fmt.Sprintf("%s (constraint: %s)", identity, pgErr.ConstraintName),
	}
}

// IsUniqueViolation reports whether err is a unique-constraint violation.
func IsUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation
}
