package domain

import (
	"time"

	"github.com/google/uuid"
)

// SecurityUser is an authenticatable account. Base-layer: soft-deleted, no
// version chain.
type SecurityUser struct {
	BaseRecord

	UserName     string
	PasswordHash string
	Email        *string
	// Lockout, when in the future, blocks authentication.
	Lockout              *time.Time
	InvalidLoginAttempts int
}

// IsLocked reports whether the account is locked out at t.
func (u SecurityUser) IsLocked(t time.Time) bool {
	return u.Lockout != nil && t.Before(*u.Lockout)
}

// Provenance records who caused a mutation and when the session was
// established. Provenance rows are identified-layer: immutable once written.
type Provenance struct {
	Key uuid.UUID

	UserKey         uuid.UUID
	ApplicationKey  *uuid.UUID
	SessionKey      *uuid.UUID
	EstablishedTime time.Time
}

func (p *Provenance) RecordKey() uuid.UUID {
	return p.Key
}

// Principal is the acting identity passed explicitly into every mutating
// persistence call.
type Principal struct {
	UserKey        uuid.UUID
	UserName       string
	ApplicationKey *uuid.UUID
	// ProvenanceKey is filled by the security store when a provenance row has
	// been established for this principal's session.
	ProvenanceKey uuid.UUID
}

// IsSystem reports whether the principal is the internal system identity,
// which may edit read-only rows.
func (p Principal) IsSystem() bool {
	return p.UserKey == SystemUserKey
}

// SystemPrincipal is the internal identity used by bootstrap and maintenance
// paths.
func SystemPrincipal() Principal {
	return Principal{
		UserKey:       SystemUserKey,
		UserName:      "SYSTEM",
		ProvenanceKey: SystemProvenanceKey,
	}
}
