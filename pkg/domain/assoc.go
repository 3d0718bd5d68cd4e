package domain

import (
	"time"

	"github.com/google/uuid"
)

// EntityIdentifier is an external identifier attached to an entity, scoped to
// an identity domain (assigning authority).
type EntityIdentifier struct {
	AssociationHeader

	DomainKey uuid.UUID
	Value     string
	// TypeKey optionally classifies the identifier (MRN, insurance number...).
	TypeKey *uuid.UUID
	// IssuedTime is when the authority issued the identifier, if known.
	IssuedTime *time.Time
}

// SameIdentity reports whether other names the same identifier in the same
// domain.
func (i EntityIdentifier) SameIdentity(other EntityIdentifier) bool {
	return i.DomainKey == other.DomainKey && i.Value == other.Value
}

// IdentityDomain describes an assigning authority for entity identifiers.
type IdentityDomain struct {
	BaseRecord

	DomainName string
	Oid        string
	// Unique means one identifier value names at most one entity in this
	// domain.
	Unique bool
	// ValidationPattern, when set, is a regular expression identifier values
	// must match.
	ValidationPattern *string
	// ScopeKeys restricts which entity classes may carry identifiers in this
	// domain. Empty means unrestricted.
	ScopeKeys []uuid.UUID
	// AssignerKeys lists applications allowed to assign identifiers in this
	// domain. Empty means any.
	AssignerKeys []uuid.UUID
}

// InScope reports whether entities of classKey may carry identifiers of this
// domain.
func (d IdentityDomain) InScope(classKey uuid.UUID) bool {
	if len(d.ScopeKeys) == 0 {
		return true
	}
	for _, s := range d.ScopeKeys {
		if s == classKey {
			return true
		}
	}
	return false
}

// MayAssign reports whether the application may assign identifiers in this
// domain.
func (d IdentityDomain) MayAssign(applicationKey uuid.UUID) bool {
	if len(d.AssignerKeys) == 0 {
		return true
	}
	for _, a := range d.AssignerKeys {
		if a == applicationKey {
			return true
		}
	}
	return false
}

// NameComponent is one piece of a structured name. Values are interned in a
// content-addressed value table.
type NameComponent struct {
	Key     uuid.UUID
	TypeKey uuid.UUID
	Value   string
}

// EntityName is a structured name attached to an entity.
type EntityName struct {
	AssociationHeader

	UseKey     uuid.UUID
	Components []NameComponent
}

// Text flattens the name components in order.
func (n EntityName) Text() string {
	out := ""
	for nth, c := range n.Components {
		if nth != 0 {
			out += " "
		}
		out += c.Value
	}
	return out
}

// AddressComponent is one piece of a structured address.
type AddressComponent struct {
	Key     uuid.UUID
	TypeKey uuid.UUID
	Value   string
}

// EntityAddress is a structured address attached to an entity.
type EntityAddress struct {
	AssociationHeader

	UseKey     uuid.UUID
	Components []AddressComponent
}

// EntityRelationship links a source entity to a target entity with a typed
// role.
//
// Invariant: at most one non-obsolete row per (source, target, type) triple.
type EntityRelationship struct {
	AssociationHeader

	TypeKey   uuid.UUID
	TargetKey uuid.UUID
	// Quantity is the only caller-mutable attribute; updating a duplicate
	// triple with a new quantity updates the existing row in place.
	Quantity *int
}

func (r *EntityRelationship) References() []uuid.UUID {
	return []uuid.UUID{r.SourceKey, r.TargetKey}
}

// SameTriple reports whether other links the same (source, target, type).
func (r EntityRelationship) SameTriple(other EntityRelationship) bool {
	return r.SourceKey == other.SourceKey &&
		r.TargetKey == other.TargetKey &&
		r.TypeKey == other.TypeKey
}

// ActParticipation links an act to an entity playing a role in it.
//
// Invariant: at most one non-obsolete row per (act, player, role) triple.
type ActParticipation struct {
	AssociationHeader // SourceKey is the act

	RoleKey   uuid.UUID
	PlayerKey uuid.UUID
	Quantity  *int
}

func (p *ActParticipation) References() []uuid.UUID {
	return []uuid.UUID{p.SourceKey, p.PlayerKey}
}

// SameTriple reports whether other names the same (act, player, role).
func (p ActParticipation) SameTriple(other ActParticipation) bool {
	return p.SourceKey == other.SourceKey &&
		p.PlayerKey == other.PlayerKey &&
		p.RoleKey == other.RoleKey
}

// Tag is a non-versioned key/value annotation on a record. Tags mutate in
// place and never participate in the version chain.
type Tag struct {
	SourceKey uuid.UUID
	Name      string
	Value     string
}

// Note is a free-text annotation bound to the owner's version lifecycle.
type Note struct {
	AssociationHeader

	AuthorKey uuid.UUID
	Text      string
}

// Extension is an opaque typed payload attached to a record, used among other
// things for data-quality annotations.
type Extension struct {
	AssociationHeader

	TypeKey uuid.UUID
	Value   []byte
}
