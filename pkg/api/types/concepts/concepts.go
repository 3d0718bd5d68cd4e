// Package concepts carries the wire form of coded vocabulary entries and
// identity domains.
package concepts

import (
	"github.com/google/uuid"

	"github.com/carestack/cdr/pkg/domain"
	"github.com/carestack/cdr/pkg/utils/slices"
)

type Detail struct {
	Key             uuid.UUID `json:"key"`
	Mnemonic        string    `json:"mnemonic"`
	ClassKey        uuid.UUID `json:"classKey,omitempty"`
	StatusKey       uuid.UUID `json:"statusKey,omitempty"`
	IsSystemConcept bool      `json:"isSystemConcept,omitempty"`
}

func (d Detail) Equal(o Detail) bool {
	return d == o
}

func ComposeDetail(c domain.Concept) Detail {
	return Detail{
		Key:             c.Key,
		Mnemonic:        c.Mnemonic,
		ClassKey:        c.ClassKey,
		StatusKey:       c.StatusKey,
		IsSystemConcept: c.IsSystemConcept,
	}
}

func (d Detail) ToDomain() domain.Concept {
	return domain.Concept{
		BaseRecord:      domain.BaseRecord{Key: d.Key},
		Mnemonic:        d.Mnemonic,
		ClassKey:        d.ClassKey,
		StatusKey:       d.StatusKey,
		IsSystemConcept: d.IsSystemConcept,
	}
}

type IdentityDomain struct {
	Key               uuid.UUID   `json:"key"`
	DomainName        string      `json:"domainName"`
	Oid               string      `json:"oid,omitempty"`
	Unique            bool        `json:"unique,omitempty"`
	ValidationPattern *string     `json:"validationPattern,omitempty"`
	ScopeKeys         []uuid.UUID `json:"scopeKeys,omitempty"`
	AssignerKeys      []uuid.UUID `json:"assignerKeys,omitempty"`
}

func ComposeIdentityDomain(d domain.IdentityDomain) IdentityDomain {
	return IdentityDomain{
		Key:               d.Key,
		DomainName:        d.DomainName,
		Oid:               d.Oid,
		Unique:            d.Unique,
		ValidationPattern: d.ValidationPattern,
		ScopeKeys:         slices.Clone(d.ScopeKeys),
		AssignerKeys:      slices.Clone(d.AssignerKeys),
	}
}

func (d IdentityDomain) ToDomain() domain.IdentityDomain {
	return domain.IdentityDomain{
		BaseRecord:        domain.BaseRecord{Key: d.Key},
		DomainName:        d.DomainName,
		Oid:               d.Oid,
		Unique:            d.Unique,
		ValidationPattern: d.ValidationPattern,
		ScopeKeys:         slices.Clone(d.ScopeKeys),
		AssignerKeys:      slices.Clone(d.AssignerKeys),
	}
}
