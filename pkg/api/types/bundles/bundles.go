// Package bundles carries the wire form of transactional batches. Items are
// heterogeneous: each slot holds either an entity or an act detail.
package bundles

import (
	"fmt"

	"github.com/google/uuid"

	"github.com/carestack/cdr/pkg/api/types/acts"
	"github.com/carestack/cdr/pkg/api/types/entities"
	"github.com/carestack/cdr/pkg/domain"
	"github.com/carestack/cdr/pkg/utils/slices"
)

// Item is a one-of: exactly one of Entity and Act is set.
type Item struct {
	Entity *entities.Detail `json:"entity,omitempty"`
	Act    *acts.Detail     `json:"act,omitempty"`
}

type Bundle struct {
	Items []Item `json:"items"`
	// ExpansionKeys name items included for reference resolution only; they
	// are not persisted.
	ExpansionKeys []uuid.UUID `json:"expansionKeys,omitempty"`
}

func Compose(b domain.Bundle) (Bundle, error) {
	items, err := slices.MapUntilError(b.Items, func(rec domain.Record) (Item, error) {
		switch r := rec.(type) {
		case domain.EntityRecord:
			d := entities.ComposeDetail(r)
			return Item{Entity: &d}, nil
		case domain.ActRecord:
			d := acts.ComposeDetail(r)
			return Item{Act: &d}, nil
		default:
			return Item{}, fmt.Errorf("bundle cannot carry %T", rec)
		}
	})
	if err != nil {
		return Bundle{}, err
	}
	return Bundle{
		Items:         items,
		ExpansionKeys: slices.Clone(b.ExpansionKeys),
	}, nil
}

func (b Bundle) ToDomain() (domain.Bundle, error) {
	items, err := slices.MapUntilError(b.Items, func(i Item) (domain.Record, error) {
		switch {
		case i.Entity != nil && i.Act == nil:
			return i.Entity.ToDomain(), nil
		case i.Act != nil && i.Entity == nil:
			return i.Act.ToDomain(), nil
		default:
			return nil, fmt.Errorf("bundle items hold exactly one of entity or act")
		}
	})
	if err != nil {
		return domain.Bundle{}, err
	}
	return domain.Bundle{
		Items:         items,
		ExpansionKeys: slices.Clone(b.ExpansionKeys),
	}, nil
}
