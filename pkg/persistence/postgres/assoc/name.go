package assoc

import (
	"context"

	"github.com/google/uuid"

	cpool "github.com/carestack/cdr/pkg/conn/db/postgres/pool"
	"github.com/carestack/cdr/pkg/domain"
	"github.com/carestack/cdr/pkg/utils/slices"
)

// LoadNames fetches the names of an entity visible at the given owner version
// sequence.
func LoadNames(
	ctx context.Context, conn cpool.Queryer, entityKey uuid.UUID, atSequence int64,
) ([]domain.EntityName, error) {
	rows, headers, err := nameShape.load(ctx, conn, entityKey, atSequence)
	if err != nil {
		return nil, err
	}

	names := make([]domain.EntityName, len(rows))
	for nth, r := range rows {
		names[nth] = domain.EntityName{
			AssociationHeader: headers[nth],
			UseKey:            r.UseKey,
			Components: slices.Map(r.Components, func(c component) domain.NameComponent {
				return domain.NameComponent{Key: c.Key, TypeKey: c.TypeKey, Value: c.Value}
			}),
		}
	}
	return names, nil
}

// SyncNames reconciles the stored names of an entity with the incoming
// collection at a version transition to newSequence.
func SyncNames(
	ctx context.Context, conn cpool.Queryer,
	entityKey uuid.UUID, newSequence int64, incoming []domain.EntityName,
) error {
	return nameShape.sync(
		ctx, conn, entityKey, newSequence,
		slices.Map(incoming, func(n domain.EntityName) structuredRow {
			return structuredRow{
				Key:    n.Key,
				UseKey: n.UseKey,
				Components: slices.Map(n.Components, func(c domain.NameComponent) component {
					return component{Key: c.Key, TypeKey: c.TypeKey, Value: c.Value}
				}),
			}
		}),
	)
}
