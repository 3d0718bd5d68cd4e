package assoc

import (
	"context"

	"github.com/google/uuid"

	cpool "github.com/carestack/cdr/pkg/conn/db/postgres/pool"
	"github.com/carestack/cdr/pkg/domain"
	"github.com/carestack/cdr/pkg/utils/slices"
)

// LoadAddresses fetches the addresses of an entity visible at the given owner
// version sequence.
func LoadAddresses(
	ctx context.Context, conn cpool.Queryer, entityKey uuid.UUID, atSequence int64,
) ([]domain.EntityAddress, error) {
	rows, headers, err := addressShape.load(ctx, conn, entityKey, atSequence)
	if err != nil {
		return nil, err
	}

	addrs := make([]domain.EntityAddress, len(rows))
	for nth, r := range rows {
		addrs[nth] = domain.EntityAddress{
			AssociationHeader: headers[nth],
			UseKey:            r.UseKey,
			Components: slices.Map(r.Components, func(c component) domain.AddressComponent {
				return domain.AddressComponent{Key: c.Key, TypeKey: c.TypeKey, Value: c.Value}
			}),
		}
	}
	return addrs, nil
}

// SyncAddresses reconciles the stored addresses of an entity with the
// incoming collection at a version transition to newSequence.
func SyncAddresses(
	ctx context.Context, conn cpool.Queryer,
	entityKey uuid.UUID, newSequence int64, incoming []domain.EntityAddress,
) error {
	return addressShape.sync(
		ctx, conn, entityKey, newSequence,
		slices.Map(incoming, func(a domain.EntityAddress) structuredRow {
			return structuredRow{
				Key:    a.Key,
				UseKey: a.UseKey,
				Components: slices.Map(a.Components, func(c domain.AddressComponent) component {
					return component{Key: c.Key, TypeKey: c.TypeKey, Value: c.Value}
				}),
			}
		}),
	)
}
