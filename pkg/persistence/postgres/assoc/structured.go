package assoc

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	cpool "github.com/carestack/cdr/pkg/conn/db/postgres/pool"
	"github.com/carestack/cdr/pkg/domain"
)

// structuredShape names the three tables carrying one structured collection:
// the association rows, their ordered components, and the content-addressed
// value table the components point into.
type structuredShape struct {
	AssocTable string
	CmpTable   string
	ValTable   string
}

var (
	nameShape    = structuredShape{"ent_name_tbl", "name_cmp_tbl", "phon_val_tbl"}
	addressShape = structuredShape{"ent_addr_tbl", "addr_cmp_tbl", "addr_val_tbl"}
)

// structuredRow is the in-flight form of one name or address.
type structuredRow struct {
	Key        uuid.UUID
	UseKey     uuid.UUID
	Components []component
}

type component struct {
	Key     uuid.UUID
	TypeKey uuid.UUID
	Value   string
}

func (r structuredRow) same(other structuredRow) bool {
	if r.UseKey != other.UseKey || len(r.Components) != len(other.Components) {
		return false
	}
	for nth, c := range r.Components {
		o := other.Components[nth]
		if c.TypeKey != o.TypeKey || c.Value != o.Value {
			return false
		}
	}
	return true
}

func (s structuredShape) load(
	ctx context.Context, conn cpool.Queryer, entityKey uuid.UUID, atSequence int64,
) ([]structuredRow, []domain.AssociationHeader, error) {
	rows, err := conn.Query(
		ctx,
		fmt.Sprintf(
			`SELECT a."asoc_id", a."use_cd", a."efft_vrsn_seq_id", a."obslt_vrsn_seq_id",
			        c."cmp_id", c."typ_cd", v."val"
			 FROM "%s" a
			 LEFT JOIN "%s" c ON c."asoc_id" = a."asoc_id"
			 LEFT JOIN "%s" v ON v."val_id" = c."val_id"
			 WHERE a."ent_id" = $1
			   AND a."efft_vrsn_seq_id" <= $2
			   AND (a."obslt_vrsn_seq_id" IS NULL OR a."obslt_vrsn_seq_id" > $2)
			 ORDER BY a."efft_vrsn_seq_id", a."asoc_id", c."cmp_seq"`,
			s.AssocTable, s.CmpTable, s.ValTable,
		),
		entityKey, atSequence,
	)
	if err != nil {
		return nil, nil, err
	}
	defer rows.Close()

	out := []structuredRow{}
	headers := []domain.AssociationHeader{}
	for rows.Next() {
		var (
			asocKey uuid.UUID
			useKey  uuid.UUID
			efft    *int64
			obslt   *int64
			cmpKey  *uuid.UUID
			typeKey *uuid.UUID
			value   *string
		)
		if err := rows.Scan(&asocKey, &useKey, &efft, &obslt, &cmpKey, &typeKey, &value); err != nil {
			return nil, nil, err
		}

		if len(out) == 0 || out[len(out)-1].Key != asocKey {
			out = append(out, structuredRow{Key: asocKey, UseKey: useKey})
			headers = append(headers, domain.AssociationHeader{
				Key:                      asocKey,
				SourceKey:                entityKey,
				EffectiveVersionSequence: efft,
				ObsoleteVersionSequence:  obslt,
			})
		}
		if cmpKey != nil && typeKey != nil && value != nil {
			last := &out[len(out)-1]
			last.Components = append(last.Components, component{
				Key: *cmpKey, TypeKey: *typeKey, Value: *value,
			})
		}
	}
	return out, headers, rows.Err()
}

// sync reconciles the stored rows of the collection with an incoming set at a
// version transition. A row whose components changed is treated as a new row;
// the old one is closed.
func (s structuredShape) sync(
	ctx context.Context, conn cpool.Queryer,
	entityKey uuid.UUID, newSequence int64, incoming []structuredRow,
) error {
	existing, _, err := s.load(ctx, conn, entityKey, newSequence)
	if err != nil {
		return err
	}

	d := Plan(existing, incoming, structuredRow.same, nil)

	for _, ins := range d.Insert {
		key := ins.Key
		if key == uuid.Nil {
			key = uuid.New()
		}
		if _, err := conn.Exec(
			ctx,
			fmt.Sprintf(
				`INSERT INTO "%s" ("asoc_id", "ent_id", "use_cd", "efft_vrsn_seq_id")
				 VALUES ($1, $2, $3, $4)`,
				s.AssocTable,
			),
			key, entityKey, ins.UseKey, newSequence,
		); err != nil {
			return err
		}

		for nth, c := range ins.Components {
			valKey, err := internValue(ctx, conn, s.ValTable, c.Value)
			if err != nil {
				return err
			}
			cmpKey := c.Key
			if cmpKey == uuid.Nil {
				cmpKey = uuid.New()
			}
			if _, err := conn.Exec(
				ctx,
				fmt.Sprintf(
					`INSERT INTO "%s" ("cmp_id", "asoc_id", "typ_cd", "val_id", "cmp_seq")
					 VALUES ($1, $2, $3, $4, $5)`,
					s.CmpTable,
				),
				cmpKey, key, c.TypeKey, valKey, nth,
			); err != nil {
				return err
			}
		}
	}

	for _, obs := range d.Obsolete {
		if _, err := conn.Exec(
			ctx,
			fmt.Sprintf(
				`UPDATE "%s" SET "obslt_vrsn_seq_id" = $1 WHERE "asoc_id" = $2`,
				s.AssocTable,
			),
			newSequence, obs.Key,
		); err != nil {
			return err
		}
	}

	return nil
}
