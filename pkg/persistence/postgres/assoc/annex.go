package assoc

import (
	"bytes"
	"context"
	"fmt"

	"github.com/google/uuid"

	cpool "github.com/carestack/cdr/pkg/conn/db/postgres/pool"
	"github.com/carestack/cdr/pkg/domain"
)

// Annex names the tag, note and extension tables of one versioned family.
type Annex struct {
	OwnerKey  string
	TagTable  string
	NoteTable string
	ExtTable  string
}

var (
	EntityAnnex = Annex{
		OwnerKey: "ent_id",
		TagTable: "ent_tag_tbl", NoteTable: "ent_note_tbl", ExtTable: "ent_ext_tbl",
	}
	ActAnnex = Annex{
		OwnerKey: "act_id",
		TagTable: "act_tag_tbl", NoteTable: "act_note_tbl", ExtTable: "act_ext_tbl",
	}
)

// Tags fetches the tags of the owner. Tags sit outside the version chain.
func (a Annex) Tags(
	ctx context.Context, conn cpool.Queryer, ownerKey uuid.UUID,
) ([]domain.Tag, error) {
	rows, err := conn.Query(
		ctx,
		fmt.Sprintf(
			`SELECT "tag_name", "tag_val" FROM "%s" WHERE "%s" = $1 ORDER BY "tag_name"`,
			a.TagTable, a.OwnerKey,
		),
		ownerKey,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	tags := []domain.Tag{}
	for rows.Next() {
		t := domain.Tag{SourceKey: ownerKey}
		if err := rows.Scan(&t.Name, &t.Value); err != nil {
			return nil, err
		}
		tags = append(tags, t)
	}
	return tags, rows.Err()
}

// SyncTags upserts the incoming tags in place and removes stored tags absent
// from the collection. An empty incoming value removes the tag.
func (a Annex) SyncTags(
	ctx context.Context, conn cpool.Queryer, ownerKey uuid.UUID, incoming []domain.Tag,
) error {
	existing, err := a.Tags(ctx, conn, ownerKey)
	if err != nil {
		return err
	}

	d := Plan(
		existing, incoming,
		func(x, y domain.Tag) bool { return x.Name == y.Name },
		func(old, new domain.Tag) bool { return old.Value != new.Value },
	)

	for _, ins := range d.Insert {
		if ins.Value == "" {
			continue
		}
		if _, err := conn.Exec(
			ctx,
			fmt.Sprintf(
				`INSERT INTO "%s" ("%s", "tag_name", "tag_val") VALUES ($1, $2, $3)`,
				a.TagTable, a.OwnerKey,
			),
			ownerKey, ins.Name, ins.Value,
		); err != nil {
			return err
		}
	}

	for _, upd := range d.Update {
		if upd.Value == "" {
			d.Obsolete = append(d.Obsolete, upd)
			continue
		}
		if _, err := conn.Exec(
			ctx,
			fmt.Sprintf(
				`UPDATE "%s" SET "tag_val" = $1 WHERE "%s" = $2 AND "tag_name" = $3`,
				a.TagTable, a.OwnerKey,
			),
			upd.Value, ownerKey, upd.Name,
		); err != nil {
			return err
		}
	}

	for _, obs := range d.Obsolete {
		if _, err := conn.Exec(
			ctx,
			fmt.Sprintf(
				`DELETE FROM "%s" WHERE "%s" = $1 AND "tag_name" = $2`,
				a.TagTable, a.OwnerKey,
			),
			ownerKey, obs.Name,
		); err != nil {
			return err
		}
	}

	return nil
}

// Notes fetches the notes of the owner visible at the given version sequence.
func (a Annex) Notes(
	ctx context.Context, conn cpool.Queryer, ownerKey uuid.UUID, atSequence int64,
) ([]domain.Note, error) {
	rows, err := conn.Query(
		ctx,
		fmt.Sprintf(
			`SELECT "asoc_id", "auth_id", "note_txt",
			        "efft_vrsn_seq_id", "obslt_vrsn_seq_id"
			 FROM "%s"
			 WHERE "%s" = $1
			   AND "efft_vrsn_seq_id" <= $2
			   AND ("obslt_vrsn_seq_id" IS NULL OR "obslt_vrsn_seq_id" > $2)
			 ORDER BY "efft_vrsn_seq_id"`,
			a.NoteTable, a.OwnerKey,
		),
		ownerKey, atSequence,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	notes := []domain.Note{}
	for rows.Next() {
		n := domain.Note{}
		n.SourceKey = ownerKey
		if err := rows.Scan(
			&n.Key, &n.AuthorKey, &n.Text,
			&n.EffectiveVersionSequence, &n.ObsoleteVersionSequence,
		); err != nil {
			return nil, err
		}
		notes = append(notes, n)
	}
	return notes, rows.Err()
}

// SyncNotes reconciles the stored notes with the incoming collection at a
// version transition to newSequence.
func (a Annex) SyncNotes(
	ctx context.Context, conn cpool.Queryer,
	ownerKey uuid.UUID, newSequence int64, incoming []domain.Note,
) error {
	existing, err := a.Notes(ctx, conn, ownerKey, newSequence)
	if err != nil {
		return err
	}

	d := Plan(
		existing, incoming,
		func(x, y domain.Note) bool { return x.AuthorKey == y.AuthorKey && x.Text == y.Text },
		nil,
	)

	for _, ins := range d.Insert {
		key := ins.Key
		if key == uuid.Nil {
			key = uuid.New()
		}
		if _, err := conn.Exec(
			ctx,
			fmt.Sprintf(
				`INSERT INTO "%s" ("asoc_id", "%s", "auth_id", "note_txt", "efft_vrsn_seq_id")
				 VALUES ($1, $2, $3, $4, $5)`,
				a.NoteTable, a.OwnerKey,
			),
			key, ownerKey, ins.AuthorKey, ins.Text, newSequence,
		); err != nil {
			return err
		}
	}

	for _, obs := range d.Obsolete {
		if _, err := conn.Exec(
			ctx,
			fmt.Sprintf(
				`UPDATE "%s" SET "obslt_vrsn_seq_id" = $1 WHERE "asoc_id" = $2`,
				a.NoteTable,
			),
			newSequence, obs.Key,
		); err != nil {
			return err
		}
	}

	return nil
}

// Extensions fetches the extensions of the owner visible at the given version
// sequence.
func (a Annex) Extensions(
	ctx context.Context, conn cpool.Queryer, ownerKey uuid.UUID, atSequence int64,
) ([]domain.Extension, error) {
	rows, err := conn.Query(
		ctx,
		fmt.Sprintf(
			`SELECT "asoc_id", "ext_typ_cd", "ext_val",
			        "efft_vrsn_seq_id", "obslt_vrsn_seq_id"
			 FROM "%s"
			 WHERE "%s" = $1
			   AND "efft_vrsn_seq_id" <= $2
			   AND ("obslt_vrsn_seq_id" IS NULL OR "obslt_vrsn_seq_id" > $2)
			 ORDER BY "efft_vrsn_seq_id"`,
			a.ExtTable, a.OwnerKey,
		),
		ownerKey, atSequence,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	exts := []domain.Extension{}
	for rows.Next() {
		e := domain.Extension{}
		e.SourceKey = ownerKey
		if err := rows.Scan(
			&e.Key, &e.TypeKey, &e.Value,
			&e.EffectiveVersionSequence, &e.ObsoleteVersionSequence,
		); err != nil {
			return nil, err
		}
		exts = append(exts, e)
	}
	return exts, rows.Err()
}

// SyncExtensions reconciles the stored extensions with the incoming
// collection at a version transition to newSequence.
func (a Annex) SyncExtensions(
	ctx context.Context, conn cpool.Queryer,
	ownerKey uuid.UUID, newSequence int64, incoming []domain.Extension,
) error {
	existing, err := a.Extensions(ctx, conn, ownerKey, newSequence)
	if err != nil {
		return err
	}

	d := Plan(
		existing, incoming,
		func(x, y domain.Extension) bool {
			return x.TypeKey == y.TypeKey && bytes.Equal(x.Value, y.Value)
		},
		nil,
	)

	for _, ins := range d.Insert {
		key := ins.Key
		if key == uuid.Nil {
			key = uuid.New()
		}
		if _, err := conn.Exec(
			ctx,
			fmt.Sprintf(
				`INSERT INTO "%s" ("asoc_id", "%s", "ext_typ_cd", "ext_val", "efft_vrsn_seq_id")
				 VALUES ($1, $2, $3, $4, $5)`,
				a.ExtTable, a.OwnerKey,
			),
			key, ownerKey, ins.TypeKey, ins.Value, newSequence,
		); err != nil {
			return err
		}
	}

	for _, obs := range d.Obsolete {
		if _, err := conn.Exec(
			ctx,
			fmt.Sprintf(
				`UPDATE "%s" SET "obslt_vrsn_seq_id" = $1 WHERE "asoc_id" = $2`,
				a.ExtTable,
			),
			newSequence, obs.Key,
		); err != nil {
			return err
		}
	}

	return nil
}
