package assoc

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	cpool "github.com/carestack/cdr/pkg/conn/db/postgres/pool"
)

// internValue resolves a component value to its row in a content-addressed
// value table, creating the row when the value is new. The upsert makes the
// lookup a single round trip and race-safe under concurrent writers.
func internValue(ctx context.Context, conn cpool.Queryer, table string, value string) (uuid.UUID, error) {
	var key uuid.UUID
	err := conn.QueryRow(
		ctx,
		fmt.Sprintf(
			`INSERT INTO "%s" ("val_id", "val") VALUES ($1, $2)
			 ON CONFLICT ("val") DO UPDATE SET "val" = EXCLUDED."val"
			 RETURNING "val_id"`,
			table,
		),
		uuid.New(), value,
	).Scan(&key)
	return key, err
}
