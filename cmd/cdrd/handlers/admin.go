package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/labstack/echo/v4"

	apiadmin "github.com/carestack/cdr/pkg/api/types/admin"
	apierr "github.com/carestack/cdr/pkg/api/types/errors"
	cpool "github.com/carestack/cdr/pkg/conn/db/postgres/pool"
	"github.com/carestack/cdr/pkg/persistence"
)

// HealthHandler reports liveness. It reads the schema version so a broken
// database connection turns the endpoint red.
func HealthHandler(store persistence.SchemaStore) echo.HandlerFunc {
	return func(c echo.Context) error {
		ctx := c.Request().Context()

		version, err := store.Version(ctx)
		if err != nil {
			return apierr.NewErrorMessage(
				http.StatusServiceUnavailable, "the clinical database is not reachable",
				apierr.WithError(err),
			)
		}

		return c.JSON(http.StatusOK, apiadmin.HealthResponse{
			Status:        "ok",
			SchemaVersion: version,
		})
	}
}

// CopyHandler replicates records into the replica store attached by
// configuration. dest is nil when no replica is configured; copy requests
// are then rejected.
func CopyHandler(entities persistence.EntityStore, acts persistence.ActStore, dest cpool.Pool) echo.HandlerFunc {
	return func(c echo.Context) error {
		ctx := c.Request().Context()
		if _, err := principal(c); err != nil {
			return err
		}

		if dest == nil {
			return apierr.NewErrorMessage(
				http.StatusServiceUnavailable, "no replica store is attached to this server",
			)
		}

		req := apiadmin.CopyRequest{}
		decoder := json.NewDecoder(c.Request().Body)
		decoder.DisallowUnknownFields()
		if err := decoder.Decode(&req); err != nil {
			return apierr.BadRequest(err.Error(), err)
		}
		if len(req.Keys) == 0 {
			return apierr.BadRequest(`"keys" should not be empty`, nil)
		}

		switch req.Kind {
		case "entity":
			if err := entities.Copy(ctx, req.Keys, dest); err != nil {
				return apierr.FromPersistence(err)
			}
		case "act":
			if err := acts.Copy(ctx, req.Keys, dest); err != nil {
				return apierr.FromPersistence(err)
			}
		default:
			return apierr.BadRequest(`"kind" should be "entity" or "act"`, nil)
		}

		return c.JSON(http.StatusOK, apiadmin.CopyResponse{Copied: len(req.Keys)})
	}
}

// ListSequencesHandler reports the version sequences and their current
// values, for auditing sequence resets after purges.
func ListSequencesHandler(store persistence.SchemaStore) echo.HandlerFunc {
	return func(c echo.Context) error {
		ctx := c.Request().Context()

		statuses, err := store.Sequences(ctx)
		if err != nil {
			return apierr.FromPersistence(err)
		}

		return c.JSON(http.StatusOK, apiadmin.ComposeSequences(statuses))
	}
}
