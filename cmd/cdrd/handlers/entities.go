package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	apient "github.com/carestack/cdr/pkg/api/types/entities"
	apierr "github.com/carestack/cdr/pkg/api/types/errors"
	"github.com/carestack/cdr/pkg/domain"
	"github.com/carestack/cdr/pkg/persistence"
	"github.com/carestack/cdr/pkg/utils/slices"
)

// FindEntityHandler pages over entities.
//
// query parameters: class, status, name, identifier, identifierDomain,
// includeObsolete, obsoleteOnly + the shared pagination controls.
func FindEntityHandler(store persistence.EntityStore) echo.HandlerFunc {
	return func(c echo.Context) error {
		ctx := c.Request().Context()
		params := c.QueryParams()

		opts, err := queryOptions(params)
		if err != nil {
			return apierr.BadRequest(err.Error(), err)
		}

		q := persistence.EntityQuery{
			NameValue:        stringQuery(params, "name"),
			IdentifierValue:  stringQuery(params, "identifier"),
			IdentifierDomain: stringQuery(params, "identifierDomain"),
		}
		if q.ClassKey, err = uuidQuery(params, "class"); err != nil {
			return apierr.BadRequest(err.Error(), err)
		}
		if q.StatusKey, err = uuidQuery(params, "status"); err != nil {
			return apierr.BadRequest(err.Error(), err)
		}
		if q.IncludeObsolete, err = boolQuery(params, "includeObsolete"); err != nil {
			return apierr.BadRequest(err.Error(), err)
		}
		if q.ObsoleteOnly, err = boolQuery(params, "obsoleteOnly"); err != nil {
			return apierr.BadRequest(err.Error(), err)
		}

		result, err := store.Query(ctx, []persistence.EntityQuery{q}, opts)
		if err != nil {
			return apierr.FromPersistence(err)
		}

		return c.JSON(http.StatusOK, apient.FindResult{
			Items:       slices.Map(result.Items, apient.ComposeDetail),
			Total:       result.Total,
			Approximate: result.Approximate,
		})
	}
}

// GetEntityHandler resolves one entity, current or ?version=... historical.
func GetEntityHandler(store persistence.EntityStore, paramKey string) echo.HandlerFunc {
	return func(c echo.Context) error {
		ctx := c.Request().Context()

		key, err := uuid.Parse(c.Param(paramKey))
		if err != nil {
			return apierr.BadRequest("entity key should be a uuid", err)
		}
		versionKey := uuid.Nil
		if v, err := uuidQuery(c.QueryParams(), "version"); err != nil {
			return apierr.BadRequest(err.Error(), err)
		} else if v != nil {
			versionKey = *v
		}

		rec, err := store.Get(ctx, key, versionKey, domain.LoadFull)
		if err != nil {
			return apierr.FromPersistence(err)
		}
		return c.JSON(http.StatusOK, apient.ComposeDetail(rec))
	}
}

// PostEntityHandler inserts the first version of a new entity.
func PostEntityHandler(store persistence.EntityStore) echo.HandlerFunc {
	return func(c echo.Context) error {
		ctx := c.Request().Context()
		p, err := principal(c)
		if err != nil {
			return err
		}

		detail, herr := decodeEntity(c)
		if herr != nil {
			return herr
		}

		rec, err := store.Insert(ctx, p, detail.ToDomain())
		if err != nil {
			return apierr.FromPersistence(err)
		}
		return c.JSON(http.StatusCreated, apient.ComposeDetail(rec))
	}
}

// PutEntityHandler appends a new current version of an existing entity.
func PutEntityHandler(store persistence.EntityStore, paramKey string) echo.HandlerFunc {
	return func(c echo.Context) error {
		ctx := c.Request().Context()
		p, err := principal(c)
		if err != nil {
			return err
		}

		key, err := uuid.Parse(c.Param(paramKey))
		if err != nil {
			return apierr.BadRequest("entity key should be a uuid", err)
		}

		detail, herr := decodeEntity(c)
		if herr != nil {
			return herr
		}
		rec := detail.ToDomain()
		rec.EntityBody().Key = key

		updated, err := store.Update(ctx, p, rec)
		if err != nil {
			return apierr.FromPersistence(err)
		}
		return c.JSON(http.StatusOK, apient.ComposeDetail(updated))
	}
}

// DeleteEntityHandler soft-deletes by default; ?purge=true erases history
// down to the tombstone.
func DeleteEntityHandler(store persistence.EntityStore, paramKey string) echo.HandlerFunc {
	return func(c echo.Context) error {
		ctx := c.Request().Context()
		p, err := principal(c)
		if err != nil {
			return err
		}

		key, err := uuid.Parse(c.Param(paramKey))
		if err != nil {
			return apierr.BadRequest("entity key should be a uuid", err)
		}
		purge, err := boolQuery(c.QueryParams(), "purge")
		if err != nil {
			return apierr.BadRequest(err.Error(), err)
		}

		if purge {
			err = store.Purge(ctx, p, []uuid.UUID{key})
		} else {
			err = store.Obsolete(ctx, p, []uuid.UUID{key})
		}
		if err != nil {
			return apierr.FromPersistence(err)
		}
		return c.NoContent(http.StatusNoContent)
	}
}

func decodeEntity(c echo.Context) (apient.Detail, *echo.HTTPError) {
	detail := apient.Detail{}
	decoder := json.NewDecoder(c.Request().Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(&detail); err != nil {
		return detail, apierr.NewErrorMessage(
			http.StatusBadRequest,
			"format error",
			apierr.WithAdvice(err.Error()),
			apierr.WithError(err),
		)
	}
	return detail, nil
}
