package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	apiact "github.com/carestack/cdr/pkg/api/types/acts"
	apierr "github.com/carestack/cdr/pkg/api/types/errors"
	"github.com/carestack/cdr/pkg/domain"
	"github.com/carestack/cdr/pkg/persistence"
	"github.com/carestack/cdr/pkg/utils/slices"
)

// FindActHandler pages over acts.
//
// query parameters: class, mood, status, patient, from, to,
// includeObsolete, obsoleteOnly + the shared pagination controls.
func FindActHandler(store persistence.ActStore) echo.HandlerFunc {
	return func(c echo.Context) error {
		ctx := c.Request().Context()
		params := c.QueryParams()

		opts, err := queryOptions(params)
		if err != nil {
			return apierr.BadRequest(err.Error(), err)
		}

		q := persistence.ActQuery{}
		if q.ClassKey, err = uuidQuery(params, "class"); err != nil {
			return apierr.BadRequest(err.Error(), err)
		}
		if q.MoodKey, err = uuidQuery(params, "mood"); err != nil {
			return apierr.BadRequest(err.Error(), err)
		}
		if q.StatusKey, err = uuidQuery(params, "status"); err != nil {
			return apierr.BadRequest(err.Error(), err)
		}
		if q.PatientKey, err = uuidQuery(params, "patient"); err != nil {
			return apierr.BadRequest(err.Error(), err)
		}
		if q.From, err = timeQuery(params, "from"); err != nil {
			return apierr.BadRequest(err.Error(), err)
		}
		if q.To, err = timeQuery(params, "to"); err != nil {
			return apierr.BadRequest(err.Error(), err)
		}
		if q.IncludeObsolete, err = boolQuery(params, "includeObsolete"); err != nil {
			return apierr.BadRequest(err.Error(), err)
		}
		if q.ObsoleteOnly, err = boolQuery(params, "obsoleteOnly"); err != nil {
			return apierr.BadRequest(err.Error(), err)
		}

		result, err := store.Query(ctx, []persistence.ActQuery{q}, opts)
		if err != nil {
			return apierr.FromPersistence(err)
		}

		return c.JSON(http.StatusOK, apiact.FindResult{
			Items:       slices.Map(result.Items, apiact.ComposeDetail),
			Total:       result.Total,
			Approximate: result.Approximate,
		})
	}
}

// GetActHandler resolves one act, current or ?version=... historical.
func GetActHandler(store persistence.ActStore, paramKey string) echo.HandlerFunc {
	return func(c echo.Context) error {
		ctx := c.Request().Context()

		key, err := uuid.Parse(c.Param(paramKey))
		if err != nil {
			return apierr.BadRequest("act key should be a uuid", err)
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
		return c.JSON(http.StatusOK, apiact.ComposeDetail(rec))
	}
}

// PostActHandler inserts the first version of a new act.
func PostActHandler(store persistence.ActStore) echo.HandlerFunc {
	return func(c echo.Context) error {
		ctx := c.Request().Context()
		p, err := principal(c)
		if err != nil {
			return err
		}

		detail, herr := decodeAct(c)
		if herr != nil {
			return herr
		}

		rec, err := store.Insert(ctx, p, detail.ToDomain())
		if err != nil {
			return apierr.FromPersistence(err)
		}
		return c.JSON(http.StatusCreated, apiact.ComposeDetail(rec))
	}
}

// PutActHandler appends a new current version of an existing act.
func PutActHandler(store persistence.ActStore, paramKey string) echo.HandlerFunc {
	return func(c echo.Context) error {
		ctx := c.Request().Context()
		p, err := principal(c)
		if err != nil {
			return err
		}

		key, err := uuid.Parse(c.Param(paramKey))
		if err != nil {
			return apierr.BadRequest("act key should be a uuid", err)
		}

		detail, herr := decodeAct(c)
		if herr != nil {
			return herr
		}
		rec := detail.ToDomain()
		rec.ActBody().Key = key

		updated, err := store.Update(ctx, p, rec)
		if err != nil {
			return apierr.FromPersistence(err)
		}
		return c.JSON(http.StatusOK, apiact.ComposeDetail(updated))
	}
}

// DeleteActHandler soft-deletes by default; ?purge=true erases history down
// to the tombstone.
func DeleteActHandler(store persistence.ActStore, paramKey string) echo.HandlerFunc {
	return func(c echo.Context) error {
		ctx := c.Request().Context()
		p, err := principal(c)
		if err != nil {
			return err
		}

		key, err := uuid.Parse(c.Param(paramKey))
		if err != nil {
			return apierr.BadRequest("act key should be a uuid", err)
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

func decodeAct(c echo.Context) (apiact.Detail, *echo.HTTPError) {
	detail := apiact.Detail{}
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
