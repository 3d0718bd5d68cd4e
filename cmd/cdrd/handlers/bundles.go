package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/labstack/echo/v4"

	apibundle "github.com/carestack/cdr/pkg/api/types/bundles"
	apierr "github.com/carestack/cdr/pkg/api/types/errors"
	"github.com/carestack/cdr/pkg/persistence"
)

// SubmitBundleHandler persists a heterogeneous batch in one transaction.
func SubmitBundleHandler(store persistence.BundleStore) echo.HandlerFunc {
	return func(c echo.Context) error {
		ctx := c.Request().Context()
		p, err := principal(c)
		if err != nil {
			return err
		}

		payload := apibundle.Bundle{}
		decoder := json.NewDecoder(c.Request().Body)
		decoder.DisallowUnknownFields()
		if err := decoder.Decode(&payload); err != nil {
			return apierr.NewErrorMessage(
				http.StatusBadRequest,
				"format error",
				apierr.WithAdvice(err.Error()),
				apierr.WithError(err),
			)
		}

		b, err := payload.ToDomain()
		if err != nil {
			return apierr.BadRequest(err.Error(), err)
		}

		persisted, err := store.Submit(ctx, p, b, nil)
		if err != nil {
			return apierr.FromPersistence(err)
		}

		out, err := apibundle.Compose(persisted)
		if err != nil {
			return apierr.InternalServerError(err)
		}
		return c.JSON(http.StatusOK, out)
	}
}
