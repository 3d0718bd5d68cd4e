package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	apicpt "github.com/carestack/cdr/pkg/api/types/concepts"
	apierr "github.com/carestack/cdr/pkg/api/types/errors"
	"github.com/carestack/cdr/pkg/persistence"
	"github.com/carestack/cdr/pkg/utils/slices"
)

// GetConceptHandler resolves a concept by key, or by ?mnemonic=... when the
// path key is the literal "lookup".
func GetConceptHandler(store persistence.ConceptStore, paramKey string) echo.HandlerFunc {
	return func(c echo.Context) error {
		ctx := c.Request().Context()
		raw := c.Param(paramKey)

		if raw == "lookup" {
			mnemonic := c.QueryParam("mnemonic")
			if mnemonic == "" {
				return apierr.BadRequest(`"mnemonic" is required for lookup`, nil)
			}
			concept, err := store.GetByMnemonic(ctx, mnemonic)
			if err != nil {
				return apierr.FromPersistence(err)
			}
			return c.JSON(http.StatusOK, apicpt.ComposeDetail(concept))
		}

		key, err := uuid.Parse(raw)
		if err != nil {
			return apierr.BadRequest("concept key should be a uuid", err)
		}
		concept, err := store.Get(ctx, key)
		if err != nil {
			return apierr.FromPersistence(err)
		}
		return c.JSON(http.StatusOK, apicpt.ComposeDetail(concept))
	}
}

// PostConceptHandler registers a vocabulary entry.
func PostConceptHandler(store persistence.ConceptStore) echo.HandlerFunc {
	return func(c echo.Context) error {
		ctx := c.Request().Context()
		p, err := principal(c)
		if err != nil {
			return err
		}

		detail := apicpt.Detail{}
		decoder := json.NewDecoder(c.Request().Body)
		decoder.DisallowUnknownFields()
		if err := decoder.Decode(&detail); err != nil {
			return apierr.BadRequest(err.Error(), err)
		}

		concept, err := store.Insert(ctx, p, detail.ToDomain())
		if err != nil {
			return apierr.FromPersistence(err)
		}
		return c.JSON(http.StatusCreated, apicpt.ComposeDetail(concept))
	}
}

// PutConceptHandler updates a vocabulary entry in place.
func PutConceptHandler(store persistence.ConceptStore, paramKey string) echo.HandlerFunc {
	return func(c echo.Context) error {
		ctx := c.Request().Context()
		p, err := principal(c)
		if err != nil {
			return err
		}

		key, err := uuid.Parse(c.Param(paramKey))
		if err != nil {
			return apierr.BadRequest("concept key should be a uuid", err)
		}

		detail := apicpt.Detail{}
		decoder := json.NewDecoder(c.Request().Body)
		decoder.DisallowUnknownFields()
		if err := decoder.Decode(&detail); err != nil {
			return apierr.BadRequest(err.Error(), err)
		}
		detail.Key = key

		concept, err := store.Update(ctx, p, detail.ToDomain())
		if err != nil {
			return apierr.FromPersistence(err)
		}
		return c.JSON(http.StatusOK, apicpt.ComposeDetail(concept))
	}
}

// DeleteConceptHandler soft-deletes a vocabulary entry.
func DeleteConceptHandler(store persistence.ConceptStore, paramKey string) echo.HandlerFunc {
	return func(c echo.Context) error {
		ctx := c.Request().Context()
		p, err := principal(c)
		if err != nil {
			return err
		}

		key, err := uuid.Parse(c.Param(paramKey))
		if err != nil {
			return apierr.BadRequest("concept key should be a uuid", err)
		}

		if err := store.Obsolete(ctx, p, key); err != nil {
			return apierr.FromPersistence(err)
		}
		return c.NoContent(http.StatusNoContent)
	}
}

// ListIdentityDomainHandler lists assigning authorities.
func ListIdentityDomainHandler(store persistence.IdentityDomainStore) echo.HandlerFunc {
	return func(c echo.Context) error {
		ctx := c.Request().Context()

		domains, err := store.List(ctx)
		if err != nil {
			return apierr.FromPersistence(err)
		}
		return c.JSON(http.StatusOK, slices.Map(domains, apicpt.ComposeIdentityDomain))
	}
}

// PostIdentityDomainHandler registers an assigning authority.
func PostIdentityDomainHandler(store persistence.IdentityDomainStore) echo.HandlerFunc {
	return func(c echo.Context) error {
		ctx := c.Request().Context()
		p, err := principal(c)
		if err != nil {
			return err
		}

		payload := apicpt.IdentityDomain{}
		decoder := json.NewDecoder(c.Request().Body)
		decoder.DisallowUnknownFields()
		if err := decoder.Decode(&payload); err != nil {
			return apierr.BadRequest(err.Error(), err)
		}

		created, err := store.Insert(ctx, p, payload.ToDomain())
		if err != nil {
			return apierr.FromPersistence(err)
		}
		return c.JSON(http.StatusCreated, apicpt.ComposeIdentityDomain(created))
	}
}
