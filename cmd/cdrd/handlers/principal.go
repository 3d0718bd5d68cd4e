package handlers

import (
	"github.com/labstack/echo/v4"

	apierr "github.com/carestack/cdr/pkg/api/types/errors"
	"github.com/carestack/cdr/pkg/domain"
)

// PrincipalContextKey is where the auth middleware deposits the caller's
// identity, provenance already stamped.
const PrincipalContextKey = "cdr-principal"

func principal(c echo.Context) (domain.Principal, error) {
	p, ok := c.Get(PrincipalContextKey).(domain.Principal)
	if !ok {
		return domain.Principal{}, apierr.Unauthorized("no authenticated principal")
	}
	return p, nil
}
