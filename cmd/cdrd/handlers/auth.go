package handlers

import (
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	apierr "github.com/carestack/cdr/pkg/api/types/errors"
	"github.com/carestack/cdr/pkg/domain"
	"github.com/carestack/cdr/pkg/persistence"
)

// TokenClaims is the payload of a cdrd access token.
type TokenClaims struct {
	jwt.RegisteredClaims
	UserName string `json:"name"`
}

// BearerAuth verifies the Authorization header, establishes provenance for
// the session, and stores the resulting principal under
// PrincipalContextKey.
func BearerAuth(store persistence.SecurityStore, signKey string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			ctx := c.Request().Context()

			header := c.Request().Header.Get(echo.HeaderAuthorization)
			const prefix = "Bearer "
			if len(header) <= len(prefix) || header[:len(prefix)] != prefix {
				return apierr.Unauthorized("bearer token is required")
			}

			claims := TokenClaims{}
			_, err := jwt.ParseWithClaims(
				header[len(prefix):], &claims,
				func(t *jwt.Token) (any, error) { return []byte(signKey), nil },
				jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
				jwt.WithExpirationRequired(),
			)
			if err != nil {
				return apierr.Unauthorized("invalid token")
			}

			userKey, err := uuid.Parse(claims.Subject)
			if err != nil {
				return apierr.Unauthorized("invalid token")
			}

			p := domain.Principal{UserKey: userKey, UserName: claims.UserName}
			prov, err := store.Provenance(ctx, p)
			if err != nil {
				return apierr.FromPersistence(err)
			}
			p.ProvenanceKey = prov.Key

			c.Set(PrincipalContextKey, p)
			return next(c)
		}
	}
}
