package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"
	"golang.org/x/crypto/bcrypt"

	apierr "github.com/carestack/cdr/pkg/api/types/errors"
	apiusers "github.com/carestack/cdr/pkg/api/types/users"
	"github.com/carestack/cdr/pkg/domain"
	domerr "github.com/carestack/cdr/pkg/domain/errors"
	"github.com/carestack/cdr/pkg/persistence"
	"github.com/carestack/cdr/pkg/utils/rfctime"
	"github.com/carestack/cdr/pkg/utils/slices"
)

// PostAuthHandler trades a username/password pair for a signed bearer token.
func PostAuthHandler(store persistence.SecurityStore, signKey string, lifetime time.Duration) echo.HandlerFunc {
	return func(c echo.Context) error {
		ctx := c.Request().Context()

		req := apiusers.AuthRequest{}
		decoder := json.NewDecoder(c.Request().Body)
		decoder.DisallowUnknownFields()
		if err := decoder.Decode(&req); err != nil {
			return apierr.BadRequest(err.Error(), err)
		}

		user, err := store.GetUser(ctx, req.UserName)
		if errors.Is(err, domerr.ErrMissing) {
			// same rendering as a wrong password, not leaking which accounts
			// exist
			return apierr.Unauthorized("wrong username or password")
		} else if err != nil {
			return apierr.FromPersistence(err)
		}

		if user.IsLocked(time.Now()) {
			return apierr.Forbidden("the account is locked")
		}
		if err := bcrypt.CompareHashAndPassword(
			[]byte(user.PasswordHash), []byte(req.Password),
		); err != nil {
			return apierr.Unauthorized("wrong username or password")
		}

		expiresAt := time.Now().Add(lifetime)
		token := jwt.NewWithClaims(jwt.SigningMethodHS256, TokenClaims{
			RegisteredClaims: jwt.RegisteredClaims{
				Subject:   user.Key.String(),
				ExpiresAt: jwt.NewNumericDate(expiresAt),
				IssuedAt:  jwt.NewNumericDate(time.Now()),
			},
			UserName: user.UserName,
		})
		signed, err := token.SignedString([]byte(signKey))
		if err != nil {
			return apierr.InternalServerError(err)
		}

		return c.JSON(http.StatusOK, apiusers.AuthResponse{
			Token:     signed,
			ExpiresAt: rfctime.RFC3339(expiresAt),
		})
	}
}

// CreateUserHandler registers an account, hashing its password server side.
func CreateUserHandler(store persistence.SecurityStore) echo.HandlerFunc {
	return func(c echo.Context) error {
		ctx := c.Request().Context()
		p, err := principal(c)
		if err != nil {
			return err
		}

		req := apiusers.CreateRequest{}
		decoder := json.NewDecoder(c.Request().Body)
		decoder.DisallowUnknownFields()
		if err := decoder.Decode(&req); err != nil {
			return apierr.BadRequest(err.Error(), err)
		}
		if req.UserName == "" || req.Password == "" {
			return apierr.BadRequest("userName and password are required", nil)
		}

		hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
		if err != nil {
			return apierr.InternalServerError(err)
		}

		user, err := store.CreateUser(ctx, p, domain.SecurityUser{
			UserName:     req.UserName,
			PasswordHash: string(hash),
			Email:        req.Email,
		})
		if err != nil {
			return apierr.FromPersistence(err)
		}
		return c.JSON(http.StatusCreated, apiusers.ComposeDetail(user))
	}
}

// ListUsersHandler lists accounts.
func ListUsersHandler(store persistence.SecurityStore) echo.HandlerFunc {
	return func(c echo.Context) error {
		ctx := c.Request().Context()

		users, err := store.ListUsers(ctx)
		if err != nil {
			return apierr.FromPersistence(err)
		}
		return c.JSON(http.StatusOK, slices.Map(users, apiusers.ComposeDetail))
	}
}

// GetUserHandler resolves one account by username.
func GetUserHandler(store persistence.SecurityStore, paramKey string) echo.HandlerFunc {
	return func(c echo.Context) error {
		ctx := c.Request().Context()

		user, err := store.GetUser(ctx, c.Param(paramKey))
		if err != nil {
			return apierr.FromPersistence(err)
		}
		return c.JSON(http.StatusOK, apiusers.ComposeDetail(user))
	}
}

// PutUserLockHandler locks an account until the requested time (default: far
// future).
func PutUserLockHandler(store persistence.SecurityStore, paramKey string) echo.HandlerFunc {
	return func(c echo.Context) error {
		ctx := c.Request().Context()
		p, err := principal(c)
		if err != nil {
			return err
		}

		req := apiusers.LockRequest{}
		decoder := json.NewDecoder(c.Request().Body)
		decoder.DisallowUnknownFields()
		if err := decoder.Decode(&req); err != nil {
			return apierr.BadRequest(err.Error(), err)
		}

		until := time.Now().AddDate(100, 0, 0)
		if req.Until != nil {
			until = req.Until.Time()
		}

		if err := store.SetLockout(ctx, p, c.Param(paramKey), &until); err != nil {
			return apierr.FromPersistence(err)
		}
		return c.NoContent(http.StatusNoContent)
	}
}

// DeleteUserLockHandler unlocks an account.
func DeleteUserLockHandler(store persistence.SecurityStore, paramKey string) echo.HandlerFunc {
	return func(c echo.Context) error {
		ctx := c.Request().Context()
		p, err := principal(c)
		if err != nil {
			return err
		}

		if err := store.SetLockout(ctx, p, c.Param(paramKey), nil); err != nil {
			return apierr.FromPersistence(err)
		}
		return c.NoContent(http.StatusNoContent)
	}
}
