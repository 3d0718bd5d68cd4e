package handlers_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"golang.org/x/crypto/bcrypt"

	httptestutil "github.com/carestack/cdr/internal/testutils/http"
	apiusers "github.com/carestack/cdr/pkg/api/types/users"
	"github.com/carestack/cdr/pkg/domain"
	domerr "github.com/carestack/cdr/pkg/domain/errors"
	"github.com/carestack/cdr/pkg/persistence/mocks"

	"github.com/carestack/cdr/cmd/cdrd/handlers"
)

const testSignKey = "test-sign-key"

func hashFor(t *testing.T, password string) string {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	if err != nil {
		t.Fatal(err)
	}
	return string(hash)
}

func TestPostAuthHandler(t *testing.T) {

	t.Run("valid credentials are traded for a verifiable token", func(t *testing.T) {
		userKey := uuid.New()

		store := mocks.NewSecurityStore()
		store.Impl.GetUser = func(ctx context.Context, userName string) (domain.SecurityUser, error) {
			return domain.SecurityUser{
				BaseRecord:   domain.BaseRecord{Key: userKey},
				UserName:     userName,
				PasswordHash: hashFor(t, "dont-panic"),
			}, nil
		}

		e := echo.New()
		c, respRec := httptestutil.Post(
			e, "/api/auth/",
			bytes.NewReader([]byte(`{"userName": "arthur", "password": "dont-panic"}`)),
			httptestutil.ContentType("application/json"),
		)

		testee := handlers.PostAuthHandler(store, testSignKey, 8*time.Hour)
		if err := testee(c); err != nil {
			t.Fatal(err)
		}

		if respRec.Result().StatusCode != http.StatusOK {
			t.Fatalf("status code is not %d: %d", http.StatusOK, respRec.Result().StatusCode)
		}
		actual := apiusers.AuthResponse{}
		if err := json.Unmarshal(respRec.Body.Bytes(), &actual); err != nil {
			t.Fatalf("response is not json: %s", err)
		}

		claims := handlers.TokenClaims{}
		_, err := jwt.ParseWithClaims(
			actual.Token, &claims,
			func(tk *jwt.Token) (any, error) { return []byte(testSignKey), nil },
		)
		if err != nil {
			t.Fatalf("issued token does not verify: %s", err)
		}
		if claims.Subject != userKey.String() {
			t.Errorf("token subject should be the user key: %s", claims.Subject)
		}
		if claims.UserName != "arthur" {
			t.Errorf("token name claim does not match: %s", claims.UserName)
		}
	})

	t.Run("a wrong password should be 401", func(t *testing.T) {
		store := mocks.NewSecurityStore()
		store.Impl.GetUser = func(ctx context.Context, userName string) (domain.SecurityUser, error) {
			return domain.SecurityUser{
				UserName:     userName,
				PasswordHash: hashFor(t, "dont-panic"),
			}, nil
		}

		e := echo.New()
		c, _ := httptestutil.Post(
			e, "/api/auth/",
			bytes.NewReader([]byte(`{"userName": "arthur", "password": "wrong"}`)),
			httptestutil.ContentType("application/json"),
		)

		testee := handlers.PostAuthHandler(store, testSignKey, 8*time.Hour)
		err := testee(c)

		var echoErr *echo.HTTPError
		if !errors.As(err, &echoErr) {
			t.Fatalf("error is not echo.HTTPError. actual = %#v", err)
		}
		if echoErr.Code != http.StatusUnauthorized {
			t.Errorf("unmatch error code:%d, expected:%d", echoErr.Code, http.StatusUnauthorized)
		}
	})

	t.Run("an unknown account should be 401, same as a wrong password", func(t *testing.T) {
		store := mocks.NewSecurityStore()
		store.Impl.GetUser = func(ctx context.Context, userName string) (domain.SecurityUser, error) {
			return domain.SecurityUser{}, domerr.ErrMissing
		}

		e := echo.New()
		c, _ := httptestutil.Post(
			e, "/api/auth/",
			bytes.NewReader([]byte(`{"userName": "nobody", "password": "x"}`)),
			httptestutil.ContentType("application/json"),
		)

		testee := handlers.PostAuthHandler(store, testSignKey, 8*time.Hour)
		err := testee(c)

		var echoErr *echo.HTTPError
		if !errors.As(err, &echoErr) {
			t.Fatalf("error is not echo.HTTPError. actual = %#v", err)
		}
		if echoErr.Code != http.StatusUnauthorized {
			t.Errorf("unmatch error code:%d, expected:%d", echoErr.Code, http.StatusUnauthorized)
		}
	})

	t.Run("a locked account should be 403 even with the right password", func(t *testing.T) {
		lockout := time.Now().Add(time.Hour)

		store := mocks.NewSecurityStore()
		store.Impl.GetUser = func(ctx context.Context, userName string) (domain.SecurityUser, error) {
			return domain.SecurityUser{
				UserName:     userName,
				PasswordHash: hashFor(t, "dont-panic"),
				Lockout:      &lockout,
			}, nil
		}

		e := echo.New()
		c, _ := httptestutil.Post(
			e, "/api/auth/",
			bytes.NewReader([]byte(`{"userName": "arthur", "password": "dont-panic"}`)),
			httptestutil.ContentType("application/json"),
		)

		testee := handlers.PostAuthHandler(store, testSignKey, 8*time.Hour)
		err := testee(c)

		var echoErr *echo.HTTPError
		if !errors.As(err, &echoErr) {
			t.Fatalf("error is not echo.HTTPError. actual = %#v", err)
		}
		if echoErr.Code != http.StatusForbidden {
			t.Errorf("unmatch error code:%d, expected:%d", echoErr.Code, http.StatusForbidden)
		}
	})
}

func TestCreateUserHandler(t *testing.T) {

	t.Run("the password is hashed before it reaches the store", func(t *testing.T) {
		store := mocks.NewSecurityStore()
		store.Impl.CreateUser = func(ctx context.Context, p domain.Principal, u domain.SecurityUser) (domain.SecurityUser, error) {
			u.Key = uuid.New()
			return u, nil
		}

		e := echo.New()
		c, respRec := httptestutil.Post(
			e, "/api/users/",
			bytes.NewReader([]byte(`{"userName": "ford", "password": "betelgeuse"}`)),
			httptestutil.ContentType("application/json"),
		)
		c.Set(handlers.PrincipalContextKey, domain.Principal{UserKey: uuid.New()})

		testee := handlers.CreateUserHandler(store)
		if err := testee(c); err != nil {
			t.Fatal(err)
		}

		if store.Calls.CreateUser.Times() != 1 {
			t.Fatalf("CreateUser should be called once, actually %d times", store.Calls.CreateUser.Times())
		}
		stored := store.Calls.CreateUser[0].User
		if stored.PasswordHash == "betelgeuse" {
			t.Error("the password should not be stored in clear")
		}
		if err := bcrypt.CompareHashAndPassword(
			[]byte(stored.PasswordHash), []byte("betelgeuse"),
		); err != nil {
			t.Errorf("the stored hash should verify the original password: %s", err)
		}

		if respRec.Result().StatusCode != http.StatusCreated {
			t.Fatalf("status code is not %d: %d", http.StatusCreated, respRec.Result().StatusCode)
		}
		actual := apiusers.Detail{}
		if err := json.Unmarshal(respRec.Body.Bytes(), &actual); err != nil {
			t.Fatalf("response is not json: %s", err)
		}
		if actual.UserName != "ford" {
			t.Errorf("user name does not match: %s", actual.UserName)
		}
	})

	t.Run("an empty password should be 400", func(t *testing.T) {
		store := mocks.NewSecurityStore()

		e := echo.New()
		c, _ := httptestutil.Post(
			e, "/api/users/",
			bytes.NewReader([]byte(`{"userName": "ford", "password": ""}`)),
			httptestutil.ContentType("application/json"),
		)
		c.Set(handlers.PrincipalContextKey, domain.Principal{UserKey: uuid.New()})

		testee := handlers.CreateUserHandler(store)
		err := testee(c)

		var echoErr *echo.HTTPError
		if !errors.As(err, &echoErr) {
			t.Fatalf("error is not echo.HTTPError. actual = %#v", err)
		}
		if echoErr.Code != http.StatusBadRequest {
			t.Errorf("unmatch error code:%d, expected:%d", echoErr.Code, http.StatusBadRequest)
		}
		if store.Calls.CreateUser.Times() != 0 {
			t.Error("CreateUser should not be called")
		}
	})
}

func TestUserLockHandlers(t *testing.T) {

	t.Run("PUT lock passes the requested until to the store", func(t *testing.T) {
		store := mocks.NewSecurityStore()
		store.Impl.SetLockout = func(ctx context.Context, p domain.Principal, userName string, until *time.Time) error {
			return nil
		}

		e := echo.New()
		c, respRec := httptestutil.Put(
			e, "/api/users/zaphod/lock",
			bytes.NewReader([]byte(`{"until": "2026-12-31T00:00:00+00:00"}`)),
			httptestutil.ContentType("application/json"),
		)
		c.SetPath("/users/:name/lock")
		c.SetParamNames("name")
		c.SetParamValues("zaphod")
		c.Set(handlers.PrincipalContextKey, domain.Principal{UserKey: uuid.New()})

		testee := handlers.PutUserLockHandler(store, "name")
		if err := testee(c); err != nil {
			t.Fatal(err)
		}

		call := store.Calls.SetLockout[0]
		if call.UserName != "zaphod" {
			t.Errorf("lock target does not match: %s", call.UserName)
		}
		if call.Until == nil || call.Until.Year() != 2026 || call.Until.Month() != time.December {
			t.Errorf("lockout time does not match: %v", call.Until)
		}
		if respRec.Result().StatusCode != http.StatusNoContent {
			t.Errorf("status code is not %d: %d", http.StatusNoContent, respRec.Result().StatusCode)
		}
	})

	t.Run("DELETE lock clears the lockout", func(t *testing.T) {
		store := mocks.NewSecurityStore()
		store.Impl.SetLockout = func(ctx context.Context, p domain.Principal, userName string, until *time.Time) error {
			return nil
		}

		e := echo.New()
		c, respRec := httptestutil.Delete(e, "/api/users/zaphod/lock")
		c.SetPath("/users/:name/lock")
		c.SetParamNames("name")
		c.SetParamValues("zaphod")
		c.Set(handlers.PrincipalContextKey, domain.Principal{UserKey: uuid.New()})

		testee := handlers.DeleteUserLockHandler(store, "name")
		if err := testee(c); err != nil {
			t.Fatal(err)
		}

		call := store.Calls.SetLockout[0]
		if call.UserName != "zaphod" || call.Until != nil {
			t.Errorf("unlock should pass a nil until: %+v", call)
		}
		if respRec.Result().StatusCode != http.StatusNoContent {
			t.Errorf("status code is not %d: %d", http.StatusNoContent, respRec.Result().StatusCode)
		}
	})
}

func TestBearerAuth(t *testing.T) {

	issue := func(t *testing.T, userKey uuid.UUID, userName string, signKey string, expiresIn time.Duration) string {
		t.Helper()
		token := jwt.NewWithClaims(jwt.SigningMethodHS256, handlers.TokenClaims{
			RegisteredClaims: jwt.RegisteredClaims{
				Subject:   userKey.String(),
				ExpiresAt: jwt.NewNumericDate(time.Now().Add(expiresIn)),
			},
			UserName: userName,
		})
		signed, err := token.SignedString([]byte(signKey))
		if err != nil {
			t.Fatal(err)
		}
		return signed
	}

	t.Run("a valid token yields a principal with provenance stamped", func(t *testing.T) {
		userKey := uuid.New()
		provKey := uuid.New()

		store := mocks.NewSecurityStore()
		store.Impl.Provenance = func(ctx context.Context, p domain.Principal) (domain.Provenance, error) {
			return domain.Provenance{Key: provKey, UserKey: p.UserKey}, nil
		}

		e := echo.New()
		c, _ := httptestutil.Get(
			e, "/api/entities/",
			httptestutil.WithHeader(
				echo.HeaderAuthorization,
				"Bearer "+issue(t, userKey, "arthur", testSignKey, time.Hour),
			),
		)

		var got domain.Principal
		next := func(c echo.Context) error {
			p, ok := c.Get(handlers.PrincipalContextKey).(domain.Principal)
			if !ok {
				t.Fatal("no principal in context")
			}
			got = p
			return nil
		}

		testee := handlers.BearerAuth(store, testSignKey)(next)
		if err := testee(c); err != nil {
			t.Fatal(err)
		}

		if got.UserKey != userKey || got.UserName != "arthur" || got.ProvenanceKey != provKey {
			t.Errorf("principal does not match: %+v", got)
		}
	})

	theoryRejected := func(authorization string) func(*testing.T) {
		return func(t *testing.T) {
			store := mocks.NewSecurityStore()

			e := echo.New()
			opts := []httptestutil.RequestOption{}
			if authorization != "" {
				opts = append(opts, httptestutil.WithHeader(echo.HeaderAuthorization, authorization))
			}
			c, _ := httptestutil.Get(e, "/api/entities/", opts...)

			next := func(c echo.Context) error {
				t.Fatal("next handler should not run")
				return nil
			}

			testee := handlers.BearerAuth(store, testSignKey)(next)
			err := testee(c)

			var echoErr *echo.HTTPError
			if !errors.As(err, &echoErr) {
				t.Fatalf("error is not echo.HTTPError. actual = %#v", err)
			}
			if echoErr.Code != http.StatusUnauthorized {
				t.Errorf("unmatch error code:%d, expected:%d", echoErr.Code, http.StatusUnauthorized)
			}
		}
	}

	t.Run("no header is rejected", theoryRejected(""))
	t.Run("a non-bearer header is rejected", theoryRejected("Basic Zm9vOmJhcg=="))
	t.Run("a garbage token is rejected", theoryRejected("Bearer not.a.token"))

	t.Run("a token signed with another key is rejected", func(t *testing.T) {
		store := mocks.NewSecurityStore()

		e := echo.New()
		c, _ := httptestutil.Get(
			e, "/api/entities/",
			httptestutil.WithHeader(
				echo.HeaderAuthorization,
				"Bearer "+issue(t, uuid.New(), "mallory", "other-key", time.Hour),
			),
		)

		next := func(c echo.Context) error {
			t.Fatal("next handler should not run")
			return nil
		}

		testee := handlers.BearerAuth(store, testSignKey)(next)
		err := testee(c)

		var echoErr *echo.HTTPError
		if !errors.As(err, &echoErr) {
			t.Fatalf("error is not echo.HTTPError. actual = %#v", err)
		}
		if echoErr.Code != http.StatusUnauthorized {
			t.Errorf("unmatch error code:%d, expected:%d", echoErr.Code, http.StatusUnauthorized)
		}
	})

	t.Run("an expired token is rejected", func(t *testing.T) {
		store := mocks.NewSecurityStore()

		e := echo.New()
		c, _ := httptestutil.Get(
			e, "/api/entities/",
			httptestutil.WithHeader(
				echo.HeaderAuthorization,
				"Bearer "+issue(t, uuid.New(), "arthur", testSignKey, -time.Hour),
			),
		)

		next := func(c echo.Context) error {
			t.Fatal("next handler should not run")
			return nil
		}

		testee := handlers.BearerAuth(store, testSignKey)(next)
		err := testee(c)

		var echoErr *echo.HTTPError
		if !errors.As(err, &echoErr) {
			t.Fatalf("error is not echo.HTTPError. actual = %#v", err)
		}
		if echoErr.Code != http.StatusUnauthorized {
			t.Errorf("unmatch error code:%d, expected:%d", echoErr.Code, http.StatusUnauthorized)
		}
	})
}
