package handlers_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"testing"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	httptestutil "github.com/carestack/cdr/internal/testutils/http"
	apient "github.com/carestack/cdr/pkg/api/types/entities"
	"github.com/carestack/cdr/pkg/domain"
	domerr "github.com/carestack/cdr/pkg/domain/errors"
	"github.com/carestack/cdr/pkg/persistence"
	"github.com/carestack/cdr/pkg/persistence/mocks"
	"github.com/carestack/cdr/pkg/utils/cmp"

	"github.com/carestack/cdr/cmd/cdrd/handlers"
)

func TestFindEntityHandler(t *testing.T) {

	t.Run("when entities are found, they should be rendered with their totals", func(t *testing.T) {
		classKey := uuid.New()
		keyA, keyB := uuid.New(), uuid.New()

		store := mocks.NewEntityStore()
		store.Impl.Query = func(ctx context.Context, qs []persistence.EntityQuery, opts persistence.QueryOptions) (persistence.EntityResult, error) {
			return persistence.EntityResult{
				Items: []domain.EntityRecord{
					&domain.Patient{Person: domain.Person{Entity: domain.Entity{
						VersionHeader: domain.VersionHeader{Key: keyA},
						ClassKey:      domain.ClassPatient,
					}}},
					&domain.Entity{
						VersionHeader: domain.VersionHeader{Key: keyB},
						ClassKey:      classKey,
					},
				},
				Total:       102,
				Approximate: true,
			}, nil
		}

		e := echo.New()
		c, respRec := httptestutil.Get(
			e, "/api/entities/?class="+classKey.String()+"&name=trillian&count=2&offset=4&fuzzyTotal=true",
		)

		testee := handlers.FindEntityHandler(store)
		if err := testee(c); err != nil {
			t.Fatal(err)
		}

		if store.Calls.Query.Times() != 1 {
			t.Fatalf("Query should be called once, actually %d times", store.Calls.Query.Times())
		}
		call := store.Calls.Query[0]
		if len(call.Queries) != 1 {
			t.Fatalf("one predicate should be passed, actually %d", len(call.Queries))
		}
		if call.Queries[0].ClassKey == nil || *call.Queries[0].ClassKey != classKey {
			t.Errorf("query class does not match: %v", call.Queries[0].ClassKey)
		}
		if call.Queries[0].NameValue == nil || *call.Queries[0].NameValue != "trillian" {
			t.Errorf("query name does not match: %v", call.Queries[0].NameValue)
		}
		if call.Options.Count != 2 || call.Options.Offset != 4 || !call.Options.FuzzyTotal {
			t.Errorf("pagination does not match: %+v", call.Options)
		}

		if respRec.Result().StatusCode != http.StatusOK {
			t.Fatalf("status code is not %d: %d", http.StatusOK, respRec.Result().StatusCode)
		}
		actual := apient.FindResult{}
		if err := json.Unmarshal(respRec.Body.Bytes(), &actual); err != nil {
			t.Fatalf("response is not json: %s", err)
		}
		if actual.Total != 102 || !actual.Approximate {
			t.Errorf("totals do not match: %+v", actual)
		}
		actualKeys := make([]uuid.UUID, 0, len(actual.Items))
		for _, item := range actual.Items {
			actualKeys = append(actualKeys, item.Key)
		}
		if !cmp.SliceEq(actualKeys, []uuid.UUID{keyA, keyB}) {
			t.Errorf("item keys do not match: %v", actualKeys)
		}
		if actual.Items[0].Patient == nil {
			t.Error("first item should carry its patient facet")
		}
		if actual.Items[1].Patient != nil || actual.Items[1].Person != nil {
			t.Error("second item should be a bare entity")
		}
	})

	t.Run("when a query parameter can not be parsed, status code should be 400", func(t *testing.T) {
		store := mocks.NewEntityStore()

		e := echo.New()
		c, _ := httptestutil.Get(e, "/api/entities/?class=not-a-uuid")

		testee := handlers.FindEntityHandler(store)
		err := testee(c)

		var echoErr *echo.HTTPError
		if !errors.As(err, &echoErr) {
			t.Fatalf("error is not echo.HTTPError. actual = %#v", err)
		}
		if echoErr.Code != http.StatusBadRequest {
			t.Errorf("unmatch error code:%d, expected:%d", echoErr.Code, http.StatusBadRequest)
		}
		if store.Calls.Query.Times() != 0 {
			t.Error("Query should not be called")
		}
	})
}

func TestGetEntityHandler(t *testing.T) {

	t.Run("it resolves the requested version", func(t *testing.T) {
		key, versionKey := uuid.New(), uuid.New()

		store := mocks.NewEntityStore()
		store.Impl.Get = func(ctx context.Context, k uuid.UUID, vk uuid.UUID, depth domain.LoadDepth) (domain.EntityRecord, error) {
			return &domain.Entity{
				VersionHeader: domain.VersionHeader{Key: k, VersionKey: vk},
			}, nil
		}

		e := echo.New()
		c, respRec := httptestutil.Get(e, "/api/entities/"+key.String()+"/?version="+versionKey.String())
		c.SetPath("/entities/:key")
		c.SetParamNames("key")
		c.SetParamValues(key.String())

		testee := handlers.GetEntityHandler(store, "key")
		if err := testee(c); err != nil {
			t.Fatal(err)
		}

		call := store.Calls.Get[0]
		if call.Key != key || call.VersionKey != versionKey || call.Depth != domain.LoadFull {
			t.Errorf("Get called with unexpected args: %+v", call)
		}
		if respRec.Result().StatusCode != http.StatusOK {
			t.Errorf("status code is not %d: %d", http.StatusOK, respRec.Result().StatusCode)
		}
	})

	t.Run("when the entity is absent, status code should be 404", func(t *testing.T) {
		store := mocks.NewEntityStore()
		store.Impl.Get = func(ctx context.Context, k uuid.UUID, vk uuid.UUID, depth domain.LoadDepth) (domain.EntityRecord, error) {
			return nil, domerr.ErrMissing
		}

		key := uuid.New()
		e := echo.New()
		c, _ := httptestutil.Get(e, "/api/entities/"+key.String()+"/")
		c.SetPath("/entities/:key")
		c.SetParamNames("key")
		c.SetParamValues(key.String())

		testee := handlers.GetEntityHandler(store, "key")
		err := testee(c)

		var echoErr *echo.HTTPError
		if !errors.As(err, &echoErr) {
			t.Fatalf("error is not echo.HTTPError. actual = %#v", err)
		}
		if echoErr.Code != http.StatusNotFound {
			t.Errorf("unmatch error code:%d, expected:%d", echoErr.Code, http.StatusNotFound)
		}
	})
}

func TestPostEntityHandler(t *testing.T) {

	t.Run("it inserts a patient for the authenticated principal", func(t *testing.T) {
		p := domain.Principal{
			UserKey: uuid.New(), UserName: "arthur", ProvenanceKey: uuid.New(),
		}

		store := mocks.NewEntityStore()
		store.Impl.Insert = func(ctx context.Context, p domain.Principal, rec domain.EntityRecord) (domain.EntityRecord, error) {
			body := rec.EntityBody()
			body.Key = uuid.New()
			body.VersionKey = uuid.New()
			body.VersionSequence = 1
			return rec, nil
		}

		payload := []byte(`{
	"key": "00000000-0000-0000-0000-000000000000",
	"names": [
		{
			"useKey": "b87c2b3f-2f6a-4a9a-8f3f-0e8e8c2c0001",
			"components": [
				{"typeKey": "b87c2b3f-2f6a-4a9a-8f3f-0e8e8c2c0002", "value": "Dent"}
			]
		}
	],
	"patient": {"dateOfBirthPrecision": "Y"}
}`)

		e := echo.New()
		c, respRec := httptestutil.Post(
			e, "/api/entities/", bytes.NewReader(payload),
			httptestutil.ContentType("application/json"),
		)
		c.Set(handlers.PrincipalContextKey, p)

		testee := handlers.PostEntityHandler(store)
		if err := testee(c); err != nil {
			t.Fatal(err)
		}

		if store.Calls.Insert.Times() != 1 {
			t.Fatalf("Insert should be called once, actually %d times", store.Calls.Insert.Times())
		}
		call := store.Calls.Insert[0]
		if call.Principal != p {
			t.Errorf("principal does not match: %+v", call.Principal)
		}
		if _, ok := call.Record.(*domain.Patient); !ok {
			t.Errorf("the patient facet should build a *domain.Patient: %T", call.Record)
		}

		if respRec.Result().StatusCode != http.StatusCreated {
			t.Fatalf("status code is not %d: %d", http.StatusCreated, respRec.Result().StatusCode)
		}
		actual := apient.Detail{}
		if err := json.Unmarshal(respRec.Body.Bytes(), &actual); err != nil {
			t.Fatalf("response is not json: %s", err)
		}
		if actual.Key == uuid.Nil || actual.VersionSequence != 1 {
			t.Errorf("assigned keys should be rendered back: %+v", actual)
		}
	})

	t.Run("when no principal is set, status code should be 401", func(t *testing.T) {
		store := mocks.NewEntityStore()

		e := echo.New()
		c, _ := httptestutil.Post(
			e, "/api/entities/", bytes.NewReader([]byte(`{}`)),
			httptestutil.ContentType("application/json"),
		)

		testee := handlers.PostEntityHandler(store)
		err := testee(c)

		var echoErr *echo.HTTPError
		if !errors.As(err, &echoErr) {
			t.Fatalf("error is not echo.HTTPError. actual = %#v", err)
		}
		if echoErr.Code != http.StatusUnauthorized {
			t.Errorf("unmatch error code:%d, expected:%d", echoErr.Code, http.StatusUnauthorized)
		}
	})

	t.Run("when the payload carries unknown fields, status code should be 400", func(t *testing.T) {
		store := mocks.NewEntityStore()

		e := echo.New()
		c, _ := httptestutil.Post(
			e, "/api/entities/", bytes.NewReader([]byte(`{"no-such-field": true}`)),
			httptestutil.ContentType("application/json"),
		)
		c.Set(handlers.PrincipalContextKey, domain.Principal{UserKey: uuid.New()})

		testee := handlers.PostEntityHandler(store)
		err := testee(c)

		var echoErr *echo.HTTPError
		if !errors.As(err, &echoErr) {
			t.Fatalf("error is not echo.HTTPError. actual = %#v", err)
		}
		if echoErr.Code != http.StatusBadRequest {
			t.Errorf("unmatch error code:%d, expected:%d", echoErr.Code, http.StatusBadRequest)
		}
	})
}

func TestPutEntityHandler(t *testing.T) {

	t.Run("the path key wins over the body key", func(t *testing.T) {
		pathKey := uuid.New()
		bodyKey := uuid.New()

		store := mocks.NewEntityStore()
		store.Impl.Update = func(ctx context.Context, p domain.Principal, rec domain.EntityRecord) (domain.EntityRecord, error) {
			return rec, nil
		}

		payload, err := json.Marshal(apient.Detail{Key: bodyKey})
		if err != nil {
			t.Fatal(err)
		}

		e := echo.New()
		c, respRec := httptestutil.Put(
			e, "/api/entities/"+pathKey.String()+"/", bytes.NewReader(payload),
			httptestutil.ContentType("application/json"),
		)
		c.SetPath("/entities/:key")
		c.SetParamNames("key")
		c.SetParamValues(pathKey.String())
		c.Set(handlers.PrincipalContextKey, domain.Principal{UserKey: uuid.New()})

		testee := handlers.PutEntityHandler(store, "key")
		if err := testee(c); err != nil {
			t.Fatal(err)
		}

		call := store.Calls.Update[0]
		if call.Record.RecordKey() != pathKey {
			t.Errorf("update should target the path key %s, actually %s", pathKey, call.Record.RecordKey())
		}
		if respRec.Result().StatusCode != http.StatusOK {
			t.Errorf("status code is not %d: %d", http.StatusOK, respRec.Result().StatusCode)
		}
	})
}

func TestDeleteEntityHandler(t *testing.T) {

	theory := func(query string, wantPurge bool) func(*testing.T) {
		return func(t *testing.T) {
			key := uuid.New()

			store := mocks.NewEntityStore()
			store.Impl.Obsolete = func(ctx context.Context, p domain.Principal, keys []uuid.UUID) error {
				return nil
			}
			store.Impl.Purge = func(ctx context.Context, p domain.Principal, keys []uuid.UUID) error {
				return nil
			}

			e := echo.New()
			c, respRec := httptestutil.Delete(e, "/api/entities/"+key.String()+"/"+query)
			c.SetPath("/entities/:key")
			c.SetParamNames("key")
			c.SetParamValues(key.String())
			c.Set(handlers.PrincipalContextKey, domain.Principal{UserKey: uuid.New()})

			testee := handlers.DeleteEntityHandler(store, "key")
			if err := testee(c); err != nil {
				t.Fatal(err)
			}

			if wantPurge {
				if store.Calls.Purge.Times() != 1 || store.Calls.Obsolete.Times() != 0 {
					t.Error("purge=true should call Purge only")
				}
				if !cmp.SliceEq(store.Calls.Purge[0].Keys, []uuid.UUID{key}) {
					t.Errorf("Purge keys do not match: %v", store.Calls.Purge[0].Keys)
				}
			} else {
				if store.Calls.Obsolete.Times() != 1 || store.Calls.Purge.Times() != 0 {
					t.Error("default delete should call Obsolete only")
				}
				if !cmp.SliceEq(store.Calls.Obsolete[0].Keys, []uuid.UUID{key}) {
					t.Errorf("Obsolete keys do not match: %v", store.Calls.Obsolete[0].Keys)
				}
			}
			if respRec.Result().StatusCode != http.StatusNoContent {
				t.Errorf("status code is not %d: %d", http.StatusNoContent, respRec.Result().StatusCode)
			}
		}
	}

	t.Run("without purge, it obsoletes", theory("", false))
	t.Run("with purge=true, it purges", theory("?purge=true", true))
}
