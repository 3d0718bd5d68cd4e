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

	"github.com/carestack/cdr/cmd/cdrd/handlers"
	httptestutil "github.com/carestack/cdr/internal/testutils/http"
	apiadmin "github.com/carestack/cdr/pkg/api/types/admin"
	cpool "github.com/carestack/cdr/pkg/conn/db/postgres/pool"
	"github.com/carestack/cdr/pkg/domain"
	"github.com/carestack/cdr/pkg/persistence"
	"github.com/carestack/cdr/pkg/persistence/mocks"
	"github.com/carestack/cdr/pkg/utils/cmp"
	"github.com/carestack/cdr/pkg/utils/try"
)

// stubPool satisfies cpool.Pool for handlers that only pass the pool
// through to the store.
type stubPool struct{}

func (stubPool) Begin(ctx context.Context) (cpool.Tx, error) {
	return nil, errors.New("it should not be called")
}

func (stubPool) Acquire(ctx context.Context) (cpool.Conn, error) {
	return nil, errors.New("it should not be called")
}

func (stubPool) Ping(ctx context.Context) error {
	return errors.New("it should not be called")
}

func TestHealthHandler(t *testing.T) {
	t.Run("when the schema version is readable, it should respond 200 with the version", func(t *testing.T) {
		store := mocks.NewSchemaStore()
		store.Impl.Version = func(ctx context.Context) (int, error) {
			return 3, nil
		}

		e := echo.New()
		c, resprec := httptestutil.Get(e, "/api/health")

		testee := handlers.HealthHandler(store)
		if err := testee(c); err != nil {
			t.Fatalf("unexpected error: %s", err)
		}

		if resprec.Result().StatusCode != http.StatusOK {
			t.Errorf("wrong status code: %d", resprec.Result().StatusCode)
		}

		var health apiadmin.HealthResponse
		if err := json.Unmarshal(resprec.Body.Bytes(), &health); err != nil {
			t.Fatal(err)
		}
		if health.Status != "ok" || health.SchemaVersion != 3 {
			t.Errorf("wrong response: %+v", health)
		}
	})

	t.Run("when the database is unreachable, it should respond 503", func(t *testing.T) {
		store := mocks.NewSchemaStore()
		store.Impl.Version = func(ctx context.Context) (int, error) {
			return -1, errors.New("fake error")
		}

		e := echo.New()
		c, _ := httptestutil.Get(e, "/api/health")

		testee := handlers.HealthHandler(store)
		err := testee(c)
		if err == nil {
			t.Fatal("error is expected")
		}
		var echoErr *echo.HTTPError
		if !errors.As(err, &echoErr) {
			t.Fatalf("unexpected error type: %+v", err)
		}
		if echoErr.Code != http.StatusServiceUnavailable {
			t.Errorf("wrong status code: %d", echoErr.Code)
		}
	})
}

func TestCopyHandler(t *testing.T) {
	keys := []uuid.UUID{
		uuid.MustParse("9d3be0a1-7e22-4a5c-a31e-4b74334fc982"),
		uuid.MustParse("654ac935-fa5a-4a04-8b04-1195521ace1d"),
	}

	principal := domain.Principal{
		UserKey:       uuid.MustParse("24b5e650-7ff1-4f95-94b5-52d42b2e2f2b"),
		ProvenanceKey: uuid.MustParse("a4f7b0e9-6d2e-41a9-88a1-0a54ab9e2a33"),
	}

	t.Run("when it is passed entity keys, it should copy entities into the replica", func(t *testing.T) {
		entities := mocks.NewEntityStore()
		entities.Impl.Copy = func(ctx context.Context, keys []uuid.UUID, dest cpool.Pool) error {
			return nil
		}
		acts := mocks.NewActStore()

		payload := try.To(json.Marshal(
			apiadmin.CopyRequest{Kind: "entity", Keys: keys},
		)).OrFatal(t)

		e := echo.New()
		c, resprec := httptestutil.Post(
			e, "/api/admin/copy", bytes.NewReader(payload),
			httptestutil.ContentType("application/json"),
		)
		c.Set(handlers.PrincipalContextKey, principal)

		testee := handlers.CopyHandler(entities, acts, stubPool{})
		if err := testee(c); err != nil {
			t.Fatalf("unexpected error: %s", err)
		}

		if resprec.Result().StatusCode != http.StatusOK {
			t.Errorf("wrong status code: %d", resprec.Result().StatusCode)
		}
		if entities.Calls.Copy.Times() != 1 {
			t.Fatal("Copy should be called once")
		}
		if !cmp.SliceEq(entities.Calls.Copy[0].Keys, keys) {
			t.Errorf("wrong keys: %+v", entities.Calls.Copy[0].Keys)
		}
		if acts.Calls.Copy.Times() != 0 {
			t.Error("act Copy should not be called")
		}
	})

	t.Run("when no replica is attached, it should respond 503 without touching stores", func(t *testing.T) {
		entities := mocks.NewEntityStore()
		acts := mocks.NewActStore()

		payload := try.To(json.Marshal(
			apiadmin.CopyRequest{Kind: "entity", Keys: keys},
		)).OrFatal(t)

		e := echo.New()
		c, _ := httptestutil.Post(
			e, "/api/admin/copy", bytes.NewReader(payload),
			httptestutil.ContentType("application/json"),
		)
		c.Set(handlers.PrincipalContextKey, principal)

		testee := handlers.CopyHandler(entities, acts, nil)
		err := testee(c)
		var echoErr *echo.HTTPError
		if !errors.As(err, &echoErr) {
			t.Fatalf("unexpected error type: %+v", err)
		}
		if echoErr.Code != http.StatusServiceUnavailable {
			t.Errorf("wrong status code: %d", echoErr.Code)
		}
		if entities.Calls.Copy.Times() != 0 || acts.Calls.Copy.Times() != 0 {
			t.Error("no store should be touched")
		}
	})

	t.Run("when kind is unknown, it should respond 400", func(t *testing.T) {
		entities := mocks.NewEntityStore()
		acts := mocks.NewActStore()

		payload := try.To(json.Marshal(
			apiadmin.CopyRequest{Kind: "concept", Keys: keys},
		)).OrFatal(t)

		e := echo.New()
		c, _ := httptestutil.Post(
			e, "/api/admin/copy", bytes.NewReader(payload),
			httptestutil.ContentType("application/json"),
		)
		c.Set(handlers.PrincipalContextKey, principal)

		testee := handlers.CopyHandler(entities, acts, stubPool{})
		err := testee(c)
		var echoErr *echo.HTTPError
		if !errors.As(err, &echoErr) {
			t.Fatalf("unexpected error type: %+v", err)
		}
		if echoErr.Code != http.StatusBadRequest {
			t.Errorf("wrong status code: %d", echoErr.Code)
		}
	})
}

func TestListSequencesHandler(t *testing.T) {
	t.Run("when sequences are readable, it should respond 200 with name and value", func(t *testing.T) {
		store := mocks.NewSchemaStore()
		store.Impl.Sequences = func(ctx context.Context) ([]persistence.SequenceStatus, error) {
			return []persistence.SequenceStatus{
				{Name: "ent_vrsn_tbl_vrsn_seq_seq", Value: 42},
			}, nil
		}

		e := echo.New()
		c, resprec := httptestutil.Get(e, "/api/admin/sequences")

		testee := handlers.ListSequencesHandler(store)
		if err := testee(c); err != nil {
			t.Fatalf("unexpected error: %s", err)
		}

		var statuses []apiadmin.SequenceStatus
		if err := json.Unmarshal(resprec.Body.Bytes(), &statuses); err != nil {
			t.Fatal(err)
		}
		if len(statuses) != 1 || statuses[0].Value != 42 {
			t.Errorf("wrong response: %+v", statuses)
		}
	})
}
