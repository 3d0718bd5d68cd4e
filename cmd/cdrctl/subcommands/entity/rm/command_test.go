package rm_test

import (
	"context"
	"errors"
	"io"
	"testing"

	"github.com/google/uuid"

	kprof "github.com/carestack/cdr/cmd/cdrctl/config/profiles"
	crst "github.com/carestack/cdr/cmd/cdrctl/rest"
	"github.com/carestack/cdr/cmd/cdrctl/rest/mock"
	"github.com/carestack/cdr/cmd/cdrctl/subcommands/internal/commandline"
	"github.com/carestack/cdr/cmd/cdrctl/subcommands/logger"
	entity_rm "github.com/carestack/cdr/cmd/cdrctl/subcommands/entity/rm"
	"github.com/carestack/cdr/pkg/utils/try"
)

func TestRmCommand(t *testing.T) {
	entityKey := uuid.MustParse("9d3be0a1-7e22-4a5c-a31e-4b74334fc982")

	type when struct {
		purge bool
		err   error
	}

	type then struct {
		err   error
		purge bool
	}

	theory := func(when when, then then) func(*testing.T) {
		return func(t *testing.T) {
			profile := &kprof.CdrProfile{ApiRoot: "http://api.cdr.invalid"}
			client := try.To(crst.NewClient(profile)).OrFatal(t)

			remove := func(
				ctx context.Context, client crst.CdrClient, key string, purge bool,
			) error {
				if key != entityKey.String() {
					t.Errorf("wrong key: %s", key)
				}
				if purge != then.purge {
					t.Errorf("purge = %v, want %v", purge, then.purge)
				}
				return when.err
			}

			testee := entity_rm.Task(remove)

			ctx := context.Background()
			actual := testee(
				ctx, logger.Null(), client,
				commandline.MockCommandline[entity_rm.Flag]{
					Fullname_: "cdrctl entity rm",
					Stdout_:   io.Discard,
					Stderr_:   io.Discard,
					Flags_:    entity_rm.Flag{Purge: when.purge},
					Args_: map[string][]string{
						entity_rm.ARG_ENTITY_KEY: {entityKey.String()},
					},
				},
				[]any{},
			)

			if !errors.Is(actual, then.err) {
				t.Errorf(
					"wrong result: (actual, expected) != (%v, %v)",
					actual, then.err,
				)
			}
		}
	}

	t.Run("when it is passed a key, it should obsolete the entity", theory(
		when{purge: false},
		then{purge: false},
	))

	t.Run("when --purge is passed, it should purge the entity", theory(
		when{purge: true},
		then{purge: true},
	))

	{
		expectedError := errors.New("fake error")
		t.Run("when the client errors, it returns the error", theory(
			when{err: expectedError},
			then{err: expectedError},
		))
	}
}

func TestRunRemoveEntity(t *testing.T) {
	t.Run("when the client does not error, it should pass key and purge as is", func(t *testing.T) {
		ctx := context.Background()
		client := mock.New(t)
		client.Impl.DeleteEntity = func(
			ctx context.Context, key string, purge bool,
		) error {
			return nil
		}

		key := "9d3be0a1-7e22-4a5c-a31e-4b74334fc982"
		if err := entity_rm.RunRemoveEntity(ctx, client, key, true); err != nil {
			t.Fatal(err)
		}

		if len(client.Calls.DeleteEntity) != 1 {
			t.Fatalf("DeleteEntity should be called once")
		}
		if call := client.Calls.DeleteEntity[0]; call.Key != key || !call.Purge {
			t.Errorf("wrong call: %+v", call)
		}
	})
}
