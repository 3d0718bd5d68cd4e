package lock_test

import (
	"context"
	"errors"
	"io"
	"testing"

	"github.com/youta-t/flarc"

	kprof "github.com/carestack/cdr/cmd/cdrctl/config/profiles"
	crst "github.com/carestack/cdr/cmd/cdrctl/rest"
	"github.com/carestack/cdr/cmd/cdrctl/subcommands/internal/commandline"
	"github.com/carestack/cdr/cmd/cdrctl/subcommands/logger"
	user_lock "github.com/carestack/cdr/cmd/cdrctl/subcommands/user/lock"
	apiusers "github.com/carestack/cdr/pkg/api/types/users"
	"github.com/carestack/cdr/pkg/utils/try"
)

func TestLockCommand(t *testing.T) {
	type when struct {
		until string
		err   error
	}

	type then struct {
		err       error
		untilYear int
		called    bool
	}

	theory := func(when when, then then) func(*testing.T) {
		return func(t *testing.T) {
			profile := &kprof.CdrProfile{ApiRoot: "http://api.cdr.invalid"}
			client := try.To(crst.NewClient(profile)).OrFatal(t)

			called := false
			lock := func(
				ctx context.Context,
				client crst.CdrClient,
				userName string,
				req apiusers.LockRequest,
			) error {
				called = true
				if userName != "arthur" {
					t.Errorf("wrong userName: %s", userName)
				}
				if then.untilYear == 0 {
					if req.Until != nil {
						t.Errorf("unexpected until: %s", req.Until.Time())
					}
				} else {
					if req.Until == nil {
						t.Fatal("until is not passed")
					}
					if year := req.Until.Time().Year(); year != then.untilYear {
						t.Errorf("wrong until: %s", req.Until.Time())
					}
				}
				return when.err
			}

			testee := user_lock.LockTask(lock)

			ctx := context.Background()
			actual := testee(
				ctx, logger.Null(), client,
				commandline.MockCommandline[user_lock.Flag]{
					Fullname_: "cdrctl user lock",
					Stdout_:   io.Discard,
					Stderr_:   io.Discard,
					Flags_:    user_lock.Flag{Until: when.until},
					Args_: map[string][]string{
						user_lock.ARG_USER_NAME: {"arthur"},
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
			if called != then.called {
				t.Errorf("lock called = %v, want %v", called, then.called)
			}
		}
	}

	t.Run("when no --until is passed, it should lock without expiry", theory(
		when{},
		then{called: true},
	))

	t.Run("when --until is passed, it should reach the client", theory(
		when{until: "2026-12-31T00:00:00+00:00"},
		then{untilYear: 2026, called: true},
	))

	t.Run("when --until is malformed, it should reject the usage", theory(
		when{until: "next tuesday"},
		then{err: flarc.ErrUsage, called: false},
	))

	{
		expectedError := errors.New("fake error")
		t.Run("when the client errors, it returns the error", theory(
			when{err: expectedError},
			then{err: expectedError, called: true},
		))
	}
}

func TestUnlockCommand(t *testing.T) {
	t.Run("when it is passed a name, it should unlock the account", func(t *testing.T) {
		profile := &kprof.CdrProfile{ApiRoot: "http://api.cdr.invalid"}
		client := try.To(crst.NewClient(profile)).OrFatal(t)

		called := false
		unlock := func(ctx context.Context, client crst.CdrClient, userName string) error {
			called = true
			if userName != "arthur" {
				t.Errorf("wrong userName: %s", userName)
			}
			return nil
		}

		testee := user_lock.UnlockTask(unlock)

		ctx := context.Background()
		actual := testee(
			ctx, logger.Null(), client,
			commandline.MockCommandline[struct{}]{
				Fullname_: "cdrctl user unlock",
				Stdout_:   io.Discard,
				Stderr_:   io.Discard,
				Flags_:    struct{}{},
				Args_: map[string][]string{
					user_lock.ARG_USER_NAME: {"arthur"},
				},
			},
			[]any{},
		)

		if actual != nil {
			t.Errorf("unexpected error: %s", actual)
		}
		if !called {
			t.Error("unlock is not called")
		}
	})
}
