package find_test

import (
	"context"
	"errors"
	"io"
	"log"
	"testing"

	"github.com/google/uuid"
	"github.com/youta-t/flarc"

	kprof "github.com/carestack/cdr/cmd/cdrctl/config/profiles"
	crst "github.com/carestack/cdr/cmd/cdrctl/rest"
	"github.com/carestack/cdr/cmd/cdrctl/subcommands/internal/commandline"
	"github.com/carestack/cdr/cmd/cdrctl/subcommands/logger"
	entity_find "github.com/carestack/cdr/cmd/cdrctl/subcommands/entity/find"
	apient "github.com/carestack/cdr/pkg/api/types/entities"
	"github.com/carestack/cdr/pkg/domain"
	"github.com/carestack/cdr/pkg/utils/try"
)

func TestFindCommand(t *testing.T) {
	type when struct {
		flags  entity_find.Flag
		result apient.FindResult
		err    error
	}

	type then struct {
		err    error
		filter crst.EntityFilter
		page   crst.Page
		called bool
	}

	theory := func(when when, then then) func(*testing.T) {
		return func(t *testing.T) {
			profile := &kprof.CdrProfile{ApiRoot: "http://api.cdr.invalid"}
			client := try.To(crst.NewClient(profile)).OrFatal(t)

			called := false
			find := func(
				ctx context.Context,
				log *log.Logger,
				client crst.CdrClient,
				filter crst.EntityFilter,
				page crst.Page,
			) (apient.FindResult, error) {
				called = true
				if filter != then.filter {
					t.Errorf("wrong filter: %+v", filter)
				}
				if page != then.page {
					t.Errorf("wrong page: %+v", page)
				}
				return when.result, when.err
			}

			testee := entity_find.Task(find)

			ctx := context.Background()
			actual := testee(
				ctx, logger.Null(), client,
				commandline.MockCommandline[entity_find.Flag]{
					Fullname_: "cdrctl entity find",
					Stdout_:   io.Discard,
					Stderr_:   io.Discard,
					Flags_:    when.flags,
					Args_:     map[string][]string{},
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
				t.Errorf("find called = %v, want %v", called, then.called)
			}
		}
	}

	t.Run("when no flag is passed, it should find with a zero filter", theory(
		when{
			flags:  entity_find.Flag{},
			result: apient.FindResult{},
		},
		then{
			called: true,
		},
	))

	t.Run("when filter flags are passed, they should reach the client", theory(
		when{
			flags: entity_find.Flag{
				Class:      domain.ClassPatient.String(),
				Name:       "Smith",
				Count:      50,
				Offset:     100,
				FuzzyTotal: true,
			},
			result: apient.FindResult{
				Items: []apient.Detail{
					{Key: uuid.MustParse("9d3be0a1-7e22-4a5c-a31e-4b74334fc982")},
				},
				Total:       151,
				Approximate: true,
			},
		},
		then{
			filter: crst.EntityFilter{
				Class: domain.ClassPatient.String(),
				Name:  "Smith",
			},
			page: crst.Page{
				Offset:     100,
				Count:      50,
				FuzzyTotal: true,
			},
			called: true,
		},
	))

	t.Run("when --obsolete-only and --include-obsolete are both passed, it should reject the usage", theory(
		when{
			flags: entity_find.Flag{
				IncludeObsolete: true,
				ObsoleteOnly:    true,
			},
		},
		then{
			err:    flarc.ErrUsage,
			called: false,
		},
	))

	t.Run("when --identifier-domain comes without --identifier, it should reject the usage", theory(
		when{
			flags: entity_find.Flag{
				IdentifierDomain: "b7295965-ed24-4b86-8a82-c6151a729437",
			},
		},
		then{
			err:    flarc.ErrUsage,
			called: false,
		},
	))

	{
		expectedError := errors.New("fake error")
		t.Run("when the client errors, it returns the error", theory(
			when{
				flags: entity_find.Flag{},
				err:   expectedError,
			},
			then{
				err:    expectedError,
				called: true,
			},
		))
	}
}
