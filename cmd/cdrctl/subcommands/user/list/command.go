package list

import (
	"context"
	"encoding/json"
	"log"

	"github.com/youta-t/flarc"

	crest "github.com/carestack/cdr/cmd/cdrctl/rest"
	"github.com/carestack/cdr/cmd/cdrctl/subcommands/common"
	apiusers "github.com/carestack/cdr/pkg/api/types/users"
)

type Option struct {
	list func(ctx context.Context, client crest.CdrClient) ([]apiusers.Detail, error)
}

func WithList(
	list func(ctx context.Context, client crest.CdrClient) ([]apiusers.Detail, error),
) func(*Option) *Option {
	return func(opt *Option) *Option {
		opt.list = list
		return opt
	}
}

func New(options ...func(*Option) *Option) (flarc.Command, error) {
	option := &Option{
		list: RunListUsers,
	}
	for _, o := range options {
		option = o(option)
	}

	return flarc.NewCommand(
		"Display all accounts known to the cdr server.",
		struct{}{},
		flarc.Args{},
		common.NewTask(Task(option.list)),
	)
}

func Task(
	list func(ctx context.Context, client crest.CdrClient) ([]apiusers.Detail, error),
) common.Task[struct{}] {
	return func(
		ctx context.Context,
		logger *log.Logger,
		client crest.CdrClient,
		cl flarc.Commandline[struct{}],
		params []any,
	) error {
		users, err := list(ctx, client)
		if err != nil {
			return err
		}

		enc := json.NewEncoder(cl.Stdout())
		enc.SetIndent("", "    ")
		if err := enc.Encode(users); err != nil {
			return err
		}

		return nil
	}
}

func RunListUsers(ctx context.Context, client crest.CdrClient) ([]apiusers.Detail, error) {
	return client.ListUsers(ctx)
}
