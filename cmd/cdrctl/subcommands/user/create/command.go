package create

import (
	"context"
	"encoding/json"
	"fmt"
	"log"

	"github.com/youta-t/flarc"

	crest "github.com/carestack/cdr/cmd/cdrctl/rest"
	"github.com/carestack/cdr/cmd/cdrctl/subcommands/common"
	apiusers "github.com/carestack/cdr/pkg/api/types/users"
)

type Flag struct {
	Password string `flag:"password" help:"password of the new account."`
	Email    string `flag:"email" help:"contact email of the new account."`
}

type Option struct {
	create func(ctx context.Context, client crest.CdrClient, req apiusers.CreateRequest) (apiusers.Detail, error)
}

func WithCreate(
	create func(ctx context.Context, client crest.CdrClient, req apiusers.CreateRequest) (apiusers.Detail, error),
) func(*Option) *Option {
	return func(opt *Option) *Option {
		opt.create = create
		return opt
	}
}

const ARG_USER_NAME = "USER_NAME"

func New(options ...func(*Option) *Option) (flarc.Command, error) {
	option := &Option{
		create: RunCreateUser,
	}
	for _, o := range options {
		option = o(option)
	}

	return flarc.NewCommand(
		"Create a new account on the cdr server.",
		Flag{},
		flarc.Args{
			{
				Name: ARG_USER_NAME, Required: true,
				Help: "name of the new account.",
			},
		},
		common.NewTask(Task(option.create)),
	)
}

func Task(
	create func(ctx context.Context, client crest.CdrClient, req apiusers.CreateRequest) (apiusers.Detail, error),
) common.Task[Flag] {
	return func(
		ctx context.Context,
		logger *log.Logger,
		client crest.CdrClient,
		cl flarc.Commandline[Flag],
		params []any,
	) error {
		flags := cl.Flags()
		if flags.Password == "" {
			return fmt.Errorf("%w: --password is required", flarc.ErrUsage)
		}

		req := apiusers.CreateRequest{
			UserName: cl.Args()[ARG_USER_NAME][0],
			Password: flags.Password,
		}
		if flags.Email != "" {
			req.Email = &flags.Email
		}

		created, err := create(ctx, client, req)
		if err != nil {
			return err
		}

		enc := json.NewEncoder(cl.Stdout())
		enc.SetIndent("", "    ")
		if err := enc.Encode(created); err != nil {
			return err
		}

		return nil
	}
}

func RunCreateUser(
	ctx context.Context,
	client crest.CdrClient,
	req apiusers.CreateRequest,
) (apiusers.Detail, error) {
	return client.CreateUser(ctx, req)
}
