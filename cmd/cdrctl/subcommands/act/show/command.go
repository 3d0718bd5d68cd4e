package show

import (
	"context"
	"encoding/json"
	"fmt"
	"log"

	"github.com/youta-t/flarc"

	crest "github.com/carestack/cdr/cmd/cdrctl/rest"
	"github.com/carestack/cdr/cmd/cdrctl/subcommands/common"
	apiact "github.com/carestack/cdr/pkg/api/types/acts"
)

type Flag struct {
	Version string `flag:"version" metavar:"VERSION_KEY" help:"show this version instead of the current one."`
}

type Option struct {
	show func(
		ctx context.Context,
		client crest.CdrClient,
		key string,
		version string,
	) (apiact.Detail, error)
}

func WithShow(
	show func(
		ctx context.Context,
		client crest.CdrClient,
		key string,
		version string,
	) (apiact.Detail, error),
) func(*Option) *Option {
	return func(opt *Option) *Option {
		opt.show = show
		return opt
	}
}

const ARG_ACT_KEY = "ACT_KEY"

func New(options ...func(*Option) *Option) (flarc.Command, error) {
	option := &Option{
		show: RunShowAct,
	}
	for _, o := range options {
		option = o(option)
	}

	return flarc.NewCommand(
		"Return the act record for the specified key.",
		Flag{},
		flarc.Args{
			{
				Name: ARG_ACT_KEY, Required: true,
				Help: "key of the act you are finding.",
			},
		},
		common.NewTask(Task(option.show)),
	)
}

func Task(
	show func(
		ctx context.Context,
		client crest.CdrClient,
		key string,
		version string,
	) (apiact.Detail, error),
) common.Task[Flag] {
	return func(
		ctx context.Context,
		logger *log.Logger,
		client crest.CdrClient,
		cl flarc.Commandline[Flag],
		params []any,
	) error {
		key := cl.Args()[ARG_ACT_KEY][0]
		detail, err := show(ctx, client, key, cl.Flags().Version)
		if err != nil {
			return fmt.Errorf("%w: act key:%v", err, key)
		}

		enc := json.NewEncoder(cl.Stdout())
		enc.SetIndent("", "    ")
		if err := enc.Encode(detail); err != nil {
			return err
		}

		return nil
	}
}

func RunShowAct(
	ctx context.Context,
	client crest.CdrClient,
	key string,
	version string,
) (apiact.Detail, error) {
	return client.GetAct(ctx, key, version)
}
