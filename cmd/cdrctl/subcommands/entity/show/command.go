package show

import (
	"context"
	"encoding/json"
	"fmt"
	"log"

	"github.com/youta-t/flarc"

	crest "github.com/carestack/cdr/cmd/cdrctl/rest"
	"github.com/carestack/cdr/cmd/cdrctl/subcommands/common"
	apient "github.com/carestack/cdr/pkg/api/types/entities"
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
	) (apient.Detail, error)
}

func WithShow(
	show func(
		ctx context.Context,
		client crest.CdrClient,
		key string,
		version string,
	) (apient.Detail, error),
) func(*Option) *Option {
	return func(opt *Option) *Option {
		opt.show = show
		return opt
	}
}

const ARG_ENTITY_KEY = "ENTITY_KEY"

func New(options ...func(*Option) *Option) (flarc.Command, error) {
	option := &Option{
		show: RunShowEntity,
	}
	for _, o := range options {
		option = o(option)
	}

	return flarc.NewCommand(
		"Return the entity record for the specified key.",
		Flag{},
		flarc.Args{
			{
				Name: ARG_ENTITY_KEY, Required: true,
				Help: "key of the entity you are finding.",
			},
		},
		common.NewTask(Task(option.show)),
		flarc.WithDescription(`
Return the entity record for the specified key.

By default the current version is returned. Obsoleted entities are
returned too, with their obsoletion time set. Pass "--version" to read
back an older version from the entity's history.
`),
	)
}

func Task(
	show func(
		ctx context.Context,
		client crest.CdrClient,
		key string,
		version string,
	) (apient.Detail, error),
) common.Task[Flag] {
	return func(
		ctx context.Context,
		logger *log.Logger,
		client crest.CdrClient,
		cl flarc.Commandline[Flag],
		params []any,
	) error {
		key := cl.Args()[ARG_ENTITY_KEY][0]
		detail, err := show(ctx, client, key, cl.Flags().Version)
		if err != nil {
			return fmt.Errorf("%w: entity key:%v", err, key)
		}

		enc := json.NewEncoder(cl.Stdout())
		enc.SetIndent("", "    ")
		if err := enc.Encode(detail); err != nil {
			return err
		}

		return nil
	}
}

func RunShowEntity(
	ctx context.Context,
	client crest.CdrClient,
	key string,
	version string,
) (apient.Detail, error) {
	return client.GetEntity(ctx, key, version)
}
