package rm

import (
	"context"
	"fmt"
	"log"

	"github.com/youta-t/flarc"

	crest "github.com/carestack/cdr/cmd/cdrctl/rest"
	"github.com/carestack/cdr/cmd/cdrctl/subcommands/common"
)

type Flag struct {
	Purge bool `flag:"purge" help:"erase the whole version history, leaving a tombstone only."`
}

type Option struct {
	remove func(ctx context.Context, client crest.CdrClient, key string, purge bool) error
}

func WithRemove(
	remove func(ctx context.Context, client crest.CdrClient, key string, purge bool) error,
) func(*Option) *Option {
	return func(opt *Option) *Option {
		opt.remove = remove
		return opt
	}
}

const ARG_ENTITY_KEY = "ENTITY_KEY"

func New(options ...func(*Option) *Option) (flarc.Command, error) {
	option := &Option{
		remove: RunRemoveEntity,
	}
	for _, o := range options {
		option = o(option)
	}

	return flarc.NewCommand(
		"Obsolete (or purge) the entity with the specified key.",
		Flag{},
		flarc.Args{
			{
				Name: ARG_ENTITY_KEY, Required: true,
				Help: "key of the entity to be removed.",
			},
		},
		common.NewTask(Task(option.remove)),
		flarc.WithDescription(`
Obsolete the entity with the specified key.

An obsoleted entity keeps its whole version history and can still be read
back; it is only dropped from default find results.

With "--purge", the history is erased down to a tombstone. Purge cannot be
undone.
`),
	)
}

func Task(
	remove func(ctx context.Context, client crest.CdrClient, key string, purge bool) error,
) common.Task[Flag] {
	return func(
		ctx context.Context,
		logger *log.Logger,
		client crest.CdrClient,
		cl flarc.Commandline[Flag],
		params []any,
	) error {
		key := cl.Args()[ARG_ENTITY_KEY][0]
		purge := cl.Flags().Purge
		if err := remove(ctx, client, key, purge); err != nil {
			return fmt.Errorf("%w: entity key:%v", err, key)
		}

		if purge {
			logger.Printf("entity %s is purged", key)
		} else {
			logger.Printf("entity %s is obsoleted", key)
		}
		return nil
	}
}

func RunRemoveEntity(
	ctx context.Context,
	client crest.CdrClient,
	key string,
	purge bool,
) error {
	return client.DeleteEntity(ctx, key, purge)
}
