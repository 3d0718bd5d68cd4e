package replicate

import (
	"context"
	"fmt"
	"log"

	"github.com/youta-t/flarc"

	crest "github.com/carestack/cdr/cmd/cdrctl/rest"
	"github.com/carestack/cdr/cmd/cdrctl/subcommands/common"
)

type Option struct {
	copyfunc func(ctx context.Context, client crest.CdrClient, kind string, keys []string) (int, error)
}

func WithCopy(
	copyfunc func(ctx context.Context, client crest.CdrClient, kind string, keys []string) (int, error),
) func(*Option) *Option {
	return func(opt *Option) *Option {
		opt.copyfunc = copyfunc
		return opt
	}
}

const (
	ARG_KIND = "KIND"
	ARG_KEY  = "KEY"
)

func New(options ...func(*Option) *Option) (flarc.Command, error) {
	option := &Option{
		copyfunc: RunCopy,
	}
	for _, o := range options {
		option = o(option)
	}

	return flarc.NewCommand(
		"Copy records into the replica store attached to the cdr server.",
		struct{}{},
		flarc.Args{
			{
				Name: ARG_KIND, Required: true,
				Help: `"entity" or "act".`,
			},
			{
				Name: ARG_KEY, Required: true, Repeatable: true,
				Help: "keys of the records to be copied. Repeatable.",
			},
		},
		common.NewTask(Task(option.copyfunc)),
		flarc.WithDescription(`
Copy records into the replica store attached to the cdr server.

Each record is replicated with its whole version history and the records
it refers to, in foreign-key order, so the replica stays loadable on its
own. The server rejects the request when no replica store is configured.
`),
	)
}

func Task(
	copyfunc func(ctx context.Context, client crest.CdrClient, kind string, keys []string) (int, error),
) common.Task[struct{}] {
	return func(
		ctx context.Context,
		logger *log.Logger,
		client crest.CdrClient,
		cl flarc.Commandline[struct{}],
		params []any,
	) error {
		kind := cl.Args()[ARG_KIND][0]
		if kind != "entity" && kind != "act" {
			return fmt.Errorf(`%w: KIND should be "entity" or "act"`, flarc.ErrUsage)
		}
		keys := cl.Args()[ARG_KEY]

		copied, err := copyfunc(ctx, client, kind, keys)
		if err != nil {
			return err
		}

		logger.Printf("%d %s records are copied to the replica", copied, kind)
		return nil
	}
}

func RunCopy(
	ctx context.Context,
	client crest.CdrClient,
	kind string,
	keys []string,
) (int, error) {
	return client.Copy(ctx, kind, keys)
}
