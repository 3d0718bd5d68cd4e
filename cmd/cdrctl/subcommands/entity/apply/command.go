package apply

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"

	"github.com/google/uuid"
	"github.com/youta-t/flarc"

	crest "github.com/carestack/cdr/cmd/cdrctl/rest"
	"github.com/carestack/cdr/cmd/cdrctl/subcommands/common"
	apient "github.com/carestack/cdr/pkg/api/types/entities"
)

type Option struct {
	applyfunc func(context.Context, crest.CdrClient, apient.Detail) (apient.Detail, error)
}

func WithApply(
	apply func(context.Context, crest.CdrClient, apient.Detail) (apient.Detail, error),
) func(*Option) *Option {
	return func(opt *Option) *Option {
		opt.applyfunc = apply
		return opt
	}
}

const ARG_ENTITY_FILE = "ENTITY_FILE"

func New(options ...func(*Option) *Option) (flarc.Command, error) {
	option := &Option{
		applyfunc: ApplyEntity,
	}
	for _, opt := range options {
		option = opt(option)
	}

	return flarc.NewCommand(
		"Register an entity file as an entity in the cdr store.",
		struct{}{},
		flarc.Args{
			{
				Name: ARG_ENTITY_FILE, Required: true,
				Help: "Path to the entity file (JSON, in the same shape as `cdrctl entity show` prints).",
			},
		},
		common.NewTask(Task(option.applyfunc)),
		flarc.WithDescription(`
Register an entity file as an entity in the cdr store.

When the file carries a "key", the entity with that key is updated and a
new version is appended to its history. Otherwise a new entity is created
and the assigned keys are printed.

Version keys in the file are ignored; the server always assigns them.
`),
	)
}

func Task(
	applyFunc func(context.Context, crest.CdrClient, apient.Detail) (apient.Detail, error),
) common.Task[struct{}] {
	return func(
		ctx context.Context,
		logger *log.Logger,
		client crest.CdrClient,
		cl flarc.Commandline[struct{}],
		params []any,
	) error {
		args := cl.Args()
		buf, err := os.ReadFile(args[ARG_ENTITY_FILE][0])
		if err != nil {
			return fmt.Errorf("fail to read entity file: %w", err)
		}

		detail := new(apient.Detail)
		if err := json.Unmarshal(buf, detail); err != nil {
			return fmt.Errorf("fail to parse entity file: %w", err)
		}

		result, err := applyFunc(ctx, client, *detail)
		if err != nil {
			return fmt.Errorf("failed to apply entity: %w", err)
		}

		enc := json.NewEncoder(cl.Stdout())
		enc.SetIndent("", "    ")
		if err := enc.Encode(result); err != nil {
			return err
		}

		return nil
	}
}

func ApplyEntity(
	ctx context.Context,
	client crest.CdrClient,
	detail apient.Detail,
) (apient.Detail, error) {
	if detail.Key == uuid.Nil {
		return client.PostEntity(ctx, detail)
	}
	return client.PutEntity(ctx, detail.Key.String(), detail)
}
