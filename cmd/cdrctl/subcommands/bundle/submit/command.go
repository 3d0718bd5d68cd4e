package submit

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"

	"github.com/cheggaaa/pb/v3"
	"github.com/youta-t/flarc"

	crest "github.com/carestack/cdr/cmd/cdrctl/rest"
	"github.com/carestack/cdr/cmd/cdrctl/subcommands/common"
	apibundle "github.com/carestack/cdr/pkg/api/types/bundles"
)

type Option struct {
	submit func(context.Context, crest.CdrClient, apibundle.Bundle) (apibundle.Bundle, error)
}

func WithSubmit(
	submit func(context.Context, crest.CdrClient, apibundle.Bundle) (apibundle.Bundle, error),
) func(*Option) *Option {
	return func(opt *Option) *Option {
		opt.submit = submit
		return opt
	}
}

const ARG_BUNDLE_FILE = "BUNDLE_FILE"

func New(options ...func(*Option) *Option) (flarc.Command, error) {
	option := &Option{
		submit: RunSubmitBundle,
	}
	for _, o := range options {
		option = o(option)
	}

	return flarc.NewCommand(
		"Submit bundle files to the cdr server.",
		struct{}{},
		flarc.Args{
			{
				Name: ARG_BUNDLE_FILE, Required: true, Repeatable: true,
				Help: "Path to a bundle file (JSON). Repeatable.",
			},
		},
		common.NewTask(Task(option.submit)),
		flarc.WithDescription(`
Submit bundle files to the cdr server.

Each file holds one bundle: a batch of entities and acts, possibly
referring to each other, stored in a single transaction. Items are
reordered by the server so that a referred record is stored before its
referrers; a bundle with a reference cycle is rejected as a whole.

Files are submitted one by one, in the order given. When one bundle is
rejected the remaining files are not sent.
`),
	)
}

func Task(
	submit func(context.Context, crest.CdrClient, apibundle.Bundle) (apibundle.Bundle, error),
) common.Task[struct{}] {
	return func(
		ctx context.Context,
		logger *log.Logger,
		client crest.CdrClient,
		cl flarc.Commandline[struct{}],
		params []any,
	) error {
		files := cl.Args()[ARG_BUNDLE_FILE]

		total := int64(0)
		sizes := make([]int64, len(files))
		for i, f := range files {
			s, err := os.Stat(f)
			if err != nil {
				return fmt.Errorf("fail to read bundle file (%s): %w", f, err)
			}
			total += s.Size()
			sizes[i] = s.Size()
		}

		bar := pb.New64(total)
		bar.Set(pb.Bytes, true)
		bar.SetWriter(cl.Stderr())
		bar.Start()
		defer bar.Finish()

		stored := make([]apibundle.Bundle, 0, len(files))
		for i, f := range files {
			buf, err := os.ReadFile(f)
			if err != nil {
				return fmt.Errorf("fail to read bundle file (%s): %w", f, err)
			}

			b := new(apibundle.Bundle)
			if err := json.Unmarshal(buf, b); err != nil {
				return fmt.Errorf("fail to parse bundle file (%s): %w", f, err)
			}

			result, err := submit(ctx, client, *b)
			if err != nil {
				return fmt.Errorf("failed to submit bundle (%s): %w", f, err)
			}
			stored = append(stored, result)
			bar.Add64(sizes[i])
		}
		bar.Finish()

		enc := json.NewEncoder(cl.Stdout())
		enc.SetIndent("", "    ")
		if err := enc.Encode(stored); err != nil {
			return err
		}

		return nil
	}
}

func RunSubmitBundle(
	ctx context.Context,
	client crest.CdrClient,
	b apibundle.Bundle,
) (apibundle.Bundle, error) {
	return client.SubmitBundle(ctx, b)
}
