package find

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
	Class            string `flag:"class" alias:"c" metavar:"CLASS_KEY" help:"class of entities to be found."`
	Status           string `flag:"status" metavar:"STATUS_KEY" help:"status of entities to be found."`
	Name             string `flag:"name" alias:"n" help:"name (or a part of it) of entities to be found."`
	Identifier       string `flag:"identifier" alias:"i" metavar:"VALUE" help:"identifier value of entities to be found."`
	IdentifierDomain string `flag:"identifier-domain" metavar:"DOMAIN_KEY" help:"identity domain of --identifier."`
	IncludeObsolete  bool   `flag:"include-obsolete" help:"include obsoleted entities in the result."`
	ObsoleteOnly     bool   `flag:"obsolete-only" help:"find obsoleted entities only."`
	Offset           int    `flag:"offset" help:"skip this many matches before the first result."`
	Count            int    `flag:"count" help:"maximum number of results in one page."`
	QueryId          string `flag:"query-id" help:"continue a paged find started earlier."`
	FuzzyTotal       bool   `flag:"fuzzy-total" help:"allow the server to report an approximated total."`
}

type Option struct {
	find func(
		ctx context.Context,
		log *log.Logger,
		client crest.CdrClient,
		filter crest.EntityFilter,
		page crest.Page,
	) (apient.FindResult, error)
}

func WithFind(
	find func(
		ctx context.Context,
		log *log.Logger,
		client crest.CdrClient,
		filter crest.EntityFilter,
		page crest.Page,
	) (apient.FindResult, error),
) func(*Option) *Option {
	return func(opt *Option) *Option {
		opt.find = find
		return opt
	}
}

func New(options ...func(*Option) *Option) (flarc.Command, error) {
	option := &Option{
		find: RunFindEntity,
	}
	for _, o := range options {
		option = o(option)
	}

	return flarc.NewCommand(
		"Display entities that satisfy all specified conditions.",
		Flag{},
		flarc.Args{},
		common.NewTask(Task(option.find)),
		flarc.WithDescription(`
Display entities that satisfy all specified conditions.

If no condition is specified, all live entities are displayed.

Totals over a large store are expensive. Pass "--fuzzy-total" to let the
server stop counting once the page is filled; the result is then marked
"approximate" and its total is a lower bound.

Example
-------

Finding entities named like "Smith":

	{{ .Command }} --name Smith

Finding patients by an identifier issued in a known identity domain:

	{{ .Command }} --identifier 12345 --identifier-domain b7295965-ed24-4b86-8a82-c6151a729437

Walking a large result page by page with a frozen snapshot:

	{{ .Command }} --count 50 --fuzzy-total
	{{ .Command }} --count 50 --offset 50 --query-id QUERY_ID_FROM_FIRST_PAGE
`),
	)
}

func Task(
	find func(
		ctx context.Context,
		log *log.Logger,
		client crest.CdrClient,
		filter crest.EntityFilter,
		page crest.Page,
	) (apient.FindResult, error),
) common.Task[Flag] {
	return func(
		ctx context.Context,
		logger *log.Logger,
		client crest.CdrClient,
		cl flarc.Commandline[Flag],
		params []any,
	) error {
		flags := cl.Flags()
		if flags.ObsoleteOnly && flags.IncludeObsolete {
			return fmt.Errorf(
				"%w: --obsolete-only and --include-obsolete are exclusive", flarc.ErrUsage,
			)
		}
		if flags.IdentifierDomain != "" && flags.Identifier == "" {
			return fmt.Errorf(
				"%w: --identifier-domain needs --identifier", flarc.ErrUsage,
			)
		}

		filter := crest.EntityFilter{
			Class:            flags.Class,
			Status:           flags.Status,
			Name:             flags.Name,
			Identifier:       flags.Identifier,
			IdentifierDomain: flags.IdentifierDomain,
			IncludeObsolete:  flags.IncludeObsolete,
			ObsoleteOnly:     flags.ObsoleteOnly,
		}
		page := crest.Page{
			Offset:     flags.Offset,
			Count:      flags.Count,
			QueryId:    flags.QueryId,
			FuzzyTotal: flags.FuzzyTotal,
		}

		result, err := find(ctx, logger, client, filter, page)
		if err != nil {
			return err
		}

		enc := json.NewEncoder(cl.Stdout())
		enc.SetIndent("", "    ")
		if err := enc.Encode(result); err != nil {
			return err
		}

		return nil
	}
}

func RunFindEntity(
	ctx context.Context,
	log *log.Logger,
	client crest.CdrClient,
	filter crest.EntityFilter,
	page crest.Page,
) (apient.FindResult, error) {
	return client.FindEntities(ctx, filter, page)
}
