package find

import (
	"context"
	"encoding/json"
	"log"

	"github.com/youta-t/flarc"

	crest "github.com/carestack/cdr/cmd/cdrctl/rest"
	"github.com/carestack/cdr/cmd/cdrctl/subcommands/common"
	apiact "github.com/carestack/cdr/pkg/api/types/acts"
)

type Flag struct {
	Class      string `flag:"class" alias:"c" metavar:"CLASS_KEY" help:"class of acts to be found."`
	Mood       string `flag:"mood" metavar:"MOOD_KEY" help:"mood of acts to be found."`
	Status     string `flag:"status" metavar:"STATUS_KEY" help:"status of acts to be found."`
	Patient    string `flag:"patient" alias:"p" metavar:"ENTITY_KEY" help:"find acts recorded for this patient."`
	From       string `flag:"from" metavar:"RFC3339" help:"find acts effective at this time or later."`
	To         string `flag:"to" metavar:"RFC3339" help:"find acts effective before this time."`
	Offset     int    `flag:"offset" help:"skip this many matches before the first result."`
	Count      int    `flag:"count" help:"maximum number of results in one page."`
	QueryId    string `flag:"query-id" help:"continue a paged find started earlier."`
	FuzzyTotal bool   `flag:"fuzzy-total" help:"allow the server to report an approximated total."`
}

type Option struct {
	find func(
		ctx context.Context,
		log *log.Logger,
		client crest.CdrClient,
		filter crest.ActFilter,
		page crest.Page,
	) (apiact.FindResult, error)
}

func WithFind(
	find func(
		ctx context.Context,
		log *log.Logger,
		client crest.CdrClient,
		filter crest.ActFilter,
		page crest.Page,
	) (apiact.FindResult, error),
) func(*Option) *Option {
	return func(opt *Option) *Option {
		opt.find = find
		return opt
	}
}

func New(options ...func(*Option) *Option) (flarc.Command, error) {
	option := &Option{
		find: RunFindAct,
	}
	for _, o := range options {
		option = o(option)
	}

	return flarc.NewCommand(
		"Display acts that satisfy all specified conditions.",
		Flag{},
		flarc.Args{},
		common.NewTask(Task(option.find)),
		flarc.WithDescription(`
Display acts that satisfy all specified conditions.

Example
-------

Finding the encounters of a patient in a timespan:

	{{ .Command }} --patient PATIENT_KEY --from 2026-01-01T00:00:00+00:00 --to 2026-02-01T00:00:00+00:00
`),
	)
}

func Task(
	find func(
		ctx context.Context,
		log *log.Logger,
		client crest.CdrClient,
		filter crest.ActFilter,
		page crest.Page,
	) (apiact.FindResult, error),
) common.Task[Flag] {
	return func(
		ctx context.Context,
		logger *log.Logger,
		client crest.CdrClient,
		cl flarc.Commandline[Flag],
		params []any,
	) error {
		flags := cl.Flags()
		filter := crest.ActFilter{
			Class:   flags.Class,
			Mood:    flags.Mood,
			Status:  flags.Status,
			Patient: flags.Patient,
			From:    flags.From,
			To:      flags.To,
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

func RunFindAct(
	ctx context.Context,
	log *log.Logger,
	client crest.CdrClient,
	filter crest.ActFilter,
	page crest.Page,
) (apiact.FindResult, error) {
	return client.FindActs(ctx, filter, page)
}
