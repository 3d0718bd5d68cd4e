package entity

import (
	"github.com/youta-t/flarc"

	entity_apply "github.com/carestack/cdr/cmd/cdrctl/subcommands/entity/apply"
	entity_find "github.com/carestack/cdr/cmd/cdrctl/subcommands/entity/find"
	entity_rm "github.com/carestack/cdr/cmd/cdrctl/subcommands/entity/rm"
	entity_show "github.com/carestack/cdr/cmd/cdrctl/subcommands/entity/show"
)

func New() (flarc.Command, error) {
	find, err := entity_find.New()
	if err != nil {
		return nil, err
	}

	show, err := entity_show.New()
	if err != nil {
		return nil, err
	}

	apply, err := entity_apply.New()
	if err != nil {
		return nil, err
	}

	rm, err := entity_rm.New()
	if err != nil {
		return nil, err
	}

	return flarc.NewCommandGroup(
		"Manipulate cdr entities.",
		struct{}{},
		flarc.WithSubcommand("find", find),
		flarc.WithSubcommand("show", show),
		flarc.WithSubcommand("apply", apply),
		flarc.WithSubcommand("rm", rm),
	)
}
