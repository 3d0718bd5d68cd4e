package act

import (
	"github.com/youta-t/flarc"

	act_find "github.com/carestack/cdr/cmd/cdrctl/subcommands/act/find"
	act_show "github.com/carestack/cdr/cmd/cdrctl/subcommands/act/show"
)

func New() (flarc.Command, error) {
	find, err := act_find.New()
	if err != nil {
		return nil, err
	}

	show, err := act_show.New()
	if err != nil {
		return nil, err
	}

	return flarc.NewCommandGroup(
		"Manipulate cdr acts.",
		struct{}{},
		flarc.WithSubcommand("find", find),
		flarc.WithSubcommand("show", show),
	)
}
