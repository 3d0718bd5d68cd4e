package bundle

import (
	"github.com/youta-t/flarc"

	bundle_submit "github.com/carestack/cdr/cmd/cdrctl/subcommands/bundle/submit"
)

func New() (flarc.Command, error) {
	submit, err := bundle_submit.New()
	if err != nil {
		return nil, err
	}

	return flarc.NewCommandGroup(
		"Manipulate cdr bundles.",
		struct{}{},
		flarc.WithSubcommand("submit", submit),
	)
}
