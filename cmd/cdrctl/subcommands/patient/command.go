package patient

import (
	"context"
	"log"

	"github.com/youta-t/flarc"

	crest "github.com/carestack/cdr/cmd/cdrctl/rest"
	entity_find "github.com/carestack/cdr/cmd/cdrctl/subcommands/entity/find"
	entity_show "github.com/carestack/cdr/cmd/cdrctl/subcommands/entity/show"
	apient "github.com/carestack/cdr/pkg/api/types/entities"
	"github.com/carestack/cdr/pkg/domain"
)

// New returns the patient command group. It is a narrowing of the entity
// group with the class pinned to patient records.
func New() (flarc.Command, error) {
	find, err := entity_find.New(entity_find.WithFind(findPatients))
	if err != nil {
		return nil, err
	}

	show, err := entity_show.New()
	if err != nil {
		return nil, err
	}

	return flarc.NewCommandGroup(
		"Manipulate cdr patient records.",
		struct{}{},
		flarc.WithSubcommand("find", find),
		flarc.WithSubcommand("show", show),
	)
}

func findPatients(
	ctx context.Context,
	log *log.Logger,
	client crest.CdrClient,
	filter crest.EntityFilter,
	page crest.Page,
) (apient.FindResult, error) {
	filter.Class = domain.ClassPatient.String()
	return client.FindEntities(ctx, filter, page)
}
