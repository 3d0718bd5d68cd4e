package user

import (
	"github.com/youta-t/flarc"

	user_create "github.com/carestack/cdr/cmd/cdrctl/subcommands/user/create"
	user_list "github.com/carestack/cdr/cmd/cdrctl/subcommands/user/list"
	user_lock "github.com/carestack/cdr/cmd/cdrctl/subcommands/user/lock"
)

func New() (flarc.Command, error) {
	list, err := user_list.New()
	if err != nil {
		return nil, err
	}

	create, err := user_create.New()
	if err != nil {
		return nil, err
	}

	lock, err := user_lock.New()
	if err != nil {
		return nil, err
	}

	unlock, err := user_lock.NewUnlock()
	if err != nil {
		return nil, err
	}

	return flarc.NewCommandGroup(
		"Administrate cdr accounts.",
		struct{}{},
		flarc.WithSubcommand("list", list),
		flarc.WithSubcommand("create", create),
		flarc.WithSubcommand("lock", lock),
		flarc.WithSubcommand("unlock", unlock),
	)
}
