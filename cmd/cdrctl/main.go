package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path"

	subact "github.com/carestack/cdr/cmd/cdrctl/subcommands/act"
	subbundle "github.com/carestack/cdr/cmd/cdrctl/subcommands/bundle"
	"github.com/carestack/cdr/cmd/cdrctl/subcommands/common"
	subentity "github.com/carestack/cdr/cmd/cdrctl/subcommands/entity"
	subinit "github.com/carestack/cdr/cmd/cdrctl/subcommands/init"
	"github.com/carestack/cdr/cmd/cdrctl/subcommands/logger"
	sublogin "github.com/carestack/cdr/cmd/cdrctl/subcommands/login"
	subpatient "github.com/carestack/cdr/cmd/cdrctl/subcommands/patient"
	subreplicate "github.com/carestack/cdr/cmd/cdrctl/subcommands/replicate"
	subuser "github.com/carestack/cdr/cmd/cdrctl/subcommands/user"
	subver "github.com/carestack/cdr/cmd/cdrctl/subcommands/version"
	"github.com/carestack/cdr/pkg/utils/try"
	"github.com/youta-t/flarc"
)

func main() {
	name := path.Base(os.Args[0])
	logger := logger.Default()
	logger.SetPrefix(fmt.Sprintf("[%s] ", name))

	ctx, cancel := signal.NotifyContext(
		context.Background(), os.Interrupt, os.Kill,
	)
	defer cancel()

	cf := try.To(common.Flags(".")).OrFatal(logger)
	init := try.To(subinit.New()).OrFatal(logger)
	login := try.To(sublogin.New()).OrFatal(logger)
	entity := try.To(subentity.New()).OrFatal(logger)
	patient := try.To(subpatient.New()).OrFatal(logger)
	act := try.To(subact.New()).OrFatal(logger)
	bundle := try.To(subbundle.New()).OrFatal(logger)
	replicate := try.To(subreplicate.New()).OrFatal(logger)
	user := try.To(subuser.New()).OrFatal(logger)
	version := try.To(subver.New()).OrFatal(logger)

	cdrctl := try.To(
		flarc.NewCommandGroup(
			"cdr commandline interface",
			cf,
			flarc.WithSubcommand("init", init),
			flarc.WithSubcommand("login", login),
			flarc.WithSubcommand("entity", entity),
			flarc.WithSubcommand("patient", patient),
			flarc.WithSubcommand("act", act),
			flarc.WithSubcommand("bundle", bundle),
			flarc.WithSubcommand("copy", replicate),
			flarc.WithSubcommand("user", user),
			flarc.WithSubcommand("version", version),
		),
	).OrFatal(logger)

	os.Exit(flarc.Run(ctx, cdrctl, flarc.WithHelp(true)))
}
