package login

import (
	"bufio"
	"context"
	"fmt"
	"log"
	"strings"

	"github.com/youta-t/flarc"

	prof "github.com/carestack/cdr/cmd/cdrctl/config/profiles"
	crest "github.com/carestack/cdr/cmd/cdrctl/rest"
	"github.com/carestack/cdr/cmd/cdrctl/subcommands/common"
	apiusers "github.com/carestack/cdr/pkg/api/types/users"
)

type Flag struct {
	User     string `flag:"user" alias:"u" help:"account name to login as."`
	Password string `flag:"password" help:"password. When omitted, it is read from stdin."`
}

type Option struct {
	login func(
		ctx context.Context,
		client crest.CdrClient,
		userName string,
		password string,
	) (apiusers.AuthResponse, error)
}

func WithLogin(
	login func(
		ctx context.Context,
		client crest.CdrClient,
		userName string,
		password string,
	) (apiusers.AuthResponse, error),
) func(*Option) *Option {
	return func(opt *Option) *Option {
		opt.login = login
		return opt
	}
}

func New(options ...func(*Option) *Option) (flarc.Command, error) {
	option := &Option{
		login: RunLogin,
	}
	for _, o := range options {
		option = o(option)
	}

	return flarc.NewCommand(
		"Login to the cdr server and store the token in your profile.",
		Flag{},
		flarc.Args{},
		common.NewTaskWithCommonFlag(Task(option.login)),
		flarc.WithDescription(`
Trade your credentials for a bearer token.

The token is written into the profile selected by "--profile", and is sent
with every following cdrctl call. Tokens expire; run "{{ .Command }}" again
when the server starts answering with "invalid token".
`),
	)
}

func Task(
	login func(
		ctx context.Context,
		client crest.CdrClient,
		userName string,
		password string,
	) (apiusers.AuthResponse, error),
) common.CdrTaskWithCommonFlag[Flag] {
	return func(
		ctx context.Context,
		logger *log.Logger,
		cf common.CommonFlags,
		cl flarc.Commandline[Flag],
		params []any,
	) error {
		flags := cl.Flags()
		if flags.User == "" {
			return fmt.Errorf("%w: --user is required", flarc.ErrUsage)
		}

		password := flags.Password
		if password == "" {
			fmt.Fprint(cl.Stderr(), "password: ")
			scanner := bufio.NewScanner(cl.Stdin())
			if !scanner.Scan() {
				return fmt.Errorf("%w: no password is given", flarc.ErrUsage)
			}
			password = strings.TrimSpace(scanner.Text())
		}

		profStore, err := prof.LoadProfileStore(cf.ProfileStore)
		if err != nil {
			return fmt.Errorf(
				"%w: cdrprofile store (%s) is not found. Please try `cdrctl init` first",
				err, cf.ProfileStore,
			)
		}
		p, ok := profStore[cf.Profile]
		if !ok {
			return fmt.Errorf(
				"profile '%s' not found in the profile store (%s)",
				cf.Profile, cf.ProfileStore,
			)
		}

		client, err := crest.NewClient(p)
		if err != nil {
			return err
		}

		auth, err := login(ctx, client, flags.User, password)
		if err != nil {
			return err
		}

		p.Token = auth.Token
		if err := profStore.Save(cf.ProfileStore); err != nil {
			return fmt.Errorf(
				"%w: failed to save profile store (%s)", err, cf.ProfileStore,
			)
		}

		logger.Printf(
			"logged in as %s. The token expires at %s",
			flags.User, auth.ExpiresAt.Time().Format("2006-01-02 15:04:05 -0700"),
		)
		return nil
	}
}

func RunLogin(
	ctx context.Context,
	client crest.CdrClient,
	userName string,
	password string,
) (apiusers.AuthResponse, error) {
	return client.Login(ctx, userName, password)
}
