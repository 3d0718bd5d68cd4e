package lock

import (
	"context"
	"fmt"
	"log"

	"github.com/youta-t/flarc"

	crest "github.com/carestack/cdr/cmd/cdrctl/rest"
	"github.com/carestack/cdr/cmd/cdrctl/subcommands/common"
	apiusers "github.com/carestack/cdr/pkg/api/types/users"
	"github.com/carestack/cdr/pkg/utils/rfctime"
)

type Flag struct {
	Until string `flag:"until" metavar:"RFC3339" help:"unlock the account at this time. When omitted, the lock does not expire."`
}

type Option struct {
	lock   func(ctx context.Context, client crest.CdrClient, userName string, req apiusers.LockRequest) error
	unlock func(ctx context.Context, client crest.CdrClient, userName string) error
}

func WithLock(
	lock func(ctx context.Context, client crest.CdrClient, userName string, req apiusers.LockRequest) error,
) func(*Option) *Option {
	return func(opt *Option) *Option {
		opt.lock = lock
		return opt
	}
}

func WithUnlock(
	unlock func(ctx context.Context, client crest.CdrClient, userName string) error,
) func(*Option) *Option {
	return func(opt *Option) *Option {
		opt.unlock = unlock
		return opt
	}
}

const ARG_USER_NAME = "USER_NAME"

// New returns the "lock" command.
func New(options ...func(*Option) *Option) (flarc.Command, error) {
	option := &Option{
		lock: RunLockUser,
	}
	for _, o := range options {
		option = o(option)
	}

	return flarc.NewCommand(
		"Lock an account out of the cdr server.",
		Flag{},
		flarc.Args{
			{
				Name: ARG_USER_NAME, Required: true,
				Help: "name of the account to be locked.",
			},
		},
		common.NewTask(LockTask(option.lock)),
		flarc.WithDescription(`
Lock an account out of the cdr server.

A locked account cannot login until the lockout expires or an admin runs
"user unlock". Tokens issued before the lockout stay valid until they
expire.
`),
	)
}

// NewUnlock returns the "unlock" command.
func NewUnlock(options ...func(*Option) *Option) (flarc.Command, error) {
	option := &Option{
		unlock: RunUnlockUser,
	}
	for _, o := range options {
		option = o(option)
	}

	return flarc.NewCommand(
		"Clear the lockout of an account.",
		struct{}{},
		flarc.Args{
			{
				Name: ARG_USER_NAME, Required: true,
				Help: "name of the account to be unlocked.",
			},
		},
		common.NewTask(UnlockTask(option.unlock)),
	)
}

func LockTask(
	lock func(ctx context.Context, client crest.CdrClient, userName string, req apiusers.LockRequest) error,
) common.Task[Flag] {
	return func(
		ctx context.Context,
		logger *log.Logger,
		client crest.CdrClient,
		cl flarc.Commandline[Flag],
		params []any,
	) error {
		userName := cl.Args()[ARG_USER_NAME][0]

		req := apiusers.LockRequest{}
		if u := cl.Flags().Until; u != "" {
			until, err := rfctime.ParseRFC3339DateTime(u)
			if err != nil {
				return fmt.Errorf("%w: incorrect --until: %s", flarc.ErrUsage, err)
			}
			req.Until = &until
		}

		if err := lock(ctx, client, userName, req); err != nil {
			return err
		}

		logger.Printf("account %s is locked", userName)
		return nil
	}
}

func UnlockTask(
	unlock func(ctx context.Context, client crest.CdrClient, userName string) error,
) common.Task[struct{}] {
	return func(
		ctx context.Context,
		logger *log.Logger,
		client crest.CdrClient,
		cl flarc.Commandline[struct{}],
		params []any,
	) error {
		userName := cl.Args()[ARG_USER_NAME][0]
		if err := unlock(ctx, client, userName); err != nil {
			return err
		}

		logger.Printf("account %s is unlocked", userName)
		return nil
	}
}

func RunLockUser(
	ctx context.Context,
	client crest.CdrClient,
	userName string,
	req apiusers.LockRequest,
) error {
	return client.LockUser(ctx, userName, req)
}

func RunUnlockUser(
	ctx context.Context,
	client crest.CdrClient,
	userName string,
) error {
	return client.UnlockUser(ctx, userName)
}
