package command

import (
	"bufio"
	"context"
	"os"
	"strings"

	"github.com/kapu/society-cms-go/internal/constants"
	"github.com/kapu/society-cms-go/internal/guard"
	"github.com/kapu/society-cms-go/pkg/errors"
)

// PasswordEnv lets scripts log in without a prompt.
const PasswordEnv = "CMS_ADMIN_PASSWORD"

type LoginCommand struct {
	deps *Dependencies
}

func NewLoginCommand(deps *Dependencies) *LoginCommand {
	return &LoginCommand{deps: deps}
}

func (c *LoginCommand) Name() string {
	return "login"
}

func (c *LoginCommand) Description() string {
	return "Log in as an administrator"
}

func (c *LoginCommand) Execute(ctx context.Context, inv *Invocation) error {
	var user, password string
	fs := newFlagSet("login", inv)
	fs.StringVar(&user, "user", "", "username or email")
	fs.StringVar(&password, "password", "", "password (default: $"+PasswordEnv+" or stdin)")
	if err := fs.Parse(inv.Args); err != nil {
		return err
	}
	if user == "" && fs.NArg() > 0 {
		user = fs.Arg(0)
	}
	if user == "" {
		return errors.NewValidationError("usage: login --user <name or email>", "user", "")
	}

	// the login page bounces a session that is still valid
	c.deps.Router.Navigate(constants.Routes.AdminLogin)
	c.deps.Guard.Check(ctx)
	if c.deps.Guard.Enter(constants.Routes.AdminLogin).Outcome == guard.Redirect {
		return c.deps.println(inv, c.deps.Formatter.FormatDone(`Already logged in, run "logout" first to switch accounts`))
	}

	if password == "" {
		password = os.Getenv(PasswordEnv)
	}
	if password == "" && inv.In != nil {
		line, err := bufio.NewReader(inv.In).ReadString('\n')
		if err != nil && line == "" {
			return errors.NewValidationError("no password given", "password", "")
		}
		password = strings.TrimRight(line, "\r\n")
	}

	if err := c.deps.Guard.Login(ctx, user, password); err != nil {
		return err
	}
	return c.deps.println(inv, c.deps.Formatter.FormatDone("Logged in as "+user))
}

type LogoutCommand struct {
	deps *Dependencies
}

func NewLogoutCommand(deps *Dependencies) *LogoutCommand {
	return &LogoutCommand{deps: deps}
}

func (c *LogoutCommand) Name() string {
	return "logout"
}

func (c *LogoutCommand) Description() string {
	return "End the admin session"
}

func (c *LogoutCommand) Execute(ctx context.Context, inv *Invocation) error {
	had := c.deps.Session.HasToken()
	c.deps.Guard.Logout(ctx)
	if !had {
		return c.deps.println(inv, c.deps.Formatter.FormatDone("No session to end"))
	}
	return c.deps.println(inv, c.deps.Formatter.FormatDone("Logged out"))
}

type WhoamiCommand struct {
	deps *Dependencies
}

func NewWhoamiCommand(deps *Dependencies) *WhoamiCommand {
	return &WhoamiCommand{deps: deps}
}

func (c *WhoamiCommand) Name() string {
	return "whoami"
}

func (c *WhoamiCommand) Description() string {
	return "Check whether the stored session is still valid"
}

func (c *WhoamiCommand) Execute(ctx context.Context, inv *Invocation) error {
	if c.deps.Guard.Check(ctx) != guard.StateAuthenticated {
		return errors.NewAuthError(`not logged in, run "login" first`, nil)
	}
	return c.deps.println(inv, c.deps.Formatter.FormatDone("Session is valid"))
}
