package command

import (
	"context"

	"github.com/kapu/society-cms-go/internal/constants"
)

func NewNewsletterCommand(deps *Dependencies) Command {
	c := &newsletterCommand{deps: deps}
	return &resourceCommand{
		deps:        deps,
		name:        "newsletter",
		description: "Newsletter subscriptions and sending",
		route:       constants.Routes.AdminDashboard,
		defaultVerb: "subscribers",
		verbs: map[string]subcommand{
			"subscribe":   {usage: "subscribe <email>", run: c.subscribe},
			"unsubscribe": {usage: "unsubscribe <email>", run: c.unsubscribe},
			"verify":      {usage: "verify <token>", run: c.verify},
			"subscribers": {usage: "subscribers", admin: true, run: c.subscribers},
			"toggle":      {usage: "toggle <subscriberId>", admin: true, run: c.toggle},
			"send":        {usage: "send <articleId>", admin: true, run: c.send},
		},
	}
}

type newsletterCommand struct {
	deps *Dependencies
}

func (c *newsletterCommand) subscribe(ctx context.Context, inv *Invocation, args []string) error {
	if err := requireArgs(args, 1, "newsletter subscribe <email>"); err != nil {
		return err
	}
	if err := c.deps.NewsletterService.Subscribe(ctx, args[0]); err != nil {
		return err
	}
	return c.deps.println(inv, c.deps.Formatter.FormatDone("Check "+args[0]+" for a confirmation link"))
}

func (c *newsletterCommand) unsubscribe(ctx context.Context, inv *Invocation, args []string) error {
	if err := requireArgs(args, 1, "newsletter unsubscribe <email>"); err != nil {
		return err
	}
	if err := c.deps.NewsletterService.Unsubscribe(ctx, args[0]); err != nil {
		return err
	}
	return c.deps.println(inv, c.deps.Formatter.FormatDone("Unsubscribed "+args[0]))
}

func (c *newsletterCommand) verify(ctx context.Context, inv *Invocation, args []string) error {
	if err := requireArgs(args, 1, "newsletter verify <token>"); err != nil {
		return err
	}
	result, err := c.deps.NewsletterService.Verify(ctx, args[0])
	if err != nil {
		return err
	}
	return c.deps.println(inv, c.deps.Formatter.FormatVerification(result))
}

func (c *newsletterCommand) subscribers(ctx context.Context, inv *Invocation, args []string) error {
	if err := c.deps.Newsletter.FetchAll(ctx); err != nil {
		return err
	}
	return c.deps.println(inv, c.deps.Formatter.FormatSubscribers(c.deps.Newsletter.Items(), c.deps.Newsletter.ActiveCount()))
}

func (c *newsletterCommand) toggle(ctx context.Context, inv *Invocation, args []string) error {
	if err := requireArgs(args, 1, "newsletter toggle <subscriberId>"); err != nil {
		return err
	}
	if err := c.deps.Newsletter.Toggle(ctx, args[0]); err != nil {
		return err
	}
	return c.deps.println(inv, c.deps.Formatter.FormatDone("Toggled subscriber "+args[0]))
}

func (c *newsletterCommand) send(ctx context.Context, inv *Invocation, args []string) error {
	if err := requireArgs(args, 1, "newsletter send <articleId>"); err != nil {
		return err
	}
	if err := c.deps.Newsletter.Send(ctx, args[0]); err != nil {
		return err
	}
	return c.deps.println(inv, c.deps.Formatter.FormatDone("Newsletter sent for article "+args[0]))
}
