package command

import (
	"context"
	"fmt"
)

type HelpCommand struct {
	deps     *Dependencies
	registry *Registry
}

func NewHelpCommand(deps *Dependencies, registry *Registry) *HelpCommand {
	return &HelpCommand{deps: deps, registry: registry}
}

func (c *HelpCommand) Name() string {
	return "help"
}

func (c *HelpCommand) Description() string {
	return "Show available commands"
}

func (c *HelpCommand) Execute(ctx context.Context, inv *Invocation) error {
	_, err := fmt.Fprintln(inv.Out, c.deps.Formatter.FormatHelp(c.registry.Commands()))
	return err
}
