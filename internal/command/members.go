package command

import (
	"context"
	"flag"
	"strconv"

	"github.com/kapu/society-cms-go/internal/constants"
	"github.com/kapu/society-cms-go/internal/domain"
	"github.com/kapu/society-cms-go/pkg/errors"
)

func NewMembersCommand(deps *Dependencies) Command {
	c := &membersCommand{deps: deps}
	return &resourceCommand{
		deps:        deps,
		name:        "members",
		description: "Manage committee members",
		route:       constants.Routes.AdminCommittee,
		defaultVerb: "list",
		verbs: map[string]subcommand{
			"list":     {usage: "list", admin: true, run: c.list},
			"active":   {usage: "active", run: c.active},
			"show":     {usage: "show <id>", admin: true, run: c.show},
			"create":   {usage: "create --name N --position P [--bio B] [--image F]", admin: true, run: c.create},
			"update":   {usage: "update <id> [--name N] [--position P] [--active=false] ...", admin: true, run: c.update},
			"delete":   {usage: "delete <id>", admin: true, run: c.remove},
			"finalize": {usage: "finalize <id> <tempPath>", admin: true, run: c.finalize},
		},
	}
}

type membersCommand struct {
	deps *Dependencies
}

type memberInput struct {
	name, position, bio, image string
	active                     bool
}

func (in *memberInput) bind(fs *flag.FlagSet) {
	fs.StringVar(&in.name, "name", "", "full name")
	fs.StringVar(&in.position, "position", "", "committee position")
	fs.StringVar(&in.bio, "bio", "", "short biography")
	fs.StringVar(&in.image, "image", "", "portrait image file")
	fs.BoolVar(&in.active, "active", true, "shown on the public committee page")
}

func (in *memberInput) apply(m domain.Member, set map[string]bool) domain.Member {
	if set["name"] {
		m.Name = in.name
	}
	if set["position"] {
		m.Position = in.position
	}
	if set["bio"] {
		m.Bio = in.bio
	}
	if set["active"] {
		m.Active = in.active
	}
	return m
}

func (c *membersCommand) list(ctx context.Context, inv *Invocation, args []string) error {
	if err := c.deps.Members.FetchAll(ctx); err != nil {
		return err
	}
	return c.deps.println(inv, c.deps.Formatter.FormatMembers("Committee", c.deps.Members.Items()))
}

func (c *membersCommand) active(ctx context.Context, inv *Invocation, args []string) error {
	if err := c.deps.Members.FetchActive(ctx); err != nil {
		return err
	}
	return c.deps.println(inv, c.deps.Formatter.FormatMembers("Active committee", c.deps.Members.Active()))
}

func (c *membersCommand) show(ctx context.Context, inv *Invocation, args []string) error {
	member, err := c.load(ctx, args, "members show <id>")
	if err != nil {
		return err
	}
	c.deps.Members.Select(member)
	defer c.deps.Members.CloseModal()
	return c.deps.println(inv, c.deps.Formatter.FormatMembers("Member", []domain.Member{member}))
}

func (c *membersCommand) create(ctx context.Context, inv *Invocation, args []string) error {
	var in memberInput
	fs := newFlagSet("members create", inv)
	in.bind(fs)
	if err := fs.Parse(args); err != nil {
		return err
	}
	draft := in.apply(domain.Member{Active: true}, visited(fs))
	return c.save(ctx, inv, draft, in.image)
}

func (c *membersCommand) update(ctx context.Context, inv *Invocation, args []string) error {
	positional, flagArgs := splitArgs(args)
	existing, err := c.load(ctx, positional, "members update <id> [flags]")
	if err != nil {
		return err
	}

	var in memberInput
	fs := newFlagSet("members update", inv)
	in.bind(fs)
	if err := fs.Parse(flagArgs); err != nil {
		return err
	}
	return c.save(ctx, inv, in.apply(existing, visited(fs)), in.image)
}

func (c *membersCommand) save(ctx context.Context, inv *Invocation, draft domain.Member, imagePath string) error {
	c.deps.Members.Edit(draft)
	defer c.deps.Members.StopEditing()

	ed := c.deps.MemberEditor
	ed.Load(draft)
	if imagePath != "" {
		file, err := readImage(imagePath)
		if err != nil {
			return err
		}
		if err := ed.SelectImage(ctx, file); err != nil {
			ed.Cancel()
			return err
		}
	}

	saved, err := ed.Submit(ctx)
	if err != nil {
		ed.Cancel()
		return err
	}
	return c.deps.println(inv, c.deps.Formatter.FormatSaved("members", saved.Key(), lastUpload(ed)))
}

func (c *membersCommand) remove(ctx context.Context, inv *Invocation, args []string) error {
	if err := requireArgs(args, 1, "members delete <id>"); err != nil {
		return err
	}
	if err := c.deps.Members.Delete(ctx, args[0]); err != nil {
		return err
	}
	return c.deps.println(inv, c.deps.Formatter.FormatDone("Deleted member "+args[0]))
}

func (c *membersCommand) finalize(ctx context.Context, inv *Invocation, args []string) error {
	return c.deps.finalizeOrphan(ctx, inv, c.deps.MemberImages, "members", args, c.deps.Members.Refresh)
}

// load finds a member in the admin list; there is no single-member endpoint.
func (c *membersCommand) load(ctx context.Context, args []string, usage string) (domain.Member, error) {
	if err := requireArgs(args, 1, usage); err != nil {
		return domain.Member{}, err
	}
	if _, err := strconv.ParseInt(args[0], 10, 64); err != nil {
		return domain.Member{}, errors.NewValidationError("member id must be a number", "id", args[0])
	}
	if err := c.deps.Members.FetchAll(ctx); err != nil {
		return domain.Member{}, err
	}
	member, ok := c.deps.Members.Find(args[0])
	if !ok {
		return domain.Member{}, errors.NewValidationError("no member with id "+args[0], "id", args[0])
	}
	return member, nil
}
